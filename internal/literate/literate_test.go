package literate

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/nalgeon/be"
)

func TestExtractScenarios_EmptyFunction(t *testing.T) {
	md, err := os.ReadFile(filepath.Join("..", "..", "testdata", "scenarios", "empty_function.md"))
	be.Err(t, err, nil)

	scenarios, err := ExtractScenarios(string(md))
	be.Err(t, err, nil)
	be.Equal(t, len(scenarios), 1)
	be.Equal(t, scenarios[0].Name, "empty main mangles to _Z4mainv")
	be.Equal(t, len(scenarios[0].Sources), 1)
	be.Equal(t, scenarios[0].Expectations[0].Content, "_Z4mainv")
}

func TestExtractScenarios_NamespaceMergeHasTwoFiles(t *testing.T) {
	md, err := os.ReadFile(filepath.Join("..", "..", "testdata", "scenarios", "namespace_merge.md"))
	be.Err(t, err, nil)

	scenarios, err := ExtractScenarios(string(md))
	be.Err(t, err, nil)
	be.Equal(t, len(scenarios), 1)
	be.Equal(t, len(scenarios[0].Sources), 2)
	be.Equal(t, len(scenarios[0].Expectations), 2)
}

func TestExtractScenarios_RejectsUnknownFence(t *testing.T) {
	_, err := ExtractScenarios("# Test: bad\n\n```ghoul\nfunc main() -> void {}\n```\n\n```yaml\nnope\n```\n")
	be.True(t, err != nil)
}

func TestExtractScenarios_EveryScenarioFileParses(t *testing.T) {
	files, err := filepath.Glob(filepath.Join("..", "..", "testdata", "scenarios", "*.md"))
	be.Err(t, err, nil)
	be.True(t, len(files) > 0)

	for _, f := range files {
		md, err := os.ReadFile(f)
		be.Err(t, err, nil)
		scenarios, err := ExtractScenarios(string(md))
		be.Err(t, err, nil)
		be.True(t, len(scenarios) > 0)
	}
}
