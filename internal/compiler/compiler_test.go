package compiler

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/nalgeon/be"

	"ghoulc/internal/ast"
	"ghoulc/internal/diagnostics"
	"ghoulc/internal/literate"
	"ghoulc/internal/target"
)

func loadScenario(t *testing.T, file string) literate.Scenario {
	md, err := os.ReadFile(filepath.Join("..", "..", "testdata", "scenarios", file))
	be.Err(t, err, nil)
	scenarios, err := literate.ExtractScenarios(string(md))
	be.Err(t, err, nil)
	be.Equal(t, len(scenarios), 1)
	return scenarios[0]
}

func sourceNames(sc literate.Scenario) ([]string, map[string]string) {
	names := make([]string, len(sc.Sources))
	sources := make(map[string]string, len(sc.Sources))
	for i, src := range sc.Sources {
		name := "file" + string(rune('0'+i)) + ".ghoul"
		names[i] = name
		sources[name] = src
	}
	return names, sources
}

func allMangledNames(reg *ast.Registry) []string {
	var out []string
	for _, d := range reg.All() {
		if m := d.Base().MangledName; m != "" {
			out = append(out, m)
		}
	}
	return out
}

func TestScenarioEmptyFunction(t *testing.T) {
	sc := loadScenario(t, "empty_function.md")
	names, sources := sourceNames(sc)

	result := CompileSources(names, sources, diagnostics.NewDiagnosticBag(), target.Host())

	mangled := allMangledNames(result.Registry)
	for _, exp := range sc.Expectations {
		if exp.Kind == literate.FenceMangled {
			be.True(t, contains(mangled, exp.Content))
		}
	}
}

func TestScenarioArgumentLabels(t *testing.T) {
	sc := loadScenario(t, "argument_labels.md")
	names, sources := sourceNames(sc)

	result := CompileSources(names, sources, diagnostics.NewDiagnosticBag(), target.Host())

	mangled := allMangledNames(result.Registry)
	for _, exp := range sc.Expectations {
		if exp.Kind == literate.FenceMangled {
			be.True(t, contains(mangled, exp.Content))
		}
	}
}

func TestScenarioNamespaceMerge(t *testing.T) {
	sc := loadScenario(t, "namespace_merge.md")
	names, sources := sourceNames(sc)

	result := CompileSources(names, sources, diagnostics.NewDiagnosticBag(), target.Host())

	mangled := allMangledNames(result.Registry)
	for _, exp := range sc.Expectations {
		if exp.Kind == literate.FenceMangled {
			be.True(t, contains(mangled, exp.Content))
		}
	}
}

func TestScenarioWhereExtendsFailureReportsExpectedMessage(t *testing.T) {
	sc := loadScenario(t, "where_extends.md")
	names, sources := sourceNames(sc)

	var out strings.Builder
	var fataled bool
	diags := diagnostics.NewTestBag(&out, func(code int) {
		fataled = true
		panic("fatal")
	})

	func() {
		defer func() { recover() }()
		CompileSources(names, sources, diags, target.Host())
	}()

	be.True(t, fataled)
	for _, exp := range sc.Expectations {
		if exp.Kind == literate.FenceError {
			be.True(t, strings.Contains(out.String(), exp.Content))
		}
	}
}

func contains(haystack []string, needle string) bool {
	for _, s := range haystack {
		if s == needle {
			return true
		}
	}
	return false
}
