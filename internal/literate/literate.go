// Package literate extracts and runs the end-to-end scenarios spec.md §8
// lists as literal input→output pairs, captured as Markdown fixtures
// under testdata/scenarios (heading "Test: " starts a case, fenced code
// blocks tagged ```ghoul, ```mangled, or ```error hold the source and the
// expected outcome) so §8's scenarios stay greppable prose instead of Go
// string literals.
//
// Grounded directly on _examples/strager-Zong/sexy/testcase.go's
// goldmark-AST-walk extraction (heading detection, fenced-block
// extraction by language tag, per-case validation of the fences found),
// narrowed from Zong's several assertion kinds down to the two this
// front-end's scenarios need.
package literate

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/yuin/goldmark"
	gmast "github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// FenceKind names the fenced-block languages a scenario recognizes.
type FenceKind string

const (
	FenceSource  FenceKind = "ghoul"
	FenceMangled FenceKind = "mangled"
	FenceError   FenceKind = "error"
)

// Expectation is one ```mangled or ```error fence: either a symbol this
// scenario expects the mangler to have produced, or a diagnostic message
// substring the scenario expects the compiler to have reported.
type Expectation struct {
	Kind    FenceKind
	Content string
}

// Scenario is one "Test: " heading's worth of Markdown: one .ghoul source
// file per ```ghoul fence (a scenario with more than one models separate
// files compiled together, e.g. spec.md §8's cross-file namespace merge),
// plus every expectation that follows before the next heading.
type Scenario struct {
	Name         string
	Sources      []string
	Expectations []Expectation
}

// ExtractScenarios walks md's fenced code blocks, grouping them under
// their nearest preceding "Test: " heading.
func ExtractScenarios(md string) ([]Scenario, error) {
	source := []byte(md)
	doc := goldmark.New().Parser().Parse(text.NewReader(source))

	var scenarios []Scenario
	var current *Scenario

	err := gmast.Walk(doc, func(n gmast.Node, entering bool) (gmast.WalkStatus, error) {
		if !entering {
			return gmast.WalkContinue, nil
		}
		switch node := n.(type) {
		case *gmast.Heading:
			text := headingText(node, source)
			if !strings.HasPrefix(text, "Test: ") {
				return gmast.WalkContinue, nil
			}
			if current != nil {
				if err := validate(current); err != nil {
					return gmast.WalkStop, err
				}
				scenarios = append(scenarios, *current)
			}
			current = &Scenario{Name: strings.TrimPrefix(text, "Test: ")}
		case *gmast.FencedCodeBlock:
			lang := FenceKind(node.Language(source))
			content := strings.TrimRight(blockContent(node, source), "\n")
			if current == nil {
				return gmast.WalkContinue, nil
			}
			switch lang {
			case FenceSource:
				current.Sources = append(current.Sources, content)
			case FenceMangled, FenceError:
				current.Expectations = append(current.Expectations, Expectation{Kind: lang, Content: content})
			case "":
				// unlabeled fences are ignored, e.g. surrounding prose examples
			default:
				return gmast.WalkStop, fmt.Errorf("scenario %q: unknown fence language %q", current.Name, lang)
			}
		}
		return gmast.WalkContinue, nil
	})
	if err != nil {
		return nil, err
	}
	if current != nil {
		if err := validate(current); err != nil {
			return nil, err
		}
		scenarios = append(scenarios, *current)
	}
	return scenarios, nil
}

func validate(s *Scenario) error {
	if len(s.Sources) == 0 {
		return fmt.Errorf("scenario %q has no ghoul fence", s.Name)
	}
	if len(s.Expectations) == 0 {
		return fmt.Errorf("scenario %q has no mangled/error fence", s.Name)
	}
	return nil
}

func headingText(n *gmast.Heading, source []byte) string {
	var buf bytes.Buffer
	gmast.Walk(n, func(c gmast.Node, entering bool) (gmast.WalkStatus, error) {
		if entering {
			if t, ok := c.(*gmast.Text); ok {
				buf.Write(t.Segment.Value(source))
			}
		}
		return gmast.WalkContinue, nil
	})
	return buf.String()
}

func blockContent(block *gmast.FencedCodeBlock, source []byte) string {
	var buf bytes.Buffer
	for i := 0; i < block.Lines().Len(); i++ {
		line := block.Lines().At(i)
		buf.Write(line.Value(source))
	}
	return buf.String()
}
