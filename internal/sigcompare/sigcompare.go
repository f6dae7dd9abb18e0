// Package sigcompare implements SignatureComparer (spec §4.H): signature
// identity and similarity for overload resolution and redefinition
// checking, plus call-argument-to-parameter matching that accounts for
// argument labels and defaults; call matching does not compare pass modes
// (in/out/ref).
//
// Grounded on spec.md §4.H's description directly; no pack repo needs
// Itanium-style overload-signature comparison, so this follows the
// teacher's small-package, single-responsibility shape (one file, a
// handful of exported functions) rather than any specific teacher file.
package sigcompare

import (
	"fmt"
	"strings"

	"ghoulc/internal/ast"
	"ghoulc/internal/typeutil"
)

// paramList extracts the ordered parameter list from any declaration
// shape that carries one, or nil for shapes that don't (e.g. PropertyDecl).
func paramList(d ast.Decl) []*ast.ParameterDecl {
	switch n := d.(type) {
	case *ast.FunctionDecl:
		return n.Params
	case *ast.OperatorDecl:
		return n.Params
	case *ast.ConstructorDecl:
		return n.Params
	}
	return nil
}

// SameSignature reports whether a and b would be genuine redeclarations
// of one another: same name (checked by the caller) and structurally
// identical parameter type/pass-mode lists, ignoring labels and defaults
// (spec §4.H: "signature identity ignores labels/defaults; call matching
// uses them").
func SameSignature(a, b ast.Decl) bool {
	pa, pb := paramList(a), paramList(b)
	if len(pa) != len(pb) {
		return false
	}
	for i := range pa {
		if pa[i].PassMode != pb[i].PassMode {
			return false
		}
		if !typeutil.Equal(pa[i].Type, pb[i].Type, typeutil.Strict) {
			return false
		}
	}
	return true
}

// SignatureKey renders a stable string for d's parameter shape, used as a
// map key to distinguish overloads without doing pairwise comparisons.
func SignatureKey(d ast.Decl) string {
	var sb strings.Builder
	for _, p := range paramList(d) {
		fmt.Fprintf(&sb, "%d:%s,", p.PassMode, typeutil.Describe(p.Type))
	}
	return sb.String()
}

// Argument is one call-site argument: an optional label ("" or "_" for
// unlabeled) and its static type.
type Argument struct {
	Label string
	Type  ast.Type
}

// Matches reports whether args satisfies params under spec §4.H's
// call-matching rules: every parameter without a matching argument must
// have a Default, a labeled argument must name an unused parameter's
// Label, and unlabeled (or "_") arguments fill the remaining parameters
// in order, whatever those parameters' labels are.
func Matches(params []*ast.ParameterDecl, args []Argument) bool {
	used := make([]bool, len(params))
	// First pass: bind every labeled argument to its named parameter.
	positional := make([]Argument, 0, len(args))
	for _, a := range args {
		if a.Label == "" || a.Label == "_" {
			positional = append(positional, a)
			continue
		}
		idx := -1
		for i, p := range params {
			if !used[i] && p.Label == a.Label {
				idx = i
				break
			}
		}
		if idx == -1 {
			return false
		}
		if !typeutil.AssignableTo(a.Type, params[idx].Type) {
			return false
		}
		used[idx] = true
	}
	// Second pass: fill remaining unused parameters positionally.
	pi := 0
	for _, a := range positional {
		for pi < len(params) && used[pi] {
			pi++
		}
		if pi >= len(params) {
			return false
		}
		if !typeutil.AssignableTo(a.Type, params[pi].Type) {
			return false
		}
		used[pi] = true
		pi++
	}
	// Every unmatched parameter must have a default.
	for i, p := range params {
		if !used[i] && p.Default == nil {
			return false
		}
	}
	return true
}

// MoreSpecific reports whether candidate a should be preferred over b when
// both Match the same call (spec §4.H tie-break): the one that leaves
// fewer parameters to their defaults, counted as parameters minus
// arguments. Implicit conversions are not counted.
func MoreSpecific(a, b []*ast.ParameterDecl, args []Argument) bool {
	da, db := defaultsUsed(a, args), defaultsUsed(b, args)
	return da < db
}

func defaultsUsed(params []*ast.ParameterDecl, args []Argument) int {
	return len(params) - len(args)
}
