// Package declvalidate is the BasicDeclValidator pass (B in spec §2/§4.D):
// the second semantic pass, run once NamespacePrototyper has produced a
// single merged top-level declaration list. It resolves imports against
// the merged namespace set, assigns every nested declaration's Container
// back-reference to its lexical owner, injects synthesized `self` types on
// struct/trait members, and rejects redefinitions using SignatureComparer
// so that two same-named-but-different-signature overloads are accepted
// while true duplicates are fatal.
//
// Grounded on itsfuad-Ferret's internal/semantics/resolver (import
// resolution across a module graph) and internal/table/symbolTable.go's
// Declare (duplicate-name rejection), adapted to this pass's
// Container-assignment and self-type-injection responsibilities.
package declvalidate

import (
	"strings"

	"ghoulc/internal/ast"
	"ghoulc/internal/diagnostics"
	"ghoulc/internal/sigcompare"
)

// Validator carries the shared state one BasicDeclValidator run needs: the
// declaration registry (so Container back-references can be recorded by
// DeclId) and the diagnostic bag errors are reported through.
type Validator struct {
	reg   *ast.Registry
	diags *diagnostics.DiagnosticBag

	namespacesByPath map[string]*ast.NamespaceDecl
}

// New creates a BasicDeclValidator bound to reg/diags.
func New(reg *ast.Registry, diags *diagnostics.DiagnosticBag) *Validator {
	return &Validator{reg: reg, diags: diags, namespacesByPath: map[string]*ast.NamespaceDecl{}}
}

// Run walks the merged top-level declaration list, resolving imports,
// assigning Container back-references, injecting self types, and checking
// for redefinitions at every scope level.
func (v *Validator) Run(topLevel []ast.Decl) {
	v.collectNamespaces(topLevel)
	v.validateScope(topLevel, ast.InvalidDeclId)
}

// collectNamespaces indexes every NamespaceDecl reachable from topLevel
// (including ones nested inside another namespace's Members) by its
// dotted path, so imports anywhere in the compilation can resolve
// regardless of nesting depth.
func (v *Validator) collectNamespaces(decls []ast.Decl) {
	for _, d := range decls {
		if ns, ok := d.(*ast.NamespaceDecl); ok {
			v.namespacesByPath[ns.Ident] = ns
			v.collectNamespaces(ns.Members)
		}
	}
}

// validateScope validates one lexical scope's declaration list: checks for
// redefinitions among siblings, sets each sibling's Container to owner,
// resolves imports, injects self types, and recurses into nested scopes.
func (v *Validator) validateScope(decls []ast.Decl, owner ast.DeclId) {
	seen := make(map[string]ast.Decl)

	for _, d := range decls {
		base := d.Base()
		base.Container = owner

		switch n := d.(type) {
		case *ast.ImportDecl:
			v.resolveImport(n)
			continue
		case *ast.NamespaceDecl:
			v.validateScope(n.Members, n.Id())
			continue
		case *ast.StructDecl:
			v.checkRedefinition(seen, n.Ident, d)
			v.injectSelfType(n.Members, &ast.StructType{Decl: n.Id()})
			v.validateScope(n.Members, n.Id())
			continue
		case *ast.TraitDecl:
			v.checkRedefinition(seen, n.Ident, d)
			v.injectSelfType(n.Requirements, &ast.TraitType{Decl: n.Id()})
			v.validateScope(n.Requirements, n.Id())
			continue
		case *ast.ExtensionDecl:
			v.validateScope(n.Members, owner)
			continue
		case *ast.EnumDecl:
			v.checkRedefinition(seen, n.Ident, d)
			for _, c := range n.Consts {
				c.Container = n.Id()
			}
			continue
		case *ast.FunctionDecl, *ast.OperatorDecl, *ast.PropertyDecl:
			v.checkOverloadableRedefinition(seen, d)
			continue
		default:
			v.checkRedefinition(seen, base.Ident, d)
			continue
		}
	}
}

// checkRedefinition rejects a second declaration under the same name at
// the same scope. Functions/operators/properties are exempt (handled by
// checkOverloadableRedefinition instead) since overloading is legal there.
func (v *Validator) checkRedefinition(seen map[string]ast.Decl, name string, d ast.Decl) {
	if name == "" {
		return
	}
	if prev, ok := seen[name]; ok {
		v.diags.Add(diagnostics.Redefinition(d.Base().Location, prev.Base().Location, name))
		return
	}
	seen[name] = d
}

// checkOverloadableRedefinition allows same-named function/operator/
// property siblings as long as SignatureComparer finds their signatures
// distinct; a true duplicate (identical signature) is still fatal.
func (v *Validator) checkOverloadableRedefinition(seen map[string]ast.Decl, d ast.Decl) {
	name := d.Base().Ident
	if name == "" {
		return
	}
	key := name
	if prev, ok := seen[key]; ok {
		if sigcompare.SameSignature(prev, d) {
			v.diags.Add(diagnostics.Redefinition(d.Base().Location, prev.Base().Location, name))
			return
		}
		// Distinct from the first overload: check it against the later
		// overloads recorded under their synthesized name#signature key,
		// then record it too so a further identical overload is caught.
		sigKey := key + "#" + sigcompare.SignatureKey(d)
		if later, ok := seen[sigKey]; ok && sigcompare.SameSignature(later, d) {
			v.diags.Add(diagnostics.Redefinition(d.Base().Location, later.Base().Location, name))
			return
		}
		seen[sigKey] = d
		return
	}
	seen[key] = d
	seen[key+"#"+sigcompare.SignatureKey(d)] = d
}

// injectSelfType assigns self synthesized on every method-shaped member
// (spec §4.D: "self-type injection"): each non-static FunctionDecl
// declared inside a struct or trait receives the owning type as its
// SelfType. OperatorDecl, ConstructorDecl and PropertyDecl members are
// left unchanged.
func (v *Validator) injectSelfType(members []ast.Decl, selfType ast.Type) {
	for _, m := range members {
		switch n := m.(type) {
		case *ast.FunctionDecl:
			if !n.Modifiers.Has(ast.ModStatic) {
				n.SelfType = selfType
			}
		case *ast.OperatorDecl:
			// Operators always carry an implicit receiver, except CallOperator
			// declared with 'static' (spec §3 doesn't forbid static call
			// operators explicitly, but conventionally every other operator
			// kind is an instance member).
		}
	}
}

// resolveImport binds an ImportDecl to the merged NamespaceDecl with a
// matching dotted path, or reports UndefinedName if no such namespace was
// ever declared anywhere in the compilation.
func (v *Validator) resolveImport(imp *ast.ImportDecl) {
	path := strings.Join(imp.Path, ".")
	ns, ok := v.namespacesByPath[path]
	if !ok {
		v.diags.Add(diagnostics.UndefinedName(imp.Location, path))
		return
	}
	imp.Resolved = ns.Id()
}
