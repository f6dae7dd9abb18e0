// Package nsproto is the NamespacePrototyper pass (A in spec §2/§4.C): the
// first of five semantic passes that walk the parsed-file forest into one
// merged program. Every file is parsed independently and may reopen the
// same namespace path, so before anything else can resolve names across
// files, every NamespaceDecl sharing a dotted path is merged into one
// prototype whose Members list is the union of all reopenings, in file
// order (spec §4.C: "merge namespaces across files by identifier").
//
// The merge algorithm is grounded on itsfuad-Ferret's
// internal/semantics/collector, which walks each module's declarations
// into a shared table before any type information exists; here the
// "table" is simply the first NamespaceDecl seen for a given path, and
// later reopenings are folded into it rather than tracked as siblings.
package nsproto

import (
	"ghoulc/internal/ast"
)

// Result is the output of a NamespacePrototyper run: every top-level decl
// across every file, with namespace reopenings merged by dotted path.
type Result struct {
	// TopLevel holds one entry per distinct top-level declaration after
	// merging: one NamespaceDecl per distinct path (first-seen instance,
	// with every reopening's members appended to it), plus every
	// non-namespace top-level decl (ImportDecl and file-scope decls)
	// unchanged.
	TopLevel []ast.Decl
}

// Run merges namespace reopenings across every parsed file's top-level
// declaration list into a single prototype tree. filesDecls holds one
// slice per source file, in the order files were parsed (spec §4.C:
// cross-file merge is stable in file-then-declaration order).
func Run(filesDecls [][]ast.Decl) *Result {
	byPath := make(map[string]*ast.NamespaceDecl)
	var order []string
	var topLevel []ast.Decl

	for _, decls := range filesDecls {
		for _, d := range decls {
			ns, ok := d.(*ast.NamespaceDecl)
			if !ok {
				topLevel = append(topLevel, d)
				continue
			}
			mergeNamespace(ns, byPath, &order, &topLevel)
		}
	}
	return &Result{TopLevel: topLevel}
}

// mergeNamespace folds ns (and, recursively, any nested namespaces among
// its Members) into the shared byPath table keyed on the dotted path
// formed by walking Container back-references is not yet possible here
// (BasicDeclValidator hasn't run), so the path is instead the namespace's
// own Ident chain as written: nsproto only ever sees a NamespaceDecl at
// the point its immediate parent constructed it, so Ident alone is the
// merge key at each nesting level, and nested namespaces are merged
// depth-first before the top-level path is recorded.
func mergeNamespace(ns *ast.NamespaceDecl, byPath map[string]*ast.NamespaceDecl, order *[]string, topLevel *[]ast.Decl) {
	var rest []ast.Decl
	for _, m := range ns.Members {
		if inner, ok := m.(*ast.NamespaceDecl); ok {
			mergeNamespace(inner, byPath, order, &rest)
		} else {
			rest = append(rest, m)
		}
	}

	path := namespacePath(ns)
	existing, seen := byPath[path]
	if !seen {
		merged := &ast.NamespaceDecl{DeclBase: ns.DeclBase, Members: rest}
		byPath[path] = merged
		*order = append(*order, path)
		*topLevel = append(*topLevel, merged)
		return
	}
	existing.Members = append(existing.Members, rest...)
}

// namespacePath renders the merge key for one NamespaceDecl. Namespaces
// are keyed purely by their own declared identifier (spec §4.C: "dedupe
// by path" — a namespace's path is its Ident, since Container isn't
// populated until BasicDeclValidator).
func namespacePath(ns *ast.NamespaceDecl) string {
	return ns.Ident
}
