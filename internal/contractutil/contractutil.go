// Package contractutil implements ContractUtil (spec §4.H): evaluating
// whether a candidate type satisfies a `where T: Trait` constraint
// (CheckExtendsTypeExpr), used by DeclInstantiator when validating a
// template argument against its parameter's constraint list (spec §4.F
// step 3).
//
// Grounded on spec.md §4.H directly; no pack repo implements trait/
// constraint satisfaction, so this follows the teacher's small-package
// style rather than any specific teacher file.
package contractutil

import "ghoulc/internal/ast"

// Extends reports whether sub structurally satisfies super: sub is super
// itself, or one of sub's declared Bases (walked transitively) is super.
// reg resolves DeclId back-references for the base-chain walk.
func Extends(reg *ast.Registry, sub, super ast.Type) bool {
	subDecl, ok := ownerOf(sub)
	if !ok {
		return false
	}
	superDecl, ok := ownerOf(super)
	if !ok {
		return false
	}
	if subDecl == superDecl {
		return true
	}
	return walksToward(reg, subDecl, superDecl, map[ast.DeclId]bool{})
}

// ownerOf extracts the DeclId a StructType/TraitType/EnumType refers to.
func ownerOf(t ast.Type) (ast.DeclId, bool) {
	switch x := t.(type) {
	case *ast.StructType:
		return x.Decl, true
	case *ast.TraitType:
		return x.Decl, true
	case *ast.EnumType:
		return x.Decl, true
	}
	return ast.InvalidDeclId, false
}

// bases returns the DeclIds of id's declared base types if id names a
// struct (any other declaration kind yields none); ownerOf failures (e.g. an as-yet-unresolved base) are
// silently skipped since BasicTypeResolver guarantees every Base resolves
// before DeclInstantiator runs contract checks.
func bases(reg *ast.Registry, id ast.DeclId) []ast.DeclId {
	d := reg.Get(id)
	var baseTypes []ast.Type
	switch n := d.(type) {
	case *ast.StructDecl:
		baseTypes = n.Bases
	}
	var out []ast.DeclId
	for _, bt := range baseTypes {
		if bid, ok := ownerOf(bt); ok {
			out = append(out, bid)
		}
	}
	return out
}

func walksToward(reg *ast.Registry, from, target ast.DeclId, seen map[ast.DeclId]bool) bool {
	if seen[from] {
		return false
	}
	seen[from] = true
	for _, b := range bases(reg, from) {
		if b == target {
			return true
		}
		if walksToward(reg, b, target, seen) {
			return true
		}
	}
	return false
}

// Depth returns the number of inheritance steps from sub to super, or -1
// if sub does not extend super. Used to break ties between overlapping
// `where` specializations (spec §4.F: "closest by fewest inheritance
// steps wins; ties are fatal").
func Depth(reg *ast.Registry, sub, super ast.Type) int {
	subDecl, ok := ownerOf(sub)
	if !ok {
		return -1
	}
	superDecl, ok := ownerOf(super)
	if !ok {
		return -1
	}
	if subDecl == superDecl {
		return 0
	}
	return depthToward(reg, subDecl, superDecl, map[ast.DeclId]bool{}, 1)
}

func depthToward(reg *ast.Registry, from, target ast.DeclId, seen map[ast.DeclId]bool, steps int) int {
	if seen[from] {
		return -1
	}
	seen[from] = true
	for _, b := range bases(reg, from) {
		if b == target {
			return steps
		}
		if d := depthToward(reg, b, target, seen, steps+1); d != -1 {
			return d
		}
	}
	return -1
}
