// Package typeresolve is the BasicTypeResolver pass (C in spec §2/§4.E):
// the third semantic pass. It rewrites every UnresolvedType/
// UnresolvedNestedType the parser produced into a concrete StructType/
// TraitType/EnumType/AliasType, a TemplatedType when the name denotes a
// struct/trait template, or a TemplateTypenameRefType for a template
// parameter — by walking scopes outward from the point of use (innermost
// struct/trait/namespace, then enclosing namespaces) until a matching
// declaration is found. Imports are not consulted by this lookup.
//
// Grounded on itsfuad-Ferret's internal/semantics/typechecker name-to-
// declaration resolution, adapted to spec.md §4.E's outward-walking scope
// lookup and TemplatedType construction (the teacher has no template
// system, so that half is new, following spec.md's algorithm directly).
package typeresolve

import (
	"ghoulc/internal/ast"
	"ghoulc/internal/diagnostics"
)

// scope is one level of the outward-walking lookup chain: a name-indexed
// map of the declarations visible at that level, plus its enclosing scope.
type scope struct {
	names  map[string]ast.Decl
	parent *scope
}

func newScope(parent *scope) *scope { return &scope{names: map[string]ast.Decl{}, parent: parent} }

func (s *scope) declare(name string, d ast.Decl) {
	if name == "" {
		return
	}
	if _, ok := s.names[name]; !ok {
		s.names[name] = d
	}
}

func (s *scope) lookup(name string) (ast.Decl, bool) {
	for cur := s; cur != nil; cur = cur.parent {
		if d, ok := cur.names[name]; ok {
			return d, true
		}
	}
	return nil, false
}

// Resolver holds the shared state for one BasicTypeResolver run.
type Resolver struct {
	reg   *ast.Registry
	diags *diagnostics.DiagnosticBag
	root  *scope
}

// New creates a BasicTypeResolver bound to reg/diags.
func New(reg *ast.Registry, diags *diagnostics.DiagnosticBag) *Resolver {
	return &Resolver{reg: reg, diags: diags, root: newScope(nil)}
}

// Run resolves every UnresolvedType reachable from topLevel, in two
// passes: first populating every scope's declared names (so forward
// references across the whole program resolve, spec §4.E), then rewriting
// every type reference found by walking each declaration's body.
func (r *Resolver) Run(topLevel []ast.Decl) {
	r.declareScope(r.root, topLevel)
	r.resolveScope(r.root, topLevel)
}

func (r *Resolver) declareScope(s *scope, decls []ast.Decl) {
	for _, d := range decls {
		name := d.Base().Ident
		s.declare(name, d)
		switch n := d.(type) {
		case *ast.NamespaceDecl:
			inner := newScope(s)
			r.declareScope(inner, n.Members)
		case *ast.StructDecl:
			inner := newScope(s)
			r.declareScope(inner, n.Members)
		case *ast.TraitDecl:
			inner := newScope(s)
			r.declareScope(inner, n.Requirements)
		case *ast.ExtensionDecl:
			r.declareScope(s, n.Members)
		}
	}
}

func (r *Resolver) resolveScope(s *scope, decls []ast.Decl) {
	for _, d := range decls {
		switch n := d.(type) {
		case *ast.NamespaceDecl:
			inner := newScope(s)
			r.declareScope(inner, n.Members)
			r.resolveScope(inner, n.Members)
		case *ast.StructDecl:
			inner := newScope(s)
			r.declareScope(inner, n.Members)
			for _, tp := range n.TemplateParams {
				inner.declare(tp.Base().Ident, tp)
			}
			for _, w := range n.Where {
				if ext, ok := w.Condition.(*ast.CheckExtendsTypeExpr); ok {
					ext.Sub = r.resolveType(inner, ext.Sub)
					ext.Super = r.resolveType(inner, ext.Super)
				}
			}
			for i, base := range n.Bases {
				n.Bases[i] = r.resolveType(s, base)
			}
			for _, f := range n.Fields {
				f.Type = r.resolveType(inner, f.Type)
			}
			r.resolveScope(inner, n.Members)
		case *ast.TraitDecl:
			inner := newScope(s)
			r.declareScope(inner, n.Requirements)
			r.resolveScope(inner, n.Requirements)
		case *ast.ExtensionDecl:
			n.Target = r.resolveType(s, n.Target)
			r.resolveScope(s, n.Members)
		case *ast.FunctionDecl:
			r.resolveFunctionLike(s, n.Params, &n.ReturnType, n.TemplateParams)
		case *ast.OperatorDecl:
			r.resolveFunctionLike(s, n.Params, &n.ReturnType, nil)
		case *ast.ConstructorDecl:
			for _, p := range n.Params {
				p.Type = r.resolveType(s, p.Type)
			}
		case *ast.PropertyDecl:
			n.Type = r.resolveType(s, n.Type)
		case *ast.VariableDecl:
			n.Type = r.resolveType(s, n.Type)
		case *ast.TypeAliasDecl:
			n.Aliased = r.resolveType(s, n.Aliased)
		case *ast.EnumDecl:
			if n.UnderlyingType != nil {
				n.UnderlyingType = r.resolveType(s, n.UnderlyingType)
			}
		}
	}
}

func (r *Resolver) resolveFunctionLike(s *scope, params []*ast.ParameterDecl, ret *ast.Type, templateParams []*ast.TemplateParameterDecl) {
	inner := s
	if len(templateParams) > 0 {
		inner = newScope(s)
		for _, tp := range templateParams {
			inner.declare(tp.Base().Ident, tp)
		}
	}
	for _, p := range params {
		p.Type = r.resolveType(inner, p.Type)
	}
	if *ret != nil {
		*ret = r.resolveType(inner, *ret)
	}
}

// resolveType rewrites t (and, recursively, every nested type it embeds)
// into resolved form. Types with no unresolved component are returned
// unchanged.
func (r *Resolver) resolveType(s *scope, t ast.Type) ast.Type {
	if t == nil {
		return nil
	}
	switch x := t.(type) {
	case *ast.UnresolvedType:
		return r.resolveNamed(s, x)
	case *ast.UnresolvedNestedType:
		return r.resolveNested(s, x)
	case *ast.PointerType:
		x.Pointee = r.resolveType(s, x.Pointee)
	case *ast.ReferenceType:
		x.Referent = r.resolveType(s, x.Referent)
	case *ast.RValueReferenceType:
		x.Referent = r.resolveType(s, x.Referent)
	case *ast.FlatArrayType:
		x.Element = r.resolveType(s, x.Element)
	case *ast.DimensionType:
		x.Element = r.resolveType(s, x.Element)
	case *ast.FunctionPointerType:
		for i, p := range x.Params {
			x.Params[i] = r.resolveType(s, p)
		}
		x.Return = r.resolveType(s, x.Return)
	case *ast.LabeledType:
		x.Inner = r.resolveType(s, x.Inner)
	}
	return t
}

func (r *Resolver) resolveNamed(s *scope, u *ast.UnresolvedType) ast.Type {
	name := u.Path[len(u.Path)-1]
	d, ok := s.lookup(name)
	if !ok {
		r.diags.Add(diagnostics.UndefinedName(u.Location, joinPath(u.Path)))
		return u
	}
	args := make([]ast.Type, len(u.Args))
	for i, a := range u.Args {
		args[i] = r.resolveType(s, a)
	}
	return declToType(u, d, args)
}

func (r *Resolver) resolveNested(s *scope, n *ast.UnresolvedNestedType) ast.Type {
	outer := r.resolveType(s, n.Outer)
	ownerId, ok := ownerDeclId(outer)
	if !ok {
		r.diags.Add(diagnostics.UndefinedName(n.Location, n.Name))
		return n
	}
	owner := r.reg.Get(ownerId)
	var members []ast.Decl
	switch o := owner.(type) {
	case *ast.StructDecl:
		members = o.Members
	case *ast.TraitDecl:
		members = o.Requirements
	}
	for _, m := range members {
		if m.Base().Ident == n.Name {
			args := make([]ast.Type, len(n.Args))
			for i, a := range n.Args {
				args[i] = r.resolveType(s, a)
			}
			return declToType(n, m, args)
		}
	}
	r.diags.Add(diagnostics.UndefinedName(n.Location, n.Name))
	return n
}

func joinPath(path []string) string {
	out := path[0]
	for _, p := range path[1:] {
		out += "." + p
	}
	return out
}

func ownerDeclId(t ast.Type) (ast.DeclId, bool) {
	switch x := t.(type) {
	case *ast.StructType:
		return x.Decl, true
	case *ast.TraitType:
		return x.Decl, true
	case *ast.TemplatedType:
		return x.Template, true
	}
	return ast.InvalidDeclId, false
}

// declToType maps a looked-up declaration onto its resolved Type variant,
// producing a TemplatedType whenever the declaration is a struct/trait
// template (spec §4.E: "If the name resolves to a struct/trait template,
// produce a TemplatedType instead of leaving it unresolved").
func declToType(orig ast.Type, d ast.Decl, args []ast.Type) ast.Type {
	base := ast.TypeBase{Location: *orig.Loc(), Qual: orig.Qualifier()}
	switch n := d.(type) {
	case *ast.StructDecl:
		if n.IsTemplate {
			return &ast.TemplatedType{TypeBase: base, Template: n.Id(), Args: args}
		}
		return &ast.StructType{TypeBase: base, Decl: n.Id()}
	case *ast.TraitDecl:
		if n.IsTemplate {
			return &ast.TemplatedType{TypeBase: base, Template: n.Id(), Args: args}
		}
		return &ast.TraitType{TypeBase: base, Decl: n.Id()}
	case *ast.EnumDecl:
		return &ast.EnumType{TypeBase: base, Decl: n.Id()}
	case *ast.TypeAliasDecl:
		return &ast.AliasType{TypeBase: base, Decl: n.Id()}
	case *ast.TemplateParameterDecl:
		return &ast.TemplateTypenameRefType{TypeBase: base, Param: n.Id()}
	default:
		return orig
	}
}
