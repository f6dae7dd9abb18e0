package typeresolve

import (
	"testing"

	"github.com/nalgeon/be"

	"ghoulc/internal/ast"
	"ghoulc/internal/diagnostics"
)

func newResolver() (*Resolver, *ast.Registry) {
	reg := ast.NewRegistry()
	return New(reg, diagnostics.NewDiagnosticBag()), reg
}

func unresolved(path ...string) *ast.UnresolvedType {
	return &ast.UnresolvedType{Path: path}
}

func TestResolveTypeBindsSiblingStruct(t *testing.T) {
	r, reg := newResolver()
	widget := &ast.StructDecl{DeclBase: ast.DeclBase{Ident: "Widget"}}
	reg.Alloc(widget)
	field := &ast.VariableDecl{DeclBase: ast.DeclBase{Ident: "w"}, Type: unresolved("Widget")}

	r.Run([]ast.Decl{widget, field})

	st, ok := field.Type.(*ast.StructType)
	be.True(t, ok)
	be.Equal(t, st.Decl, widget.Id())
}

func TestResolveTypeFindsDeclaredAfterUse(t *testing.T) {
	r, reg := newResolver()
	field := &ast.VariableDecl{DeclBase: ast.DeclBase{Ident: "w"}, Type: unresolved("Widget")}
	widget := &ast.StructDecl{DeclBase: ast.DeclBase{Ident: "Widget"}}
	reg.Alloc(widget)

	r.Run([]ast.Decl{field, widget})

	st, ok := field.Type.(*ast.StructType)
	be.True(t, ok)
	be.Equal(t, st.Decl, widget.Id())
}

func TestResolveTypeProducesTemplatedTypeForTemplateStruct(t *testing.T) {
	r, reg := newResolver()
	box := &ast.StructDecl{DeclBase: ast.DeclBase{Ident: "Box"}, IsTemplate: true}
	reg.Alloc(box)
	i32 := &ast.UnresolvedType{Path: []string{"i32"}}
	field := &ast.VariableDecl{DeclBase: ast.DeclBase{Ident: "b"}, Type: &ast.UnresolvedType{Path: []string{"Box"}, Args: []ast.Type{i32}}}

	// i32 needs to resolve too; register a builtin alias so lookup succeeds.
	i32Decl := &ast.TypeAliasDecl{DeclBase: ast.DeclBase{Ident: "i32"}, Aliased: &ast.BuiltinType{Kind: ast.BuiltinI32}}
	reg.Alloc(i32Decl)

	r.Run([]ast.Decl{box, i32Decl, field})

	tt, ok := field.Type.(*ast.TemplatedType)
	be.True(t, ok)
	be.Equal(t, tt.Template, box.Id())
	be.Equal(t, len(tt.Args), 1)
}

func TestResolveTypeRecursesThroughPointer(t *testing.T) {
	r, reg := newResolver()
	widget := &ast.StructDecl{DeclBase: ast.DeclBase{Ident: "Widget"}}
	reg.Alloc(widget)
	field := &ast.VariableDecl{DeclBase: ast.DeclBase{Ident: "w"}, Type: &ast.PointerType{Pointee: unresolved("Widget")}}

	r.Run([]ast.Decl{widget, field})

	ptr, ok := field.Type.(*ast.PointerType)
	be.True(t, ok)
	st, ok := ptr.Pointee.(*ast.StructType)
	be.True(t, ok)
	be.Equal(t, st.Decl, widget.Id())
}

func TestResolveTypeReportsUndefinedName(t *testing.T) {
	var fataled bool
	diags := diagnostics.NewTestBag(discardWriter{}, func(code int) { fataled = true; panic("fatal") })
	reg := ast.NewRegistry()
	r := New(reg, diags)

	field := &ast.VariableDecl{DeclBase: ast.DeclBase{Ident: "w"}, Type: unresolved("Ghost")}

	func() {
		defer func() { recover() }()
		r.Run([]ast.Decl{field})
	}()

	be.True(t, fataled)
}

func TestResolveStructFieldsUseInnerScope(t *testing.T) {
	r, reg := newResolver()
	inner := &ast.StructDecl{DeclBase: ast.DeclBase{Ident: "Inner"}}
	reg.Alloc(inner)
	field := &ast.VariableDecl{DeclBase: ast.DeclBase{Ident: "f"}, Type: unresolved("Inner")}
	outer := &ast.StructDecl{DeclBase: ast.DeclBase{Ident: "Outer"}, Fields: []*ast.VariableDecl{field}}
	reg.Alloc(outer)

	r.Run([]ast.Decl{inner, outer})

	st, ok := field.Type.(*ast.StructType)
	be.True(t, ok)
	be.Equal(t, st.Decl, inner.Id())
}

type discardWriter struct{}

func (discardWriter) Write(p []byte) (int, error) { return len(p), nil }
