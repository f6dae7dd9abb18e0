package declvalidate

import (
	"io"
	"testing"

	"github.com/nalgeon/be"

	"ghoulc/internal/ast"
	"ghoulc/internal/diagnostics"
)

type discard struct{}

func (discard) Write(p []byte) (int, error) { return len(p), nil }

func newTestValidator(reg *ast.Registry) (*Validator, func() bool) {
	fataled := false
	diags := diagnostics.NewTestBag(io.Writer(discard{}), func(code int) {
		fataled = true
		panic("fatal")
	})
	return New(reg, diags), func() bool { return fataled }
}

func runCatchingFatal(fn func()) {
	defer func() { recover() }()
	fn()
}

func TestRunAssignsContainerToNestedMembers(t *testing.T) {
	reg := ast.NewRegistry()
	field := &ast.FunctionDecl{DeclBase: ast.DeclBase{Ident: "greet"}}
	strct := &ast.StructDecl{DeclBase: ast.DeclBase{Ident: "Greeter"}, Members: []ast.Decl{field}}
	reg.Alloc(strct)

	v, _ := newTestValidator(reg)
	v.Run([]ast.Decl{strct})

	be.Equal(t, field.Container, strct.Id())
}

func TestRunInjectsSelfTypeOnInstanceMethod(t *testing.T) {
	reg := ast.NewRegistry()
	method := &ast.FunctionDecl{DeclBase: ast.DeclBase{Ident: "greet"}}
	strct := &ast.StructDecl{DeclBase: ast.DeclBase{Ident: "Greeter"}, Members: []ast.Decl{method}}
	reg.Alloc(strct)

	v, _ := newTestValidator(reg)
	v.Run([]ast.Decl{strct})

	be.True(t, method.SelfType != nil)
}

func TestRunSkipsSelfTypeOnStaticMethod(t *testing.T) {
	reg := ast.NewRegistry()
	method := &ast.FunctionDecl{DeclBase: ast.DeclBase{Ident: "create"}}
	method.Modifiers.Set(ast.ModStatic)
	strct := &ast.StructDecl{DeclBase: ast.DeclBase{Ident: "Greeter"}, Members: []ast.Decl{method}}
	reg.Alloc(strct)

	v, _ := newTestValidator(reg)
	v.Run([]ast.Decl{strct})

	be.True(t, method.SelfType == nil)
}

func TestRunAcceptsDistinctOverloads(t *testing.T) {
	reg := ast.NewRegistry()
	i32 := func() ast.Type { return &ast.BuiltinType{Kind: ast.BuiltinI32} }
	f32 := func() ast.Type { return &ast.BuiltinType{Kind: ast.BuiltinF32} }
	a := &ast.FunctionDecl{DeclBase: ast.DeclBase{Ident: "add"}, Params: []*ast.ParameterDecl{{Label: "x", Type: i32()}}}
	b := &ast.FunctionDecl{DeclBase: ast.DeclBase{Ident: "add"}, Params: []*ast.ParameterDecl{{Label: "x", Type: f32()}}}

	v, fataled := newTestValidator(reg)
	v.Run([]ast.Decl{a, b})

	be.True(t, !fataled())
}

func TestRunRejectsDuplicateFunctionSignature(t *testing.T) {
	reg := ast.NewRegistry()
	i32 := func() ast.Type { return &ast.BuiltinType{Kind: ast.BuiltinI32} }
	a := &ast.FunctionDecl{DeclBase: ast.DeclBase{Ident: "add"}, Params: []*ast.ParameterDecl{{Label: "x", Type: i32()}}}
	b := &ast.FunctionDecl{DeclBase: ast.DeclBase{Ident: "add"}, Params: []*ast.ParameterDecl{{Label: "y", Type: i32()}}}

	v, fataled := newTestValidator(reg)
	runCatchingFatal(func() { v.Run([]ast.Decl{a, b}) })

	be.True(t, fataled())
}

func TestRunRejectsRedefinedStruct(t *testing.T) {
	reg := ast.NewRegistry()
	a := &ast.StructDecl{DeclBase: ast.DeclBase{Ident: "Widget"}}
	b := &ast.StructDecl{DeclBase: ast.DeclBase{Ident: "Widget"}}
	reg.Alloc(a)
	reg.Alloc(b)

	v, fataled := newTestValidator(reg)
	runCatchingFatal(func() { v.Run([]ast.Decl{a, b}) })

	be.True(t, fataled())
}

func TestResolveImportBindsMatchingNamespace(t *testing.T) {
	reg := ast.NewRegistry()
	ns := &ast.NamespaceDecl{DeclBase: ast.DeclBase{Ident: "net"}}
	reg.Alloc(ns)
	imp := &ast.ImportDecl{Path: []string{"net"}}

	v, fataled := newTestValidator(reg)
	v.Run([]ast.Decl{ns, imp})

	be.True(t, !fataled())
	be.Equal(t, imp.Resolved, ns.Id())
}

func TestResolveImportFailsOnUnknownPath(t *testing.T) {
	reg := ast.NewRegistry()
	imp := &ast.ImportDecl{Path: []string{"nope"}}

	v, fataled := newTestValidator(reg)
	runCatchingFatal(func() { v.Run([]ast.Decl{imp}) })

	be.True(t, fataled())
}
