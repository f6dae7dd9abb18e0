package mangle

import (
	"testing"

	"github.com/nalgeon/be"

	"ghoulc/internal/ast"
	"ghoulc/internal/diagnostics"
)

func newMangler() (*Mangler, *ast.Registry) {
	reg := ast.NewRegistry()
	return New(reg, diagnostics.NewDiagnosticBag()), reg
}

func TestRunMangleEmptyFunctionToMainV(t *testing.T) {
	m, reg := newMangler()
	fn := &ast.FunctionDecl{}
	fn.Ident = "main"
	reg.Alloc(fn)

	m.Run([]ast.Decl{fn})
	be.Equal(t, fn.Base().MangledName, "_Z4mainv")
}

func TestRunMangleArgumentLabels(t *testing.T) {
	m, reg := newMangler()
	i32 := func() ast.Type { return &ast.BuiltinType{Kind: ast.BuiltinI32} }
	fn := &ast.FunctionDecl{
		Params: []*ast.ParameterDecl{
			{Label: "lhs", Type: i32(), PassMode: ast.PassIn},
			{Label: "rhs", Type: i32(), PassMode: ast.PassIn},
		},
	}
	fn.Ident = "add"
	reg.Alloc(fn)

	m.Run([]ast.Decl{fn})
	be.Equal(t, fn.Base().MangledName, "_Z3addU3lhs3i32U3rhs3i32")
}

func TestRunNestsUnderNamespace(t *testing.T) {
	m, reg := newMangler()
	fn := &ast.FunctionDecl{}
	fn.Ident = "send"
	reg.Alloc(fn)
	ns := &ast.NamespaceDecl{Members: []ast.Decl{fn}}
	ns.Ident = "net"
	reg.Alloc(ns)

	m.Run([]ast.Decl{ns})
	be.Equal(t, fn.Base().MangledName, "_ZN3net4sendEv")
}

func TestRunTemplateInstantiationsGetDistinctNames(t *testing.T) {
	m, reg := newMangler()
	tmpl := &ast.StructDecl{IsTemplate: true}
	tmpl.Ident = "Box"
	reg.Alloc(tmpl)

	instI32 := &ast.StructDecl{InstantiatedFrom: tmpl, TemplateArgs: []ast.Type{&ast.BuiltinType{Kind: ast.BuiltinI32}}}
	instI32.Ident = "Box"
	reg.Alloc(instI32)
	instF32 := &ast.StructDecl{InstantiatedFrom: tmpl, TemplateArgs: []ast.Type{&ast.BuiltinType{Kind: ast.BuiltinF32}}}
	instF32.Ident = "Box"
	reg.Alloc(instF32)
	tmpl.Instantiations = []*ast.StructDecl{instI32, instF32}

	m.Run([]ast.Decl{tmpl})
	be.True(t, instI32.Base().MangledName != instF32.Base().MangledName)
	be.True(t, instI32.Base().MangledName != "")
	be.True(t, instF32.Base().MangledName != "")
}

func TestMangleTypeAppliesImmutQualifier(t *testing.T) {
	m, _ := newMangler()
	i32 := &ast.BuiltinType{TypeBase: ast.TypeBase{Qual: ast.QualifierImmut}, Kind: ast.BuiltinI32}
	be.Equal(t, m.mangleType(i32), "K3i32")
}

func TestMangleTypePointerNesting(t *testing.T) {
	m, _ := newMangler()
	ptr := &ast.PointerType{Pointee: &ast.BuiltinType{Kind: ast.BuiltinU8}}
	be.Equal(t, m.mangleType(ptr), "P2u8")
}

func TestUnsupportedOperatorSymbolReportsDiagnostic(t *testing.T) {
	reg := ast.NewRegistry()
	var fatalCode int
	diags := diagnostics.NewTestBag(&discard{}, func(code int) { fatalCode = code; panic("fatal") })
	m := New(reg, diags)

	op := &ast.OperatorDecl{Kind: ast.OperatorInfix, Symbol: "<=>"}
	reg.Alloc(op)

	defer func() {
		recover()
		be.Equal(t, fatalCode, 1)
	}()
	m.mangleOperator(op, nil)
}

type discard struct{}

func (discard) Write(p []byte) (int, error) { return len(p), nil }
