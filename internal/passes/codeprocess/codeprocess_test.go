package codeprocess

import (
	"testing"

	"github.com/nalgeon/be"

	"ghoulc/internal/ast"
	"ghoulc/internal/diagnostics"
)

func newProcessor() (*Processor, *ast.Registry) {
	reg := ast.NewRegistry()
	return New(reg, diagnostics.NewDiagnosticBag()), reg
}

func exprStmt(e ast.Expr) *ast.ExprStmt { return &ast.ExprStmt{X: e} }

func block(stmts ...ast.Stmt) *ast.Block { return &ast.Block{Stmts: stmts} }

func TestBindIdentifierResolvesParameter(t *testing.T) {
	p, reg := newProcessor()
	param := &ast.ParameterDecl{DeclBase: ast.DeclBase{Ident: "x"}}
	ident := &ast.IdentifierExpr{Name: "x"}
	fn := &ast.FunctionDecl{
		DeclBase: ast.DeclBase{Ident: "id"},
		Params:   []*ast.ParameterDecl{param},
		Body:     block(exprStmt(ident)),
	}
	reg.Alloc(fn)

	p.Run([]ast.Decl{fn})

	ref, ok := fn.Body.Stmts[0].(*ast.ExprStmt).X.(*ast.LocalVariableRef)
	be.True(t, ok)
	_ = ref
}

func TestBindIdentifierResolvesSelf(t *testing.T) {
	p, reg := newProcessor()
	ident := &ast.IdentifierExpr{Name: "self"}
	method := &ast.FunctionDecl{DeclBase: ast.DeclBase{Ident: "greet"}, Body: block(exprStmt(ident))}
	strct := &ast.StructDecl{DeclBase: ast.DeclBase{Ident: "Greeter"}, Members: []ast.Decl{method}}
	reg.Alloc(strct)

	p.Run([]ast.Decl{strct})

	_, ok := method.Body.Stmts[0].(*ast.ExprStmt).X.(*ast.CurrentSelf)
	be.True(t, ok)
}

func TestBindIdentifierResolvesMemberField(t *testing.T) {
	p, reg := newProcessor()
	field := &ast.VariableDecl{DeclBase: ast.DeclBase{Ident: "count"}}
	ident := &ast.IdentifierExpr{Name: "count"}
	method := &ast.FunctionDecl{DeclBase: ast.DeclBase{Ident: "get"}, Body: block(exprStmt(ident))}
	strct := &ast.StructDecl{DeclBase: ast.DeclBase{Ident: "Counter"}, Members: []ast.Decl{method, field}}
	reg.Alloc(strct)
	// Container assignment is normally BasicDeclValidator's job; set it
	// directly here since this test exercises CodeProcessor in isolation.
	method.Container = strct.Id()

	p.Run([]ast.Decl{strct})

	ref, ok := method.Body.Stmts[0].(*ast.ExprStmt).X.(*ast.MemberVariableRef)
	be.True(t, ok)
	be.Equal(t, ref.Field, field.Id())
}

func TestBindIdentifierReportsUndefinedName(t *testing.T) {
	reg := ast.NewRegistry()
	var fataled bool
	diags := diagnostics.NewTestBag(discard{}, func(code int) { fataled = true; panic("fatal") })
	p := New(reg, diags)

	ident := &ast.IdentifierExpr{Name: "ghost"}
	fn := &ast.FunctionDecl{DeclBase: ast.DeclBase{Ident: "f"}, Body: block(exprStmt(ident))}
	reg.Alloc(fn)

	func() {
		defer func() { recover() }()
		p.Run([]ast.Decl{fn})
	}()

	be.True(t, fataled)
}

func TestBreakOutsideLoopReportsError(t *testing.T) {
	reg := ast.NewRegistry()
	var fataled bool
	diags := diagnostics.NewTestBag(discard{}, func(code int) { fataled = true; panic("fatal") })
	p := New(reg, diags)

	fn := &ast.FunctionDecl{DeclBase: ast.DeclBase{Ident: "f"}, Body: block(&ast.BreakStmt{})}
	reg.Alloc(fn)

	func() {
		defer func() { recover() }()
		p.Run([]ast.Decl{fn})
	}()

	be.True(t, fataled)
}

func TestBreakInsideWhileIsAccepted(t *testing.T) {
	p, reg := newProcessor()
	whileStmt := &ast.WhileStmt{Cond: &ast.IdentifierExpr{Name: "self"}, Body: block(&ast.BreakStmt{})}
	fn := &ast.FunctionDecl{DeclBase: ast.DeclBase{Ident: "f"}, Body: block(whileStmt)}
	reg.Alloc(fn)

	p.Run([]ast.Decl{fn})
	// no panic means acceptance; nothing further to assert
}

func TestContinueInsideSwitchIsRejected(t *testing.T) {
	reg := ast.NewRegistry()
	var fataled bool
	diags := diagnostics.NewTestBag(discard{}, func(code int) { fataled = true; panic("fatal") })
	p := New(reg, diags)

	sw := &ast.SwitchStmt{
		Tag: &ast.IdentifierExpr{Name: "self"},
		Cases: []*ast.CaseStmt{
			{Body: []ast.Stmt{&ast.ContinueStmt{}}},
		},
	}
	fn := &ast.FunctionDecl{DeclBase: ast.DeclBase{Ident: "f"}, Body: block(sw)}
	reg.Alloc(fn)

	func() {
		defer func() { recover() }()
		p.Run([]ast.Decl{fn})
	}()

	be.True(t, fataled)
}

func TestResolveCallBindsGlobalFunction(t *testing.T) {
	p, reg := newProcessor()
	callee := &ast.FunctionDecl{DeclBase: ast.DeclBase{Ident: "helper"}}
	reg.Alloc(callee)

	call := &ast.FunctionCallExpr{Callee: &ast.IdentifierExpr{Name: "helper"}}
	fn := &ast.FunctionDecl{DeclBase: ast.DeclBase{Ident: "main"}, Body: block(exprStmt(call))}
	reg.Alloc(fn)

	p.Run([]ast.Decl{callee, fn})

	mfc, ok := fn.Body.Stmts[0].(*ast.ExprStmt).X.(*ast.MemberFunctionCall)
	be.True(t, ok)
	be.Equal(t, mfc.Method, callee.Id())
}

func TestResolveCallPicksMatchingOverloadAmongSeveral(t *testing.T) {
	p, reg := newProcessor()
	i32Param := &ast.ParameterDecl{DeclBase: ast.DeclBase{Ident: "n"}, Type: &ast.BuiltinType{Kind: ast.BuiltinI32}}
	f32Param := &ast.ParameterDecl{DeclBase: ast.DeclBase{Ident: "n"}, Type: &ast.BuiltinType{Kind: ast.BuiltinF32}}
	overloadI32 := &ast.FunctionDecl{DeclBase: ast.DeclBase{Ident: "show"}, Params: []*ast.ParameterDecl{i32Param}}
	overloadF32 := &ast.FunctionDecl{DeclBase: ast.DeclBase{Ident: "show"}, Params: []*ast.ParameterDecl{f32Param}}
	reg.Alloc(overloadI32)
	reg.Alloc(overloadF32)

	arg := &ast.LiteralExpr{Kind: ast.LiteralInt, Text: "1"}
	arg.SetValueType(&ast.BuiltinType{Kind: ast.BuiltinI32})
	call := &ast.FunctionCallExpr{
		Callee: &ast.IdentifierExpr{Name: "show"},
		Args:   []*ast.LabeledArgumentExpr{{Value: arg}},
	}
	fn := &ast.FunctionDecl{DeclBase: ast.DeclBase{Ident: "main"}, Body: block(exprStmt(call))}
	reg.Alloc(fn)

	p.Run([]ast.Decl{overloadI32, overloadF32, fn})

	mfc, ok := fn.Body.Stmts[0].(*ast.ExprStmt).X.(*ast.MemberFunctionCall)
	be.True(t, ok)
	be.Equal(t, mfc.Method, overloadI32.Id())
}

func TestResolveCallReportsAmbiguousOverload(t *testing.T) {
	reg := ast.NewRegistry()
	var fataled bool
	diags := diagnostics.NewTestBag(discard{}, func(code int) { fataled = true; panic("fatal") })
	p := New(reg, diags)

	first := &ast.ParameterDecl{DeclBase: ast.DeclBase{Ident: "a"}, Type: &ast.BuiltinType{Kind: ast.BuiltinI32}, Default: &ast.LiteralExpr{}}
	second := &ast.ParameterDecl{DeclBase: ast.DeclBase{Ident: "b"}, Type: &ast.BuiltinType{Kind: ast.BuiltinF32}, Default: &ast.LiteralExpr{}}
	overloadA := &ast.FunctionDecl{DeclBase: ast.DeclBase{Ident: "make"}, Params: []*ast.ParameterDecl{first}}
	overloadB := &ast.FunctionDecl{DeclBase: ast.DeclBase{Ident: "make"}, Params: []*ast.ParameterDecl{second}}
	reg.Alloc(overloadA)
	reg.Alloc(overloadB)

	call := &ast.FunctionCallExpr{Callee: &ast.IdentifierExpr{Name: "make"}}
	fn := &ast.FunctionDecl{DeclBase: ast.DeclBase{Ident: "main"}, Body: block(exprStmt(call))}
	reg.Alloc(fn)

	func() {
		defer func() { recover() }()
		p.Run([]ast.Decl{overloadA, overloadB, fn})
	}()

	be.True(t, fataled)
}

type discard struct{}

func (discard) Write(p []byte) (int, error) { return len(p), nil }
