package parser

import (
	"testing"

	"github.com/nalgeon/be"

	"ghoulc/internal/ast"
	"ghoulc/internal/diagnostics"
	"ghoulc/internal/lexer"
	"ghoulc/internal/tokens"
)

func newTestParser(src string) *Parser {
	reg := ast.NewRegistry()
	lex := lexer.New("t.ghoul", src, diagnostics.NewDiagnosticBag())
	return New("t.ghoul", lex, diagnostics.NewDiagnosticBag(), reg)
}

func TestComparisonChainAbandonsBogusTemplateArgs(t *testing.T) {
	p := newTestParser("a < b > c")
	e := p.parseExpr()

	outer, ok := e.(*ast.InfixExpr)
	be.True(t, ok)
	be.Equal(t, outer.Op, ast.OpGt)

	inner, ok := outer.X.(*ast.InfixExpr)
	be.True(t, ok)
	be.Equal(t, inner.Op, ast.OpLt)
}

func TestTemplateCallCommitsOnValidFollowToken(t *testing.T) {
	p := newTestParser("foo<i32>(x)")
	e := p.parseExpr()

	call, ok := e.(*ast.FunctionCallExpr)
	be.True(t, ok)
	ident, ok := call.Callee.(*ast.IdentifierExpr)
	be.True(t, ok)
	be.Equal(t, ident.Name, "foo")
	be.Equal(t, len(ident.TemplateArgs), 1)
}

func TestTemplateTypeAbandonsOnDisallowedFollowToken(t *testing.T) {
	p := newTestParser("a < b + c")
	e := p.parseExpr()

	_, ok := e.(*ast.InfixExpr)
	be.True(t, ok)
	be.Equal(t, p.cur().Kind, tokens.EOF)
}
