package sigcompare

import (
	"testing"

	"github.com/nalgeon/be"

	"ghoulc/internal/ast"
)

func builtin(k ast.BuiltinKind) ast.Type { return &ast.BuiltinType{Kind: k} }

func param(label string, t ast.Type, mode ast.ParamPassMode, def ast.Expr) *ast.ParameterDecl {
	return &ast.ParameterDecl{Label: label, Type: t, PassMode: mode, Default: def}
}

func fn(params ...*ast.ParameterDecl) ast.Decl {
	return &ast.FunctionDecl{Params: params}
}

func TestSameSignatureIgnoresLabels(t *testing.T) {
	a := fn(param("lhs", builtin(ast.BuiltinI32), ast.PassIn, nil))
	b := fn(param("other", builtin(ast.BuiltinI32), ast.PassIn, nil))
	be.True(t, SameSignature(a, b))
}

func TestSameSignatureDiffersOnPassMode(t *testing.T) {
	a := fn(param("x", builtin(ast.BuiltinI32), ast.PassIn, nil))
	b := fn(param("x", builtin(ast.BuiltinI32), ast.PassOut, nil))
	be.True(t, !SameSignature(a, b))
}

func TestSameSignatureDiffersOnParamCount(t *testing.T) {
	a := fn(param("x", builtin(ast.BuiltinI32), ast.PassIn, nil))
	b := fn()
	be.True(t, !SameSignature(a, b))
}

func TestSameSignatureDiffersOnType(t *testing.T) {
	a := fn(param("x", builtin(ast.BuiltinI32), ast.PassIn, nil))
	b := fn(param("x", builtin(ast.BuiltinF32), ast.PassIn, nil))
	be.True(t, !SameSignature(a, b))
}

func TestSignatureKeyStableAcrossLabels(t *testing.T) {
	a := fn(param("lhs", builtin(ast.BuiltinI32), ast.PassIn, nil))
	b := fn(param("rhs", builtin(ast.BuiltinI32), ast.PassIn, nil))
	be.Equal(t, SignatureKey(a), SignatureKey(b))
}

func TestSignatureKeyDiffersOnPassMode(t *testing.T) {
	a := fn(param("x", builtin(ast.BuiltinI32), ast.PassIn, nil))
	b := fn(param("x", builtin(ast.BuiltinI32), ast.PassOut, nil))
	be.True(t, SignatureKey(a) != SignatureKey(b))
}

func TestMatchesLabeledArgument(t *testing.T) {
	params := []*ast.ParameterDecl{
		param("lhs", builtin(ast.BuiltinI32), ast.PassIn, nil),
		param("rhs", builtin(ast.BuiltinI32), ast.PassIn, nil),
	}
	args := []Argument{{Label: "rhs", Type: builtin(ast.BuiltinI32)}, {Label: "lhs", Type: builtin(ast.BuiltinI32)}}
	be.True(t, Matches(params, args))
}

func TestMatchesPositionalArguments(t *testing.T) {
	params := []*ast.ParameterDecl{
		param("lhs", builtin(ast.BuiltinI32), ast.PassIn, nil),
		param("rhs", builtin(ast.BuiltinI32), ast.PassIn, nil),
	}
	args := []Argument{{Label: "_", Type: builtin(ast.BuiltinI32)}, {Label: "_", Type: builtin(ast.BuiltinI32)}}
	be.True(t, Matches(params, args))
}

func TestMatchesFillsMissingWithDefault(t *testing.T) {
	var def ast.Expr
	params := []*ast.ParameterDecl{
		param("x", builtin(ast.BuiltinI32), ast.PassIn, nil),
		param("y", builtin(ast.BuiltinI32), ast.PassIn, &fakeExpr{}),
	}
	_ = def
	args := []Argument{{Label: "_", Type: builtin(ast.BuiltinI32)}}
	be.True(t, Matches(params, args))
}

func TestMatchesFailsWithoutDefaultForMissingParam(t *testing.T) {
	params := []*ast.ParameterDecl{
		param("x", builtin(ast.BuiltinI32), ast.PassIn, nil),
		param("y", builtin(ast.BuiltinI32), ast.PassIn, nil),
	}
	args := []Argument{{Label: "_", Type: builtin(ast.BuiltinI32)}}
	be.True(t, !Matches(params, args))
}

func TestMatchesFailsOnUnknownLabel(t *testing.T) {
	params := []*ast.ParameterDecl{param("lhs", builtin(ast.BuiltinI32), ast.PassIn, nil)}
	args := []Argument{{Label: "nope", Type: builtin(ast.BuiltinI32)}}
	be.True(t, !Matches(params, args))
}

func TestMatchesFailsOnTooManyPositionalArguments(t *testing.T) {
	params := []*ast.ParameterDecl{param("x", builtin(ast.BuiltinI32), ast.PassIn, nil)}
	args := []Argument{{Label: "_", Type: builtin(ast.BuiltinI32)}, {Label: "_", Type: builtin(ast.BuiltinI32)}}
	be.True(t, !Matches(params, args))
}

func TestMoreSpecificPrefersFewerDefaultsUsed(t *testing.T) {
	full := []*ast.ParameterDecl{param("x", builtin(ast.BuiltinI32), ast.PassIn, nil)}
	withDefault := []*ast.ParameterDecl{
		param("x", builtin(ast.BuiltinI32), ast.PassIn, nil),
		param("y", builtin(ast.BuiltinI32), ast.PassIn, &fakeExpr{}),
	}
	args := []Argument{{Label: "_", Type: builtin(ast.BuiltinI32)}}
	be.True(t, MoreSpecific(full, withDefault, args))
}

// fakeExpr is a minimal ast.Expr stand-in, only ever checked for nilness by
// the code under test.
type fakeExpr struct{ ast.Expr }
