package typeutil

import (
	"testing"

	"github.com/nalgeon/be"

	"ghoulc/internal/ast"
)

func builtin(k ast.BuiltinKind) ast.Type { return &ast.BuiltinType{Kind: k} }

func TestEqualBuiltinsSameKind(t *testing.T) {
	be.True(t, Equal(builtin(ast.BuiltinI32), builtin(ast.BuiltinI32), Strict))
	be.True(t, !Equal(builtin(ast.BuiltinI32), builtin(ast.BuiltinI64), Strict))
}

func TestEqualTemplatedTypeStrictComparesArgs(t *testing.T) {
	a := &ast.TemplatedType{Template: 7, Args: []ast.Type{builtin(ast.BuiltinI32)}}
	b := &ast.TemplatedType{Template: 7, Args: []ast.Type{builtin(ast.BuiltinI32)}}
	c := &ast.TemplatedType{Template: 7, Args: []ast.Type{builtin(ast.BuiltinF32)}}

	be.True(t, Equal(a, b, Strict))
	be.True(t, !Equal(a, c, Strict))
}

func TestEqualTemplatedTypeAllTemplatesAreSameIgnoresArgs(t *testing.T) {
	a := &ast.TemplatedType{Template: 7, Args: []ast.Type{builtin(ast.BuiltinI32)}}
	c := &ast.TemplatedType{Template: 7, Args: []ast.Type{builtin(ast.BuiltinF32)}}

	be.True(t, Equal(a, c, AllTemplatesAreSame))
}

func TestEqualDifferentTemplatesNeverEqual(t *testing.T) {
	a := &ast.TemplatedType{Template: 7, Args: nil}
	b := &ast.TemplatedType{Template: 8, Args: nil}
	be.True(t, !Equal(a, b, AllTemplatesAreSame))
}

func TestAssignableToIdenticalTypes(t *testing.T) {
	be.True(t, AssignableTo(builtin(ast.BuiltinI32), builtin(ast.BuiltinI32)))
}

func TestAssignableToWideningNumericConversion(t *testing.T) {
	be.True(t, AssignableTo(builtin(ast.BuiltinI8), builtin(ast.BuiltinI32)))
	be.True(t, !AssignableTo(builtin(ast.BuiltinI32), builtin(ast.BuiltinI8)))
}

func TestAssignableToRejectsCrossFamily(t *testing.T) {
	be.True(t, !AssignableTo(builtin(ast.BuiltinI32), builtin(ast.BuiltinU32)))
	be.True(t, !AssignableTo(builtin(ast.BuiltinI32), builtin(ast.BuiltinF32)))
}

func TestAssignableToMutToImmutDowngrade(t *testing.T) {
	mut := &ast.BuiltinType{TypeBase: ast.TypeBase{Qual: ast.QualifierMut}, Kind: ast.BuiltinI32}
	immut := &ast.BuiltinType{TypeBase: ast.TypeBase{Qual: ast.QualifierImmut}, Kind: ast.BuiltinI32}
	be.True(t, AssignableTo(mut, immut))
}

func TestDescribePointerAndArray(t *testing.T) {
	ptr := &ast.PointerType{Pointee: builtin(ast.BuiltinI32)}
	be.Equal(t, Describe(ptr), "*i32")

	arr := &ast.FlatArrayType{Size: 4, Element: builtin(ast.BuiltinU8)}
	be.Equal(t, Describe(arr), "[4]u8")
}
