package contractutil

import (
	"testing"

	"github.com/nalgeon/be"

	"ghoulc/internal/ast"
)

func structDecl(reg *ast.Registry, bases ...ast.Type) ast.DeclId {
	return reg.Alloc(&ast.StructDecl{Bases: bases})
}

func structType(id ast.DeclId) ast.Type { return &ast.StructType{Decl: id} }

func TestExtendsSelf(t *testing.T) {
	reg := ast.NewRegistry()
	id := structDecl(reg)
	be.True(t, Extends(reg, structType(id), structType(id)))
}

func TestExtendsDirectBase(t *testing.T) {
	reg := ast.NewRegistry()
	base := structDecl(reg)
	derived := structDecl(reg, structType(base))
	be.True(t, Extends(reg, structType(derived), structType(base)))
}

func TestExtendsTransitiveBase(t *testing.T) {
	reg := ast.NewRegistry()
	root := structDecl(reg)
	mid := structDecl(reg, structType(root))
	leaf := structDecl(reg, structType(mid))
	be.True(t, Extends(reg, structType(leaf), structType(root)))
}

func TestExtendsUnrelatedIsFalse(t *testing.T) {
	reg := ast.NewRegistry()
	a := structDecl(reg)
	b := structDecl(reg)
	be.True(t, !Extends(reg, structType(a), structType(b)))
}

func TestExtendsHandlesCycles(t *testing.T) {
	reg := ast.NewRegistry()
	a := reg.Alloc(&ast.StructDecl{})
	b := reg.Alloc(&ast.StructDecl{Bases: []ast.Type{structType(a)}})
	reg.Get(a).(*ast.StructDecl).Bases = []ast.Type{structType(b)}

	c := structDecl(reg)
	be.True(t, !Extends(reg, structType(a), structType(c)))
}

func TestDepthZeroForSelf(t *testing.T) {
	reg := ast.NewRegistry()
	id := structDecl(reg)
	be.Equal(t, Depth(reg, structType(id), structType(id)), 0)
}

func TestDepthCountsInheritanceSteps(t *testing.T) {
	reg := ast.NewRegistry()
	root := structDecl(reg)
	mid := structDecl(reg, structType(root))
	leaf := structDecl(reg, structType(mid))
	be.Equal(t, Depth(reg, structType(leaf), structType(root)), 2)
	be.Equal(t, Depth(reg, structType(mid), structType(root)), 1)
}

func TestDepthUnrelatedIsNegativeOne(t *testing.T) {
	reg := ast.NewRegistry()
	a := structDecl(reg)
	b := structDecl(reg)
	be.Equal(t, Depth(reg, structType(a), structType(b)), -1)
}
