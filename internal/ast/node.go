// Package ast is the abstract syntax graph (ASG) produced by the parser
// and rewritten in place by each semantic pass (spec §3).
//
// Every node category (Decl, Stmt, Expr, Type, Cont, Attr) is a closed set
// of concrete Go types sharing a marker interface, in the teacher's style
// (compiler/internal/frontend/ast): a type switch over the concrete type
// is the dispatch mechanism; the node types carry no separate kind tag.
package ast

import "ghoulc/internal/source"

// Node is implemented by every ASG node.
type Node interface {
	Loc() *source.Location
}

// Decl is implemented by every declaration variant.
type Decl interface {
	Node
	declNode()
	Id() DeclId
	SetId(DeclId)
	Base() *DeclBase
}

// Stmt is implemented by every statement variant.
type Stmt interface {
	Node
	stmtNode()
}

// Expr is implemented by every expression variant.
type Expr interface {
	Node
	exprNode()
	ValueType() Type
	SetValueType(Type)
	IsLValue() bool
	SetLValue(bool)
}

// Type is implemented by every type variant.
type Type interface {
	Node
	typeNode()
	Qualifier() Qualifier
	SetQualifier(Qualifier)
}

// Cont is implemented by every contract variant (requires/ensures/throws/where).
type Cont interface {
	Node
	contNode()
}

// DeclId is an arena index into a Registry, used for back-references
// (container, referenced-decl, enclosing template) so that ownership
// stays strictly tree-shaped along the primary "owns" axis while cyclic
// references are expressed as plain integers (spec §9: "Back-references
// forming cycles... represented by arena-style index handles").
type DeclId int32

// InvalidDeclId marks the absence of a back-reference.
const InvalidDeclId DeclId = -1

// Registry is the side table DeclId indexes into. One Registry is shared
// by an entire compilation.
type Registry struct {
	decls []Decl
}

// NewRegistry creates an empty declaration registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// Alloc assigns d the next DeclId and records it in the registry.
func (r *Registry) Alloc(d Decl) DeclId {
	id := DeclId(len(r.decls))
	r.decls = append(r.decls, d)
	d.SetId(id)
	return id
}

// Get resolves a DeclId back to its Decl, or nil for InvalidDeclId.
func (r *Registry) Get(id DeclId) Decl {
	if id == InvalidDeclId || int(id) >= len(r.decls) {
		return nil
	}
	return r.decls[id]
}

// Len returns the number of registered declarations.
func (r *Registry) Len() int { return len(r.decls) }

// All returns every registered declaration, in allocation order. Passes
// that must snapshot the index range before appending more instantiations
// (spec §5) call this once and iterate the returned slice by index.
func (r *Registry) All() []Decl { return r.decls }
