package ast

import "ghoulc/internal/source"

// TypeBase holds the fields common to every type variant: a span, a
// mutability qualifier, and an l-value flag (spec §3).
type TypeBase struct {
	Location  source.Location
	Qual      Qualifier
	LValue    bool
}

func (b *TypeBase) Loc() *source.Location    { return &b.Location }
func (b *TypeBase) typeNode()                {}
func (b *TypeBase) Qualifier() Qualifier     { return b.Qual }
func (b *TypeBase) SetQualifier(q Qualifier) { b.Qual = q }

// BuiltinKind enumerates the named built-in scalar types (spec §3).
type BuiltinKind int

const (
	BuiltinVoid BuiltinKind = iota
	BuiltinBool
	BuiltinI8
	BuiltinI16
	BuiltinI32
	BuiltinI64
	BuiltinU8
	BuiltinU16
	BuiltinU32
	BuiltinU64
	BuiltinF32
	BuiltinF64
	BuiltinISize
	BuiltinUSize
	BuiltinChar
)

var builtinNames = map[BuiltinKind]string{
	BuiltinVoid: "void", BuiltinBool: "bool",
	BuiltinI8: "i8", BuiltinI16: "i16", BuiltinI32: "i32", BuiltinI64: "i64",
	BuiltinU8: "u8", BuiltinU16: "u16", BuiltinU32: "u32", BuiltinU64: "u64",
	BuiltinF32: "f32", BuiltinF64: "f64",
	BuiltinISize: "isize", BuiltinUSize: "usize", BuiltinChar: "char",
}

func (k BuiltinKind) String() string { return builtinNames[k] }

// BuiltinType is one of the named integer/float widths, void, or bool
// (Bool is folded into this variant as a convenience alias per spec §3).
type BuiltinType struct {
	TypeBase
	Kind BuiltinKind
}

// EnumType refers to a concrete, resolved EnumDecl.
type EnumType struct {
	TypeBase
	Decl DeclId
}

// StructType refers to a concrete, resolved StructDecl (including
// template instantiations, which are StructDecls in their own right).
type StructType struct {
	TypeBase
	Decl DeclId
}

// TraitType refers to a concrete, resolved TraitDecl.
type TraitType struct {
	TypeBase
	Decl DeclId
}

// TemplateStructType names a TemplateStructDecl itself (not one of its
// instantiations) — used e.g. as a template-template argument.
type TemplateStructType struct {
	TypeBase
	Decl DeclId
}

// TemplateTraitType names a TemplateTraitDecl itself.
type TemplateTraitType struct {
	TypeBase
	Decl DeclId
}

// AliasType refers to a resolved TypeAliasDecl.
type AliasType struct {
	TypeBase
	Decl DeclId
}

// DimensionType is an N-rank array type, `[,,]T` (spec §4.B).
type DimensionType struct {
	TypeBase
	Rank    int
	Element Type
}

// FlatArrayType is a static-size array, `[N]T`.
type FlatArrayType struct {
	TypeBase
	Size    int64
	Element Type
}

// FunctionPointerType is `func(ParamTypes...) -> ReturnType` used as a type.
type FunctionPointerType struct {
	TypeBase
	Params []Type
	Return Type
}

// PointerType is `*T`.
type PointerType struct {
	TypeBase
	Pointee Type
}

// ReferenceType is `ref T`.
type ReferenceType struct {
	TypeBase
	Referent Type
}

// RValueReferenceType is an rvalue-reference form produced internally
// during implicit-conversion analysis (spec §4.G); it has no direct
// surface syntax.
type RValueReferenceType struct {
	TypeBase
	Referent Type
}

// SelfType is the `self` placeholder type synthesized on struct/trait
// methods by BasicDeclValidator (spec §4.D).
type SelfType struct {
	TypeBase
	Owner DeclId // the struct/trait this `self` belongs to
}

// TemplatedType is an unresolved template invocation, e.g. `Box<i32>`
// before DeclInstantiator produces a concrete instantiation (spec §4.E/§4.F).
type TemplatedType struct {
	TypeBase
	Template DeclId // the TemplateStructDecl/TemplateTraitDecl being invoked
	Args     []Type
}

// TemplateTypenameRefType refers to a template parameter by name, inside
// the body of a not-yet-instantiated template (spec §4.E).
type TemplateTypenameRefType struct {
	TypeBase
	Param DeclId // the TemplateParameterDecl
}

// DependentType marks a type that depends on a template parameter and
// cannot be resolved further until instantiation substitutes a concrete
// argument (spec §4.F step 5).
type DependentType struct {
	TypeBase
	On DeclId // the TemplateParameterDecl it depends on
}

// LabeledType names a labeled position inside a tuple/labeled-argument type.
type LabeledType struct {
	TypeBase
	Label string
	Inner Type
}

// ImaginaryType is a placeholder type used only during `where`-contract
// validation of a candidate instantiation, before it is known to succeed
// (spec §4.F step 3).
type ImaginaryType struct {
	TypeBase
	Basis Type
}

// UnresolvedType is a raw dotted-name type reference as written by the
// parser, before BasicTypeResolver runs (spec §4.E).
type UnresolvedType struct {
	TypeBase
	Path []string
	Args []Type // template arguments, if any, still unresolved
}

// UnresolvedNestedType is `A<T>.B<U>` — a nested type reference rooted at
// another (possibly also unresolved) type.
type UnresolvedNestedType struct {
	TypeBase
	Outer Type
	Name  string
	Args  []Type
}

// VTableType is the synthesized type of a struct's virtual table.
type VTableType struct {
	TypeBase
	Owner DeclId
}

var (
	_ Type = (*BuiltinType)(nil)
	_ Type = (*EnumType)(nil)
	_ Type = (*StructType)(nil)
	_ Type = (*TraitType)(nil)
	_ Type = (*TemplateStructType)(nil)
	_ Type = (*TemplateTraitType)(nil)
	_ Type = (*AliasType)(nil)
	_ Type = (*DimensionType)(nil)
	_ Type = (*FlatArrayType)(nil)
	_ Type = (*FunctionPointerType)(nil)
	_ Type = (*PointerType)(nil)
	_ Type = (*ReferenceType)(nil)
	_ Type = (*RValueReferenceType)(nil)
	_ Type = (*SelfType)(nil)
	_ Type = (*TemplatedType)(nil)
	_ Type = (*TemplateTypenameRefType)(nil)
	_ Type = (*DependentType)(nil)
	_ Type = (*LabeledType)(nil)
	_ Type = (*ImaginaryType)(nil)
	_ Type = (*UnresolvedType)(nil)
	_ Type = (*UnresolvedNestedType)(nil)
	_ Type = (*VTableType)(nil)
)
