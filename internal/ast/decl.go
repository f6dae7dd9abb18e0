package ast

import "ghoulc/internal/source"

// DeclBase holds the fields common to every declaration variant (spec §3).
type DeclBase struct {
	id         DeclId
	Location   source.Location
	SourceFile string
	Visibility Visibility
	Modifiers  ModifierSet
	IsConstExpr bool
	Ident       string
	Container   DeclId // enclosing namespace/struct/trait; InvalidDeclId at top level
	InTemplate  bool   // true if lexically nested inside a template body, before substitution
	MangledName string // set exactly once, by NameMangler (spec §3 invariant)
	Attrs       []*Attr
}

func (b *DeclBase) Id() DeclId          { return b.id }
func (b *DeclBase) SetId(id DeclId)     { b.id = id }
func (b *DeclBase) Loc() *source.Location { return &b.Location }
func (b *DeclBase) Base() *DeclBase     { return b }
func (b *DeclBase) declNode()           {}

// ImportDecl is `import A.B.C [as Alias]`.
type ImportDecl struct {
	DeclBase
	Path     []string
	Alias    string // "" if not aliased
	Resolved DeclId // the imported NamespaceDecl, set by BasicDeclValidator
}

// NamespaceDecl groups declarations under a dotted path. After
// NamespacePrototyper runs, cross-file namespaces of the same path share
// one prototype tree even though each NamespaceDecl node stays owned by
// the file that declared it (spec §4.C).
type NamespaceDecl struct {
	DeclBase
	Members []Decl
}

// ParamPassMode is a parameter's passing convention (spec §4.I). The
// mangler marks PassOut with the vendor extension U3out; PassIn (the
// default) and PassRef add no marker.
type ParamPassMode int

const (
	PassIn ParamPassMode = iota
	PassOut
	PassRef
)

// ParameterDecl is one function/method/subscript parameter.
type ParameterDecl struct {
	DeclBase
	Label      string // external argument label; "_" means unlabeled
	Type       Type
	PassMode   ParamPassMode
	Default    Expr // nil if no default
}

// TemplateParamKind distinguishes typename- from const-template parameters.
type TemplateParamKind int

const (
	TemplateParamTypename TemplateParamKind = iota
	TemplateParamConst
)

// TemplateParameterDecl is one `<T>` or `<const N: usize>` parameter.
type TemplateParameterDecl struct {
	DeclBase
	Kind        TemplateParamKind
	ConstType   Type // non-nil only for TemplateParamConst
	Default     Node // *TypeExprPlaceholder or Expr, depending on Kind
}

// FunctionDecl covers plain functions, methods, and (when IsTemplate is
// true) function templates; per-instantiation clones are FunctionDecl
// values with InstantiatedFrom set, attached as children of the template
// (spec §3's "TemplateFunction (+ per-instantiation clones)").
type FunctionDecl struct {
	DeclBase
	Params     []*ParameterDecl
	ReturnType Type
	Body       *Block // nil for Prototype/Extern declarations
	Throws     []*ThrowsCont
	Requires   []*RequiresCont
	Ensures    []*EnsuresCont

	IsTemplate       bool
	TemplateParams   []*TemplateParameterDecl
	Where            []*WhereCont
	Instantiations   []*FunctionDecl
	InstantiatedFrom *FunctionDecl
	TemplateArgs     []Type

	SelfType Type // synthesized `self` type for methods (spec §4.D)
}

// OperatorKind distinguishes the operator-declaration forms spec §3 lists.
type OperatorKind int

const (
	OperatorInfix OperatorKind = iota
	OperatorPrefix
	OperatorPostfix
	OperatorCall
	OperatorCast
	OperatorSubscript
)

// OperatorDecl covers Operator/CallOperator/CastOperator/SubscriptOperator,
// with Get/Set sub-decls for the subscript form (spec §3).
type OperatorDecl struct {
	DeclBase
	Kind       OperatorKind
	Symbol     string // e.g. "+", "as", "[]"
	Params     []*ParameterDecl
	ReturnType Type
	Get        *FunctionDecl // subscript/property-style getter
	Set        *FunctionDecl // subscript/property-style setter
	Body       *Block
}

// PropertyDecl is a computed property with optional get/set accessors.
type PropertyDecl struct {
	DeclBase
	Type Type
	Get  *FunctionDecl
	Set  *FunctionDecl
}

// ConstructorKind distinguishes normal/copy/move constructors (spec §3).
type ConstructorKind int

const (
	ConstructorNormal ConstructorKind = iota
	ConstructorCopy
	ConstructorMove
)

// ConstructorDecl is a struct/class constructor.
type ConstructorDecl struct {
	DeclBase
	Kind   ConstructorKind
	Params []*ParameterDecl
	Body   *Block
	Throws []*ThrowsCont
}

// DestructorDecl is a struct/class destructor.
type DestructorDecl struct {
	DeclBase
	Body *Block
}

// StructKind distinguishes struct/class/union layout semantics (spec §3).
type StructKind int

const (
	StructKindStruct StructKind = iota
	StructKindClass
	StructKindUnion
)

// StructLayout is computed by DeclInstantiator (spec §4.F).
type StructLayout struct {
	Size       int
	Align      int
	FieldOffsets map[string]int
}

// VTable is produced for structs with at least one virtual/abstract/
// override method (spec §4.F).
type VTable struct {
	MangledName string
	Slots       []VTableSlot
}

// VTableSlot is one virtual dispatch entry, deduplicated by inherited-slot
// identity across the base chain.
type VTableSlot struct {
	Name   string
	Target *FunctionDecl
}

// StructDecl covers struct/class/union declarations and (when IsTemplate)
// their template form; instantiations are StructDecl values with
// InstantiatedFrom set, attached under the template (spec §3).
type StructDecl struct {
	DeclBase
	Kind    StructKind
	Bases   []Type
	Fields  []*VariableDecl
	Members []Decl

	IsTemplate       bool
	TemplateParams   []*TemplateParameterDecl
	Where            []*WhereCont
	Instantiations   []*StructDecl
	InstantiatedFrom *StructDecl
	TemplateArgs     []Type

	Layout *StructLayout
	VTable *VTable

	// InstantiationState tracks the per-template-decl state machine
	// {Unprocessed, Layouted, Mangled} from spec §4.J.
	InstantiationState InstantiationState
}

// InstantiationState is the per-template-decl progression spec §4.J names.
type InstantiationState int

const (
	Unprocessed InstantiationState = iota
	Layouted
	Mangled
)

// TraitDecl covers trait declarations and (when IsTemplate) trait
// templates; instantiations follow the same attach-to-template pattern as
// StructDecl.
type TraitDecl struct {
	DeclBase
	Requirements []Decl // TraitPrototypeDecl children

	IsTemplate       bool
	TemplateParams   []*TemplateParameterDecl
	Where            []*WhereCont
	Instantiations   []*TraitDecl
	InstantiatedFrom *TraitDecl
	TemplateArgs     []Type
}

// TraitPrototypeDecl is a body-less requirement inside a trait (spec §3,
// GLOSSARY "Prototype (decl)").
type TraitPrototypeDecl struct {
	DeclBase
	Signature Decl // a FunctionDecl/PropertyDecl/OperatorDecl with Prototype modifier set
}

// ExtensionDecl adds members to an existing type from elsewhere.
type ExtensionDecl struct {
	DeclBase
	Target  Type
	Members []Decl
}

// TypeAliasDecl is `type Name = OtherType`.
type TypeAliasDecl struct {
	DeclBase
	Aliased Type
}

// TypeSuffixDecl declares a user-defined literal suffix (e.g. the "foo" in
// a `123foo` numeric literal, spec §4.A).
type TypeSuffixDecl struct {
	DeclBase
	Suffix     string
	Underlying Type
}

// EnumDecl is an enumeration with an optional explicit underlying type.
type EnumDecl struct {
	DeclBase
	UnderlyingType Type
	Consts         []*EnumConstDecl
}

// EnumConstDecl is one member of an EnumDecl.
type EnumConstDecl struct {
	DeclBase
	Value Expr // nil if implicitly numbered
}

// VariableDecl is a top-level, member, or namespace-scoped variable
// (distinct from the let-statement Expr form used inside function bodies).
type VariableDecl struct {
	DeclBase
	Type Type
	Init Expr
}

var (
	_ Decl = (*ImportDecl)(nil)
	_ Decl = (*NamespaceDecl)(nil)
	_ Decl = (*ParameterDecl)(nil)
	_ Decl = (*TemplateParameterDecl)(nil)
	_ Decl = (*FunctionDecl)(nil)
	_ Decl = (*OperatorDecl)(nil)
	_ Decl = (*PropertyDecl)(nil)
	_ Decl = (*ConstructorDecl)(nil)
	_ Decl = (*DestructorDecl)(nil)
	_ Decl = (*StructDecl)(nil)
	_ Decl = (*TraitDecl)(nil)
	_ Decl = (*TraitPrototypeDecl)(nil)
	_ Decl = (*ExtensionDecl)(nil)
	_ Decl = (*TypeAliasDecl)(nil)
	_ Decl = (*TypeSuffixDecl)(nil)
	_ Decl = (*EnumDecl)(nil)
	_ Decl = (*EnumConstDecl)(nil)
	_ Decl = (*VariableDecl)(nil)
)
