// Package mangle implements NameMangler (H in spec §2/§4.I): an
// Itanium-C++-ABI-derived scheme extended with the language's own
// concepts (argument labels, pass-mode, `immut`/`mut` qualifiers,
// property/subscript accessor suffixes, template instantiations,
// vtables). Every externally-linkable Decl receives its MangledName
// exactly once, in a two-phase walk: type-producing decls (enum/struct/
// trait, including template instantiations) are named first
// (mangleDecl*), then function/variable names are mangled (mangle*) so
// their parameter signatures can reference already-mangled type names
// (spec §4.I).
//
// Grounded on spec.md §4.I's scheme directly, extending the base
// Itanium shapes documented in original_source/GULC/NameMangling (see
// SUPPLEMENTED FEATURES in SPEC_FULL.md) with the vendor extensions
// spec.md defines.
package mangle

import (
	"fmt"
	"strconv"
	"strings"

	"ghoulc/internal/ast"
	"ghoulc/internal/diagnostics"
)

// Mangler holds the shared state for one NameMangler run.
type Mangler struct {
	reg   *ast.Registry
	diags *diagnostics.DiagnosticBag
}

// New creates a NameMangler bound to reg/diags.
func New(reg *ast.Registry, diags *diagnostics.DiagnosticBag) *Mangler {
	return &Mangler{reg: reg, diags: diags}
}

// Run performs the two-phase walk over every top-level declaration
// (spec §4.I): first mangleDecl* over type-producing decls, then mangle*
// over everything else, so functions can reference type names in their
// parameter signatures.
func (m *Mangler) Run(topLevel []ast.Decl) {
	m.walkTypes(topLevel, nil)
	m.walkValues(topLevel, nil)
}

func (m *Mangler) walkTypes(decls []ast.Decl, prefix []string) {
	for _, d := range decls {
		switch n := d.(type) {
		case *ast.NamespaceDecl:
			m.walkTypes(n.Members, append(prefix, n.Ident))
		case *ast.StructDecl:
			m.mangleStruct(n, prefix)
			m.walkTypes(n.Members, append(prefix, n.Ident))
			for _, inst := range n.Instantiations {
				m.mangleStruct(inst, prefix)
				m.walkTypes(inst.Members, append(prefix, inst.Ident))
			}
		case *ast.TraitDecl:
			m.mangleTrait(n, prefix)
			for _, inst := range n.Instantiations {
				m.mangleTrait(inst, prefix)
			}
		case *ast.EnumDecl:
			n.Base().MangledName = nestedName(prefix, n.Ident)
		case *ast.ExtensionDecl:
			m.walkTypes(n.Members, prefix)
		}
	}
}

func (m *Mangler) mangleStruct(n *ast.StructDecl, prefix []string) {
	if n.Base().MangledName != "" {
		return
	}
	if n.IsTemplate {
		n.Base().MangledName = nestedName(prefix, n.Ident)
		return
	}
	name := n.Ident
	if n.InstantiatedFrom != nil {
		name = n.InstantiatedFrom.Ident + m.templateArgsSuffix(n.TemplateArgs)
	}
	n.Base().MangledName = nestedName(prefix, name)
	if n.VTable != nil {
		n.VTable.MangledName = "_ZTV" + n.Base().MangledName[2:]
	}
	n.InstantiationState = ast.Mangled
}

func (m *Mangler) mangleTrait(n *ast.TraitDecl, prefix []string) {
	if n.Base().MangledName != "" {
		return
	}
	name := n.Ident
	if n.InstantiatedFrom != nil {
		name = n.InstantiatedFrom.Ident + m.templateArgsSuffix(n.TemplateArgs)
	}
	n.Base().MangledName = nestedName(prefix, name)
}

func (m *Mangler) walkValues(decls []ast.Decl, prefix []string) {
	for _, d := range decls {
		switch n := d.(type) {
		case *ast.NamespaceDecl:
			m.walkValues(n.Members, append(prefix, n.Ident))
		case *ast.StructDecl:
			m.walkValues(n.Members, append(prefix, n.Ident))
			for _, inst := range n.Instantiations {
				m.walkValues(inst.Members, append(prefix, inst.Ident))
			}
		case *ast.TraitDecl:
			m.walkValues(n.Requirements, append(prefix, n.Ident))
		case *ast.ExtensionDecl:
			m.walkValues(n.Members, prefix)
		case *ast.FunctionDecl:
			m.mangleFunction(n, prefix)
			for _, inst := range n.Instantiations {
				m.mangleFunction(inst, prefix)
			}
		case *ast.ConstructorDecl:
			m.mangleConstructor(n, prefix)
		case *ast.DestructorDecl:
			n.Base().MangledName = m.nestedFuncName(prefix, "D2", nil)
		case *ast.OperatorDecl:
			m.mangleOperator(n, prefix)
		case *ast.PropertyDecl:
			m.mangleProperty(n, prefix)
		case *ast.VariableDecl:
			n.Base().MangledName = nestedName(prefix, n.Ident)
		}
	}
}

func (m *Mangler) mangleFunction(n *ast.FunctionDecl, prefix []string) {
	if n.Base().MangledName != "" {
		return
	}
	name := n.Ident
	if n.InstantiatedFrom != nil {
		name = n.InstantiatedFrom.Ident + m.templateArgsSuffix(n.TemplateArgs)
	}
	n.Base().MangledName = m.nestedFuncName(prefix, name, n.Params)
}

func (m *Mangler) mangleConstructor(n *ast.ConstructorDecl, prefix []string) {
	tag := "C2"
	if n.Kind == ast.ConstructorNormal {
		tag = "C1"
	}
	n.Base().MangledName = m.nestedFuncName(prefix, tag, n.Params)
}

var operatorMangledNames = map[string]string{
	"+": "pl", "-": "mi", "*": "ml", "/": "dv", "%": "rm",
	"==": "eq", "!=": "ne", "<": "lt", "<=": "le", ">": "gt", ">=": "ge",
	"[]": "ix", "()": "cl", "as": "cv",
}

func (m *Mangler) mangleOperator(n *ast.OperatorDecl, prefix []string) {
	sym, ok := operatorMangledNames[n.Symbol]
	if !ok {
		m.diags.Add(diagnostics.UnsupportedMangling(n.Location, "operator symbol '"+n.Symbol+"'"))
		sym = "op"
	}
	switch n.Kind {
	case ast.OperatorSubscript:
		suffix := "ixg"
		if n.Set != nil && n.Get == nil {
			suffix = "ixs"
		} else if n.Get != nil && n.Get.SelfType != nil && n.Get.SelfType.Qualifier() == ast.QualifierMut {
			suffix = "ixgrm"
		}
		n.Base().MangledName = m.nestedFuncName(prefix, suffix, n.Params)
	default:
		n.Base().MangledName = m.nestedFuncName(prefix, sym, n.Params)
	}
}

func (m *Mangler) mangleProperty(n *ast.PropertyDecl, prefix []string) {
	if n.Get != nil {
		suffix := "pg"
		if n.Get.SelfType != nil {
			switch n.Get.SelfType.Qualifier() {
			case ast.QualifierMut:
				suffix = "pgrm"
			case ast.QualifierImmut:
				suffix = "pgr"
			}
		}
		n.Get.Base().MangledName = nestedName(prefix, n.Ident) + suffix
	}
	if n.Set != nil {
		n.Set.Base().MangledName = nestedName(prefix, n.Ident) + "ps"
	}
	n.Base().MangledName = nestedName(prefix, n.Ident)
}

// nestedName renders the Itanium `_ZN<prefix><name>E` nesting form, or the
// flat `_Z<name>` global form when prefix is empty (spec §4.I).
func nestedName(prefix []string, name string) string {
	if len(prefix) == 0 {
		return "_Z" + lenPrefixed(name)
	}
	var sb strings.Builder
	sb.WriteString("_ZN")
	for _, p := range prefix {
		sb.WriteString(lenPrefixed(p))
	}
	sb.WriteString(lenPrefixed(name))
	sb.WriteString("E")
	return sb.String()
}

// nestedFuncName appends a mangled parameter-signature list (or `v` for
// none) after the base name/nesting, matching the two example scenarios
// spec §8 gives (`_Z4mainv`, `_Z3addU3lhs3i32U3rhs3i32`).
func (m *Mangler) nestedFuncName(prefix []string, name string, params []*ast.ParameterDecl) string {
	base := nestedName(prefix, name)
	sig := m.paramSignature(params)
	if len(prefix) == 0 {
		return base + sig
	}
	// nestedName already appended the closing 'E'; the parameter
	// signature follows it directly, exactly like a global name's suffix.
	return base + sig
}

func (m *Mangler) paramSignature(params []*ast.ParameterDecl) string {
	if len(params) == 0 {
		return "v"
	}
	var sb strings.Builder
	for _, p := range params {
		if p.Label != "" && p.Label != "_" {
			sb.WriteString("U")
			sb.WriteString(lenPrefixed(p.Label))
		}
		switch p.PassMode {
		case ast.PassOut:
			sb.WriteString("U3out")
		}
		sb.WriteString(m.mangleType(p.Type))
	}
	return sb.String()
}

var builtinCodes = map[ast.BuiltinKind]string{
	ast.BuiltinVoid: "v", ast.BuiltinBool: "b",
}

// mangleType renders one type's mangled signature fragment (spec §4.I):
// qualifiers first (`K` immut, `Umut` mut), then pointer/reference
// wrappers, then the base form — a single-letter code for void/bool, the
// source-name form (length-prefixed) for every other built-in, or the
// referenced decl's already-mangled type name for enum/struct/trait.
func (m *Mangler) mangleType(t ast.Type) string {
	if t == nil {
		return "v"
	}
	prefix := ""
	switch t.Qualifier() {
	case ast.QualifierImmut:
		prefix = "K"
	case ast.QualifierMut:
		prefix = "Umut"
	}
	switch x := t.(type) {
	case *ast.BuiltinType:
		if code, ok := builtinCodes[x.Kind]; ok {
			return prefix + code
		}
		return prefix + lenPrefixed(x.Kind.String())
	case *ast.PointerType:
		return prefix + "P" + m.mangleType(x.Pointee)
	case *ast.ReferenceType:
		return prefix + "R" + m.mangleType(x.Referent)
	case *ast.RValueReferenceType:
		return prefix + "O" + m.mangleType(x.Referent)
	case *ast.StructType:
		return prefix + m.typeRefName(x.Decl)
	case *ast.TraitType:
		return prefix + m.typeRefName(x.Decl)
	case *ast.EnumType:
		return prefix + m.typeRefName(x.Decl)
	case *ast.FlatArrayType:
		return prefix + "A" + strconv.FormatInt(x.Size, 10) + "_" + m.mangleType(x.Element)
	case *ast.TemplatedType:
		var sb strings.Builder
		sb.WriteString(prefix)
		sb.WriteString("I")
		for _, a := range x.Args {
			sb.WriteString(m.mangleType(a))
		}
		sb.WriteString("E")
		return sb.String()
	default:
		return prefix + "v"
	}
}

// typeRefName looks up a previously mangled type-producing decl's name by
// DeclId; the two-phase walk in Run guarantees this is always populated by
// the time function/variable signatures reference it.
func (m *Mangler) typeRefName(id ast.DeclId) string {
	d := m.reg.Get(id)
	if d == nil {
		return fmt.Sprintf("T%d", id)
	}
	return d.Base().MangledName
}

// templateArgsSuffix renders the `I…E` template-argument mangling used to
// disambiguate distinct instantiations sharing one template's base name.
func (m *Mangler) templateArgsSuffix(args []ast.Type) string {
	var sb strings.Builder
	sb.WriteString("I")
	for _, a := range args {
		sb.WriteString(m.mangleType(a))
	}
	sb.WriteString("E")
	return sb.String()
}

func lenPrefixed(s string) string {
	return strconv.Itoa(len(s)) + s
}
