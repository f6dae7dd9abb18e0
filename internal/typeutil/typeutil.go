// Package typeutil implements TypeCompareUtil (spec §4.H): structural
// type equality under two modes (Strict, where every template argument
// must match exactly, and AllTemplatesAreSame, which ignores a
// TemplatedType's arguments) plus a
// subtype test used by implicit-conversion analysis.
//
// Grounded on spec.md §4.H directly; no pack repo needs structural type
// comparison at this granularity (each carries its own single concrete
// type system with no templates), so this is built from the spec's own
// algorithm description in the teacher's small-package style.
package typeutil

import (
	"fmt"
	"reflect"
	"strings"

	"ghoulc/internal/ast"
)

// Mode selects how template arguments factor into equality.
type Mode int

const (
	// Strict requires every template argument to compare equal too.
	Strict Mode = iota
	// AllTemplatesAreSame treats two TemplatedTypes of the same template
	// as equal regardless of their arguments; every other variant
	// compares exactly as under Strict.
	AllTemplatesAreSame
)

// Equal reports whether a and b denote the same type under mode.
func Equal(a, b ast.Type, mode Mode) bool {
	if a == nil || b == nil {
		return a == b
	}
	if a.Qualifier() != b.Qualifier() {
		return false
	}
	switch x := a.(type) {
	case *ast.BuiltinType:
		y, ok := b.(*ast.BuiltinType)
		return ok && x.Kind == y.Kind
	case *ast.EnumType:
		y, ok := b.(*ast.EnumType)
		return ok && x.Decl == y.Decl
	case *ast.StructType:
		y, ok := b.(*ast.StructType)
		return ok && x.Decl == y.Decl
	case *ast.TraitType:
		y, ok := b.(*ast.TraitType)
		return ok && x.Decl == y.Decl
	case *ast.TemplateStructType:
		y, ok := b.(*ast.TemplateStructType)
		return ok && x.Decl == y.Decl
	case *ast.TemplateTraitType:
		y, ok := b.(*ast.TemplateTraitType)
		return ok && x.Decl == y.Decl
	case *ast.AliasType:
		y, ok := b.(*ast.AliasType)
		return ok && x.Decl == y.Decl
	case *ast.DimensionType:
		y, ok := b.(*ast.DimensionType)
		return ok && x.Rank == y.Rank && Equal(x.Element, y.Element, mode)
	case *ast.FlatArrayType:
		y, ok := b.(*ast.FlatArrayType)
		return ok && x.Size == y.Size && Equal(x.Element, y.Element, mode)
	case *ast.FunctionPointerType:
		y, ok := b.(*ast.FunctionPointerType)
		if !ok || len(x.Params) != len(y.Params) || !Equal(x.Return, y.Return, mode) {
			return false
		}
		for i := range x.Params {
			if !Equal(x.Params[i], y.Params[i], mode) {
				return false
			}
		}
		return true
	case *ast.PointerType:
		y, ok := b.(*ast.PointerType)
		return ok && Equal(x.Pointee, y.Pointee, mode)
	case *ast.ReferenceType:
		y, ok := b.(*ast.ReferenceType)
		return ok && Equal(x.Referent, y.Referent, mode)
	case *ast.RValueReferenceType:
		y, ok := b.(*ast.RValueReferenceType)
		return ok && Equal(x.Referent, y.Referent, mode)
	case *ast.SelfType:
		y, ok := b.(*ast.SelfType)
		return ok && x.Owner == y.Owner
	case *ast.TemplatedType:
		y, ok := b.(*ast.TemplatedType)
		if !ok || x.Template != y.Template {
			return false
		}
		if mode == AllTemplatesAreSame {
			return true
		}
		if len(x.Args) != len(y.Args) {
			return false
		}
		for i := range x.Args {
			if !Equal(x.Args[i], y.Args[i], mode) {
				return false
			}
		}
		return true
	case *ast.TemplateTypenameRefType:
		y, ok := b.(*ast.TemplateTypenameRefType)
		return ok && x.Param == y.Param
	case *ast.DependentType:
		y, ok := b.(*ast.DependentType)
		return ok && x.On == y.On
	case *ast.LabeledType:
		y, ok := b.(*ast.LabeledType)
		return ok && x.Label == y.Label && Equal(x.Inner, y.Inner, mode)
	case *ast.VTableType:
		y, ok := b.(*ast.VTableType)
		return ok && x.Owner == y.Owner
	default:
		// Unresolved*/Imaginary types have no stable identity to compare;
		// they only ever appear transiently before BasicTypeResolver or
		// during contract evaluation.
		return false
	}
}

// AssignableTo reports whether a value of type from may be used where a
// value of type to is expected without an explicit cast: identical types,
// or from's qualifier is at least as permissive as to's (mut may bind to
// immut, not vice versa), or (once numeric types carry a source location
// for the diagnostic) a widening numeric conversion. This front-end
// component only needs the structural half; codeprocess decides whether
// to insert an ImplicitCast node.
func AssignableTo(from, to ast.Type) bool {
	if Equal(from, to, Strict) {
		return true
	}
	if fq, tq := from.Qualifier(), to.Qualifier(); tq == ast.QualifierImmut && fq == ast.QualifierMut {
		return AssignableTo(stripQualifier(from), stripQualifier(to))
	}
	fb, fok := from.(*ast.BuiltinType)
	tb, tok := to.(*ast.BuiltinType)
	if fok && tok {
		return widens(fb.Kind, tb.Kind)
	}
	return false
}

// stripQualifier returns a shallow copy of t with its qualifier cleared;
// t itself is left untouched.
func stripQualifier(t ast.Type) ast.Type {
	cp := reflect.New(reflect.TypeOf(t).Elem())
	cp.Elem().Set(reflect.ValueOf(t).Elem())
	out := cp.Interface().(ast.Type)
	out.SetQualifier(ast.QualifierUnassigned)
	return out
}

var rank = map[ast.BuiltinKind]int{
	ast.BuiltinI8: 1, ast.BuiltinI16: 2, ast.BuiltinI32: 3, ast.BuiltinI64: 4,
	ast.BuiltinU8: 1, ast.BuiltinU16: 2, ast.BuiltinU32: 3, ast.BuiltinU64: 4,
	ast.BuiltinF32: 5, ast.BuiltinF64: 6,
}

// widens reports whether from -> to is a non-narrowing numeric promotion
// within the same signedness family (spec §4.G's implicit-conversion
// table; cross-family and narrowing conversions require an explicit 'as').
func widens(from, to ast.BuiltinKind) bool {
	sameFamily := (isSigned(from) && isSigned(to)) || (isUnsigned(from) && isUnsigned(to)) || (isFloat(from) && isFloat(to))
	return sameFamily && rank[from] > 0 && rank[to] > 0 && rank[from] <= rank[to]
}

func isSigned(k ast.BuiltinKind) bool {
	switch k {
	case ast.BuiltinI8, ast.BuiltinI16, ast.BuiltinI32, ast.BuiltinI64, ast.BuiltinISize:
		return true
	}
	return false
}

func isUnsigned(k ast.BuiltinKind) bool {
	switch k {
	case ast.BuiltinU8, ast.BuiltinU16, ast.BuiltinU32, ast.BuiltinU64, ast.BuiltinUSize:
		return true
	}
	return false
}

func isFloat(k ast.BuiltinKind) bool {
	return k == ast.BuiltinF32 || k == ast.BuiltinF64
}

// Describe renders a debug-readable rendering of t, used for diagnostics
// and as a dedup/overload map key; it is not the mangled name.
func Describe(t ast.Type) string {
	if t == nil {
		return "<nil>"
	}
	switch x := t.(type) {
	case *ast.BuiltinType:
		return x.Kind.String()
	case *ast.EnumType:
		return fmt.Sprintf("enum#%d", x.Decl)
	case *ast.StructType:
		return fmt.Sprintf("struct#%d", x.Decl)
	case *ast.TraitType:
		return fmt.Sprintf("trait#%d", x.Decl)
	case *ast.PointerType:
		return "*" + Describe(x.Pointee)
	case *ast.ReferenceType:
		return "ref " + Describe(x.Referent)
	case *ast.FlatArrayType:
		return fmt.Sprintf("[%d]%s", x.Size, Describe(x.Element))
	case *ast.DimensionType:
		return fmt.Sprintf("[%s]%s", strings.Repeat(",", x.Rank-1), Describe(x.Element))
	case *ast.TemplatedType:
		parts := make([]string, len(x.Args))
		for i, a := range x.Args {
			parts[i] = Describe(a)
		}
		return fmt.Sprintf("tmpl#%d<%s>", x.Template, strings.Join(parts, ","))
	case *ast.UnresolvedType:
		return strings.Join(x.Path, ".")
	default:
		return fmt.Sprintf("%T", t)
	}
}
