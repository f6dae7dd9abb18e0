package diagnostics

import "ghoulc/internal/source"

// Builders for the error taxonomy in spec §7. Each corresponds to one
// concrete situation a pass encounters; passes call these instead of
// building ad-hoc messages so wording stays consistent.

// Lexical

func UnrecognizedChar(loc source.Location, ch byte) *Diagnostic {
	return NewError("unrecognized character").WithPrimaryLabel(loc, "not a valid token start")
}

func UnterminatedLiteral(loc source.Location, kind string) *Diagnostic {
	return NewError("unterminated " + kind + " literal").WithPrimaryLabel(loc, "expected closing quote before end of line")
}

func NewlineInLiteral(loc source.Location, kind string) *Diagnostic {
	return NewError("newline in " + kind + " literal").WithPrimaryLabel(loc, "literals cannot span lines")
}

func UnknownEscape(loc source.Location, seq string) *Diagnostic {
	return NewError("unknown escape sequence '\\" + seq + "'").WithPrimaryLabel(loc, "not a recognized escape")
}

// Syntactic

func UnexpectedToken(loc source.Location, expected, found string) *Diagnostic {
	return NewError("unexpected token").
		WithPrimaryLabel(loc, "expected "+expected+", found "+found)
}

func DuplicateModifier(loc source.Location, name string) *Diagnostic {
	return NewError("duplicate modifier '" + name + "'").WithPrimaryLabel(loc, "already applied")
}

// Semantic-early

func UndefinedName(loc source.Location, name string) *Diagnostic {
	return NewError("undefined name '" + name + "'").
		WithPrimaryLabel(loc, "not found in this scope").
		WithHelp("check spelling and imports")
}

func Redefinition(newLoc, prevLoc source.Location, name string) *Diagnostic {
	return NewError("'" + name + "' is already declared").
		WithPrimaryLabel(newLoc, "redefined here").
		WithSecondaryLabel(prevLoc, "previously declared here")
}

func VisibilityViolation(loc source.Location, name string) *Diagnostic {
	return NewError("'" + name + "' is not visible here").WithPrimaryLabel(loc, "insufficient visibility")
}

func MissingReturnType(loc source.Location, name string) *Diagnostic {
	return NewError("function '" + name + "' has no declared return type").WithPrimaryLabel(loc, "expected '-> Type'")
}

// Semantic-template

func ContractFailed(loc source.Location, clause string) *Diagnostic {
	return NewError("template constraint not satisfied: " + clause).WithPrimaryLabel(loc, clause+" is not satisfied by the given arguments")
}

func AmbiguousSpecialization(loc source.Location, name string) *Diagnostic {
	return NewError("ambiguous specialization for '" + name + "'").WithPrimaryLabel(loc, "multiple equally specific candidates")
}

func CyclicInstantiation(loc source.Location, cycle string) *Diagnostic {
	return NewError("cyclic template instantiation").WithPrimaryLabel(loc, cycle)
}

func ArgumentCountMismatch(loc source.Location, expected, found int) *Diagnostic {
	return NewError("wrong number of arguments").WithPrimaryLabel(loc, "expected a different argument count")
}

// Semantic-late

func AmbiguousOverload(loc source.Location, name string) *Diagnostic {
	return NewError("ambiguous call to '" + name + "'").WithPrimaryLabel(loc, "more than one candidate matches equally well")
}

func NoMatchingOverload(loc source.Location, name string) *Diagnostic {
	return NewError("no matching overload for '" + name + "'").WithPrimaryLabel(loc, "no candidate accepts these arguments")
}

func FailedImplicitConversion(loc source.Location, from, to string) *Diagnostic {
	return NewError("cannot implicitly convert " + from + " to " + to).
		WithPrimaryLabel(loc, "no implicit conversion exists").
		WithHelp("use an explicit 'as' cast if this narrowing is intended")
}

func LabelMismatch(loc source.Location, expected, found string) *Diagnostic {
	return NewError("argument label mismatch").WithPrimaryLabel(loc, "expected label '"+expected+"', found '"+found+"'")
}

func MissingFallthrough(loc source.Location) *Diagnostic {
	return NewError("case falls through without 'fallthrough'").WithPrimaryLabel(loc, "add 'fallthrough' or a terminating statement")
}

func TryNotPermitted(loc source.Location) *Diagnostic {
	return NewError("'try' used where the enclosing function does not declare a matching 'throws'").WithPrimaryLabel(loc, "not in the function's throws set")
}

// Mangling (internal)

func UnsupportedMangling(loc source.Location, what string) *Diagnostic {
	return NewError("internal: mangler does not support " + what).WithPrimaryLabel(loc, "unsupported for mangling")
}
