package ast

import "ghoulc/internal/source"

// Attr is an attribute (`@name` or `@ns.name(args…)`) attached to the
// following declaration or parameter. Unresolved attribute bodies are
// kept verbatim for later interpretation by tooling outside this
// component (spec §6).
type Attr struct {
	Location  source.Location
	Namespace string // "" for bare "@name"
	Name      string
	Args      []Expr
}

func (a *Attr) Loc() *source.Location { return &a.Location }
