// Package syntax defines the surface (Raw) and core (Tm) term
// representations shared by the parser, elaborator and printer.
package syntax

// Icit tags whether a function argument or binder is explicit (written
// at every call site) or implicit (left for the elaborator to insert).
type Icit int

const (
	Expl Icit = iota
	Impl
)

func (i Icit) String() string {
	if i == Impl {
		return "Impl"
	}
	return "Expl"
}

// Origin records whether a name in a context came from the user's
// source text or was inserted by the elaborator (an implicit lambda,
// a telescope binder). Only FromSource names are visible to lookup.
type Origin int

const (
	FromSource Origin = iota
	Inserted
)
