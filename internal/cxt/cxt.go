// Package cxt implements the elaboration context: parallel value and
// type environments, a name list with provenance, and the small set
// of operations (bind/define/lvlName) elaboration and unification use
// to extend it.
package cxt

import (
	"github.com/dtlc-lang/telescope/internal/syntax"
	"github.com/dtlc-lang/telescope/internal/value"
)

// TypeEntry is one slot of the type environment, parallel to the
// value environment. Bound marks a λ-bound variable (closes as Pi,
// or PiTel if its type is VRec _); Defined marks a let-bound variable
// (closes as Skip).
type TypeEntry struct {
	Bound bool
	Ty    value.Val
}

func Bound(ty value.Val) TypeEntry     { return TypeEntry{Bound: true, Ty: ty} }
func DefinedTy(ty value.Val) TypeEntry { return TypeEntry{Bound: false, Ty: ty} }

// Context is the (Vals, Types, names, name-origins, length) tuple
// elaboration threads through every check/infer call. Every field is
// grown in lock-step by bind/define, so all four slices always have
// equal length, equal to Len.
type Context struct {
	Vals    value.Env
	Types   []TypeEntry
	Names   []string
	Origins []syntax.Origin
	Len     int
}

// Empty is the starting context for a fresh top-level elaboration.
func Empty() Context {
	return Context{}
}

func (c Context) extend(ve value.EnvEntry, te TypeEntry, name string, origin syntax.Origin) Context {
	names := make([]string, len(c.Names)+1)
	copy(names, c.Names)
	names[len(c.Names)] = name

	origins := make([]syntax.Origin, len(c.Origins)+1)
	copy(origins, c.Origins)
	origins[len(c.Origins)] = origin

	types := make([]TypeEntry, len(c.Types)+1)
	copy(types, c.Types)
	types[len(c.Types)] = te

	return Context{
		Vals:    c.Vals.Extend(ve),
		Types:   types,
		Names:   names,
		Origins: origins,
		Len:     c.Len + 1,
	}
}

// Bind pushes a bound (λ-bound) variable of type a, with the given
// name and provenance. Its value slot holds the neutral value VVar
// at its own level, so that evaluating a term against this context
// reduces a reference to this variable to itself rather than getting
// stuck: the Skipped slot is reserved for closingTy/closingTm's
// index bookkeeping, not for ordinary bound variables.
func Bind(c Context, name string, origin syntax.Origin, a value.Val) Context {
	return c.extend(value.Defined(value.VVar(c.NextLvl())), Bound(a), name, origin)
}

// BindSrc is Bind with origin=FromSource, the common case when
// elaborating a surface binder.
func BindSrc(c Context, name string, a value.Val) Context {
	return Bind(c, name, syntax.FromSource, a)
}

// Define pushes a let-bound variable with both a type and a value.
func Define(c Context, name string, a value.Val, t value.Val) Context {
	return c.extend(value.Defined(t), DefinedTy(a), name, syntax.FromSource)
}

// LvlName maps a de Bruijn level to the name bound at that position,
// for printing/debugging. Callers fall back to a synthetic @n name
// when l is out of range, i.e. for levels with no surviving context
// entry.
func LvlName(c Context, l value.Lvl) (string, bool) {
	ix := int(l)
	if ix < 0 || ix >= len(c.Names) {
		return "", false
	}
	return c.Names[ix], true
}

// NextLvl is the level a freshly bound variable in this context would
// receive — always equal to Len.
func (c Context) NextLvl() value.Lvl { return value.Lvl(c.Len) }
