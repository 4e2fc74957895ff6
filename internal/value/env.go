// Package value defines the weak-head normal form representation
// (Val) produced by internal/nbe, plus the evaluation environment and
// the explicit-closure Binder type used for every binding form.
package value

import "github.com/dtlc-lang/telescope/internal/syntax"

// Lvl is a de Bruijn level: distance from the root of the context,
// stable under weakening of the context (unlike an index, which is
// distance from the binder and shifts when the context grows).
type Lvl int

// EnvEntry is one slot of an evaluation environment: either a value
// that a binder has been instantiated with (Defined), or a binder
// whose value is not yet known to the current evaluation (Skipped).
// Skipped slots still count towards level/index arithmetic.
type EnvEntry struct {
	Defined bool
	Val     Val // meaningful only when Defined
}

func Defined(v Val) EnvEntry { return EnvEntry{Defined: true, Val: v} }
func Skipped() EnvEntry      { return EnvEntry{Defined: false} }

// Env is a snoc list of EnvEntry: Env[len(Env)-1] is the most
// recently bound variable, i.e. Var{Ix: 0} reads Env[len(Env)-1].
type Env []EnvEntry

// Extend returns a new environment with e appended, without mutating
// the receiver — callers hold onto environments inside Binder values,
// so sharing the backing array across extensions would corrupt
// siblings the next time either is extended.
func (env Env) Extend(e EnvEntry) Env {
	out := make(Env, len(env)+1)
	copy(out, env)
	out[len(env)] = e
	return out
}

// Binder pairs a captured environment with an unevaluated body, a
// "tagged pair" representation of a host closure: applying it means
// eval(binder.Env.Extend(Defined(v)), binder.Body). Evaluation itself
// lives in internal/nbe, whose Apply is how a Binder is applied; the
// type is kept here only as data so that internal/value has no
// dependency on internal/nbe.
type Binder struct {
	Env  Env
	Body syntax.Tm
}
