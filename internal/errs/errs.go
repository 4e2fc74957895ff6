// Package errs defines the structured error taxonomy produced by
// unification, constancy solving, and elaboration, plus the source
// position decoration every top-level error carries by the time it
// reaches the CLI or RPC front end.
package errs

import (
	"fmt"

	"github.com/dtlc-lang/telescope/internal/syntax"
)

// SpineError is raised by pattern spine checking when a meta's
// arguments are not a list of distinct bound variables.
type SpineError struct {
	Reason string
}

func (e *SpineError) Error() string { return fmt.Sprintf("invalid spine: %s", e.Reason) }

func NewSpineError(reason string) *SpineError { return &SpineError{Reason: reason} }

// NonVarArg reports a spine element that isn't a bound variable at all.
func NonVarArg() *SpineError { return NewSpineError("argument is not a bound variable") }

// NonLinearArg reports a spine element that repeats an earlier one.
func NonLinearArg(lvl syntax.MId) *SpineError {
	return NewSpineError(fmt.Sprintf("variable at level %d reused in spine", int(lvl)))
}

// ProjInSpine reports a projection eliminator appearing in a meta's
// argument spine, which checkSp never accepts.
func ProjInSpine() *SpineError { return NewSpineError("projection in meta spine") }

// StrengtheningError is raised by the occurs-check/pruning pass that
// renames a solution candidate into the scope of the meta being solved.
type StrengtheningError struct {
	Reason string
}

func (e *StrengtheningError) Error() string { return fmt.Sprintf("strengthening failed: %s", e.Reason) }

func NewStrengtheningError(reason string) *StrengtheningError {
	return &StrengtheningError{Reason: reason}
}

// OccursCheck reports that the meta being solved occurs in its own
// solution candidate.
func OccursCheck(m syntax.MId) *StrengtheningError {
	return NewStrengtheningError(fmt.Sprintf("occurs check failed for %s", m))
}

// ScopeError reports a variable in the solution candidate that is not
// in the pattern spine's domain and cannot be pruned away.
func ScopeError(lvl int) *StrengtheningError {
	return NewStrengtheningError(fmt.Sprintf("variable at level %d escapes meta scope", lvl))
}

// UnifyError is raised when two values provably cannot be unified.
type UnifyError struct {
	Reason string
}

func (e *UnifyError) Error() string { return fmt.Sprintf("cannot unify: %s", e.Reason) }

func NewUnifyError(reason string) *UnifyError { return &UnifyError{Reason: reason} }

// RigidMismatch reports two distinct rigid heads (variables, or
// distinct type formers) that no amount of meta-solving can reconcile.
func RigidMismatch(what string) *UnifyError {
	return NewUnifyError(fmt.Sprintf("rigid mismatch: %s", what))
}

// IcitMismatch reports a Π/λ pair whose implicitness disagrees.
type IcitMismatch struct {
	Expected, Got syntax.Icit
}

func (e *IcitMismatch) Error() string {
	return fmt.Sprintf("implicit/explicit mismatch: expected %s, got %s", e.Expected, e.Got)
}

// ExpectedFunction is raised when checking/inferring an application
// against a head that quotes to something other than a Π or ΠTel.
type ExpectedFunction struct {
	Got string
}

func (e *ExpectedFunction) Error() string {
	return fmt.Sprintf("expected a function type, got %s", e.Got)
}

// NameNotInScope is raised by infer on an RVar whose name has no
// binding in the current context.
type NameNotInScope struct {
	Name string
}

func (e *NameNotInScope) Error() string { return fmt.Sprintf("name not in scope: %s", e.Name) }

// UnifyErrorWhile wraps an inner unification failure with the pair of
// values being compared, for a more actionable top-level message.
type UnifyErrorWhile struct {
	LHS, RHS string
	Err      error
}

func (e *UnifyErrorWhile) Error() string {
	return fmt.Sprintf("while unifying %s with %s: %v", e.LHS, e.RHS, e.Err)
}

func (e *UnifyErrorWhile) Unwrap() error { return e.Err }

// WithPos is an error decorated with the surface position it occurred
// at; AddSrcPos builds one.
type WithPos struct {
	Pos syntax.Pos
	Err error
}

func (e *WithPos) Error() string { return fmt.Sprintf("%s: %v", e.Pos, e.Err) }
func (e *WithPos) Unwrap() error { return e.Err }

// AddSrcPos wraps err with pos unless err is nil.
func AddSrcPos(pos syntax.Pos, err error) error {
	if err == nil {
		return nil
	}
	return &WithPos{Pos: pos, Err: err}
}
