package unify

import (
	"testing"

	"github.com/dtlc-lang/telescope/internal/errs"
	"github.com/dtlc-lang/telescope/internal/meta"
	"github.com/dtlc-lang/telescope/internal/syntax"
	"github.com/dtlc-lang/telescope/internal/value"
)

func TestUnifyUniverseSucceeds(t *testing.T) {
	mctx := meta.New()
	if err := Unify(mctx, 0, value.VU{}, value.VU{}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestUnifyRigidMismatch(t *testing.T) {
	mctx := meta.New()
	pi := value.VPi{Name: "_", Dom: value.VU{}, Cod: value.Binder{Env: nil, Body: nil}}
	if err := Unify(mctx, 0, value.VU{}, pi); err == nil {
		t.Fatal("expected rigid mismatch error")
	}
}

func TestUnifyDistinctVariablesMismatch(t *testing.T) {
	mctx := meta.New()
	if err := Unify(mctx, 2, value.VVar(0), value.VVar(1)); err == nil {
		t.Fatal("expected mismatch between distinct bound variables")
	}
}

func TestUnifySolvesPatternMeta(t *testing.T) {
	mctx := meta.New()
	id := mctx.NewMeta(meta.Unsolved{Blockers: meta.NewBlockerSet(), Ty: value.VU{}})

	// ?id applied to the sole bound variable, unified against U: since
	// U does not mention the variable, ?id solves to a constant
	// function.
	lhs := value.VNe{
		Head:  value.HMeta{Id: id},
		Spine: value.Spine{value.EApp{Arg: value.VVar(0)}},
	}
	if err := Unify(mctx, 1, lhs, value.VU{}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	entry, ok := mctx.LookupMeta(id).(meta.Solved)
	if !ok {
		t.Fatalf("got %T, want Solved", mctx.LookupMeta(id))
	}
	if _, ok := entry.Val.(value.VLam); !ok {
		t.Fatalf("got %#v, want VLam solution", entry.Val)
	}
}

func TestUnifyScopeEscapeFails(t *testing.T) {
	mctx := meta.New()
	id := mctx.NewMeta(meta.Unsolved{Blockers: meta.NewBlockerSet(), Ty: value.VU{}})

	// ?id's spine only binds level 0, but the candidate solution
	// mentions level 1 as well: that occurrence cannot be renamed into
	// ?id's scope and cannot be pruned (it's not behind a meta), so
	// unification must fail.
	lhs := value.VNe{
		Head:  value.HMeta{Id: id},
		Spine: value.Spine{value.EApp{Arg: value.VVar(0)}},
	}
	if err := Unify(mctx, 2, lhs, value.VVar(1)); err == nil {
		t.Fatal("expected scope escape error")
	} else if _, ok := err.(*errs.StrengtheningError); !ok {
		t.Fatalf("got %T, want *errs.StrengtheningError", err)
	}
}

func TestUnifyOccursCheckFails(t *testing.T) {
	mctx := meta.New()
	id := mctx.NewMeta(meta.Unsolved{Blockers: meta.NewBlockerSet(), Ty: value.VU{}})

	// ?id applied to var 0, unified against var 0 applied to ?id
	// itself: the meta would have to occur in its own solution.
	lhs := value.VNe{
		Head:  value.HMeta{Id: id},
		Spine: value.Spine{value.EApp{Arg: value.VVar(0)}},
	}
	rhs := value.VNe{
		Head:  value.HVar{Lvl: 0},
		Spine: value.Spine{value.EApp{Arg: value.VMeta(id)}},
	}
	if err := Unify(mctx, 1, lhs, rhs); err == nil {
		t.Fatal("expected occurs-check error")
	}
}

func TestUnifyFlexFlexSameMetaComparesSpines(t *testing.T) {
	mctx := meta.New()
	id := mctx.NewMeta(meta.Unsolved{Blockers: meta.NewBlockerSet(), Ty: value.VU{}})

	lhs := value.VNe{Head: value.HMeta{Id: id}, Spine: value.Spine{value.EApp{Arg: value.VVar(0)}}}
	rhs := value.VNe{Head: value.HMeta{Id: id}, Spine: value.Spine{value.EApp{Arg: value.VVar(0)}}}
	if err := Unify(mctx, 1, lhs, rhs); err != nil {
		t.Fatalf("unexpected error comparing identical spines: %v", err)
	}
}

func TestImplArityCountsImplicitLayers(t *testing.T) {
	mctx := meta.New()
	// {A} -> U, as a value: one implicit layer whose codomain is
	// closed (never reads its bound variable).
	pi := value.VPi{
		Name: "A", Icit: syntax.Impl, Dom: value.VU{},
		Cod: value.Binder{Env: nil, Body: syntax.U{}},
	}
	if n := ImplArity(mctx, value.VU{}); n != 0 {
		t.Errorf("ImplArity(VU) = %d, want 0", n)
	}
	if n := ImplArity(mctx, pi); n != 1 {
		t.Errorf("ImplArity(implicit Pi) = %d, want 1", n)
	}
}
