package constancy

import (
	"testing"

	"github.com/dtlc-lang/telescope/internal/cxt"
	"github.com/dtlc-lang/telescope/internal/meta"
	"github.com/dtlc-lang/telescope/internal/syntax"
	"github.com/dtlc-lang/telescope/internal/value"
)

func TestConstancyNoneErasesToEmptyTelescope(t *testing.T) {
	mctx := meta.New()
	c := cxt.Empty()

	id := NewConstancy(mctx, c, value.VU{}, value.VU{})

	entry, ok := mctx.LookupMeta(id).(meta.Solved)
	if !ok {
		t.Fatalf("got %T, want Solved", mctx.LookupMeta(id))
	}
	if _, ok := entry.Val.(value.VTEmpty); !ok {
		t.Fatalf("got %T, want VTEmpty", entry.Val)
	}
}

func TestConstancyRigidKeepsDomain(t *testing.T) {
	mctx := meta.New()
	c := cxt.Empty()
	dom := value.VU{}

	// cod mentions the telescope-bound variable directly (rigid head).
	id := NewConstancy(mctx, c, dom, value.VVar(c.NextLvl()))

	entry, ok := mctx.LookupMeta(id).(meta.Solved)
	if !ok {
		t.Fatalf("got %T, want Solved", mctx.LookupMeta(id))
	}
	if entry.Val != dom {
		t.Fatalf("got %#v, want dom %#v", entry.Val, dom)
	}
}

func TestConstancyFlexBlocksThenRetryResolves(t *testing.T) {
	mctx := meta.New()
	c := cxt.Empty()

	blocker := mctx.NewMeta(meta.Unsolved{Blockers: meta.NewBlockerSet(), Ty: value.VU{}})

	// cod = blocker applied to the telescope variable: the occurrence
	// is reachable only through blocker's (currently unknown) solution.
	cod := value.VNe{
		Head:  value.HMeta{Id: blocker},
		Spine: value.Spine{value.EApp{Arg: value.VVar(c.NextLvl()), Icit: syntax.Expl}},
	}

	id := NewConstancy(mctx, c, value.VU{}, cod)

	cons, ok := mctx.LookupMeta(id).(meta.Constancy)
	if !ok {
		t.Fatalf("got %T, want Constancy (blocked)", mctx.LookupMeta(id))
	}
	if !cons.Blockers.Has(blocker) {
		t.Fatalf("constancy entry not blocked on %s", blocker)
	}

	blockerUnsolved := mctx.LookupMeta(blocker).(meta.Unsolved)
	if !blockerUnsolved.Blockers.Has(id) {
		t.Fatalf("blocker %s does not list constancy entry %s as a subscriber", blocker, id)
	}

	// Solve blocker to an identity lambda, so re-eliminating its
	// spine against the solution reduces cleanly.
	mctx.WriteMeta(blocker, meta.Solved{Val: value.VLam{
		Name: "y", Icit: syntax.Expl, Ann: value.VU{},
		Body: value.Binder{Env: nil, Body: syntax.Var{Ix: 0}},
	}})
	Retry(mctx, blocker)

	entry, ok := mctx.LookupMeta(id).(meta.Solved)
	if !ok {
		t.Fatalf("got %T after retry, want Solved", mctx.LookupMeta(id))
	}
	// cod forces to VVar(0), the telescope variable itself: rigid,
	// domain kept.
	if _, ok := entry.Val.(value.VU); !ok {
		t.Fatalf("got %#v, want VU (the kept domain)", entry.Val)
	}
}
