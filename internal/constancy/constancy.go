// Package constancy implements the deferred check that decides
// whether a telescope-generalized Π's domain is provably empty: if
// the codomain never uses the telescope-bound variable, the telescope
// can be erased to its non-telescope form, which keeps later
// elaboration from accumulating redundant AppTel/LamTel wrapping
// around telescopes elaboration already knows are irrelevant.
package constancy

import (
	"github.com/dtlc-lang/telescope/internal/cxt"
	"github.com/dtlc-lang/telescope/internal/meta"
	"github.com/dtlc-lang/telescope/internal/nbe"
	"github.com/dtlc-lang/telescope/internal/syntax"
	"github.com/dtlc-lang/telescope/internal/value"
)

// Occurrence classifies how a bound variable appears in a value.
type Occurrence int

const (
	// None: the variable does not occur at all.
	None Occurrence = iota
	// Rigid: the variable occurs under at least one rigid (non-meta)
	// head, so its absence can never be restored by a future solve.
	Rigid
	// Flex: the variable occurs only under meta-headed neutrals,
	// collected in Blockers; a later solve of any of them could still
	// remove the occurrence.
	Flex
)

// occursResult is the outcome of scanning a value for a bound level.
type occursResult struct {
	kind     Occurrence
	blockers meta.BlockerSet
}

func none() occursResult { return occursResult{kind: None} }
func rigid() occursResult { return occursResult{kind: Rigid} }

func flex(ids ...syntax.MId) occursResult {
	return occursResult{kind: Flex, blockers: meta.NewBlockerSet(ids...)}
}

func merge(a, b occursResult) occursResult {
	if a.kind == Rigid || b.kind == Rigid {
		return rigid()
	}
	if a.kind == None {
		return b
	}
	if b.kind == None {
		return a
	}
	merged := meta.NewBlockerSet()
	for id := range a.blockers {
		merged.Add(id)
	}
	for id := range b.blockers {
		merged.Add(id)
	}
	return occursResult{kind: Flex, blockers: merged}
}

// occurs scans v for occurrences of the bound variable at level l,
// forcing solved metas but treating an unsolved/constancy meta's
// spine conservatively: any occurrence reachable only through such a
// meta is Flex, blocked on that meta.
func occurs(mctx *meta.Metacontext, l value.Lvl, v value.Val) occursResult {
	switch fv := nbe.Force(mctx, v).(type) {
	case value.VNe:
		res := none()
		if hv, ok := fv.Head.(value.HVar); ok {
			if hv.Lvl == l {
				res = rigid()
			}
		}
		if hm, ok := fv.Head.(value.HMeta); ok {
			spRes := occursSpine(mctx, l, fv.Spine)
			if spRes.kind == None {
				return none()
			}
			if spRes.kind == Rigid {
				return flex(hm.Id)
			}
			return merge(flex(hm.Id), spRes)
		}
		return merge(res, occursSpine(mctx, l, fv.Spine))

	case value.VU, value.VTel, value.VTEmpty, value.VTempty:
		return none()

	case value.VPi:
		return merge(occurs(mctx, l, fv.Dom), occursBinder(mctx, l, fv.Cod))

	case value.VLam:
		res := occursBinder(mctx, l, fv.Body)
		if fv.Ann != nil {
			res = merge(res, occurs(mctx, l, fv.Ann))
		}
		return res

	case value.VRec:
		return occurs(mctx, l, fv.Tel)

	case value.VTCons:
		return merge(occurs(mctx, l, fv.Head), occursBinder(mctx, l, fv.Tail))

	case value.VTcons:
		return merge(occurs(mctx, l, fv.Head), occurs(mctx, l, fv.Tail))

	case value.VPiTel:
		return merge(occurs(mctx, l, fv.Dom), occursBinder(mctx, l, fv.Cod))

	case value.VLamTel:
		return merge(occurs(mctx, l, fv.Dom), occursBinder(mctx, l, fv.Body))

	default:
		return none()
	}
}

func occursBinder(mctx *meta.Metacontext, l value.Lvl, b value.Binder) occursResult {
	return occurs(mctx, l, nbe.Apply(mctx, b, value.VVar(l+1)))
}

func occursSpine(mctx *meta.Metacontext, l value.Lvl, sp value.Spine) occursResult {
	res := none()
	for _, e := range sp {
		switch e := e.(type) {
		case value.EApp:
			res = merge(res, occurs(mctx, l, e.Arg))
		case value.EAppTel:
			res = merge(res, merge(occurs(mctx, l, e.Dom), occurs(mctx, l, e.Arg)))
		}
	}
	return res
}

// TryConstancy attempts to resolve whether c's telescope bound
// variable is constant in cod, given the telescope domain dom at the
// variable's own level (c.NextLvl()). If the occurrence is still Flex
// on unresolved metas, it registers id as one of their blockers and
// leaves the Constancy entry unsolved-shaped for a later retry.
func TryConstancy(mctx *meta.Metacontext, id syntax.MId, c cxt.Context, dom, cod value.Val) {
	res := occurs(mctx, c.NextLvl(), cod)
	switch res.kind {
	case None:
		// cod never mentions the telescope-bound variable: the
		// telescope is constant and erases to the empty telescope.
		mctx.WriteMeta(id, meta.Solved{Val: value.VTEmpty{}})
	case Rigid:
		// cod provably depends on it: the telescope must be kept.
		mctx.WriteMeta(id, meta.Solved{Val: dom})
	case Flex:
		for bl := range res.blockers {
			mctx.ModifyMeta(bl, func(e meta.Entry) meta.Entry {
				u, ok := e.(meta.Unsolved)
				if !ok {
					return e
				}
				u.Blockers.Add(id)
				return u
			})
		}
		mctx.WriteMeta(id, meta.Constancy{Cxt: c, Dom: dom, Cod: cod, Blockers: res.blockers})
	}
}

// NewConstancy allocates a fresh Constancy entry for the telescope
// (dom, cod) pair at context c and immediately attempts to resolve
// it, returning the meta id either way: callers quote it into a
// Tm.Meta placeholder for the telescope's erased-or-kept domain.
func NewConstancy(mctx *meta.Metacontext, c cxt.Context, dom, cod value.Val) syntax.MId {
	id := mctx.NewMeta(meta.Unsolved{Blockers: meta.NewBlockerSet(), Ty: value.VTel{}})
	TryConstancy(mctx, id, c, dom, cod)
	return id
}

// Retry re-attempts every Constancy entry blocked on id, called right
// after id itself is solved.
func Retry(mctx *meta.Metacontext, id syntax.MId) {
	if _, ok := mctx.LookupMeta(id).(meta.Solved); !ok {
		return
	}
	mctx.Range(func(cid syntax.MId, e meta.Entry) {
		c, ok := e.(meta.Constancy)
		if !ok || !c.Blockers.Has(id) {
			return
		}
		c.Blockers.Remove(id)
		TryConstancy(mctx, cid, c.Cxt, c.Dom, c.Cod)
	})
}
