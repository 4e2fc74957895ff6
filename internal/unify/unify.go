package unify

import (
	"github.com/dtlc-lang/telescope/internal/constancy"
	"github.com/dtlc-lang/telescope/internal/cxt"
	"github.com/dtlc-lang/telescope/internal/errs"
	"github.com/dtlc-lang/telescope/internal/meta"
	"github.com/dtlc-lang/telescope/internal/nbe"
	"github.com/dtlc-lang/telescope/internal/syntax"
	"github.com/dtlc-lang/telescope/internal/value"
)

// Unify checks that t and u have the same normal form at context
// size depth, solving metas and pruning along the way as needed.
func Unify(mctx *meta.Metacontext, depth value.Lvl, t, u value.Val) error {
	tf := nbe.Force(mctx, t)
	uf := nbe.Force(mctx, u)

	switch t := tf.(type) {
	case value.VLam:
		return unifyAgainstLam(mctx, depth, t, uf)
	default:
		if ul, ok := uf.(value.VLam); ok {
			return unifyAgainstLam(mctx, depth, ul, tf)
		}
	}

	switch t := tf.(type) {
	case value.VLamTel:
		return unifyAgainstLamTel(mctx, depth, t, uf)
	default:
		if ul, ok := uf.(value.VLamTel); ok {
			return unifyAgainstLamTel(mctx, depth, ul, tf)
		}
	}

	// A flex meta paired with a value that isn't itself neutral has no
	// case below to dispatch through (the VNe case requires the other
	// side to be VNe too, for the flex/flex and flex/rigid-var spine
	// comparisons unifyNe does): solve it directly against the whole
	// other value.
	if fm, ok := asFlexMeta(tf); ok {
		if _, isNe := uf.(value.VNe); !isNe {
			return solveMeta(mctx, depth, fm.id, fm.spine, uf)
		}
	}
	if fm, ok := asFlexMeta(uf); ok {
		if _, isNe := tf.(value.VNe); !isNe {
			return solveMeta(mctx, depth, fm.id, fm.spine, tf)
		}
	}

	// A telescope Π that isn't being matched against another telescope
	// Π, a mediation-eligible implicit Π, or a flex meta (handled
	// above) must already denote the empty telescope: collapse it to
	// its codomain and compare that against the other side instead.
	if tpt, ok := tf.(value.VPiTel); ok {
		if _, isTel := uf.(value.VPiTel); !isTel && !telMediationEligible(uf) {
			return collapseTel(mctx, depth, tpt, uf)
		}
	}
	if upt, ok := uf.(value.VPiTel); ok {
		if _, isTel := tf.(value.VPiTel); !isTel && !telMediationEligible(tf) {
			return collapseTel(mctx, depth, upt, tf)
		}
	}

	switch t := tf.(type) {
	case value.VU:
		if _, ok := uf.(value.VU); ok {
			return nil
		}
		return errs.RigidMismatch("universe vs. non-universe")

	case value.VPi:
		if u, ok := uf.(value.VPiTel); ok && t.Icit == syntax.Impl {
			return mediateTelescopePi(mctx, depth, u, t)
		}
		u, ok := uf.(value.VPi)
		if !ok {
			return errs.RigidMismatch("Π vs. non-Π")
		}
		if t.Icit != u.Icit {
			return &errs.IcitMismatch{Expected: t.Icit, Got: u.Icit}
		}
		if err := Unify(mctx, depth, t.Dom, u.Dom); err != nil {
			return err
		}
		v := value.VVar(depth)
		return Unify(mctx, depth+1, nbe.Apply(mctx, t.Cod, v), nbe.Apply(mctx, u.Cod, v))

	case value.VPiTel:
		if u, ok := uf.(value.VPiTel); ok {
			if err := Unify(mctx, depth, t.Dom, u.Dom); err != nil {
				return err
			}
			v := value.VVar(depth)
			return Unify(mctx, depth+1, nbe.Apply(mctx, t.Cod, v), nbe.Apply(mctx, u.Cod, v))
		}
		if u, ok := uf.(value.VPi); ok && u.Icit == syntax.Impl {
			return mediateTelescopePi(mctx, depth, t, u)
		}
		return errs.RigidMismatch("telescope Π vs. non-telescope-Π")

	case value.VTel:
		if _, ok := uf.(value.VTel); ok {
			return nil
		}
		return errs.RigidMismatch("Tel vs. non-Tel")

	case value.VRec:
		u, ok := uf.(value.VRec)
		if !ok {
			return errs.RigidMismatch("Rec vs. non-Rec")
		}
		return Unify(mctx, depth, t.Tel, u.Tel)

	case value.VTEmpty:
		if _, ok := uf.(value.VTEmpty); ok {
			return nil
		}
		return errs.RigidMismatch("• vs. non-•")

	case value.VTCons:
		u, ok := uf.(value.VTCons)
		if !ok {
			return errs.RigidMismatch("telescope cons vs. non-cons")
		}
		if err := Unify(mctx, depth, t.Head, u.Head); err != nil {
			return err
		}
		v := value.VVar(depth)
		return Unify(mctx, depth+1, nbe.Apply(mctx, t.Tail, v), nbe.Apply(mctx, u.Tail, v))

	case value.VTempty:
		if _, ok := uf.(value.VTempty); ok {
			return nil
		}
		return errs.RigidMismatch("[] vs. non-[]")

	case value.VTcons:
		u, ok := uf.(value.VTcons)
		if !ok {
			return errs.RigidMismatch("record cons vs. non-cons")
		}
		if err := Unify(mctx, depth, t.Head, u.Head); err != nil {
			return err
		}
		return Unify(mctx, depth, t.Tail, u.Tail)

	case value.VNe:
		u, ok := uf.(value.VNe)
		if !ok {
			return errs.RigidMismatch("neutral vs. non-neutral")
		}
		return unifyNe(mctx, depth, t, u)

	default:
		return errs.RigidMismatch("incomparable value formers")
	}
}

func unifyAgainstLam(mctx *meta.Metacontext, depth value.Lvl, lam value.VLam, other value.Val) error {
	v := value.VVar(depth)
	lhs := nbe.Apply(mctx, lam.Body, v)
	rhs := nbe.VApp(mctx, other, v, lam.Icit)
	return Unify(mctx, depth+1, lhs, rhs)
}

func unifyAgainstLamTel(mctx *meta.Metacontext, depth value.Lvl, lam value.VLamTel, other value.Val) error {
	v := value.VVar(depth)
	lhs := nbe.Apply(mctx, lam.Body, v)
	rhs := nbe.VAppTel(mctx, other, lam.Dom, v)
	return Unify(mctx, depth+1, lhs, rhs)
}

func unifyNe(mctx *meta.Metacontext, depth value.Lvl, t, u value.VNe) error {
	hmT, tFlex := t.Head.(value.HMeta)
	hmU, uFlex := u.Head.(value.HMeta)

	switch {
	case tFlex && uFlex:
		if hmT.Id == hmU.Id {
			return unifySpine(mctx, depth, t.Spine, u.Spine)
		}
		if err := solveMeta(mctx, depth, hmT.Id, t.Spine, u); err == nil {
			return nil
		}
		return solveMeta(mctx, depth, hmU.Id, u.Spine, t)

	case tFlex:
		return solveMeta(mctx, depth, hmT.Id, t.Spine, u)

	case uFlex:
		return solveMeta(mctx, depth, hmU.Id, u.Spine, t)

	default:
		hvT := t.Head.(value.HVar)
		hvU := u.Head.(value.HVar)
		if hvT.Lvl != hvU.Lvl {
			return errs.RigidMismatch("distinct bound variables")
		}
		return unifySpine(mctx, depth, t.Spine, u.Spine)
	}
}

func unifySpine(mctx *meta.Metacontext, depth value.Lvl, sp, sq value.Spine) error {
	if len(sp) != len(sq) {
		return errs.RigidMismatch("spines of different length")
	}
	for i := range sp {
		switch e := sp[i].(type) {
		case value.EApp:
			f, ok := sq[i].(value.EApp)
			if !ok {
				return errs.RigidMismatch("application vs. non-application eliminator")
			}
			if e.Icit != f.Icit {
				return &errs.IcitMismatch{Expected: e.Icit, Got: f.Icit}
			}
			if err := Unify(mctx, depth, e.Arg, f.Arg); err != nil {
				return err
			}
		case value.EAppTel:
			f, ok := sq[i].(value.EAppTel)
			if !ok {
				return errs.RigidMismatch("telescope application vs. non-telescope-application eliminator")
			}
			if err := Unify(mctx, depth, e.Arg, f.Arg); err != nil {
				return err
			}
		case value.EProj1:
			if _, ok := sq[i].(value.EProj1); !ok {
				return errs.RigidMismatch("projection mismatch")
			}
		case value.EProj2:
			if _, ok := sq[i].(value.EProj2); !ok {
				return errs.RigidMismatch("projection mismatch")
			}
		}
	}
	return nil
}

// flexMeta is an unsolved meta applied to its pattern spine, the shape
// asFlexMeta extracts from a forced VNe.
type flexMeta struct {
	id    syntax.MId
	spine value.Spine
}

// asFlexMeta reports whether v (already forced) is headed by an
// unsolved meta, returning its id and spine.
func asFlexMeta(v value.Val) (flexMeta, bool) {
	ne, ok := v.(value.VNe)
	if !ok {
		return flexMeta{}, false
	}
	hm, ok := ne.Head.(value.HMeta)
	if !ok {
		return flexMeta{}, false
	}
	return flexMeta{id: hm.Id, spine: ne.Spine}, true
}

// telMediationEligible reports whether v's forced shape is the kind
// of implicit Π a telescope Π is allowed to refine itself against,
// rather than being required to already be the empty telescope.
func telMediationEligible(v value.Val) bool {
	vpi, ok := v.(value.VPi)
	return ok && vpi.Icit == syntax.Impl
}

// collapseTel requires tel to denote the empty telescope and compares
// its codomain (instantiated at the empty record) against other.
func collapseTel(mctx *meta.Metacontext, depth value.Lvl, tel value.VPiTel, other value.Val) error {
	if err := Unify(mctx, depth, tel.Dom, value.VTEmpty{}); err != nil {
		return err
	}
	return Unify(mctx, depth, nbe.Apply(mctx, tel.Cod, value.VTempty{}), other)
}

// mediateTelescopePi reconciles a telescope Π against a plain
// implicit Π: a telescope of n entries is, by its erasure semantics,
// indistinguishable from n nested implicit Π layers, so the two
// shapes must unify when they describe the same function. The guard
// compares the implicit arity of the two codomains, one layer further
// in than tel/pi themselves: mediation proceeds only while the
// telescope's codomain has fewer implicit layers than the implicit Π's
// codomain plus one. Otherwise the telescope is collapsed to the empty
// telescope and its codomain compared against pi, as for any other
// non-telescope right-hand side.
func mediateTelescopePi(mctx *meta.Metacontext, depth value.Lvl, tel value.VPiTel, pi value.VPi) error {
	v := value.VVar(depth)
	b := nbe.Apply(mctx, tel.Cod, v)
	bPrime := nbe.Apply(mctx, pi.Cod, v)
	if !(ImplArity(mctx, b) < ImplArity(mctx, bPrime)+1) {
		return collapseTel(mctx, depth, tel, pi)
	}
	cod := func(rest value.Val) value.Val { return nbe.Apply(mctx, tel.Cod, rest) }
	return mediateTelLayer(mctx, depth, tel.Dom, cod, pi)
}

// mediateTelLayer walks dom's telescope shape one entry at a time,
// matching each entry's head type against the corresponding implicit
// Π layer of pi and threading the telescope record built so far
// through cod (a host-level closure standing in for tel.Cod, since
// Binder alone cannot represent a closure synthesized from two
// existing ones). When dom is still an unresolved meta rather than an
// already-concrete VTEmpty/VTCons, it is grown by one more entry:
// pattern-matching alone cannot tell an unconstrained telescope apart
// from one that simply hasn't had its shape demanded yet, and an
// implicit Π being mediated against it is exactly such a demand.
func mediateTelLayer(mctx *meta.Metacontext, depth value.Lvl, dom value.Val, cod func(value.Val) value.Val, pi value.Val) error {
	switch d := nbe.Force(mctx, dom).(type) {
	case value.VTEmpty:
		return Unify(mctx, depth, cod(value.VTempty{}), pi)

	case value.VTCons:
		vpi, ok := nbe.Force(mctx, pi).(value.VPi)
		if !ok || vpi.Icit != syntax.Impl {
			return errs.RigidMismatch("telescope Π ran out of matching implicit Π layers")
		}
		if err := Unify(mctx, depth, d.Head, vpi.Dom); err != nil {
			return err
		}
		v := value.VVar(depth)
		nextCod := func(rest value.Val) value.Val { return cod(value.VTcons{Head: v, Tail: rest}) }
		return mediateTelLayer(mctx, depth+1, nbe.Apply(mctx, d.Tail, v), nextCod, nbe.Apply(mctx, vpi.Cod, v))

	default:
		fm, ok := asFlexMeta(d)
		if !ok {
			return errs.NewUnifyError("cannot decide telescope/implicit-Π compatibility: domain not yet resolved")
		}
		vpi, ok := nbe.Force(mctx, pi).(value.VPi)
		if !ok || vpi.Icit != syntax.Impl {
			return errs.RigidMismatch("telescope Π ran out of matching implicit Π layers")
		}

		v := value.VVar(depth)
		var tailEntry value.Elim
		if rec, isRec := nbe.Force(mctx, vpi.Dom).(value.VRec); isRec {
			tailEntry = value.EAppTel{Dom: rec.Tel, Arg: v}
		} else {
			tailEntry = value.EApp{Arg: v, Icit: syntax.Expl}
		}

		domUnsolved, ok := mctx.LookupMeta(fm.id).(meta.Unsolved)
		if !ok {
			return errs.NewUnifyError("cannot decide telescope/implicit-Π compatibility: domain not yet resolved")
		}
		mId := mctx.NewMeta(meta.Unsolved{
			Blockers: meta.NewBlockerSet(),
			Ty:       growTelTy(mctx, domUnsolved.Ty, vpi.Dom),
		})
		mSpine := make(value.Spine, len(fm.spine)+1)
		copy(mSpine, fm.spine)
		mSpine[len(fm.spine)] = tailEntry
		mVal := value.VNe{Head: value.HMeta{Id: mId}, Spine: mSpine}

		tailBinder := value.Binder{Env: identityEnv(depth), Body: nbe.Quote(mctx, depth+1, mVal)}
		if err := Unify(mctx, depth, dom, value.VTCons{Name: "x", Head: vpi.Dom, Tail: tailBinder}); err != nil {
			return err
		}

		bPrime := nbe.Apply(mctx, vpi.Cod, v)
		constancy.NewConstancy(mctx, cxt.Context{Len: int(depth)}, mVal, bPrime)

		nextCod := func(rest value.Val) value.Val { return cod(value.VTcons{Head: v, Tail: rest}) }
		return mediateTelLayer(mctx, depth+1, mVal, nextCod, bPrime)
	}
}

// identityEnv returns the n-entry value environment whose i-th slot is
// the bound variable at level i, the shape any bound-only (no let)
// prefix of a context's own value environment always has (compare
// cxt.Bind's own Defined(VVar(c.NextLvl())) entries). Used to build a
// Binder closure over an ambient depth that unify.go tracks only as a
// bare Lvl, with no cxt.Context at hand to read an environment off of.
func identityEnv(n value.Lvl) value.Env {
	env := make(value.Env, n)
	for i := value.Lvl(0); i < n; i++ {
		env[i] = value.Defined(value.VVar(i))
	}
	return env
}

// growTelTy appends one more ordinary Π layer, of domain newDom, at
// the innermost position of ty's own Π/ΠTel chain (the one just before
// the trailing Tel), producing the type of a fresh meta that extends
// another Tel-typed meta's pattern context by one more bound variable.
func growTelTy(mctx *meta.Metacontext, ty value.Val, newDom value.Val) value.Val {
	return nbe.Eval(mctx, nil, growTelTyTm(mctx, 0, ty, newDom))
}

func growTelTyTm(mctx *meta.Metacontext, depth value.Lvl, ty value.Val, newDom value.Val) syntax.Tm {
	switch t := nbe.Force(mctx, ty).(type) {
	case value.VTel:
		newDomTm := nbe.Quote(mctx, depth, newDom)
		if _, isRec := nbe.Force(mctx, newDom).(value.VRec); isRec {
			return syntax.PiTel{Name: "_", Dom: newDomTm, Cod: syntax.Tel{}}
		}
		return syntax.Pi{Name: "_", Icit: syntax.Expl, Dom: newDomTm, Cod: syntax.Tel{}}
	case value.VPi:
		domTm := nbe.Quote(mctx, depth, t.Dom)
		v := value.VVar(depth)
		codTm := growTelTyTm(mctx, depth+1, nbe.Apply(mctx, t.Cod, v), newDom)
		return syntax.Pi{Name: t.Name, Icit: t.Icit, Dom: domTm, Cod: codTm}
	case value.VPiTel:
		domTm := nbe.Quote(mctx, depth, t.Dom)
		v := value.VVar(depth)
		codTm := growTelTyTm(mctx, depth+1, nbe.Apply(mctx, t.Cod, v), newDom)
		return syntax.PiTel{Name: t.Name, Dom: domTm, Cod: codTm}
	default:
		return nbe.Quote(mctx, depth, ty)
	}
}

// ImplArity counts the leading implicit-Π layers of v's shape,
// forcing metas but never descending past an explicit or telescope Π.
// mediateTelescopePi uses this as its arity guard before refining a
// telescope Π against an implicit Π.
func ImplArity(mctx *meta.Metacontext, v value.Val) int {
	n := 0
	for {
		vpi, ok := nbe.Force(mctx, v).(value.VPi)
		if !ok || vpi.Icit != syntax.Impl {
			return n
		}
		v = nbe.Apply(mctx, vpi.Cod, value.VVar(value.Lvl(n)))
		n++
	}
}
