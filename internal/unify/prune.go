package unify

import (
	"github.com/dtlc-lang/telescope/internal/constancy"
	"github.com/dtlc-lang/telescope/internal/errs"
	"github.com/dtlc-lang/telescope/internal/meta"
	"github.com/dtlc-lang/telescope/internal/nbe"
	"github.com/dtlc-lang/telescope/internal/syntax"
	"github.com/dtlc-lang/telescope/internal/value"
)

// pruneMeta handles a flexible head, other than occ, whose spine
// contains an argument that escapes p's domain. It tries to drop
// exactly the offending argument positions: if that succeeds, id is
// solved to a strictly smaller meta applied to only the kept
// arguments, and the (now renamable) application of that smaller
// meta is returned in id's place. Both ordinary application layers
// (EApp/VPi) and telescope application layers (EAppTel/VPiTel) can be
// pruned, symmetrically.
func pruneMeta(mctx *meta.Metacontext, occ syntax.MId, p pren, id syntax.MId, sp value.Spine) (syntax.Tm, error) {
	unsolved, ok := mctx.LookupMeta(id).(meta.Unsolved)
	if !ok {
		return nil, errs.ScopeError(-1)
	}

	mask := make([]bool, len(sp))
	for i, e := range sp {
		var arg value.Val
		switch e := e.(type) {
		case value.EApp:
			arg = e.Arg
		case value.EAppTel:
			arg = e.Arg
		default:
			return nil, errs.ScopeError(-1)
		}
		if _, err := rename(mctx, occ, p, arg); err == nil {
			mask[i] = true
		} else if _, isScope := err.(*errs.StrengtheningError); isScope {
			mask[i] = false
		} else {
			return nil, err
		}
	}

	newTyTm, layers, keptDoms, err := prunedPiType(mctx, occ, unsolved.Ty, mask)
	if err != nil {
		return nil, err
	}
	newTy := nbe.Eval(mctx, nil, newTyTm)
	id2 := mctx.NewMeta(meta.Unsolved{Blockers: meta.NewBlockerSet(), Ty: newTy})

	sol := metaAppOverMask(id2, mask, layers, keptDoms)
	for i := len(sp) - 1; i >= 0; i-- {
		if layers[i].isTel {
			domTm, err := rename(mctx, occ, p, sp[i].(value.EAppTel).Dom)
			if err != nil {
				return nil, err
			}
			sol = syntax.LamTel{Name: layers[i].name, Dom: domTm, Body: sol}
		} else {
			sol = syntax.Lam{Name: layers[i].name, Icit: layers[i].icit, Body: sol}
		}
	}
	mctx.WriteMeta(id, meta.Solved{Val: nbe.Eval(mctx, nil, sol)})
	constancy.Retry(mctx, id)

	t := syntax.Tm(syntax.Meta{Id: id2})
	for i, e := range sp {
		if !mask[i] {
			continue
		}
		switch e := e.(type) {
		case value.EApp:
			a, err := rename(mctx, occ, p, e.Arg)
			if err != nil {
				return nil, err
			}
			t = syntax.App{Fun: t, Arg: a, Icit: e.Icit}
		case value.EAppTel:
			domTm, err := rename(mctx, occ, p, e.Dom)
			if err != nil {
				return nil, err
			}
			a, err := rename(mctx, occ, p, e.Arg)
			if err != nil {
				return nil, err
			}
			t = syntax.AppTel{Dom: domTm, Fun: t, Arg: a}
		}
	}
	return t, nil
}

type piLayer struct {
	name  string
	icit  syntax.Icit
	isTel bool
}

// prunedPiType walks ty's leading len(mask) Π/ΠTel layers, keeping
// exactly the ones mask marks true, and renaming every kept domain
// and the final codomain through the renaming accumulated from kept
// binders only. A dropped binder that the codomain (or a later kept
// domain) still depends on makes that dependency unrenamable,
// surfacing as a StrengtheningError from the inner rename call. It
// also returns, alongside the per-layer metadata, the renamed domain
// term of each kept layer (in kept order), needed to rebuild the
// AppTel nodes of the smaller meta's own application spine.
func prunedPiType(mctx *meta.Metacontext, occ syntax.MId, ty value.Val, mask []bool) (syntax.Tm, []piLayer, []syntax.Tm, error) {
	layers := make([]piLayer, len(mask))
	var keptDoms []syntax.Tm
	var keptIcits []syntax.Icit
	var keptNames []string
	var keptIsTel []bool

	ren := map[value.Lvl]value.Lvl{}
	var dom, oldCod value.Lvl
	cur := ty
	for i, keep := range mask {
		var name string
		var icit syntax.Icit
		var domVal value.Val
		var cod value.Binder
		var isTel bool

		switch vpi := nbe.Force(mctx, cur).(type) {
		case value.VPi:
			name, icit, domVal, cod = vpi.Name, vpi.Icit, vpi.Dom, vpi.Cod
		case value.VPiTel:
			name, domVal, cod, isTel = vpi.Name, vpi.Dom, vpi.Cod, true
		default:
			return nil, nil, nil, errs.NewStrengtheningError("pruned meta type has fewer arguments than its spine")
		}
		layers[i] = piLayer{name: name, icit: icit, isTel: isTel}

		if keep {
			curPren := pren{dom: dom, cod: oldCod, ren: copyRen(ren)}
			domTm, err := rename(mctx, occ, curPren, domVal)
			if err != nil {
				return nil, nil, nil, err
			}
			keptDoms = append(keptDoms, domTm)
			keptIcits = append(keptIcits, icit)
			keptNames = append(keptNames, name)
			keptIsTel = append(keptIsTel, isTel)
			ren[oldCod] = dom
			dom++
		}
		cur = nbe.Apply(mctx, cod, value.VVar(oldCod))
		oldCod++
	}

	finalPren := pren{dom: dom, cod: oldCod, ren: ren}
	codTm, err := rename(mctx, occ, finalPren, cur)
	if err != nil {
		return nil, nil, nil, err
	}

	result := codTm
	for i := len(keptDoms) - 1; i >= 0; i-- {
		if keptIsTel[i] {
			result = syntax.PiTel{Name: keptNames[i], Dom: keptDoms[i], Cod: result}
		} else {
			result = syntax.Pi{Name: keptNames[i], Icit: keptIcits[i], Dom: keptDoms[i], Cod: result}
		}
	}
	return result, layers, keptDoms, nil
}

func copyRen(ren map[value.Lvl]value.Lvl) map[value.Lvl]value.Lvl {
	out := make(map[value.Lvl]value.Lvl, len(ren))
	for k, v := range ren {
		out[k] = v
	}
	return out
}

// metaAppOverMask builds an application of id2 to the kept positions
// of a mask-length argument list, assuming the application sits
// underneath len(mask) nested lambdas (so position i's bound variable
// has de Bruijn index len(mask)-1-i). keptDoms supplies the domain
// term for each kept telescope layer, in kept order.
func metaAppOverMask(id2 syntax.MId, mask []bool, layers []piLayer, keptDoms []syntax.Tm) syntax.Tm {
	t := syntax.Tm(syntax.Meta{Id: id2})
	j := 0
	for i, keep := range mask {
		if !keep {
			continue
		}
		v := syntax.Var{Ix: len(mask) - 1 - i}
		if layers[i].isTel {
			t = syntax.AppTel{Dom: keptDoms[j], Fun: t, Arg: v}
		} else {
			t = syntax.App{Fun: t, Arg: v, Icit: layers[i].icit}
		}
		j++
	}
	return t
}
