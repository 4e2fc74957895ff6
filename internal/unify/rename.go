// Package unify implements higher-order pattern unification over Val:
// spine pattern checking, strengthening with pruning, meta solving,
// and the structural/eta comparison that drives the elaborator's
// conversion checks.
package unify

import (
	"fmt"

	"github.com/dtlc-lang/telescope/internal/errs"
	"github.com/dtlc-lang/telescope/internal/meta"
	"github.com/dtlc-lang/telescope/internal/nbe"
	"github.com/dtlc-lang/telescope/internal/syntax"
	"github.com/dtlc-lang/telescope/internal/value"
)

// pren is a partial renaming from a codomain context (where some
// value to be renamed lives) to a smaller domain context (the scope
// a meta's solution must live in): Ren maps codomain levels to their
// corresponding domain level, omitting levels that are out of scope.
type pren struct {
	dom value.Lvl
	cod value.Lvl
	ren map[value.Lvl]value.Lvl
}

func (p pren) lift() pren {
	ren := make(map[value.Lvl]value.Lvl, len(p.ren)+1)
	for k, v := range p.ren {
		ren[k] = v
	}
	ren[p.cod] = p.dom
	return pren{dom: p.dom + 1, cod: p.cod + 1, ren: ren}
}

func (p pren) skip() pren {
	return pren{dom: p.dom, cod: p.cod + 1, ren: p.ren}
}

// invertSpine checks that sp is a valid meta pattern spine: every
// eliminator is an application to a bound variable, and no variable
// repeats. It returns the partial renaming from the current context
// (size cod) down to the meta's fresh scope (size equal to the
// number of spine entries).
func invertSpine(cod value.Lvl, sp value.Spine) (pren, error) {
	ren := make(map[value.Lvl]value.Lvl, len(sp))
	var dom value.Lvl
	for _, e := range sp {
		var arg value.Val
		switch e := e.(type) {
		case value.EApp:
			arg = e.Arg
		case value.EAppTel:
			arg = e.Arg
		default:
			return pren{}, errs.ProjInSpine()
		}
		ne, ok := arg.(value.VNe)
		if !ok || len(ne.Spine) != 0 {
			return pren{}, errs.NonVarArg()
		}
		hv, ok := ne.Head.(value.HVar)
		if !ok {
			return pren{}, errs.NonVarArg()
		}
		if _, taken := ren[hv.Lvl]; taken {
			return pren{}, errs.NonLinearArg(syntax.MId(hv.Lvl))
		}
		ren[hv.Lvl] = dom
		dom++
	}
	return pren{dom: dom, cod: cod, ren: ren}, nil
}

// rename reads v back to a term valid in p's domain, substituting
// variables through p.ren, failing the occurs check if occ appears as
// a head, and attempting to prune any other flexible head whose
// spine mentions an out-of-scope variable.
func rename(mctx *meta.Metacontext, occ syntax.MId, p pren, v value.Val) (syntax.Tm, error) {
	switch fv := nbe.Force(mctx, v).(type) {
	case value.VNe:
		if hm, ok := fv.Head.(value.HMeta); ok {
			if hm.Id == occ {
				return nil, errs.OccursCheck(occ)
			}
			if t, err := renameSpine(mctx, occ, p, syntax.Meta{Id: hm.Id}, fv.Spine); err == nil {
				return t, nil
			} else if _, isScope := err.(*errs.StrengtheningError); isScope {
				return pruneMeta(mctx, occ, p, hm.Id, fv.Spine)
			} else {
				return nil, err
			}
		}
		hv := fv.Head.(value.HVar)
		dv, ok := p.ren[hv.Lvl]
		if !ok {
			return nil, errs.ScopeError(int(hv.Lvl))
		}
		return renameSpine(mctx, occ, p, syntax.Var{Ix: int(p.dom) - int(dv) - 1}, fv.Spine)

	case value.VU:
		return syntax.U{}, nil

	case value.VPi:
		dom, err := rename(mctx, occ, p, fv.Dom)
		if err != nil {
			return nil, err
		}
		cod, err := rename(mctx, occ, p.lift(), nbe.Apply(mctx, fv.Cod, value.VVar(p.cod)))
		if err != nil {
			return nil, err
		}
		return syntax.Pi{Name: fv.Name, Icit: fv.Icit, Dom: dom, Cod: cod}, nil

	case value.VLam:
		var ann syntax.Tm
		if fv.Ann != nil {
			a, err := rename(mctx, occ, p, fv.Ann)
			if err != nil {
				return nil, err
			}
			ann = a
		}
		body, err := rename(mctx, occ, p.lift(), nbe.Apply(mctx, fv.Body, value.VVar(p.cod)))
		if err != nil {
			return nil, err
		}
		return syntax.Lam{Name: fv.Name, Icit: fv.Icit, Ann: ann, Body: body}, nil

	case value.VTel:
		return syntax.Tel{}, nil

	case value.VRec:
		t, err := rename(mctx, occ, p, fv.Tel)
		if err != nil {
			return nil, err
		}
		return syntax.Rec{Tel: t}, nil

	case value.VTEmpty:
		return syntax.TEmpty{}, nil

	case value.VTCons:
		head, err := rename(mctx, occ, p, fv.Head)
		if err != nil {
			return nil, err
		}
		tail, err := rename(mctx, occ, p.lift(), nbe.Apply(mctx, fv.Tail, value.VVar(p.cod)))
		if err != nil {
			return nil, err
		}
		return syntax.TCons{Name: fv.Name, Head: head, Tail: tail}, nil

	case value.VTempty:
		return syntax.Tempty{}, nil

	case value.VTcons:
		head, err := rename(mctx, occ, p, fv.Head)
		if err != nil {
			return nil, err
		}
		tail, err := rename(mctx, occ, p, fv.Tail)
		if err != nil {
			return nil, err
		}
		return syntax.Tcons{Head: head, Tail: tail}, nil

	case value.VPiTel:
		dom, err := rename(mctx, occ, p, fv.Dom)
		if err != nil {
			return nil, err
		}
		cod, err := rename(mctx, occ, p.lift(), nbe.Apply(mctx, fv.Cod, value.VVar(p.cod)))
		if err != nil {
			return nil, err
		}
		return syntax.PiTel{Name: fv.Name, Dom: dom, Cod: cod}, nil

	case value.VLamTel:
		dom, err := rename(mctx, occ, p, fv.Dom)
		if err != nil {
			return nil, err
		}
		body, err := rename(mctx, occ, p.lift(), nbe.Apply(mctx, fv.Body, value.VVar(p.cod)))
		if err != nil {
			return nil, err
		}
		return syntax.LamTel{Name: fv.Name, Dom: dom, Body: body}, nil

	default:
		panic(fmt.Sprintf("unify.rename: unhandled value %T", fv))
	}
}

func renameSpine(mctx *meta.Metacontext, occ syntax.MId, p pren, t syntax.Tm, sp value.Spine) (syntax.Tm, error) {
	for _, elim := range sp {
		switch e := elim.(type) {
		case value.EApp:
			a, err := rename(mctx, occ, p, e.Arg)
			if err != nil {
				return nil, err
			}
			t = syntax.App{Fun: t, Arg: a, Icit: e.Icit}
		case value.EAppTel:
			d, err := rename(mctx, occ, p, e.Dom)
			if err != nil {
				return nil, err
			}
			a, err := rename(mctx, occ, p, e.Arg)
			if err != nil {
				return nil, err
			}
			t = syntax.AppTel{Dom: d, Fun: t, Arg: a}
		default:
			return nil, errs.ProjInSpine()
		}
	}
	return t, nil
}
