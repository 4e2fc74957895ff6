package unify

import (
	"github.com/dtlc-lang/telescope/internal/constancy"
	"github.com/dtlc-lang/telescope/internal/meta"
	"github.com/dtlc-lang/telescope/internal/nbe"
	"github.com/dtlc-lang/telescope/internal/syntax"
	"github.com/dtlc-lang/telescope/internal/value"
)

// solveMeta solves the unsolved meta id, applied to spine sp at a
// context of size cxtLen, to rhs: it checks sp is a valid pattern
// spine, renames rhs into the meta's fresh scope, wraps the result in
// one Lam per application entry and one LamTel per telescope
// application entry, and records the solution.
func solveMeta(mctx *meta.Metacontext, cxtLen value.Lvl, id syntax.MId, sp value.Spine, rhs value.Val) error {
	p, err := invertSpine(cxtLen, sp)
	if err != nil {
		return err
	}
	body, err := rename(mctx, id, p, rhs)
	if err != nil {
		return err
	}

	sol := body
	for i := len(sp) - 1; i >= 0; i-- {
		switch e := sp[i].(type) {
		case value.EApp:
			sol = syntax.Lam{Icit: e.Icit, Body: sol}
		case value.EAppTel:
			domTm, err := rename(mctx, id, p, e.Dom)
			if err != nil {
				return err
			}
			sol = syntax.LamTel{Dom: domTm, Body: sol}
		}
	}

	mctx.WriteMeta(id, meta.Solved{Val: nbe.Eval(mctx, nil, sol)})
	constancy.Retry(mctx, id)
	return nil
}
