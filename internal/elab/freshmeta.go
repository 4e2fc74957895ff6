package elab

import (
	"github.com/dtlc-lang/telescope/internal/cxt"
	"github.com/dtlc-lang/telescope/internal/meta"
	"github.com/dtlc-lang/telescope/internal/nbe"
	"github.com/dtlc-lang/telescope/internal/syntax"
	"github.com/dtlc-lang/telescope/internal/value"
)

// closingTy abstracts a over every entry of c: a Bound entry becomes
// a Π (or ΠTel, if its type is a telescope record) layer, a Defined
// entry becomes a Skip layer that preserves the index depth without
// adding an argument. The result is evaluated in the empty
// environment, since by construction it no longer mentions any of
// c's variables directly — they are all bound by the wrapper itself.
func closingTy(mctx *meta.Metacontext, c cxt.Context, a value.Val) value.Val {
	t := nbe.Quote(mctx, c.NextLvl(), a)
	for i := c.Len - 1; i >= 0; i-- {
		te := c.Types[i]
		name := c.Names[i]
		if !te.Bound {
			t = syntax.Skip{Body: t}
			continue
		}
		if rec, isRec := te.Ty.(value.VRec); isRec {
			domTm := nbe.Quote(mctx, value.Lvl(i), rec.Tel)
			t = syntax.PiTel{Name: name, Dom: domTm, Cod: t}
			continue
		}
		domTm := nbe.Quote(mctx, value.Lvl(i), te.Ty)
		t = syntax.Pi{Name: name, Icit: syntax.Expl, Dom: domTm, Cod: t}
	}
	return nbe.Eval(mctx, nil, t)
}

// closingTm is closingTy's term-level counterpart: it wraps t (valid
// at depth c.Len) with one Lam/LamTel per Bound entry and one Skip
// per Defined entry, in exactly the shape closingTy gave the meta's
// type, so that evaluating the result in the empty environment
// produces a value well-typed at that type.
func closingTm(mctx *meta.Metacontext, c cxt.Context, t syntax.Tm) syntax.Tm {
	for i := c.Len - 1; i >= 0; i-- {
		te := c.Types[i]
		name := c.Names[i]
		if !te.Bound {
			t = syntax.Skip{Body: t}
			continue
		}
		if rec, isRec := te.Ty.(value.VRec); isRec {
			domTm := nbe.Quote(mctx, value.Lvl(i), rec.Tel)
			t = syntax.LamTel{Name: name, Dom: domTm, Body: t}
			continue
		}
		domTm := nbe.Quote(mctx, value.Lvl(i), te.Ty)
		t = syntax.Lam{Name: name, Icit: syntax.Expl, Ann: domTm, Body: t}
	}
	return t
}

// freshMeta allocates a meta of type a, closed over c, and returns
// the term that applies it back down to c's bound variables: the
// placeholder to splice into the term under elaboration at this
// position.
func freshMeta(mctx *meta.Metacontext, c cxt.Context, a value.Val) syntax.Tm {
	ty := closingTy(mctx, c, a)
	id := mctx.NewMeta(meta.Unsolved{Blockers: meta.NewBlockerSet(), Ty: ty})
	lifted := nbe.LiftVal(mctx, c, value.VMeta(id))
	return nbe.Quote(mctx, c.NextLvl(), lifted)
}
