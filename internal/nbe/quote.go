package nbe

import (
	"fmt"

	"github.com/dtlc-lang/telescope/internal/meta"
	"github.com/dtlc-lang/telescope/internal/syntax"
	"github.com/dtlc-lang/telescope/internal/value"
)

// Quote reads a value back to a core term at the given binding depth,
// forcing along the way so that solved metas never appear in the
// result.
func Quote(mctx *meta.Metacontext, depth value.Lvl, v value.Val) syntax.Tm {
	switch v := Force(mctx, v).(type) {
	case value.VNe:
		t := quoteHead(depth, v.Head)
		return quoteSpine(mctx, depth, t, v.Spine)

	case value.VU:
		return syntax.U{}

	case value.VPi:
		dom := Quote(mctx, depth, v.Dom)
		cod := Quote(mctx, depth+1, Apply(mctx, v.Cod, value.VVar(depth)))
		return syntax.Pi{Name: v.Name, Icit: v.Icit, Dom: dom, Cod: cod}

	case value.VLam:
		var ann syntax.Tm
		if v.Ann != nil {
			ann = Quote(mctx, depth, v.Ann)
		}
		body := Quote(mctx, depth+1, Apply(mctx, v.Body, value.VVar(depth)))
		return syntax.Lam{Name: v.Name, Icit: v.Icit, Ann: ann, Body: body}

	case value.VTel:
		return syntax.Tel{}

	case value.VRec:
		return syntax.Rec{Tel: Quote(mctx, depth, v.Tel)}

	case value.VTEmpty:
		return syntax.TEmpty{}

	case value.VTCons:
		head := Quote(mctx, depth, v.Head)
		tail := Quote(mctx, depth+1, Apply(mctx, v.Tail, value.VVar(depth)))
		return syntax.TCons{Name: v.Name, Head: head, Tail: tail}

	case value.VTempty:
		return syntax.Tempty{}

	case value.VTcons:
		return syntax.Tcons{Head: Quote(mctx, depth, v.Head), Tail: Quote(mctx, depth, v.Tail)}

	case value.VPiTel:
		dom := Quote(mctx, depth, v.Dom)
		cod := Quote(mctx, depth+1, Apply(mctx, v.Cod, value.VVar(depth)))
		return syntax.PiTel{Name: v.Name, Dom: dom, Cod: cod}

	case value.VLamTel:
		dom := Quote(mctx, depth, v.Dom)
		body := Quote(mctx, depth+1, Apply(mctx, v.Body, value.VVar(depth)))
		return syntax.LamTel{Name: v.Name, Dom: dom, Body: body}

	default:
		panic(fmt.Sprintf("nbe.Quote: unhandled value %T", v))
	}
}

func quoteHead(depth value.Lvl, h value.Head) syntax.Tm {
	switch h := h.(type) {
	case value.HVar:
		return syntax.Var{Ix: int(depth) - int(h.Lvl) - 1}
	case value.HMeta:
		return syntax.Meta{Id: h.Id}
	default:
		panic(fmt.Sprintf("nbe.quoteHead: unhandled head %T", h))
	}
}

func quoteSpine(mctx *meta.Metacontext, depth value.Lvl, t syntax.Tm, sp value.Spine) syntax.Tm {
	for _, elim := range sp {
		switch e := elim.(type) {
		case value.EApp:
			t = syntax.App{Fun: t, Arg: Quote(mctx, depth, e.Arg), Icit: e.Icit}
		case value.EAppTel:
			t = syntax.AppTel{Dom: Quote(mctx, depth, e.Dom), Fun: t, Arg: Quote(mctx, depth, e.Arg)}
		case value.EProj1:
			panic("nbe.quoteSpine: EProj1 quoting is not supported")
		case value.EProj2:
			panic("nbe.quoteSpine: EProj2 quoting is not supported")
		default:
			panic(fmt.Sprintf("nbe.quoteSpine: unhandled eliminator %T", e))
		}
	}
	return t
}

// Nf normalizes t: evaluate in the empty environment, then quote back
// at depth 0. Used only for closed top-level terms; elaboration proper
// always quotes at the current context's depth instead.
func Nf(mctx *meta.Metacontext, t syntax.Tm) syntax.Tm {
	return Quote(mctx, 0, Eval(mctx, nil, t))
}
