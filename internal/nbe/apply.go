package nbe

import (
	"fmt"

	"github.com/dtlc-lang/telescope/internal/meta"
	"github.com/dtlc-lang/telescope/internal/syntax"
	"github.com/dtlc-lang/telescope/internal/value"
)

// VApp applies fn to arg with the given icitness: beta-reduces a
// lambda, or snocs an eliminator onto a neutral's spine.
func VApp(mctx *meta.Metacontext, fn value.Val, arg value.Val, icit syntax.Icit) value.Val {
	switch f := Force(mctx, fn).(type) {
	case value.VLam:
		return Apply(mctx, f.Body, arg)
	case value.VNe:
		return value.VNe{Head: f.Head, Spine: snoc(f.Spine, value.EApp{Arg: arg, Icit: icit})}
	default:
		panic(fmt.Sprintf("nbe.VApp: applying a non-function value %T", f))
	}
}

// VAppTel applies a telescope lambda (or neutral) fn, of telescope
// domain dom, to the record argument arg.
func VAppTel(mctx *meta.Metacontext, fn value.Val, dom value.Val, arg value.Val) value.Val {
	switch f := Force(mctx, fn).(type) {
	case value.VLamTel:
		return Apply(mctx, f.Body, arg)
	case value.VNe:
		return value.VNe{Head: f.Head, Spine: snoc(f.Spine, value.EAppTel{Dom: dom, Arg: arg})}
	default:
		panic(fmt.Sprintf("nbe.VAppTel: applying a non-telescope-function value %T", f))
	}
}

// VProj1/VProj2 round out the eliminator vocabulary that pattern
// spine checking must recognize and reject, even though this
// implementation never produces them: telescope decomposition goes
// through AppTel instead.
func VProj1(mctx *meta.Metacontext, v value.Val) value.Val {
	switch f := Force(mctx, v).(type) {
	case value.VTcons:
		return f.Head
	case value.VNe:
		return value.VNe{Head: f.Head, Spine: snoc(f.Spine, value.EProj1{})}
	default:
		panic(fmt.Sprintf("nbe.VProj1: projecting a non-record value %T", f))
	}
}

func VProj2(mctx *meta.Metacontext, v value.Val) value.Val {
	switch f := Force(mctx, v).(type) {
	case value.VTcons:
		return f.Tail
	case value.VNe:
		return value.VNe{Head: f.Head, Spine: snoc(f.Spine, value.EProj2{})}
	default:
		panic(fmt.Sprintf("nbe.VProj2: projecting a non-record value %T", f))
	}
}

func snoc(sp value.Spine, e value.Elim) value.Spine {
	out := make(value.Spine, len(sp)+1)
	copy(out, sp)
	out[len(sp)] = e
	return out
}

// Force repeatedly unfolds solved-meta heads until either a concrete
// former is exposed or the head is an unsolved/constancy meta.
func Force(mctx *meta.Metacontext, v value.Val) value.Val {
	ne, ok := v.(value.VNe)
	if !ok {
		return v
	}
	hm, ok := ne.Head.(value.HMeta)
	if !ok {
		return v
	}
	sol, ok := mctx.LookupMeta(hm.Id).(meta.Solved)
	if !ok {
		return v
	}
	return Force(mctx, ForceSp(mctx, sol.Val, ne.Spine))
}

// ForceSp re-eliminates a spine against a newly-resolved head value,
// i.e. replays sp's eliminators on top of head via VApp/VAppTel/
// VProj1/VProj2.
func ForceSp(mctx *meta.Metacontext, head value.Val, sp value.Spine) value.Val {
	result := head
	for _, elim := range sp {
		switch e := elim.(type) {
		case value.EApp:
			result = VApp(mctx, result, e.Arg, e.Icit)
		case value.EAppTel:
			result = VAppTel(mctx, result, e.Dom, e.Arg)
		case value.EProj1:
			result = VProj1(mctx, result)
		case value.EProj2:
			result = VProj2(mctx, result)
		default:
			panic(fmt.Sprintf("nbe.ForceSp: unhandled eliminator %T", e))
		}
	}
	return result
}
