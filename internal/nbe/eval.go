// Package nbe implements the closure-free normalization-by-evaluation
// kernel: eval/quote and the spine/application helpers every other
// core package builds on.
package nbe

import (
	"fmt"

	"github.com/dtlc-lang/telescope/internal/meta"
	"github.com/dtlc-lang/telescope/internal/syntax"
	"github.com/dtlc-lang/telescope/internal/value"
)

// Eval evaluates a core term in an environment to a weak-head normal
// form value.
func Eval(mctx *meta.Metacontext, env value.Env, t syntax.Tm) value.Val {
	switch t := t.(type) {
	case syntax.Var:
		idx := len(env) - 1 - t.Ix
		e := env[idx]
		if !e.Defined {
			panic(fmt.Sprintf("nbe.Eval: Var %d reads a Skipped environment slot", t.Ix))
		}
		return e.Val

	case syntax.Let:
		v := Eval(mctx, env, t.Val)
		return Eval(mctx, env.Extend(value.Defined(v)), t.Body)

	case syntax.Pi:
		return value.VPi{
			Name: t.Name,
			Icit: t.Icit,
			Dom:  Eval(mctx, env, t.Dom),
			Cod:  value.Binder{Env: env, Body: t.Cod},
		}

	case syntax.Lam:
		var ann value.Val
		if t.Ann != nil {
			ann = Eval(mctx, env, t.Ann)
		}
		return value.VLam{
			Name: t.Name,
			Icit: t.Icit,
			Ann:  ann,
			Body: value.Binder{Env: env, Body: t.Body},
		}

	case syntax.App:
		fn := Eval(mctx, env, t.Fun)
		arg := Eval(mctx, env, t.Arg)
		return VApp(mctx, fn, arg, t.Icit)

	case syntax.U:
		return value.VU{}

	case syntax.Meta:
		return evalMeta(mctx, t.Id)

	case syntax.Skip:
		// A Skip wrapper accounts for one more bound variable that its
		// body does not mention; push a matching unreadable slot and
		// descend.
		return Eval(mctx, env.Extend(value.Skipped()), t.Body)

	case syntax.PiTel:
		return value.VPiTel{
			Name: t.Name,
			Dom:  Eval(mctx, env, t.Dom),
			Cod:  value.Binder{Env: env, Body: t.Cod},
		}

	case syntax.LamTel:
		return value.VLamTel{
			Name: t.Name,
			Dom:  Eval(mctx, env, t.Dom),
			Body: value.Binder{Env: env, Body: t.Body},
		}

	case syntax.AppTel:
		dom := Eval(mctx, env, t.Dom)
		fn := Eval(mctx, env, t.Fun)
		arg := Eval(mctx, env, t.Arg)
		return VAppTel(mctx, fn, dom, arg)

	case syntax.Rec:
		return value.VRec{Tel: Eval(mctx, env, t.Tel)}

	case syntax.Tel:
		return value.VTel{}

	case syntax.TEmpty:
		return value.VTEmpty{}

	case syntax.TCons:
		return value.VTCons{
			Name: t.Name,
			Head: Eval(mctx, env, t.Head),
			Tail: value.Binder{Env: env, Body: t.Tail},
		}

	case syntax.Tempty:
		return value.VTempty{}

	case syntax.Tcons:
		return value.VTcons{
			Head: Eval(mctx, env, t.Head),
			Tail: Eval(mctx, env, t.Tail),
		}

	default:
		panic(fmt.Sprintf("nbe.Eval: unhandled term %T", t))
	}
}

func evalMeta(mctx *meta.Metacontext, id syntax.MId) value.Val {
	if sol, ok := mctx.LookupMeta(id).(meta.Solved); ok {
		return sol.Val
	}
	return value.VMeta(id)
}

// Apply evaluates a Binder's body with v appended to its captured
// environment: the one primitive every closure application reduces to.
func Apply(mctx *meta.Metacontext, b value.Binder, v value.Val) value.Val {
	return Eval(mctx, b.Env.Extend(value.Defined(v)), b.Body)
}
