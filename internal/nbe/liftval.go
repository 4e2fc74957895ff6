package nbe

import (
	"github.com/dtlc-lang/telescope/internal/cxt"
	"github.com/dtlc-lang/telescope/internal/meta"
	"github.com/dtlc-lang/telescope/internal/syntax"
	"github.com/dtlc-lang/telescope/internal/value"
)

// LiftVal takes a bare value (typically a freshly allocated meta's
// head value, VMeta m) and applies it over every bound entry of c, in
// binding order, the way closingTm wraps the same meta's solution in
// Lam/LamTel for each entry. The result is the value a fresh meta
// reference actually denotes at c: the meta abstracted over the whole
// local context, then applied back down to it.
//
// Defined entries are skipped rather than applied to, mirroring how
// closingTy wraps them with Skip instead of Pi/PiTel: a let-bound
// variable's value is already reachable through its definition, so
// the meta never needs it as an explicit argument.
func LiftVal(mctx *meta.Metacontext, c cxt.Context, head value.Val) value.Val {
	v := head
	for i := 0; i < c.Len; i++ {
		te := c.Types[i]
		if !te.Bound {
			continue
		}
		arg := value.VVar(value.Lvl(i))
		if rec, isRec := te.Ty.(value.VRec); isRec {
			v = VAppTel(mctx, v, rec.Tel, arg)
		} else {
			v = VApp(mctx, v, arg, syntax.Expl)
		}
	}
	return v
}
