package nbe

import (
	"reflect"
	"testing"

	"github.com/dtlc-lang/telescope/internal/meta"
	"github.com/dtlc-lang/telescope/internal/syntax"
	"github.com/dtlc-lang/telescope/internal/value"
)

func TestBetaReducesApplication(t *testing.T) {
	mctx := meta.New()
	// (\x. x) U
	term := syntax.App{
		Fun:  syntax.Lam{Name: "x", Icit: syntax.Expl, Body: syntax.Var{Ix: 0}},
		Arg:  syntax.U{},
		Icit: syntax.Expl,
	}
	got := Nf(mctx, term)
	if _, ok := got.(syntax.U); !ok {
		t.Fatalf("got %#v, want U", got)
	}
}

func TestBetaUnderTelescopeApplication(t *testing.T) {
	mctx := meta.New()
	// AppTel(Tel, \x:Tel. x, Tempty) normalizes to Tempty.
	term := syntax.AppTel{
		Dom: syntax.Tel{},
		Fun: syntax.LamTel{Name: "x", Dom: syntax.Tel{}, Body: syntax.Var{Ix: 0}},
		Arg: syntax.Tempty{},
	}
	got := Nf(mctx, term)
	if _, ok := got.(syntax.Tempty); !ok {
		t.Fatalf("got %#v, want Tempty", got)
	}
}

func TestNfIsIdempotent(t *testing.T) {
	mctx := meta.New()
	term := syntax.App{
		Fun: syntax.Lam{Name: "x", Icit: syntax.Expl, Body: syntax.App{
			Fun:  syntax.Lam{Name: "y", Icit: syntax.Expl, Body: syntax.Var{Ix: 0}},
			Arg:  syntax.Var{Ix: 0},
			Icit: syntax.Expl,
		}},
		Arg:  syntax.U{},
		Icit: syntax.Expl,
	}
	once := Nf(mctx, term)
	twice := Nf(mctx, once)
	if !reflect.DeepEqual(once, twice) {
		t.Fatalf("Nf not idempotent: once=%#v twice=%#v", once, twice)
	}
}

func TestEvalMetaReadsSolution(t *testing.T) {
	mctx := meta.New()
	id := mctx.NewMeta(meta.Unsolved{Blockers: meta.NewBlockerSet(), Ty: value.VU{}})
	mctx.WriteMeta(id, meta.Solved{Val: value.VU{}})

	got := Nf(mctx, syntax.Meta{Id: id})
	if _, ok := got.(syntax.U); !ok {
		t.Fatalf("got %#v, want U", got)
	}
}

func TestEvalMetaUnsolvedQuotesBack(t *testing.T) {
	mctx := meta.New()
	id := mctx.NewMeta(meta.Unsolved{Blockers: meta.NewBlockerSet(), Ty: value.VU{}})

	got := Nf(mctx, syntax.Meta{Id: id})
	m, ok := got.(syntax.Meta)
	if !ok || m.Id != id {
		t.Fatalf("got %#v, want Meta %s", got, id)
	}
}

func TestQuoteVarAtDepth(t *testing.T) {
	mctx := meta.New()
	// A free variable at level 0, quoted at depth 2, reads back as
	// the innermost-but-one bound index.
	got := Quote(mctx, 2, value.VVar(0))
	v, ok := got.(syntax.Var)
	if !ok || v.Ix != 1 {
		t.Fatalf("got %#v, want Var{Ix:1}", got)
	}
}
