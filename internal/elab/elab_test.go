package elab_test

import (
	"testing"

	"github.com/dtlc-lang/telescope/internal/cxt"
	"github.com/dtlc-lang/telescope/internal/elab"
	"github.com/dtlc-lang/telescope/internal/meta"
	"github.com/dtlc-lang/telescope/internal/nbe"
	"github.com/dtlc-lang/telescope/internal/parser"
	"github.com/dtlc-lang/telescope/internal/printer"
	"github.com/dtlc-lang/telescope/internal/syntax"
	"github.com/dtlc-lang/telescope/internal/value"
)

func elaborate(t *testing.T, src string) (syntax.Tm, value.Val, *meta.Metacontext) {
	t.Helper()
	raw, err := parser.Parse(src)
	if err != nil {
		t.Fatalf("parse %q: %v", src, err)
	}
	mctx := meta.New()
	tm, ty, err := elab.InferTopLams(mctx, cxt.Empty(), raw)
	if err != nil {
		t.Fatalf("elaborate %q: %v", src, err)
	}
	return tm, ty, mctx
}

func printTm(mctx *meta.Metacontext, tm syntax.Tm) string {
	return printer.Print(printer.Zonk(mctx, 0, tm), nil)
}

func printTy(mctx *meta.Metacontext, ty value.Val) string {
	return printer.Print(nbe.Quote(mctx, 0, ty), nil)
}

func TestUniverseInfersItself(t *testing.T) {
	_, ty, mctx := elaborate(t, "U")
	if got := printTy(mctx, ty); got != "U" {
		t.Errorf("type of U = %q, want U", got)
	}
}

func TestIdentityAppliedToUnderItsOwnPostulate(t *testing.T) {
	_, ty, mctx := elaborate(t, `let id : {A : U} -> A -> A = \x. x; id U`)
	if got := printTy(mctx, ty); got != "U" {
		t.Errorf("type of (id U) = %q, want U", got)
	}
}

func TestConstDropsItsSecondArgument(t *testing.T) {
	tm, ty, mctx := elaborate(t, `let const : {A : U}{B : U} -> A -> B -> A = \x y. x; const U (\x. x)`)
	_ = tm
	if got := printTy(mctx, ty); got != "U" {
		t.Errorf("type of (const U (\\x.x)) = %q, want U", got)
	}
}

func TestTopLevelPostulateLambdaInfersPiType(t *testing.T) {
	tm, ty, mctx := elaborate(t, `\A x. x`)
	if got := printTm(mctx, tm); got != "\\A. \\x. x" {
		t.Errorf("printed term = %q, want \\A. \\x. x", got)
	}
	fty, ok := nbe.Force(mctx, ty).(value.VPi)
	if !ok || fty.Name != "A" {
		t.Fatalf("got %#v, want a Pi over A", ty)
	}
	inner := nbe.Apply(mctx, fty.Cod, value.VVar(0))
	if fpi, ok := nbe.Force(mctx, inner).(value.VPi); !ok || fpi.Name != "x" {
		t.Fatalf("got %#v, want a Pi over x", inner)
	}
}

func TestLetWithoutAnnotationGeneralizes(t *testing.T) {
	_, _, err := func() (syntax.Tm, value.Val, error) {
		raw, err := parser.Parse(`let f = \x. x; f`)
		if err != nil {
			return nil, nil, err
		}
		mctx := meta.New()
		return elab.InferTopLams(mctx, cxt.Empty(), raw)
	}()
	if err != nil {
		t.Fatalf("unexpected error generalizing an unannotated let: %v", err)
	}
}

func TestHoleChecksAgainstIdentityPiType(t *testing.T) {
	raw, err := parser.Parse("(A : U) -> A -> A")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	mctx := meta.New()
	tyTm, _, err := elab.Infer(mctx, cxt.Empty(), raw)
	if err != nil {
		t.Fatalf("infer Pi type: %v", err)
	}
	tyVal := nbe.Eval(mctx, nil, tyTm)

	holeRaw, err := parser.Parse("_")
	if err != nil {
		t.Fatalf("parse hole: %v", err)
	}
	if _, err := elab.Check(mctx, cxt.Empty(), holeRaw, tyVal); err != nil {
		t.Fatalf("checking _ against (A:U)->A->A: %v", err)
	}
}

func TestNameNotInScopeIsRejected(t *testing.T) {
	raw, err := parser.Parse("y")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	mctx := meta.New()
	if _, _, err := elab.Infer(mctx, cxt.Empty(), raw); err == nil {
		t.Fatal("expected a name-not-in-scope error")
	}
}

func TestExplicitImplicitArgumentApplication(t *testing.T) {
	_, _, err := func() (syntax.Tm, value.Val, error) {
		raw, err := parser.Parse(`let id : {A : U} -> A -> A = \x. x; id {U} U`)
		if err != nil {
			return nil, nil, err
		}
		mctx := meta.New()
		return elab.InferTopLams(mctx, cxt.Empty(), raw)
	}()
	if err != nil {
		t.Fatalf("explicit implicit-argument application should still type-check: %v", err)
	}
}
