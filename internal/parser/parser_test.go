package parser

import (
	"testing"

	"github.com/dtlc-lang/telescope/internal/syntax"
)

func strip(r syntax.Raw) syntax.Raw {
	inner, _ := syntax.StripPos(r)
	return inner
}

func TestParseU(t *testing.T) {
	r, err := Parse("U")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := strip(r).(syntax.RU); !ok {
		t.Fatalf("got %T, want RU", strip(r))
	}
}

func TestParseHole(t *testing.T) {
	r, err := Parse("_")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := strip(r).(syntax.RHole); !ok {
		t.Fatalf("got %T, want RHole", strip(r))
	}
}

func TestParseIteratedLambda(t *testing.T) {
	r, err := Parse(`\x y. x`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	outer, ok := strip(r).(syntax.RLam)
	if !ok || outer.Name != "x" || outer.Icit != syntax.Expl {
		t.Fatalf("got %#v, want outer RLam x", strip(r))
	}
	inner, ok := strip(outer.Body).(syntax.RLam)
	if !ok || inner.Name != "y" {
		t.Fatalf("got %#v, want inner RLam y", strip(outer.Body))
	}
	if _, ok := strip(inner.Body).(syntax.RVar); !ok {
		t.Fatalf("got %#v, want RVar x", strip(inner.Body))
	}
}

func TestParseImplicitLambdaAnn(t *testing.T) {
	r, err := Parse(`\{x : U}. x`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	lam, ok := strip(r).(syntax.RLam)
	if !ok || lam.Icit != syntax.Impl || lam.Ann == nil {
		t.Fatalf("got %#v, want annotated implicit RLam", strip(r))
	}
}

func TestParsePiSugar(t *testing.T) {
	r, err := Parse("A -> A")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	pi, ok := strip(r).(syntax.RPi)
	if !ok || pi.Name != "_" || pi.Icit != syntax.Expl {
		t.Fatalf("got %#v, want anonymous explicit RPi", strip(r))
	}
}

func TestParseNamedPi(t *testing.T) {
	r, err := Parse("{A : U} -> A -> A")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	pi, ok := strip(r).(syntax.RPi)
	if !ok || pi.Name != "A" || pi.Icit != syntax.Impl {
		t.Fatalf("got %#v, want implicit RPi named A", strip(r))
	}
	cod, ok := strip(pi.Cod).(syntax.RPi)
	if !ok || cod.Name != "_" {
		t.Fatalf("got %#v, want anonymous RPi codomain", strip(pi.Cod))
	}
}

func TestParseAppSpineWithImplicit(t *testing.T) {
	r, err := Parse("id {U} x")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	outer, ok := strip(r).(syntax.RApp)
	if !ok || outer.Icit != syntax.Expl {
		t.Fatalf("got %#v, want explicit outer RApp", strip(r))
	}
	inner, ok := strip(outer.Fun).(syntax.RApp)
	if !ok || inner.Icit != syntax.Impl {
		t.Fatalf("got %#v, want implicit inner RApp", strip(outer.Fun))
	}
}

func TestParseLet(t *testing.T) {
	r, err := Parse("let x : U = U; x")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	let, ok := strip(r).(syntax.RLet)
	if !ok || let.Name != "x" || let.Ann == nil {
		t.Fatalf("got %#v, want annotated RLet", strip(r))
	}
}

func TestParseLetNoAnn(t *testing.T) {
	r, err := Parse(`let f = \x. x; f`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	let, ok := strip(r).(syntax.RLet)
	if !ok || let.Ann != nil {
		t.Fatalf("got %#v, want unannotated RLet", strip(r))
	}
}

func TestParseGrouping(t *testing.T) {
	r, err := Parse("(U)")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := strip(r).(syntax.RU); !ok {
		t.Fatalf("got %#v, want RU", strip(r))
	}
}

func TestParseErrorOnTrailingInput(t *testing.T) {
	if _, err := Parse("U U )"); err == nil {
		t.Fatal("expected error on unbalanced trailing input")
	}
}

func TestParseErrorUnexpectedToken(t *testing.T) {
	if _, err := Parse("->"); err == nil {
		t.Fatal("expected error on leading arrow")
	}
}
