// Package elab implements bidirectional elaboration of Raw surface
// syntax into core Tm, inserting implicit arguments and telescope
// lambdas where the expected type calls for them, and deferring
// unresolved equations to internal/unify and internal/constancy.
package elab

import (
	"fmt"

	"github.com/dtlc-lang/telescope/internal/constancy"
	"github.com/dtlc-lang/telescope/internal/cxt"
	"github.com/dtlc-lang/telescope/internal/errs"
	"github.com/dtlc-lang/telescope/internal/meta"
	"github.com/dtlc-lang/telescope/internal/nbe"
	"github.com/dtlc-lang/telescope/internal/printer"
	"github.com/dtlc-lang/telescope/internal/syntax"
	"github.com/dtlc-lang/telescope/internal/unify"
	"github.com/dtlc-lang/telescope/internal/value"
)

// AltAppInference switches RApp's function-type resolution to require
// the function's own (forced) type to already name a Π, or a still-flex
// meta, rejecting anything else immediately with ExpectedFunction. The
// default instead always unifies the function's type against a
// synthetic Π of two fresh metas, which accepts the same programs but
// can report a less precise error when the function plainly isn't one.
// Set once at startup from config; never read concurrently with
// elaboration.
var AltAppInference = false

func unifyCatch(mctx *meta.Metacontext, c cxt.Context, expected, got value.Val) error {
	if err := unify.Unify(mctx, c.NextLvl(), expected, got); err != nil {
		return &errs.UnifyErrorWhile{
			LHS: printer.Print(nbe.Quote(mctx, c.NextLvl(), expected), c.Names),
			RHS: printer.Print(nbe.Quote(mctx, c.NextLvl(), got), c.Names),
			Err: err,
		}
	}
	return nil
}

// lookupVar scans for the nearest FromSource entry named name, or
// named "*"+name — a top-level postulate is bound under that starred
// form (see InferTopLams), so a plain reference to its name still
// resolves.
func lookupVar(c cxt.Context, name string) (int, value.Val, bool) {
	for i := c.Len - 1; i >= 0; i-- {
		if c.Origins[i] != syntax.FromSource {
			continue
		}
		if c.Names[i] == name || c.Names[i] == "*"+name {
			return c.Len - 1 - i, c.Types[i].Ty, true
		}
	}
	return 0, nil, false
}

// insertPeel repeatedly applies t (of type a) to fresh metas for as
// long as a's head is an implicit Π or a telescope Π, returning the
// fully applied term and its residual type. Used where a caller needs
// every leading implicit/telescope layer exposed unconditionally, e.g.
// to find the explicit Π an application's argument checks against.
func insertPeel(mctx *meta.Metacontext, c cxt.Context, t syntax.Tm, a value.Val) (syntax.Tm, value.Val) {
	for {
		switch fa := nbe.Force(mctx, a).(type) {
		case value.VPi:
			if fa.Icit != syntax.Impl {
				return t, a
			}
			m := freshMeta(mctx, c, fa.Dom)
			t = syntax.App{Fun: t, Arg: m, Icit: syntax.Impl}
			a = nbe.Apply(mctx, fa.Cod, nbe.Eval(mctx, c.Vals, m))

		case value.VPiTel:
			domTm := nbe.Quote(mctx, c.NextLvl(), fa.Dom)
			recTm := freshMeta(mctx, c, value.VRec{Tel: fa.Dom})
			t = syntax.AppTel{Dom: domTm, Fun: t, Arg: recTm}
			a = nbe.Apply(mctx, fa.Cod, nbe.Eval(mctx, c.Vals, recTm))

		default:
			return t, a
		}
	}
}

// insert is insertPeel, except it leaves t alone when t is already a
// syntactic implicit lambda or telescope lambda: such a term was
// written by the surface syntax (or just produced by
// checkInsertedLam/checkUnknownTelescope) to supply that layer itself,
// so inserting fresh metas on top of it would discard the very binder
// the caller asked for.
func insert(mctx *meta.Metacontext, c cxt.Context, t syntax.Tm, a value.Val) (syntax.Tm, value.Val) {
	if lam, ok := t.(syntax.Lam); ok && lam.Icit == syntax.Impl {
		return t, a
	}
	if _, ok := t.(syntax.LamTel); ok {
		return t, a
	}
	return insertPeel(mctx, c, t, a)
}

// Infer infers a term and type for r, then inserts any trailing
// implicit/telescope arguments the result's type calls for, unless r
// itself already elaborated to a matching lambda.
func Infer(mctx *meta.Metacontext, c cxt.Context, r syntax.Raw) (syntax.Tm, value.Val, error) {
	t, a, err := infer(mctx, c, r)
	if err != nil {
		return nil, nil, err
	}
	t, a = insert(mctx, c, t, a)
	return t, a, nil
}

// InferTopLams treats a leading run of unannotated-or-annotated RLams
// in r as a block of postulates: each binder is still elaborated and
// closed exactly like an ordinary Lam, but its context name is stored
// with a leading '*' so the printer can mark it as a postulate while
// lookupVar still resolves a plain reference to it. This is a
// pretty-printing convenience only — the elaborated term underneath
// is an ordinary nest of Lams, no different from inferLam's result.
func InferTopLams(mctx *meta.Metacontext, c cxt.Context, r syntax.Raw) (syntax.Tm, value.Val, error) {
	rp, wasPos := r.(syntax.RSrcPos)
	if wasPos {
		t, a, err := InferTopLams(mctx, c, rp.Raw)
		return t, a, errs.AddSrcPos(rp.Pos, err)
	}

	lam, ok := r.(syntax.RLam)
	if !ok {
		return Infer(mctx, c, r)
	}

	var annTm syntax.Tm
	var err error
	if lam.Ann != nil {
		annTm, err = check(mctx, c, lam.Ann, value.VU{})
	} else {
		annTm = freshMeta(mctx, c, value.VU{})
	}
	if err != nil {
		return nil, nil, err
	}
	annVal := nbe.Eval(mctx, c.Vals, annTm)
	c2 := cxt.BindSrc(c, "*"+lam.Name, annVal)

	bodyTm, bodyTy, err := InferTopLams(mctx, c2, lam.Body)
	if err != nil {
		return nil, nil, err
	}
	lamTm := syntax.Lam{Name: lam.Name, Icit: lam.Icit, Ann: annTm, Body: bodyTm}
	piTy := value.VPi{
		Name: lam.Name, Icit: lam.Icit, Dom: annVal,
		Cod: value.Binder{Env: c2.Vals, Body: nbe.Quote(mctx, c2.NextLvl(), bodyTy)},
	}
	return lamTm, piTy, nil
}

func infer(mctx *meta.Metacontext, c cxt.Context, r syntax.Raw) (syntax.Tm, value.Val, error) {
	switch r := r.(type) {
	case syntax.RSrcPos:
		t, a, err := infer(mctx, c, r.Raw)
		return t, a, errs.AddSrcPos(r.Pos, err)

	case syntax.RVar:
		ix, ty, ok := lookupVar(c, r.Name)
		if !ok {
			return nil, nil, &errs.NameNotInScope{Name: r.Name}
		}
		return syntax.Var{Ix: ix}, ty, nil

	case syntax.RU:
		return syntax.U{}, value.VU{}, nil

	case syntax.RHole:
		a := freshMeta(mctx, c, value.VU{})
		av := nbe.Eval(mctx, c.Vals, a)
		return freshMeta(mctx, c, av), av, nil

	case syntax.RPi:
		domTm, err := check(mctx, c, r.Dom, value.VU{})
		if err != nil {
			return nil, nil, err
		}
		domVal := nbe.Eval(mctx, c.Vals, domTm)
		c2 := cxt.BindSrc(c, r.Name, domVal)
		codTm, err := check(mctx, c2, r.Cod, value.VU{})
		if err != nil {
			return nil, nil, err
		}
		return syntax.Pi{Name: r.Name, Icit: r.Icit, Dom: domTm, Cod: codTm}, value.VU{}, nil

	case syntax.RLam:
		return inferLam(mctx, c, r)

	case syntax.RApp:
		return inferApp(mctx, c, r)

	case syntax.RLet:
		return inferLet(mctx, c, r)

	default:
		return nil, nil, errs.NewUnifyError("cannot infer a type for this expression")
	}
}

func inferLam(mctx *meta.Metacontext, c cxt.Context, r syntax.RLam) (syntax.Tm, value.Val, error) {
	var annTm syntax.Tm
	var err error
	if r.Ann != nil {
		annTm, err = check(mctx, c, r.Ann, value.VU{})
	} else {
		annTm = freshMeta(mctx, c, value.VU{})
	}
	if err != nil {
		return nil, nil, err
	}
	annVal := nbe.Eval(mctx, c.Vals, annTm)
	c2 := cxt.BindSrc(c, r.Name, annVal)
	bodyTm, bodyTy, err := Infer(mctx, c2, r.Body)
	if err != nil {
		return nil, nil, err
	}
	lamTm := syntax.Lam{Name: r.Name, Icit: r.Icit, Ann: annTm, Body: bodyTm}
	piTy := value.VPi{
		Name: r.Name, Icit: r.Icit, Dom: annVal,
		Cod: value.Binder{Env: c2.Vals, Body: nbe.Quote(mctx, c2.NextLvl(), bodyTy)},
	}
	return lamTm, piTy, nil
}

// ensurePi forces funTy to a Π, always succeeding by unifying against
// a freshly synthesized Π of two fresh metas (domain, and codomain in
// the domain-extended context) when funTy isn't already one — so an
// application through a not-yet-resolved function type still
// type-checks once that type's meta is later solved to match.
func ensurePi(mctx *meta.Metacontext, c cxt.Context, icit syntax.Icit, funTy value.Val) (value.VPi, error) {
	domTm := freshMeta(mctx, c, value.VU{})
	domVal := nbe.Eval(mctx, c.Vals, domTm)
	c2 := cxt.Bind(c, "x", syntax.Inserted, domVal)
	codTm := freshMeta(mctx, c2, value.VU{})
	pi := value.VPi{
		Name: "x", Icit: icit, Dom: domVal,
		Cod: value.Binder{Env: c2.Vals, Body: codTm},
	}
	if err := unify.Unify(mctx, c.NextLvl(), funTy, pi); err != nil {
		return value.VPi{}, &errs.ExpectedFunction{Got: printer.Print(nbe.Quote(mctx, c.NextLvl(), funTy), c.Names)}
	}
	return pi, nil
}

// ensurePiStrict is ensurePi's AltAppInference variant: it accepts
// funTy only when it's already a Π, or a still-unsolved meta (falling
// back to ensurePi's synthesis-and-unify in that case), and otherwise
// rejects immediately rather than attempting to coerce a value that
// plainly isn't a function into one.
func ensurePiStrict(mctx *meta.Metacontext, c cxt.Context, icit syntax.Icit, funTy value.Val) (value.VPi, error) {
	switch fa := nbe.Force(mctx, funTy).(type) {
	case value.VPi:
		return fa, nil
	case value.VNe:
		if _, isMeta := fa.Head.(value.HMeta); isMeta {
			return ensurePi(mctx, c, icit, funTy)
		}
	}
	return value.VPi{}, &errs.ExpectedFunction{Got: printer.Print(nbe.Quote(mctx, c.NextLvl(), funTy), c.Names)}
}

func inferApp(mctx *meta.Metacontext, c cxt.Context, r syntax.RApp) (syntax.Tm, value.Val, error) {
	funTm, funTy, err := infer(mctx, c, r.Fun)
	if err != nil {
		return nil, nil, err
	}

	// An implicit argument must apply directly to a still-exposed
	// implicit Π: no insertion happens first.
	if r.Icit != syntax.Impl {
		funTm, funTy = insertPeel(mctx, c, funTm, funTy)
	}

	var vpi value.VPi
	if AltAppInference {
		vpi, err = ensurePiStrict(mctx, c, r.Icit, funTy)
	} else {
		vpi, err = ensurePi(mctx, c, r.Icit, funTy)
	}
	if err != nil {
		return nil, nil, err
	}
	if vpi.Icit != r.Icit {
		return nil, nil, &errs.IcitMismatch{Expected: vpi.Icit, Got: r.Icit}
	}
	argTm, err := check(mctx, c, r.Arg, vpi.Dom)
	if err != nil {
		return nil, nil, err
	}
	argVal := nbe.Eval(mctx, c.Vals, argTm)
	resTy := nbe.Apply(mctx, vpi.Cod, argVal)
	return syntax.App{Fun: funTm, Arg: argTm, Icit: r.Icit}, resTy, nil
}

// letAnn substitutes RHole for an omitted annotation: an unannotated
// let still always checks its value against a type, just one
// elaboration is free to leave as a fresh meta — the generalization
// case (checkUnknownTelescope) only ever fires through this path.
func letAnn(r syntax.Raw) syntax.Raw {
	if r == nil {
		return syntax.RHole{}
	}
	return r
}

func inferLet(mctx *meta.Metacontext, c cxt.Context, r syntax.RLet) (syntax.Tm, value.Val, error) {
	annTm, err := check(mctx, c, letAnn(r.Ann), value.VU{})
	if err != nil {
		return nil, nil, err
	}
	annVal := nbe.Eval(mctx, c.Vals, annTm)
	valTm, err := check(mctx, c, r.Val, annVal)
	if err != nil {
		return nil, nil, err
	}

	valVal := nbe.Eval(mctx, c.Vals, valTm)
	c2 := cxt.Define(c, r.Name, annVal, valVal)
	bodyTm, bodyTy, err := Infer(mctx, c2, r.Body)
	if err != nil {
		return nil, nil, err
	}
	return syntax.Let{Name: r.Name, Ty: annTm, Val: valTm, Body: bodyTm}, bodyTy, nil
}

// Check elaborates r against the expected type a, inserting an
// implicit lambda first when the surface term doesn't already supply
// one but the expected type demands it.
func Check(mctx *meta.Metacontext, c cxt.Context, r syntax.Raw, a value.Val) (syntax.Tm, error) {
	return check(mctx, c, r, a)
}

func check(mctx *meta.Metacontext, c cxt.Context, r syntax.Raw, a value.Val) (syntax.Tm, error) {
	if rp, ok := r.(syntax.RSrcPos); ok {
		t, err := check(mctx, c, rp.Raw, a)
		return t, errs.AddSrcPos(rp.Pos, err)
	}

	if _, ok := r.(syntax.RHole); ok {
		return freshMeta(mctx, c, a), nil
	}

	if let, ok := r.(syntax.RLet); ok {
		return checkLet(mctx, c, let, a)
	}

	fa := nbe.Force(mctx, a)

	if vne, ok := fa.(value.VNe); ok {
		if _, isMeta := vne.Head.(value.HMeta); isMeta {
			return checkUnknownTelescope(mctx, c, r, fa)
		}
	}

	if vpi, ok := fa.(value.VPi); ok {
		if lam, ok := r.(syntax.RLam); ok && lam.Icit == vpi.Icit {
			return checkLam(mctx, c, lam, vpi)
		}
		// Any r that isn't already a matching implicit λ (including one
		// written with the wrong icit, like an explicit λ against a
		// leading implicit Π) gets an implicit λ inserted around it.
		if vpi.Icit == syntax.Impl {
			return checkInsertedLam(mctx, c, r, vpi)
		}
	}

	t, got, err := infer(mctx, c, r)
	if err != nil {
		return nil, err
	}
	t, got = insert(mctx, c, t, got)
	if err := unifyCatch(mctx, c, a, got); err != nil {
		return nil, err
	}
	return t, nil
}

func checkLam(mctx *meta.Metacontext, c cxt.Context, r syntax.RLam, vpi value.VPi) (syntax.Tm, error) {
	domTm := nbe.Quote(mctx, c.NextLvl(), vpi.Dom)
	if r.Ann != nil {
		annTm, err := check(mctx, c, r.Ann, value.VU{})
		if err != nil {
			return nil, err
		}
		if err := unifyCatch(mctx, c, vpi.Dom, nbe.Eval(mctx, c.Vals, annTm)); err != nil {
			return nil, err
		}
	}
	c2 := cxt.BindSrc(c, r.Name, vpi.Dom)
	codTy := nbe.Apply(mctx, vpi.Cod, value.VVar(c.NextLvl()))
	bodyTm, err := check(mctx, c2, r.Body, codTy)
	if err != nil {
		return nil, err
	}
	return syntax.Lam{Name: r.Name, Icit: r.Icit, Ann: domTm, Body: bodyTm}, nil
}

// checkInsertedLam silently binds an implicit argument the surface
// syntax didn't write, since implicit lambdas are themselves optional
// at binding sites: r is checked again against the Π's codomain,
// under the newly bound variable.
func checkInsertedLam(mctx *meta.Metacontext, c cxt.Context, r syntax.Raw, vpi value.VPi) (syntax.Tm, error) {
	c2 := cxt.Bind(c, vpi.Name, syntax.Inserted, vpi.Dom)
	codTy := nbe.Apply(mctx, vpi.Cod, value.VVar(c.NextLvl()))
	bodyTm, err := check(mctx, c2, r, codTy)
	if err != nil {
		return nil, err
	}
	return syntax.Lam{Name: vpi.Name, Icit: syntax.Impl, Ann: nbe.Quote(mctx, c.NextLvl(), vpi.Dom), Body: bodyTm}, nil
}

// checkUnknownTelescope implements check's rule for an expected type
// that forces to a still-unsolved meta: this is the only place a
// LamTel is ever produced from surface syntax (telescopes have no
// surface syntax of their own), and is the mechanism behind inferring
// a generalized type for a let-bound value whose annotation was
// omitted, e.g. `let f = \x. x in f` inferring {A} -> A -> A at f's
// use site.
//
// A fresh telescope domain Γk is allocated, r is inferred under a
// record-typed variable bound to it, and a constancy entry decides
// whether the codomain actually depends on that variable: if it
// provably never does, the telescope is dropped entirely and r is
// re-checked directly against fa with no wrapping at all.
func checkUnknownTelescope(mctx *meta.Metacontext, c cxt.Context, r syntax.Raw, fa value.Val) (syntax.Tm, error) {
	domMeta := freshMeta(mctx, c, value.VTel{})
	domVal := nbe.Eval(mctx, c.Vals, domMeta)
	name := fmt.Sprintf("Γ%d", int(mctx.NextMId()))
	c2 := cxt.Bind(c, name, syntax.Inserted, value.VRec{Tel: domVal})

	bodyTm, bodyTy, err := infer(mctx, c2, r)
	if err != nil {
		return nil, err
	}

	cid := constancy.NewConstancy(mctx, c, domVal, bodyTy)
	if sol, ok := mctx.LookupMeta(cid).(meta.Solved); ok {
		// Resolved synchronously (no blocking metas): fold the answer
		// back into domMeta so piTel.Dom below never carries a
		// dangling unsolved meta.
		if err := unifyCatch(mctx, c, domVal, sol.Val); err != nil {
			return nil, err
		}
		if _, empty := sol.Val.(value.VTEmpty); empty {
			// r never reads the telescope binder: there's nothing to
			// wrap. Solve fa straight to r's own type and re-check r
			// against it with no telescope involved.
			if err := unifyCatch(mctx, c, fa, bodyTy); err != nil {
				return nil, err
			}
			return check(mctx, c, r, fa)
		}
	}

	codBinder := value.Binder{Env: c2.Vals, Body: nbe.Quote(mctx, c2.NextLvl(), bodyTy)}
	piTel := value.VPiTel{Name: name, Dom: domVal, Cod: codBinder}
	if err := unifyCatch(mctx, c, fa, piTel); err != nil {
		return nil, err
	}

	domTm := nbe.Quote(mctx, c.NextLvl(), domVal)
	return syntax.LamTel{Name: name, Dom: domTm, Body: bodyTm}, nil
}

func checkLet(mctx *meta.Metacontext, c cxt.Context, r syntax.RLet, a value.Val) (syntax.Tm, error) {
	annTm, err := check(mctx, c, letAnn(r.Ann), value.VU{})
	if err != nil {
		return nil, err
	}
	annVal := nbe.Eval(mctx, c.Vals, annTm)
	valTm, err := check(mctx, c, r.Val, annVal)
	if err != nil {
		return nil, err
	}

	valVal := nbe.Eval(mctx, c.Vals, valTm)
	c2 := cxt.Define(c, r.Name, annVal, valVal)
	bodyTm, err := check(mctx, c2, r.Body, a)
	if err != nil {
		return nil, err
	}
	return syntax.Let{Name: r.Name, Ty: annTm, Val: valTm, Body: bodyTm}, nil
}
