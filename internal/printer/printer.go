// Package printer turns zonked core terms back into readable surface
// text, and dumps the metacontext for debugging: the ?n/@n
// conventions referenced throughout the CLI output.
package printer

import (
	"fmt"
	"strings"

	"github.com/dtlc-lang/telescope/internal/meta"
	"github.com/dtlc-lang/telescope/internal/nbe"
	"github.com/dtlc-lang/telescope/internal/syntax"
	"github.com/dtlc-lang/telescope/internal/value"
)

// Zonk fully substitutes solved metas into t, reading back their
// values at the term's current binder depth. Unsolved metas are left
// as Meta nodes, printed as ?n.
func Zonk(mctx *meta.Metacontext, depth value.Lvl, t syntax.Tm) syntax.Tm {
	switch t := t.(type) {
	case syntax.Var, syntax.U, syntax.Tel, syntax.TEmpty, syntax.Tempty:
		return t

	case syntax.Meta:
		if sol, ok := mctx.LookupMeta(t.Id).(meta.Solved); ok {
			return nbe.Quote(mctx, depth, sol.Val)
		}
		return t

	case syntax.Let:
		return syntax.Let{
			Name: t.Name,
			Ty:   Zonk(mctx, depth, t.Ty),
			Val:  Zonk(mctx, depth, t.Val),
			Body: Zonk(mctx, depth+1, t.Body),
		}

	case syntax.Pi:
		return syntax.Pi{Name: t.Name, Icit: t.Icit, Dom: Zonk(mctx, depth, t.Dom), Cod: Zonk(mctx, depth+1, t.Cod)}

	case syntax.Lam:
		var ann syntax.Tm
		if t.Ann != nil {
			ann = Zonk(mctx, depth, t.Ann)
		}
		return syntax.Lam{Name: t.Name, Icit: t.Icit, Ann: ann, Body: Zonk(mctx, depth+1, t.Body)}

	case syntax.App:
		return syntax.App{Fun: Zonk(mctx, depth, t.Fun), Arg: Zonk(mctx, depth, t.Arg), Icit: t.Icit}

	case syntax.Skip:
		return syntax.Skip{Body: Zonk(mctx, depth+1, t.Body)}

	case syntax.PiTel:
		return syntax.PiTel{Name: t.Name, Dom: Zonk(mctx, depth, t.Dom), Cod: Zonk(mctx, depth+1, t.Cod)}

	case syntax.LamTel:
		return syntax.LamTel{Name: t.Name, Dom: Zonk(mctx, depth, t.Dom), Body: Zonk(mctx, depth+1, t.Body)}

	case syntax.AppTel:
		return syntax.AppTel{Dom: Zonk(mctx, depth, t.Dom), Fun: Zonk(mctx, depth, t.Fun), Arg: Zonk(mctx, depth, t.Arg)}

	case syntax.Rec:
		return syntax.Rec{Tel: Zonk(mctx, depth, t.Tel)}

	case syntax.TCons:
		return syntax.TCons{Name: t.Name, Head: Zonk(mctx, depth, t.Head), Tail: Zonk(mctx, depth+1, t.Tail)}

	case syntax.Tcons:
		return syntax.Tcons{Head: Zonk(mctx, depth, t.Head), Tail: Zonk(mctx, depth, t.Tail)}

	default:
		panic(fmt.Sprintf("printer.Zonk: unhandled term %T", t))
	}
}

const (
	precAtom = 2
	precApp  = 1
	precTop  = 0
)

// Print renders t as surface syntax, resolving Var indices against
// names (innermost last, matching a cxt.Context's Names slice).
// Unbound positions (more binders than names) fall back to a
// synthetic @n, where n is the variable's de Bruijn index, not its
// level.
func Print(t syntax.Tm, names []string) string {
	var sb strings.Builder
	pr(&sb, names, precTop, t)
	return sb.String()
}

func pr(sb *strings.Builder, names []string, p int, t syntax.Tm) {
	switch t := t.(type) {
	case syntax.Var:
		ix := len(names) - 1 - t.Ix
		if ix < 0 || ix >= len(names) {
			fmt.Fprintf(sb, "@%d", t.Ix)
			return
		}
		sb.WriteString(names[ix])

	case syntax.U:
		sb.WriteString("U")

	case syntax.Meta:
		sb.WriteString(t.Id.String())

	case syntax.Tel:
		sb.WriteString("Tel")

	case syntax.TEmpty:
		sb.WriteString("•")

	case syntax.Tempty:
		sb.WriteString("[]")

	case syntax.Rec:
		wrap(sb, p, precApp, func() {
			sb.WriteString("Rec ")
			pr(sb, names, precAtom, t.Tel)
		})

	case syntax.Let:
		wrap(sb, p, precTop, func() {
			fmt.Fprintf(sb, "let %s : ", t.Name)
			pr(sb, names, precTop, t.Ty)
			sb.WriteString(" = ")
			pr(sb, names, precTop, t.Val)
			sb.WriteString(";\n")
			pr(sb, extend(names, t.Name), precTop, t.Body)
		})

	case syntax.Pi:
		wrap(sb, p, precTop, func() {
			if t.Icit == syntax.Impl {
				fmt.Fprintf(sb, "{%s : ", t.Name)
			} else {
				fmt.Fprintf(sb, "(%s : ", t.Name)
			}
			pr(sb, names, precTop, t.Dom)
			if t.Icit == syntax.Impl {
				sb.WriteString("} -> ")
			} else {
				sb.WriteString(") -> ")
			}
			pr(sb, extend(names, t.Name), precTop, t.Cod)
		})

	case syntax.PiTel:
		wrap(sb, p, precTop, func() {
			fmt.Fprintf(sb, "(%s :: ", t.Name)
			pr(sb, names, precTop, t.Dom)
			sb.WriteString(") -> ")
			pr(sb, extend(names, t.Name), precTop, t.Cod)
		})

	case syntax.Lam:
		wrap(sb, p, precTop, func() {
			if t.Icit == syntax.Impl {
				fmt.Fprintf(sb, "\\{%s}. ", t.Name)
			} else {
				fmt.Fprintf(sb, "\\%s. ", t.Name)
			}
			pr(sb, extend(names, t.Name), precTop, t.Body)
		})

	case syntax.LamTel:
		wrap(sb, p, precTop, func() {
			fmt.Fprintf(sb, "\\\\%s. ", t.Name)
			pr(sb, extend(names, t.Name), precTop, t.Body)
		})

	case syntax.App:
		wrap(sb, p, precApp, func() {
			pr(sb, names, precApp, t.Fun)
			sb.WriteString(" ")
			if t.Icit == syntax.Impl {
				sb.WriteString("{")
				pr(sb, names, precTop, t.Arg)
				sb.WriteString("}")
			} else {
				pr(sb, names, precAtom, t.Arg)
			}
		})

	case syntax.AppTel:
		wrap(sb, p, precApp, func() {
			pr(sb, names, precApp, t.Fun)
			sb.WriteString(" [")
			pr(sb, names, precTop, t.Arg)
			sb.WriteString("]")
		})

	case syntax.Skip:
		pr(sb, extend(names, "_"), p, t.Body)

	case syntax.TCons:
		wrap(sb, p, precApp, func() {
			fmt.Fprintf(sb, "(%s : ", t.Name)
			pr(sb, names, precTop, t.Head)
			sb.WriteString(") :: ")
			pr(sb, extend(names, t.Name), precTop, t.Tail)
		})

	case syntax.Tcons:
		sb.WriteString("[")
		pr(sb, names, precTop, t.Head)
		sb.WriteString(", ")
		pr(sb, names, precTop, t.Tail)
		sb.WriteString("]")

	default:
		fmt.Fprintf(sb, "<?%T>", t)
	}
}

func wrap(sb *strings.Builder, have, need int, body func()) {
	if have > need {
		sb.WriteString("(")
		body()
		sb.WriteString(")")
		return
	}
	body()
}

func extend(names []string, name string) []string {
	out := make([]string, len(names)+1)
	copy(out, names)
	out[len(names)] = name
	return out
}

// PrintMetaEntry renders a single metacontext entry the way
// PrintMetaContext renders each of its lines; internal/metastore uses
// this to persist one row per entry instead of one blob per run.
func PrintMetaEntry(mctx *meta.Metacontext, id syntax.MId, e meta.Entry) (status, rendered string) {
	switch e := e.(type) {
	case meta.Unsolved:
		return "unsolved", Print(nbe.Quote(mctx, 0, e.Ty), nil)
	case meta.Solved:
		return "solved", Print(nbe.Quote(mctx, 0, e.Val), nil)
	case meta.Constancy:
		rendered := fmt.Sprintf("constancy(%s, %s)",
			Print(nbe.Quote(mctx, e.Cxt.NextLvl(), e.Dom), e.Cxt.Names),
			Print(nbe.Quote(mctx, e.Cxt.NextLvl(), e.Cod), e.Cxt.Names))
		return "constancy", rendered
	default:
		return "unknown", ""
	}
}

// PrintMetaContext dumps every entry of mctx, one per line, in
// ascending id order.
func PrintMetaContext(mctx *meta.Metacontext) string {
	var sb strings.Builder
	mctx.Range(func(id syntax.MId, e meta.Entry) {
		status, rendered := PrintMetaEntry(mctx, id, e)
		switch status {
		case "solved":
			fmt.Fprintf(&sb, "%s = %s\n", id, rendered)
		case "constancy":
			fmt.Fprintf(&sb, "%s :: %s\n", id, rendered)
		default:
			fmt.Fprintf(&sb, "%s : %s\n", id, rendered)
		}
	})
	return sb.String()
}
