// Package parser turns a token stream from internal/lexer into a
// syntax.Raw tree. It is a hand-written recursive-descent parser in
// the teacher's style (explicit per-construct parse functions rather
// than a combinator or generated parser), scaled down from the
// teacher's Pratt-style expression grammar to this surface syntax's
// much smaller precedence structure: only application and the
// right-associative arrow actually need precedence climbing, so a
// plain recursive-descent shape, not a prefix/infix function table,
// is the idiomatic fit here.
package parser

import (
	"fmt"

	"github.com/dtlc-lang/telescope/internal/lexer"
	"github.com/dtlc-lang/telescope/internal/syntax"
)

// ParseError is returned for any malformed input; the CLI treats it
// as a usage error (exit 2), distinct from an errs value raised by
// elaboration itself (exit 1).
type ParseError struct {
	Pos syntax.Pos
	Msg string
}

func (e *ParseError) Error() string { return fmt.Sprintf("%s: %s", e.Pos, e.Msg) }

// Parser holds the whole token stream pre-scanned from the input, so
// that the handful of binder forms that need lookahead past an
// opening '(' or '{' ("is this a Pi binder or a grouped/implicit
// application argument?") can save and restore a plain integer cursor
// instead of threading lexer state through backtracking.
type Parser struct {
	toks []lexer.Token
	pos  int
}

// Parse lexes and parses a complete program: one term, followed by
// end of input.
func Parse(src string) (syntax.Raw, error) {
	l := lexer.New(src)
	var toks []lexer.Token
	for {
		t := l.NextToken()
		toks = append(toks, t)
		if t.Type == lexer.EOF {
			break
		}
	}
	p := &Parser{toks: toks}
	r, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if !p.at(lexer.EOF) {
		return nil, p.errorf("unexpected trailing input %q", p.cur().Lexeme)
	}
	return r, nil
}

func (p *Parser) cur() lexer.Token  { return p.toks[p.pos] }
func (p *Parser) at(t lexer.Type) bool { return p.cur().Type == t }

func (p *Parser) advance() lexer.Token {
	t := p.cur()
	if p.pos < len(p.toks)-1 {
		p.pos++
	}
	return t
}

func (p *Parser) pos_(t lexer.Token) syntax.Pos { return syntax.Pos{Line: t.Line, Col: t.Column} }

func (p *Parser) errorf(format string, args ...interface{}) error {
	return &ParseError{Pos: p.pos_(p.cur()), Msg: fmt.Sprintf(format, args...)}
}

func (p *Parser) expect(t lexer.Type) (lexer.Token, error) {
	if !p.at(t) {
		return lexer.Token{}, p.errorf("expected %s, got %s %q", t, p.cur().Type, p.cur().Lexeme)
	}
	return p.advance(), nil
}

func wrap(pos syntax.Pos, r syntax.Raw) syntax.Raw { return syntax.RSrcPos{Pos: pos, Raw: r} }

// parseExpr is the entry point for any term position.
func (p *Parser) parseExpr() (syntax.Raw, error) {
	switch p.cur().Type {
	case lexer.LET:
		return p.parseLet()
	case lexer.LAMBDA:
		return p.parseLam()
	default:
		return p.parsePi()
	}
}

func (p *Parser) parseLet() (syntax.Raw, error) {
	start := p.cur()
	p.advance() // let
	name, err := p.expect(lexer.IDENT)
	if err != nil {
		return nil, err
	}

	var ann syntax.Raw
	if p.at(lexer.COLON) {
		p.advance()
		ann, err = p.parseExpr()
		if err != nil {
			return nil, err
		}
	}

	if _, err := p.expect(lexer.EQUAL); err != nil {
		return nil, err
	}
	val, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(lexer.SEMI); err != nil {
		return nil, err
	}
	body, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	return wrap(p.pos_(start), syntax.RLet{Name: name.Lexeme, Ann: ann, Val: val, Body: body}), nil
}

// parseLam parses a backslash followed by one or more binder groups
// and a dot-terminated body; \x y z. t desugars to nested RLam nodes.
func (p *Parser) parseLam() (syntax.Raw, error) {
	start := p.cur()
	p.advance() // backslash

	type binder struct {
		name string
		icit syntax.Icit
		ann  syntax.Raw
	}
	var binders []binder

	for !p.at(lexer.DOT) {
		if p.at(lexer.LBRACE) {
			p.advance()
			name, err := p.expect(lexer.IDENT)
			if err != nil {
				return nil, err
			}
			var ann syntax.Raw
			if p.at(lexer.COLON) {
				p.advance()
				ann, err = p.parseExpr()
				if err != nil {
					return nil, err
				}
			}
			if _, err := p.expect(lexer.RBRACE); err != nil {
				return nil, err
			}
			binders = append(binders, binder{name: name.Lexeme, icit: syntax.Impl, ann: ann})
			continue
		}
		name, err := p.expect(lexer.IDENT)
		if err != nil {
			return nil, err
		}
		binders = append(binders, binder{name: name.Lexeme, icit: syntax.Expl})
	}
	p.advance() // dot

	body, err := p.parseExpr()
	if err != nil {
		return nil, err
	}

	for i := len(binders) - 1; i >= 0; i-- {
		b := binders[i]
		body = syntax.RLam{Name: b.name, Ann: b.ann, Icit: b.icit, Body: body}
	}
	return wrap(p.pos_(start), body), nil
}

// parsePi parses the arrow level: a named Π binder group followed by
// "->", or else an application that, if followed by "->", is the
// unnamed domain of a sugared Π. The arrow is right-associative, so
// the codomain recurses through parsePi again.
func (p *Parser) parsePi() (syntax.Raw, error) {
	start := p.cur()

	if name, icit, ann, ok, err := p.tryPiBinder(); err != nil {
		return nil, err
	} else if ok {
		if p.at(lexer.ARROW) {
			p.advance()
		}
		cod, err := p.parsePi()
		if err != nil {
			return nil, err
		}
		return wrap(p.pos_(start), syntax.RPi{Name: name, Icit: icit, Dom: ann, Cod: cod}), nil
	}

	dom, err := p.parseApp()
	if err != nil {
		return nil, err
	}
	if !p.at(lexer.ARROW) {
		return dom, nil
	}
	p.advance()
	cod, err := p.parsePi()
	if err != nil {
		return nil, err
	}
	return wrap(p.pos_(start), syntax.RPi{Name: "_", Icit: syntax.Expl, Dom: dom, Cod: cod}), nil
}

// tryPiBinder looks ahead for "(" ident ":" expr ")" or
// "{" ident ":" expr "}" followed by "->" or by a further binder group
// of the same shape (so "{A : U}{B : U} -> A" shares one arrow; the
// cursor is left on that arrow or group), restoring the cursor and reporting
// ok=false if the shape doesn't match (a bare "(" is then a
// parenthesized atom, and a bare "{" is an implicit application
// argument, both handled by parseApp/parseAtom instead).
func (p *Parser) tryPiBinder() (name string, icit syntax.Icit, ann syntax.Raw, ok bool, err error) {
	if !p.at(lexer.LPAREN) && !p.at(lexer.LBRACE) {
		return "", 0, nil, false, nil
	}
	save := p.pos
	closeTok := lexer.RPAREN
	icit = syntax.Expl
	if p.at(lexer.LBRACE) {
		closeTok = lexer.RBRACE
		icit = syntax.Impl
	}
	p.advance()

	if !p.at(lexer.IDENT) {
		p.pos = save
		return "", 0, nil, false, nil
	}
	nameTok := p.advance()

	if !p.at(lexer.COLON) {
		p.pos = save
		return "", 0, nil, false, nil
	}
	p.advance()

	domAnn, perr := p.parseExpr()
	if perr != nil {
		p.pos = save
		return "", 0, nil, false, nil
	}

	if !p.at(closeTok) {
		p.pos = save
		return "", 0, nil, false, nil
	}
	p.advance()

	if !p.at(lexer.ARROW) {
		if p.at(lexer.LPAREN) || p.at(lexer.LBRACE) {
			next := p.pos
			_, _, _, more, _ := p.tryPiBinder()
			p.pos = next
			if more {
				return nameTok.Lexeme, icit, domAnn, true, nil
			}
		}
		p.pos = save
		return "", 0, nil, false, nil
	}
	return nameTok.Lexeme, icit, domAnn, true, nil
}

// parseApp parses a left-associative spine of atoms: explicit
// arguments are atoms, implicit arguments are "{" expr "}".
func (p *Parser) parseApp() (syntax.Raw, error) {
	start := p.cur()
	fn, err := p.parseAtom()
	if err != nil {
		return nil, err
	}

	for {
		if p.at(lexer.LBRACE) {
			argStart := p.cur()
			p.advance()
			arg, err := p.parseExpr()
			if err != nil {
				return nil, err
			}
			if _, err := p.expect(lexer.RBRACE); err != nil {
				return nil, err
			}
			fn = wrap(p.pos_(argStart), syntax.RApp{Fun: fn, Arg: arg, Icit: syntax.Impl})
			continue
		}
		if p.startsAtom() {
			arg, err := p.parseAtom()
			if err != nil {
				return nil, err
			}
			fn = wrap(p.pos_(start), syntax.RApp{Fun: fn, Arg: arg, Icit: syntax.Expl})
			continue
		}
		return fn, nil
	}
}

func (p *Parser) startsAtom() bool {
	switch p.cur().Type {
	case lexer.IDENT, lexer.UNIV, lexer.UNDERSCORE, lexer.LPAREN:
		return true
	default:
		return false
	}
}

func (p *Parser) parseAtom() (syntax.Raw, error) {
	start := p.cur()
	switch start.Type {
	case lexer.IDENT:
		p.advance()
		return wrap(p.pos_(start), syntax.RVar{Name: start.Lexeme}), nil
	case lexer.UNIV:
		p.advance()
		return wrap(p.pos_(start), syntax.RU{}), nil
	case lexer.UNDERSCORE:
		p.advance()
		return wrap(p.pos_(start), syntax.RHole{}), nil
	case lexer.LPAREN:
		p.advance()
		inner, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(lexer.RPAREN); err != nil {
			return nil, err
		}
		return inner, nil
	default:
		return nil, p.errorf("unexpected token %s %q", start.Type, start.Lexeme)
	}
}
