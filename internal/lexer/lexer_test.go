package lexer

import "testing"

func TestNextTokenBasic(t *testing.T) {
	input := `let id : {A : U} -> A -> A = \x. x; id U`

	want := []Type{
		LET, IDENT, COLON, LBRACE, IDENT, COLON, UNIV, RBRACE, ARROW, IDENT, ARROW, IDENT,
		EQUAL, LAMBDA, IDENT, DOT, IDENT, SEMI, IDENT, UNIV, EOF,
	}

	l := New(input)
	for i, wantType := range want {
		tok := l.NextToken()
		if tok.Type != wantType {
			t.Fatalf("token %d: got %s (%q), want %s", i, tok.Type, tok.Lexeme, wantType)
		}
	}
}

func TestUnderscoreVsIdent(t *testing.T) {
	l := New("_ _x x_")
	tok := l.NextToken()
	if tok.Type != UNDERSCORE {
		t.Fatalf("got %s, want UNDERSCORE", tok.Type)
	}
	tok = l.NextToken()
	if tok.Type != IDENT || tok.Lexeme != "_x" {
		t.Fatalf("got %s %q, want IDENT _x", tok.Type, tok.Lexeme)
	}
	tok = l.NextToken()
	if tok.Type != IDENT || tok.Lexeme != "x_" {
		t.Fatalf("got %s %q, want IDENT x_", tok.Type, tok.Lexeme)
	}
}

func TestLineComment(t *testing.T) {
	l := New("x -- this is dropped\ny")
	tok := l.NextToken()
	if tok.Type != IDENT || tok.Lexeme != "x" {
		t.Fatalf("got %s %q", tok.Type, tok.Lexeme)
	}
	tok = l.NextToken()
	if tok.Type != IDENT || tok.Lexeme != "y" || tok.Line != 2 {
		t.Fatalf("got %s %q at line %d, want y at line 2", tok.Type, tok.Lexeme, tok.Line)
	}
}

func TestIllegalChar(t *testing.T) {
	l := New("@")
	tok := l.NextToken()
	if tok.Type != ILLEGAL {
		t.Fatalf("got %s, want ILLEGAL", tok.Type)
	}
}
