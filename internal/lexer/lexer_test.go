package lexer

import (
	"testing"

	"github.com/funvibe/cbcjs/internal/token"
)

func TestNextTokenPunctuatorsAndKeywords(t *testing.T) {
	input := `var x = 1 + 2; if (x) { x++; } else { x--; }`

	tests := []struct {
		kind    token.Kind
		lexeme  string
	}{
		{token.KEYW_VAR, "var"},
		{token.IDENT, "x"},
		{token.ASSIGN, "="},
		{token.NUMBER, "1"},
		{token.PLUS, "+"},
		{token.NUMBER, "2"},
		{token.SEMICOLON, ";"},
		{token.KEYW_IF, "if"},
		{token.LPAREN, "("},
		{token.IDENT, "x"},
		{token.RPAREN, ")"},
		{token.LBRACE, "{"},
		{token.IDENT, "x"},
		{token.INCR, "++"},
		{token.SEMICOLON, ";"},
		{token.RBRACE, "}"},
		{token.KEYW_ELSE, "else"},
		{token.LBRACE, "{"},
		{token.IDENT, "x"},
		{token.DECR, "--"},
		{token.SEMICOLON, ";"},
		{token.RBRACE, "}"},
		{token.EOS, ""},
	}

	l := New(input)
	for i, want := range tests {
		got := l.NextToken()
		if got.Type != want.kind || got.Lexeme != want.lexeme {
			t.Fatalf("token %d: got {%v %q}, want {%v %q}", i, got.Type, got.Lexeme, want.kind, want.lexeme)
		}
	}
}

func TestNextTokenNewlineBefore(t *testing.T) {
	l := New("a\nb")
	first := l.NextToken()
	if first.NewlineBefore {
		t.Fatalf("first token should not report a leading newline")
	}
	second := l.NextToken()
	if !second.NewlineBefore {
		t.Fatalf("second token should report a leading newline")
	}
}

func TestNextTokenDivideVsRegexp(t *testing.T) {
	l := New("a / b")
	l.RegexAllowed = false
	l.NextToken() // a
	divTok := l.NextToken()
	if divTok.Type != token.DIV {
		t.Fatalf("expected division, got %v", divTok.Type)
	}

	l2 := New("/ab+c/g")
	l2.RegexAllowed = true
	reTok := l2.NextToken()
	if reTok.Type != token.REGEXP {
		t.Fatalf("expected regexp, got %v", reTok.Type)
	}
	if reTok.Lexeme != "/ab+c/g" {
		t.Fatalf("unexpected regexp lexeme %q", reTok.Lexeme)
	}
}

func TestNextTokenStrictEquality(t *testing.T) {
	l := New("a === b !== c")
	l.NextToken()
	eq := l.NextToken()
	if eq.Type != token.STRICT_EQ {
		t.Fatalf("expected ===, got %v", eq.Type)
	}
	l.NextToken()
	neq := l.NextToken()
	if neq.Type != token.STRICT_NOT_EQ {
		t.Fatalf("expected !==, got %v", neq.Type)
	}
}

func TestScanIdentifierAfterDot(t *testing.T) {
	l := New("if")
	tok := l.ScanIdentifier()
	if tok.Type != token.IDENT || tok.Lexeme != "if" {
		t.Fatalf("ScanIdentifier should refuse keyword reinterpretation, got %v %q", tok.Type, tok.Lexeme)
	}
}
