package prescan

import (
	"testing"

	"github.com/funvibe/cbcjs/internal/lexer"
	"github.com/funvibe/cbcjs/internal/token"
)

func TestScanUntilLocatesClosingParen(t *testing.T) {
	src := "(a + (b * c)) rest"
	lex := lexer.New(src)
	// The parser feeds the scanner the token AFTER the opening '(' of the
	// construct being scanned past, so consume '(' first.
	lex.NextToken()          // '('
	first := lex.NextToken() // 'a'
	sc := New(lex)

	rng, _, err := sc.ScanUntil(first, PrimaryExpr, token.RPAREN, token.ILLEGAL)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rng.Start != 1 {
		t.Fatalf("range start = %d, want 1", rng.Start)
	}

	next := lex.NextToken()
	if next.Lexeme != "rest" {
		t.Fatalf("lexer cursor not resumed correctly after scan, got %q", next.Lexeme)
	}
}

func TestScanUntilDetectsForIn(t *testing.T) {
	src := "(x in obj)"
	lex := lexer.New(src)
	lex.NextToken()          // '('
	first := lex.NextToken() // 'x'
	sc := New(lex)

	_, delim, err := sc.ScanUntil(first, PrimaryExpr, token.SEMICOLON, token.KEYW_IN)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if delim.Type != token.KEYW_IN {
		t.Fatalf("delimiter = %v, want 'in'", delim.Type)
	}
}

func TestScanUntilErrorsOnUnexpectedEOS(t *testing.T) {
	src := "(a + b"
	lex := lexer.New(src)
	first := lex.NextToken()
	sc := New(lex)

	_, _, err := sc.ScanUntil(first, PrimaryExpr, token.RPAREN, token.ILLEGAL)
	if err == nil {
		t.Fatal("expected an error scanning past unterminated input")
	}
}

func TestScanSwitchBodyCollectsLabels(t *testing.T) {
	src := "case 1: break; default: }"
	lex := lexer.New(src)
	first := lex.NextToken() // 'case'
	sc := New(lex)

	labels, closing, err := sc.ScanSwitchBody(first)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(labels) != 2 {
		t.Fatalf("expected 2 labels (case, default), got %d", len(labels))
	}
	if closing.Type != token.RBRACE {
		t.Fatalf("expected closing '}', got %v", closing.Type)
	}
}
