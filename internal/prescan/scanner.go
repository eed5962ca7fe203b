// Package prescan implements the pre-scanner (scan_until): a mode-driven
// pushdown automaton that locates a delimiter across arbitrary nested
// expressions without emitting any bytecode. It only advances a lexer; its
// output is what its calls return: ScanUntil's skipped SourceRange and
// delimiter token, and ScanSwitchBody's label and closing-brace tokens.
package prescan

import (
	"github.com/funvibe/cbcjs/internal/diagnostics"
	"github.com/funvibe/cbcjs/internal/lexer"
	"github.com/funvibe/cbcjs/internal/token"
)

// Mode is the scanner's current grammar-class expectation.
type Mode int

const (
	PrimaryExpr Mode = iota
	PrimaryAfterNew
	PostPrimary
	PrimaryEnd
	Statement
	FunctionArgs
	PropertyName
)

// StackSymbol is the scanner's stack alphabet: one entry per open bracket or
// construct the scan has descended into.
type StackSymbol int

const (
	Head StackSymbol = iota
	ParenExpr
	ParenStmt
	ColonExpr
	ColonStmt
	SquareBracketExpr
	ObjectLiteral
	BlockStmt
	BlockExpr
	BlockProperty
)

// SourceRange pins the start/end cursor positions (and line/column) of a
// span of source the scanner skipped over without parsing it.
type SourceRange struct {
	Start, End         int
	StartLine, StartCol int
	EndLine, EndCol     int
}

// Scanner drives the pushdown automaton over a Lexer the caller owns; it
// shares the lexer's cursor with the statement parser that invoked it, so
// the parser can resume lexing exactly where the scan stopped.
type Scanner struct {
	lex   *lexer.Lexer
	stack []StackSymbol
	mode  Mode
}

func New(lex *lexer.Lexer) *Scanner {
	return &Scanner{lex: lex}
}

func (s *Scanner) push(sym StackSymbol) { s.stack = append(s.stack, sym) }

func (s *Scanner) pop() StackSymbol {
	if len(s.stack) == 0 {
		return Head
	}
	top := s.stack[len(s.stack)-1]
	s.stack = s.stack[:len(s.stack)-1]
	return top
}

func (s *Scanner) top() StackSymbol {
	if len(s.stack) == 0 {
		return Head
	}
	return s.stack[len(s.stack)-1]
}

// ScanUntil scans forward from the parser's current position until endType
// (or the normalized alternate endTypeB, if nonzero) is seen while the stack
// is back at Head, returning the SourceRange of everything it skipped and the
// delimiter token itself (so the caller, whose own cur/peek this scan never
// touches, can tell endType and endTypeB apart). mode seeds the automaton's
// starting expectation; every caller in this module passes PrimaryExpr
// (switch bodies go through ScanSwitchBody instead).
func (s *Scanner) ScanUntil(startTok token.Token, mode Mode, endType, endTypeB token.Kind) (SourceRange, token.Token, *diagnostics.ParseError) {
	s.mode = mode
	s.stack = s.stack[:0]
	s.push(Head)

	rng := SourceRange{Start: startTok.Offset, StartLine: startTok.Line, StartCol: startTok.Column}

	tok := startTok
	for {
		if s.top() == Head && (tok.Type == endType || (endTypeB != token.ILLEGAL && tok.Type == endTypeB)) {
			s.pop()
			rng.End = tok.Offset
			rng.EndLine, rng.EndCol = tok.Line, tok.Column
			return rng, tok, nil
		}
		if tok.Type == token.EOS {
			return rng, tok, diagnostics.Raise(diagnostics.UnexpectedToken, "S001", tok, "unexpected end of input while scanning ahead")
		}

		switch tok.Type {
		case token.LPAREN:
			if s.mode == PrimaryExpr || s.mode == PrimaryAfterNew {
				s.push(ParenExpr)
			} else {
				s.push(ParenStmt)
			}
			s.mode = PrimaryExpr
		case token.RPAREN:
			switch s.pop() {
			case ParenExpr:
				s.mode = PostPrimary
			case ParenStmt:
				s.mode = Statement
			default:
				return rng, tok, diagnostics.Raise(diagnostics.UnexpectedToken, "S002", tok, "unbalanced ')'")
			}
		case token.LBRACKET:
			s.push(SquareBracketExpr)
			s.mode = PrimaryExpr
		case token.RBRACKET:
			if s.pop() != SquareBracketExpr {
				return rng, tok, diagnostics.Raise(diagnostics.UnexpectedToken, "S003", tok, "unbalanced ']'")
			}
			s.mode = PostPrimary
		case token.LBRACE:
			if s.mode == FunctionArgs {
				s.push(BlockStmt)
				s.mode = Statement
			} else if s.mode == PropertyName || s.mode == PrimaryExpr {
				s.push(ObjectLiteral)
				s.mode = PropertyName
			} else {
				s.push(BlockExpr)
				s.mode = Statement
			}
		case token.RBRACE:
			switch s.pop() {
			case ObjectLiteral, BlockProperty:
				s.mode = PostPrimary
			case BlockStmt, BlockExpr:
				s.mode = Statement
			default:
				return rng, tok, diagnostics.Raise(diagnostics.UnexpectedToken, "S004", tok, "unbalanced '}'")
			}
		case token.COLON:
			if s.top() == ObjectLiteral {
				s.mode = PrimaryExpr
			}
		case token.COMMA:
			if s.top() == ObjectLiteral {
				s.mode = PropertyName
			} else {
				s.mode = PrimaryExpr
			}
		case token.KEYW_NEW:
			s.mode = PrimaryAfterNew
		case token.IDENT, token.NUMBER, token.STRING, token.KEYW_THIS, token.KEYW_TRUE, token.KEYW_FALSE, token.KEYW_NULL:
			s.mode = PostPrimary
		default:
			s.mode = PrimaryExpr
		}

		tok = s.lex.NextToken()
	}
}

// ScanSwitchBody walks a switch body once, counting brace depth rather than
// running the mode automaton, collecting
// the token positions of every `case`/`default` label (scan_until in a loop
// with mode SCAN_SWITCH in the source this is grounded on) and the position
// of the closing `}`. It never emits bytecode; the statement parser replays
// each case's guard expression afterwards using the normal expression
// parser.
func (s *Scanner) ScanSwitchBody(startTok token.Token) ([]token.Token, token.Token, *diagnostics.ParseError) {
	var labels []token.Token
	depth := 0
	tok := startTok
	for {
		switch tok.Type {
		case token.LBRACE:
			depth++
		case token.RBRACE:
			if depth == 0 {
				return labels, tok, nil
			}
			depth--
		case token.KEYW_CASE, token.KEYW_DEFAULT:
			if depth == 0 {
				labels = append(labels, tok)
			}
		case token.EOS:
			return labels, tok, diagnostics.Raise(diagnostics.UnexpectedToken, "S005", tok, "unterminated switch body")
		}
		tok = s.lex.NextToken()
	}
}
