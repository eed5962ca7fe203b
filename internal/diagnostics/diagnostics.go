// Package diagnostics carries parse/compile errors with source position,
// the way every stage of the pipeline reports failure.
package diagnostics

import (
	"fmt"

	"github.com/funvibe/cbcjs/internal/token"
)

// Error is a single diagnostic, pinned to the token that produced it.
type Error struct {
	Code    string
	Pos     token.Position
	Message string
	File    string
}

// NewError builds a diagnostic for tok, formatting Message with args the way
// fmt.Sprintf would.
func NewError(code string, tok token.Token, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Pos:     tok.Pos(),
		Message: fmt.Sprintf(format, args...),
	}
}

func (e *Error) Error() string {
	file := e.File
	if file == "" {
		file = "<input>"
	}
	return fmt.Sprintf("%s:%d:%d: %s [%s]", file, e.Pos.Line, e.Pos.Column, e.Message, e.Code)
}

// Kind enumerates the taxonomy of failures the parser core can raise.
type Kind string

const (
	UnexpectedToken        Kind = "unexpected-token"
	ExpectedToken           Kind = "expected-token"
	InvalidExpression       Kind = "invalid-expression"
	InvalidBreak            Kind = "invalid-break"
	InvalidContinue         Kind = "invalid-continue"
	InvalidContinueLabel    Kind = "invalid-continue-label"
	DuplicateLabel          Kind = "duplicate-label"
	MultipleDefaults        Kind = "multiple-defaults-not-allowed"
	DefaultOutsideSwitch    Kind = "default-outside-switch"
	CaseOutsideSwitch       Kind = "case-outside-switch"
	ReturnOutsideFunction   Kind = "return-outside-function"
	WithInStrictMode        Kind = "with-in-strict-mode"
	ReservedIdentifier      Kind = "reserved-identifier-strict"
	NonStrictArgumentName   Kind = "non-strict-argument-name"
	MissingCatchOrFinally   Kind = "missing-catch-or-finally"
	UnterminatedStatement   Kind = "unterminated-statement"
)

// ParseError is the single sink every compile failure funnels through
// (raise_error in the source this is grounded on). It is returned as a plain
// Go error up the call stack; it never unwinds via panic/recover.
type ParseError struct {
	Kind Kind
	Err  *Error
}

func Raise(kind Kind, code string, tok token.Token, format string, args ...any) *ParseError {
	return &ParseError{Kind: kind, Err: NewError(code, tok, format, args...)}
}

func (e *ParseError) Error() string {
	return e.Err.Error()
}
