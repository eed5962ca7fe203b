package parser

import (
	"github.com/funvibe/cbcjs/internal/cbc"
	"github.com/funvibe/cbcjs/internal/diagnostics"
	"github.com/funvibe/cbcjs/internal/lexer"
	"github.com/funvibe/cbcjs/internal/prescan"
	"github.com/funvibe/cbcjs/internal/token"
)

// GoalKind says whether the unit being compiled is a whole program, an eval
// body, or a function body — carried into the header's function-kind
// status bits.
type GoalKind int

const (
	GoalProgram GoalKind = iota
	GoalEval
	GoalFunction
)

// Context is the single state object the statement parser, pre-scanner and
// emitter all share for one compiled unit. A compile creates one Context for
// its top-level unit and parseFunctionRest creates another for each nested
// function body; parallel compiles use independent Contexts and share no
// mutable state (spec's concurrency model).
type Context struct {
	lex     *lexer.Lexer
	scanner *prescan.Scanner
	Emit    *cbc.Emitter

	cur token.Token

	frames []frame

	strict  bool
	goal    GoalKind
	errors  []*diagnostics.ParseError

	// funcDepth > 0 means we are inside a function body; return is only
	// legal there.
	funcDepth int

	// forceFullLit mirrors cbcconfig.Config.LiteralEncoding == "full" onto
	// every nested function Context parseFunctionRest creates, so a forced
	// encoding mode applies uniformly to a unit and all its nested
	// functions rather than only the outermost one.
	forceFullLit bool
}

func NewContext(source string, goal GoalKind) *Context {
	return NewContextWithEncoding(source, goal, false)
}

// NewContextWithEncoding is NewContext with an additional forceFull flag:
// when true, Emit.SetFullLiteralEncoding is applied before any statement is
// parsed, the hook cbcconfig.Config.LiteralEncoding == "full" drives.
func NewContextWithEncoding(source string, goal GoalKind, forceFull bool) *Context {
	lex := lexer.New(source)
	emit := cbc.NewEmitter()
	if forceFull {
		emit.SetFullLiteralEncoding()
	}
	ctx := &Context{
		lex:          lex,
		scanner:      prescan.New(lex),
		Emit:         emit,
		goal:         goal,
		forceFullLit: forceFull,
	}
	ctx.cur = lex.NextToken()
	return ctx
}

// seekTo rewinds the shared lexer to a saved range start and re-primes cur,
// the way the deferred-condition loop technique restores the parser's
// cursor to a condition/update range it scanned past earlier without
// parsing.
func (c *Context) seekTo(r sourceRange) {
	c.lex.Seek(r.Start, r.StartLine, r.StartCol)
	c.cur = c.lex.NextToken()
}

func (c *Context) advance() {
	c.cur = c.lex.NextToken()
}

// peekToken looks one token past cur without consuming it: the lexer's
// cursor is snapshotted, advanced once, then restored. cur is never
// pre-fetched ahead of the lexer's real position, since the pre-scanner
// pulls tokens directly from the same shared lexer and a stale pre-fetched
// token would desync from it after any ScanUntil call.
func (c *Context) peekToken() token.Token {
	pos, line, col := c.lex.Mark()
	regexAllowed := c.lex.RegexAllowed
	tok := c.lex.NextToken()
	c.lex.Seek(pos, line, col)
	c.lex.RegexAllowed = regexAllowed
	return tok
}

func (c *Context) curIs(k token.Kind) bool  { return c.cur.Type == k }
func (c *Context) peekIs(k token.Kind) bool { return c.peekToken().Type == k }

// expect consumes the current token if it matches k, else raises a parse
// error naming the expected delimiter.
func (c *Context) expect(k token.Kind, code string) *diagnostics.ParseError {
	if !c.curIs(k) {
		return diagnostics.Raise(diagnostics.ExpectedToken, code, c.cur,
			"expected %q, found %q", k.String(), c.cur.Lexeme)
	}
	c.advance()
	return nil
}

func (c *Context) raise(kind diagnostics.Kind, code string, format string, args ...any) *diagnostics.ParseError {
	return diagnostics.Raise(kind, code, c.cur, format, args...)
}

// pushFrame opens a new statement-stack frame.
func (c *Context) pushFrame(f frame) *frame {
	c.frames = append(c.frames, f)
	return &c.frames[len(c.frames)-1]
}

// popFrame closes the innermost frame. Callers must have already drained or
// transferred any branch lists it owned.
func (c *Context) popFrame() frame {
	top := c.frames[len(c.frames)-1]
	c.frames = c.frames[:len(c.frames)-1]
	return top
}

// top mirrors stack_top_uint8: O(1) access to the innermost frame's kind
// without walking the slice.
func (c *Context) top() StatementKind {
	if len(c.frames) == 0 {
		return KindStart
	}
	return c.frames[len(c.frames)-1].Kind
}

func (c *Context) topFrame() *frame {
	if len(c.frames) == 0 {
		return nil
	}
	return &c.frames[len(c.frames)-1]
}

// innermostLoop walks the frame stack outward-in (from the top) looking for
// the nearest loop/switch frame, the way unlabeled break/continue resolve.
// It also reports whether a With or Try frame was crossed on the way (a
// ForIn frame is itself a loop, so the walk stops there) — callers use that to decide whether to upgrade JumpForward to
// JumpForwardExitContext.
func (c *Context) innermostLoop() (idx int, crossedContext bool, ok bool) {
	for i := len(c.frames) - 1; i >= 0; i-- {
		switch c.frames[i].Kind {
		case KindSwitch, KindSwitchNoDefault, KindDoWhile, KindWhile, KindFor, KindForIn:
			return i, crossedContext, true
		case KindWith, KindTry:
			crossedContext = true
		}
	}
	return 0, crossedContext, false
}

// innermostContinuableLoop is innermostLoop restricted to the iteration
// statements: continue (unlike break) never targets a bare switch, since a
// switch body is not a loop.
func (c *Context) innermostContinuableLoop() (idx int, crossedContext bool, ok bool) {
	for i := len(c.frames) - 1; i >= 0; i-- {
		switch c.frames[i].Kind {
		case KindDoWhile, KindWhile, KindFor, KindForIn:
			return i, crossedContext, true
		case KindWith, KindTry:
			crossedContext = true
		}
	}
	return 0, crossedContext, false
}

// findLabel walks the frame stack for a Label frame named name.
func (c *Context) findLabel(name string) (idx int, crossedContext bool, ok bool) {
	for i := len(c.frames) - 1; i >= 0; i-- {
		switch c.frames[i].Kind {
		case KindLabel:
			if c.frames[i].LabelName == name {
				return i, crossedContext, true
			}
		case KindForIn, KindWith, KindTry:
			crossedContext = true
		}
	}
	return 0, crossedContext, false
}

// Errors returns c.errors. No parse path appends to it: the compiler core
// aborts on the first error raised (no partial recovery, spec §7) and
// Compile returns that error directly, so the slice is always empty.
func (c *Context) Errors() []*diagnostics.ParseError {
	return c.errors
}

// FreeJumps is the error-recovery walker: on a failed compile, release every
// BranchNode still referenced from any frame on the statement stack, then
// drop the frames themselves.
func (c *Context) FreeJumps() {
	for i := range c.frames {
		cbc.FreeJumps(&c.frames[i].Cases, &c.frames[i].Loop.Breaks, &c.frames[i].Loop.Continues)
	}
	c.frames = nil
}
