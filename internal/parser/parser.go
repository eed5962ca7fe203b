// Package parser implements the StatementParser: the statement grammar,
// statement-stack bookkeeping, label/break/continue resolution, and
// strict-mode entry, driving the cbc.Emitter directly as it recognizes each
// construct (no separate AST is built — see SPEC_FULL.md's Design Notes).
package parser

import (
	"github.com/funvibe/cbcjs/internal/cbc"
	"github.com/funvibe/cbcjs/internal/diagnostics"
	"github.com/funvibe/cbcjs/internal/token"
)

// Compile parses source as a unit of the given goal kind and returns the
// compiled bytecode blob. This is the sole entry point that catches a
// *diagnostics.ParseError and runs FreeJumps before returning it —
// intermediate parsing methods perform no cleanup of their own.
func Compile(source string, goal GoalKind) (*cbc.CompiledCode, error) {
	return CompileWithEncoding(source, goal, false)
}

// CompileWithEncoding is Compile with an additional forceFull flag, driven
// by cbcconfig.Config.LiteralEncoding == "full": every literal-index
// operand in the resulting unit, and every nested function it declares,
// uses the full encoding (one byte up to index 127, two bytes above) from
// its first literal rather than the emitter's default small encoding.
func CompileWithEncoding(source string, goal GoalKind, forceFull bool) (*cbc.CompiledCode, error) {
	ctx := NewContextWithEncoding(source, goal, forceFull)
	err := ctx.parseStatements()
	if err != nil {
		ctx.FreeJumps()
		return nil, err
	}
	ctx.Emit.EmitCbc(cbcHalt(), ctx.cur.Line, ctx.cur.Column)
	ctx.Emit.FlushCbc()
	return ctx.Emit.Code(), nil
}

func cbcHalt() cbc.Opcode { return cbc.Halt }

// parseStatements is the entry point: pushes the Start sentinel, consumes a
// directive prologue, then runs the main statement loop until EOS.
func (c *Context) parseStatements() *diagnostics.ParseError {
	c.pushFrame(frame{Kind: KindStart})

	if err := c.parseDirectivePrologue(); err != nil {
		return err
	}

	for !c.curIs(token.EOS) {
		if err := c.parseStatement(); err != nil {
			return err
		}
		if err := c.runStatementTerminatorLoop(); err != nil {
			return err
		}
	}

	if c.top() != KindStart {
		return c.raise(diagnostics.UnterminatedStatement, "G001", "unterminated statement at end of input")
	}
	c.popFrame()
	return nil
}

// parseDirectivePrologue consumes a leading sequence of bare string-literal
// expression statements. Exactly the ten-byte, no-escape literal "use
// strict" sets IsStrict; the monotonic invariant means once true it is
// never cleared, even by a later function-scoped prologue having its own
// non-strict literals (those simply don't unset it because nothing here
// ever assigns false).
func (c *Context) parseDirectivePrologue() *diagnostics.ParseError {
	for c.curIs(token.STRING) {
		lit := c.cur
		isUseStrict := lit.Literal == "use strict" && len(lit.Lexeme) == 10

		// A directive prologue entry is only recognized as such when not
		// immediately followed by a token that would make it the start of a
		// larger expression (binary operator, '(', '[', '.').
		if isExpressionContinuation(c.peekToken().Type) {
			break
		}

		c.advance()
		if isUseStrict {
			c.strict = true
		}
		c.Emit.EmitCbcLiteral(cbc.PushLiteral, c.Emit.AddLiteral(cbc.Literal{Kind: cbc.LiteralString, Value: lit.Literal}), lit.Line, lit.Column)
		c.Emit.EmitCbc(cbc.Pop, lit.Line, lit.Column)

		if err := c.consumeStatementTerminator(); err != nil {
			return err
		}
	}
	return nil
}

func isExpressionContinuation(k token.Kind) bool {
	switch k {
	case token.PLUS, token.MINUS, token.MUL, token.DIV, token.MOD,
		token.LPAREN, token.LBRACKET, token.DOT,
		token.LOGICAL_AND, token.LOGICAL_OR,
		token.EQ, token.NOT_EQ, token.STRICT_EQ, token.STRICT_NOT_EQ,
		token.LT, token.GT, token.LTE, token.GTE:
		return true
	default:
		return false
	}
}

// consumeStatementTerminator applies automatic semicolon insertion: a ';'
// is consumed if present; otherwise the next token must be '}', EOS, or
// separated from the prior token by a newline.
func (c *Context) consumeStatementTerminator() *diagnostics.ParseError {
	if c.curIs(token.SEMICOLON) {
		c.advance()
		return nil
	}
	if c.curIs(token.RBRACE) || c.curIs(token.EOS) || c.cur.NewlineBefore {
		return nil
	}
	return c.raise(diagnostics.UnexpectedToken, "G002", "expected ';', found %q", c.cur.Lexeme)
}

// parseStatement dispatches on the current token's kind.
func (c *Context) parseStatement() *diagnostics.ParseError {
	switch c.cur.Type {
	case token.LBRACE:
		return c.parseBlock()
	case token.KEYW_VAR:
		return c.parseVarStatement()
	case token.KEYW_FUNCTION:
		return c.parseFunctionDeclaration()
	case token.KEYW_IF:
		return c.parseIfStatement()
	case token.KEYW_SWITCH:
		return c.parseSwitchStatement()
	case token.KEYW_DO:
		return c.parseDoWhileStatement()
	case token.KEYW_WHILE:
		return c.parseWhileStatement()
	case token.KEYW_FOR:
		return c.parseForStatement()
	case token.KEYW_WITH:
		return c.parseWithStatement()
	case token.KEYW_TRY:
		return c.parseTryStatement()
	case token.KEYW_BREAK:
		return c.parseBreakStatement()
	case token.KEYW_CONTINUE:
		return c.parseContinueStatement()
	case token.KEYW_RETURN:
		return c.parseReturnStatement()
	case token.KEYW_THROW:
		return c.parseThrowStatement()
	case token.KEYW_DEBUGGER:
		c.advance()
		c.Emit.EmitCbc(cbc.Debugger, c.cur.Line, c.cur.Column)
		return c.consumeStatementTerminator()
	case token.KEYW_DEFAULT, token.KEYW_CASE:
		return c.raise(diagnostics.CaseOutsideSwitch, "G003", "%q outside switch", c.cur.Lexeme)
	case token.SEMICOLON:
		c.advance()
		return nil
	default:
		if c.curIs(token.IDENT) && c.peekIs(token.COLON) {
			return c.parseLabelledStatement()
		}
		return c.parseExpressionStatement()
	}
}

func (c *Context) parseBlock() *diagnostics.ParseError {
	c.advance() // consume '{'
	c.pushFrame(frame{Kind: KindBlock})
	for !c.curIs(token.RBRACE) && !c.curIs(token.EOS) {
		if err := c.parseStatement(); err != nil {
			return err
		}
		if err := c.runStatementTerminatorLoop(); err != nil {
			return err
		}
	}
	if err := c.expect(token.RBRACE, "G004"); err != nil {
		return err
	}
	if c.top() == KindBlock {
		c.popFrame()
	}
	return nil
}

func (c *Context) parseExpressionStatement() *diagnostics.ParseError {
	if err := c.parseExpression(); err != nil {
		return err
	}
	c.Emit.EmitCbc(cbc.Pop, c.cur.Line, c.cur.Column)
	return c.consumeStatementTerminator()
}

// runStatementTerminatorLoop repeatedly inspects the top-of-stack tag and
// closes any pending Label/If/Else/With frame whose body has just ended
// (loop, switch and try frames are closed by their own parse functions) —
// a single non-block statement body
// closes its own wrapping frames immediately, so this mostly fires right
// after parseStatement returns from a single-statement body.
func (c *Context) runStatementTerminatorLoop() *diagnostics.ParseError {
	for {
		switch c.top() {
		case KindLabel:
			f := c.popFrame()
			c.Emit.SetBreaksToCurrentPosition(&f.Loop.Breaks)
		case KindIf:
			// A lone 'if' with no 'else' closes here unless 'else' follows.
			// enterElse only parses the else-body and pushes KindElse; it does
			// not close that frame itself, so looping back here (instead of
			// returning) is what lets the KindElse case below patch/pop it
			// before control leaves this function.
			if c.curIs(token.KEYW_ELSE) {
				if err := c.enterElse(); err != nil {
					return err
				}
				continue
			}
			f := c.popFrame()
			c.Emit.SetBranchToCurrentPosition(f.End)
			continue
		case KindElse:
			f := c.popFrame()
			c.Emit.SetBranchToCurrentPosition(f.End)
		case KindWith:
			f := c.popFrame()
			c.Emit.SetBranchToCurrentPosition(f.End)
			c.Emit.EmitCbcExtByte(cbc.ExtContextEnd, cbc.CtxWith, c.cur.Line, c.cur.Column)
		default:
			return nil
		}
	}
}
