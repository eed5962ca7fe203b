package parser

import (
	"github.com/funvibe/cbcjs/internal/cbc"
	"github.com/funvibe/cbcjs/internal/diagnostics"
	"github.com/funvibe/cbcjs/internal/token"
)

// parseTryStatement compiles try/catch/finally as a single linear sequence:
// EXT_TRY_CREATE_CONTEXT reserves the exception handler's entry point
// (patched to the catch body, or the finally body if there is no catch); a
// plain JumpForward skips the catch body on normal completion; EXT_FINALLY
// wraps the finally body the same way, reserving where control resumes once
// it runs to completion on its own (not via an exception).
func (c *Context) parseTryStatement() *diagnostics.ParseError {
	tryTok := c.cur
	c.advance()

	excHandler := c.Emit.EmitCbcExtForwardBranch(cbc.ExtTryCreateContext, tryTok.Line, tryTok.Column)
	c.pushFrame(frame{Kind: KindTry, Phase: tryBlockPhase})
	if err := c.parseBlock(); err != nil {
		return err
	}

	hasCatch := c.curIs(token.KEYW_CATCH)
	hasFinally := false
	var skipCatch cbc.BranchHandle
	if hasCatch {
		skipCatch = c.Emit.EmitCbcForwardBranch(cbc.JumpForward, tryTok.Line, tryTok.Column)
	}
	c.Emit.SetBranchToCurrentPosition(excHandler)

	if hasCatch {
		c.advance() // 'catch'
		if err := c.expect(token.LPAREN, "T001"); err != nil {
			return err
		}
		if !c.curIs(token.IDENT) {
			return c.raise(diagnostics.InvalidExpression, "T002", "expected catch parameter name")
		}
		paramName := c.cur.Lexeme
		c.advance()
		if err := c.expect(token.RPAREN, "T003"); err != nil {
			return err
		}

		c.Emit.EmitCbcExt(cbc.ExtCatch, tryTok.Line, tryTok.Column)
		idx := c.Emit.AddLiteral(cbc.Literal{Kind: cbc.LiteralIdent, Value: paramName})
		c.Emit.EmitCbcLiteral(cbc.AssignIdent, idx, tryTok.Line, tryTok.Column)
		c.Emit.EmitCbc(cbc.Pop, tryTok.Line, tryTok.Column)

		c.topFrame().Phase = catchBlockPhase
		if err := c.parseBlock(); err != nil {
			return err
		}
	}

	if c.curIs(token.KEYW_FINALLY) {
		hasFinally = true
		c.advance()
		if hasCatch {
			c.Emit.SetBranchToCurrentPosition(skipCatch)
		}
		finallyBranch := c.Emit.EmitCbcExtForwardBranch(cbc.ExtFinally, tryTok.Line, tryTok.Column)
		f := c.topFrame()
		f.Phase = finallyBlockPhase
		f.TryEnd = finallyBranch
		if err := c.parseBlock(); err != nil {
			return err
		}
		c.Emit.SetBranchToCurrentPosition(finallyBranch)
	} else if hasCatch {
		c.Emit.SetBranchToCurrentPosition(skipCatch)
	}

	if !hasCatch && !hasFinally {
		return c.raise(diagnostics.MissingCatchOrFinally, "T004", "missing catch or finally after try")
	}

	c.popFrame()
	c.Emit.EmitCbcExtByte(cbc.ExtContextEnd, cbc.CtxTry, tryTok.Line, tryTok.Column)
	return nil
}
