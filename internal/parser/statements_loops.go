package parser

import (
	"github.com/funvibe/cbcjs/internal/cbc"
	"github.com/funvibe/cbcjs/internal/diagnostics"
	"github.com/funvibe/cbcjs/internal/prescan"
	"github.com/funvibe/cbcjs/internal/token"
)

func toSourceRange(r prescan.SourceRange) sourceRange {
	return sourceRange{
		Start: r.Start, End: r.End,
		StartLine: r.StartLine, StartCol: r.StartCol,
		EndLine: r.EndLine, EndCol: r.EndCol,
	}
}

// parseWhileStatement uses the deferred-condition technique: scan (without
// parsing) the condition range, emit a forward jump over the body, parse
// the body, then rewind and parse the saved condition, emitting the
// backward branch — downgraded to JumpBackward if the condition folded to
// PushTrue, or to BranchIfFalseBackward (eliding the trailing LogicalNot) if
// it ended in one.
func (c *Context) parseWhileStatement() *diagnostics.ParseError {
	whileTok := c.cur
	c.advance()
	if err := c.expect(token.LPAREN, "G020"); err != nil {
		return err
	}

	condStart := c.cur
	rng, _, serr := c.scanner.ScanUntil(condStart, prescan.PrimaryExpr, token.RPAREN, token.ILLEGAL)
	if serr != nil {
		return serr
	}
	cond := toSourceRange(rng)
	c.advance() // consume ')'

	skipBody := c.Emit.EmitCbcForwardBranch(cbc.JumpForward, whileTok.Line, whileTok.Column)
	startOffset := c.Emit.Len()

	c.pushFrame(frame{Kind: KindWhile, Start: startOffset, Cond: cond})
	if err := c.parseStatement(); err != nil {
		return err
	}
	if err := c.runStatementTerminatorLoop(); err != nil {
		return err
	}
	loop := c.popFrame()

	c.Emit.SetBranchToCurrentPosition(skipBody)
	// continue re-runs the condition test, so it lands here, before it.
	condPos := c.Emit.Len()
	c.seekTo(cond)
	if err := c.parseExpression(); err != nil {
		return err
	}
	c.emitLoopBackEdge(loop.Start, whileTok.Line, whileTok.Column)

	c.Emit.SetContinuesToCurrentPosition(&loop.Loop.Continues, condPos)
	c.Emit.SetBreaksToCurrentPosition(&loop.Loop.Breaks)
	return nil
}

// emitLoopBackEdge applies the constant-folding peephole: PushTrue as the
// last opcode elides the condition entirely (bare JumpBackward); PushFalse
// as the last opcode elides both the condition and the back edge; LogicalNot
// as the last opcode inverts the test and elides the NOT
// (BranchIfFalseBackward); otherwise BranchIfTrueBackward.
func (c *Context) emitLoopBackEdge(start int, line, col int) {
	if op, ok := c.Emit.LastOpcode(); ok {
		switch op {
		case cbc.PushTrue:
			// PushTrue is still only cached, not yet written; drop it and
			// branch unconditionally instead of pushing then testing true.
			c.Emit.DiscardPending()
			c.Emit.EmitCbcBackwardBranch(cbc.JumpBackward, start, line, col)
			return
		case cbc.PushFalse:
			// A condition that is always false never loops back: drop it
			// and emit no branch at all.
			c.Emit.DiscardPending()
			return
		case cbc.LogicalNot:
			// Same: the NOT is still pending, so drop it and branch on the
			// operand's raw (pre-negation) value with the test inverted.
			c.Emit.DiscardPending()
			c.Emit.EmitCbcBackwardBranch(cbc.BranchIfFalseBackward, start, line, col)
			return
		}
	}
	c.Emit.EmitCbcBackwardBranch(cbc.BranchIfTrueBackward, start, line, col)
}

// parseDoWhileStatement emits the body first, then parses the tail
// condition the same way as while, without a leading forward jump.
func (c *Context) parseDoWhileStatement() *diagnostics.ParseError {
	doTok := c.cur
	c.advance()

	start := c.Emit.Len()
	c.pushFrame(frame{Kind: KindDoWhile, Start: start})
	if err := c.parseStatement(); err != nil {
		return err
	}
	if err := c.runStatementTerminatorLoop(); err != nil {
		return err
	}
	loop := c.popFrame()

	if err := c.expect(token.KEYW_WHILE, "G021"); err != nil {
		return err
	}
	if err := c.expect(token.LPAREN, "G022"); err != nil {
		return err
	}
	// continue must land here, at the start of the condition re-test, not
	// after it — jumping in anywhere past this point would run the
	// backward branch against a condition that was never (re-)evaluated
	// for this pass through the loop.
	condStart := c.Emit.Len()
	if err := c.parseExpression(); err != nil {
		return err
	}
	if err := c.expect(token.RPAREN, "G023"); err != nil {
		return err
	}

	c.Emit.SetContinuesToCurrentPosition(&loop.Loop.Continues, condStart)
	c.emitLoopBackEdge(loop.Start, doTok.Line, doTok.Column)
	c.Emit.SetBreaksToCurrentPosition(&loop.Loop.Breaks)
	return c.consumeStatementTerminator()
}

// parseForStatement distinguishes for-in from a classic C-style for during
// the initial scan: scan_until(..., KeywIn) reports whether 'in' or ';' was
// the terminator reached.
func (c *Context) parseForStatement() *diagnostics.ParseError {
	forTok := c.cur
	c.advance()
	if err := c.expect(token.LPAREN, "G030"); err != nil {
		return err
	}

	headStart := c.cur
	rng, delim, serr := c.scanner.ScanUntil(headStart, prescan.PrimaryExpr, token.SEMICOLON, token.KEYW_IN)
	if serr != nil {
		return serr
	}

	if delim.Type == token.KEYW_IN {
		return c.parseForInStatement(forTok, toSourceRange(rng))
	}

	return c.parseClassicForStatement(forTok, toSourceRange(rng))
}

func (c *Context) parseClassicForStatement(forTok token.Token, initRange sourceRange) *diagnostics.ParseError {
	// initRange covers the for-init clause already scanned past; re-parse it
	// now in expression-statement position (it may be empty, a var decl, or
	// a bare expression).
	c.seekTo(initRange)
	if !c.curIs(token.SEMICOLON) {
		if c.curIs(token.KEYW_VAR) {
			if err := c.parseVarDeclarationList(); err != nil {
				return err
			}
		} else {
			if err := c.parseExpression(); err != nil {
				return err
			}
			c.Emit.EmitCbc(cbc.Pop, forTok.Line, forTok.Column)
		}
	}
	if err := c.expect(token.SEMICOLON, "G031"); err != nil {
		return err
	}

	condTok := c.cur
	condRngRaw, _, serr := c.scanner.ScanUntil(condTok, prescan.PrimaryExpr, token.SEMICOLON, token.ILLEGAL)
	if serr != nil {
		return serr
	}
	cond := toSourceRange(condRngRaw)
	c.advance() // consume ';'

	updTok := c.cur
	updRngRaw, _, serr := c.scanner.ScanUntil(updTok, prescan.PrimaryExpr, token.RPAREN, token.ILLEGAL)
	if serr != nil {
		return serr
	}
	upd := toSourceRange(updRngRaw)
	c.advance() // consume ')'

	var skipBody cbc.BranchHandle
	hasCond := cond.End > cond.Start
	if hasCond {
		c.seekTo(cond)
		if err := c.parseExpression(); err != nil {
			return err
		}
		skipBody = c.Emit.EmitCbcForwardBranch(cbc.BranchIfFalseForward, forTok.Line, forTok.Column)
	} else {
		skipBody = c.Emit.EmitCbcForwardBranch(cbc.JumpForward, forTok.Line, forTok.Column)
	}

	// parsing cond above moved the lexer's cursor again; rewind once more to
	// just after the update clause's closing ')', where the body starts.
	c.seekPastRParen(upd)

	startOffset := c.Emit.Len()
	c.pushFrame(frame{Kind: KindFor, Start: startOffset, Cond: cond, Upd: upd})
	if err := c.parseStatement(); err != nil {
		return err
	}
	if err := c.runStatementTerminatorLoop(); err != nil {
		return err
	}
	loop := c.popFrame()

	continueTarget := c.Emit.Len()
	hasUpd := upd.End > upd.Start
	if hasUpd {
		c.seekTo(upd)
		if err := c.parseExpression(); err != nil {
			return err
		}
		c.Emit.EmitCbc(cbc.Pop, forTok.Line, forTok.Column)
	}

	if hasCond {
		c.seekTo(cond)
		if err := c.parseExpression(); err != nil {
			return err
		}
		c.emitLoopBackEdge(loop.Start, forTok.Line, forTok.Column)
	} else {
		c.Emit.EmitCbcBackwardBranch(cbc.JumpBackward, loop.Start, forTok.Line, forTok.Column)
	}

	c.Emit.SetBranchToCurrentPosition(skipBody)
	c.Emit.SetContinuesToCurrentPosition(&loop.Loop.Continues, continueTarget)
	c.Emit.SetBreaksToCurrentPosition(&loop.Loop.Breaks)
	return nil
}

// seekPastRParen rewinds the lexer to r's closing ')' (r.End is that
// token's own offset) and consumes it, landing cur on whatever follows —
// the loop body's first token.
func (c *Context) seekPastRParen(r sourceRange) {
	c.lex.Seek(r.End, r.EndLine, r.EndCol)
	c.lex.NextToken()
	c.cur = c.lex.NextToken()
}

// parseForInStatement emits EXT_FOR_IN_CREATE_CONTEXT (a forward branch to
// the loop exit), parses the iteration target, EXT_FOR_IN_GET_NEXT followed
// by the matching assignment, and at body-end emits
// EXT_BRANCH_IF_FOR_IN_HAS_NEXT back to the loop start.
func (c *Context) parseForInStatement(forTok token.Token, bindingRange sourceRange) *diagnostics.ParseError {
	exitCtx := c.Emit.EmitCbcExtForwardBranch(cbc.ExtForInCreateContext, forTok.Line, forTok.Column)

	c.seekTo(bindingRange)
	// the binding target: `var ident` or a bare identifier. Property accesses
	// and other expressions are not accepted as targets: a head that does not
	// start with an identifier emits EXT_PUSH_UNDEFINED_BASE and then fails
	// the 'in' check below with G033, as does any identifier followed by
	// something other than 'in'.
	if c.curIs(token.KEYW_VAR) {
		c.advance()
		if !c.curIs(token.IDENT) {
			return c.raise(diagnostics.InvalidExpression, "G032", "expected identifier after 'var' in for-in head")
		}
	} else if !c.curIs(token.IDENT) {
		c.Emit.EmitCbcExt(cbc.ExtPushUndefinedBase, forTok.Line, forTok.Column)
	}
	bindingName := c.cur.Lexeme
	if c.curIs(token.IDENT) {
		c.advance()
	}

	if err := c.expect(token.KEYW_IN, "G033"); err != nil {
		return err
	}
	if err := c.parseExpression(); err != nil {
		return err
	}
	if err := c.expect(token.RPAREN, "G034"); err != nil {
		return err
	}

	startOffset := c.Emit.Len()
	c.Emit.EmitCbcExt(cbc.ExtForInGetNext, forTok.Line, forTok.Column)
	identIdx := c.Emit.AddLiteral(cbc.Literal{Kind: cbc.LiteralIdent, Value: bindingName})
	c.Emit.EmitCbcLiteral(cbc.AssignIdent, identIdx, forTok.Line, forTok.Column)

	c.pushFrame(frame{Kind: KindForIn, Start: startOffset, End: exitCtx})
	if err := c.parseStatement(); err != nil {
		return err
	}
	if err := c.runStatementTerminatorLoop(); err != nil {
		return err
	}
	loop := c.popFrame()

	c.Emit.SetContinuesToCurrentPosition(&loop.Loop.Continues, c.Emit.Len())
	c.Emit.EmitCbcExtBackwardBranch(cbc.ExtBranchIfForInHasNext, loop.Start, forTok.Line, forTok.Column)
	// both exhaustion (exitCtx) and an explicit break land here, so either
	// way the for-in context is popped before control leaves the loop.
	c.Emit.SetBranchToCurrentPosition(exitCtx)
	c.Emit.SetBreaksToCurrentPosition(&loop.Loop.Breaks)
	c.Emit.EmitCbcExtByte(cbc.ExtContextEnd, cbc.CtxForIn, forTok.Line, forTok.Column)
	return nil
}
