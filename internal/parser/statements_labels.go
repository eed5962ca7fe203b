package parser

import (
	"github.com/funvibe/cbcjs/internal/cbc"
	"github.com/funvibe/cbcjs/internal/diagnostics"
	"github.com/funvibe/cbcjs/internal/token"
)

// parseLabelledStatement pushes a Label frame and parses the labelled
// statement directly underneath it; nothing else pushes a frame in between,
// so a continue naming this label only needs to skip past any other Label
// frames stacked on the same statement (`a: b: while (...) ...`) to find the
// loop it actually controls.
func (c *Context) parseLabelledStatement() *diagnostics.ParseError {
	name := c.cur.Lexeme
	c.advance() // identifier
	c.advance() // ':'

	if _, _, ok := c.findLabel(name); ok {
		return c.raise(diagnostics.DuplicateLabel, "L001", "label %q is already in use", name)
	}

	c.pushFrame(frame{Kind: KindLabel, LabelName: name})
	return c.parseStatement()
}

// loopUnderLabel walks past any Label frames stacked directly on top of
// labelIdx to find the loop frame they ultimately label, returning false if
// the labelled statement is not an iteration statement at all (e.g. a
// labelled block or switch) — continue with that label is then illegal.
func (c *Context) loopUnderLabel(labelIdx int) (int, bool) {
	j := labelIdx + 1
	for j < len(c.frames) && c.frames[j].Kind == KindLabel {
		j++
	}
	if j >= len(c.frames) {
		return 0, false
	}
	switch c.frames[j].Kind {
	case KindDoWhile, KindWhile, KindFor, KindForIn:
		return j, true
	default:
		return 0, false
	}
}

func exitOp(crossedContext bool) cbc.Opcode {
	if crossedContext {
		return cbc.JumpForwardExitContext
	}
	return cbc.JumpForward
}

// parseBreakStatement implements the restricted production: a newline
// between 'break' and a following identifier ends the statement there (ASI),
// so the identifier is not consumed as a label.
func (c *Context) parseBreakStatement() *diagnostics.ParseError {
	tok := c.cur
	c.advance()

	if c.curIs(token.IDENT) && !c.cur.NewlineBefore {
		name := c.cur.Lexeme
		c.advance()
		idx, crossed, ok := c.findLabel(name)
		if !ok {
			return c.raise(diagnostics.InvalidBreak, "L010", "undefined label %q", name)
		}
		h := c.Emit.EmitCbcForwardBranch(exitOp(crossed), tok.Line, tok.Column)
		c.frames[idx].Loop.Breaks.Push(h)
		return c.consumeStatementTerminator()
	}

	idx, crossed, ok := c.innermostLoop()
	if !ok {
		return c.raise(diagnostics.InvalidBreak, "L011", "illegal break statement outside of a loop or switch")
	}
	h := c.Emit.EmitCbcForwardBranch(exitOp(crossed), tok.Line, tok.Column)
	c.frames[idx].Loop.Breaks.Push(h)
	return c.consumeStatementTerminator()
}

func (c *Context) parseContinueStatement() *diagnostics.ParseError {
	tok := c.cur
	c.advance()

	if c.curIs(token.IDENT) && !c.cur.NewlineBefore {
		name := c.cur.Lexeme
		c.advance()
		labelIdx, crossed, ok := c.findLabel(name)
		if !ok {
			return c.raise(diagnostics.InvalidContinue, "L020", "undefined label %q", name)
		}
		loopIdx, ok := c.loopUnderLabel(labelIdx)
		if !ok {
			return c.raise(diagnostics.InvalidContinueLabel, "L021", "label %q does not label a loop", name)
		}
		h := c.Emit.EmitCbcForwardBranch(exitOp(crossed), tok.Line, tok.Column)
		c.frames[loopIdx].Loop.Continues.PushContinue(h)
		return c.consumeStatementTerminator()
	}

	idx, crossed, ok := c.innermostContinuableLoop()
	if !ok {
		return c.raise(diagnostics.InvalidContinue, "L022", "illegal continue statement outside of a loop")
	}
	h := c.Emit.EmitCbcForwardBranch(exitOp(crossed), tok.Line, tok.Column)
	c.frames[idx].Loop.Continues.PushContinue(h)
	return c.consumeStatementTerminator()
}
