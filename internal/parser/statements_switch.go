package parser

import (
	"github.com/funvibe/cbcjs/internal/cbc"
	"github.com/funvibe/cbcjs/internal/diagnostics"
	"github.com/funvibe/cbcjs/internal/token"
)

func rangeAtToken(tok token.Token) sourceRange {
	return sourceRange{
		Start: tok.Offset, StartLine: tok.Line, StartCol: tok.Column,
		End: tok.Offset, EndLine: tok.Line, EndCol: tok.Column,
	}
}

// parseSwitchStatement compiles the classic fallthrough form: the
// discriminant is pushed once and Dup'd before each case's strict-equality
// test except the last case's, in source order; ScanSwitchBody first walks the body once (no
// bytecode) to find every case/default label's position, since a case test
// written after a case's own body (lexically) needs its own source range
// re-parsed in a second pass once every test's target position is known —
// the same deferred-range technique the loop statements use, but applied
// per-label instead of per-loop.
func (c *Context) parseSwitchStatement() *diagnostics.ParseError {
	switchTok := c.cur
	c.advance()
	if err := c.expect(token.LPAREN, "W001"); err != nil {
		return err
	}
	if err := c.parseExpression(); err != nil {
		return err
	}
	if err := c.expect(token.RPAREN, "W002"); err != nil {
		return err
	}
	if err := c.expect(token.LBRACE, "W003"); err != nil {
		return err
	}

	bodyStart := c.cur
	labels, closeBrace, serr := c.scanner.ScanSwitchBody(bodyStart)
	if serr != nil {
		return serr
	}

	defaultPos := -1
	lastCaseIdx := -1
	for i, lbl := range labels {
		if lbl.Type == token.KEYW_DEFAULT {
			if defaultPos != -1 {
				return diagnostics.Raise(diagnostics.MultipleDefaults, "W004", lbl, "a switch statement may have only one default clause")
			}
			defaultPos = i
		} else {
			lastCaseIdx = i
		}
	}

	kind := KindSwitchNoDefault
	if defaultPos != -1 {
		kind = KindSwitch
	}
	c.pushFrame(frame{Kind: kind})
	switchIdx := len(c.frames) - 1

	// Phase 1: re-parse each case's guard expression in source order,
	// emitting the Dup+test+forward-branch triple (the last case: the guard
	// and one BranchIfStrictEqual); default gets no test.
	// bodyStarts[i] records where this label's body begins, for phase 2.
	testBranches := make([]cbc.BranchHandle, len(labels))
	bodyStarts := make([]token.Token, len(labels))

	for i, lbl := range labels {
		c.seekTo(rangeAtToken(lbl))
		if lbl.Type == token.KEYW_DEFAULT {
			c.advance() // 'default'
			if err := c.expect(token.COLON, "W005"); err != nil {
				return err
			}
			bodyStarts[i] = c.cur
			continue
		}
		c.advance() // 'case'
		// The last case tested needs no Dup: BRANCH_IF_STRICT_EQUAL consumes
		// the discriminant and the test value itself, comparing them
		// directly, and restores the discriminant only on a miss (there is
		// no further case test left to need a spare copy on a hit).
		isLastCase := i == lastCaseIdx
		if !isLastCase {
			c.Emit.EmitCbc(cbc.Dup, lbl.Line, lbl.Column)
		}
		if err := c.parseExpression(); err != nil {
			return err
		}
		if isLastCase {
			testBranches[i] = c.Emit.EmitCbcForwardBranch(cbc.BranchIfStrictEqual, lbl.Line, lbl.Column)
		} else {
			c.Emit.EmitCbc(cbc.StrictEqual, lbl.Line, lbl.Column)
			testBranches[i] = c.Emit.EmitCbcForwardBranch(cbc.BranchIfTrueForward, lbl.Line, lbl.Column)
		}
		if err := c.expect(token.COLON, "W006"); err != nil {
			return err
		}
		bodyStarts[i] = c.cur
	}

	// No case matched: either fall into default's body (patched below, in
	// its natural source position) or break out entirely.
	var fallThrough cbc.BranchHandle
	if defaultPos != -1 {
		fallThrough = c.Emit.EmitCbcForwardBranch(cbc.JumpForward, switchTok.Line, switchTok.Column)
	} else {
		h := c.Emit.EmitCbcForwardBranch(cbc.JumpForward, switchTok.Line, switchTok.Column)
		c.frames[switchIdx].Loop.Breaks.Push(h)
	}

	// Phase 2: compile each label's body, in source order, so fallthrough
	// between adjacent cases is just the natural next instruction; patch
	// that label's own forward branch(es) to land exactly here first.
	for i, lbl := range labels {
		if lbl.Type == token.KEYW_DEFAULT {
			c.Emit.SetBranchToCurrentPosition(fallThrough)
		} else if i == lastCaseIdx {
			// A match lands here with the discriminant already gone; a
			// fallthrough from the previous case's body still has it. Pop it
			// here so both routes reach the body statements at the same
			// stack depth, and land the match branch right after this Pop
			// so a match skips it.
			c.Emit.EmitCbc(cbc.Pop, lbl.Line, lbl.Column)
			c.Emit.SetBranchToCurrentPosition(testBranches[i])
		} else {
			c.Emit.SetBranchToCurrentPosition(testBranches[i])
		}

		c.seekTo(rangeAtToken(bodyStarts[i]))
		var bodyEnd token.Token
		if i+1 < len(labels) {
			bodyEnd = labels[i+1]
		} else {
			bodyEnd = closeBrace
		}
		for c.cur.Offset < bodyEnd.Offset && !c.curIs(token.EOS) {
			if err := c.parseStatement(); err != nil {
				return err
			}
			if err := c.runStatementTerminatorLoop(); err != nil {
				return err
			}
		}
	}

	c.seekTo(rangeAtToken(closeBrace))
	if err := c.expect(token.RBRACE, "W007"); err != nil {
		return err
	}

	c.Emit.EmitCbc(cbc.Pop, switchTok.Line, switchTok.Column) // discard the discriminant
	loop := c.popFrame()
	c.Emit.SetBreaksToCurrentPosition(&loop.Loop.Breaks)
	return nil
}
