package parser

import (
	"github.com/funvibe/cbcjs/internal/cbc"
	"github.com/funvibe/cbcjs/internal/diagnostics"
	"github.com/funvibe/cbcjs/internal/token"
)

// parseIfStatement pushes a forward BranchIfFalseForward over the then-body.
// The statement-terminator loop (parser.go) inspects the lookahead after the
// then-body ends: on 'else' it bridges with an unconditional jump and retags
// the frame If -> Else; otherwise it patches the branch here and pops.
func (c *Context) parseIfStatement() *diagnostics.ParseError {
	ifTok := c.cur
	c.advance()
	if err := c.expect(token.LPAREN, "G010"); err != nil {
		return err
	}
	if err := c.parseExpression(); err != nil {
		return err
	}
	if err := c.expect(token.RPAREN, "G011"); err != nil {
		return err
	}

	h := c.Emit.EmitCbcForwardBranch(cbc.BranchIfFalseForward, ifTok.Line, ifTok.Column)
	c.pushFrame(frame{Kind: KindIf, End: h})

	return c.parseStatement()
}

// enterElse bridges past the else-body with an unconditional JumpForward,
// patches the original BranchIfFalseForward to land just after that jump
// (i.e. at the start of the else-body), swaps in the new branch, and retags
// the frame If -> Else.
func (c *Context) enterElse() *diagnostics.ParseError {
	f := c.popFrame()
	elseTok := c.cur
	c.advance() // consume 'else'

	bridge := c.Emit.EmitCbcForwardBranch(cbc.JumpForward, elseTok.Line, elseTok.Column)
	c.Emit.SetBranchToCurrentPosition(f.End)
	c.pushFrame(frame{Kind: KindElse, End: bridge})

	return c.parseStatement()
}
