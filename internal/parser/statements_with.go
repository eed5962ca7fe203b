package parser

import (
	"github.com/funvibe/cbcjs/internal/cbc"
	"github.com/funvibe/cbcjs/internal/diagnostics"
	"github.com/funvibe/cbcjs/internal/token"
)

// parseWithStatement emits EXT_WITH_CREATE_CONTEXT carrying a forward branch
// to the position right after the body, the way parseForInStatement's
// EXT_FOR_IN_CREATE_CONTEXT reserves its own exit target; the terminator
// loop's KindWith case patches it and emits EXT_CONTEXT_END once the single
// statement body ends.
func (c *Context) parseWithStatement() *diagnostics.ParseError {
	if c.strict {
		return c.raise(diagnostics.WithInStrictMode, "W010", "'with' statement is not allowed in strict mode")
	}
	withTok := c.cur
	c.advance()
	if err := c.expect(token.LPAREN, "W011"); err != nil {
		return err
	}
	if err := c.parseExpression(); err != nil {
		return err
	}
	if err := c.expect(token.RPAREN, "W012"); err != nil {
		return err
	}

	end := c.Emit.EmitCbcExtForwardBranch(cbc.ExtWithCreateContext, withTok.Line, withTok.Column)
	c.pushFrame(frame{Kind: KindWith, End: end})
	return c.parseStatement()
}
