package parser

import (
	"github.com/funvibe/cbcjs/internal/cbc"
	"github.com/funvibe/cbcjs/internal/diagnostics"
	"github.com/funvibe/cbcjs/internal/token"
)

// parseReturnStatement applies the restricted production: a line terminator
// between 'return' and an expression ends the statement there with an
// implicit undefined, the same ASI rule break/continue apply to their label.
func (c *Context) parseReturnStatement() *diagnostics.ParseError {
	tok := c.cur
	if c.funcDepth == 0 {
		return c.raise(diagnostics.ReturnOutsideFunction, "R001", "'return' outside of a function")
	}
	c.advance()

	if c.cur.NewlineBefore || c.curIs(token.SEMICOLON) || c.curIs(token.RBRACE) || c.curIs(token.EOS) {
		c.Emit.EmitCbc(cbc.ReturnUndefined, tok.Line, tok.Column)
		return c.consumeStatementTerminator()
	}

	if err := c.parseExpression(); err != nil {
		return err
	}
	c.Emit.EmitCbc(cbc.Return, tok.Line, tok.Column)
	return c.consumeStatementTerminator()
}

// parseThrowStatement applies the opposite restricted production from
// return: a line terminator right after 'throw' is a syntax error, not an
// empty throw.
func (c *Context) parseThrowStatement() *diagnostics.ParseError {
	tok := c.cur
	c.advance()
	if c.cur.NewlineBefore {
		return c.raise(diagnostics.UnexpectedToken, "R010", "no line break allowed between 'throw' and its expression")
	}
	if err := c.parseExpression(); err != nil {
		return err
	}
	c.Emit.EmitCbc(cbc.Throw, tok.Line, tok.Column)
	return c.consumeStatementTerminator()
}
