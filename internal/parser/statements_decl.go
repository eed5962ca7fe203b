package parser

import (
	"github.com/funvibe/cbcjs/internal/cbc"
	"github.com/funvibe/cbcjs/internal/diagnostics"
	"github.com/funvibe/cbcjs/internal/prescan"
	"github.com/funvibe/cbcjs/internal/token"
)

// parseVarDeclarationList parses `var` followed by a comma-separated list of
// bindings, each with an optional initializer. It consumes the leading 'var'
// keyword itself so the classic for-loop's init clause can call it directly
// on seeing KEYW_VAR.
func (c *Context) parseVarDeclarationList() *diagnostics.ParseError {
	c.advance() // consume 'var'
	for {
		if !c.curIs(token.IDENT) {
			return c.raise(diagnostics.InvalidExpression, "E040", "expected identifier after 'var'")
		}
		name := c.cur.Lexeme
		nameTok := c.cur
		c.advance()

		if c.curIs(token.ASSIGN) {
			c.advance()
			if err := c.parseAssignmentExpression(); err != nil {
				return err
			}
			idx := c.Emit.AddLiteral(cbc.Literal{Kind: cbc.LiteralIdent, Value: name, Flags: cbc.FlagVar})
			c.Emit.EmitCbcLiteral(cbc.AssignIdent, idx, nameTok.Line, nameTok.Column)
			c.Emit.EmitCbc(cbc.Pop, nameTok.Line, nameTok.Column)
		} else {
			// No initializer: the binding still needs to exist in the literal
			// pool so later references resolve, even though nothing is
			// assigned at this point.
			c.Emit.AddLiteral(cbc.Literal{Kind: cbc.LiteralIdent, Value: name, Flags: cbc.FlagVar})
		}

		if !c.curIs(token.COMMA) {
			break
		}
		c.advance()
	}
	return nil
}

func (c *Context) parseVarStatement() *diagnostics.ParseError {
	if err := c.parseVarDeclarationList(); err != nil {
		return err
	}
	return c.consumeStatementTerminator()
}

// parseFunctionDeclaration binds the compiled closure to its name
// immediately at the point it is encountered. This compiler makes no
// separate hoisting pass over a block's statements before compiling them, so
// unlike real engines a function declaration is not yet callable from code
// that lexically precedes it in the same block.
func (c *Context) parseFunctionDeclaration() *diagnostics.ParseError {
	funcTok := c.cur
	c.advance() // consume 'function'
	if !c.curIs(token.IDENT) {
		return c.raise(diagnostics.InvalidExpression, "E041", "expected function name")
	}
	name := c.cur.Lexeme
	c.advance()

	code, err := c.parseFunctionRest()
	if err != nil {
		return err
	}
	idx := c.Emit.AddLiteral(cbc.Literal{Kind: cbc.LiteralFunction, Value: code})
	c.Emit.EmitCbcLiteral(cbc.PushClosure, idx, funcTok.Line, funcTok.Column)
	identIdx := c.Emit.AddLiteral(cbc.Literal{Kind: cbc.LiteralIdent, Value: name, Flags: cbc.FlagVar})
	c.Emit.EmitCbcLiteral(cbc.AssignIdent, identIdx, funcTok.Line, funcTok.Column)
	c.Emit.EmitCbc(cbc.Pop, funcTok.Line, funcTok.Column)
	return nil
}

func (c *Context) parseFunctionExpression() (target, *diagnostics.ParseError) {
	funcTok := c.cur
	c.advance() // consume 'function'
	if c.curIs(token.IDENT) {
		c.advance() // named function expressions: the name is not yet bound
		// inside its own body by this compiler (no inner-scope self-binding
		// pass), only usable from the enclosing scope once assigned.
	}
	code, err := c.parseFunctionRest()
	if err != nil {
		return target{}, err
	}
	idx := c.Emit.AddLiteral(cbc.Literal{Kind: cbc.LiteralFunction, Value: code})
	c.Emit.EmitCbcLiteral(cbc.PushClosure, idx, funcTok.Line, funcTok.Column)
	return target{}, nil
}

// parseFunctionRest parses the parameter list and body shared by function
// declarations and expressions. The body is compiled by its own Context and
// Emitter, sharing this Context's lexer so the token stream continues
// unbroken; once the inner parse returns, this Context's cursor is
// resynchronized from the inner one before continuing.
func (c *Context) parseFunctionRest() (*cbc.CompiledCode, *diagnostics.ParseError) {
	if err := c.expect(token.LPAREN, "E042"); err != nil {
		return nil, err
	}
	var params []string
	for !c.curIs(token.RPAREN) {
		if !c.curIs(token.IDENT) {
			return nil, c.raise(diagnostics.InvalidExpression, "E043", "expected parameter name")
		}
		params = append(params, c.cur.Lexeme)
		c.advance()
		if c.curIs(token.COMMA) {
			c.advance()
			continue
		}
		break
	}
	if err := c.expect(token.RPAREN, "E044"); err != nil {
		return nil, err
	}
	if err := c.expect(token.LBRACE, "E045"); err != nil {
		return nil, err
	}

	innerEmit := cbc.NewEmitter()
	if c.forceFullLit {
		innerEmit.SetFullLiteralEncoding()
	}
	inner := &Context{
		lex:          c.lex,
		scanner:      prescan.New(c.lex),
		Emit:         innerEmit,
		goal:         GoalFunction,
		strict:       c.strict,
		funcDepth:    c.funcDepth + 1,
		forceFullLit: c.forceFullLit,
	}
	for _, p := range params {
		inner.Emit.AddLiteral(cbc.Literal{Kind: cbc.LiteralIdent, Value: p, Flags: cbc.FlagVar})
	}
	inner.cur = c.cur
	inner.pushFrame(frame{Kind: KindStart})
	if err := inner.parseDirectivePrologue(); err != nil {
		c.cur = inner.cur
		return nil, err
	}

	for !inner.curIs(token.RBRACE) && !inner.curIs(token.EOS) {
		if err := inner.parseStatement(); err != nil {
			c.cur = inner.cur
			return nil, err
		}
		if err := inner.runStatementTerminatorLoop(); err != nil {
			c.cur = inner.cur
			return nil, err
		}
	}
	if err := inner.expect(token.RBRACE, "E046"); err != nil {
		c.cur = inner.cur
		return nil, err
	}
	inner.popFrame()

	inner.Emit.EmitCbc(cbc.ReturnUndefined, inner.cur.Line, inner.cur.Column)
	inner.Emit.FlushCbc()
	c.cur = inner.cur

	code := inner.Emit.Code()
	code.Header.ArgumentEnd = uint16(len(params))
	code.Header.RegisterEnd = code.Header.ArgumentEnd
	code.Header.IdentEnd = uint16(len(code.Literals))
	code.Header.ConstLiteralEnd = uint16(len(code.Literals))
	code.Header.LiteralEnd = uint16(len(code.Literals))
	if inner.strict {
		code.Header.StatusFlags |= cbc.StrictMode
	}
	code.Header.CodeSize = uint32(len(code.Code))
	return code, nil
}
