package parser

import (
	"strconv"

	"github.com/funvibe/cbcjs/internal/cbc"
	"github.com/funvibe/cbcjs/internal/diagnostics"
	"github.com/funvibe/cbcjs/internal/token"
)

// targetKind tags what, if anything, an expression parse left available as
// an assignment target instead of a fully materialized value.
type targetKind uint8

const (
	targetNone targetKind = iota
	targetIdent
	targetDotProp
	targetComputedProp
)

// target describes a deferred assignment target: for targetIdent, nothing
// has been pushed yet and ident names the binding directly (AssignIdent
// carries it inline); for targetDotProp, the object is already on the stack
// and ident names the literal property; for targetComputedProp, both object
// and key are already on the stack. targetNone means the caller already has
// a plain, fully materialized value sitting on the stack.
type target struct {
	kind  targetKind
	ident string
	line  int
	col   int
}

// materialize forces a deferred target into an ordinary value on the stack,
// the way a bare identifier or property access behaves when it turns out not
// to be the left side of an assignment after all.
func (c *Context) materialize(t target) {
	switch t.kind {
	case targetIdent:
		idx := c.Emit.AddLiteral(cbc.Literal{Kind: cbc.LiteralIdent, Value: t.ident})
		c.Emit.EmitCbcLiteral(cbc.PushIdentReference, idx, t.line, t.col)
	case targetDotProp:
		idx := c.Emit.AddLiteral(cbc.Literal{Kind: cbc.LiteralString, Value: t.ident})
		c.Emit.EmitCbcLiteral(cbc.PushPropLiteral, idx, t.line, t.col)
	case targetComputedProp:
		c.Emit.EmitCbc(cbc.PushProp, t.line, t.col)
	}
}

// emitCompoundRead pushes t's current value without discarding the
// target-identifying state still needed for the matching emitAssign: for
// targetIdent there is nothing to preserve (the name is reused inline), for
// targetDotProp the object is duplicated first so one copy survives the read.
func (c *Context) emitCompoundRead(t target, tok token.Token) *diagnostics.ParseError {
	switch t.kind {
	case targetIdent:
		c.materialize(t)
		return nil
	case targetDotProp:
		c.Emit.EmitCbc(cbc.Dup, tok.Line, tok.Column)
		idx := c.Emit.AddLiteral(cbc.Literal{Kind: cbc.LiteralString, Value: t.ident})
		c.Emit.EmitCbcLiteral(cbc.PushPropLiteral, idx, tok.Line, tok.Column)
		return nil
	default:
		return diagnostics.Raise(diagnostics.InvalidExpression, "E050", tok,
			"unsupported compound-assignment target")
	}
}

// emitAssign stores the value currently on top of the stack into t, leaving
// the stored value on the stack (the assignment expression's own value).
func (c *Context) emitAssign(t target, tok token.Token) *diagnostics.ParseError {
	switch t.kind {
	case targetIdent:
		idx := c.Emit.AddLiteral(cbc.Literal{Kind: cbc.LiteralIdent, Value: t.ident})
		c.Emit.EmitCbcLiteral(cbc.AssignIdent, idx, tok.Line, tok.Column)
		return nil
	case targetDotProp:
		idx := c.Emit.AddLiteral(cbc.Literal{Kind: cbc.LiteralString, Value: t.ident})
		c.Emit.EmitCbcLiteral(cbc.AssignPropLiteral, idx, tok.Line, tok.Column)
		return nil
	case targetComputedProp:
		c.Emit.EmitCbc(cbc.AssignProp, tok.Line, tok.Column)
		return nil
	default:
		return diagnostics.Raise(diagnostics.InvalidExpression, "E051", tok, "invalid assignment target")
	}
}

// parseExpression parses a full Expression, including the comma operator:
// every intermediate value is evaluated and discarded except the last.
func (c *Context) parseExpression() *diagnostics.ParseError {
	if err := c.parseAssignmentExpression(); err != nil {
		return err
	}
	for c.curIs(token.COMMA) {
		tok := c.cur
		c.advance()
		c.Emit.EmitCbc(cbc.Pop, tok.Line, tok.Column)
		if err := c.parseAssignmentExpression(); err != nil {
			return err
		}
	}
	return nil
}

var compoundAssignOps = map[token.Kind]cbc.Opcode{
	token.PLUS_ASSIGN:    cbc.Add,
	token.MINUS_ASSIGN:   cbc.Sub,
	token.MUL_ASSIGN:     cbc.Mul,
	token.DIV_ASSIGN:     cbc.Div,
	token.MOD_ASSIGN:     cbc.Mod,
	token.LSHIFT_ASSIGN:  cbc.Lshift,
	token.RSHIFT_ASSIGN:  cbc.Rshift,
	token.URSHIFT_ASSIGN: cbc.Urshift,
	token.AND_ASSIGN:     cbc.BitAnd,
	token.OR_ASSIGN:      cbc.BitOr,
	token.XOR_ASSIGN:     cbc.BitXor,
}

// parseAssignmentExpression always leaves exactly one materialized value on
// the stack; unlike the levels below it, it has no assignment target of its
// own to report upward (JS assignment is not itself a valid target).
func (c *Context) parseAssignmentExpression() *diagnostics.ParseError {
	t, err := c.parseAssignmentExpressionKeepTarget()
	if err != nil {
		return err
	}
	c.materialize(t)
	return nil
}

// parseAssignmentExpressionKeepTarget is parseAssignmentExpression's core:
// it only materializes eagerly along the assignment paths (which always
// leave the stored value on the stack already); a bare pass-through with no
// assignment operator is left deferred, so a parenthesized single
// identifier or property access — `(x) = 1` is legal JS — still reports as
// assignable to its caller.
func (c *Context) parseAssignmentExpressionKeepTarget() (target, *diagnostics.ParseError) {
	left, err := c.parseConditionalExpression()
	if err != nil {
		return target{}, err
	}

	if c.curIs(token.ASSIGN) {
		if left.kind == targetNone {
			return target{}, c.raise(diagnostics.InvalidExpression, "E052", "invalid assignment target")
		}
		tok := c.cur
		c.advance()
		if err := c.parseAssignmentExpression(); err != nil {
			return target{}, err
		}
		return target{}, c.emitAssign(left, tok)
	}

	if op, ok := compoundAssignOps[c.cur.Type]; ok {
		if left.kind == targetNone {
			return target{}, c.raise(diagnostics.InvalidExpression, "E053", "invalid assignment target")
		}
		tok := c.cur
		c.advance()
		if err := c.emitCompoundRead(left, tok); err != nil {
			return target{}, err
		}
		if err := c.parseAssignmentExpression(); err != nil {
			return target{}, err
		}
		c.Emit.EmitCbc(op, tok.Line, tok.Column)
		return target{}, c.emitAssign(left, tok)
	}

	return left, nil
}

// parseConditionalExpression handles the ternary operator; both branches are
// AssignmentExpressions per grammar, so neither is itself reusable as a
// target once a '?' has been seen.
func (c *Context) parseConditionalExpression() (target, *diagnostics.ParseError) {
	left, err := c.parseLogicalOrExpression()
	if err != nil {
		return target{}, err
	}
	if !c.curIs(token.QUESTION) {
		return left, nil
	}
	c.materialize(left)
	tok := c.cur
	c.advance()

	skipThen := c.Emit.EmitCbcForwardBranch(cbc.BranchIfFalseForward, tok.Line, tok.Column)
	if err := c.parseAssignmentExpression(); err != nil {
		return target{}, err
	}
	if err := c.expect(token.COLON, "E016"); err != nil {
		return target{}, err
	}
	skipElse := c.Emit.EmitCbcForwardBranch(cbc.JumpForward, tok.Line, tok.Column)
	c.Emit.SetBranchToCurrentPosition(skipThen)
	if err := c.parseAssignmentExpression(); err != nil {
		return target{}, err
	}
	c.Emit.SetBranchToCurrentPosition(skipElse)
	return target{}, nil
}

// parseLogicalOrExpression short-circuits: a truthy left operand skips the
// right operand entirely, the duplicated copy of left becoming the result.
func (c *Context) parseLogicalOrExpression() (target, *diagnostics.ParseError) {
	left, err := c.parseLogicalAndExpression()
	if err != nil {
		return target{}, err
	}
	if !c.curIs(token.LOGICAL_OR) {
		return left, nil
	}
	c.materialize(left)
	for c.curIs(token.LOGICAL_OR) {
		tok := c.cur
		c.advance()
		c.Emit.EmitCbc(cbc.Dup, tok.Line, tok.Column)
		skip := c.Emit.EmitCbcForwardBranch(cbc.BranchIfTrueForward, tok.Line, tok.Column)
		c.Emit.EmitCbc(cbc.Pop, tok.Line, tok.Column)
		right, err := c.parseLogicalAndExpression()
		if err != nil {
			return target{}, err
		}
		c.materialize(right)
		c.Emit.SetBranchToCurrentPosition(skip)
	}
	return target{}, nil
}

func (c *Context) parseLogicalAndExpression() (target, *diagnostics.ParseError) {
	left, err := c.parseBitOrExpression()
	if err != nil {
		return target{}, err
	}
	if !c.curIs(token.LOGICAL_AND) {
		return left, nil
	}
	c.materialize(left)
	for c.curIs(token.LOGICAL_AND) {
		tok := c.cur
		c.advance()
		c.Emit.EmitCbc(cbc.Dup, tok.Line, tok.Column)
		skip := c.Emit.EmitCbcForwardBranch(cbc.BranchIfFalseForward, tok.Line, tok.Column)
		c.Emit.EmitCbc(cbc.Pop, tok.Line, tok.Column)
		right, err := c.parseBitOrExpression()
		if err != nil {
			return target{}, err
		}
		c.materialize(right)
		c.Emit.SetBranchToCurrentPosition(skip)
	}
	return target{}, nil
}

// parseBinaryLeft folds the common left-associative binary-operator pattern
// shared by every precedence level from bitwise-or down to multiplicative:
// parse one operand via next, and so long as the current token matches,
// materialize both sides and fold in the operator.
func (c *Context) parseBinaryLeft(next func() (target, *diagnostics.ParseError), match func(token.Kind) (cbc.Opcode, bool)) (target, *diagnostics.ParseError) {
	left, err := next()
	if err != nil {
		return target{}, err
	}
	for {
		op, ok := match(c.cur.Type)
		if !ok {
			return left, nil
		}
		c.materialize(left)
		tok := c.cur
		c.advance()
		right, err := next()
		if err != nil {
			return target{}, err
		}
		c.materialize(right)
		c.Emit.EmitCbc(op, tok.Line, tok.Column)
		left = target{}
	}
}

func (c *Context) parseBitOrExpression() (target, *diagnostics.ParseError) {
	return c.parseBinaryLeft(c.parseBitXorExpression, func(k token.Kind) (cbc.Opcode, bool) {
		if k == token.BIT_OR {
			return cbc.BitOr, true
		}
		return 0, false
	})
}

func (c *Context) parseBitXorExpression() (target, *diagnostics.ParseError) {
	return c.parseBinaryLeft(c.parseBitAndExpression, func(k token.Kind) (cbc.Opcode, bool) {
		if k == token.BIT_XOR {
			return cbc.BitXor, true
		}
		return 0, false
	})
}

func (c *Context) parseBitAndExpression() (target, *diagnostics.ParseError) {
	return c.parseBinaryLeft(c.parseEqualityExpression, func(k token.Kind) (cbc.Opcode, bool) {
		if k == token.BIT_AND {
			return cbc.BitAnd, true
		}
		return 0, false
	})
}

func (c *Context) parseEqualityExpression() (target, *diagnostics.ParseError) {
	return c.parseBinaryLeft(c.parseRelationalExpression, func(k token.Kind) (cbc.Opcode, bool) {
		switch k {
		case token.EQ:
			return cbc.Equal, true
		case token.NOT_EQ:
			return cbc.NotEqual, true
		case token.STRICT_EQ:
			return cbc.StrictEqual, true
		case token.STRICT_NOT_EQ:
			return cbc.StrictNotEqual, true
		}
		return 0, false
	})
}

func (c *Context) parseRelationalExpression() (target, *diagnostics.ParseError) {
	return c.parseBinaryLeft(c.parseShiftExpression, func(k token.Kind) (cbc.Opcode, bool) {
		switch k {
		case token.LT:
			return cbc.Less, true
		case token.GT:
			return cbc.Greater, true
		case token.LTE:
			return cbc.LessEqual, true
		case token.GTE:
			return cbc.GreaterEqual, true
		case token.KEYW_INSTANCEOF:
			return cbc.InstanceOf, true
		case token.KEYW_IN:
			return cbc.In, true
		}
		return 0, false
	})
}

func (c *Context) parseShiftExpression() (target, *diagnostics.ParseError) {
	return c.parseBinaryLeft(c.parseAdditiveExpression, func(k token.Kind) (cbc.Opcode, bool) {
		switch k {
		case token.LSHIFT:
			return cbc.Lshift, true
		case token.RSHIFT:
			return cbc.Rshift, true
		case token.URSHIFT:
			return cbc.Urshift, true
		}
		return 0, false
	})
}

func (c *Context) parseAdditiveExpression() (target, *diagnostics.ParseError) {
	return c.parseBinaryLeft(c.parseMultiplicativeExpression, func(k token.Kind) (cbc.Opcode, bool) {
		switch k {
		case token.PLUS:
			return cbc.Add, true
		case token.MINUS:
			return cbc.Sub, true
		}
		return 0, false
	})
}

func (c *Context) parseMultiplicativeExpression() (target, *diagnostics.ParseError) {
	return c.parseBinaryLeft(c.parseUnaryExpression, func(k token.Kind) (cbc.Opcode, bool) {
		switch k {
		case token.MUL:
			return cbc.Mul, true
		case token.DIV:
			return cbc.Div, true
		case token.MOD:
			return cbc.Mod, true
		}
		return 0, false
	})
}

var unaryOpcodes = map[token.Kind]cbc.Opcode{
	token.LOGICAL_NOT: cbc.LogicalNot,
	token.BIT_NOT:     cbc.BitNot,
	token.PLUS:        cbc.Plus,
	token.MINUS:       cbc.Negate,
	token.KEYW_TYPEOF:  cbc.Typeof,
	token.KEYW_VOID:    cbc.Void,
}

func (c *Context) parseUnaryExpression() (target, *diagnostics.ParseError) {
	switch c.cur.Type {
	case token.LOGICAL_NOT, token.BIT_NOT, token.PLUS, token.MINUS, token.KEYW_TYPEOF, token.KEYW_VOID:
		tok := c.cur
		c.advance()
		operand, err := c.parseUnaryExpression()
		if err != nil {
			return target{}, err
		}
		c.materialize(operand)
		c.Emit.EmitCbc(unaryOpcodes[tok.Type], tok.Line, tok.Column)
		return target{}, nil
	case token.KEYW_DELETE:
		tok := c.cur
		c.advance()
		operand, err := c.parseUnaryExpression()
		if err != nil {
			return target{}, err
		}
		// No opcode in this instruction set actually removes a property; a
		// delete expression is evaluated for side effects and always yields
		// true, matching the non-strict-mode common case.
		c.materialize(operand)
		c.Emit.EmitCbc(cbc.Pop, tok.Line, tok.Column)
		c.Emit.EmitCbc(cbc.PushTrue, tok.Line, tok.Column)
		return target{}, nil
	case token.INCR, token.DECR:
		return c.parsePrefixIncrDecr()
	default:
		return c.parsePostfixExpression()
	}
}

func (c *Context) parsePrefixIncrDecr() (target, *diagnostics.ParseError) {
	tok := c.cur
	c.advance()
	t, err := c.parseUnaryExpression()
	if err != nil {
		return target{}, err
	}
	if t.kind == targetNone {
		return target{}, c.raise(diagnostics.InvalidExpression, "E054", "invalid increment/continue target")
	}
	if err := c.emitCompoundRead(t, tok); err != nil {
		return target{}, err
	}
	idx := c.Emit.AddLiteral(cbc.Literal{Kind: cbc.LiteralNumber, Value: float64(1)})
	c.Emit.EmitCbcLiteral(cbc.PushLiteral, idx, tok.Line, tok.Column)
	op := cbc.Add
	if tok.Type == token.DECR {
		op = cbc.Sub
	}
	c.Emit.EmitCbc(op, tok.Line, tok.Column)
	if err := c.emitAssign(t, tok); err != nil {
		return target{}, err
	}
	return target{}, nil
}

// parsePostfixExpression handles trailing ++/-- (identifier targets only —
// see emitCompoundRead's dot-prop path, which reads through a Dup'd object
// but has no spare stack slot to also preserve the pre-increment value the
// way postfix semantics require; callers needing postfix on a property are
// asked to rewrite as `x.y = x.y + 1`).
func (c *Context) parsePostfixExpression() (target, *diagnostics.ParseError) {
	t, err := c.parseLeftHandSideExpression()
	if err != nil {
		return target{}, err
	}
	if (c.curIs(token.INCR) || c.curIs(token.DECR)) && !c.cur.NewlineBefore {
		tok := c.cur
		c.advance()
		if t.kind != targetIdent {
			return target{}, c.raise(diagnostics.InvalidExpression, "E055", "postfix ++/-- requires a plain variable target")
		}
		idx := c.Emit.AddLiteral(cbc.Literal{Kind: cbc.LiteralIdent, Value: t.ident})
		c.Emit.EmitCbcLiteral(cbc.PushIdentReference, idx, tok.Line, tok.Column)
		c.Emit.EmitCbc(cbc.Dup, tok.Line, tok.Column)
		litIdx := c.Emit.AddLiteral(cbc.Literal{Kind: cbc.LiteralNumber, Value: float64(1)})
		c.Emit.EmitCbcLiteral(cbc.PushLiteral, litIdx, tok.Line, tok.Column)
		op := cbc.Add
		if tok.Type == token.DECR {
			op = cbc.Sub
		}
		c.Emit.EmitCbc(op, tok.Line, tok.Column)
		identIdx := c.Emit.AddLiteral(cbc.Literal{Kind: cbc.LiteralIdent, Value: t.ident})
		c.Emit.EmitCbcLiteral(cbc.AssignIdent, identIdx, tok.Line, tok.Column)
		c.Emit.EmitCbc(cbc.Pop, tok.Line, tok.Column)
		return target{}, nil
	}
	return t, nil
}

// parseLeftHandSideExpression handles new/call/member chains. Every segment
// but the last is materialized immediately (it must be, to serve as the base
// for the next segment); the last is left deferred in case the caller turns
// out to need it as an assignment target instead of a read.
func (c *Context) parseLeftHandSideExpression() (target, *diagnostics.ParseError) {
	var t target
	var err *diagnostics.ParseError
	if c.curIs(token.KEYW_NEW) {
		t, err = c.parseNewExpression()
	} else {
		t, err = c.parsePrimaryExpression()
	}
	if err != nil {
		return target{}, err
	}

	for {
		switch c.cur.Type {
		case token.DOT:
			c.materialize(t)
			tok := c.cur
			c.cur = c.lex.ScanIdentifier() // keywords are plain names after '.'
			if !c.curIs(token.IDENT) {
				return target{}, c.raise(diagnostics.InvalidExpression, "E017", "expected property name after '.'")
			}
			name := c.cur.Lexeme
			c.advance()
			t = target{kind: targetDotProp, ident: name, line: tok.Line, col: tok.Column}
		case token.LBRACKET:
			c.materialize(t)
			tok := c.cur
			c.advance()
			if err := c.parseExpression(); err != nil {
				return target{}, err
			}
			if err := c.expect(token.RBRACKET, "E018"); err != nil {
				return target{}, err
			}
			t = target{kind: targetComputedProp, line: tok.Line, col: tok.Column}
		case token.LPAREN:
			c.materialize(t)
			tok := c.cur
			c.advance()
			argc := 0
			if !c.curIs(token.RPAREN) {
				for {
					if err := c.parseAssignmentExpression(); err != nil {
						return target{}, err
					}
					argc++
					if argc > 255 {
						return target{}, c.raise(diagnostics.InvalidExpression, "E019", "too many call arguments")
					}
					if !c.curIs(token.COMMA) {
						break
					}
					c.advance()
				}
			}
			if err := c.expect(token.RPAREN, "E020"); err != nil {
				return target{}, err
			}
			c.Emit.EmitCbcByte(cbc.Call, byte(argc), tok.Line, tok.Column)
			t = target{}
		default:
			return t, nil
		}
	}
}

// parseNewExpression parses `new Callee(args)`, pushing Callee, then each
// argument, then New with the argument count — symmetric with Call.
func (c *Context) parseNewExpression() (target, *diagnostics.ParseError) {
	tok := c.cur
	c.advance()
	callee, err := c.parseLeftHandSideExpressionNoCall()
	if err != nil {
		return target{}, err
	}
	c.materialize(callee)
	argc := 0
	if c.curIs(token.LPAREN) {
		c.advance()
		if !c.curIs(token.RPAREN) {
			for {
				if err := c.parseAssignmentExpression(); err != nil {
					return target{}, err
				}
				argc++
				if !c.curIs(token.COMMA) {
					break
				}
				c.advance()
			}
		}
		if err := c.expect(token.RPAREN, "E021"); err != nil {
			return target{}, err
		}
	}
	c.Emit.EmitCbcByte(cbc.New, byte(argc), tok.Line, tok.Column)
	return target{}, nil
}

// parseLeftHandSideExpressionNoCall parses a MemberExpression (dot/bracket
// chains only, no call) — `new`'s callee binds tighter than a call, so in
// `new a.b(c)` the callee is `a.b` and `(c)` is the argument list of the
// `new` itself, not a call of `a.b`.
func (c *Context) parseLeftHandSideExpressionNoCall() (target, *diagnostics.ParseError) {
	var t target
	var err *diagnostics.ParseError
	if c.curIs(token.KEYW_NEW) {
		t, err = c.parseNewExpression()
	} else {
		t, err = c.parsePrimaryExpression()
	}
	if err != nil {
		return target{}, err
	}
	for {
		switch c.cur.Type {
		case token.DOT:
			c.materialize(t)
			tok := c.cur
			c.cur = c.lex.ScanIdentifier() // keywords are plain names after '.'
			if !c.curIs(token.IDENT) {
				return target{}, c.raise(diagnostics.InvalidExpression, "E022", "expected property name after '.'")
			}
			name := c.cur.Lexeme
			c.advance()
			t = target{kind: targetDotProp, ident: name, line: tok.Line, col: tok.Column}
		case token.LBRACKET:
			c.materialize(t)
			tok := c.cur
			c.advance()
			if err := c.parseExpression(); err != nil {
				return target{}, err
			}
			if err := c.expect(token.RBRACKET, "E023"); err != nil {
				return target{}, err
			}
			t = target{kind: targetComputedProp, line: tok.Line, col: tok.Column}
		default:
			return t, nil
		}
	}
}

func (c *Context) parsePrimaryExpression() (target, *diagnostics.ParseError) {
	tok := c.cur
	switch tok.Type {
	case token.IDENT:
		c.advance()
		return target{kind: targetIdent, ident: tok.Lexeme, line: tok.Line, col: tok.Column}, nil
	case token.NUMBER:
		c.advance()
		n, perr := strconv.ParseFloat(tok.Literal, 64)
		if perr != nil {
			n = 0
		}
		idx := c.Emit.AddLiteral(cbc.Literal{Kind: cbc.LiteralNumber, Value: n})
		c.Emit.EmitCbcLiteral(cbc.PushLiteral, idx, tok.Line, tok.Column)
		return target{}, nil
	case token.STRING:
		c.advance()
		idx := c.Emit.AddLiteral(cbc.Literal{Kind: cbc.LiteralString, Value: tok.Literal})
		c.Emit.EmitCbcLiteral(cbc.PushLiteral, idx, tok.Line, tok.Column)
		return target{}, nil
	case token.REGEXP:
		c.advance()
		idx := c.Emit.AddLiteral(cbc.Literal{Kind: cbc.LiteralRegexp, Value: tok.Literal})
		c.Emit.EmitCbcLiteral(cbc.PushLiteral, idx, tok.Line, tok.Column)
		return target{}, nil
	case token.KEYW_TRUE:
		c.advance()
		c.Emit.EmitCbc(cbc.PushTrue, tok.Line, tok.Column)
		return target{}, nil
	case token.KEYW_FALSE:
		c.advance()
		c.Emit.EmitCbc(cbc.PushFalse, tok.Line, tok.Column)
		return target{}, nil
	case token.KEYW_NULL:
		c.advance()
		c.Emit.EmitCbc(cbc.PushNull, tok.Line, tok.Column)
		return target{}, nil
	case token.KEYW_THIS:
		c.advance()
		c.Emit.EmitCbc(cbc.PushThis, tok.Line, tok.Column)
		return target{}, nil
	case token.KEYW_FUNCTION:
		return c.parseFunctionExpression()
	case token.LPAREN:
		c.advance()
		t, err := c.parseConditionalOrAssignmentGroup()
		if err != nil {
			return target{}, err
		}
		if err := c.expect(token.RPAREN, "E024"); err != nil {
			return target{}, err
		}
		return t, nil
	case token.LBRACKET:
		return c.parseArrayLiteral()
	case token.LBRACE:
		return c.parseObjectLiteral()
	default:
		return target{}, c.raise(diagnostics.InvalidExpression, "E025", "unexpected token %q in expression", tok.Lexeme)
	}
}

// parseConditionalOrAssignmentGroup parses a full parenthesized Expression,
// returning a target only when it collapses to a single identifier or
// property access with no comma — `(x) = 1` is legal JS, `(x, y) = 1` is not.
func (c *Context) parseConditionalOrAssignmentGroup() (target, *diagnostics.ParseError) {
	t, err := c.parseAssignmentExpressionKeepTarget()
	if err != nil {
		return target{}, err
	}
	if c.curIs(token.COMMA) {
		c.materialize(t)
		if err := c.parseExpressionTail(); err != nil {
			return target{}, err
		}
		return target{}, nil
	}
	return t, nil
}

// parseExpressionTail consumes any remaining comma-operator items after the
// first AssignmentExpression inside a parenthesized group has already been
// materialized by the caller.
func (c *Context) parseExpressionTail() *diagnostics.ParseError {
	for c.curIs(token.COMMA) {
		tok := c.cur
		c.advance()
		c.Emit.EmitCbc(cbc.Pop, tok.Line, tok.Column)
		if err := c.parseAssignmentExpression(); err != nil {
			return err
		}
	}
	return nil
}

func (c *Context) parseArrayLiteral() (target, *diagnostics.ParseError) {
	tok := c.cur
	c.advance()
	count := 0
	for !c.curIs(token.RBRACKET) {
		if err := c.parseAssignmentExpression(); err != nil {
			return target{}, err
		}
		count++
		if count > 255 {
			return target{}, c.raise(diagnostics.InvalidExpression, "E026", "array literal too large")
		}
		if c.curIs(token.COMMA) {
			c.advance()
			continue
		}
		break
	}
	if err := c.expect(token.RBRACKET, "E027"); err != nil {
		return target{}, err
	}
	c.Emit.EmitCbcByte(cbc.ArrayLiteral, byte(count), tok.Line, tok.Column)
	return target{}, nil
}

func (c *Context) parseObjectLiteral() (target, *diagnostics.ParseError) {
	tok := c.cur
	c.advance()
	count := 0
	for !c.curIs(token.RBRACE) {
		var keyIdx int
		switch {
		case c.curIs(token.IDENT):
			keyIdx = c.Emit.AddLiteral(cbc.Literal{Kind: cbc.LiteralString, Value: c.cur.Lexeme})
			c.advance()
		case c.curIs(token.STRING):
			keyIdx = c.Emit.AddLiteral(cbc.Literal{Kind: cbc.LiteralString, Value: c.cur.Literal})
			c.advance()
		case c.curIs(token.NUMBER):
			keyIdx = c.Emit.AddLiteral(cbc.Literal{Kind: cbc.LiteralString, Value: c.cur.Lexeme})
			c.advance()
		default:
			return target{}, c.raise(diagnostics.InvalidExpression, "E028", "expected property name in object literal")
		}
		if err := c.expect(token.COLON, "E029"); err != nil {
			return target{}, err
		}
		c.Emit.EmitCbcLiteral(cbc.PushLiteral, keyIdx, tok.Line, tok.Column)
		if err := c.parseAssignmentExpression(); err != nil {
			return target{}, err
		}
		count++
		if count > 255 {
			return target{}, c.raise(diagnostics.InvalidExpression, "E030", "object literal too large")
		}
		if c.curIs(token.COMMA) {
			c.advance()
			continue
		}
		break
	}
	if err := c.expect(token.RBRACE, "E031"); err != nil {
		return target{}, err
	}
	c.Emit.EmitCbcByte(cbc.ObjectLiteral, byte(count), tok.Line, tok.Column)
	return target{}, nil
}
