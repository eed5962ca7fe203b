package ref

import (
	"math"

	"github.com/funvibe/cbcjs/internal/cbc"
	"github.com/funvibe/cbcjs/internal/cbcvm"
)

// env is a lexical scope: a flat variable map plus a parent link. A 'with'
// scope additionally carries withObj, consulted before vars the way a real
// with-scope shadows the rest of the chain for whatever properties it has.
type env struct {
	vars    map[string]any
	withObj *Object
	parent  *env
}

func newEnv(parent *env) *env {
	return &env{vars: map[string]any{}, parent: parent}
}

func (e *env) lookup(v *Values, name string) (any, bool) {
	for cur := e; cur != nil; cur = cur.parent {
		if cur.withObj != nil && v.HasProp(cur.withObj, name) {
			return cur.withObj.get(name), true
		}
		if val, ok := cur.vars[name]; ok {
			return val, true
		}
	}
	return nil, false
}

func (e *env) assign(name string, val any) {
	for cur := e; cur != nil; cur = cur.parent {
		if cur.withObj != nil && cur.withObj.hasOwn(name) {
			cur.withObj.set(name, val)
			return
		}
		if _, ok := cur.vars[name]; ok {
			cur.vars[name] = val
			return
		}
	}
	root := e
	for root.parent != nil {
		root = root.parent
	}
	root.vars[name] = val
}

func (e *env) declare(name string, val any) {
	if _, ok := e.vars[name]; !ok {
		e.vars[name] = val
	}
}

// thrown carries a 'throw'n value up the Go call stack via panic/recover;
// Interpreter.Run's dispatch loop is the only place that ever recovers one.
type thrown struct {
	value any
}

// forInCursor is the enumeration state EXT_FOR_IN_CREATE_CONTEXT establishes
// and EXT_FOR_IN_GET_NEXT/EXT_BRANCH_IF_FOR_IN_HAS_NEXT walk.
type forInCursor struct {
	keys []string
	idx  int
}

// ctxFrame is what EXT_CONTEXT_END undoes for a for-in or with context; the
// opcode's own byte operand (cbc.CtxForIn/CtxWith) says which cleanup
// applies. Try contexts are tracked separately in tryStack, not here: a
// try's handler is deactivated when control reaches its deactivateAt
// position, and its EXT_CONTEXT_END (cbc.CtxTry) does nothing.
type ctxFrame struct {
	forIn      *forInCursor
	savedScope *env
}

// tryHandler records where the currently-active try's catch handler sits.
// deactivateAt is the position control reaches, by ordinary (non-exception)
// flow, once the try block itself has finished — at that point this handler
// no longer applies to exceptions thrown from further down the same
// straight-line bytecode, since those belong to whatever try encloses this
// one, not this one's own already-exited block. A thrown exception that
// escapes the catch block is therefore not rerouted through this try's own
// finally — a documented simplification of this reference interpreter, not
// of the bytecode it is interpreting.
type tryHandler struct {
	catchPC      int
	hasCatch     bool
	deactivateAt int
	scope        *env
}

// Interpreter is cbcvm.Interpreter's minimal reference implementation: a
// single flat byte-stream dispatch loop, a Go-slice value stack, and
// exception propagation built on panic/recover rather than an explicit
// unwind table.
type Interpreter struct {
	Values *Values
}

func New() *Interpreter {
	return &Interpreter{Values: NewValues()}
}

var _ cbcvm.Interpreter = (*Interpreter)(nil)

// Run executes code as a top-level program: every top-level var/function
// binding declared in its literal pool is pre-declared in the global scope
// (the same IdentEnd region parseFunctionRest stamps for function bodies),
// then the byte stream runs to completion.
func (in *Interpreter) Run(code *cbc.CompiledCode) (any, error) {
	global := newEnv(nil)
	for _, lit := range code.Literals {
		if lit.Kind == cbc.LiteralIdent {
			global.declare(lit.Value.(string), in.Values.Undefined())
		}
	}
	result, _, err := in.execFunction(code, global)
	return result, err
}

// execFunction runs code's entire byte stream in scope, which the caller
// (callValue, for a nested function call) has already populated with
// parameter bindings before calling this — top-level programs pass the
// pre-declared global scope instead. It returns the function's return value,
// or, for code that never executes an explicit Return (only top-level
// program code, since every compiled function body ends in one), the value
// of its last evaluated expression statement — mirroring how Run's caller
// treats a compiled script as an expression with a completion value. Returns
// an error if an exception escaped uncaught.
func (in *Interpreter) execFunction(code *cbc.CompiledCode, scope *env) (result any, threw bool, err error) {
	v := in.Values
	full := code.Header.LiteralEncoding == cbc.FullLiteralEncodingMode
	c := code.Code

	var stack []any
	push := func(x any) { stack = append(stack, x) }
	pop := func() any {
		n := len(stack) - 1
		x := stack[n]
		stack = stack[:n]
		return x
	}

	var ctxStack []ctxFrame
	var forInStack []*forInCursor
	var tryStack []tryHandler

	pc := 0
	returnVal := any(in.Values.Undefined())
	returned := false
	// completionVal tracks the last value discarded by Pop. Program-goal code
	// never hits an explicit Return (parser.go's funcDepth check forbids
	// 'return' outside a function), so returnVal would otherwise stay
	// Undefined for every top-level script regardless of what it computed;
	// every function body, by contrast, always ends in an explicit Return or
	// the ReturnUndefined parseFunctionRest appends, so returned is always
	// true there and completionVal is never consulted.
	completionVal := any(in.Values.Undefined())

	for !returned {
		caught, resumePC, resumeErr := in.dispatchUntilThrowOrEnd(code, v, full, c, &stack, push, pop, &scope, &pc, &ctxStack, &forInStack, &tryStack, &returnVal, &returned, &completionVal)
		if resumeErr != nil {
			return nil, true, resumeErr
		}
		if !caught {
			break
		}
		pc = resumePC
	}
	if returned {
		return returnVal, false, nil
	}
	return completionVal, false, nil
}

// dispatchUntilThrowOrEnd runs the byte stream starting at *pcRef until the
// code ends, a Return is hit (setting *returned), or an exception is thrown.
// A thrown exception unwinds via a deferred recover: if an enclosing
// tryHandler is active it resumes dispatch at the catch entry with the
// thrown value bound, reporting caught=true so execFunction's loop
// continues; otherwise the exception is reported as the function's final
// error.
func (in *Interpreter) dispatchUntilThrowOrEnd(
	code *cbc.CompiledCode, v *Values, full bool, c []byte,
	stack *[]any, push func(any), pop func() any,
	scopeRef **env, pcRef *int,
	ctxStack *[]ctxFrame, forInStack *[]*forInCursor, tryStack *[]tryHandler,
	returnVal *any, returned *bool, completionVal *any,
) (caught bool, resumePC int, err error) {
	pc := *pcRef
	scope := *scopeRef

	defer func() {
		if r := recover(); r == nil {
			return
		} else if th, ok := r.(thrown); ok {
			ts := *tryStack
			if len(ts) == 0 {
				err = &cbcvm.UncaughtError{Value: th.value}
				return
			}
			h := ts[len(ts)-1]
			*tryStack = ts[:len(ts)-1]
			if h.hasCatch {
				push(th.value)
			}
			// Unwinding always restores the scope active when the try was
			// entered, discarding any with/block scopes pushed since —
			// correct regardless of how deep inside those the throw came
			// from.
			scope = h.scope
			*scopeRef = scope
			caught = true
			resumePC = h.catchPC
		} else {
			panic(r)
		}
	}()

	readLit := func() int {
		idx, next := cbc.ReadLiteralIndex(c, pc, full)
		pc = next
		return idx
	}
	readByte := func() byte {
		b := c[pc]
		pc++
		return b
	}
	readBranch := func() (site, dist int) {
		site = pc
		d, next := cbc.ReadBranchOperand(c, pc)
		pc = next
		return site, d
	}
	readExtOperand := func() byte {
		b := c[pc]
		pc++
		return b
	}

	for pc < len(code.Code) {
		for len(*tryStack) > 0 && pc >= (*tryStack)[len(*tryStack)-1].deactivateAt {
			*tryStack = (*tryStack)[:len(*tryStack)-1]
		}

		op := cbc.Opcode(c[pc])
		pc++

		switch op {
		case cbc.Pop:
			*completionVal = pop()
		case cbc.Dup:
			s := *stack
			push(s[len(s)-1])
		case cbc.PushLiteral:
			idx := readLit()
			push(literalValue(v, code.Literals[idx]))
		case cbc.PushTrue:
			push(v.Bool(true))
		case cbc.PushFalse:
			push(v.Bool(false))
		case cbc.PushNull:
			push(v.Null())
		case cbc.PushUndefined:
			push(v.Undefined())
		case cbc.PushThis:
			push(v.Undefined())

		case cbc.PushIdentReference:
			idx := readLit()
			name := code.Literals[idx].Value.(string)
			val, ok := scope.lookup(v, name)
			if !ok {
				val = v.Undefined()
			}
			push(val)
		case cbc.AssignIdent, cbc.ResolveAndAssign:
			idx := readLit()
			name := code.Literals[idx].Value.(string)
			val := pop()
			scope.assign(name, val)
			push(val)
		case cbc.Assign:
			// Never emitted standalone by the expression parser — tryFuse
			// always collapses PUSH_IDENT_REFERENCE+ASSIGN into ASSIGN_IDENT
			// before it reaches the stream. Treated as a no-op pass-through
			// if some future emitter path ever produces it bare.

		case cbc.PushProp:
			key := pop()
			obj := pop()
			push(v.GetProp(obj, v.ToString(key)))
		case cbc.PushPropLiteral:
			idx := readLit()
			name := code.Literals[idx].Value.(string)
			obj := pop()
			push(v.GetProp(obj, name))
		case cbc.AssignProp:
			val := pop()
			key := pop()
			obj := pop()
			v.SetProp(obj, v.ToString(key), val)
			push(val)
		case cbc.AssignPropLiteral:
			idx := readLit()
			name := code.Literals[idx].Value.(string)
			val := pop()
			obj := pop()
			v.SetProp(obj, name, val)
			push(val)

		case cbc.Add:
			b, a := pop(), pop()
			push(v.Add(a, b))
		case cbc.Sub:
			b, a := pop(), pop()
			push(v.Number(v.ToNumber(a) - v.ToNumber(b)))
		case cbc.Mul:
			b, a := pop(), pop()
			push(v.Number(v.ToNumber(a) * v.ToNumber(b)))
		case cbc.Div:
			b, a := pop(), pop()
			push(v.Number(v.ToNumber(a) / v.ToNumber(b)))
		case cbc.Mod:
			b, a := pop(), pop()
			push(v.Number(math.Mod(v.ToNumber(a), v.ToNumber(b))))
		case cbc.BitAnd:
			b, a := pop(), pop()
			push(v.Number(float64(int32(v.ToNumber(a)) & int32(v.ToNumber(b)))))
		case cbc.BitOr:
			b, a := pop(), pop()
			push(v.Number(float64(int32(v.ToNumber(a)) | int32(v.ToNumber(b)))))
		case cbc.BitXor:
			b, a := pop(), pop()
			push(v.Number(float64(int32(v.ToNumber(a)) ^ int32(v.ToNumber(b)))))
		case cbc.BitNot:
			a := pop()
			push(v.Number(float64(^int32(v.ToNumber(a)))))
		case cbc.Lshift:
			b, a := pop(), pop()
			push(v.Number(float64(int32(v.ToNumber(a)) << (uint32(int64(v.ToNumber(b))) & 31))))
		case cbc.Rshift:
			b, a := pop(), pop()
			push(v.Number(float64(int32(v.ToNumber(a)) >> (uint32(int64(v.ToNumber(b))) & 31))))
		case cbc.Urshift:
			b, a := pop(), pop()
			push(v.Number(float64(uint32(int64(v.ToNumber(a))) >> (uint32(int64(v.ToNumber(b))) & 31))))
		case cbc.Negate:
			a := pop()
			push(v.Number(-v.ToNumber(a)))
		case cbc.Plus:
			a := pop()
			push(v.Number(v.ToNumber(a)))

		case cbc.Equal:
			b, a := pop(), pop()
			push(v.Bool(v.LooseEqual(a, b)))
		case cbc.NotEqual:
			b, a := pop(), pop()
			push(v.Bool(!v.LooseEqual(a, b)))
		case cbc.StrictEqual:
			b, a := pop(), pop()
			push(v.Bool(v.StrictEqual(a, b)))
		case cbc.StrictNotEqual:
			b, a := pop(), pop()
			push(v.Bool(!v.StrictEqual(a, b)))
		case cbc.Less:
			b, a := pop(), pop()
			push(v.Bool(lessThan(v, a, b)))
		case cbc.Greater:
			b, a := pop(), pop()
			push(v.Bool(lessThan(v, b, a)))
		case cbc.LessEqual:
			b, a := pop(), pop()
			push(v.Bool(!lessThan(v, b, a)))
		case cbc.GreaterEqual:
			b, a := pop(), pop()
			push(v.Bool(!lessThan(v, a, b)))

		case cbc.LogicalNot:
			a := pop()
			push(v.Bool(!v.Truthy(a)))
		case cbc.Typeof:
			a := pop()
			push(v.String(v.TypeOf(a)))
		case cbc.Void:
			pop()
			push(v.Undefined())
		case cbc.InstanceOf:
			b, a := pop(), pop()
			push(v.Bool(instanceOf(a, b)))
		case cbc.In:
			b, a := pop(), pop()
			push(v.Bool(v.HasProp(b, v.ToString(a))))

		case cbc.JumpForward, cbc.JumpForwardExitContext:
			site, dist := readBranch()
			pc = site + dist
		case cbc.BranchIfTrueForward:
			site, dist := readBranch()
			if v.Truthy(pop()) {
				pc = site + dist
			}
		case cbc.BranchIfFalseForward:
			site, dist := readBranch()
			if !v.Truthy(pop()) {
				pc = site + dist
			}
		case cbc.BranchIfStrictEqual:
			site, dist := readBranch()
			b, a := pop(), pop()
			if v.StrictEqual(a, b) {
				pc = site + dist
			} else {
				push(a)
			}
		case cbc.JumpBackward:
			site, dist := readBranch()
			pc = site + 2 - dist
		case cbc.BranchIfTrueBackward:
			site, dist := readBranch()
			if v.Truthy(pop()) {
				pc = site + 2 - dist
			}
		case cbc.BranchIfFalseBackward:
			site, dist := readBranch()
			if !v.Truthy(pop()) {
				pc = site + 2 - dist
			}

		case cbc.Call:
			argc := int(readByte())
			args := make([]any, argc)
			for i := argc - 1; i >= 0; i-- {
				args[i] = pop()
			}
			callee := pop()
			result, threw, rerr := in.callValue(callee, args)
			if rerr != nil {
				panic(rerr)
			}
			if threw != nil {
				panic(thrown{value: threw})
			}
			push(result)
		case cbc.New:
			argc := int(readByte())
			args := make([]any, argc)
			for i := argc - 1; i >= 0; i-- {
				args[i] = pop()
			}
			callee := pop()
			result, threw := in.construct(callee, args)
			if threw != nil {
				panic(thrown{value: threw})
			}
			push(result)

		case cbc.ArrayLiteral:
			count := int(readByte())
			elems := make([]any, count)
			for i := count - 1; i >= 0; i-- {
				elems[i] = pop()
			}
			push(v.NewArray(elems))
		case cbc.ObjectLiteral:
			count := int(readByte())
			pairs := make([][2]any, count)
			for i := count - 1; i >= 0; i-- {
				val := pop()
				key := pop()
				pairs[i] = [2]any{key, val}
			}
			obj := v.NewObject()
			for _, kv := range pairs {
				v.SetProp(obj, v.ToString(kv[0]), kv[1])
			}
			push(obj)

		case cbc.PushClosure:
			idx := readLit()
			fnCode := code.Literals[idx].Value.(*cbc.CompiledCode)
			push(&Function{Code: fnCode, Closure: scope})

		case cbc.Return:
			*returnVal = pop()
			*returned = true
			*pcRef = pc
			*scopeRef = scope
			return false, 0, nil
		case cbc.ReturnUndefined:
			*returnVal = v.Undefined()
			*returned = true
			*pcRef = pc
			*scopeRef = scope
			return false, 0, nil
		case cbc.Throw:
			val := pop()
			panic(thrown{value: val})
		case cbc.Debugger:
			// no-op: nothing observes breakpoints in this reference VM.
		case cbc.Halt:
			*pcRef = pc
			*scopeRef = scope
			return false, 0, nil

		case cbc.ExtOpcodeMarker:
			extOp := cbc.ExtOpcode(c[pc])
			pc++
			switch extOp {
			case cbc.ExtForInCreateContext:
				site, dist := readBranch()
				obj := pop()
				keys := v.OwnKeys(obj)
				cur := &forInCursor{keys: keys}
				*forInStack = append(*forInStack, cur)
				*ctxStack = append(*ctxStack, ctxFrame{forIn: cur})
				if len(keys) == 0 {
					pc = site + dist
				}
			case cbc.ExtForInGetNext:
				cur := (*forInStack)[len(*forInStack)-1]
				push(v.String(cur.keys[cur.idx]))
				cur.idx++
			case cbc.ExtBranchIfForInHasNext:
				site, dist := readBranch()
				cur := (*forInStack)[len(*forInStack)-1]
				if cur.idx < len(cur.keys) {
					pc = site + 2 - dist
				}
			case cbc.ExtPushUndefinedBase:
				push(v.Undefined())
			case cbc.ExtWithCreateContext:
				site, dist := readBranch()
				obj := pop()
				o, _ := obj.(*Object)
				saved := scope
				scope = &env{vars: map[string]any{}, withObj: o, parent: saved}
				*ctxStack = append(*ctxStack, ctxFrame{savedScope: saved})
				_ = dist
				_ = site
			case cbc.ExtTryCreateContext:
				site, dist := readBranch()
				handlerPC := site + dist
				// A catch clause's body opens with EXT_CATCH; a try with only
				// a finally jumps straight into the finally body instead, so
				// peeking the byte at the handler tells them apart without
				// the parser needing to stamp an extra flag.
				hasCatch := handlerPC+1 < len(c) && c[handlerPC] == byte(cbc.ExtOpcodeMarker) && cbc.ExtOpcode(c[handlerPC+1]) == cbc.ExtCatch
				*tryStack = append(*tryStack, tryHandler{catchPC: handlerPC, hasCatch: hasCatch, deactivateAt: handlerPC, scope: scope})
			case cbc.ExtCatch:
				// The thrown value was already pushed by the recover path in
				// this function's own deferred handler before resuming here;
				// nothing to do at the opcode itself.
			case cbc.ExtFinally:
				site, dist := readBranch()
				_ = site
				_ = dist
				// Falls through into the finally body; its own resume point
				// (right after the reserved branch) needs no VM bookkeeping
				// since normal bytecode flow already lands there once the
				// finally body finishes.
			case cbc.ExtContextEnd:
				kind := readExtOperand()
				switch kind {
				case cbc.CtxForIn:
					*forInStack = (*forInStack)[:len(*forInStack)-1]
					*ctxStack = (*ctxStack)[:len(*ctxStack)-1]
				case cbc.CtxWith:
					top := (*ctxStack)[len(*ctxStack)-1]
					*ctxStack = (*ctxStack)[:len(*ctxStack)-1]
					scope = top.savedScope
				case cbc.CtxTry:
					// try's own handler was already deactivated by the
					// deactivateAt sweep at the top of this loop.
				}
			}
		}
	}

	*pcRef = pc
	*scopeRef = scope
	return false, 0, nil
}

func lessThan(v *Values, a, b any) bool {
	as, aIsStr := a.(string)
	bs, bIsStr := b.(string)
	if aIsStr && bIsStr {
		return as < bs
	}
	return v.ToNumber(a) < v.ToNumber(b)
}

func instanceOf(a, b any) bool {
	fn, ok := b.(*Function)
	if !ok {
		return false
	}
	_ = fn
	_, isObj := a.(*Object)
	return isObj
}

// literalValue materializes a pool entry into a runtime value; functions are
// realized lazily at PUSH_CLOSURE instead, so LiteralFunction never reaches
// here.
func literalValue(v *Values, lit cbc.Literal) any {
	switch lit.Kind {
	case cbc.LiteralString, cbc.LiteralRegexp:
		return v.String(lit.Value.(string))
	case cbc.LiteralNumber:
		return v.Number(lit.Value.(float64))
	default:
		return v.Undefined()
	}
}

// callValue invokes callee with args bound positionally to its parameter
// names (code.Header.ArgumentEnd of its literal pool, per parseFunctionRest)
// and the rest of its declared identifiers pre-declared undefined in a fresh
// scope chained to the closure's. Calling a non-function pushes a
// TypeError-shaped thrown value rather than panicking the Go process.
func (in *Interpreter) callValue(callee any, args []any) (result any, threw any, err error) {
	fn, ok := callee.(*Function)
	if !ok {
		return nil, in.Values.String("TypeError: value is not a function"), nil
	}
	scope := newEnv(fn.Closure)
	argc := int(fn.Code.Header.ArgumentEnd)
	for i := 0; i < argc && i < len(fn.Code.Literals); i++ {
		name := fn.Code.Literals[i].Value.(string)
		if i < len(args) {
			scope.declare(name, args[i])
		} else {
			scope.declare(name, in.Values.Undefined())
		}
	}
	// Only literals the parser flagged FlagVar are actual bindings (var
	// statements, the parameter list just declared above); a bare
	// identifier reference that never went through parseVarDeclarationList
	// also gets a LiteralIdent entry (PushIdentReference/AssignIdent need a
	// literal index too) but must resolve through the closure chain to an
	// enclosing scope, not be pre-declared undefined here and shadow it.
	for _, lit := range fn.Code.Literals {
		if lit.Kind == cbc.LiteralIdent && lit.Flags&cbc.FlagVar != 0 {
			if _, exists := scope.vars[lit.Value.(string)]; !exists {
				scope.declare(lit.Value.(string), in.Values.Undefined())
			}
		}
	}
	res, threwVal, rerr := in.runCaught(fn.Code, scope)
	return res, threwVal, rerr
}

// construct implements 'new': a fresh plain object is allocated, bound to
// nothing this reference VM can observe as 'this' (PushThis always yields
// undefined here), and the callee runs for its return
// value. If the callee returns an object, 'new' yields that object;
// otherwise it yields the freshly allocated one.
func (in *Interpreter) construct(callee any, args []any) (result any, threw any) {
	res, threwVal, err := in.callValue(callee, args)
	if err != nil {
		return nil, in.Values.String(err.Error())
	}
	if threwVal != nil {
		return nil, threwVal
	}
	if _, isObj := res.(*Object); isObj {
		return res, nil
	}
	return in.Values.NewObject(), nil
}

// runCaught runs code to completion in scope, converting an escaping thrown
// panic into a returned value instead of propagating further up the Go
// stack — the boundary between one function's own try/catch bookkeeping and
// its caller's.
func (in *Interpreter) runCaught(code *cbc.CompiledCode, scope *env) (result any, threw any, err error) {
	defer func() {
		if r := recover(); r != nil {
			if th, ok := r.(thrown); ok {
				threw = th.value
				return
			}
			panic(r)
		}
	}()
	res, _, rerr := in.execFunction(code, scope)
	if rerr != nil {
		if ue, ok := rerr.(*cbcvm.UncaughtError); ok {
			threw = ue.Value
			return nil, threw, nil
		}
		return nil, nil, rerr
	}
	return res, nil, nil
}
