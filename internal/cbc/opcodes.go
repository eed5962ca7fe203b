// Package cbc implements the compact bytecode emitter: opcode encoding,
// literal indexing, the last-opcode peephole cache, and forward/backward
// branch patching. It is the target the statement and expression parsers
// write into; it never parses anything itself.
package cbc

// Opcode is one CBC instruction. Every Opcode except ExtOpcodeMarker is in
// the primary set; ExtOpcodeMarker introduces a second byte selecting from
// the extended set (ExtOpcode below).
type Opcode byte

const (
	// stack manipulation
	Pop Opcode = iota
	Dup
	PushLiteral
	PushTrue
	PushFalse
	PushNull
	PushUndefined
	PushThis

	// variable access
	PushIdentReference
	AssignIdent
	ResolveAndAssign
	Assign

	// property access
	PushProp
	PushPropLiteral
	AssignProp
	AssignPropLiteral

	// arithmetic / bitwise
	Add
	Sub
	Mul
	Div
	Mod
	BitAnd
	BitOr
	BitXor
	BitNot
	Lshift
	Rshift
	Urshift
	Negate
	Plus

	// comparison
	Equal
	NotEqual
	StrictEqual
	StrictNotEqual
	Less
	Greater
	LessEqual
	GreaterEqual

	// logical
	LogicalNot
	Typeof
	Void
	InstanceOf
	In

	// control flow - unconditional
	JumpForward
	JumpForwardExitContext
	JumpBackward

	// control flow - conditional, forward
	BranchIfTrueForward
	BranchIfFalseForward
	BranchIfStrictEqual

	// control flow - conditional, backward
	BranchIfTrueBackward
	BranchIfFalseBackward

	// calls / object construction
	Call
	New
	ArrayLiteral
	ObjectLiteral

	// function / return / throw / debugger
	PushClosure
	Return
	ReturnUndefined
	Throw
	Debugger

	// extended-opcode escape
	ExtOpcodeMarker

	Halt
)

// ExtOpcode is the extended opcode set, selected by a primary-opcode byte
// equal to ExtOpcodeMarker followed by one of these.
type ExtOpcode byte

const (
	ExtForInCreateContext ExtOpcode = iota
	ExtForInGetNext
	ExtBranchIfForInHasNext
	ExtPushUndefinedBase

	ExtWithCreateContext

	ExtTryCreateContext
	ExtCatch
	ExtFinally
	ExtContextEnd
)

var opcodeNames = map[Opcode]string{
	Pop:                    "POP",
	Dup:                    "DUP",
	PushLiteral:            "PUSH_LITERAL",
	PushTrue:               "PUSH_TRUE",
	PushFalse:              "PUSH_FALSE",
	PushNull:               "PUSH_NULL",
	PushUndefined:          "PUSH_UNDEFINED",
	PushThis:               "PUSH_THIS",
	PushIdentReference:     "PUSH_IDENT_REFERENCE",
	AssignIdent:            "ASSIGN_IDENT",
	ResolveAndAssign:       "RESOLVE_AND_ASSIGN",
	Assign:                 "ASSIGN",
	PushProp:               "PUSH_PROP",
	PushPropLiteral:        "PUSH_PROP_LITERAL",
	AssignProp:             "ASSIGN_PROP",
	AssignPropLiteral:      "ASSIGN_PROP_LITERAL",
	Add:                    "ADD",
	Sub:                    "SUB",
	Mul:                    "MUL",
	Div:                    "DIV",
	Mod:                    "MOD",
	BitAnd:                 "BIT_AND",
	BitOr:                  "BIT_OR",
	BitXor:                 "BIT_XOR",
	BitNot:                 "BIT_NOT",
	Lshift:                 "LSHIFT",
	Rshift:                 "RSHIFT",
	Urshift:                "URSHIFT",
	Negate:                 "NEGATE",
	Plus:                   "PLUS",
	Equal:                  "EQUAL",
	NotEqual:               "NOT_EQUAL",
	StrictEqual:            "STRICT_EQUAL",
	StrictNotEqual:         "STRICT_NOT_EQUAL",
	Less:                   "LESS",
	Greater:                "GREATER",
	LessEqual:              "LESS_EQUAL",
	GreaterEqual:           "GREATER_EQUAL",
	LogicalNot:             "LOGICAL_NOT",
	Typeof:                 "TYPEOF",
	Void:                   "VOID",
	InstanceOf:             "INSTANCEOF",
	In:                     "IN",
	JumpForward:            "JUMP_FORWARD",
	JumpForwardExitContext: "JUMP_FORWARD_EXIT_CONTEXT",
	JumpBackward:           "JUMP_BACKWARD",
	BranchIfTrueForward:    "BRANCH_IF_TRUE_FORWARD",
	BranchIfFalseForward:   "BRANCH_IF_FALSE_FORWARD",
	BranchIfStrictEqual:    "BRANCH_IF_STRICT_EQUAL",
	BranchIfTrueBackward:   "BRANCH_IF_TRUE_BACKWARD",
	BranchIfFalseBackward:  "BRANCH_IF_FALSE_BACKWARD",
	Call:                   "CALL",
	New:                    "NEW",
	ArrayLiteral:           "ARRAY_LITERAL",
	ObjectLiteral:          "OBJECT_LITERAL",
	PushClosure:            "PUSH_CLOSURE",
	Return:                 "RETURN",
	ReturnUndefined:        "RETURN_UNDEFINED",
	Throw:                  "THROW",
	Debugger:               "DEBUGGER",
	ExtOpcodeMarker:        "EXT_OPCODE",
	Halt:                   "HALT",
}

var extOpcodeNames = map[ExtOpcode]string{
	ExtForInCreateContext:   "EXT_FOR_IN_CREATE_CONTEXT",
	ExtForInGetNext:         "EXT_FOR_IN_GET_NEXT",
	ExtBranchIfForInHasNext: "EXT_BRANCH_IF_FOR_IN_HAS_NEXT",
	ExtPushUndefinedBase:    "EXT_PUSH_UNDEFINED_BASE",
	ExtWithCreateContext:    "EXT_WITH_CREATE_CONTEXT",
	ExtTryCreateContext:     "TRY_CREATE_CONTEXT",
	ExtCatch:                "EXT_CATCH",
	ExtFinally:              "EXT_FINALLY",
	ExtContextEnd:           "CONTEXT_END",
}

func (op Opcode) String() string {
	if s, ok := opcodeNames[op]; ok {
		return s
	}
	return "UNKNOWN_OPCODE"
}

func (op ExtOpcode) String() string {
	if s, ok := extOpcodeNames[op]; ok {
		return s
	}
	return "UNKNOWN_EXT_OPCODE"
}

// Context-end kind tags: EXT_CONTEXT_END closes a for-in, with, or try
// context, and an interpreter needs to know which cleanup applies, so
// statements_loops.go (for-in), parser.go's statement-terminator loop (with)
// and statements_try.go each stamp one of these as EXT_CONTEXT_END's byte
// operand.
const (
	CtxForIn byte = iota
	CtxWith
	CtxTry
)

// isForwardBranch reports whether op is one of the *_FORWARD branch family,
// the fact the source's opcode-group bit (opcode & 0x4) encodes. Nothing in
// this module calls it.
func isForwardBranch(op Opcode) bool {
	switch op {
	case JumpForward, JumpForwardExitContext, BranchIfTrueForward, BranchIfFalseForward, BranchIfStrictEqual:
		return true
	default:
		return false
	}
}

func isBackwardBranch(op Opcode) bool {
	switch op {
	case JumpBackward, BranchIfTrueBackward, BranchIfFalseBackward:
		return true
	default:
		return false
	}
}
