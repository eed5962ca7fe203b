package cbc

import (
	"fmt"
	"strings"
)

// Disassemble returns a human-readable listing of code's instruction
// stream, one line per instruction, in the same "offset line mnemonic
// operand" shape the source's own disassembler uses.
func Disassemble(code *CompiledCode, name string) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "== %s ==\n", name)
	offset := 0
	for offset < len(code.Code) {
		offset = disassembleInstruction(&sb, code, offset)
	}
	return sb.String()
}

func disassembleInstruction(sb *strings.Builder, code *CompiledCode, offset int) int {
	fmt.Fprintf(sb, "%04d ", offset)
	if offset > 0 && code.Lines[offset] == code.Lines[offset-1] {
		sb.WriteString("   | ")
	} else {
		fmt.Fprintf(sb, "%4d ", code.Lines[offset])
	}

	op := Opcode(code.Code[offset])

	if op == ExtOpcodeMarker {
		extOp := ExtOpcode(code.Code[offset+1])
		opStart := offset + 2
		switch extOp {
		case ExtTryCreateContext, ExtWithCreateContext, ExtForInCreateContext:
			return branchInstruction(sb, extOp.String(), code, opStart, false)
		case ExtBranchIfForInHasNext:
			return branchInstruction(sb, extOp.String(), code, opStart, true)
		case ExtContextEnd:
			kind := code.Code[opStart]
			fmt.Fprintf(sb, "%-24s %s\n", extOp.String(), ctxKindName(kind))
			return opStart + 1
		default:
			fmt.Fprintf(sb, "%s\n", extOp.String())
			return opStart
		}
	}

	switch op {
	case PushLiteral, AssignIdent, ResolveAndAssign, PushIdentReference, PushPropLiteral, AssignPropLiteral:
		return literalInstruction(sb, op.String(), code, offset)
	case ArrayLiteral, ObjectLiteral, Call, New:
		fmt.Fprintf(sb, "%-24s %4d\n", op.String(), code.Code[offset+1])
		return offset + 2
	case JumpForward, JumpForwardExitContext, BranchIfTrueForward, BranchIfFalseForward, BranchIfStrictEqual,
		JumpBackward, BranchIfTrueBackward, BranchIfFalseBackward:
		return branchInstruction(sb, op.String(), code, offset+1, isBackwardBranch(op))
	default:
		fmt.Fprintf(sb, "%s\n", op.String())
		return offset + 1
	}
}

func ctxKindName(kind byte) string {
	switch kind {
	case CtxForIn:
		return "for-in"
	case CtxWith:
		return "with"
	case CtxTry:
		return "try"
	default:
		return "?"
	}
}

// literalInstruction decodes the variable-width literal index via
// ReadLiteralIndex, the same decoder an interpreter walking this stream
// would use.
func literalInstruction(sb *strings.Builder, name string, code *CompiledCode, offset int) int {
	full := usesFullLiteralEncoding(code.Header.StatusFlags)
	idx, next := ReadLiteralIndex(code.Code, offset+1, full)
	fmt.Fprintf(sb, "%-24s %4d\n", name, idx)
	return next
}

// branchInstruction decodes the 2-byte operand starting at site via
// ReadBranchOperand, printing the absolute target. backward selects which of
// EmitCbcForwardBranch's or EmitCbcBackwardBranch's target formula applies —
// the caller already knows this from the opcode, the same way the emitter
// side does.
func branchInstruction(sb *strings.Builder, name string, code *CompiledCode, site int, backward bool) int {
	dist, next := ReadBranchOperand(code.Code, site)
	target := site + dist
	if backward {
		target = site + 2 - dist
	}
	fmt.Fprintf(sb, "%-24s -> %d\n", name, target)
	return next
}
