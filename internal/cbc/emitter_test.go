package cbc

import "testing"

func TestForwardBranchPatchesToCurrentPosition(t *testing.T) {
	e := NewEmitter()
	h := e.EmitCbcForwardBranch(BranchIfFalseForward, 1, 1)
	e.EmitCbc(PushTrue, 1, 1)
	e.FlushCbc()
	e.SetBranchToCurrentPosition(h)
	e.FlushCbc()

	code := e.Code().Code
	dist := int(code[h.site])<<8 | int(code[h.site+1])
	if h.site+dist != len(code) {
		t.Fatalf("branch does not land at end of code: site=%d dist=%d len=%d", h.site, dist, len(code))
	}
}

func TestBackwardBranchDistance(t *testing.T) {
	e := NewEmitter()
	start := e.Len()
	e.EmitCbc(PushTrue, 1, 1)
	e.FlushCbc()
	e.EmitCbcBackwardBranch(JumpBackward, start, 1, 1)

	code := e.Code().Code
	opOffset := len(code) - 3
	dist := int(code[opOffset+1])<<8 | int(code[opOffset+2])
	if dist != len(code)-start {
		t.Fatalf("backward distance = %d, want %d", dist, len(code)-start)
	}
}

// Patching a branch to "the current position" right after emitting a body's
// trailing opcode must account for that opcode even though it is still only
// cached in the peephole slot, not yet written to e.code.Code — the exact
// shape of parseWhileStatement's SetBranchToCurrentPosition(skipBody) call,
// which runs immediately after the loop body's last statement.
func TestSetBranchToCurrentPositionFlushesTrailingPendingOpcode(t *testing.T) {
	e := NewEmitter()
	h := e.EmitCbcForwardBranch(JumpForward, 1, 1)
	e.EmitCbc(PushTrue, 1, 1)
	e.EmitCbc(Pop, 1, 1) // stays cached in e.pending, not yet in e.code.Code

	e.SetBranchToCurrentPosition(h)
	e.FlushCbc()

	code := e.Code().Code
	dist := int(code[h.site])<<8 | int(code[h.site+1])
	if h.site+dist != len(code) {
		t.Fatalf("branch landed at %d, want end of code (including the pending POP) %d", h.site+dist, len(code))
	}
}

func TestLastOpcodeFusion(t *testing.T) {
	e := NewEmitter()
	idx := e.AddLiteral(Literal{Kind: LiteralIdent, Value: "x"})
	e.EmitCbcLiteral(PushIdentReference, idx, 1, 1)
	e.EmitCbc(Assign, 1, 1)
	e.FlushCbc()

	code := e.Code().Code
	if Opcode(code[0]) != AssignIdent {
		t.Fatalf("expected fused ASSIGN_IDENT, got %s", Opcode(code[0]))
	}
}

func TestBreakAndContinueListsPatchSeparately(t *testing.T) {
	e := NewEmitter()
	var list BranchList

	e.EmitCbcForwardBranchItem(JumpForward, &list, 1, 1)
	breakSite := e.Code().Code
	_ = breakSite
	h2 := e.EmitCbcForwardBranch(JumpForward, 1, 1)
	list.PushContinue(h2)

	e.EmitCbc(PushTrue, 1, 1)
	e.FlushCbc()
	continueTarget := e.Len()
	e.EmitCbc(PushFalse, 1, 1)
	e.FlushCbc()
	breakTarget := e.Len()

	e.SetContinuesToCurrentPosition(&list, continueTarget)
	e.SetBreaksToCurrentPosition(&list)

	if !list.IsEmpty() {
		t.Fatalf("branch list should be drained after patching both kinds")
	}

	code := e.Code().Code
	contDist := int(code[h2.site])<<8 | int(code[h2.site+1])
	if h2.site+contDist != continueTarget {
		t.Fatalf("continue branch landed at %d, want %d", h2.site+contDist, continueTarget)
	}
	_ = breakTarget
}

func TestLiteralIndexEncodingRoundTrips(t *testing.T) {
	e := NewEmitter()
	idx := 300 // exceeds the small-encoding single-byte limit
	e.EmitCbcLiteral(PushLiteral, idx, 1, 1)
	e.FlushCbc()

	listing := Disassemble(e.Code(), "test")
	if listing == "" {
		t.Fatal("expected non-empty disassembly")
	}
	got, next := ReadLiteralIndex(e.Code().Code, 1, false)
	if got != idx || next != len(e.Code().Code) {
		t.Fatalf("ReadLiteralIndex = (%d, %d), want (%d, %d)", got, next, idx, len(e.Code().Code))
	}
}

func TestFreeJumpsClearsLists(t *testing.T) {
	e := NewEmitter()
	var list BranchList
	e.EmitCbcForwardBranchItem(JumpForward, &list, 1, 1)
	if list.IsEmpty() {
		t.Fatal("expected a pending branch before FreeJumps")
	}
	FreeJumps(&list)
	if !list.IsEmpty() {
		t.Fatal("FreeJumps should clear the list")
	}
}
