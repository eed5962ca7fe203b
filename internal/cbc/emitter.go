package cbc

// pendingOp is the last-opcode peephole cache: a small inline structure
// holding the most recently requested opcode and its operands, plus an
// "empty" sentinel (hasPending == false). EmitCbc and EmitCbcLiteral stage
// their opcode here and EmitCbcExt passes through it; FlushCbc is the only
// thing that actually appends bytes for a cached opcode. The byte-operand
// and branch emitters flush it and then write their own bytes directly.
type pendingOp struct {
	hasPending bool
	op         Opcode
	extOp      ExtOpcode
	isExt      bool
	litIndex   int
	hasLit     bool
	line, col  int
}

// Emitter is the expression-parser's bytecode sink: it owns the code buffer
// under construction, the literal pool, and the last-opcode cache that fuses
// compatible emit sequences before they are committed.
type Emitter struct {
	code    *CompiledCode
	pending pendingOp
}

func NewEmitter() *Emitter {
	return &Emitter{code: newCompiledCode()}
}

// SetFullLiteralEncoding forces this unit's literal-index operands to use
// the full encoding (one byte for indices up to 127, two bytes above) from
// its very first literal, rather than the emitter's default small encoding.
// Must be called before any literal is added — parser.NewContextWithEncoding
// and parseFunctionRest call it when a compile forces full encoding.
func (e *Emitter) SetFullLiteralEncoding() {
	e.code.Header.StatusFlags |= FullLiteralEncoding
	e.code.Header.LiteralEncoding = FullLiteralEncodingMode
}

// Code returns the blob under construction; valid to inspect at any point,
// though any still-pending opcode has not yet been flushed into it.
func (e *Emitter) Code() *CompiledCode {
	return e.code
}

// Len is the number of bytes the stream will occupy once anything still
// sitting in the peephole cache is committed. It flushes the cache first:
// a caller asking for the current position (to start a loop body, patch a
// branch, or record a continue target) means "the position right after
// everything emitted so far", and a cached-but-unwritten opcode is still
// part of that — leaving it unflushed would hand out a position that falls
// short by exactly that opcode's width once FlushCbc finally writes it.
func (e *Emitter) Len() int {
	e.FlushCbc()
	return e.code.Len()
}

// AddLiteral interns a literal value, returning its pool index.
func (e *Emitter) AddLiteral(lit Literal) int {
	return e.code.addLiteral(lit)
}

// LastOpcode reports the opcode currently sitting in the peephole cache, if
// any. Loop-tail peepholes (PushTrue / PushFalse / LogicalNot as last
// opcode) read this before deciding how to fold a branch.
func (e *Emitter) LastOpcode() (Opcode, bool) {
	if !e.pending.hasPending || e.pending.isExt {
		return 0, false
	}
	return e.pending.op, true
}

// EmitCbc stages op with no operand. A previously pending opcode is flushed
// first unless it fuses with op.
func (e *Emitter) EmitCbc(op Opcode, line, col int) {
	e.tryFuse(op, line, col)
}

// EmitCbcLiteral stages op with a literal-index operand.
func (e *Emitter) EmitCbcLiteral(op Opcode, litIndex int, line, col int) {
	e.FlushCbc()
	e.pending = pendingOp{hasPending: true, op: op, litIndex: litIndex, hasLit: true, line: line, col: col}
}

// EmitCbcExt writes an extended opcode at once, after flushing any pending
// opcode; the extended set never participates in the peephole fusion the
// primary set does.
func (e *Emitter) EmitCbcExt(extOp ExtOpcode, line, col int) {
	e.FlushCbc()
	e.pending = pendingOp{hasPending: true, isExt: true, extOp: extOp, line: line, col: col}
	e.FlushCbc()
}

// tryFuse implements the documented fusion: PUSH_IDENT_REFERENCE + ASSIGN
// collapses into ASSIGN_IDENT, the way flush_cbc's caller-side cache does.
// The check happens before any flush, since once PUSH_IDENT_REFERENCE's
// bytes are committed the fusion opportunity is gone.
func (e *Emitter) tryFuse(op Opcode, line, col int) {
	if e.pending.hasPending && !e.pending.isExt && e.pending.op == PushIdentReference && op == Assign && e.pending.hasLit {
		lit := e.pending.litIndex
		ln, cl := e.pending.line, e.pending.col
		e.pending = pendingOp{hasPending: true, op: AssignIdent, litIndex: lit, hasLit: true, line: ln, col: cl}
		return
	}
	e.FlushCbc()
	e.pending = pendingOp{hasPending: true, op: op, line: line, col: col}
}

// DiscardPending drops whatever opcode is sitting in the peephole cache
// without writing it, the way a loop-tail peephole elides a PushTrue or
// LogicalNot that was never committed to the stream in the first place.
func (e *Emitter) DiscardPending() {
	e.pending = pendingOp{}
}

// FlushCbc commits whatever is in the peephole cache, unmodified, to the
// code stream.
func (e *Emitter) FlushCbc() {
	if !e.pending.hasPending {
		return
	}
	p := e.pending
	e.pending = pendingOp{}

	if p.isExt {
		e.code.write(byte(ExtOpcodeMarker), p.line, p.col)
		e.code.write(byte(p.extOp), p.line, p.col)
		return
	}

	e.code.write(byte(p.op), p.line, p.col)
	if p.hasLit {
		e.writeLiteralIndex(p.litIndex, p.line, p.col)
	}
}

// writeLiteralIndex writes a literal index per the header's current encoding
// mode (selected before compilation starts; this module does not
// renegotiate it mid-function). Full mode: 0..127 fits one byte (top bit
// clear); above that, a 2-byte big-endian value with FullLiteralEncodingDelta1
// added, which always sets the first byte's top bit — that bit is exactly
// what ReadLiteralIndex uses to tell the two shapes apart on the way back in.
// Small mode: 0..254 fits one byte; 255..510 is the escape byte 0xff
// followed by one more byte holding the value's offset past the limit.
func (e *Emitter) writeLiteralIndex(idx int, line, col int) {
	if usesFullLiteralEncoding(e.code.Header.StatusFlags) {
		if idx <= FullLiteralEncodingLimit1 {
			e.code.write(byte(idx), line, col)
			return
		}
		wide := idx + FullLiteralEncodingDelta1
		e.code.write(byte(wide>>8), line, col)
		e.code.write(byte(wide), line, col)
		return
	}
	if idx <= SmallLiteralEncodingLimit1 {
		e.code.write(byte(idx), line, col)
		return
	}
	if idx > SmallLiteralEncodingLimit2 {
		panic("cbc: literal index too large for small encoding")
	}
	e.code.write(0xff, line, col)
	e.code.write(byte(idx-SmallLiteralEncodingLimit1-1), line, col)
}

// EmitCbcByte writes op with a single raw byte operand — argument counts,
// array/object literal element counts — never a literal-pool index, so it
// bypasses writeLiteralIndex's variable-width encoding entirely.
func (e *Emitter) EmitCbcByte(op Opcode, operand byte, line, col int) {
	e.FlushCbc()
	e.code.write(byte(op), line, col)
	e.code.write(operand, line, col)
}

// EmitCbcExtByte writes an extended opcode with one raw byte operand —
// EXT_CONTEXT_END's context-kind discriminator (for-in / with / try), since
// one opcode closes all three kinds of context and the interpreter needs to
// know which cleanup to run.
func (e *Emitter) EmitCbcExtByte(extOp ExtOpcode, operand byte, line, col int) {
	e.FlushCbc()
	e.code.write(byte(ExtOpcodeMarker), line, col)
	e.code.write(byte(extOp), line, col)
	e.code.write(operand, line, col)
}

// EmitCbcForwardBranch reserves a 2-byte operand for a later patch and
// returns the handle pointing at it.
func (e *Emitter) EmitCbcForwardBranch(op Opcode, line, col int) BranchHandle {
	e.FlushCbc()
	e.code.write(byte(op), line, col)
	site := e.code.Len()
	e.code.write(0xff, line, col)
	e.code.write(0xff, line, col)
	return BranchHandle{site: site, emittedAt: e.code.Len(), op: op, width: 2}
}

// EmitCbcExtForwardBranch is the extended-opcode analogue of
// EmitCbcForwardBranch, used for for-in/with/try context-creating branches.
func (e *Emitter) EmitCbcExtForwardBranch(extOp ExtOpcode, line, col int) BranchHandle {
	e.FlushCbc()
	e.code.write(byte(ExtOpcodeMarker), line, col)
	e.code.write(byte(extOp), line, col)
	site := e.code.Len()
	e.code.write(0xff, line, col)
	e.code.write(0xff, line, col)
	return BranchHandle{site: site, emittedAt: e.code.Len(), width: 2}
}

// SetBranchToCurrentPosition back-patches handle's operand to the distance
// from its emission site to the current code size. The distance must be
// strictly positive; a forward branch patched to its own emission site is a
// parser bug, not a legal program.
func (e *Emitter) SetBranchToCurrentPosition(h BranchHandle) {
	e.patch(h, e.Len())
}

func (e *Emitter) patch(h BranchHandle, targetPos int) {
	dist := targetPos - h.emittedAt + h.width
	if dist <= 0 {
		panic("cbc: forward branch patched to non-positive distance")
	}
	if dist > 0xffff {
		panic("cbc: branch too far")
	}
	e.code.Code[h.site] = byte(dist >> 8)
	e.code.Code[h.site+1] = byte(dist)
}

// EmitCbcBackwardBranch emits op with an operand equal to the distance from
// target to the current code size.
func (e *Emitter) EmitCbcBackwardBranch(op Opcode, target int, line, col int) {
	e.FlushCbc()
	e.code.write(byte(op), line, col)
	dist := e.code.Len() + 2 - target
	if dist <= 0 {
		panic("cbc: backward branch target is not in the past")
	}
	if dist > 0xffff {
		panic("cbc: branch too far")
	}
	e.code.write(byte(dist>>8), line, col)
	e.code.write(byte(dist), line, col)
}

// EmitCbcExtBackwardBranch is the extended-opcode analogue of
// EmitCbcBackwardBranch, used to close a for-in loop's body back to its
// EXT_FOR_IN_GET_NEXT point.
func (e *Emitter) EmitCbcExtBackwardBranch(extOp ExtOpcode, target int, line, col int) {
	e.FlushCbc()
	e.code.write(byte(ExtOpcodeMarker), line, col)
	e.code.write(byte(extOp), line, col)
	dist := e.code.Len() + 2 - target
	if dist <= 0 {
		panic("cbc: backward branch target is not in the past")
	}
	if dist > 0xffff {
		panic("cbc: branch too far")
	}
	e.code.write(byte(dist>>8), line, col)
	e.code.write(byte(dist), line, col)
}

// EmitCbcForwardBranchItem emits a forward branch and prepends it to list,
// the way switch case lists and loop break/continue sets accumulate pending
// patches.
func (e *Emitter) EmitCbcForwardBranchItem(op Opcode, list *BranchList, line, col int) {
	h := e.EmitCbcForwardBranch(op, line, col)
	list.Push(h)
}

// SetBreaksToCurrentPosition drains list, patching every non-continue node
// to the current position and freeing it.
func (e *Emitter) SetBreaksToCurrentPosition(list *BranchList) {
	e.drain(list, func(n *BranchNode) bool { return !n.IsContinue }, e.Len())
}

// SetContinuesToCurrentPosition drains list, patching every continue node to
// continueTarget (which need not be the current position — e.g. the
// pre-update point of a for loop) and freeing it.
func (e *Emitter) SetContinuesToCurrentPosition(list *BranchList, continueTarget int) {
	e.drain(list, func(n *BranchNode) bool { return n.IsContinue }, continueTarget)
}

func (e *Emitter) drain(list *BranchList, match func(*BranchNode) bool, target int) {
	if list == nil {
		return
	}
	var kept *BranchNode
	node := list.head
	for node != nil {
		next := node.next
		if match(node) {
			e.patch(node.Handle, target)
		} else {
			node.next = kept
			kept = node
		}
		node = next
	}
	list.head = kept
}

// FreeJumps releases every BranchNode still referenced from lists, without
// patching them: the error-recovery walker invoked from the top-level catch
// when a compile fails partway through. Since Go branch nodes are ordinary
// garbage-collected values, "freeing" them means only clearing the lists so
// nothing keeps them reachable past the failing compile; there is no manual
// deallocation step.
func FreeJumps(lists ...*BranchList) {
	for _, l := range lists {
		if l != nil {
			l.head = nil
		}
	}
}
