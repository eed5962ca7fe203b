package cbc

// BranchHandle is a patch site: the byte offset in the code buffer where a
// branch instruction's operand begins, plus the code size recorded at
// emission time and the operand width reserved there. It is the handle-based
// model Design Notes §9 calls for in place of the source's raw
// pointer-into-buffer.
type BranchHandle struct {
	site      int
	emittedAt int
	op        Opcode
	width     int
}

// BranchNode is one pending forward branch filed into a frame's list
// (switch case lists, loop break/continue sets). IsContinue marks "this is a
// continue, not a break" — the source keeps this as the high bit of the
// in-memory offset; Go keeps it as its own field so BranchHandle.site stays
// an honest byte offset throughout.
type BranchNode struct {
	Handle    BranchHandle
	IsContinue bool
	next      *BranchNode
}

// BranchList is a singly-linked list of pending BranchNodes, owned by the
// statement frame that created them.
type BranchList struct {
	head *BranchNode
}

// Push prepends a break-target branch node carrying handle to the list.
func (l *BranchList) Push(handle BranchHandle) {
	l.head = &BranchNode{Handle: handle, next: l.head}
}

// PushContinue prepends a continue-target branch node to the list.
func (l *BranchList) PushContinue(handle BranchHandle) {
	l.head = &BranchNode{Handle: handle, IsContinue: true, next: l.head}
}

// IsEmpty reports whether the list has no pending nodes.
func (l *BranchList) IsEmpty() bool {
	return l == nil || l.head == nil
}
