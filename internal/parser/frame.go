package parser

import "github.com/funvibe/cbcjs/internal/cbc"

// StatementKind tags a statement-stack frame. The statement-length table the
// source keeps to size each tag's payload becomes, in Go, just the frame
// struct's own field layout: every kind lives in the same struct, tagged by
// Kind, rather than in a packed byte buffer.
type StatementKind uint8

const (
	KindStart StatementKind = iota
	KindBlock
	KindLabel
	KindIf
	KindElse
	KindSwitch
	KindSwitchNoDefault
	KindDoWhile
	KindWhile
	KindFor
	KindForIn
	KindWith
	KindTry
)

type tryPhase uint8

const (
	tryBlockPhase tryPhase = iota
	catchBlockPhase
	finallyBlockPhase
)

// loopFrame is the payload shared by every loop-shaped frame (DoWhile,
// While, For, ForIn, Switch*): the break and continue branch lists.
type loopFrame struct {
	Breaks    cbc.BranchList
	Continues cbc.BranchList
}

// frame is a tagged union of every statement-stack payload shape named in
// the data model: Block carries nothing, Label/If/Else/Switch*/loops/With/Try
// each use only the fields their Kind needs. Zero value for unused fields is
// never read.
type frame struct {
	Kind StatementKind

	// Label
	LabelName string

	// If / Else / With / ForIn
	End cbc.BranchHandle

	// Switch / SwitchNoDefault
	Default cbc.BranchHandle
	Cases   cbc.BranchList

	// DoWhile / While / For / ForIn
	Start int
	Cond  sourceRange
	Upd   sourceRange

	// Try
	Phase   tryPhase
	TryEnd  cbc.BranchHandle

	Loop loopFrame
}

// sourceRange is the statement parser's own copy of the pre-scanner's
// SourceRange (same fields, converted by toSourceRange), so frames can hold
// ranges without carrying prescan's type. Start/End are byte offsets (token.Offset
// values); StartLine/StartCol and EndLine/EndCol are their corresponding
// positions, used to keep line/column tracking correct across a seekTo.
type sourceRange struct {
	Start, End                     int
	StartLine, StartCol            int
	EndLine, EndCol                int
}
