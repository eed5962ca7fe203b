package cbc

// ReadLiteralIndex is writeLiteralIndex's inverse: given the byte stream and
// a position sitting on an operand written by it, returns the decoded index
// and the position just past the operand. A consumer (disassembler,
// interpreter) needs this to walk the stream at all, since operand width is
// not otherwise recoverable from the opcode alone.
func ReadLiteralIndex(code []byte, pos int, full bool) (idx int, next int) {
	b0 := code[pos]
	if full {
		if b0&0x80 == 0 {
			return int(b0), pos + 1
		}
		wide := int(b0)<<8 | int(code[pos+1])
		return wide - FullLiteralEncodingDelta1, pos + 2
	}
	if b0 != 0xff {
		return int(b0), pos + 1
	}
	return SmallLiteralEncodingLimit1 + 1 + int(code[pos+1]), pos + 2
}

// ReadBranchOperand reads the 2-byte big-endian displacement written by
// EmitCbcForwardBranch/EmitCbcBackwardBranch and their Ext counterparts.
func ReadBranchOperand(code []byte, pos int) (dist int, next int) {
	return int(code[pos])<<8 | int(code[pos+1]), pos + 2
}
