package cbc

import (
	bitstring "github.com/funvibe/funbit/pkg/funbit"
)

// StatusFlags are carried from parser to runtime via the code-blob header.
type StatusFlags uint16

const (
	StrictMode StatusFlags = 1 << iota
	FullLiteralEncoding
	FuncKindArrow
	FuncKindStrict
	FuncKindNoThis
)

// usesFullLiteralEncoding resolves the encoding_limit decision. The source
// this is grounded on is arguably wrong here (plain '&' truthiness); this is
// the fixed form, flagged as an Open Question resolution.
func usesFullLiteralEncoding(flags StatusFlags) bool {
	return (flags & FullLiteralEncoding) == FullLiteralEncoding
}

// Literal encoding limits/deltas, by mode.
const (
	SmallLiteralEncodingLimit1 = 254
	SmallLiteralEncodingLimit2 = 510
	FullLiteralEncodingLimit1  = 127
	FullLiteralEncodingLimit2  = 32767
	FullLiteralEncodingDelta1  = 0x8000
	FullLiteralEncodingDelta2  = 0xfe01
)

// LiteralEncoding records which literal-index encoding this compiled unit
// used. Only Emitter.SetFullLiteralEncoding sets it to full; the emitter
// does not switch encoding on its own as a unit's literal count grows.
type LiteralEncoding uint8

const (
	SmallLiteralEncoding LiteralEncoding = iota
	FullLiteralEncodingMode
)

// Context-stack allocation constants, carried from the original's
// common.h PARSER_*_CONTEXT_STACK_ALLOCATION set.
const (
	WithContextStackAllocation = 2
	ForInContextStackAllocation = 3
	TryContextStackAllocation  = 3
)

// Header is the CompiledCode blob header: spec.md's named fields
// (StatusFlags, ArgumentEnd, RegisterEnd, IdentEnd, LiteralEnd, CodeSize)
// plus the two fields original_source/jerry-core's byte-code.h carries that
// spec.md abbreviates away (StackLimit, ConstLiteralEnd) and the explicit
// per-unit LiteralEncoding byte.
type Header struct {
	StatusFlags     StatusFlags
	StackLimit      uint16
	ArgumentEnd     uint16
	RegisterEnd     uint16
	IdentEnd        uint16
	ConstLiteralEnd uint16
	LiteralEnd      uint16
	LiteralEncoding LiteralEncoding
	CodeSize        uint32
}

// Pack serializes the header using funbit's bit-syntax builder, the way the
// original's packed C struct would be laid out on the wire: a 16-bit status
// field, a 16-bit stack limit, five 16-bit region boundaries, one encoding
// byte, a 32-bit code size.
func (h Header) Pack() ([]byte, error) {
	builder := bitstring.NewBuilder()
	bs, err := builder.
		AddInteger(uint64(h.StatusFlags), bitstring.WithSize(16)).
		AddInteger(uint64(h.StackLimit), bitstring.WithSize(16)).
		AddInteger(uint64(h.ArgumentEnd), bitstring.WithSize(16)).
		AddInteger(uint64(h.RegisterEnd), bitstring.WithSize(16)).
		AddInteger(uint64(h.IdentEnd), bitstring.WithSize(16)).
		AddInteger(uint64(h.ConstLiteralEnd), bitstring.WithSize(16)).
		AddInteger(uint64(h.LiteralEnd), bitstring.WithSize(16)).
		AddInteger(uint64(h.LiteralEncoding), bitstring.WithSize(8)).
		AddInteger(uint64(h.CodeSize), bitstring.WithSize(32)).
		Build()
	if err != nil {
		return nil, err
	}
	return bs.ToBytes(), nil
}

// Unpack decodes a header previously written by Pack.
func Unpack(data []byte) (Header, error) {
	var h Header
	var status, stackLimit, argEnd, regEnd, identEnd, constLitEnd, litEnd, codeSize uint64
	var litEnc uint64

	bs := bitstring.NewBitStringFromBytes(data)
	_, err := bitstring.NewMatcher().
		Integer(&status, bitstring.WithSize(16)).
		Integer(&stackLimit, bitstring.WithSize(16)).
		Integer(&argEnd, bitstring.WithSize(16)).
		Integer(&regEnd, bitstring.WithSize(16)).
		Integer(&identEnd, bitstring.WithSize(16)).
		Integer(&constLitEnd, bitstring.WithSize(16)).
		Integer(&litEnd, bitstring.WithSize(16)).
		Integer(&litEnc, bitstring.WithSize(8)).
		Integer(&codeSize, bitstring.WithSize(32)).
		Match(bs)
	if err != nil {
		return h, err
	}

	h.StatusFlags = StatusFlags(status)
	h.StackLimit = uint16(stackLimit)
	h.ArgumentEnd = uint16(argEnd)
	h.RegisterEnd = uint16(regEnd)
	h.IdentEnd = uint16(identEnd)
	h.ConstLiteralEnd = uint16(constLitEnd)
	h.LiteralEnd = uint16(litEnd)
	h.LiteralEncoding = LiteralEncoding(litEnc)
	h.CodeSize = uint32(codeSize)
	return h, nil
}
