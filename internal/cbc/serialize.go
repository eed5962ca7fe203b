package cbc

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math"
)

// headerPackedSize is Header.Pack's fixed output length: seven 16-bit
// fields, one 8-bit field, one 32-bit field.
const headerPackedSize = 7*2 + 1 + 4

// Marshal serializes code (including any nested function literals,
// recursively) into a self-contained byte blob: internal/cbccache stores
// these keyed on source hash, and cmd/cbcc's non-disassembly output mode
// writes one straight to stdout.
//
// The header uses Header.Pack's funbit bit-syntax encoding, the same as
// every other fixed-width region boundary this format carries; the literal
// pool and code/line/column arrays that follow have no ecosystem
// serialization library in the retrieved pack suited to a flat
// variable-length array of mixed-kind entries, so this is a small
// hand-rolled binary.BigEndian format instead.
func Marshal(code *CompiledCode) ([]byte, error) {
	var buf bytes.Buffer
	if err := marshalInto(&buf, code); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func marshalInto(buf *bytes.Buffer, code *CompiledCode) error {
	header, err := code.Header.Pack()
	if err != nil {
		return fmt.Errorf("marshal header: %w", err)
	}
	buf.Write(header)

	writeUint32(buf, uint32(len(code.Literals)))
	for _, lit := range code.Literals {
		buf.WriteByte(byte(lit.Kind))
		buf.WriteByte(byte(lit.Flags))
		switch lit.Kind {
		case LiteralIdent, LiteralString, LiteralRegexp:
			writeString(buf, lit.Value.(string))
		case LiteralNumber:
			writeUint64(buf, math.Float64bits(lit.Value.(float64)))
		case LiteralFunction:
			if err := marshalInto(buf, lit.Value.(*CompiledCode)); err != nil {
				return err
			}
		default:
			return fmt.Errorf("marshal: unknown literal kind %d", lit.Kind)
		}
	}

	writeUint32(buf, uint32(len(code.Code)))
	buf.Write(code.Code)
	for _, l := range code.Lines {
		writeUint32(buf, uint32(l))
	}
	for _, c := range code.Columns {
		writeUint32(buf, uint32(c))
	}
	return nil
}

// Unmarshal is Marshal's inverse.
func Unmarshal(data []byte) (*CompiledCode, error) {
	r := bytes.NewReader(data)
	code, err := unmarshalFrom(r)
	if err != nil {
		return nil, err
	}
	return code, nil
}

func unmarshalFrom(r *bytes.Reader) (*CompiledCode, error) {
	headerBuf := make([]byte, headerPackedSize)
	if _, err := r.Read(headerBuf); err != nil {
		return nil, fmt.Errorf("unmarshal header: %w", err)
	}
	header, err := Unpack(headerBuf)
	if err != nil {
		return nil, fmt.Errorf("unmarshal header: %w", err)
	}

	code := &CompiledCode{Header: header}

	litCount, err := readUint32(r)
	if err != nil {
		return nil, err
	}
	code.Literals = make([]Literal, litCount)
	for i := range code.Literals {
		kindByte, err := r.ReadByte()
		if err != nil {
			return nil, err
		}
		flagsByte, err := r.ReadByte()
		if err != nil {
			return nil, err
		}
		kind := LiteralKind(kindByte)
		lit := Literal{Kind: kind, Flags: LiteralFlags(flagsByte)}
		switch kind {
		case LiteralIdent, LiteralString, LiteralRegexp:
			s, err := readString(r)
			if err != nil {
				return nil, err
			}
			lit.Value = s
		case LiteralNumber:
			bits, err := readUint64(r)
			if err != nil {
				return nil, err
			}
			lit.Value = math.Float64frombits(bits)
		case LiteralFunction:
			nested, err := unmarshalFrom(r)
			if err != nil {
				return nil, err
			}
			lit.Value = nested
		default:
			return nil, fmt.Errorf("unmarshal: unknown literal kind %d", kind)
		}
		code.Literals[i] = lit
	}

	codeLen, err := readUint32(r)
	if err != nil {
		return nil, err
	}
	code.Code = make([]byte, codeLen)
	if codeLen > 0 {
		if _, err := r.Read(code.Code); err != nil {
			return nil, err
		}
	}
	code.Lines = make([]int, codeLen)
	for i := range code.Lines {
		v, err := readUint32(r)
		if err != nil {
			return nil, err
		}
		code.Lines[i] = int(v)
	}
	code.Columns = make([]int, codeLen)
	for i := range code.Columns {
		v, err := readUint32(r)
		if err != nil {
			return nil, err
		}
		code.Columns[i] = int(v)
	}

	return code, nil
}

func writeUint32(buf *bytes.Buffer, v uint32) {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], v)
	buf.Write(b[:])
}

func writeUint64(buf *bytes.Buffer, v uint64) {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], v)
	buf.Write(b[:])
}

func writeString(buf *bytes.Buffer, s string) {
	writeUint32(buf, uint32(len(s)))
	buf.WriteString(s)
}

func readUint32(r *bytes.Reader) (uint32, error) {
	var b [4]byte
	if _, err := r.Read(b[:]); err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint32(b[:]), nil
}

func readUint64(r *bytes.Reader) (uint64, error) {
	var b [8]byte
	if _, err := r.Read(b[:]); err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint64(b[:]), nil
}

func readString(r *bytes.Reader) (string, error) {
	n, err := readUint32(r)
	if err != nil {
		return "", err
	}
	b := make([]byte, n)
	if n > 0 {
		if _, err := r.Read(b); err != nil {
			return "", err
		}
	}
	return string(b), nil
}
