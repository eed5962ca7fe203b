package cbc

import "testing"

func buildSample() *CompiledCode {
	e := NewEmitter()
	idx := e.AddLiteral(Literal{Kind: LiteralString, Value: "hello"})
	e.EmitCbcLiteral(PushLiteral, idx, 1, 1)
	numIdx := e.AddLiteral(Literal{Kind: LiteralNumber, Value: 3.5})
	e.EmitCbcLiteral(PushLiteral, numIdx, 1, 7)
	e.EmitCbc(Add, 1, 9)
	e.EmitCbc(Halt, 1, 10)
	e.FlushCbc()
	return e.Code()
}

func TestMarshalUnmarshalRoundTrip(t *testing.T) {
	code := buildSample()
	data, err := Marshal(code)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	got, err := Unmarshal(data)
	if err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if len(got.Code) != len(code.Code) {
		t.Fatalf("code length = %d, want %d", len(got.Code), len(code.Code))
	}
	if len(got.Literals) != len(code.Literals) {
		t.Fatalf("literal count = %d, want %d", len(got.Literals), len(code.Literals))
	}
	if got.Literals[0].Value.(string) != "hello" {
		t.Errorf("literal[0] = %v, want hello", got.Literals[0].Value)
	}
	if got.Literals[1].Value.(float64) != 3.5 {
		t.Errorf("literal[1] = %v, want 3.5", got.Literals[1].Value)
	}
}

func TestMarshalUnmarshalNestedFunction(t *testing.T) {
	inner := buildSample()
	e := NewEmitter()
	idx := e.AddLiteral(Literal{Kind: LiteralFunction, Value: inner})
	e.EmitCbcLiteral(PushClosure, idx, 2, 1)
	e.EmitCbc(Halt, 2, 2)
	e.FlushCbc()
	outer := e.Code()

	data, err := Marshal(outer)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	got, err := Unmarshal(data)
	if err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	nested, ok := got.Literals[0].Value.(*CompiledCode)
	if !ok {
		t.Fatalf("literal[0] is not *CompiledCode: %T", got.Literals[0].Value)
	}
	if len(nested.Code) != len(inner.Code) {
		t.Errorf("nested code length = %d, want %d", len(nested.Code), len(inner.Code))
	}
}
