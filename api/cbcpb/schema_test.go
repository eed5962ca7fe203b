package cbcpb

import "testing"

func TestStringRoundTrip(t *testing.T) {
	req := NewCompileRequest()
	SetString(req, "source", "var x = 1;")
	SetString(req, "goal", "program")
	if got := GetString(req, "source"); got != "var x = 1;" {
		t.Errorf("source = %q, want %q", got, "var x = 1;")
	}
	if got := GetString(req, "goal"); got != "program" {
		t.Errorf("goal = %q, want %q", got, "program")
	}
}

func TestBytesRoundTrip(t *testing.T) {
	resp := NewCompileResponse()
	blob := []byte{0x01, 0x02, 0x03}
	SetBytes(resp, "blob", blob)
	got := GetBytes(resp, "blob")
	if len(got) != len(blob) {
		t.Fatalf("len = %d, want %d", len(got), len(blob))
	}
	for i := range blob {
		if got[i] != blob[i] {
			t.Errorf("byte %d = %x, want %x", i, got[i], blob[i])
		}
	}
}

func TestRepeatedStringRoundTrip(t *testing.T) {
	resp := NewCompileResponse()
	AppendString(resp, "diagnostics", "first")
	AppendString(resp, "diagnostics", "second")
	got := RepeatedStrings(resp, "diagnostics")
	if len(got) != 2 || got[0] != "first" || got[1] != "second" {
		t.Errorf("diagnostics = %v, want [first second]", got)
	}
}

func TestFileDescriptor_HasService(t *testing.T) {
	svc := File.Services().ByName("CompileService")
	if svc == nil {
		t.Fatal("expected CompileService in file descriptor")
	}
	if svc.Methods().Len() != 2 {
		t.Errorf("method count = %d, want 2", svc.Methods().Len())
	}
}
