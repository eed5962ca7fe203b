package cbcconfig

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/funvibe/cbcjs/internal/cbc"
)

func TestParse_Minimal(t *testing.T) {
	cfg, err := Parse([]byte(""), "cbc.yaml")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	goal, err := cfg.GoalKind()
	if err != nil {
		t.Fatalf("GoalKind: %v", err)
	}
	if goal != 0 {
		t.Errorf("goal = %v, want GoalProgram", goal)
	}
}

func TestParse_FullConfig(t *testing.T) {
	yaml := `
goal: function
literal_encoding: full
debug: true
cache: /tmp/cbc.cache
`
	cfg, err := Parse([]byte(yaml), "cbc.yaml")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !cfg.Debug {
		t.Error("expected debug true")
	}
	if cfg.Cache != "/tmp/cbc.cache" {
		t.Errorf("cache = %q", cfg.Cache)
	}
	mode, forced, err := cfg.ForcedLiteralEncoding()
	if err != nil {
		t.Fatalf("ForcedLiteralEncoding: %v", err)
	}
	if !forced || mode != cbc.FullLiteralEncodingMode {
		t.Errorf("mode = %v forced = %v, want full/true", mode, forced)
	}
}

func TestParse_UnknownGoal(t *testing.T) {
	_, err := Parse([]byte("goal: nonsense\n"), "cbc.yaml")
	if err == nil {
		t.Fatal("expected error for unknown goal")
	}
}

func TestParse_UnknownLiteralEncoding(t *testing.T) {
	_, err := Parse([]byte("literal_encoding: huge\n"), "cbc.yaml")
	if err == nil {
		t.Fatal("expected error for unknown literal_encoding")
	}
}

func TestFind(t *testing.T) {
	dir := t.TempDir()
	sub := filepath.Join(dir, "a", "b")
	if err := os.MkdirAll(sub, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "cbc.yaml"), []byte("goal: program\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	found, err := Find(sub)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := filepath.Join(dir, "cbc.yaml")
	if found != want {
		t.Errorf("found = %q, want %q", found, want)
	}
}

func TestFind_NotFound(t *testing.T) {
	dir := t.TempDir()
	found, err := Find(dir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if found != "" {
		t.Errorf("found = %q, want empty", found)
	}
}

func TestConfig_Compile(t *testing.T) {
	cfg := Default()
	code, err := cfg.Compile("var x = 1;")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(code.Code) == 0 {
		t.Error("expected non-empty bytecode")
	}
}
