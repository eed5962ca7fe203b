package cbccache

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/funvibe/cbcjs/internal/parser"
)

func openTestCache(t *testing.T) *Cache {
	t.Helper()
	path := filepath.Join(t.TempDir(), "cbc-cache.db")
	c, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { c.Close() })
	return c
}

func TestGet_Missing(t *testing.T) {
	c := openTestCache(t)
	_, err := c.Get(Key("var x = 1;", parser.GoalProgram))
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestPutGet_RoundTrip(t *testing.T) {
	c := openTestCache(t)
	source := "var x = 1 + 2;"
	code, err := parser.Compile(source, parser.GoalProgram)
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	key := Key(source, parser.GoalProgram)
	if err := c.Put(key, code); err != nil {
		t.Fatalf("Put: %v", err)
	}
	got, err := c.Get(key)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if len(got.Code) != len(code.Code) {
		t.Errorf("code length = %d, want %d", len(got.Code), len(code.Code))
	}
}

func TestCompileCached_HitsCacheSecondTime(t *testing.T) {
	c := openTestCache(t)
	source := "var y = 41 + 1;"

	first, err := c.CompileCached(source, parser.GoalProgram)
	if err != nil {
		t.Fatalf("CompileCached (miss): %v", err)
	}
	second, err := c.CompileCached(source, parser.GoalProgram)
	if err != nil {
		t.Fatalf("CompileCached (hit): %v", err)
	}
	if len(first.Code) != len(second.Code) {
		t.Errorf("code length mismatch between compile and cache hit: %d vs %d", len(first.Code), len(second.Code))
	}
}

func TestKey_DiffersByGoal(t *testing.T) {
	a := Key("x", parser.GoalProgram)
	b := Key("x", parser.GoalFunction)
	if a == b {
		t.Error("expected different keys for different goal kinds")
	}
}
