package main

import (
	"os"
	"path/filepath"
	"testing"
)

func TestReadInput_File(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "script.js")
	if err := os.WriteFile(path, []byte("var x = 1;"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	got, err := readInput(path)
	if err != nil {
		t.Fatalf("readInput: %v", err)
	}
	if got != "var x = 1;" {
		t.Errorf("got %q", got)
	}
}

func TestReadInput_MissingFile(t *testing.T) {
	if _, err := readInput(filepath.Join(t.TempDir(), "missing.js")); err == nil {
		t.Fatal("expected an error for a missing file")
	}
}

func TestLoadConfig_ExplicitPath(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "cbc.yaml")
	if err := os.WriteFile(path, []byte("goal: eval\n"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	cfg, err := loadConfig(path, "")
	if err != nil {
		t.Fatalf("loadConfig: %v", err)
	}
	if cfg.Goal != "eval" {
		t.Errorf("Goal = %q, want eval", cfg.Goal)
	}
}

func TestLoadConfig_FallsBackToDefault(t *testing.T) {
	cfg, err := loadConfig("", filepath.Join(t.TempDir(), "script.js"))
	if err != nil {
		t.Fatalf("loadConfig: %v", err)
	}
	if cfg.Goal != "program" {
		t.Errorf("Goal = %q, want program", cfg.Goal)
	}
}

func TestLoadConfig_FindsConfigNearSource(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "cbc.yaml"), []byte("goal: function\n"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	scriptPath := filepath.Join(dir, "script.js")

	cfg, err := loadConfig("", scriptPath)
	if err != nil {
		t.Fatalf("loadConfig: %v", err)
	}
	if cfg.Goal != "function" {
		t.Errorf("Goal = %q, want function", cfg.Goal)
	}
}
