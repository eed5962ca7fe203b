package main

import (
	"strings"
	"testing"

	"github.com/funvibe/cbcjs/internal/cbc"
	"github.com/funvibe/cbcjs/internal/cbcconfig"
)

func TestColorize_WrapsMnemonicOnly(t *testing.T) {
	code, err := cbcconfig.Default().Compile("var x = 1;")
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	listing := cbc.Disassemble(code, "test")

	colored := colorize(listing)
	if !strings.Contains(colored, "\033[96m") {
		t.Fatal("expected at least one colorized mnemonic")
	}
	if strings.Count(colored, "\033[96m") != strings.Count(colored, "\033[39m") {
		t.Error("mismatched color escape open/close count")
	}
}

func TestColorize_LeavesBannerUncolored(t *testing.T) {
	listing := "== test ==\n0000    1 push_1\n"
	colored := colorize(listing)
	lines := strings.Split(colored, "\n")
	if strings.Contains(lines[0], "\033[96m") {
		t.Error("banner line should not be colorized")
	}
	if !strings.Contains(lines[1], "\033[96m") {
		t.Error("instruction line should be colorized")
	}
}

func TestColorEnabled_RespectsNoColor(t *testing.T) {
	t.Setenv("NO_COLOR", "1")
	if colorEnabled() {
		t.Error("expected colorEnabled to be false when NO_COLOR is set")
	}
}

func TestColorEnabled_RespectsDumbTerm(t *testing.T) {
	t.Setenv("TERM", "dumb")
	if colorEnabled() {
		t.Error("expected colorEnabled to be false when TERM=dumb")
	}
}
