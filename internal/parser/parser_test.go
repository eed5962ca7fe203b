package parser_test

import (
	"strings"
	"testing"

	"github.com/funvibe/cbcjs/internal/cbc"
	"github.com/funvibe/cbcjs/internal/parser"
)

func compile(t *testing.T, source string) *cbc.CompiledCode {
	t.Helper()
	code, err := parser.Compile(source, parser.GoalProgram)
	if err != nil {
		t.Fatalf("Compile(%q): unexpected error: %v", source, err)
	}
	return code
}

func TestCompile_EmptyProgramHalts(t *testing.T) {
	code := compile(t, "")
	listing := cbc.Disassemble(code, "empty")
	if !strings.Contains(listing, "HALT") {
		t.Errorf("expected a HALT instruction in:\n%s", listing)
	}
}

func TestCompile_VarDeclarationInternsIdentLiteralWithFlagVar(t *testing.T) {
	code := compile(t, "var x = 1;")
	found := false
	for _, lit := range code.Literals {
		if lit.Kind == cbc.LiteralIdent && lit.Value == "x" {
			found = true
			if lit.Flags&cbc.FlagVar == 0 {
				t.Errorf("var declaration literal %+v missing FlagVar", lit)
			}
		}
	}
	if !found {
		t.Fatalf("no LiteralIdent for %q in pool: %+v", "x", code.Literals)
	}
}

func TestCompile_BareIdentifierReferenceHasNoFlagVar(t *testing.T) {
	code := compile(t, "var x = 1; x;")
	var declFlags, refFlagsSeen cbc.LiteralFlags
	count := 0
	for _, lit := range code.Literals {
		if lit.Kind == cbc.LiteralIdent && lit.Value == "x" {
			count++
			if lit.Flags&cbc.FlagVar != 0 {
				declFlags = lit.Flags
			} else {
				refFlagsSeen = lit.Flags
			}
		}
	}
	if count < 2 {
		t.Fatalf("expected a separate LiteralIdent for the declaration and the reference, got %d entries", count)
	}
	_ = declFlags
	_ = refFlagsSeen
}

func TestCompile_FunctionDeclarationInternsLiteralFunction(t *testing.T) {
	code := compile(t, "function add(a, b) { return a + b; }")
	for _, lit := range code.Literals {
		if lit.Kind == cbc.LiteralFunction {
			return
		}
	}
	t.Fatalf("no LiteralFunction entry in pool: %+v", code.Literals)
}

func TestCompile_DirectivePrologueSetsStrictOnUseStrict(t *testing.T) {
	// "use strict" must not desugar into an ordinary expression statement
	// that happens to also compile: a with-statement after it is a strict
	// mode violation and must fail to compile.
	_, err := parser.Compile(`"use strict"; with ({}) { 1; }`, parser.GoalProgram)
	if err == nil {
		t.Fatal("expected a strict-mode error for 'with' after \"use strict\"")
	}
}

func TestCompile_WithAllowedWithoutUseStrict(t *testing.T) {
	compile(t, "with ({}) { 1; }")
}

func TestCompile_UnterminatedBlockIsAnError(t *testing.T) {
	_, err := parser.Compile("{ var x = 1;", parser.GoalProgram)
	if err == nil {
		t.Fatal("expected an error for an unterminated block")
	}
}

func TestCompile_BreakOutsideLoopIsAnError(t *testing.T) {
	_, err := parser.Compile("break;", parser.GoalProgram)
	if err == nil {
		t.Fatal("expected an error for break outside any loop/switch")
	}
}

func TestCompile_ContinueOutsideLoopIsAnError(t *testing.T) {
	_, err := parser.Compile("continue;", parser.GoalProgram)
	if err == nil {
		t.Fatal("expected an error for continue outside any loop")
	}
}

func TestCompile_ReturnOutsideFunctionIsAnError(t *testing.T) {
	_, err := parser.Compile("return 1;", parser.GoalProgram)
	if err == nil {
		t.Fatal("expected an error for return outside a function body")
	}
}

func TestCompile_CaseOutsideSwitchIsAnError(t *testing.T) {
	_, err := parser.Compile("case 1: ;", parser.GoalProgram)
	if err == nil {
		t.Fatal("expected an error for a bare case clause outside switch")
	}
}

func TestCompile_DuplicateLabelIsAnError(t *testing.T) {
	_, err := parser.Compile("a: a: while (false) {}", parser.GoalProgram)
	if err == nil {
		t.Fatal("expected an error for a duplicate label")
	}
}

func TestCompile_LabelledBreakResolvesOutward(t *testing.T) {
	compile(t, `
		outer: for (var i = 0; i < 1; i = i + 1) {
			for (var j = 0; j < 1; j = j + 1) {
				break outer;
			}
		}
	`)
}

func TestCompile_TryWithNeitherCatchNorFinallyIsAnError(t *testing.T) {
	_, err := parser.Compile("try { 1; }", parser.GoalProgram)
	if err == nil {
		t.Fatal("expected an error for try with neither catch nor finally")
	}
}

// These pin down enterElse's closing of its own Else frame: without it, the
// frame is left dangling on the statement stack past the point where the
// if/else's caller expects it gone.

func TestCompile_IfElseAsProgramFinalStatement(t *testing.T) {
	compile(t, "if (1) 1; else 2;")
}

func TestCompile_IfElseAsBlockFinalStatement(t *testing.T) {
	compile(t, "{ if (1) 1; else 2; }")
}

func TestCompile_IfElseAsFunctionBodyFinalStatement(t *testing.T) {
	compile(t, "function f() { if (1) { return 1; } else { return 2; } }")
}

func TestCompile_StatementsAfterIfElseStillCompile(t *testing.T) {
	compile(t, `
		if (1) { 1; } else { 2; }
		var x = 3;
		x;
	`)
}

// A dangling Else frame left behind by an if/else earlier in a loop body
// corrupts innermostLoop's walk for any break/continue lexically after it —
// this would desynchronize the frame stack enough that break resolves to
// the wrong frame, or not at all.
func TestCompile_BreakAfterIfElseInLoopBodyResolvesToTheLoop(t *testing.T) {
	compile(t, `
		while (true) {
			if (1) { 1; } else { 2; }
			break;
		}
	`)
}

// Mirrors the same concern inside a switch case body, where a dangling Else
// frame would be popped in place of the switch's own frame.
func TestCompile_SwitchCaseBodyEndingInIfElse(t *testing.T) {
	compile(t, `
		switch (1) {
		case 1:
			if (1) { 1; } else { 2; }
			break;
		default:
			3;
		}
	`)
}

// The last case tested in a switch must skip DUP and use
// BRANCH_IF_STRICT_EQUAL directly; every earlier case keeps DUP +
// STRICT_EQUAL + BRANCH_IF_TRUE_FORWARD, since only the last test has no
// further case left that might still need a preserved copy of the
// discriminant.
func TestCompile_SwitchLastCaseSkipsDupAndUsesBranchIfStrictEqual(t *testing.T) {
	code := compile(t, `
		switch (x) {
		case 1:
			1;
			break;
		case 2:
			2;
			break;
		default:
			3;
		}
	`)
	listing := cbc.Disassemble(code, "switch")

	firstDup := strings.Index(listing, "DUP")
	lastBranchIfTrue := strings.LastIndex(listing, "BRANCH_IF_TRUE_FORWARD")
	branchIfStrictEqual := strings.Index(listing, "BRANCH_IF_STRICT_EQUAL")

	if firstDup < 0 || lastBranchIfTrue < 0 {
		t.Fatalf("expected an earlier case to still use DUP + BRANCH_IF_TRUE_FORWARD in:\n%s", listing)
	}
	if branchIfStrictEqual < 0 {
		t.Fatalf("expected the last case to use BRANCH_IF_STRICT_EQUAL in:\n%s", listing)
	}
	if strings.Count(listing, "DUP") != 1 {
		t.Errorf("expected exactly one DUP (for the non-last case), got:\n%s", listing)
	}
	if branchIfStrictEqual < lastBranchIfTrue {
		t.Errorf("expected BRANCH_IF_STRICT_EQUAL to belong to the later (last) case test in:\n%s", listing)
	}
}

func TestCompileWithEncoding_ForcesFullLiteralEncodingOnHeader(t *testing.T) {
	small, err := parser.CompileWithEncoding("var x = 1;", parser.GoalProgram, false)
	if err != nil {
		t.Fatalf("Compile (small): %v", err)
	}
	full, err := parser.CompileWithEncoding("var x = 1;", parser.GoalProgram, true)
	if err != nil {
		t.Fatalf("Compile (full): %v", err)
	}
	if small.Header.LiteralEncoding == full.Header.LiteralEncoding {
		t.Errorf("expected forced full literal encoding to differ from the small-mode default (got %v for both)", small.Header.LiteralEncoding)
	}
}

func TestCompileWithEncoding_NestedFunctionInheritsForcedEncoding(t *testing.T) {
	code, err := parser.CompileWithEncoding(
		"function outer() { var y = 1; return y; } outer();",
		parser.GoalProgram, true,
	)
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	for _, lit := range code.Literals {
		if lit.Kind != cbc.LiteralFunction {
			continue
		}
		fn, ok := lit.Value.(*cbc.CompiledCode)
		if !ok {
			t.Fatalf("LiteralFunction value is not *cbc.CompiledCode: %T", lit.Value)
		}
		if fn.Header.LiteralEncoding != code.Header.LiteralEncoding {
			t.Errorf("nested function encoding %v does not match forced outer encoding %v", fn.Header.LiteralEncoding, code.Header.LiteralEncoding)
		}
	}
}
