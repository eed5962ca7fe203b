// Command cbcdump disassembles a cbcc-compiled blob (or, with -source,
// compiles a .js-like source file first) and prints the instruction
// listing, color-coding opcodes when stdout is a real terminal.
package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mattn/go-isatty"

	"github.com/funvibe/cbcjs/internal/cbc"
	"github.com/funvibe/cbcjs/internal/cbcconfig"
)

func main() {
	defer func() {
		if r := recover(); r != nil {
			if os.Getenv("CBC_DEBUG") == "1" {
				panic(r)
			}
			fmt.Fprintf(os.Stderr, "internal error: %v\n", r)
			fmt.Fprintln(os.Stderr, "this is a bug, please report it")
			os.Exit(1)
		}
	}()

	source := false
	var fileArg string
	for _, arg := range os.Args[1:] {
		switch {
		case arg == "-source" || arg == "--source":
			source = true
		case fileArg == "" && !strings.HasPrefix(arg, "-"):
			fileArg = arg
		}
	}

	data, err := readInput(fileArg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %s\n", err)
		os.Exit(1)
	}

	var code *cbc.CompiledCode
	if source {
		code, err = cbcconfig.Default().Compile(string(data))
		if err != nil {
			fmt.Fprintln(os.Stderr, "compilation failed:")
			fmt.Fprintf(os.Stderr, "- %s\n", err)
			os.Exit(1)
		}
	} else {
		code, err = cbc.Unmarshal(data)
		if err != nil {
			fmt.Fprintf(os.Stderr, "error reading bytecode blob: %s\n", err)
			os.Exit(1)
		}
	}

	name := fileArg
	if name == "" {
		name = "<stdin>"
	}
	listing := cbc.Disassemble(code, name)
	if colorEnabled() {
		listing = colorize(listing)
	}
	fmt.Print(listing)
}

func colorEnabled() bool {
	if _, ok := os.LookupEnv("NO_COLOR"); ok {
		return false
	}
	if os.Getenv("TERM") == "dumb" {
		return false
	}
	return isatty.IsTerminal(os.Stdout.Fd()) || isatty.IsCygwinTerminal(os.Stdout.Fd())
}

// disasmPrefixWidth is disassembleInstruction's fixed "%04d " offset field
// plus its fixed 5-wide line-number-or-continuation field — the mnemonic
// always starts right after it.
const disasmPrefixWidth = 10

// colorize wraps each instruction line's mnemonic in a bright-cyan escape,
// leaving the offset/line prefix, operands, and the "== name ==" banner
// uncolored.
func colorize(listing string) string {
	lines := strings.Split(listing, "\n")
	for i, line := range lines {
		if len(line) <= disasmPrefixWidth || strings.HasPrefix(line, "==") {
			continue
		}
		prefix, rest := line[:disasmPrefixWidth], line[disasmPrefixWidth:]
		fields := strings.SplitN(rest, " ", 2)
		mnemonic := fields[0]
		remainder := ""
		if len(fields) > 1 {
			remainder = " " + fields[1]
		}
		lines[i] = prefix + "\033[96m" + mnemonic + "\033[39m" + remainder
	}
	return strings.Join(lines, "\n")
}

func readInput(fileArg string) ([]byte, error) {
	if fileArg == "" {
		stat, _ := os.Stdin.Stat()
		if (stat.Mode() & os.ModeCharDevice) != 0 {
			return nil, fmt.Errorf("usage: %s [-source] <file> or pipe from stdin", os.Args[0])
		}
		return io.ReadAll(os.Stdin)
	}
	return os.ReadFile(fileArg)
}
