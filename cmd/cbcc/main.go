// Command cbcc is the compile-only CLI: it reads a script from a file or
// stdin, runs it through the parser/emitter pipeline, and writes either the
// serialized CompiledCode blob or its disassembly to stdout.
package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

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

	disasm := false
	configPath := ""
	var fileArg string
	for _, arg := range os.Args[1:] {
		switch {
		case arg == "-disasm" || arg == "--disasm":
			disasm = true
		case strings.HasPrefix(arg, "-config="):
			configPath = strings.TrimPrefix(arg, "-config=")
		case strings.HasPrefix(arg, "--config="):
			configPath = strings.TrimPrefix(arg, "--config=")
		case fileArg == "" && !strings.HasPrefix(arg, "-"):
			fileArg = arg
		}
	}

	source, err := readInput(fileArg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %s\n", err)
		os.Exit(1)
	}

	cfg, err := loadConfig(configPath, fileArg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %s\n", err)
		os.Exit(1)
	}

	code, err := cfg.Compile(source)
	if err != nil {
		fmt.Fprintln(os.Stderr, "compilation failed:")
		fmt.Fprintf(os.Stderr, "- %s\n", err)
		os.Exit(1)
	}

	if disasm {
		name := fileArg
		if name == "" {
			name = "<stdin>"
		}
		fmt.Print(cbc.Disassemble(code, name))
		return
	}

	data, err := cbc.Marshal(code)
	if err != nil {
		fmt.Fprintf(os.Stderr, "serialization error: %s\n", err)
		os.Exit(1)
	}
	os.Stdout.Write(data)
}

func loadConfig(explicitPath, sourceFile string) (*cbcconfig.Config, error) {
	if explicitPath != "" {
		return cbcconfig.Load(explicitPath)
	}
	dir := "."
	if sourceFile != "" {
		dir = filepath.Dir(sourceFile)
	}
	found, err := cbcconfig.Find(dir)
	if err != nil {
		return nil, err
	}
	if found == "" {
		return cbcconfig.Default(), nil
	}
	return cbcconfig.Load(found)
}

func readInput(fileArg string) (string, error) {
	if fileArg == "" {
		stat, _ := os.Stdin.Stat()
		if (stat.Mode() & os.ModeCharDevice) != 0 {
			return "", fmt.Errorf("usage: %s [-disasm] [-config=path] <file> or pipe from stdin", os.Args[0])
		}
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return "", fmt.Errorf("reading stdin: %w", err)
		}
		return string(data), nil
	}
	data, err := os.ReadFile(fileArg)
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", fileArg, err)
	}
	return string(data), nil
}
