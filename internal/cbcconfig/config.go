// Package cbcconfig loads cbc.yaml, the per-compile-unit configuration a
// cbcc invocation or cbcsvc server loads before running the pipeline: which
// goal kind to parse as and whether to force the full literal encoding. It
// also carries debug and cache keys, which Config.Compile does not read.
package cbcconfig

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/funvibe/cbcjs/internal/cbc"
	"github.com/funvibe/cbcjs/internal/parser"
)

// Config is the top-level cbc.yaml document.
type Config struct {
	// Goal is one of "program", "eval", "function". Defaults to "program".
	Goal string `yaml:"goal,omitempty"`

	// LiteralEncoding is "small", "full", or empty. "full" makes every unit
	// this config governs use the full literal-index encoding; "small" and
	// empty both leave each unit in the small encoding, since the emitter
	// does not choose an encoding from a unit's literal count.
	LiteralEncoding string `yaml:"literal_encoding,omitempty"`

	// Debug is loaded from cbc.yaml; Compile and the rest of this module do
	// not read it. Defaults to false.
	Debug bool `yaml:"debug,omitempty"`

	// Cache names a cbccache database file. Compile does not read it, and
	// cmd/cbcsvc takes its cache file from its own -cache flag instead.
	Cache string `yaml:"cache,omitempty"`
}

// GoalKind resolves the configured Goal string to a parser.GoalKind,
// defaulting to parser.GoalProgram.
func (c *Config) GoalKind() (parser.GoalKind, error) {
	switch c.Goal {
	case "", "program":
		return parser.GoalProgram, nil
	case "eval":
		return parser.GoalEval, nil
	case "function":
		return parser.GoalFunction, nil
	default:
		return 0, fmt.Errorf("cbc.yaml: goal: unknown value %q (want program, eval, or function)", c.Goal)
	}
}

// ForcedLiteralEncoding reports whether LiteralEncoding names a mode, and
// which cbc.LiteralEncoding it resolves to.
func (c *Config) ForcedLiteralEncoding() (mode cbc.LiteralEncoding, forced bool, err error) {
	switch c.LiteralEncoding {
	case "":
		return 0, false, nil
	case "small":
		return cbc.SmallLiteralEncoding, true, nil
	case "full":
		return cbc.FullLiteralEncodingMode, true, nil
	default:
		return 0, false, fmt.Errorf("cbc.yaml: literal_encoding: unknown value %q (want small or full)", c.LiteralEncoding)
	}
}

// Load reads and parses a cbc.yaml file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}
	return Parse(data, path)
}

// Parse parses cbc.yaml content from bytes. path is used only for error
// messages.
func Parse(data []byte, path string) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	if _, err := cfg.GoalKind(); err != nil {
		return nil, err
	}
	if _, _, err := cfg.ForcedLiteralEncoding(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Find searches for cbc.yaml starting from dir and walking up to parent
// directories, the way a project-root config file is conventionally
// discovered.
func Find(dir string) (string, error) {
	dir, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("resolving directory: %w", err)
	}

	for {
		candidate := filepath.Join(dir, "cbc.yaml")
		if _, err := os.Stat(candidate); err == nil {
			return candidate, nil
		}
		candidate = filepath.Join(dir, "cbc.yml")
		if _, err := os.Stat(candidate); err == nil {
			return candidate, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", nil
		}
		dir = parent
	}
}

// Default returns the zero-value configuration a cbcc invocation falls
// back to when no cbc.yaml is found: goal program, no forced literal
// encoding, debug off, no cache file.
func Default() *Config {
	return &Config{Goal: "program"}
}

// Compile parses source per this configuration's goal and literal-encoding
// override.
func (c *Config) Compile(source string) (*cbc.CompiledCode, error) {
	goal, err := c.GoalKind()
	if err != nil {
		return nil, err
	}
	mode, forced, err := c.ForcedLiteralEncoding()
	if err != nil {
		return nil, err
	}
	return parser.CompileWithEncoding(source, goal, forced && mode == cbc.FullLiteralEncodingMode)
}
