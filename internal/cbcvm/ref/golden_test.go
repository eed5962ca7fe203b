package ref_test

import (
	"os"
	"strings"
	"testing"

	"golang.org/x/tools/txtar"

	"github.com/funvibe/cbcjs/internal/cbcvm/ref"
	"github.com/funvibe/cbcjs/internal/parser"
)

// golden.txtar holds one source/expect pair per named scenario, covering
// every statement form the reference interpreter dispatches: arithmetic,
// control flow, functions and closures, array/object literals, exceptions,
// and 'with'.
func loadGoldenScenarios(t *testing.T) map[string]map[string]string {
	t.Helper()
	data, err := os.ReadFile("testdata/golden.txtar")
	if err != nil {
		t.Fatalf("reading golden.txtar: %v", err)
	}
	arc := txtar.Parse(data)

	scenarios := map[string]map[string]string{}
	for _, f := range arc.Files {
		slash := strings.IndexByte(f.Name, '/')
		if slash < 0 {
			t.Fatalf("malformed txtar entry name %q: want scenario/file", f.Name)
		}
		name, kind := f.Name[:slash], f.Name[slash+1:]
		if scenarios[name] == nil {
			scenarios[name] = map[string]string{}
		}
		scenarios[name][kind] = string(f.Data)
	}
	return scenarios
}

func TestGoldenScenarios(t *testing.T) {
	scenarios := loadGoldenScenarios(t)

	for name, files := range scenarios {
		name, files := name, files
		t.Run(name, func(t *testing.T) {
			source, ok := files["source.js"]
			if !ok {
				t.Fatalf("scenario %s has no source.js", name)
			}

			code, err := parser.Compile(source, parser.GoalProgram)
			if err != nil {
				t.Fatalf("compiling: %v", err)
			}

			in := ref.New()
			result, runErr := in.Run(code)

			if expectErr, ok := files["expect-error"]; ok {
				if runErr == nil {
					t.Fatalf("expected an error containing %q, got none (result %v)", strings.TrimSpace(expectErr), result)
				}
				if !strings.Contains(runErr.Error(), strings.TrimSpace(expectErr)) {
					t.Fatalf("error = %q, want substring %q", runErr.Error(), strings.TrimSpace(expectErr))
				}
				return
			}

			if runErr != nil {
				t.Fatalf("Run: %v", runErr)
			}
			want := strings.TrimSuffix(files["expect"], "\n")
			got := in.Values.ToString(result)
			if got != want {
				t.Errorf("result = %q, want %q", got, want)
			}
		})
	}
}
