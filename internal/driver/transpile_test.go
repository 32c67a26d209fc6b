package driver

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"pylift/internal/annotations"
	"pylift/internal/hir"
	"pylift/internal/source"
	"pylift/internal/testkit"
)

// moduleJSON is a minimal serialized module: an arithmetic function plus a
// constant-foldable one.
const moduleJSON = `{
  "name": "m",
  "functions": [
    {
      "name": "double",
      "params": [{"name": "x", "type": {"kind": "int"}}],
      "ret": {"kind": "int"},
      "body": [
        {"kind": "return", "value": {
          "kind": "binary", "op": "*", "type": {"kind": "int"},
          "left": {"kind": "var", "name": "x", "type": {"kind": "int"}},
          "right": {"kind": "literal", "lit": "int", "int": 2, "type": {"kind": "int"}}
        }}
      ]
    },
    {
      "name": "three",
      "params": [],
      "ret": {"kind": "int"},
      "body": [
        {"kind": "return", "value": {
          "kind": "binary", "op": "+", "type": {"kind": "int"},
          "left": {"kind": "literal", "lit": "int", "int": 1, "type": {"kind": "int"}},
          "right": {"kind": "literal", "lit": "int", "int": 2, "type": {"kind": "int"}}
        }}
      ]
    }
  ]
}`

func testConfig() Config {
	return Config{SkipFormat: true}
}

func TestTranspileDataEndToEnd(t *testing.T) {
	fs := source.NewFileSet()
	id := fs.AddVirtual("m.json", []byte(moduleJSON))

	out, err := TranspileData([]byte(moduleJSON), id, testConfig())
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{"pub fn double(x: i64) -> i64", "x * 2"} {
		if !strings.Contains(out.Code, want) {
			t.Errorf("output missing %q:\n%s", want, out.Code)
		}
	}
	if out.Diagnostics.HasErrors() {
		t.Fatalf("unexpected errors: %+v", out.Diagnostics.Items())
	}
	if err := testkit.CheckBalancedDelimiters(out.Code); err != nil {
		t.Fatalf("unbalanced output: %v", err)
	}
	if len(out.Timing.Phases) == 0 {
		t.Fatal("no phase timings recorded")
	}
}

func TestTranspileDataRejectsBadInput(t *testing.T) {
	fs := source.NewFileSet()
	id := fs.AddVirtual("bad.json", []byte("{"))
	if _, err := TranspileData([]byte("{"), id, testConfig()); err == nil {
		t.Fatal("expected a decode error")
	}
}

func TestRunLevelOptDefaultApplies(t *testing.T) {
	fs := source.NewFileSet()
	id := fs.AddVirtual("m.json", []byte(moduleJSON))

	cfg := testConfig()
	cfg.OptLevel = annotations.OptConservative
	out, err := TranspileData([]byte(moduleJSON), id, cfg)
	if err != nil {
		t.Fatal(err)
	}
	found := false
	for _, name := range out.Applied {
		if name == "constant_folding" {
			found = true
		}
	}
	if !found {
		t.Fatalf("constant folding did not run: %v", out.Applied)
	}
}

func TestAnnotatedFunctionKeepsItsLevel(t *testing.T) {
	f := &hir.Func{Name: "hot"}
	f.Annotations.Opt = annotations.OptAggressive
	g := &hir.Func{Name: "plain"}
	m := &hir.Module{Name: "m", Functions: []*hir.Func{f, g}}

	applyOptDefault(m, annotations.OptConservative)
	if f.Annotations.Opt != annotations.OptAggressive {
		t.Errorf("annotated level was overridden: %v", f.Annotations.Opt)
	}
	if g.Annotations.Opt != annotations.OptConservative {
		t.Errorf("unannotated function did not pick up the default: %v", g.Annotations.Opt)
	}
}

func TestWriteOutputWithShim(t *testing.T) {
	dir := t.TempDir()
	outPath := filepath.Join(dir, "m.rs")

	shim, err := WriteOutput(&Output{Code: "fn main() {}\n"}, outPath, true)
	if err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(outPath)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "fn main() {}\n" {
		t.Fatalf("unexpected output contents %q", data)
	}
	if filepath.Base(shim) != "pyrt.rs" {
		t.Fatalf("unexpected shim path %q", shim)
	}
	if _, err := os.Stat(shim); err != nil {
		t.Fatal(err)
	}
}

func TestWriteOutputWithoutShim(t *testing.T) {
	dir := t.TempDir()
	outPath := filepath.Join(dir, "m.rs")

	shim, err := WriteOutput(&Output{Code: "fn main() {}\n"}, outPath, false)
	if err != nil {
		t.Fatal(err)
	}
	if shim != "" {
		t.Fatalf("shim written without being asked: %q", shim)
	}
}
