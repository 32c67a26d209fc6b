package diagfmt

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"pylift/internal/diag"
	"pylift/internal/source"
)

func testBag(t *testing.T) (*diag.Bag, *source.FileSet) {
	t.Helper()
	fs := source.NewFileSet()
	id := fs.AddVirtual("input.py", []byte("def f():\n    eval(x)\n"))

	bag := diag.NewBag(8)
	bag.Add(diag.Diagnostic{
		Severity: diag.SevError,
		Code:     diag.GenUnsupportedConstruct,
		Message:  "eval has no translation",
		Primary:  source.Span{File: id, Start: 13, End: 20},
	})
	bag.Add(diag.Diagnostic{
		Severity: diag.SevInfo,
		Code:     diag.FmtUnavailable,
		Message:  "rustfmt not found",
		Primary:  source.Span{File: id},
	})
	return bag, fs
}

func TestJSONReport(t *testing.T) {
	bag, fs := testBag(t)
	var buf bytes.Buffer
	if err := JSON(&buf, bag, fs); err != nil {
		t.Fatal(err)
	}

	var out DiagnosticsOutput
	if err := json.Unmarshal(buf.Bytes(), &out); err != nil {
		t.Fatalf("report is not valid JSON: %v", err)
	}
	if out.Count != 2 || len(out.Diagnostics) != 2 {
		t.Fatalf("unexpected count: %+v", out)
	}
	first := out.Diagnostics[0]
	if first.Code != "PL4000" || first.Component != "codegen" {
		t.Errorf("code/component mismatch: %+v", first)
	}
	if first.Location.File != "input.py" || first.Location.StartLine != 2 {
		t.Errorf("location not resolved: %+v", first.Location)
	}
}

func TestSarifReport(t *testing.T) {
	bag, fs := testBag(t)
	var buf bytes.Buffer
	err := Sarif(&buf, bag, fs, SarifRunMeta{ToolName: "pylift", ToolVersion: "0.1.0"})
	if err != nil {
		t.Fatal(err)
	}

	var log map[string]any
	if err := json.Unmarshal(buf.Bytes(), &log); err != nil {
		t.Fatalf("log is not valid JSON: %v", err)
	}
	if log["version"] != "2.1.0" {
		t.Errorf("version = %v", log["version"])
	}
	text := buf.String()
	for _, want := range []string{`"ruleId": "PL4000"`, `"level": "error"`, `"level": "note"`, `"uri": "input.py"`} {
		if !strings.Contains(text, want) {
			t.Errorf("log missing %q", want)
		}
	}
}

func TestSarifWithoutFileSet(t *testing.T) {
	bag, _ := testBag(t)
	var buf bytes.Buffer
	if err := Sarif(&buf, bag, nil, SarifRunMeta{ToolName: "pylift"}); err != nil {
		t.Fatal(err)
	}
	if strings.Contains(buf.String(), "physicalLocation") {
		t.Error("locations emitted without a file set")
	}
}
