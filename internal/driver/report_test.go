package driver

import (
	"errors"
	"strings"
	"testing"

	"pylift/internal/diag"
	"pylift/internal/source"
)

func TestSummaryCountsOutcomes(t *testing.T) {
	warned := diag.NewBag(4)
	warned.Add(diag.Diagnostic{Severity: diag.SevWarning, Code: diag.GenUnsupportedConstruct, Message: "w", Primary: source.Span{}})
	clean := diag.NewBag(4)

	results := []FileResult{
		{Path: "a.json", Output: &Output{Code: "x", Diagnostics: clean}, CacheHit: true},
		{Path: "b.json", Output: &Output{Code: "y", Diagnostics: warned}},
		{Path: "c.json", Err: errors.New("decode module: boom")},
	}
	out := Summary(results)

	for _, want := range []string{
		"translation summary",
		"a.json",
		"failed",
		"warned",
		"1 ok, 1 with warnings, 1 failed",
		"(1 cached)",
		"decode module: boom",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("summary missing %q:\n%s", want, out)
		}
	}
}

func TestSummaryTruncatesLongPaths(t *testing.T) {
	long := strings.Repeat("deep/", 30) + "m.json"
	out := Summary([]FileResult{{Path: long, Err: errors.New("x")}})
	for _, line := range strings.Split(out, "\n") {
		if strings.Contains(line, "deep/") && strings.Contains(line, long) {
			t.Fatalf("path was not truncated: %s", line)
		}
	}
}
