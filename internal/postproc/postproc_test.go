package postproc

import (
	"testing"

	"pylift/internal/diag"
)

func TestNormalizeSpacingIdempotent(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"std :: io :: Error", "std::io::Error"},
		{"x ! = y", "x != y"},
		{"a = = b", "a == b"},
		{"& mut items", "&mut items"},
		{"& self", "&self"},
		{"v .len()", "v.len()"},
		{"0.. =n", "0..=n"},
		{"f( x , y )", "f(x, y)"},
	}
	for _, tc := range cases {
		got := NormalizeSpacing(tc.in)
		if got != tc.want {
			t.Errorf("NormalizeSpacing(%q) = %q, want %q", tc.in, got, tc.want)
		}
		if again := NormalizeSpacing(got); again != got {
			t.Errorf("not idempotent: %q -> %q -> %q", tc.in, got, again)
		}
	}
}

func TestFixTruthinessRewritesCollections(t *testing.T) {
	in := "    if !items {\n        return;\n    }"
	want := "    if items.is_empty() {\n        return;\n    }"
	if got := FixTruthiness(in); got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestFixTruthinessKeepsBooleanNames(t *testing.T) {
	for _, name := range []string{"is_ready", "has_items", "should_run", "can_write", "enabled"} {
		in := "if !" + name + " {"
		if got := FixTruthiness(in); got != in {
			t.Errorf("boolean-named %q was rewritten: %q", name, got)
		}
	}
}

func TestFixTruthinessKeepsDeclaredBools(t *testing.T) {
	cases := []string{
		"pub fn run(flag: bool) {\n    if !flag {\n        return;\n    }\n}",
		"let done: bool = false;\nwhile !done {\n    step();\n}",
		"struct Gate {\n    open: bool,\n}\nif !open {\n    wait();\n}",
	}
	for _, in := range cases {
		if got := FixTruthiness(in); got != in {
			t.Errorf("bool-typed identifier rewritten:\n%s\n->\n%s", in, got)
		}
	}
}

func TestFixTruthinessIgnoresComplexConditions(t *testing.T) {
	in := "if !xs.is_empty() {"
	if got := FixTruthiness(in); got != in {
		t.Fatalf("complex condition rewritten: %q", got)
	}
}

func TestFixBitwiseWrapsBareAnd(t *testing.T) {
	in := "if flags & mask {"
	want := "if (flags & mask) != 0 {"
	if got := FixBitwiseConditions(in); got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestFixBitwiseLeavesLogicalAnd(t *testing.T) {
	for _, in := range []string{
		"if a && b {",
		"if (a & b) != 0 {",
		"if a & b > 0 {",
	} {
		if got := FixBitwiseConditions(in); got != in {
			t.Errorf("condition %q rewritten to %q", in, got)
		}
	}
}

func TestProcessKeepsInputWhenFormatterMissing(t *testing.T) {
	bag := diag.NewBag(16)
	src := "fn main() {}\n"
	got := Process(src, Options{FormatterPath: "/nonexistent/rustfmt"}, diag.BagReporter{Bag: bag})
	if got != src {
		t.Fatalf("formatter failure altered output: %q", got)
	}
	found := false
	for _, d := range bag.Items() {
		if d.Code == diag.FmtUnavailable {
			found = true
		}
	}
	if !found {
		t.Fatal("expected a formatter-unavailable diagnostic")
	}
}

func TestProcessRuleOrderStable(t *testing.T) {
	in := "if !buf {\nlet x = a & b;\n"
	first := Process(in, Options{SkipFormat: true}, diag.NopReporter{})
	second := Process(first, Options{SkipFormat: true}, diag.NopReporter{})
	if first != second {
		t.Fatalf("pipeline not idempotent:\n%q\n%q", first, second)
	}
}
