package testkit

import (
	"testing"

	"pylift/internal/source"
)

func TestBalancedDelimiters(t *testing.T) {
	cases := []struct {
		name string
		src  string
		ok   bool
	}{
		{"empty", "", true},
		{"nested", "fn f(x: Vec<i64>) { g([x]); }", true},
		{"string with braces", `let s = "{[(".to_string();`, true},
		{"char literal", `let c = '}';`, true},
		{"escaped char", `let c = '\'';`, true},
		{"lifetime", "fn f<'a>(x: &'a str) {}", true},
		{"line comment", "// ) unmatched in comment\nfn f() {}", true},
		{"unclosed brace", "fn f() {", false},
		{"stray paren", "fn f() { ) }", false},
		{"crossed pairs", "fn f( { ) }", false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := CheckBalancedDelimiters(tc.src)
			if tc.ok && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !tc.ok && err == nil {
				t.Fatal("expected an error")
			}
		})
	}
}

func TestSpanInFile(t *testing.T) {
	fs := source.NewFileSet()
	id := fs.AddVirtual("m.py", []byte("def f():\n    pass\n"))
	f := fs.Get(id)

	if err := CheckSpanInFile(source.Span{File: id, Start: 4, End: 5}, f); err != nil {
		t.Fatalf("valid span rejected: %v", err)
	}
	if err := CheckSpanInFile(source.Span{File: id, Start: 4, End: 999}, f); err == nil {
		t.Fatal("out-of-range span accepted")
	}
	if err := CheckSpanInFile(source.Span{File: id + 1, Start: 0, End: 1}, f); err == nil {
		t.Fatal("wrong-file span accepted")
	}
}
