package diag

import (
	"testing"

	"pylift/internal/source"
)

func span(file source.FileID, start, end uint32) source.Span {
	return source.Span{File: file, Start: start, End: end}
}

func TestBagLimit(t *testing.T) {
	b := NewBag(2)
	if !b.Add(NewError(GenUnsupportedConstruct, span(0, 0, 1), "a")) {
		t.Fatal("first add should succeed")
	}
	if !b.Add(NewError(GenUnsupportedConstruct, span(0, 1, 2), "b")) {
		t.Fatal("second add should succeed")
	}
	if b.Add(NewError(GenUnsupportedConstruct, span(0, 2, 3), "c")) {
		t.Fatal("third add should be rejected at cap")
	}
	if b.Len() != 2 {
		t.Fatalf("Len = %d, want 2", b.Len())
	}
}

func TestBagSortOrder(t *testing.T) {
	b := NewBag(10)
	b.Add(New(SevInfo, FmtUnavailable, span(1, 5, 6), "later file"))
	b.Add(New(SevWarning, OptApplied, span(0, 10, 12), "later offset"))
	b.Add(New(SevError, GenUnsupportedConstruct, span(0, 3, 8), "first"))
	b.Sort()

	items := b.Items()
	if items[0].Message != "first" || items[1].Message != "later offset" || items[2].Message != "later file" {
		t.Fatalf("unexpected order: %q %q %q", items[0].Message, items[1].Message, items[2].Message)
	}
}

func TestBagSortSeverityDescendingAtSameSpan(t *testing.T) {
	b := NewBag(10)
	b.Add(New(SevInfo, FmtUnavailable, span(0, 0, 1), "info"))
	b.Add(New(SevError, GenInvariantViolation, span(0, 0, 1), "error"))
	b.Sort()
	if b.Items()[0].Severity != SevError {
		t.Fatalf("error should sort before info at same span")
	}
}

func TestBagDedup(t *testing.T) {
	b := NewBag(10)
	d := NewError(MapUnresolvedVar, span(0, 0, 4), "dup")
	b.Add(d)
	b.Add(d)
	b.Dedup()
	if b.Len() != 1 {
		t.Fatalf("Len after dedup = %d, want 1", b.Len())
	}
}

func TestDedupReporter(t *testing.T) {
	b := NewBag(10)
	r := NewDedupReporter(BagReporter{Bag: b})
	for i := 0; i < 3; i++ {
		r.Report(GenUnsupportedConstruct, SevError, span(0, 0, 1), "same", nil)
	}
	r.Report(GenUnsupportedConstruct, SevError, span(0, 0, 1), "different", nil)
	if b.Len() != 2 {
		t.Fatalf("Len = %d, want 2", b.Len())
	}
}

func TestCodeComponent(t *testing.T) {
	cases := []struct {
		code Code
		want string
	}{
		{InputBadKind, "input"},
		{MapUnresolvedVar, "typemap"},
		{BorrowFixpointDiverged, "borrow"},
		{GenInvariantViolation, "codegen"},
		{OptApplied, "optimize"},
		{FmtUnavailable, "postproc"},
	}
	for _, tc := range cases {
		if got := tc.code.Component(); got != tc.want {
			t.Errorf("%s.Component() = %q, want %q", tc.code, got, tc.want)
		}
	}
}
