package types

import "testing"

func TestSignatureStructuralEquality(t *testing.T) {
	a := Union(Int(), Str())
	b := Union(Int(), Str())
	c := Union(Str(), Int())

	if a.Signature() != b.Signature() {
		t.Fatalf("identical unions should share a signature: %q vs %q", a.Signature(), b.Signature())
	}
	if a.Signature() == c.Signature() {
		t.Fatalf("arm order is significant: %q", a.Signature())
	}
	if !a.Equal(b) || a.Equal(c) {
		t.Fatal("Equal should follow Signature")
	}
}

func TestSignatureDistinguishesDictFromMethod(t *testing.T) {
	d := Dict(Str(), Int())
	if d.Signature() != "dict[str,int]" {
		t.Fatalf("dict signature = %q", d.Signature())
	}
}

func TestOptionalArm(t *testing.T) {
	if arm, ok := Union(Int(), None()).OptionalArm(); !ok || arm.Kind != KindInt {
		t.Fatal("Union[int, None] should expose int arm")
	}
	if arm, ok := Union(None(), Str()).OptionalArm(); !ok || arm.Kind != KindStr {
		t.Fatal("None position must not matter")
	}
	if _, ok := Union(Int(), Str()).OptionalArm(); ok {
		t.Fatal("union without None arm is not optional")
	}
	if _, ok := Union(Int(), Str(), None()).OptionalArm(); ok {
		t.Fatal("three-arm union is not optional even with a None arm")
	}
}

func TestStripFinal(t *testing.T) {
	got := Final(Final(Int())).StripFinal()
	if got.Kind != KindInt {
		t.Fatalf("StripFinal = %s, want int", got)
	}
}

func TestStringNotation(t *testing.T) {
	cases := []struct {
		t    *Type
		want string
	}{
		{Dict(Str(), List(Int())), "dict[str, list[int]]"},
		{Optional(Str()), "Optional[str]"},
		{Tuple(Int(), Float(), Bool()), "tuple[int, float, bool]"},
		{Function([]*Type{Int()}, Str()), "Callable[[int], str]"},
		{UVar(3), "?T3"},
		{Array(Int(), ArraySize{Kind: SizeParameter, Name: "N"}), "Array[int, N]"},
	}
	for _, tc := range cases {
		if got := tc.t.String(); got != tc.want {
			t.Errorf("String() = %q, want %q", got, tc.want)
		}
	}
}
