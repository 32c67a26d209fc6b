package typemap

import (
	"strings"
	"testing"

	"pylift/internal/types"
)

func TestMapScalars(t *testing.T) {
	m := New()
	cases := []struct {
		in   *types.Type
		want string
	}{
		{types.Int(), "i64"},
		{types.Float(), "f64"},
		{types.Bool(), "bool"},
		{types.Str(), "String"},
		{types.None(), "()"},
		{types.Unknown(), "PyValue"},
	}
	for _, tc := range cases {
		if got := m.Map(tc.in).Render(); got != tc.want {
			t.Errorf("Map(%s) = %s, want %s", tc.in, got, tc.want)
		}
	}
}

func TestMapContainers(t *testing.T) {
	m := New()
	cases := []struct {
		in   *types.Type
		want string
	}{
		{types.List(types.Int()), "Vec<i64>"},
		{types.Dict(types.Str(), types.Float()), "HashMap<String, f64>"},
		{types.Set(types.Int()), "HashSet<i64>"},
		{types.Set(types.Unknown()), "HashSet<String>"},
		{types.Optional(types.Str()), "Option<String>"},
		{types.Tuple(types.Int(), types.Bool()), "(i64, bool)"},
		{types.Tuple(types.Int()), "(i64,)"},
		{types.Final(types.Int()), "i64"},
		{types.List(types.List(types.Str())), "Vec<Vec<String>>"},
	}
	for _, tc := range cases {
		if got := m.Map(tc.in).Render(); got != tc.want {
			t.Errorf("Map(%s) = %s, want %s", tc.in, got, tc.want)
		}
	}
}

func TestMapKnownNames(t *testing.T) {
	m := New()
	cases := []struct {
		name string
		want string
	}{
		{"bytes", "Vec<u8>"},
		{"bytearray", "Vec<u8>"},
		{"deque", "VecDeque<PyValue>"},
		{"pathlib.Path", "PathBuf"},
		{"FileNotFoundError", "std::io::Error"},
		{"ValueError", "Box<dyn std::error::Error>"},
		{"Counter", "HashMap<String, i64>"},
		{"Any", "PyValue"},
		{"Widget", "Widget"},
	}
	for _, tc := range cases {
		if got := m.Map(types.Custom(tc.name)).Render(); got != tc.want {
			t.Errorf("Map(Custom(%s)) = %s, want %s", tc.name, got, tc.want)
		}
	}
}

func TestMapGenerics(t *testing.T) {
	m := New()
	cases := []struct {
		in   *types.Type
		want string
	}{
		{types.Generic("List", types.Int()), "Vec<i64>"},
		{types.Generic("Dict", types.Str(), types.Int()), "HashMap<String, i64>"},
		{types.Generic("deque", types.Float()), "VecDeque<f64>"},
		{types.Generic("Iterator", types.Int()), "impl Iterator<Item = i64>"},
		{types.Generic("Iterable", types.Str()), "impl IntoIterator<Item = String>"},
		{
			types.Generic("Callable", types.Tuple(types.Int(), types.Str()), types.Bool()),
			"fn(i64, String) -> bool",
		},
		{types.Generic("Rc", types.Int()), "Rc<i64>"},
	}
	for _, tc := range cases {
		if got := m.Map(tc.in).Render(); got != tc.want {
			t.Errorf("Map(%s) = %s, want %s", tc.in, got, tc.want)
		}
	}
}

func TestMapUnificationVarSurfaces(t *testing.T) {
	m := New()
	got := m.Map(types.UVar(7)).Render()
	if got != "?T7" {
		t.Fatalf("Map(UVar(7)) = %s", got)
	}
}

func TestMapReturn(t *testing.T) {
	m := New()
	if got := m.MapReturn(nil).Render(); got != "()" {
		t.Fatalf("missing annotation: %s", got)
	}
	if got := m.MapReturn(types.None()).Render(); got != "()" {
		t.Fatalf("None annotation: %s", got)
	}
	if got := m.MapReturn(types.Int()).Render(); got != "i64" {
		t.Fatalf("int annotation: %s", got)
	}
}

func TestMapOptionalUnion(t *testing.T) {
	m := New()
	u := types.Union(types.Int(), types.None())
	if got := m.Map(u).Render(); got != "Option<i64>" {
		t.Fatalf("Union[int, None] = %s", got)
	}
	u = types.Union(types.None(), types.Str())
	if got := m.Map(u).Render(); got != "Option<String>" {
		t.Fatalf("Union[None, str] = %s", got)
	}
	// Three arms including None are not an Optional.
	u = types.Union(types.Int(), types.Str(), types.None())
	if got := m.Map(u).Render(); !strings.HasPrefix(got, "Union") {
		t.Fatalf("three-arm union = %s", got)
	}
}

func TestMapDeterministic(t *testing.T) {
	build := func(m *Mapper) string {
		return m.Map(types.Dict(
			types.Str(),
			types.Union(types.Int(), types.Str()),
		)).Render()
	}
	a, b := build(New()), build(New())
	if a != b {
		t.Fatalf("mapping not deterministic: %s vs %s", a, b)
	}
}

func TestIsCopyable(t *testing.T) {
	m := New()
	copyable := []*types.Type{
		types.Int(), types.Float(), types.Bool(), types.None(),
		types.Tuple(types.Int(), types.Float()),
		types.Optional(types.Int()),
		types.Final(types.Int()),
		tupleOfArity(12),
	}
	for _, ty := range copyable {
		if !m.IsCopyable(ty) {
			t.Errorf("IsCopyable(%s) = false, want true", ty)
		}
	}
	notCopyable := []*types.Type{
		types.Str(), types.List(types.Int()),
		types.Tuple(types.Int(), types.Str()),
		types.Optional(types.Str()),
		tupleOfArity(13),
	}
	for _, ty := range notCopyable {
		if m.IsCopyable(ty) {
			t.Errorf("IsCopyable(%s) = true, want false", ty)
		}
	}
}

func tupleOfArity(n int) *types.Type {
	elems := make([]*types.Type, n)
	for i := range elems {
		elems[i] = types.Int()
	}
	return types.Tuple(elems...)
}

func TestShouldPassByRef(t *testing.T) {
	m := New()
	byRef := []*types.Type{
		types.List(types.Int()),
		types.Dict(types.Str(), types.Int()),
		types.Set(types.Int()),
		types.Str(),
		tupleOfArity(4),
	}
	for _, ty := range byRef {
		if !m.ShouldPassByRef(ty) {
			t.Errorf("ShouldPassByRef(%s) = false, want true", ty)
		}
	}
	byValue := []*types.Type{
		types.Int(), types.Bool(), tupleOfArity(3), types.Custom("Widget"),
	}
	for _, ty := range byValue {
		if m.ShouldPassByRef(ty) {
			t.Errorf("ShouldPassByRef(%s) = true, want false", ty)
		}
	}
}

func TestNeedsBoxing(t *testing.T) {
	m := New()
	if !m.NeedsBoxing(types.Custom("Box<Node>")) {
		t.Error("Box<Node> needs boxing")
	}
	if !m.NeedsBoxing(types.Custom("Rc<RefCell<Tree>>")) {
		t.Error("Rc<...> needs boxing")
	}
	if m.NeedsBoxing(types.Custom("Node")) {
		t.Error("plain custom does not need boxing")
	}
	if m.NeedsBoxing(types.Int()) {
		t.Error("int does not need boxing")
	}
}
