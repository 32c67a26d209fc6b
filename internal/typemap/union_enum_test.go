package typemap

import (
	"strings"
	"testing"

	"pylift/internal/types"
)

func TestUnionEnumOncePerShape(t *testing.T) {
	m := New()
	u := types.Union(types.Int(), types.Str())
	first := m.Map(u).Render()
	second := m.Map(types.Union(types.Int(), types.Str())).Render()
	if first != second {
		t.Fatalf("same union mapped to different names: %s vs %s", first, second)
	}
	if len(m.Enums()) != 1 {
		t.Fatalf("expected one declaration, got %d", len(m.Enums()))
	}
	decl := m.Enums()[0]
	if decl.Name != "UnionIntegerText" {
		t.Fatalf("name = %s", decl.Name)
	}
	if decl.Variants[0].Name != "Integer" || decl.Variants[1].Name != "Text" {
		t.Fatalf("variants = %+v", decl.Variants)
	}
}

func TestUnionEnumDistinctShapes(t *testing.T) {
	m := New()
	m.Map(types.Union(types.Int(), types.Str()))
	m.Map(types.Union(types.Int(), types.Bool()))
	m.Map(types.Union(types.Float(), types.Custom("Shape")))
	if len(m.Enums()) != 3 {
		t.Fatalf("expected three declarations, got %d", len(m.Enums()))
	}
	names := map[string]bool{}
	for _, d := range m.Enums() {
		if names[d.Name] {
			t.Fatalf("duplicate enum name %s", d.Name)
		}
		names[d.Name] = true
	}
}

func TestUnionEnumNoneArmIsUnit(t *testing.T) {
	m := New()
	m.Map(types.Union(types.Int(), types.Str(), types.None()))
	decl := m.Enums()[0]
	var none *EnumVariant
	for i := range decl.Variants {
		if decl.Variants[i].Name == "None" {
			none = &decl.Variants[i]
		}
	}
	if none == nil {
		t.Fatal("None variant missing")
	}
	if none.Type != nil {
		t.Fatalf("None variant must carry no payload, got %s", none.Type.Render())
	}
}

func TestUnionEnumCustomVariantTitleCased(t *testing.T) {
	m := New()
	m.Map(types.Union(types.Custom("circle"), types.Custom("square")))
	decl := m.Enums()[0]
	if decl.Variants[0].Name != "Circle" || decl.Variants[1].Name != "Square" {
		t.Fatalf("variants = %+v", decl.Variants)
	}
}

func TestRenderDecl(t *testing.T) {
	m := New()
	m.Map(types.Union(types.Int(), types.Str(), types.None()))
	out := RenderDecl(m.Enums()[0])
	for _, want := range []string{
		"pub enum UnionIntegerTextNone",
		"Integer(i64),",
		"Text(String),",
		"    None,",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("declaration missing %q:\n%s", want, out)
		}
	}
}

func TestUnionEnumNameCollision(t *testing.T) {
	g := NewEnumGen()
	m := New()
	// Two structurally different unions whose variant names collide.
	a := types.Union(types.Custom("Data"), types.Custom("Data2"))
	b := types.Union(types.Custom("data"), types.Custom("data2"))
	nameA := g.Lower(m, a)
	nameB := g.Lower(m, b)
	if nameA == nameB {
		t.Fatalf("colliding unions must get distinct names, both %s", nameA)
	}
}
