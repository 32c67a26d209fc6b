package typemap

import (
	"fmt"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"pylift/internal/types"
)

// EnumGen synthesizes a tagged enum for every non-optional union the mapper
// encounters. Declarations are deduplicated by the union's structural
// signature and collected in encounter order so the emitter can prepend them
// to the module.
type EnumGen struct {
	byKey map[string]string
	used  map[string]bool
	decls []EnumDecl
	title cases.Caser
}

// EnumDecl is one synthesized union enum.
type EnumDecl struct {
	Name     string
	Variants []EnumVariant
}

// EnumVariant pairs a variant name with its payload type. A nil Type means a
// unit variant (the union's None arm).
type EnumVariant struct {
	Name string
	Type *RustType
}

// NewEnumGen returns an empty generator.
func NewEnumGen() *EnumGen {
	return &EnumGen{
		byKey: make(map[string]string),
		used:  make(map[string]bool),
		title: cases.Title(language.English, cases.NoLower),
	}
}

// Decls returns the collected declarations in encounter order.
func (g *EnumGen) Decls() []EnumDecl {
	return g.decls
}

// Lower returns the enum name for a union type, generating the declaration
// on first encounter. Structurally equal unions share one declaration.
func (g *EnumGen) Lower(m *Mapper, union *types.Type) string {
	key := union.Signature()
	if name, ok := g.byKey[key]; ok {
		return name
	}

	variants := make([]EnumVariant, 0, len(union.Elems))
	for i, arm := range union.Elems {
		v := EnumVariant{Name: g.variantName(arm, i)}
		if !arm.IsNone() {
			v.Type = m.Map(arm)
		}
		variants = append(variants, v)
	}

	name := g.uniqueName(variants)
	g.byKey[key] = name
	g.used[name] = true
	g.decls = append(g.decls, EnumDecl{Name: name, Variants: variants})
	return name
}

// variantName mangles one union arm into a stable variant identifier.
func (g *EnumGen) variantName(arm *types.Type, idx int) string {
	arm = arm.StripFinal()
	if arm == nil {
		return fmt.Sprintf("Variant%d", idx)
	}
	switch arm.Kind {
	case types.KindInt:
		return "Integer"
	case types.KindFloat:
		return "Float"
	case types.KindStr:
		return "Text"
	case types.KindBool:
		return "Boolean"
	case types.KindNone:
		return "None"
	case types.KindCustom, types.KindTypeVar:
		if ident := sanitizeIdent(arm.Name); ident != "" {
			return g.title.String(ident)
		}
	case types.KindList:
		return "List"
	case types.KindDict:
		return "Map"
	case types.KindSet:
		return "Set"
	}
	return fmt.Sprintf("Variant%d", idx)
}

// uniqueName joins the variant names into an enum name and suffixes a
// counter when two distinct unions would collide.
func (g *EnumGen) uniqueName(variants []EnumVariant) string {
	var b strings.Builder
	b.WriteString("Union")
	for _, v := range variants {
		b.WriteString(v.Name)
	}
	base := b.String()
	if !g.used[base] {
		return base
	}
	for n := 2; ; n++ {
		candidate := fmt.Sprintf("%s%d", base, n)
		if !g.used[candidate] {
			return candidate
		}
	}
}

// sanitizeIdent keeps letters, digits and underscores; a name that starts
// with a digit or reduces to nothing is rejected.
func sanitizeIdent(name string) string {
	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r == '_':
			b.WriteRune(r)
		case r >= '0' && r <= '9':
			if b.Len() == 0 {
				return ""
			}
			b.WriteRune(r)
		}
	}
	return b.String()
}

// RenderDecl produces the enum declaration text prepended to module output.
func RenderDecl(d EnumDecl) string {
	var b strings.Builder
	b.WriteString("#[derive(Debug, Clone)]\n")
	fmt.Fprintf(&b, "pub enum %s {\n", d.Name)
	for _, v := range d.Variants {
		if v.Type == nil {
			fmt.Fprintf(&b, "    %s,\n", v.Name)
		} else {
			fmt.Fprintf(&b, "    %s(%s),\n", v.Name, v.Type.Render())
		}
	}
	b.WriteString("}\n")
	return b.String()
}
