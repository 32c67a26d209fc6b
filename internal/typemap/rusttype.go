package typemap

import (
	"fmt"
	"strings"

	"pylift/internal/types"
)

// RustKind enumerates the shapes a mapped target type can take.
type RustKind uint8

const (
	// RustUnit is ().
	RustUnit RustKind = iota
	// RustPrim is a primitive scalar (i64, f64, bool, u8, usize).
	RustPrim
	// RustString is the owned string type.
	RustString
	// RustVec is Vec<T>.
	RustVec
	// RustHashMap is HashMap<K, V>.
	RustHashMap
	// RustHashSet is HashSet<T>.
	RustHashSet
	// RustOption is Option<T>.
	RustOption
	// RustTuple is (A, B, ...).
	RustTuple
	// RustArray is [T; N].
	RustArray
	// RustFnPtr is fn(A, B) -> R.
	RustFnPtr
	// RustEnum is a synthesized union enum, referenced by name.
	RustEnum
	// RustTypeParam is a generic parameter name.
	RustTypeParam
	// RustGeneric is Base<P1, P2> for names without a dedicated shape.
	RustGeneric
	// RustCustom is a verbatim type name.
	RustCustom
	// RustUVar is an unresolved inference variable, rendered ?T{n}.
	RustUVar
)

// RustType is the mapped target type. The renderer is deterministic: equal
// trees render to equal strings, and the rendered form parses back to the
// same tree shape.
type RustType struct {
	Kind  RustKind
	Prim  string
	Elem  *RustType
	Key   *RustType
	Value *RustType
	Elems []*RustType // tuple members, fn params, generic params
	Ret   *RustType
	Name  string // enum / type param / generic base / custom
	Var   int
	Size  types.ArraySize
}

func Unit() *RustType           { return &RustType{Kind: RustUnit} }
func Prim(name string) *RustType { return &RustType{Kind: RustPrim, Prim: name} }
func Str() *RustType            { return &RustType{Kind: RustString} }

func VecOf(elem *RustType) *RustType { return &RustType{Kind: RustVec, Elem: elem} }
func MapOf(key, value *RustType) *RustType {
	return &RustType{Kind: RustHashMap, Key: key, Value: value}
}
func SetOf(elem *RustType) *RustType    { return &RustType{Kind: RustHashSet, Elem: elem} }
func OptionOf(elem *RustType) *RustType { return &RustType{Kind: RustOption, Elem: elem} }

func TupleOf(elems ...*RustType) *RustType { return &RustType{Kind: RustTuple, Elems: elems} }

func ArrayOf(elem *RustType, size types.ArraySize) *RustType {
	return &RustType{Kind: RustArray, Elem: elem, Size: size}
}

func FnPtr(params []*RustType, ret *RustType) *RustType {
	return &RustType{Kind: RustFnPtr, Elems: params, Ret: ret}
}

func EnumRef(name string) *RustType   { return &RustType{Kind: RustEnum, Name: name} }
func TypeParam(name string) *RustType { return &RustType{Kind: RustTypeParam, Name: name} }
func Custom(name string) *RustType    { return &RustType{Kind: RustCustom, Name: name} }
func UVar(id int) *RustType           { return &RustType{Kind: RustUVar, Var: id} }

func GenericOf(base string, params ...*RustType) *RustType {
	return &RustType{Kind: RustGeneric, Name: base, Elems: params}
}

// Render produces target source text for the type.
func (t *RustType) Render() string {
	var b strings.Builder
	t.render(&b)
	return b.String()
}

func (t *RustType) render(b *strings.Builder) {
	if t == nil {
		b.WriteString("()")
		return
	}
	switch t.Kind {
	case RustUnit:
		b.WriteString("()")
	case RustPrim:
		b.WriteString(t.Prim)
	case RustString:
		b.WriteString("String")
	case RustVec:
		b.WriteString("Vec<")
		t.Elem.render(b)
		b.WriteByte('>')
	case RustHashMap:
		b.WriteString("HashMap<")
		t.Key.render(b)
		b.WriteString(", ")
		t.Value.render(b)
		b.WriteByte('>')
	case RustHashSet:
		b.WriteString("HashSet<")
		t.Elem.render(b)
		b.WriteByte('>')
	case RustOption:
		b.WriteString("Option<")
		t.Elem.render(b)
		b.WriteByte('>')
	case RustTuple:
		b.WriteByte('(')
		for i, e := range t.Elems {
			if i > 0 {
				b.WriteString(", ")
			}
			e.render(b)
		}
		if len(t.Elems) == 1 {
			b.WriteByte(',')
		}
		b.WriteByte(')')
	case RustArray:
		b.WriteByte('[')
		t.Elem.render(b)
		b.WriteString("; ")
		b.WriteString(t.Size.String())
		b.WriteByte(']')
	case RustFnPtr:
		b.WriteString("fn(")
		for i, p := range t.Elems {
			if i > 0 {
				b.WriteString(", ")
			}
			p.render(b)
		}
		b.WriteByte(')')
		if t.Ret != nil && t.Ret.Kind != RustUnit {
			b.WriteString(" -> ")
			t.Ret.render(b)
		}
	case RustEnum, RustTypeParam, RustCustom:
		b.WriteString(t.Name)
	case RustGeneric:
		b.WriteString(t.Name)
		b.WriteByte('<')
		for i, p := range t.Elems {
			if i > 0 {
				b.WriteString(", ")
			}
			p.render(b)
		}
		b.WriteByte('>')
	case RustUVar:
		fmt.Fprintf(b, "?T%d", t.Var)
	}
}

// IsUnit reports whether t renders as the unit type.
func (t *RustType) IsUnit() bool {
	return t == nil || t.Kind == RustUnit
}

// Equal compares rendered forms; Render is injective over tree shapes.
func (t *RustType) Equal(other *RustType) bool {
	return t.Render() == other.Render()
}
