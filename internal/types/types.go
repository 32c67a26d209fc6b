package types

import (
	"fmt"
	"strconv"
	"strings"
)

// Kind enumerates the Python-side types the translator understands.
type Kind uint8

const (
	KindUnknown Kind = iota
	KindInt
	KindFloat
	KindBool
	KindStr
	KindNone
	KindList
	KindDict
	KindSet
	KindOptional
	KindTuple
	KindFunction
	KindTypeVar
	KindUnificationVar
	KindGeneric
	KindUnion
	KindArray
	KindFinal
	KindCustom
)

func (k Kind) String() string {
	switch k {
	case KindUnknown:
		return "unknown"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindBool:
		return "bool"
	case KindStr:
		return "str"
	case KindNone:
		return "None"
	case KindList:
		return "list"
	case KindDict:
		return "dict"
	case KindSet:
		return "set"
	case KindOptional:
		return "Optional"
	case KindTuple:
		return "tuple"
	case KindFunction:
		return "Callable"
	case KindTypeVar:
		return "TypeVar"
	case KindUnificationVar:
		return "UnificationVar"
	case KindGeneric:
		return "Generic"
	case KindUnion:
		return "Union"
	case KindArray:
		return "Array"
	case KindFinal:
		return "Final"
	case KindCustom:
		return "Custom"
	default:
		return fmt.Sprintf("Kind(%d)", k)
	}
}

// SizeKind distinguishes how a fixed-size array length is expressed.
type SizeKind uint8

const (
	// SizeLiteral is a concrete integer length ([T; 5]).
	SizeLiteral SizeKind = iota
	// SizeParameter is a const-generic parameter name ([T; N]).
	SizeParameter
	// SizeExpression is an opaque expression string ([T; N + 1]).
	SizeExpression
)

// ArraySize carries the three size variants verbatim; the renderer never
// interprets Expr beyond substituting it textually.
type ArraySize struct {
	Kind    SizeKind
	Literal int
	Name    string
	Expr    string
}

func (s ArraySize) String() string {
	switch s.Kind {
	case SizeLiteral:
		return strconv.Itoa(s.Literal)
	case SizeParameter:
		return s.Name
	default:
		return s.Expr
	}
}

// Type is a structural descriptor of a Python type expression. The zero value
// is Unknown. Types are immutable once constructed; helpers below are the
// only intended constructors.
type Type struct {
	Kind  Kind
	Elem  *Type     // List/Set/Optional/Final/Array element
	Key   *Type     // Dict key
	Value *Type     // Dict value
	Elems []*Type   // Tuple members, Union arms, Generic/Function params
	Ret   *Type     // Function return
	Name  string    // TypeVar / Generic base / Custom name
	Var   int       // UnificationVar id
	Size  ArraySize // Array length
}

// Constructors -------------------------------------------------------------

func Unknown() *Type { return &Type{Kind: KindUnknown} }
func Int() *Type     { return &Type{Kind: KindInt} }
func Float() *Type   { return &Type{Kind: KindFloat} }
func Bool() *Type    { return &Type{Kind: KindBool} }
func Str() *Type     { return &Type{Kind: KindStr} }
func None() *Type    { return &Type{Kind: KindNone} }

func List(elem *Type) *Type       { return &Type{Kind: KindList, Elem: elem} }
func Set(elem *Type) *Type        { return &Type{Kind: KindSet, Elem: elem} }
func Dict(key, value *Type) *Type { return &Type{Kind: KindDict, Key: key, Value: value} }
func Optional(elem *Type) *Type   { return &Type{Kind: KindOptional, Elem: elem} }
func Final(elem *Type) *Type      { return &Type{Kind: KindFinal, Elem: elem} }

func Tuple(elems ...*Type) *Type { return &Type{Kind: KindTuple, Elems: elems} }
func Union(arms ...*Type) *Type  { return &Type{Kind: KindUnion, Elems: arms} }

func Function(params []*Type, ret *Type) *Type {
	return &Type{Kind: KindFunction, Elems: params, Ret: ret}
}

func TypeVar(name string) *Type { return &Type{Kind: KindTypeVar, Name: name} }
func UVar(id int) *Type         { return &Type{Kind: KindUnificationVar, Var: id} }
func Custom(name string) *Type  { return &Type{Kind: KindCustom, Name: name} }

func Generic(base string, params ...*Type) *Type {
	return &Type{Kind: KindGeneric, Name: base, Elems: params}
}

func Array(elem *Type, size ArraySize) *Type {
	return &Type{Kind: KindArray, Elem: elem, Size: size}
}

// Queries ------------------------------------------------------------------

// IsNone reports whether t is the None literal type.
func (t *Type) IsNone() bool {
	return t != nil && t.Kind == KindNone
}

// StripFinal unwraps Final(T) to T; other types pass through.
func (t *Type) StripFinal() *Type {
	for t != nil && t.Kind == KindFinal {
		t = t.Elem
	}
	return t
}

// OptionalArm returns the non-None arm when t is a two-arm union including
// None, which the mapper lowers to Option.
func (t *Type) OptionalArm() (*Type, bool) {
	if t == nil || t.Kind != KindUnion || len(t.Elems) != 2 {
		return nil, false
	}
	if t.Elems[0].IsNone() {
		return t.Elems[1], true
	}
	if t.Elems[1].IsNone() {
		return t.Elems[0], true
	}
	return nil, false
}

// Signature returns a deterministic structural key. Two types are
// structurally equal iff their signatures are equal; the union-enum
// generator dedups on it.
func (t *Type) Signature() string {
	var b strings.Builder
	t.writeSignature(&b)
	return b.String()
}

func (t *Type) writeSignature(b *strings.Builder) {
	if t == nil {
		b.WriteString("?")
		return
	}
	switch t.Kind {
	case KindList, KindSet, KindOptional, KindFinal:
		b.WriteString(t.Kind.String())
		b.WriteByte('[')
		t.Elem.writeSignature(b)
		b.WriteByte(']')
	case KindDict:
		b.WriteString("dict[")
		t.Key.writeSignature(b)
		b.WriteByte(',')
		t.Value.writeSignature(b)
		b.WriteByte(']')
	case KindTuple, KindUnion:
		b.WriteString(t.Kind.String())
		b.WriteByte('[')
		for i, e := range t.Elems {
			if i > 0 {
				b.WriteByte(',')
			}
			e.writeSignature(b)
		}
		b.WriteByte(']')
	case KindFunction:
		b.WriteString("fn(")
		for i, e := range t.Elems {
			if i > 0 {
				b.WriteByte(',')
			}
			e.writeSignature(b)
		}
		b.WriteString(")->")
		t.Ret.writeSignature(b)
	case KindGeneric:
		b.WriteString(t.Name)
		b.WriteByte('[')
		for i, e := range t.Elems {
			if i > 0 {
				b.WriteByte(',')
			}
			e.writeSignature(b)
		}
		b.WriteByte(']')
	case KindTypeVar, KindCustom:
		b.WriteString(t.Kind.String())
		b.WriteByte(':')
		b.WriteString(t.Name)
	case KindUnificationVar:
		fmt.Fprintf(b, "?%d", t.Var)
	case KindArray:
		b.WriteString("array[")
		t.Elem.writeSignature(b)
		b.WriteByte(';')
		b.WriteString(t.Size.String())
		b.WriteByte(']')
	default:
		b.WriteString(t.Kind.String())
	}
}

// Equal is structural equality.
func (t *Type) Equal(other *Type) bool {
	if t == nil || other == nil {
		return t == other
	}
	return t.Signature() == other.Signature()
}

// String renders the type in Python annotation notation, for diagnostics.
func (t *Type) String() string {
	if t == nil {
		return "<nil>"
	}
	switch t.Kind {
	case KindList:
		return "list[" + t.Elem.String() + "]"
	case KindSet:
		return "set[" + t.Elem.String() + "]"
	case KindDict:
		return "dict[" + t.Key.String() + ", " + t.Value.String() + "]"
	case KindOptional:
		return "Optional[" + t.Elem.String() + "]"
	case KindFinal:
		return "Final[" + t.Elem.String() + "]"
	case KindTuple:
		return "tuple[" + joinTypes(t.Elems) + "]"
	case KindUnion:
		return "Union[" + joinTypes(t.Elems) + "]"
	case KindFunction:
		return "Callable[[" + joinTypes(t.Elems) + "], " + t.Ret.String() + "]"
	case KindGeneric:
		return t.Name + "[" + joinTypes(t.Elems) + "]"
	case KindTypeVar, KindCustom:
		return t.Name
	case KindUnificationVar:
		return fmt.Sprintf("?T%d", t.Var)
	case KindArray:
		return "Array[" + t.Elem.String() + ", " + t.Size.String() + "]"
	default:
		return t.Kind.String()
	}
}

func joinTypes(ts []*Type) string {
	parts := make([]string, len(ts))
	for i, t := range ts {
		parts[i] = t.String()
	}
	return strings.Join(parts, ", ")
}
