// Package typemap lowers Python-side type descriptors into target Rust
// types. Mapping is total and deterministic: every source type has exactly
// one rendering, including unresolved inference variables which surface as
// the intentionally invalid ?T{n} form rather than being dropped.
package typemap

import (
	"strings"

	"pylift/internal/types"
)

// FallbackName is the dynamic value type emitted by the runtime shim; it
// stands in for Unknown and Any.
const FallbackName = "PyValue"

// Mapper lowers source types. It owns the union enum generator so repeated
// unions of the same shape resolve to one declaration.
type Mapper struct {
	enums *EnumGen
}

// New returns a Mapper with a fresh enum generator.
func New() *Mapper {
	return &Mapper{enums: NewEnumGen()}
}

// Enums exposes the collected union declarations, in encounter order.
func (m *Mapper) Enums() []EnumDecl {
	return m.enums.Decls()
}

func (m *Mapper) fallback() *RustType {
	return Custom(FallbackName)
}

// Map lowers any source type to a target type. Total: unknown and
// unsupported inputs fall back to the dynamic value type instead of failing.
func (m *Mapper) Map(t *types.Type) *RustType {
	if t == nil {
		return m.fallback()
	}
	switch t.Kind {
	case types.KindUnknown:
		return m.fallback()
	case types.KindInt:
		return Prim("i64")
	case types.KindFloat:
		return Prim("f64")
	case types.KindBool:
		return Prim("bool")
	case types.KindStr:
		return Str()
	case types.KindNone:
		return Unit()
	case types.KindList:
		return VecOf(m.Map(t.Elem))
	case types.KindSet:
		// An untyped set still needs a hashable element.
		if t.Elem == nil || t.Elem.Kind == types.KindUnknown {
			return SetOf(Str())
		}
		return SetOf(m.Map(t.Elem))
	case types.KindDict:
		return MapOf(m.Map(t.Key), m.Map(t.Value))
	case types.KindTuple:
		elems := make([]*RustType, len(t.Elems))
		for i, e := range t.Elems {
			elems[i] = m.Map(e)
		}
		return TupleOf(elems...)
	case types.KindOptional:
		return OptionOf(m.Map(t.Elem))
	case types.KindFinal:
		return m.Map(t.Elem)
	case types.KindFunction:
		params := make([]*RustType, len(t.Elems))
		for i, p := range t.Elems {
			params[i] = m.Map(p)
		}
		return FnPtr(params, m.Map(t.Ret))
	case types.KindTypeVar:
		return TypeParam(t.Name)
	case types.KindUnificationVar:
		return UVar(t.Var)
	case types.KindCustom:
		return m.mapCustom(t.Name)
	case types.KindGeneric:
		return m.mapGeneric(t)
	case types.KindUnion:
		if arm, ok := t.OptionalArm(); ok {
			return OptionOf(m.Map(arm))
		}
		return EnumRef(m.enums.Lower(m, t))
	case types.KindArray:
		return ArrayOf(m.Map(t.Elem), t.Size)
	default:
		return m.fallback()
	}
}

// MapReturn lowers a return annotation. Missing and None annotations both
// mean the function returns unit.
func (m *Mapper) MapReturn(t *types.Type) *RustType {
	if t == nil || t.Kind == types.KindNone || t.Kind == types.KindUnknown {
		return Unit()
	}
	return m.Map(t)
}

// mapCustom resolves well-known Python names to their target equivalents.
// Unrecognized names pass through verbatim as user-defined types.
func (m *Mapper) mapCustom(name string) *RustType {
	switch name {
	case "bytes", "bytearray":
		return VecOf(Prim("u8"))
	case "deque", "collections.deque", "Deque":
		return GenericOf("VecDeque", m.fallback())
	case "Counter", "collections.Counter":
		return MapOf(Str(), Prim("i64"))
	case "Path", "pathlib.Path", "PurePath", "pathlib.PurePath":
		return Custom("PathBuf")
	case "date", "datetime.date", "time", "datetime.time":
		return TupleOf(Prim("u32"), Prim("u32"), Prim("u32"))
	case "datetime", "datetime.datetime":
		return Custom("SystemTime")
	case "timedelta", "datetime.timedelta":
		return Custom("Duration")
	case "OSError", "IOError", "FileNotFoundError", "PermissionError":
		return Custom("std::io::Error")
	case "ValueError", "TypeError", "KeyError", "IndexError", "RuntimeError",
		"ZeroDivisionError", "OverflowError", "ArithmeticError", "Exception":
		return Custom("Box<dyn std::error::Error>")
	case "Callable", "typing.Callable", "callable":
		return FnPtr(nil, Unit())
	case "Any", "typing.Any", "any", "object", "builtins.object":
		return m.fallback()
	case "List", "list":
		return VecOf(m.fallback())
	case "Dict", "dict":
		return MapOf(m.fallback(), m.fallback())
	case "Set", "set":
		return SetOf(Str())
	case "tuple":
		return TupleOf()
	default:
		return Custom(name)
	}
}

func (m *Mapper) mapGeneric(t *types.Type) *RustType {
	params := t.Elems
	switch t.Name {
	case "List", "list":
		if len(params) == 1 {
			return VecOf(m.Map(params[0]))
		}
	case "Dict", "dict":
		if len(params) == 2 {
			return MapOf(m.Map(params[0]), m.Map(params[1]))
		}
	case "Set", "set", "FrozenSet", "frozenset":
		if len(params) == 1 {
			return SetOf(m.Map(params[0]))
		}
	case "deque", "collections.deque", "Deque":
		if len(params) == 1 {
			return GenericOf("VecDeque", m.Map(params[0]))
		}
	case "Generator", "Iterator":
		if len(params) >= 1 {
			return Custom("impl Iterator<Item = " + m.Map(params[0]).Render() + ">")
		}
	case "Iterable":
		if len(params) == 1 {
			return Custom("impl IntoIterator<Item = " + m.Map(params[0]).Render() + ">")
		}
	case "Callable", "typing.Callable":
		if len(params) == 2 {
			return FnPtr(m.callableParams(params[0]), m.MapReturn(params[1]))
		}
	case "type":
		if len(params) == 1 {
			return GenericOf("std::marker::PhantomData", m.Map(params[0]))
		}
	}
	mapped := make([]*RustType, len(params))
	for i, p := range params {
		mapped[i] = m.Map(p)
	}
	return GenericOf(t.Name, mapped...)
}

// callableParams interprets the first argument of Callable[X, R]: a tuple or
// list of parameter types, or None/Unknown for an empty list.
func (m *Mapper) callableParams(t *types.Type) []*RustType {
	if t == nil {
		return nil
	}
	switch t.Kind {
	case types.KindNone, types.KindUnknown:
		return nil
	case types.KindTuple:
		out := make([]*RustType, len(t.Elems))
		for i, e := range t.Elems {
			out[i] = m.Map(e)
		}
		return out
	case types.KindList:
		return []*RustType{m.Map(t.Elem)}
	default:
		return []*RustType{m.Map(t)}
	}
}

// copyableTupleArity is the largest tuple still treated as a scalar copy.
const copyableTupleArity = 12

// IsCopyable reports whether values of the source type copy implicitly.
func (m *Mapper) IsCopyable(t *types.Type) bool {
	t = t.StripFinal()
	if t == nil {
		return false
	}
	switch t.Kind {
	case types.KindInt, types.KindFloat, types.KindBool, types.KindNone:
		return true
	case types.KindTuple:
		if len(t.Elems) > copyableTupleArity {
			return false
		}
		for _, e := range t.Elems {
			if !m.IsCopyable(e) {
				return false
			}
		}
		return true
	case types.KindOptional:
		return m.IsCopyable(t.Elem)
	default:
		return false
	}
}

// byRefTupleArity is the largest tuple still passed by value.
const byRefTupleArity = 3

// ShouldPassByRef reports whether parameters of the source type default to
// borrowed passing.
func (m *Mapper) ShouldPassByRef(t *types.Type) bool {
	t = t.StripFinal()
	if t == nil {
		return false
	}
	switch t.Kind {
	case types.KindList, types.KindDict, types.KindSet, types.KindStr:
		return true
	case types.KindTuple:
		return len(t.Elems) > byRefTupleArity
	default:
		return false
	}
}

// NeedsBoxing reports whether a custom name already carries indirection,
// which breaks structural recursion when the type refers to itself.
func (m *Mapper) NeedsBoxing(t *types.Type) bool {
	t = t.StripFinal()
	if t == nil || t.Kind != types.KindCustom {
		return false
	}
	for _, marker := range []string{"Box<", "Rc<", "Arc<"} {
		if strings.Contains(t.Name, marker) {
			return true
		}
	}
	return false
}
