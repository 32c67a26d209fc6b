package codegen

import (
	"fmt"
	"strings"

	"pylift/internal/borrow"
	"pylift/internal/hir"
	"pylift/internal/types"
)

// emitCall dispatches a free-function call: builtin, user function, class
// constructor, or unknown (emitted verbatim).
func (ctx *Context) emitCall(e *hir.Expr, d hir.CallData) string {
	if out, ok := ctx.emitBuiltin(e, d); ok {
		return out
	}
	if f := ctx.module.FindFunc(d.Func); f != nil {
		return ctx.emitUserCall(d.Func, f, d.Args)
	}
	if c := ctx.module.FindClass(d.Func); c != nil {
		return rustIdent(c.Name) + "::new(" + ctx.emitCallArgs(c.Name+".__init__", d.Args, 1) + ")"
	}
	if out, ok := ctx.emitExceptionCtor(d); ok {
		return out
	}
	return rustIdent(d.Func) + "(" + ctx.emitExprList(d.Args) + ")"
}

// emitExceptionCtor renders a known exception constructor as an error value.
func (ctx *Context) emitExceptionCtor(d hir.CallData) (string, bool) {
	msg := `""`
	if len(d.Args) == 1 {
		if raw, ok := ctx.emitStrLiteral(d.Args[0]); ok {
			msg = raw
		} else {
			msg = "&" + ctx.emitExpr(d.Args[0])
		}
	}
	switch d.Func {
	case "OSError", "IOError", "FileNotFoundError", "PermissionError":
		return "std::io::Error::new(std::io::ErrorKind::Other, " + msg + ")", true
	case "ValueError", "TypeError", "KeyError", "IndexError", "RuntimeError",
		"ZeroDivisionError", "NotImplementedError", "Exception":
		return msg + ".into()", true
	}
	return "", false
}

func (ctx *Context) emitBuiltin(e *hir.Expr, d hir.CallData) (string, bool) {
	args := d.Args
	switch d.Func {
	case "len":
		if len(args) == 1 {
			return ctx.emitExpr(args[0]) + ".len() as i64", true
		}
	case "print":
		return ctx.emitPrint(args), true
	case "range":
		return ctx.emitRange(args), true
	case "str":
		if len(args) == 0 {
			return `String::new()`, true
		}
		return ctx.emitExpr(args[0]) + ".to_string()", true
	case "int":
		if len(args) == 1 {
			if ctx.isStr(args[0]) {
				return ctx.emitExpr(args[0]) + ".parse::<i64>().unwrap()", true
			}
			return parenthesize(ctx.emitExpr(args[0])) + " as i64", true
		}
	case "float":
		if len(args) == 1 {
			if ctx.isStr(args[0]) {
				return ctx.emitExpr(args[0]) + ".parse::<f64>().unwrap()", true
			}
			return parenthesize(ctx.emitExpr(args[0])) + " as f64", true
		}
	case "bool":
		if len(args) == 1 {
			return ctx.emitCondition(args[0]), true
		}
	case "abs":
		if len(args) == 1 {
			return parenthesize(ctx.emitExpr(args[0])) + ".abs()", true
		}
	case "min", "max":
		return ctx.emitMinMax(d.Func, args), true
	case "sum":
		if len(args) == 1 {
			return ctx.emitExpr(args[0]) + ".into_iter().sum()", true
		}
	case "sorted":
		if len(args) == 1 {
			tmp := ctx.freshTmp("sorted")
			return fmt.Sprintf("{ let mut %s = %s.clone(); %s.sort(); %s }",
				tmp, ctx.emitExpr(args[0]), tmp, tmp), true
		}
	case "reversed":
		if len(args) == 1 {
			return ctx.emitExpr(args[0]) + ".into_iter().rev()", true
		}
	case "enumerate":
		if len(args) == 1 {
			return ctx.emitExpr(args[0]) + ".into_iter().enumerate()", true
		}
	case "zip":
		if len(args) == 2 {
			return ctx.emitExpr(args[0]) + ".into_iter().zip(" +
				ctx.emitExpr(args[1]) + ".into_iter())", true
		}
	case "list":
		if len(args) == 0 {
			return "Vec::new()", true
		}
		return ctx.emitExpr(args[0]) + ".into_iter().collect::<Vec<_>>()", true
	case "set":
		ctx.imports.set(needHashSet)
		if len(args) == 0 {
			return "HashSet::new()", true
		}
		return ctx.emitExpr(args[0]) + ".into_iter().collect::<HashSet<_>>()", true
	case "dict":
		if len(args) == 0 {
			ctx.imports.set(needHashMap)
			return "HashMap::new()", true
		}
	case "tuple":
		if len(args) == 1 {
			return ctx.emitExpr(args[0]), true
		}
	case "open":
		if len(args) >= 1 {
			return "std::fs::File::open(&" + ctx.emitExpr(args[0]) + ")" + ctx.propagateOp(), true
		}
	case "round":
		if len(args) == 1 {
			return parenthesize(ctx.emitExpr(args[0])) + ".round()", true
		}
	case "isinstance", "input", "eval", "exec", "globals", "locals", "id", "hash":
		return ctx.unsupported("builtin "+d.Func, e.Span), true
	}
	return "", false
}

// propagateOp is the error-propagation suffix appropriate to the current
// function: ? inside Result-returning functions, unwrap elsewhere.
func (ctx *Context) propagateOp() string {
	if ctx.fallible {
		return "?"
	}
	return ".unwrap()"
}

func (ctx *Context) emitPrint(args []*hir.Expr) string {
	if len(args) == 0 {
		return "println!()"
	}
	slots := make([]string, len(args))
	vals := make([]string, len(args))
	for i, a := range args {
		slots[i] = "{}"
		vals[i] = ctx.emitExpr(a)
		if raw, ok := ctx.emitStrLiteral(a); ok {
			vals[i] = raw
		}
		if ctx.needsDebugFormat(a) {
			slots[i] = "{:?}"
		}
	}
	return fmt.Sprintf("println!(%q, %s)", strings.Join(slots, " "), strings.Join(vals, ", "))
}

// needsDebugFormat reports whether the value lacks a Display rendering.
func (ctx *Context) needsDebugFormat(e *hir.Expr) bool {
	switch e.Kind {
	case hir.ExprList, hir.ExprTuple, hir.ExprDict, hir.ExprSet:
		return true
	}
	t := ctx.typeOf(e)
	if t == nil {
		return false
	}
	switch t.Kind {
	case types.KindList, types.KindDict, types.KindSet, types.KindTuple, types.KindOptional:
		return true
	}
	return false
}

func (ctx *Context) emitRange(args []*hir.Expr) string {
	switch len(args) {
	case 1:
		return "0.." + parenthesize(ctx.emitExpr(args[0]))
	case 2:
		return parenthesize(ctx.emitExpr(args[0])) + ".." + parenthesize(ctx.emitExpr(args[1]))
	case 3:
		return fmt.Sprintf("(%s..%s).step_by(%s as usize)",
			ctx.emitExpr(args[0]), ctx.emitExpr(args[1]), ctx.emitExpr(args[2]))
	default:
		return "0..0"
	}
}

func (ctx *Context) emitMinMax(fn string, args []*hir.Expr) string {
	method := "." + fn
	switch len(args) {
	case 1:
		return ctx.emitExpr(args[0]) + ".into_iter()" + method + "().unwrap()"
	case 2:
		return parenthesize(ctx.emitExpr(args[0])) + method + "(" + ctx.emitExpr(args[1]) + ")"
	default:
		parts := make([]string, len(args))
		for i, a := range args {
			parts[i] = ctx.emitExpr(a)
		}
		return "vec![" + strings.Join(parts, ", ") + "].into_iter()" + method + "().unwrap()"
	}
}

// emitUserCall renders a call to a module-level function, borrowing each
// argument per the callee's analyzed parameter patterns.
func (ctx *Context) emitUserCall(name string, f *hir.Func, args []*hir.Expr) string {
	rendered := ctx.emitCallArgs(name, args, 0)
	call := rustIdent(f.Name) + "(" + rendered + ")"
	if ctx.resultFuncs[name] {
		call += ctx.propagateOp()
	}
	return call
}

// emitCallArgs renders an argument list against the callee's parameter
// patterns, skipping the first paramOffset formals (the receiver slot for
// constructors). A trailing vararg parameter absorbs the remaining
// arguments as a slice.
func (ctx *Context) emitCallArgs(calleeName string, args []*hir.Expr, paramOffset int) string {
	info := ctx.reg.Lookup(calleeName)
	strs := ctx.strParams[calleeName]
	var parts []string
	for i, a := range args {
		pi := i + paramOffset
		if info != nil && pi < len(info.Func.Params) && info.Func.Params[pi].Vararg {
			rest := make([]string, len(args[i:]))
			for j, r := range args[i:] {
				rest[j] = ctx.emitExpr(r)
			}
			parts = append(parts, "&["+strings.Join(rest, ", ")+"]")
			return strings.Join(parts, ", ")
		}
		parts = append(parts, ctx.emitCallArg(info, strs, pi, a))
	}
	return strings.Join(parts, ", ")
}

func (ctx *Context) emitCallArg(info *borrow.FuncInfo, strs map[string]bool, pi int, a *hir.Expr) string {
	if info != nil && pi < len(info.Func.Params) {
		p := info.Func.Params[pi]
		if strs[p.Name] {
			// String parameters follow the callee's analyzed pattern: an
			// owned formal takes an owned value, a mutable one a &mut, and
			// the default &str borrows (literals pass through raw).
			switch info.ParamPattern(p.Name) {
			case borrow.Owned:
				if raw, ok := ctx.emitStrLiteral(a); ok {
					return raw + ".to_string()"
				}
				return ctx.emitExpr(a) + ".to_string()"
			case borrow.MutableBorrow:
				return "&mut " + ctx.emitExpr(a)
			default:
				if raw, ok := ctx.emitStrLiteral(a); ok {
					return raw
				}
				return "&" + ctx.emitExpr(a)
			}
		}
		prefix := info.ParamPattern(p.Name).Prefix()
		if prefix != "" {
			return prefix + ctx.emitExpr(a)
		}
	}
	return ctx.emitExpr(a)
}
