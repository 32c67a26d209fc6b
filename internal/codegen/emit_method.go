package codegen

import (
	"fmt"

	"pylift/internal/hir"
	"pylift/internal/types"
)

// emitMethodCall dispatches obj.method(args) through the receiver's static
// type: string and container methods map onto their target equivalents or
// the runtime shim's extension traits, user-class methods go through the
// borrow registry, and anything else is emitted verbatim.
func (ctx *Context) emitMethodCall(e *hir.Expr, d hir.MethodCallData) string {
	if v, ok := d.Object.Data.(hir.VarData); ok && ctx.argparse.isParser(v.Name) {
		return ctx.emitParserMethod(v.Name, d)
	}
	if ty := ctx.typeOf(d.Object); ty != nil {
		switch ty.Kind {
		case types.KindStr:
			if out, ok := ctx.emitStrMethod(d); ok {
				return out
			}
		case types.KindList:
			if out, ok := ctx.emitListMethod(d); ok {
				return out
			}
		case types.KindDict:
			if out, ok := ctx.emitDictMethod(d); ok {
				return out
			}
		case types.KindSet:
			if out, ok := ctx.emitSetMethod(d); ok {
				return out
			}
		case types.KindCustom:
			switch ty.Name {
			case "deque":
				if out, ok := ctx.emitDequeMethod(d); ok {
					return out
				}
			default:
				if c := ctx.module.FindClass(ty.Name); c != nil {
					return ctx.emitClassMethodCall(ty.Name, c, d)
				}
			}
		}
	}
	return ctx.emitExpr(d.Object) + "." + rustIdent(d.Method) + "(" + ctx.emitExprList(d.Args) + ")"
}

// emitParserMethod handles calls on a tracked argument-parser variable.
// Structural calls record into the tracker and emit nothing; parse_args
// materializes the hoisted Args value.
func (ctx *Context) emitParserMethod(varName string, d hir.MethodCallData) string {
	switch d.Method {
	case "add_argument":
		ctx.argparse.recordArgument(varName, d.Args)
		return ""
	case "add_subparsers", "set_defaults", "print_help", "print_usage":
		return ""
	case "parse_args":
		if ctx.cfg.SingleShot {
			return "Args::default()"
		}
		return "Args::parse()"
	case "error":
		if len(d.Args) == 1 {
			if raw, ok := ctx.emitStrLiteral(d.Args[0]); ok {
				return "panic!(" + raw + ")"
			}
			return "panic!(\"{}\", " + ctx.emitExpr(d.Args[0]) + ")"
		}
		return "panic!()"
	default:
		return ""
	}
}

func (ctx *Context) emitClassMethodCall(className string, c *hir.Class, d hir.MethodCallData) string {
	key := className + "." + d.Method
	call := ctx.emitExpr(d.Object) + "." + rustIdent(d.Method) +
		"(" + ctx.emitCallArgs(key, d.Args, 1) + ")"
	if ctx.resultFuncs[key] {
		call += ctx.propagateOp()
	}
	return call
}

// strArg renders a method argument expected as &str.
func (ctx *Context) strArg(a *hir.Expr) string {
	if raw, ok := ctx.emitStrLiteral(a); ok {
		return raw
	}
	return "&" + ctx.emitExpr(a)
}

func (ctx *Context) emitStrMethod(d hir.MethodCallData) (string, bool) {
	obj := ctx.emitExpr(d.Object)
	switch d.Method {
	case "lower":
		return obj + ".to_lowercase()", true
	case "upper":
		return obj + ".to_uppercase()", true
	case "strip":
		return obj + ".trim().to_string()", true
	case "lstrip":
		return obj + ".trim_start().to_string()", true
	case "rstrip":
		return obj + ".trim_end().to_string()", true
	case "startswith":
		if len(d.Args) == 1 {
			return obj + ".starts_with(" + ctx.strArg(d.Args[0]) + ")", true
		}
	case "endswith":
		if len(d.Args) == 1 {
			return obj + ".ends_with(" + ctx.strArg(d.Args[0]) + ")", true
		}
	case "replace":
		if len(d.Args) == 2 {
			return obj + ".replace(" + ctx.strArg(d.Args[0]) + ", " + ctx.strArg(d.Args[1]) + ")", true
		}
	case "find":
		// The shim's find_py keeps the -1 sentinel for a missing needle.
		if len(d.Args) == 1 {
			return obj + ".find_py(" + ctx.strArg(d.Args[0]) + ")", true
		}
	case "split":
		if len(d.Args) == 0 {
			return obj + ".split_whitespace().map(|s| s.to_string()).collect::<Vec<_>>()", true
		}
		return obj + ".split_py(" + ctx.strArg(d.Args[0]) + ")", true
	case "join":
		if len(d.Args) == 1 {
			return obj + ".join_py(&" + ctx.emitExpr(d.Args[0]) + ")", true
		}
	case "count":
		if len(d.Args) == 1 {
			return obj + ".count_py(" + ctx.strArg(d.Args[0]) + ")", true
		}
	case "isdigit":
		return "(!" + obj + ".is_empty() && " + obj + ".chars().all(|c| c.is_ascii_digit()))", true
	case "isalpha":
		return "(!" + obj + ".is_empty() && " + obj + ".chars().all(|c| c.is_alphabetic()))", true
	case "splitlines":
		return obj + ".lines().map(|s| s.to_string()).collect::<Vec<_>>()", true
	case "title", "capitalize", "casefold":
		// No direct equivalent worth hand-rolling inline.
	case "encode":
		return obj + ".into_bytes()", true
	case "format":
		return ctx.unsupported("str.format (use f-strings)", d.Object.Span), true
	}
	return "", false
}

func (ctx *Context) emitListMethod(d hir.MethodCallData) (string, bool) {
	obj := ctx.emitExpr(d.Object)
	switch d.Method {
	case "append":
		if len(d.Args) == 1 {
			return obj + ".push(" + ctx.emitExpr(d.Args[0]) + ")", true
		}
	case "extend":
		if len(d.Args) == 1 {
			return obj + ".extend(" + ctx.emitExpr(d.Args[0]) + ")", true
		}
	case "insert":
		if len(d.Args) == 2 {
			return fmt.Sprintf("%s.insert(%s as usize, %s)",
				obj, ctx.emitExpr(d.Args[0]), ctx.emitExpr(d.Args[1])), true
		}
	case "pop":
		if len(d.Args) == 0 {
			return obj + ".pop().unwrap()", true
		}
		return obj + ".remove(" + ctx.emitExpr(d.Args[0]) + " as usize)", true
	case "remove":
		if len(d.Args) == 1 {
			needle := ctx.emitExpr(d.Args[0])
			return fmt.Sprintf("%s.remove(%s.iter().position(|x| *x == %s).unwrap())",
				obj, obj, needle), true
		}
	case "clear":
		return obj + ".clear()", true
	case "reverse":
		return obj + ".reverse()", true
	case "sort":
		return obj + ".sort()", true
	case "index":
		if len(d.Args) == 1 {
			return fmt.Sprintf("%s.iter().position(|x| *x == %s).unwrap() as i64",
				obj, ctx.emitExpr(d.Args[0])), true
		}
	case "count":
		if len(d.Args) == 1 {
			return fmt.Sprintf("%s.iter().filter(|x| **x == %s).count() as i64",
				obj, ctx.emitExpr(d.Args[0])), true
		}
	case "copy":
		return obj + ".clone()", true
	}
	return "", false
}

func (ctx *Context) emitDictMethod(d hir.MethodCallData) (string, bool) {
	obj := ctx.emitExpr(d.Object)
	switch d.Method {
	case "get":
		switch len(d.Args) {
		case 1:
			return obj + ".get(&" + ctx.emitExpr(d.Args[0]) + ").cloned()", true
		case 2:
			return fmt.Sprintf("%s.get(&%s).cloned().unwrap_or(%s)",
				obj, ctx.emitExpr(d.Args[0]), ctx.emitExpr(d.Args[1])), true
		}
	case "keys":
		return obj + ".keys().cloned().collect::<Vec<_>>()", true
	case "values":
		return obj + ".values().cloned().collect::<Vec<_>>()", true
	case "items":
		return obj + ".iter().map(|(k, v)| (k.clone(), v.clone())).collect::<Vec<_>>()", true
	case "update":
		if len(d.Args) == 1 {
			return obj + ".extend(" + ctx.emitExpr(d.Args[0]) + ")", true
		}
	case "setdefault":
		if len(d.Args) == 2 {
			return fmt.Sprintf("%s.entry(%s).or_insert(%s).clone()",
				obj, ctx.emitExpr(d.Args[0]), ctx.emitExpr(d.Args[1])), true
		}
	case "pop":
		switch len(d.Args) {
		case 1:
			return obj + ".remove(&" + ctx.emitExpr(d.Args[0]) + ").unwrap()", true
		case 2:
			return fmt.Sprintf("%s.remove(&%s).unwrap_or(%s)",
				obj, ctx.emitExpr(d.Args[0]), ctx.emitExpr(d.Args[1])), true
		}
	case "clear":
		return obj + ".clear()", true
	case "copy":
		return obj + ".clone()", true
	}
	return "", false
}

func (ctx *Context) emitSetMethod(d hir.MethodCallData) (string, bool) {
	obj := ctx.emitExpr(d.Object)
	switch d.Method {
	case "add":
		if len(d.Args) == 1 {
			return obj + ".insert(" + ctx.emitExpr(d.Args[0]) + ")", true
		}
	case "discard", "remove":
		if len(d.Args) == 1 {
			return obj + ".remove(&" + ctx.emitExpr(d.Args[0]) + ")", true
		}
	case "clear":
		return obj + ".clear()", true
	case "union":
		if len(d.Args) == 1 {
			ctx.imports.set(needHashSet)
			return fmt.Sprintf("%s.union(&%s).cloned().collect::<HashSet<_>>()",
				obj, ctx.emitExpr(d.Args[0])), true
		}
	case "intersection":
		if len(d.Args) == 1 {
			ctx.imports.set(needHashSet)
			return fmt.Sprintf("%s.intersection(&%s).cloned().collect::<HashSet<_>>()",
				obj, ctx.emitExpr(d.Args[0])), true
		}
	case "difference":
		if len(d.Args) == 1 {
			ctx.imports.set(needHashSet)
			return fmt.Sprintf("%s.difference(&%s).cloned().collect::<HashSet<_>>()",
				obj, ctx.emitExpr(d.Args[0])), true
		}
	case "update":
		if len(d.Args) == 1 {
			return obj + ".extend(" + ctx.emitExpr(d.Args[0]) + ")", true
		}
	case "copy":
		return obj + ".clone()", true
	}
	return "", false
}

func (ctx *Context) emitDequeMethod(d hir.MethodCallData) (string, bool) {
	obj := ctx.emitExpr(d.Object)
	switch d.Method {
	case "append":
		if len(d.Args) == 1 {
			return obj + ".push_back(" + ctx.emitExpr(d.Args[0]) + ")", true
		}
	case "appendleft":
		if len(d.Args) == 1 {
			return obj + ".push_front(" + ctx.emitExpr(d.Args[0]) + ")", true
		}
	case "pop":
		return obj + ".pop_back().unwrap()", true
	case "popleft":
		return obj + ".pop_front().unwrap()", true
	case "clear":
		return obj + ".clear()", true
	}
	return "", false
}
