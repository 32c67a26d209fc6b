package codegen

import (
	"fmt"
	"strconv"
	"strings"

	"pylift/internal/hir"
	"pylift/internal/types"
)

// emitExpr renders an expression in value position.
func (ctx *Context) emitExpr(e *hir.Expr) string {
	if e == nil {
		return "()"
	}
	switch d := e.Data.(type) {
	case hir.LiteralData:
		return ctx.emitLiteral(d)
	case hir.VarData:
		if d.Name == "self" && ctx.selfName != "" {
			return ctx.selfName
		}
		if ctx.genFields[d.Name] && !ctx.scopes.IsDeclared(d.Name) {
			return "self." + rustIdent(d.Name)
		}
		if ref, ok := ctx.constRefs[d.Name]; ok && !ctx.scopes.IsDeclared(d.Name) {
			return ref
		}
		return rustIdent(d.Name)
	case hir.UnaryData:
		return ctx.emitUnary(d)
	case hir.BinaryData:
		return ctx.emitBinary(e, d)
	case hir.CompareData:
		return ctx.emitCompare(d)
	case hir.BoolOpData:
		return ctx.emitBoolOp(d)
	case hir.CallData:
		return ctx.emitCall(e, d)
	case hir.MethodCallData:
		return ctx.emitMethodCall(e, d)
	case hir.AttributeData:
		return ctx.emitAttribute(d)
	case hir.IndexData:
		return ctx.emitIndex(e, d)
	case hir.SliceData:
		return ctx.emitSlice(d)
	case hir.ListData:
		return "vec![" + ctx.emitExprList(d.Elems) + "]"
	case hir.TupleData:
		if len(d.Elems) == 1 {
			return "(" + ctx.emitExpr(d.Elems[0]) + ",)"
		}
		return "(" + ctx.emitExprList(d.Elems) + ")"
	case hir.DictData:
		return ctx.emitDict(d)
	case hir.SetData:
		ctx.imports.set(needHashSet)
		return "HashSet::from([" + ctx.emitExprList(d.Elems) + "])"
	case hir.CompData:
		return ctx.emitComprehension(e, d)
	case hir.DictCompData:
		return ctx.emitDictComp(d)
	case hir.LambdaData:
		params := make([]string, len(d.Params))
		for i, p := range d.Params {
			params[i] = rustIdent(p)
		}
		return "|" + strings.Join(params, ", ") + "| " + ctx.emitExpr(d.Body)
	case hir.ConditionalData:
		return "if " + ctx.emitCondition(d.Cond) + " { " + ctx.emitExpr(d.Then) +
			" } else { " + ctx.emitExpr(d.Else) + " }"
	case hir.FStringData:
		return ctx.emitFString(d)
	case hir.WalrusData:
		name := rustIdent(d.Name)
		return "{ " + name + " = " + ctx.emitExpr(d.Value) + "; " + name + ".clone() }"
	case hir.StarredData:
		return ctx.emitExpr(d.Value)
	case hir.AwaitData:
		return ctx.emitExpr(d.Value) + ".await"
	case hir.YieldData:
		// Yields are consumed by the generator lowering; one reaching the
		// plain emitter means the function was not classified correctly.
		return ctx.unsupported("yield outside generator lowering", e.Span)
	default:
		return ctx.unsupported(e.Kind.String(), e.Span)
	}
}

func (ctx *Context) emitExprList(elems []*hir.Expr) string {
	parts := make([]string, len(elems))
	for i, el := range elems {
		parts[i] = ctx.emitExpr(el)
	}
	return strings.Join(parts, ", ")
}

func (ctx *Context) emitLiteral(d hir.LiteralData) string {
	switch d.Kind {
	case hir.LitInt:
		return strconv.FormatInt(d.IntValue, 10)
	case hir.LitFloat:
		s := strconv.FormatFloat(d.FloatValue, 'g', -1, 64)
		if !strings.ContainsAny(s, ".eE") {
			s += ".0"
		}
		return s
	case hir.LitBool:
		return strconv.FormatBool(d.BoolValue)
	case hir.LitString:
		return strconv.Quote(d.StringValue) + ".to_string()"
	case hir.LitBytes:
		parts := make([]string, len(d.BytesValue))
		for i, b := range d.BytesValue {
			parts[i] = strconv.Itoa(int(b))
		}
		return "vec![" + strings.Join(parts, ", ") + "]"
	case hir.LitNone:
		return "None"
	default:
		return "()"
	}
}

// emitStrLiteral renders a string literal as a borrowed str, for positions
// where an owned String is wrong (method arguments, format pieces).
func (ctx *Context) emitStrLiteral(e *hir.Expr) (string, bool) {
	if lit, ok := e.Data.(hir.LiteralData); ok && lit.Kind == hir.LitString {
		return strconv.Quote(lit.StringValue), true
	}
	return "", false
}

func (ctx *Context) emitUnary(d hir.UnaryData) string {
	switch d.Op {
	case hir.OpNot:
		return "!" + parenthesize(ctx.emitCondition(d.Operand))
	case hir.OpNeg:
		return "-" + parenthesize(ctx.emitExpr(d.Operand))
	case hir.OpPos:
		return ctx.emitExpr(d.Operand)
	case hir.OpBitNot:
		return "!" + parenthesize(ctx.emitExpr(d.Operand))
	default:
		return ctx.emitExpr(d.Operand)
	}
}

func (ctx *Context) emitBinary(e *hir.Expr, d hir.BinaryData) string {
	left := ctx.emitExpr(d.Left)
	right := ctx.emitExpr(d.Right)
	switch d.Op {
	case hir.OpFloorDiv:
		if ctx.isFloat(d.Left) || ctx.isFloat(d.Right) {
			return fmt.Sprintf("(%s / %s).floor()", left, right)
		}
		ctx.needHelper(helpFloorDiv)
		return fmt.Sprintf("py_floordiv(%s, %s)", left, right)
	case hir.OpPow:
		if ctx.isFloat(d.Left) || ctx.isFloat(d.Right) {
			return fmt.Sprintf("(%s).powf(%s)", left, right)
		}
		return fmt.Sprintf("(%s).pow(%s as u32)", left, right)
	case hir.OpDiv:
		// Source true division always yields a float.
		if ctx.isFloat(d.Left) || ctx.isFloat(d.Right) {
			return fmt.Sprintf("%s / %s", parenthesize(left), parenthesize(right))
		}
		return fmt.Sprintf("(%s as f64) / (%s as f64)", left, right)
	case hir.OpAdd:
		// String concatenation borrows the right-hand side.
		if ctx.isStr(d.Left) && ctx.isStr(d.Right) {
			return fmt.Sprintf("%s + &%s", parenthesize(left), parenthesize(right))
		}
	case hir.OpMatMul:
		return ctx.unsupported("matrix multiplication", e.Span)
	}
	return fmt.Sprintf("%s %s %s", parenthesize(left), rustBinOp(d.Op), parenthesize(right))
}

func rustBinOp(op hir.BinOp) string {
	switch op {
	case hir.OpAdd:
		return "+"
	case hir.OpSub:
		return "-"
	case hir.OpMul:
		return "*"
	case hir.OpMod:
		return "%"
	case hir.OpBitAnd:
		return "&"
	case hir.OpBitOr:
		return "|"
	case hir.OpBitXor:
		return "^"
	case hir.OpLShift:
		return "<<"
	case hir.OpRShift:
		return ">>"
	default:
		return "+"
	}
}

// emitCompare lowers a chained comparison into pairwise links joined with
// &&. Each middle operand is rendered twice; the frontend keeps those pure.
func (ctx *Context) emitCompare(d hir.CompareData) string {
	links := make([]string, len(d.Ops))
	for i, op := range d.Ops {
		links[i] = ctx.emitCompareLink(op, d.Operands[i], d.Operands[i+1])
	}
	return strings.Join(links, " && ")
}

func (ctx *Context) emitCompareLink(op hir.CmpOp, left, right *hir.Expr) string {
	switch op {
	case hir.CmpIn, hir.CmpNotIn:
		needle := ctx.emitExpr(left)
		call := ".contains"
		if ctx.isDict(right) {
			call = ".contains_key"
		}
		expr := ctx.emitExpr(right) + call + "(&" + needle + ")"
		if op == hir.CmpNotIn {
			return "!" + expr
		}
		return expr
	case hir.CmpIs, hir.CmpIsNot:
		if isNoneLiteral(right) {
			if op == hir.CmpIs {
				return ctx.emitExpr(left) + ".is_none()"
			}
			return ctx.emitExpr(left) + ".is_some()"
		}
		if op == hir.CmpIs {
			return fmt.Sprintf("%s == %s", parenthesize(ctx.emitExpr(left)), parenthesize(ctx.emitExpr(right)))
		}
		return fmt.Sprintf("%s != %s", parenthesize(ctx.emitExpr(left)), parenthesize(ctx.emitExpr(right)))
	default:
		return fmt.Sprintf("%s %s %s",
			parenthesize(ctx.emitExpr(left)), cmpOpText(op), parenthesize(ctx.emitExpr(right)))
	}
}

func cmpOpText(op hir.CmpOp) string {
	switch op {
	case hir.CmpEq:
		return "=="
	case hir.CmpNotEq:
		return "!="
	case hir.CmpLt:
		return "<"
	case hir.CmpLtEq:
		return "<="
	case hir.CmpGt:
		return ">"
	case hir.CmpGtEq:
		return ">="
	default:
		return "=="
	}
}

func (ctx *Context) emitBoolOp(d hir.BoolOpData) string {
	sep := " && "
	if d.Op == hir.BoolOr {
		sep = " || "
	}
	parts := make([]string, len(d.Values))
	for i, v := range d.Values {
		parts[i] = parenthesize(ctx.emitCondition(v))
	}
	return strings.Join(parts, sep)
}

func (ctx *Context) emitAttribute(d hir.AttributeData) string {
	if v, ok := d.Object.Data.(hir.VarData); ok {
		if repl, ok := moduleAttribute(v.Name, d.Attr); ok {
			return repl
		}
		if ctx.argparse.Active() {
			// Reads off the parsed-namespace value become Args fields.
			ctx.argparse.markAccess(d.Attr)
		}
	}
	return ctx.emitExpr(d.Object) + "." + rustIdent(d.Attr)
}

// moduleAttribute maps well-known module constants.
func moduleAttribute(module, attr string) (string, bool) {
	switch module + "." + attr {
	case "math.pi":
		return "std::f64::consts::PI", true
	case "math.e":
		return "std::f64::consts::E", true
	case "math.tau":
		return "std::f64::consts::TAU", true
	case "math.inf":
		return "f64::INFINITY", true
	case "math.nan":
		return "f64::NAN", true
	case "sys.maxsize":
		return "i64::MAX", true
	}
	return "", false
}

func (ctx *Context) emitIndex(e *hir.Expr, d hir.IndexData) string {
	base := ctx.emitExpr(d.Object)
	if ctx.isDict(d.Object) {
		return base + "[&" + ctx.emitExpr(d.Index) + "]"
	}
	if lit, ok := d.Index.Data.(hir.LiteralData); ok && lit.Kind == hir.LitInt {
		if lit.IntValue < 0 {
			return fmt.Sprintf("%s[%s.len() - %d]", base, base, -lit.IntValue)
		}
		return fmt.Sprintf("%s[%d]", base, lit.IntValue)
	}
	if ctx.mightBeNegative(d.Index) {
		ctx.needHelper(helpIndex)
		return fmt.Sprintf("%s[py_index(%s.len(), %s)]", base, base, ctx.emitExpr(d.Index))
	}
	return fmt.Sprintf("%s[%s as usize]", base, ctx.emitExpr(d.Index))
}

// mightBeNegative is conservative: any non-literal index goes through the
// length-relative helper unless its type is known unsigned, which the
// source type system cannot express.
func (ctx *Context) mightBeNegative(e *hir.Expr) bool {
	switch d := e.Data.(type) {
	case hir.LiteralData:
		return d.Kind == hir.LitInt && d.IntValue < 0
	case hir.CallData:
		// len() and range-derived values are non-negative.
		return d.Func != "len"
	default:
		return true
	}
}

func (ctx *Context) emitSlice(d hir.SliceData) string {
	ctx.needHelper(helpSlice)
	return fmt.Sprintf("py_slice(&%s, %s, %s, %s)",
		ctx.emitExpr(d.Object),
		ctx.emitSliceBound(d.Start),
		ctx.emitSliceBound(d.Stop),
		ctx.emitSliceBound(d.Step))
}

func (ctx *Context) emitSliceBound(e *hir.Expr) string {
	if e == nil {
		return "None"
	}
	return "Some(" + ctx.emitExpr(e) + ")"
}

func (ctx *Context) emitDict(d hir.DictData) string {
	ctx.imports.set(needHashMap)
	pairs := make([]string, len(d.Entries))
	for i, ent := range d.Entries {
		pairs[i] = "(" + ctx.emitExpr(ent.Key) + ", " + ctx.emitExpr(ent.Value) + ")"
	}
	return "HashMap::from([" + strings.Join(pairs, ", ") + "])"
}

// emitComprehension lowers list/set comprehensions and generator
// expressions to an iterator pipeline.
func (ctx *Context) emitComprehension(e *hir.Expr, d hir.CompData) string {
	pipeline, ok := ctx.comprehensionPipeline(d.Generators, func() string {
		return ctx.emitExpr(d.Elem)
	})
	if !ok {
		return ctx.unsupported("comprehension with more than two generators", e.Span)
	}
	switch e.Kind {
	case hir.ExprSetComp:
		ctx.imports.set(needHashSet)
		return pipeline + ".collect::<HashSet<_>>()"
	case hir.ExprGenExp:
		return pipeline
	default:
		return pipeline + ".collect::<Vec<_>>()"
	}
}

func (ctx *Context) emitDictComp(d hir.DictCompData) string {
	ctx.imports.set(needHashMap)
	pipeline, ok := ctx.comprehensionPipeline(d.Generators, func() string {
		return "(" + ctx.emitExpr(d.Key) + ", " + ctx.emitExpr(d.Value) + ")"
	})
	if !ok {
		return ctx.unsupported("dict comprehension with more than two generators", d.Key.Span)
	}
	return pipeline + ".collect::<HashMap<_, _>>()"
}

// comprehensionPipeline builds iter().filter(...).map(...) for one or two
// generators; the second generator nests through flat_map.
func (ctx *Context) comprehensionPipeline(gens []hir.Generator, elem func() string) (string, bool) {
	switch len(gens) {
	case 1:
		g := gens[0]
		pat := targetPattern(g.Target)
		out := ctx.emitExpr(g.Iter) + ".into_iter()"
		for _, cond := range g.Conds {
			out += ".filter(|" + pat + "| " + ctx.emitCondition(cond) + ")"
		}
		return out + ".map(|" + pat + "| " + elem() + ")", true
	case 2:
		outer, inner := gens[0], gens[1]
		outerPat := targetPattern(outer.Target)
		innerPat := targetPattern(inner.Target)
		body := ctx.emitExpr(inner.Iter) + ".into_iter()"
		for _, cond := range inner.Conds {
			body += ".filter(|" + innerPat + "| " + ctx.emitCondition(cond) + ")"
		}
		body += ".map(move |" + innerPat + "| " + elem() + ")"
		out := ctx.emitExpr(outer.Iter) + ".into_iter()"
		for _, cond := range outer.Conds {
			out += ".filter(|" + outerPat + "| " + ctx.emitCondition(cond) + ")"
		}
		return out + ".flat_map(|" + outerPat + "| " + body + ")", true
	default:
		return "", false
	}
}

// targetPattern renders a loop or comprehension binding as a closure
// pattern: plain name or tuple destructure.
func targetPattern(t *hir.AssignTarget) string {
	if t == nil {
		return "_"
	}
	switch t.Kind {
	case hir.TargetSymbol:
		return rustIdent(t.Name)
	case hir.TargetTuple:
		parts := make([]string, len(t.Elems))
		for i, el := range t.Elems {
			parts[i] = targetPattern(el)
		}
		return "(" + strings.Join(parts, ", ") + ")"
	default:
		return "_"
	}
}

func (ctx *Context) emitFString(d hir.FStringData) string {
	var tmpl strings.Builder
	var args []string
	for _, part := range d.Parts {
		if part.Value == nil {
			tmpl.WriteString(escapeBraces(part.Text))
			continue
		}
		if part.Spec != "" {
			tmpl.WriteString("{:" + part.Spec + "}")
		} else {
			tmpl.WriteString("{}")
		}
		args = append(args, ctx.emitExpr(part.Value))
	}
	out := "format!(" + strconv.Quote(tmpl.String())
	if len(args) > 0 {
		out += ", " + strings.Join(args, ", ")
	}
	return out + ")"
}

func escapeBraces(s string) string {
	s = strings.ReplaceAll(s, "{", "{{")
	return strings.ReplaceAll(s, "}", "}}")
}

// emitCondition renders an expression in boolean position, coercing
// non-boolean operands per source truthiness rules. Cases the local type
// information cannot settle are left for the text post-processor.
func (ctx *Context) emitCondition(e *hir.Expr) string {
	if e == nil {
		return "true"
	}
	switch e.Kind {
	case hir.ExprCompare, hir.ExprBoolOp:
		return ctx.emitExpr(e)
	case hir.ExprUnary:
		if d := e.Data.(hir.UnaryData); d.Op == hir.OpNot {
			return "!" + parenthesize(ctx.emitCondition(d.Operand))
		}
	case hir.ExprLiteral:
		d := e.Data.(hir.LiteralData)
		switch d.Kind {
		case hir.LitBool:
			return strconv.FormatBool(d.BoolValue)
		case hir.LitInt:
			return strconv.FormatBool(d.IntValue != 0)
		case hir.LitNone:
			return "false"
		}
	}
	expr := ctx.emitExpr(e)
	switch ty := ctx.typeOf(e); {
	case ty == nil || ty.Kind == types.KindBool:
		return expr
	case ty.Kind == types.KindList, ty.Kind == types.KindDict,
		ty.Kind == types.KindSet, ty.Kind == types.KindStr:
		return "!" + expr + ".is_empty()"
	case ty.Kind == types.KindOptional:
		return expr + ".is_some()"
	case ty.Kind == types.KindInt:
		return expr + " != 0"
	case ty.Kind == types.KindFloat:
		return expr + " != 0.0"
	default:
		return expr
	}
}

// typeOf resolves the best-known static type of an expression: the node's
// own annotation, or the declared type when it is a parameter reference.
func (ctx *Context) typeOf(e *hir.Expr) *types.Type {
	if e == nil {
		return nil
	}
	if e.Type != nil && e.Type.Kind != types.KindUnknown {
		return e.Type.StripFinal()
	}
	if v, ok := e.Data.(hir.VarData); ok && ctx.fn != nil {
		if i := ctx.fn.ParamIndex(v.Name); i >= 0 {
			if t := ctx.fn.Params[i].Type; t != nil {
				return t.StripFinal()
			}
		}
	}
	return nil
}

func (ctx *Context) isFloat(e *hir.Expr) bool {
	if lit, ok := e.Data.(hir.LiteralData); ok {
		return lit.Kind == hir.LitFloat
	}
	t := ctx.typeOf(e)
	return t != nil && t.Kind == types.KindFloat
}

func (ctx *Context) isStr(e *hir.Expr) bool {
	if lit, ok := e.Data.(hir.LiteralData); ok {
		return lit.Kind == hir.LitString
	}
	t := ctx.typeOf(e)
	return t != nil && t.Kind == types.KindStr
}

func (ctx *Context) isDict(e *hir.Expr) bool {
	t := ctx.typeOf(e)
	return t != nil && t.Kind == types.KindDict
}

func isNoneLiteral(e *hir.Expr) bool {
	lit, ok := e.Data.(hir.LiteralData)
	return ok && lit.Kind == hir.LitNone
}

// parenthesize wraps an expression unless it is already atomic.
func parenthesize(s string) string {
	if isAtom(s) {
		return s
	}
	return "(" + s + ")"
}

func isAtom(s string) bool {
	if s == "" {
		return true
	}
	depth := 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '(', '[', '{':
			depth++
		case ')', ']', '}':
			depth--
		case ' ':
			if depth == 0 {
				return false
			}
		}
	}
	return true
}
