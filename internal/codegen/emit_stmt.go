package codegen

import (
	"strings"

	"pylift/internal/diag"
	"pylift/internal/hir"
	"pylift/internal/source"
	"pylift/internal/types"
)

// emitBlock emits a statement list at the current indent.
func (ctx *Context) emitBlock(w *Writer, body []*hir.Stmt) {
	for _, s := range body {
		ctx.emitStmt(w, s)
	}
}

func (ctx *Context) emitStmt(w *Writer, s *hir.Stmt) {
	switch d := s.Data.(type) {
	case hir.AssignData:
		ctx.emitAssign(w, d)
	case hir.ReturnData:
		ctx.emitReturn(w, d)
	case hir.IfData:
		ctx.emitIf(w, d)
	case hir.WhileData:
		ctx.emitWhile(w, d)
	case hir.ForData:
		ctx.emitFor(w, d)
	case hir.ExprStmtData:
		ctx.emitExprStmt(w, d)
	case hir.PassData:
		// Nothing to emit.
	case hir.BreakData:
		ctx.replayFinallyForLoopExit(w)
		w.Line("break;")
	case hir.ContinueData:
		ctx.replayFinallyForLoopExit(w)
		w.Line("continue;")
	case hir.RaiseData:
		ctx.emitRaise(w, d, s)
	case hir.TryData:
		ctx.emitTry(w, d)
	case hir.WithData:
		ctx.emitWith(w, d)
	case hir.AssertData:
		ctx.emitAssert(w, d)
	case hir.DeleteData:
		ctx.emitDelete(w, d, s)
	case hir.GlobalData:
		// Scope declarations have no target-side counterpart.
	default:
		w.Line(ctx.unsupported(s.Kind.String(), s.Span) + ";")
	}
}

// replayFinallyForLoopExit duplicates pending finally bodies on break and
// continue edges. Only finallys opened inside the current loop apply; the
// emitter tracks that by clearing the stack when a loop body starts.
func (ctx *Context) replayFinallyForLoopExit(w *Writer) {
	for i := len(ctx.finallyBlocks) - 1; i >= 0; i-- {
		ctx.emitBlock(w, ctx.finallyBlocks[i])
	}
}

// Assignments ---------------------------------------------------------------

func (ctx *Context) emitAssign(w *Writer, d hir.AssignData) {
	if ctx.assignArgparse(w, d) {
		return
	}
	switch d.Target.Kind {
	case hir.TargetSymbol:
		ctx.emitSymbolAssign(w, d)
	case hir.TargetAttribute:
		w.Linef("%s.%s = %s;",
			ctx.emitExpr(d.Target.Object), rustIdent(d.Target.Attr), ctx.emitExpr(d.Value))
	case hir.TargetIndex:
		ctx.emitIndexAssign(w, d)
	case hir.TargetTuple:
		ctx.emitTupleAssign(w, d)
	}
}

// assignArgparse intercepts the argument-parser construction idiom. The
// structural calls vanish from the output; parse_args materializes Args.
func (ctx *Context) assignArgparse(w *Writer, d hir.AssignData) bool {
	mc, ok := d.Value.Data.(hir.MethodCallData)
	if !ok || d.Target.Kind != hir.TargetSymbol {
		return false
	}
	target := d.Target.Name
	if obj, ok := mc.Object.Data.(hir.VarData); ok {
		switch {
		case obj.Name == "argparse" && mc.Method == "ArgumentParser":
			ctx.argparse.markParser(target)
			return true
		case ctx.argparse.isParser(obj.Name) && mc.Method == "add_subparsers":
			ctx.argparse.markParser(target)
			return true
		case ctx.argparse.isParser(obj.Name) && mc.Method == "add_parser":
			if len(mc.Args) > 0 {
				if lit, ok := mc.Args[0].Data.(hir.LiteralData); ok && lit.Kind == hir.LitString {
					ctx.argparse.markSubParser(target, lit.StringValue)
					return true
				}
			}
			ctx.argparse.markSubParser(target, target)
			return true
		case ctx.argparse.isParser(obj.Name) && mc.Method == "parse_args":
			name := rustIdent(target)
			w.Linef("let %s = %s;", name, ctx.emitParserMethod(obj.Name, mc))
			ctx.scopes.Declare(target)
			return true
		}
	}
	return false
}

func (ctx *Context) emitSymbolAssign(w *Writer, d hir.AssignData) {
	name := rustIdent(d.Target.Name)
	value := ctx.emitExpr(d.Value)
	if ctx.genFields[d.Target.Name] && !ctx.scopes.IsDeclared(d.Target.Name) {
		w.Linef("self.%s = %s;", name, value)
		return
	}
	if ctx.scopes.IsDeclared(d.Target.Name) {
		w.Linef("%s = %s;", name, value)
		return
	}
	ctx.scopes.Declare(d.Target.Name)
	if d.Ann != nil {
		w.Linef("let mut %s: %s = %s;", name, ctx.mapper.Map(d.Ann).Render(), value)
		ctx.imports.markTypeImports(ctx.mapper.Map(d.Ann).Render())
		return
	}
	w.Linef("let mut %s = %s;", name, value)
}

func (ctx *Context) emitIndexAssign(w *Writer, d hir.AssignData) {
	obj := ctx.emitExpr(d.Target.Object)
	value := ctx.emitExpr(d.Value)
	if ctx.isDict(d.Target.Object) {
		w.Linef("%s.insert(%s, %s);", obj, ctx.emitExpr(d.Target.Index), value)
		return
	}
	if lit, ok := d.Target.Index.Data.(hir.LiteralData); ok && lit.Kind == hir.LitInt {
		if lit.IntValue < 0 {
			w.Linef("let %s = %s.len() - %d; %s[%s] = %s;",
				"__i", obj, -lit.IntValue, obj, "__i", value)
			return
		}
		w.Linef("%s[%d] = %s;", obj, lit.IntValue, value)
		return
	}
	if ctx.mightBeNegative(d.Target.Index) {
		ctx.needHelper(helpIndex)
		w.Linef("let __i = py_index(%s.len(), %s); %s[__i] = %s;",
			obj, ctx.emitExpr(d.Target.Index), obj, value)
		return
	}
	w.Linef("%s[%s as usize] = %s;", obj, ctx.emitExpr(d.Target.Index), value)
}

func (ctx *Context) emitTupleAssign(w *Writer, d hir.AssignData) {
	if ctx.tupleTargetsState(d.Target) {
		parts := make([]string, len(d.Target.Elems))
		for i, el := range d.Target.Elems {
			parts[i] = "self." + rustIdent(el.Name)
		}
		w.Linef("(%s) = %s;", strings.Join(parts, ", "), ctx.emitExpr(d.Value))
		return
	}
	allNew := true
	for _, el := range d.Target.Elems {
		if el.Kind == hir.TargetAttribute || el.Kind == hir.TargetIndex {
			ctx.rep.Report(diag.GenNestedTupleTarget, diag.SevError, source.Span{},
				"tuple assignment into attribute or subscript targets is not lowered", nil)
			w.Line("/* unsupported: tuple target with attribute or subscript element */")
			return
		}
		if el.Kind == hir.TargetSymbol && ctx.scopes.IsDeclared(el.Name) {
			allNew = false
		}
	}
	for _, el := range d.Target.Elems {
		if el.Kind == hir.TargetSymbol {
			ctx.scopes.Declare(el.Name)
		}
	}
	if allNew {
		w.Linef("let %s = %s;", mutTargetPattern(d.Target), ctx.emitExpr(d.Value))
		return
	}
	w.Linef("%s = %s;", targetPattern(d.Target), ctx.emitExpr(d.Value))
}

// tupleTargetsState reports whether every element of a tuple target is a
// generator state field, which takes a destructuring assignment through self.
func (ctx *Context) tupleTargetsState(t *hir.AssignTarget) bool {
	if ctx.genFields == nil || len(t.Elems) == 0 {
		return false
	}
	for _, el := range t.Elems {
		if el.Kind != hir.TargetSymbol || !ctx.genFields[el.Name] || ctx.scopes.IsDeclared(el.Name) {
			return false
		}
	}
	return true
}

// mutTargetPattern is targetPattern with every bound symbol marked mut.
func mutTargetPattern(t *hir.AssignTarget) string {
	switch t.Kind {
	case hir.TargetSymbol:
		return "mut " + rustIdent(t.Name)
	case hir.TargetTuple:
		parts := make([]string, len(t.Elems))
		for i, el := range t.Elems {
			parts[i] = mutTargetPattern(el)
		}
		return "(" + strings.Join(parts, ", ") + ")"
	default:
		return "_"
	}
}

// Control flow --------------------------------------------------------------

func (ctx *Context) emitReturn(w *Writer, d hir.ReturnData) {
	for i := len(ctx.finallyBlocks) - 1; i >= 0; i-- {
		ctx.emitBlock(w, ctx.finallyBlocks[i])
	}
	if ctx.genReturn != "" {
		// A return inside a state machine moves to the exhausted state.
		w.Line(ctx.genReturn)
		return
	}
	if ctx.genMode {
		// A return inside a generator ends the iteration.
		w.Line("return __items.into_iter();")
		return
	}
	if d.Value == nil {
		ctx.emitReturnText(w, "")
		return
	}
	ctx.emitReturnText(w, ctx.emitExpr(d.Value))
}

// emitReturnText emits a return carrying the rendered value through the
// channel the current position requires: the try closure's Ok(Some(..)),
// a fallible function's Ok(..), or a plain return.
func (ctx *Context) emitReturnText(w *Writer, value string) {
	switch {
	case ctx.tryDepth > 0:
		if value == "" {
			w.Line("return Ok(Some(()));")
		} else {
			w.Linef("return Ok(Some(%s));", value)
		}
	case ctx.fallible:
		if value == "" {
			w.Line("return Ok(());")
		} else {
			w.Linef("return Ok(%s);", value)
		}
	default:
		if value == "" {
			w.Line("return;")
		} else {
			w.Linef("return %s;", value)
		}
	}
}

func (ctx *Context) emitIf(w *Writer, d hir.IfData) {
	w.Writef("if %s", ctx.emitCondition(d.Cond))
	w.OpenBlock()
	ctx.scopedBlock(w, d.Then)
	for len(d.Else) == 1 && d.Else[0].Kind == hir.StmtIf {
		next := d.Else[0].Data.(hir.IfData)
		w.CloseBlockHanging()
		w.Writef(" else if %s", ctx.emitCondition(next.Cond))
		w.OpenBlock()
		ctx.scopedBlock(w, next.Then)
		d = next
	}
	if len(d.Else) > 0 {
		w.CloseBlockHanging()
		w.WriteString(" else")
		w.OpenBlock()
		ctx.scopedBlock(w, d.Else)
	}
	w.CloseBlock()
}

func (ctx *Context) emitWhile(w *Writer, d hir.WhileData) {
	if lit, ok := d.Cond.Data.(hir.LiteralData); ok && lit.Kind == hir.LitBool && lit.BoolValue {
		w.WriteString("loop")
	} else {
		w.Writef("while %s", ctx.emitCondition(d.Cond))
	}
	w.OpenBlock()
	ctx.scopedBlock(w, d.Body)
	w.CloseBlock()
}

func (ctx *Context) emitFor(w *Writer, d hir.ForData) {
	pat := targetPattern(d.Target)
	w.Writef("for %s in %s", pat, ctx.emitIterable(d.Iter))
	w.OpenBlock()
	ctx.scopes.Enter()
	declareTarget(ctx.scopes, d.Target)
	ctx.emitBlock(w, d.Body)
	ctx.scopes.Exit()
	w.CloseBlock()
}

func declareTarget(sc *ScopeTracker, t *hir.AssignTarget) {
	if t == nil {
		return
	}
	switch t.Kind {
	case hir.TargetSymbol:
		sc.Declare(t.Name)
	case hir.TargetTuple:
		for _, el := range t.Elems {
			declareTarget(sc, el)
		}
	}
}

// emitIterable renders a for-loop source. Container variables iterate by
// cloned reference so the binding stays usable after the loop; everything
// else (ranges, iterator pipelines) is already an iterator.
func (ctx *Context) emitIterable(e *hir.Expr) string {
	if _, ok := e.Data.(hir.VarData); ok {
		if t := ctx.typeOf(e); t != nil {
			switch t.Kind {
			case types.KindList, types.KindSet:
				return ctx.emitExpr(e) + ".iter().cloned()"
			case types.KindDict:
				return ctx.emitExpr(e) + ".keys().cloned()"
			case types.KindStr:
				return ctx.emitExpr(e) + ".chars()"
			}
		}
	}
	return ctx.emitExpr(e)
}

func (ctx *Context) scopedBlock(w *Writer, body []*hir.Stmt) {
	ctx.scopes.Enter()
	ctx.emitBlock(w, body)
	ctx.scopes.Exit()
}

func (ctx *Context) emitExprStmt(w *Writer, d hir.ExprStmtData) {
	if lit, ok := d.Expr.Data.(hir.LiteralData); ok && lit.Kind == hir.LitString {
		// Bare string expression statements are docstrings.
		return
	}
	if y, ok := d.Expr.Data.(hir.YieldData); ok && ctx.genMode {
		ctx.emitYield(w, y)
		return
	}
	text := ctx.emitExpr(d.Expr)
	if text == "" {
		return
	}
	w.Line(text + ";")
}

// Exceptions ----------------------------------------------------------------

// emitRaise lowers raise through the exception stack: inside a lowered try
// it returns the error into the closure; in a fallible function it returns
// Err; otherwise it panics.
func (ctx *Context) emitRaise(w *Writer, d hir.RaiseData, s *hir.Stmt) {
	if d.From != nil {
		// The lowered error types carry no cause chain.
		ctx.rep.Report(diag.GenExceptionChainLost, diag.SevWarning, s.Span,
			"exception cause dropped: error type has no source chain", nil)
	}
	if d.Exc == nil {
		// Bare re-raise inside a handler.
		if ctx.fallible {
			ctx.emitReturnErr(w, "__exc")
		} else {
			w.Line(`panic!("{}", __exc);`)
		}
		return
	}
	value := ctx.emitErrValue(d.Exc)
	if ctx.tryDepth > 0 && ctx.excs.InTryBlock() {
		w.Linef("return Err(%s);", value)
		return
	}
	if ctx.fallible {
		ctx.emitReturnErr(w, value)
		return
	}
	w.Linef("panic!(\"{}\", %s);", value)
}

func (ctx *Context) emitReturnErr(w *Writer, value string) {
	for i := len(ctx.finallyBlocks) - 1; i >= 0; i-- {
		ctx.emitBlock(w, ctx.finallyBlocks[i])
	}
	w.Linef("return Err(%s);", value)
}

// emitErrValue renders an exception expression as an error value that
// coerces into the enclosing error type.
func (ctx *Context) emitErrValue(e *hir.Expr) string {
	if cd, ok := e.Data.(hir.CallData); ok {
		if out, ok := ctx.emitExceptionCtor(cd); ok {
			switch cd.Func {
			case "OSError", "IOError", "FileNotFoundError", "PermissionError":
				if ctx.errType.kind == errConcrete && ctx.tryDepth == 0 {
					return out
				}
				return "Box::new(" + out + ")"
			}
			return out
		}
	}
	if vd, ok := e.Data.(hir.VarData); ok && vd.Name == "__exc" {
		return "__exc"
	}
	return ctx.emitExpr(e) + ".into()"
}

// emitTry lowers try/except as an immediately invoked closure. The closure
// returns Result<Option<R>, E>: Err carries a raised exception to the
// handlers, Ok(Some) carries an early return out of the try body, Ok(None)
// is the normal fall-through.
func (ctx *Context) emitTry(w *Writer, d hir.TryData) {
	handled := handledNames(d.Handlers)
	tryVar := ctx.freshTmp("try")

	retTy := "()"
	if ctx.fn != nil {
		retTy = ctx.mapper.MapReturn(ctx.fn.Ret).Render()
	}
	w.Linef("let %s: Result<Option<%s>, Box<dyn std::error::Error>> = (|| {", tryVar, retTy)
	w.IndentPush()
	ctx.tryDepth++
	ctx.excs.EnterTry(handled)
	ctx.scopedBlock(w, d.Body)
	ctx.excs.Exit()
	ctx.tryDepth--
	w.Line("Ok(None)")
	w.IndentPop()
	w.Line("})();")

	w.Writef("match %s", tryVar)
	w.OpenBlock()
	w.WriteString("Ok(Some(__v)) =>")
	w.OpenBlock()
	if len(d.Finally) > 0 {
		ctx.emitBlock(w, d.Finally)
	}
	ctx.emitReturnText(w, "__v")
	w.CloseBlock()
	w.Line("Ok(None) => {}")
	w.WriteString("Err(__exc) =>")
	w.OpenBlock()
	ctx.emitHandlers(w, d)
	w.CloseBlock()
	w.CloseBlock()

	if len(d.Else) > 0 {
		// The else clause runs only when the body completed normally; the
		// early-return arm has already left the function by this point.
		ctx.scopedBlock(w, d.Else)
	}
	if len(d.Finally) > 0 {
		ctx.scopedBlock(w, d.Finally)
	}
}

// emitHandlers dispatches the caught error. With a single catch-all handler
// the body runs directly; typed handlers match on the error's rendered text
// since the closure erases the concrete type.
func (ctx *Context) emitHandlers(w *Writer, d hir.TryData) {
	ctx.finallyBlocks = append(ctx.finallyBlocks, d.Finally)
	defer func() {
		ctx.finallyBlocks = ctx.finallyBlocks[:len(ctx.finallyBlocks)-1]
	}()

	if len(d.Handlers) == 1 && d.Handlers[0].Bare() {
		ctx.emitHandlerBody(w, d.Handlers[0])
		return
	}
	catchAll := false
	for i, h := range d.Handlers {
		if h.Bare() || len(h.Types) == 0 {
			catchAll = true
			if i > 0 {
				w.WriteString("else")
				w.OpenBlock()
				ctx.emitHandlerBody(w, h)
				w.CloseBlock()
			} else {
				ctx.emitHandlerBody(w, h)
			}
			continue
		}
		cond := handlerCond(h)
		if cond == "true" {
			catchAll = true
		}
		if i == 0 {
			w.Writef("if %s", cond)
		} else {
			w.Writef("else if %s", cond)
		}
		w.OpenBlock()
		ctx.emitHandlerBody(w, h)
		w.CloseBlock()
	}
	if !catchAll {
		// No handler accepted the error; it keeps propagating.
		w.WriteString("else")
		w.OpenBlock()
		ctx.emitRethrow(w)
		w.CloseBlock()
	}
}

// emitRethrow re-raises the live __exc past this try: into the enclosing
// lowered try when one exists, as an Err return from a fallible function,
// or as a panic after the pending finally blocks have run.
func (ctx *Context) emitRethrow(w *Writer) {
	if ctx.tryDepth > 0 || (ctx.fallible && ctx.errType.kind == errDynBox) {
		ctx.emitReturnErr(w, "__exc")
		return
	}
	for i := len(ctx.finallyBlocks) - 1; i >= 0; i-- {
		ctx.emitBlock(w, ctx.finallyBlocks[i])
	}
	w.Line(`panic!("{}", __exc);`)
}

// handlerCond matches a typed handler against the error. Concrete types are
// erased by the closure boundary, so dispatch keys on the downcast for
// io::Error and falls back to accept-all for source-level exception names
// that have no concrete target-side type.
func handlerCond(h hir.Handler) string {
	for _, t := range h.Types {
		if isIOExceptionName(t) {
			return "__exc.downcast_ref::<std::io::Error>().is_some()"
		}
	}
	return "true"
}

func (ctx *Context) emitHandlerBody(w *Writer, h hir.Handler) {
	ctx.excs.EnterHandler()
	ctx.scopes.Enter()
	if h.Binding != "" {
		w.Linef("let %s = __exc;", rustIdent(h.Binding))
		ctx.scopes.Declare(h.Binding)
	}
	ctx.emitBlock(w, h.Body)
	ctx.scopes.Exit()
	ctx.excs.Exit()
}

func handledNames(handlers []hir.Handler) []string {
	var names []string
	for _, h := range handlers {
		if h.Bare() {
			return nil
		}
		names = append(names, h.Types...)
	}
	return names
}

// Other statements ----------------------------------------------------------

// emitWith scopes the context value to a block; Drop at block end supplies
// the release half of the protocol.
func (ctx *Context) emitWith(w *Writer, d hir.WithData) {
	w.OpenBlockBare()
	ctx.scopes.Enter()
	for _, item := range d.Items {
		binding := "_ctx"
		if item.Binding != "" {
			binding = rustIdent(item.Binding)
			ctx.scopes.Declare(item.Binding)
		}
		w.Linef("let mut %s = %s;", binding, ctx.emitExpr(item.Ctx))
	}
	ctx.emitBlock(w, d.Body)
	ctx.scopes.Exit()
	w.CloseBlock()
}

func (ctx *Context) emitAssert(w *Writer, d hir.AssertData) {
	cond := ctx.emitCondition(d.Cond)
	if d.Msg == nil {
		w.Linef("assert!(%s);", cond)
		return
	}
	if raw, ok := ctx.emitStrLiteral(d.Msg); ok {
		w.Linef("assert!(%s, %s);", cond, raw)
		return
	}
	w.Linef("assert!(%s, \"{}\", %s);", cond, ctx.emitExpr(d.Msg))
}

func (ctx *Context) emitDelete(w *Writer, d hir.DeleteData, s *hir.Stmt) {
	for _, t := range d.Targets {
		switch td := t.Data.(type) {
		case hir.IndexData:
			obj := ctx.emitExpr(td.Object)
			if ctx.isDict(td.Object) {
				w.Linef("%s.remove(&%s);", obj, ctx.emitExpr(td.Index))
			} else {
				w.Linef("%s.remove(%s as usize);", obj, ctx.emitExpr(td.Index))
			}
		case hir.VarData:
			w.Linef("drop(%s);", rustIdent(td.Name))
		default:
			w.Line(ctx.unsupported("delete target", s.Span) + ";")
		}
	}
}
