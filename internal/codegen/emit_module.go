package codegen

import (
	"fmt"
	"strings"

	"pylift/internal/borrow"
	"pylift/internal/diag"
	"pylift/internal/hir"
	"pylift/internal/source"
	"pylift/internal/typemap"
)

// Emit translates an analyzed module into Rust source text. Diagnostics go
// to rep; the returned text is always well-formed even when individual
// constructs were reported unsupported.
func Emit(m *hir.Module, mapper *typemap.Mapper, reg *borrow.Registry, rep diag.Reporter, cfg Config) string {
	ctx := NewContext(m, mapper, reg, rep, cfg)
	return ctx.EmitModule()
}

// EmitModule renders the whole module. The body is emitted first so that
// imports, union enums, helper flags, and the argument-parser structure are
// fully known before the header is assembled.
func (ctx *Context) EmitModule() string {
	body := NewWriter()

	for _, a := range ctx.module.TypeAliases {
		rendered := ctx.mapper.Map(a.Type).Render()
		ctx.imports.markTypeImports(rendered)
		body.Linef("pub type %s = %s;", rustIdent(a.Name), rendered)
	}
	if len(ctx.module.TypeAliases) > 0 {
		body.BlankLine()
	}

	for _, c := range ctx.module.Constants {
		ctx.emitConstant(body, c)
	}
	if len(ctx.module.Constants) > 0 {
		body.BlankLine()
	}

	for i, c := range ctx.module.Classes {
		if i > 0 {
			body.BlankLine()
		}
		ctx.emitGuarded(body, c.Name, c.Span, func(w *Writer) {
			ctx.emitClass(w, c)
		})
	}
	if len(ctx.module.Classes) > 0 && len(ctx.module.Functions) > 0 {
		body.BlankLine()
	}

	for i, f := range ctx.module.Functions {
		if i > 0 {
			body.BlankLine()
		}
		ctx.emitGuarded(body, f.Name, f.Span, func(w *Writer) {
			ctx.emitFunc(w, f.Name, f, "")
		})
	}

	text := body.String()

	out := NewWriter()
	ctx.emitHeader(out, text)
	for _, decl := range ctx.mapper.Enums() {
		out.WriteString(typemap.RenderDecl(decl))
		out.BlankLine()
	}
	ctx.argparse.renderArgs(out, ctx.cfg.SingleShot)
	out.WriteString(text)
	ctx.emitHelpers(out)
	return out.String()
}

// emitGuarded renders one top-level item into its own writer and appends it
// only on success. A fault inside a single function's emission drops that
// function and lets the rest of the module continue; module-level faults
// still propagate.
func (ctx *Context) emitGuarded(body *Writer, name string, span source.Span, emit func(w *Writer)) {
	w := NewWriter()
	ok := func() (done bool) {
		defer func() {
			if r := recover(); r != nil {
				ctx.rep.Report(diag.GenFunctionSkipped, diag.SevError, span,
					fmt.Sprintf("emission of %q failed: %v", name, r), nil)
			}
		}()
		emit(w)
		return true
	}()
	if ok {
		body.WriteString(w.String())
	}
}

// emitHeader writes the use lines: fired std imports, the derive import for
// the hoisted Args struct, and the runtime shim when its names appear.
func (ctx *Context) emitHeader(w *Writer, bodyText string) {
	var lines []string
	lines = append(lines, ctx.imports.uses()...)
	if ctx.argparse.Active() && !ctx.cfg.SingleShot {
		lines = append(lines, "use clap::Parser;")
	}
	if usesRuntimeShim(bodyText) {
		lines = append(lines, "mod pyrt;", "use pyrt::*;")
	}
	if len(lines) == 0 {
		return
	}
	for _, l := range lines {
		w.Line(l)
	}
	w.BlankLine()
}

// usesRuntimeShim detects references to the shim's extension traits and
// value type in the rendered body.
func usesRuntimeShim(text string) bool {
	for _, marker := range []string{"PyValue", ".split_py(", ".join_py(", ".count_py(", ".find_py("} {
		if strings.Contains(text, marker) {
			return true
		}
	}
	return false
}

// emitConstant renders a module-level binding: scalar literals become
// consts, everything else becomes an accessor function evaluated per call.
func (ctx *Context) emitConstant(w *Writer, c hir.Constant) {
	name := strings.ToUpper(c.Name)
	if lit, ok := c.Value.Data.(hir.LiteralData); ok {
		switch lit.Kind {
		case hir.LitInt:
			w.Linef("pub const %s: i64 = %d;", name, lit.IntValue)
			return
		case hir.LitFloat:
			w.Linef("pub const %s: f64 = %s;", name, ctx.emitLiteral(lit))
			return
		case hir.LitBool:
			w.Linef("pub const %s: bool = %t;", name, lit.BoolValue)
			return
		case hir.LitString:
			raw, _ := ctx.emitStrLiteral(c.Value)
			w.Linef("pub const %s: &str = %s;", name, raw)
			return
		}
	}
	ty := ctx.mapper.Map(c.Type).Render()
	ctx.imports.markTypeImports(ty)
	w.Writef("pub fn %s() -> %s", strings.ToLower(c.Name), ty)
	w.OpenBlock()
	w.Line(ctx.emitExpr(c.Value))
	w.CloseBlock()
}

// emitHelpers appends the runtime helpers the emitted body relies on.
func (ctx *Context) emitHelpers(w *Writer) {
	if ctx.helpers[helpFloorDiv] {
		w.BlankLine()
		w.Line("fn py_floordiv(a: i64, b: i64) -> i64 {")
		w.IndentPush()
		w.Line("let q = a / b;")
		w.Line("if (a % b != 0) && ((a < 0) != (b < 0)) { q - 1 } else { q }")
		w.IndentPop()
		w.Line("}")
	}
	if ctx.helpers[helpIndex] {
		w.BlankLine()
		w.Line("fn py_index(len: usize, i: i64) -> usize {")
		w.IndentPush()
		w.Line("if i < 0 { (len as i64 + i) as usize } else { i as usize }")
		w.IndentPop()
		w.Line("}")
	}
	if ctx.helpers[helpSlice] {
		w.BlankLine()
		w.Line("fn py_slice<T: Clone>(v: &[T], start: Option<i64>, stop: Option<i64>, step: Option<i64>) -> Vec<T> {")
		w.IndentPush()
		w.Line("let n = v.len() as i64;")
		w.Line("let step = step.unwrap_or(1);")
		w.Line("if step == 0 {")
		w.IndentPush()
		w.Line(`panic!("ValueError: slice step cannot be zero");`)
		w.IndentPop()
		w.Line("}")
		w.Line("let norm = |x: i64, lo: i64, hi: i64| x.max(lo).min(hi);")
		w.Line("let (mut i, end) = if step > 0 {")
		w.IndentPush()
		w.Line("let s = norm(start.map(|x| if x < 0 { x + n } else { x }).unwrap_or(0), 0, n);")
		w.Line("let e = norm(stop.map(|x| if x < 0 { x + n } else { x }).unwrap_or(n), 0, n);")
		w.Line("(s, e)")
		w.IndentPop()
		w.Line("} else {")
		w.IndentPush()
		w.Line("let s = norm(start.map(|x| if x < 0 { x + n } else { x }).unwrap_or(n - 1), -1, n - 1);")
		w.Line("let e = norm(stop.map(|x| if x < 0 { x + n } else { x }).unwrap_or(-1), -1, n - 1);")
		w.Line("(s, e)")
		w.IndentPop()
		w.Line("};")
		w.Line("let mut out = Vec::new();")
		w.Line("while (step > 0 && i < end) || (step < 0 && i > end) {")
		w.IndentPush()
		w.Line("out.push(v[i as usize].clone());")
		w.Line("i += step;")
		w.IndentPop()
		w.Line("}")
		w.Line("out")
		w.IndentPop()
		w.Line("}")
	}
}
