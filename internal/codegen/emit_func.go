package codegen

import (
	"strings"

	"pylift/internal/borrow"
	"pylift/internal/hir"
	"pylift/internal/types"
)

// emitFunc emits one function. key is the borrow-registry key ("name" or
// "Class.method"); selfDecl, when non-empty, is the rendered receiver and
// suppresses the leading self parameter.
func (ctx *Context) emitFunc(w *Writer, key string, f *hir.Func, selfDecl string) {
	ctx.fn = f
	ctx.fnInfo = ctx.reg.Lookup(key)
	if f.IsGenerator && selfDecl == "" {
		ctx.finallyBlocks = nil
		ctx.tryDepth = 0
		ctx.fallible = false
		ctx.emitGeneratorFunc(w, f)
		ctx.fn = nil
		ctx.fnInfo = nil
		return
	}
	// Generator methods capture a receiver, which the state struct cannot
	// hold; they run eagerly and hand back the buffered iterator.
	ctx.genMode = f.IsGenerator
	ctx.fallible = !f.IsGenerator && ctx.resultFuncs[key]
	if ctx.fallible {
		ctx.errType = ctx.errorTypeFor(f)
	}
	ctx.scopes = NewScopeTracker()
	ctx.finallyBlocks = nil
	ctx.tryDepth = 0

	if f.Docstring != "" {
		for _, line := range strings.Split(strings.TrimRight(f.Docstring, "\n"), "\n") {
			w.Line("/// " + strings.TrimRight(line, " "))
		}
	}
	w.Writef("pub fn %s(%s)", rustIdent(f.Name), ctx.renderParams(key, f, selfDecl))
	if ret := ctx.renderReturn(f); ret != "" {
		w.WriteString(" -> " + ret)
	}
	w.OpenBlock()

	if ctx.genMode {
		w.Line("let mut __items = Vec::new();")
	}
	for _, name := range hoistedLocals(f) {
		w.Linef("let mut %s;", rustIdent(name))
		ctx.scopes.Declare(name)
	}
	ctx.emitBlock(w, f.Body)
	switch {
	case ctx.genMode:
		w.Line("__items.into_iter()")
	case ctx.fallible && fallsThrough(f.Body):
		w.Line("Ok(())")
	}
	w.CloseBlock()

	ctx.fn = nil
	ctx.fnInfo = nil
	ctx.genMode = false
	ctx.fallible = false
}

func (ctx *Context) renderParams(key string, f *hir.Func, selfDecl string) string {
	var parts []string
	if selfDecl != "" {
		parts = append(parts, selfDecl)
	}
	strs := ctx.strParams[key]
	for i, p := range f.Params {
		if i == 0 && selfDecl != "" && p.Name == "self" {
			continue
		}
		parts = append(parts, ctx.renderParam(p, ctx.paramPattern(p.Name), strs[p.Name]))
	}
	return strings.Join(parts, ", ")
}

func (ctx *Context) paramPattern(name string) borrow.Pattern {
	if ctx.fnInfo == nil {
		return borrow.Owned
	}
	return ctx.fnInfo.ParamPattern(name)
}

func (ctx *Context) renderParam(p hir.Param, pat borrow.Pattern, isStr bool) string {
	ctx.scopes.Declare(p.Name)
	name := rustIdent(p.Name)
	if p.Vararg {
		elem := "PyValue"
		if p.Type != nil && p.Type.StripFinal() != nil {
			if t := p.Type.StripFinal(); t.Kind == types.KindList && t.Elem != nil {
				elem = ctx.mapper.Map(t.Elem).Render()
			}
		}
		return name + ": &[" + elem + "]"
	}
	if isStr {
		switch pat {
		case borrow.MutableBorrow:
			return name + ": &mut String"
		case borrow.Owned:
			return name + ": String"
		default:
			return name + ": &str"
		}
	}
	ty := ctx.mapper.Map(p.Type).Render()
	ctx.imports.markTypeImports(ty)
	return name + ": " + pat.Prefix() + ty
}

func (ctx *Context) renderReturn(f *hir.Func) string {
	if f.IsGenerator {
		ret := ctx.mapper.MapReturn(f.Ret).Render()
		if strings.HasPrefix(ret, "impl Iterator") {
			return ret
		}
		return "impl Iterator<Item = PyValue>"
	}
	ret := ctx.mapper.MapReturn(f.Ret)
	rendered := ret.Render()
	ctx.imports.markTypeImports(rendered)
	if ctx.fallible {
		if ret.IsUnit() {
			return "Result<(), " + ctx.errType.render() + ">"
		}
		return "Result<" + rendered + ", " + ctx.errType.render() + ">"
	}
	if ret.IsUnit() {
		return ""
	}
	return rendered
}

// fallsThrough reports whether control can reach the end of the block.
func fallsThrough(body []*hir.Stmt) bool {
	if len(body) == 0 {
		return true
	}
	last := body[len(body)-1]
	switch d := last.Data.(type) {
	case hir.ReturnData, hir.RaiseData:
		return false
	case hir.IfData:
		if len(d.Else) == 0 {
			return true
		}
		return fallsThrough(d.Then) || fallsThrough(d.Else)
	}
	return true
}

// hoistedLocals lists variables first assigned inside a nested block, plus
// walrus bindings. Declaring them up front keeps branch-local assignments
// visible after the branch, matching source scoping.
func hoistedLocals(f *hir.Func) []string {
	params := map[string]bool{}
	for _, p := range f.Params {
		params[p.Name] = true
	}
	topLevel := map[string]bool{}
	for _, s := range f.Body {
		if a, ok := s.Data.(hir.AssignData); ok {
			collectTargetNames(a.Target, topLevel)
		}
	}
	var order []string
	seen := map[string]bool{}
	add := func(name string) {
		if name == "" || params[name] || topLevel[name] || seen[name] {
			return
		}
		seen[name] = true
		order = append(order, name)
	}
	var walkNested func(body []*hir.Stmt, nested bool)
	walkNested = func(body []*hir.Stmt, nested bool) {
		for _, s := range body {
			switch d := s.Data.(type) {
			case hir.AssignData:
				if nested {
					names := map[string]bool{}
					collectTargetNames(d.Target, names)
					for n := range names {
						add(n)
					}
				}
			case hir.IfData:
				walkNested(d.Then, true)
				walkNested(d.Else, true)
			case hir.WhileData:
				walkNested(d.Body, true)
			case hir.ForData:
				walkNested(d.Body, true)
			case hir.TryData:
				walkNested(d.Body, true)
				for _, h := range d.Handlers {
					walkNested(h.Body, true)
				}
				walkNested(d.Else, true)
				walkNested(d.Finally, true)
			case hir.WithData:
				walkNested(d.Body, true)
			}
		}
	}
	walkNested(f.Body, false)
	hir.WalkExprs(f.Body, func(e *hir.Expr) bool {
		if wd, ok := e.Data.(hir.WalrusData); ok {
			add(wd.Name)
		}
		return true
	})
	return order
}

func collectTargetNames(t *hir.AssignTarget, out map[string]bool) {
	if t == nil {
		return
	}
	switch t.Kind {
	case hir.TargetSymbol:
		out[t.Name] = true
	case hir.TargetTuple:
		for _, el := range t.Elems {
			collectTargetNames(el, out)
		}
	}
}
