package codegen

import (
	"strings"

	"pylift/internal/borrow"
	"pylift/internal/hir"
	"pylift/internal/types"
)

// emitClass emits a class as a struct plus an impl block. Instance fields
// come from declared annotations merged with attributes the constructor
// assigns; class-level constants become associated consts.
func (ctx *Context) emitClass(w *Writer, c *hir.Class) {
	if c.Docstring != "" {
		for _, line := range strings.Split(strings.TrimRight(c.Docstring, "\n"), "\n") {
			w.Line("/// " + strings.TrimRight(line, " "))
		}
	}
	fields := ctx.classFields(c)
	generics := renderGenerics(c.TypeParams)

	w.Line("#[derive(Debug, Clone, Default)]")
	w.Writef("pub struct %s%s", rustIdent(c.Name), generics)
	w.OpenBlock()
	for _, f := range fields {
		ty := ctx.mapper.Map(f.Type).Render()
		ctx.imports.markTypeImports(ty)
		w.Linef("pub %s: %s,", rustIdent(f.Name), ty)
	}
	w.CloseBlock()
	w.BlankLine()

	w.Writef("impl%s %s%s", generics, rustIdent(c.Name), generics)
	w.OpenBlock()
	for _, f := range c.Fields {
		if !f.IsClassVar {
			continue
		}
		ty := ctx.mapper.Map(f.Type).Render()
		value := "Default::default()"
		if f.Default != nil {
			value = ctx.emitExpr(f.Default)
		}
		w.Linef("pub const %s: %s = %s;", strings.ToUpper(f.Name), ty, value)
	}
	ctx.emitConstructor(w, c, fields)
	for i, m := range c.Methods {
		if m.Name == "__init__" {
			continue
		}
		if i > 0 || c.Constructor() != nil {
			w.BlankLine()
		}
		ctx.emitMethod(w, c, m)
	}
	w.CloseBlock()
}

// emitConstructor lowers __init__ to an associated new. The receiver is a
// defaulted local that the translated body fills in; dataclasses without an
// explicit __init__ get a field-for-field constructor.
func (ctx *Context) emitConstructor(w *Writer, c *hir.Class, fields []hir.Field) {
	init := c.Constructor()
	if init == nil {
		if !c.IsDataclass {
			return
		}
		var params, inits []string
		for _, f := range fields {
			ty := ctx.mapper.Map(f.Type).Render()
			params = append(params, rustIdent(f.Name)+": "+ty)
			inits = append(inits, rustIdent(f.Name))
		}
		w.Writef("pub fn new(%s) -> Self", strings.Join(params, ", "))
		w.OpenBlock()
		w.Linef("Self { %s }", strings.Join(inits, ", "))
		w.CloseBlock()
		return
	}

	key := c.Name + ".__init__"
	ctx.fn = init
	ctx.fnInfo = ctx.reg.Lookup(key)
	ctx.fallible = false
	ctx.genMode = false
	ctx.scopes = NewScopeTracker()
	ctx.selfName = "self_"
	defer func() { ctx.selfName = "" }()

	var params []string
	strs := ctx.strParams[key]
	for i, p := range init.Params {
		if i == 0 && p.Name == "self" {
			continue
		}
		params = append(params, ctx.renderParam(p, ctx.paramPattern(p.Name), strs[p.Name]))
	}
	w.Writef("pub fn new(%s) -> Self", strings.Join(params, ", "))
	w.OpenBlock()
	w.Line("let mut self_ = Self::default();")
	ctx.scopes.Declare("self")
	ctx.emitBlock(w, init.Body)
	w.Line("self_")
	w.CloseBlock()
	ctx.fn = nil
	ctx.fnInfo = nil
}

func (ctx *Context) emitMethod(w *Writer, c *hir.Class, m *hir.Func) {
	key := c.Name + "." + m.Name
	selfDecl := "&self"
	if info := ctx.reg.Lookup(key); info != nil {
		switch info.ParamPattern("self") {
		case borrow.MutableBorrow:
			selfDecl = "&mut self"
		case borrow.Owned:
			selfDecl = "self"
		}
	}
	ctx.selfName = "self"
	ctx.emitFunc(w, key, m, selfDecl)
	ctx.selfName = ""
}

// classFields merges declared instance fields with attributes assigned on
// the receiver in __init__, declaration order first.
func (ctx *Context) classFields(c *hir.Class) []hir.Field {
	var fields []hir.Field
	seen := map[string]bool{}
	for _, f := range c.Fields {
		if f.IsClassVar {
			continue
		}
		fields = append(fields, f)
		seen[f.Name] = true
	}
	init := c.Constructor()
	if init == nil {
		return fields
	}
	hir.WalkStmts(init.Body, func(s *hir.Stmt) bool {
		a, ok := s.Data.(hir.AssignData)
		if !ok || a.Target.Kind != hir.TargetAttribute {
			return true
		}
		obj, ok := a.Target.Object.Data.(hir.VarData)
		if !ok || obj.Name != "self" || seen[a.Target.Attr] {
			return true
		}
		seen[a.Target.Attr] = true
		ty := a.Ann
		if ty == nil {
			ty = inferFieldType(init, a.Value)
		}
		fields = append(fields, hir.Field{Name: a.Target.Attr, Type: ty})
		return true
	})
	return fields
}

// inferFieldType guesses a field's type from its initializer: the
// expression's own annotation, a parameter's declared type, or a literal's
// shape. Unknown stays unknown and maps to the fallback value type.
func inferFieldType(init *hir.Func, value *hir.Expr) *types.Type {
	if value == nil {
		return types.Unknown()
	}
	if value.Type != nil && value.Type.Kind != types.KindUnknown {
		return value.Type
	}
	switch d := value.Data.(type) {
	case hir.VarData:
		if i := init.ParamIndex(d.Name); i >= 0 && init.Params[i].Type != nil {
			return init.Params[i].Type
		}
	case hir.LiteralData:
		switch d.Kind {
		case hir.LitInt:
			return types.Int()
		case hir.LitFloat:
			return types.Float()
		case hir.LitBool:
			return types.Bool()
		case hir.LitString:
			return types.Str()
		case hir.LitNone:
			return types.Optional(types.Unknown())
		}
	case hir.ListData:
		return types.List(types.Unknown())
	case hir.DictData:
		return types.Dict(types.Unknown(), types.Unknown())
	case hir.SetData:
		return types.Set(types.Unknown())
	}
	return types.Unknown()
}

func renderGenerics(params []string) string {
	if len(params) == 0 {
		return ""
	}
	return "<" + strings.Join(params, ", ") + ">"
}
