package codegen

import (
	"strconv"
	"strings"

	"pylift/internal/hir"
	"pylift/internal/types"
)

// Generator functions lower to an explicit state machine: a struct holding
// the resume point plus the locals that live across yields, a constructor
// with the function's name, and an Iterator impl whose next method matches
// on the current state. Two body shapes get a direct translation (straight
// top-level yields, and a single while loop around one yield); everything
// else falls back to filling a buffer on first resume and draining it.

// genShape classifies a generator body for state-machine construction.
type genShape uint8

const (
	shapeSequential genShape = iota
	shapeWhileLoop
	shapeBuffered
)

// stateField is one struct field of the generator state.
type stateField struct {
	name string
	ty   string
	init string
}

func (ctx *Context) emitGeneratorFunc(w *Writer, f *hir.Func) {
	itemTy := ctx.generatorItemType(f)
	structName := generatorStructName(f.Name)
	shape := classifyGenerator(f)

	params := ctx.generatorParamFields(f)
	state := ctx.generatorStateFields(f, params)

	w.Linef("#[derive(Debug)]")
	w.Writef("struct %s", structName)
	w.OpenBlock()
	w.Line("state: usize,")
	if shape == shapeBuffered {
		w.Linef("buf: Vec<%s>,", itemTy)
	}
	for _, fld := range params {
		w.Linef("%s: %s,", rustIdent(fld.name), fld.ty)
	}
	for _, fld := range state {
		w.Linef("%s: %s,", rustIdent(fld.name), fld.ty)
	}
	w.CloseBlock()
	w.BlankLine()

	if f.Docstring != "" {
		for _, line := range strings.Split(strings.TrimRight(f.Docstring, "\n"), "\n") {
			w.Line("/// " + strings.TrimRight(line, " "))
		}
	}
	w.Writef("pub fn %s(%s) -> impl Iterator<Item = %s>",
		rustIdent(f.Name), ctx.renderGeneratorParams(params), itemTy)
	w.OpenBlock()
	w.Writef("%s", structName)
	w.OpenBlock()
	w.Line("state: 0,")
	if shape == shapeBuffered {
		w.Line("buf: Vec::new(),")
	}
	for _, fld := range params {
		w.Linef("%s,", rustIdent(fld.name))
	}
	for _, fld := range state {
		w.Linef("%s: %s,", rustIdent(fld.name), fld.init)
	}
	w.CloseBlock()
	w.CloseBlock()
	w.BlankLine()

	w.Writef("impl Iterator for %s", structName)
	w.OpenBlock()
	w.Linef("type Item = %s;", itemTy)
	w.BlankLine()
	w.WriteString("fn next(&mut self) -> Option<Self::Item>")
	w.OpenBlock()

	fields := make(map[string]bool, len(params)+len(state))
	for _, fld := range params {
		fields[fld.name] = true
	}
	for _, fld := range state {
		fields[fld.name] = true
	}
	ctx.genFields = fields
	ctx.scopes = NewScopeTracker()

	switch shape {
	case shapeSequential:
		ctx.emitSequentialStates(w, f)
	case shapeWhileLoop:
		ctx.emitWhileLoopStates(w, f)
	default:
		ctx.emitBufferedStates(w, f)
	}

	ctx.genFields = nil
	ctx.genReturn = ""

	w.CloseBlock()
	w.CloseBlock()
}

// emitSequentialStates handles bodies whose yields all sit directly at the
// top level. Each state runs the statements since the previous yield and
// returns the next value; the terminal states run trailing code once and
// then stay exhausted.
func (ctx *Context) emitSequentialStates(w *Writer, f *hir.Func) {
	type segment struct {
		stmts []*hir.Stmt
		yield *hir.Expr
	}
	var segs []segment
	var cur []*hir.Stmt
	for _, s := range f.Body {
		if y := topLevelYield(s); y != nil {
			segs = append(segs, segment{stmts: cur, yield: y.Value})
			cur = nil
			continue
		}
		cur = append(cur, s)
	}
	trailing := cur
	terminal := len(segs) + 1
	ctx.genReturn = stateReturn(terminal)

	w.WriteString("match self.state")
	w.OpenBlock()
	for i, seg := range segs {
		w.Writef("%d =>", i)
		w.OpenBlock()
		ctx.emitBlock(w, seg.stmts)
		w.Linef("self.state = %d;", i+1)
		w.Linef("Some(%s)", ctx.emitYieldValue(seg.yield))
		w.CloseBlock()
	}
	if len(trailing) > 0 {
		w.Writef("%d =>", len(segs))
		w.OpenBlock()
		ctx.emitBlock(w, trailing)
		w.Linef("self.state = %d;", terminal)
		w.Line("None")
		w.CloseBlock()
	}
	w.Line("_ => None,")
	w.CloseBlock()
}

// emitWhileLoopStates handles the init-loop-yield shape: state 0 runs the
// statements before the loop, state 1 re-checks the condition on every
// resume and produces one value per pass over the loop body.
func (ctx *Context) emitWhileLoopStates(w *Writer, f *hir.Func) {
	pre, loop, post := splitAtWhile(f.Body)
	before, yield, after := splitLoopBody(loop.Body)
	ctx.genReturn = stateReturn(2)

	w.WriteString("match self.state")
	w.OpenBlock()

	w.WriteString("0 =>")
	w.OpenBlock()
	ctx.emitBlock(w, pre)
	w.Line("self.state = 1;")
	w.Line("self.next()")
	w.CloseBlock()

	w.WriteString("1 =>")
	w.OpenBlock()
	w.Writef("if %s", ctx.emitCondition(loop.Cond))
	w.OpenBlock()
	ctx.emitBlock(w, before)
	w.Linef("let __v = %s;", ctx.emitYieldValue(yield.Value))
	ctx.emitBlock(w, after)
	w.Line("return Some(__v);")
	w.CloseBlock()
	ctx.emitBlock(w, post)
	w.Line("self.state = 2;")
	w.Line("None")
	w.CloseBlock()

	w.Line("_ => None,")
	w.CloseBlock()
}

// emitBufferedStates is the fallback for control flow the direct shapes do
// not cover: the first resume runs the whole body, collecting every yielded
// value, and later resumes drain the buffer.
func (ctx *Context) emitBufferedStates(w *Writer, f *hir.Func) {
	hasReturn := false
	hir.WalkStmts(f.Body, func(s *hir.Stmt) bool {
		if s.Kind == hir.StmtReturn {
			hasReturn = true
		}
		return true
	})

	w.WriteString("if self.state == 0")
	w.OpenBlock()
	w.Line("self.state = 1;")
	w.Line("let mut __items = Vec::new();")
	if hasReturn {
		w.WriteString("'body:")
		w.OpenBlock()
		ctx.genReturn = "break 'body;"
	} else {
		w.OpenBlockBare()
	}
	ctx.genMode = true
	ctx.emitBlock(w, f.Body)
	ctx.genMode = false
	ctx.genReturn = ""
	w.CloseBlock()
	w.Line("self.buf = __items;")
	w.CloseBlock()
	w.WriteString("if !self.buf.is_empty()")
	w.OpenBlock()
	w.Line("return Some(self.buf.remove(0));")
	w.CloseBlock()
	w.Line("None")
}

// emitYield emits one yield inside a buffered generator body.
func (ctx *Context) emitYield(w *Writer, y hir.YieldData) {
	if y.Value == nil {
		w.Line("__items.push(Default::default());")
		return
	}
	w.Linef("__items.push(%s);", ctx.emitExpr(y.Value))
}

func (ctx *Context) emitYieldValue(value *hir.Expr) string {
	if value == nil {
		return "Default::default()"
	}
	return ctx.emitExpr(value)
}

func stateReturn(terminal int) string {
	return "{ self.state = " + strconv.Itoa(terminal) + "; return None; }"
}

// classifyGenerator picks the translation shape for a generator body.
func classifyGenerator(f *hir.Func) genShape {
	total := countYields(f.Body)
	topLevel := 0
	for _, s := range f.Body {
		if topLevelYield(s) != nil {
			topLevel++
		}
	}
	if topLevel == total && total > 0 && flatBetweenYields(f.Body) {
		return shapeSequential
	}
	if total == 1 && isSimpleWhileShape(f.Body) {
		return shapeWhileLoop
	}
	return shapeBuffered
}

// flatBetweenYields rejects bodies whose inter-yield statements carry
// control flow that cannot run inside a single match arm.
func flatBetweenYields(body []*hir.Stmt) bool {
	for _, s := range body {
		switch s.Kind {
		case hir.StmtTry, hir.StmtWith, hir.StmtBreak, hir.StmtContinue:
			return false
		}
	}
	return true
}

// isSimpleWhileShape matches pre-statements, one while loop with a single
// top-level yield and otherwise simple body, then trailing statements.
func isSimpleWhileShape(body []*hir.Stmt) bool {
	pre, loop, post := splitAtWhile(body)
	if loop == nil {
		return false
	}
	for _, s := range append(append([]*hir.Stmt{}, pre...), post...) {
		switch s.Kind {
		case hir.StmtAssign, hir.StmtExpr, hir.StmtPass:
		default:
			return false
		}
		if countYields([]*hir.Stmt{s}) > 0 {
			return false
		}
	}
	yields := 0
	for _, s := range loop.Body {
		switch s.Kind {
		case hir.StmtAssign, hir.StmtExpr, hir.StmtPass:
		default:
			return false
		}
		if topLevelYield(s) != nil {
			yields++
		} else if countYields([]*hir.Stmt{s}) > 0 {
			return false
		}
	}
	return yields == 1
}

func splitAtWhile(body []*hir.Stmt) (pre []*hir.Stmt, loop *hir.WhileData, post []*hir.Stmt) {
	for i, s := range body {
		if d, ok := s.Data.(hir.WhileData); ok {
			cp := d
			return body[:i], &cp, body[i+1:]
		}
	}
	return body, nil, nil
}

func splitLoopBody(body []*hir.Stmt) (before []*hir.Stmt, yield hir.YieldData, after []*hir.Stmt) {
	for i, s := range body {
		if y := topLevelYield(s); y != nil {
			return body[:i], *y, body[i+1:]
		}
	}
	return body, hir.YieldData{}, nil
}

// topLevelYield returns the yield payload when the statement is a bare
// yield expression statement.
func topLevelYield(s *hir.Stmt) *hir.YieldData {
	d, ok := s.Data.(hir.ExprStmtData)
	if !ok {
		return nil
	}
	y, ok := d.Expr.Data.(hir.YieldData)
	if !ok {
		return nil
	}
	return &y
}

func countYields(body []*hir.Stmt) int {
	n := 0
	hir.WalkExprs(body, func(e *hir.Expr) bool {
		if e.Kind == hir.ExprYield {
			n++
		}
		return true
	})
	return n
}

// generatorItemType resolves the Iterator item type from the declared
// return type, or from the first yielded value when the return is untyped.
func (ctx *Context) generatorItemType(f *hir.Func) string {
	if f.Ret != nil {
		if t := f.Ret.StripFinal(); t != nil && t.Kind == types.KindGeneric && len(t.Elems) > 0 {
			switch t.Name {
			case "Generator", "Iterator", "Iterable":
				return ctx.mapper.Map(t.Elems[0]).Render()
			}
		}
	}
	item := ""
	hir.WalkExprs(f.Body, func(e *hir.Expr) bool {
		if item != "" {
			return false
		}
		if y, ok := e.Data.(hir.YieldData); ok && y.Value != nil {
			if lit, ok := y.Value.Data.(hir.LiteralData); ok {
				switch lit.Kind {
				case hir.LitInt:
					item = "i64"
				case hir.LitFloat:
					item = "f64"
				case hir.LitBool:
					item = "bool"
				case hir.LitString:
					item = "String"
				}
			} else if t := ctx.typeOf(y.Value); t != nil {
				item = ctx.mapper.Map(t).Render()
			}
		}
		return true
	})
	if item == "" {
		item = "PyValue"
	}
	return item
}

// generatorParamFields captures every parameter into the state struct. The
// constructor takes parameters by value so the struct owns them outright.
func (ctx *Context) generatorParamFields(f *hir.Func) []stateField {
	fields := make([]stateField, 0, len(f.Params))
	for _, p := range f.Params {
		ty := ctx.generatorParamType(p)
		fields = append(fields, stateField{name: p.Name, ty: ty, init: rustIdent(p.Name)})
	}
	return fields
}

func (ctx *Context) generatorParamType(p hir.Param) string {
	if p.Vararg {
		elem := "PyValue"
		if p.Type != nil && p.Type.StripFinal() != nil {
			if t := p.Type.StripFinal(); t.Kind == types.KindList && t.Elem != nil {
				elem = ctx.mapper.Map(t.Elem).Render()
			}
		}
		return "Vec<" + elem + ">"
	}
	ty := ctx.mapper.Map(p.Type).Render()
	ctx.imports.markTypeImports(ty)
	return ty
}

func (ctx *Context) renderGeneratorParams(params []stateField) string {
	parts := make([]string, len(params))
	for i, fld := range params {
		parts[i] = rustIdent(fld.name) + ": " + fld.ty
	}
	return strings.Join(parts, ", ")
}

// generatorStateFields lists the locals assigned anywhere in the body.
// They become struct fields so assignments survive across resumes.
func (ctx *Context) generatorStateFields(f *hir.Func, params []stateField) []stateField {
	skip := make(map[string]bool, len(params))
	for _, p := range params {
		skip[p.name] = true
	}
	var order []string
	byName := map[string]*hir.Expr{}
	anns := map[string]*types.Type{}
	seen := map[string]bool{}
	var record func(t *hir.AssignTarget, value *hir.Expr, ann *types.Type)
	record = func(t *hir.AssignTarget, value *hir.Expr, ann *types.Type) {
		if t == nil {
			return
		}
		switch t.Kind {
		case hir.TargetSymbol:
			if skip[t.Name] || seen[t.Name] {
				return
			}
			seen[t.Name] = true
			order = append(order, t.Name)
			byName[t.Name] = value
			anns[t.Name] = ann
		case hir.TargetTuple:
			for _, el := range t.Elems {
				record(el, nil, nil)
			}
		}
	}
	hir.WalkStmts(f.Body, func(s *hir.Stmt) bool {
		// For-loop targets stay local to their arm; only assignments
		// produce values that must survive a resume.
		if a, ok := s.Data.(hir.AssignData); ok {
			record(a.Target, a.Value, a.Ann)
		}
		return true
	})
	hir.WalkExprs(f.Body, func(e *hir.Expr) bool {
		if wd, ok := e.Data.(hir.WalrusData); ok {
			record(&hir.AssignTarget{Kind: hir.TargetSymbol, Name: wd.Name}, wd.Value, nil)
		}
		return true
	})

	fields := make([]stateField, 0, len(order))
	for _, name := range order {
		ty, init := ctx.stateFieldType(anns[name], byName[name])
		fields = append(fields, stateField{name: name, ty: ty, init: init})
	}
	return fields
}

// stateFieldType infers a field's type from the annotation or the first
// assigned value; counters without any type evidence default to i64.
func (ctx *Context) stateFieldType(ann *types.Type, value *hir.Expr) (ty, init string) {
	if ann != nil {
		rendered := ctx.mapper.Map(ann).Render()
		ctx.imports.markTypeImports(rendered)
		return rendered, defaultInitFor(rendered)
	}
	if value != nil {
		if lit, ok := value.Data.(hir.LiteralData); ok {
			switch lit.Kind {
			case hir.LitInt:
				return "i64", "0"
			case hir.LitFloat:
				return "f64", "0.0"
			case hir.LitBool:
				return "bool", "false"
			case hir.LitString:
				return "String", "String::new()"
			}
		}
		if t := ctx.typeOf(value); t != nil {
			rendered := ctx.mapper.Map(t).Render()
			ctx.imports.markTypeImports(rendered)
			return rendered, defaultInitFor(rendered)
		}
	}
	return "i64", "0"
}

func defaultInitFor(ty string) string {
	switch ty {
	case "i64", "u64", "i32", "usize":
		return "0"
	case "f64", "f32":
		return "0.0"
	case "bool":
		return "false"
	case "String":
		return "String::new()"
	default:
		return "Default::default()"
	}
}

// generatorStructName turns a snake_case function name into the PascalCase
// state struct name.
func generatorStructName(name string) string {
	var b strings.Builder
	for _, word := range strings.Split(name, "_") {
		if word == "" {
			continue
		}
		b.WriteString(strings.ToUpper(word[:1]))
		b.WriteString(word[1:])
	}
	b.WriteString("State")
	return b.String()
}
