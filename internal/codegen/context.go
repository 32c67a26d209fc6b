// Package codegen turns analyzed HIR into target Rust source text. The
// emitter is a recursive traversal over statement and expression nodes; all
// of its mutable state lives in one Context owned exclusively for the
// duration of a module emission.
package codegen

import (
	"strconv"
	"strings"

	"pylift/internal/borrow"
	"pylift/internal/diag"
	"pylift/internal/hir"
	"pylift/internal/source"
	"pylift/internal/typemap"
	"pylift/internal/types"
)

// Config is the emission configuration handed down by the driver.
type Config struct {
	// SingleShot asks for output compilable against the standard library
	// only; the sanitizer pass enforces it after emission.
	SingleShot bool
	// Strict surfaces translation-time faults (zero division in constant
	// context, unresolved types) as errors instead of warnings.
	Strict bool
}

// errorKind is the current function's error representation.
type errorKind uint8

const (
	// errDynBox is the type-erased Box<dyn std::error::Error>.
	errDynBox errorKind = iota
	// errConcrete is a single concrete error type.
	errConcrete
)

type errorType struct {
	kind errorKind
	name string // concrete name when kind == errConcrete
}

func (e errorType) render() string {
	if e.kind == errConcrete {
		return e.name
	}
	return "Box<dyn std::error::Error>"
}

// helperFlag marks a runtime helper function the module must carry.
type helperFlag uint8

const (
	helpFloorDiv helperFlag = iota
	helpIndex
	helpSlice
	helperCount
)

// Context is the emitter state. One Context serves one module emission.
type Context struct {
	mapper *typemap.Mapper
	reg    *borrow.Registry
	rep    diag.Reporter
	cfg    Config

	module *hir.Module

	scopes  *ScopeTracker
	imports importSet
	excs    exceptionStack
	helpers [helperCount]bool

	// Per-function state, reset when a function emission starts.
	fn       *hir.Func
	fnInfo   *borrow.FuncInfo
	fallible bool
	errType  errorType

	// selfName is the rendering of the source receiver: "self" inside
	// methods, the constructor's local binding inside __init__.
	selfName string
	// genMode is set while emitting a generator body; yields push into the
	// collection buffer and returns finish the iterator.
	genMode bool
	// genFields names the variables living in the generator state struct;
	// while set, reads and writes of them go through self.
	genFields map[string]bool
	// genReturn, when non-empty, is the text a return statement emits inside
	// a generator state machine.
	genReturn string
	// tryDepth counts enclosing try-lowering closures; returns inside them
	// surface through the closure's Ok(Some(..)) channel.
	tryDepth int
	// finallyBlocks are pending finally bodies, innermost last. Early exits
	// replay them before leaving.
	finallyBlocks [][]*hir.Stmt

	// Module-wide caches populated in a pre-pass.
	resultFuncs map[string]bool            // functions returning Result
	strParams   map[string]map[string]bool // function -> params declared str
	varargFuncs map[string]bool            // functions with a *args tail
	constRefs   map[string]string          // constant name -> rendered reference

	argparse *argparseTracker
	tmpCount int
}

// NewContext builds an emitter context over an analyzed module.
func NewContext(m *hir.Module, mapper *typemap.Mapper, reg *borrow.Registry, rep diag.Reporter, cfg Config) *Context {
	ctx := &Context{
		mapper:      mapper,
		reg:         reg,
		rep:         rep,
		cfg:         cfg,
		module:      m,
		scopes:      NewScopeTracker(),
		resultFuncs: make(map[string]bool),
		strParams:   make(map[string]map[string]bool),
		varargFuncs: make(map[string]bool),
		constRefs:   make(map[string]string),
		argparse:    newArgparseTracker(),
	}
	ctx.prepass()
	return ctx
}

// prepass fills the module-wide caches: which functions are fallible, which
// parameters are string slices, which functions take varargs.
func (ctx *Context) prepass() {
	scan := func(name string, f *hir.Func) {
		if fallibleBody(f.Body) {
			ctx.resultFuncs[name] = true
		}
		strs := make(map[string]bool)
		for _, p := range f.Params {
			if p.Type != nil && p.Type.StripFinal() != nil && p.Type.StripFinal().Kind == types.KindStr {
				strs[p.Name] = true
			}
			if p.Vararg {
				ctx.varargFuncs[name] = true
			}
		}
		if len(strs) > 0 {
			ctx.strParams[name] = strs
		}
	}
	for _, f := range ctx.module.Functions {
		scan(f.Name, f)
	}
	for _, c := range ctx.module.Classes {
		for _, meth := range c.Methods {
			scan(c.Name+"."+meth.Name, meth)
		}
	}
	for _, c := range ctx.module.Constants {
		ctx.constRefs[c.Name] = constRef(c)
	}
}

// constRef renders a reference to a module-level binding the way
// emitConstant declares it: scalar literals become SCREAMING_SNAKE consts,
// everything else an accessor call.
func constRef(c hir.Constant) string {
	if c.Value == nil {
		return strings.ToUpper(c.Name)
	}
	if lit, ok := c.Value.Data.(hir.LiteralData); ok {
		switch lit.Kind {
		case hir.LitInt, hir.LitFloat, hir.LitBool, hir.LitString:
			return strings.ToUpper(c.Name)
		}
	}
	return strings.ToLower(c.Name) + "()"
}

// fallibleBody reports whether the body contains a raise that escapes every
// enclosing try. Such functions return a Result.
func fallibleBody(body []*hir.Stmt) bool {
	return raisesEscaping(body, nil)
}

// raisesEscaping walks the body carrying the stack of enclosing handler
// sets. A raise escapes when no enclosing try accepts the raised type under
// the same erased dispatch the handler match performs.
func raisesEscaping(body []*hir.Stmt, tries [][]hir.Handler) bool {
	for _, s := range body {
		switch d := s.Data.(type) {
		case hir.RaiseData:
			if !caughtByEnclosing(raiseName(d), tries) {
				return true
			}
		case hir.IfData:
			if raisesEscaping(d.Then, tries) || raisesEscaping(d.Else, tries) {
				return true
			}
		case hir.WhileData:
			if raisesEscaping(d.Body, tries) {
				return true
			}
		case hir.ForData:
			if raisesEscaping(d.Body, tries) {
				return true
			}
		case hir.TryData:
			// Handlers and finally run outside the try's own fence.
			if raisesEscaping(d.Body, append(tries, d.Handlers)) {
				return true
			}
			for _, h := range d.Handlers {
				if raisesEscaping(h.Body, tries) {
					return true
				}
			}
			if raisesEscaping(d.Else, tries) || raisesEscaping(d.Finally, tries) {
				return true
			}
		case hir.WithData:
			if raisesEscaping(d.Body, tries) {
				return true
			}
		}
	}
	return false
}

// raiseName extracts the exception class name from a raise, or "" when the
// statement re-raises a bound value whose class is unknown.
func raiseName(d hir.RaiseData) string {
	if d.Exc == nil {
		return ""
	}
	switch e := d.Exc.Data.(type) {
	case hir.CallData:
		return e.Func
	case hir.VarData:
		return e.Name
	}
	return ""
}

func caughtByEnclosing(exc string, tries [][]hir.Handler) bool {
	for i := len(tries) - 1; i >= 0; i-- {
		for _, h := range tries[i] {
			if handlerAccepts(h, exc) {
				return true
			}
		}
	}
	return false
}

// handlerAccepts mirrors the emitted dispatch: a bare handler takes
// everything, a typed handler with no concrete target-side type erases to
// accept-all, and io-typed handlers take only the io family.
func handlerAccepts(h hir.Handler, exc string) bool {
	if h.Bare() || len(h.Types) == 0 {
		return true
	}
	for _, t := range h.Types {
		if isIOExceptionName(t) {
			return isIOExceptionName(exc)
		}
	}
	return true
}

// isIOExceptionName reports whether the source-level exception maps onto
// std::io::Error on the target side.
func isIOExceptionName(name string) bool {
	switch name {
	case "OSError", "IOError", "FileNotFoundError", "PermissionError":
		return true
	}
	return false
}

// errorTypeFor derives the function's error representation from the set of
// exception names it raises: one known concrete mapping keeps the concrete
// type, anything mixed or unknown erases to the boxed form.
func (ctx *Context) errorTypeFor(f *hir.Func) errorType {
	names := map[string]bool{}
	hir.WalkStmts(f.Body, func(s *hir.Stmt) bool {
		if rd, ok := s.Data.(hir.RaiseData); ok && rd.Exc != nil {
			if cd, ok := rd.Exc.Data.(hir.CallData); ok {
				names[cd.Func] = true
			} else if vd, ok := rd.Exc.Data.(hir.VarData); ok {
				names[vd.Name] = true
			}
		}
		return true
	})
	if len(names) != 1 {
		return errorType{kind: errDynBox}
	}
	for name := range names {
		if isIOExceptionName(name) {
			return errorType{kind: errConcrete, name: "std::io::Error"}
		}
	}
	return errorType{kind: errDynBox}
}

// processUnionType lowers a union through the shared enum generator and
// returns the rendered type name. Newly generated declarations accumulate
// in the mapper and are prepended by the module emitter.
func (ctx *Context) processUnionType(u *types.Type) string {
	return ctx.mapper.Map(u).Render()
}

// needHelper marks a runtime helper for inclusion in the module output.
func (ctx *Context) needHelper(h helperFlag) {
	ctx.helpers[h] = true
}

// freshTmp returns a unique scratch identifier.
func (ctx *Context) freshTmp(prefix string) string {
	ctx.tmpCount++
	if prefix == "" {
		prefix = "tmp"
	}
	return "__" + prefix + "_" + strconv.Itoa(ctx.tmpCount)
}

// unsupported reports an unsupported construct and returns a comment
// placeholder so surrounding emission stays balanced. Emission of the whole
// function is aborted separately by the caller when the construct is fatal.
func (ctx *Context) unsupported(what string, span source.Span) string {
	ctx.rep.Report(diag.GenUnsupportedConstruct, diag.SevError, span,
		"unsupported construct: "+what, nil)
	return "/* unsupported: " + what + " */"
}
