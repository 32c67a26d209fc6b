package borrow

import (
	"pylift/internal/hir"
	"pylift/internal/types"
)

// TypeInfo supplies the type predicates the decision table consumes.
// *typemap.Mapper satisfies it.
type TypeInfo interface {
	IsCopyable(*types.Type) bool
	ShouldPassByRef(*types.Type) bool
}

// Usage records how a function's parameters are observed in its body.
// Sets only grow; the interprocedural fixpoint relies on that.
type Usage struct {
	params   map[string]bool
	Mutated  map[string]bool
	Escaping map[string]bool
	LoopUsed map[string]bool
}

// AnalyzeFunc runs the local, syntax-directed usage analysis. Methods are
// analyzed the same way; the receiver appears as an ordinary parameter.
func AnalyzeFunc(f *hir.Func) *Usage {
	u := &Usage{
		params:   make(map[string]bool, len(f.Params)),
		Mutated:  make(map[string]bool),
		Escaping: make(map[string]bool),
		LoopUsed: make(map[string]bool),
	}
	for _, p := range f.Params {
		u.params[p.Name] = true
	}
	u.analyzeBody(f.Body, false)
	return u
}

// IsParam reports whether name is a parameter of the analyzed function.
func (u *Usage) IsParam(name string) bool { return u.params[name] }

// MarkMutated records a mutation, reporting whether the set grew.
func (u *Usage) MarkMutated(name string) bool {
	if !u.params[name] || u.Mutated[name] {
		return false
	}
	u.Mutated[name] = true
	return true
}

// Pattern applies the decision table for one parameter. Rows are ordered;
// the first match wins.
func (u *Usage) Pattern(info TypeInfo, name string, ty *types.Type) Pattern {
	switch {
	case u.Escaping[name]:
		return Owned
	case u.Mutated[name]:
		return MutableBorrow
	case info.IsCopyable(ty):
		return Owned
	case u.LoopUsed[name] && info.ShouldPassByRef(ty):
		return Borrowed
	case info.ShouldPassByRef(ty):
		return Borrowed
	default:
		return Owned
	}
}

func (u *Usage) analyzeBody(body []*hir.Stmt, inLoop bool) {
	for _, s := range body {
		u.analyzeStmt(s, inLoop)
	}
}

func (u *Usage) analyzeStmt(s *hir.Stmt, inLoop bool) {
	switch d := s.Data.(type) {
	case hir.AssignData:
		if root := RootOfTarget(d.Target); u.params[root] {
			u.Mutated[root] = true
		}
		u.markEscapes(d.Value)
		u.analyzeExpr(d.Value, inLoop)
	case hir.ReturnData:
		u.markEscapes(d.Value)
		u.analyzeExpr(d.Value, inLoop)
	case hir.IfData:
		u.analyzeExpr(d.Cond, inLoop)
		u.analyzeBody(d.Then, inLoop)
		u.analyzeBody(d.Else, inLoop)
	case hir.WhileData:
		u.analyzeExpr(d.Cond, inLoop)
		u.analyzeBody(d.Body, true)
	case hir.ForData:
		u.analyzeExpr(d.Iter, inLoop)
		u.analyzeBody(d.Body, true)
	case hir.ExprStmtData:
		u.analyzeExpr(d.Expr, inLoop)
	case hir.RaiseData:
		u.analyzeExpr(d.Exc, inLoop)
		u.analyzeExpr(d.From, inLoop)
	case hir.TryData:
		u.analyzeBody(d.Body, inLoop)
		for _, h := range d.Handlers {
			u.analyzeBody(h.Body, inLoop)
		}
		u.analyzeBody(d.Else, inLoop)
		u.analyzeBody(d.Finally, inLoop)
	case hir.WithData:
		for _, it := range d.Items {
			u.analyzeExpr(it.Ctx, inLoop)
		}
		u.analyzeBody(d.Body, inLoop)
	case hir.AssertData:
		u.analyzeExpr(d.Cond, inLoop)
		u.analyzeExpr(d.Msg, inLoop)
	case hir.DeleteData:
		// del param[i] shrinks the collection in place.
		for _, t := range d.Targets {
			if root := RootVar(t); u.params[root] {
				u.Mutated[root] = true
			}
			u.analyzeExpr(t, inLoop)
		}
	}
}

func (u *Usage) analyzeExpr(e *hir.Expr, inLoop bool) {
	if e == nil {
		return
	}
	hir.WalkExpr(e, func(x *hir.Expr) bool {
		switch d := x.Data.(type) {
		case hir.VarData:
			if inLoop && u.params[d.Name] {
				u.LoopUsed[d.Name] = true
			}
		case hir.MethodCallData:
			if IsMutatingMethod(d.Method) {
				if root := RootVar(d.Object); u.params[root] {
					u.Mutated[root] = true
				}
			}
		}
		return true
	})
}

// markEscapes records parameters whose value outlives the call: a bare
// parameter returned or stored, or a parameter placed in a returned or
// stored collection.
func (u *Usage) markEscapes(e *hir.Expr) {
	if e == nil {
		return
	}
	switch d := e.Data.(type) {
	case hir.VarData:
		if u.params[d.Name] {
			u.Escaping[d.Name] = true
		}
	case hir.ListData:
		u.markElemEscapes(d.Elems)
	case hir.TupleData:
		u.markElemEscapes(d.Elems)
	case hir.SetData:
		u.markElemEscapes(d.Elems)
	}
}

func (u *Usage) markElemEscapes(elems []*hir.Expr) {
	for _, el := range elems {
		if v, ok := el.Data.(hir.VarData); ok && u.params[v.Name] {
			u.Escaping[v.Name] = true
		}
	}
}
