package optimize

import (
	"math"
	"testing"

	"pylift/internal/annotations"
	"pylift/internal/diag"
	"pylift/internal/hir"
)

func intLit(v int64) *hir.Expr {
	return &hir.Expr{Kind: hir.ExprLiteral, Data: hir.LiteralData{Kind: hir.LitInt, IntValue: v}}
}

func floatLit(v float64) *hir.Expr {
	return &hir.Expr{Kind: hir.ExprLiteral, Data: hir.LiteralData{Kind: hir.LitFloat, FloatValue: v}}
}

func binary(op hir.BinOp, left, right *hir.Expr) *hir.Expr {
	return &hir.Expr{Kind: hir.ExprBinary, Data: hir.BinaryData{Op: op, Left: left, Right: right}}
}

func retStmt(e *hir.Expr) *hir.Stmt {
	return &hir.Stmt{Kind: hir.StmtReturn, Data: hir.ReturnData{Value: e}}
}

func funcWith(level annotations.OptLevel, body ...*hir.Stmt) *hir.Func {
	return &hir.Func{
		Name:        "f",
		Body:        body,
		Annotations: annotations.Set{Opt: level},
	}
}

func TestNoneLevelLeavesBodyAlone(t *testing.T) {
	f := funcWith(annotations.OptNone, retStmt(binary(hir.OpAdd, intLit(2), intLit(3))))
	o := New(diag.NopReporter{}, false)
	o.Function(f)
	if len(o.Applied()) != 0 {
		t.Fatalf("applied = %v, want none", o.Applied())
	}
	if f.Body[0].Data.(hir.ReturnData).Value.Kind != hir.ExprBinary {
		t.Fatal("expression must not be folded at level none")
	}
}

func TestConstantFoldingInt(t *testing.T) {
	f := funcWith(annotations.OptConservative, retStmt(binary(hir.OpAdd, intLit(2), intLit(3))))
	New(diag.NopReporter{}, false).Function(f)
	v := f.Body[0].Data.(hir.ReturnData).Value
	lit, ok := v.Data.(hir.LiteralData)
	if !ok || lit.IntValue != 5 {
		t.Fatalf("folded = %+v", v.Data)
	}
}

func TestConstantFoldingNested(t *testing.T) {
	// (1 + 2) * 4
	f := funcWith(annotations.OptConservative,
		retStmt(binary(hir.OpMul, binary(hir.OpAdd, intLit(1), intLit(2)), intLit(4))))
	New(diag.NopReporter{}, false).Function(f)
	lit, ok := f.Body[0].Data.(hir.ReturnData).Value.Data.(hir.LiteralData)
	if !ok || lit.IntValue != 12 {
		t.Fatalf("folded = %+v", f.Body[0].Data.(hir.ReturnData).Value.Data)
	}
}

func TestConstantFoldingFloat(t *testing.T) {
	f := funcWith(annotations.OptConservative, retStmt(binary(hir.OpMul, floatLit(1.5), floatLit(2))))
	New(diag.NopReporter{}, false).Function(f)
	lit, ok := f.Body[0].Data.(hir.ReturnData).Value.Data.(hir.LiteralData)
	if !ok || lit.FloatValue != 3 {
		t.Fatalf("folded = %+v", f.Body[0].Data.(hir.ReturnData).Value.Data)
	}
}

func TestFoldingSkipsOverflow(t *testing.T) {
	f := funcWith(annotations.OptConservative,
		retStmt(binary(hir.OpAdd, intLit(math.MaxInt64), intLit(1))))
	New(diag.NopReporter{}, false).Function(f)
	if f.Body[0].Data.(hir.ReturnData).Value.Kind != hir.ExprBinary {
		t.Fatal("overflowing add must not fold")
	}
}

func TestFoldingSkipsDivision(t *testing.T) {
	// Division changes rounding semantics; never folded.
	f := funcWith(annotations.OptConservative, retStmt(binary(hir.OpDiv, intLit(7), intLit(2))))
	New(diag.NopReporter{}, false).Function(f)
	if f.Body[0].Data.(hir.ReturnData).Value.Kind != hir.ExprBinary {
		t.Fatal("division must not fold")
	}
}

func TestZeroDivisionStrict(t *testing.T) {
	bag := diag.NewBag(10)
	f := funcWith(annotations.OptConservative, retStmt(binary(hir.OpFloorDiv, intLit(1), intLit(0))))
	New(diag.BagReporter{Bag: bag}, true).Function(f)
	if !bag.HasErrors() {
		t.Fatal("strict mode must error on literal zero division")
	}

	bag = diag.NewBag(10)
	f = funcWith(annotations.OptConservative, retStmt(binary(hir.OpFloorDiv, intLit(1), intLit(0))))
	New(diag.BagReporter{Bag: bag}, false).Function(f)
	if bag.HasErrors() {
		t.Fatal("lenient mode must not error")
	}
	if !bag.HasWarnings() {
		t.Fatal("lenient mode must still warn")
	}
}

func TestDeadCodeAfterReturn(t *testing.T) {
	f := funcWith(annotations.OptConservative,
		retStmt(intLit(1)),
		&hir.Stmt{Kind: hir.StmtExpr, Data: hir.ExprStmtData{Expr: intLit(2)}},
		&hir.Stmt{Kind: hir.StmtExpr, Data: hir.ExprStmtData{Expr: intLit(3)}},
	)
	New(diag.NopReporter{}, false).Function(f)
	if len(f.Body) != 1 {
		t.Fatalf("body length = %d, want 1", len(f.Body))
	}
}

func TestDeadCodeNested(t *testing.T) {
	inner := []*hir.Stmt{
		retStmt(intLit(1)),
		retStmt(intLit(2)),
	}
	f := funcWith(annotations.OptConservative,
		&hir.Stmt{Kind: hir.StmtIf, Data: hir.IfData{
			Cond: intLit(1),
			Then: inner,
		}},
	)
	New(diag.NopReporter{}, false).Function(f)
	then := f.Body[0].Data.(hir.IfData).Then
	if len(then) != 1 {
		t.Fatalf("nested block length = %d, want 1", len(then))
	}
}

func TestStrengthReductionIsInert(t *testing.T) {
	// x * 8 stays a multiplication at every level.
	mul := binary(hir.OpMul, &hir.Expr{Kind: hir.ExprVar, Data: hir.VarData{Name: "x"}}, intLit(8))
	f := funcWith(annotations.OptStandard, retStmt(mul))
	o := New(diag.NopReporter{}, false)
	o.Function(f)
	if f.Body[0].Data.(hir.ReturnData).Value.Data.(hir.BinaryData).Op != hir.OpMul {
		t.Fatal("strength reduction must not rewrite")
	}
	found := false
	for _, name := range o.Applied() {
		if name == "strength_reduction" {
			found = true
		}
	}
	if !found {
		t.Fatal("strength_reduction must still be recorded")
	}
}

func TestLoopUnrolling(t *testing.T) {
	loop := &hir.Stmt{Kind: hir.StmtFor, Data: hir.ForData{
		Target: &hir.AssignTarget{Kind: hir.TargetSymbol, Name: "i"},
		Iter:   &hir.Expr{Kind: hir.ExprVar, Data: hir.VarData{Name: "xs"}},
		Body: []*hir.Stmt{
			{Kind: hir.StmtExpr, Data: hir.ExprStmtData{Expr: intLit(1)}},
		},
	}}
	f := funcWith(annotations.OptAggressive, loop)
	f.Annotations.UnrollFactor = 3
	f.Annotations.Hints = nil
	o := New(diag.NopReporter{}, false)
	o.Function(f)
	body := f.Body[0].Data.(hir.ForData).Body
	if len(body) != 3 {
		t.Fatalf("unrolled body length = %d, want 3", len(body))
	}
}

func TestAppliedListOrder(t *testing.T) {
	f := funcWith(annotations.OptConservative, retStmt(intLit(1)))
	o := New(diag.NopReporter{}, false)
	o.Function(f)
	want := []string{"constant_folding", "dead_code_elimination"}
	got := o.Applied()
	if len(got) != len(want) {
		t.Fatalf("applied = %v", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("applied[%d] = %s, want %s", i, got[i], want[i])
		}
	}
}
