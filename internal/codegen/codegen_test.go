package codegen

import (
	"strings"
	"testing"

	"pylift/internal/borrow"
	"pylift/internal/diag"
	"pylift/internal/hir"
	"pylift/internal/typemap"
	"pylift/internal/types"
)

func variable(name string, ty *types.Type) *hir.Expr {
	return &hir.Expr{Kind: hir.ExprVar, Type: ty, Data: hir.VarData{Name: name}}
}

func intLit(v int64) *hir.Expr {
	return &hir.Expr{Kind: hir.ExprLiteral, Data: hir.LiteralData{Kind: hir.LitInt, IntValue: v}}
}

func strLit(s string) *hir.Expr {
	return &hir.Expr{Kind: hir.ExprLiteral, Data: hir.LiteralData{Kind: hir.LitString, StringValue: s}}
}

func boolLit(b bool) *hir.Expr {
	return &hir.Expr{Kind: hir.ExprLiteral, Data: hir.LiteralData{Kind: hir.LitBool, BoolValue: b}}
}

func ret(e *hir.Expr) *hir.Stmt {
	return &hir.Stmt{Kind: hir.StmtReturn, Data: hir.ReturnData{Value: e}}
}

func exprStmt(e *hir.Expr) *hir.Stmt {
	return &hir.Stmt{Kind: hir.StmtExpr, Data: hir.ExprStmtData{Expr: e}}
}

func methodCall(obj *hir.Expr, method string, args ...*hir.Expr) *hir.Expr {
	return &hir.Expr{Kind: hir.ExprMethodCall, Data: hir.MethodCallData{Object: obj, Method: method, Args: args}}
}

func call(fn string, args ...*hir.Expr) *hir.Expr {
	return &hir.Expr{Kind: hir.ExprCall, Data: hir.CallData{Func: fn, Args: args}}
}

func fnDef(name string, params []hir.Param, ret *types.Type, body ...*hir.Stmt) *hir.Func {
	return &hir.Func{Name: name, Params: params, Ret: ret, Body: body}
}

func mod(fns ...*hir.Func) *hir.Module {
	return &hir.Module{Name: "m", Functions: fns}
}

func emitText(t *testing.T, m *hir.Module, cfg Config) string {
	t.Helper()
	mapper := typemap.New()
	reg := borrow.AnalyzeModule(m, mapper, diag.NopReporter{})
	return Emit(m, mapper, reg, diag.NopReporter{}, cfg)
}

func wantContains(t *testing.T, text, sub string) {
	t.Helper()
	if !strings.Contains(text, sub) {
		t.Fatalf("output missing %q:\n%s", sub, text)
	}
}

func wantAbsent(t *testing.T, text, sub string) {
	t.Helper()
	if strings.Contains(text, sub) {
		t.Fatalf("output should not contain %q:\n%s", sub, text)
	}
}

func TestReadOnlyStringParamIsStrSlice(t *testing.T) {
	f := fnDef("greet",
		[]hir.Param{{Name: "name", Type: types.Str()}}, nil,
		exprStmt(call("print", variable("name", types.Str()))),
	)
	out := emitText(t, mod(f), Config{})
	wantContains(t, out, "pub fn greet(name: &str)")
}

func TestReturnedStringParamTakesOwnership(t *testing.T) {
	keep := fnDef("keep",
		[]hir.Param{{Name: "s", Type: types.Str()}}, types.Str(),
		ret(variable("s", types.Str())),
	)
	wrap := fnDef("wrap", nil, types.Str(),
		ret(call("keep", strLit("x"))),
	)
	out := emitText(t, mod(keep, wrap), Config{})
	wantContains(t, out, "pub fn keep(s: String)")
	wantContains(t, out, `keep("x".to_string())`)
}

func TestMutatedListParamIsMutBorrow(t *testing.T) {
	f := fnDef("push_item",
		[]hir.Param{
			{Name: "items", Type: types.List(types.Int())},
			{Name: "x", Type: types.Int()},
		}, nil,
		exprStmt(methodCall(variable("items", types.List(types.Int())), "append", variable("x", types.Int()))),
	)
	out := emitText(t, mod(f), Config{})
	wantContains(t, out, "items: &mut Vec<i64>")
	wantContains(t, out, "items.push(x);")
}

func TestChainedComparePairwise(t *testing.T) {
	cmp := &hir.Expr{Kind: hir.ExprCompare, Data: hir.CompareData{
		Ops: []hir.CmpOp{hir.CmpLt, hir.CmpLtEq},
		Operands: []*hir.Expr{
			variable("a", types.Int()), variable("b", types.Int()), variable("c", types.Int()),
		},
	}}
	f := fnDef("ordered",
		[]hir.Param{
			{Name: "a", Type: types.Int()},
			{Name: "b", Type: types.Int()},
			{Name: "c", Type: types.Int()},
		}, types.Bool(),
		ret(cmp),
	)
	out := emitText(t, mod(f), Config{})
	wantContains(t, out, "a < b && b <= c")
}

func TestFloorDivisionUsesHelper(t *testing.T) {
	div := &hir.Expr{Kind: hir.ExprBinary, Data: hir.BinaryData{
		Op:    hir.OpFloorDiv,
		Left:  variable("a", types.Int()),
		Right: variable("b", types.Int()),
	}}
	f := fnDef("halve",
		[]hir.Param{{Name: "a", Type: types.Int()}, {Name: "b", Type: types.Int()}},
		types.Int(),
		ret(div),
	)
	out := emitText(t, mod(f), Config{})
	wantContains(t, out, "py_floordiv(a, b)")
	wantContains(t, out, "fn py_floordiv(a: i64, b: i64) -> i64")
}

func TestCaughtRaiseStaysLocal(t *testing.T) {
	raise := &hir.Stmt{Kind: hir.StmtRaise, Data: hir.RaiseData{Exc: call("ValueError", strLit("bad"))}}
	try := &hir.Stmt{Kind: hir.StmtTry, Data: hir.TryData{
		Body:     []*hir.Stmt{raise},
		Handlers: []hir.Handler{{Body: []*hir.Stmt{ret(intLit(-1))}}},
	}}
	f := fnDef("parse_or", nil, types.Int(), try, ret(intLit(0)))
	out := emitText(t, mod(f), Config{})
	wantContains(t, out, "-> i64")
	wantAbsent(t, out, "-> Result")
	wantContains(t, out, "Err(__exc)")
	wantContains(t, out, "Ok(None)")
}

func TestRaisePastNarrowHandlerPropagates(t *testing.T) {
	raise := &hir.Stmt{Kind: hir.StmtRaise, Data: hir.RaiseData{Exc: call("ValueError", strLit("boom"))}}
	try := &hir.Stmt{Kind: hir.StmtTry, Data: hir.TryData{
		Body: []*hir.Stmt{raise},
		Handlers: []hir.Handler{{
			Types: []string{"OSError"},
			Body:  []*hir.Stmt{{Kind: hir.StmtPass, Data: hir.PassData{}}},
		}},
	}}
	f := fnDef("strict", nil, nil, try)
	out := emitText(t, mod(f), Config{})
	wantContains(t, out, "-> Result<(), Box<dyn std::error::Error>>")
	wantContains(t, out, "if __exc.downcast_ref::<std::io::Error>().is_some()")
	wantContains(t, out, "return Err(__exc);")
}

func TestEscapingRaiseMakesResult(t *testing.T) {
	raise := &hir.Stmt{Kind: hir.StmtRaise, Data: hir.RaiseData{Exc: call("OSError", strLit("gone"))}}
	f := fnDef("touch", []hir.Param{{Name: "path", Type: types.Str()}}, nil, raise)
	out := emitText(t, mod(f), Config{})
	wantContains(t, out, "-> Result<(), std::io::Error>")
	wantContains(t, out, "return Err(std::io::Error::new(")
}

func TestMixedRaisesEraseToBoxedError(t *testing.T) {
	r1 := &hir.Stmt{Kind: hir.StmtRaise, Data: hir.RaiseData{Exc: call("ValueError", strLit("v"))}}
	cond := &hir.Stmt{Kind: hir.StmtIf, Data: hir.IfData{
		Cond: variable("flag", types.Bool()),
		Then: []*hir.Stmt{r1},
	}}
	r2 := &hir.Stmt{Kind: hir.StmtRaise, Data: hir.RaiseData{Exc: call("OSError", strLit("o"))}}
	f := fnDef("fail", []hir.Param{{Name: "flag", Type: types.Bool()}}, nil, cond, r2)
	out := emitText(t, mod(f), Config{})
	wantContains(t, out, "Result<(), Box<dyn std::error::Error>>")
}

func TestKeywordIdentifierEscaped(t *testing.T) {
	f := fnDef("score",
		[]hir.Param{{Name: "match", Type: types.Int()}}, types.Int(),
		ret(variable("match", types.Int())),
	)
	out := emitText(t, mod(f), Config{})
	wantContains(t, out, "r#match: i64")
	wantContains(t, out, "return r#match;")
}

func TestUnionParamEmitsEnum(t *testing.T) {
	u := types.Union(types.Int(), types.Str())
	f := fnDef("tag", []hir.Param{{Name: "v", Type: u}}, nil,
		exprStmt(call("print", variable("v", u))))
	out := emitText(t, mod(f), Config{})
	wantContains(t, out, "pub enum UnionIntegerText")
	wantContains(t, out, "Integer(i64)")
	wantContains(t, out, "Text(String)")
}

func genRetInt() *types.Type {
	return &types.Type{Kind: types.KindGeneric, Name: "Generator", Elems: []*types.Type{types.Int()}}
}

func yieldStmt(value *hir.Expr) *hir.Stmt {
	return exprStmt(&hir.Expr{Kind: hir.ExprYield, Data: hir.YieldData{Value: value}})
}

func TestSequentialYieldsBecomeStates(t *testing.T) {
	f := fnDef("pair", nil, genRetInt(), yieldStmt(intLit(1)), yieldStmt(intLit(2)))
	f.IsGenerator = true
	out := emitText(t, mod(f), Config{})
	wantContains(t, out, "struct PairState")
	wantContains(t, out, "state: usize,")
	wantContains(t, out, "pub fn pair() -> impl Iterator<Item = i64>")
	wantContains(t, out, "impl Iterator for PairState")
	wantContains(t, out, "fn next(&mut self) -> Option<Self::Item>")
	wantContains(t, out, "self.state = 1;")
	wantContains(t, out, "Some(1)")
	wantContains(t, out, "self.state = 2;")
	wantContains(t, out, "Some(2)")
	wantContains(t, out, "_ => None,")
}

func TestWhileYieldBecomesResumableLoop(t *testing.T) {
	assign := func(name string, value *hir.Expr) *hir.Stmt {
		return &hir.Stmt{Kind: hir.StmtAssign, Data: hir.AssignData{
			Target: &hir.AssignTarget{Kind: hir.TargetSymbol, Name: name},
			Value:  value,
		}}
	}
	cond := &hir.Expr{Kind: hir.ExprCompare, Data: hir.CompareData{
		Ops:      []hir.CmpOp{hir.CmpLt},
		Operands: []*hir.Expr{variable("i", types.Int()), variable("n", types.Int())},
	}}
	step := &hir.Expr{Kind: hir.ExprBinary, Data: hir.BinaryData{
		Op:    hir.OpAdd,
		Left:  variable("i", types.Int()),
		Right: intLit(1),
	}}
	loop := &hir.Stmt{Kind: hir.StmtWhile, Data: hir.WhileData{
		Cond: cond,
		Body: []*hir.Stmt{yieldStmt(variable("i", types.Int())), assign("i", step)},
	}}
	f := fnDef("count_up", []hir.Param{{Name: "n", Type: types.Int()}}, genRetInt(),
		assign("i", intLit(0)), loop)
	f.IsGenerator = true
	out := emitText(t, mod(f), Config{})
	wantContains(t, out, "struct CountUpState")
	wantContains(t, out, "n: i64,")
	wantContains(t, out, "i: i64,")
	wantContains(t, out, "self.i = 0;")
	wantContains(t, out, "self.next()")
	wantContains(t, out, "if self.i < self.n")
	wantContains(t, out, "let __v = self.i;")
	wantContains(t, out, "self.i = self.i + 1;")
	wantContains(t, out, "return Some(__v);")
}

func TestForYieldFallsBackToBufferedStates(t *testing.T) {
	loop := &hir.Stmt{Kind: hir.StmtFor, Data: hir.ForData{
		Target: &hir.AssignTarget{Kind: hir.TargetSymbol, Name: "i"},
		Iter:   call("range", variable("n", types.Int())),
		Body:   []*hir.Stmt{yieldStmt(variable("i", types.Int()))},
	}}
	f := fnDef("count_up", []hir.Param{{Name: "n", Type: types.Int()}}, genRetInt(), loop)
	f.IsGenerator = true
	out := emitText(t, mod(f), Config{})
	wantContains(t, out, "struct CountUpState")
	wantContains(t, out, "buf: Vec<i64>,")
	wantContains(t, out, "-> impl Iterator<Item = i64>")
	wantContains(t, out, "let mut __items = Vec::new();")
	wantContains(t, out, "__items.push(i);")
	wantContains(t, out, "self.buf = __items;")
	wantContains(t, out, "Some(self.buf.remove(0))")
}

func TestNegativeLiteralIndexIsLengthRelative(t *testing.T) {
	idx := &hir.Expr{Kind: hir.ExprIndex, Data: hir.IndexData{
		Object: variable("xs", types.List(types.Int())),
		Index:  intLit(-1),
	}}
	f := fnDef("last", []hir.Param{{Name: "xs", Type: types.List(types.Int())}}, types.Int(), ret(idx))
	out := emitText(t, mod(f), Config{})
	wantContains(t, out, "xs[xs.len() - 1]")
}

func TestDequeImportMatchesRendering(t *testing.T) {
	dq := types.Generic("deque", types.Int())
	f := fnDef("drain", []hir.Param{{Name: "q", Type: dq}}, nil,
		exprStmt(call("print", variable("q", dq))))
	out := emitText(t, mod(f), Config{})
	wantContains(t, out, "use std::collections::VecDeque;")
	wantContains(t, out, "VecDeque<i64>")
	wantAbsent(t, out, "std::collections::VecDeque<")
}

func TestConstantReferencesFollowDeclaredNames(t *testing.T) {
	listVal := &hir.Expr{Kind: hir.ExprList, Data: hir.ListData{Elems: []*hir.Expr{strLit("a")}}}
	m := mod(
		fnDef("cap", nil, types.Int(), ret(variable("max_size", types.Int()))),
		fnDef("names", nil, types.List(types.Str()), ret(variable("defaults", types.List(types.Str())))),
	)
	m.Constants = []hir.Constant{
		{Name: "max_size", Type: types.Int(), Value: intLit(100)},
		{Name: "defaults", Type: types.List(types.Str()), Value: listVal},
	}
	out := emitText(t, m, Config{})
	wantContains(t, out, "pub const MAX_SIZE: i64 = 100;")
	wantContains(t, out, "return MAX_SIZE;")
	wantContains(t, out, "pub fn defaults() -> Vec<String>")
	wantContains(t, out, "return defaults();")
}

func TestConstantNameShadowedByLocalStaysLocal(t *testing.T) {
	assign := &hir.Stmt{Kind: hir.StmtAssign, Data: hir.AssignData{
		Target: &hir.AssignTarget{Kind: hir.TargetSymbol, Name: "max_size"},
		Value:  intLit(5),
	}}
	m := mod(fnDef("local", nil, types.Int(), assign, ret(variable("max_size", types.Int()))))
	m.Constants = []hir.Constant{{Name: "max_size", Type: types.Int(), Value: intLit(100)}}
	out := emitText(t, m, Config{})
	wantContains(t, out, "let mut max_size = 5;")
	wantContains(t, out, "return max_size;")
}

func TestSliceHelperRejectsZeroStep(t *testing.T) {
	sl := &hir.Expr{Kind: hir.ExprSlice, Data: hir.SliceData{
		Object: variable("xs", types.List(types.Int())),
		Start:  intLit(1),
		Step:   variable("k", types.Int()),
	}}
	f := fnDef("skip",
		[]hir.Param{
			{Name: "xs", Type: types.List(types.Int())},
			{Name: "k", Type: types.Int()},
		},
		types.List(types.Int()), ret(sl))
	out := emitText(t, mod(f), Config{})
	wantContains(t, out, "py_slice(&xs,")
	wantContains(t, out, `panic!("ValueError: slice step cannot be zero");`)
	wantAbsent(t, out, "return Vec::new();")
}

func TestTruthinessOnContainers(t *testing.T) {
	cond := &hir.Stmt{Kind: hir.StmtIf, Data: hir.IfData{
		Cond: variable("xs", types.List(types.Int())),
		Then: []*hir.Stmt{ret(intLit(1))},
	}}
	f := fnDef("nonempty", []hir.Param{{Name: "xs", Type: types.List(types.Int())}}, types.Int(),
		cond, ret(intLit(0)))
	out := emitText(t, mod(f), Config{})
	wantContains(t, out, "if !xs.is_empty()")
}

func TestWhileTrueBecomesLoop(t *testing.T) {
	body := &hir.Stmt{Kind: hir.StmtWhile, Data: hir.WhileData{
		Cond: boolLit(true),
		Body: []*hir.Stmt{{Kind: hir.StmtBreak, Data: hir.BreakData{}}},
	}}
	f := fnDef("spin", nil, nil, body)
	out := emitText(t, mod(f), Config{})
	wantContains(t, out, "loop {")
	wantContains(t, out, "break;")
}

func TestBranchAssignedLocalHoisted(t *testing.T) {
	branch := &hir.Stmt{Kind: hir.StmtIf, Data: hir.IfData{
		Cond: variable("flag", types.Bool()),
		Then: []*hir.Stmt{{Kind: hir.StmtAssign, Data: hir.AssignData{
			Target: &hir.AssignTarget{Kind: hir.TargetSymbol, Name: "x"},
			Value:  intLit(1),
		}}},
		Else: []*hir.Stmt{{Kind: hir.StmtAssign, Data: hir.AssignData{
			Target: &hir.AssignTarget{Kind: hir.TargetSymbol, Name: "x"},
			Value:  intLit(2),
		}}},
	}}
	f := fnDef("pick", []hir.Param{{Name: "flag", Type: types.Bool()}}, types.Int(),
		branch, ret(variable("x", types.Int())))
	out := emitText(t, mod(f), Config{})
	wantContains(t, out, "let mut x;")
	wantContains(t, out, "x = 1;")
	wantContains(t, out, "x = 2;")
	wantAbsent(t, out, "let mut x = 1;")
}

func TestClassLoweredToStructAndImpl(t *testing.T) {
	selfItems := &hir.Expr{
		Kind: hir.ExprAttribute,
		Type: types.List(types.Int()),
		Data: hir.AttributeData{Object: variable("self", nil), Attr: "items"},
	}
	init := fnDef("__init__", []hir.Param{{Name: "self"}}, nil,
		&hir.Stmt{Kind: hir.StmtAssign, Data: hir.AssignData{
			Target: &hir.AssignTarget{Kind: hir.TargetAttribute, Object: variable("self", nil), Attr: "items"},
			Value:  &hir.Expr{Kind: hir.ExprList, Data: hir.ListData{}},
			Ann:    types.List(types.Int()),
		}},
	)
	push := fnDef("push", []hir.Param{{Name: "self"}, {Name: "x", Type: types.Int()}}, nil,
		exprStmt(methodCall(selfItems, "append", variable("x", types.Int()))),
	)
	m := &hir.Module{Name: "m", Classes: []*hir.Class{{
		Name:    "Stack",
		Methods: []*hir.Func{init, push},
	}}}
	out := emitText(t, m, Config{})
	wantContains(t, out, "pub struct Stack")
	wantContains(t, out, "pub items: Vec<i64>,")
	wantContains(t, out, "pub fn new(")
	wantContains(t, out, "let mut self_ = Self::default();")
	wantContains(t, out, "&mut self")
	wantContains(t, out, "self.items.push(x);")
}

func TestArgparseHoistedToClap(t *testing.T) {
	assign := func(name string, value *hir.Expr) *hir.Stmt {
		return &hir.Stmt{Kind: hir.StmtAssign, Data: hir.AssignData{
			Target: &hir.AssignTarget{Kind: hir.TargetSymbol, Name: name},
			Value:  value,
		}}
	}
	main := fnDef("main", nil, nil,
		assign("parser", methodCall(variable("argparse", nil), "ArgumentParser")),
		exprStmt(methodCall(variable("parser", nil), "add_argument",
			strLit("--count"), variable("int", nil), strLit("how many"))),
		assign("args", methodCall(variable("parser", nil), "parse_args")),
		exprStmt(call("print", &hir.Expr{Kind: hir.ExprAttribute,
			Data: hir.AttributeData{Object: variable("args", nil), Attr: "count"}})),
	)
	out := emitText(t, mod(main), Config{})
	wantContains(t, out, "use clap::Parser;")
	wantContains(t, out, "#[derive(clap::Parser, Debug)]")
	wantContains(t, out, "pub struct Args")
	wantContains(t, out, `#[arg(long, help = "how many")]`)
	wantContains(t, out, "pub count: i64,")
	wantContains(t, out, "let args = Args::parse();")

	single := emitText(t, mod(main), Config{SingleShot: true})
	wantContains(t, single, "#[derive(Debug, Default)]")
	wantAbsent(t, single, "clap")
	wantContains(t, single, "Args::default()")
}

func TestEmptyModuleEmitsNothingHarmful(t *testing.T) {
	out := emitText(t, &hir.Module{Name: "m"}, Config{})
	if strings.Contains(out, "fn ") {
		t.Fatalf("empty module produced functions:\n%s", out)
	}
}

func TestFStringBecomesFormatMacro(t *testing.T) {
	fstr := &hir.Expr{Kind: hir.ExprFString, Data: hir.FStringData{Parts: []hir.FStringPart{
		{Text: "total: "},
		{Value: variable("n", types.Int())},
	}}}
	f := fnDef("report", []hir.Param{{Name: "n", Type: types.Int()}}, types.Str(), ret(fstr))
	out := emitText(t, mod(f), Config{})
	wantContains(t, out, `format!("total: {}", n)`)
}

func TestListCompBecomesIteratorPipeline(t *testing.T) {
	comp := &hir.Expr{Kind: hir.ExprListComp, Data: hir.CompData{
		Elem: &hir.Expr{Kind: hir.ExprBinary, Data: hir.BinaryData{
			Op:    hir.OpMul,
			Left:  variable("x", types.Int()),
			Right: intLit(2),
		}},
		Generators: []hir.Generator{{
			Target: &hir.AssignTarget{Kind: hir.TargetSymbol, Name: "x"},
			Iter:   variable("xs", types.List(types.Int())),
			Conds: []*hir.Expr{{Kind: hir.ExprCompare, Data: hir.CompareData{
				Ops:      []hir.CmpOp{hir.CmpGt},
				Operands: []*hir.Expr{variable("x", types.Int()), intLit(0)},
			}}},
		}},
	}}
	f := fnDef("doubles", []hir.Param{{Name: "xs", Type: types.List(types.Int())}},
		types.List(types.Int()), ret(comp))
	out := emitText(t, mod(f), Config{})
	wantContains(t, out, ".into_iter()")
	wantContains(t, out, ".filter(|x| x > 0)")
	wantContains(t, out, ".map(|x| x * 2)")
	wantContains(t, out, ".collect::<Vec<_>>()")
}
