package borrow

import (
	"reflect"
	"testing"

	"pylift/internal/diag"
	"pylift/internal/hir"
	"pylift/internal/typemap"
	"pylift/internal/types"
)

func variable(name string) *hir.Expr {
	return &hir.Expr{Kind: hir.ExprVar, Data: hir.VarData{Name: name}}
}

func ret(value *hir.Expr) *hir.Stmt {
	return &hir.Stmt{Kind: hir.StmtReturn, Data: hir.ReturnData{Value: value}}
}

func exprStmt(e *hir.Expr) *hir.Stmt {
	return &hir.Stmt{Kind: hir.StmtExpr, Data: hir.ExprStmtData{Expr: e}}
}

func fn(name string, params []hir.Param, body ...*hir.Stmt) *hir.Func {
	return &hir.Func{Name: name, Params: params, Body: body}
}

func TestReadOnlyStringIsBorrowed(t *testing.T) {
	f := fn("greet",
		[]hir.Param{{Name: "name", Type: types.Str()}},
		ret(&hir.Expr{Kind: hir.ExprMethodCall, Data: hir.MethodCallData{
			Object: variable("name"), Method: "upper",
		}}),
	)
	u := AnalyzeFunc(f)
	if got := u.Pattern(typemap.New(), "name", types.Str()); got != Borrowed {
		t.Fatalf("pattern = %s, want Borrowed", got)
	}
}

func TestReturnedParamIsOwned(t *testing.T) {
	f := fn("ident",
		[]hir.Param{{Name: "items", Type: types.List(types.Int())}},
		ret(variable("items")),
	)
	u := AnalyzeFunc(f)
	if !u.Escaping["items"] {
		t.Fatal("returned parameter must be escaping")
	}
	if got := u.Pattern(typemap.New(), "items", types.List(types.Int())); got != Owned {
		t.Fatalf("pattern = %s, want Owned", got)
	}
}

func TestIndexAssignMutates(t *testing.T) {
	// def set(d, k, v): d[k] = v
	f := fn("set",
		[]hir.Param{
			{Name: "d", Type: types.Dict(types.Str(), types.Int())},
			{Name: "k", Type: types.Str()},
			{Name: "v", Type: types.Int()},
		},
		&hir.Stmt{Kind: hir.StmtAssign, Data: hir.AssignData{
			Target: &hir.AssignTarget{Kind: hir.TargetIndex, Object: variable("d"), Index: variable("k")},
			Value:  variable("v"),
		}},
	)
	u := AnalyzeFunc(f)
	if !u.Mutated["d"] {
		t.Fatal("index assignment must mark the collection mutated")
	}
	if got := u.Pattern(typemap.New(), "d", types.Dict(types.Str(), types.Int())); got != MutableBorrow {
		t.Fatalf("pattern = %s, want MutableBorrow", got)
	}
}

func TestMutatingMethodMarksReceiver(t *testing.T) {
	f := fn("push",
		[]hir.Param{
			{Name: "items", Type: types.List(types.Int())},
			{Name: "x", Type: types.Int()},
		},
		exprStmt(&hir.Expr{Kind: hir.ExprMethodCall, Data: hir.MethodCallData{
			Object: variable("items"), Method: "append", Args: []*hir.Expr{variable("x")},
		}}),
	)
	u := AnalyzeFunc(f)
	if !u.Mutated["items"] {
		t.Fatal("append must mark receiver mutated")
	}
	if u.Mutated["x"] {
		t.Fatal("argument is not mutated")
	}
}

func TestCopyableOwnedUnlessMutated(t *testing.T) {
	m := typemap.New()
	f := fn("id", []hir.Param{{Name: "n", Type: types.Int()}}, ret(variable("n")))
	u := AnalyzeFunc(f)
	if got := u.Pattern(m, "n", types.Int()); got != Owned {
		t.Fatalf("escaping copyable = %s, want Owned", got)
	}

	f = fn("bump",
		[]hir.Param{{Name: "n", Type: types.Int()}},
		&hir.Stmt{Kind: hir.StmtAssign, Data: hir.AssignData{
			Target: &hir.AssignTarget{Kind: hir.TargetSymbol, Name: "n"},
			Value: &hir.Expr{Kind: hir.ExprBinary, Data: hir.BinaryData{
				Op: hir.OpAdd, Left: variable("n"),
				Right: &hir.Expr{Kind: hir.ExprLiteral, Data: hir.LiteralData{Kind: hir.LitInt, IntValue: 1}},
			}},
		}},
	)
	u = AnalyzeFunc(f)
	if got := u.Pattern(m, "n", types.Int()); got != MutableBorrow {
		t.Fatalf("mutated copyable = %s, want MutableBorrow", got)
	}
}

func TestInterproceduralPropagation(t *testing.T) {
	// def update(d, k, v): d[k] = v
	// def caller(state): update(state.data, "key", 100)
	update := fn("update",
		[]hir.Param{
			{Name: "d", Type: types.Dict(types.Str(), types.Int())},
			{Name: "k", Type: types.Str()},
			{Name: "v", Type: types.Int()},
		},
		&hir.Stmt{Kind: hir.StmtAssign, Data: hir.AssignData{
			Target: &hir.AssignTarget{Kind: hir.TargetIndex, Object: variable("d"), Index: variable("k")},
			Value:  variable("v"),
		}},
	)
	caller := fn("caller",
		[]hir.Param{{Name: "state", Type: types.Custom("State")}},
		exprStmt(&hir.Expr{Kind: hir.ExprCall, Data: hir.CallData{
			Func: "update",
			Args: []*hir.Expr{
				{Kind: hir.ExprAttribute, Data: hir.AttributeData{Object: variable("state"), Attr: "data"}},
				{Kind: hir.ExprLiteral, Data: hir.LiteralData{Kind: hir.LitString, StringValue: "key"}},
				{Kind: hir.ExprLiteral, Data: hir.LiteralData{Kind: hir.LitInt, IntValue: 100}},
			},
		}}),
	)
	m := &hir.Module{Name: "t", Functions: []*hir.Func{update, caller}}
	reg := AnalyzeModule(m, typemap.New(), diag.NopReporter{})

	if !reg.Lookup("update").Usage.Mutated["d"] {
		t.Fatal("update must mutate d")
	}
	if !reg.Lookup("caller").Usage.Mutated["state"] {
		t.Fatal("mutation must propagate to caller's state")
	}
	if reg.Lookup("caller").ParamPattern("state") != MutableBorrow {
		t.Fatal("state must be taken by exclusive reference")
	}
}

func TestFixpointStable(t *testing.T) {
	build := func() *hir.Module {
		a := fn("a",
			[]hir.Param{{Name: "xs", Type: types.List(types.Int())}},
			exprStmt(&hir.Expr{Kind: hir.ExprCall, Data: hir.CallData{
				Func: "b", Args: []*hir.Expr{variable("xs")},
			}}),
		)
		b := fn("b",
			[]hir.Param{{Name: "ys", Type: types.List(types.Int())}},
			exprStmt(&hir.Expr{Kind: hir.ExprCall, Data: hir.CallData{
				Func: "a", Args: []*hir.Expr{variable("ys")},
			}}),
			exprStmt(&hir.Expr{Kind: hir.ExprMethodCall, Data: hir.MethodCallData{
				Object: variable("ys"), Method: "clear",
			}}),
		)
		return &hir.Module{Name: "cyc", Functions: []*hir.Func{a, b}}
	}
	first := AnalyzeModule(build(), typemap.New(), diag.NopReporter{})
	second := AnalyzeModule(build(), typemap.New(), diag.NopReporter{})

	for _, name := range []string{"a", "b"} {
		if !reflect.DeepEqual(first.Lookup(name).Usage.Mutated, second.Lookup(name).Usage.Mutated) {
			t.Fatalf("%s: mutation sets differ between runs", name)
		}
	}
	// Mutual recursion: the mutation in b reaches a through the cycle.
	if !first.Lookup("a").Usage.Mutated["xs"] {
		t.Fatal("mutation must propagate through the cycle")
	}
}

func TestMethodReceiverAnalysis(t *testing.T) {
	meth := fn("push",
		[]hir.Param{
			{Name: "self", Type: types.Custom("Stack")},
			{Name: "x", Type: types.Int()},
		},
		exprStmt(&hir.Expr{Kind: hir.ExprMethodCall, Data: hir.MethodCallData{
			Object: &hir.Expr{Kind: hir.ExprAttribute, Data: hir.AttributeData{
				Object: variable("self"), Attr: "items",
			}},
			Method: "append",
			Args:   []*hir.Expr{variable("x")},
		}}),
	)
	m := &hir.Module{Name: "t", Classes: []*hir.Class{{Name: "Stack", Methods: []*hir.Func{meth}}}}
	reg := AnalyzeModule(m, typemap.New(), diag.NopReporter{})
	fi := reg.Lookup("Stack.push")
	if fi == nil {
		t.Fatal("method not registered")
	}
	if !fi.Usage.Mutated["self"] {
		t.Fatal("self.items.append must mark self mutated")
	}
}

func TestRootVar(t *testing.T) {
	// a.b[c].d
	e := &hir.Expr{Kind: hir.ExprAttribute, Data: hir.AttributeData{
		Object: &hir.Expr{Kind: hir.ExprIndex, Data: hir.IndexData{
			Object: &hir.Expr{Kind: hir.ExprAttribute, Data: hir.AttributeData{
				Object: variable("a"), Attr: "b",
			}},
			Index: variable("c"),
		}},
		Attr: "d",
	}}
	if got := RootVar(e); got != "a" {
		t.Fatalf("RootVar = %q, want a", got)
	}
	lit := &hir.Expr{Kind: hir.ExprLiteral, Data: hir.LiteralData{Kind: hir.LitInt}}
	if got := RootVar(lit); got != "" {
		t.Fatalf("literal has no root, got %q", got)
	}
}

func TestPrefixInjective(t *testing.T) {
	prefixes := map[string]bool{}
	for _, p := range []Pattern{Owned, Borrowed, MutableBorrow} {
		prefixes[p.Prefix()] = true
	}
	for _, want := range []string{"", "&", "&mut "} {
		if !prefixes[want] {
			t.Errorf("missing prefix %q", want)
		}
	}
	if len(prefixes) != 3 {
		t.Fatalf("prefixes not injective: %v", prefixes)
	}
}

func TestLoopUsedPassByRefBorrowed(t *testing.T) {
	f := fn("scan",
		[]hir.Param{{Name: "items", Type: types.List(types.Int())}},
		&hir.Stmt{Kind: hir.StmtFor, Data: hir.ForData{
			Target: &hir.AssignTarget{Kind: hir.TargetSymbol, Name: "i"},
			Iter:   variable("items"),
			Body: []*hir.Stmt{
				exprStmt(&hir.Expr{Kind: hir.ExprIndex, Data: hir.IndexData{
					Object: variable("items"), Index: variable("i"),
				}}),
			},
		}},
	)
	u := AnalyzeFunc(f)
	if !u.LoopUsed["items"] {
		t.Fatal("items used in loop body must be loop-used")
	}
	if got := u.Pattern(typemap.New(), "items", types.List(types.Int())); got != Borrowed {
		t.Fatalf("pattern = %s, want Borrowed", got)
	}
}
