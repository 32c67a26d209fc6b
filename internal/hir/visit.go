package hir

// WalkStmts applies fn to every statement in body, recursing into nested
// bodies. fn returning false prunes the subtree.
func WalkStmts(body []*Stmt, fn func(*Stmt) bool) {
	for _, s := range body {
		walkStmt(s, fn)
	}
}

func walkStmt(s *Stmt, fn func(*Stmt) bool) {
	if s == nil || !fn(s) {
		return
	}
	switch d := s.Data.(type) {
	case IfData:
		WalkStmts(d.Then, fn)
		WalkStmts(d.Else, fn)
	case WhileData:
		WalkStmts(d.Body, fn)
	case ForData:
		WalkStmts(d.Body, fn)
	case TryData:
		WalkStmts(d.Body, fn)
		for _, h := range d.Handlers {
			WalkStmts(h.Body, fn)
		}
		WalkStmts(d.Else, fn)
		WalkStmts(d.Finally, fn)
	case WithData:
		WalkStmts(d.Body, fn)
	}
}

// WalkExprs applies fn to every expression reachable from body, including
// expressions embedded in assignment targets and comprehension generators.
// fn returning false prunes the subtree.
func WalkExprs(body []*Stmt, fn func(*Expr) bool) {
	WalkStmts(body, func(s *Stmt) bool {
		walkStmtExprs(s, fn)
		return true
	})
}

func walkStmtExprs(s *Stmt, fn func(*Expr) bool) {
	switch d := s.Data.(type) {
	case AssignData:
		walkTargetExprs(d.Target, fn)
		WalkExpr(d.Value, fn)
	case ReturnData:
		WalkExpr(d.Value, fn)
	case IfData:
		WalkExpr(d.Cond, fn)
	case WhileData:
		WalkExpr(d.Cond, fn)
	case ForData:
		walkTargetExprs(d.Target, fn)
		WalkExpr(d.Iter, fn)
	case ExprStmtData:
		WalkExpr(d.Expr, fn)
	case RaiseData:
		WalkExpr(d.Exc, fn)
		WalkExpr(d.From, fn)
	case WithData:
		for _, it := range d.Items {
			WalkExpr(it.Ctx, fn)
		}
	case AssertData:
		WalkExpr(d.Cond, fn)
		WalkExpr(d.Msg, fn)
	case DeleteData:
		for _, t := range d.Targets {
			WalkExpr(t, fn)
		}
	}
}

func walkTargetExprs(t *AssignTarget, fn func(*Expr) bool) {
	if t == nil {
		return
	}
	switch t.Kind {
	case TargetAttribute:
		WalkExpr(t.Object, fn)
	case TargetIndex:
		WalkExpr(t.Object, fn)
		WalkExpr(t.Index, fn)
	case TargetTuple:
		for _, e := range t.Elems {
			walkTargetExprs(e, fn)
		}
	}
}

// WalkExpr applies fn to e and its subexpressions in preorder. fn returning
// false prunes the subtree.
func WalkExpr(e *Expr, fn func(*Expr) bool) {
	if e == nil || !fn(e) {
		return
	}
	switch d := e.Data.(type) {
	case UnaryData:
		WalkExpr(d.Operand, fn)
	case BinaryData:
		WalkExpr(d.Left, fn)
		WalkExpr(d.Right, fn)
	case CompareData:
		for _, o := range d.Operands {
			WalkExpr(o, fn)
		}
	case BoolOpData:
		for _, v := range d.Values {
			WalkExpr(v, fn)
		}
	case CallData:
		for _, a := range d.Args {
			WalkExpr(a, fn)
		}
	case MethodCallData:
		WalkExpr(d.Object, fn)
		for _, a := range d.Args {
			WalkExpr(a, fn)
		}
	case AttributeData:
		WalkExpr(d.Object, fn)
	case IndexData:
		WalkExpr(d.Object, fn)
		WalkExpr(d.Index, fn)
	case SliceData:
		WalkExpr(d.Object, fn)
		WalkExpr(d.Start, fn)
		WalkExpr(d.Stop, fn)
		WalkExpr(d.Step, fn)
	case ListData:
		for _, el := range d.Elems {
			WalkExpr(el, fn)
		}
	case TupleData:
		for _, el := range d.Elems {
			WalkExpr(el, fn)
		}
	case DictData:
		for _, ent := range d.Entries {
			WalkExpr(ent.Key, fn)
			WalkExpr(ent.Value, fn)
		}
	case SetData:
		for _, el := range d.Elems {
			WalkExpr(el, fn)
		}
	case CompData:
		WalkExpr(d.Elem, fn)
		walkGenerators(d.Generators, fn)
	case DictCompData:
		WalkExpr(d.Key, fn)
		WalkExpr(d.Value, fn)
		walkGenerators(d.Generators, fn)
	case LambdaData:
		WalkExpr(d.Body, fn)
	case ConditionalData:
		WalkExpr(d.Cond, fn)
		WalkExpr(d.Then, fn)
		WalkExpr(d.Else, fn)
	case FStringData:
		for _, p := range d.Parts {
			WalkExpr(p.Value, fn)
		}
	case WalrusData:
		WalkExpr(d.Value, fn)
	case StarredData:
		WalkExpr(d.Value, fn)
	case YieldData:
		WalkExpr(d.Value, fn)
	case AwaitData:
		WalkExpr(d.Value, fn)
	}
}

func walkGenerators(gens []Generator, fn func(*Expr) bool) {
	for _, g := range gens {
		walkTargetExprs(g.Target, fn)
		WalkExpr(g.Iter, fn)
		for _, c := range g.Conds {
			WalkExpr(c, fn)
		}
	}
}

// ContainsYield reports whether any expression in body is a yield, which
// marks the enclosing function as a generator.
func ContainsYield(body []*Stmt) bool {
	found := false
	WalkExprs(body, func(e *Expr) bool {
		if e.Kind == ExprYield {
			found = true
			return false
		}
		return true
	})
	return found
}
