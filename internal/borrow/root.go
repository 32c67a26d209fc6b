package borrow

import "pylift/internal/hir"

// RootVar extracts the outermost identifier of an access path: for
// a.b[c].d the root is a. Returns "" when the expression is not rooted in a
// plain variable.
func RootVar(e *hir.Expr) string {
	for e != nil {
		switch d := e.Data.(type) {
		case hir.VarData:
			return d.Name
		case hir.AttributeData:
			e = d.Object
		case hir.IndexData:
			e = d.Object
		case hir.SliceData:
			e = d.Object
		case hir.MethodCallData:
			e = d.Object
		case hir.WalrusData:
			e = d.Value
		case hir.StarredData:
			e = d.Value
		default:
			return ""
		}
	}
	return ""
}

// RootOfTarget extracts the root variable of an assignment target.
// Tuple targets have no single root.
func RootOfTarget(t *hir.AssignTarget) string {
	if t == nil {
		return ""
	}
	switch t.Kind {
	case hir.TargetSymbol:
		return t.Name
	case hir.TargetAttribute, hir.TargetIndex:
		return RootVar(t.Object)
	default:
		return ""
	}
}
