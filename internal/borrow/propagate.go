package borrow

import (
	"fmt"

	"pylift/internal/diag"
	"pylift/internal/hir"
)

// maxIterations caps the interprocedural fixpoint. Mutation sets only grow,
// so convergence is bounded by the total parameter count; hitting the cap
// means the analysis itself is broken.
const maxIterations = 100

// AnalyzeModule runs the local analysis on every function and method, then
// propagates callee mutation requirements through the call graph until the
// mutation sets stabilize. The returned registry carries final patterns.
func AnalyzeModule(m *hir.Module, info TypeInfo, rep diag.Reporter) *Registry {
	reg := NewRegistry()

	for _, f := range m.Functions {
		reg.Add(analyzeOne(f.Name, f, m))
	}
	for _, c := range m.Classes {
		for _, meth := range c.Methods {
			reg.Add(analyzeOne(c.Name+"."+meth.Name, meth, m))
		}
	}

	iterations := 0
	for changed := true; changed; {
		changed = false
		iterations++
		if iterations > maxIterations {
			rep.Report(diag.BorrowFixpointDiverged, diag.SevError, m.Span,
				fmt.Sprintf("mutation propagation did not converge after %d iterations", maxIterations), nil)
			break
		}
		// Callee-first: visiting callees before callers shortens the run,
		// but monotonicity alone guarantees the fixpoint.
		for _, name := range calleeFirst(reg) {
			fi := reg.Lookup(name)
			for _, cs := range fi.callSites {
				callee := reg.Lookup(cs.callee)
				if callee == nil {
					continue
				}
				for i, p := range callee.Func.Params {
					if !callee.Usage.Mutated[p.Name] || i >= len(cs.args) {
						continue
					}
					root := RootVar(cs.args[i])
					if fi.Usage.MarkMutated(root) {
						changed = true
					}
				}
			}
		}
	}

	for _, name := range reg.Names() {
		fi := reg.Lookup(name)
		fi.Patterns = make([]Pattern, len(fi.Func.Params))
		for i, p := range fi.Func.Params {
			fi.Patterns[i] = fi.Usage.Pattern(info, p.Name, p.Type)
		}
	}
	return reg
}

func analyzeOne(name string, f *hir.Func, m *hir.Module) *FuncInfo {
	fi := &FuncInfo{Name: name, Func: f, Usage: AnalyzeFunc(f)}
	hir.WalkExprs(f.Body, func(e *hir.Expr) bool {
		if cd, ok := e.Data.(hir.CallData); ok && m.FindFunc(cd.Func) != nil {
			fi.callSites = append(fi.callSites, callSite{callee: cd.Func, args: cd.Args})
		}
		return true
	})
	return fi
}

// calleeFirst orders registry names so that callees precede callers where
// the call graph allows it; cycles fall back to encounter order.
func calleeFirst(reg *Registry) []string {
	order := make([]string, 0, len(reg.Names()))
	state := make(map[string]uint8, len(reg.Names())) // 0 new, 1 visiting, 2 done

	var visit func(name string)
	visit = func(name string) {
		if state[name] != 0 {
			return
		}
		state[name] = 1
		for _, cs := range reg.Lookup(name).callSites {
			if reg.Lookup(cs.callee) != nil && state[cs.callee] == 0 {
				visit(cs.callee)
			}
		}
		state[name] = 2
		order = append(order, name)
	}
	for _, name := range reg.Names() {
		visit(name)
	}
	return order
}
