package borrow

import (
	"pylift/internal/hir"
)

// FuncInfo is the analysis record for one function or method. The emitter
// consults it for parameter signatures and call-site argument prefixes.
type FuncInfo struct {
	Name     string
	Func     *hir.Func
	Usage    *Usage
	Patterns []Pattern // parallel to Func.Params, filled after the fixpoint

	callSites []callSite
}

type callSite struct {
	callee string
	args   []*hir.Expr
}

// ParamPattern returns the pattern for a named parameter, Owned when the
// name is not a parameter.
func (fi *FuncInfo) ParamPattern(name string) Pattern {
	for i, p := range fi.Func.Params {
		if p.Name == name {
			return fi.Patterns[i]
		}
	}
	return Owned
}

// Registry is the signature side-table: function name to analysis record.
// Methods are keyed "Class.method".
type Registry struct {
	funcs map[string]*FuncInfo
	order []string
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{funcs: make(map[string]*FuncInfo)}
}

// Add registers a record, keeping encounter order for deterministic walks.
func (r *Registry) Add(fi *FuncInfo) {
	if _, ok := r.funcs[fi.Name]; !ok {
		r.order = append(r.order, fi.Name)
	}
	r.funcs[fi.Name] = fi
}

// Lookup returns the record for a name, nil when absent.
func (r *Registry) Lookup(name string) *FuncInfo {
	return r.funcs[name]
}

// Names returns all registered names in encounter order.
func (r *Registry) Names() []string {
	return r.order
}
