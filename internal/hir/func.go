package hir

import (
	"pylift/internal/annotations"
	"pylift/internal/source"
	"pylift/internal/types"
)

// Func is a translated function: parameters, return type, body and the
// structured annotations that gate the optimizer.
type Func struct {
	Name        string
	Params      []Param
	Ret         *types.Type
	Body        []*Stmt
	Annotations annotations.Set
	Docstring   string
	IsAsync     bool
	IsGenerator bool // body contains yield; lowered to a state machine
	Span        source.Span
}

// Param is a formal parameter. Default expressions are owned by the
// function; Vararg marks Python *args (slice-typed at call sites).
type Param struct {
	Name    string
	Type    *types.Type
	Default *Expr
	Vararg  bool
}

// HasVararg reports whether any parameter is a *args catch-all.
func (f *Func) HasVararg() bool {
	for _, p := range f.Params {
		if p.Vararg {
			return true
		}
	}
	return false
}

// ParamIndex returns the position of the named parameter, or -1.
func (f *Func) ParamIndex(name string) int {
	for i, p := range f.Params {
		if p.Name == name {
			return i
		}
	}
	return -1
}
