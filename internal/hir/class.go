package hir

import (
	"pylift/internal/source"
	"pylift/internal/types"
)

// Class declarations become a struct plus an impl block. Base classes are
// carried linearized but not resolved into ownership; the emitter only uses
// them for diagnostics.
type Class struct {
	Name        string
	Bases       []string
	Fields      []Field
	Methods     []*Func
	IsDataclass bool
	TypeParams  []string
	Docstring   string
	Span        source.Span
}

// Field is a declared class attribute. IsClassVar fields become associated
// constants rather than struct fields.
type Field struct {
	Name       string
	Type       *types.Type
	Default    *Expr
	IsClassVar bool
}

// Constructor returns the __init__ method, or nil.
func (c *Class) Constructor() *Func {
	for _, m := range c.Methods {
		if m.Name == "__init__" {
			return m
		}
	}
	return nil
}

// SelfType is the class viewed as a parameter type, used when the borrow
// analysis treats the receiver as an implicit parameter.
func (c *Class) SelfType() *types.Type {
	return types.Custom(c.Name)
}
