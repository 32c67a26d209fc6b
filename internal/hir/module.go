package hir

import (
	"fmt"

	"pylift/internal/source"
	"pylift/internal/types"
)

// Module is the root of the HIR: an ordered list of imports, constants,
// type aliases, functions and classes decoded from one Python file.
// Node ownership is a tree rooted here; analysis passes decorate nodes in
// place or deposit derived data in side tables keyed by function name.
type Module struct {
	Name        string
	Imports     []Import
	TypeAliases []TypeAlias
	Constants   []Constant
	Functions   []*Func
	Classes     []*Class
	Span        source.Span
}

// Import records a Python import; the module mapper decides whether it has
// a Rust equivalent or is dropped.
type Import struct {
	Module string
	Names  []string // empty for "import X"; filled for "from X import a, b"
	Alias  string
	Span   source.Span
}

// TypeAlias is a module-level "Name = <type expr>" binding.
type TypeAlias struct {
	Name string
	Type *types.Type
	Span source.Span
}

// Constant is a module-level binding. Compile-time-constant initializers
// become Rust consts; everything else becomes a once-initialized static.
type Constant struct {
	Name  string
	Type  *types.Type
	Value *Expr
	Span  source.Span
}

// FindFunc finds a function by name, returns nil if not found.
func (m *Module) FindFunc(name string) *Func {
	for _, f := range m.Functions {
		if f.Name == name {
			return f
		}
	}
	return nil
}

// FindClass finds a class by name, returns nil if not found.
func (m *Module) FindClass(name string) *Class {
	for _, c := range m.Classes {
		if c.Name == name {
			return c
		}
	}
	return nil
}

/// Validate checks module-level identity rules: function and class names may
// not be redefined.
func (m *Module) Validate() error {
	seen := make(map[string]string, len(m.Functions)+len(m.Classes))
	for _, f := range m.Functions {
		if prev, ok := seen[f.Name]; ok {
			return fmt.Errorf("module %s: %s redefines %s %q", m.Name, "function", prev, f.Name)
		}
		seen[f.Name] = "function"
	}
	for _, c := range m.Classes {
		if prev, ok := seen[c.Name]; ok {
			return fmt.Errorf("module %s: %s redefines %s %q", m.Name, "class", prev, c.Name)
		}
		seen[c.Name] = "class"
	}
	return nil
}
