package hir

import (
	"pylift/internal/source"
	"pylift/internal/types"
)

// StmtKind enumerates HIR statement kinds.
type StmtKind uint8

const (
	// StmtAssign represents assignment to a target, optionally annotated.
	StmtAssign StmtKind = iota
	// StmtReturn represents a return statement.
	StmtReturn
	// StmtIf represents if/elif/else, already flattened into if/else.
	StmtIf
	// StmtWhile represents a while loop.
	StmtWhile
	// StmtFor represents "for target in iter".
	StmtFor
	// StmtExpr represents an expression evaluated for effect.
	StmtExpr
	// StmtPass represents pass; emitted as nothing.
	StmtPass
	// StmtBreak represents break, optionally labeled.
	StmtBreak
	// StmtContinue represents continue, optionally labeled.
	StmtContinue
	// StmtRaise represents raise, optionally with a cause.
	StmtRaise
	// StmtTry represents try/except/else/finally.
	StmtTry
	// StmtWith represents a with block over one or more context managers.
	StmtWith
	// StmtAssert represents an assert with an optional message.
	StmtAssert
	// StmtDelete represents del over one or more targets.
	StmtDelete
	// StmtGlobal represents a global declaration inside a function.
	StmtGlobal
)

// String returns a human-readable name for the statement kind.
func (k StmtKind) String() string {
	switch k {
	case StmtAssign:
		return "Assign"
	case StmtReturn:
		return "Return"
	case StmtIf:
		return "If"
	case StmtWhile:
		return "While"
	case StmtFor:
		return "For"
	case StmtExpr:
		return "Expr"
	case StmtPass:
		return "Pass"
	case StmtBreak:
		return "Break"
	case StmtContinue:
		return "Continue"
	case StmtRaise:
		return "Raise"
	case StmtTry:
		return "Try"
	case StmtWith:
		return "With"
	case StmtAssert:
		return "Assert"
	case StmtDelete:
		return "Delete"
	case StmtGlobal:
		return "Global"
	default:
		return "Unknown"
	}
}

// Stmt represents an HIR statement.
type Stmt struct {
	Kind StmtKind
	Span source.Span
	Data StmtData
}

// StmtData is the interface for statement-specific payloads.
type StmtData interface {
	stmtData()
}

// TargetKind enumerates assignment target shapes.
type TargetKind uint8

const (
	// TargetSymbol is a plain variable binding (x = ...).
	TargetSymbol TargetKind = iota
	// TargetAttribute assigns through an attribute (obj.field = ...).
	TargetAttribute
	// TargetIndex assigns through a subscript (obj[key] = ...).
	TargetIndex
	// TargetTuple destructures into multiple targets ((a, b) = ...).
	TargetTuple
)

// AssignTarget is the left-hand side of an assignment or a loop binding.
type AssignTarget struct {
	Kind   TargetKind
	Name   string          // TargetSymbol
	Object *Expr           // TargetAttribute, TargetIndex
	Attr   string          // TargetAttribute
	Index  *Expr           // TargetIndex
	Elems  []*AssignTarget // TargetTuple
}

// Symbol returns the bound name for a plain target, "" otherwise.
func (t *AssignTarget) Symbol() string {
	if t != nil && t.Kind == TargetSymbol {
		return t.Name
	}
	return ""
}

// AssignData holds data for StmtAssign. Ann is the optional source type
// annotation; first assignment of a symbol becomes a let binding.
type AssignData struct {
	Target *AssignTarget
	Value  *Expr
	Ann    *types.Type
}

func (AssignData) stmtData() {}

// ReturnData holds data for StmtReturn. Value is nil for a bare return.
type ReturnData struct {
	Value *Expr
}

func (ReturnData) stmtData() {}

// IfData holds data for StmtIf.
type IfData struct {
	Cond *Expr
	Then []*Stmt
	Else []*Stmt // nil if no else branch
}

func (IfData) stmtData() {}

// WhileData holds data for StmtWhile.
type WhileData struct {
	Cond *Expr
	Body []*Stmt
}

func (WhileData) stmtData() {}

// ForData holds data for StmtFor.
type ForData struct {
	Target *AssignTarget
	Iter   *Expr
	Body   []*Stmt
}

func (ForData) stmtData() {}

// ExprStmtData holds data for StmtExpr.
type ExprStmtData struct {
	Expr *Expr
}

func (ExprStmtData) stmtData() {}

// PassData holds data for StmtPass.
type PassData struct{}

func (PassData) stmtData() {}

// BreakData holds data for StmtBreak.
type BreakData struct {
	Label string // empty for an unlabeled break
}

func (BreakData) stmtData() {}

// ContinueData holds data for StmtContinue.
type ContinueData struct {
	Label string
}

func (ContinueData) stmtData() {}

// RaiseData holds data for StmtRaise. Exc is nil for a bare re-raise.
type RaiseData struct {
	Exc  *Expr
	From *Expr
}

func (RaiseData) stmtData() {}

// Handler is one except clause. Types empty plus Catch empty means a bare
// except; Binding is the "as name" variable if present.
type Handler struct {
	Types   []string
	Binding string
	Body    []*Stmt
	Span    source.Span
}

// Bare reports whether the handler catches everything.
func (h *Handler) Bare() bool { return len(h.Types) == 0 }

// TryData holds data for StmtTry.
type TryData struct {
	Body     []*Stmt
	Handlers []Handler
	Else     []*Stmt
	Finally  []*Stmt
}

func (TryData) stmtData() {}

// WithItem is one "ctx as name" entry of a with statement.
type WithItem struct {
	Ctx     *Expr
	Binding string
}

// WithData holds data for StmtWith.
type WithData struct {
	Items []WithItem
	Body  []*Stmt
}

func (WithData) stmtData() {}

// AssertData holds data for StmtAssert.
type AssertData struct {
	Cond *Expr
	Msg  *Expr
}

func (AssertData) stmtData() {}

// DeleteData holds data for StmtDelete.
type DeleteData struct {
	Targets []*Expr
}

func (DeleteData) stmtData() {}

// GlobalData holds data for StmtGlobal.
type GlobalData struct {
	Names []string
}

func (GlobalData) stmtData() {}
