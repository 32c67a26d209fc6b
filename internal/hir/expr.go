package hir

import (
	"pylift/internal/source"
	"pylift/internal/types"
)

// ExprKind enumerates HIR expression kinds. The set mirrors Python's
// expression grammar after desugaring: decorators, augmented assignment and
// implicit string concatenation are already gone by the time a module is
// decoded.
type ExprKind uint8

const (
	// ExprLiteral represents literals (int, float, bool, string, bytes, None).
	ExprLiteral ExprKind = iota
	// ExprVar represents a variable reference.
	ExprVar
	// ExprUnary represents unary operators (not, -, +, ~).
	ExprUnary
	// ExprBinary represents binary operators (+, -, //, **, etc.).
	ExprBinary
	// ExprCompare represents a chained comparison (a < b <= c).
	ExprCompare
	// ExprBoolOp represents short-circuit and/or with two or more operands.
	ExprBoolOp
	// ExprCall represents a free function call.
	ExprCall
	// ExprMethodCall represents obj.method(args).
	ExprMethodCall
	// ExprAttribute represents attribute access (obj.field).
	ExprAttribute
	// ExprIndex represents subscription (obj[key]).
	ExprIndex
	// ExprSlice represents obj[start:stop:step] with any part absent.
	ExprSlice
	// ExprList represents a list display ([a, b, c]).
	ExprList
	// ExprTuple represents a tuple display ((a, b)).
	ExprTuple
	// ExprDict represents a dict display ({k: v}).
	ExprDict
	// ExprSet represents a set display ({a, b}).
	ExprSet
	// ExprFrozenSet represents frozenset(...) recognized as a constructor.
	ExprFrozenSet
	// ExprListComp represents a list comprehension.
	ExprListComp
	// ExprSetComp represents a set comprehension.
	ExprSetComp
	// ExprDictComp represents a dict comprehension.
	ExprDictComp
	// ExprGenExp represents a generator expression.
	ExprGenExp
	// ExprLambda represents an anonymous function.
	ExprLambda
	// ExprConditional represents "a if cond else b".
	ExprConditional
	// ExprFString represents an f-string with interleaved text and values.
	ExprFString
	// ExprWalrus represents a named expression (x := value).
	ExprWalrus
	// ExprStarred represents *expr in a call argument position.
	ExprStarred
	// ExprYield represents yield inside a generator body.
	ExprYield
	// ExprAwait represents await inside an async function.
	ExprAwait
)

// String returns a human-readable name for the expression kind.
func (k ExprKind) String() string {
	switch k {
	case ExprLiteral:
		return "Literal"
	case ExprVar:
		return "Var"
	case ExprUnary:
		return "Unary"
	case ExprBinary:
		return "Binary"
	case ExprCompare:
		return "Compare"
	case ExprBoolOp:
		return "BoolOp"
	case ExprCall:
		return "Call"
	case ExprMethodCall:
		return "MethodCall"
	case ExprAttribute:
		return "Attribute"
	case ExprIndex:
		return "Index"
	case ExprSlice:
		return "Slice"
	case ExprList:
		return "List"
	case ExprTuple:
		return "Tuple"
	case ExprDict:
		return "Dict"
	case ExprSet:
		return "Set"
	case ExprFrozenSet:
		return "FrozenSet"
	case ExprListComp:
		return "ListComp"
	case ExprSetComp:
		return "SetComp"
	case ExprDictComp:
		return "DictComp"
	case ExprGenExp:
		return "GenExp"
	case ExprLambda:
		return "Lambda"
	case ExprConditional:
		return "Conditional"
	case ExprFString:
		return "FString"
	case ExprWalrus:
		return "Walrus"
	case ExprStarred:
		return "Starred"
	case ExprYield:
		return "Yield"
	case ExprAwait:
		return "Await"
	default:
		return "Unknown"
	}
}

// Expr represents an HIR expression. Type is filled by inference where the
// source carried an annotation; Unknown otherwise.
type Expr struct {
	Kind ExprKind
	Type *types.Type
	Span source.Span
	Data ExprData
}

// ExprData is the interface for expression-specific payloads.
type ExprData interface {
	exprData()
}

// LiteralKind enumerates literal value kinds.
type LiteralKind uint8

const (
	LitInt LiteralKind = iota
	LitFloat
	LitBool
	LitString
	LitBytes
	LitNone
)

// LiteralData holds data for ExprLiteral.
type LiteralData struct {
	Kind        LiteralKind
	IntValue    int64
	FloatValue  float64
	BoolValue   bool
	StringValue string
	BytesValue  []byte
}

func (LiteralData) exprData() {}

// VarData holds data for ExprVar.
type VarData struct {
	Name string
}

func (VarData) exprData() {}

// UnaryData holds data for ExprUnary.
type UnaryData struct {
	Op      UnaryOp
	Operand *Expr
}

func (UnaryData) exprData() {}

// BinaryData holds data for ExprBinary.
type BinaryData struct {
	Op    BinOp
	Left  *Expr
	Right *Expr
}

func (BinaryData) exprData() {}

// CompareData holds data for ExprCompare. A chain of n operators carries
// n+1 operands; emission pairs adjacent operands and joins with &&.
type CompareData struct {
	Ops      []CmpOp
	Operands []*Expr
}

func (CompareData) exprData() {}

// BoolOpData holds data for ExprBoolOp.
type BoolOpData struct {
	Op     BoolOpKind
	Values []*Expr
}

func (BoolOpData) exprData() {}

// CallData holds data for ExprCall. Keyword arguments are already reordered
// into positional form; defaults for trailing omissions are filled at the
// call site by the emitter.
type CallData struct {
	Func string
	Args []*Expr
}

func (CallData) exprData() {}

// MethodCallData holds data for ExprMethodCall.
type MethodCallData struct {
	Object *Expr
	Method string
	Args   []*Expr
}

func (MethodCallData) exprData() {}

// AttributeData holds data for ExprAttribute.
type AttributeData struct {
	Object *Expr
	Attr   string
}

func (AttributeData) exprData() {}

// IndexData holds data for ExprIndex.
type IndexData struct {
	Object *Expr
	Index  *Expr
}

func (IndexData) exprData() {}

// SliceData holds data for ExprSlice. Absent bounds are nil.
type SliceData struct {
	Object *Expr
	Start  *Expr
	Stop   *Expr
	Step   *Expr
}

func (SliceData) exprData() {}

// ListData holds data for ExprList.
type ListData struct {
	Elems []*Expr
}

func (ListData) exprData() {}

// TupleData holds data for ExprTuple.
type TupleData struct {
	Elems []*Expr
}

func (TupleData) exprData() {}

// DictEntry is one key/value pair in a dict display.
type DictEntry struct {
	Key   *Expr
	Value *Expr
}

// DictData holds data for ExprDict.
type DictData struct {
	Entries []DictEntry
}

func (DictData) exprData() {}

// SetData holds data for ExprSet and ExprFrozenSet.
type SetData struct {
	Elems []*Expr
}

func (SetData) exprData() {}

// Generator is one "for target in iter if cond..." clause of a
// comprehension. Target is an assignment target so tuple unpacking works.
type Generator struct {
	Target *AssignTarget
	Iter   *Expr
	Conds  []*Expr
}

// CompData holds data for ExprListComp, ExprSetComp and ExprGenExp.
type CompData struct {
	Elem       *Expr
	Generators []Generator
}

func (CompData) exprData() {}

// DictCompData holds data for ExprDictComp.
type DictCompData struct {
	Key        *Expr
	Value      *Expr
	Generators []Generator
}

func (DictCompData) exprData() {}

// LambdaData holds data for ExprLambda. Parameters are untyped; the emitter
// leans on Rust closure inference.
type LambdaData struct {
	Params []string
	Body   *Expr
}

func (LambdaData) exprData() {}

// ConditionalData holds data for ExprConditional.
type ConditionalData struct {
	Cond *Expr
	Then *Expr
	Else *Expr
}

func (ConditionalData) exprData() {}

// FStringPart is one segment of an f-string: literal text or an
// interpolated value with an optional format spec.
type FStringPart struct {
	Text  string
	Value *Expr // nil for a literal text part
	Spec  string
}

// FStringData holds data for ExprFString.
type FStringData struct {
	Parts []FStringPart
}

func (FStringData) exprData() {}

// WalrusData holds data for ExprWalrus.
type WalrusData struct {
	Name  string
	Value *Expr
}

func (WalrusData) exprData() {}

// StarredData holds data for ExprStarred.
type StarredData struct {
	Value *Expr
}

func (StarredData) exprData() {}

// YieldData holds data for ExprYield. Value is nil for a bare yield.
type YieldData struct {
	Value *Expr
}

func (YieldData) exprData() {}

// AwaitData holds data for ExprAwait.
type AwaitData struct {
	Value *Expr
}

func (AwaitData) exprData() {}
