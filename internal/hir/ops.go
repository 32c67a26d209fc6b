package hir

import "fmt"

// BinOp enumerates binary operators with Python semantics. FloorDiv and Pow
// need helper emission; the rest map to Rust operators directly.
type BinOp uint8

const (
	OpAdd BinOp = iota
	OpSub
	OpMul
	OpDiv
	OpFloorDiv
	OpMod
	OpPow
	OpMatMul
	OpBitAnd
	OpBitOr
	OpBitXor
	OpLShift
	OpRShift
)

func (op BinOp) String() string {
	switch op {
	case OpAdd:
		return "+"
	case OpSub:
		return "-"
	case OpMul:
		return "*"
	case OpDiv:
		return "/"
	case OpFloorDiv:
		return "//"
	case OpMod:
		return "%"
	case OpPow:
		return "**"
	case OpMatMul:
		return "@"
	case OpBitAnd:
		return "&"
	case OpBitOr:
		return "|"
	case OpBitXor:
		return "^"
	case OpLShift:
		return "<<"
	case OpRShift:
		return ">>"
	default:
		return fmt.Sprintf("BinOp(%d)", op)
	}
}

// UnaryOp enumerates unary operators.
type UnaryOp uint8

const (
	OpNot UnaryOp = iota
	OpNeg
	OpPos
	OpBitNot
)

func (op UnaryOp) String() string {
	switch op {
	case OpNot:
		return "not"
	case OpNeg:
		return "-"
	case OpPos:
		return "+"
	case OpBitNot:
		return "~"
	default:
		return fmt.Sprintf("UnaryOp(%d)", op)
	}
}

// CmpOp enumerates comparison operators; chained comparisons carry one per
// link.
type CmpOp uint8

const (
	CmpEq CmpOp = iota
	CmpNotEq
	CmpLt
	CmpLtEq
	CmpGt
	CmpGtEq
	CmpIs
	CmpIsNot
	CmpIn
	CmpNotIn
)

func (op CmpOp) String() string {
	switch op {
	case CmpEq:
		return "=="
	case CmpNotEq:
		return "!="
	case CmpLt:
		return "<"
	case CmpLtEq:
		return "<="
	case CmpGt:
		return ">"
	case CmpGtEq:
		return ">="
	case CmpIs:
		return "is"
	case CmpIsNot:
		return "is not"
	case CmpIn:
		return "in"
	case CmpNotIn:
		return "not in"
	default:
		return fmt.Sprintf("CmpOp(%d)", op)
	}
}

// BoolOpKind is the short-circuit operator of a BoolOp expression.
type BoolOpKind uint8

const (
	BoolAnd BoolOpKind = iota
	BoolOr
)

func (op BoolOpKind) String() string {
	if op == BoolAnd {
		return "and"
	}
	return "or"
}
