// Package borrow decides, for every function parameter, whether the emitted
// signature takes it by value, by shared reference, or by exclusive
// reference. The local analysis is syntax-directed over the HIR; a module
// level fixpoint then lifts callee mutation requirements into callers.
package borrow

// Pattern is the per-parameter ownership decision.
type Pattern uint8

const (
	// Owned takes the parameter by value.
	Owned Pattern = iota
	// Borrowed takes a shared reference.
	Borrowed
	// MutableBorrow takes an exclusive reference.
	MutableBorrow
)

func (p Pattern) String() string {
	switch p {
	case Owned:
		return "Owned"
	case Borrowed:
		return "Borrowed"
	case MutableBorrow:
		return "MutableBorrow"
	default:
		return "Unknown"
	}
}

// Prefix is the signature sigil for the pattern. Injective: the three
// patterns map onto "", "&" and "&mut " exactly.
func (p Pattern) Prefix() string {
	switch p {
	case Borrowed:
		return "&"
	case MutableBorrow:
		return "&mut "
	default:
		return ""
	}
}
