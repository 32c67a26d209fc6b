package diag

import (
	"fmt"
)

type Code uint16

const (
	UnknownCode Code = 0

	// Input / HIR decoding (1000-1099)
	InputBadEncoding    Code = 1000
	InputBadKind        Code = 1001
	InputDuplicateName  Code = 1002
	InputMissingField   Code = 1003
	InputBadAnnotation  Code = 1004
	InputBadTypeLiteral Code = 1005

	// Type mapping (2000-2099)
	MapUnresolvedVar   Code = 2000 // unification variable escaped inference
	MapUnrepresentable Code = 2001 // no Rust form for the type expression
	MapBadArraySize    Code = 2002

	// Borrow / mutation analysis (3000-3099)
	BorrowFixpointDiverged Code = 3000 // iteration cap hit; analysis bug
	BorrowUnknownCallee    Code = 3001

	// Code generation (4000-4099)
	GenUnsupportedConstruct Code = 4000
	GenInvariantViolation   Code = 4001
	GenExceptionChainLost   Code = 4002 // raise ... from dropped (error type has no source)
	GenNestedTupleTarget    Code = 4003
	GenFunctionSkipped      Code = 4004 // function emission aborted, module continued

	// Optimization (5000-5099)
	OptApplied      Code = 5000
	OptZeroDivision Code = 5001 // constant-folded division by zero

	// Post-processing / formatting (6000-6099)
	FmtUnavailable Code = 6000 // rustfmt missing or failed; output unformatted
	FmtTimeout     Code = 6001
)

func (c Code) String() string {
	return fmt.Sprintf("PL%04d", uint16(c))
}

// Component returns the pipeline component that owns the code. Invariant
// violations carry this in their message so bug reports name the pass.
func (c Code) Component() string {
	switch {
	case c >= 1000 && c < 2000:
		return "input"
	case c >= 2000 && c < 3000:
		return "typemap"
	case c >= 3000 && c < 4000:
		return "borrow"
	case c >= 4000 && c < 5000:
		return "codegen"
	case c >= 5000 && c < 6000:
		return "optimize"
	case c >= 6000 && c < 7000:
		return "postproc"
	}
	return "unknown"
}
