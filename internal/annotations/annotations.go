// Package annotations models the structured transpilation annotations a
// function can carry (# pylift: key=value comment lines in the original
// source, already collected into a string map by the frontend).
package annotations

import (
	"fmt"
	"strconv"
)

// OptLevel gates which optimizer transforms may run.
type OptLevel uint8

const (
	// OptNone disables the optimizer entirely (default).
	OptNone OptLevel = iota
	// OptConservative allows folding and dead-code elimination only.
	OptConservative
	// OptStandard adds strength reduction (currently inert).
	OptStandard
	// OptAggressive adds loop unrolling.
	OptAggressive
)

func (l OptLevel) String() string {
	switch l {
	case OptNone:
		return "none"
	case OptConservative:
		return "conservative"
	case OptStandard:
		return "standard"
	case OptAggressive:
		return "aggressive"
	default:
		return fmt.Sprintf("OptLevel(%d)", l)
	}
}

// BoundsMode selects how indexed accesses are emitted.
type BoundsMode uint8

const (
	// BoundsChecked emits panicking index checks (default).
	BoundsChecked BoundsMode = iota
	// BoundsExplicit emits .get() with error propagation.
	BoundsExplicit
	// BoundsUnchecked is recorded but never honored; the hook exists for a
	// future unsafe mode.
	BoundsUnchecked
)

// PerformanceHint is a recorded-but-advisory request.
type PerformanceHint uint8

const (
	HintVectorize PerformanceHint = iota
	HintInline
	HintUnroll
	HintNoBoundsCheck
)

func (h PerformanceHint) String() string {
	switch h {
	case HintVectorize:
		return "vectorize"
	case HintInline:
		return "inline"
	case HintUnroll:
		return "unroll"
	case HintNoBoundsCheck:
		return "no_bounds_check"
	default:
		return fmt.Sprintf("PerformanceHint(%d)", h)
	}
}

// Set is the per-function annotation record attached to HIR functions.
type Set struct {
	Opt          OptLevel
	Bounds       BoundsMode
	Hints        []PerformanceHint
	UnrollFactor int  // 0 means "not requested"
	StrictTypes  bool // reject Unknown in signatures
}

// Default returns the zero annotation set (optimizer off, bounds checked).
func Default() Set {
	return Set{}
}

// ParseOptLevel maps a level name to its OptLevel. The manifest and the
// per-function annotations share this vocabulary.
func ParseOptLevel(value string) (OptLevel, error) {
	switch value {
	case "", "none":
		return OptNone, nil
	case "conservative":
		return OptConservative, nil
	case "standard":
		return OptStandard, nil
	case "aggressive":
		return OptAggressive, nil
	default:
		return OptNone, fmt.Errorf("unknown level %q", value)
	}
}

// Parse builds a Set from the raw key/value pairs the frontend collected.
// Unknown keys are ignored; malformed values produce an error naming the key
// so the diagnostic can point at the annotation line.
func Parse(raw map[string]string) (Set, error) {
	s := Default()
	for key, value := range raw {
		switch key {
		case "optimize":
			level, err := ParseOptLevel(value)
			if err != nil {
				return s, fmt.Errorf("annotation optimize: %w", err)
			}
			s.Opt = level
		case "bounds":
			switch value {
			case "checked":
				s.Bounds = BoundsChecked
			case "explicit":
				s.Bounds = BoundsExplicit
			case "unchecked":
				s.Bounds = BoundsUnchecked
			default:
				return s, fmt.Errorf("annotation bounds: unknown mode %q", value)
			}
		case "unroll":
			n, err := strconv.Atoi(value)
			if err != nil || n < 1 {
				return s, fmt.Errorf("annotation unroll: factor must be a positive integer, got %q", value)
			}
			s.UnrollFactor = n
			s.Hints = append(s.Hints, HintUnroll)
		case "hint":
			switch value {
			case "vectorize":
				s.Hints = append(s.Hints, HintVectorize)
			case "inline":
				s.Hints = append(s.Hints, HintInline)
			case "no_bounds_check":
				s.Hints = append(s.Hints, HintNoBoundsCheck)
			default:
				return s, fmt.Errorf("annotation hint: unknown hint %q", value)
			}
		case "strict_types":
			s.StrictTypes = value == "true" || value == "on"
		}
	}
	return s, nil
}

// HasHint reports whether h was requested.
func (s Set) HasHint(h PerformanceHint) bool {
	for _, got := range s.Hints {
		if got == h {
			return true
		}
	}
	return false
}
