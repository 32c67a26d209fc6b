package codegen

// ExceptionScopeKind distinguishes the frames of the exception stack.
type ExceptionScopeKind uint8

const (
	// ScopeTryCaught means code runs inside a try whose handlers are known.
	ScopeTryCaught ExceptionScopeKind = iota
	// ScopeHandler means code runs inside an except body.
	ScopeHandler
)

// ExceptionScope is one stack frame. For ScopeTryCaught, Handled lists the
// exception type names the surrounding handlers accept; empty means a bare
// except that catches everything.
type ExceptionScope struct {
	Kind    ExceptionScopeKind
	Handled []string
}

// CatchesAll reports whether the frame is a bare except.
func (s ExceptionScope) CatchesAll() bool {
	return s.Kind == ScopeTryCaught && len(s.Handled) == 0
}

type exceptionStack struct {
	frames []ExceptionScope
}

// Current returns the innermost frame; ok is false outside any try.
func (st *exceptionStack) Current() (ExceptionScope, bool) {
	if len(st.frames) == 0 {
		return ExceptionScope{}, false
	}
	return st.frames[len(st.frames)-1], true
}

// InTryBlock reports whether the innermost frame is a try body.
func (st *exceptionStack) InTryBlock() bool {
	cur, ok := st.Current()
	return ok && cur.Kind == ScopeTryCaught
}

// IsHandled reports whether a raise of the named type is caught by any
// enclosing try frame.
func (st *exceptionStack) IsHandled(typeName string) bool {
	for i := len(st.frames) - 1; i >= 0; i-- {
		f := st.frames[i]
		if f.Kind != ScopeTryCaught {
			continue
		}
		if len(f.Handled) == 0 {
			return true
		}
		for _, h := range f.Handled {
			if h == typeName {
				return true
			}
		}
	}
	return false
}

// EnterTry pushes a try frame with the handlers' accepted types.
func (st *exceptionStack) EnterTry(handled []string) {
	st.frames = append(st.frames, ExceptionScope{Kind: ScopeTryCaught, Handled: handled})
}

// EnterHandler pushes an except-body frame.
func (st *exceptionStack) EnterHandler() {
	st.frames = append(st.frames, ExceptionScope{Kind: ScopeHandler})
}

// Exit pops the innermost frame.
func (st *exceptionStack) Exit() {
	if len(st.frames) > 0 {
		st.frames = st.frames[:len(st.frames)-1]
	}
}

// Depth returns the nesting depth.
func (st *exceptionStack) Depth() int {
	return len(st.frames)
}
