package codegen

// ScopeTracker answers "has this name been declared" at two granularities:
// anywhere on the stack, or in the innermost scope only. The emitter uses
// the first to decide let vs. reassignment and the second to decide
// shadowing.
type ScopeTracker struct {
	scopes []map[string]bool
}

// NewScopeTracker returns a tracker with one open scope.
func NewScopeTracker() *ScopeTracker {
	return &ScopeTracker{scopes: []map[string]bool{{}}}
}

// Enter pushes a new innermost scope.
func (s *ScopeTracker) Enter() {
	s.scopes = append(s.scopes, map[string]bool{})
}

// Exit pops the innermost scope; the outermost scope is never popped.
func (s *ScopeTracker) Exit() {
	if len(s.scopes) > 1 {
		s.scopes = s.scopes[:len(s.scopes)-1]
	}
}

// Declare records name in the innermost scope.
func (s *ScopeTracker) Declare(name string) {
	s.scopes[len(s.scopes)-1][name] = true
}

// IsDeclared reports whether name is visible in any open scope.
func (s *ScopeTracker) IsDeclared(name string) bool {
	for i := len(s.scopes) - 1; i >= 0; i-- {
		if s.scopes[i][name] {
			return true
		}
	}
	return false
}

// IsDeclaredInCurrent reports whether name was declared in the innermost
// scope.
func (s *ScopeTracker) IsDeclaredInCurrent(name string) bool {
	return s.scopes[len(s.scopes)-1][name]
}

// Depth returns the number of open scopes.
func (s *ScopeTracker) Depth() int {
	return len(s.scopes)
}
