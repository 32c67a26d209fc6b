package postproc

import "strings"

// booleanNamePrefixes mark identifiers that read as booleans; negating them
// is left alone.
var booleanNamePrefixes = []string{"is_", "has_", "should_", "can_", "enable"}

// FixTruthiness rewrites negated bare identifiers in condition position to
// emptiness checks: "if !xs {" becomes "if xs.is_empty() {". Identifiers on
// the boolean-name guard list, and identifiers the file declares with a bool
// type, keep their negation. The rewrite only fires on the exact if/while
// shapes the emitter produces for untyped conditions.
func FixTruthiness(src string) string {
	bools := declaredBools(src)
	lines := strings.Split(src, "\n")
	for i, line := range lines {
		lines[i] = fixTruthinessLine(line, bools)
	}
	return strings.Join(lines, "\n")
}

func fixTruthinessLine(line string, bools map[string]bool) string {
	trimmed := strings.TrimLeft(line, " ")
	indent := line[:len(line)-len(trimmed)]
	for _, kw := range []string{"if !", "while !"} {
		rest, ok := strings.CutPrefix(trimmed, kw)
		if !ok {
			continue
		}
		ident, tail, ok := strings.Cut(rest, " ")
		if !ok || tail != "{" || !isPlainIdent(ident) || looksBoolean(ident) || bools[ident] {
			continue
		}
		head := strings.TrimSuffix(kw, "!")
		return indent + head + ident + ".is_empty() {"
	}
	return line
}

// declaredBools collects every identifier the file binds with an explicit
// bool type, from parameter lists, struct fields, and annotated lets.
func declaredBools(src string) map[string]bool {
	bools := map[string]bool{}
	rest := src
	for {
		idx := strings.Index(rest, ": bool")
		if idx < 0 {
			return bools
		}
		if name := identBefore(rest[:idx]); name != "" {
			bools[name] = true
		}
		rest = rest[idx+len(": bool"):]
	}
}

// identBefore returns the identifier ending at the tail of s, if any.
func identBefore(s string) string {
	end := len(s)
	start := end
	for start > 0 {
		c := s[start-1]
		if c == '_' || c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9' {
			start--
			continue
		}
		break
	}
	if start == end {
		return ""
	}
	name := s[start:end]
	if name[0] >= '0' && name[0] <= '9' {
		return ""
	}
	return name
}

func looksBoolean(ident string) bool {
	for _, p := range booleanNamePrefixes {
		if strings.HasPrefix(ident, p) {
			return true
		}
	}
	return false
}

func isPlainIdent(s string) bool {
	if s == "" {
		return false
	}
	for i, c := range s {
		switch {
		case c == '_', c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z':
		case c >= '0' && c <= '9':
			if i == 0 {
				return false
			}
		default:
			return false
		}
	}
	return true
}
