package postproc

import "strings"

// FixBitwiseConditions rewrites a bare bitwise-and in condition position to
// an explicit comparison: "if a & b {" becomes "if (a & b) != 0 {". The
// source language treats any nonzero result as true; the target requires a
// bool. Conditions that already compare, or that use &&, are left alone.
func FixBitwiseConditions(src string) string {
	lines := strings.Split(src, "\n")
	for i, line := range lines {
		lines[i] = fixBitwiseLine(line)
	}
	return strings.Join(lines, "\n")
}

func fixBitwiseLine(line string) string {
	trimmed := strings.TrimLeft(line, " ")
	indent := line[:len(line)-len(trimmed)]
	for _, kw := range []string{"if ", "while "} {
		cond, ok := strings.CutPrefix(trimmed, kw)
		if !ok {
			continue
		}
		cond, hadBrace := strings.CutSuffix(cond, " {")
		if !hadBrace || !isBareBitwiseAnd(cond) {
			continue
		}
		return indent + kw + "(" + cond + ") != 0 {"
	}
	return line
}

// isBareBitwiseAnd reports a condition of the form "a & b" with no logical
// operators and no comparison already present.
func isBareBitwiseAnd(cond string) bool {
	if !strings.Contains(cond, " & ") {
		return false
	}
	for _, stop := range []string{"&&", "||", "==", "!=", "<", ">", "!"} {
		if strings.Contains(cond, stop) {
			return false
		}
	}
	return true
}
