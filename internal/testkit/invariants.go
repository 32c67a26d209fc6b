// Package testkit holds invariant checks shared by package tests.
package testkit

import (
	"fmt"

	"fortio.org/safecast"

	"pylift/internal/source"
)

// CheckBalancedDelimiters verifies that parentheses, brackets and braces in
// emitted source pair up, skipping string literals, char literals and line
// comments. Emission bugs that truncate a block trip this before rustc
// would.
func CheckBalancedDelimiters(src string) error {
	var stack []byte
	runes := []rune(src)
	for i := 0; i < len(runes); i++ {
		switch runes[i] {
		case '"':
			i = skipString(runes, i)
			if i < 0 {
				return fmt.Errorf("unterminated string literal")
			}
		case '\'':
			// Lifetime names ('a) have no closing quote; only consume a
			// char literal when one actually closes.
			if j := skipCharLiteral(runes, i); j > i {
				i = j
			}
		case '/':
			if i+1 < len(runes) && runes[i+1] == '/' {
				for i < len(runes) && runes[i] != '\n' {
					i++
				}
			}
		case '(', '[', '{':
			stack = append(stack, byte(runes[i]))
		case ')', ']', '}':
			if len(stack) == 0 {
				return fmt.Errorf("unmatched %q at offset %d", runes[i], i)
			}
			open := stack[len(stack)-1]
			if closerFor(open) != byte(runes[i]) {
				return fmt.Errorf("mismatched %q for %q at offset %d", runes[i], open, i)
			}
			stack = stack[:len(stack)-1]
		}
	}
	if len(stack) > 0 {
		return fmt.Errorf("%d unclosed delimiters, innermost %q", len(stack), stack[len(stack)-1])
	}
	return nil
}

func closerFor(open byte) byte {
	switch open {
	case '(':
		return ')'
	case '[':
		return ']'
	default:
		return '}'
	}
}

// skipString returns the index of the closing quote, or -1.
func skipString(runes []rune, start int) int {
	for i := start + 1; i < len(runes); i++ {
		switch runes[i] {
		case '\\':
			i++
		case '"':
			return i
		}
	}
	return -1
}

// skipCharLiteral returns the index of the closing quote of a char literal
// starting at start, or start when the quote opens a lifetime instead.
func skipCharLiteral(runes []rune, start int) int {
	i := start + 1
	if i >= len(runes) {
		return start
	}
	if runes[i] == '\\' {
		i++
	}
	i++
	if i < len(runes) && runes[i] == '\'' {
		return i
	}
	return start
}

// CheckSpanInFile verifies a diagnostic span stays inside its file's
// content. Cached or rebound spans that drift out of range render garbage
// carets; tests catch that here.
func CheckSpanInFile(span source.Span, f *source.File) error {
	if f == nil {
		return fmt.Errorf("nil file")
	}
	if span.File != f.ID {
		return fmt.Errorf("span file mismatch: got=%d want=%d", span.File, f.ID)
	}
	if span.End < span.Start {
		return fmt.Errorf("inverted span: %v", span)
	}
	lenContent, err := safecast.Conv[uint32](len(f.Content))
	if err != nil {
		return fmt.Errorf("len content overflow: %w", err)
	}
	if span.End > lenContent {
		return fmt.Errorf("span end beyond content: %d > %d", span.End, lenContent)
	}
	return nil
}
