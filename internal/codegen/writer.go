package codegen

import (
	"fmt"
	"strings"
)

// Writer accumulates emitted target source with canonical indentation.
type Writer struct {
	buf         []byte
	indentLevel int
	atLineStart bool
}

// NewWriter returns an empty writer positioned at a line start.
func NewWriter() *Writer {
	return &Writer{atLineStart: true}
}

// String returns the accumulated output.
func (w *Writer) String() string {
	return string(w.buf)
}

func (w *Writer) writeIndent() {
	if !w.atLineStart {
		return
	}
	for i := 0; i < w.indentLevel; i++ {
		w.buf = append(w.buf, ' ', ' ', ' ', ' ')
	}
	w.atLineStart = false
}

// WriteString writes s, applying pending indentation first.
func (w *Writer) WriteString(s string) {
	if s == "" {
		return
	}
	w.writeIndent()
	w.buf = append(w.buf, s...)
	w.atLineStart = s[len(s)-1] == '\n'
}

// Writef is WriteString over a formatted string.
func (w *Writer) Writef(format string, args ...any) {
	w.WriteString(fmt.Sprintf(format, args...))
}

// Line writes s followed by a newline.
func (w *Writer) Line(s string) {
	w.WriteString(s)
	w.Newline()
}

// Linef is Line over a formatted string.
func (w *Writer) Linef(format string, args ...any) {
	w.Line(fmt.Sprintf(format, args...))
}

// Newline terminates the current line.
func (w *Writer) Newline() {
	w.buf = append(w.buf, '\n')
	w.atLineStart = true
}

// BlankLine ensures exactly one empty line separates sections.
func (w *Writer) BlankLine() {
	if len(w.buf) == 0 {
		return
	}
	if !w.atLineStart {
		w.Newline()
	}
	if !strings.HasSuffix(string(w.buf), "\n\n") {
		w.buf = append(w.buf, '\n')
	}
	w.atLineStart = true
}

// IndentPush increases the indentation level.
func (w *Writer) IndentPush() { w.indentLevel++ }

// IndentPop decreases the indentation level.
func (w *Writer) IndentPop() {
	if w.indentLevel > 0 {
		w.indentLevel--
	}
}

// OpenBlock writes " {" and indents.
func (w *Writer) OpenBlock() {
	w.WriteString(" {")
	w.Newline()
	w.IndentPush()
}

// OpenBlockBare writes "{" on its own line and indents, for blocks that do
// not continue a header.
func (w *Writer) OpenBlockBare() {
	w.WriteString("{")
	w.Newline()
	w.IndentPush()
}

// CloseBlock dedents and writes "}".
func (w *Writer) CloseBlock() {
	w.IndentPop()
	w.Line("}")
}

// CloseBlockHanging dedents and writes "}" without ending the line, so a
// continuation like "else" can follow on the same line.
func (w *Writer) CloseBlockHanging() {
	w.IndentPop()
	w.WriteString("}")
}
