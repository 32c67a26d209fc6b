package diag

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/mattn/go-runewidth"

	"pylift/internal/source"
)

var (
	errColor  = color.New(color.FgRed, color.Bold)
	warnColor = color.New(color.FgYellow, color.Bold)
	infoColor = color.New(color.FgCyan, color.Bold)
	dimColor  = color.New(color.Faint)
)

// Render writes diagnostics in a compact terminal form:
//
//	ERROR PL4000: unsupported construct: metaclass [input.py:12:5]
//	   12 | class Meta(type):
//	      |       ^^^^
//
// Colors follow the package-level color settings (color.NoColor disables
// them globally; the CLI toggles that from --color).
func Render(w io.Writer, bag *Bag, fs *source.FileSet) {
	for _, d := range bag.Items() {
		renderOne(w, d, fs)
	}
}

func renderOne(w io.Writer, d Diagnostic, fs *source.FileSet) {
	sev := d.Severity.String()
	switch d.Severity {
	case SevError:
		sev = errColor.Sprint(sev)
	case SevWarning:
		sev = warnColor.Sprint(sev)
	default:
		sev = infoColor.Sprint(sev)
	}

	loc := ""
	var line string
	var start source.LineCol
	if fs != nil && !d.Primary.Empty() {
		f := fs.Get(d.Primary.File)
		start, _ = fs.Resolve(d.Primary)
		loc = dimColor.Sprintf(" [%s:%d:%d]", f.Path, start.Line, start.Col)
		line = f.GetLine(start.Line)
	}
	fmt.Fprintf(w, "%s %s: %s%s\n", sev, d.Code, d.Message, loc)

	if line != "" {
		fmt.Fprintf(w, "%5d | %s\n", start.Line, line)
		fmt.Fprintf(w, "      | %s%s\n", caretPad(line, int(start.Col)-1), caret(d.Primary.Len()))
	}
	for _, n := range d.Notes {
		fmt.Fprintf(w, "      = note: %s\n", n.Msg)
	}
}

// caretPad builds the whitespace run preceding the caret, accounting for
// wide runes and tabs in the quoted source line.
func caretPad(line string, col int) string {
	if col <= 0 {
		return ""
	}
	var b strings.Builder
	for i, r := range line {
		if i >= col {
			break
		}
		if r == '\t' {
			b.WriteByte('\t')
			continue
		}
		b.WriteString(strings.Repeat(" ", runewidth.RuneWidth(r)))
	}
	return b.String()
}

func caret(n uint32) string {
	if n == 0 {
		n = 1
	}
	if n > 40 {
		n = 40
	}
	return strings.Repeat("^", int(n))
}
