package driver

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"
)

// summaryPathWidth bounds the rendered path column.
const summaryPathWidth = 48

var (
	summaryTitleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("7"))
	summaryOkStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	summaryWarnStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("3"))
	summaryFailStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
	summaryDimStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
)

// Summary renders a batch run as a per-file table plus totals.
func Summary(results []FileResult) string {
	var b strings.Builder
	b.WriteString(summaryTitleStyle.Render("translation summary"))
	b.WriteByte('\n')

	var ok, warned, failed, hits int
	for _, r := range results {
		status, style := statusOf(r)
		switch status {
		case "failed":
			failed++
		case "warned":
			warned++
		default:
			ok++
		}
		if r.CacheHit {
			hits++
		}

		path := runewidth.Truncate(r.Path, summaryPathWidth, "…")
		pad := strings.Repeat(" ", summaryPathWidth-runewidth.StringWidth(path))
		b.WriteString("  ")
		b.WriteString(path)
		b.WriteString(pad)
		b.WriteString("  ")
		b.WriteString(style.Render(status))
		if note := statusNote(r); note != "" {
			b.WriteString("  ")
			b.WriteString(summaryDimStyle.Render(note))
		}
		b.WriteByte('\n')
	}

	totals := fmt.Sprintf("%d ok, %d with warnings, %d failed", ok, warned, failed)
	if hits > 0 {
		totals += fmt.Sprintf(" (%d cached)", hits)
	}
	b.WriteString(summaryDimStyle.Render(totals))
	b.WriteByte('\n')
	return b.String()
}

func statusOf(r FileResult) (string, lipgloss.Style) {
	switch {
	case r.Err != nil:
		return "failed", summaryFailStyle
	case r.Output != nil && r.Output.Diagnostics.HasErrors():
		return "failed", summaryFailStyle
	case r.Output != nil && r.Output.Diagnostics.HasWarnings():
		return "warned", summaryWarnStyle
	default:
		return "ok", summaryOkStyle
	}
}

func statusNote(r FileResult) string {
	if r.Err != nil {
		return r.Err.Error()
	}
	if r.Output == nil {
		return ""
	}
	var parts []string
	if n := r.Output.Diagnostics.Len(); n > 0 {
		parts = append(parts, fmt.Sprintf("%d diagnostics", n))
	}
	if n := len(r.Output.Applied); n > 0 {
		parts = append(parts, fmt.Sprintf("%d transforms", n))
	}
	if r.CacheHit {
		parts = append(parts, "cached")
	}
	return strings.Join(parts, ", ")
}
