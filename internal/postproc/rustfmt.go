package postproc

import (
	"bytes"
	"context"
	"errors"
	"os/exec"
	"strings"
	"time"

	"pylift/internal/diag"
	"pylift/internal/source"
)

// DefaultFormatTimeout bounds one rustfmt invocation.
const DefaultFormatTimeout = 10 * time.Second

// Options configures the post-processing pass.
type Options struct {
	// FormatterPath overrides the rustfmt binary; empty means $PATH lookup.
	FormatterPath string
	// SkipFormat applies only the string rules.
	SkipFormat bool
	// Timeout for the formatter subprocess; zero means DefaultFormatTimeout.
	Timeout time.Duration
}

// Process runs the closed rule list and then rustfmt. Formatter failure is
// reported and never fatal; the rule-normalized text is returned as-is.
func Process(src string, opts Options, rep diag.Reporter) string {
	src = NormalizeSpacing(src)
	src = FixTruthiness(src)
	src = FixBitwiseConditions(src)
	if opts.SkipFormat {
		return src
	}
	return runFormatter(src, opts, rep)
}

func runFormatter(src string, opts Options, rep diag.Reporter) string {
	path := opts.FormatterPath
	if path == "" {
		path = "rustfmt"
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultFormatTimeout
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, path, "--edition", "2021", "--emit", "stdout")
	cmd.Stdin = strings.NewReader(src)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		rep.Report(diag.FmtTimeout, diag.SevInfo, source.Span{},
			"rustfmt timed out; output left unformatted", nil)
		return src
	}
	if err != nil {
		msg := "rustfmt unavailable or failed; output left unformatted"
		if s := strings.TrimSpace(stderr.String()); s != "" {
			msg += ": " + firstLine(s)
		}
		rep.Report(diag.FmtUnavailable, diag.SevInfo, source.Span{}, msg, nil)
		return src
	}
	out := stdout.String()
	if strings.TrimSpace(out) == "" {
		return src
	}
	return out
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
