package driver

import (
	"fmt"
	"os"

	"pylift/internal/annotations"
	"pylift/internal/borrow"
	"pylift/internal/codegen"
	"pylift/internal/diag"
	"pylift/internal/hir"
	"pylift/internal/observ"
	"pylift/internal/optimize"
	"pylift/internal/postproc"
	"pylift/internal/pyrt"
	"pylift/internal/sanitize"
	"pylift/internal/source"
	"pylift/internal/typemap"
)

// Output is the result of translating one module.
type Output struct {
	// Code is the final Rust source text.
	Code string
	// Applied lists the optimizer transforms that ran, in order.
	Applied []string
	// Diagnostics collects everything the passes reported, sorted.
	Diagnostics *diag.Bag
	// Timing holds per-phase durations for this unit.
	Timing observ.Report
}

// Transpile runs the full pipeline over a decoded module: optimize, borrow
// fixpoint, emission, post-processing, and the sanitizer when single-shot
// output is requested. Function-level faults are recorded in the bag and
// leave the rest of the module intact.
func Transpile(mod *hir.Module, cfg Config) *Output {
	cfg = cfg.Normalize()
	bag := diag.NewBag(cfg.MaxDiagnostics)
	rep := diag.NewDedupReporter(diag.BagReporter{Bag: bag})
	timer := observ.NewTimer()

	phase := timer.Begin("optimize")
	applyOptDefault(mod, cfg.OptLevel)
	applied := optimize.Module(mod, rep, cfg.Strict)
	timer.End(phase, fmt.Sprintf("%d transforms", len(applied)))

	phase = timer.Begin("borrow")
	mapper := typemap.New()
	reg := borrow.AnalyzeModule(mod, mapper, rep)
	timer.End(phase, "")

	phase = timer.Begin("emit")
	code := codegen.Emit(mod, mapper, reg, rep, codegen.Config{
		SingleShot: cfg.SingleShot,
		Strict:     cfg.Strict,
	})
	timer.End(phase, "")

	phase = timer.Begin("postproc")
	code = postproc.Process(code, postproc.Options{
		FormatterPath: cfg.FormatterPath,
		SkipFormat:    cfg.SkipFormat,
	}, rep)
	if cfg.SingleShot {
		code = sanitize.Sanitize(code)
	}
	timer.End(phase, "")

	bag.Sort()
	return &Output{Code: code, Applied: applied, Diagnostics: bag, Timing: timer.Report()}
}

// TranspileData decodes a serialized module and transpiles it. The file ID
// anchors every span the passes report.
func TranspileData(data []byte, file source.FileID, cfg Config) (*Output, error) {
	mod, err := hir.DecodeModule(data, file)
	if err != nil {
		return nil, fmt.Errorf("decode module: %w", err)
	}
	return Transpile(mod, cfg), nil
}

// WriteOutput writes the translated source to outPath and, when asked, the
// runtime shim beside it. It returns the shim path when one was written.
func WriteOutput(out *Output, outPath string, emitShim bool) (string, error) {
	if err := os.WriteFile(outPath, []byte(out.Code), 0o644); err != nil {
		return "", fmt.Errorf("write output: %w", err)
	}
	if !emitShim {
		return "", nil
	}
	return pyrt.WriteBeside(outPath)
}

// applyOptDefault gives unannotated functions the run-level optimization
// level. Per-function annotations always win.
func applyOptDefault(mod *hir.Module, level annotations.OptLevel) {
	if level == annotations.OptNone {
		return
	}
	raise := func(f *hir.Func) {
		if f.Annotations.Opt == annotations.OptNone {
			f.Annotations.Opt = level
		}
	}
	for _, f := range mod.Functions {
		raise(f)
	}
	for _, c := range mod.Classes {
		for _, m := range c.Methods {
			raise(m)
		}
	}
}
