// Package driver orchestrates a translation run: it wires the optimizer,
// the borrow analysis, the emitter and the post-processing passes into one
// pipeline, runs batches in parallel, and caches per-file results on disk.
package driver

import (
	"fmt"

	"pylift/internal/annotations"
	"pylift/internal/project"
)

// defaultMaxDiagnostics bounds one unit's diagnostic bag.
const defaultMaxDiagnostics = 256

// Config is the per-run pipeline configuration. The zero value is a valid
// conservative run; Normalize fills the remaining defaults.
type Config struct {
	// Strict turns translation-time faults (constant zero division,
	// unresolved types) into errors instead of warnings.
	Strict bool
	// OptLevel is the default optimization level for functions that carry
	// no annotation of their own. Annotated functions keep their level.
	OptLevel annotations.OptLevel
	// SingleShot asks for standard-library-only output; the sanitizer pass
	// runs after emission.
	SingleShot bool
	// FormatterPath overrides the rustfmt binary; empty means $PATH lookup.
	FormatterPath string
	// SkipFormat disables the rustfmt subprocess entirely.
	SkipFormat bool
	// EmitShim writes the runtime shim next to the output file.
	EmitShim bool
	// MaxDiagnostics caps the diagnostics kept per unit; zero means the
	// default.
	MaxDiagnostics int
	// Jobs bounds batch parallelism; zero or negative means GOMAXPROCS.
	Jobs int
	// NoCache bypasses the disk cache for this run.
	NoCache bool
}

// FromManifest builds a run config from manifest defaults. CLI flags
// override individual fields afterwards.
func FromManifest(m project.Manifest) (Config, error) {
	level, err := m.OptLevel()
	if err != nil {
		return Config{}, err
	}
	return Config{
		Strict:        m.Translate.Strict,
		OptLevel:      level,
		SingleShot:    m.Translate.SingleShot,
		FormatterPath: m.Translate.Formatter,
		SkipFormat:    m.Translate.SkipFormat,
		EmitShim:      m.Translate.EmitShim,
		Jobs:          m.Translate.Jobs,
		NoCache:       m.Translate.NoCache,
	}.Normalize(), nil
}

// Normalize returns the config with defaults applied.
func (c Config) Normalize() Config {
	if c.MaxDiagnostics <= 0 {
		c.MaxDiagnostics = defaultMaxDiagnostics
	}
	return c
}

// fingerprint renders every output-affecting knob into a stable string. It
// feeds the cache key: two configs with equal fingerprints produce
// byte-identical output for the same input.
func (c Config) fingerprint() string {
	return fmt.Sprintf("strict=%t opt=%s single=%t skipfmt=%t fmt=%s",
		c.Strict, c.OptLevel, c.SingleShot, c.SkipFormat, c.FormatterPath)
}
