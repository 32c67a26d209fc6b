// Package diag defines the diagnostic model shared by all translation phases.
//
// Diagnostic is the central record: severity, a stable numeric code, a short
// message, a primary span into the original Python source, and optional notes.
// Phases emit through a Reporter so producers stay decoupled from storage and
// formatting; BagReporter aggregates into a Bag, which supports sorting,
// deduplication and merge.
//
// The model is deliberately data-only and deterministic so the driver can
// serialise diagnostics for caching and the CLI can render them after the
// fact. Rendering lives in render.go and is the only place that touches the
// terminal.
package diag
