// Package pyrt carries the Python-compat runtime shim shipped next to
// emitted output. The shim is a single Rust file embedded at build time.
package pyrt

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
)

//go:embed pyrt.rs
var shim []byte

// FileName is the shim's on-disk name; emitted modules reference it as
// "mod pyrt;".
const FileName = "pyrt.rs"

// Source returns the embedded shim text.
func Source() []byte {
	return shim
}

// WriteBeside writes the shim into the directory holding outPath and
// returns the written path. An existing shim is overwritten so stale copies
// never shadow the embedded version.
func WriteBeside(outPath string) (string, error) {
	dst := filepath.Join(filepath.Dir(outPath), FileName)
	if err := os.WriteFile(dst, shim, 0o644); err != nil {
		return "", fmt.Errorf("write runtime shim: %w", err)
	}
	return dst, nil
}
