// Package project reads the pylift.toml manifest: project-wide defaults for
// translation runs, discovered by walking up from the working directory.
package project

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"

	"pylift/internal/annotations"
)

// ManifestName is the file the root search looks for.
const ManifestName = "pylift.toml"

// Manifest mirrors the pylift.toml layout.
type Manifest struct {
	Project   ProjectSection   `toml:"project"`
	Translate TranslateSection `toml:"translate"`
}

// ProjectSection names the project and its output location.
type ProjectSection struct {
	Name string `toml:"name"`
	// OutDir receives the .rs files, relative to the manifest directory.
	OutDir string `toml:"out_dir"`
}

// TranslateSection carries the run defaults the CLI flags can override.
type TranslateSection struct {
	Strict     bool   `toml:"strict"`
	Opt        string `toml:"opt"`
	SingleShot bool   `toml:"single_shot"`
	Formatter  string `toml:"formatter"`
	SkipFormat bool   `toml:"skip_format"`
	EmitShim   bool   `toml:"emit_shim"`
	Jobs       int    `toml:"jobs"`
	NoCache    bool   `toml:"no_cache"`
}

// OptLevel resolves the manifest's opt string; empty means none.
func (m Manifest) OptLevel() (annotations.OptLevel, error) {
	level, err := annotations.ParseOptLevel(strings.TrimSpace(m.Translate.Opt))
	if err != nil {
		return annotations.OptNone, fmt.Errorf("[translate].opt: %w", err)
	}
	return level, nil
}

// Load parses a manifest file.
func Load(path string) (Manifest, error) {
	var m Manifest
	if _, err := toml.DecodeFile(path, &m); err != nil {
		return Manifest{}, fmt.Errorf("%s: failed to parse TOML: %w", path, err)
	}
	if _, err := m.OptLevel(); err != nil {
		return Manifest{}, fmt.Errorf("%s: %w", path, err)
	}
	return m, nil
}

// FindManifest walks up from startDir to locate pylift.toml.
func FindManifest(startDir string) (path string, ok bool, err error) {
	if startDir == "" {
		startDir = "."
	}
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", false, fmt.Errorf("failed to resolve start directory: %w", err)
	}
	for {
		candidate := filepath.Join(dir, ManifestName)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, true, nil
		} else if !errors.Is(err, os.ErrNotExist) {
			return "", false, fmt.Errorf("failed to stat %q: %w", candidate, err)
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return "", false, nil
}

// FindProjectRoot returns the directory containing pylift.toml, if any.
func FindProjectRoot(startDir string) (root string, ok bool, err error) {
	manifestPath, ok, err := FindManifest(startDir)
	if err != nil || !ok {
		return "", ok, err
	}
	return filepath.Dir(manifestPath), true, nil
}

// LoadNearest finds and loads the manifest governing startDir. A missing
// manifest is not an error; the zero Manifest carries the defaults.
func LoadNearest(startDir string) (Manifest, string, error) {
	path, ok, err := FindManifest(startDir)
	if err != nil || !ok {
		return Manifest{}, "", err
	}
	m, err := Load(path)
	if err != nil {
		return Manifest{}, "", err
	}
	return m, filepath.Dir(path), nil
}
