package project

import (
	"os"
	"path/filepath"
	"testing"

	"pylift/internal/annotations"
)

const sampleManifest = `
[project]
name = "demo"
out_dir = "rust"

[translate]
strict = true
opt = "standard"
emit_shim = true
jobs = 2
`

func writeManifest(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, ManifestName)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadManifest(t *testing.T) {
	path := writeManifest(t, t.TempDir(), sampleManifest)
	m, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if m.Project.Name != "demo" || m.Project.OutDir != "rust" {
		t.Errorf("project section mismatch: %+v", m.Project)
	}
	if !m.Translate.Strict || !m.Translate.EmitShim || m.Translate.Jobs != 2 {
		t.Errorf("translate section mismatch: %+v", m.Translate)
	}
	level, err := m.OptLevel()
	if err != nil {
		t.Fatal(err)
	}
	if level != annotations.OptStandard {
		t.Errorf("opt level = %v, want standard", level)
	}
}

func TestLoadRejectsUnknownOptLevel(t *testing.T) {
	path := writeManifest(t, t.TempDir(), "[translate]\nopt = \"ludicrous\"\n")
	if _, err := Load(path); err == nil {
		t.Fatal("unknown opt level accepted")
	}
}

func TestEmptyManifestUsesDefaults(t *testing.T) {
	path := writeManifest(t, t.TempDir(), "")
	m, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	level, err := m.OptLevel()
	if err != nil {
		t.Fatal(err)
	}
	if level != annotations.OptNone {
		t.Errorf("default opt level = %v, want none", level)
	}
}

func TestFindManifestWalksUp(t *testing.T) {
	root := t.TempDir()
	writeManifest(t, root, sampleManifest)
	nested := filepath.Join(root, "a", "b")
	if err := os.MkdirAll(nested, 0o755); err != nil {
		t.Fatal(err)
	}

	path, ok, err := FindManifest(nested)
	if err != nil {
		t.Fatal(err)
	}
	if !ok {
		t.Fatal("manifest not found from nested directory")
	}
	if filepath.Dir(path) != root {
		t.Errorf("found %q, want it under %q", path, root)
	}

	dir, ok, err := FindProjectRoot(nested)
	if err != nil || !ok {
		t.Fatalf("project root not found: ok=%t err=%v", ok, err)
	}
	if dir != root {
		t.Errorf("root = %q, want %q", dir, root)
	}
}

func TestLoadNearestWithoutManifest(t *testing.T) {
	m, root, err := LoadNearest(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	if root != "" {
		t.Errorf("unexpected root %q", root)
	}
	if m.Translate.Strict {
		t.Error("zero manifest is not default")
	}
}
