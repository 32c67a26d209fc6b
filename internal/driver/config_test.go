package driver

import (
	"testing"

	"pylift/internal/annotations"
	"pylift/internal/project"
)

func TestFromManifest(t *testing.T) {
	m := project.Manifest{}
	m.Translate.Strict = true
	m.Translate.Opt = "aggressive"
	m.Translate.EmitShim = true
	m.Translate.Jobs = 3

	cfg, err := FromManifest(m)
	if err != nil {
		t.Fatal(err)
	}
	if !cfg.Strict || !cfg.EmitShim || cfg.Jobs != 3 {
		t.Errorf("manifest fields not carried over: %+v", cfg)
	}
	if cfg.OptLevel != annotations.OptAggressive {
		t.Errorf("opt level = %v, want aggressive", cfg.OptLevel)
	}
	if cfg.MaxDiagnostics != defaultMaxDiagnostics {
		t.Errorf("defaults not normalized: %+v", cfg)
	}
}

func TestFromManifestRejectsBadOpt(t *testing.T) {
	m := project.Manifest{}
	m.Translate.Opt = "warp"
	if _, err := FromManifest(m); err == nil {
		t.Fatal("bad opt level accepted")
	}
}

func TestFingerprintSeparatesKnobs(t *testing.T) {
	base := Config{}.fingerprint()
	for _, cfg := range []Config{
		{Strict: true},
		{SingleShot: true},
		{SkipFormat: true},
		{OptLevel: annotations.OptStandard},
		{FormatterPath: "/opt/rustfmt"},
	} {
		if cfg.fingerprint() == base {
			t.Errorf("fingerprint ignores %+v", cfg)
		}
	}
}
