package sanitize

import (
	"strings"
	"testing"
)

func TestStripsThirdPartyUseLines(t *testing.T) {
	src := strings.Join([]string{
		"use serde_json;",
		"use regex::Regex;",
		"use clap::Parser;",
		"use std::collections::HashMap;",
		"fn main() {}",
	}, "\n")
	out := Sanitize(src)
	for _, banned := range []string{"serde_json", "use regex", "clap"} {
		if strings.Contains(out, banned) {
			t.Errorf("output still references %q:\n%s", banned, out)
		}
	}
	if !strings.Contains(out, "use std::collections::HashMap;") {
		t.Error("std import was stripped")
	}
}

func TestSerializationBecomesDebugFormat(t *testing.T) {
	out := Sanitize(`let s = serde_json::to_string(&value).unwrap();`)
	want := `let s = format!("{:?}", value);`
	if !strings.Contains(out, want) {
		t.Fatalf("got %q, want it to contain %q", out, want)
	}
}

func TestClapDeriveBecomesPlainStruct(t *testing.T) {
	src := strings.Join([]string{
		"use clap::Parser;",
		"#[derive(clap::Parser, Debug)]",
		"pub struct Args {",
		`    #[arg(long, help = "count")]`,
		"    pub count: i64,",
		"}",
		"let args = Args::parse();",
	}, "\n")
	out := Sanitize(src)
	if strings.Contains(out, "clap") {
		t.Fatalf("clap survives:\n%s", out)
	}
	if !strings.Contains(out, "#[derive(Debug, Default)]") {
		t.Fatalf("derive not downgraded:\n%s", out)
	}
	if !strings.Contains(out, "Args::default()") {
		t.Fatalf("parse call not replaced:\n%s", out)
	}
	if strings.Contains(out, "#[arg(") {
		t.Fatalf("arg attribute survives:\n%s", out)
	}
}

func TestHashingFallsBackToDefaultHasher(t *testing.T) {
	src := strings.Join([]string{
		"use sha2::{Digest, Sha256};",
		"let mut hasher = Sha256::new();",
		"hasher.update(data);",
		"let digest = hasher.finalize();",
	}, "\n")
	out := Sanitize(src)
	if strings.Contains(out, "Sha256") || strings.Contains(out, "sha2") {
		t.Fatalf("sha2 survives:\n%s", out)
	}
	for _, want := range []string{
		"use std::collections::hash_map::DefaultHasher;",
		"DefaultHasher::new()",
		"hasher.write(",
		"hasher.finish()",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("missing %q:\n%s", want, out)
		}
	}
}

func TestRegexBecomesPlaceholder(t *testing.T) {
	out := Sanitize(`let re = Regex::new("abc").unwrap();`)
	if !strings.Contains(out, "PlaceholderRegex::new(") {
		t.Fatalf("regex call not replaced:\n%s", out)
	}
	if !strings.Contains(out, "struct PlaceholderRegex") {
		t.Fatalf("placeholder definition missing:\n%s", out)
	}
}

func TestSanitizeIdempotent(t *testing.T) {
	src := strings.Join([]string{
		"use clap::Parser;",
		"let s = serde_json::to_string(&v).unwrap();",
		`let re = Regex::new("x").unwrap();`,
		"let mut hasher = Sha256::new();",
	}, "\n")
	first := Sanitize(src)
	second := Sanitize(first)
	if first != second {
		t.Fatalf("not idempotent:\n%q\n%q", first, second)
	}
}
