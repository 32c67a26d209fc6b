package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"pylift/internal/annotations"
	"pylift/internal/driver"
	"pylift/internal/project"
)

// addTranslateFlags registers the per-run knobs shared by transpile and
// batch. Defaults come from pylift.toml; a flag set on the command line
// wins.
func addTranslateFlags(c *cobra.Command) {
	c.Flags().Bool("strict", false, "treat translation-time faults as errors")
	c.Flags().String("opt", "none", "default optimization level (none|conservative|standard|aggressive)")
	c.Flags().Bool("single-shot", false, "emit standard-library-only output")
	c.Flags().String("formatter", "", "rustfmt binary override")
	c.Flags().Bool("skip-format", false, "do not run rustfmt")
	c.Flags().Bool("emit-shim", false, "write the runtime shim next to the output")
	c.Flags().Bool("no-cache", false, "bypass the disk cache")
	c.Flags().Int("jobs", 0, "max parallel workers (0=auto)")
}

// loadConfig merges the nearest manifest with the command's flags.
func loadConfig(cmd *cobra.Command) (driver.Config, project.Manifest, error) {
	manifest, _, err := project.LoadNearest(".")
	if err != nil {
		return driver.Config{}, project.Manifest{}, err
	}
	cfg, err := driver.FromManifest(manifest)
	if err != nil {
		return driver.Config{}, project.Manifest{}, err
	}

	f := cmd.Flags()
	if f.Changed("strict") {
		cfg.Strict, _ = f.GetBool("strict")
	}
	if f.Changed("opt") {
		raw, _ := f.GetString("opt")
		level, err := annotations.ParseOptLevel(raw)
		if err != nil {
			return driver.Config{}, project.Manifest{}, fmt.Errorf("--opt: %w", err)
		}
		cfg.OptLevel = level
	}
	if f.Changed("single-shot") {
		cfg.SingleShot, _ = f.GetBool("single-shot")
	}
	if f.Changed("formatter") {
		cfg.FormatterPath, _ = f.GetString("formatter")
	}
	if f.Changed("skip-format") {
		cfg.SkipFormat, _ = f.GetBool("skip-format")
	}
	if f.Changed("emit-shim") {
		cfg.EmitShim, _ = f.GetBool("emit-shim")
	}
	if f.Changed("no-cache") {
		cfg.NoCache, _ = f.GetBool("no-cache")
	}
	if f.Changed("jobs") {
		cfg.Jobs, _ = f.GetInt("jobs")
	}
	if max, err := cmd.Root().PersistentFlags().GetInt("max-diagnostics"); err == nil {
		cfg.MaxDiagnostics = max
	}
	return cfg.Normalize(), manifest, nil
}

// openCache returns the run's disk cache; a cache failure degrades to
// uncached operation instead of failing the run.
func openCache(cmd *cobra.Command, cfg driver.Config) *driver.DiskCache {
	if cfg.NoCache {
		return nil
	}
	cache, err := driver.OpenDiskCache("pylift")
	if err != nil {
		if !isQuiet(cmd) {
			fmt.Fprintf(cmd.ErrOrStderr(), "warning: disk cache unavailable: %v\n", err)
		}
		return nil
	}
	return cache
}
