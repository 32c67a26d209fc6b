package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"pylift/internal/diag"
	"pylift/internal/diagfmt"
	"pylift/internal/driver"
	"pylift/internal/source"
	"pylift/internal/version"
)

var transpileCmd = &cobra.Command{
	Use:   "transpile [flags] <module.json>",
	Short: "Translate one serialized module to Rust",
	Args:  cobra.ExactArgs(1),
	RunE:  runTranspile,
}

func init() {
	addTranslateFlags(transpileCmd)
	transpileCmd.Flags().StringP("output", "o", "", "output path (default: input with .rs extension)")
	transpileCmd.Flags().String("format", "pretty", "diagnostics format (pretty|json|sarif)")
	transpileCmd.Flags().Bool("timings", false, "show per-phase timings")
}

func runTranspile(cmd *cobra.Command, args []string) error {
	cfg, _, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	format, _ := cmd.Flags().GetString("format")
	switch format {
	case "pretty", "json", "sarif":
	default:
		return fmt.Errorf("unsupported format %q (must be pretty, json or sarif)", format)
	}

	inPath := args[0]
	fileSet := source.NewFileSet()
	id, err := fileSet.Load(inPath)
	if err != nil {
		return err
	}
	content := fileSet.Get(id).Content

	cache := openCache(cmd, cfg)
	key := driver.CacheKey(content, cfg)

	out, hit, err := cache.Get(key, id, cfg.MaxDiagnostics)
	if err != nil || !hit {
		out, err = driver.TranspileData(content, id, cfg)
		if err != nil {
			return err
		}
		_ = cache.Put(key, out)
	}

	outPath, _ := cmd.Flags().GetString("output")
	if outPath == "" {
		outPath = outputName(inPath)
	}
	if _, err := driver.WriteOutput(out, outPath, cfg.EmitShim); err != nil {
		return err
	}

	if err := renderDiagnostics(cmd, format, out.Diagnostics, fileSet); err != nil {
		return err
	}
	if timings, _ := cmd.Flags().GetBool("timings"); timings && !isQuiet(cmd) {
		printTimings(cmd, out)
	}
	if !isQuiet(cmd) {
		note := ""
		if hit {
			note = " (cached)"
		}
		fmt.Fprintf(cmd.OutOrStdout(), "wrote %s%s\n", outPath, note)
	}

	if out.Diagnostics.HasErrors() {
		return fmt.Errorf("translation finished with errors")
	}
	return nil
}

// outputName swaps the input extension for .rs.
func outputName(inPath string) string {
	base := strings.TrimSuffix(inPath, ".json")
	return base + ".rs"
}

func renderDiagnostics(cmd *cobra.Command, format string, bag *diag.Bag, fs *source.FileSet) error {
	if bag.Len() == 0 && format == "pretty" {
		return nil
	}
	switch format {
	case "json":
		return diagfmt.JSON(cmd.OutOrStdout(), bag, fs)
	case "sarif":
		return diagfmt.Sarif(cmd.OutOrStdout(), bag, fs, diagfmt.SarifRunMeta{
			ToolName:    "pylift",
			ToolVersion: version.Version,
		})
	default:
		diag.Render(cmd.ErrOrStderr(), bag, fs)
		return nil
	}
}

func printTimings(cmd *cobra.Command, out *driver.Output) {
	fmt.Fprintln(cmd.OutOrStdout(), "timings:")
	for _, p := range out.Timing.Phases {
		line := fmt.Sprintf("  %-20s %7.2f ms", p.Name, p.DurationMS)
		if p.Note != "" {
			line += "  // " + p.Note
		}
		fmt.Fprintln(cmd.OutOrStdout(), line)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "  %-20s %7.2f ms\n", "total", out.Timing.TotalMS)
}
