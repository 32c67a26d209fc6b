package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"pylift/internal/driver"
	"pylift/internal/source"
	"pylift/internal/ui"
)

var batchCmd = &cobra.Command{
	Use:   "batch [flags] <directory>",
	Short: "Translate every serialized module under a directory",
	Args:  cobra.ExactArgs(1),
	RunE:  runBatch,
}

func init() {
	addTranslateFlags(batchCmd)
	batchCmd.Flags().String("out-dir", "", "directory for .rs files (default: next to each input)")
	batchCmd.Flags().String("ui", "auto", "interactive progress (auto|on|off)")
}

func runBatch(cmd *cobra.Command, args []string) error {
	cfg, manifest, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	outDir, _ := cmd.Flags().GetString("out-dir")
	if outDir == "" {
		outDir = manifest.Project.OutDir
	}
	uiMode, _ := cmd.Flags().GetString("ui")
	useTUI, err := shouldUseTUI(uiMode)
	if err != nil {
		return err
	}

	paths, err := driver.ListModules(args[0])
	if err != nil {
		return err
	}
	if len(paths) == 0 {
		if !isQuiet(cmd) {
			fmt.Fprintf(cmd.OutOrStdout(), "no modules under %s\n", args[0])
		}
		return nil
	}

	cache := openCache(cmd, cfg)
	ctx := cmd.Context()

	var results []driver.FileResult
	if useTUI {
		_, results, err = runBatchWithProgress(ctx, paths, cfg, cache)
	} else {
		_, results, err = driver.TranspileFiles(ctx, paths, cfg, cache, nil)
	}
	if err != nil {
		return err
	}

	failed := writeBatchOutputs(results, outDir, cfg.EmitShim)
	if !isQuiet(cmd) {
		fmt.Fprint(cmd.OutOrStdout(), driver.Summary(results))
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d modules failed", failed, len(results))
	}
	return nil
}

func runBatchWithProgress(ctx context.Context, paths []string, cfg driver.Config, cache *driver.DiskCache) (*source.FileSet, []driver.FileResult, error) {
	events := make(chan driver.Event, 4*len(paths))

	type batchDone struct {
		fileSet *source.FileSet
		results []driver.FileResult
		err     error
	}
	done := make(chan batchDone, 1)
	go func() {
		fs, results, err := driver.TranspileFiles(ctx, paths, cfg, cache, events)
		done <- batchDone{fileSet: fs, results: results, err: err}
	}()

	prog := tea.NewProgram(ui.NewProgressModel("translating modules", paths, events))
	if _, err := prog.Run(); err != nil {
		// Progress is cosmetic; keep draining so the workers can finish.
		for range events {
		}
	}
	res := <-done
	return res.fileSet, res.results, res.err
}

// writeBatchOutputs writes every successful unit and returns the failure
// count. Write failures mark the unit failed in place.
func writeBatchOutputs(results []driver.FileResult, outDir string, emitShim bool) int {
	failed := 0
	for i := range results {
		r := &results[i]
		if r.Err != nil || r.Output == nil {
			failed++
			continue
		}
		outPath := outputName(r.Path)
		if outDir != "" {
			if err := os.MkdirAll(outDir, 0o755); err != nil {
				r.Err = err
				failed++
				continue
			}
			outPath = filepath.Join(outDir, filepath.Base(outPath))
		}
		if _, err := driver.WriteOutput(r.Output, outPath, emitShim); err != nil {
			r.Err = err
			failed++
			continue
		}
		if r.Output.Diagnostics.HasErrors() {
			failed++
		}
	}
	return failed
}

func shouldUseTUI(mode string) (bool, error) {
	switch strings.TrimSpace(strings.ToLower(mode)) {
	case "", "auto":
		return isTerminal(os.Stdout), nil
	case "on":
		return true, nil
	case "off":
		return false, nil
	default:
		return false, fmt.Errorf("invalid --ui value %q (expected auto|on|off)", mode)
	}
}
