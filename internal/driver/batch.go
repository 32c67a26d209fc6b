package driver

import (
	"context"
	"io/fs"
	"path/filepath"
	"runtime"
	"sort"
	"strings"

	"golang.org/x/sync/errgroup"

	"pylift/internal/source"
)

// Stage identifies a unit's position in the batch lifecycle.
type Stage uint8

const (
	StageQueued Stage = iota
	StageRunning
	StageDone
	StageCached
	StageFailed
)

// Event is one progress notification from a batch run.
type Event struct {
	Path  string
	Stage Stage
	Err   error
}

// FileResult is the outcome of one batch unit.
type FileResult struct {
	Path     string
	FileID   source.FileID
	Output   *Output
	Err      error
	CacheHit bool
}

// ListModules returns the sorted list of serialized module files under dir.
func ListModules(dir string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && strings.HasSuffix(path, ".json") {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(files)
	return files, nil
}

// TranspileFiles translates every path as an independent unit, in parallel.
// Files are loaded into the file set up front; unit indexes are disjoint so
// the workers never contend. Results keep the input order. Load and
// translation failures land in the per-file result; only cancellation
// surfaces as the batch error. A non-nil events channel receives progress
// notifications and is closed when the batch finishes.
func TranspileFiles(ctx context.Context, paths []string, cfg Config, cache *DiskCache, events chan<- Event) (*source.FileSet, []FileResult, error) {
	cfg = cfg.Normalize()
	if cfg.NoCache {
		cache = nil
	}
	if events != nil {
		defer close(events)
	}
	notify := func(ev Event) {
		if events != nil {
			events <- ev
		}
	}

	fileSet := source.NewFileSet()
	results := make([]FileResult, len(paths))
	for i, path := range paths {
		results[i].Path = path
		id, err := fileSet.Load(path)
		if err != nil {
			results[i].Err = err
			notify(Event{Path: path, Stage: StageFailed, Err: err})
			continue
		}
		results[i].FileID = id
		notify(Event{Path: path, Stage: StageQueued})
	}

	jobs := cfg.Jobs
	if jobs <= 0 {
		jobs = runtime.GOMAXPROCS(0)
	}
	if jobs > len(paths) {
		jobs = len(paths)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(jobs)
	for i := range results {
		if results[i].Err != nil {
			continue
		}
		r := &results[i]
		g.Go(func() error {
			select {
			case <-gctx.Done():
				return gctx.Err()
			default:
			}
			notify(Event{Path: r.Path, Stage: StageRunning})
			transpileUnit(r, fileSet, cfg, cache)
			notify(Event{Path: r.Path, Stage: unitStage(r), Err: r.Err})
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return fileSet, results, err
	}
	return fileSet, results, nil
}

func unitStage(r *FileResult) Stage {
	switch {
	case r.Err != nil:
		return StageFailed
	case r.CacheHit:
		return StageCached
	default:
		return StageDone
	}
}

// transpileUnit runs one file through the cache and the pipeline.
func transpileUnit(r *FileResult, fileSet *source.FileSet, cfg Config, cache *DiskCache) {
	content := fileSet.Get(r.FileID).Content
	key := CacheKey(content, cfg)

	if out, ok, err := cache.Get(key, r.FileID, cfg.MaxDiagnostics); err == nil && ok {
		r.Output = out
		r.CacheHit = true
		return
	}

	out, err := TranspileData(content, r.FileID, cfg)
	if err != nil {
		r.Err = err
		return
	}
	r.Output = out
	// A failed store only costs the next run a recompute.
	_ = cache.Put(key, out)
}
