package driver

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeBatchInputs(t *testing.T) (string, []string) {
	t.Helper()
	dir := t.TempDir()
	good := filepath.Join(dir, "a.json")
	bad := filepath.Join(dir, "b.json")
	if err := os.WriteFile(good, []byte(moduleJSON), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(bad, []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}
	return dir, []string{good, bad}
}

func TestListModulesFindsAndSorts(t *testing.T) {
	dir, paths := writeBatchInputs(t)
	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("skip me"), 0o644); err != nil {
		t.Fatal(err)
	}
	got, err := ListModules(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 || got[0] != paths[0] || got[1] != paths[1] {
		t.Fatalf("unexpected listing %v", got)
	}
}

func TestTranspileFilesMixedOutcomes(t *testing.T) {
	_, paths := writeBatchInputs(t)

	_, results, err := TranspileFiles(context.Background(), paths, testConfig(), nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}

	good := results[0]
	if good.Err != nil {
		t.Fatalf("good unit failed: %v", good.Err)
	}
	if good.Output == nil || !strings.Contains(good.Output.Code, "pub fn double") {
		t.Fatalf("good unit produced no usable output")
	}

	bad := results[1]
	if bad.Err == nil {
		t.Fatal("malformed unit did not fail")
	}
	if bad.Output != nil {
		t.Fatal("malformed unit produced output")
	}
}

func TestTranspileFilesUsesCache(t *testing.T) {
	_, paths := writeBatchInputs(t)
	cache := openTestCache(t)
	good := paths[:1]

	_, first, err := TranspileFiles(context.Background(), good, testConfig(), cache, nil)
	if err != nil {
		t.Fatal(err)
	}
	if first[0].CacheHit {
		t.Fatal("first run cannot be a cache hit")
	}

	_, second, err := TranspileFiles(context.Background(), good, testConfig(), cache, nil)
	if err != nil {
		t.Fatal(err)
	}
	if !second[0].CacheHit {
		t.Fatal("second run missed the cache")
	}
	if second[0].Output.Code != first[0].Output.Code {
		t.Fatal("cached output differs from the computed one")
	}
}

func TestTranspileFilesNoCacheFlag(t *testing.T) {
	_, paths := writeBatchInputs(t)
	cache := openTestCache(t)
	good := paths[:1]

	cfg := testConfig()
	cfg.NoCache = true
	if _, _, err := TranspileFiles(context.Background(), good, cfg, cache, nil); err != nil {
		t.Fatal(err)
	}
	if _, results, err := TranspileFiles(context.Background(), good, cfg, cache, nil); err != nil {
		t.Fatal(err)
	} else if results[0].CacheHit {
		t.Fatal("NoCache run reported a cache hit")
	}
}

func TestTranspileFilesEmitsEvents(t *testing.T) {
	_, paths := writeBatchInputs(t)

	events := make(chan Event, 16)
	collected := make(chan []Event, 1)
	go func() {
		var seen []Event
		for ev := range events {
			seen = append(seen, ev)
		}
		collected <- seen
	}()

	_, _, err := TranspileFiles(context.Background(), paths, testConfig(), nil, events)
	if err != nil {
		t.Fatal(err)
	}
	seen := <-collected

	byStage := make(map[Stage]int)
	for _, ev := range seen {
		byStage[ev.Stage]++
	}
	if byStage[StageQueued] != 2 {
		t.Errorf("queued events = %d, want 2", byStage[StageQueued])
	}
	if byStage[StageDone] != 1 || byStage[StageFailed] != 1 {
		t.Errorf("terminal events mismatch: %v", byStage)
	}
}

func TestTranspileFilesHonorsCancellation(t *testing.T) {
	_, paths := writeBatchInputs(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, _, err := TranspileFiles(ctx, paths[:1], testConfig(), nil, nil)
	if err == nil {
		t.Fatal("cancelled batch reported success")
	}
}
