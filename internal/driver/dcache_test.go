package driver

import (
	"testing"

	"pylift/internal/diag"
	"pylift/internal/source"
)

func openTestCache(t *testing.T) *DiskCache {
	t.Helper()
	t.Setenv("XDG_CACHE_HOME", t.TempDir())
	c, err := OpenDiskCache("pylift-test")
	if err != nil {
		t.Fatal(err)
	}
	return c
}

func TestCacheRoundTrip(t *testing.T) {
	c := openTestCache(t)

	bag := diag.NewBag(8)
	bag.Add(diag.Diagnostic{
		Severity: diag.SevWarning,
		Code:     diag.GenUnsupportedConstruct,
		Message:  "something odd",
		Primary:  source.Span{File: 3, Start: 10, End: 20},
	})
	out := &Output{Code: "pub fn f() {}", Applied: []string{"constant_folding"}, Diagnostics: bag}

	key := CacheKey([]byte("input"), Config{})
	if err := c.Put(key, out); err != nil {
		t.Fatal(err)
	}

	got, ok, err := c.Get(key, source.FileID(7), 8)
	if err != nil {
		t.Fatal(err)
	}
	if !ok {
		t.Fatal("expected a cache hit")
	}
	if got.Code != out.Code {
		t.Errorf("code mismatch: %q", got.Code)
	}
	if len(got.Applied) != 1 || got.Applied[0] != "constant_folding" {
		t.Errorf("applied list mismatch: %v", got.Applied)
	}
	items := got.Diagnostics.Items()
	if len(items) != 1 {
		t.Fatalf("diagnostics not restored: %v", items)
	}
	d := items[0]
	if d.Code != diag.GenUnsupportedConstruct || d.Message != "something odd" {
		t.Errorf("diagnostic mismatch: %+v", d)
	}
	if d.Primary.File != 7 || d.Primary.Start != 10 || d.Primary.End != 20 {
		t.Errorf("span not rebound to the current file: %+v", d.Primary)
	}
}

func TestCacheKeySeparatesConfigs(t *testing.T) {
	input := []byte("same input")
	plain := CacheKey(input, Config{})
	strict := CacheKey(input, Config{Strict: true})
	if plain == strict {
		t.Fatal("strictness did not change the key")
	}
	single := CacheKey(input, Config{SingleShot: true})
	if plain == single || strict == single {
		t.Fatal("single-shot did not change the key")
	}
}

func TestCacheMissOnUnknownKey(t *testing.T) {
	c := openTestCache(t)
	_, ok, err := c.Get(CacheKey([]byte("never stored"), Config{}), 0, 8)
	if err != nil {
		t.Fatal(err)
	}
	if ok {
		t.Fatal("hit for a key that was never stored")
	}
}

func TestNilCacheIsInert(t *testing.T) {
	var c *DiskCache
	if err := c.Put(Key{}, &Output{Code: "x"}); err != nil {
		t.Fatal(err)
	}
	_, ok, err := c.Get(Key{}, 0, 8)
	if err != nil {
		t.Fatal(err)
	}
	if ok {
		t.Fatal("nil cache reported a hit")
	}
}

func TestDropAllInvalidates(t *testing.T) {
	c := openTestCache(t)
	key := CacheKey([]byte("input"), Config{})
	if err := c.Put(key, &Output{Code: "x"}); err != nil {
		t.Fatal(err)
	}
	if err := c.DropAll(); err != nil {
		t.Fatal(err)
	}
	_, ok, err := c.Get(key, 0, 8)
	if err != nil {
		t.Fatal(err)
	}
	if ok {
		t.Fatal("entry survived DropAll")
	}
}
