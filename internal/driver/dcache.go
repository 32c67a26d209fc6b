package driver

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/vmihailenco/msgpack/v5"

	"pylift/internal/diag"
	"pylift/internal/source"
)

// diskCacheSchemaVersion invalidates stale payloads after format changes.
const diskCacheSchemaVersion uint16 = 1

// Key addresses one cached translation: sha256 over the raw input bytes and
// the config fingerprint.
type Key [sha256.Size]byte

// CacheKey derives the cache address for one input under one config.
func CacheKey(input []byte, cfg Config) Key {
	h := sha256.New()
	h.Write(input)
	h.Write([]byte{0})
	_, _ = io.WriteString(h, cfg.fingerprint())
	var k Key
	copy(k[:], h.Sum(nil))
	return k
}

// DiskCache stores translated outputs as msgpack files under the user cache
// directory. A nil cache is valid and caches nothing.
type DiskCache struct {
	mu  sync.RWMutex
	dir string
}

// OpenDiskCache opens (creating when needed) the cache directory for app,
// honoring XDG_CACHE_HOME with a ~/.cache fallback.
func OpenDiskCache(app string) (*DiskCache, error) {
	root := os.Getenv("XDG_CACHE_HOME")
	if root == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("resolve cache dir: %w", err)
		}
		root = filepath.Join(home, ".cache")
	}
	dir := filepath.Join(root, app, "out")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create cache dir: %w", err)
	}
	return &DiskCache{dir: dir}, nil
}

func (c *DiskCache) pathFor(key Key) string {
	return filepath.Join(c.dir, hex.EncodeToString(key[:])+".mp")
}

// diskDiag is the serialized form of one diagnostic. File IDs are run-local
// and are not stored; Get rebinds spans to the current file.
type diskDiag struct {
	Code     uint16
	Severity uint8
	Message  string
	Start    uint32
	End      uint32
}

// diskPayload is the on-disk shape of one Output.
type diskPayload struct {
	Schema  uint16
	Code    string
	Applied []string
	Diags   []diskDiag
}

// Put stores an output under key. The write is atomic: encode to a temp
// file, then rename into place.
func (c *DiskCache) Put(key Key, out *Output) error {
	if c == nil || out == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	tmp, err := os.CreateTemp(c.dir, "put-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	enc := msgpack.NewEncoder(tmp)
	if err := enc.Encode(outputToDiskPayload(out)); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return err
	}
	return os.Rename(tmpName, c.pathFor(key))
}

// Get loads the output stored under key, rebinding diagnostic spans to
// file. The first return reports whether the entry existed and decoded
// against the current schema.
func (c *DiskCache) Get(key Key, file source.FileID, maxDiagnostics int) (*Output, bool, error) {
	if c == nil {
		return nil, false, nil
	}
	c.mu.RLock()
	defer c.mu.RUnlock()

	f, err := os.Open(c.pathFor(key))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, false, nil
		}
		return nil, false, err
	}
	defer func() {
		_ = f.Close()
	}()

	var p diskPayload
	if err := msgpack.NewDecoder(f).Decode(&p); err != nil {
		return nil, false, err
	}
	if p.Schema != diskCacheSchemaVersion {
		return nil, false, nil
	}
	return diskPayloadToOutput(&p, file, maxDiagnostics), true, nil
}

// DropAll invalidates the whole cache, useful after format changes. The
// directory is renamed first so concurrent readers never see a half-empty
// cache.
func (c *DiskCache) DropAll() error {
	if c == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	old := c.dir + ".old-" + time.Now().Format("20060102150405")
	if err := os.Rename(c.dir, old); err != nil {
		return err
	}
	if err := os.MkdirAll(c.dir, 0o755); err != nil {
		return err
	}
	return os.RemoveAll(old)
}

func outputToDiskPayload(out *Output) *diskPayload {
	p := &diskPayload{
		Schema:  diskCacheSchemaVersion,
		Code:    out.Code,
		Applied: out.Applied,
	}
	if out.Diagnostics != nil {
		for _, d := range out.Diagnostics.Items() {
			p.Diags = append(p.Diags, diskDiag{
				Code:     uint16(d.Code),
				Severity: uint8(d.Severity),
				Message:  d.Message,
				Start:    d.Primary.Start,
				End:      d.Primary.End,
			})
		}
	}
	return p
}

func diskPayloadToOutput(p *diskPayload, file source.FileID, maxDiagnostics int) *Output {
	if maxDiagnostics <= 0 {
		maxDiagnostics = defaultMaxDiagnostics
	}
	bag := diag.NewBag(maxDiagnostics)
	for _, d := range p.Diags {
		bag.Add(diag.Diagnostic{
			Severity: diag.Severity(d.Severity),
			Code:     diag.Code(d.Code),
			Message:  d.Message,
			Primary:  source.Span{File: file, Start: d.Start, End: d.End},
		})
	}
	return &Output{Code: p.Code, Applied: p.Applied, Diagnostics: bag}
}
