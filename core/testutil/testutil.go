// Package testutil holds helpers shared by the archive and repository tests.
package testutil

import (
	"maps"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/opencontainers/go-digest"
)

// MockCache implements a basic concurrency-safe cache for tests.
type MockCache struct {
	mu   sync.RWMutex
	data map[digest.Digest][]byte
	max  int64

	hits atomic.Int64
	puts atomic.Int64
}

// NewMockCache constructs an empty in-memory cache.
func NewMockCache() *MockCache {
	return &MockCache{data: make(map[digest.Digest][]byte)}
}

// Get returns a copy of the cached content for d.
func (c *MockCache) Get(d digest.Digest) ([]byte, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	data, ok := c.data[d]
	if !ok {
		return nil, false
	}
	c.hits.Add(1)
	return slices.Clone(data), true
}

// Put stores a copy of content under d.
func (c *MockCache) Put(d digest.Digest, content []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[d] = slices.Clone(content)
	c.puts.Add(1)
	return nil
}

// Delete removes cached content for d.
func (c *MockCache) Delete(d digest.Digest) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.data, d)
	return nil
}

// MaxBytes returns the configured cache size limit (0 = unlimited).
func (c *MockCache) MaxBytes() int64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.max
}

// SizeBytes returns the current cache size in bytes.
func (c *MockCache) SizeBytes() int64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	var total int64
	for _, data := range c.data {
		total += int64(len(data))
	}
	return total
}

// Prune removes cached entries until the cache is at or below targetBytes.
func (c *MockCache) Prune(targetBytes int64) (int64, error) {
	if targetBytes < 0 {
		targetBytes = 0
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	var total int64
	for _, data := range c.data {
		total += int64(len(data))
	}
	var freed int64
	for _, key := range slices.Sorted(maps.Keys(c.data)) {
		if total <= targetBytes {
			break
		}
		size := int64(len(c.data[key]))
		delete(c.data, key)
		total -= size
		freed += size
	}
	return freed, nil
}

// Set overwrites the cached content for d without counting a put.
// Tests use it to plant corrupted entries.
func (c *MockCache) Set(d digest.Digest, content []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[d] = content
}

// Hits returns the number of successful Get calls.
func (c *MockCache) Hits() int64 {
	return c.hits.Load()
}

// Puts returns the number of Put calls.
func (c *MockCache) Puts() int64 {
	return c.puts.Load()
}

// WriteFiles creates the given files under dir, creating parent directories.
// Keys are slash-separated relative paths.
func WriteFiles(tb testing.TB, dir string, files map[string]string) {
	tb.Helper()
	for name, content := range files {
		path := filepath.Join(dir, filepath.FromSlash(name))
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			tb.Fatalf("mkdir %s: %v", name, err)
		}
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			tb.Fatalf("write %s: %v", name, err)
		}
	}
}

// FlipByte inverts the byte at off in the file at path.
func FlipByte(tb testing.TB, path string, off int64) {
	tb.Helper()
	f, err := os.OpenFile(path, os.O_RDWR, 0)
	if err != nil {
		tb.Fatalf("open %s: %v", path, err)
	}
	defer f.Close()

	var b [1]byte
	if _, err := f.ReadAt(b[:], off); err != nil {
		tb.Fatalf("read %s at %d: %v", path, off, err)
	}
	b[0] ^= 0xff
	if _, err := f.WriteAt(b[:], off); err != nil {
		tb.Fatalf("write %s at %d: %v", path, off, err)
	}
}

// FileSize returns the size of the file at path.
func FileSize(tb testing.TB, path string) int64 {
	tb.Helper()
	info, err := os.Stat(path)
	if err != nil {
		tb.Fatalf("stat %s: %v", path, err)
	}
	return info.Size()
}
