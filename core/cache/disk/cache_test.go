package disk

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/opencontainers/go-digest"
)

func TestCachePutGet(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	c, err := New(dir)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	content := []byte("hello")
	d := digest.FromBytes(content)

	if putErr := c.Put(d, content); putErr != nil {
		t.Fatalf("Put() error = %v", putErr)
	}

	got, ok := c.Get(d)
	if !ok {
		t.Fatal("Get() ok = false, want true")
	}
	if !bytes.Equal(got, content) {
		t.Fatalf("Get() content = %q, want %q", got, content)
	}
	if c.SizeBytes() != int64(len(content)) {
		t.Fatalf("SizeBytes() = %d, want %d", c.SizeBytes(), len(content))
	}

	encoded := d.Encoded()
	path := filepath.Join(dir, "sha256", encoded[:defaultShardPrefixLen], encoded)
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("expected cache file at %s: %v", path, err)
	}
}

func TestCacheMiss(t *testing.T) {
	t.Parallel()

	c, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if _, ok := c.Get(digest.FromString("absent")); ok {
		t.Fatal("Get() ok = true, want false")
	}
	if _, ok := c.Get(digest.Digest("not-a-digest")); ok {
		t.Fatal("Get() of invalid digest ok = true, want false")
	}
	if err := c.Put(digest.Digest("sha256:short"), []byte("x")); err == nil {
		t.Fatal("Put() of invalid digest error = nil, want error")
	}
}

func TestCacheShardDisable(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	c, err := New(dir, WithShardPrefixLen(0))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	content := []byte("flat")
	d := digest.FromBytes(content)
	if err := c.Put(d, content); err != nil {
		t.Fatalf("Put() error = %v", err)
	}

	path := filepath.Join(dir, "sha256", d.Encoded())
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("expected cache file at %s: %v", path, err)
	}
}

func TestNewEmptyDir(t *testing.T) {
	t.Parallel()

	if _, err := New(""); err == nil {
		t.Fatal("New() error = nil, want error")
	}
}

func TestCacheAlreadyCached(t *testing.T) {
	t.Parallel()

	c, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	content := []byte("cached twice")
	d := digest.FromBytes(content)

	if putErr := c.Put(d, content); putErr != nil {
		t.Fatalf("Put() error = %v", putErr)
	}
	// Second put is a no-op.
	if putErr := c.Put(d, content); putErr != nil {
		t.Fatalf("Put() error = %v (should be no-op)", putErr)
	}
	if c.SizeBytes() != int64(len(content)) {
		t.Fatalf("SizeBytes() = %d, want %d", c.SizeBytes(), len(content))
	}
}

func TestCacheDelete(t *testing.T) {
	t.Parallel()

	c, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	content := []byte("short lived")
	d := digest.FromBytes(content)
	if err := c.Put(d, content); err != nil {
		t.Fatalf("Put() error = %v", err)
	}
	if err := c.Delete(d); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, ok := c.Get(d); ok {
		t.Fatal("Get() after Delete ok = true, want false")
	}
	if c.SizeBytes() != 0 {
		t.Fatalf("SizeBytes() = %d, want 0", c.SizeBytes())
	}
	if err := c.Delete(d); err != nil {
		t.Fatalf("Delete() of missing entry error = %v", err)
	}
}

func TestCacheMaxBytesEvictsOldest(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	c, err := New(dir, WithMaxBytes(10))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	first := []byte("aaaaaa")
	second := []byte("bbbbbb")
	d1, d2 := digest.FromBytes(first), digest.FromBytes(second)

	if err := c.Put(d1, first); err != nil {
		t.Fatalf("Put() error = %v", err)
	}
	old := time.Now().Add(-time.Hour)
	encoded := d1.Encoded()
	if err := os.Chtimes(filepath.Join(dir, "sha256", encoded[:2], encoded), old, old); err != nil {
		t.Fatalf("Chtimes() error = %v", err)
	}

	if err := c.Put(d2, second); err != nil {
		t.Fatalf("Put() error = %v", err)
	}
	if _, ok := c.Get(d1); ok {
		t.Fatal("oldest entry survived pruning")
	}
	if _, ok := c.Get(d2); !ok {
		t.Fatal("newest entry missing")
	}
	if c.SizeBytes() > c.MaxBytes() {
		t.Fatalf("SizeBytes() = %d exceeds MaxBytes() = %d", c.SizeBytes(), c.MaxBytes())
	}

	// Content larger than the whole cache is skipped, not an error.
	big := bytes.Repeat([]byte("x"), 11)
	if err := c.Put(digest.FromBytes(big), big); err != nil {
		t.Fatalf("Put() of oversized content error = %v", err)
	}
	if _, ok := c.Get(digest.FromBytes(big)); ok {
		t.Fatal("oversized content was cached")
	}
}

func TestNewCountsExistingContent(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	c, err := New(dir)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	content := []byte("persisted")
	if err := c.Put(digest.FromBytes(content), content); err != nil {
		t.Fatalf("Put() error = %v", err)
	}

	reopened, err := New(dir)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if reopened.SizeBytes() != int64(len(content)) {
		t.Fatalf("SizeBytes() = %d, want %d", reopened.SizeBytes(), len(content))
	}
}
