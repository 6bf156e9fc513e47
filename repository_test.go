package gud

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meigma/gud/core/testutil"
	"github.com/meigma/gud/internal/config"
	"github.com/meigma/gud/internal/lastcommit"
	"github.com/meigma/gud/internal/platform"
)

var testClock = time.Date(2025, 6, 1, 9, 30, 0, 0, time.UTC)

func initRepo(t *testing.T, files map[string]string) *Repository {
	t.Helper()
	dir := t.TempDir()
	testutil.WriteFiles(t, dir, files)
	r, err := Init(dir, WithClock(func() time.Time { return testClock }))
	require.NoError(t, err)
	return r
}

// reopen applies cfg and opens the repository again.
func reopen(t *testing.T, r *Repository, edit func(*config.Config)) *Repository {
	t.Helper()
	cfg := config.Default()
	edit(cfg)
	require.NoError(t, cfg.Save(r.metaPath(ConfigName)))
	r2, err := OpenRepository(r.Root(), WithClock(func() time.Time { return testClock }))
	require.NoError(t, err)
	return r2
}

func commitOK(t *testing.T, r *Repository, msg string) *CommitResult {
	t.Helper()
	res, err := r.Commit(context.Background(), msg)
	require.NoError(t, err)
	return res
}

func readOK(t *testing.T, r *Repository, version int, path string) string {
	t.Helper()
	got, err := r.ReadFile(version, path)
	require.NoError(t, err)
	return string(got)
}

func TestInitAndOpen(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	_, err := OpenRepository(dir)
	require.ErrorIs(t, err, ErrNotRepository)

	r, err := Init(dir)
	require.NoError(t, err)
	assert.DirExists(t, filepath.Join(dir, MetaDir))
	assert.FileExists(t, r.metaPath(ArchiveName))
	assert.FileExists(t, r.metaPath(ConfigName))

	_, err = Init(dir)
	require.ErrorIs(t, err, ErrAlreadyInitialized)

	r2, err := OpenRepository(dir)
	require.NoError(t, err)
	log, err := r2.Log()
	require.NoError(t, err)
	assert.Empty(t, log)
}

func TestCommitAndRead(t *testing.T) {
	t.Parallel()

	r := initRepo(t, map[string]string{
		"a.txt":     "one\ntwo\nthree\n",
		"dir/b.txt": "bee\n",
		"bin.dat":   "\x00\x01\x02",
	})

	res := commitOK(t, r, "first")
	assert.Equal(t, 0, res.Index)
	assert.Equal(t, uint64(0), res.Number)
	assert.Equal(t, []string{"a.txt", "bin.dat", "dir/b.txt"}, res.Added)
	assert.Equal(t, 3, res.Snapshots)
	assert.Zero(t, res.Patches)

	testutil.WriteFiles(t, r.Root(), map[string]string{
		"a.txt": "one\n2\nthree\nfour\n",
		"c.txt": "sea\n",
	})
	require.NoError(t, os.Remove(filepath.Join(r.Root(), "dir", "b.txt")))

	res = commitOK(t, r, "second")
	assert.Equal(t, 1, res.Index)
	assert.Equal(t, uint64(1), res.Number)
	assert.Equal(t, []string{"c.txt"}, res.Added)
	assert.Equal(t, []string{"a.txt"}, res.Modified)
	assert.Equal(t, []string{"bin.dat"}, res.Unchanged)
	assert.Equal(t, []string{"dir/b.txt"}, res.Deleted)
	assert.Equal(t, 1, res.Patches, "a.txt is patched")
	assert.Equal(t, 2, res.Snapshots, "binary and new files are snapshots")

	assert.Equal(t, "one\ntwo\nthree\n", readOK(t, r, 0, "a.txt"))
	assert.Equal(t, "one\n2\nthree\nfour\n", readOK(t, r, 1, "a.txt"))
	assert.Equal(t, "one\n2\nthree\nfour\n", readOK(t, r, -1, "a.txt"))
	assert.Equal(t, "bee\n", readOK(t, r, 0, "dir/b.txt"))
	assert.Equal(t, "\x00\x01\x02", readOK(t, r, 1, "bin.dat"))

	_, err := r.ReadFile(1, "dir/b.txt")
	require.ErrorIs(t, err, ErrNotFound)
	_, err = r.ReadFile(2, "a.txt")
	require.ErrorIs(t, err, ErrIndexOutOfRange)

	log, err := r.Log()
	require.NoError(t, err)
	require.Len(t, log, 2)
	assert.Equal(t, "first", log[0].Message)
	assert.Equal(t, "second", log[1].Message)
	assert.Equal(t, 3, log[1].Files)
	assert.True(t, log[1].Created.Equal(testClock), "created = %v", log[1].Created)
}

func TestCommitSnapshotInterval(t *testing.T) {
	t.Parallel()

	r := initRepo(t, map[string]string{"a.txt": "v0\n"})
	r = reopen(t, r, func(c *config.Config) { c.SnapshotInterval = 2 })

	var kinds []string
	for i := range 5 {
		if i > 0 {
			testutil.WriteFiles(t, r.Root(), map[string]string{"a.txt": "v" + string(rune('0'+i)) + "\n"})
		}
		res := commitOK(t, r, "c")
		if res.Patches == 1 {
			kinds = append(kinds, "patch")
		} else {
			kinds = append(kinds, "snapshot")
		}
	}
	assert.Equal(t, []string{"snapshot", "patch", "patch", "snapshot", "patch"}, kinds)

	for i := range 5 {
		assert.Equal(t, "v"+string(rune('0'+i))+"\n", readOK(t, r, i, "a.txt"))
	}
}

func TestCommitUnchangedTree(t *testing.T) {
	t.Parallel()

	r := initRepo(t, map[string]string{"a.txt": "same\n"})
	commitOK(t, r, "first")
	res := commitOK(t, r, "again")

	assert.Equal(t, []string{"a.txt"}, res.Unchanged)
	assert.Equal(t, 1, res.Patches)
	assert.Equal(t, "same\n", readOK(t, r, 1, "a.txt"))
}

func TestCommitIgnore(t *testing.T) {
	t.Parallel()

	r := initRepo(t, map[string]string{
		".gudignore":    "# logs\n*.log\n",
		"keep.txt":      "keep\n",
		"debug.log":     "noise\n",
		"build/out.bin": "artifact",
		"src/main.go":   "package main\n",
	})
	r = reopen(t, r, func(c *config.Config) { c.Ignore = []string{"build/"} })

	res := commitOK(t, r, "first")
	assert.Equal(t, []string{".gudignore", "keep.txt", "src/main.go"}, res.Added)
}

func TestCommitMaxFileSize(t *testing.T) {
	t.Parallel()

	r := initRepo(t, map[string]string{
		"small.txt": "ok\n",
		"big.txt":   "far too large\n",
	})
	r = reopen(t, r, func(c *config.Config) { c.MaxFileSize = 8 })

	res := commitOK(t, r, "first")
	assert.Equal(t, []string{"small.txt"}, res.Added)
	assert.Equal(t, []string{"big.txt"}, res.Skipped)

	_, err := r.ReadFile(0, "big.txt")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestCommitCanceled(t *testing.T) {
	t.Parallel()

	r := initRepo(t, map[string]string{"a.txt": "a\n"})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := r.Commit(ctx, "never")
	require.ErrorIs(t, err, context.Canceled)

	log, err := r.Log()
	require.NoError(t, err)
	assert.Empty(t, log)

	res := commitOK(t, r, "after cancel")
	assert.Equal(t, 0, res.Index)
}

func TestCommitLocked(t *testing.T) {
	t.Parallel()
	if runtime.GOOS == "windows" {
		t.Skip("advisory locks are not supported on windows")
	}

	r := initRepo(t, map[string]string{"a.txt": "a\n"})
	held, err := platform.TryLock(r.metaPath(LockName))
	require.NoError(t, err)

	_, err = r.Commit(context.Background(), "blocked")
	require.ErrorIs(t, err, ErrLocked)

	require.NoError(t, held.Unlock())
	commitOK(t, r, "unblocked")
}

func TestCommitRebuildsManifest(t *testing.T) {
	t.Parallel()

	r := initRepo(t, map[string]string{"a.txt": "one\n"})
	commitOK(t, r, "first")
	testutil.WriteFiles(t, r.Root(), map[string]string{"a.txt": "one\ntwo\n"})
	commitOK(t, r, "second")

	require.NoError(t, os.Remove(r.metaPath(ManifestName)))
	require.NoError(t, os.RemoveAll(r.metaPath(CacheName)))
	r, err := OpenRepository(r.Root())
	require.NoError(t, err)

	testutil.WriteFiles(t, r.Root(), map[string]string{"a.txt": "one\ntwo\nthree\n"})
	res := commitOK(t, r, "third")
	assert.Equal(t, []string{"a.txt"}, res.Modified)
	assert.Equal(t, 1, res.Patches, "previous content is rebuilt from the archive")

	m, err := lastcommit.Load(r.metaPath(ManifestName))
	require.NoError(t, err)
	assert.Equal(t, 2, m.Version)
	assert.Equal(t, 2, m.Files["a.txt"].Chain)

	assert.Equal(t, "one\ntwo\nthree\n", readOK(t, r, 2, "a.txt"))
}

func TestCommitStaleManifest(t *testing.T) {
	t.Parallel()

	r := initRepo(t, map[string]string{"a.txt": "one\n"})
	commitOK(t, r, "first")
	stale, err := os.ReadFile(r.metaPath(ManifestName))
	require.NoError(t, err)

	testutil.WriteFiles(t, r.Root(), map[string]string{"a.txt": "one\ntwo\n"})
	commitOK(t, r, "second")

	// A manifest for version 0 must not be used as the base of version 2.
	require.NoError(t, os.WriteFile(r.metaPath(ManifestName), stale, 0o600))
	testutil.WriteFiles(t, r.Root(), map[string]string{"a.txt": "one\ntwo\nthree\n"})
	res := commitOK(t, r, "third")
	assert.Equal(t, []string{"a.txt"}, res.Modified)
	assert.Equal(t, "one\ntwo\nthree\n", readOK(t, r, 2, "a.txt"))
}

func TestStatus(t *testing.T) {
	t.Parallel()

	r := initRepo(t, map[string]string{
		"a.txt": "a\n",
		"b.txt": "b\n",
	})
	ctx := context.Background()

	st, err := r.Status(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"a.txt", "b.txt"}, st.Added)

	commitOK(t, r, "first")
	st, err = r.Status(ctx)
	require.NoError(t, err)
	assert.True(t, st.Clean(), "status = %+v", st)

	testutil.WriteFiles(t, r.Root(), map[string]string{
		"a.txt": "changed\n",
		"c.txt": "c\n",
	})
	require.NoError(t, os.Remove(filepath.Join(r.Root(), "b.txt")))

	st, err = r.Status(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"c.txt"}, st.Added)
	assert.Equal(t, []string{"a.txt"}, st.Modified)
	assert.Equal(t, []string{"b.txt"}, st.Deleted)
}

func TestExport(t *testing.T) {
	t.Parallel()

	r := initRepo(t, map[string]string{
		"a.txt":       "first\n",
		"nested/b.md": "# b\n",
	})
	mtime := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	require.NoError(t, os.Chtimes(filepath.Join(r.Root(), "a.txt"), mtime, mtime))
	require.NoError(t, os.Chmod(filepath.Join(r.Root(), "nested", "b.md"), 0o444))
	commitOK(t, r, "first")

	testutil.WriteFiles(t, r.Root(), map[string]string{"a.txt": "second\n"})
	commitOK(t, r, "second")

	dest := filepath.Join(t.TempDir(), "v0")
	n, err := r.Export(context.Background(), 0, dest)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	got, err := os.ReadFile(filepath.Join(dest, "a.txt"))
	require.NoError(t, err)
	assert.Equal(t, "first\n", string(got))

	info, err := os.Stat(filepath.Join(dest, "a.txt"))
	require.NoError(t, err)
	assert.True(t, info.ModTime().Equal(mtime), "mtime = %v", info.ModTime())

	info, err = os.Stat(filepath.Join(dest, "nested", "b.md"))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o444), info.Mode().Perm())

	_, err = r.Export(context.Background(), -1, dest)
	require.ErrorIs(t, err, os.ErrExist)

	_, err = r.Export(context.Background(), -1, dest, WithOverwrite(true))
	require.NoError(t, err)
	got, err = os.ReadFile(filepath.Join(dest, "a.txt"))
	require.NoError(t, err)
	assert.Equal(t, "second\n", string(got))

	_, err = r.Export(context.Background(), 5, dest)
	require.ErrorIs(t, err, ErrIndexOutOfRange)
}

func TestCommitPatchesManyLineFile(t *testing.T) {
	t.Parallel()

	lines := make([]string, 40)
	for i := range lines {
		lines[i] = fmt.Sprintf("line %d\n", i)
	}
	before := strings.Join(lines, "")
	r := initRepo(t, map[string]string{"doc.txt": before})
	commitOK(t, r, "first")

	lines[27] = "line twenty-seven\n"
	after := strings.Join(lines, "")
	testutil.WriteFiles(t, r.Root(), map[string]string{"doc.txt": after})

	res := commitOK(t, r, "edit one line")
	assert.Equal(t, 1, res.Patches)
	assert.Zero(t, res.Snapshots)
	assert.Equal(t, before, readOK(t, r, 0, "doc.txt"))
	assert.Equal(t, after, readOK(t, r, 1, "doc.txt"))
}
