package export

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	gudcore "github.com/meigma/gud/core"
)

func TestFileSinkWrite(t *testing.T) {
	t.Parallel()

	dest := filepath.Join(t.TempDir(), "out")
	sink, err := New(dest)
	require.NoError(t, err)
	defer sink.Close()

	mtime := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	atime := mtime.Add(time.Hour)
	meta := gudcore.FileMeta{Modified: &mtime, Accessed: &atime}

	require.NoError(t, sink.Write("dir/sub/a.txt", []byte("hello"), meta))

	got, err := os.ReadFile(filepath.Join(dest, "dir", "sub", "a.txt"))
	require.NoError(t, err)
	assert.Equal(t, "hello", string(got))

	info, err := os.Stat(filepath.Join(dest, "dir", "sub", "a.txt"))
	require.NoError(t, err)
	assert.True(t, info.ModTime().Equal(mtime), "mtime = %v, want %v", info.ModTime(), mtime)
	assert.Equal(t, os.FileMode(0o644), info.Mode().Perm())

	entries, err := os.ReadDir(filepath.Join(dest, "dir", "sub"))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp files left behind")
}

func TestFileSinkReadOnly(t *testing.T) {
	t.Parallel()

	dest := t.TempDir()
	sink, err := New(dest)
	require.NoError(t, err)
	defer sink.Close()

	require.NoError(t, sink.Write("ro.txt", []byte("x"), gudcore.FileMeta{ReadOnly: true}))

	info, err := os.Stat(filepath.Join(dest, "ro.txt"))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o444), info.Mode().Perm())
}

func TestFileSinkExisting(t *testing.T) {
	t.Parallel()

	dest := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dest, "a.txt"), []byte("old"), 0o600))

	sink, err := New(dest)
	require.NoError(t, err)
	defer sink.Close()

	err = sink.Write("a.txt", []byte("new"), gudcore.FileMeta{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, fs.ErrExist), "err = %v", err)

	over, err := New(dest, WithOverwrite(true))
	require.NoError(t, err)
	defer over.Close()
	require.NoError(t, over.Write("a.txt", []byte("new"), gudcore.FileMeta{}))

	got, err := os.ReadFile(filepath.Join(dest, "a.txt"))
	require.NoError(t, err)
	assert.Equal(t, "new", string(got))
}

func TestFileSinkInvalidPath(t *testing.T) {
	t.Parallel()

	sink, err := New(t.TempDir())
	require.NoError(t, err)
	defer sink.Close()

	for _, p := range []string{"../escape", "/abs", ".", "a//b", ""} {
		err := sink.Write(p, []byte("x"), gudcore.FileMeta{})
		assert.ErrorIs(t, err, fs.ErrInvalid, "path %q", p)
	}
}
