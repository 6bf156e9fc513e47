package lastcommit

import (
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	"github.com/opencontainers/go-digest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSaveLoad(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "last")
	m := New(3)
	m.Files["a.txt"] = FileState{Digest: digest.FromString("a"), Size: 1, Chain: 2, Text: true}
	m.Files["bin/x"] = FileState{Digest: digest.FromString("x"), Size: 1}
	require.NoError(t, m.Save(path))

	got, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, m, got)
}

func TestSaveDeterministic(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	build := func() *Manifest {
		m := New(0)
		for _, p := range []string{"z", "a", "m", "b"} {
			m.Files[p] = FileState{Digest: digest.FromString(p), Size: 1}
		}
		return m
	}
	first, second := filepath.Join(dir, "one"), filepath.Join(dir, "two")
	require.NoError(t, build().Save(first))
	require.NoError(t, build().Save(second))

	a, err := os.ReadFile(first)
	require.NoError(t, err)
	b, err := os.ReadFile(second)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestLoadMissing(t *testing.T) {
	t.Parallel()

	_, err := Load(filepath.Join(t.TempDir(), "last"))
	require.ErrorIs(t, err, fs.ErrNotExist)
}

func TestLoadCorrupt(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()

	garbage := filepath.Join(dir, "garbage")
	require.NoError(t, os.WriteFile(garbage, []byte{0xff, 0x00, 0x13}, 0o644))
	_, err := Load(garbage)
	require.ErrorIs(t, err, ErrCorrupt)

	badDigest := filepath.Join(dir, "bad-digest")
	m := New(0)
	m.Files["a"] = FileState{Digest: "sha256:nothex"}
	require.NoError(t, m.Save(badDigest))
	_, err = Load(badDigest)
	require.ErrorIs(t, err, ErrCorrupt)

	oldFormat := filepath.Join(dir, "old")
	data, err := encMode.Marshal(map[int]int{1: 0, 2: 0})
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(oldFormat, data, 0o644))
	_, err = Load(oldFormat)
	require.ErrorIs(t, err, ErrCorrupt)
}
