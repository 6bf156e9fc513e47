package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runGud(t *testing.T, args ...string) string {
	t.Helper()
	var stdout, stderr bytes.Buffer
	err := run(args, &stdout, &stderr)
	require.NoError(t, err, "gud %v: %s", args, stderr.String())
	return stdout.String()
}

func TestCLIWorkflow(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("draft\n"), 0o644))

	assert.Contains(t, runGud(t, "init", "-C", dir), "initialized empty repository")
	assert.Equal(t, "A notes.txt\n", runGud(t, "status", "-C", dir))
	assert.Contains(t, runGud(t, "commit", "-C", dir, "-m", "first"), "version 0: 1 added")

	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("final\n"), 0o644))
	assert.Equal(t, "M notes.txt\n", runGud(t, "status", "-C", dir))
	assert.Contains(t, runGud(t, "commit", "-C", dir, "-m", "second"), "1 patches")
	assert.Contains(t, runGud(t, "status", "-C", dir), "working tree clean")

	logOut := runGud(t, "log", "-C", dir)
	assert.Contains(t, logOut, "second")
	assert.Contains(t, logOut, "first")

	assert.Equal(t, "draft\n", runGud(t, "show", "-C", dir, "-i", "0", "notes.txt"))
	assert.Equal(t, "final\n", runGud(t, "show", "-C", dir, "notes.txt"))

	dest := filepath.Join(t.TempDir(), "out")
	assert.Contains(t, runGud(t, "export", "-C", dir, "-i", "0", dest), "exported 1 files")
	got, err := os.ReadFile(filepath.Join(dest, "notes.txt"))
	require.NoError(t, err)
	assert.Equal(t, "draft\n", string(got))
}

func TestCLIErrors(t *testing.T) {
	t.Parallel()

	var out bytes.Buffer
	require.Error(t, run(nil, &out, &out))
	require.Error(t, run([]string{"frobnicate"}, &out, &out))
	require.Error(t, run([]string{"status", "-C", t.TempDir()}, &out, &out))

	dir := t.TempDir()
	runGud(t, "init", "-C", dir)
	require.Error(t, run([]string{"commit", "-C", dir}, &out, &out), "missing message")
	require.Error(t, run([]string{"show", "-C", dir}, &out, &out), "missing path")
}
