package platform

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenFileNoFollow(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "file.txt"), []byte("data"), 0o644))

	root, err := os.OpenRoot(dir)
	require.NoError(t, err)
	defer root.Close()

	f, err := OpenFileNoFollow(root, "file.txt")
	require.NoError(t, err)
	require.NoError(t, f.Close())

	if runtime.GOOS == "windows" {
		return
	}
	require.NoError(t, os.Symlink("file.txt", filepath.Join(dir, "link.txt")))
	_, err = OpenFileNoFollow(root, "link.txt")
	require.ErrorIs(t, err, ErrSymlink)

	require.NoError(t, os.Mkdir(filepath.Join(dir, "sub"), 0o755))
	require.NoError(t, os.Symlink(filepath.Join("..", "file.txt"), filepath.Join(dir, "sub", "link.txt")))
	_, err = OpenFileNoFollow(root, filepath.Join("sub", "link.txt"))
	require.ErrorIs(t, err, ErrSymlink)
}

func TestFileTimes(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "file.txt")
	require.NoError(t, os.WriteFile(path, []byte("data"), 0o644))
	info, err := os.Stat(path)
	require.NoError(t, err)

	accessed, _ := FileTimes(info)
	if runtime.GOOS == "linux" || runtime.GOOS == "darwin" {
		require.NotNil(t, accessed)
		assert.False(t, accessed.IsZero())
	}
}

func TestTryLockExclusive(t *testing.T) {
	t.Parallel()

	if runtime.GOOS == "windows" || runtime.GOOS == "plan9" {
		t.Skip("advisory locks are not exclusive on this platform")
	}

	path := filepath.Join(t.TempDir(), "lock")
	first, err := TryLock(path)
	require.NoError(t, err)

	_, err = TryLock(path)
	require.ErrorIs(t, err, ErrLocked)

	require.NoError(t, first.Unlock())
	require.NoError(t, first.Unlock())

	again, err := TryLock(path)
	require.NoError(t, err)
	require.NoError(t, again.Unlock())
}
