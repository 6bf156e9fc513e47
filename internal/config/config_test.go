package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	gudcore "github.com/meigma/gud/core"
)

func TestLoadFileMissing(t *testing.T) {
	t.Parallel()

	c, err := LoadFile(filepath.Join(t.TempDir(), "config.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Default(), c)
	assert.Equal(t, gudcore.CompressionZstd, c.Codec())
}

func TestLoadFilePartial(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("compression: lz4\nignore:\n  - \"**/*.log\"\n  - build/**\n"), 0o644))

	c, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "lz4", c.Compression)
	assert.Equal(t, gudcore.CompressionLZ4, c.Codec())
	assert.Equal(t, DefaultSnapshotInterval, c.SnapshotInterval)
	assert.Equal(t, int64(DefaultMaxFileSize), c.MaxFileSize)
	assert.Equal(t, []string{"**/*.log", "build/**"}, c.Ignore)
}

func TestLoadFileInvalid(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("compression: brotli\nsnapshot_interval: 0\nmax_file_size: -1\nignore: [\"[\"]\n"), 0o644))

	_, err := LoadFile(path)
	require.Error(t, err)
	for _, field := range []string{"compression", "snapshot_interval", "max_file_size", "ignore"} {
		assert.Contains(t, err.Error(), field)
	}
}

func TestLoadFileMalformed(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("compression: [unterminated\n"), 0o644))

	_, err := LoadFile(path)
	require.Error(t, err)
}

func TestSaveRoundTrip(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "config.yaml")
	c := Default()
	c.Compression = "none"
	c.SnapshotInterval = 4
	c.Ignore = []string{"*.tmp"}
	require.NoError(t, c.Save(path))

	got, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, c, got)
}
