package format

import (
	"io/fs"
	"path"
	"path/filepath"
	"strings"

	"github.com/meigma/gud/core/internal/gudtype"
)

// CheckPath validates a path stored in a File Header. Paths are
// slash-separated, relative and canonical ("a/b.txt", never "/a", "./a",
// "a/../b" or "a\b").
func CheckPath(p string) error {
	if path.IsAbs(p) || filepath.IsAbs(p) || filepath.VolumeName(p) != "" {
		return gudtype.ErrAbsolutePath
	}
	if p == "" || p == "." || strings.Contains(p, `\`) || !fs.ValidPath(p) {
		return gudtype.ErrInvalidPath
	}
	return nil
}
