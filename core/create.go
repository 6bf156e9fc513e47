package gud

import (
	"fmt"
	"os"

	"github.com/meigma/gud/core/internal/format"
)

// Create initializes an empty archive at path: a root pointer followed by
// an empty Version Directory. It fails if path already exists.
func Create(path string) error {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_EXCL, 0o644) //nolint:gosec // caller-chosen archive path
	if err != nil {
		return fmt.Errorf("create archive: %w", err)
	}
	if _, err := f.Write(format.Empty()); err != nil {
		f.Close()
		_ = os.Remove(path)
		return fmt.Errorf("create archive: %w", err)
	}
	if err := f.Sync(); err != nil {
		f.Close()
		_ = os.Remove(path)
		return fmt.Errorf("create archive: %w", err)
	}
	return f.Close()
}
