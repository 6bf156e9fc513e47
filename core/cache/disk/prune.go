package disk

import (
	"cmp"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"
)

type cachedFile struct {
	path    string
	size    int64
	modTime time.Time
}

// dirSize returns the total size of the regular files under dir.
func dirSize(dir string) (int64, error) {
	files, err := listFiles(dir)
	if err != nil {
		return 0, err
	}
	var total int64
	for _, f := range files {
		total += f.size
	}
	return total, nil
}

// pruneDir removes the oldest files under dir until at most targetBytes
// remain. It returns the bytes freed and the bytes remaining.
func pruneDir(dir string, targetBytes int64) (freed, remaining int64, err error) {
	files, err := listFiles(dir)
	if err != nil {
		return 0, 0, err
	}
	for _, f := range files {
		remaining += f.size
	}
	if remaining <= targetBytes {
		return 0, remaining, nil
	}

	slices.SortFunc(files, func(a, b cachedFile) int {
		if c := a.modTime.Compare(b.modTime); c != 0 {
			return c
		}
		return cmp.Compare(a.path, b.path)
	})

	for _, f := range files {
		if remaining <= targetBytes {
			break
		}
		if err := os.Remove(f.path); err != nil && !errors.Is(err, os.ErrNotExist) {
			return freed, remaining, err
		}
		freed += f.size
		remaining -= f.size
	}
	return freed, remaining, nil
}

// listFiles returns the cached entries under dir, skipping in-progress
// temporary files.
func listFiles(dir string) ([]cachedFile, error) {
	var files []cachedFile
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			if errors.Is(walkErr, os.ErrNotExist) {
				return nil
			}
			return walkErr
		}
		if !d.Type().IsRegular() || strings.HasPrefix(d.Name(), "cache-") {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				return nil
			}
			return err
		}
		files = append(files, cachedFile{path: path, size: info.Size(), modTime: info.ModTime()})
		return nil
	})
	return files, err
}
