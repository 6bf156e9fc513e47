// Package export writes reconstructed files into a destination directory.
package export

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	gudcore "github.com/meigma/gud/core"
)

// FileSink writes files below a destination directory.
//
// Each file is written to a temporary file in its target directory and
// renamed into place, so a partially written file is never visible at
// the final path. All paths are resolved through an os.Root and cannot
// escape the destination. A FileSink is safe for concurrent use.
type FileSink struct {
	destDir       string
	root          *os.Root
	overwrite     bool
	preserveTimes bool
}

// Option configures a FileSink.
type Option func(*FileSink)

// WithOverwrite allows replacing existing files.
// By default, writing over an existing file fails with fs.ErrExist.
func WithOverwrite(overwrite bool) Option {
	return func(s *FileSink) {
		s.overwrite = overwrite
	}
}

// WithPreserveTimes sets the access and modification times recorded in
// the file metadata (default: true).
func WithPreserveTimes(preserve bool) Option {
	return func(s *FileSink) {
		s.preserveTimes = preserve
	}
}

// New creates destDir if needed and returns a FileSink writing into it.
func New(destDir string, opts ...Option) (*FileSink, error) {
	s := &FileSink{
		destDir:       destDir,
		preserveTimes: true,
	}
	for _, opt := range opts {
		opt(s)
	}
	if err := os.MkdirAll(destDir, 0o750); err != nil {
		return nil, fmt.Errorf("create destination %s: %w", destDir, err)
	}
	root, err := os.OpenRoot(destDir)
	if err != nil {
		return nil, fmt.Errorf("open destination root %s: %w", destDir, err)
	}
	s.root = root
	return s, nil
}

// Close releases the destination root.
func (s *FileSink) Close() error {
	return s.root.Close()
}

// Write stores content at the slash-separated path and applies meta: a
// read-only file loses its write bits, and recorded times are restored.
func (s *FileSink) Write(path string, content []byte, meta gudcore.FileMeta) error {
	if !fs.ValidPath(path) || path == "." {
		return &fs.PathError{Op: "export", Path: path, Err: fs.ErrInvalid}
	}
	destRel := filepath.FromSlash(path)

	if !s.overwrite {
		if _, err := s.root.Lstat(destRel); err == nil {
			return &fs.PathError{Op: "export", Path: path, Err: fs.ErrExist}
		}
	}
	if dir := filepath.Dir(destRel); dir != "." {
		if err := s.root.MkdirAll(dir, 0o750); err != nil {
			return fmt.Errorf("create directory %s: %w", dir, err)
		}
	}

	tempFile, tempRel, err := createTempFile(s.root, filepath.Dir(destRel), ".gud-")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	if _, err := tempFile.Write(content); err != nil {
		_ = tempFile.Close()         //nolint:errcheck // best-effort cleanup
		_ = s.root.Remove(tempRel) //nolint:errcheck // best-effort cleanup
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := tempFile.Close(); err != nil {
		_ = s.root.Remove(tempRel) //nolint:errcheck // best-effort cleanup
		return fmt.Errorf("close temp file: %w", err)
	}

	if err := s.applyMeta(tempRel, meta); err != nil {
		_ = s.root.Remove(tempRel) //nolint:errcheck // best-effort cleanup
		return err
	}

	if err := s.root.Rename(tempRel, destRel); err != nil {
		_ = s.root.Remove(tempRel) //nolint:errcheck // best-effort cleanup
		return fmt.Errorf("rename to %s: %w", path, err)
	}
	return nil
}

func (s *FileSink) applyMeta(rel string, meta gudcore.FileMeta) error {
	mode := os.FileMode(0o644)
	if meta.ReadOnly {
		mode = 0o444
	}
	if err := s.root.Chmod(rel, mode); err != nil {
		return fmt.Errorf("chmod: %w", err)
	}

	if !s.preserveTimes || meta.Modified == nil {
		return nil
	}
	atime := *meta.Modified
	if meta.Accessed != nil {
		atime = *meta.Accessed
	}
	if err := s.root.Chtimes(rel, atime, *meta.Modified); err != nil {
		return fmt.Errorf("chtimes: %w", err)
	}
	return nil
}

func createTempFile(root *os.Root, dir, prefix string) (*os.File, string, error) {
	const attempts = 10
	for range attempts {
		name, err := randomSuffix()
		if err != nil {
			return nil, "", err
		}
		relPath := filepath.Join(dir, prefix+name)
		f, err := root.OpenFile(relPath, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o600)
		if err == nil {
			return f, relPath, nil
		}
		if !errors.Is(err, os.ErrExist) {
			return nil, "", err
		}
	}
	return nil, "", errors.New("create temp file: exhausted retries")
}

func randomSuffix() (string, error) {
	var b [8]byte
	if _, err := rand.Read(b[:]); err != nil {
		return "", err
	}
	return hex.EncodeToString(b[:]), nil
}
