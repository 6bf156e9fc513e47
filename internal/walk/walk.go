// Package walk enumerates the files of a working tree that a commit tracks.
package walk

import (
	"bufio"
	"errors"
	"fmt"
	"io/fs"
	"iter"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// MetaDir is the repository metadata directory, never tracked.
const MetaDir = ".gud"

// IgnoreFile is the name of the per-tree ignore file at the tree root.
const IgnoreFile = ".gudignore"

type rule struct {
	pattern  string
	dirOnly  bool
	basename bool
}

// Matcher decides which paths are ignored.
//
// Patterns are doublestar globs with a few gitignore conventions: a pattern
// without a slash matches the base name at any depth, a leading slash
// anchors the pattern at the tree root, and a trailing slash matches
// directories only. An ignored directory excludes everything below it.
type Matcher struct {
	rules []rule
}

// NewMatcher compiles patterns. Blank patterns are skipped.
func NewMatcher(patterns ...string) (*Matcher, error) {
	m := &Matcher{}
	for _, p := range patterns {
		if strings.TrimSpace(p) == "" {
			continue
		}
		r := rule{pattern: p}
		if strings.HasSuffix(r.pattern, "/") {
			r.dirOnly = true
			r.pattern = strings.TrimSuffix(r.pattern, "/")
		}
		if strings.HasPrefix(r.pattern, "/") {
			r.pattern = strings.TrimPrefix(r.pattern, "/")
		} else if !strings.Contains(r.pattern, "/") {
			r.basename = true
		}
		if !doublestar.ValidatePattern(r.pattern) {
			return nil, fmt.Errorf("ignore pattern %q: %w", p, doublestar.ErrBadPattern)
		}
		m.rules = append(m.rules, r)
	}
	return m, nil
}

// Match reports whether rel, a slash-separated path relative to the tree
// root, is ignored.
func (m *Matcher) Match(rel string, isDir bool) bool {
	if m == nil {
		return false
	}
	for _, r := range m.rules {
		if r.dirOnly && !isDir {
			continue
		}
		name := rel
		if r.basename {
			name = path.Base(rel)
		}
		if doublestar.MatchUnvalidated(r.pattern, name) {
			return true
		}
	}
	return false
}

// ReadIgnoreFile returns the patterns listed in the ignore file at name:
// one per line, with blank lines and lines starting with # skipped.
// A missing file yields no patterns.
func ReadIgnoreFile(name string) ([]string, error) {
	f, err := os.Open(name) //nolint:gosec // ignore file at the tree root
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	defer f.Close()

	var patterns []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimRight(sc.Text(), " \t\r")
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		patterns = append(patterns, line)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read %s: %w", name, err)
	}
	return patterns, nil
}

// Files returns the regular files under root in lexical order as
// slash-separated relative paths. The metadata directory, symbolic links,
// and paths ignored by m are skipped. The walk runs lazily on each
// iteration and stops at the first error, which is yielded with an empty
// path.
func Files(root string, m *Matcher) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		stopped := false
		err := filepath.WalkDir(root, func(p string, d fs.DirEntry, walkErr error) error {
			if walkErr != nil {
				return walkErr
			}
			rel, err := filepath.Rel(root, p)
			if err != nil {
				return err
			}
			if rel == "." {
				return nil
			}
			rel = filepath.ToSlash(rel)

			if d.IsDir() {
				if rel == MetaDir || m.Match(rel, true) {
					return filepath.SkipDir
				}
				return nil
			}
			if !d.Type().IsRegular() || m.Match(rel, false) {
				return nil
			}
			if !yield(rel, nil) {
				stopped = true
				return filepath.SkipAll
			}
			return nil
		})
		if err != nil && !stopped {
			yield("", err)
		}
	}
}
