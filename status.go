package gud

import (
	"context"
	"errors"
	"fmt"
	"os"
	"slices"

	gudcore "github.com/meigma/gud/core"
	"github.com/meigma/gud/internal/walk"
)

// Status lists how the working tree differs from the last version.
type Status struct {
	Added    []string
	Modified []string
	Deleted  []string
}

// Clean reports whether the working tree matches the last version.
func (s *Status) Clean() bool {
	return len(s.Added) == 0 && len(s.Modified) == 0 && len(s.Deleted) == 0
}

// Status compares the working tree with the last version by content
// digest. Files skipped by a commit are skipped here too.
func (r *Repository) Status(ctx context.Context) (*Status, error) {
	ar, err := r.openArchive()
	if err != nil {
		return nil, err
	}
	defer ar.Close()

	last := r.lastCommit(ar)
	matcher, err := r.matcher()
	if err != nil {
		return nil, err
	}
	tree, err := os.OpenRoot(r.root)
	if err != nil {
		return nil, fmt.Errorf("open working tree: %w", err)
	}
	defer tree.Close()

	// read only consults the repository and tree.
	c := &committer{repo: r, tree: tree}
	st := &Status{}
	seen := make(map[string]bool, len(last.Files))
	for rel, err := range walk.Files(r.root, matcher) {
		if err != nil {
			return nil, fmt.Errorf("walk working tree: %w", err)
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		content, _, err := c.read(rel)
		if errors.Is(err, errSkip) {
			continue
		}
		if err != nil {
			return nil, err
		}
		seen[rel] = true

		prev, ok := last.Files[rel]
		switch {
		case !ok:
			st.Added = append(st.Added, rel)
		case prev.Digest != gudcore.Digest(content):
			st.Modified = append(st.Modified, rel)
		}
	}
	for p := range last.Files {
		if !seen[p] {
			st.Deleted = append(st.Deleted, p)
		}
	}
	slices.Sort(st.Deleted)
	return st, nil
}
