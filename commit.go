package gud

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"unicode/utf8"

	gudcore "github.com/meigma/gud/core"
	"github.com/meigma/gud/core/patch"
	"github.com/meigma/gud/internal/lastcommit"
	"github.com/meigma/gud/internal/platform"
	"github.com/meigma/gud/internal/walk"
)

// CommitResult summarizes a commit.
type CommitResult struct {
	// Index is the position of the new version in commit order.
	Index int

	// Number is the version number recorded in the archive.
	Number uint64

	Added     []string
	Modified  []string
	Unchanged []string
	Deleted   []string

	// Skipped lists files left out because they exceed max_file_size or
	// turned into symbolic links while the tree was read.
	Skipped []string

	// Snapshots and Patches count the stored entries of each kind.
	Snapshots int
	Patches   int
}

// Commit records the current working tree as a new version.
//
// Every tracked text file whose previous content is known is stored as a
// patch against that content, until its chain reaches the configured
// snapshot interval. New files, binary files and files at the end of a
// chain are stored as snapshots. The version becomes visible only after
// every file was appended; on any error the archive is left unchanged.
func (r *Repository) Commit(ctx context.Context, message string) (*CommitResult, error) {
	lock, err := r.lock()
	if err != nil {
		return nil, err
	}
	defer lock.Unlock() //nolint:errcheck // released on process exit regardless

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

	var number uint64
	if n := ar.Len(); n > 0 {
		info, err := ar.Version(n - 1)
		if err != nil {
			return nil, err
		}
		number = info.Number + 1
	}

	w, err := gudcore.OpenWriter(r.metaPath(ArchiveName), number, message,
		gudcore.WithCompression(r.cfg.Codec()),
		gudcore.WithWriterLogger(r.logger),
		gudcore.WithClock(r.now),
	)
	if err != nil {
		return nil, err
	}
	defer w.Abort() //nolint:errcheck // no-op after Finish

	tree, err := os.OpenRoot(r.root)
	if err != nil {
		return nil, fmt.Errorf("open working tree: %w", err)
	}
	defer tree.Close()

	c := &committer{
		repo:   r,
		ar:     ar,
		w:      w,
		tree:   tree,
		last:   last,
		next:   lastcommit.New(ar.Len()),
		result: &CommitResult{Index: ar.Len(), Number: number},
	}
	for rel, err := range walk.Files(r.root, matcher) {
		if err != nil {
			return nil, fmt.Errorf("walk working tree: %w", err)
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if err := c.add(rel); err != nil {
			return nil, err
		}
	}
	for p := range last.Files {
		if _, ok := c.next.Files[p]; !ok {
			c.result.Deleted = append(c.result.Deleted, p)
		}
	}
	slices.Sort(c.result.Deleted)

	if err := w.Finish(); err != nil {
		return nil, err
	}
	if err := c.next.Save(r.metaPath(ManifestName)); err != nil {
		r.log().Warn("failed to save last commit manifest", "error", err)
	}

	res := c.result
	r.log().Info("commit",
		"index", res.Index,
		"number", res.Number,
		"added", len(res.Added),
		"modified", len(res.Modified),
		"deleted", len(res.Deleted),
		"snapshots", res.Snapshots,
		"patches", res.Patches)
	return res, nil
}

// committer carries the state of one Commit.
type committer struct {
	repo   *Repository
	ar     *gudcore.Reader
	w      *gudcore.Writer
	tree   *os.Root
	last   *lastcommit.Manifest
	next   *lastcommit.Manifest
	result *CommitResult
}

// add appends rel to the version being written.
func (c *committer) add(rel string) error {
	content, info, err := c.read(rel)
	if errors.Is(err, errSkip) {
		c.result.Skipped = append(c.result.Skipped, rel)
		return nil
	}
	if err != nil {
		return err
	}

	meta := gudcore.MetaFromFileInfo(info)
	meta.Size = uint64(len(content))
	meta.Digest = gudcore.Digest(content)
	state := lastcommit.FileState{
		Digest: meta.Digest,
		Size:   meta.Size,
		Text:   isText(content),
	}

	prev, tracked := c.last.Files[rel]
	switch {
	case !tracked:
		c.result.Added = append(c.result.Added, rel)
	case prev.Digest == meta.Digest:
		c.result.Unchanged = append(c.result.Unchanged, rel)
	default:
		c.result.Modified = append(c.result.Modified, rel)
	}

	var p *patch.Patch
	if tracked && state.Text && prev.Text && prev.Chain < c.repo.cfg.SnapshotInterval {
		p = c.diff(rel, prev, content)
	}

	if p != nil {
		if err := c.w.AppendPatch(rel, p, meta); err != nil {
			return err
		}
		state.Chain = prev.Chain + 1
		c.result.Patches++
	} else {
		if err := c.w.AppendSnapshot(rel, bytes.NewReader(content), meta); err != nil {
			return err
		}
		c.result.Snapshots++
	}

	if state.Text {
		if err := c.repo.cache.Put(meta.Digest, content); err != nil {
			c.repo.log().Debug("cache put failed", "path", rel, "error", err)
		}
	}
	c.next.Files[rel] = state
	return nil
}

// diff builds the patch from the previous content of rel to content. It
// returns nil when the previous content is unavailable or the patch does
// not reproduce content, and the caller stores a snapshot instead.
func (c *committer) diff(rel string, prev lastcommit.FileState, content []byte) *patch.Patch {
	text := string(content)
	if prev.Digest == gudcore.Digest(content) {
		return patch.Diff(text, text)
	}

	old, err := c.previous(rel, prev)
	if err != nil {
		c.repo.log().Warn("previous content unavailable, storing snapshot", "path", rel, "error", err)
		return nil
	}
	p := patch.Diff(string(old), text)
	if got, err := p.Apply(string(old)); err != nil || got != text {
		c.repo.log().Warn("patch does not round-trip, storing snapshot", "path", rel)
		return nil
	}
	return p
}

// previous returns the last committed content of rel, from the content
// cache when present and from the archive otherwise.
func (c *committer) previous(rel string, prev lastcommit.FileState) ([]byte, error) {
	if content, ok := c.repo.cache.Get(prev.Digest); ok && gudcore.Digest(content) == prev.Digest {
		return content, nil
	}
	return c.ar.Materialize(c.ar.Len()-1, rel)
}

// errSkip marks a file left out of the commit.
var errSkip = errors.New("skip")

// read loads rel from the working tree without following symbolic links.
func (c *committer) read(rel string) ([]byte, fs.FileInfo, error) {
	f, err := platform.OpenFileNoFollow(c.tree, filepath.FromSlash(rel))
	if err != nil {
		if errors.Is(err, platform.ErrSymlink) {
			c.repo.log().Warn("skipping symbolic link", "path", rel)
			return nil, nil, errSkip
		}
		return nil, nil, fmt.Errorf("read %s: %w", rel, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, nil, fmt.Errorf("stat %s: %w", rel, err)
	}
	limit := c.repo.cfg.MaxFileSize
	if limit > 0 && info.Size() > limit {
		c.repo.log().Warn("skipping file over max_file_size", "path", rel, "size", info.Size(), "limit", limit)
		return nil, nil, errSkip
	}

	src := io.Reader(f)
	if limit > 0 {
		// The file may grow between Stat and read.
		src = io.LimitReader(f, limit+1)
	}
	content, err := io.ReadAll(src)
	if err != nil {
		return nil, nil, fmt.Errorf("read %s: %w", rel, err)
	}
	if limit > 0 && int64(len(content)) > limit {
		c.repo.log().Warn("skipping file over max_file_size", "path", rel, "size", len(content), "limit", limit)
		return nil, nil, errSkip
	}
	return content, info, nil
}

// matcher combines the configured ignore patterns with the ignore file at
// the tree root.
func (r *Repository) matcher() (*walk.Matcher, error) {
	patterns := slices.Clone(r.cfg.Ignore)
	fromFile, err := walk.ReadIgnoreFile(filepath.Join(r.root, walk.IgnoreFile))
	if err != nil {
		return nil, err
	}
	return walk.NewMatcher(append(patterns, fromFile...)...)
}

// isText reports whether content can be stored as a patch: valid UTF-8
// without NUL bytes.
func isText(content []byte) bool {
	return utf8.Valid(content) && bytes.IndexByte(content, 0) < 0
}
