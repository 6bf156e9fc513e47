package gud

import (
	"fmt"
	"slices"
	"strconv"

	"github.com/opencontainers/go-digest"

	"github.com/meigma/gud/core/patch"
)

// Materialize returns the full content of path as of version i.
//
// The content is rebuilt from the nearest Snapshot at or before i by
// applying the Patch of every later version in order. Only the contiguous
// run of versions containing path is consulted, so versions before the
// anchor are never read. When an entry records a digest, the content is
// verified after the anchor and after every patch.
//
// A path absent at version i returns ErrNotFound. A chain without a
// snapshot anchor, or a patch that fails to parse, apply or verify, returns
// ErrReconstruction; partial content is never returned.
//
// With a cache configured, results are cached by digest. Concurrent calls
// for the same version and path are collapsed into one reconstruction.
func (r *Reader) Materialize(i int, path string) ([]byte, error) {
	e, err := r.entry(i, path)
	if err != nil {
		return nil, err
	}

	if r.cache != nil && e.Meta.Digest != "" {
		if content, ok := r.cache.Get(e.Meta.Digest); ok {
			if e.Meta.Digest.Algorithm().FromBytes(content) == e.Meta.Digest {
				r.log().Debug("materialize cache hit", "path", path, "version", i)
				return content, nil
			}
			r.log().Debug("discarding corrupted cache entry", "path", path, "digest", e.Meta.Digest)
			_ = r.cache.Delete(e.Meta.Digest) //nolint:errcheck // best-effort cache cleanup on digest mismatch
		}
	}

	key := strconv.Itoa(i) + "\x00" + path
	result, err, shared := r.group.Do(key, func() (any, error) {
		content, err := r.reconstruct(i, path)
		if err != nil {
			return nil, err
		}
		if r.cache != nil && e.Meta.Digest != "" {
			if putErr := r.cache.Put(e.Meta.Digest, content); putErr != nil {
				r.log().Debug("cache put failed", "path", path, "error", putErr)
			}
		}
		return content, nil
	})
	if err != nil {
		return nil, err
	}
	content := result.([]byte) //nolint:errcheck // type assertion always succeeds when err is nil
	if shared {
		content = slices.Clone(content)
	}
	return content, nil
}

// reconstruct rebuilds path at version i from its patch chain.
func (r *Reader) reconstruct(i int, path string) ([]byte, error) {
	anchor, err := r.anchor(i, path)
	if err != nil {
		return nil, err
	}

	content, err := r.readPayload(r.versions[anchor].entries[path])
	if err != nil {
		return nil, err
	}
	if err := r.verify(anchor, path, content); err != nil {
		return nil, err
	}

	for j := anchor + 1; j <= i; j++ {
		e := r.versions[j].entries[path]
		raw, err := r.readPayload(e)
		if err != nil {
			return nil, err
		}
		p, err := patch.Parse(raw)
		if err != nil {
			return nil, fmt.Errorf("%w: %s at version %d: %v", ErrReconstruction, path, j, err)
		}
		next, err := p.Apply(string(content))
		if err != nil {
			return nil, fmt.Errorf("%w: %s at version %d: %v", ErrReconstruction, path, j, err)
		}
		content = []byte(next)
		if err := r.verify(j, path, content); err != nil {
			return nil, err
		}
	}

	r.log().Debug("materialized", "path", path, "version", i, "anchor", anchor, "patches", i-anchor)
	return content, nil
}

// anchor returns the index of the Snapshot that seeds path at version i.
// It walks backward through the contiguous run of versions containing
// path and stops at the first Snapshot.
func (r *Reader) anchor(i int, path string) (int, error) {
	for j := i; ; j-- {
		e := r.versions[j].entries[path]
		if e.Content == Snapshot {
			return j, nil
		}
		if j == 0 {
			return 0, fmt.Errorf("%w: %s at version %d: patch chain reaches the first version without a snapshot", ErrReconstruction, path, i)
		}
		if _, ok := r.versions[j-1].entries[path]; !ok {
			return 0, fmt.Errorf("%w: %s at version %d: patch at version %d has no base", ErrReconstruction, path, i, j)
		}
	}
}

// verify checks content against the size and digest recorded for path at
// version j.
func (r *Reader) verify(j int, path string, content []byte) error {
	meta := r.versions[j].entries[path].Meta
	if uint64(len(content)) != meta.Size {
		return fmt.Errorf("%w: %s at version %d: got %d bytes, want %d", ErrReconstruction, path, j, len(content), meta.Size)
	}
	if meta.Digest == "" {
		return nil
	}
	if got := meta.Digest.Algorithm().FromBytes(content); got != meta.Digest {
		return fmt.Errorf("%w: %s at version %d: digest %s, want %s", ErrReconstruction, path, j, got, meta.Digest)
	}
	return nil
}

// Digest returns the sha256 digest of content, the form recorded in
// FileMeta.Digest by the repository layer.
func Digest(content []byte) digest.Digest {
	return digest.FromBytes(content)
}
