package gud

import (
	"errors"
	"io/fs"

	gudcore "github.com/meigma/gud/core"
	"github.com/meigma/gud/internal/lastcommit"
)

// lastCommit returns the manifest of the archive's last version. A stored
// manifest is used when it describes that version; otherwise the manifest
// is rebuilt from the archive and saved for the next commit.
func (r *Repository) lastCommit(ar *gudcore.Reader) *lastcommit.Manifest {
	path := r.metaPath(ManifestName)
	m, err := lastcommit.Load(path)
	switch {
	case err == nil && m.Version == ar.Len()-1:
		return m
	case err == nil:
		r.log().Debug("last commit manifest is stale", "manifest_version", m.Version, "archive_versions", ar.Len())
	case errors.Is(err, fs.ErrNotExist):
	default:
		r.log().Warn("discarding unreadable last commit manifest", "error", err)
	}

	m = r.rebuildManifest(ar)
	if err := m.Save(path); err != nil {
		r.log().Warn("failed to save last commit manifest", "error", err)
	}
	return m
}

// rebuildManifest derives the last commit state from the archive. Files
// that cannot be reconstructed are left out, so the next commit stores
// them as snapshots.
func (r *Repository) rebuildManifest(ar *gudcore.Reader) *lastcommit.Manifest {
	last := ar.Len() - 1
	m := lastcommit.New(last)
	if last < 0 {
		return m
	}

	for e := range ar.Entries(last) {
		content, err := ar.Materialize(last, e.Path)
		if err != nil {
			r.log().Warn("cannot reconstruct last committed content", "path", e.Path, "error", err)
			continue
		}
		m.Files[e.Path] = lastcommit.FileState{
			Digest: gudcore.Digest(content),
			Size:   uint64(len(content)),
			Chain:  chainLength(ar, last, e.Path),
			Text:   isText(content),
		}
	}
	r.log().Debug("rebuilt last commit manifest", "version", last, "files", len(m.Files))
	return m
}

// chainLength counts the consecutive Patch entries of path ending at
// version i.
func chainLength(ar *gudcore.Reader, i int, path string) int {
	n := 0
	for j := i; j >= 0; j-- {
		e, err := ar.Entry(j, path)
		if err != nil || e.Content != gudcore.Patch {
			break
		}
		n++
	}
	return n
}
