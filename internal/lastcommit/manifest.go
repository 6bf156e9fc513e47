// Package lastcommit persists what the repository knows about its last
// commit: the digest, size and patch-chain length of every tracked file.
//
// The manifest is a cache. It is rebuilt from the archive whenever it is
// missing, corrupt or describes a different version than the archive's
// last one, so it is never a source of truth.
package lastcommit

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/fxamacker/cbor/v2"
	"github.com/opencontainers/go-digest"
)

// ErrCorrupt is returned when a manifest file cannot be decoded.
var ErrCorrupt = errors.New("lastcommit: corrupt manifest")

// formatVersion is bumped when the encoded layout changes; older manifests
// are treated as corrupt and rebuilt.
const formatVersion = 1

// encMode uses Core Deterministic Encoding so equal manifests produce equal
// bytes.
var encMode cbor.EncMode

var decMode cbor.DecMode

func init() {
	var err error
	encMode, err = cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		panic("lastcommit: CBOR encoder initialization failed: " + err.Error())
	}
	decMode, err = cbor.DecOptions{
		DupMapKey: cbor.DupMapKeyEnforcedAPF,
	}.DecMode()
	if err != nil {
		panic("lastcommit: CBOR decoder initialization failed: " + err.Error())
	}
}

// FileState is the last committed state of one path.
type FileState struct {
	// Digest is the digest of the committed content.
	Digest digest.Digest `cbor:"1,keyasint"`

	// Size is the committed content length.
	Size uint64 `cbor:"2,keyasint"`

	// Chain is the number of consecutive Patch entries ending at the last
	// commit; 0 when the last commit stored a Snapshot.
	Chain int `cbor:"3,keyasint"`

	// Text reports whether the content was eligible for patching.
	Text bool `cbor:"4,keyasint"`
}

// Manifest describes the last commit.
type Manifest struct {
	// Format is the encoded layout version.
	Format int `cbor:"1,keyasint"`

	// Version is the index of the version the manifest describes, or -1
	// for an archive without versions.
	Version int `cbor:"2,keyasint"`

	// Files maps slash-separated paths to their committed state.
	Files map[string]FileState `cbor:"3,keyasint"`
}

// New returns an empty manifest for version index v.
func New(v int) *Manifest {
	return &Manifest{
		Format:  formatVersion,
		Version: v,
		Files:   make(map[string]FileState),
	}
}

// Load reads the manifest at path. A missing file returns an error
// satisfying errors.Is(err, fs.ErrNotExist); an undecodable one returns
// ErrCorrupt.
func Load(path string) (*Manifest, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path is inside the repository metadata dir
	if err != nil {
		return nil, fmt.Errorf("load manifest: %w", err)
	}
	m := &Manifest{}
	if err := decMode.Unmarshal(data, m); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	if m.Format != formatVersion {
		return nil, fmt.Errorf("%w: format %d", ErrCorrupt, m.Format)
	}
	if m.Files == nil {
		m.Files = make(map[string]FileState)
	}
	for p, st := range m.Files {
		if st.Digest != "" {
			if err := st.Digest.Validate(); err != nil {
				return nil, fmt.Errorf("%w: %s: %v", ErrCorrupt, p, err)
			}
		}
	}
	return m, nil
}

// Save writes the manifest to path through a temporary file and rename.
func (m *Manifest) Save(path string) error {
	m.Format = formatVersion
	data, err := encMode.Marshal(m)
	if err != nil {
		return fmt.Errorf("encode manifest: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), ".last-*")
	if err != nil {
		return fmt.Errorf("save manifest: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("save manifest: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("save manifest: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("save manifest: %w", err)
	}
	return nil
}
