package gudtype

import (
	_ "crypto/sha256" // registers digest.SHA256
	"time"

	"github.com/opencontainers/go-digest"
)

// ContentKind tells how a stored payload relates to the file content.
type ContentKind uint8

const (
	// Snapshot payloads hold the complete file content.
	Snapshot ContentKind = iota
	// Patch payloads hold a textual patch against the file content in the
	// immediately preceding version.
	Patch
)

// String returns "snapshot" or "patch".
func (k ContentKind) String() string {
	switch k {
	case Snapshot:
		return "snapshot"
	case Patch:
		return "patch"
	default:
		return "unknown"
	}
}

// FileKind is the filesystem object type recorded for an entry.
type FileKind uint8

const (
	KindFile FileKind = iota
	KindDirectory
	KindLink
)

// String returns the human-readable name of the file kind.
func (k FileKind) String() string {
	switch k {
	case KindFile:
		return "file"
	case KindDirectory:
		return "directory"
	case KindLink:
		return "link"
	default:
		return "unknown"
	}
}

// FileMeta is the metadata block stored with every File Header.
type FileMeta struct {
	// Size is the length of the file content at this version.
	Size uint64

	// Kind is the filesystem object type.
	Kind FileKind

	// ReadOnly reports whether the file had no write permission.
	ReadOnly bool

	// Modified, Accessed and Created are nil when the filesystem did not
	// report them.
	Modified *time.Time
	Accessed *time.Time
	Created  *time.Time

	// Digest is the digest of the file content at this version.
	// An empty digest disables verification on reconstruction.
	Digest digest.Digest
}

// Entry is a resolved File Header: where its payload lives and how to
// interpret it.
type Entry struct {
	// Path is the slash-separated path relative to the tree root.
	Path string

	// HeaderOffset is the archive offset of the File Header record.
	HeaderOffset uint64

	// PayloadOffset is the archive offset of the compressed payload.
	PayloadOffset uint64

	// CompressedSize is the number of payload bytes stored in the archive.
	CompressedSize uint64

	// PayloadSize is the uncompressed payload length. It equals Meta.Size
	// for snapshots and the serialized patch length for patches.
	PayloadSize uint64

	// Content tells whether the payload is a snapshot or a patch.
	Content ContentKind

	// Compression is the codec of the payload.
	Compression Compression

	// Meta is the file metadata recorded at commit time.
	Meta FileMeta
}
