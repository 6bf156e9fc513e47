package gud

import (
	"io/fs"
	"time"

	"github.com/meigma/gud/core/internal/gudtype"
	"github.com/meigma/gud/internal/platform"
)

// Re-export types from internal/gudtype for public API.
type (
	// Entry is a resolved File Header in a loaded version.
	Entry = gudtype.Entry

	// FileMeta is the metadata stored with every File Header.
	FileMeta = gudtype.FileMeta

	// FileKind is the filesystem object type of an entry.
	FileKind = gudtype.FileKind

	// ContentKind tells whether a payload is a snapshot or a patch.
	ContentKind = gudtype.ContentKind

	// Compression identifies the codec of a stored payload.
	Compression = gudtype.Compression
)

// Re-export enum constants.
const (
	Snapshot = gudtype.Snapshot
	Patch    = gudtype.Patch

	KindFile      = gudtype.KindFile
	KindDirectory = gudtype.KindDirectory
	KindLink      = gudtype.KindLink

	CompressionNone = gudtype.CompressionNone
	CompressionZstd = gudtype.CompressionZstd
	CompressionLZ4  = gudtype.CompressionLZ4
)

// ParseCompression parses "none", "zstd" or "lz4". The empty string selects
// zstd.
var ParseCompression = gudtype.ParseCompression

// Sentinel errors re-exported from internal/gudtype.
var (
	// ErrFormat is returned when a record is truncated, corrupted or malformed.
	ErrFormat = gudtype.ErrFormat

	// ErrPath is returned for absolute, non-canonical or duplicate paths.
	ErrPath = gudtype.ErrPath

	// ErrIndexOutOfRange is returned for a version index past the last version.
	ErrIndexOutOfRange = gudtype.ErrIndexOutOfRange

	// ErrNotFound is returned when a path is absent from a version.
	ErrNotFound = gudtype.ErrNotFound

	// ErrReconstruction is returned when a file cannot be rebuilt from its
	// patch chain.
	ErrReconstruction = gudtype.ErrReconstruction

	// ErrVersionNumber is returned when a commit number does not increase.
	ErrVersionNumber = gudtype.ErrVersionNumber

	// ErrDecompression is returned when a payload fails to decompress.
	ErrDecompression = gudtype.ErrDecompression

	// ErrSizeOverflow is returned when byte counts exceed supported limits.
	ErrSizeOverflow = gudtype.ErrSizeOverflow

	// ErrWriterClosed is returned when a finished or aborted Writer is used.
	ErrWriterClosed = gudtype.ErrWriterClosed

	// ErrContentMismatch is returned when appended content disagrees with
	// its metadata.
	ErrContentMismatch = gudtype.ErrContentMismatch

	// ErrFileTooLarge is returned when a payload exceeds the per-file limit.
	ErrFileTooLarge = gudtype.ErrFileTooLarge
)

// VersionInfo describes one committed version.
type VersionInfo struct {
	// Index is the position of the version in commit order, starting at 0.
	Index int

	// Number is the caller-assigned version number.
	Number uint64

	// Message is the commit message.
	Message string

	// Created is the commit time. It is zero if none was recorded.
	Created time.Time

	// Files is the number of paths in the version.
	Files int
}

// MetaFromFileInfo builds the metadata block for a file from its stat
// result. Size and Digest describe content and are left for the caller
// when info is not a regular file.
func MetaFromFileInfo(info fs.FileInfo) FileMeta {
	meta := FileMeta{
		ReadOnly: info.Mode().Perm()&0o200 == 0,
	}
	switch {
	case info.Mode()&fs.ModeSymlink != 0:
		meta.Kind = KindLink
	case info.IsDir():
		meta.Kind = KindDirectory
	default:
		meta.Kind = KindFile
		if info.Size() > 0 {
			meta.Size = uint64(info.Size())
		}
	}
	modified := info.ModTime()
	meta.Modified = &modified
	meta.Accessed, meta.Created = platform.FileTimes(info)
	return meta
}
