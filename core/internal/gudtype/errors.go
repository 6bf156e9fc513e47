package gudtype

import (
	"errors"
	"fmt"
)

// Sentinel errors for archive operations.
var (
	// ErrFormat is returned when a serialized record is truncated or malformed.
	ErrFormat = errors.New("gud: malformed archive record")

	// ErrPath is returned when a commit is given an absolute, non-canonical,
	// or duplicate path.
	ErrPath = errors.New("gud: invalid path")

	// ErrIndexOutOfRange is returned when a version index is beyond the
	// loaded version sequence.
	ErrIndexOutOfRange = errors.New("gud: version index out of range")

	// ErrNotFound is returned when a path is absent from the requested version.
	ErrNotFound = errors.New("gud: path not found in version")

	// ErrReconstruction is returned when a patch fails to apply or a patch
	// chain has no snapshot anchor.
	ErrReconstruction = errors.New("gud: reconstruction failed")

	// ErrVersionNumber is returned when a commit number does not exceed the
	// number of the last committed version.
	ErrVersionNumber = errors.New("gud: version number must increase")

	// ErrDecompression is returned when a payload fails to decompress.
	ErrDecompression = errors.New("gud: decompression failed")

	// ErrSizeOverflow is returned when byte counts exceed supported limits.
	ErrSizeOverflow = errors.New("gud: size overflow")

	// ErrWriterClosed is returned when a finished or aborted writer is used.
	ErrWriterClosed = errors.New("gud: writer closed")

	// ErrContentMismatch is returned when appended content does not match
	// the size or digest in its metadata.
	ErrContentMismatch = errors.New("gud: content does not match metadata")

	// ErrFileTooLarge is returned when a payload exceeds the configured
	// per-file limit.
	ErrFileTooLarge = errors.New("gud: file too large")
)

// Path error causes. All wrap ErrPath.
var (
	ErrAbsolutePath  = fmt.Errorf("%w: path must be relative", ErrPath)
	ErrDuplicatePath = fmt.Errorf("%w: path already appended in this version", ErrPath)
	ErrInvalidPath   = fmt.Errorf("%w: path is not canonical", ErrPath)
)
