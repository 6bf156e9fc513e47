package gud

import (
	"errors"

	gudcore "github.com/meigma/gud/core"
	"github.com/meigma/gud/internal/platform"
)

// Errors re-exported from core.
var (
	// ErrFormat is returned when the archive is truncated or corrupted.
	ErrFormat = gudcore.ErrFormat

	// ErrPath is returned for absolute, non-canonical or duplicate paths.
	ErrPath = gudcore.ErrPath

	// ErrIndexOutOfRange is returned for a version index past the last version.
	ErrIndexOutOfRange = gudcore.ErrIndexOutOfRange

	// ErrNotFound is returned when a path is absent from a version.
	ErrNotFound = gudcore.ErrNotFound

	// ErrReconstruction is returned when a file cannot be rebuilt from its
	// patch chain.
	ErrReconstruction = gudcore.ErrReconstruction
)

// Errors specific to the repository layer.
var (
	// ErrNotRepository is returned when a directory has no .gud metadata.
	ErrNotRepository = errors.New("gud: not a repository")

	// ErrAlreadyInitialized is returned by Init when .gud already exists.
	ErrAlreadyInitialized = errors.New("gud: repository already initialized")

	// ErrLocked is returned when another process is committing.
	ErrLocked = platform.ErrLocked
)
