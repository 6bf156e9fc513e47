package cache

import "github.com/opencontainers/go-digest"

// Cache provides content-addressed storage of reconstructed file content.
//
// Keys are digests of uncompressed file content. Callers verify content
// returned by Get against the key before trusting it, so a corrupted entry
// is detected and deleted rather than served.
//
// Implementations should handle their own size limits and eviction policies.
// Implementations must be safe for concurrent use.
type Cache interface {
	// Get returns the cached content for d.
	// Returns nil, false if content is not cached.
	Get(d digest.Digest) ([]byte, bool)

	// Put stores content under d. Storing an existing key is a no-op.
	Put(d digest.Digest, content []byte) error

	// Delete removes cached content for d.
	// Implementations should treat missing entries as a no-op.
	Delete(d digest.Digest) error

	// MaxBytes returns the configured cache size limit (0 = unlimited).
	MaxBytes() int64

	// SizeBytes returns the current cache size in bytes.
	SizeBytes() int64

	// Prune removes cached entries until the cache is at or below targetBytes.
	// Returns the number of bytes freed.
	Prune(targetBytes int64) (int64, error)
}
