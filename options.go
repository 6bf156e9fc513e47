package gud

import (
	"errors"
	"log/slog"
	"time"
)

// Option configures a Repository.
type Option func(*Repository) error

// DefaultCacheSize is the default limit of the content cache (256 MB).
const DefaultCacheSize int64 = 256 << 20

// DefaultExportWorkers is the default number of files Export writes in
// parallel.
const DefaultExportWorkers = 8

// WithLogger sets the logger for repository operations. The logger is
// passed down to the archive reader and writer.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Repository) error {
		r.logger = logger
		return nil
	}
}

// WithCacheSize limits the on-disk content cache. Use 0 to disable the limit.
func WithCacheSize(n int64) Option {
	return func(r *Repository) error {
		if n < 0 {
			return errors.New("cache size must be >= 0")
		}
		r.cacheSize = n
		return nil
	}
}

// WithExportWorkers sets how many files Export writes in parallel.
func WithExportWorkers(n int) Option {
	return func(r *Repository) error {
		if n < 1 {
			return errors.New("export workers must be >= 1")
		}
		r.exportWorkers = n
		return nil
	}
}

// WithClock overrides the source of commit timestamps.
func WithClock(now func() time.Time) Option {
	return func(r *Repository) error {
		r.now = now
		return nil
	}
}
