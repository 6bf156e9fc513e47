package gud

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	gudcore "github.com/meigma/gud/core"
	"github.com/meigma/gud/core/cache/disk"
	"github.com/meigma/gud/internal/config"
	"github.com/meigma/gud/internal/platform"
	"github.com/meigma/gud/internal/walk"
)

// Layout of the metadata directory.
const (
	MetaDir      = walk.MetaDir
	ArchiveName  = "versions"
	ConfigName   = "config.yaml"
	ManifestName = "last"
	CacheName    = "cache"
	LockName     = "lock"
)

// Repository is a working tree tracked by a gud archive.
//
// Reads are safe for concurrent use. Commits take an exclusive lock on
// the metadata directory, so only one process commits at a time.
type Repository struct {
	root          string
	cfg           *config.Config
	cache         *disk.Cache
	cacheSize     int64
	exportWorkers int
	now           func() time.Time
	logger        *slog.Logger
}

// log returns the logger, falling back to a discard logger if nil.
func (r *Repository) log() *slog.Logger {
	if r.logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return r.logger
}

// Init creates a repository in dir: the metadata directory, an empty
// archive and a default configuration. dir must exist.
func Init(dir string, opts ...Option) (*Repository, error) {
	root, err := filepath.Abs(dir)
	if err != nil {
		return nil, err
	}
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("init: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("init %s: not a directory", root)
	}

	meta := filepath.Join(root, MetaDir)
	if err := os.Mkdir(meta, 0o755); err != nil {
		if errors.Is(err, os.ErrExist) {
			return nil, fmt.Errorf("init %s: %w", root, ErrAlreadyInitialized)
		}
		return nil, fmt.Errorf("init: %w", err)
	}
	if err := gudcore.Create(filepath.Join(meta, ArchiveName)); err != nil {
		return nil, fmt.Errorf("init: %w", err)
	}
	if err := config.Default().Save(filepath.Join(meta, ConfigName)); err != nil {
		return nil, fmt.Errorf("init: %w", err)
	}

	r, err := OpenRepository(root, opts...)
	if err != nil {
		return nil, err
	}
	r.log().Info("initialized repository", "root", root)
	return r, nil
}

// OpenRepository opens the repository rooted at dir.
func OpenRepository(dir string, opts ...Option) (*Repository, error) {
	root, err := filepath.Abs(dir)
	if err != nil {
		return nil, err
	}
	if _, err := os.Stat(filepath.Join(root, MetaDir, ArchiveName)); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("open %s: %w", root, ErrNotRepository)
		}
		return nil, fmt.Errorf("open %s: %w", root, err)
	}

	r := &Repository{
		root:          root,
		cacheSize:     DefaultCacheSize,
		exportWorkers: DefaultExportWorkers,
		now:           time.Now,
	}
	for _, opt := range opts {
		if err := opt(r); err != nil {
			return nil, err
		}
	}

	r.cfg, err = config.LoadFile(r.metaPath(ConfigName))
	if err != nil {
		return nil, err
	}
	r.cache, err = disk.New(r.metaPath(CacheName), disk.WithMaxBytes(r.cacheSize))
	if err != nil {
		return nil, fmt.Errorf("open content cache: %w", err)
	}
	return r, nil
}

// Root returns the absolute path of the working tree.
func (r *Repository) Root() string {
	return r.root
}

// Log returns every committed version in commit order.
func (r *Repository) Log() ([]gudcore.VersionInfo, error) {
	ar, err := r.openArchive()
	if err != nil {
		return nil, err
	}
	defer ar.Close()

	versions := make([]gudcore.VersionInfo, 0, ar.Len())
	for v := range ar.Versions() {
		versions = append(versions, v)
	}
	return versions, nil
}

// ReadFile returns the content of path at the version with the given
// index. A negative index counts back from the last version.
func (r *Repository) ReadFile(version int, path string) ([]byte, error) {
	ar, err := r.openArchive()
	if err != nil {
		return nil, err
	}
	defer ar.Close()

	return ar.Materialize(resolveIndex(ar, version), path)
}

func (r *Repository) metaPath(name string) string {
	return filepath.Join(r.root, MetaDir, name)
}

func (r *Repository) openArchive() (*gudcore.Reader, error) {
	return gudcore.Open(r.metaPath(ArchiveName),
		gudcore.WithCache(r.cache),
		gudcore.WithLogger(r.logger),
		gudcore.WithMaxFileSize(uint64(max(r.cfg.MaxFileSize, 0))), //nolint:gosec // clamped to non-negative
	)
}

func (r *Repository) lock() (*platform.Lock, error) {
	l, err := platform.TryLock(r.metaPath(LockName))
	if err != nil {
		return nil, fmt.Errorf("lock repository: %w", err)
	}
	return l, nil
}

// resolveIndex maps a negative index to a position counted from the end.
func resolveIndex(ar *gudcore.Reader, i int) int {
	if i < 0 {
		return ar.Len() + i
	}
	return i
}
