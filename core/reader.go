package gud

import (
	"fmt"
	"io"
	"iter"
	"log/slog"
	"os"
	"slices"

	"golang.org/x/sync/singleflight"

	"github.com/meigma/gud/core/cache"
	"github.com/meigma/gud/core/internal/codec"
	"github.com/meigma/gud/core/internal/format"
	"github.com/meigma/gud/core/internal/sizing"
)

// DefaultMaxFileSize is the default limit for a single payload, compressed
// or uncompressed (256MB).
const DefaultMaxFileSize = 256 << 20

// Option configures a Reader.
type Option func(*Reader)

// WithMaxFileSize limits the size of payloads the Reader will load.
// Set limit to 0 to disable the limit.
func WithMaxFileSize(limit uint64) Option {
	return func(r *Reader) {
		r.maxFileSize = limit
	}
}

// WithMaxDecoderMemory limits the maximum memory used by the zstd decoder.
// Set limit to 0 to disable the limit.
func WithMaxDecoderMemory(limit uint64) Option {
	return func(r *Reader) {
		r.maxDecoderMemory = limit
	}
}

// WithCache enables content-addressed caching of reconstructed files.
//
// Only entries that record a digest are cached. Cached content is verified
// against the digest on every hit.
func WithCache(c cache.Cache) Option {
	return func(r *Reader) {
		r.cache = c
	}
}

// WithLogger sets the logger for read events.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Reader) {
		r.logger = logger
	}
}

// version is one loaded Version Header with its resolved entries.
type version struct {
	info    VersionInfo
	entries map[string]*Entry
}

// Reader provides random access to every version in an archive.
//
// Open reads all headers into memory; payloads stay on disk and are read
// with positional reads. A Reader is safe for concurrent use.
type Reader struct {
	f                *os.File
	size             int64
	versions         []version
	decompressor     *codec.Decompressor
	maxFileSize      uint64
	maxDecoderMemory uint64
	cache            cache.Cache        // nil = no caching
	group            singleflight.Group // zero value is valid
	logger           *slog.Logger
}

// log returns the logger, falling back to a discard logger if nil.
func (r *Reader) log() *slog.Logger {
	if r.logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return r.logger
}

// Open loads the index of the archive at name.
//
// Every Version Header and File Header reachable from the root pointer is
// decoded and validated; any malformed record fails Open with ErrFormat.
// Bytes not reachable from the root pointer are ignored.
func Open(name string, opts ...Option) (*Reader, error) {
	f, err := os.Open(name) //nolint:gosec // caller-chosen archive path
	if err != nil {
		return nil, fmt.Errorf("open archive: %w", err)
	}

	r := &Reader{
		f:                f,
		maxFileSize:      DefaultMaxFileSize,
		maxDecoderMemory: codec.DefaultMaxDecoderMemory,
	}
	for _, opt := range opts {
		opt(r)
	}
	r.decompressor = codec.NewDecompressor(r.maxDecoderMemory)

	if err := r.load(); err != nil {
		f.Close()
		return nil, fmt.Errorf("open archive %s: %w", name, err)
	}
	r.log().Debug("archive opened", "archive", name, "versions", len(r.versions), "size", r.size)
	return r, nil
}

func (r *Reader) load() error {
	info, err := r.f.Stat()
	if err != nil {
		return err
	}
	r.size = info.Size()

	root, err := format.ReadRoot(r.f)
	if err != nil {
		return err
	}
	if root < format.RootSize || !sizing.InBounds(root, 1, r.size) {
		return fmt.Errorf("%w: root pointer %d outside archive of %d bytes", ErrFormat, root, r.size)
	}
	dir, err := format.ReadDirectory(r.f, root)
	if err != nil {
		return err
	}

	r.versions = make([]version, dir.Len())
	for i, off := range dir.Offsets {
		v, err := r.loadVersion(i, off)
		if err != nil {
			return fmt.Errorf("version %d: %w", i, err)
		}
		r.versions[i] = v
	}
	return nil
}

func (r *Reader) loadVersion(index int, off uint64) (version, error) {
	vh, err := format.ReadVersionHeader(r.f, off)
	if err != nil {
		return version{}, err
	}
	v := version{
		info: VersionInfo{
			Index:   index,
			Number:  vh.Number,
			Message: vh.Message,
			Created: vh.Created,
			Files:   len(vh.Files),
		},
		entries: make(map[string]*Entry, len(vh.Files)),
	}
	for p, headerOff := range vh.Files {
		fh, frameLen, err := format.ReadFileHeader(r.f, headerOff)
		if err != nil {
			return version{}, err
		}
		if fh.Path != p {
			return version{}, fmt.Errorf("%w: file header at %d names %q, version lists %q", ErrFormat, headerOff, fh.Path, p)
		}
		payloadOff := headerOff + frameLen
		if !sizing.InBounds(payloadOff, fh.CompressedSize, r.size) {
			return version{}, fmt.Errorf("%w: payload of %q at %d (%d bytes) exceeds archive", ErrFormat, p, payloadOff, fh.CompressedSize)
		}
		v.entries[p] = &Entry{
			Path:           p,
			HeaderOffset:   headerOff,
			PayloadOffset:  payloadOff,
			CompressedSize: fh.CompressedSize,
			PayloadSize:    fh.PayloadSize,
			Content:        fh.Content,
			Compression:    fh.Compression,
			Meta:           fh.Meta,
		}
	}
	return v, nil
}

// Close releases the archive file.
func (r *Reader) Close() error {
	return r.f.Close()
}

// Len returns the number of committed versions.
func (r *Reader) Len() int {
	return len(r.versions)
}

// Version returns the description of version i.
func (r *Reader) Version(i int) (VersionInfo, error) {
	v, err := r.version(i)
	if err != nil {
		return VersionInfo{}, err
	}
	return v.info, nil
}

// Versions returns an iterator over all versions in commit order.
func (r *Reader) Versions() iter.Seq[VersionInfo] {
	return func(yield func(VersionInfo) bool) {
		for i := range r.versions {
			if !yield(r.versions[i].info) {
				return
			}
		}
	}
}

// Paths returns the paths present in version i in sorted order.
func (r *Reader) Paths(i int) ([]string, error) {
	v, err := r.version(i)
	if err != nil {
		return nil, err
	}
	paths := make([]string, 0, len(v.entries))
	for p := range v.entries {
		paths = append(paths, p)
	}
	slices.Sort(paths)
	return paths, nil
}

// Entries returns an iterator over the entries of version i in path order.
// It yields nothing when i is out of range.
func (r *Reader) Entries(i int) iter.Seq[Entry] {
	return func(yield func(Entry) bool) {
		paths, err := r.Paths(i)
		if err != nil {
			return
		}
		for _, p := range paths {
			if !yield(*r.versions[i].entries[p]) {
				return
			}
		}
	}
}

// Entry returns the entry for path in version i.
func (r *Reader) Entry(i int, path string) (Entry, error) {
	e, err := r.entry(i, path)
	if err != nil {
		return Entry{}, err
	}
	return *e, nil
}

// RawPayload returns the decompressed payload stored for path in version i:
// the file content for a snapshot, the serialized patch for a patch.
func (r *Reader) RawPayload(i int, path string) ([]byte, error) {
	e, err := r.entry(i, path)
	if err != nil {
		return nil, err
	}
	return r.readPayload(e)
}

func (r *Reader) readPayload(e *Entry) ([]byte, error) {
	if r.maxFileSize > 0 && (e.CompressedSize > r.maxFileSize || e.PayloadSize > r.maxFileSize) {
		return nil, fmt.Errorf("%s: %w: payload of %d bytes exceeds limit %d", e.Path, ErrFileTooLarge, max(e.CompressedSize, e.PayloadSize), r.maxFileSize)
	}
	off, err := sizing.ToInt64(e.PayloadOffset, ErrSizeOverflow)
	if err != nil {
		return nil, err
	}
	n, err := sizing.ToInt64(e.CompressedSize, ErrSizeOverflow)
	if err != nil {
		return nil, err
	}
	data, err := r.decompressor.Decompress(io.NewSectionReader(r.f, off, n), e.Compression, e.PayloadSize)
	if err != nil {
		return nil, fmt.Errorf("read payload of %s at %d: %w", e.Path, e.PayloadOffset, err)
	}
	return data, nil
}

func (r *Reader) version(i int) (*version, error) {
	if i < 0 || i >= len(r.versions) {
		return nil, fmt.Errorf("%w: %d of %d", ErrIndexOutOfRange, i, len(r.versions))
	}
	return &r.versions[i], nil
}

func (r *Reader) entry(i int, path string) (*Entry, error) {
	v, err := r.version(i)
	if err != nil {
		return nil, err
	}
	e, ok := v.entries[path]
	if !ok {
		return nil, fmt.Errorf("%w: %s at version %d", ErrNotFound, path, i)
	}
	return e, nil
}
