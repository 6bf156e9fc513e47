package gud

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"time"

	"github.com/klauspost/compress/zstd"
	"github.com/opencontainers/go-digest"

	"github.com/meigma/gud/core/internal/codec"
	"github.com/meigma/gud/core/internal/format"
	"github.com/meigma/gud/core/internal/gudtype"
	"github.com/meigma/gud/core/internal/sizing"
	"github.com/meigma/gud/core/patch"
)

// WriterOption configures a Writer.
type WriterOption func(*writerConfig)

type writerConfig struct {
	compression Compression
	zstdLevel   zstd.EncoderLevel
	now         func() time.Time
	logger      *slog.Logger
}

// WithCompression sets the codec used for payloads (default: zstd).
func WithCompression(c Compression) WriterOption {
	return func(cfg *writerConfig) {
		cfg.compression = c
	}
}

// WithZstdLevel sets the zstd encoder level (default: zstd.SpeedDefault).
func WithZstdLevel(level zstd.EncoderLevel) WriterOption {
	return func(cfg *writerConfig) {
		cfg.zstdLevel = level
	}
}

// WithWriterLogger sets the logger for commit events.
func WithWriterLogger(logger *slog.Logger) WriterOption {
	return func(cfg *writerConfig) {
		cfg.logger = logger
	}
}

// WithClock overrides the source of the commit timestamp.
func WithClock(now func() time.Time) WriterOption {
	return func(cfg *writerConfig) {
		cfg.now = now
	}
}

// Writer appends one version to an archive.
//
// Appends stream each payload to the end of the file. Nothing becomes
// visible to readers until Finish rewrites the root pointer, so a Writer
// that fails, is aborted, or whose process dies leaves the archive at its
// previous version. Unreachable bytes from such a transaction are ignored
// and later commits append after them.
//
// A Writer is not safe for concurrent use, and only one Writer may be open
// on an archive at a time.
type Writer struct {
	f           *os.File
	name        string
	number      uint64
	message     string
	directory   format.Directory
	files       map[string]uint64
	pos         uint64
	origSize    int64
	compression Compression
	compressor  *codec.Compressor
	now         func() time.Time
	logger      *slog.Logger

	// err poisons the transaction after an I/O or codec failure.
	err    error
	closed bool

	// beforePublish runs after the directory is durable and before the
	// root pointer is written.
	beforePublish func() error
}

// OpenWriter starts a transaction that will commit version number with the
// given message. The number must be greater than the number of the last
// committed version.
func OpenWriter(name string, number uint64, message string, opts ...WriterOption) (*Writer, error) {
	cfg := writerConfig{
		compression: CompressionZstd,
		zstdLevel:   zstd.SpeedDefault,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.compression > CompressionLZ4 {
		return nil, fmt.Errorf("open writer: unknown compression %s", cfg.compression)
	}

	f, err := os.OpenFile(name, os.O_RDWR, 0) //nolint:gosec // caller-chosen archive path
	if err != nil {
		return nil, fmt.Errorf("open writer: %w", err)
	}
	w, err := newWriter(f, name, number, message, &cfg)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("open writer %s: %w", name, err)
	}
	return w, nil
}

func newWriter(f *os.File, name string, number uint64, message string, cfg *writerConfig) (*Writer, error) {
	info, err := f.Stat()
	if err != nil {
		return nil, err
	}
	size := info.Size()

	root, err := format.ReadRoot(f)
	if err != nil {
		return nil, err
	}
	if root < format.RootSize || !sizing.InBounds(root, 1, size) {
		return nil, fmt.Errorf("%w: root pointer %d outside archive of %d bytes", ErrFormat, root, size)
	}
	dir, err := format.ReadDirectory(f, root)
	if err != nil {
		return nil, err
	}
	if n := dir.Len(); n > 0 {
		last, err := format.ReadVersionHeader(f, dir.Offsets[n-1])
		if err != nil {
			return nil, err
		}
		if number <= last.Number {
			return nil, fmt.Errorf("%w: %d after %d", ErrVersionNumber, number, last.Number)
		}
	}

	w := &Writer{
		f:           f,
		name:        name,
		number:      number,
		message:     message,
		directory:   format.Directory{Offsets: dir.Offsets},
		files:       make(map[string]uint64),
		pos:         uint64(size), //nolint:gosec // file sizes are non-negative
		origSize:    size,
		compression: cfg.compression,
		compressor:  codec.NewCompressor(codec.WithZstdLevel(cfg.zstdLevel)),
		now:         cfg.now,
		logger:      cfg.logger,
	}
	w.log().Debug("writer opened", "archive", name, "versions", dir.Len(), "number", number, "offset", w.pos)
	return w, nil
}

// log returns the logger, falling back to a discard logger if nil.
func (w *Writer) log() *slog.Logger {
	if w.logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return w.logger
}

// AppendSnapshot stores the complete content read from src under path.
// src must yield exactly meta.Size bytes; when meta.Digest is set the
// content must also match it. A mismatch returns ErrContentMismatch and
// discards the append without affecting the transaction.
func (w *Writer) AppendSnapshot(path string, src io.Reader, meta FileMeta) error {
	if err := w.checkAppend(path, meta); err != nil {
		return err
	}

	var verifier digest.Verifier
	if meta.Digest != "" {
		verifier = meta.Digest.Verifier()
		src = io.TeeReader(src, verifier)
	}

	slot := w.pos
	read, err := w.append(path, Snapshot, meta.Size, src, meta)
	if err != nil {
		return err
	}
	if read != meta.Size {
		w.pos = slot
		return &fs.PathError{Op: "append", Path: path, Err: fmt.Errorf("%w: read %d bytes, expected %d", ErrContentMismatch, read, meta.Size)}
	}
	if verifier != nil && !verifier.Verified() {
		w.pos = slot
		return &fs.PathError{Op: "append", Path: path, Err: fmt.Errorf("%w: digest %s", ErrContentMismatch, meta.Digest)}
	}
	w.files[path] = slot
	w.log().Debug("appended snapshot", "path", path, "size", meta.Size, "offset", slot)
	return nil
}

// AppendPatch stores p under path as a patch against the content path had
// in the previous version. meta describes the content after applying p.
func (w *Writer) AppendPatch(path string, p *patch.Patch, meta FileMeta) error {
	if err := w.checkAppend(path, meta); err != nil {
		return err
	}
	data := p.Bytes()

	slot := w.pos
	if _, err := w.append(path, Patch, uint64(len(data)), bytes.NewReader(data), meta); err != nil {
		return err
	}
	w.files[path] = slot
	w.log().Debug("appended patch", "path", path, "hunks", p.Len(), "payload_size", len(data), "offset", slot)
	return nil
}

// Finish publishes the version. It writes the Version Header and a new
// Version Directory, syncs them, and then points the root pointer at the
// new directory. The Writer is closed afterwards, whether or not Finish
// succeeds; a failed Finish leaves the previous version current.
func (w *Writer) Finish() error {
	if err := w.usable(); err != nil {
		return err
	}
	err := w.finish()
	closeErr := w.close()
	if err != nil {
		return fmt.Errorf("commit version %d: %w", w.number, err)
	}
	if closeErr != nil {
		return fmt.Errorf("commit version %d: %w", w.number, closeErr)
	}
	w.log().Info("committed version",
		"archive", w.name,
		"number", w.number,
		"index", w.directory.Len()-1,
		"files", len(w.files))
	return nil
}

func (w *Writer) finish() error {
	vh := format.VersionHeader{
		Number:  w.number,
		Message: w.message,
		Created: w.now(),
		Files:   w.files,
	}
	frame, err := vh.MarshalFrame()
	if err != nil {
		return err
	}
	headerOff := w.pos
	if err := w.writeAt(frame, headerOff); err != nil {
		return err
	}

	w.directory.Append(headerOff)
	dirOff := w.pos
	if err := w.writeAt(w.directory.MarshalFrame(), dirOff); err != nil {
		return err
	}
	if err := w.f.Sync(); err != nil {
		return w.poison(fmt.Errorf("sync: %w", err))
	}

	if w.beforePublish != nil {
		if err := w.beforePublish(); err != nil {
			return w.poison(err)
		}
	}

	if err := format.WriteRoot(w.f, dirOff); err != nil {
		return w.poison(err)
	}
	if err := w.f.Sync(); err != nil {
		return w.poison(fmt.Errorf("sync: %w", err))
	}
	return nil
}

// Abort abandons the transaction. Bytes appended by this Writer are
// truncated when possible; the previous version stays current either way.
// Abort on a closed Writer is a no-op.
func (w *Writer) Abort() error {
	if w.closed {
		return nil
	}
	if err := w.f.Truncate(w.origSize); err != nil {
		w.log().Debug("abort left tail bytes", "archive", w.name, "error", err)
	}
	w.log().Debug("transaction aborted", "archive", w.name, "number", w.number, "files", len(w.files))
	return w.close()
}

// Err returns the error that poisoned the transaction, if any.
func (w *Writer) Err() error {
	return w.err
}

func (w *Writer) close() error {
	w.closed = true
	return errors.Join(w.compressor.Close(), w.f.Close())
}

func (w *Writer) usable() error {
	if w.closed {
		return ErrWriterClosed
	}
	return w.err
}

// checkAppend validates an append before any byte is written. Its errors do
// not poison the transaction.
func (w *Writer) checkAppend(path string, meta FileMeta) error {
	if err := w.usable(); err != nil {
		return err
	}
	if err := format.CheckPath(path); err != nil {
		return &fs.PathError{Op: "append", Path: path, Err: err}
	}
	if _, dup := w.files[path]; dup {
		return &fs.PathError{Op: "append", Path: path, Err: gudtype.ErrDuplicatePath}
	}
	if meta.Digest != "" {
		if err := meta.Digest.Validate(); err != nil {
			return &fs.PathError{Op: "append", Path: path, Err: err}
		}
	}
	return nil
}

// append performs the two-phase write of one entry: a File Header with a
// zero size field, the compressed payload, then the backfilled size. It
// returns the number of uncompressed bytes consumed from src.
func (w *Writer) append(path string, kind ContentKind, payloadSize uint64, src io.Reader, meta FileMeta) (uint64, error) {
	hdr := format.FileHeader{
		Path:        path,
		Content:     kind,
		Compression: w.compression,
		PayloadSize: payloadSize,
		Meta:        meta,
	}
	frame, err := hdr.MarshalFrame()
	if err != nil {
		return 0, &fs.PathError{Op: "append", Path: path, Err: err}
	}

	slot := w.pos
	if err := w.writeAt(frame, slot); err != nil {
		return 0, err
	}

	payloadOff := w.pos
	dst := io.NewOffsetWriter(w.f, int64(payloadOff)) //nolint:gosec // offsets stay within the file
	written, read, err := w.compressor.Compress(dst, src, w.compression)
	if err != nil {
		return 0, w.poison(fmt.Errorf("append %s: %w", path, err))
	}
	if err := format.PutCompressedSize(w.f, slot, written); err != nil {
		return 0, w.poison(err)
	}
	end, ok := sizing.AddUint64(payloadOff, written)
	if !ok {
		return 0, w.poison(ErrSizeOverflow)
	}
	w.pos = end
	return read, nil
}

// writeAt writes p at off and advances the end position past it.
func (w *Writer) writeAt(p []byte, off uint64) error {
	if _, err := w.f.WriteAt(p, int64(off)); err != nil { //nolint:gosec // offsets stay within the file
		return w.poison(fmt.Errorf("write at %d: %w", off, err))
	}
	end, ok := sizing.AddUint64(off, uint64(len(p)))
	if !ok {
		return w.poison(ErrSizeOverflow)
	}
	w.pos = end
	return nil
}

func (w *Writer) poison(err error) error {
	if w.err == nil {
		w.err = err
		w.log().Debug("transaction failed", "archive", w.name, "number", w.number, "error", err)
	}
	return w.err
}
