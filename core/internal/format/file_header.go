package format

import (
	"encoding/binary"
	"fmt"
	"hash/crc32"
	"io"
	"time"

	flatbuffers "github.com/google/flatbuffers/go"
	"github.com/opencontainers/go-digest"

	"github.com/meigma/gud/core/internal/fb"
	"github.com/meigma/gud/core/internal/gudtype"
)

// Metadata flag bits.
const (
	flagKindMask     = 0x03
	flagReadOnly     = 0x04
	flagModified     = 0x08
	flagAccessed     = 0x10
	flagCreated      = 0x20
	flagKnownBitMask = 0x3f
)

// FileHeader is the record written ahead of every stored payload.
type FileHeader struct {
	CompressedSize uint64
	Path           string
	Content        gudtype.ContentKind
	Compression    gudtype.Compression
	PayloadSize    uint64
	Meta           gudtype.FileMeta
}

// MarshalFrame encodes the header as a File Header frame.
func (h *FileHeader) MarshalFrame() ([]byte, error) {
	builder := flatbuffers.NewBuilder(128 + len(h.Path))

	pathOffset := builder.CreateString(h.Path)
	var digestOffset flatbuffers.UOffsetT
	if h.Meta.Digest != "" {
		digestOffset = builder.CreateString(h.Meta.Digest.String())
	}

	flags := byte(h.Meta.Kind) & flagKindMask
	if h.Meta.ReadOnly {
		flags |= flagReadOnly
	}

	fb.FileHeaderStart(builder)
	fb.FileHeaderAddPath(builder, pathOffset)
	fb.FileHeaderAddContent(builder, fb.ContentKind(h.Content))
	fb.FileHeaderAddCompression(builder, fb.Compression(h.Compression))
	fb.FileHeaderAddSize(builder, h.Meta.Size)
	fb.FileHeaderAddPayloadSize(builder, h.PayloadSize)
	if h.Meta.Modified != nil {
		flags |= flagModified
		fb.FileHeaderAddModifiedNs(builder, h.Meta.Modified.UnixNano())
	}
	if h.Meta.Accessed != nil {
		flags |= flagAccessed
		fb.FileHeaderAddAccessedNs(builder, h.Meta.Accessed.UnixNano())
	}
	if h.Meta.Created != nil {
		flags |= flagCreated
		fb.FileHeaderAddCreatedNs(builder, h.Meta.Created.UnixNano())
	}
	fb.FileHeaderAddFlags(builder, flags)
	if digestOffset != 0 {
		fb.FileHeaderAddDigest(builder, digestOffset)
	}
	fb.FinishFileHeaderBuffer(builder, fb.FileHeaderEnd(builder))
	body := builder.FinishedBytes()
	if len(body) > MaxBodySize {
		return nil, fmt.Errorf("%w: file header for %s too large", gudtype.ErrSizeOverflow, h.Path)
	}

	out := make([]byte, fileFrameHeaderSize, fileFrameHeaderSize+len(body))
	out[0] = TagFile
	binary.LittleEndian.PutUint64(out[1:9], h.CompressedSize)
	binary.LittleEndian.PutUint32(out[9:13], uint32(len(body))) //nolint:gosec // checked above
	binary.LittleEndian.PutUint32(out[13:17], crc32.Checksum(body, castagnoli))
	return append(out, body...), nil
}

// PutCompressedSize overwrites the compressed_size field of the File Header
// frame that starts at slot.
func PutCompressedSize(w io.WriterAt, slot, size uint64) error {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], size)
	if _, err := w.WriteAt(buf[:], int64(slot+SizeFieldOffset)); err != nil { //nolint:gosec // slot comes from a valid file position
		return fmt.Errorf("backfill compressed size: %w", err)
	}
	return nil
}

// ReadFileHeader decodes the File Header frame at off. It returns the header
// and the frame length; the payload starts at off plus the frame length.
func ReadFileHeader(r io.ReaderAt, off uint64) (*FileHeader, uint64, error) {
	var hdr [fileFrameHeaderSize]byte
	if err := readAt(r, hdr[:], off); err != nil {
		return nil, 0, recordErr(TagFile, off, err)
	}
	if hdr[0] != TagFile {
		return nil, 0, recordErr(TagFile, off, fmt.Errorf("%w: unexpected tag 0x%02x", gudtype.ErrFormat, hdr[0]))
	}
	body, err := readBody(r, off+fileFrameHeaderSize, binary.LittleEndian.Uint32(hdr[9:13]), binary.LittleEndian.Uint32(hdr[13:17]))
	if err != nil {
		return nil, 0, recordErr(TagFile, off, err)
	}

	h := &FileHeader{CompressedSize: binary.LittleEndian.Uint64(hdr[1:9])}
	if err := parse(func() error { return h.decodeBody(body) }); err != nil {
		return nil, 0, recordErr(TagFile, off, err)
	}
	return h, fileFrameHeaderSize + uint64(len(body)), nil
}

func (h *FileHeader) decodeBody(body []byte) error {
	root := fb.GetRootAsFileHeader(body, 0)

	h.Path = string(root.Path())
	if err := CheckPath(h.Path); err != nil {
		return fmt.Errorf("%w: path %q: %v", gudtype.ErrFormat, h.Path, err)
	}

	switch root.Content() {
	case fb.ContentKindSnapshot:
		h.Content = gudtype.Snapshot
	case fb.ContentKindPatch:
		h.Content = gudtype.Patch
	default:
		return fmt.Errorf("%w: unknown content kind %d", gudtype.ErrFormat, root.Content())
	}

	h.Compression = gudtype.Compression(root.Compression())
	if h.Compression > gudtype.CompressionLZ4 {
		return fmt.Errorf("%w: unknown compression %d", gudtype.ErrFormat, root.Compression())
	}

	flags := root.Flags()
	if flags&^flagKnownBitMask != 0 {
		return fmt.Errorf("%w: unknown metadata flags 0x%02x", gudtype.ErrFormat, flags)
	}
	kind := gudtype.FileKind(flags & flagKindMask)
	if kind > gudtype.KindLink {
		return fmt.Errorf("%w: unknown file kind %d", gudtype.ErrFormat, kind)
	}

	h.PayloadSize = root.PayloadSize()
	h.Meta = gudtype.FileMeta{
		Size:     root.Size(),
		Kind:     kind,
		ReadOnly: flags&flagReadOnly != 0,
	}
	if flags&flagModified != 0 {
		h.Meta.Modified = unixNano(root.ModifiedNs())
	}
	if flags&flagAccessed != 0 {
		h.Meta.Accessed = unixNano(root.AccessedNs())
	}
	if flags&flagCreated != 0 {
		h.Meta.Created = unixNano(root.CreatedNs())
	}
	if raw := root.Digest(); len(raw) > 0 {
		d, err := digest.Parse(string(raw))
		if err != nil {
			return fmt.Errorf("%w: digest: %v", gudtype.ErrFormat, err)
		}
		h.Meta.Digest = d
	}
	return nil
}

func unixNano(ns int64) *time.Time {
	t := time.Unix(0, ns)
	return &t
}
