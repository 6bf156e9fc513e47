package format

import (
	"encoding/binary"
	"errors"
	"fmt"
	"hash/crc32"
	"io"

	"github.com/meigma/gud/core/internal/gudtype"
)

// Record tags.
const (
	TagFile      byte = 'F'
	TagVersion   byte = 'V'
	TagDirectory byte = 'D'
)

const (
	// RootSize is the size of the root pointer at offset 0.
	RootSize = 8

	// SizeFieldOffset is the position of compressed_size within a File
	// Header frame.
	SizeFieldOffset = 1

	// MaxBodySize bounds the body of a single record.
	MaxBodySize = 64 << 20

	frameHeaderSize     = 1 + 4 + 4
	fileFrameHeaderSize = 1 + 8 + 4 + 4
)

var castagnoli = crc32.MakeTable(crc32.Castagnoli)

// appendFrame builds a Version Header or Directory frame around body.
func appendFrame(tag byte, body []byte) []byte {
	out := make([]byte, frameHeaderSize, frameHeaderSize+len(body))
	out[0] = tag
	binary.LittleEndian.PutUint32(out[1:5], uint32(len(body))) //nolint:gosec // bounded by MaxBodySize at encode time
	binary.LittleEndian.PutUint32(out[5:9], crc32.Checksum(body, castagnoli))
	return append(out, body...)
}

// readFrame reads the frame at off and returns its checksummed body and the
// total frame length.
func readFrame(r io.ReaderAt, off uint64, tag byte) ([]byte, uint64, error) {
	var hdr [frameHeaderSize]byte
	if err := readAt(r, hdr[:], off); err != nil {
		return nil, 0, recordErr(tag, off, err)
	}
	if hdr[0] != tag {
		return nil, 0, recordErr(tag, off, fmt.Errorf("%w: unexpected tag 0x%02x", gudtype.ErrFormat, hdr[0]))
	}
	body, err := readBody(r, off+frameHeaderSize, binary.LittleEndian.Uint32(hdr[1:5]), binary.LittleEndian.Uint32(hdr[5:9]))
	if err != nil {
		return nil, 0, recordErr(tag, off, err)
	}
	return body, frameHeaderSize + uint64(len(body)), nil
}

func readBody(r io.ReaderAt, off uint64, length, sum uint32) ([]byte, error) {
	if length > MaxBodySize {
		return nil, fmt.Errorf("%w: body length %d exceeds limit", gudtype.ErrFormat, length)
	}
	body := make([]byte, length)
	if err := readAt(r, body, off); err != nil {
		return nil, err
	}
	if crc32.Checksum(body, castagnoli) != sum {
		return nil, fmt.Errorf("%w: checksum mismatch", gudtype.ErrFormat)
	}
	return body, nil
}

// readAt fills p from off. A short read is a format error; anything else is
// returned as the underlying I/O error.
func readAt(r io.ReaderAt, p []byte, off uint64) error {
	if off > 1<<62 {
		return fmt.Errorf("%w: offset %d out of range", gudtype.ErrFormat, off)
	}
	n, err := r.ReadAt(p, int64(off))
	if n == len(p) {
		return nil
	}
	if err == nil || errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return fmt.Errorf("%w: truncated record (%d of %d bytes)", gudtype.ErrFormat, n, len(p))
	}
	return err
}

func recordErr(tag byte, off uint64, err error) error {
	return fmt.Errorf("read %s at offset %d: %w", recordName(tag), off, err)
}

func recordName(tag byte) string {
	switch tag {
	case TagFile:
		return "file header"
	case TagVersion:
		return "version header"
	case TagDirectory:
		return "version directory"
	default:
		return "record"
	}
}

// parse runs a FlatBuffers accessor, turning the panics produced by
// malformed buffers into format errors.
func parse(fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", gudtype.ErrFormat, r)
		}
	}()
	return fn()
}
