package codec

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"

	"github.com/meigma/gud/core/internal/gudtype"
	"github.com/meigma/gud/core/internal/sizing"
)

// DefaultMaxDecoderMemory is the default zstd decoder memory limit (256MB).
const DefaultMaxDecoderMemory = 256 << 20

// Decompressor restores stored payloads. It keeps a pool of zstd decoders
// and is safe for concurrent use.
type Decompressor struct {
	pool             sync.Pool
	maxDecoderMemory uint64
}

// NewDecompressor creates a Decompressor. If maxDecoderMemory is 0, no memory
// limit is applied to zstd decoders.
func NewDecompressor(maxDecoderMemory uint64) *Decompressor {
	return &Decompressor{maxDecoderMemory: maxDecoderMemory}
}

// Decompress reads a compressed payload from src and returns exactly size
// uncompressed bytes. A payload that decodes to more or fewer bytes is an
// ErrDecompression.
func (d *Decompressor) Decompress(src io.Reader, alg gudtype.Compression, size uint64) ([]byte, error) {
	n, err := sizing.ToInt(size, gudtype.ErrSizeOverflow)
	if err != nil {
		return nil, err
	}

	switch alg {
	case gudtype.CompressionNone:
		return readExact(src, n, false)
	case gudtype.CompressionZstd:
		dec, release, err := d.getZstd(src)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", gudtype.ErrDecompression, err)
		}
		defer release()
		return readExact(dec, n, true)
	case gudtype.CompressionLZ4:
		return readExact(lz4.NewReader(src), n, true)
	default:
		return nil, fmt.Errorf("%w: unknown compression algorithm %s", gudtype.ErrDecompression, alg)
	}
}

// getZstd returns a pooled decoder reading from r and its release function.
func (d *Decompressor) getZstd(r io.Reader) (*zstd.Decoder, func(), error) {
	if v := d.pool.Get(); v != nil {
		if dec, ok := v.(*zstd.Decoder); ok {
			if err := dec.Reset(r); err == nil {
				return dec, func() {
					_ = dec.Reset(nil) //nolint:errcheck // clearing state before pool return
					d.pool.Put(dec)
				}, nil
			}
			dec.Close()
		}
	}

	opts := []zstd.DOption{zstd.WithDecoderConcurrency(1)}
	if d.maxDecoderMemory != 0 {
		opts = append(opts, zstd.WithDecoderMaxMemory(d.maxDecoderMemory))
	}
	dec, err := zstd.NewReader(r, opts...)
	if err != nil {
		return nil, nil, err
	}
	return dec, func() {
		_ = dec.Reset(nil) //nolint:errcheck // clearing state before pool return
		d.pool.Put(dec)
	}, nil
}

// readExact reads n bytes from r and checks that r is exhausted afterwards.
func readExact(r io.Reader, n int, compressed bool) ([]byte, error) {
	out := make([]byte, n)
	got, err := io.ReadFull(r, out)
	if err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return nil, fmt.Errorf("%w: short payload (%d of %d bytes)", gudtype.ErrDecompression, got, n)
		}
		if compressed {
			return nil, fmt.Errorf("%w: %v", gudtype.ErrDecompression, err)
		}
		return nil, err
	}

	var probe [1]byte
	extra, err := r.Read(probe[:])
	if extra > 0 {
		return nil, fmt.Errorf("%w: payload longer than %d bytes", gudtype.ErrDecompression, n)
	}
	if err != nil && !errors.Is(err, io.EOF) {
		if compressed {
			return nil, fmt.Errorf("%w: %v", gudtype.ErrDecompression, err)
		}
		return nil, err
	}
	if err == nil {
		// A reader may report EOF one call late.
		if extra, err = r.Read(probe[:]); extra > 0 || (err != nil && !errors.Is(err, io.EOF)) {
			return nil, fmt.Errorf("%w: trailing data after %d bytes", gudtype.ErrDecompression, n)
		}
	}
	return out, nil
}

// Compress is a convenience for small in-memory payloads.
func Compress(data []byte, alg gudtype.Compression) ([]byte, error) {
	var buf bytes.Buffer
	c := NewCompressor()
	defer c.Close()
	if _, _, err := c.Compress(&buf, bytes.NewReader(data), alg); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
