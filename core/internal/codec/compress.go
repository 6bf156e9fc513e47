// Package codec adapts the zstd and lz4 stream codecs to the payload
// contract of the archive: compress a stream into the archive counting the
// bytes written, and decompress a stored payload of known size.
package codec

import (
	"errors"
	"fmt"
	"io"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"

	"github.com/meigma/gud/core/internal/gudtype"
)

const copyBufferSize = 32 * 1024

// Compressor streams payloads through a reusable encoder per algorithm.
// It is not safe for concurrent use.
type Compressor struct {
	zstd  *zstd.Encoder
	lz4   *lz4.Writer
	level zstd.EncoderLevel
	buf   []byte
}

// CompressorOption configures a Compressor.
type CompressorOption func(*Compressor)

// WithZstdLevel sets the zstd encoder level (default: zstd.SpeedDefault).
func WithZstdLevel(level zstd.EncoderLevel) CompressorOption {
	return func(c *Compressor) {
		c.level = level
	}
}

// NewCompressor creates a Compressor. Encoders are created lazily on first use.
func NewCompressor(opts ...CompressorOption) *Compressor {
	c := &Compressor{
		level: zstd.SpeedDefault,
		buf:   make([]byte, copyBufferSize),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Compress reads src to EOF and writes its compressed form to dst.
// It returns the number of bytes written to dst and read from src.
func (c *Compressor) Compress(dst io.Writer, src io.Reader, alg gudtype.Compression) (written, read uint64, err error) {
	cw := &countingWriter{w: dst}
	cr := &countingReader{r: src}

	switch alg {
	case gudtype.CompressionNone:
		if _, err := io.CopyBuffer(cw, cr, c.buf); err != nil {
			return 0, 0, err
		}
	case gudtype.CompressionZstd:
		if c.zstd == nil {
			enc, encErr := zstd.NewWriter(nil, zstd.WithEncoderLevel(c.level), zstd.WithEncoderConcurrency(1), zstd.WithZeroFrames(true))
			if encErr != nil {
				return 0, 0, fmt.Errorf("create zstd encoder: %w", encErr)
			}
			c.zstd = enc
		}
		c.zstd.Reset(cw)
		if _, err := io.CopyBuffer(c.zstd, cr, c.buf); err != nil {
			c.zstd.Close()
			return 0, 0, err
		}
		if err := c.zstd.Close(); err != nil {
			return 0, 0, fmt.Errorf("close zstd encoder: %w", err)
		}
	case gudtype.CompressionLZ4:
		if c.lz4 == nil {
			c.lz4 = lz4.NewWriter(cw)
		} else {
			c.lz4.Reset(cw)
		}
		if _, err := io.CopyBuffer(c.lz4, cr, c.buf); err != nil {
			c.lz4.Close()
			return 0, 0, err
		}
		if err := c.lz4.Close(); err != nil {
			return 0, 0, fmt.Errorf("close lz4 writer: %w", err)
		}
	default:
		return 0, 0, fmt.Errorf("unknown compression algorithm: %s", alg)
	}
	return cw.n, cr.n, nil
}

// Close releases encoder resources.
func (c *Compressor) Close() error {
	var errs []error
	if c.zstd != nil {
		errs = append(errs, c.zstd.Close())
		c.zstd = nil
	}
	c.lz4 = nil
	return errors.Join(errs...)
}
