package codec

import (
	"io"

	"github.com/meigma/gud/core/internal/gudtype"
)

// countingWriter counts the compressed bytes that reach the archive.
type countingWriter struct {
	w io.Writer
	n uint64
}

func (cw *countingWriter) Write(p []byte) (int, error) {
	n, err := cw.w.Write(p)
	if n > 0 {
		if cw.n > ^uint64(0)-uint64(n) {
			return n, gudtype.ErrSizeOverflow
		}
		cw.n += uint64(n)
	}
	return n, err
}

// countingReader counts the uncompressed bytes taken from the source.
type countingReader struct {
	r io.Reader
	n uint64
}

func (cr *countingReader) Read(p []byte) (int, error) {
	n, err := cr.r.Read(p)
	if n > 0 {
		if cr.n > ^uint64(0)-uint64(n) {
			return n, gudtype.ErrSizeOverflow
		}
		cr.n += uint64(n)
	}
	return n, err
}
