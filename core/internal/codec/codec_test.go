package codec

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meigma/gud/core/internal/gudtype"
)

var algorithms = []gudtype.Compression{
	gudtype.CompressionNone,
	gudtype.CompressionZstd,
	gudtype.CompressionLZ4,
}

func TestCompressDecompress(t *testing.T) {
	t.Parallel()

	inputs := map[string][]byte{
		"empty":      {},
		"small":      []byte("hello, world\n"),
		"repetitive": []byte(strings.Repeat("abcdefgh", 64*1024)),
	}

	for _, alg := range algorithms {
		for name, data := range inputs {
			t.Run(alg.String()+"/"+name, func(t *testing.T) {
				t.Parallel()

				var buf bytes.Buffer
				c := NewCompressor()
				defer c.Close()

				written, read, err := c.Compress(&buf, bytes.NewReader(data), alg)
				require.NoError(t, err)
				assert.Equal(t, uint64(len(data)), read)
				assert.Equal(t, uint64(buf.Len()), written)

				d := NewDecompressor(DefaultMaxDecoderMemory)
				got, err := d.Decompress(bytes.NewReader(buf.Bytes()), alg, uint64(len(data)))
				require.NoError(t, err)
				assert.Equal(t, data, got)
			})
		}
	}
}

func TestCompressorReuse(t *testing.T) {
	t.Parallel()

	c := NewCompressor()
	defer c.Close()
	d := NewDecompressor(0)

	for i := range 3 {
		for _, alg := range algorithms {
			data := []byte(strings.Repeat("round ", i+1))
			var buf bytes.Buffer
			_, _, err := c.Compress(&buf, bytes.NewReader(data), alg)
			require.NoError(t, err)

			got, err := d.Decompress(&buf, alg, uint64(len(data)))
			require.NoError(t, err)
			assert.Equal(t, data, got)
		}
	}
}

func TestDecompressSizeMismatch(t *testing.T) {
	t.Parallel()

	data := []byte("exactly twenty bytes")
	for _, alg := range algorithms {
		t.Run(alg.String(), func(t *testing.T) {
			t.Parallel()

			stored, err := Compress(data, alg)
			require.NoError(t, err)
			d := NewDecompressor(0)

			_, err = d.Decompress(bytes.NewReader(stored), alg, uint64(len(data)+1))
			require.ErrorIs(t, err, gudtype.ErrDecompression)

			_, err = d.Decompress(bytes.NewReader(stored), alg, uint64(len(data)-1))
			require.ErrorIs(t, err, gudtype.ErrDecompression)
		})
	}
}

func TestDecompressCorrupt(t *testing.T) {
	t.Parallel()

	d := NewDecompressor(0)
	garbage := []byte("definitely not a compressed stream")

	_, err := d.Decompress(bytes.NewReader(garbage), gudtype.CompressionZstd, 10)
	require.ErrorIs(t, err, gudtype.ErrDecompression)

	_, err = d.Decompress(bytes.NewReader(garbage), gudtype.CompressionLZ4, 10)
	require.ErrorIs(t, err, gudtype.ErrDecompression)
}

func TestUnknownAlgorithm(t *testing.T) {
	t.Parallel()

	c := NewCompressor()
	defer c.Close()
	_, _, err := c.Compress(&bytes.Buffer{}, strings.NewReader("x"), gudtype.Compression(9))
	require.Error(t, err)

	_, err = NewDecompressor(0).Decompress(strings.NewReader("x"), gudtype.Compression(9), 1)
	require.ErrorIs(t, err, gudtype.ErrDecompression)
}
