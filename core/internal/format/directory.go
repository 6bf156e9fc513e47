package format

import (
	"fmt"
	"io"

	flatbuffers "github.com/google/flatbuffers/go"

	"github.com/meigma/gud/core/internal/fb"
	"github.com/meigma/gud/core/internal/gudtype"
)

// DirectoryVersion is the layout version written into every directory.
const DirectoryVersion = 1

// Directory lists the offsets of all Version Headers in commit order.
type Directory struct {
	Offsets []uint64
}

// Append adds the offset of a newly written Version Header.
func (d *Directory) Append(off uint64) {
	d.Offsets = append(d.Offsets, off)
}

// Len returns the number of committed versions.
func (d *Directory) Len() int {
	return len(d.Offsets)
}

// MarshalFrame encodes the directory as a Version Directory frame.
func (d *Directory) MarshalFrame() []byte {
	builder := flatbuffers.NewBuilder(32 + 8*len(d.Offsets))

	fb.DirectoryStartOffsetsVector(builder, len(d.Offsets))
	for i := len(d.Offsets) - 1; i >= 0; i-- {
		builder.PrependUint64(d.Offsets[i])
	}
	offsets := builder.EndVector(len(d.Offsets))

	fb.DirectoryStart(builder)
	fb.DirectoryAddVersion(builder, DirectoryVersion)
	fb.DirectoryAddOffsets(builder, offsets)
	fb.FinishDirectoryBuffer(builder, fb.DirectoryEnd(builder))

	return appendFrame(TagDirectory, builder.FinishedBytes())
}

// ReadDirectory decodes the Version Directory frame at off.
func ReadDirectory(r io.ReaderAt, off uint64) (*Directory, error) {
	body, _, err := readFrame(r, off, TagDirectory)
	if err != nil {
		return nil, err
	}
	d := &Directory{}
	err = parse(func() error {
		root := fb.GetRootAsDirectory(body, 0)
		if v := root.Version(); v != DirectoryVersion {
			return fmt.Errorf("%w: unsupported directory version %d", gudtype.ErrFormat, v)
		}
		n := root.OffsetsLength()
		if n > len(body)/8 {
			return fmt.Errorf("%w: directory length %d exceeds body", gudtype.ErrFormat, n)
		}
		d.Offsets = make([]uint64, n)
		for i := range n {
			d.Offsets[i] = root.Offsets(i)
		}
		return nil
	})
	if err != nil {
		return nil, recordErr(TagDirectory, off, err)
	}
	return d, nil
}
