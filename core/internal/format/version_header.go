package format

import (
	"fmt"
	"io"
	"slices"
	"time"

	flatbuffers "github.com/google/flatbuffers/go"

	"github.com/meigma/gud/core/internal/fb"
	"github.com/meigma/gud/core/internal/gudtype"
)

// VersionHeader is the record written at the end of every commit.
type VersionHeader struct {
	Number  uint64
	Message string
	Created time.Time

	// Files maps a path to the offset of its File Header.
	Files map[string]uint64
}

// MarshalFrame encodes the header as a Version Header frame. Files are
// written in path order so equal headers produce equal bytes.
func (h *VersionHeader) MarshalFrame() ([]byte, error) {
	paths := make([]string, 0, len(h.Files))
	for p := range h.Files {
		paths = append(paths, p)
	}
	slices.Sort(paths)

	builder := flatbuffers.NewBuilder(256 + len(h.Message) + 48*len(paths))

	refs := make([]flatbuffers.UOffsetT, len(paths))
	for i := len(paths) - 1; i >= 0; i-- {
		pathOffset := builder.CreateString(paths[i])
		fb.FileRefStart(builder)
		fb.FileRefAddPath(builder, pathOffset)
		fb.FileRefAddOffset(builder, h.Files[paths[i]])
		refs[i] = fb.FileRefEnd(builder)
	}
	fb.VersionHeaderStartFilesVector(builder, len(refs))
	for i := len(refs) - 1; i >= 0; i-- {
		builder.PrependUOffsetT(refs[i])
	}
	filesOffset := builder.EndVector(len(refs))
	messageOffset := builder.CreateString(h.Message)

	fb.VersionHeaderStart(builder)
	fb.VersionHeaderAddNumber(builder, h.Number)
	fb.VersionHeaderAddMessage(builder, messageOffset)
	if !h.Created.IsZero() {
		fb.VersionHeaderAddCreatedNs(builder, h.Created.UnixNano())
	}
	fb.VersionHeaderAddFiles(builder, filesOffset)
	fb.FinishVersionHeaderBuffer(builder, fb.VersionHeaderEnd(builder))

	body := builder.FinishedBytes()
	if len(body) > MaxBodySize {
		return nil, fmt.Errorf("%w: version header with %d files too large", gudtype.ErrSizeOverflow, len(paths))
	}
	return appendFrame(TagVersion, body), nil
}

// ReadVersionHeader decodes the Version Header frame at off.
func ReadVersionHeader(r io.ReaderAt, off uint64) (*VersionHeader, error) {
	body, _, err := readFrame(r, off, TagVersion)
	if err != nil {
		return nil, err
	}
	h := &VersionHeader{}
	if err := parse(func() error { return h.decodeBody(body) }); err != nil {
		return nil, recordErr(TagVersion, off, err)
	}
	return h, nil
}

func (h *VersionHeader) decodeBody(body []byte) error {
	root := fb.GetRootAsVersionHeader(body, 0)

	h.Number = root.Number()
	h.Message = string(root.Message())
	if ns := root.CreatedNs(); ns != 0 {
		h.Created = time.Unix(0, ns)
	}

	n := root.FilesLength()
	if n > len(body)/4 {
		return fmt.Errorf("%w: file count %d exceeds body", gudtype.ErrFormat, n)
	}
	h.Files = make(map[string]uint64, n)
	var ref fb.FileRef
	for i := range n {
		if !root.Files(&ref, i) {
			return fmt.Errorf("%w: missing file reference %d", gudtype.ErrFormat, i)
		}
		p := string(ref.Path())
		if err := CheckPath(p); err != nil {
			return fmt.Errorf("%w: path %q: %v", gudtype.ErrFormat, p, err)
		}
		if _, dup := h.Files[p]; dup {
			return fmt.Errorf("%w: duplicate path %q", gudtype.ErrFormat, p)
		}
		h.Files[p] = ref.Offset()
	}
	return nil
}
