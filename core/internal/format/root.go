package format

import (
	"encoding/binary"
	"fmt"
	"io"
)

// ReadRoot returns the offset stored in the root pointer.
func ReadRoot(r io.ReaderAt) (uint64, error) {
	var buf [RootSize]byte
	if err := readAt(r, buf[:], 0); err != nil {
		return 0, fmt.Errorf("read root pointer: %w", err)
	}
	return binary.LittleEndian.Uint64(buf[:]), nil
}

// WriteRoot overwrites the root pointer with off.
func WriteRoot(w io.WriterAt, off uint64) error {
	var buf [RootSize]byte
	binary.LittleEndian.PutUint64(buf[:], off)
	if _, err := w.WriteAt(buf[:], 0); err != nil {
		return fmt.Errorf("write root pointer: %w", err)
	}
	return nil
}

// Empty returns the bytes of an archive with no versions: a root pointer
// followed by an empty directory.
func Empty() []byte {
	out := make([]byte, RootSize)
	binary.LittleEndian.PutUint64(out, RootSize)
	dir := Directory{}
	return append(out, dir.MarshalFrame()...)
}
