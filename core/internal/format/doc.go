// Package format encodes and decodes the records of a version archive.
//
// An archive starts with an 8-byte little-endian root pointer naming the
// offset of the current Version Directory. Every other record is a frame:
//
//	Version Header / Directory: tag u8 | body_len u32 | crc32c u32 | body
//	File Header:                tag u8 | compressed_size u64 | body_len u32 | crc32c u32 | body
//
// Bodies are FlatBuffers tables (see core/schema/archive.fbs). The File
// Header keeps compressed_size outside the checksummed body so a writer can
// patch it after the payload has been streamed.
//
// The package owns no file handles and has no transaction semantics; it only
// reads from io.ReaderAt and produces byte slices.
package format
