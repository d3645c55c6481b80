package core

import "fmt"

// Compression identifies the algorithm, if any, a record's payload was
// compressed with.
type Compression uint32

const (
	CompressionNone Compression = iota
	CompressionZlib
	CompressionGzip
	CompressionOodle
)

func (c Compression) String() string {
	switch c {
	case CompressionNone:
		return "None"
	case CompressionZlib:
		return "Zlib"
	case CompressionGzip:
		return "Gzip"
	case CompressionOodle:
		return "Oodle"
	default:
		return fmt.Sprintf("Compression(%d)", uint32(c))
	}
}

// ParseLegacyCompressionCode maps the assorted byte values older
// encoders wrote for "zlib" in the bit-packed encoded record (spec calls
// out 0x01, 0x10, and 0x20 as compatibility aliases a reader must accept)
// onto the canonical Compression values.
func ParseLegacyCompressionCode(code uint32) (Compression, error) {
	switch code {
	case uint32(CompressionNone):
		return CompressionNone, nil
	case uint32(CompressionZlib), 0x10, 0x20:
		return CompressionZlib, nil
	case uint32(CompressionGzip):
		return CompressionGzip, nil
	case uint32(CompressionOodle):
		return CompressionOodle, nil
	default:
		return 0, fmt.Errorf("unknown compression method code: %#x", code)
	}
}

// Codec is the compression backend the record codec consumes to turn a
// record's stored payload back into (or out of) its uncompressed form.
// The core never implements a concrete algorithm itself — see
// internal/codec for the zlib/gzip implementations wired in this module,
// and spec.md §6 for why Oodle has no implementation here.
type Codec interface {
	// Compress compresses data with the given method. Called with
	// CompressionNone is a programmer error; callers should skip
	// compression entirely in that case.
	Compress(data []byte, method Compression) ([]byte, error)

	// Decompress restores data compressed with method. expectedSize is
	// the record's declared uncompressed size, used to presize the
	// output buffer and as a sanity check against the decompressed
	// length.
	Decompress(data []byte, method Compression, expectedSize int) ([]byte, error)
}
