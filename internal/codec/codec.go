// Package codec implements the core.Codec compression backend spec.md
// §6 calls the "codec interface (consumed)": zlib and gzip via
// klauspost/compress, the drop-in faster fork of the stdlib compress
// packages that several repos in the retrieval pack depend on directly
// for exactly this purpose. Oodle has no Go implementation anywhere —
// Epic's codec is proprietary and unspecified outside their SDK — so
// Compress/Decompress return a typed unsupported-compression error for
// it rather than silently falling back to another algorithm.
package codec

import (
	"bytes"
	"fmt"
	"io"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zlib"

	"github.com/go-pak/unrealpak/internal/core"
)

// Klauspost is a core.Codec backed by klauspost/compress.
type Klauspost struct{}

var _ core.Codec = Klauspost{}

// Compress compresses data with method.
func (Klauspost) Compress(data []byte, method core.Compression) ([]byte, error) {
	switch method {
	case core.CompressionZlib:
		var buf bytes.Buffer
		w := zlib.NewWriter(&buf)
		if _, err := w.Write(data); err != nil {
			return nil, fmt.Errorf("codec: zlib compress: %w", err)
		}
		if err := w.Close(); err != nil {
			return nil, fmt.Errorf("codec: zlib compress: %w", err)
		}
		return buf.Bytes(), nil

	case core.CompressionGzip:
		var buf bytes.Buffer
		w := gzip.NewWriter(&buf)
		if _, err := w.Write(data); err != nil {
			return nil, fmt.Errorf("codec: gzip compress: %w", err)
		}
		if err := w.Close(); err != nil {
			return nil, fmt.Errorf("codec: gzip compress: %w", err)
		}
		return buf.Bytes(), nil

	case core.CompressionOodle:
		return nil, errUnsupportedOodle

	default:
		return nil, fmt.Errorf("codec: cannot compress with method %s", method)
	}
}

// Decompress restores data compressed with method, sized to expectedSize.
func (Klauspost) Decompress(data []byte, method core.Compression, expectedSize int) ([]byte, error) {
	switch method {
	case core.CompressionZlib:
		r, err := zlib.NewReader(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("codec: zlib decompress: %w", err)
		}
		defer r.Close()
		return readExpected(r, expectedSize, "zlib")

	case core.CompressionGzip:
		r, err := gzip.NewReader(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("codec: gzip decompress: %w", err)
		}
		defer r.Close()
		return readExpected(r, expectedSize, "gzip")

	case core.CompressionOodle:
		return nil, errUnsupportedOodle

	default:
		return nil, fmt.Errorf("codec: cannot decompress with method %s", method)
	}
}

func readExpected(r io.Reader, expectedSize int, name string) ([]byte, error) {
	out := make([]byte, expectedSize)
	if _, err := io.ReadFull(r, out); err != nil {
		return nil, fmt.Errorf("codec: %s decompress: %w", name, err)
	}
	return out, nil
}

var errUnsupportedOodle = &unsupportedCompressionError{method: "Oodle"}

type unsupportedCompressionError struct{ method string }

func (e *unsupportedCompressionError) Error() string {
	return fmt.Sprintf("codec: compression method %s has no implementation in this module", e.method)
}
