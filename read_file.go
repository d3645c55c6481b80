package unrealpak

import (
	"fmt"

	"github.com/go-pak/unrealpak/internal/codec"
	"github.com/go-pak/unrealpak/internal/core"
	"github.com/go-pak/unrealpak/internal/crypto"
)

var defaultCodec codec.Klauspost

// ReadFile returns the decompressed, decrypted contents of path. path
// must be exactly as returned by Files() (archive-relative, forward
// slashes, no mount-point prefix).
func (a *Archive) ReadFile(path string) ([]byte, error) {
	rec, ok := a.Stat(path)
	if !ok {
		return nil, &Error{Kind: KindValidation, Context: "reading file", Cause: fmt.Errorf("no such file in archive: %q", path)}
	}
	if rec.UncompressedSize == 0 {
		return []byte{}, nil
	}

	start, size := payloadRange(rec, a.version)

	stored := make([]byte, size)
	if _, err := a.file.ReadAt(stored, int64(start)); err != nil {
		return nil, wrapIO("reading file payload", err)
	}

	compressed := stored
	if rec.IsEncrypted {
		if len(a.key) == 0 {
			return nil, &Error{Kind: KindEncryptedWithoutKey, Context: "reading file", Cause: fmt.Errorf("file %q is encrypted but no EncryptionKey was supplied", path)}
		}
		decrypted, err := crypto.DecryptECB(a.key, stored)
		if err != nil {
			return nil, &Error{Kind: KindValidation, Context: "decrypting file", Cause: err}
		}
		compressed = decrypted[:rec.CompressedSize]
	}

	if rec.CompressionMethod == core.CompressionNone {
		return compressed, nil
	}
	return defaultCodec.Decompress(compressed, rec.CompressionMethod, int(rec.UncompressedSize))
}

// payloadRange returns the absolute on-disk [start, start+size) range of
// a record's stored bytes. Records this module writes always have an
// empty block list (write.go never emits a block table), so the common
// path recomputes the position from CompressedSize exactly as
// core.DecodeEncodedRecord would for any zero-block record: rec.Offset
// plus the header size, since rec.Offset is always the record's own
// absolute file position (see core.DecodeEncodedRecord's doc comment).
// Records read from a third-party archive that does carry an explicit
// block table take the other branch, reading the position straight out
// of the decoded blocks — those are reconstructed onto the same
// absolute-offset convention by core.DecodeEncodedRecord, so no further
// adjustment is needed here.
func payloadRange(rec core.Record, version core.Version) (uint64, uint64) {
	if len(rec.Blocks) > 0 {
		start := rec.Blocks[0].Start
		var end uint64
		for _, b := range rec.Blocks {
			end = b.End
		}
		return start, end - start
	}

	headerSize := uint64(core.ComputeDataRecordHeaderSize(version, rec.CompressionMethod, 0, false))
	start := rec.Offset + headerSize

	size := rec.CompressedSize
	if rec.IsEncrypted {
		// The stored bytes are zero-padded to a 16-byte boundary before
		// encryption (§4.8 step c), so the on-disk span is wider than
		// the logical CompressedSize whenever it isn't already aligned.
		size = paddedSize(size)
	}
	return start, size
}

func paddedSize(n uint64) uint64 {
	rem := n % crypto.BlockSize
	if rem == 0 {
		return n
	}
	return n + (uint64(crypto.BlockSize) - rem)
}
