package core

import (
	"fmt"
	"io"
	"math"

	"github.com/go-pak/unrealpak/internal/utils"
)

// EncodedRecordSize is the byte size of an uncompressed file's encoded
// index record: 12 bytes (flags, offset, uncompressed size), achieved
// whenever offset and uncompressed size fit in u32, no block table is
// needed, and the compression block size fits the flags word's 6-bit
// unit field. A compressed record also carries its compressed size and
// occupies 16 bytes under the same conditions. SizeOfEncodedRecord
// computes the actual size of any record.
const EncodedRecordSize = 12

// Record is a file's metadata as carried by both wire encodings: the
// full data-record header written next to a file's bytes, and the
// bit-packed encoded index record embedded in the index (v10+).
type Record struct {
	Offset               uint64
	UncompressedSize     uint64
	CompressedSize       uint64
	CompressionMethod    Compression
	Timestamp            *uint64 // v1 only
	Hash                 *Hash   // present on full data-record headers
	Blocks               []Block
	IsEncrypted          bool
	CompressionBlockSize uint32
}

// Validate checks the record invariants spec.md §3 lists for the
// uncompressed/compressed size relationship.
func (r Record) Validate() error {
	if r.CompressionMethod == CompressionNone {
		if r.CompressedSize != r.UncompressedSize {
			return fmt.Errorf("uncompressed record: compressed size %d != uncompressed size %d", r.CompressedSize, r.UncompressedSize)
		}
		if len(r.Blocks) > 1 {
			return fmt.Errorf("uncompressed record must have at most one block, got %d", len(r.Blocks))
		}
	}
	return nil
}

// compressionMethodFieldSize returns the byte width of the
// compression_method field in the full data-record header: 1 byte for
// v8A, 4 bytes for everything else (spec.md §4.3).
func compressionMethodFieldSize(version Version) int {
	if version == Version8A {
		return 1
	}
	return 4
}

// ComputeDataRecordHeaderSize is the Record codec's size calculator: it
// computes the exact byte length a full data-record header occupies for
// a given version, compression method, block count, and (v1 only)
// timestamp presence — used both to size the header before writing it
// and, on read, to reconstruct block start offsets that are stored only
// as sizes in the encoded index record.
func ComputeDataRecordHeaderSize(version Version, method Compression, blocksCount int, hasTimestamp bool) int {
	size := 8 + 8 + 8 // offset, compressed_size, uncompressed_size
	size += compressionMethodFieldSize(version)
	if hasTimestamp {
		size += 8
	}
	size += HashSize
	if version.Major() >= 3 && method != CompressionNone {
		size += 4 + blocksCount*16
	}
	size += 1 // is_encrypted
	size += 4 // compression_block_size
	return size
}

// WriteDataRecordHeader writes the full data-record header immediately
// preceding a file's stored bytes. offset is written verbatim — callers
// writing at the data position (the only case this writer produces)
// pass 0, since the header's own position already IS that offset.
func WriteDataRecordHeader(w io.Writer, r Record, version Version, offset uint64) error {
	if err := utils.WriteU64(w, offset); err != nil {
		return err
	}
	if err := utils.WriteU64(w, r.CompressedSize); err != nil {
		return err
	}
	if err := utils.WriteU64(w, r.UncompressedSize); err != nil {
		return err
	}

	if version == Version8A {
		if err := utils.WriteU8(w, uint8(r.CompressionMethod)); err != nil {
			return err
		}
	} else {
		if err := utils.WriteU32(w, uint32(r.CompressionMethod)); err != nil {
			return err
		}
	}

	if version.Major() == 1 {
		var ts uint64
		if r.Timestamp != nil {
			ts = *r.Timestamp
		}
		if err := utils.WriteU64(w, ts); err != nil {
			return err
		}
	}

	var hash Hash
	if r.Hash != nil {
		hash = *r.Hash
	}
	if err := WriteHash(w, hash); err != nil {
		return err
	}

	if version.Major() >= 3 && r.CompressionMethod != CompressionNone {
		if err := WriteBlocks(w, r.Blocks); err != nil {
			return err
		}
	}

	if err := utils.WriteBool(w, r.IsEncrypted); err != nil {
		return err
	}
	return utils.WriteU32(w, r.CompressionBlockSize)
}

// ReadDataRecordHeader reads the full data-record header, the mirror of
// WriteDataRecordHeader.
func ReadDataRecordHeader(r io.Reader, version Version) (Record, error) {
	var rec Record

	offset, err := utils.ReadU64(r)
	if err != nil {
		return rec, err
	}
	rec.Offset = offset

	if rec.CompressedSize, err = utils.ReadU64(r); err != nil {
		return rec, err
	}
	if rec.UncompressedSize, err = utils.ReadU64(r); err != nil {
		return rec, err
	}

	if version == Version8A {
		method, err := utils.ReadU8(r)
		if err != nil {
			return rec, err
		}
		rec.CompressionMethod, err = ParseLegacyCompressionCode(uint32(method))
		if err != nil {
			return rec, err
		}
	} else {
		methodCode, err := utils.ReadU32(r)
		if err != nil {
			return rec, err
		}
		rec.CompressionMethod, err = ParseLegacyCompressionCode(methodCode)
		if err != nil {
			return rec, err
		}
	}

	if version.Major() == 1 {
		ts, err := utils.ReadU64(r)
		if err != nil {
			return rec, err
		}
		rec.Timestamp = &ts
	}

	hash, err := ReadHash(r)
	if err != nil {
		return rec, err
	}
	rec.Hash = &hash

	if version.Major() >= 3 && rec.CompressionMethod != CompressionNone {
		blocks, err := ReadBlocks(r)
		if err != nil {
			return rec, err
		}
		rec.Blocks = blocks
	}

	if rec.IsEncrypted, err = utils.ReadBool(r); err != nil {
		return rec, err
	}
	if rec.CompressionBlockSize, err = utils.ReadU32(r); err != nil {
		return rec, err
	}

	return rec, nil
}

// blockSizeOverflowUnits is both the sentinel value and the first
// unrepresentable unit count for the flags word's 6-bit block-size
// field. spec.md §8's boundary note reads as if 0x3F*2048 itself should
// still be encoded inline and only the next unit overflows, but a 6-bit
// field only has 64 distinct values (0-63): if 63 means "read an
// explicit u32 instead", then 63 cannot simultaneously be an inline
// value too — the two meanings would be indistinguishable on read. So
// the overflow check is >=, not >: any block size whose unit count is
// 63 or more (including exactly 0x3F*2048) takes the explicit-u32 path.
// Picked over the literal §8 reading because the alternative isn't
// actually encodable; the reference encoder isn't in the pack to settle
// which the format intends (see DESIGN.md).
const blockSizeOverflowUnits = 0x3F

type recordFlags struct {
	blockSizeUnits      uint32
	blocksCount         uint32
	isEncrypted         bool
	methodCode          uint32
	compressedFitsU32   bool
	uncompressedFitsU32 bool
	offsetFitsU32       bool
}

// packRecordFlags and unpackRecordFlags are the pure bit-packing helpers
// design note §9 calls for, isolated from I/O so the flags word's
// layout can be tested independently of any reader/writer.
func packRecordFlags(f recordFlags) uint32 {
	var v uint32
	v |= f.blockSizeUnits & 0x3F
	v |= (f.blocksCount & 0xFFFF) << 6
	if f.isEncrypted {
		v |= 1 << 22
	}
	v |= (f.methodCode & 0x3F) << 23
	if f.compressedFitsU32 {
		v |= 1 << 29
	}
	if f.uncompressedFitsU32 {
		v |= 1 << 30
	}
	if f.offsetFitsU32 {
		v |= 1 << 31
	}
	return v
}

func unpackRecordFlags(v uint32) recordFlags {
	return recordFlags{
		blockSizeUnits:      v & 0x3F,
		blocksCount:         (v >> 6) & 0xFFFF,
		isEncrypted:         (v>>22)&1 != 0,
		methodCode:          (v >> 23) & 0x3F,
		compressedFitsU32:   (v>>29)&1 != 0,
		uncompressedFitsU32: (v>>30)&1 != 0,
		offsetFitsU32:       (v>>31)&1 != 0,
	}
}

func emitsBlockTable(blocksCount int, isEncrypted bool) bool {
	return blocksCount > 1 || (blocksCount == 1 && isEncrypted)
}

// SizeOfEncodedRecord is the Record codec's size calculator for the
// bit-packed wire form: 12 bytes for an uncompressed record in the
// common case, 4 more for a compressed record's compressed size, for an
// explicit block size, and for each field that overflows u32, plus 8
// per block when a block table must be emitted.
func SizeOfEncodedRecord(r Record) int {
	size := 4 // flags

	if r.CompressionBlockSize/2048 >= blockSizeOverflowUnits {
		size += 4
	}

	size += fieldSize(r.Offset)
	size += fieldSize(r.UncompressedSize)
	if r.CompressionMethod != CompressionNone {
		size += fieldSize(r.CompressedSize)
	}

	if emitsBlockTable(len(r.Blocks), r.IsEncrypted) {
		size += len(r.Blocks) * 8
	}

	return size
}

func fieldSize(v uint64) int {
	if v > math.MaxUint32 {
		return 8
	}
	return 4
}

// EncodeRecord writes r's bit-packed encoded index record, the wire form
// used inside the index for versions >= 10.
func EncodeRecord(w io.Writer, r Record) error {
	blockSizeUnits := r.CompressionBlockSize / 2048
	overflow := blockSizeUnits >= blockSizeOverflowUnits
	if overflow {
		blockSizeUnits = blockSizeOverflowUnits
	}

	flags := packRecordFlags(recordFlags{
		blockSizeUnits:      blockSizeUnits,
		blocksCount:         uint32(len(r.Blocks)),
		isEncrypted:         r.IsEncrypted,
		methodCode:          uint32(r.CompressionMethod),
		compressedFitsU32:   r.CompressedSize <= math.MaxUint32,
		uncompressedFitsU32: r.UncompressedSize <= math.MaxUint32,
		offsetFitsU32:       r.Offset <= math.MaxUint32,
	})

	if err := utils.WriteU32(w, flags); err != nil {
		return err
	}
	if overflow {
		if err := utils.WriteU32(w, r.CompressionBlockSize); err != nil {
			return err
		}
	}

	if err := writeSizedField(w, r.Offset); err != nil {
		return err
	}
	if err := writeSizedField(w, r.UncompressedSize); err != nil {
		return err
	}
	if r.CompressionMethod != CompressionNone {
		if err := writeSizedField(w, r.CompressedSize); err != nil {
			return err
		}
	}

	if emitsBlockTable(len(r.Blocks), r.IsEncrypted) {
		for _, b := range r.Blocks {
			if err := utils.WriteU64(w, b.Size()); err != nil {
				return err
			}
		}
	}
	return nil
}

func writeSizedField(w io.Writer, v uint64) error {
	if v > math.MaxUint32 {
		return utils.WriteU64(w, v)
	}
	return utils.WriteU32(w, uint32(v))
}

func readSizedField(r io.Reader, fits32 bool) (uint64, error) {
	if fits32 {
		v, err := utils.ReadU32(r)
		return uint64(v), err
	}
	return utils.ReadU64(r)
}

// DecodeEncodedRecord reads a bit-packed encoded index record. Only
// per-block sizes (deltas) are stored on the wire; Start/End pairs are
// reconstructed by walking those deltas from the record's own data
// position — rec.Offset plus its header size — which is always an
// absolute file offset regardless of version.RelativeChunkOffsets (that
// rule governs how a *full* data-record header's own block table stores
// Start/End directly on the wire, not this reconstruction).
func DecodeEncodedRecord(r io.Reader, version Version) (Record, error) {
	var rec Record

	flagsRaw, err := utils.ReadU32(r)
	if err != nil {
		return rec, err
	}
	f := unpackRecordFlags(flagsRaw)

	blockSize := f.blockSizeUnits * 2048
	if f.blockSizeUnits == blockSizeOverflowUnits {
		blockSize, err = utils.ReadU32(r)
		if err != nil {
			return rec, err
		}
	}
	rec.CompressionBlockSize = blockSize
	rec.IsEncrypted = f.isEncrypted

	rec.CompressionMethod, err = ParseLegacyCompressionCode(f.methodCode)
	if err != nil {
		return rec, err
	}

	if rec.Offset, err = readSizedField(r, f.offsetFitsU32); err != nil {
		return rec, err
	}
	if rec.UncompressedSize, err = readSizedField(r, f.uncompressedFitsU32); err != nil {
		return rec, err
	}

	if rec.CompressionMethod != CompressionNone {
		if rec.CompressedSize, err = readSizedField(r, f.compressedFitsU32); err != nil {
			return rec, err
		}
	} else {
		rec.CompressedSize = rec.UncompressedSize
	}

	headerSize := uint64(ComputeDataRecordHeaderSize(version, rec.CompressionMethod, int(f.blocksCount), false))
	payloadStart := rec.Offset + headerSize

	switch {
	case emitsBlockTable(int(f.blocksCount), f.isEncrypted):
		sizes := make([]uint64, f.blocksCount)
		for i := range sizes {
			if sizes[i], err = utils.ReadU64(r); err != nil {
				return rec, err
			}
		}
		cursor := payloadStart
		blocks := make([]Block, len(sizes))
		for i, sz := range sizes {
			blocks[i] = Block{Start: cursor, End: cursor + sz}
			cursor += sz
		}
		rec.Blocks = blocks
	case f.blocksCount == 1:
		rec.Blocks = []Block{{Start: payloadStart, End: payloadStart + rec.CompressedSize}}
	}

	return rec, nil
}
