package core

import (
	"bytes"
	"io"

	"github.com/go-pak/unrealpak/internal/utils"
)

// IndexDescriptors carries the absolute offset, byte size, and SHA-1 hash
// of each sub-index, as embedded in the index body. They are computed
// during write from the index body's own (pre-computable) size and
// validated during read.
type IndexDescriptors struct {
	HasPHI    bool
	PHIOffset uint64
	PHISize   uint64
	PHIHash   Hash

	HasFDI    bool
	FDIOffset uint64
	FDISize   uint64
	FDIHash   Hash
}

// Index is the fully materialized index: mount point, path-hash seed,
// the ordered per-file records, and both cross-referenced sub-indices.
// It has no notion of the absolute offsets at which it was written —
// those live in IndexDescriptors, produced alongside it.
type Index struct {
	MountPoint   string
	PathHashSeed uint64
	Records      []Record
	PHI          PathHashIndex
	FDI          FullDirectoryIndex

	// DeletedCount is the trailing u32 after the record list. Always 0
	// from this writer; stored rather than discarded on read since
	// readers are required to accept any value (spec design notes).
	DeletedCount uint32
}

// descriptorFieldsSize is the fixed byte width of one sub-index
// descriptor as embedded in the index body: has-flag, offset, size, hash.
const descriptorFieldsSize = 4 + 8 + 8 + HashSize

// IndexBodySize is the Index codec's two-phase-serialization size
// calculator (spec design note: size the index body first, then plan
// sub-index offsets, then emit). It depends only on the index's shape —
// mount point length and each record's encoded size — never on the
// sub-indices' contents, so it can be computed before either sub-index
// exists.
func IndexBodySize(idx Index, version Version) int {
	size := utils.StringSize(idx.MountPoint)
	size += 4 // record_count

	if version.HasPathHashIndex() {
		size += 8                      // path_hash_seed
		size += descriptorFieldsSize   // PHI descriptor
		size += descriptorFieldsSize   // FDI descriptor
		size += 4                      // encoded_records_total_size
		size += encodedRecordsSize(idx.Records)
		size += 4 // trailing deleted-file count
	}

	return size
}

// encodedRecordsSize is the byte length of records' encoded forms laid
// back to back, the value of the encoded_records_total_size field.
func encodedRecordsSize(records []Record) int {
	size := 0
	for _, rec := range records {
		size += SizeOfEncodedRecord(rec)
	}
	return size
}

// WriteIndex serializes idx at indexWriteOffset in w: the index body,
// immediately followed by the PHI bytes and then the FDI bytes, matching
// the archive's contiguous on-disk layout. It returns the descriptors
// the footer and any embedding index need to locate and verify the
// sub-indices, and the body-only size (what the footer's index_size
// field records — §4.8 step 8 is explicit that this excludes the
// appended sub-index blobs).
//
// Only versions with a Path-Hash Index (v10+) are supported; this
// writer does not target the pre-v10 index layout (spec design note:
// "versions 10 and below writes are not implemented in the reference
// source").
func WriteIndex(w io.Writer, idx Index, version Version, indexWriteOffset uint64) (IndexDescriptors, int, error) {
	if !version.HasPathHashIndex() {
		return IndexDescriptors{}, 0, utils.NewError(utils.KindUnsupportedVersion, "writing index", errUnsupportedIndexVersion(version))
	}

	var phiBuf, fdiBuf bytes.Buffer
	if err := WritePathHashIndex(&phiBuf, idx.PHI); err != nil {
		return IndexDescriptors{}, 0, err
	}
	if err := WriteFullDirectoryIndex(&fdiBuf, idx.FDI); err != nil {
		return IndexDescriptors{}, 0, err
	}

	bodySize := IndexBodySize(idx, version)
	desc := IndexDescriptors{
		HasPHI:    true,
		PHIOffset: indexWriteOffset + uint64(bodySize),
		PHISize:   uint64(phiBuf.Len()),
		PHIHash:   Sum(phiBuf.Bytes()),

		HasFDI: true,
		FDIHash: Sum(fdiBuf.Bytes()),
	}
	desc.FDIOffset = desc.PHIOffset + desc.PHISize
	desc.FDISize = uint64(fdiBuf.Len())

	if err := utils.WriteString(w, idx.MountPoint); err != nil {
		return desc, bodySize, err
	}
	if err := utils.WriteU32(w, uint32(len(idx.Records))); err != nil {
		return desc, bodySize, err
	}
	if err := utils.WriteU64(w, idx.PathHashSeed); err != nil {
		return desc, bodySize, err
	}

	if err := writeSubIndexDescriptor(w, true, desc.PHIOffset, desc.PHISize, desc.PHIHash); err != nil {
		return desc, bodySize, err
	}
	if err := writeSubIndexDescriptor(w, true, desc.FDIOffset, desc.FDISize, desc.FDIHash); err != nil {
		return desc, bodySize, err
	}

	if err := utils.WriteU32(w, uint32(encodedRecordsSize(idx.Records))); err != nil {
		return desc, bodySize, err
	}
	for _, rec := range idx.Records {
		if err := EncodeRecord(w, rec); err != nil {
			return desc, bodySize, err
		}
	}
	if err := utils.WriteU32(w, idx.DeletedCount); err != nil {
		return desc, bodySize, err
	}

	if _, err := w.Write(phiBuf.Bytes()); err != nil {
		return desc, bodySize, utils.NewError(utils.KindIO, "writing PHI bytes", err)
	}
	if _, err := w.Write(fdiBuf.Bytes()); err != nil {
		return desc, bodySize, utils.NewError(utils.KindIO, "writing FDI bytes", err)
	}

	return desc, bodySize, nil
}

func writeSubIndexDescriptor(w io.Writer, present bool, offset, size uint64, hash Hash) error {
	has := uint32(0)
	if present {
		has = 1
	}
	if err := utils.WriteU32(w, has); err != nil {
		return err
	}
	if err := utils.WriteU64(w, offset); err != nil {
		return err
	}
	if err := utils.WriteU64(w, size); err != nil {
		return err
	}
	return WriteHash(w, hash)
}

func readSubIndexDescriptor(r io.Reader) (bool, uint64, uint64, Hash, error) {
	has, err := utils.ReadU32(r)
	if err != nil {
		return false, 0, 0, Hash{}, err
	}
	offset, err := utils.ReadU64(r)
	if err != nil {
		return false, 0, 0, Hash{}, err
	}
	size, err := utils.ReadU64(r)
	if err != nil {
		return false, 0, 0, Hash{}, err
	}
	hash, err := ReadHash(r)
	if err != nil {
		return false, 0, 0, Hash{}, err
	}
	return has != 0, offset, size, hash, nil
}

// ReadIndexBody reads only the index body — mount point, record count,
// path-hash seed, sub-index descriptors, and the encoded record
// sequence — stopping before the PHI/FDI bytes. This is what a reader
// holding exactly footer.IndexSize bytes (the body-only length §4.8
// step 8 defines) can decode without needing the sub-indices to be
// present in the same buffer; see ReadIndex for the convenience form
// that also consumes PHI/FDI from a contiguous stream.
func ReadIndexBody(r io.Reader, version Version) (Index, IndexDescriptors, error) {
	var idx Index
	var desc IndexDescriptors

	mountPoint, err := utils.ReadString(r)
	if err != nil {
		return idx, desc, err
	}
	idx.MountPoint = mountPoint

	recordCount, err := utils.ReadU32(r)
	if err != nil {
		return idx, desc, err
	}

	if idx.PathHashSeed, err = utils.ReadU64(r); err != nil {
		return idx, desc, err
	}

	if desc.HasPHI, desc.PHIOffset, desc.PHISize, desc.PHIHash, err = readSubIndexDescriptor(r); err != nil {
		return idx, desc, err
	}
	if desc.HasFDI, desc.FDIOffset, desc.FDISize, desc.FDIHash, err = readSubIndexDescriptor(r); err != nil {
		return idx, desc, err
	}

	if _, err = utils.ReadU32(r); err != nil { // encoded_records_total_size
		return idx, desc, err
	}

	idx.Records = make([]Record, recordCount)
	for i := range idx.Records {
		rec, err := DecodeEncodedRecord(r, version)
		if err != nil {
			return idx, desc, err
		}
		idx.Records[i] = rec
	}

	if idx.DeletedCount, err = utils.ReadU32(r); err != nil {
		return idx, desc, err
	}

	return idx, desc, nil
}

// ReadIndex reads the index body and, since the sub-indices immediately
// follow it on the wire (§6 persisted state layout), the PHI and FDI
// bytes too — all from one sequential stream. Callers that already
// decrypted or buffered the whole index region (the usual case: §4.6
// says the same key covers body and sub-indices) can pass a plain
// bytes.Reader; no seeking is required.
func ReadIndex(r io.Reader, version Version) (Index, IndexDescriptors, error) {
	if !version.HasPathHashIndex() {
		return readLegacyIndex(r, version)
	}

	idx, desc, err := ReadIndexBody(r, version)
	if err != nil {
		return idx, desc, err
	}

	if desc.HasPHI {
		if idx.PHI, err = ReadPathHashIndex(r); err != nil {
			return idx, desc, err
		}
	}
	if desc.HasFDI {
		if idx.FDI, err = ReadFullDirectoryIndex(r); err != nil {
			return idx, desc, err
		}
	}

	return idx, desc, nil
}

// readLegacyIndex reads the pre-v10 index layout, in which each record
// is embedded directly as a path string followed by a full data-record
// header rather than a 12-byte encoded record plus sub-indices. This
// format predates the writer's supported range (§1 non-goals: writing
// older archives is out of scope) and is reconstructed here only to
// satisfy the "older versions must be readable" requirement; it carries
// no PHI/FDI on the wire. The FDI returned here is built from the
// records' paths, giving the k-th record the offset k*EncodedRecordSize,
// the same record-index convention the v10+ sub-indices use.
func readLegacyIndex(r io.Reader, version Version) (Index, IndexDescriptors, error) {
	var idx Index

	mountPoint, err := utils.ReadString(r)
	if err != nil {
		return idx, IndexDescriptors{}, err
	}
	idx.MountPoint = mountPoint

	recordCount, err := utils.ReadU32(r)
	if err != nil {
		return idx, IndexDescriptors{}, err
	}

	dirs := map[string][]FullDirectoryFile{}
	var dirOrder []string

	idx.Records = make([]Record, recordCount)
	for i := range idx.Records {
		path, err := utils.ReadString(r)
		if err != nil {
			return idx, IndexDescriptors{}, err
		}
		rec, err := ReadDataRecordHeader(r, version)
		if err != nil {
			return idx, IndexDescriptors{}, err
		}
		idx.Records[i] = rec

		dir, name := splitPath(path)
		if _, ok := dirs[dir]; !ok {
			dirOrder = append(dirOrder, dir)
		}
		dirs[dir] = append(dirs[dir], FullDirectoryFile{Name: name, Offset: uint32(i * EncodedRecordSize)})
	}

	for _, dir := range dirOrder {
		idx.FDI.Directories = append(idx.FDI.Directories, FullDirectoryEntry{Path: dir, Files: dirs[dir]})
	}

	return idx, IndexDescriptors{}, nil
}

func splitPath(path string) (dir, name string) {
	for i := len(path) - 1; i >= 0; i-- {
		if path[i] == '/' {
			return path[:i+1], path[i+1:]
		}
	}
	return "/", path
}

func errUnsupportedIndexVersion(v Version) error {
	return &unsupportedIndexVersionError{version: v}
}

type unsupportedIndexVersionError struct {
	version Version
}

func (e *unsupportedIndexVersionError) Error() string {
	return "index writer requires a Path-Hash Index (version >= 10), got version " + e.version.String()
}
