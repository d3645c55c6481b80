package unrealpak

import (
	"bytes"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	logging "github.com/ipfs/go-log/v2"

	"github.com/go-pak/unrealpak/internal/codec"
	"github.com/go-pak/unrealpak/internal/core"
	"github.com/go-pak/unrealpak/internal/crypto"
	"github.com/go-pak/unrealpak/internal/pathenc"
	"github.com/go-pak/unrealpak/internal/writer"
)

var log = logging.Logger("unrealpak/writer")

// WriteArchive builds a new .pak archive at outputPath from every regular
// file under sourceDir, implementing the archive writer's algorithm: walk
// the tree in sorted order, emit one data record per file at a strictly
// increasing offset, then the index and its sub-indices, then the
// footer. mountPoint becomes the archive's logical prefix (Archive's
// MountPoint); it is never concatenated into individual file paths.
//
// Every file this writer emits is a single implicit block — it never
// splits a file's payload across multiple compression blocks and never
// writes an explicit block table, even though the format can represent
// both. That capability exists for readers of third-party archives;
// this writer just never needs it, and skipping it keeps every encoded
// index record at a constant size regardless of compression or
// encryption (see DESIGN.md).
func WriteArchive(sourceDir, mountPoint, outputPath string, opts WriteOptions) error {
	version := opts.resolveVersion()
	if !version.HasPathHashIndex() {
		return &Error{Kind: KindUnsupportedVersion, Context: "writing archive", Cause: fmt.Errorf("writer requires a Path-Hash Index (version >= 10), got %s", version)}
	}
	if (opts.EncryptData || opts.EncryptIndex) && len(opts.EncryptionKey) == 0 {
		return &Error{Kind: KindEncryptedWithoutKey, Context: "writing archive", Cause: fmt.Errorf("EncryptData or EncryptIndex set without an EncryptionKey")}
	}

	relPaths, err := walkSorted(sourceDir)
	if err != nil {
		return wrapIO("walking source directory", err)
	}

	// The seed is Unreal's string CRC32 over the archive's own output
	// path, reproduced via core.StrCRC32 rather than reimplemented here
	// (see DESIGN.md for why per-file path hashing below still goes
	// through internal/pathenc instead: that's UTF-16LE transcoding for
	// hashing input, a distinct concern from this lowercased seed CRC).
	seed := core.StrCRC32(outputPath)

	af, err := writer.NewArchiveFile(outputPath, writer.ModeTruncate, 0)
	if err != nil {
		return wrapIO("creating archive file", err)
	}
	defer af.Close()

	var codecImpl codec.Klauspost
	records := make([]core.Record, 0, len(relPaths))
	phiEntries := make([]core.PathHashEntry, 0, len(relPaths))
	dirFiles := map[string][]core.FullDirectoryFile{}
	var dirOrder []string

	for k, relPath := range relPaths {
		rec, err := writeFileRecord(af, &codecImpl, sourceDir, relPath, version, opts)
		if err != nil {
			return err
		}
		records = append(records, rec)

		dir, name := splitDirFile(relPath)
		if _, ok := dirFiles[dir]; !ok {
			dirOrder = append(dirOrder, dir)
		}
		dirFiles[dir] = append(dirFiles[dir], core.FullDirectoryFile{Name: name, Offset: uint32(k * core.EncodedRecordSize)})

		hashBytes, err := pathenc.ToUTF16LE(relPath)
		if err != nil {
			return &Error{Kind: KindInvalidUTF16, Context: "hashing path " + relPath, Cause: err}
		}
		phiEntries = append(phiEntries, core.PathHashEntry{
			Hash:   core.FNV64(hashBytes, seed, version.UsesFixedFNV64()),
			Offset: uint32(k * core.EncodedRecordSize),
		})
	}

	sort.Strings(dirOrder)
	fdi := core.FullDirectoryIndex{Directories: make([]core.FullDirectoryEntry, 0, len(dirOrder))}
	for _, dir := range dirOrder {
		files := dirFiles[dir]
		sort.Slice(files, func(i, j int) bool { return files[i].Name < files[j].Name })
		fdi.Directories = append(fdi.Directories, core.FullDirectoryEntry{Path: dir, Files: files})
	}

	idx := core.Index{
		MountPoint:   mountPoint,
		PathHashSeed: seed,
		Records:      records,
		PHI:          core.PathHashIndex{Entries: phiEntries},
		FDI:          fdi,
	}

	footer, err := writeIndexAndFooter(af, idx, version, opts)
	if err != nil {
		return err
	}

	var footerBuf bytes.Buffer
	if err := core.WriteFooter(&footerBuf, footer, version); err != nil {
		return err
	}
	if _, err := af.WriteAtWithAllocation(footerBuf.Bytes()); err != nil {
		return wrapIO("writing footer", err)
	}

	if err := af.Flush(); err != nil {
		return wrapIO("flushing archive", err)
	}
	if err := af.Close(); err != nil {
		return wrapIO("closing archive", err)
	}

	return selfCheck(outputPath, version, opts)
}

// selfCheck re-opens the archive just written and verifies its index
// hash(es), a best-effort catch for a writer bug that would otherwise
// only surface the next time something tries to read the file back.
// Encrypted indexes are skipped (ReadOptions.VerifyHashes already has no
// effect on those — see options.go), consistent with §10.2's "recoverable
// diagnostics only" scope: a mismatch here means this writer produced a
// broken archive, which is worth failing loudly on rather than silently
// handing back a path to a corrupt file.
func selfCheck(outputPath string, version core.Version, opts WriteOptions) error {
	a, err := OpenVersion(outputPath, version, ReadOptions{VerifyHashes: true, EncryptionKey: opts.EncryptionKey})
	if err != nil {
		return &Error{Kind: KindValidation, Context: "post-write integrity check", Cause: err}
	}
	defer a.Close()

	log.Debugw("post-write integrity check passed", "path", outputPath, "files", len(a.Files()))
	return nil
}

// writeFileRecord reads, compresses, optionally encrypts, and emits one
// file's data record header plus stored bytes, returning the Record that
// describes it for both the encoded index entry and the full header
// already written.
func writeFileRecord(af *writer.ArchiveFile, codecImpl *codec.Klauspost, sourceDir, relPath string, version core.Version, opts WriteOptions) (core.Record, error) {
	data, err := os.ReadFile(filepath.Join(sourceDir, filepath.FromSlash(relPath)))
	if err != nil {
		return core.Record{}, wrapIO("reading source file "+relPath, err)
	}

	method := opts.CompressionMethod
	stored := data
	if method != core.CompressionNone {
		stored, err = codecImpl.Compress(data, method)
		if err != nil {
			return core.Record{}, &Error{Kind: KindValidation, Context: "compressing " + relPath, Cause: err}
		}
	}
	compressedSize := uint64(len(stored))

	if opts.EncryptData {
		stored, err = crypto.EncryptECB(opts.EncryptionKey, crypto.PadToBlockSize(stored))
		if err != nil {
			return core.Record{}, &Error{Kind: KindValidation, Context: "encrypting " + relPath, Cause: err}
		}
	}

	hash := core.Sum(stored)
	// blocksCount 0 throughout: this writer never emits a block table,
	// in either wire form. On the full header that just means WriteBlocks
	// writes a zero count; on the encoded index record it additionally
	// keeps every record's encoded size at the constant EncodedRecordSize
	// (emitsBlockTable never fires for a zero-block record, even an
	// encrypted one), which the Full-Directory/Path-Hash Index offsets
	// (k*EncodedRecordSize) depend on. ReadFile reconstructs the payload
	// position from CompressedSize instead of a stored block range.
	headerSize := uint64(core.ComputeDataRecordHeaderSize(version, method, 0, false))
	total := headerSize + uint64(len(stored))

	addr, err := af.Allocate(total)
	if err != nil {
		return core.Record{}, wrapIO("allocating space for "+relPath, err)
	}

	var blockSize uint32
	if method != core.CompressionNone {
		blockSize = opts.resolveBlockSize()
	}

	rec := core.Record{
		Offset:               addr,
		UncompressedSize:     uint64(len(data)),
		CompressedSize:       compressedSize,
		CompressionMethod:    method,
		Hash:                 &hash,
		IsEncrypted:          opts.EncryptData,
		CompressionBlockSize: blockSize,
	}
	if err := rec.Validate(); err != nil {
		return core.Record{}, &Error{Kind: KindValidation, Context: "building record for " + relPath, Cause: err}
	}

	var header bytes.Buffer
	if err := core.WriteDataRecordHeader(&header, rec, version, 0); err != nil {
		return core.Record{}, err
	}
	if err := af.WriteAtAddress(header.Bytes(), addr); err != nil {
		return core.Record{}, wrapIO("writing header for "+relPath, err)
	}
	if len(stored) > 0 {
		if err := af.WriteAtAddress(stored, addr+headerSize); err != nil {
			return core.Record{}, wrapIO("writing payload for "+relPath, err)
		}
	}

	return rec, nil
}

// writeIndexAndFooter serializes idx, writes it (encrypted as a single
// blob if requested — see archive.go's loadIndex for the matching read
// side), and returns the footer describing it. The footer itself is not
// written here; the caller appends it once at the true end of file.
func writeIndexAndFooter(af *writer.ArchiveFile, idx core.Index, version core.Version, opts WriteOptions) (core.Footer, error) {
	indexOffset := af.EndOfFile()

	footer := core.Footer{
		Magic:              core.Magic,
		IsIndexEncrypted:   opts.EncryptIndex,
		CompressionMethods: compressionMethodsTable(opts.CompressionMethod),
	}
	if opts.EncryptData || opts.EncryptIndex {
		footer.EncryptionKeyGUID = [16]byte(opts.EncryptionKeyGUID)
	}

	var plain bytes.Buffer
	_, bodySize, err := core.WriteIndex(&plain, idx, version, indexOffset)
	if err != nil {
		return core.Footer{}, err
	}
	footer.IndexHash = core.Sum(plain.Bytes()[:bodySize])

	if opts.EncryptIndex {
		cipher, err := crypto.EncryptECB(opts.EncryptionKey, crypto.PadToBlockSize(plain.Bytes()))
		if err != nil {
			return core.Footer{}, &Error{Kind: KindValidation, Context: "encrypting index", Cause: err}
		}
		if _, err := af.WriteAtWithAllocation(cipher); err != nil {
			return core.Footer{}, wrapIO("writing encrypted index", err)
		}
		footer.IndexOffset = indexOffset
		footer.IndexSize = uint64(len(cipher))
		return footer, nil
	}

	if _, err := af.WriteAtWithAllocation(plain.Bytes()); err != nil {
		return core.Footer{}, wrapIO("writing index", err)
	}
	footer.IndexOffset = indexOffset
	footer.IndexSize = uint64(bodySize)
	return footer, nil
}

// compressionMethodsTable builds the footer's compression-method name
// table, omitting the implicit "None" slot every version skips.
func compressionMethodsTable(method core.Compression) []string {
	if method == core.CompressionNone {
		return nil
	}
	return []string{method.String()}
}

// walkSorted collects every regular file under root as a forward-slash
// path relative to root, in sorted order — the file-name order §4.8
// step 2 requires so that two writers given the same tree assign
// identical encoded_record_offset values.
func walkSorted(root string) ([]string, error) {
	var paths []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		paths = append(paths, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(paths)
	return paths, nil
}

// splitDirFile splits a forward-slash relative path into its directory
// (trailing slash, or "/" for a root-level file) and file name, the same
// convention core's Full-Directory Index reader and Archive.buildPathIndex
// use to reassemble full paths.
func splitDirFile(relPath string) (dir, name string) {
	i := strings.LastIndexByte(relPath, '/')
	if i < 0 {
		return "/", relPath
	}
	return relPath[:i+1], relPath[i+1:]
}
