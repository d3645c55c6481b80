package unrealpak

import (
	"github.com/go-pak/unrealpak/internal/core"
	"github.com/go-pak/unrealpak/internal/crypto"
)

// ReadOptions configures Open and OpenVersion.
type ReadOptions struct {
	// VerifyHashes makes Open fail with a KindValidation error if the
	// index's SHA-1 (or either sub-index's SHA-1) does not match its
	// descriptor, rather than merely making the check available after
	// the fact (spec.md §4.9 calls this check optional; this option
	// wires it into the open path itself). Has no effect on an archive
	// whose index is encrypted, since the per-sub-index hashes describe
	// plaintext that is never read independently in that case.
	VerifyHashes bool

	// EncryptionKey is the 32-byte AES-256 key used to decrypt the
	// index (and, per-file on ReadFile, file data) when the footer
	// flags them as encrypted. Required whenever the archive was
	// written with EncryptIndex or EncryptData; opening or reading an
	// encrypted archive without it fails with KindEncryptedWithoutKey.
	EncryptionKey []byte
}

// WriteOptions configures WriteArchive.
type WriteOptions struct {
	// Version is the target format version. Must be >= 10; the writer
	// targets the Path-Hash Index layout exclusively (spec.md §1
	// non-goals: "versions 10 and below writes are not implemented").
	// Defaults to core.Version11 if zero.
	Version core.Version

	// CompressionMethod applied to every file's stored bytes. Only
	// None and Zlib are supported end-to-end by this writer's codec
	// backend (internal/codec); spec.md §3 reserves Gzip/Oodle.
	CompressionMethod core.Compression

	// CompressionBlockSize is recorded in each compressed record's
	// compression_block_size field. Defaults to 64 KiB if zero. The
	// writer does not split payloads at this size: each file is
	// compressed as a single block. Only applies to records with a
	// non-None CompressionMethod; an uncompressed record always writes
	// compression_block_size 0, matching the reference writer.
	CompressionBlockSize uint32

	// EncryptData, if true, AES-256-ECB encrypts each file's stored
	// bytes (after compression) under EncryptionKey.
	EncryptData bool

	// EncryptIndex, if true, AES-256-ECB encrypts the entire serialized
	// index region — body, PHI, and FDI concatenated — as one padded
	// buffer under EncryptionKey (see DESIGN.md for why this differs
	// from the body-only framing used when unencrypted).
	EncryptIndex bool

	// EncryptionKey is the 32-byte AES-256 key used for EncryptData
	// and/or EncryptIndex. Required whenever either is set.
	EncryptionKey []byte

	// EncryptionKeyGUID identifies EncryptionKey in the footer without
	// embedding the key itself. A zero value is written when neither
	// EncryptData nor EncryptIndex is set.
	EncryptionKeyGUID crypto.KeyGUID
}

func (o WriteOptions) resolveVersion() core.Version {
	if o.Version == 0 {
		return core.Version11
	}
	return o.Version
}

func (o WriteOptions) resolveBlockSize() uint32 {
	if o.CompressionBlockSize == 0 {
		return 64 * 1024
	}
	return o.CompressionBlockSize
}
