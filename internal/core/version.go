// Package core implements the binary codec for Unreal Engine .pak
// archives: footers, indices, path-hash and full-directory sub-indices,
// and the per-file records that tie them together. It mirrors
// UnrealPak's own layering in the reference tool — callers pick a
// version, parse or build a Footer/Index pair, and the format's
// version-gated fields fall out of the predicates in this file.
package core

import "fmt"

// Version is a dense pak archive format version number in 1..=11.
// Version 8 has two wire-compatible sub-variants distinguished only by
// compression-table size (Version8A vs Version8B) — both serialize the
// same major number 8, so callers that need to tell them apart must
// carry a Version hint through the call, not infer it from the bytes.
type Version uint32

const (
	Version1 Version = iota + 1
	Version2
	Version3
	Version4
	Version5
	Version6
	Version7
	Version8A
	Version9
	Version10
	Version11

	// Version8B is serialized as major version 8 but carries the wider
	// (160-byte) compression-method table. It is not contiguous with
	// the other constants' iota sequence because it shares version
	// number 8 with Version8A on the wire.
	Version8B Version = 100 + 8
)

// Major returns the on-wire version number, collapsing the 8A/8B split
// back to a single value 8 as the bytes would actually encode it.
func (v Version) Major() uint32 {
	if v == Version8B {
		return 8
	}
	return uint32(v)
}

func (v Version) String() string {
	switch v {
	case Version8A:
		return "8A"
	case Version8B:
		return "8B"
	default:
		return fmt.Sprintf("%d", v.Major())
	}
}

// HasIndexEncryption reports whether the footer carries an
// is-index-encrypted flag (>= v4).
func (v Version) HasIndexEncryption() bool { return v.Major() >= 4 }

// RelativeChunkOffsets reports whether block offsets are stored relative
// to the record rather than absolute in the file (>= v5).
func (v Version) RelativeChunkOffsets() bool { return v.Major() >= 5 }

// HasDeleteRecords reports whether the archive may contain tombstoned
// delete records (>= v6).
func (v Version) HasDeleteRecords() bool { return v.Major() >= 6 }

// HasEncryptionKeyGUID reports whether the footer carries a 16-byte
// encryption key GUID (>= v7).
func (v Version) HasEncryptionKeyGUID() bool { return v.Major() >= 7 }

// HasCompressionMethodTable reports whether the footer carries a table
// of named compression methods rather than relying on fixed codes
// (>= v8).
func (v Version) HasCompressionMethodTable() bool { return v.Major() >= 8 }

// HasFrozenFlag reports whether the footer carries the v9-only
// is-index-frozen byte.
func (v Version) HasFrozenFlag() bool { return v.Major() == 9 }

// HasPathHashIndex reports whether the index carries an embedded
// path-hash index and full-directory index (>= v10).
func (v Version) HasPathHashIndex() bool { return v.Major() >= 10 }

// UsesFixedFNV64 reports whether path hashing uses the bug-fixed FNV-64
// basis/prime pair rather than the legacy swapped pair (>= v11).
func (v Version) UsesFixedFNV64() bool { return v.Major() >= 11 }

// CompressionTableSize returns the byte size of the footer's
// compression-method name table for versions that carry one.
// Version8A and Version8B are the only versions where this cannot be
// derived from the major version number alone.
func (v Version) CompressionTableSize() int {
	switch v {
	case Version8A:
		return 128
	case Version8B:
		return 160
	}
	if v.Major() >= 9 {
		return 160
	}
	return 0
}

// CompressionTableEntries returns the number of 32-byte name slots the
// compression-method table holds.
func (v Version) CompressionTableEntries() int {
	return v.CompressionTableSize() / 32
}

// FooterSize returns the exact on-wire byte size of the footer for this
// version, per the fixed table in the format's external interface.
func (v Version) FooterSize() (int, error) {
	switch {
	case v.Major() >= 1 && v.Major() <= 3:
		return 44, nil
	case v.Major() >= 4 && v.Major() <= 6:
		return 45, nil
	case v.Major() == 7:
		return 61, nil
	case v == Version8A:
		return 189, nil
	case v == Version8B || v.Major() == 9 || v.Major() == 10 || v.Major() == 11:
		return 221, nil
	default:
		return 0, fmt.Errorf("unknown version: %v", v)
	}
}

// AllVersionsNewestFirst lists every version this codec understands,
// ordered newest-first, the order ReadAny tries them in. Version8A and
// Version8B both appear since on-disk version 8 is ambiguous and a
// caller-supplied hint is the only way to disambiguate; ReadAny tries
// both sub-variants adjacently.
func AllVersionsNewestFirst() []Version {
	return []Version{
		Version11, Version10, Version9, Version8B, Version8A,
		Version7, Version6, Version5, Version4, Version3, Version2, Version1,
	}
}

// IsValid reports whether v is one of the format's known versions.
func IsValid(v Version) bool {
	for _, known := range AllVersionsNewestFirst() {
		if known == v {
			return true
		}
	}
	return false
}
