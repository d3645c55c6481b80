package core

import (
	"io"

	logging "github.com/ipfs/go-log/v2"

	"github.com/go-pak/unrealpak/internal/utils"
)

var log = logging.Logger("unrealpak/core")

// PathHashEntry is one (path hash, record offset) pair in the flat
// Path-Hash Index.
type PathHashEntry struct {
	Hash   uint64
	Offset uint32
}

// PathHashIndex is the flat list of path hashes introduced at v10,
// letting a reader locate a file's encoded index record by hashing its
// path instead of walking the Full-Directory Index.
type PathHashIndex struct {
	Entries []PathHashEntry
}

// ReadPathHashIndex reads a Path-Hash Index: a u32 count, that many
// (u64 hash, u32 offset) pairs, and a trailing u32 of zero padding.
func ReadPathHashIndex(r io.Reader) (PathHashIndex, error) {
	var phi PathHashIndex

	count, err := utils.ReadU32(r)
	if err != nil {
		return phi, err
	}

	phi.Entries = make([]PathHashEntry, count)
	for i := range phi.Entries {
		hash, err := utils.ReadU64(r)
		if err != nil {
			return phi, err
		}
		offset, err := utils.ReadU32(r)
		if err != nil {
			return phi, err
		}
		phi.Entries[i] = PathHashEntry{Hash: hash, Offset: offset}
	}

	padding, err := utils.ReadU32(r)
	if err != nil {
		return phi, err
	}
	if padding != 0 {
		log.Warnw("path-hash index padding word is non-zero", "value", padding)
	}

	return phi, nil
}

// WritePathHashIndex mirrors ReadPathHashIndex, always writing the
// trailing padding word as zero.
func WritePathHashIndex(w io.Writer, phi PathHashIndex) error {
	if err := utils.WriteU32(w, uint32(len(phi.Entries))); err != nil {
		return err
	}
	for _, e := range phi.Entries {
		if err := utils.WriteU64(w, e.Hash); err != nil {
			return err
		}
		if err := utils.WriteU32(w, e.Offset); err != nil {
			return err
		}
	}
	return utils.WriteU32(w, 0)
}

// SizeOfPathHashIndex returns the exact byte size WritePathHashIndex
// produces for n entries: count + n*(hash+offset) + padding.
func SizeOfPathHashIndex(n int) int {
	return 4 + n*(8+4) + 4
}
