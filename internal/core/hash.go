package core

import (
	"crypto/sha1" //nolint:gosec // SHA-1 is the pak format's integrity digest, not a security boundary
	"io"

	"github.com/go-pak/unrealpak/internal/utils"
)

// HashSize is the fixed byte length of every hash on the wire.
const HashSize = 20

// Hash is an opaque SHA-1 digest. Equality is byte-equal.
type Hash [HashSize]byte

// Sum computes the Hash of b.
func Sum(b []byte) Hash {
	return Hash(sha1.Sum(b)) //nolint:gosec // format-mandated SHA-1, see above
}

// Equal reports whether h and other are byte-equal.
func (h Hash) Equal(other Hash) bool {
	return h == other
}

// ReadHash reads a 20-byte hash from r.
func ReadHash(r io.Reader) (Hash, error) {
	raw, err := utils.ReadHash(r)
	return Hash(raw), err
}

// WriteHash writes h to w.
func WriteHash(w io.Writer, h Hash) error {
	return utils.WriteHash(w, [20]byte(h))
}
