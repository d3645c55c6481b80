// Package pathenc implements the path encoding interface spec.md §6
// consumes: transcoding a platform-native path string to the canonical
// UTF-16LE byte representation used for path hashing. golang.org/x/text's
// unicode/utf16 codec is the transcoder, rather than the hand-rolled
// unicode/utf16 loop internal/core uses inside core.PathHash and
// core.StrCRC32 — this package is the externally-facing surface named in the
// format's consumed interfaces, so it goes through the same library the
// rest of the retrieval pack reaches for when it needs a named text
// encoding rather than a raw code-point loop.
package pathenc

import (
	"golang.org/x/text/encoding/unicode"
)

var utf16LE = unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM).NewEncoder()

// ToUTF16LE transcodes path to its UTF-16LE byte representation, the
// canonical form every path hash in the archive is computed over —
// never the native-OS byte form (spec.md §4.2).
func ToUTF16LE(path string) ([]byte, error) {
	return utf16LE.Bytes([]byte(path))
}

// ToLowerUTF16LE transcodes the lowercased form of path, the input
// StrCRC32 hashes to seed every per-file path hash (spec.md §4.2).
func ToLowerUTF16LE(path string) ([]byte, error) {
	return ToUTF16LE(lowerASCIIAware(path))
}

// lowerASCIIAware lowercases path using the same per-rune mapping
// core.StrCRC32 applies, kept in sync so callers get identical bytes
// whichever package they transcode through.
func lowerASCIIAware(s string) string {
	r := []rune(s)
	for i, c := range r {
		if c >= 'A' && c <= 'Z' {
			r[i] = c + ('a' - 'A')
		}
	}
	return string(r)
}
