package core

import (
	"hash/crc32"
	"unicode/utf16"
)

// fnvFixedBasis and fnvFixedPrime are the FNV-64a constants used from
// version 11 onward.
const (
	fnvFixedBasis uint64 = 0xcbf29ce484222325
	fnvFixedPrime uint64 = 0x00000100000001b3
)

// fnvLegacyBasis and fnvLegacyPrime are v10's basis/prime with the bug
// v11 fixes: the two constants are swapped relative to the correct
// FNV-64a definition.
const (
	fnvLegacyBasis uint64 = 0x00000100000001b3
	fnvLegacyPrime uint64 = 0xcbf29ce484222325
)

// FNV64 hashes data with a seed added (with wrapping) to the initial
// basis, using whichever basis/prime pair the archive version calls for.
// fixed selects the bug-fixed v11+ constants; false selects the legacy
// v10 (swapped) constants.
func FNV64(data []byte, seed uint64, fixed bool) uint64 {
	basis, prime := fnvLegacyBasis, fnvLegacyPrime
	if fixed {
		basis, prime = fnvFixedBasis, fnvFixedPrime
	}

	hash := basis + seed
	for _, b := range data {
		hash ^= uint64(b)
		hash *= prime
	}
	return hash
}

// PathHash hashes a relative file path for the PHI, transcoding it to
// UTF-16LE first per the format's path-hash input rule: the native-OS
// byte form of the path must never be hashed directly.
func PathHash(path string, seed uint64, fixed bool) uint64 {
	return FNV64(utf16leBytes(path), seed, fixed)
}

func utf16leBytes(s string) []byte {
	units := utf16.Encode([]rune(s))
	out := make([]byte, len(units)*2)
	for i, u := range units {
		out[i*2] = byte(u)
		out[i*2+1] = byte(u >> 8)
	}
	return out
}

// StrCRC32 computes Unreal's string CRC32 over the lowercased UTF-16LE
// bytes of s. Its result is widened to u64 and used as the path-hash
// seed for every file in the archive, which ties the seed to the
// archive's own output path — reproduced here exactly because the
// reference tool does the same.
func StrCRC32(s string) uint64 {
	lowered := make([]rune, 0, len(s))
	for _, r := range s {
		lowered = append(lowered, toLowerRune(r))
	}
	return uint64(crc32.ChecksumIEEE(utf16leBytes(string(lowered))))
}

func toLowerRune(r rune) rune {
	if r >= 'A' && r <= 'Z' {
		return r + ('a' - 'A')
	}
	return r
}
