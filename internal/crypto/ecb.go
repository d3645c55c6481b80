// Package crypto provides the AES-256 ECB block cipher the pak format
// uses for encrypted data records and indices, plus a GUID wrapper for
// the footer's encryption-key identifier.
//
// Go's standard crypto/cipher deliberately does not expose an ECB mode
// (it's a poor choice for general-purpose encryption, which is why the
// stdlib designers left it out) — but the pak format mandates it, so
// this package supplies the missing chaining by hand atop crypto/aes's
// block cipher. No third-party AES/ECB implementation in the retrieval
// pack covers this; see DESIGN.md for the full accounting of why this
// one piece is stdlib rather than pack-grounded.
package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"fmt"
)

// KeySize is the required AES-256 key length in bytes.
const KeySize = 32

// BlockSize is the AES block size; ECB operates over whole multiples of it.
const BlockSize = aes.BlockSize

// PadToBlockSize zero-pads data up to the next 16-byte boundary, the
// padding scheme spec.md §4.8 step c and §8's encrypted-payload
// invariant require before ECB encryption.
func PadToBlockSize(data []byte) []byte {
	rem := len(data) % BlockSize
	if rem == 0 {
		return data
	}
	padded := make([]byte, len(data)+(BlockSize-rem))
	copy(padded, data)
	return padded
}

// EncryptECB encrypts data, which must already be a multiple of
// BlockSize, with AES-256 in ECB mode under key.
func EncryptECB(key, data []byte) ([]byte, error) {
	block, err := newCipher(key)
	if err != nil {
		return nil, err
	}
	if len(data)%BlockSize != 0 {
		return nil, fmt.Errorf("crypto: ECB plaintext length %d is not a multiple of %d", len(data), BlockSize)
	}

	out := make([]byte, len(data))
	for i := 0; i < len(data); i += BlockSize {
		block.Encrypt(out[i:i+BlockSize], data[i:i+BlockSize])
	}
	return out, nil
}

// DecryptECB decrypts data, which must be a multiple of BlockSize, with
// AES-256 in ECB mode under key.
func DecryptECB(key, data []byte) ([]byte, error) {
	block, err := newCipher(key)
	if err != nil {
		return nil, err
	}
	if len(data)%BlockSize != 0 {
		return nil, fmt.Errorf("crypto: ECB ciphertext length %d is not a multiple of %d", len(data), BlockSize)
	}

	out := make([]byte, len(data))
	for i := 0; i < len(data); i += BlockSize {
		block.Decrypt(out[i:i+BlockSize], data[i:i+BlockSize])
	}
	return out, nil
}

func newCipher(key []byte) (cipher.Block, error) {
	if len(key) != KeySize {
		return nil, fmt.Errorf("crypto: AES-256 key must be %d bytes, got %d", KeySize, len(key))
	}
	return aes.NewCipher(key)
}
