package utils

import (
	"encoding/binary"
	"fmt"
	"io"
	"unicode/utf16"
	"unicode/utf8"
)

// ReaderAt is a simplified interface for io.ReaderAt, kept distinct from
// the stdlib interface so callers needing only random-access reads don't
// have to depend on the rest of io.
type ReaderAt interface {
	ReadAt(p []byte, off int64) (n int, err error)
}

// ReadUint64 reads a little- or big-endian u64 at a specific absolute
// offset, for peeking at a field without disturbing a sequential
// cursor.
func ReadUint64(r ReaderAt, offset int64, order binary.ByteOrder) (uint64, error) {
	buf := GetBuffer(8)
	defer ReleaseBuffer(buf)

	if _, err := r.ReadAt(buf, offset); err != nil {
		return 0, err
	}
	return order.Uint64(buf), nil
}

func readN(r io.Reader, n int) ([]byte, error) {
	buf := make([]byte, n)
	if _, err := io.ReadFull(r, buf); err != nil {
		return nil, NewError(KindIO, fmt.Sprintf("reading %d bytes", n), err)
	}
	return buf, nil
}

// ReadU8 reads a single byte.
func ReadU8(r io.Reader) (uint8, error) {
	buf, err := readN(r, 1)
	if err != nil {
		return 0, err
	}
	return buf[0], nil
}

// ReadU16 reads a little-endian u16.
func ReadU16(r io.Reader) (uint16, error) {
	buf, err := readN(r, 2)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(buf), nil
}

// ReadU32 reads a little-endian u32.
func ReadU32(r io.Reader) (uint32, error) {
	buf, err := readN(r, 4)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(buf), nil
}

// ReadU64 reads a little-endian u64.
func ReadU64(r io.Reader) (uint64, error) {
	buf, err := readN(r, 8)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(buf), nil
}

// ReadU128 reads a little-endian u128 as its 16 raw bytes (the GUID use
// in the footer has no arithmetic done on it, so the byte form is kept
// rather than widening into a math/big.Int).
func ReadU128(r io.Reader) ([16]byte, error) {
	var out [16]byte
	buf, err := readN(r, 16)
	if err != nil {
		return out, err
	}
	copy(out[:], buf)
	return out, nil
}

// ReadI32 reads a little-endian i32.
func ReadI32(r io.Reader) (int32, error) {
	v, err := ReadU32(r)
	return int32(v), err
}

// ReadI64 reads a little-endian i64.
func ReadI64(r io.Reader) (int64, error) {
	v, err := ReadU64(r)
	return int64(v), err
}

// ReadBool reads a single byte that must be strictly 0 or 1.
func ReadBool(r io.Reader) (bool, error) {
	b, err := ReadU8(r)
	if err != nil {
		return false, err
	}
	switch b {
	case 0:
		return false, nil
	case 1:
		return true, nil
	default:
		return false, NewError(KindInvalidBool, "decoding bool", fmt.Errorf("byte value %d outside {0,1}", b))
	}
}

// ReadHash reads a 20-byte SHA-1 digest.
func ReadHash(r io.Reader) ([20]byte, error) {
	var out [20]byte
	buf, err := readN(r, 20)
	if err != nil {
		return out, err
	}
	copy(out[:], buf)
	return out, nil
}

// ReadString reads a length-prefixed string: an i32 length followed by
// its bytes. Positive length means UTF-8 bytes; negative length means
// UTF-16LE code units, |length| of them. The terminating NUL is included
// in the length on the wire and is stripped from the returned string.
func ReadString(r io.Reader) (string, error) {
	length, err := ReadI32(r)
	if err != nil {
		return "", err
	}
	if length == 0 {
		return "", nil
	}
	if length > 0 {
		buf, err := readN(r, int(length))
		if err != nil {
			return "", err
		}
		if !utf8.Valid(buf) {
			return "", NewError(KindInvalidUTF8, "decoding string", fmt.Errorf("%d bytes are not valid UTF-8", len(buf)))
		}
		return trimTrailingNUL(string(buf)), nil
	}

	units := -int(length)
	buf, err := readN(r, units*2)
	if err != nil {
		return "", err
	}
	codeUnits := make([]uint16, units)
	for i := range codeUnits {
		codeUnits[i] = binary.LittleEndian.Uint16(buf[i*2:])
	}
	if len(codeUnits) > 0 && codeUnits[len(codeUnits)-1] == 0 {
		codeUnits = codeUnits[:len(codeUnits)-1]
	}
	return string(utf16.Decode(codeUnits)), nil
}

func trimTrailingNUL(s string) string {
	if len(s) > 0 && s[len(s)-1] == 0 {
		return s[:len(s)-1]
	}
	return s
}

// WriteU8 writes a single byte.
func WriteU8(w io.Writer, v uint8) error {
	_, err := w.Write([]byte{v})
	return NewError(KindIO, "writing u8", err)
}

// WriteU16 writes a little-endian u16.
func WriteU16(w io.Writer, v uint16) error {
	var buf [2]byte
	binary.LittleEndian.PutUint16(buf[:], v)
	_, err := w.Write(buf[:])
	return NewError(KindIO, "writing u16", err)
}

// WriteU32 writes a little-endian u32.
func WriteU32(w io.Writer, v uint32) error {
	var buf [4]byte
	binary.LittleEndian.PutUint32(buf[:], v)
	_, err := w.Write(buf[:])
	return NewError(KindIO, "writing u32", err)
}

// WriteU64 writes a little-endian u64.
func WriteU64(w io.Writer, v uint64) error {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], v)
	_, err := w.Write(buf[:])
	return NewError(KindIO, "writing u64", err)
}

// WriteU128 writes the 16 raw bytes of a GUID-shaped value.
func WriteU128(w io.Writer, v [16]byte) error {
	_, err := w.Write(v[:])
	return NewError(KindIO, "writing u128", err)
}

// WriteI32 writes a little-endian i32.
func WriteI32(w io.Writer, v int32) error {
	return WriteU32(w, uint32(v))
}

// WriteI64 writes a little-endian i64.
func WriteI64(w io.Writer, v int64) error {
	return WriteU64(w, uint64(v))
}

// WriteBool writes a single 0/1 byte.
func WriteBool(w io.Writer, v bool) error {
	if v {
		return WriteU8(w, 1)
	}
	return WriteU8(w, 0)
}

// WriteHash writes a 20-byte SHA-1 digest.
func WriteHash(w io.Writer, v [20]byte) error {
	_, err := w.Write(v[:])
	return NewError(KindIO, "writing hash", err)
}

// WriteString writes a UTF-8 string with its NUL terminator included in
// the i32 length prefix, matching how the writer always emits strings
// (only the reader needs to understand the negative/UTF-16LE form).
func WriteString(w io.Writer, s string) error {
	data := append([]byte(s), 0)
	if err := WriteI32(w, int32(len(data))); err != nil {
		return err
	}
	_, err := w.Write(data)
	return NewError(KindIO, "writing string", err)
}

// StringSize returns the on-wire size in bytes of a length-prefixed
// UTF-8 string as WriteString would emit it: 4 bytes of length prefix
// plus the UTF-8 bytes plus the terminating NUL.
func StringSize(s string) int {
	return 4 + len(s) + 1
}
