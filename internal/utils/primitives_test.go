package utils

import (
	"bytes"
	"encoding/binary"
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/require"
)

type mockReaderAt struct {
	data []byte
	err  error
}

func (m *mockReaderAt) ReadAt(p []byte, off int64) (n int, err error) {
	if m.err != nil {
		return 0, m.err
	}
	if off < 0 || off >= int64(len(m.data)) {
		return 0, io.EOF
	}
	n = copy(p, m.data[off:])
	if n < len(p) {
		return n, io.EOF
	}
	return n, nil
}

func TestReadUint64(t *testing.T) {
	data := []byte{0x01, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00}
	val, err := ReadUint64(&mockReaderAt{data: data}, 0, binary.LittleEndian)
	require.NoError(t, err)
	require.Equal(t, uint64(1), val)
}

func TestReadUint64_Errors(t *testing.T) {
	_, err := ReadUint64(&mockReaderAt{data: []byte{}, err: errors.New("boom")}, 0, binary.LittleEndian)
	require.Error(t, err)
}

func TestReadWriteRoundTrip_Integers(t *testing.T) {
	var buf bytes.Buffer

	require.NoError(t, WriteU8(&buf, 0xAB))
	require.NoError(t, WriteU16(&buf, 0x1234))
	require.NoError(t, WriteU32(&buf, 0xDEADBEEF))
	require.NoError(t, WriteU64(&buf, 0x1122334455667788))
	require.NoError(t, WriteI32(&buf, -1))
	require.NoError(t, WriteI64(&buf, -2))

	u8, err := ReadU8(&buf)
	require.NoError(t, err)
	require.Equal(t, uint8(0xAB), u8)

	u16, err := ReadU16(&buf)
	require.NoError(t, err)
	require.Equal(t, uint16(0x1234), u16)

	u32, err := ReadU32(&buf)
	require.NoError(t, err)
	require.Equal(t, uint32(0xDEADBEEF), u32)

	u64, err := ReadU64(&buf)
	require.NoError(t, err)
	require.Equal(t, uint64(0x1122334455667788), u64)

	i32, err := ReadI32(&buf)
	require.NoError(t, err)
	require.Equal(t, int32(-1), i32)

	i64, err := ReadI64(&buf)
	require.NoError(t, err)
	require.Equal(t, int64(-2), i64)
}

func TestU128RoundTrip(t *testing.T) {
	var buf bytes.Buffer
	var in [16]byte
	for i := range in {
		in[i] = byte(i)
	}
	require.NoError(t, WriteU128(&buf, in))
	out, err := ReadU128(&buf)
	require.NoError(t, err)
	require.Equal(t, in, out)
}

func TestBoolRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteBool(&buf, true))
	require.NoError(t, WriteBool(&buf, false))

	v, err := ReadBool(&buf)
	require.NoError(t, err)
	require.True(t, v)

	v, err = ReadBool(&buf)
	require.NoError(t, err)
	require.False(t, v)
}

func TestReadBool_InvalidByte(t *testing.T) {
	buf := bytes.NewReader([]byte{2})
	_, err := ReadBool(buf)
	require.Error(t, err)
	require.True(t, IsKind(err, KindInvalidBool))
}

func TestHashRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	var in [20]byte
	for i := range in {
		in[i] = byte(i + 1)
	}
	require.NoError(t, WriteHash(&buf, in))
	out, err := ReadHash(&buf)
	require.NoError(t, err)
	require.Equal(t, in, out)
}

func TestStringRoundTrip_UTF8(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteString(&buf, "../../mount/point/root/"))

	s, err := ReadString(&buf)
	require.NoError(t, err)
	require.Equal(t, "../../mount/point/root/", s)
}

func TestStringRoundTrip_Empty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteString(&buf, ""))

	s, err := ReadString(&buf)
	require.NoError(t, err)
	require.Equal(t, "", s)
}

func TestStringSize(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteString(&buf, "abc"))
	require.Equal(t, StringSize("abc"), buf.Len())
}

func TestReadString_UTF16LE(t *testing.T) {
	// Negative length: "ab" + NUL, as UTF-16LE code units.
	var buf bytes.Buffer
	require.NoError(t, WriteI32(&buf, -3))
	require.NoError(t, WriteU16(&buf, uint16('a')))
	require.NoError(t, WriteU16(&buf, uint16('b')))
	require.NoError(t, WriteU16(&buf, 0))

	s, err := ReadString(&buf)
	require.NoError(t, err)
	require.Equal(t, "ab", s)
}

func TestReadString_InvalidUTF8(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteI32(&buf, 2))
	buf.Write([]byte{0xff, 0xfe})

	_, err := ReadString(&buf)
	require.Error(t, err)
	require.True(t, IsKind(err, KindInvalidUTF8))
}
