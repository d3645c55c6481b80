package core

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseLegacyCompressionCode(t *testing.T) {
	tests := []struct {
		code     uint32
		expected Compression
	}{
		{0x00, CompressionNone},
		{0x01, CompressionZlib},
		{0x10, CompressionZlib},
		{0x20, CompressionZlib},
		{0x02, CompressionGzip},
		{0x03, CompressionOodle},
	}

	for _, tt := range tests {
		got, err := ParseLegacyCompressionCode(tt.code)
		require.NoError(t, err)
		require.Equal(t, tt.expected, got)
	}
}

func TestParseLegacyCompressionCode_Unknown(t *testing.T) {
	_, err := ParseLegacyCompressionCode(0xFF)
	require.Error(t, err)
}

func TestCompression_String(t *testing.T) {
	require.Equal(t, "None", CompressionNone.String())
	require.Equal(t, "Zlib", CompressionZlib.String())
	require.Equal(t, "Gzip", CompressionGzip.String())
	require.Equal(t, "Oodle", CompressionOodle.String())
}
