package core

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBlock_Size(t *testing.T) {
	b := Block{Start: 100, End: 180}
	require.Equal(t, uint64(80), b.Size())
}

func TestBlocksRoundTrip(t *testing.T) {
	in := []Block{{Start: 0, End: 64}, {Start: 64, End: 200}}

	var buf bytes.Buffer
	require.NoError(t, WriteBlocks(&buf, in))

	out, err := ReadBlocks(&buf)
	require.NoError(t, err)
	require.Equal(t, in, out)
}

func TestBlocksRoundTrip_Empty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteBlocks(&buf, nil))

	out, err := ReadBlocks(&buf)
	require.NoError(t, err)
	require.Empty(t, out)
}
