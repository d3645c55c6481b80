package core

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFullDirectoryIndex_RoundTrip(t *testing.T) {
	in := FullDirectoryIndex{Directories: []FullDirectoryEntry{
		{Path: "directory/", Files: []FullDirectoryFile{
			{Name: "nested.txt", Offset: 0},
			{Name: "other.txt", Offset: 64},
		}},
		{Path: "top-level/", Files: []FullDirectoryFile{
			{Name: "readme.txt", Offset: 128},
		}},
	}}

	var buf bytes.Buffer
	require.NoError(t, WriteFullDirectoryIndex(&buf, in))
	require.Equal(t, SizeOfFullDirectoryIndex(in), buf.Len())

	out, err := ReadFullDirectoryIndex(&buf)
	require.NoError(t, err)
	require.Equal(t, in, out)
}

func TestFullDirectoryIndex_RoundTrip_Empty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteFullDirectoryIndex(&buf, FullDirectoryIndex{}))
	require.Equal(t, 4, buf.Len())

	out, err := ReadFullDirectoryIndex(&buf)
	require.NoError(t, err)
	require.Empty(t, out.Directories)
}

func TestFullDirectoryIndex_EmptyDirectory(t *testing.T) {
	in := FullDirectoryIndex{Directories: []FullDirectoryEntry{
		{Path: "empty/", Files: nil},
	}}

	var buf bytes.Buffer
	require.NoError(t, WriteFullDirectoryIndex(&buf, in))

	out, err := ReadFullDirectoryIndex(&buf)
	require.NoError(t, err)
	require.Len(t, out.Directories, 1)
	require.Empty(t, out.Directories[0].Files)
}
