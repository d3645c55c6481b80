package unrealpak

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/go-pak/unrealpak/internal/core"
	"github.com/go-pak/unrealpak/internal/crypto"
)

func writeSourceTree(t *testing.T, files map[string]string) string {
	t.Helper()
	root := t.TempDir()
	for rel, content := range files {
		full := filepath.Join(root, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(full), 0o755))
		require.NoError(t, os.WriteFile(full, []byte(content), 0o644))
	}
	return root
}

func TestWriteArchive_RoundTrip_Uncompressed(t *testing.T) {
	source := writeSourceTree(t, map[string]string{
		"a.txt":             "hello from a",
		"nested/b.txt":      "hello from nested b",
		"nested/deep/c.txt": "hello from deep c",
		"empty.txt":         "",
	})
	archivePath := filepath.Join(t.TempDir(), "out.pak")

	err := WriteArchive(source, "../../../Game/", archivePath, WriteOptions{})
	require.NoError(t, err)

	a, err := Open(archivePath, ReadOptions{VerifyHashes: true})
	require.NoError(t, err)
	defer a.Close()

	require.Equal(t, core.Version11, a.Version())
	require.Equal(t, "../../../Game/", a.MountPoint())
	require.Equal(t, []string{"a.txt", "empty.txt", "nested/b.txt", "nested/deep/c.txt"}, a.Files())

	data, err := a.ReadFile("a.txt")
	require.NoError(t, err)
	require.Equal(t, "hello from a", string(data))

	data, err = a.ReadFile("nested/b.txt")
	require.NoError(t, err)
	require.Equal(t, "hello from nested b", string(data))

	data, err = a.ReadFile("nested/deep/c.txt")
	require.NoError(t, err)
	require.Equal(t, "hello from deep c", string(data))

	data, err = a.ReadFile("empty.txt")
	require.NoError(t, err)
	require.Equal(t, []byte{}, data)

	_, err = a.ReadFile("does-not-exist.txt")
	require.Error(t, err)
	require.True(t, IsKind(err, KindValidation))

	rec, ok := a.Stat("a.txt")
	require.True(t, ok)
	require.Zero(t, rec.CompressionBlockSize, "uncompressed records must encode a zero block size, matching the reference writer")
}

func TestWriteArchive_RoundTrip_Zlib(t *testing.T) {
	source := writeSourceTree(t, map[string]string{
		"data.bin": "some reasonably compressible payload payload payload payload",
	})
	archivePath := filepath.Join(t.TempDir(), "out.pak")

	err := WriteArchive(source, "../../../Game/", archivePath, WriteOptions{
		CompressionMethod: core.CompressionZlib,
	})
	require.NoError(t, err)

	a, err := Open(archivePath)
	require.NoError(t, err)
	defer a.Close()

	data, err := a.ReadFile("data.bin")
	require.NoError(t, err)
	require.Equal(t, "some reasonably compressible payload payload payload payload", string(data))

	rec, ok := a.Stat("data.bin")
	require.True(t, ok)
	require.Equal(t, core.CompressionZlib, rec.CompressionMethod)
	require.Less(t, rec.CompressedSize, rec.UncompressedSize)
	require.NotZero(t, rec.CompressionBlockSize)
}

func TestWriteArchive_RoundTrip_EncryptedDataOnly(t *testing.T) {
	source := writeSourceTree(t, map[string]string{
		"secret.txt": "top secret payload",
	})
	archivePath := filepath.Join(t.TempDir(), "out.pak")
	key := make([]byte, crypto.KeySize)
	for i := range key {
		key[i] = byte(i)
	}

	err := WriteArchive(source, "../../../Game/", archivePath, WriteOptions{
		EncryptData:   true,
		EncryptionKey: key,
	})
	require.NoError(t, err)

	_, err = Open(archivePath)
	require.NoError(t, err, "index itself is not encrypted, so Open needs no key")

	a, err := Open(archivePath, ReadOptions{EncryptionKey: key})
	require.NoError(t, err)
	defer a.Close()

	data, err := a.ReadFile("secret.txt")
	require.NoError(t, err)
	require.Equal(t, "top secret payload", string(data))

	_, err = a.ReadFile("secret.txt")
	require.NoError(t, err)

	noKeyArchive, err := Open(archivePath)
	require.NoError(t, err)
	defer noKeyArchive.Close()
	_, err = noKeyArchive.ReadFile("secret.txt")
	require.Error(t, err)
	require.True(t, IsKind(err, KindEncryptedWithoutKey))
}

func TestWriteArchive_RoundTrip_EncryptedIndex(t *testing.T) {
	source := writeSourceTree(t, map[string]string{
		"a.txt": "alpha",
		"b.txt": "bravo",
	})
	archivePath := filepath.Join(t.TempDir(), "out.pak")
	key := make([]byte, crypto.KeySize)
	for i := range key {
		key[i] = byte(0xA0 + i)
	}

	err := WriteArchive(source, "../../../Game/", archivePath, WriteOptions{
		EncryptData:   true,
		EncryptIndex:  true,
		EncryptionKey: key,
	})
	require.NoError(t, err)

	_, err = Open(archivePath)
	require.Error(t, err)
	require.True(t, IsKind(err, KindEncryptedWithoutKey))

	a, err := Open(archivePath, ReadOptions{EncryptionKey: key})
	require.NoError(t, err)
	defer a.Close()

	require.Equal(t, []string{"a.txt", "b.txt"}, a.Files())
	data, err := a.ReadFile("b.txt")
	require.NoError(t, err)
	require.Equal(t, "bravo", string(data))
}

func TestWriteArchive_RejectsUnsupportedVersion(t *testing.T) {
	source := writeSourceTree(t, map[string]string{"a.txt": "a"})
	archivePath := filepath.Join(t.TempDir(), "out.pak")

	err := WriteArchive(source, "../../../Game/", archivePath, WriteOptions{Version: core.Version7})
	require.Error(t, err)
	require.True(t, IsKind(err, KindUnsupportedVersion))
}

func TestWriteArchive_RejectsEncryptionWithoutKey(t *testing.T) {
	source := writeSourceTree(t, map[string]string{"a.txt": "a"})
	archivePath := filepath.Join(t.TempDir(), "out.pak")

	err := WriteArchive(source, "../../../Game/", archivePath, WriteOptions{EncryptData: true})
	require.Error(t, err)
	require.True(t, IsKind(err, KindEncryptedWithoutKey))
}

func TestOpenVersion_DisambiguatesExplicitly(t *testing.T) {
	source := writeSourceTree(t, map[string]string{"a.txt": "a"})
	archivePath := filepath.Join(t.TempDir(), "out.pak")

	require.NoError(t, WriteArchive(source, "../../../Game/", archivePath, WriteOptions{Version: core.Version10}))

	a, err := OpenVersion(archivePath, core.Version10)
	require.NoError(t, err)
	defer a.Close()
	require.Equal(t, core.Version10, a.Version())
}
