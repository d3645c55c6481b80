// Command unrealpak lists, extracts, and creates Unreal Engine .pak
// archives from the command line.
package main

import (
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/go-pak/unrealpak"
	"github.com/go-pak/unrealpak/internal/core"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "unrealpak",
		Short: "Inspect, extract, and build Unreal Engine .pak archives",
	}
	root.AddCommand(newListCmd(), newExtractCmd(), newCreateCmd())
	return root
}

func newListCmd() *cobra.Command {
	var keyHex string
	cmd := &cobra.Command{
		Use:   "list <archive.pak>",
		Short: "List every file path in an archive",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			key, err := decodeKey(keyHex)
			if err != nil {
				return err
			}
			a, err := unrealpak.Open(args[0], unrealpak.ReadOptions{EncryptionKey: key})
			if err != nil {
				return err
			}
			defer a.Close()

			for _, path := range a.Files() {
				fmt.Println(path)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&keyHex, "key", "", "hex-encoded AES-256 key, required if the archive is encrypted")
	return cmd
}

func newExtractCmd() *cobra.Command {
	var keyHex string
	cmd := &cobra.Command{
		Use:   "extract <archive.pak> <destination-dir>",
		Short: "Extract every file in an archive to destination-dir",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			key, err := decodeKey(keyHex)
			if err != nil {
				return err
			}
			a, err := unrealpak.Open(args[0], unrealpak.ReadOptions{EncryptionKey: key})
			if err != nil {
				return err
			}
			defer a.Close()

			return extractAll(a, args[1])
		},
	}
	cmd.Flags().StringVar(&keyHex, "key", "", "hex-encoded AES-256 key, required if the archive is encrypted")
	return cmd
}

func extractAll(a *unrealpak.Archive, destDir string) error {
	for _, path := range a.Files() {
		data, err := a.ReadFile(path)
		if err != nil {
			return fmt.Errorf("extracting %s: %w", path, err)
		}

		dest := filepath.Join(destDir, filepath.FromSlash(path))
		if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
			return fmt.Errorf("creating directory for %s: %w", path, err)
		}
		if err := os.WriteFile(dest, data, 0o644); err != nil {
			return fmt.Errorf("writing %s: %w", path, err)
		}
	}
	return nil
}

func newCreateCmd() *cobra.Command {
	var (
		versionNum int
		method     string
		mountPoint string
		keyHex     string
		encryptIdx bool
	)
	cmd := &cobra.Command{
		Use:   "create <source-dir> <archive.pak>",
		Short: "Build a new archive from every file under source-dir",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			key, err := decodeKey(keyHex)
			if err != nil {
				return err
			}
			compression, err := parseCompression(method)
			if err != nil {
				return err
			}

			opts := unrealpak.WriteOptions{
				Version:           core.Version(versionNum),
				CompressionMethod: compression,
				EncryptData:       len(key) > 0,
				EncryptIndex:      encryptIdx,
				EncryptionKey:     key,
			}
			return unrealpak.WriteArchive(args[0], mountPoint, args[1], opts)
		},
	}
	cmd.Flags().IntVar(&versionNum, "version", int(core.Version11), "pak format version (10 or 11)")
	cmd.Flags().StringVar(&method, "compression", "none", "compression method: none or zlib")
	cmd.Flags().StringVar(&mountPoint, "mount-point", "../../../", "archive mount point")
	cmd.Flags().StringVar(&keyHex, "key", "", "hex-encoded AES-256 key; encrypts file data when set")
	cmd.Flags().BoolVar(&encryptIdx, "encrypt-index", false, "also encrypt the index; requires --key")
	return cmd
}

func parseCompression(name string) (core.Compression, error) {
	switch name {
	case "none", "":
		return core.CompressionNone, nil
	case "zlib":
		return core.CompressionZlib, nil
	default:
		return 0, fmt.Errorf("unsupported --compression %q: only \"none\" and \"zlib\" are implemented", name)
	}
}

func decodeKey(hexKey string) ([]byte, error) {
	if hexKey == "" {
		return nil, nil
	}
	key, err := hex.DecodeString(hexKey)
	if err != nil {
		return nil, fmt.Errorf("decoding --key: %w", err)
	}
	return key, nil
}
