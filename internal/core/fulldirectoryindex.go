package core

import (
	"io"

	"github.com/go-pak/unrealpak/internal/utils"
)

// FullDirectoryFile is one file's offset entry within a directory in the
// Full-Directory Index.
type FullDirectoryFile struct {
	Name   string
	Offset uint32
}

// FullDirectoryEntry is one directory's file list. Files is kept as an
// ordered slice rather than a map so the lexicographic ordering the
// format expects on write is a property of construction, not a sort
// applied at serialization time.
type FullDirectoryEntry struct {
	Path  string
	Files []FullDirectoryFile
}

// FullDirectoryIndex is the nested dir -> file -> offset map introduced
// at v10 as the human-browsable counterpart to the flat Path-Hash Index.
// Directories, like their file lists, are kept ordered.
type FullDirectoryIndex struct {
	Directories []FullDirectoryEntry
}

// ReadFullDirectoryIndex reads a Full-Directory Index: a u32 directory
// count, then per directory a path string, a u32 file count, and that
// many (name string, u32 offset) pairs.
func ReadFullDirectoryIndex(r io.Reader) (FullDirectoryIndex, error) {
	var fdi FullDirectoryIndex

	dirCount, err := utils.ReadU32(r)
	if err != nil {
		return fdi, err
	}

	fdi.Directories = make([]FullDirectoryEntry, dirCount)
	for i := range fdi.Directories {
		path, err := utils.ReadString(r)
		if err != nil {
			return fdi, err
		}

		fileCount, err := utils.ReadU32(r)
		if err != nil {
			return fdi, err
		}

		files := make([]FullDirectoryFile, fileCount)
		for j := range files {
			name, err := utils.ReadString(r)
			if err != nil {
				return fdi, err
			}
			offset, err := utils.ReadU32(r)
			if err != nil {
				return fdi, err
			}
			files[j] = FullDirectoryFile{Name: name, Offset: offset}
		}

		fdi.Directories[i] = FullDirectoryEntry{Path: path, Files: files}
	}

	return fdi, nil
}

// WriteFullDirectoryIndex mirrors ReadFullDirectoryIndex.
func WriteFullDirectoryIndex(w io.Writer, fdi FullDirectoryIndex) error {
	if err := utils.WriteU32(w, uint32(len(fdi.Directories))); err != nil {
		return err
	}
	for _, dir := range fdi.Directories {
		if err := utils.WriteString(w, dir.Path); err != nil {
			return err
		}
		if err := utils.WriteU32(w, uint32(len(dir.Files))); err != nil {
			return err
		}
		for _, f := range dir.Files {
			if err := utils.WriteString(w, f.Name); err != nil {
				return err
			}
			if err := utils.WriteU32(w, f.Offset); err != nil {
				return err
			}
		}
	}
	return nil
}

// SizeOfFullDirectoryIndex returns the exact byte size
// WriteFullDirectoryIndex produces for fdi, used by the index codec's
// two-phase serialization to plan the Path-Hash/Full-Directory Index
// offsets before either sub-index is actually written.
func SizeOfFullDirectoryIndex(fdi FullDirectoryIndex) int {
	size := 4
	for _, dir := range fdi.Directories {
		size += utils.StringSize(dir.Path)
		size += 4
		for _, f := range dir.Files {
			size += utils.StringSize(f.Name)
			size += 4
		}
	}
	return size
}
