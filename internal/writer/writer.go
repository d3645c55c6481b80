package writer

import (
	"fmt"
	"io"
	"os"
)

// ArchiveFile wraps an os.File with the sequential allocation discipline
// the pak writer needs: each data record, the index together with its
// sub-indices, and the footer are each requested as a block and written
// at the address Allocate returns, never revisited afterward.
//
// Not safe for concurrent use — spec.md §5 gives a writer exclusive
// ownership of its output stream for the duration of write_archive.
type ArchiveFile struct {
	file      *os.File
	allocator *Allocator
}

// CreateMode specifies the file creation behavior.
type CreateMode int

const (
	// ModeTruncate creates a new file, truncating if it exists.
	ModeTruncate CreateMode = iota
	// ModeExclusive creates a new file, failing if it already exists.
	ModeExclusive
)

// NewArchiveFile opens filename for writing a new archive. initialOffset
// is almost always 0: a pak archive has no fixed header before its
// first data record.
func NewArchiveFile(filename string, mode CreateMode, initialOffset uint64) (*ArchiveFile, error) {
	var osFile *os.File
	var err error

	switch mode {
	case ModeTruncate:
		osFile, err = os.Create(filename)
	case ModeExclusive:
		osFile, err = os.OpenFile(filename, os.O_RDWR|os.O_CREATE|os.O_EXCL, 0666)
	default:
		return nil, fmt.Errorf("invalid create mode: %d", mode)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create archive file: %w", err)
	}

	return &ArchiveFile{
		file:      osFile,
		allocator: NewAllocator(initialOffset),
	}, nil
}

// Allocate reserves size bytes at the end of the archive and returns the
// address to write them at. The space is not zeroed.
func (w *ArchiveFile) Allocate(size uint64) (uint64, error) {
	if w.file == nil {
		return 0, fmt.Errorf("archive file is closed")
	}
	return w.allocator.Allocate(size)
}

// WriteAt writes data at offset, implementing io.WriterAt.
func (w *ArchiveFile) WriteAt(data []byte, offset int64) (int, error) {
	if w.file == nil {
		return 0, fmt.Errorf("archive file is closed")
	}
	if len(data) == 0 {
		return 0, nil
	}

	n, err := w.file.WriteAt(data, offset)
	if err != nil {
		return n, fmt.Errorf("write at offset %d failed: %w", offset, err)
	}
	if n != len(data) {
		return n, fmt.Errorf("incomplete write at offset %d: wrote %d of %d bytes", offset, n, len(data))
	}
	return n, nil
}

// WriteAtAddress is WriteAt with a uint64 address, the form allocator
// offsets naturally come in.
func (w *ArchiveFile) WriteAtAddress(data []byte, addr uint64) error {
	_, err := w.WriteAt(data, int64(addr))
	return err
}

// ReadAt reads data at addr, implementing io.ReaderAt — used to read
// back just-written bytes (e.g. to hash the index body without holding
// a second copy in memory).
func (w *ArchiveFile) ReadAt(buf []byte, addr int64) (int, error) {
	if w.file == nil {
		return 0, fmt.Errorf("archive file is closed")
	}
	return w.file.ReadAt(buf, addr)
}

// EndOfFile returns the current end-of-file address: where the next
// allocation, and ultimately the footer, will land.
func (w *ArchiveFile) EndOfFile() uint64 {
	return w.allocator.EndOfFile()
}

// Flush commits all writes to disk.
func (w *ArchiveFile) Flush() error {
	if w.file == nil {
		return fmt.Errorf("archive file is closed")
	}
	return w.file.Sync()
}

// Close closes the underlying file. Does not flush first.
func (w *ArchiveFile) Close() error {
	if w.file == nil {
		return nil
	}
	err := w.file.Close()
	w.file = nil
	return err
}

// File returns the underlying *os.File for advanced use; direct writes
// through it bypass allocation tracking.
func (w *ArchiveFile) File() *os.File {
	return w.file
}

// Allocator returns the space allocator, mainly for tests asserting on
// the archive's layout.
func (w *ArchiveFile) Allocator() *Allocator {
	return w.allocator
}

// WriteAtWithAllocation allocates len(data) bytes and writes data there
// in one step, returning the address it landed at.
func (w *ArchiveFile) WriteAtWithAllocation(data []byte) (uint64, error) {
	if len(data) == 0 {
		return 0, fmt.Errorf("cannot write empty data")
	}

	addr, err := w.Allocate(uint64(len(data)))
	if err != nil {
		return 0, err
	}
	if err := w.WriteAtAddress(data, addr); err != nil {
		return 0, err
	}
	return addr, nil
}

// Seek implements io.Seeker for compatibility with callers that expect
// one; the archive writer itself addresses everything by absolute
// offset and never needs it.
func (w *ArchiveFile) Seek(offset int64, whence int) (int64, error) {
	if w.file == nil {
		return 0, fmt.Errorf("archive file is closed")
	}
	return w.file.Seek(offset, whence)
}

var (
	_ io.ReaderAt = (*ArchiveFile)(nil)
	_ io.WriterAt = (*ArchiveFile)(nil)
)
