// Package unrealpak reads and writes Unreal Engine .pak archives: a
// binary container format bundling a directory tree — optionally
// compressed, optionally encrypted — into a single sealed file with an
// index for random-access lookup by path. It interoperates byte-exactly
// with the reference tool across format versions 1 through 11.
//
// The binary codec itself (footer, index, path-hash and full-directory
// sub-indices, per-file records) lives in internal/core; this package
// is the façade that ties the codec to a filesystem path and the
// external collaborators — compression (internal/codec), encryption
// (internal/crypto), and path encoding (internal/pathenc) — the codec
// consumes through narrow interfaces rather than implementing itself.
package unrealpak

import (
	"bytes"
	"fmt"
	"os"
	"sort"

	"github.com/go-pak/unrealpak/internal/core"
	"github.com/go-pak/unrealpak/internal/crypto"
)

func byteReader(b []byte) *bytes.Reader {
	return bytes.NewReader(b)
}

// Archive is an opened .pak archive: its footer and fully materialized
// index are read once at Open time, matching the reference tool's
// Pak type, which caches the parsed index rather than re-parsing it on
// every lookup.
type Archive struct {
	file    *os.File
	version core.Version
	footer  core.Footer
	index   core.Index
	key     []byte

	// byPath maps a file's archive-relative path to its record index
	// (the FDI's encoded_record_offset / core.EncodedRecordSize),
	// built once at Open time so Stat/ReadFile are O(1) rather than
	// walking the FDI per call.
	byPath map[string]int
	order  []string
}

// Open opens filename, trying each known format version newest-first
// (spec.md §4.7's read_any) until one parses cleanly.
func Open(filename string, opts ...ReadOptions) (*Archive, error) {
	return open(filename, nil, opts...)
}

// OpenVersion opens filename assuming format version hint, skipping the
// newest-first search. Use this when the version is already known (the
// original crate's Pak::new_with_version); required to disambiguate
// Version8A from Version8B, since no on-disk field tells them apart.
func OpenVersion(filename string, hint core.Version, opts ...ReadOptions) (*Archive, error) {
	return open(filename, &hint, opts...)
}

func resolveReadOptions(opts []ReadOptions) ReadOptions {
	if len(opts) > 0 {
		return opts[0]
	}
	return ReadOptions{}
}

func open(filename string, hint *core.Version, opts ...ReadOptions) (*Archive, error) {
	opt := resolveReadOptions(opts)

	f, err := os.Open(filename)
	if err != nil {
		return nil, wrapIO("opening archive", err)
	}

	a, err := openFile(f, hint, opt)
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	return a, nil
}

func openFile(f *os.File, hint *core.Version, opt ReadOptions) (*Archive, error) {
	fi, err := f.Stat()
	if err != nil {
		return nil, wrapIO("statting archive", err)
	}

	var footer core.Footer
	var version core.Version
	if hint != nil {
		size, err := hint.FooterSize()
		if err != nil {
			return nil, err
		}
		buf := make([]byte, size)
		if _, err := f.ReadAt(buf, fi.Size()-int64(size)); err != nil {
			return nil, wrapIO("reading footer", err)
		}
		footer, err = core.ReadFooter(byteReader(buf), *hint)
		if err != nil {
			return nil, err
		}
		version = *hint
	} else {
		footer, version, err = core.ReadAny(f, fi.Size())
		if err != nil {
			return nil, err
		}
	}

	if footer.IsIndexEncrypted && len(opt.EncryptionKey) == 0 {
		return nil, &Error{Kind: KindEncryptedWithoutKey, Context: "opening archive", Cause: fmt.Errorf("archive's index is encrypted but no EncryptionKey was supplied")}
	}

	idx, desc, err := loadIndex(f, footer, version, opt.EncryptionKey)
	if err != nil {
		return nil, err
	}

	if opt.VerifyHashes && !footer.IsIndexEncrypted {
		if err := verifyIndexHashes(f, footer, desc); err != nil {
			return nil, err
		}
	}

	a := &Archive{
		file:    f,
		version: version,
		footer:  footer,
		index:   idx,
		key:     opt.EncryptionKey,
	}
	a.buildPathIndex()
	return a, nil
}

// loadIndex implements spec.md §4.9 steps 2-3.
//
// Unencrypted archives follow the spec literally: footer.IndexSize
// covers the body only (§4.8 step 8), so the body is decoded first and
// each present sub-index is then fetched by its own absolute offset.
// Pre-v10 indices have no sub-indices and are decoded whole by
// core.ReadIndex.
//
// Encrypted archives are handled differently, a design decision this
// module documents rather than one the source format resolves
// unambiguously (see DESIGN.md): the writer pads and AES-256-ECB
// encrypts the *entire* contiguous [body, PHI, FDI] region as a single
// buffer, and footer.IndexSize covers that whole ciphertext. This
// sidesteps having to re-derive PHI/FDI offsets from independently
// padded ciphertext lengths, and still satisfies §4.6's "the same key
// covers body and sub-indices." Reading mirrors this: decrypt the
// whole footer.IndexSize buffer, then decode it exactly like an
// unencrypted contiguous index.
func loadIndex(r readerAtStater, footer core.Footer, version core.Version, key []byte) (core.Index, core.IndexDescriptors, error) {
	if footer.IsIndexEncrypted {
		buf := make([]byte, footer.IndexSize)
		if _, err := r.ReadAt(buf, int64(footer.IndexOffset)); err != nil {
			return core.Index{}, core.IndexDescriptors{}, wrapIO("reading encrypted index", err)
		}
		plain, err := decryptBuffer(key, buf)
		if err != nil {
			return core.Index{}, core.IndexDescriptors{}, err
		}
		return core.ReadIndex(byteReader(plain), version)
	}

	body := make([]byte, footer.IndexSize)
	if _, err := r.ReadAt(body, int64(footer.IndexOffset)); err != nil {
		return core.Index{}, core.IndexDescriptors{}, wrapIO("reading index body", err)
	}
	if !version.HasPathHashIndex() {
		return core.ReadIndex(byteReader(body), version)
	}

	idx, desc, err := core.ReadIndexBody(byteReader(body), version)
	if err != nil {
		return idx, desc, err
	}

	if desc.HasPHI {
		phiBuf := make([]byte, desc.PHISize)
		if _, err := r.ReadAt(phiBuf, int64(desc.PHIOffset)); err != nil {
			return idx, desc, wrapIO("reading path-hash index", err)
		}
		if idx.PHI, err = core.ReadPathHashIndex(byteReader(phiBuf)); err != nil {
			return idx, desc, err
		}
	}
	if desc.HasFDI {
		fdiBuf := make([]byte, desc.FDISize)
		if _, err := r.ReadAt(fdiBuf, int64(desc.FDIOffset)); err != nil {
			return idx, desc, wrapIO("reading full-directory index", err)
		}
		if idx.FDI, err = core.ReadFullDirectoryIndex(byteReader(fdiBuf)); err != nil {
			return idx, desc, err
		}
	}

	return idx, desc, nil
}

func decryptBuffer(key []byte, data []byte) ([]byte, error) {
	if len(key) == 0 {
		return nil, &Error{Kind: KindEncryptedWithoutKey, Context: "decrypting index", Cause: fmt.Errorf("no EncryptionKey supplied")}
	}
	out, err := crypto.DecryptECB(key, data)
	if err != nil {
		return nil, &Error{Kind: KindValidation, Context: "decrypting index", Cause: err}
	}
	return out, nil
}

func verifyIndexHashes(r readerAtStater, footer core.Footer, desc core.IndexDescriptors) error {
	body := make([]byte, footer.IndexSize)
	if _, err := r.ReadAt(body, int64(footer.IndexOffset)); err != nil {
		return wrapIO("verifying index body", err)
	}
	if got := core.Sum(body); !got.Equal(footer.IndexHash) {
		return &Error{Kind: KindValidation, Context: "verifying index body", Cause: fmt.Errorf("sha-1 mismatch")}
	}

	if desc.HasPHI {
		buf := make([]byte, desc.PHISize)
		if _, err := r.ReadAt(buf, int64(desc.PHIOffset)); err != nil {
			return wrapIO("verifying path-hash index", err)
		}
		if got := core.Sum(buf); !got.Equal(desc.PHIHash) {
			return &Error{Kind: KindValidation, Context: "verifying path-hash index", Cause: fmt.Errorf("sha-1 mismatch")}
		}
	}
	if desc.HasFDI {
		buf := make([]byte, desc.FDISize)
		if _, err := r.ReadAt(buf, int64(desc.FDIOffset)); err != nil {
			return wrapIO("verifying full-directory index", err)
		}
		if got := core.Sum(buf); !got.Equal(desc.FDIHash) {
			return &Error{Kind: KindValidation, Context: "verifying full-directory index", Cause: fmt.Errorf("sha-1 mismatch")}
		}
	}
	return nil
}

func (a *Archive) buildPathIndex() {
	a.byPath = make(map[string]int, len(a.index.Records))
	a.order = make([]string, 0, len(a.index.Records))

	for _, dir := range a.index.FDI.Directories {
		for _, f := range dir.Files {
			path := dir.Path + f.Name
			if dir.Path == "/" {
				path = f.Name
			}
			k := int(f.Offset) / core.EncodedRecordSize
			a.byPath[path] = k
			a.order = append(a.order, path)
		}
	}
	sort.Strings(a.order)
}

// Files returns every file path in the archive, sorted.
func (a *Archive) Files() []string {
	out := make([]string, len(a.order))
	copy(out, a.order)
	return out
}

// Stat returns the Record describing path, and whether it exists.
func (a *Archive) Stat(path string) (core.Record, bool) {
	k, ok := a.byPath[path]
	if !ok || k < 0 || k >= len(a.index.Records) {
		return core.Record{}, false
	}
	return a.index.Records[k], true
}

// MountPoint returns the archive's logical mount-point prefix.
func (a *Archive) MountPoint() string {
	return a.index.MountPoint
}

// Version returns the archive's on-wire format version.
func (a *Archive) Version() core.Version {
	return a.version
}

// Close closes the underlying file.
func (a *Archive) Close() error {
	return a.file.Close()
}

type readerAtStater interface {
	ReadAt(p []byte, off int64) (int, error)
}

func wrapIO(context string, err error) error {
	return &Error{Kind: KindIO, Context: context, Cause: err}
}
