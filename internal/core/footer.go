package core

import (
	"bytes"
	"io"

	"github.com/go-pak/unrealpak/internal/utils"
)

// Magic is the little-endian u32 every pak archive's footer begins its
// identity check with.
const Magic uint32 = 0x5A6F12E1

// compressionMethodNameSize is the fixed width of one ASCII entry in the
// footer's compression-method name table.
const compressionMethodNameSize = 32

// Footer is the version-parametric trailer locating and describing the
// index. Which fields are actually present on the wire is entirely
// determined by Version's capability predicates — see WriteFooter and
// ReadFooter, which consult those predicates rather than field zero-ness.
type Footer struct {
	EncryptionKeyGUID [16]byte // >= v7
	IsIndexEncrypted  bool     // >= v4
	Magic             uint32
	IndexOffset       uint64
	IndexSize         uint64
	IndexHash         Hash
	IsIndexFrozen     bool     // v9 only
	CompressionMethods []string // ASCII names; slot 0 ("None") is implicit and never serialized
}

// WriteFooter writes f in version's on-wire layout. The caller is
// responsible for f.Magic already being Magic; WriteFooter does not
// second-guess it, matching the codec layer's "recover nothing" error
// policy (spec.md §7) — validation belongs to the caller or to read.
func WriteFooter(w io.Writer, f Footer, version Version) error {
	if version.HasEncryptionKeyGUID() {
		if err := utils.WriteU128(w, f.EncryptionKeyGUID); err != nil {
			return err
		}
	}
	if version.HasIndexEncryption() {
		if err := utils.WriteBool(w, f.IsIndexEncrypted); err != nil {
			return err
		}
	}
	if err := utils.WriteU32(w, f.Magic); err != nil {
		return err
	}
	if err := utils.WriteU32(w, version.Major()); err != nil {
		return err
	}
	if err := utils.WriteU64(w, f.IndexOffset); err != nil {
		return err
	}
	if err := utils.WriteU64(w, f.IndexSize); err != nil {
		return err
	}
	if err := WriteHash(w, f.IndexHash); err != nil {
		return err
	}

	if version.HasCompressionMethodTable() {
		table := encodeCompressionTable(f, version)
		if _, err := w.Write(table); err != nil {
			return utils.NewError(utils.KindIO, "writing compression method table", err)
		}
	}

	return nil
}

// encodeCompressionTable lays out the footer's compression-method name
// table. v9's is-index-frozen byte occupies the table's first byte
// rather than being a field of its own (spec.md §6 footer sizes note:
// "v9 adds its frozen byte in place of one table byte versus v10/11's
// layout"), which is why the total table-region size is the same 160
// bytes whether or not a version carries the frozen byte.
func encodeCompressionTable(f Footer, version Version) []byte {
	tableSize := version.CompressionTableSize()
	table := make([]byte, tableSize)

	offset := 0
	if version.HasFrozenFlag() {
		if f.IsIndexFrozen {
			table[0] = 1
		}
		offset = 1
	}

	entries := (tableSize - offset) / compressionMethodNameSize
	for i := 0; i < entries && i < len(f.CompressionMethods); i++ {
		start := offset + i*compressionMethodNameSize
		copy(table[start:start+compressionMethodNameSize], f.CompressionMethods[i])
	}
	return table
}

// ReadFooter reads a footer assuming the on-wire version is hint — the
// caller-supplied disambiguation §4.7 requires between Version8A and
// Version8B, since no on-disk field distinguishes them. The decoded
// version number is validated against hint.Major(); a mismatch is
// KindVersionMismatch, letting ReadAny retry the next-older hint.
func ReadFooter(r io.Reader, hint Version) (Footer, error) {
	var f Footer

	if hint.HasEncryptionKeyGUID() {
		guid, err := utils.ReadU128(r)
		if err != nil {
			return f, err
		}
		f.EncryptionKeyGUID = guid
	}
	if hint.HasIndexEncryption() {
		encrypted, err := utils.ReadBool(r)
		if err != nil {
			return f, err
		}
		f.IsIndexEncrypted = encrypted
	}

	magic, err := utils.ReadU32(r)
	if err != nil {
		return f, err
	}
	f.Magic = magic
	if magic != Magic {
		return f, utils.NewError(utils.KindMagicMismatch, "reading footer", errMagicMismatch(magic))
	}

	versionNumber, err := utils.ReadU32(r)
	if err != nil {
		return f, err
	}
	if versionNumber != hint.Major() {
		return f, utils.NewError(utils.KindVersionMismatch, "reading footer", errVersionMismatch(hint, versionNumber))
	}

	if f.IndexOffset, err = utils.ReadU64(r); err != nil {
		return f, err
	}
	if f.IndexSize, err = utils.ReadU64(r); err != nil {
		return f, err
	}
	if f.IndexHash, err = ReadHash(r); err != nil {
		return f, err
	}

	if hint.HasCompressionMethodTable() {
		tableSize := hint.CompressionTableSize()
		table := make([]byte, tableSize)
		if _, err := io.ReadFull(r, table); err != nil {
			return f, utils.NewError(utils.KindIO, "reading compression method table", err)
		}
		decodeCompressionTable(&f, table, hint)
	}

	return f, nil
}

func decodeCompressionTable(f *Footer, table []byte, version Version) {
	offset := 0
	if version.HasFrozenFlag() {
		f.IsIndexFrozen = table[0] != 0
		offset = 1
	}

	entries := (len(table) - offset) / compressionMethodNameSize
	var methods []string
	for i := 0; i < entries; i++ {
		start := offset + i*compressionMethodNameSize
		name := bytes.TrimRight(table[start:start+compressionMethodNameSize], "\x00")
		if len(name) == 0 {
			continue
		}
		methods = append(methods, string(name))
	}
	f.CompressionMethods = methods
}

// ReadAny tries each known version newest-first, the reader's recovery
// path for version-mismatch (spec.md §7): footer layout depends on the
// version number it itself contains, so the only way to find the right
// one without external metadata is to attempt decode. A candidate that
// fails to decode for any reason (typically KindVersionMismatch or
// KindMagicMismatch, but a wrong-sized guess can also fail elsewhere) is
// logged and the next-older version is tried.
func ReadAny(r utils.ReaderAt, fileEnd int64) (Footer, Version, error) {
	for _, v := range AllVersionsNewestFirst() {
		size, err := v.FooterSize()
		if err != nil {
			continue
		}
		start := fileEnd - int64(size)
		if start < 0 {
			continue
		}

		buf := make([]byte, size)
		if _, err := r.ReadAt(buf, start); err != nil {
			continue
		}

		f, err := ReadFooter(bytes.NewReader(buf), v)
		if err == nil {
			return f, v, nil
		}
		log.Debugw("footer version candidate did not match, retrying older version", "tried", v.String(), "err", err)
	}
	return Footer{}, 0, utils.NewError(utils.KindUnsupportedVersion, "reading footer", errNoVersionMatched())
}

type magicMismatchError struct{ got uint32 }

func (e *magicMismatchError) Error() string {
	return "footer magic mismatch"
}

func errMagicMismatch(got uint32) error { return &magicMismatchError{got: got} }

type versionMismatchError struct {
	hint Version
	got  uint32
}

func (e *versionMismatchError) Error() string {
	return "footer version does not match hint"
}

func errVersionMismatch(hint Version, got uint32) error {
	return &versionMismatchError{hint: hint, got: got}
}

type noVersionMatchedError struct{}

func (e *noVersionMatchedError) Error() string { return "no known version parsed the footer" }

func errNoVersionMatched() error { return &noVersionMatchedError{} }
