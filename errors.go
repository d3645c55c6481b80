package unrealpak

import (
	"github.com/go-pak/unrealpak/internal/utils"
)

// Kind classifies an Error so callers can match on it with IsKind
// instead of string-matching messages. It mirrors internal/utils.Kind
// one-to-one; the alias exists so callers never need to import an
// internal package just to compare error kinds.
type Kind = utils.Kind

// Error kinds a caller of this package may see returned or wrapped.
const (
	KindIO                  = utils.KindIO
	KindMagicMismatch       = utils.KindMagicMismatch
	KindVersionMismatch     = utils.KindVersionMismatch
	KindUnknownVersion      = utils.KindUnknownVersion
	KindInvalidBool         = utils.KindInvalidBool
	KindInvalidUTF8         = utils.KindInvalidUTF8
	KindInvalidUTF16        = utils.KindInvalidUTF16
	KindInvalidOffset       = utils.KindInvalidOffset
	KindEncryptedWithoutKey = utils.KindEncryptedWithoutKey
	KindUnsupportedVersion  = utils.KindUnsupportedVersion
	KindValidation          = utils.KindValidation
)

// Error is the structured error type every exported function in this
// package returns on failure, carrying a Kind callers can match on with
// IsKind rather than inspecting the error string.
type Error = utils.PakError

// IsKind reports whether err (or anything in its unwrap chain) carries
// the given Kind.
func IsKind(err error, kind Kind) bool {
	return utils.IsKind(err, kind)
}
