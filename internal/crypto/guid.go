package crypto

import "github.com/google/uuid"

// KeyGUID identifies a key without embedding it in the archive: the
// footer carries one of these (spec.md §6 AES), while the actual 32-byte
// key material is supplied externally and never touches the file.
type KeyGUID [16]byte

// NewKeyGUID generates a random key identifier.
func NewKeyGUID() KeyGUID {
	return KeyGUID(uuid.New())
}

// ParseKeyGUID parses a canonical UUID string into a KeyGUID.
func ParseKeyGUID(s string) (KeyGUID, error) {
	id, err := uuid.Parse(s)
	if err != nil {
		return KeyGUID{}, err
	}
	return KeyGUID(id), nil
}

// String renders the GUID in canonical UUID form.
func (g KeyGUID) String() string {
	return uuid.UUID(g).String()
}

// IsZero reports whether g is the all-zero GUID, the convention used for
// "no encryption key" in an unencrypted footer.
func (g KeyGUID) IsZero() bool {
	return g == KeyGUID{}
}
