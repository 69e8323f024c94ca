// Package password hashes and verifies user credentials.
package password

import (
	"errors"
	"fmt"
	"strings"
)

// Supported schemes for PASSWORD_SCHEME.
const (
	SchemeBcrypt   = "bcrypt"
	SchemeArgon2id = "argon2id"
)

// ErrUnknownScheme is returned when a hash encoding is not recognised.
var ErrUnknownScheme = errors.New("password: unknown hash scheme")

// Hasher turns a plaintext secret into a stored credential and checks it later.
type Hasher interface {
	Hash(plain string) (string, error)
	Verify(hash, plain string) bool
}

// Multi hashes with its primary scheme and verifies every supported encoding,
// so rotating PASSWORD_SCHEME keeps existing hashes valid.
type Multi struct {
	primary  Hasher
	bcrypt   *Bcrypt
	argon2id *Argon2id
}

// New builds a Multi hasher for the named scheme.
func New(scheme string, bcryptCost int) (*Multi, error) {
	m := &Multi{bcrypt: NewBcrypt(bcryptCost), argon2id: NewArgon2id()}
	switch strings.ToLower(strings.TrimSpace(scheme)) {
	case "", SchemeBcrypt:
		m.primary = m.bcrypt
	case SchemeArgon2id:
		m.primary = m.argon2id
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownScheme, scheme)
	}
	return m, nil
}

// Hash encodes plain with the primary scheme.
func (m *Multi) Hash(plain string) (string, error) {
	return m.primary.Hash(plain)
}

// Verify reports whether plain matches hash under whichever scheme produced it.
func (m *Multi) Verify(hash, plain string) bool {
	switch {
	case strings.HasPrefix(hash, SchemeArgon2id+"$"):
		return m.argon2id.Verify(hash, plain)
	case strings.HasPrefix(hash, "$2"):
		return m.bcrypt.Verify(hash, plain)
	default:
		return false
	}
}
