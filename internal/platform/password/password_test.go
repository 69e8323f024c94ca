package password

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestBcryptRoundTrip(t *testing.T) {
	h := NewBcrypt(bcrypt.MinCost)
	hash, err := h.Hash("secret1")
	require.NoError(t, err)
	assert.NotEqual(t, "secret1", hash)
	assert.True(t, h.Verify(hash, "secret1"))
	assert.False(t, h.Verify(hash, "secret2"))
}

func TestArgon2idRoundTrip(t *testing.T) {
	h := NewArgon2id()
	hash, err := h.Hash("secret1")
	require.NoError(t, err)
	assert.Contains(t, hash, "argon2id$")
	assert.True(t, h.Verify(hash, "secret1"))
	assert.False(t, h.Verify(hash, "Secret1"))
	assert.False(t, h.Verify("argon2id$broken", "secret1"))
}

func TestArgon2idSaltsDiffer(t *testing.T) {
	h := NewArgon2id()
	a, err := h.Hash("secret1")
	require.NoError(t, err)
	b, err := h.Hash("secret1")
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestMultiVerifiesAcrossSchemes(t *testing.T) {
	bc, err := New(SchemeBcrypt, bcrypt.MinCost)
	require.NoError(t, err)
	ar, err := New(SchemeArgon2id, 0)
	require.NoError(t, err)

	oldHash, err := bc.Hash("secret1")
	require.NoError(t, err)
	newHash, err := ar.Hash("secret1")
	require.NoError(t, err)

	assert.True(t, ar.Verify(oldHash, "secret1"))
	assert.True(t, bc.Verify(newHash, "secret1"))
	assert.False(t, ar.Verify("plaintext", "plaintext"))
}

func TestNewRejectsUnknownScheme(t *testing.T) {
	_, err := New("md5", 0)
	assert.ErrorIs(t, err, ErrUnknownScheme)
}
