package password

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/crypto/argon2"
)

// Argon2id implements Hasher with argon2id, encoded as
// argon2id$time$memory$threads$keyLen$salt$hash.
type Argon2id struct {
	time    uint32
	memory  uint32
	threads uint8
	keyLen  uint32
}

// NewArgon2id returns a hasher with interactive-login parameters.
func NewArgon2id() *Argon2id {
	return &Argon2id{time: 1, memory: 64 * 1024, threads: 4, keyLen: 32}
}

func (h *Argon2id) Hash(plain string) (string, error) {
	salt := make([]byte, 16)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("password: read salt: %w", err)
	}
	key := argon2.IDKey([]byte(plain), salt, h.time, h.memory, h.threads, h.keyLen)
	return fmt.Sprintf("%s$%d$%d$%d$%d$%s$%s", SchemeArgon2id, h.time, h.memory, h.threads, h.keyLen,
		base64.RawStdEncoding.EncodeToString(salt), base64.RawStdEncoding.EncodeToString(key)), nil
}

func (h *Argon2id) Verify(hash, plain string) bool {
	parts := strings.Split(hash, "$")
	if len(parts) != 7 || parts[0] != SchemeArgon2id {
		return false
	}
	t, err := strconv.ParseUint(parts[1], 10, 32)
	if err != nil {
		return false
	}
	m, err := strconv.ParseUint(parts[2], 10, 32)
	if err != nil {
		return false
	}
	p, err := strconv.ParseUint(parts[3], 10, 8)
	if err != nil {
		return false
	}
	k, err := strconv.ParseUint(parts[4], 10, 32)
	if err != nil {
		return false
	}
	salt, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil {
		return false
	}
	have, err := base64.RawStdEncoding.DecodeString(parts[6])
	if err != nil || len(have) != int(k) {
		return false
	}
	want := argon2.IDKey([]byte(plain), salt, uint32(t), uint32(m), uint8(p), uint32(k))
	return subtle.ConstantTimeCompare(want, have) == 1
}
