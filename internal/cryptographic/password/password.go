// Package password hashes login credentials with argon2id. Only the salted
// hash is persisted; raw passwords never reach storage.
package password

import (
	"crypto/subtle"

	"golang.org/x/crypto/argon2"

	"cryptchat/internal/common"
)

const saltSize = 16

// Hash derives an argon2id hash of password under salt.
func Hash(password, salt []byte) []byte {
	return argon2.IDKey(password, salt, 1, 64*1024, 4, 32)
}

// NewSalt returns a fresh random salt for one user.
func NewSalt() []byte {
	return common.GenerateRandByteArray(saltSize)
}

// Verify reports whether candidate matches the stored hash. Constant time,
// so a mismatch reveals nothing about how close the guess was.
func Verify(candidate, salt, hash []byte) bool {
	derived := Hash(candidate, salt)
	return subtle.ConstantTimeCompare(derived, hash) == 1
}
