// ABOUTME: PBKDF2-HMAC-SHA256 password hashing and constant-time verification
// ABOUTME: Hashes and salts are exchanged as lowercase hex strings

package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"fmt"

	"golang.org/x/crypto/pbkdf2"
)

const (
	// DefaultIterations is the PBKDF2 work factor.
	DefaultIterations = 200_000

	// SaltBytes is the length of a freshly generated salt.
	SaltBytes = 16

	hashBytes = sha256.Size
)

// HashPassword derives the hex-encoded PBKDF2-HMAC-SHA256 key for password and salt.
// The result is deterministic for the same inputs.
func HashPassword(password string, salt []byte, iterations int) string {
	key := pbkdf2.Key([]byte(password), salt, iterations, hashBytes, sha256.New)
	return hex.EncodeToString(key)
}

// VerifyPassword recomputes the hash and compares it to expectedHash in constant time.
func VerifyPassword(password string, salt []byte, expectedHash string, iterations int) bool {
	computed := HashPassword(password, salt, iterations)
	return subtle.ConstantTimeCompare([]byte(computed), []byte(expectedHash)) == 1
}

// NewSalt returns SaltBytes of cryptographically random data.
func NewSalt() ([]byte, error) {
	salt := make([]byte, SaltBytes)
	if _, err := rand.Read(salt); err != nil {
		return nil, fmt.Errorf("generating salt: %w", err)
	}
	return salt, nil
}
