// ABOUTME: Opaque session token generation
// ABOUTME: Tokens are 32 random bytes encoded as unpadded URL-safe base64

package auth

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
)

// TokenBytes is the amount of randomness in a session token.
const TokenBytes = 32

// NewSessionToken returns a fresh unguessable session token.
func NewSessionToken() (string, error) {
	b := make([]byte, TokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generating session token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// tokenPrefix returns a short, log-safe prefix of a token.
func tokenPrefix(token string) string {
	if len(token) <= 8 {
		return token
	}
	return token[:8]
}
