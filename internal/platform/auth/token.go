package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

const (
	// tokenRandomBytes yields a 40 character hex key.
	tokenRandomBytes = 20

	// KeyLength is the length of a generated token key.
	KeyLength = tokenRandomBytes * 2

	// keyPrefixLen is how much of a key is kept in clear for listing.
	keyPrefixLen = 8
)

// GenerateKey returns a new random token key. The raw key is shown to the
// operator once; only its hash is persisted.
func GenerateKey() (string, error) {
	b := make([]byte, tokenRandomBytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("read random bytes: %w", err)
	}
	return hex.EncodeToString(b), nil
}

// HashKey returns the hex-encoded SHA-256 of a raw key.
func HashKey(key string) string {
	h := sha256.Sum256([]byte(key))
	return hex.EncodeToString(h[:])
}

// KeyPrefix returns the displayable leading characters of a key.
func KeyPrefix(key string) string {
	if len(key) <= keyPrefixLen {
		return key
	}
	return key[:keyPrefixLen]
}
