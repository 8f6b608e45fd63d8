package utils

import (
	"crypto/sha256"
	"encoding/hex"
)

// Hash generates a SHA-256 hash of the input string
func Hash(input string) string {
	sum := sha256.Sum256([]byte(input))
	return hex.EncodeToString(sum[:])
}

// ShortHash returns the first 12 hex characters of the hash, enough for
// filenames and cache keys.
func ShortHash(input string) string {
	return Hash(input)[:12]
}
