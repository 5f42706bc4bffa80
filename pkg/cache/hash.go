package cache

import (
	"crypto/sha256"
	"encoding/hex"
)

// HashString returns the first 16 hex characters of the SHA-256 of s. It
// is filesystem-safe for any key.
func HashString(s string) string {
	return HashBytes([]byte(s))
}

// HashBytes returns the first 16 hex characters of the SHA-256 of b.
func HashBytes(b []byte) string {
	h := sha256.Sum256(b)
	return hex.EncodeToString(h[:8])
}
