// Package service contains the application's business logic.
package service

import (
	"crypto/sha256"
	"encoding/hex"
)

// Fingerprint computes the content fingerprint of an upload: the SHA-256
// hex digest of the raw bytes. It is the dedup key, so identical content
// always maps to the same value regardless of filename or upload time.
func Fingerprint(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
