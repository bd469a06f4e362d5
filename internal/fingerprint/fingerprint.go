// Package fingerprint digests captured images so change detection depends on
// content only, never on file metadata.
package fingerprint

import (
	"crypto/sha256"
	"encoding/hex"
	"os"

	"github.com/bryanchriswhite/deskinspect/internal/logger"
)

// Bytes returns the lowercase hex SHA-256 of data
func Bytes(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// File returns the digest of the file at path. An unreadable file yields "",
// which callers must treat as "changed".
func File(path string) string {
	data, err := os.ReadFile(path)
	if err != nil {
		logger.WithComponent("fingerprint").Warn().
			Err(err).
			Str("path", path).
			Msg("Failed to read capture for hashing")
		return ""
	}
	return Bytes(data)
}
