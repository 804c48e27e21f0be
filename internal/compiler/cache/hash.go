// Package cache keeps parsed C# files in memory between checks. Entries are keyed
// by path and validated by a content hash, so watch mode and the language server
// only re-parse what changed.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
)

// Hash returns the hex SHA-256 of content.
func Hash(content []byte) string {
	sum := sha256.Sum256(content)
	return hex.EncodeToString(sum[:])
}

// readHashed reads a file and hashes its content.
func readHashed(path string) ([]byte, string, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, "", fmt.Errorf("failed to read file: %w", err)
	}
	return content, Hash(content), nil
}
