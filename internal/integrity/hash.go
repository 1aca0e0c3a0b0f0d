// Package integrity provides the content hashing that backs drift
// detection between conversion and restore.
package integrity

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"io"
)

// Algorithm defines the behavior of a hash calculation algorithm.
// It allows for efficient streaming processing by accepting an io.Reader.
type Algorithm interface {
	// Name returns the name of the algorithm (e.g., "sha256").
	Name() string

	// Sum calculates the hash value of the data read from r and returns it
	// as a hexadecimal string.
	Sum(r io.Reader) (string, error)
}

// SHA256 implements the Algorithm interface for SHA-256 hash calculations.
type SHA256 struct{}

// Name returns the algorithm name "sha256".
func (s *SHA256) Name() string {
	return "sha256"
}

// Sum calculates the SHA-256 hash value of the data read from r.
func (s *SHA256) Sum(r io.Reader) (string, error) {
	h := sha256.New()
	if _, err := io.Copy(h, r); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// SumBytes hashes an in-memory buffer.
func SumBytes(a Algorithm, data []byte) (string, error) {
	return a.Sum(bytes.NewReader(data))
}
