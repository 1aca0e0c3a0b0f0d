// Package convert implements the round-trip conversion protocol: a legacy
// encoded file is decoded into a normalized UTF-8 working copy with a
// durable sidecar record and backup, and later restored byte-for-byte from
// that record. Each operation is single-threaded and runs to completion or
// fails before any destructive write.
package convert

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/y-gotou/charenc/internal/integrity"
)

const outputFilePerm = 0o644

// Converter performs conversions and restores against the sidecar store.
type Converter struct {
	hash integrity.Algorithm
}

// New creates a Converter using the given hash algorithm for integrity
// tracking.
func New(algo integrity.Algorithm) (*Converter, error) {
	if algo == nil {
		return nil, ErrNilAlgorithm
	}
	return &Converter{hash: algo}, nil
}

// resolveExisting resolves path to an absolute path and verifies the file
// exists.
func resolveExisting(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("%w: %s", ErrFileNotFound, path)
	}
	if _, err := os.Stat(abs); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", fmt.Errorf("%w: %s", ErrFileNotFound, path)
		}
		return "", fmt.Errorf("%w: stat %s: %w", ErrIO, path, err)
	}
	return abs, nil
}

// copyFile makes a byte-for-byte copy of src at dst, carrying over the
// permission bits and modification time.
func copyFile(src, dst string) error {
	info, err := os.Stat(src)
	if err != nil {
		return err
	}
	data, err := os.ReadFile(src)
	if err != nil {
		return err
	}
	if err := os.WriteFile(dst, data, info.Mode().Perm()); err != nil {
		return err
	}
	return os.Chtimes(dst, time.Now(), info.ModTime())
}
