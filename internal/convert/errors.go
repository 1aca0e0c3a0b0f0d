package convert

import (
	"errors"
	"fmt"
)

var (
	// ErrFileNotFound indicates that the target file does not exist.
	ErrFileNotFound = errors.New("file not found")

	// ErrIO wraps read/write failures on the target files.
	ErrIO = errors.New("file I/O failed")

	// ErrBackup indicates the pre-conversion backup copy could not be made.
	ErrBackup = errors.New("backup failed")

	// ErrMetadataWrite indicates the sidecar record could not be persisted.
	ErrMetadataWrite = errors.New("metadata write failed")

	// ErrMetadataMissing indicates a restore found no record and no explicit
	// encoding was supplied.
	ErrMetadataMissing = errors.New("no metadata found; specify an encoding")

	// ErrNilAlgorithm indicates that the hash algorithm is nil during
	// Converter initialization.
	ErrNilAlgorithm = errors.New("algorithm cannot be nil")
)

// HashMismatchError reports drift between the hash recorded at conversion
// time and the current content of the UTF-8 file.
type HashMismatchError struct {
	Expected string
	Actual   string
}

func (e *HashMismatchError) Error() string {
	return fmt.Sprintf("file content has changed since conversion: recorded hash %s, current hash %s", e.Expected, e.Actual)
}
