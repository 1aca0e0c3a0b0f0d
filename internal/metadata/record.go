// Package metadata implements the sidecar record store shared by the
// conversion and restore operations. One JSON record per converted file
// lives in a .charenc_meta directory beside the file; the schema tag is the
// sole versioning mechanism, and records bearing an unrecognized tag are
// rejected rather than partially trusted.
package metadata

import (
	"errors"
	"fmt"
	"strings"
)

const (
	// SchemaTag identifies the record layout this implementation writes and
	// accepts. Records bearing any other tag, including the legacy
	// "charenc-simple" layout and untagged records, are foreign.
	SchemaTag = "charenc-v2"

	// DirName is the sidecar directory created beside each converted file.
	DirName = ".charenc_meta"
)

var (
	// ErrRecordNotFound indicates that no record exists for the file.
	ErrRecordNotFound = errors.New("metadata record not found")

	// ErrUnsupportedSchema indicates a record whose schema tag does not
	// match SchemaTag.
	ErrUnsupportedSchema = errors.New("unsupported metadata schema")

	// ErrInvalidRecord indicates a record that is unparseable or missing
	// required fields.
	ErrInvalidRecord = errors.New("invalid metadata record")
)

// Record describes one conversion so that it can be inverted later. Records
// are immutable once written; a re-conversion of the same file replaces the
// record wholesale.
type Record struct {
	Schema           string `json:"schema"`
	OriginalFile     string `json:"original_file"`
	ConvertedFile    string `json:"converted_file"`
	OriginalEncoding string `json:"original_encoding"`
	LineEnding       string `json:"line_ending"`
	OriginalHash     string `json:"original_hash"`
	ConvertedHash    string `json:"converted_hash"`
	BackupPath       string `json:"backup_path,omitempty"`
	ConvertedAt      string `json:"converted_at"`
}

// InvalidRecordError reports required fields absent from a record.
type InvalidRecordError struct {
	MissingKeys []string
}

func (e *InvalidRecordError) Error() string {
	return fmt.Sprintf("invalid metadata record: missing required keys: %s", strings.Join(e.MissingKeys, ", "))
}

// Unwrap makes the error match ErrInvalidRecord via errors.Is.
func (e *InvalidRecordError) Unwrap() error {
	return ErrInvalidRecord
}

// Validate checks the schema tag before trusting any other field, then the
// presence of the fields a restore depends on.
func (r *Record) Validate() error {
	if r.Schema != SchemaTag {
		if r.Schema == "" {
			return fmt.Errorf("%w: record has no schema tag; re-convert the file with this version", ErrUnsupportedSchema)
		}
		return fmt.Errorf("%w: %q (expected %q); re-convert the file with this version", ErrUnsupportedSchema, r.Schema, SchemaTag)
	}
	var missing []string
	if r.OriginalEncoding == "" {
		missing = append(missing, "original_encoding")
	}
	if r.ConvertedHash == "" {
		missing = append(missing, "converted_hash")
	}
	if r.ConvertedAt == "" {
		missing = append(missing, "converted_at")
	}
	if len(missing) > 0 {
		return &InvalidRecordError{MissingKeys: missing}
	}
	return nil
}
