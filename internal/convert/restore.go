package convert

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/y-gotou/charenc/internal/charset"
	"github.com/y-gotou/charenc/internal/integrity"
	"github.com/y-gotou/charenc/internal/lineending"
	"github.com/y-gotou/charenc/internal/metadata"
)

// RestoreOptions control a UTF-8-to-legacy restoration.
type RestoreOptions struct {
	File       string
	Encoding   string // override; empty: use the record's original_encoding
	Output     string // empty: overwrite File in place
	Policy     charset.Policy
	Cleanup    bool
	StrictHash bool
	Force      bool
}

// DriftWarning reports a hash mismatch that was not escalated to a failure.
type DriftWarning struct {
	Message      string `json:"message"`
	ExpectedHash string `json:"expected_hash"`
	ActualHash   string `json:"actual_hash"`
}

// RestoreResult describes a completed restoration.
type RestoreResult struct {
	File            string
	Encoding        string
	LineEnding      lineending.Style
	BackupRemoved   bool
	MetadataRemoved bool
	Drift           *DriftWarning
	Warnings        []string
}

// Restore re-encodes the UTF-8 file back into its original byte
// representation. The record is located by direct lookup first, then by a
// reverse scan over the directory's records. Drift between the recorded
// conversion hash and the current content fails under StrictHash unless
// Force is set; otherwise it is carried as a warning.
func (c *Converter) Restore(opts RestoreOptions) (*RestoreResult, error) {
	path, err := resolveExisting(opts.File)
	if err != nil {
		return nil, err
	}

	// Normalized once so a whitespace-only override counts as unset in
	// both the missing-record check and the fallback below.
	encName := charset.Normalize(opts.Encoding)

	dir, name := filepath.Dir(path), filepath.Base(path)
	rec, recPath, err := metadata.Load(dir, name)
	if errors.Is(err, metadata.ErrRecordNotFound) {
		rec, recPath, err = metadata.FindByConvertedFile(dir, path)
	}
	switch {
	case errors.Is(err, metadata.ErrRecordNotFound):
		if encName == "" {
			return nil, ErrMetadataMissing
		}
		rec, recPath = nil, ""
	case err != nil:
		return nil, err
	}

	if rec != nil {
		if err := rec.Validate(); err != nil {
			return nil, err
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %w", ErrIO, path, err)
	}

	result := &RestoreResult{}

	if rec != nil {
		actual, err := integrity.SumBytes(c.hash, data)
		if err != nil {
			return nil, fmt.Errorf("hash current content: %w", err)
		}
		if actual != rec.ConvertedHash {
			if opts.StrictHash && !opts.Force {
				return nil, &HashMismatchError{Expected: rec.ConvertedHash, Actual: actual}
			}
			result.Drift = &DriftWarning{
				Message:      "file content has changed since conversion",
				ExpectedHash: rec.ConvertedHash,
				ActualHash:   actual,
			}
			slog.Warn("content drifted since conversion",
				"file", path,
				"expected_hash", rec.ConvertedHash,
				"actual_hash", actual)
		}
	}

	if encName == "" {
		encName = rec.OriginalEncoding
	}

	style := lineending.LF
	if rec != nil {
		style = lineending.Parse(rec.LineEnding)
	}

	if off := charset.InvalidUTF8Offset(data); off >= 0 {
		return nil, &charset.DecodeError{Encoding: "utf-8", Offset: off}
	}
	text := lineending.Expand(string(data), style)

	encoded, err := charset.Encode(text, encName, opts.Policy)
	if err != nil {
		return nil, err
	}

	output := path
	if opts.Output != "" {
		output, err = filepath.Abs(opts.Output)
		if err != nil {
			return nil, fmt.Errorf("%w: resolve output path %s: %w", ErrIO, opts.Output, err)
		}
	}

	if err := os.WriteFile(output, encoded, outputFilePerm); err != nil {
		return nil, fmt.Errorf("%w: write %s: %w", ErrIO, output, err)
	}

	if opts.Cleanup && rec != nil {
		cleanupArtifacts(rec, recPath, output, result)
	}

	result.File = output
	result.Encoding = encName
	result.LineEnding = style

	slog.Info("restored original encoding",
		"file", output,
		"encoding", encName,
		"line_ending", style,
		"backup_removed", result.BackupRemoved,
		"metadata_removed", result.MetadataRemoved)
	return result, nil
}

// cleanupArtifacts erases the backup and record best-effort; failures are
// warnings on the result, never fatal.
func cleanupArtifacts(rec *metadata.Record, recPath, output string, result *RestoreResult) {
	if rec.BackupPath != "" {
		// A backup is deleted only when it sits beside the restored file;
		// a record pointing anywhere else is not trusted with a deletion.
		if filepath.Dir(rec.BackupPath) != filepath.Dir(output) {
			result.Warnings = append(result.Warnings,
				fmt.Sprintf("backup %s is outside %s; left in place", rec.BackupPath, filepath.Dir(output)))
		} else if _, err := os.Stat(rec.BackupPath); err == nil {
			if err := os.Remove(rec.BackupPath); err != nil {
				result.Warnings = append(result.Warnings,
					fmt.Sprintf("could not remove backup %s: %v", rec.BackupPath, err))
			} else {
				result.BackupRemoved = true
			}
		}
	}

	if recPath != "" {
		removed, err := metadata.Remove(recPath)
		if err != nil {
			result.Warnings = append(result.Warnings,
				fmt.Sprintf("could not remove metadata %s: %v", recPath, err))
		}
		result.MetadataRemoved = removed
		metadata.RemoveDirIfEmpty(filepath.Dir(recPath))
	}
}
