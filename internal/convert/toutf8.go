package convert

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/y-gotou/charenc/internal/charset"
	"github.com/y-gotou/charenc/internal/integrity"
	"github.com/y-gotou/charenc/internal/lineending"
	"github.com/y-gotou/charenc/internal/metadata"
)

const backupDirPerm = 0o755

// ConvertOptions control a legacy-to-UTF-8 conversion.
type ConvertOptions struct {
	File      string
	Encoding  string
	Output    string // empty: overwrite File in place
	Backup    bool
	BackupDir string // empty: File's own directory
}

// ConvertResult describes a completed conversion.
type ConvertResult struct {
	File         string
	Output       string
	Encoding     string
	LineEnding   lineending.Style
	BackupPath   string
	MetadataPath string
	Warnings     []string
}

// ToUTF8 decodes the file from its legacy encoding, persists the sidecar
// record and optional backup, and writes the LF-normalized UTF-8 rendition.
// The record is durable before the UTF-8 write, so a crash between the two
// leaves the original untouched with no record rather than a converted file
// without one.
func (c *Converter) ToUTF8(opts ConvertOptions) (*ConvertResult, error) {
	path, err := resolveExisting(opts.File)
	if err != nil {
		return nil, err
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %w", ErrIO, path, err)
	}

	style := lineending.Detect(raw)

	encName := charset.Normalize(opts.Encoding)
	text, err := charset.Decode(raw, encName)
	if err != nil {
		return nil, err
	}

	// The backup is taken while the original bytes are still on disk,
	// before any destructive write.
	var backupPath string
	if opts.Backup {
		backupPath, err = writeBackup(path, encName, opts.BackupDir)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrBackup, err)
		}
	}

	utf8Bytes := []byte(lineending.Normalize(text))

	originalHash, err := integrity.SumBytes(c.hash, raw)
	if err != nil {
		return nil, fmt.Errorf("hash original content: %w", err)
	}
	convertedHash, err := integrity.SumBytes(c.hash, utf8Bytes)
	if err != nil {
		return nil, fmt.Errorf("hash converted content: %w", err)
	}

	output := path
	if opts.Output != "" {
		output, err = filepath.Abs(opts.Output)
		if err != nil {
			return nil, fmt.Errorf("%w: resolve output path %s: %w", ErrIO, opts.Output, err)
		}
	}

	rec := &metadata.Record{
		Schema:           metadata.SchemaTag,
		OriginalFile:     path,
		ConvertedFile:    output,
		OriginalEncoding: encName,
		LineEnding:       string(style),
		OriginalHash:     originalHash,
		ConvertedHash:    convertedHash,
		BackupPath:       backupPath,
		ConvertedAt:      time.Now().Format(time.RFC3339),
	}

	metaPath, err := metadata.Write(filepath.Dir(path), filepath.Base(path), rec)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMetadataWrite, err)
	}

	if err := os.WriteFile(output, utf8Bytes, outputFilePerm); err != nil {
		return nil, fmt.Errorf("%w: write %s: %w", ErrIO, output, err)
	}

	result := &ConvertResult{
		File:         path,
		Output:       output,
		Encoding:     encName,
		LineEnding:   style,
		BackupPath:   backupPath,
		MetadataPath: metaPath,
	}

	// A conversion that wrote elsewhere leaves a duplicate record beside
	// the output so it can be restored by direct lookup there.
	if filepath.Dir(output) != filepath.Dir(path) {
		if _, err := metadata.Write(filepath.Dir(output), filepath.Base(output), rec); err != nil {
			slog.Warn("duplicate metadata write failed",
				"dir", filepath.Dir(output), "error", err)
			result.Warnings = append(result.Warnings,
				fmt.Sprintf("could not duplicate metadata into %s: %v", filepath.Dir(output), err))
		}
	}

	slog.Info("converted to UTF-8",
		"file", path,
		"encoding", encName,
		"line_ending", style,
		"output", output,
		"backup", backupPath)
	return result, nil
}

// writeBackup copies the original to <name>.<encoding>.bak in the backup
// directory (the file's own directory unless overridden).
func writeBackup(path, encName, backupDir string) (string, error) {
	dir := filepath.Dir(path)
	if backupDir != "" {
		abs, err := filepath.Abs(backupDir)
		if err != nil {
			return "", fmt.Errorf("resolve backup directory %s: %w", backupDir, err)
		}
		if err := os.MkdirAll(abs, backupDirPerm); err != nil {
			return "", fmt.Errorf("create backup directory: %w", err)
		}
		dir = abs
	}
	dst := filepath.Join(dir, fmt.Sprintf("%s.%s.bak", filepath.Base(path), encName))
	if err := copyFile(path, dst); err != nil {
		return "", fmt.Errorf("copy to %s: %w", dst, err)
	}
	return dst, nil
}
