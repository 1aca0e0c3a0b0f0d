package metadata

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

const (
	sidecarDirPerm  = 0o755
	recordFilePerm  = 0o644
	recordExtension = ".json"
)

// Dir returns the sidecar directory for files in dir.
func Dir(dir string) string {
	return filepath.Join(dir, DirName)
}

// RecordPath returns the conventional record location for the named file
// in dir.
func RecordPath(dir, name string) string {
	return filepath.Join(dir, DirName, name+recordExtension)
}

// Marshal renders a record the way the store persists it: two-space
// indent, non-ASCII kept verbatim.
func Marshal(rec *Record) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(rec); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Write persists rec into the sidecar store of dir, keyed by name, and
// syncs it to stable storage before returning. An existing record for name
// is replaced wholesale.
func Write(dir, name string, rec *Record) (string, error) {
	if err := os.MkdirAll(Dir(dir), sidecarDirPerm); err != nil {
		return "", fmt.Errorf("create sidecar directory: %w", err)
	}
	data, err := Marshal(rec)
	if err != nil {
		return "", fmt.Errorf("marshal record: %w", err)
	}
	path := RecordPath(dir, name)
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, recordFilePerm)
	if err != nil {
		return "", fmt.Errorf("open record file: %w", err)
	}
	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		return "", fmt.Errorf("write record file: %w", err)
	}
	if err := f.Sync(); err != nil {
		_ = f.Close()
		return "", fmt.Errorf("sync record file: %w", err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("close record file: %w", err)
	}
	return path, nil
}

// Load reads the record stored for name in dir's sidecar directory. An
// absent sidecar directory or record file is ErrRecordNotFound; a directly
// located record that does not parse is ErrInvalidRecord.
func Load(dir, name string) (*Record, string, error) {
	path := RecordPath(dir, name)
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, "", ErrRecordNotFound
	}
	if err != nil {
		return nil, "", fmt.Errorf("read record file: %w", err)
	}
	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, "", fmt.Errorf("%w: %s: %v", ErrInvalidRecord, filepath.Base(path), err)
	}
	return &rec, path, nil
}

// FindByConvertedFile scans every record in dir's sidecar directory for one
// whose converted_file equals path. The scan is lenient: records that do
// not parse are skipped. This is the fallback after the direct lookup
// misses, covering conversions that wrote to a different output location.
func FindByConvertedFile(dir, path string) (*Record, string, error) {
	entries, err := os.ReadDir(Dir(dir))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, "", ErrRecordNotFound
	}
	if err != nil {
		return nil, "", fmt.Errorf("scan sidecar directory: %w", err)
	}
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), recordExtension) {
			continue
		}
		recPath := filepath.Join(Dir(dir), entry.Name())
		data, err := os.ReadFile(recPath)
		if err != nil {
			continue
		}
		var rec Record
		if err := json.Unmarshal(data, &rec); err != nil {
			continue
		}
		if rec.ConvertedFile == path {
			return &rec, recPath, nil
		}
	}
	return nil, "", ErrRecordNotFound
}

// Remove deletes a record file, reporting whether it was actually removed.
// A file that no longer exists is not an error.
func Remove(path string) (bool, error) {
	err := os.Remove(path)
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// RemoveDirIfEmpty removes the sidecar directory at sidecarDir when nothing
// is left in it. Failure because the directory is non-empty or already gone
// is ignored.
func RemoveDirIfEmpty(sidecarDir string) {
	_ = os.Remove(sidecarDir)
}
