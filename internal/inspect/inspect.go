// Package inspect reports the state of tracked conversions in a directory
// by reading its sidecar store. Inspection never mutates anything.
package inspect

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/y-gotou/charenc/internal/integrity"
	"github.com/y-gotou/charenc/internal/metadata"
)

// State classifies a tracked conversion.
type State string

const (
	// StateClean means the converted file still matches the recorded hash.
	StateClean State = "clean"
	// StateDrifted means the converted file was modified after conversion.
	StateDrifted State = "drifted"
	// StateMissing means the converted file is gone.
	StateMissing State = "missing"
	// StateForeign means the record does not parse or bears an
	// unrecognized schema tag.
	StateForeign State = "foreign"
)

// Entry is one sidecar record's view of a conversion.
type Entry struct {
	Name        string `json:"file"`
	Encoding    string `json:"encoding,omitempty"`
	LineEnding  string `json:"line_ending,omitempty"`
	ConvertedAt string `json:"converted_at,omitempty"`
	HasBackup   bool   `json:"backup"`
	State       State  `json:"state"`
}

// Scan reads every record in dir's sidecar store and reports each tracked
// conversion's state, sorted by file name. An absent sidecar directory
// yields an empty listing. The scan is lenient: records that do not parse
// or bear a foreign schema are listed as such rather than skipped.
func Scan(dir string, algo integrity.Algorithm) ([]Entry, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("resolve directory %s: %w", dir, err)
	}
	records, err := os.ReadDir(metadata.Dir(abs))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read sidecar directory: %w", err)
	}

	var entries []Entry
	for _, record := range records {
		if record.IsDir() || !strings.HasSuffix(record.Name(), ".json") {
			continue
		}
		name := strings.TrimSuffix(record.Name(), ".json")
		entries = append(entries, scanRecord(abs, name, algo))
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name < entries[j].Name })
	return entries, nil
}

func scanRecord(dir, name string, algo integrity.Algorithm) Entry {
	entry := Entry{Name: name, State: StateForeign}

	data, err := os.ReadFile(metadata.RecordPath(dir, name))
	if err != nil {
		return entry
	}
	var rec metadata.Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return entry
	}

	entry.Encoding = rec.OriginalEncoding
	entry.LineEnding = rec.LineEnding
	entry.ConvertedAt = rec.ConvertedAt
	if rec.BackupPath != "" {
		if _, err := os.Stat(rec.BackupPath); err == nil {
			entry.HasBackup = true
		}
	}
	if rec.Schema != metadata.SchemaTag {
		return entry
	}

	target := rec.ConvertedFile
	if target == "" {
		target = filepath.Join(dir, name)
	}
	content, err := os.ReadFile(target)
	if err != nil {
		entry.State = StateMissing
		return entry
	}
	sum, err := integrity.SumBytes(algo, content)
	if err != nil || sum != rec.ConvertedHash {
		entry.State = StateDrifted
		return entry
	}
	entry.State = StateClean
	return entry
}
