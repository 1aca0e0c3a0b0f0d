package convert

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/y-gotou/charenc/internal/charset"
	"github.com/y-gotou/charenc/internal/integrity"
	"github.com/y-gotou/charenc/internal/lineending"
	"github.com/y-gotou/charenc/internal/metadata"
)

// shiftJISSample is "あいえおか\r\n" in Shift-JIS.
var shiftJISSample = []byte{0x82, 0xa0, 0x82, 0xa2, 0x82, 0xa6, 0x82, 0xa8, 0x82, 0xa9, 0x0d, 0x0a}

type failingAlgo struct{}

func (*failingAlgo) Name() string { return "failing" }

func (*failingAlgo) Sum(io.Reader) (string, error) {
	return "", errors.New("sum failure")
}

func newConverter(t *testing.T) *Converter {
	t.Helper()
	c, err := New(&integrity.SHA256{})
	require.NoError(t, err)
	return c
}

func writeSample(t *testing.T, dir, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

func sha256Hex(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

func TestNewRequiresAlgorithm(t *testing.T) {
	_, err := New(nil)
	require.ErrorIs(t, err, ErrNilAlgorithm)
}

func TestRoundTripShiftJIS(t *testing.T) {
	dir := t.TempDir()
	path := writeSample(t, dir, "notes.txt", shiftJISSample)
	c := newConverter(t)

	res, err := c.ToUTF8(ConvertOptions{File: path, Encoding: "shift_jis", Backup: true})
	require.NoError(t, err)
	assert.Equal(t, path, res.File)
	assert.Equal(t, path, res.Output)
	assert.Equal(t, "shift_jis", res.Encoding)
	assert.Equal(t, lineending.CRLF, res.LineEnding)
	assert.Empty(t, res.Warnings)

	// The working copy is LF-normalized UTF-8.
	converted, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(converted), "\r")
	assert.Equal(t, byte('\n'), converted[len(converted)-1])

	// The backup is a byte-for-byte copy of the original.
	assert.Equal(t, filepath.Join(dir, "notes.txt.shift_jis.bak"), res.BackupPath)
	backup, err := os.ReadFile(res.BackupPath)
	require.NoError(t, err)
	assert.Equal(t, shiftJISSample, backup)

	// The record captures everything needed to invert the conversion.
	rec, _, err := metadata.Load(dir, "notes.txt")
	require.NoError(t, err)
	assert.Equal(t, metadata.SchemaTag, rec.Schema)
	assert.Equal(t, path, rec.OriginalFile)
	assert.Equal(t, path, rec.ConvertedFile)
	assert.Equal(t, "shift_jis", rec.OriginalEncoding)
	assert.Equal(t, "CRLF", rec.LineEnding)
	assert.Equal(t, sha256Hex(shiftJISSample), rec.OriginalHash)
	assert.Equal(t, sha256Hex(converted), rec.ConvertedHash)
	assert.Equal(t, res.BackupPath, rec.BackupPath)
	assert.NotEmpty(t, rec.ConvertedAt)

	restored, err := c.Restore(RestoreOptions{File: path, Policy: charset.PolicyStrict, Cleanup: true})
	require.NoError(t, err)
	assert.Equal(t, path, restored.File)
	assert.Equal(t, "shift_jis", restored.Encoding)
	assert.Equal(t, lineending.CRLF, restored.LineEnding)
	assert.True(t, restored.BackupRemoved)
	assert.True(t, restored.MetadataRemoved)
	assert.Nil(t, restored.Drift)

	final, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, shiftJISSample, final)

	assert.NoFileExists(t, res.BackupPath)
	assert.NoDirExists(t, metadata.Dir(dir))
}

func TestRoundTripLineEndingFidelity(t *testing.T) {
	tests := []struct {
		name  string
		data  []byte
		style lineending.Style
	}{
		{"crlf", []byte("uno\r\ndos\r\n"), lineending.CRLF},
		{"cr", []byte("uno\rdos\r"), lineending.CR},
		{"lf", []byte("uno\ndos\n"), lineending.LF},
		{"none", []byte("single line"), lineending.None},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			path := writeSample(t, dir, "data.txt", tt.data)
			c := newConverter(t)

			res, err := c.ToUTF8(ConvertOptions{File: path, Encoding: "latin-1", Backup: true})
			require.NoError(t, err)
			assert.Equal(t, tt.style, res.LineEnding)

			restored, err := c.Restore(RestoreOptions{File: path, Policy: charset.PolicyStrict, Cleanup: true})
			require.NoError(t, err)
			assert.Equal(t, tt.style, restored.LineEnding)

			final, err := os.ReadFile(path)
			require.NoError(t, err)
			assert.Equal(t, tt.data, final)
		})
	}
}

func TestBackupPreservesModTime(t *testing.T) {
	dir := t.TempDir()
	path := writeSample(t, dir, "old.txt", []byte("content\n"))
	mtime := time.Date(2020, 3, 14, 9, 26, 53, 0, time.UTC)
	require.NoError(t, os.Chtimes(path, time.Now(), mtime))

	c := newConverter(t)
	res, err := c.ToUTF8(ConvertOptions{File: path, Encoding: "latin-1", Backup: true})
	require.NoError(t, err)

	info, err := os.Stat(res.BackupPath)
	require.NoError(t, err)
	assert.WithinDuration(t, mtime, info.ModTime(), time.Second)
}

func TestToUTF8BackupDir(t *testing.T) {
	dir := t.TempDir()
	path := writeSample(t, dir, "data.txt", []byte("abc\n"))
	backupDir := filepath.Join(t.TempDir(), "nested", "backups")

	c := newConverter(t)
	res, err := c.ToUTF8(ConvertOptions{File: path, Encoding: "latin-1", Backup: true, BackupDir: backupDir})
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(backupDir, "data.txt.latin-1.bak"), res.BackupPath)
	assert.FileExists(t, res.BackupPath)
}

func TestToUTF8NoBackup(t *testing.T) {
	dir := t.TempDir()
	path := writeSample(t, dir, "data.txt", []byte("abc\n"))

	c := newConverter(t)
	res, err := c.ToUTF8(ConvertOptions{File: path, Encoding: "latin-1", Backup: false})
	require.NoError(t, err)
	assert.Empty(t, res.BackupPath)

	rec, _, err := metadata.Load(dir, "data.txt")
	require.NoError(t, err)
	assert.Empty(t, rec.BackupPath)
}

func TestToUTF8OutputInOtherDirectory(t *testing.T) {
	srcDir := t.TempDir()
	outDir := t.TempDir()
	path := writeSample(t, srcDir, "data.txt", shiftJISSample)
	output := filepath.Join(outDir, "data.utf8.txt")

	c := newConverter(t)
	res, err := c.ToUTF8(ConvertOptions{File: path, Encoding: "cp932", Output: output, Backup: true})
	require.NoError(t, err)
	assert.Equal(t, output, res.Output)
	assert.Empty(t, res.Warnings)

	// The original bytes stay in place; the UTF-8 rendition goes elsewhere.
	original, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, shiftJISSample, original)

	// Primary record beside the original, duplicate beside the output.
	primary, _, err := metadata.Load(srcDir, "data.txt")
	require.NoError(t, err)
	duplicate, _, err := metadata.Load(outDir, "data.utf8.txt")
	require.NoError(t, err)
	assert.Equal(t, primary, duplicate)
	assert.Equal(t, output, primary.ConvertedFile)

	// Restoring the output file works by direct lookup on the duplicate.
	restored, err := c.Restore(RestoreOptions{File: output, Policy: charset.PolicyStrict, Cleanup: false})
	require.NoError(t, err)
	assert.Equal(t, "cp932", restored.Encoding)

	final, err := os.ReadFile(output)
	require.NoError(t, err)
	assert.Equal(t, shiftJISSample, final)
}

func TestRestoreReverseLookup(t *testing.T) {
	dir := t.TempDir()
	path := writeSample(t, dir, "data.txt", shiftJISSample)
	output := filepath.Join(dir, "edited.txt")

	c := newConverter(t)
	// Output in the same directory: no duplicate record is written, so the
	// output name has no direct record and must be found by reverse lookup.
	_, err := c.ToUTF8(ConvertOptions{File: path, Encoding: "shift_jis", Output: output})
	require.NoError(t, err)

	restored, err := c.Restore(RestoreOptions{File: output, Policy: charset.PolicyStrict, Cleanup: false})
	require.NoError(t, err)
	assert.Equal(t, "shift_jis", restored.Encoding)

	final, err := os.ReadFile(output)
	require.NoError(t, err)
	assert.Equal(t, shiftJISSample, final)
}

func TestHashDriftDetection(t *testing.T) {
	setup := func(t *testing.T) (string, *Converter) {
		dir := t.TempDir()
		path := writeSample(t, dir, "notes.txt", shiftJISSample)
		c := newConverter(t)
		_, err := c.ToUTF8(ConvertOptions{File: path, Encoding: "shift_jis"})
		require.NoError(t, err)
		// An edit outside the expected decode/encode path.
		require.NoError(t, os.WriteFile(path, []byte("tampered\n"), 0o644))
		return path, c
	}

	t.Run("strict-hash fails with both hashes", func(t *testing.T) {
		path, c := setup(t)
		_, err := c.Restore(RestoreOptions{File: path, Policy: charset.PolicyStrict, StrictHash: true})
		var hashErr *HashMismatchError
		require.ErrorAs(t, err, &hashErr)
		assert.Equal(t, sha256Hex([]byte("tampered\n")), hashErr.Actual)
		assert.NotEqual(t, hashErr.Expected, hashErr.Actual)
		assert.NotEmpty(t, hashErr.Expected)
	})

	t.Run("force overrides strict-hash with a warning", func(t *testing.T) {
		path, c := setup(t)
		res, err := c.Restore(RestoreOptions{File: path, Policy: charset.PolicyStrict, StrictHash: true, Force: true})
		require.NoError(t, err)
		require.NotNil(t, res.Drift)
		assert.Equal(t, sha256Hex([]byte("tampered\n")), res.Drift.ActualHash)
		assert.NotEmpty(t, res.Drift.ExpectedHash)
	})

	t.Run("default policy proceeds with a warning", func(t *testing.T) {
		path, c := setup(t)
		res, err := c.Restore(RestoreOptions{File: path, Policy: charset.PolicyStrict})
		require.NoError(t, err)
		assert.NotNil(t, res.Drift)
	})
}

func TestRestoreCleanupIdempotence(t *testing.T) {
	dir := t.TempDir()
	path := writeSample(t, dir, "notes.txt", shiftJISSample)
	c := newConverter(t)

	_, err := c.ToUTF8(ConvertOptions{File: path, Encoding: "shift_jis", Backup: true})
	require.NoError(t, err)

	_, err = c.Restore(RestoreOptions{File: path, Policy: charset.PolicyStrict, Cleanup: true})
	require.NoError(t, err)

	// The record is gone: a second restore needs an explicit encoding.
	_, err = c.Restore(RestoreOptions{File: path, Policy: charset.PolicyStrict, Cleanup: true})
	require.ErrorIs(t, err, ErrMetadataMissing)

	res, err := c.Restore(RestoreOptions{File: path, Encoding: "shift_jis", Policy: charset.PolicyStrict, Cleanup: true})
	require.NoError(t, err)
	assert.False(t, res.BackupRemoved)
	assert.False(t, res.MetadataRemoved)
}

func TestRestoreWhitespaceEncodingOverride(t *testing.T) {
	dir := t.TempDir()
	path := writeSample(t, dir, "plain.txt", []byte("hello\n"))
	c := newConverter(t)

	// Whitespace normalizes to the empty override: with no record this is
	// still a missing-metadata failure, not a crash.
	_, err := c.Restore(RestoreOptions{File: path, Encoding: " ", Policy: charset.PolicyStrict})
	require.ErrorIs(t, err, ErrMetadataMissing)
	data, readErr := os.ReadFile(path)
	require.NoError(t, readErr)
	assert.Equal(t, []byte("hello\n"), data)

	// With a record it behaves exactly like an unset override.
	tracked := writeSample(t, dir, "notes.txt", shiftJISSample)
	_, err = c.ToUTF8(ConvertOptions{File: tracked, Encoding: "shift_jis"})
	require.NoError(t, err)

	res, err := c.Restore(RestoreOptions{File: tracked, Encoding: "\t ", Policy: charset.PolicyStrict, Cleanup: true})
	require.NoError(t, err)
	assert.Equal(t, "shift_jis", res.Encoding)
	data, readErr = os.ReadFile(tracked)
	require.NoError(t, readErr)
	assert.Equal(t, shiftJISSample, data)
}

func TestUnknownEncodingWritesNothing(t *testing.T) {
	dir := t.TempDir()
	path := writeSample(t, dir, "data.txt", []byte("content\n"))
	c := newConverter(t)

	_, err := c.ToUTF8(ConvertOptions{File: path, Encoding: "not-a-real-encoding", Backup: true})
	require.ErrorIs(t, err, charset.ErrUnknownEncoding)

	data, readErr := os.ReadFile(path)
	require.NoError(t, readErr)
	assert.Equal(t, []byte("content\n"), data)
	assert.NoDirExists(t, metadata.Dir(dir))
	assert.NoFileExists(t, path+".not-a-real-encoding.bak")

	_, err = c.Restore(RestoreOptions{File: path, Encoding: "not-a-real-encoding", Policy: charset.PolicyStrict})
	require.ErrorIs(t, err, charset.ErrUnknownEncoding)
	data, readErr = os.ReadFile(path)
	require.NoError(t, readErr)
	assert.Equal(t, []byte("content\n"), data)
}

func TestFileNotFound(t *testing.T) {
	c := newConverter(t)
	ghost := filepath.Join(t.TempDir(), "ghost.txt")

	_, err := c.ToUTF8(ConvertOptions{File: ghost, Encoding: "shift_jis"})
	require.ErrorIs(t, err, ErrFileNotFound)

	_, err = c.Restore(RestoreOptions{File: ghost, Policy: charset.PolicyStrict})
	require.ErrorIs(t, err, ErrFileNotFound)
}

func TestToUTF8DecodeError(t *testing.T) {
	dir := t.TempDir()
	path := writeSample(t, dir, "data.txt", []byte{0x41, 0x82})
	c := newConverter(t)

	_, err := c.ToUTF8(ConvertOptions{File: path, Encoding: "shift_jis", Backup: true})
	var decErr *charset.DecodeError
	require.ErrorAs(t, err, &decErr)
	assert.Equal(t, "shift_jis", decErr.Encoding)
	assert.Equal(t, 1, decErr.Offset)

	// Nothing was written: no backup, no metadata, original intact.
	assert.NoDirExists(t, metadata.Dir(dir))
	assert.NoFileExists(t, path+".shift_jis.bak")
}

func TestRestoreSchemaRejection(t *testing.T) {
	dir := t.TempDir()
	path := writeSample(t, dir, "notes.txt", []byte("hello\n"))
	c := newConverter(t)

	for _, schema := range []string{"charenc-simple", ""} {
		rec := &metadata.Record{
			Schema:           schema,
			OriginalFile:     path,
			OriginalEncoding: "shift_jis",
			ConvertedHash:    sha256Hex([]byte("hello\n")),
			ConvertedAt:      "2026-08-26T10:00:00+09:00",
		}
		_, err := metadata.Write(dir, "notes.txt", rec)
		require.NoError(t, err)

		_, err = c.Restore(RestoreOptions{File: path, Policy: charset.PolicyStrict})
		require.ErrorIs(t, err, metadata.ErrUnsupportedSchema)
	}
}

func TestRestoreInvalidMetadata(t *testing.T) {
	dir := t.TempDir()
	path := writeSample(t, dir, "notes.txt", []byte("hello\n"))
	c := newConverter(t)

	rec := &metadata.Record{
		Schema:       metadata.SchemaTag,
		OriginalFile: path,
		ConvertedAt:  "2026-08-26T10:00:00+09:00",
	}
	_, err := metadata.Write(dir, "notes.txt", rec)
	require.NoError(t, err)

	_, err = c.Restore(RestoreOptions{File: path, Policy: charset.PolicyStrict})
	var invErr *metadata.InvalidRecordError
	require.ErrorAs(t, err, &invErr)
	assert.Equal(t, []string{"original_encoding", "converted_hash"}, invErr.MissingKeys)
}

func TestRestoreEncodePolicies(t *testing.T) {
	dir := t.TempDir()
	path := writeSample(t, dir, "notes.txt", []byte("caf\u00e9 \u3042\n"))
	c := newConverter(t)

	_, err := c.Restore(RestoreOptions{File: path, Encoding: "latin-1", Policy: charset.PolicyStrict})
	var encErr *charset.EncodeError
	require.ErrorAs(t, err, &encErr)
	assert.Equal(t, '\u3042', encErr.Rune)

	res, err := c.Restore(RestoreOptions{File: path, Encoding: "latin-1", Policy: charset.PolicyBackslashReplace})
	require.NoError(t, err)
	assert.Equal(t, "latin-1", res.Encoding)

	final, readErr := os.ReadFile(path)
	require.NoError(t, readErr)
	assert.Equal(t, []byte("caf\xe9 \\u3042\n"), final)
}

func TestRestoreInvalidUTF8(t *testing.T) {
	dir := t.TempDir()
	path := writeSample(t, dir, "notes.txt", []byte{0x61, 0xff, 0x0a})
	c := newConverter(t)

	_, err := c.Restore(RestoreOptions{File: path, Encoding: "shift_jis", Policy: charset.PolicyStrict})
	var decErr *charset.DecodeError
	require.ErrorAs(t, err, &decErr)
	assert.Equal(t, "utf-8", decErr.Encoding)
	assert.Equal(t, 1, decErr.Offset)
}

func TestCleanupRefusesForeignBackupPath(t *testing.T) {
	dir := t.TempDir()
	elsewhere := t.TempDir()
	path := writeSample(t, dir, "notes.txt", shiftJISSample)
	c := newConverter(t)

	_, err := c.ToUTF8(ConvertOptions{File: path, Encoding: "shift_jis", Backup: true, BackupDir: elsewhere})
	require.NoError(t, err)
	backupPath := filepath.Join(elsewhere, "notes.txt.shift_jis.bak")
	require.FileExists(t, backupPath)

	res, err := c.Restore(RestoreOptions{File: path, Policy: charset.PolicyStrict, Cleanup: true})
	require.NoError(t, err)
	assert.False(t, res.BackupRemoved)
	assert.True(t, res.MetadataRemoved)
	assert.FileExists(t, backupPath)
	require.Len(t, res.Warnings, 1)
	assert.Contains(t, res.Warnings[0], "left in place")
}

func TestHashAlgorithmFailureSurfaces(t *testing.T) {
	dir := t.TempDir()
	path := writeSample(t, dir, "data.txt", []byte("abc\n"))

	c, err := New(&failingAlgo{})
	require.NoError(t, err)

	_, err = c.ToUTF8(ConvertOptions{File: path, Encoding: "latin-1"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sum failure")
	assert.NoDirExists(t, metadata.Dir(dir))
}
