package cmdcommon

import (
	"encoding/json"
	"errors"
	"io"

	"github.com/y-gotou/charenc/internal/charset"
	"github.com/y-gotou/charenc/internal/convert"
	"github.com/y-gotou/charenc/internal/metadata"
)

// Result codes, one per taxonomy member. These are part of the external
// contract and must stay stable.
const (
	CodeNotFound            = "not_found"
	CodeIO                  = "io_error"
	CodeDecode              = "decode_error"
	CodeEncode              = "encode_error"
	CodeUnknownEncoding     = "unknown_encoding"
	CodeBackup              = "backup_error"
	CodeMetadataWrite       = "metadata_write_error"
	CodeMetadataMissing     = "metadata_missing"
	CodeUnsupportedMetadata = "unsupported_metadata_format"
	CodeInvalidMetadata     = "invalid_metadata"
	CodeHashMismatch        = "hash_mismatch"
)

// ErrorResult is the JSON shape every command emits on failure.
type ErrorResult struct {
	Status       string   `json:"status"`
	Code         string   `json:"code"`
	Error        string   `json:"error"`
	ExpectedHash string   `json:"expected_hash,omitempty"`
	ActualHash   string   `json:"actual_hash,omitempty"`
	MissingKeys  []string `json:"missing_keys,omitempty"`
	Hint         string   `json:"hint,omitempty"`
}

// EmitResult writes v to w as the operation's single stdout artifact:
// two-space indent, non-ASCII kept verbatim.
func EmitResult(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// NewErrorResult classifies err into the result taxonomy and attaches the
// diagnostics its code calls for.
func NewErrorResult(err error) ErrorResult {
	res := ErrorResult{Status: "error", Error: err.Error()}

	var hashErr *convert.HashMismatchError
	var encErr *charset.EncodeError
	var decErr *charset.DecodeError
	var invErr *metadata.InvalidRecordError

	switch {
	case errors.Is(err, convert.ErrFileNotFound):
		res.Code = CodeNotFound
	case errors.As(err, &hashErr):
		res.Code = CodeHashMismatch
		res.ExpectedHash = hashErr.Expected
		res.ActualHash = hashErr.Actual
		res.Hint = "re-run with -force to restore anyway"
	case errors.As(err, &encErr):
		res.Code = CodeEncode
		res.Hint = "retry with -errors replace or -errors backslashreplace"
	case errors.As(err, &decErr):
		res.Code = CodeDecode
	case errors.Is(err, charset.ErrUnknownEncoding):
		res.Code = CodeUnknownEncoding
	case errors.Is(err, convert.ErrBackup):
		res.Code = CodeBackup
	case errors.Is(err, convert.ErrMetadataWrite):
		res.Code = CodeMetadataWrite
	case errors.Is(err, convert.ErrMetadataMissing):
		res.Code = CodeMetadataMissing
	case errors.Is(err, metadata.ErrUnsupportedSchema):
		res.Code = CodeUnsupportedMetadata
	case errors.As(err, &invErr):
		res.Code = CodeInvalidMetadata
		res.MissingKeys = invErr.MissingKeys
	case errors.Is(err, metadata.ErrInvalidRecord):
		res.Code = CodeInvalidMetadata
	default:
		res.Code = CodeIO
	}
	return res
}
