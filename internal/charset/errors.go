package charset

import (
	"errors"
	"fmt"
)

var (
	// ErrUnknownEncoding indicates that no codec registry recognizes the
	// requested encoding name.
	ErrUnknownEncoding = errors.New("unknown encoding")

	// ErrUnknownPolicy indicates an unrecognized encode error-handling
	// policy name.
	ErrUnknownPolicy = errors.New("unknown error policy")
)

// DecodeError reports input bytes that are not valid in the source encoding.
type DecodeError struct {
	Encoding string
	Offset   int
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("cannot decode %s input: invalid byte sequence at offset %d", e.Encoding, e.Offset)
}

// EncodeError reports a character the target encoding cannot represent
// under the strict policy.
type EncodeError struct {
	Encoding string
	Position int // rune index in the input text
	Rune     rune
}

func (e *EncodeError) Error() string {
	return fmt.Sprintf("cannot encode %q (U+%04X) at character %d into %s", e.Rune, e.Rune, e.Position, e.Encoding)
}
