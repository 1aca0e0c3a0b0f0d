// Package lineending classifies and rewrites line-ending styles. The UTF-8
// working copy of a converted file always uses LF; the source's original
// style is kept in metadata and re-expanded on restore.
package lineending

import (
	"bytes"
	"strings"
)

// Style identifies the line-ending convention of a byte stream.
type Style string

const (
	CRLF Style = "CRLF"
	CR   Style = "CR"
	LF   Style = "LF"
	None Style = "NONE"
)

// Detect classifies the line endings present in raw bytes. CRLF takes
// precedence over bare CR, which takes precedence over bare LF.
func Detect(data []byte) Style {
	switch {
	case bytes.Contains(data, []byte("\r\n")):
		return CRLF
	case bytes.ContainsRune(data, '\r'):
		return CR
	case bytes.ContainsRune(data, '\n'):
		return LF
	default:
		return None
	}
}

// Normalize collapses CRLF, then bare CR, to LF.
func Normalize(text string) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	return strings.ReplaceAll(text, "\r", "\n")
}

// Expand rewrites text into the given style. Content is normalized to LF
// first in case it already contains mixed endings; LF and None leave it
// unchanged.
func Expand(text string, style Style) string {
	switch style {
	case CRLF:
		return strings.ReplaceAll(Normalize(text), "\n", "\r\n")
	case CR:
		return strings.ReplaceAll(Normalize(text), "\n", "\r")
	default:
		return text
	}
}

// Parse returns the style named by s, defaulting to LF for absent or
// unrecognized values.
func Parse(s string) Style {
	switch Style(s) {
	case CRLF, CR, LF, None:
		return Style(s)
	default:
		return LF
	}
}
