package charset

import (
	"bytes"
	"fmt"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding"
)

// Policy selects how unencodable characters are handled when converting
// UTF-8 text back into a legacy encoding. The names follow the conventional
// codec error-handler vocabulary.
type Policy string

const (
	// PolicyStrict fails on the first unencodable character.
	PolicyStrict Policy = "strict"
	// PolicyReplace substitutes the encoding's standard replacement
	// (typically '?').
	PolicyReplace Policy = "replace"
	// PolicyBackslashReplace substitutes a backslashed escape sequence
	// (\xNN, \uNNNN or \UNNNNNNNN).
	PolicyBackslashReplace Policy = "backslashreplace"
	// PolicyXMLCharRefReplace substitutes a numeric character reference
	// (&#NNNN;).
	PolicyXMLCharRefReplace Policy = "xmlcharrefreplace"
)

// ParsePolicy validates and canonicalizes a policy name.
func ParsePolicy(s string) (Policy, error) {
	p := Policy(strings.ToLower(strings.TrimSpace(s)))
	switch p {
	case PolicyStrict, PolicyReplace, PolicyBackslashReplace, PolicyXMLCharRefReplace:
		return p, nil
	}
	return "", fmt.Errorf("%w: %q (want strict, replace, backslashreplace or xmlcharrefreplace)", ErrUnknownPolicy, s)
}

// Encode converts UTF-8 text into the named encoding under the given
// policy. Under PolicyStrict an unencodable character yields an EncodeError
// carrying its rune position.
func Encode(text string, name string, policy Policy) ([]byte, error) {
	enc, err := Lookup(name)
	if err != nil {
		return nil, err
	}
	switch policy {
	case PolicyReplace:
		return encoding.ReplaceUnsupported(enc.NewEncoder()).Bytes([]byte(text))
	case PolicyXMLCharRefReplace:
		return encoding.HTMLEscapeUnsupported(enc.NewEncoder()).Bytes([]byte(text))
	case PolicyBackslashReplace:
		return encodeBackslash(enc, text), nil
	default:
		out, err := enc.NewEncoder().Bytes([]byte(text))
		if err != nil {
			pos, r := firstUnencodable(enc, text)
			return nil, &EncodeError{Encoding: Normalize(name), Position: pos, Rune: r}
		}
		return out, nil
	}
}

// firstUnencodable locates the first character the encoding cannot
// represent. Only runs after a whole-string strict encode has failed.
func firstUnencodable(enc encoding.Encoding, text string) (int, rune) {
	e := enc.NewEncoder()
	pos := 0
	for _, r := range text {
		if _, err := e.Bytes([]byte(string(r))); err != nil {
			return pos, r
		}
		pos++
	}
	return pos, utf8.RuneError
}

// encodeBackslash encodes text, substituting unencodable characters with
// backslashed escape sequences. The escapes are plain ASCII and therefore
// always encodable.
func encodeBackslash(enc encoding.Encoding, text string) []byte {
	e := enc.NewEncoder()
	if out, err := e.Bytes([]byte(text)); err == nil {
		return out
	}
	var buf bytes.Buffer
	for _, r := range text {
		b, err := e.Bytes([]byte(string(r)))
		if err != nil {
			buf.WriteString(backslashEscape(r))
			continue
		}
		buf.Write(b)
	}
	return buf.Bytes()
}

func backslashEscape(r rune) string {
	switch {
	case r < 0x100:
		return fmt.Sprintf(`\x%02x`, r)
	case r < 0x10000:
		return fmt.Sprintf(`\u%04x`, r)
	default:
		return fmt.Sprintf(`\U%08x`, r)
	}
}
