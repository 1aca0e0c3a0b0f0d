package charset

import (
	"bytes"
	"fmt"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/transform"
)

// Decode converts data from the named legacy encoding into a UTF-8 string.
// Decoding is strict: byte sequences invalid in the source encoding yield a
// DecodeError carrying the offset of the first bad sequence, instead of the
// silent U+FFFD substitution the codec machinery performs on its own. Input
// that legitimately encodes U+FFFD is not an error.
func Decode(data []byte, name string) (string, error) {
	enc, err := Lookup(name)
	if err != nil {
		return "", err
	}
	decoded, err := enc.NewDecoder().Bytes(data)
	if err != nil {
		return "", fmt.Errorf("decode %s: %w", Normalize(name), err)
	}
	if bytes.ContainsRune(decoded, utf8.RuneError) {
		if off := firstInvalidOffset(enc, data); off >= 0 {
			return "", &DecodeError{Encoding: Normalize(name), Offset: off}
		}
	}
	return string(decoded), nil
}

// InvalidUTF8Offset returns the byte offset of the first invalid UTF-8
// sequence in b, or -1 if b is valid UTF-8.
func InvalidUTF8Offset(b []byte) int {
	for i := 0; i < len(b); {
		r, size := utf8.DecodeRune(b[i:])
		if r == utf8.RuneError && size == 1 {
			return i
		}
		i += size
	}
	return -1
}

// firstInvalidOffset re-decodes data stepwise to locate the first byte
// sequence the decoder replaced with U+FFFD. Only runs after the fast-path
// decode has already produced a replacement character. Returns -1 when
// every replacement character in the output was legitimately present in
// the input.
func firstInvalidOffset(enc encoding.Encoding, data []byte) int {
	dec := enc.NewDecoder()
	dst := make([]byte, 64)
	pos := 0
	for pos < len(data) {
		nDst, nSrc := 0, 0
		for width := 1; ; width++ {
			end := pos + width
			atEOF := false
			if end >= len(data) {
				end = len(data)
				atEOF = true
			}
			var err error
			nDst, nSrc, err = dec.Transform(dst, data[pos:end], atEOF)
			if nSrc > 0 {
				break
			}
			if err == transform.ErrShortDst {
				dst = make([]byte, len(dst)*2)
				width--
				continue
			}
			if atEOF {
				// No progress is possible on the remaining bytes.
				return pos
			}
			// transform.ErrShortSrc: widen the window and retry.
		}
		if bytes.ContainsRune(dst[:nDst], utf8.RuneError) && !encodesReplacement(enc, data[pos:pos+nSrc]) {
			return pos
		}
		pos += nSrc
	}
	return -1
}

// encodesReplacement reports whether seq is the encoding's own byte
// representation of U+FFFD, i.e. a replacement character that was really
// in the input.
func encodesReplacement(enc encoding.Encoding, seq []byte) bool {
	b, err := enc.NewEncoder().Bytes([]byte(string(utf8.RuneError)))
	return err == nil && bytes.Equal(b, seq)
}
