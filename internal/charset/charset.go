// Package charset resolves legacy encoding names to codecs and converts
// byte content between those encodings and UTF-8. Names are never guessed
// from content; resolution walks a fixed alias table, then the WHATWG
// index, then the IANA registry.
package charset

import (
	"fmt"
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/encoding/ianaindex"
	"golang.org/x/text/encoding/japanese"
	"golang.org/x/text/encoding/korean"
	"golang.org/x/text/encoding/simplifiedchinese"
	"golang.org/x/text/encoding/traditionalchinese"
	"golang.org/x/text/encoding/unicode"
)

// aliases maps the names legacy tooling commonly uses (underscored Python
// codec names included) to their codecs. Names absent here fall through to
// the WHATWG and IANA indexes.
var aliases = map[string]encoding.Encoding{
	"shift_jis":    japanese.ShiftJIS,
	"shift-jis":    japanese.ShiftJIS,
	"shiftjis":     japanese.ShiftJIS,
	"sjis":         japanese.ShiftJIS,
	"cp932":        japanese.ShiftJIS,
	"ms932":        japanese.ShiftJIS,
	"windows-31j":  japanese.ShiftJIS,
	"euc-jp":       japanese.EUCJP,
	"euc_jp":       japanese.EUCJP,
	"eucjp":        japanese.EUCJP,
	"iso-2022-jp":  japanese.ISO2022JP,
	"iso2022_jp":   japanese.ISO2022JP,
	"euc-kr":       korean.EUCKR,
	"euc_kr":       korean.EUCKR,
	"cp949":        korean.EUCKR,
	"gbk":          simplifiedchinese.GBK,
	"cp936":        simplifiedchinese.GBK,
	"gb2312":       simplifiedchinese.GBK,
	"gb18030":      simplifiedchinese.GB18030,
	"big5":         traditionalchinese.Big5,
	"cp950":        traditionalchinese.Big5,
	"windows-1252": charmap.Windows1252,
	"windows1252":  charmap.Windows1252,
	"cp1252":       charmap.Windows1252,
	"latin-1":      charmap.ISO8859_1,
	"latin1":       charmap.ISO8859_1,
	"iso-8859-1":   charmap.ISO8859_1,
	"iso8859-1":    charmap.ISO8859_1,
	"koi8-r":       charmap.KOI8R,
	"koi8_r":       charmap.KOI8R,
	"utf-8":        unicode.UTF8,
	"utf8":         unicode.UTF8,
}

// Normalize canonicalizes an encoding name for registry lookup, backup
// naming, and metadata storage.
func Normalize(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// Lookup resolves an encoding name to its codec, or ErrUnknownEncoding if
// no registry recognizes the name.
func Lookup(name string) (encoding.Encoding, error) {
	norm := Normalize(name)
	if enc, ok := aliases[norm]; ok {
		return enc, nil
	}
	if enc, err := htmlindex.Get(norm); err == nil {
		return enc, nil
	}
	if enc, err := ianaindex.IANA.Encoding(norm); err == nil && enc != nil {
		return enc, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrUnknownEncoding, name)
}
