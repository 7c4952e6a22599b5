package readers

import (
	"bytes"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/korean"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// Decode turns console output into text without ever failing. UTF-8 input
// is kept as is. Korean consoles emit CP949, which is tried next; anything
// that still does not decode is converted lossily.
func Decode(b []byte) string {
	if utf8.Valid(b) {
		return string(b)
	}
	if s, ok := decodeStrict(korean.EUCKR, b); ok {
		return s
	}
	return strings.ToValidUTF8(string(b), "�")
}

// DecodeFile decodes a text file produced by a platform tool. A UTF-16 or
// UTF-8 byte order mark selects the encoding; without one the content is
// treated as UTF-8.
func DecodeFile(b []byte) string {
	out, _, err := transform.Bytes(unicode.BOMOverride(unicode.UTF8.NewDecoder()), b)
	if err != nil {
		return Decode(b)
	}
	return Decode(out)
}

func decodeStrict(enc encoding.Encoding, b []byte) (string, bool) {
	out, err := enc.NewDecoder().Bytes(b)
	if err != nil || bytes.ContainsRune(out, utf8.RuneError) {
		return "", false
	}
	return string(out), true
}
