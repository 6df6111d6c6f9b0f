package services

import (
	"bytes"
	"unicode/utf8"

	"golang.org/x/net/html/charset"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// convertToUTF8 normalizes subtitle text to UTF-8. Content that is already
// valid UTF-8 passes through untouched apart from a leading BOM. Otherwise the
// encoding is detected from BOMs and embedded charset declarations; unlabeled
// single-byte content decodes as Windows-1250, which covers the Western
// European range of the default Windows-1252 guess plus the Central European
// letters common in subtitle files.
func convertToUTF8(content []byte) []byte {
	if len(content) == 0 {
		return content
	}
	if utf8.Valid(content) {
		return bytes.TrimPrefix(content, utf8BOM)
	}

	enc, _, certain := charset.DetermineEncoding(content, "")
	if !certain {
		enc = charmap.Windows1250
	}

	converted, _, err := transform.Bytes(enc.NewDecoder(), content)
	if err != nil || !utf8.Valid(converted) {
		return content
	}
	return bytes.TrimPrefix(converted, utf8BOM)
}
