// Package text turns extracted document text into the token sequence the
// player steps through.
package text

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// URLPlaceholder replaces every URL in normalized text.
const URLPlaceholder = "[URL]"

var urlPattern = regexp.MustCompile(`(?i)(https?://|www\.)[\w.#@/?%&~=-]*`)

// Normalize cleans raw text: URLs collapse to [URL], control and symbol
// characters are dropped, Unicode whitespace runs become one space, and the
// result is NFC. Normalize(Normalize(s)) == Normalize(s).
func Normalize(raw string) string {
	s := urlPattern.ReplaceAllString(raw, URLPlaceholder)
	s = strings.Map(func(r rune) rune {
		if keepRune(r) {
			return r
		}
		return -1
	}, s)
	// Dropping characters can join a URL back together.
	s = urlPattern.ReplaceAllString(s, URLPlaceholder)
	s = strings.Join(strings.Fields(s), " ")
	return norm.NFC.String(s)
}

// keepRune reports whether r survives normalization: word characters,
// whitespace, punctuation, ASCII symbols, and the CJK and kana blocks.
func keepRune(r rune) bool {
	switch {
	case r == '_':
		return true
	case unicode.IsLetter(r), unicode.IsDigit(r), unicode.IsMark(r):
		return true
	case unicode.IsSpace(r), unicode.IsPunct(r):
		return true
	case r < unicode.MaxASCII && unicode.IsSymbol(r):
		return true
	}
	return unicode.In(r, unicode.Han, unicode.Hiragana, unicode.Katakana)
}
