package text

import "unicode/utf8"

// MaxTokenRunes is the longest token shown in one piece. Longer words are
// split in half with a trailing hyphen on the first part.
const MaxTokenRunes = 13

// Tokenize segments normalized text for the given language and splits long
// words. The result is never modified afterwards.
func Tokenize(normalized, lang string) []string {
	return SplitLong(SegmenterFor(lang).Segment(normalized))
}

// Prepare normalizes and tokenizes raw text.
func Prepare(raw, lang string) []string {
	return Tokenize(Normalize(raw), lang)
}

// SplitLong splits every token longer than MaxTokenRunes at its rune midpoint.
func SplitLong(words []string) []string {
	out := make([]string, 0, len(words))
	for _, w := range words {
		n := utf8.RuneCountInString(w)
		if n <= MaxTokenRunes {
			out = append(out, w)
			continue
		}
		r := []rune(w)
		mid := n / 2
		out = append(out, string(r[:mid])+"-", string(r[mid:]))
	}
	return out
}
