package text

import (
	"strings"
	"unicode/utf8"
)

// ORP returns the optimal recognition point of a token: the rune index the
// eye should fix on. It is the rune midpoint, 0 for the empty token.
func ORP(word string) int {
	return utf8.RuneCountInString(word) / 2
}

// SplitORP cuts a token around its ORP rune.
func SplitORP(word string) (before, focus, after string) {
	r := []rune(word)
	if len(r) == 0 {
		return "", "", ""
	}
	orp := ORP(word)
	return string(r[:orp]), string(r[orp]), string(r[orp+1:])
}

// BionicSplit returns the leading half of s (rounded up) to be emphasised,
// and the remainder.
func BionicSplit(s string) (bold, rest string) {
	r := []rune(s)
	n := (len(r) + 1) / 2
	return string(r[:n]), string(r[n:])
}

// ContextRadius is how many tokens either side of the current one the
// contextual view shows.
const ContextRadius = 20

// ContextWindow returns the tokens around index and the position of index
// inside the returned slice.
func ContextWindow(tokens []string, index, radius int) ([]string, int) {
	if len(tokens) == 0 {
		return nil, 0
	}
	if index < 0 {
		index = 0
	}
	if index >= len(tokens) {
		index = len(tokens) - 1
	}
	start := max(index-radius, 0)
	end := min(index+radius+1, len(tokens))
	return tokens[start:end], index - start
}

// MinutesRemaining estimates reading time left at wpm.
func MinutesRemaining(total, index, wpm int) int {
	if wpm <= 0 || index >= total {
		return 0
	}
	return (total - index) / wpm
}

// IsSentenceEnd reports whether a token closes a sentence.
func IsSentenceEnd(word string) bool {
	return strings.HasSuffix(word, ".") || strings.HasSuffix(word, "?") || strings.HasSuffix(word, "!")
}

// SentenceStarts returns the indices of tokens that begin a sentence.
func SentenceStarts(words []string) []int {
	starts := []int{0}
	for i, w := range words {
		if IsSentenceEnd(w) && i+1 < len(words) {
			starts = append(starts, i+1)
		}
	}
	return starts
}

// PrevSentence returns the start of the sentence before index.
func PrevSentence(starts []int, index int) int {
	for i := len(starts) - 1; i >= 0; i-- {
		if starts[i] < index {
			return starts[i]
		}
	}
	return 0
}

// NextSentence returns the start of the sentence after index, or the last
// token when there is none.
func NextSentence(starts []int, index, total int) int {
	for _, s := range starts {
		if s > index {
			return s
		}
	}
	if total > 0 {
		return total - 1
	}
	return 0
}
