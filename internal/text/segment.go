package text

import (
	"strings"
	"sync"

	"github.com/ikawaha/kagome-dict/ipa"
	"github.com/ikawaha/kagome/v2/tokenizer"
	"github.com/rivo/uniseg"
)

// Segmenter splits normalized text into words.
type Segmenter interface {
	Segment(text string) []string
}

// WhitespaceSegmenter splits on whitespace runs.
type WhitespaceSegmenter struct{}

// Segment implements Segmenter.
func (WhitespaceSegmenter) Segment(text string) []string {
	return strings.Fields(text)
}

// LocaleSegmenter finds word boundaries for scripts written without spaces.
// Japanese goes through a morphological analyzer; other languages use
// Unicode word boundaries.
type LocaleSegmenter struct {
	Lang string
}

// Segment implements Segmenter.
func (s LocaleSegmenter) Segment(text string) []string {
	if hasLangPrefix(s.Lang, "ja") {
		if out, ok := segmentJapanese(text); ok {
			return out
		}
	}
	return segmentWords(text)
}

// SegmenterFor picks the strategy for a language code.
func SegmenterFor(lang string) Segmenter {
	if IsCJK(lang) {
		return LocaleSegmenter{Lang: lang}
	}
	return WhitespaceSegmenter{}
}

// IsCJK reports whether lang names Chinese, Japanese or Korean.
func IsCJK(lang string) bool {
	return hasLangPrefix(lang, "zh") || hasLangPrefix(lang, "ja") || hasLangPrefix(lang, "ko")
}

func hasLangPrefix(lang, prefix string) bool {
	return strings.HasPrefix(strings.ToLower(lang), prefix)
}

func segmentWords(text string) []string {
	var out []string
	state := -1
	rest := text
	var word string
	for len(rest) > 0 {
		word, rest, state = uniseg.FirstWordInString(rest, state)
		if w := strings.TrimSpace(word); w != "" {
			out = append(out, w)
		}
	}
	return out
}

var (
	jaOnce      sync.Once
	jaTokenizer *tokenizer.Tokenizer
)

func segmentJapanese(text string) ([]string, bool) {
	jaOnce.Do(func() {
		t, err := tokenizer.New(ipa.Dict(), tokenizer.OmitBosEos())
		if err == nil {
			jaTokenizer = t
		}
	})
	if jaTokenizer == nil {
		return nil, false
	}
	var out []string
	for _, tok := range jaTokenizer.Tokenize(text) {
		if tok.Class == tokenizer.DUMMY {
			continue
		}
		if w := strings.TrimSpace(tok.Surface); w != "" {
			out = append(out, w)
		}
	}
	return out, true
}
