package player

import (
	"math"
	"strings"
	"time"

	"github.com/metcalfc/rsvp/internal/settings"
	"github.com/metcalfc/rsvp/internal/text"
)

const (
	// WarmupStep is how much the ramped speed grows after each word.
	WarmupStep = 10
	// SmartPauseRun is the sentence length beyond which a sentence end gets
	// an extra pause.
	SmartPauseRun = 25

	longPause  = 2.0
	shortPause = 1.5
	smartPause = 1.5
)

// PunctuationMultiplier returns the delay multiplier for a token's ending.
func PunctuationMultiplier(word string) float64 {
	switch {
	case strings.HasSuffix(word, "."), strings.HasSuffix(word, "?"),
		strings.HasSuffix(word, "!"), strings.HasSuffix(word, ":"),
		strings.HasSuffix(word, "\n"):
		return longPause
	case strings.HasSuffix(word, ","), strings.HasSuffix(word, ";"):
		return shortPause
	}
	return 1.0
}

// Delay computes how long word stays on screen at wpm. run is the number of
// tokens read through in the current sentence; smart pause applies when
// word closes a sentence longer than SmartPauseRun.
func Delay(word string, wpm int, s settings.Settings, run int) time.Duration {
	if wpm < 1 {
		wpm = 1
	}
	base := 60000 / wpm
	multiplier := 1.0
	if s.PunctuationDelays {
		multiplier = PunctuationMultiplier(word)
	}
	if s.SmartPause && text.IsSentenceEnd(word) && run+1 > SmartPauseRun {
		multiplier *= smartPause
	}

	ms := math.Round(float64(base) * multiplier)
	return time.Duration(ms) * time.Millisecond
}

// NextRun returns the sentence run after word has been read through. The
// run only counts while smart pause is on and resets at every sentence end.
func NextRun(word string, s settings.Settings, run int) int {
	switch {
	case !s.SmartPause:
		return run
	case text.IsSentenceEnd(word):
		return 0
	}
	return run + 1
}

// ramp tracks the warm-up speed of one play run.
type ramp struct {
	wpm int // 0 until the first word of a run
}

func (r *ramp) reset() { r.wpm = 0 }

// effective returns the speed for the next word given the configured speed.
func (r *ramp) effective(configured int, warmup bool) int {
	switch {
	case !warmup:
		r.wpm = configured
	case r.wpm == 0:
		r.wpm = max(configured/2, 1)
	case r.wpm > configured:
		r.wpm = configured
	}
	return r.wpm
}

// advance grows the ramped speed after a word has been shown.
func (r *ramp) advance(configured int, warmup bool) {
	if warmup && r.wpm < configured {
		r.wpm = min(r.wpm+WarmupStep, configured)
	}
}
