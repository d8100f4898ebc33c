// Package session turns player events into persisted reading progress and
// daily reading statistics.
package session

import (
	"sync"
	"time"

	"github.com/metcalfc/rsvp/internal/domain"
	"github.com/metcalfc/rsvp/internal/logger"
	"github.com/metcalfc/rsvp/internal/player"
	"github.com/metcalfc/rsvp/internal/settings"
)

// Sink receives the writes a Tracker produces. *Writer is the usual one.
type Sink interface {
	Progress(docID int64, index int)
	Stats(date string, words int, elapsed time.Duration)
}

// Summary describes a reading session.
type Summary struct {
	Elapsed time.Duration
	Words   int
	AvgWPM  int
}

// Tracker is a player.Observer that accumulates session statistics and
// persists progress.
type Tracker struct {
	docID    int64
	sink     Sink
	settings settings.Provider
	log      *logger.Logger

	mu           sync.Mutex
	pendingWords int
	pendingTime  time.Duration
	totalWords   int
	totalTime    time.Duration
}

var _ player.Observer = (*Tracker)(nil)

// NewTracker creates a tracker for one loaded document.
func NewTracker(docID int64, sink Sink, provider settings.Provider, log *logger.Logger) *Tracker {
	return &Tracker{docID: docID, sink: sink, settings: provider, log: log}
}

// Observe implements player.Observer.
func (t *Tracker) Observe(e player.Event) {
	switch e.Kind {
	case player.EventAdvanced:
		t.mu.Lock()
		t.pendingWords++
		t.totalWords++
		t.mu.Unlock()
		t.sink.Progress(t.docID, e.Snapshot.Index)

	case player.EventSeeked:
		t.sink.Progress(t.docID, e.Snapshot.Index)

	case player.EventPaused:
		t.stop(e)
		t.sink.Progress(t.docID, e.Snapshot.Index)

	case player.EventFinished:
		t.stop(e)

	case player.EventReread:
		t.mu.Lock()
		t.pendingWords, t.pendingTime = 0, 0
		t.totalWords, t.totalTime = 0, 0
		t.mu.Unlock()
	}
}

// stop accounts the elapsed time of a run and flushes pending stats.
func (t *Tracker) stop(e player.Event) {
	t.mu.Lock()
	t.pendingTime += e.Elapsed
	t.totalTime += e.Elapsed
	words, elapsed := t.pendingWords, t.pendingTime
	t.pendingWords, t.pendingTime = 0, 0
	t.mu.Unlock()

	if !t.settings.Current().ReadingGoals {
		return
	}
	if words == 0 && elapsed == 0 {
		return
	}
	date := e.At.Local().Format(domain.DateLayout)
	t.log.Debug("session: %s +%d words +%s", date, words, elapsed)
	t.sink.Stats(date, words, elapsed)
}

// Summary returns the totals since load or the last reread.
func (t *Tracker) Summary() Summary {
	t.mu.Lock()
	defer t.mu.Unlock()
	s := Summary{Elapsed: t.totalTime, Words: t.totalWords}
	if minutes := t.totalTime.Minutes(); minutes > 0 {
		s.AvgWPM = int(float64(t.totalWords) / minutes)
	}
	return s
}
