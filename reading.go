package main

import (
	"context"

	"github.com/metcalfc/rsvp/internal/domain"
	"github.com/metcalfc/rsvp/internal/library"
	"github.com/metcalfc/rsvp/internal/nav"
	"github.com/metcalfc/rsvp/internal/player"
	"github.com/metcalfc/rsvp/internal/session"
	"github.com/metcalfc/rsvp/internal/speech"
	"github.com/metcalfc/rsvp/internal/text"
)

// eventBuffer is how many player events a front end may fall behind by
// before events are dropped. Dropped events only cost a redraw.
const eventBuffer = 64

// reading is one loaded document wired to its player, tracker and writer.
type reading struct {
	book      *library.Book
	player    *player.Player
	tracker   *session.Tracker
	writer    *session.Writer
	bookmarks *nav.Bookmarks
	chapters  nav.Chapters
	sentences []int
	speaker   domain.Speaker
	events    chan player.Event
	cancel    context.CancelFunc
}

func startReading(ctx context.Context, a *app, book *library.Book) *reading {
	ctx, cancel := context.WithCancel(ctx)
	r := &reading{
		book:      book,
		writer:    session.NewWriter(a.repo, a.log),
		bookmarks: nav.NewBookmarks(a.repo),
		chapters:  nav.NewChapters(book.Chapters),
		sentences: text.SentenceStarts(book.Tokens),
		speaker:   speech.New(a.cfg.SpeechCommand, a.cfg.SpeechArgs, a.log),
		events:    make(chan player.Event, eventBuffer),
		cancel:    cancel,
	}
	r.tracker = session.NewTracker(book.Document.ID, r.writer, a.settings, a.log)
	r.player = player.New(book.Tokens, a.settings,
		player.WithStartIndex(book.Start),
		player.WithSpeaker(r.speaker),
		player.WithLogger(a.log),
		player.WithObserver(r.tracker),
		player.WithObserver(player.ChannelObserver(r.events)),
	)
	r.player.Start(ctx)

	go func() {
		if err := a.settings.Watch(ctx); err != nil {
			a.log.Warn("settings: %v", err)
		}
	}()
	return r
}

// Close pauses playback, which persists progress, then drains pending
// writes.
func (r *reading) Close() {
	r.player.Close()
	r.cancel()
	r.speaker.Shutdown()
	_ = r.writer.Close()
}

func (r *reading) docID() int64 { return r.book.Document.ID }
