// Package player drives a token sequence through time. One goroutine owns
// all playback state; commands, countdown steps, word delays and focus-timer
// ticks are handled in turn by its select loop, so cancelling a delay is
// just stopping its timer.
package player

import (
	"context"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"github.com/metcalfc/rsvp/internal/domain"
	"github.com/metcalfc/rsvp/internal/logger"
	"github.com/metcalfc/rsvp/internal/settings"
	"github.com/metcalfc/rsvp/internal/text"
)

const (
	// CountdownFrom is the first countdown value shown before playing.
	CountdownFrom = 3
	// NavigationStep is how far Rewind and Skip move.
	NavigationStep = 10

	countdownInterval = time.Second
	focusInterval     = time.Second
)

// Option configures a Player.
type Option func(*Player)

// WithClock replaces the wall clock.
func WithClock(c Clock) Option {
	return func(p *Player) { p.clock = c }
}

// WithSpeaker sets the speech collaborator used when TTS is on.
func WithSpeaker(s domain.Speaker) Option {
	return func(p *Player) { p.speaker = s }
}

// WithLogger sets the logger.
func WithLogger(l *logger.Logger) Option {
	return func(p *Player) { p.log = l }
}

// WithObserver adds an event observer. May be given more than once.
func WithObserver(o Observer) Option {
	return func(p *Player) { p.observers = append(p.observers, o) }
}

// WithStartIndex positions the player before the first play, clamped to
// the token range.
func WithStartIndex(i int) Option {
	return func(p *Player) { p.index = i }
}

// Player is the RSVP scheduler for one loaded document.
type Player struct {
	tokens    []string
	settings  settings.Provider
	clock     Clock
	speaker   domain.Speaker
	log       *logger.Logger
	observers []Observer

	cmds    chan func()
	done    chan struct{}
	cancel  context.CancelFunc
	running atomic.Bool
	start   sync.Once
	snap    atomic.Pointer[Snapshot]

	// Owned by the loop goroutine.
	state       State
	index       int
	word        string
	countdown   int
	ramp        ramp
	wpm         int
	run         int // tokens read through in the current sentence
	tick        settings.Settings
	playStart   time.Time
	focusLeft   time.Duration
	focusActive bool

	wordTimer      Timer
	countdownTimer Timer
	focusTimer     Timer
}

// New creates a player over tokens. The slice must not be modified
// afterwards. An empty sequence starts out Finished.
func New(tokens []string, provider settings.Provider, opts ...Option) *Player {
	p := &Player{
		tokens:   tokens,
		settings: provider,
		clock:    RealClock{},
		log:      logger.New(logger.LevelOff, io.Discard),
		cmds:     make(chan func()),
		done:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(p)
	}
	p.index = p.clamp(p.index)
	if len(tokens) == 0 {
		p.state = Finished
	} else {
		p.word = tokens[p.index]
	}
	p.wpm = provider.Current().WPM
	p.publish()
	return p
}

// Start launches the player goroutine. Commands issued before Start are
// ignored.
func (p *Player) Start(ctx context.Context) {
	p.start.Do(func() {
		ctx, cancel := context.WithCancel(ctx)
		p.cancel = cancel
		p.running.Store(true)
		go p.loop(ctx)
	})
}

// Close pauses playback if it is running, then stops the goroutine.
func (p *Player) Close() {
	if !p.running.Load() {
		return
	}
	p.cancel()
	<-p.done
}

// Done is closed once the player goroutine has exited.
func (p *Player) Done() <-chan struct{} { return p.done }

// Snapshot returns the latest published state. Safe from any goroutine.
func (p *Player) Snapshot() Snapshot { return *p.snap.Load() }

// Tokens returns the token sequence. Callers must not modify it.
func (p *Player) Tokens() []string { return p.tokens }

// Toggle pauses when time is running and plays otherwise.
func (p *Player) Toggle() {
	p.do(func() {
		if p.state.Active() {
			p.pause()
			return
		}
		p.play()
	})
}

// Play starts playback, through the countdown when warm-up is on. From
// Finished it rereads from the start.
func (p *Player) Play() { p.do(p.play) }

// Pause stops playback, cancelling any pending delay.
func (p *Player) Pause() { p.do(p.pause) }

// SeekTo jumps to index i, clamped to the token range.
func (p *Player) SeekTo(i int) { p.do(func() { p.seek(i) }) }

// Rewind moves back NavigationStep tokens.
func (p *Player) Rewind() { p.do(func() { p.seek(p.index - NavigationStep) }) }

// Skip moves forward NavigationStep tokens.
func (p *Player) Skip() { p.do(func() { p.seek(p.index + NavigationStep) }) }

// Reread restarts from the first token and plays.
func (p *Player) Reread() { p.do(p.reread) }

// ResumeAt jumps to i and plays from there.
func (p *Player) ResumeAt(i int) {
	p.do(func() {
		p.seek(i)
		if !p.state.Active() {
			p.play()
		}
	})
}

// do runs fn on the loop goroutine and waits for it to finish.
func (p *Player) do(fn func()) {
	if !p.running.Load() {
		p.log.Warn("player: command issued before Start")
		return
	}
	ack := make(chan struct{})
	select {
	case p.cmds <- func() { fn(); close(ack) }:
		<-ack
	case <-p.done:
	}
}

func (p *Player) loop(ctx context.Context) {
	defer close(p.done)
	for {
		select {
		case <-ctx.Done():
			p.pause()
			return
		case cmd := <-p.cmds:
			cmd()
		case <-timerC(p.countdownTimer):
			p.countdownTimer = nil
			p.onCountdown()
		case <-timerC(p.wordTimer):
			p.wordTimer = nil
			p.onWordShown()
		case <-timerC(p.focusTimer):
			p.focusTimer = nil
			p.onFocusTick()
		}
	}
}

// timerC returns nil for a nil timer so its select case never fires.
func timerC(t Timer) <-chan time.Time {
	if t == nil {
		return nil
	}
	return t.C()
}

func stopTimer(t *Timer) {
	if *t != nil {
		(*t).Stop()
		*t = nil
	}
}

func (p *Player) play() {
	switch p.state {
	case Countdown, Playing:
		return
	case Finished:
		if len(p.tokens) == 0 {
			return
		}
		p.reset()
	}

	if p.settings.Current().Warmup {
		p.state = Countdown
		p.countdown = CountdownFrom
		p.countdownTimer = p.clock.NewTimer(countdownInterval)
		p.emit(Event{Kind: EventCountdown})
		return
	}
	p.startPlaying()
}

func (p *Player) onCountdown() {
	p.countdown--
	if p.countdown > 0 {
		p.countdownTimer = p.clock.NewTimer(countdownInterval)
		p.emit(Event{Kind: EventCountdown})
		return
	}
	p.startPlaying()
}

func (p *Player) startPlaying() {
	s := p.settings.Current()
	p.countdown = 0
	p.state = Playing
	p.playStart = p.clock.Now()
	p.ramp.reset()
	if s.FocusTimer {
		p.focusLeft = time.Duration(s.FocusTimerMinutes) * time.Minute
		p.focusActive = true
		p.focusTimer = p.clock.NewTimer(focusInterval)
	}
	p.emit(Event{Kind: EventPlaying})
	p.showWord()
}

// showWord puts the token at index on screen and arms its delay, or
// finishes when the tokens have run out.
func (p *Player) showWord() {
	if p.index >= len(p.tokens) {
		p.finish()
		return
	}
	s := p.settings.Current()
	p.tick = s
	p.wpm = p.ramp.effective(s.WPM, s.Warmup)
	p.word = p.tokens[p.index]

	if s.TTS && p.speaker != nil {
		p.speaker.Speak(p.word)
	}
	delay := Delay(p.word, p.wpm, s, p.run)
	p.wordTimer = p.clock.NewTimer(delay)
	p.emit(Event{Kind: EventWord, Delay: delay})
}

func (p *Player) onWordShown() {
	p.run = NextRun(p.word, p.tick, p.run)
	p.index++
	p.ramp.advance(p.tick.WPM, p.tick.Warmup)
	p.emit(Event{Kind: EventAdvanced})
	p.showWord()
}

func (p *Player) onFocusTick() {
	p.focusLeft -= focusInterval
	if p.focusLeft > 0 {
		p.focusTimer = p.clock.NewTimer(focusInterval)
		p.emit(Event{Kind: EventFocusTick})
		return
	}
	p.pause()
	p.focusActive = true
	p.focusLeft = 0
	p.emit(Event{Kind: EventFocusExpired})
}

// halt stops every timer and returns the playing time of the current run.
func (p *Player) halt() time.Duration {
	stopTimer(&p.wordTimer)
	stopTimer(&p.countdownTimer)
	stopTimer(&p.focusTimer)
	p.countdown = 0
	p.focusActive = false
	p.focusLeft = 0
	if p.state != Playing {
		return 0
	}
	return p.clock.Now().Sub(p.playStart)
}

func (p *Player) pause() {
	if !p.state.Active() {
		return
	}
	elapsed := p.halt()
	p.state = Paused
	if p.speaker != nil {
		p.speaker.Stop()
	}
	p.emit(Event{Kind: EventPaused, Elapsed: elapsed})
}

func (p *Player) finish() {
	elapsed := p.halt()
	p.state = Finished
	p.emit(Event{Kind: EventFinished, Elapsed: elapsed})
}

func (p *Player) seek(i int) {
	p.index = p.clamp(i)
	if p.state == Finished && p.index < len(p.tokens) {
		p.state = Paused
	}
	if len(p.tokens) > 0 {
		p.word = p.tokens[p.index]
	}
	p.emit(Event{Kind: EventSeeked})

	if p.state == Playing {
		stopTimer(&p.wordTimer)
		p.showWord()
	}
}

// reset moves back to the first token without starting playback.
func (p *Player) reset() {
	p.index = 0
	p.run = 0
	p.state = Paused
	p.word = p.tokens[0]
	p.emit(Event{Kind: EventReread})
}

func (p *Player) reread() {
	if len(p.tokens) == 0 {
		return
	}
	p.pause()
	p.reset()
	p.play()
}

func (p *Player) clamp(i int) int {
	if i < 0 || len(p.tokens) == 0 {
		return 0
	}
	if i > len(p.tokens)-1 {
		return len(p.tokens) - 1
	}
	return i
}

func (p *Player) snapshot() Snapshot {
	return Snapshot{
		State:          p.state,
		Index:          p.index,
		Total:          len(p.tokens),
		Word:           p.word,
		ORP:            text.ORP(p.word),
		Countdown:      p.countdown,
		FocusRemaining: p.focusLeft,
		FocusActive:    p.focusActive,
		EffectiveWPM:   p.wpm,
	}
}

func (p *Player) publish() Snapshot {
	s := p.snapshot()
	p.snap.Store(&s)
	return s
}

func (p *Player) emit(e Event) {
	e.At = p.clock.Now()
	e.Snapshot = p.publish()
	p.log.Debug("player: %s index=%d state=%s delay=%s", e.Kind, e.Snapshot.Index, e.Snapshot.State, e.Delay)
	for _, o := range p.observers {
		o.Observe(e)
	}
}
