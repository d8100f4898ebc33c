package player

import "time"

// State is the player's position in its state machine.
type State int

const (
	Idle State = iota
	Countdown
	Playing
	Paused
	Finished
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Countdown:
		return "countdown"
	case Playing:
		return "playing"
	case Paused:
		return "paused"
	case Finished:
		return "finished"
	}
	return "unknown"
}

// Active reports whether time is running: counting down or playing.
func (s State) Active() bool { return s == Countdown || s == Playing }

// Snapshot is an immutable view of the playback state.
type Snapshot struct {
	State State
	Index int
	Total int
	Word  string
	ORP   int

	// Countdown is 3, 2 or 1 while counting down and 0 otherwise.
	Countdown int
	// FocusRemaining is valid only when FocusActive is set.
	FocusRemaining time.Duration
	FocusActive    bool

	// EffectiveWPM is the speed of the word on screen, warm-up included.
	EffectiveWPM int
}

// Finished reports whether playback ran off the end of the text.
func (s Snapshot) Finished() bool { return s.State == Finished }

// Progress returns the fraction of the text passed, in [0, 1].
func (s Snapshot) Progress() float64 {
	if s.Total == 0 {
		return 1
	}
	return float64(s.Index) / float64(s.Total)
}

// EventKind says what happened.
type EventKind int

const (
	// EventCountdown fires when the countdown starts and on every step.
	EventCountdown EventKind = iota
	// EventPlaying fires when the tick loop starts.
	EventPlaying
	// EventWord fires when a token is put on screen; Delay is how long it stays.
	EventWord
	// EventAdvanced fires when the tick loop moves past a token.
	EventAdvanced
	// EventSeeked fires after an explicit jump.
	EventSeeked
	// EventPaused fires when playback stops early; Elapsed is the playing
	// time since EventPlaying.
	EventPaused
	// EventFinished fires when the loop runs out of tokens; Elapsed as above.
	EventFinished
	// EventFocusTick fires once per second while the focus timer runs.
	EventFocusTick
	// EventFocusExpired fires when the focus timer forces a pause.
	EventFocusExpired
	// EventReread fires when reading restarts from the first token.
	EventReread
)

func (k EventKind) String() string {
	names := [...]string{
		"countdown", "playing", "word", "advanced", "seeked",
		"paused", "finished", "focus-tick", "focus-expired", "reread",
	}
	if int(k) >= 0 && int(k) < len(names) {
		return names[k]
	}
	return "unknown"
}

// Event is a state-change notification.
type Event struct {
	Kind     EventKind
	At       time.Time
	Snapshot Snapshot
	Delay    time.Duration
	Elapsed  time.Duration
}

// Observer receives events on the player goroutine. Implementations must
// return quickly and must not call back into the Player.
type Observer interface {
	Observe(Event)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(Event)

// Observe implements Observer.
func (f ObserverFunc) Observe(e Event) { f(e) }

// ChannelObserver forwards events to ch, dropping them when ch is full.
// Use it for displays, which can always fall back to Player.Snapshot.
func ChannelObserver(ch chan<- Event) Observer {
	return ObserverFunc(func(e Event) {
		select {
		case ch <- e:
		default:
		}
	})
}
