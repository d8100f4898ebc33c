package player

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/metcalfc/rsvp/internal/settings"
)

type recorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *recorder) Observe(e Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

func (r *recorder) take() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := r.events
	r.events = nil
	return out
}

func (r *recorder) kinds() []EventKind {
	var out []EventKind
	for _, e := range r.take() {
		out = append(out, e.Kind)
	}
	return out
}

type fakeSpeaker struct {
	mu     sync.Mutex
	spoken []string
	stops  int
}

func (f *fakeSpeaker) Speak(word string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.spoken = append(f.spoken, word)
}

func (f *fakeSpeaker) Stop() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stops++
}

func (f *fakeSpeaker) Shutdown() {}

// plain returns settings with every timing feature off.
func plain(wpm int) settings.Settings {
	s := settings.Defaults()
	s.WPM = wpm
	s.Warmup = false
	s.TTS = false
	s.SmartPause = false
	s.FocusTimer = false
	return s
}

func words(n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = fmt.Sprintf("w%d", i)
	}
	return out
}

func start(t *testing.T, tokens []string, prov settings.Provider, opts ...Option) (*Player, *manualClock, *recorder) {
	t.Helper()
	clk := newManualClock()
	rec := &recorder{}
	opts = append([]Option{WithClock(clk), WithObserver(rec)}, opts...)
	p := New(tokens, prov, opts...)
	p.Start(context.Background())
	t.Cleanup(p.Close)
	return p, clk, rec
}

func TestPlayToFinish(t *testing.T) {
	p, clk, rec := start(t, []string{"Hello", "world."}, settings.Static(plain(600)))

	p.Play()
	events := rec.take()
	require.Len(t, events, 2)
	assert.Equal(t, EventPlaying, events[0].Kind)
	assert.Equal(t, EventWord, events[1].Kind)
	assert.Equal(t, "Hello", events[1].Snapshot.Word)
	assert.Equal(t, 100*time.Millisecond, events[1].Delay)

	advance(t, clk, p, 100*time.Millisecond)
	events = rec.take()
	require.Len(t, events, 2)
	assert.Equal(t, EventAdvanced, events[0].Kind)
	assert.Equal(t, 1, events[0].Snapshot.Index)
	assert.Equal(t, "world.", events[1].Snapshot.Word)
	assert.Equal(t, 200*time.Millisecond, events[1].Delay)

	advance(t, clk, p, 200*time.Millisecond)
	events = rec.take()
	require.Len(t, events, 2)
	assert.Equal(t, EventAdvanced, events[0].Kind)
	assert.Equal(t, EventFinished, events[1].Kind)
	assert.Equal(t, 300*time.Millisecond, events[1].Elapsed)

	snap := p.Snapshot()
	assert.True(t, snap.Finished())
	assert.Equal(t, 2, snap.Index)
	assert.Equal(t, 1.0, snap.Progress())
}

func TestIndexStaysInRange(t *testing.T) {
	p, clk, rec := start(t, words(5), settings.Static(plain(1000)))
	p.Play()
	for i := 0; i < 20; i++ {
		advance(t, clk, p, 60*time.Millisecond)
	}
	for _, e := range rec.take() {
		assert.GreaterOrEqual(t, e.Snapshot.Index, 0)
		assert.LessOrEqual(t, e.Snapshot.Index, e.Snapshot.Total)
		if e.Snapshot.Index == e.Snapshot.Total {
			assert.Contains(t, []EventKind{EventAdvanced, EventFinished}, e.Kind)
		}
	}
	assert.Equal(t, Finished, p.Snapshot().State)
}

func TestSeekClamps(t *testing.T) {
	p, _, _ := start(t, words(10), settings.Static(plain(300)))

	p.SeekTo(999)
	assert.Equal(t, 9, p.Snapshot().Index)
	assert.Equal(t, "w9", p.Snapshot().Word)

	p.SeekTo(-3)
	assert.Equal(t, 0, p.Snapshot().Index)

	p.Skip()
	assert.Equal(t, 9, p.Snapshot().Index)
	p.Rewind()
	assert.Equal(t, 0, p.Snapshot().Index)
}

func TestStartIndexClamped(t *testing.T) {
	p := New(words(4), settings.Static(plain(300)), WithStartIndex(40))
	assert.Equal(t, 3, p.Snapshot().Index)
	assert.Equal(t, Idle, p.Snapshot().State)
}

func TestSeekWhilePlayingReschedules(t *testing.T) {
	p, clk, rec := start(t, words(20), settings.Static(plain(600)))
	p.Play()
	advance(t, clk, p, 50*time.Millisecond)
	rec.take()

	p.SeekTo(5)
	events := rec.take()
	require.Len(t, events, 2)
	assert.Equal(t, EventSeeked, events[0].Kind)
	assert.Equal(t, EventWord, events[1].Kind)
	assert.Equal(t, "w5", events[1].Snapshot.Word)

	// The old delay is gone: a full delay from the seek is needed.
	advance(t, clk, p, 60*time.Millisecond)
	assert.Equal(t, 5, p.Snapshot().Index)
	advance(t, clk, p, 40*time.Millisecond)
	assert.Equal(t, 6, p.Snapshot().Index)
}

func TestSeekFromFinished(t *testing.T) {
	p, clk, _ := start(t, words(2), settings.Static(plain(600)))
	p.Play()
	advance(t, clk, p, time.Second)
	require.True(t, p.Snapshot().Finished())

	p.SeekTo(0)
	snap := p.Snapshot()
	assert.Equal(t, Paused, snap.State)
	assert.Equal(t, 0, snap.Index)
}

func TestPauseCancelsDelay(t *testing.T) {
	p, clk, rec := start(t, words(10), settings.Static(plain(600)))
	p.Play()
	advance(t, clk, p, 250*time.Millisecond)
	rec.take()

	p.Pause()
	events := rec.take()
	require.Len(t, events, 1)
	assert.Equal(t, EventPaused, events[0].Kind)
	assert.Equal(t, 250*time.Millisecond, events[0].Elapsed)
	assert.Equal(t, 2, events[0].Snapshot.Index)

	advance(t, clk, p, 10*time.Second)
	assert.Empty(t, rec.take())
	assert.Equal(t, 2, p.Snapshot().Index)

	// Pausing twice is a no-op.
	p.Pause()
	assert.Empty(t, rec.take())
}

func TestToggle(t *testing.T) {
	p, _, _ := start(t, words(3), settings.Static(plain(300)))
	p.Toggle()
	assert.Equal(t, Playing, p.Snapshot().State)
	p.Toggle()
	assert.Equal(t, Paused, p.Snapshot().State)
}

func TestCountdownAndWarmup(t *testing.T) {
	s := plain(300)
	s.Warmup = true
	p, clk, rec := start(t, words(40), settings.Static(s))

	p.Play()
	assert.Equal(t, Countdown, p.Snapshot().State)
	assert.Equal(t, 3, p.Snapshot().Countdown)

	advance(t, clk, p, time.Second)
	assert.Equal(t, 2, p.Snapshot().Countdown)
	advance(t, clk, p, time.Second)
	assert.Equal(t, 1, p.Snapshot().Countdown)
	rec.take()
	advance(t, clk, p, time.Second)

	snap := p.Snapshot()
	assert.Equal(t, Playing, snap.State)
	assert.Equal(t, 0, snap.Countdown)
	assert.Equal(t, 150, snap.EffectiveWPM)

	var speeds []int
	for i := 0; i < 30; i++ {
		advance(t, clk, p, 400*time.Millisecond)
	}
	for _, e := range rec.take() {
		if e.Kind == EventWord {
			speeds = append(speeds, e.Snapshot.EffectiveWPM)
		}
	}
	require.NotEmpty(t, speeds)
	assert.Equal(t, 150, speeds[0])
	for i := 1; i < len(speeds); i++ {
		assert.GreaterOrEqual(t, speeds[i], speeds[i-1])
		assert.LessOrEqual(t, speeds[i], 300)
	}
	assert.Equal(t, 300, speeds[len(speeds)-1])
}

func TestPauseDuringCountdown(t *testing.T) {
	s := plain(300)
	s.Warmup = true
	p, clk, rec := start(t, words(5), settings.Static(s))

	p.Play()
	advance(t, clk, p, time.Second)
	rec.take()
	p.Pause()

	events := rec.take()
	require.Len(t, events, 1)
	assert.Equal(t, EventPaused, events[0].Kind)
	assert.Zero(t, events[0].Elapsed)
	assert.Zero(t, p.Snapshot().Countdown)

	advance(t, clk, p, 5*time.Second)
	assert.Equal(t, Paused, p.Snapshot().State)
}

func TestSeekDuringCountdownKeepsCounting(t *testing.T) {
	s := plain(300)
	s.Warmup = true
	p, clk, _ := start(t, words(30), settings.Static(s))

	p.Play()
	p.SeekTo(12)
	assert.Equal(t, Countdown, p.Snapshot().State)
	advance(t, clk, p, 3*time.Second)
	assert.Equal(t, Playing, p.Snapshot().State)
	assert.Equal(t, 12, p.Snapshot().Index)
}

func TestFocusTimerExpires(t *testing.T) {
	s := plain(100)
	s.FocusTimer = true
	s.FocusTimerMinutes = 1
	p, clk, rec := start(t, words(500), settings.Static(s))

	p.Play()
	assert.True(t, p.Snapshot().FocusActive)
	assert.Equal(t, time.Minute, p.Snapshot().FocusRemaining)

	advance(t, clk, p, 30*time.Second)
	assert.Equal(t, 30*time.Second, p.Snapshot().FocusRemaining)

	advance(t, clk, p, 30*time.Second)
	snap := p.Snapshot()
	assert.Equal(t, Paused, snap.State)
	assert.True(t, snap.FocusActive)
	assert.Zero(t, snap.FocusRemaining)

	events := rec.take()
	assert.Equal(t, EventFocusExpired, events[len(events)-1].Kind)

	// Nothing runs after the forced pause.
	index := snap.Index
	advance(t, clk, p, 5*time.Second)
	assert.Equal(t, index, p.Snapshot().Index)
}

func TestManualPauseClearsFocusTimer(t *testing.T) {
	s := plain(300)
	s.FocusTimer = true
	p, clk, _ := start(t, words(100), settings.Static(s))

	p.Play()
	advance(t, clk, p, 2*time.Second)
	p.Pause()
	assert.False(t, p.Snapshot().FocusActive)

	p.Play()
	assert.Equal(t, time.Duration(s.FocusTimerMinutes)*time.Minute, p.Snapshot().FocusRemaining)
}

func TestPlayFromFinishedRereads(t *testing.T) {
	p, clk, rec := start(t, words(3), settings.Static(plain(600)))
	p.Play()
	advance(t, clk, p, time.Second)
	require.True(t, p.Snapshot().Finished())
	rec.take()

	p.Play()
	kinds := rec.kinds()
	require.NotEmpty(t, kinds)
	assert.Equal(t, EventReread, kinds[0])
	snap := p.Snapshot()
	assert.Equal(t, Playing, snap.State)
	assert.Equal(t, 0, snap.Index)
}

func TestRereadWhilePlaying(t *testing.T) {
	p, clk, rec := start(t, words(10), settings.Static(plain(600)))
	p.Play()
	advance(t, clk, p, 350*time.Millisecond)
	rec.take()

	p.Reread()
	kinds := rec.kinds()
	assert.Equal(t, []EventKind{EventPaused, EventReread, EventPlaying, EventWord}, kinds)
	assert.Equal(t, 0, p.Snapshot().Index)
}

func TestResumeAt(t *testing.T) {
	p, _, _ := start(t, words(10), settings.Static(plain(600)))
	p.ResumeAt(7)
	snap := p.Snapshot()
	assert.Equal(t, Playing, snap.State)
	assert.Equal(t, 7, snap.Index)
}

func TestEmptyDocument(t *testing.T) {
	p, _, rec := start(t, nil, settings.Static(plain(300)))
	assert.True(t, p.Snapshot().Finished())

	p.Play()
	p.Toggle()
	p.Reread()
	assert.True(t, p.Snapshot().Finished())

	p.SeekTo(3)
	snap := p.Snapshot()
	assert.Equal(t, 0, snap.Index)
	assert.True(t, snap.Finished())
	for _, e := range rec.take() {
		assert.Equal(t, EventSeeked, e.Kind)
	}
}

func TestSettingsChangeTakesEffectNextWord(t *testing.T) {
	store := settings.NewMemoryStore(plain(600))
	p, clk, rec := start(t, words(10), store)
	p.Play()
	rec.take()

	_, err := store.SetWPM(300)
	require.NoError(t, err)

	// The word on screen keeps its delay.
	advance(t, clk, p, 100*time.Millisecond)
	events := rec.take()
	require.Len(t, events, 2)
	assert.Equal(t, 200*time.Millisecond, events[1].Delay)
	assert.Equal(t, 300, events[1].Snapshot.EffectiveWPM)
}

func TestSpeaker(t *testing.T) {
	s := plain(600)
	s.TTS = true
	sp := &fakeSpeaker{}
	p, clk, _ := start(t, []string{"one", "two", "three"}, settings.Static(s), WithSpeaker(sp))

	p.Play()
	advance(t, clk, p, 100*time.Millisecond)
	p.Pause()

	sp.mu.Lock()
	defer sp.mu.Unlock()
	assert.Equal(t, []string{"one", "two"}, sp.spoken)
	assert.Equal(t, 1, sp.stops)
}

func TestCloseWhilePlayingPauses(t *testing.T) {
	clk := newManualClock()
	rec := &recorder{}
	p := New(words(10), settings.Static(plain(600)), WithClock(clk), WithObserver(rec))
	p.Start(context.Background())
	p.Play()
	rec.take()

	p.Close()
	kinds := rec.kinds()
	assert.Equal(t, []EventKind{EventPaused}, kinds)

	select {
	case <-p.Done():
	default:
		t.Fatal("player goroutine still running")
	}
	// Commands after Close return immediately.
	p.Play()
}

func TestCommandsBeforeStartIgnored(t *testing.T) {
	p := New(words(3), settings.Static(plain(300)))
	p.Play()
	assert.Equal(t, Idle, p.Snapshot().State)
	p.Close()
}

func lastWordDelay(t *testing.T, events []Event) (string, time.Duration) {
	t.Helper()
	for i := len(events) - 1; i >= 0; i-- {
		if events[i].Kind == EventWord {
			return events[i].Snapshot.Word, events[i].Delay
		}
	}
	t.Fatal("no word event")
	return "", 0
}

func TestSmartPauseIgnoresWordsReadWhileOff(t *testing.T) {
	s := plain(600)
	store := settings.NewMemoryStore(s)
	tokens := append(words(25), "end.")
	p, clk, rec := start(t, tokens, store)
	p.Play()

	advance(t, clk, p, 20*100*time.Millisecond)
	require.Equal(t, 20, p.Snapshot().Index)
	_, err := store.SetFlag(settings.FlagSmartPause, true)
	require.NoError(t, err)
	rec.take()

	advance(t, clk, p, 5*100*time.Millisecond)
	word, delay := lastWordDelay(t, rec.take())
	assert.Equal(t, "end.", word)
	assert.Equal(t, 200*time.Millisecond, delay)
}

func TestSeekWhilePlayingDoesNotCountTwice(t *testing.T) {
	s := plain(600)
	s.SmartPause = true
	// A 25-token sentence is one short of the smart pause.
	tokens := append(words(24), "end.")
	p, clk, rec := start(t, tokens, settings.Static(s))
	p.Play()

	for i := 0; i < 3; i++ {
		advance(t, clk, p, 50*time.Millisecond)
		p.SeekTo(0)
	}
	rec.take()

	advance(t, clk, p, 24*100*time.Millisecond)
	word, delay := lastWordDelay(t, rec.take())
	assert.Equal(t, "end.", word)
	assert.Equal(t, 200*time.Millisecond, delay)
}
