package player

import (
	"sort"
	"sync"
	"testing"
	"time"
)

// manualClock fires timers only when the test advances it. Timer channels
// are unbuffered so a fire is handed straight to the player goroutine.
type manualClock struct {
	mu     sync.Mutex
	now    time.Time
	timers []*manualTimer
}

type manualTimer struct {
	clock   *manualClock
	at      time.Time
	ch      chan time.Time
	stopped bool
	fired   bool
}

func newManualClock() *manualClock {
	return &manualClock{now: time.Date(2024, 3, 9, 10, 0, 0, 0, time.Local)}
}

func (c *manualClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *manualClock) NewTimer(d time.Duration) Timer {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := &manualTimer{clock: c, at: c.now.Add(d), ch: make(chan time.Time)}
	c.timers = append(c.timers, t)
	return t
}

func (t *manualTimer) C() <-chan time.Time { return t.ch }

func (t *manualTimer) Stop() bool {
	t.clock.mu.Lock()
	defer t.clock.mu.Unlock()
	was := !t.stopped && !t.fired
	t.stopped = true
	return was
}

// pending returns live timers ordered by deadline.
func (c *manualClock) pending() []*manualTimer {
	var live []*manualTimer
	for _, t := range c.timers {
		if !t.stopped && !t.fired {
			live = append(live, t)
		}
	}
	sort.SliceStable(live, func(i, j int) bool { return live[i].at.Before(live[j].at) })
	return live
}

// fireNext fires the earliest timer due at or before limit.
func (c *manualClock) fireNext(t *testing.T, limit time.Time) bool {
	t.Helper()
	c.mu.Lock()
	live := c.pending()
	if len(live) == 0 || live[0].at.After(limit) {
		c.mu.Unlock()
		return false
	}
	next := live[0]
	next.fired = true
	c.now = next.at
	c.mu.Unlock()

	select {
	case next.ch <- next.at:
	case <-time.After(2 * time.Second):
		t.Fatalf("timer due at %s was never received", next.at)
	}
	return true
}

// advance moves time forward by d, firing every timer that falls due and
// waiting for the player to handle each one.
func advance(t *testing.T, c *manualClock, p *Player, d time.Duration) {
	t.Helper()
	limit := c.Now().Add(d)
	for c.fireNext(t, limit) {
		p.sync()
	}
	c.mu.Lock()
	c.now = limit
	c.mu.Unlock()
}

// sync returns once the player goroutine has finished its current work.
func (p *Player) sync() { p.do(func() {}) }
