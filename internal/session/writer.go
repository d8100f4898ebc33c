package session

import (
	"context"
	"sync"
	"time"

	"github.com/metcalfc/rsvp/internal/logger"
)

// writeTimeout bounds a single repository call.
const writeTimeout = 5 * time.Second

// Repository is what the writer persists to.
type Repository interface {
	UpdateProgress(ctx context.Context, id int64, position int) error
	IncrementDailyStats(ctx context.Context, date string, words int, elapsed time.Duration) error
}

type statsDelta struct {
	date    string
	words   int
	elapsed time.Duration
}

// Writer performs repository writes on its own goroutine. Progress updates
// coalesce per document so only the latest position is written; stats
// increments are applied in order.
type Writer struct {
	repo Repository
	log  *logger.Logger

	mu       sync.Mutex
	idle     *sync.Cond
	progress map[int64]int
	stats    []statsDelta
	busy     bool
	closed   bool

	wake chan struct{}
	done chan struct{}
}

// NewWriter starts a writer goroutine. Call Close to drain and stop it.
func NewWriter(repo Repository, log *logger.Logger) *Writer {
	w := &Writer{
		repo:     repo,
		log:      log,
		progress: make(map[int64]int),
		wake:     make(chan struct{}, 1),
		done:     make(chan struct{}),
	}
	w.idle = sync.NewCond(&w.mu)
	go w.run()
	return w
}

// Progress queues a reading-position write, replacing any queued one for
// the same document.
func (w *Writer) Progress(docID int64, index int) {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		w.log.Warn("session: progress %d for document %d after close", index, docID)
		return
	}
	w.progress[docID] = index
	w.mu.Unlock()
	w.signal()
}

// Stats queues a daily stats increment.
func (w *Writer) Stats(date string, words int, elapsed time.Duration) {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		w.log.Warn("session: stats for %s after close", date)
		return
	}
	w.stats = append(w.stats, statsDelta{date: date, words: words, elapsed: elapsed})
	w.mu.Unlock()
	w.signal()
}

// Flush blocks until everything queued so far has been written.
func (w *Writer) Flush() {
	w.mu.Lock()
	defer w.mu.Unlock()
	for w.busy || len(w.progress) > 0 || len(w.stats) > 0 {
		w.idle.Wait()
	}
}

// Close writes whatever is still queued and stops the goroutine.
func (w *Writer) Close() error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		<-w.done
		return nil
	}
	w.closed = true
	w.mu.Unlock()
	w.signal()
	<-w.done
	return nil
}

func (w *Writer) signal() {
	select {
	case w.wake <- struct{}{}:
	default:
	}
}

func (w *Writer) run() {
	defer close(w.done)
	for range w.wake {
		w.mu.Lock()
		progress, stats := w.progress, w.stats
		w.progress, w.stats = make(map[int64]int), nil
		w.busy = true
		closed := w.closed
		w.mu.Unlock()

		w.write(progress, stats)

		w.mu.Lock()
		w.busy = false
		// Something may have been queued while writing.
		pending := len(w.progress) > 0 || len(w.stats) > 0
		w.idle.Broadcast()
		w.mu.Unlock()

		if pending {
			w.signal()
			continue
		}
		if closed {
			return
		}
	}
}

func (w *Writer) write(progress map[int64]int, stats []statsDelta) {
	for _, d := range stats {
		ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
		err := w.repo.IncrementDailyStats(ctx, d.date, d.words, d.elapsed)
		cancel()
		if err != nil {
			w.log.Error("session: stats for %s: %v", d.date, err)
		}
	}
	for id, index := range progress {
		ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
		err := w.repo.UpdateProgress(ctx, id, index)
		cancel()
		if err != nil {
			w.log.Error("session: progress for document %d: %v", id, err)
		}
	}
}
