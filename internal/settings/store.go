package settings

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"

	"github.com/BurntSushi/toml"
	"github.com/fsnotify/fsnotify"
	"github.com/metcalfc/rsvp/internal/logger"
)

// Provider hands out the current settings snapshot. Implementations must be
// safe to call from any goroutine.
type Provider interface {
	Current() Settings
}

// Static is a Provider that never changes.
type Static Settings

// Current implements Provider.
func (s Static) Current() Settings { return Settings(s) }

// Store publishes settings atomically and persists every update. A Store
// with an empty path keeps settings in memory only.
type Store struct {
	path    string
	log     *logger.Logger
	current atomic.Pointer[Settings]

	mu     sync.Mutex // serializes updates and file writes
	subs   map[int]func(Settings)
	nextID int
}

var _ Provider = (*Store)(nil)

// NewStore loads settings from path, falling back to defaults when the file
// is missing or unreadable.
func NewStore(path string, log *logger.Logger) (*Store, error) {
	if path != "" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, err
		}
	}
	s := &Store{path: path, log: log, subs: make(map[int]func(Settings))}
	loaded, err := s.load()
	if err != nil {
		// Non-fatal: start with defaults.
		log.Warn("settings: %v, using defaults", err)
		loaded = Defaults()
	}
	s.current.Store(&loaded)
	return s, nil
}

// NewMemoryStore returns a store that never touches disk.
func NewMemoryStore(initial Settings) *Store {
	s := &Store{log: logger.New(logger.LevelOff, nil), subs: make(map[int]func(Settings))}
	initial = initial.Clamp()
	s.current.Store(&initial)
	return s
}

// Current returns the latest snapshot.
func (s *Store) Current() Settings {
	return *s.current.Load()
}

// Update applies fn to a copy of the current settings, clamps the result,
// publishes it, and persists it. The new snapshot is published even when
// the write fails.
func (s *Store) Update(fn func(*Settings)) (Settings, error) {
	s.mu.Lock()
	next := s.Current()
	fn(&next)
	next = next.Clamp()
	s.current.Store(&next)
	err := s.save(next)
	subs := s.subscribers()
	s.mu.Unlock()

	for _, sub := range subs {
		sub(next)
	}
	if err != nil {
		s.log.Error("settings: save: %v", err)
	}
	return next, err
}

// SetWPM sets the configured speed.
func (s *Store) SetWPM(wpm int) (Settings, error) {
	return s.Update(func(c *Settings) { c.WPM = wpm })
}

// AdjustWPM changes the speed by delta, as a swipe or arrow key does.
func (s *Store) AdjustWPM(delta int) (Settings, error) {
	return s.Update(func(c *Settings) { c.WPM += delta })
}

// SetFontSize sets the display font size.
func (s *Store) SetFontSize(size int) (Settings, error) {
	return s.Update(func(c *Settings) { c.FontSize = size })
}

// AdjustFontSize changes the font size by delta.
func (s *Store) AdjustFontSize(delta int) (Settings, error) {
	return s.Update(func(c *Settings) { c.FontSize += delta })
}

// SetFocusTimerMinutes sets the focus session length.
func (s *Store) SetFocusTimerMinutes(minutes int) (Settings, error) {
	return s.Update(func(c *Settings) { c.FocusTimerMinutes = minutes })
}

// SetFontFamily sets the display font family.
func (s *Store) SetFontFamily(family string) (Settings, error) {
	return s.Update(func(c *Settings) { c.FontFamily = family })
}

// SetORPColor sets the focus letter color as #RRGGBB.
func (s *Store) SetORPColor(color string) (Settings, error) {
	return s.Update(func(c *Settings) { c.ORPColor = color })
}

// SetFlag turns a feature on or off.
func (s *Store) SetFlag(f Flag, on bool) (Settings, error) {
	return s.Update(func(c *Settings) {
		if p := c.flagPtr(f); p != nil {
			*p = on
		}
	})
}

// ToggleFlag flips a feature.
func (s *Store) ToggleFlag(f Flag) (Settings, error) {
	return s.Update(func(c *Settings) {
		if p := c.flagPtr(f); p != nil {
			*p = !*p
		}
	})
}

// Subscribe registers fn to receive every published snapshot. fn runs on the
// updating goroutine. The returned func unsubscribes.
func (s *Store) Subscribe(fn func(Settings)) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextID
	s.nextID++
	s.subs[id] = fn
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.subs, id)
	}
}

func (s *Store) subscribers() []func(Settings) {
	out := make([]func(Settings), 0, len(s.subs))
	for _, fn := range s.subs {
		out = append(out, fn)
	}
	return out
}

// Watch reloads the settings file when another process edits it and
// publishes the result. It blocks until ctx is done.
func (s *Store) Watch(ctx context.Context) error {
	if s.path == "" {
		<-ctx.Done()
		return nil
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("settings: watcher: %w", err)
	}
	defer w.Close()
	if err := w.Add(filepath.Dir(s.path)); err != nil {
		return fmt.Errorf("settings: watch %s: %w", s.path, err)
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != filepath.Clean(s.path) {
				continue
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			s.reload()
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			s.log.Warn("settings: watch: %v", err)
		}
	}
}

func (s *Store) reload() {
	loaded, err := s.load()
	if err != nil {
		s.log.Warn("settings: reload: %v", err)
		return
	}
	s.mu.Lock()
	if loaded == s.Current() {
		s.mu.Unlock()
		return
	}
	s.current.Store(&loaded)
	subs := s.subscribers()
	s.mu.Unlock()

	s.log.Info("settings: reloaded from %s", s.path)
	for _, sub := range subs {
		sub(loaded)
	}
}

func (s *Store) load() (Settings, error) {
	out := Defaults()
	if s.path == "" {
		return out, nil
	}
	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return out, nil
	}
	if err != nil {
		return out, err
	}
	if _, err := toml.Decode(string(data), &out); err != nil {
		return Defaults(), fmt.Errorf("decode %s: %w", s.path, err)
	}
	return out.Clamp(), nil
}

func (s *Store) save(v Settings) error {
	if s.path == "" {
		return nil
	}
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(v); err != nil {
		return err
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, buf.Bytes(), 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, s.path)
}
