package settings

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/metcalfc/rsvp/internal/logger"
)

func quiet() *logger.Logger { return logger.New(logger.LevelOff, nil) }

func TestClamp(t *testing.T) {
	tests := []struct {
		name string
		in   Settings
		want func(Settings) bool
	}{
		{"wpm low", Settings{WPM: 10}, func(s Settings) bool { return s.WPM == MinWPM }},
		{"wpm high", Settings{WPM: 5000}, func(s Settings) bool { return s.WPM == MaxWPM }},
		{"font low", Settings{FontSize: 2}, func(s Settings) bool { return s.FontSize == MinFontSize }},
		{"font high", Settings{FontSize: 200}, func(s Settings) bool { return s.FontSize == MaxFontSize }},
		{"focus minutes", Settings{FocusTimerMinutes: 0}, func(s Settings) bool { return s.FocusTimerMinutes == MinFocusTimerMinutes }},
		{"bad color", Settings{ORPColor: "red"}, func(s Settings) bool { return s.ORPColor == "#FF0000" }},
		{"lower color", Settings{ORPColor: "#00ff88"}, func(s Settings) bool { return s.ORPColor == "#00FF88" }},
		{"empty font family", Settings{}, func(s Settings) bool { return s.FontFamily == "SansSerif" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.in.Clamp(); !tt.want(got) {
				t.Errorf("Clamp() = %+v", got)
			}
		})
	}
}

func TestStoreUpdateClampsAtWrite(t *testing.T) {
	s := NewMemoryStore(Defaults())

	got, err := s.AdjustWPM(10_000)
	if err != nil {
		t.Fatalf("AdjustWPM: %v", err)
	}
	if got.WPM != MaxWPM || s.Current().WPM != MaxWPM {
		t.Errorf("WPM = %d, want %d", s.Current().WPM, MaxWPM)
	}

	s.AdjustWPM(-10_000)
	if s.Current().WPM != MinWPM {
		t.Errorf("WPM = %d, want %d", s.Current().WPM, MinWPM)
	}

	s.SetFontSize(3)
	if s.Current().FontSize != MinFontSize {
		t.Errorf("FontSize = %d, want %d", s.Current().FontSize, MinFontSize)
	}
}

func TestStoreFlags(t *testing.T) {
	s := NewMemoryStore(Defaults())
	for _, f := range Flags() {
		before := s.Current().Enabled(f)
		s.ToggleFlag(f)
		if s.Current().Enabled(f) == before {
			t.Errorf("ToggleFlag(%s) did not flip", f)
		}
		s.SetFlag(f, true)
		if !s.Current().Enabled(f) {
			t.Errorf("SetFlag(%s, true) not applied", f)
		}
	}
}

func TestParseFlag(t *testing.T) {
	for _, f := range Flags() {
		got, err := ParseFlag(f.String())
		if err != nil || got != f {
			t.Errorf("ParseFlag(%q) = %v, %v", f.String(), got, err)
		}
	}
	if _, err := ParseFlag("turbo"); err == nil {
		t.Error("expected error for unknown flag")
	}
}

func TestStoreSubscribe(t *testing.T) {
	s := NewMemoryStore(Defaults())
	var mu sync.Mutex
	var seen []int
	cancel := s.Subscribe(func(v Settings) {
		mu.Lock()
		seen = append(seen, v.WPM)
		mu.Unlock()
	})

	s.SetWPM(400)
	cancel()
	s.SetWPM(500)

	mu.Lock()
	defer mu.Unlock()
	if len(seen) != 1 || seen[0] != 400 {
		t.Errorf("seen = %v, want [400]", seen)
	}
}

func TestStorePersistence(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rsvp", "settings.toml")

	s1, err := NewStore(path, quiet())
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	if s1.Current() != Defaults() {
		t.Errorf("fresh store should hold defaults")
	}
	if _, err := s1.SetWPM(450); err != nil {
		t.Fatalf("SetWPM: %v", err)
	}
	if _, err := s1.SetFlag(FlagSmartPause, true); err != nil {
		t.Fatalf("SetFlag: %v", err)
	}

	s2, err := NewStore(path, quiet())
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	if got := s2.Current(); got.WPM != 450 || !got.SmartPause {
		t.Errorf("reloaded settings = %+v", got)
	}
}

func TestStoreCorruptFileFallsBack(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.toml")
	os.WriteFile(path, []byte("wpm = [not toml"), 0o644)

	s, err := NewStore(path, quiet())
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	if s.Current() != Defaults() {
		t.Errorf("expected defaults, got %+v", s.Current())
	}
}

func TestStoreWatchReloads(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.toml")
	s, err := NewStore(path, quiet())
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}

	changed := make(chan Settings, 4)
	s.Subscribe(func(v Settings) { changed <- v })

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go s.Watch(ctx)
	time.Sleep(100 * time.Millisecond)

	if err := os.WriteFile(path, []byte("wpm = 720\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	select {
	case v := <-changed:
		if v.WPM != 720 {
			t.Errorf("reloaded WPM = %d, want 720", v.WPM)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("settings change not observed")
	}
}

func TestStoreSet(t *testing.T) {
	s := NewMemoryStore(Defaults())
	tests := []struct {
		key, value string
		wantErr    bool
		check      func(Settings) bool
	}{
		{"wpm", "450", false, func(c Settings) bool { return c.WPM == 450 }},
		{"WPM", " 5000 ", false, func(c Settings) bool { return c.WPM == MaxWPM }},
		{"font-size", "40", false, func(c Settings) bool { return c.FontSize == 40 }},
		{"focus-timer-minutes", "10", false, func(c Settings) bool { return c.FocusTimerMinutes == 10 }},
		{"font-family", "Serif", false, func(c Settings) bool { return c.FontFamily == "Serif" }},
		{"orp-color", "#00aa00", false, func(c Settings) bool { return c.ORPColor == "#00AA00" }},
		{"smart-pause", "true", false, func(c Settings) bool { return c.SmartPause }},
		{"tts", "0", false, func(c Settings) bool { return !c.TTS }},
		{"wpm", "fast", true, nil},
		{"orp-color", "red", true, nil},
		{"warmup", "maybe", true, nil},
		{"no-such-key", "1", true, nil},
	}
	for _, tt := range tests {
		t.Run(tt.key+"="+tt.value, func(t *testing.T) {
			got, err := s.Set(tt.key, tt.value)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}
			if !tt.check(got) {
				t.Errorf("unexpected settings %+v", got)
			}
		})
	}
}
