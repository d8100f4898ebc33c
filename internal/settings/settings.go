// Package settings holds the reader's user settings: a clamped snapshot that
// is published atomically, observable, and persisted as TOML.
package settings

import (
	"fmt"
	"regexp"
	"strings"
)

// Ranges enforced at update time. Consumers can rely on them.
const (
	MinWPM               = 100
	MaxWPM               = 1000
	WPMStep              = 10
	MinFontSize          = 16
	MaxFontSize          = 72
	FontSizeStep         = 4
	MinFocusTimerMinutes = 1
	MaxFocusTimerMinutes = 180
)

// Settings is one immutable snapshot. Copy it freely.
type Settings struct {
	WPM               int    `toml:"wpm"`
	FontSize          int    `toml:"font-size"`
	FontFamily        string `toml:"font-family"`
	ORPColor          string `toml:"orp-color"`
	FocusTimerMinutes int    `toml:"focus-timer-minutes"`

	DarkMode          bool `toml:"dark-mode"`
	ORPEnabled        bool `toml:"orp"`
	PunctuationDelays bool `toml:"punctuation-delays"`
	Warmup            bool `toml:"warmup"`
	FocusMask         bool `toml:"focus-mask"`
	TTS               bool `toml:"tts"`
	BionicReading     bool `toml:"bionic-reading"`
	ContextualHybrid  bool `toml:"contextual-hybrid"`
	SmartPause        bool `toml:"smart-pause"`
	TapToResume       bool `toml:"tap-to-resume"`
	ReadingGoals      bool `toml:"reading-goals"`
	FocusTimer        bool `toml:"focus-timer"`
	SplitView         bool `toml:"split-view"`
}

// Defaults returns the settings a fresh install starts with.
func Defaults() Settings {
	return Settings{
		WPM:               300,
		FontSize:          32,
		FontFamily:        "SansSerif",
		ORPColor:          "#FF0000",
		FocusTimerMinutes: 25,
		DarkMode:          true,
		ORPEnabled:        true,
		PunctuationDelays: true,
		Warmup:            true,
		FocusMask:         true,
		TTS:               true,
	}
}

var hexColor = regexp.MustCompile(`^#[0-9A-Fa-f]{6}$`)

// Clamp forces every field into its valid range.
func (s Settings) Clamp() Settings {
	def := Defaults()
	s.WPM = clampInt(s.WPM, MinWPM, MaxWPM)
	s.FontSize = clampInt(s.FontSize, MinFontSize, MaxFontSize)
	s.FocusTimerMinutes = clampInt(s.FocusTimerMinutes, MinFocusTimerMinutes, MaxFocusTimerMinutes)
	s.FontFamily = strings.TrimSpace(s.FontFamily)
	if s.FontFamily == "" {
		s.FontFamily = def.FontFamily
	}
	if !hexColor.MatchString(s.ORPColor) {
		s.ORPColor = def.ORPColor
	}
	s.ORPColor = strings.ToUpper(s.ORPColor)
	return s
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Flag names one boolean feature.
type Flag int

const (
	FlagDarkMode Flag = iota
	FlagORP
	FlagPunctuationDelays
	FlagWarmup
	FlagFocusMask
	FlagTTS
	FlagBionicReading
	FlagContextualHybrid
	FlagSmartPause
	FlagTapToResume
	FlagReadingGoals
	FlagFocusTimer
	FlagSplitView
)

var flagNames = []string{
	"dark-mode",
	"orp",
	"punctuation-delays",
	"warmup",
	"focus-mask",
	"tts",
	"bionic-reading",
	"contextual-hybrid",
	"smart-pause",
	"tap-to-resume",
	"reading-goals",
	"focus-timer",
	"split-view",
}

func (f Flag) String() string {
	if int(f) >= 0 && int(f) < len(flagNames) {
		return flagNames[f]
	}
	return fmt.Sprintf("flag(%d)", int(f))
}

// Flags lists every flag in declaration order.
func Flags() []Flag {
	out := make([]Flag, len(flagNames))
	for i := range flagNames {
		out[i] = Flag(i)
	}
	return out
}

// ParseFlag maps a flag name such as "smart-pause" to its Flag.
func ParseFlag(name string) (Flag, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	for i, n := range flagNames {
		if n == name {
			return Flag(i), nil
		}
	}
	return 0, fmt.Errorf("unknown setting %q", name)
}

func (s *Settings) flagPtr(f Flag) *bool {
	switch f {
	case FlagDarkMode:
		return &s.DarkMode
	case FlagORP:
		return &s.ORPEnabled
	case FlagPunctuationDelays:
		return &s.PunctuationDelays
	case FlagWarmup:
		return &s.Warmup
	case FlagFocusMask:
		return &s.FocusMask
	case FlagTTS:
		return &s.TTS
	case FlagBionicReading:
		return &s.BionicReading
	case FlagContextualHybrid:
		return &s.ContextualHybrid
	case FlagSmartPause:
		return &s.SmartPause
	case FlagTapToResume:
		return &s.TapToResume
	case FlagReadingGoals:
		return &s.ReadingGoals
	case FlagFocusTimer:
		return &s.FocusTimer
	case FlagSplitView:
		return &s.SplitView
	}
	return nil
}

// Enabled reports the value of a flag.
func (s Settings) Enabled(f Flag) bool {
	if p := s.flagPtr(f); p != nil {
		return *p
	}
	return false
}
