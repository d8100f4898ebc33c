package config

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
	"github.com/metcalfc/rsvp/internal/domain"
)

// FileConfig represents the TOML configuration file. Pointer fields tell an
// unset key apart from a zero value.
type FileConfig struct {
	Library LibraryConfig `toml:"library"`
	Reader  ReaderConfig  `toml:"reader"`
	Log     LogConfig     `toml:"log"`
	Speech  SpeechConfig  `toml:"speech"`
}

// LibraryConfig maps storage settings.
type LibraryConfig struct {
	DBPath  *string `toml:"db"`
	DataDir *string `toml:"data-dir"`
}

// ReaderConfig maps reading defaults.
type ReaderConfig struct {
	Lang *string `toml:"lang"`
	WPM  *int    `toml:"wpm"`
}

// LogConfig maps logging settings.
type LogConfig struct {
	Level *string `toml:"level"`
	File  *string `toml:"file"`
}

// SpeechConfig maps the external text-to-speech command.
type SpeechConfig struct {
	Command *string  `toml:"command"`
	Args    []string `toml:"args"`
}

// Config is the resolved configuration.
type Config struct {
	DBPath        string   `key:"library.db" validate:"required"`
	DataDir       string   `key:"library.data-dir" validate:"required"`
	Lang          string   `key:"reader.lang" validate:"required,bcp47_language_tag"`
	WPM           int      `key:"reader.wpm" validate:"omitempty,gte=100,lte=1000"`
	LogLevel      string   `key:"log.level" validate:"loglevel"`
	LogFile       string   `key:"log.file" validate:"required"`
	SpeechCommand string   `key:"speech.command"`
	SpeechArgs    []string `key:"speech.args"`
}

// Defaults returns the configuration used when nothing is set.
func Defaults() Config {
	return Config{
		DBPath:   DefaultDBPath(),
		DataDir:  DefaultDataDir(),
		Lang:     domain.DefaultLanguage,
		LogLevel: "info",
		LogFile:  DefaultLogPath(),
	}
}

// LoadConfig reads a TOML config from the given path. Missing file is not an error.
func LoadConfig(path string) (FileConfig, error) {
	if path == "" {
		return FileConfig{}, fmt.Errorf("config path is empty")
	}
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return FileConfig{}, nil
		}
		return FileConfig{}, fmt.Errorf("failed to stat config: %w", err)
	}
	var cfg FileConfig
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return FileConfig{}, fmt.Errorf("failed to decode config: %w", err)
	}
	return cfg, nil
}

// Apply overlays the keys set in the file onto c.
func (fc FileConfig) Apply(c *Config) {
	setString(&c.DBPath, fc.Library.DBPath)
	setString(&c.DataDir, fc.Library.DataDir)
	setString(&c.Lang, fc.Reader.Lang)
	if fc.Reader.WPM != nil {
		c.WPM = *fc.Reader.WPM
	}
	setString(&c.LogLevel, fc.Log.Level)
	setString(&c.LogFile, fc.Log.File)
	setString(&c.SpeechCommand, fc.Speech.Command)
	if fc.Speech.Args != nil {
		c.SpeechArgs = fc.Speech.Args
	}
}

func setString(target, value *string) {
	if value != nil {
		*target = *value
	}
}

// Template is written by `rsvp config` when no config file exists yet.
func Template() string {
	return fmt.Sprintf(`# rsvp configuration
# Uncomment a value to enable it. CLI flags and RSVP_* variables override it.

[library]
# db = %q
# data-dir = %q

[reader]
# lang = %q        # language for imported documents (ja, zh, ko use word segmentation)
# wpm = 300         # start every session at this speed

[log]
# level = "info"    # off, info, debug
# file = %q

[speech]
# command = "espeak-ng"   # spoken once per word when text-to-speech is on
# args = ["-s", "300"]
`, DefaultDBPath(), DefaultDataDir(), domain.DefaultLanguage, DefaultLogPath())
}
