package config

import (
	"errors"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// LoadEnv loads KEY=value pairs from a dotenv file into the process
// environment. A missing file is ignored; existing variables win.
func LoadEnv(path string) error {
	err := godotenv.Load(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}

// ApplyEnv overlays RSVP_* environment variables onto c.
func ApplyEnv(c *Config) {
	envString("RSVP_DB", &c.DBPath)
	envString("RSVP_DATA_DIR", &c.DataDir)
	envString("RSVP_LANG", &c.Lang)
	envString("RSVP_LOG_LEVEL", &c.LogLevel)
	envString("RSVP_LOG_FILE", &c.LogFile)
	envString("RSVP_SPEECH_COMMAND", &c.SpeechCommand)
	if v, ok := os.LookupEnv("RSVP_WPM"); ok {
		if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			c.WPM = n
		}
	}
}

func envString(name string, target *string) {
	if v, ok := os.LookupEnv(name); ok && strings.TrimSpace(v) != "" {
		*target = strings.TrimSpace(v)
	}
}

// Load resolves defaults, the TOML file at path, and the environment, in
// that order, and validates the result.
func Load(path string) (Config, error) {
	cfg := Defaults()
	fc, err := LoadConfig(path)
	if err != nil {
		return Config{}, err
	}
	fc.Apply(&cfg)
	ApplyEnv(&cfg)
	if err := Validate(cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
