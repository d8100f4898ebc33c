// Package config resolves rsvp's file, environment and default settings.
package config

import (
	"os"
	"path/filepath"
)

const appDir = "rsvp"

// XDGConfigHome returns the XDG config home or a default fallback.
func XDGConfigHome() string {
	return xdgDir("XDG_CONFIG_HOME", ".config")
}

// XDGDataHome returns the XDG data home or a default fallback.
func XDGDataHome() string {
	return xdgDir("XDG_DATA_HOME", ".local", "share")
}

// XDGStateHome returns the XDG state home or a default fallback.
func XDGStateHome() string {
	return xdgDir("XDG_STATE_HOME", ".local", "state")
}

func xdgDir(env string, fallback ...string) string {
	if v := os.Getenv(env); v != "" {
		return v
	}
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return "."
	}
	return filepath.Join(append([]string{home}, fallback...)...)
}

// DefaultConfigPath returns the default TOML config path.
func DefaultConfigPath() string {
	return filepath.Join(XDGConfigHome(), appDir, "config.toml")
}

// DefaultSettingsPath returns where reader settings are persisted.
func DefaultSettingsPath() string {
	return filepath.Join(XDGConfigHome(), appDir, "settings.toml")
}

// DefaultDBPath returns the default path for the SQLite library database.
func DefaultDBPath() string {
	return filepath.Join(XDGDataHome(), appDir, "library.db")
}

// DefaultDataDir returns where imported clipboard text is stored.
func DefaultDataDir() string {
	return filepath.Join(XDGDataHome(), appDir, "documents")
}

// DefaultLogPath returns the default log file.
func DefaultLogPath() string {
	return filepath.Join(XDGStateHome(), appDir, "rsvp.log")
}
