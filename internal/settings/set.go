package settings

import (
	"fmt"
	"strconv"
	"strings"
)

// Set assigns a setting by its file key, parsing value as the key's type.
// Flags accept anything strconv.ParseBool does.
func (s *Store) Set(key, value string) (Settings, error) {
	key = strings.ToLower(strings.TrimSpace(key))
	value = strings.TrimSpace(value)

	switch key {
	case "wpm", "font-size", "focus-timer-minutes":
		n, err := strconv.Atoi(value)
		if err != nil {
			return s.Current(), fmt.Errorf("%s: %q is not a number", key, value)
		}
		switch key {
		case "wpm":
			return s.SetWPM(n)
		case "font-size":
			return s.SetFontSize(n)
		default:
			return s.SetFocusTimerMinutes(n)
		}
	case "font-family":
		return s.SetFontFamily(value)
	case "orp-color":
		if !hexColor.MatchString(value) {
			return s.Current(), fmt.Errorf("orp-color: %q is not #RRGGBB", value)
		}
		return s.SetORPColor(value)
	}

	f, err := ParseFlag(key)
	if err != nil {
		return s.Current(), err
	}
	on, err := strconv.ParseBool(value)
	if err != nil {
		return s.Current(), fmt.Errorf("%s: %q is not true or false", key, value)
	}
	return s.SetFlag(f, on)
}
