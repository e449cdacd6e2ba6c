package scheduling

import (
	"fmt"
	"strconv"
	"strings"
)

const minutesPerDay = 24 * 60

// ParseClock converts "HH:MM" into minutes from midnight. "24:00" is accepted as the end of day.
func ParseClock(raw string) (int, error) {
	return parseClock(raw, false)
}

// ParseLegacyClock reads the twelve-hour convention of older staff rosters, where
// hours 1 through 9 denote afternoon hours ("02:00" is 14:00).
func ParseLegacyClock(raw string) (int, error) {
	return parseClock(raw, true)
}

func parseClock(raw string, legacy bool) (int, error) {
	parts := strings.SplitN(strings.TrimSpace(raw), ":", 2)
	if len(parts) != 2 {
		return 0, fmt.Errorf("invalid clock %q", raw)
	}
	hour, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, fmt.Errorf("invalid clock hour %q", raw)
	}
	minute, err := strconv.Atoi(parts[1])
	if err != nil || minute < 0 || minute > 59 {
		return 0, fmt.Errorf("invalid clock minute %q", raw)
	}
	if legacy && hour >= 1 && hour <= 9 {
		hour += 12
	}
	total := hour*60 + minute
	if hour < 0 || total > minutesPerDay {
		return 0, fmt.Errorf("clock out of range %q", raw)
	}
	return total, nil
}

// FormatClock renders minutes from midnight as "HH:MM".
func FormatClock(minutes int) string {
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}
