package catalog

import (
	"fmt"
	"strconv"
	"strings"
)

// ParseClock parses a shift clock string in either 24-hour "HH:MM" or
// 12-hour "H:MM AM/PM" form, returning minutes since midnight. This is
// the single parser every section that reads a clock value goes
// through.
func ParseClock(raw string) (int, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return 0, fmt.Errorf("empty clock value")
	}

	upper := strings.ToUpper(s)
	pm := strings.Contains(upper, "PM")
	am := strings.Contains(upper, "AM")

	clean := upper
	clean = strings.ReplaceAll(clean, "AM", "")
	clean = strings.ReplaceAll(clean, "PM", "")
	clean = strings.TrimSpace(clean)

	parts := strings.Split(clean, ":")
	if len(parts) == 0 || len(parts) > 2 {
		return 0, fmt.Errorf("malformed clock value %q", raw)
	}
	hour, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil {
		return 0, fmt.Errorf("malformed hour in clock value %q: %w", raw, err)
	}
	minute := 0
	if len(parts) == 2 {
		minute, err = strconv.Atoi(strings.TrimSpace(parts[1]))
		if err != nil {
			return 0, fmt.Errorf("malformed minute in clock value %q: %w", raw, err)
		}
	}

	if pm && hour != 12 {
		hour += 12
	} else if am && hour == 12 {
		hour = 0
	}

	return hour*60 + minute, nil
}
