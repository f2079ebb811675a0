package dealership

import (
	"strings"
	"time"
)

// Business hours for test drives: slots must start at or after OpenHour
// and strictly before CloseHour.
const (
	OpenHour  = 9
	CloseHour = 18
)

// WithinBusinessHours reports whether a slot falls inside opening hours.
func WithinBusinessHours(at time.Time) bool {
	return at.Hour() >= OpenHour && at.Hour() < CloseHour
}

// ParseDateTime resolves a spoken date and time spec into a concrete slot.
// It is pure: "now" is passed in, not read from the clock.
//
// Date resolution, in order:
//  1. spec containing "today"     -> now's date
//  2. spec containing "tomorrow"  -> now's date + 1 day
//  3. "2006-01-02"                -> as given
//  4. anything else               -> tomorrow (documented default)
//
// Time resolution, in order:
//  1. "3:04 PM" / "3:04PM"  -> as given
//  2. "3 PM" / "3PM"        -> on the hour
//  3. "15:04"               -> as given (24h)
//  4. anything else         -> 10:00 (documented default)
//
// Seconds and sub-seconds are always zero.
func ParseDateTime(dateSpec, timeSpec string, now time.Time) time.Time {
	day := parseDate(dateSpec, now)
	hour, minute := parseClock(timeSpec)

	return time.Date(day.Year(), day.Month(), day.Day(), hour, minute, 0, 0, now.Location())
}

func parseDate(spec string, now time.Time) time.Time {
	s := strings.ToLower(strings.TrimSpace(spec))

	switch {
	case strings.Contains(s, "today"):
		return now
	case strings.Contains(s, "tomorrow"):
		return now.AddDate(0, 0, 1)
	}

	if t, err := time.ParseInLocation("2006-01-02", s, now.Location()); err == nil {
		return t
	}

	// Unrecognized dates default to tomorrow.
	return now.AddDate(0, 0, 1)
}

func parseClock(spec string) (hour, minute int) {
	s := strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(spec), " ", ""))

	for _, layout := range []string{"3:04PM", "3PM", "15:04"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Hour(), t.Minute()
		}
	}

	// Unrecognized times default to 10 AM.
	return 10, 0
}
