// Package timeutil provides the study-calendar time helpers for LearnSphere.
// Streak days and study-plan events are evaluated in a single configurable
// location, so every helper takes the location explicitly.
// No external dependencies - uses only standard library.
package timeutil

import (
	"fmt"
	"strings"
	"time"
)

// Common date/time formats.
const (
	// FormatDate is the ISO date format used for lastLoginDate and event dates (YYYY-MM-DD).
	FormatDate = "2006-01-02"
	// FormatTime is the event time format (HH:MM).
	FormatTime = "15:04"
	// FormatDateTime joins an event date and time.
	FormatDateTime = "2006-01-02T15:04"
)

// LoadLocation resolves a timezone name. Besides IANA names it accepts
// "UTC", "Local" and fixed offsets such as "+05:00".
func LoadLocation(name string) (*time.Location, error) {
	name = strings.TrimSpace(name)
	switch name {
	case "", "UTC":
		return time.UTC, nil
	case "Local":
		return time.Local, nil
	}

	if name[0] == '+' || name[0] == '-' {
		t, err := time.Parse("-07:00", name)
		if err != nil {
			return nil, fmt.Errorf("timeutil: invalid offset %q: %w", name, err)
		}
		_, offset := t.Zone()
		return time.FixedZone("UTC"+name, offset), nil
	}

	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("timeutil: unknown location %q: %w", name, err)
	}
	return loc, nil
}

// ISODate formats t as YYYY-MM-DD in loc.
func ISODate(t time.Time, loc *time.Location) string {
	return t.In(orUTC(loc)).Format(FormatDate)
}

// PreviousISODate returns the ISO date of the day before t in loc.
func PreviousISODate(t time.Time, loc *time.Location) string {
	local := t.In(orUTC(loc))
	return local.AddDate(0, 0, -1).Format(FormatDate)
}

// ParseDate parses YYYY-MM-DD in loc.
func ParseDate(value string, loc *time.Location) (time.Time, error) {
	return time.ParseInLocation(FormatDate, strings.TrimSpace(value), orUTC(loc))
}

// ParseClock parses HH:MM and returns hours and minutes.
func ParseClock(value string) (int, int, error) {
	t, err := time.Parse(FormatTime, strings.TrimSpace(value))
	if err != nil {
		return 0, 0, err
	}
	return t.Hour(), t.Minute(), nil
}

// ParseDateTime combines an event date and time into an instant in loc.
func ParseDateTime(date, clock string, loc *time.Location) (time.Time, error) {
	return time.ParseInLocation(FormatDateTime,
		strings.TrimSpace(date)+"T"+strings.TrimSpace(clock), orUTC(loc))
}

// FormatRelative returns how long ago t was, relative to now ("3 hours ago").
func FormatRelative(t, now time.Time) string {
	seconds := int64(now.Sub(t).Seconds())

	intervals := []struct {
		name    string
		seconds int64
	}{
		{"year", 31536000},
		{"month", 2592000},
		{"week", 604800},
		{"day", 86400},
		{"hour", 3600},
		{"minute", 60},
	}

	for _, iv := range intervals {
		n := seconds / iv.seconds
		if n >= 1 {
			if n == 1 {
				return "1 " + iv.name + " ago"
			}
			return fmt.Sprintf("%d %ss ago", n, iv.name)
		}
	}
	return "Just now"
}

func orUTC(loc *time.Location) *time.Location {
	if loc == nil {
		return time.UTC
	}
	return loc
}
