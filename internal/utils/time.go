package utils

import (
	"fmt"
	"time"

	"github.com/julianstephens/journalbot/internal/constants"
)

// LoadLocation loads a timezone location from an IANA timezone name.
// If the timezone is "Local" or empty, it returns the system's local timezone.
func LoadLocation(timezone string) (*time.Location, error) {
	if timezone == "" || timezone == "Local" {
		return time.Local, nil
	}
	return time.LoadLocation(timezone)
}

// DateKey returns the calendar date of t in loc (YYYY-MM-DD). Entries in the
// index are keyed by this value.
func DateKey(t time.Time, loc *time.Location) string {
	return t.In(loc).Format(constants.DateFormat)
}

// PageTitle renders the human-readable title of the page for t's date in loc.
func PageTitle(t time.Time, loc *time.Location) string {
	return t.In(loc).Format(constants.TitleFormat)
}

// ParseTime parses a time string in the standard format (HH:MM).
func ParseTime(timeStr string) (time.Time, error) {
	return time.Parse(constants.TimeFormat, timeStr)
}

// AtTimeOfDay returns the instant on now's calendar date (in loc) at the
// wall-clock time timeStr (HH:MM).
func AtTimeOfDay(now time.Time, timeStr string, loc *time.Location) (time.Time, error) {
	timeOfDay, err := ParseTime(timeStr)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid time format: %w", err)
	}
	local := now.In(loc)
	return time.Date(
		local.Year(), local.Month(), local.Day(),
		timeOfDay.Hour(), timeOfDay.Minute(), 0, 0,
		loc,
	), nil
}

// NextOccurrence returns the first instant strictly after now whose
// wall-clock time in loc is timeStr. Across DST changes time.Date
// normalizes the wall clock, so the result is always in the future.
func NextOccurrence(now time.Time, timeStr string, loc *time.Location) (time.Time, error) {
	next, err := AtTimeOfDay(now, timeStr, loc)
	if err != nil {
		return time.Time{}, err
	}
	if !next.After(now) {
		local := next.In(loc)
		timeOfDay, _ := ParseTime(timeStr)
		next = time.Date(local.Year(), local.Month(), local.Day()+1,
			timeOfDay.Hour(), timeOfDay.Minute(), 0, 0, loc)
	}
	return next, nil
}

// ValidateTimeFormat checks if the string matches the standard time format.
func ValidateTimeFormat(timeStr string) bool {
	_, err := ParseTime(timeStr)
	return err == nil
}

// ValidateTimezone checks if the timezone name is valid.
func ValidateTimezone(timezone string) bool {
	if timezone == "" || timezone == "Local" {
		return true
	}
	_, err := time.LoadLocation(timezone)
	return err == nil
}
