package utils

import (
	"fmt"
	"time"

	"github.com/julianstephens/stronghabit/internal/constants"
)

// LoadLocation loads a timezone location from an IANA timezone name.
// If the timezone is "Local" or empty, it returns the system's local timezone.
func LoadLocation(timezone string) (*time.Location, error) {
	if timezone == "" || timezone == "Local" {
		return time.Local, nil
	}
	return time.LoadLocation(timezone)
}

// OffsetMinutesIn returns the UTC offset of loc at t, in minutes east of UTC.
func OffsetMinutesIn(loc *time.Location, t time.Time) int {
	_, secs := t.In(loc).Zone()
	return secs / 60
}

// FixedZone builds a location from an offset in minutes east of UTC.
func FixedZone(offsetMinutes int) *time.Location {
	return time.FixedZone(FormatOffset(offsetMinutes), offsetMinutes*60)
}

// FormatOffset renders an offset as UTC+HH:MM.
func FormatOffset(offsetMinutes int) string {
	sign := '+'
	if offsetMinutes < 0 {
		sign = '-'
		offsetMinutes = -offsetMinutes
	}
	return fmt.Sprintf("UTC%c%02d:%02d", sign, offsetMinutes/60, offsetMinutes%60)
}

// ParseTime parses a time string in the standard format (HH:MM).
func ParseTime(timeStr string) (time.Time, error) {
	return time.Parse(constants.TimeFormat, timeStr)
}

// ParseTimeToMinutes parses a time string (HH:MM) and returns the number of minutes from midnight.
func ParseTimeToMinutes(timeStr string) (int, error) {
	t, err := ParseTime(timeStr)
	if err != nil {
		return 0, err
	}
	return t.Hour()*60 + t.Minute(), nil
}

// NextOccurrence returns the first instant at or after now, in loc, whose
// wall clock reads timeStr (HH:MM).
func NextOccurrence(timeStr string, now time.Time, loc *time.Location) (time.Time, error) {
	minutes, err := ParseTimeToMinutes(timeStr)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid time format: %w", err)
	}
	now = now.In(loc)
	next := time.Date(now.Year(), now.Month(), now.Day(), minutes/60, minutes%60, 0, 0, loc)
	if next.Before(now) {
		next = time.Date(now.Year(), now.Month(), now.Day()+1, minutes/60, minutes%60, 0, 0, loc)
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
