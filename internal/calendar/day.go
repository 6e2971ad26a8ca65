// Package calendar provides a calendar day value type and an injectable clock.
//
// Days are compared and stepped as civil dates, independent of time of day
// and daylight saving transitions.
package calendar

import (
	"fmt"
	"strings"
	"time"

	"github.com/julianstephens/stronghabit/internal/constants"
)

// Day is a civil calendar date.
type Day struct {
	Year  int
	Month time.Month
	Day   int
}

// DayOf returns the calendar day of t in t's own location.
func DayOf(t time.Time) Day {
	y, m, d := t.Date()
	return Day{Year: y, Month: m, Day: d}
}

// ParseDay accepts a YYYY-MM-DD date or an RFC 3339 timestamp.
// For timestamps only the written date component is used; the time of day
// and offset are ignored.
func ParseDay(s string) (Day, error) {
	s = strings.TrimSpace(s)
	if len(s) < len(constants.DateFormat) {
		return Day{}, fmt.Errorf("invalid calendar day %q", s)
	}
	if len(s) > len(constants.DateFormat) {
		if _, err := time.Parse(time.RFC3339Nano, s); err != nil {
			return Day{}, fmt.Errorf("invalid calendar day %q: %w", s, err)
		}
		s = s[:len(constants.DateFormat)]
	}
	t, err := time.Parse(constants.DateFormat, s)
	if err != nil {
		return Day{}, fmt.Errorf("invalid calendar day %q: %w", s, err)
	}
	return DayOf(t), nil
}

// MustParseDay is ParseDay for literals in tests and tables.
func MustParseDay(s string) Day {
	d, err := ParseDay(s)
	if err != nil {
		panic(err)
	}
	return d
}

// Time returns midnight of the day in loc.
func (d Day) Time(loc *time.Location) time.Time {
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, loc)
}

// AddDays returns the day n days later (earlier for negative n).
func (d Day) AddDays(n int) Day {
	return DayOf(d.Time(time.UTC).AddDate(0, 0, n))
}

// Prev returns the day before d.
func (d Day) Prev() Day {
	return d.AddDays(-1)
}

// Before reports whether d is earlier than o.
func (d Day) Before(o Day) bool {
	return d.Compare(o) < 0
}

// After reports whether d is later than o.
func (d Day) After(o Day) bool {
	return d.Compare(o) > 0
}

// Compare returns -1, 0 or +1.
func (d Day) Compare(o Day) int {
	switch {
	case d.Year != o.Year:
		return cmpInt(d.Year, o.Year)
	case d.Month != o.Month:
		return cmpInt(int(d.Month), int(o.Month))
	default:
		return cmpInt(d.Day, o.Day)
	}
}

// DaysUntil returns the number of days from d to o.
func (d Day) DaysUntil(o Day) int {
	return int(o.Time(time.UTC).Sub(d.Time(time.UTC)).Hours() / 24)
}

func (d Day) IsZero() bool {
	return d == Day{}
}

func (d Day) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, int(d.Month), d.Day)
}

func cmpInt(a, b int) int {
	if a < b {
		return -1
	}
	if a > b {
		return 1
	}
	return 0
}
