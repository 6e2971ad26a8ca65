package models

import (
	"time"

	"github.com/julianstephens/stronghabit/internal/calendar"
)

// Frequency is how often a habit recurs
type Frequency string

const (
	FrequencyDaily   Frequency = "daily"
	FrequencyWeekly  Frequency = "weekly"
	FrequencyMonthly Frequency = "monthly"
)

// Valid reports whether f is an accepted habit frequency
func (f Frequency) Valid() bool {
	switch f {
	case FrequencyDaily, FrequencyWeekly, FrequencyMonthly:
		return true
	}
	return false
}

// Weekday is a lowercase English weekday name, e.g. "monday"
type Weekday string

const (
	Sunday    Weekday = "sunday"
	Monday    Weekday = "monday"
	Tuesday   Weekday = "tuesday"
	Wednesday Weekday = "wednesday"
	Thursday  Weekday = "thursday"
	Friday    Weekday = "friday"
	Saturday  Weekday = "saturday"
)

var weekdays = []Weekday{Sunday, Monday, Tuesday, Wednesday, Thursday, Friday, Saturday}

// WeekdayOf converts a time.Weekday
func WeekdayOf(wd time.Weekday) Weekday {
	return weekdays[wd]
}

// Time converts back to time.Weekday; ok is false for unknown names
func (w Weekday) Time() (time.Weekday, bool) {
	for i, name := range weekdays {
		if name == w {
			return time.Weekday(i), true
		}
	}
	return 0, false
}

// Habit represents a recurring activity tracked for completion
type Habit struct {
	ID              string          `json:"id"`
	Name            string          `json:"name"`
	Description     string          `json:"description,omitempty"`
	Frequency       Frequency       `json:"frequency"`
	SelectedDays    []Weekday       `json:"selectedDays,omitempty"`
	Color           string          `json:"color,omitempty"`
	CreatedAt       time.Time       `json:"createdAt"`
	UpdatedAt       time.Time       `json:"updatedAt"`
	ReminderEnabled bool            `json:"reminderEnabled"`
	ReminderTime    string          `json:"reminderTime,omitempty"` // HH:MM
	NotificationID  string          `json:"notificationId,omitempty"`
	Streak          int             `json:"streak"`
	CompletionLogs  []CompletionLog `json:"completionLogs"`
}

// CompletionLog is one day's completed/not-completed record for a habit
type CompletionLog struct {
	Date      string `json:"date"` // YYYY-MM-DD, or an ISO timestamp whose date part is used
	Completed bool   `json:"completed"`
}

// Day parses the entry's calendar day
func (l CompletionLog) Day() (calendar.Day, error) {
	return calendar.ParseDay(l.Date)
}

// HabitInput holds the caller-supplied fields for a new habit
type HabitInput struct {
	Name            string
	Description     string
	Frequency       Frequency
	SelectedDays    []Weekday
	Color           string
	ReminderEnabled bool
	ReminderTime    string
}

// StorageDocument is the single root record holding all habits
type StorageDocument struct {
	Habits      []Habit   `json:"habits"`
	LastUpdated time.Time `json:"lastUpdated"`
	Version     int       `json:"version"`
}
