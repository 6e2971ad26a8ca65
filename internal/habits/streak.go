package habits

import (
	"sort"

	"github.com/julianstephens/stronghabit/internal/calendar"
	"github.com/julianstephens/stronghabit/internal/models"
)

type dayEntry struct {
	day       calendar.Day
	completed bool
}

// parseLogs converts logs to calendar days, dropping entries whose date
// cannot be parsed.
func parseLogs(logs []models.CompletionLog) []dayEntry {
	entries := make([]dayEntry, 0, len(logs))
	for _, l := range logs {
		d, err := l.Day()
		if err != nil {
			continue
		}
		entries = append(entries, dayEntry{day: d, completed: l.Completed})
	}
	return entries
}

// CalculateStreak returns the length of the consecutive completed run ending
// at the most recent log entry. Logs may be in any order. The most recent
// entry being incomplete yields 0. Frequency is not considered.
func CalculateStreak(logs []models.CompletionLog) int {
	entries := parseLogs(logs)
	if len(entries) == 0 {
		return 0
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].day.After(entries[j].day)
	})

	if !entries[0].completed {
		return 0
	}

	streak := 1
	expected := entries[0].day.Prev()
	for _, e := range entries[1:] {
		if e.day != expected || !e.completed {
			break
		}
		streak++
		expected = expected.Prev()
	}
	return streak
}

// LongestStreak returns the longest run of consecutive completed days
// anywhere in the history.
func LongestStreak(logs []models.CompletionLog) int {
	var days []calendar.Day
	for _, e := range parseLogs(logs) {
		if e.completed {
			days = append(days, e.day)
		}
	}
	if len(days) == 0 {
		return 0
	}
	sort.Slice(days, func(i, j int) bool { return days[i].Before(days[j]) })

	longest, run := 1, 1
	for i := 1; i < len(days); i++ {
		switch {
		case days[i] == days[i-1]:
			continue
		case days[i] == days[i-1].AddDays(1):
			run++
		default:
			run = 1
		}
		if run > longest {
			longest = run
		}
	}
	return longest
}
