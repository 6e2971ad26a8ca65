package habits

import (
	"context"
	"time"

	"github.com/julianstephens/stronghabit/internal/calendar"
	"github.com/julianstephens/stronghabit/internal/models"
)

const completionRateWindowDays = 30

// Stats summarises the habit document.
type Stats struct {
	TotalHabits       int
	TotalCompletions  int
	BestCurrentStreak int
	LongestStreak     int
	// CompletionRate is completed entries over days tracked in the last 30 days, 0..1
	CompletionRate float64
	// PerfectDays counts days on which every habit that existed was completed
	PerfectDays int
}

func (s *Store) Stats(ctx context.Context) (Stats, error) {
	habits, err := s.GetHabits(ctx)
	if err != nil {
		return Stats{}, err
	}
	loc := s.location(ctx)
	return ComputeStats(habits, calendar.Today(s.clock, loc), loc), nil
}

// ComputeStats derives Stats for habits as of today. Creation days are taken in loc.
func ComputeStats(habits []models.Habit, today calendar.Day, loc *time.Location) Stats {
	if loc == nil {
		loc = time.Local
	}
	st := Stats{TotalHabits: len(habits)}

	windowStart := today.AddDays(-(completionRateWindowDays - 1))
	tracked, completedInWindow := 0, 0

	created := make([]calendar.Day, len(habits))
	completedDays := make([]map[calendar.Day]struct{}, len(habits))
	candidates := make(map[calendar.Day]struct{})

	for i, h := range habits {
		created[i] = calendar.DayOf(h.CreatedAt.In(loc))
		completedDays[i] = make(map[calendar.Day]struct{})

		for _, e := range parseLogs(h.CompletionLogs) {
			if !e.completed {
				continue
			}
			st.TotalCompletions++
			completedDays[i][e.day] = struct{}{}
			candidates[e.day] = struct{}{}
			if !e.day.Before(windowStart) && !e.day.After(today) {
				completedInWindow++
			}
		}

		if h.Streak > st.BestCurrentStreak {
			st.BestCurrentStreak = h.Streak
		}
		if longest := LongestStreak(h.CompletionLogs); longest > st.LongestStreak {
			st.LongestStreak = longest
		}

		from := windowStart
		if created[i].After(from) {
			from = created[i]
		}
		if !from.After(today) {
			tracked += from.DaysUntil(today) + 1
		}
	}

	if tracked > 0 {
		st.CompletionRate = float64(completedInWindow) / float64(tracked)
		if st.CompletionRate > 1 {
			st.CompletionRate = 1
		}
	}

	for day := range candidates {
		perfect := true
		for i := range habits {
			if created[i].After(day) {
				continue
			}
			if _, ok := completedDays[i][day]; !ok {
				perfect = false
				break
			}
		}
		if perfect {
			st.PerfectDays++
		}
	}

	return st
}
