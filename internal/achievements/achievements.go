// Package achievements matches a fixed catalogue of milestones against
// counters derived from habit statistics. It keeps no state of its own.
package achievements

import (
	"sort"

	"github.com/julianstephens/stronghabit/internal/habits"
)

// Metric names a counter a definition is measured against.
type Metric string

const (
	MetricHabits        Metric = "habits"
	MetricCompletions   Metric = "completions"
	MetricCurrentStreak Metric = "current_streak"
	MetricLongestStreak Metric = "longest_streak"
	MetricPerfectDays   Metric = "perfect_days"
)

// Counters are the values definitions are checked against.
type Counters map[Metric]int

// CountersFromStats maps habit statistics onto achievement metrics.
func CountersFromStats(st habits.Stats) Counters {
	return Counters{
		MetricHabits:        st.TotalHabits,
		MetricCompletions:   st.TotalCompletions,
		MetricCurrentStreak: st.BestCurrentStreak,
		MetricLongestStreak: st.LongestStreak,
		MetricPerfectDays:   st.PerfectDays,
	}
}

type Definition struct {
	ID        string
	Title     string
	Metric    Metric
	Threshold int
}

// DefaultCatalogue returns the built-in achievements ordered by metric then threshold.
func DefaultCatalogue() []Definition {
	return []Definition{
		{ID: "first-habit", Title: "Getting Started", Metric: MetricHabits, Threshold: 1},
		{ID: "five-habits", Title: "Habit Collector", Metric: MetricHabits, Threshold: 5},
		{ID: "first-check", Title: "First Step", Metric: MetricCompletions, Threshold: 1},
		{ID: "fifty-checks", Title: "Half Century", Metric: MetricCompletions, Threshold: 50},
		{ID: "hundred-checks", Title: "Centurion", Metric: MetricCompletions, Threshold: 100},
		{ID: "streak-3", Title: "On a Roll", Metric: MetricCurrentStreak, Threshold: 3},
		{ID: "streak-7", Title: "Week Warrior", Metric: MetricCurrentStreak, Threshold: 7},
		{ID: "streak-30", Title: "Monthly Master", Metric: MetricLongestStreak, Threshold: 30},
		{ID: "streak-100", Title: "Unstoppable", Metric: MetricLongestStreak, Threshold: 100},
		{ID: "perfect-day", Title: "Perfect Day", Metric: MetricPerfectDays, Threshold: 1},
		{ID: "perfect-week", Title: "Perfect Week", Metric: MetricPerfectDays, Threshold: 7},
	}
}

// Unlocked returns the definitions whose threshold has been reached, in catalogue order.
func Unlocked(defs []Definition, c Counters) []Definition {
	var out []Definition
	for _, d := range defs {
		if c[d.Metric] >= d.Threshold {
			out = append(out, d)
		}
	}
	return out
}

// Progress returns how far along d is, clamped to 0..1.
// A non-positive threshold counts as complete.
func Progress(d Definition, c Counters) float64 {
	if d.Threshold <= 0 {
		return 1
	}
	v := c[d.Metric]
	if v <= 0 {
		return 0
	}
	if v >= d.Threshold {
		return 1
	}
	return float64(v) / float64(d.Threshold)
}

// Next returns the locked definitions sorted by how close they are to unlocking.
func Next(defs []Definition, c Counters, n int) []Definition {
	var locked []Definition
	for _, d := range defs {
		if Progress(d, c) < 1 {
			locked = append(locked, d)
		}
	}
	sort.SliceStable(locked, func(i, j int) bool {
		return Progress(locked[i], c) > Progress(locked[j], c)
	})
	if n >= 0 && len(locked) > n {
		locked = locked[:n]
	}
	return locked
}
