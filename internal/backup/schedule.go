package backup

import (
	"time"

	"github.com/julianstephens/stronghabit/internal/models"
)

// IsDue reports whether a backup last taken at last is due at now.
// Daily and weekly compare against now minus one or seven calendar days;
// monthly is due once the calendar month (or year) has changed.
func IsDue(last, now time.Time, freq models.BackupFrequency) bool {
	switch freq {
	case models.BackupDaily:
		return last.Before(now.AddDate(0, 0, -1))
	case models.BackupMonthly:
		last = last.In(now.Location())
		return last.Year() != now.Year() || last.Month() != now.Month()
	default:
		return last.Before(now.AddDate(0, 0, -7))
	}
}
