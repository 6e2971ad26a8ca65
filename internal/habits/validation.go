package habits

import (
	"strings"

	apperrors "github.com/julianstephens/stronghabit/internal/errors"
	"github.com/julianstephens/stronghabit/internal/models"
	"github.com/julianstephens/stronghabit/internal/utils"
)

// validateFields checks the user-editable fields shared by AddHabit and UpdateHabit.
func validateFields(op, name string, freq models.Frequency, days []models.Weekday, reminderEnabled bool, reminderTime string) error {
	if strings.TrimSpace(name) == "" {
		return apperrors.Validation(op, "habit name is required")
	}
	if !freq.Valid() {
		return apperrors.Validation(op, "invalid frequency %q (expected daily, weekly or monthly)", freq)
	}
	for _, d := range days {
		if _, ok := d.Time(); !ok {
			return apperrors.Validation(op, "invalid weekday %q", d)
		}
	}
	if reminderEnabled && !utils.ValidateTimeFormat(reminderTime) {
		return apperrors.Validation(op, "invalid reminder time %q (expected HH:MM)", reminderTime)
	}
	return nil
}

func validateInput(op string, in models.HabitInput) error {
	return validateFields(op, in.Name, in.Frequency, in.SelectedDays, in.ReminderEnabled, in.ReminderTime)
}

func validateHabit(op string, h models.Habit) error {
	return validateFields(op, h.Name, h.Frequency, h.SelectedDays, h.ReminderEnabled, h.ReminderTime)
}
