package habits

import (
	"bytes"
	"encoding/json"
	"strings"
	"time"

	"github.com/julianstephens/stronghabit/internal/calendar"
	apperrors "github.com/julianstephens/stronghabit/internal/errors"
	"github.com/julianstephens/stronghabit/internal/models"
)

var requiredHabitFields = []string{"id", "name", "frequency", "createdAt", "completionLogs"}

// parseRestoreDocument decodes and validates a serialized document before it
// is allowed to replace the stored one.
func parseRestoreDocument(serialized string) (models.StorageDocument, error) {
	const op = "habits.RestoreData"

	var raw struct {
		Habits      json.RawMessage `json:"habits"`
		LastUpdated *time.Time      `json:"lastUpdated"`
		Version     int             `json:"version"`
	}
	if err := json.Unmarshal([]byte(serialized), &raw); err != nil {
		return models.StorageDocument{}, apperrors.Validation(op, "document is not valid JSON: %v", err)
	}
	if !isJSONArray(raw.Habits) {
		return models.StorageDocument{}, apperrors.Validation(op, "document has no habits array")
	}

	var rawHabits []map[string]json.RawMessage
	if err := json.Unmarshal(raw.Habits, &rawHabits); err != nil {
		return models.StorageDocument{}, apperrors.Validation(op, "habits must be objects: %v", err)
	}
	for i, h := range rawHabits {
		for _, field := range requiredHabitFields {
			v, ok := h[field]
			if !ok || bytes.Equal(bytes.TrimSpace(v), []byte("null")) {
				return models.StorageDocument{}, apperrors.Validation(op, "habit %d is missing %q", i, field)
			}
		}
		if !isJSONArray(h["completionLogs"]) {
			return models.StorageDocument{}, apperrors.Validation(op, "habit %d completionLogs must be an array", i)
		}
	}

	var habits []models.Habit
	if err := json.Unmarshal(raw.Habits, &habits); err != nil {
		return models.StorageDocument{}, apperrors.Validation(op, "habits have invalid field types: %v", err)
	}

	seenIDs := make(map[string]struct{}, len(habits))
	for i, h := range habits {
		if strings.TrimSpace(h.ID) == "" {
			return models.StorageDocument{}, apperrors.Validation(op, "habit %d has an empty id", i)
		}
		if _, dup := seenIDs[h.ID]; dup {
			return models.StorageDocument{}, apperrors.Validation(op, "duplicate habit id %q", h.ID)
		}
		seenIDs[h.ID] = struct{}{}

		if strings.TrimSpace(h.Name) == "" {
			return models.StorageDocument{}, apperrors.Validation(op, "habit %q has an empty name", h.ID)
		}
		if !h.Frequency.Valid() {
			return models.StorageDocument{}, apperrors.Validation(op, "habit %q has invalid frequency %q", h.ID, h.Frequency)
		}
		if h.CreatedAt.IsZero() {
			return models.StorageDocument{}, apperrors.Validation(op, "habit %q has no createdAt", h.ID)
		}

		for j, d := range h.SelectedDays {
			norm := models.Weekday(strings.ToLower(strings.TrimSpace(string(d))))
			if _, ok := norm.Time(); !ok {
				return models.StorageDocument{}, apperrors.Validation(op, "habit %q has invalid weekday %q", h.ID, d)
			}
			habits[i].SelectedDays[j] = norm
		}

		seenDays := make(map[calendar.Day]struct{}, len(h.CompletionLogs))
		for _, l := range h.CompletionLogs {
			d, err := l.Day()
			if err != nil {
				return models.StorageDocument{}, apperrors.Validation(op, "habit %q has an invalid log date %q", h.ID, l.Date)
			}
			if _, dup := seenDays[d]; dup {
				return models.StorageDocument{}, apperrors.Validation(op, "habit %q has more than one log for %s", h.ID, d)
			}
			seenDays[d] = struct{}{}
		}
	}

	doc := models.StorageDocument{
		Habits:  habits,
		Version: raw.Version,
	}
	if raw.LastUpdated != nil {
		doc.LastUpdated = *raw.LastUpdated
	}
	return doc, nil
}

func isJSONArray(v json.RawMessage) bool {
	v = bytes.TrimSpace(v)
	return len(v) > 0 && v[0] == '['
}
