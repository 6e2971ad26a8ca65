// Package habits owns the habit document: CRUD, completion logging, derived
// streaks, retention cleanup and validated restore.
//
// Every mutation reads the whole document, changes it in memory and writes it
// back under a single key. There is no locking; concurrent writers race and the
// last write wins.
package habits

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/julianstephens/stronghabit/internal/calendar"
	"github.com/julianstephens/stronghabit/internal/constants"
	apperrors "github.com/julianstephens/stronghabit/internal/errors"
	"github.com/julianstephens/stronghabit/internal/logger"
	"github.com/julianstephens/stronghabit/internal/models"
	"github.com/julianstephens/stronghabit/internal/storage"
)

// Reminders schedules and cancels habit reminders. Handles are opaque.
type Reminders interface {
	Schedule(ctx context.Context, habit models.Habit) (string, error)
	Cancel(ctx context.Context, handle string) error
}

// Preferences supplies the settings the store depends on.
type Preferences interface {
	NotificationsEnabled(ctx context.Context) (bool, error)
	Location(ctx context.Context) (*time.Location, error)
}

type Store struct {
	kv        storage.KV
	reminders Reminders
	prefs     Preferences
	clock     calendar.Clock
}

type Option func(*Store)

func WithReminders(r Reminders) Option {
	return func(s *Store) { s.reminders = r }
}

func WithSettings(p Preferences) Option {
	return func(s *Store) { s.prefs = p }
}

func WithClock(c calendar.Clock) Option {
	return func(s *Store) { s.clock = c }
}

func NewStore(kv storage.KV, opts ...Option) *Store {
	s := &Store{
		kv:    kv,
		clock: calendar.SystemClock{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Init writes an empty document if none exists yet.
func (s *Store) Init(ctx context.Context) error {
	_, found, err := s.load(ctx, "habits.Init")
	if err != nil {
		return err
	}
	if found {
		return nil
	}
	return s.save(ctx, "habits.Init", models.StorageDocument{Habits: []models.Habit{}})
}

// GetDocument returns the stored document, or an empty one when none exists.
func (s *Store) GetDocument(ctx context.Context) (models.StorageDocument, error) {
	doc, _, err := s.load(ctx, "habits.GetDocument")
	return doc, err
}

func (s *Store) GetHabits(ctx context.Context) ([]models.Habit, error) {
	doc, _, err := s.load(ctx, "habits.GetHabits")
	if err != nil {
		return nil, err
	}
	return doc.Habits, nil
}

func (s *Store) GetHabit(ctx context.Context, id string) (models.Habit, error) {
	doc, _, err := s.load(ctx, "habits.GetHabit")
	if err != nil {
		return models.Habit{}, err
	}
	idx := indexOf(doc.Habits, id)
	if idx < 0 {
		return models.Habit{}, apperrors.NotFound("habits.GetHabit", "habit", id)
	}
	return doc.Habits[idx], nil
}

func (s *Store) AddHabit(ctx context.Context, in models.HabitInput) (models.Habit, error) {
	const op = "habits.AddHabit"
	if err := validateInput(op, in); err != nil {
		return models.Habit{}, err
	}

	id, err := uuid.NewV7()
	if err != nil {
		return models.Habit{}, apperrors.Wrap(apperrors.ErrStorage, op, "failed to generate habit id", err)
	}

	now := s.clock.Now().UTC()
	habit := models.Habit{
		ID:              id.String(),
		Name:            in.Name,
		Description:     in.Description,
		Frequency:       in.Frequency,
		SelectedDays:    in.SelectedDays,
		Color:           in.Color,
		CreatedAt:       now,
		UpdatedAt:       now,
		ReminderEnabled: in.ReminderEnabled,
		ReminderTime:    in.ReminderTime,
		CompletionLogs:  []models.CompletionLog{},
	}

	doc, _, err := s.load(ctx, op)
	if err != nil {
		return models.Habit{}, err
	}

	habit.NotificationID = s.scheduleReminder(ctx, habit)
	doc.Habits = append(doc.Habits, habit)
	if err := s.save(ctx, op, doc); err != nil {
		s.cancelReminder(ctx, habit.NotificationID)
		return models.Habit{}, err
	}

	logger.Debug("Habit added", "id", habit.ID, "name", habit.Name)
	return habit, nil
}

// UpdateHabit replaces the editable fields of an existing habit. Creation
// time, completion history and streak are kept from the stored record.
func (s *Store) UpdateHabit(ctx context.Context, habit models.Habit) error {
	const op = "habits.UpdateHabit"
	if err := validateHabit(op, habit); err != nil {
		return err
	}

	doc, _, err := s.load(ctx, op)
	if err != nil {
		return err
	}
	idx := indexOf(doc.Habits, habit.ID)
	if idx < 0 {
		return apperrors.NotFound(op, "habit", habit.ID)
	}
	stored := doc.Habits[idx]

	// The old reminder stays live until the new record is saved.
	habit.NotificationID = s.scheduleReminder(ctx, habit)
	habit.CreatedAt = stored.CreatedAt
	habit.CompletionLogs = stored.CompletionLogs
	habit.Streak = stored.Streak
	habit.UpdatedAt = s.clock.Now().UTC()
	doc.Habits[idx] = habit

	if err := s.save(ctx, op, doc); err != nil {
		s.cancelReminder(ctx, habit.NotificationID)
		return err
	}
	s.cancelReminder(ctx, stored.NotificationID)
	return nil
}

// DeleteHabit removes a habit; an unknown id is a no-op.
func (s *Store) DeleteHabit(ctx context.Context, id string) error {
	const op = "habits.DeleteHabit"
	doc, _, err := s.load(ctx, op)
	if err != nil {
		return err
	}
	idx := indexOf(doc.Habits, id)
	if idx < 0 {
		return nil
	}

	handle := doc.Habits[idx].NotificationID
	doc.Habits = append(doc.Habits[:idx], doc.Habits[idx+1:]...)
	if err := s.save(ctx, op, doc); err != nil {
		return err
	}
	s.cancelReminder(ctx, handle)
	return nil
}

// UpdateHabitCompletion records day as completed or not, keeping at most one
// entry per calendar day, and recomputes the streak.
func (s *Store) UpdateHabitCompletion(ctx context.Context, habitID, day string, completed bool) error {
	const op = "habits.UpdateHabitCompletion"
	d, err := calendar.ParseDay(day)
	if err != nil {
		return apperrors.Validation(op, "invalid completion date %q", day)
	}

	doc, _, err := s.load(ctx, op)
	if err != nil {
		return err
	}
	idx := indexOf(doc.Habits, habitID)
	if idx < 0 {
		return apperrors.NotFound(op, "habit", habitID)
	}
	habit := &doc.Habits[idx]

	updated := false
	for i, l := range habit.CompletionLogs {
		if ld, err := l.Day(); err == nil && ld == d {
			habit.CompletionLogs[i] = models.CompletionLog{Date: d.String(), Completed: completed}
			updated = true
			break
		}
	}
	if !updated {
		habit.CompletionLogs = append(habit.CompletionLogs, models.CompletionLog{Date: d.String(), Completed: completed})
	}

	habit.Streak = CalculateStreak(habit.CompletionLogs)
	habit.UpdatedAt = s.clock.Now().UTC()
	return s.save(ctx, op, doc)
}

// CleanupOldData drops habits created before the retention window and log
// entries older than it, then recomputes streaks.
func (s *Store) CleanupOldData(ctx context.Context) error {
	const op = "habits.CleanupOldData"
	doc, _, err := s.load(ctx, op)
	if err != nil {
		return err
	}

	now := s.clock.Now()
	cutoff := now.AddDate(0, 0, -constants.DataRetentionDays)
	cutoffDay := calendar.Today(s.clock, s.location(ctx)).AddDays(-constants.DataRetentionDays)

	kept := make([]models.Habit, 0, len(doc.Habits))
	for _, h := range doc.Habits {
		if h.CreatedAt.Before(cutoff) {
			logger.Debug("Dropping habit past retention", "id", h.ID, "createdAt", h.CreatedAt)
			continue
		}
		logs := make([]models.CompletionLog, 0, len(h.CompletionLogs))
		for _, l := range h.CompletionLogs {
			if d, err := l.Day(); err == nil && !d.Before(cutoffDay) {
				logs = append(logs, l)
			}
		}
		h.CompletionLogs = logs
		h.Streak = CalculateStreak(logs)
		kept = append(kept, h)
	}
	doc.Habits = kept

	return s.save(ctx, op, doc)
}

// RestoreData validates serialized and replaces the stored document with it.
// Invalid input leaves the stored document untouched.
func (s *Store) RestoreData(ctx context.Context, serialized string) (bool, error) {
	const op = "habits.RestoreData"
	doc, err := parseRestoreDocument(serialized)
	if err != nil {
		return false, err
	}

	doc = migrateDocument(doc)
	for i := range doc.Habits {
		doc.Habits[i].Streak = CalculateStreak(doc.Habits[i].CompletionLogs)
	}

	if err := s.save(ctx, op, doc); err != nil {
		return false, err
	}
	logger.Info("Habit data restored", "habits", len(doc.Habits))
	return true, nil
}

func (s *Store) load(ctx context.Context, op string) (models.StorageDocument, bool, error) {
	raw, found, err := s.kv.Get(ctx, constants.StorageKeyHabits)
	if err != nil {
		return models.StorageDocument{}, false, apperrors.Storage(op, err)
	}
	if !found {
		return models.StorageDocument{
			Habits:  []models.Habit{},
			Version: constants.DocumentVersion,
		}, false, nil
	}

	var doc models.StorageDocument
	if err := json.Unmarshal([]byte(raw), &doc); err != nil {
		return models.StorageDocument{}, false, apperrors.Wrap(apperrors.ErrStorageRead, op, "failed to parse stored habits", err)
	}
	if doc.Habits == nil {
		doc.Habits = []models.Habit{}
	}
	return doc, true, nil
}

func (s *Store) save(ctx context.Context, op string, doc models.StorageDocument) error {
	if doc.Habits == nil {
		doc.Habits = []models.Habit{}
	}
	for i := range doc.Habits {
		if doc.Habits[i].CompletionLogs == nil {
			doc.Habits[i].CompletionLogs = []models.CompletionLog{}
		}
	}
	if doc.Version == 0 {
		doc.Version = constants.DocumentVersion
	}
	doc.LastUpdated = s.clock.Now().UTC()

	data, err := json.Marshal(doc)
	if err != nil {
		return apperrors.Wrap(apperrors.ErrStorage, op, "failed to encode habits", err)
	}
	if err := s.kv.Set(ctx, constants.StorageKeyHabits, string(data)); err != nil {
		return apperrors.Storage(op, err)
	}
	return nil
}

func (s *Store) scheduleReminder(ctx context.Context, habit models.Habit) string {
	if s.reminders == nil || !habit.ReminderEnabled || habit.ReminderTime == "" {
		return ""
	}
	if s.prefs != nil {
		enabled, err := s.prefs.NotificationsEnabled(ctx)
		if err != nil {
			logger.Warn("Failed to read notification setting", "error", err)
			return ""
		}
		if !enabled {
			return ""
		}
	}

	handle, err := s.reminders.Schedule(ctx, habit)
	if err != nil {
		logger.Warn("Failed to schedule reminder", "habit", habit.ID, "error", err)
		return ""
	}
	return handle
}

func (s *Store) cancelReminder(ctx context.Context, handle string) {
	if s.reminders == nil || handle == "" {
		return
	}
	if err := s.reminders.Cancel(ctx, handle); err != nil {
		logger.Warn("Failed to cancel reminder", "handle", handle, "error", err)
	}
}

func (s *Store) location(ctx context.Context) *time.Location {
	if s.prefs == nil {
		return time.Local
	}
	loc, err := s.prefs.Location(ctx)
	if err != nil || loc == nil {
		return time.Local
	}
	return loc
}

func indexOf(habits []models.Habit, id string) int {
	for i, h := range habits {
		if h.ID == id {
			return i
		}
	}
	return -1
}
