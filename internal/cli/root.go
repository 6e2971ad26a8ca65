package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/julianstephens/stronghabit/internal/backup"
	"github.com/julianstephens/stronghabit/internal/calendar"
	"github.com/julianstephens/stronghabit/internal/cloud"
	"github.com/julianstephens/stronghabit/internal/config"
	"github.com/julianstephens/stronghabit/internal/constants"
	apperrors "github.com/julianstephens/stronghabit/internal/errors"
	"github.com/julianstephens/stronghabit/internal/habits"
	"github.com/julianstephens/stronghabit/internal/keyring"
	"github.com/julianstephens/stronghabit/internal/logger"
	"github.com/julianstephens/stronghabit/internal/models"
	"github.com/julianstephens/stronghabit/internal/notifier"
	"github.com/julianstephens/stronghabit/internal/platform"
	"github.com/julianstephens/stronghabit/internal/settings"
	"github.com/julianstephens/stronghabit/internal/storage"
)

type Context struct {
	Ctx        context.Context
	Config     *config.Config
	ConfigPath string
	KV         storage.KV
	Clock      calendar.Clock

	Settings *settings.Service
	Habits   *habits.Store
	Backups  *backup.Manager
	Cloud    *cloud.Syncer
	Tray     Tray

	Confirm      platform.Confirmer
	PromptSecret func(ctx context.Context, title string) (string, error)
	LookupSecret func(accessKeyID string) (string, error)
	Out          io.Writer
}

// Tray shows a notification through stronghabit-tray right away.
type Tray interface {
	Notify(ctx context.Context, text string) error
}

// Deps overrides the collaborators NewContext would otherwise build.
type Deps struct {
	Clock     calendar.Clock
	Reminders habits.Reminders
	Tray      Tray
	Sharer    backup.Sharer
	Picker    backup.FilePicker
	Files     backup.FileStore
	Providers []cloud.Provider
	Confirm   platform.Confirmer
	Out       io.Writer
}

// NewContext wires the services over kv.
func NewContext(ctx context.Context, cfg *config.Config, configPath string, kv storage.KV, deps Deps) *Context {
	clock := deps.Clock
	if clock == nil {
		clock = calendar.SystemClock{}
	}
	out := deps.Out
	if out == nil {
		out = os.Stdout
	}

	settingsSvc := settings.NewService(kv)

	n := notifier.New(notifier.WithClock(clock), notifier.WithLocator(settingsSvc))
	var reminders habits.Reminders = n
	if deps.Reminders != nil {
		reminders = deps.Reminders
	}

	habitStore := habits.NewStore(kv,
		habits.WithReminders(reminders),
		habits.WithSettings(settingsSvc),
		habits.WithClock(clock),
	)

	files := deps.Files
	if files == nil {
		files = backup.NewOSFileStore(cfg.Backup.Dir)
	}
	sharer := deps.Sharer
	if sharer == nil {
		sharer = platform.NewClipboardSharer()
	}
	picker := deps.Picker
	if picker == nil {
		home, _ := os.UserHomeDir()
		picker = platform.NewHuhFilePicker(home)
	}
	backups := backup.NewManager(kv, files, habitStore,
		backup.WithAppVersion(constants.Version),
		backup.WithClock(clock),
		backup.WithSharer(sharer),
		backup.WithPicker(picker),
	)

	syncOpts := []cloud.Option{cloud.WithClock(clock)}
	if s3cfg := cfg.Cloud.S3; s3cfg.Configured() {
		syncOpts = append(syncOpts, cloud.WithProvider(cloud.NewS3Provider(cloud.S3Config{
			Bucket:      s3cfg.Bucket,
			Region:      s3cfg.Region,
			Endpoint:    s3cfg.Endpoint,
			AccessKeyID: s3cfg.AccessKeyID,
			Prefix:      s3cfg.Prefix,
		}, keyring.GetS3SecretKey)))
	}
	for _, p := range deps.Providers {
		syncOpts = append(syncOpts, cloud.WithProvider(p))
	}

	var tray Tray = n
	if deps.Tray != nil {
		tray = deps.Tray
	}

	confirm := deps.Confirm
	if confirm == nil {
		confirm = platform.HuhConfirmer{}
	}

	return &Context{
		Ctx:          ctx,
		Config:       cfg,
		ConfigPath:   configPath,
		KV:           kv,
		Clock:        clock,
		Settings:     settingsSvc,
		Habits:       habitStore,
		Backups:      backups,
		Cloud:        cloud.NewSyncer(kv, backups, syncOpts...),
		Tray:         tray,
		Confirm:      confirm,
		PromptSecret: platform.PromptSecret,
		LookupSecret: keyring.GetS3SecretKey,
		Out:          out,
	}
}

// RunScheduledJobs runs any due automatic backup and cloud sync. Failures are
// logged and never interrupt the command that triggered them.
func (c *Context) RunScheduledJobs() {
	if ran, err := c.Backups.RunAutoBackupIfNeeded(c.Ctx); err != nil {
		logger.Warn("Automatic backup failed", "error", err)
	} else if ran {
		logger.Debug("Automatic backup created")
	}

	if ran, err := c.Cloud.RunCloudSyncIfNeeded(c.Ctx); err != nil {
		logger.Warn("Automatic cloud sync failed", "error", err)
	} else if ran {
		logger.Debug("Automatic cloud sync completed")
	}
}

func (c *Context) printf(format string, args ...interface{}) {
	fmt.Fprintf(c.Out, format, args...)
}

func (c *Context) println(args ...interface{}) {
	fmt.Fprintln(c.Out, args...)
}

// confirm asks before a destructive action unless yes is set.
func (c *Context) confirm(yes bool, title, description string) (bool, error) {
	if yes {
		return true, nil
	}
	ok, err := c.Confirm.Confirm(c.Ctx, title, description)
	if err != nil {
		return false, err
	}
	if !ok {
		c.println(mutedStyle.Render("Cancelled."))
	}
	return ok, nil
}

// resolveHabit finds a habit by id, or by case-insensitive name.
func (c *Context) resolveHabit(ref string) (models.Habit, error) {
	const op = "cli.resolveHabit"
	all, err := c.Habits.GetHabits(c.Ctx)
	if err != nil {
		return models.Habit{}, err
	}

	for _, h := range all {
		if h.ID == ref {
			return h, nil
		}
	}

	var matches []models.Habit
	for _, h := range all {
		if strings.EqualFold(strings.TrimSpace(h.Name), strings.TrimSpace(ref)) {
			matches = append(matches, h)
		}
	}
	switch len(matches) {
	case 0:
		return models.Habit{}, apperrors.NotFound(op, "habit", ref)
	case 1:
		return matches[0], nil
	default:
		return models.Habit{}, apperrors.Validation(op, "%d habits are named %q, use the id instead", len(matches), ref)
	}
}

func (c *Context) location() *time.Location {
	loc, err := c.Settings.Location(c.Ctx)
	if err != nil {
		logger.Warn("Falling back to local time zone", "error", err)
		return time.Local
	}
	return loc
}

func (c *Context) today() calendar.Day {
	return calendar.Today(c.Clock, c.location())
}

// ParseWeekdays parses a comma-separated list of weekday names, abbreviations
// or numbers (0=Sunday, 6=Saturday).
func ParseWeekdays(s string) ([]models.Weekday, error) {
	dayMap := map[string]time.Weekday{
		"sun":       time.Sunday,
		"sunday":    time.Sunday,
		"mon":       time.Monday,
		"monday":    time.Monday,
		"tue":       time.Tuesday,
		"tuesday":   time.Tuesday,
		"wed":       time.Wednesday,
		"wednesday": time.Wednesday,
		"thu":       time.Thursday,
		"thursday":  time.Thursday,
		"fri":       time.Friday,
		"friday":    time.Friday,
		"sat":       time.Saturday,
		"saturday":  time.Saturday,
	}

	var days []models.Weekday
	seen := make(map[time.Weekday]bool)
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(strings.ToLower(part))
		if part == "" {
			continue
		}
		wd, ok := dayMap[part]
		if !ok {
			num, err := strconv.Atoi(part)
			if err != nil || num < 0 || num > 6 {
				return nil, fmt.Errorf("invalid weekday: %s", part)
			}
			wd = time.Weekday(num)
		}
		if seen[wd] {
			continue
		}
		seen[wd] = true
		days = append(days, models.WeekdayOf(wd))
	}
	return days, nil
}

// ParseOffset parses a UTC offset such as "+05:30", "-8", "UTC+1" or "0" into
// minutes east of UTC.
func ParseOffset(s string) (int, error) {
	raw := s
	s = strings.TrimSpace(strings.ToUpper(s))
	s = strings.TrimPrefix(s, "UTC")
	s = strings.TrimPrefix(s, "GMT")
	if s == "" || s == "0" || s == "Z" {
		return 0, nil
	}

	sign := 1
	switch s[0] {
	case '+':
		s = s[1:]
	case '-':
		sign = -1
		s = s[1:]
	}

	hours, minutes := s, "0"
	if i := strings.Index(s, ":"); i >= 0 {
		hours, minutes = s[:i], s[i+1:]
	}
	h, err := strconv.Atoi(hours)
	if err != nil || h < 0 {
		return 0, fmt.Errorf("invalid UTC offset %q", raw)
	}
	m, err := strconv.Atoi(minutes)
	if err != nil || m < 0 || m > 59 {
		return 0, fmt.Errorf("invalid UTC offset %q", raw)
	}
	return sign * (h*60 + m), nil
}
