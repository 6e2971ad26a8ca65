// Package notifier delivers habit reminders through the desktop tray app.
// The tray app owns the timers; this package registers and cancels them over
// its local webhook.
package notifier

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/mitchellh/go-ps"

	"github.com/julianstephens/stronghabit/internal/calendar"
	"github.com/julianstephens/stronghabit/internal/constants"
	"github.com/julianstephens/stronghabit/internal/logger"
	"github.com/julianstephens/stronghabit/internal/models"
	"github.com/julianstephens/stronghabit/internal/utils"
)

var (
	userConfigDirFunc = os.UserConfigDir
	findProcessFunc   = ps.FindProcess
)

// ErrTrayNotRunning is returned when no tray app is available to receive reminders
var ErrTrayNotRunning = errors.New("stronghabit-tray is not running")

// Locator resolves the zone reminder times are interpreted in.
type Locator interface {
	Location(ctx context.Context) (*time.Location, error)
}

// Notifier schedules reminders with the tray app.
type Notifier struct {
	clock   calendar.Clock
	locator Locator
	client  *http.Client
}

type Option func(*Notifier)

func WithClock(c calendar.Clock) Option {
	return func(n *Notifier) { n.clock = c }
}

func WithLocator(l Locator) Option {
	return func(n *Notifier) { n.locator = l }
}

func New(opts ...Option) *Notifier {
	n := &Notifier{
		clock:  calendar.SystemClock{},
		client: &http.Client{Timeout: 5 * time.Second},
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// ReminderPayload registers a repeating reminder with the tray app.
type ReminderPayload struct {
	ID        string   `json:"id"`
	Text      string   `json:"text"`
	Time      string   `json:"time"`
	FirstFire string   `json:"first_fire"`
	Repeat    string   `json:"repeat"`
	Weekdays  []string `json:"weekdays,omitempty"`
}

// WebhookPayload shows a notification immediately.
type WebhookPayload struct {
	Text       string `json:"text"`
	DurationMs uint32 `json:"duration_ms"`
}

// Schedule registers a reminder for habit and returns its handle.
func (n *Notifier) Schedule(ctx context.Context, habit models.Habit) (string, error) {
	loc := time.Local
	if n.locator != nil {
		l, err := n.locator.Location(ctx)
		if err != nil {
			return "", err
		}
		loc = l
	}

	first, err := utils.NextOccurrence(habit.ReminderTime, n.clock.Now(), loc)
	if err != nil {
		return "", err
	}

	id, err := uuid.NewV7()
	if err != nil {
		return "", fmt.Errorf("failed to generate reminder id: %w", err)
	}

	payload := ReminderPayload{
		ID:        id.String(),
		Text:      "Time for " + habit.Name,
		Time:      habit.ReminderTime,
		FirstFire: first.Format(time.RFC3339),
		Repeat:    string(habit.Frequency),
	}
	if habit.Frequency == models.FrequencyWeekly {
		for _, d := range habit.SelectedDays {
			payload.Weekdays = append(payload.Weekdays, string(d))
		}
	}

	if err := n.send(ctx, http.MethodPost, "/reminders", payload); err != nil {
		return "", err
	}
	logger.Debug("Reminder scheduled", "habit", habit.ID, "handle", payload.ID, "first", payload.FirstFire)
	return payload.ID, nil
}

// Cancel removes a previously scheduled reminder.
func (n *Notifier) Cancel(ctx context.Context, handle string) error {
	return n.send(ctx, http.MethodDelete, "/reminders/"+handle, nil)
}

// Notify shows text immediately.
func (n *Notifier) Notify(ctx context.Context, text string) error {
	return n.send(ctx, http.MethodPost, "/", WebhookPayload{
		Text:       text,
		DurationMs: constants.NotificationDuration,
	})
}

func (n *Notifier) send(ctx context.Context, method, path string, payload interface{}) error {
	trayAppConfigPath, err := GetTrayAppConfigDir()
	if err != nil {
		return err
	}

	port, secret, err := findAndValidateTrayProcess(filepath.Join(trayAppConfigPath, constants.NotifierLockfileName))
	if err != nil {
		return err
	}

	var lastErr error
	for attempt := 0; attempt < constants.NotifyMaxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(constants.NotifyRetryDelay):
			}
		}
		lastErr = n.sendRequest(ctx, method, port, path, secret, payload)
		if lastErr == nil {
			return nil
		}
		var rejected *rejectedError
		if errors.As(lastErr, &rejected) && rejected.status < 500 {
			return lastErr
		}
	}
	return lastErr
}

// GetTrayAppConfigDir returns the configuration directory used by the tray application.
func GetTrayAppConfigDir() (string, error) {
	configDir, err := userConfigDirFunc()
	if err != nil {
		return "", fmt.Errorf("failed to get user config dir: %w", err)
	}

	trayConfigDir := filepath.Join(configDir, constants.TrayAppIdentifier)

	// settings.json may point the lockfile somewhere else
	data, err := os.ReadFile(filepath.Join(trayConfigDir, "settings.json"))
	if err == nil {
		var store struct {
			Settings struct {
				LockfileDir *string `json:"lockfile_dir"`
			} `json:"settings"`
		}
		if err := json.Unmarshal(data, &store); err == nil {
			if store.Settings.LockfileDir != nil && *store.Settings.LockfileDir != "" {
				return *store.Settings.LockfileDir, nil
			}
		}
	}

	return trayConfigDir, nil
}

// findAndValidateTrayProcess reads the port|pid|secret lockfile and checks
// that the pid belongs to the tray app.
func findAndValidateTrayProcess(lockfilePath string) (string, string, error) {
	content, err := os.ReadFile(lockfilePath)
	if err != nil {
		return "", "", ErrTrayNotRunning
	}

	parts := strings.Split(strings.TrimSpace(string(content)), "|")
	if len(parts) != 3 {
		return "", "", errors.New("lockfile is malformed")
	}

	port := strings.TrimSpace(parts[0])
	if port == "" {
		return "", "", errors.New("port in lockfile is empty")
	}
	portNum, err := strconv.Atoi(port)
	if err != nil {
		return "", "", errors.New("invalid port number in lockfile")
	}
	if portNum < 1 || portNum > 65535 {
		return "", "", fmt.Errorf("port number %d is outside valid range (1-65535)", portNum)
	}

	pid, err := strconv.Atoi(parts[1])
	if err != nil {
		return "", "", errors.New("invalid process ID in lockfile")
	}
	secret := strings.TrimSpace(parts[2])
	if secret == "" {
		return "", "", errors.New("secret in lockfile is empty")
	}

	process, err := findProcessFunc(pid)
	if err != nil || process == nil {
		return "", "", ErrTrayNotRunning
	}
	if !strings.HasPrefix(process.Executable(), constants.TrayExecutableName) {
		return "", "", fmt.Errorf("process with PID %d is not %s (is %s)", pid, constants.TrayExecutableName, process.Executable())
	}

	return port, secret, nil
}

type rejectedError struct {
	status int
	body   string
}

func (e *rejectedError) Error() string {
	return fmt.Sprintf("tray app rejected request with status %d: %s", e.status, e.body)
}

func (n *Notifier) sendRequest(ctx context.Context, method, port, path, secret string, payload interface{}) error {
	url := fmt.Sprintf("http://127.0.0.1:%s%s", port, path)

	var body io.Reader
	if payload != nil {
		jsonData, err := json.Marshal(payload)
		if err != nil {
			return err
		}
		body = bytes.NewReader(jsonData)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return err
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set(constants.TraySecretHeader, secret)

	res, err := n.client.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()

	if res.StatusCode >= 200 && res.StatusCode < 300 {
		return nil
	}

	msg, _ := io.ReadAll(res.Body)
	return &rejectedError{status: res.StatusCode, body: string(msg)}
}
