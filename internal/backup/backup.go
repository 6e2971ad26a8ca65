// Package backup snapshots the habit document to portable JSON files,
// lists and prunes them, and restores from them.
package backup

import (
	"context"
	"encoding/json"
	"errors"
	"io/fs"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/julianstephens/stronghabit/internal/calendar"
	"github.com/julianstephens/stronghabit/internal/constants"
	apperrors "github.com/julianstephens/stronghabit/internal/errors"
	"github.com/julianstephens/stronghabit/internal/logger"
	"github.com/julianstephens/stronghabit/internal/models"
	"github.com/julianstephens/stronghabit/internal/storage"
)

// Restorer validates a serialized document and replaces the stored one.
type Restorer interface {
	RestoreData(ctx context.Context, serialized string) (bool, error)
}

// Sharer hands a backup file to the platform's share mechanism.
type Sharer interface {
	CanShare() bool
	Share(ctx context.Context, path string, data []byte) error
}

// FilePicker asks the user for a file. ok is false when the user cancelled.
type FilePicker interface {
	PickFile(ctx context.Context) (path string, ok bool, err error)
}

// Manager handles backup operations
type Manager struct {
	kv         storage.KV
	files      FileStore
	restorer   Restorer
	sharer     Sharer
	picker     FilePicker
	clock      calendar.Clock
	appVersion string
}

type Option func(*Manager)

func WithAppVersion(v string) Option {
	return func(m *Manager) { m.appVersion = v }
}

func WithClock(c calendar.Clock) Option {
	return func(m *Manager) { m.clock = c }
}

func WithSharer(s Sharer) Option {
	return func(m *Manager) { m.sharer = s }
}

func WithPicker(p FilePicker) Option {
	return func(m *Manager) { m.picker = p }
}

// NewManager creates a new backup manager
func NewManager(kv storage.KV, files FileStore, restorer Restorer, opts ...Option) *Manager {
	m := &Manager{
		kv:         kv,
		files:      files,
		restorer:   restorer,
		clock:      calendar.SystemClock{},
		appVersion: constants.Version,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// GetBackupDir returns the backup directory path
func (m *Manager) GetBackupDir() string {
	return m.files.Dir()
}

// InitializeBackupSystem creates the backup directory if it doesn't exist
func (m *Manager) InitializeBackupSystem(ctx context.Context) error {
	if err := m.files.MkdirAll(); err != nil {
		return apperrors.Wrap(apperrors.ErrStorage, "backup.InitializeBackupSystem", "failed to create backup directory", err)
	}
	return nil
}

// CreateBackup writes the current habit document to a new backup file.
// label becomes the file name prefix; empty uses the default prefix.
func (m *Manager) CreateBackup(ctx context.Context, label string) (models.BackupMetadata, error) {
	const op = "backup.CreateBackup"

	raw, found, err := m.kv.Get(ctx, constants.StorageKeyHabits)
	if err != nil {
		return models.BackupMetadata{}, apperrors.Storage(op, err)
	}
	if !found {
		return models.BackupMetadata{}, apperrors.New(apperrors.ErrNoData, op, "")
	}
	var doc models.StorageDocument
	if err := json.Unmarshal([]byte(raw), &doc); err != nil {
		return models.BackupMetadata{}, apperrors.Wrap(apperrors.ErrStorageRead, op, "stored habits are unreadable", err)
	}

	now := m.clock.Now().UTC()
	envelope := models.BackupEnvelope{
		AppVersion: m.appVersion,
		ExportDate: &now,
		Data:       json.RawMessage(raw),
	}
	data, err := json.MarshalIndent(envelope, "", "  ")
	if err != nil {
		return models.BackupMetadata{}, apperrors.Wrap(apperrors.ErrStorage, op, "failed to encode backup", err)
	}

	if err := m.InitializeBackupSystem(ctx); err != nil {
		return models.BackupMetadata{}, err
	}

	name := backupFileName(label, now)
	if err := m.files.WriteFile(name, data); err != nil {
		return models.BackupMetadata{}, apperrors.Wrap(apperrors.ErrStorage, op, "failed to write backup file", err)
	}
	size, err := m.files.Stat(name)
	if err != nil {
		size = int64(len(data))
	}

	if err := m.recordBackupTime(ctx, now); err != nil {
		logger.Warn("Failed to record last backup time", "error", err)
	}

	logger.Info("Backup created", "file", name, "habits", len(doc.Habits))
	return models.BackupMetadata{
		ID:         strconv.FormatInt(now.UnixMilli(), 10),
		FileName:   name,
		CreatedAt:  now,
		HabitCount: len(doc.Habits),
		Size:       size,
	}, nil
}

// GetBackups lists readable backups, newest first. Files that cannot be
// parsed are skipped.
func (m *Manager) GetBackups(ctx context.Context) ([]models.BackupMetadata, error) {
	names, err := m.files.ReadDir()
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return []models.BackupMetadata{}, nil
		}
		return nil, apperrors.Wrap(apperrors.ErrStorage, "backup.GetBackups", "failed to read backup directory", err)
	}

	backups := make([]models.BackupMetadata, 0, len(names))
	for _, name := range names {
		if !strings.HasSuffix(name, constants.BackupFileSuffix) {
			continue
		}
		meta, err := m.readMetadata(name)
		if err != nil {
			logger.Warn("Skipping unreadable backup", "file", name, "error", err)
			continue
		}
		backups = append(backups, meta)
	}

	sort.SliceStable(backups, func(i, j int) bool {
		return backups[i].CreatedAt.After(backups[j].CreatedAt)
	})
	return backups, nil
}

func (m *Manager) readMetadata(name string) (models.BackupMetadata, error) {
	data, err := m.files.ReadFile(name)
	if err != nil {
		return models.BackupMetadata{}, err
	}
	envelope, err := parseEnvelope(data)
	if err != nil {
		return models.BackupMetadata{}, err
	}

	var doc struct {
		Habits []json.RawMessage `json:"habits"`
	}
	if err := json.Unmarshal(envelope.Data, &doc); err != nil {
		return models.BackupMetadata{}, err
	}

	size, err := m.files.Stat(name)
	if err != nil {
		size = int64(len(data))
	}

	return models.BackupMetadata{
		ID:         strconv.FormatInt(envelope.ExportDate.UnixMilli(), 10),
		FileName:   name,
		CreatedAt:  *envelope.ExportDate,
		HabitCount: len(doc.Habits),
		Size:       size,
	}, nil
}

// DeleteBackup removes a backup file. A file that is already gone is not an error.
func (m *Manager) DeleteBackup(ctx context.Context, fileName string) error {
	const op = "backup.DeleteBackup"
	if err := validateFileName(op, fileName); err != nil {
		return err
	}

	if err := m.files.Remove(fileName); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return apperrors.Wrap(apperrors.ErrNotFound, op, "failed to delete backup "+fileName, err)
	}
	return nil
}

// ShareBackup passes the backup file to the configured sharer.
func (m *Manager) ShareBackup(ctx context.Context, fileName string) error {
	const op = "backup.ShareBackup"
	data, err := m.ReadBackup(ctx, fileName)
	if err != nil {
		return err
	}

	if m.sharer == nil || !m.sharer.CanShare() {
		return apperrors.New(apperrors.ErrSharingUnavailable, op, "")
	}
	if err := m.sharer.Share(ctx, m.files.Path(fileName), data); err != nil {
		if apperrors.Is(err, apperrors.ErrSharingUnavailable) {
			return err
		}
		return apperrors.Wrap(apperrors.ErrSharingUnavailable, op, "failed to share backup", err)
	}
	return nil
}

// ImportBackup lets the user pick a backup file and restores from it. It
// returns false when the user cancelled. After a successful restore a copy is
// kept in the backup directory under a fresh import name; failing to write
// that copy does not fail the import.
func (m *Manager) ImportBackup(ctx context.Context) (bool, error) {
	const op = "backup.ImportBackup"
	if m.picker == nil {
		return false, apperrors.Validation(op, "no file picker available")
	}

	path, ok, err := m.picker.PickFile(ctx)
	if err != nil {
		return false, apperrors.Wrap(apperrors.ErrFileNotFound, op, "file selection failed", err)
	}
	if !ok {
		return false, nil
	}

	raw, err := m.files.ReadPath(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return false, apperrors.FileNotFound(op, path)
		}
		return false, apperrors.Wrap(apperrors.ErrStorage, op, "failed to read picked file", err)
	}

	restored, err := m.RestoreFromBytes(ctx, raw)
	if err != nil || !restored {
		return restored, err
	}
	m.keepImportCopy(ctx, raw)
	return true, nil
}

// keepImportCopy stores raw as import-<timestamp>.json.
func (m *Manager) keepImportCopy(ctx context.Context, raw []byte) {
	if err := m.InitializeBackupSystem(ctx); err != nil {
		logger.Warn("Failed to keep imported backup", "error", err)
		return
	}
	name := backupFileName(importPrefix, m.clock.Now())
	if exists, err := m.files.Exists(name); err != nil || exists {
		logger.Warn("Skipped keeping imported backup", "file", name, "exists", exists, "error", err)
		return
	}
	if err := m.files.WriteFile(name, raw); err != nil {
		logger.Warn("Failed to keep imported backup", "file", name, "error", err)
		return
	}
	logger.Debug("Kept imported backup", "file", name)
}

// RestoreFromFile restores the habit document from a file in the backup directory.
func (m *Manager) RestoreFromFile(ctx context.Context, fileName string) (bool, error) {
	data, err := m.ReadBackup(ctx, fileName)
	if err != nil {
		return false, err
	}
	return m.RestoreFromBytes(ctx, data)
}

// ReadBackup returns the raw contents of a backup file.
func (m *Manager) ReadBackup(ctx context.Context, fileName string) ([]byte, error) {
	const op = "backup.ReadBackup"
	if err := validateFileName(op, fileName); err != nil {
		return nil, err
	}

	data, err := m.files.ReadFile(fileName)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, apperrors.FileNotFound(op, fileName)
		}
		return nil, apperrors.Wrap(apperrors.ErrStorage, op, "failed to read backup", err)
	}
	return data, nil
}

// RestoreFromBytes validates a backup envelope and restores its document.
func (m *Manager) RestoreFromBytes(ctx context.Context, raw []byte) (bool, error) {
	envelope, err := parseEnvelope(raw)
	if err != nil {
		return false, err
	}
	return m.restorer.RestoreData(ctx, string(envelope.Data))
}

func parseEnvelope(raw []byte) (models.BackupEnvelope, error) {
	const op = "backup.parseEnvelope"
	var envelope models.BackupEnvelope
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return envelope, apperrors.InvalidFormat(op, "backup is not valid JSON: %v", err)
	}
	data := strings.TrimSpace(string(envelope.Data))
	if data == "" || data == "null" {
		return envelope, apperrors.InvalidFormat(op, "backup has no data")
	}
	if envelope.ExportDate == nil {
		return envelope, apperrors.InvalidFormat(op, "backup has no exportDate")
	}
	return envelope, nil
}

const importPrefix = "import"

var (
	labelInvalidChars = regexp.MustCompile(`[^\w\s-]`)
	labelWhitespace   = regexp.MustCompile(`\s+`)
)

// backupFileName builds {prefix}-{timestamp}.json
func backupFileName(label string, at time.Time) string {
	prefix := labelInvalidChars.ReplaceAllString(label, "")
	prefix = labelWhitespace.ReplaceAllString(strings.TrimSpace(prefix), "-")
	if prefix == "" {
		prefix = constants.DefaultBackupPrefix
	}

	stamp := at.UTC().Format("2006-01-02T15:04:05.000Z")
	stamp = strings.NewReplacer(":", "-", ".", "-").Replace(stamp)
	return prefix + "-" + stamp + constants.BackupFileSuffix
}

func validateFileName(op, name string) error {
	if name == "" || name == "." || strings.Contains(name, "..") || strings.ContainsAny(name, `/\`) {
		return apperrors.Validation(op, "invalid backup file name %q", name)
	}
	return nil
}
