package backup

import (
	"context"
	"encoding/json"
	"sort"
	"strings"
	"time"

	"github.com/julianstephens/stronghabit/internal/constants"
	apperrors "github.com/julianstephens/stronghabit/internal/errors"
	"github.com/julianstephens/stronghabit/internal/logger"
	"github.com/julianstephens/stronghabit/internal/models"
)

func (m *Manager) GetAutoBackupConfig(ctx context.Context) (models.AutoBackupConfig, error) {
	const op = "backup.GetAutoBackupConfig"
	raw, found, err := m.kv.Get(ctx, constants.StorageKeyAutoBackupConfig)
	if err != nil {
		return models.AutoBackupConfig{}, apperrors.Storage(op, err)
	}
	cfg := models.DefaultAutoBackupConfig()
	if !found {
		return cfg, nil
	}
	if err := json.Unmarshal([]byte(raw), &cfg); err != nil {
		return models.AutoBackupConfig{}, apperrors.Wrap(apperrors.ErrStorageRead, op, "auto backup config is unreadable", err)
	}
	if !cfg.Frequency.Valid() {
		cfg.Frequency = models.BackupWeekly
	}
	return cfg, nil
}

func (m *Manager) SetAutoBackupConfig(ctx context.Context, cfg models.AutoBackupConfig) error {
	const op = "backup.SetAutoBackupConfig"
	if !cfg.Frequency.Valid() {
		return apperrors.Validation(op, "invalid backup frequency %q", cfg.Frequency)
	}

	data, err := json.Marshal(cfg)
	if err != nil {
		return apperrors.Wrap(apperrors.ErrStorage, op, "failed to encode config", err)
	}
	if err := m.kv.Set(ctx, constants.StorageKeyAutoBackupConfig, string(data)); err != nil {
		return apperrors.Storage(op, err)
	}
	return nil
}

func (m *Manager) recordBackupTime(ctx context.Context, at time.Time) error {
	cfg, err := m.GetAutoBackupConfig(ctx)
	if err != nil {
		return err
	}
	cfg.LastBackupDate = &at
	return m.SetAutoBackupConfig(ctx, cfg)
}

// ShouldRunAutoBackup reports whether automatic backups are enabled and due.
func (m *Manager) ShouldRunAutoBackup(ctx context.Context) (bool, error) {
	cfg, err := m.GetAutoBackupConfig(ctx)
	if err != nil {
		return false, err
	}
	if !cfg.Enabled {
		return false, nil
	}
	if cfg.LastBackupDate == nil {
		return true, nil
	}
	return IsDue(*cfg.LastBackupDate, m.clock.Now(), cfg.Frequency), nil
}

// RunAutoBackupIfNeeded creates an auto backup when one is due and prunes
// older auto backups down to the configured retention.
func (m *Manager) RunAutoBackupIfNeeded(ctx context.Context) (bool, error) {
	due, err := m.ShouldRunAutoBackup(ctx)
	if err != nil || !due {
		return false, err
	}

	cfg, err := m.GetAutoBackupConfig(ctx)
	if err != nil {
		return false, err
	}
	if _, err := m.CreateBackup(ctx, constants.BackupLabelAuto); err != nil {
		return false, err
	}

	if err := m.rotateAutoBackups(ctx, cfg.Retention); err != nil {
		logger.Warn("Failed to rotate auto backups", "error", err)
	}
	return true, nil
}

// rotateAutoBackups deletes the oldest auto backups until retention remain.
// A failed delete is logged and the loop continues.
func (m *Manager) rotateAutoBackups(ctx context.Context, retention int) error {
	if retention < 1 {
		retention = 1
	}

	backups, err := m.GetBackups(ctx)
	if err != nil {
		return err
	}

	var auto []models.BackupMetadata
	for _, b := range backups {
		if strings.Contains(b.FileName, constants.BackupLabelAuto) {
			auto = append(auto, b)
		}
	}
	if len(auto) <= retention {
		return nil
	}

	sort.SliceStable(auto, func(i, j int) bool {
		return auto[i].CreatedAt.Before(auto[j].CreatedAt)
	})
	for _, b := range auto[:len(auto)-retention] {
		if err := m.DeleteBackup(ctx, b.FileName); err != nil {
			logger.Warn("Failed to delete old auto backup", "file", b.FileName, "error", err)
			continue
		}
		logger.Debug("Deleted old auto backup", "file", b.FileName)
	}
	return nil
}
