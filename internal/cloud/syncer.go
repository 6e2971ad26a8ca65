package cloud

import (
	"context"
	"encoding/json"

	"github.com/julianstephens/stronghabit/internal/backup"
	"github.com/julianstephens/stronghabit/internal/calendar"
	"github.com/julianstephens/stronghabit/internal/constants"
	apperrors "github.com/julianstephens/stronghabit/internal/errors"
	"github.com/julianstephens/stronghabit/internal/logger"
	"github.com/julianstephens/stronghabit/internal/models"
	"github.com/julianstephens/stronghabit/internal/storage"
)

// Backups is the part of the backup manager the syncer drives.
type Backups interface {
	CreateBackup(ctx context.Context, label string) (models.BackupMetadata, error)
	ReadBackup(ctx context.Context, fileName string) ([]byte, error)
	RestoreFromBytes(ctx context.Context, raw []byte) (bool, error)
}

// Syncer persists the cloud config and pushes/pulls backups through the
// selected provider.
type Syncer struct {
	kv        storage.KV
	backups   Backups
	providers map[models.CloudProvider]Provider
	clock     calendar.Clock
}

type Option func(*Syncer)

// WithProvider registers p under its kind, replacing any default.
func WithProvider(p Provider) Option {
	return func(s *Syncer) { s.providers[p.Kind()] = p }
}

func WithClock(c calendar.Clock) Option {
	return func(s *Syncer) { s.clock = c }
}

func NewSyncer(kv storage.KV, backups Backups, opts ...Option) *Syncer {
	s := &Syncer{
		kv:      kv,
		backups: backups,
		providers: map[models.CloudProvider]Provider{
			models.ProviderGoogleDrive: NewNoopProvider(models.ProviderGoogleDrive),
			models.ProviderDropbox:     NewNoopProvider(models.ProviderDropbox),
			models.ProviderICloud:      NewNoopProvider(models.ProviderICloud),
		},
		clock: calendar.SystemClock{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Syncer) GetCloudConfig(ctx context.Context) (models.CloudBackupConfig, error) {
	const op = "cloud.GetCloudConfig"
	raw, found, err := s.kv.Get(ctx, constants.StorageKeyCloudBackupConfig)
	if err != nil {
		return models.CloudBackupConfig{}, apperrors.Storage(op, err)
	}
	cfg := models.DefaultCloudBackupConfig()
	if !found {
		return cfg, nil
	}
	if err := json.Unmarshal([]byte(raw), &cfg); err != nil {
		return models.CloudBackupConfig{}, apperrors.Wrap(apperrors.ErrStorageRead, op, "cloud config is unreadable", err)
	}
	if !cfg.SyncFrequency.Valid() {
		cfg.SyncFrequency = models.BackupWeekly
	}
	return cfg, nil
}

func (s *Syncer) SetCloudConfig(ctx context.Context, cfg models.CloudBackupConfig) error {
	const op = "cloud.SetCloudConfig"
	if !cfg.Provider.Valid() {
		return apperrors.Validation(op, "unknown cloud provider %q", cfg.Provider)
	}
	if !cfg.SyncFrequency.Valid() {
		return apperrors.Validation(op, "invalid sync frequency %q", cfg.SyncFrequency)
	}

	data, err := json.Marshal(cfg)
	if err != nil {
		return apperrors.Wrap(apperrors.ErrStorage, op, "failed to encode cloud config", err)
	}
	if err := s.kv.Set(ctx, constants.StorageKeyCloudBackupConfig, string(data)); err != nil {
		return apperrors.Storage(op, err)
	}
	return nil
}

func (s *Syncer) provider(op string, kind models.CloudProvider) (Provider, error) {
	if kind == models.ProviderNone || kind == "" {
		return nil, apperrors.Validation(op, "no cloud provider selected")
	}
	p, ok := s.providers[kind]
	if !ok {
		return nil, apperrors.Validation(op, "cloud provider %q is not configured", kind)
	}
	return p, nil
}

// InitializeCloudProvider authorizes kind and makes it the active provider
// with automatic sync enabled.
func (s *Syncer) InitializeCloudProvider(ctx context.Context, kind models.CloudProvider) (models.CloudBackupConfig, error) {
	const op = "cloud.InitializeCloudProvider"
	p, err := s.provider(op, kind)
	if err != nil {
		return models.CloudBackupConfig{}, err
	}

	account, err := p.Authorize(ctx)
	if err != nil {
		return models.CloudBackupConfig{}, apperrors.Wrap(apperrors.ErrConnection, op, "failed to authorize "+string(kind), err)
	}

	cfg, err := s.GetCloudConfig(ctx)
	if err != nil {
		return models.CloudBackupConfig{}, err
	}
	cfg.Provider = kind
	cfg.AutoSync = true
	cfg.UserID = account.UserID
	cfg.Email = account.Email
	if err := s.SetCloudConfig(ctx, cfg); err != nil {
		return models.CloudBackupConfig{}, err
	}

	logger.Info("Cloud provider connected", "provider", kind, "user", account.UserID)
	return cfg, nil
}

// DisconnectCloudProvider clears the provider and account, keeping the sync frequency.
func (s *Syncer) DisconnectCloudProvider(ctx context.Context) error {
	cfg, err := s.GetCloudConfig(ctx)
	if err != nil {
		return err
	}
	next := models.DefaultCloudBackupConfig()
	next.SyncFrequency = cfg.SyncFrequency
	return s.SetCloudConfig(ctx, next)
}

// SyncToCloud creates a cloud-sync backup and uploads it.
func (s *Syncer) SyncToCloud(ctx context.Context) (models.BackupMetadata, error) {
	const op = "cloud.SyncToCloud"
	cfg, err := s.GetCloudConfig(ctx)
	if err != nil {
		return models.BackupMetadata{}, err
	}
	p, err := s.provider(op, cfg.Provider)
	if err != nil {
		return models.BackupMetadata{}, err
	}

	meta, err := s.backups.CreateBackup(ctx, constants.BackupLabelCloud)
	if err != nil {
		return models.BackupMetadata{}, err
	}
	data, err := s.backups.ReadBackup(ctx, meta.FileName)
	if err != nil {
		return models.BackupMetadata{}, err
	}
	if err := p.Upload(ctx, meta.FileName, data); err != nil {
		return models.BackupMetadata{}, apperrors.Wrap(apperrors.ErrConnection, op, "upload failed", err)
	}

	now := s.clock.Now().UTC()
	cfg.LastSyncDate = &now
	if err := s.SetCloudConfig(ctx, cfg); err != nil {
		return models.BackupMetadata{}, err
	}

	logger.Info("Synced backup to cloud", "provider", cfg.Provider, "file", meta.FileName)
	return meta, nil
}

func (s *Syncer) ShouldRunCloudSync(ctx context.Context) (bool, error) {
	cfg, err := s.GetCloudConfig(ctx)
	if err != nil {
		return false, err
	}
	if cfg.Provider == models.ProviderNone || !cfg.AutoSync {
		return false, nil
	}
	if cfg.LastSyncDate == nil {
		return true, nil
	}
	return backup.IsDue(*cfg.LastSyncDate, s.clock.Now(), cfg.SyncFrequency), nil
}

func (s *Syncer) RunCloudSyncIfNeeded(ctx context.Context) (bool, error) {
	due, err := s.ShouldRunCloudSync(ctx)
	if err != nil || !due {
		return false, err
	}
	if _, err := s.SyncToCloud(ctx); err != nil {
		return false, err
	}
	return true, nil
}

// RestoreFromCloud downloads fileName from the active provider and restores it.
func (s *Syncer) RestoreFromCloud(ctx context.Context, fileName string) (bool, error) {
	const op = "cloud.RestoreFromCloud"
	cfg, err := s.GetCloudConfig(ctx)
	if err != nil {
		return false, err
	}
	p, err := s.provider(op, cfg.Provider)
	if err != nil {
		return false, err
	}

	data, err := p.Download(ctx, fileName)
	if err != nil {
		if apperrors.Is(err, apperrors.ErrNotFound) {
			return false, err
		}
		return false, apperrors.Wrap(apperrors.ErrConnection, op, "download failed", err)
	}
	return s.backups.RestoreFromBytes(ctx, data)
}
