package models

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/julianstephens/stronghabit/internal/constants"
)

// BackupFrequency is the cadence of automatic and cloud backups
type BackupFrequency string

const (
	BackupDaily   BackupFrequency = "daily"
	BackupWeekly  BackupFrequency = "weekly"
	BackupMonthly BackupFrequency = "monthly"
)

func (f BackupFrequency) Valid() bool {
	switch f {
	case BackupDaily, BackupWeekly, BackupMonthly:
		return true
	}
	return false
}

// BackupMetadata describes one backup file
type BackupMetadata struct {
	ID         string    `json:"id"`
	FileName   string    `json:"fileName"`
	CreatedAt  time.Time `json:"createdAt"`
	HabitCount int       `json:"habitCount"`
	Size       int64     `json:"size"`
}

// Kind classifies the backup by its file name
func (m BackupMetadata) Kind() BackupKind {
	return ClassifyBackup(m.FileName)
}

// BackupEnvelope is the on-disk wrapper around a StorageDocument.
// Data is kept raw so the document can be validated by the habit store.
type BackupEnvelope struct {
	AppVersion string          `json:"appVersion"`
	ExportDate *time.Time      `json:"exportDate"`
	Data       json.RawMessage `json:"data"`
}

// BackupKind is derived from reserved labels in backup file names
type BackupKind string

const (
	BackupKindManual BackupKind = "manual"
	BackupKindAuto   BackupKind = "auto"
	BackupKindExport BackupKind = "export"
	BackupKindCloud  BackupKind = "cloud-sync"
)

// ClassifyBackup applies the file name substring convention
func ClassifyBackup(fileName string) BackupKind {
	switch {
	case strings.Contains(fileName, constants.BackupLabelCloud):
		return BackupKindCloud
	case strings.Contains(fileName, constants.BackupLabelAuto):
		return BackupKindAuto
	case strings.Contains(fileName, constants.BackupLabelExport):
		return BackupKindExport
	default:
		return BackupKindManual
	}
}

// AutoBackupConfig controls automatic local backups
type AutoBackupConfig struct {
	Enabled        bool            `json:"enabled"`
	Frequency      BackupFrequency `json:"frequency"`
	Retention      int             `json:"retention"`
	LastBackupDate *time.Time      `json:"lastBackupDate,omitempty"`
}

// DefaultAutoBackupConfig is used when no config has been stored
func DefaultAutoBackupConfig() AutoBackupConfig {
	return AutoBackupConfig{
		Enabled:   false,
		Frequency: BackupWeekly,
		Retention: constants.DefaultAutoBackupRetention,
	}
}

// CloudProvider names a cloud backup target
type CloudProvider string

const (
	ProviderNone        CloudProvider = "none"
	ProviderGoogleDrive CloudProvider = "google-drive"
	ProviderDropbox     CloudProvider = "dropbox"
	ProviderICloud      CloudProvider = "icloud"
	ProviderS3          CloudProvider = "s3"
)

func (p CloudProvider) Valid() bool {
	switch p {
	case ProviderNone, ProviderGoogleDrive, ProviderDropbox, ProviderICloud, ProviderS3:
		return true
	}
	return false
}

// CloudBackupConfig holds the selected cloud provider and sync cadence
type CloudBackupConfig struct {
	Provider      CloudProvider   `json:"provider"`
	AutoSync      bool            `json:"autoSync"`
	LastSyncDate  *time.Time      `json:"lastSyncDate,omitempty"`
	SyncFrequency BackupFrequency `json:"syncFrequency"`
	UserID        string          `json:"userId,omitempty"`
	Email         string          `json:"email,omitempty"`
}

func DefaultCloudBackupConfig() CloudBackupConfig {
	return CloudBackupConfig{
		Provider:      ProviderNone,
		SyncFrequency: BackupWeekly,
	}
}
