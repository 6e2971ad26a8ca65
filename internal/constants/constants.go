package constants

import "time"

const (
	AppName           = "stronghabit"
	Version           = "v1.0.0"
	DefaultConfigDir  = "~/.config/stronghabit"
	DefaultConfigFile = "config.toml"
	DefaultDBName     = "stronghabit.db"

	// DateFormat is the calendar day format used in completion logs (YYYY-MM-DD)
	DateFormat = "2006-01-02"

	// TimeFormat is the reminder time format (HH:MM)
	TimeFormat = "15:04"

	// Persistence adapter keys
	StorageKeyHabits               = "@stronghabit:habits"
	StorageKeyAutoBackupConfig     = "@stronghabit:auto_backup_config"
	StorageKeyCloudBackupConfig    = "@stronghabit:cloud_backup_config"
	StorageKeyTimezoneOffset       = "@stronghabit:timezone_offset"
	StorageKeyNotificationsEnabled = "@stronghabit:notifications_enabled"

	// Document schema
	DocumentVersion = 1

	// Retention window for CleanupOldData
	DataRetentionDays = 365

	// Backup constants
	BackupDirName       = "backups"
	BackupFileSuffix    = ".json"
	DefaultBackupPrefix = "stronghabit-backup"
	BackupLabelAuto     = "auto"
	BackupLabelExport   = "export"
	BackupLabelCloud    = "cloud-sync"

	DefaultAutoBackupRetention = 5

	// Keyring
	KeyringS3SecretUser = "s3-secret-access-key"

	// Notify constants
	NotifyMaxRetries     = 3
	NotifyRetryDelay     = 100 * time.Millisecond
	NotifierLockfileName = "stronghabit-notifier.lock"
	TrayAppIdentifier    = "com.julianstephens.stronghabit"
	TrayExecutableName   = "stronghabit-tray"
	TraySecretHeader     = "X-Stronghabit-Secret"
	NotificationDuration = 5000 // milliseconds
)
