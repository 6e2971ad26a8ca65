// Package config loads the stronghabit.toml style configuration file.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/julianstephens/stronghabit/internal/constants"
	"github.com/julianstephens/stronghabit/internal/logger"
)

// Config represents config.toml.
type Config struct {
	App     App     `toml:"app"`
	Storage Storage `toml:"storage"`
	Backup  Backup  `toml:"backup"`
	Cloud   Cloud   `toml:"cloud"`
	Log     Log     `toml:"log"`

	// Dir is the directory the file was loaded from (or would be).
	Dir string `toml:"-"`
}

type App struct {
	Debug bool `toml:"debug"`
}

// Storage selects the key-value adapter.
type Storage struct {
	// DSN is a sqlite path, a postgres:// URL or "memory".
	DSN string `toml:"dsn"`
}

type Backup struct {
	Dir string `toml:"dir"`
}

// Log configures the rotating log file. Zero sizes fall back to the
// logger's defaults.
type Log struct {
	File       string `toml:"file"`
	Level      string `toml:"level"`
	MaxSizeMB  int    `toml:"max_size_mb"`
	MaxBackups int    `toml:"max_backups"`
	MaxAgeDays int    `toml:"max_age_days"`
}

type Cloud struct {
	S3 S3 `toml:"s3"`
}

// S3 holds the non-secret half of the bucket credentials.
// The secret key lives in the OS keyring.
type S3 struct {
	Bucket      string `toml:"bucket"`
	Region      string `toml:"region"`
	Endpoint    string `toml:"endpoint"`
	AccessKeyID string `toml:"access_key_id"`
	Prefix      string `toml:"prefix"`
}

// Configured reports whether enough is set to reach a bucket.
func (s S3) Configured() bool {
	return s.Bucket != "" && s.AccessKeyID != ""
}

// DefaultPath returns ~/.config/stronghabit/config.toml, expanded.
func DefaultPath() (string, error) {
	dir, err := ExpandPath(constants.DefaultConfigDir)
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, constants.DefaultConfigFile), nil
}

// Defaults returns the configuration used when no file exists.
func Defaults(dir string) *Config {
	return &Config{
		Dir:     dir,
		Storage: Storage{DSN: filepath.Join(dir, constants.DefaultDBName)},
		Backup:  Backup{Dir: filepath.Join(dir, constants.BackupDirName)},
		Log: Log{
			File:       logger.DefaultFile(dir),
			Level:      logger.DefaultLevel,
			MaxSizeMB:  logger.DefaultMaxSizeMB,
			MaxBackups: logger.DefaultMaxBackups,
			MaxAgeDays: logger.DefaultMaxAgeDays,
		},
	}
}

// LoggerConfig adapts the [log] section for logger.Init.
func (c *Config) LoggerConfig() logger.Config {
	return logger.Config{
		File:       c.Log.File,
		Level:      c.Log.Level,
		Debug:      c.App.Debug,
		MaxSizeMB:  c.Log.MaxSizeMB,
		MaxBackups: c.Log.MaxBackups,
		MaxAgeDays: c.Log.MaxAgeDays,
	}
}

// Load reads path. A missing file yields defaults rooted at path's directory.
func Load(path string) (*Config, error) {
	path, err := ExpandPath(path)
	if err != nil {
		return nil, err
	}
	dir := filepath.Dir(path)
	cfg := Defaults(dir)

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read config file %s: %w", path, err)
	}

	meta, err := toml.Decode(string(data), cfg)
	if err != nil {
		return nil, fmt.Errorf("parse config file %s: %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return nil, fmt.Errorf("parse config file %s: unknown keys: %s", path, strings.Join(keys, ", "))
	}

	cfg.Dir = dir
	cfg.Storage.DSN = strings.TrimSpace(cfg.Storage.DSN)
	if cfg.Storage.DSN == "" {
		cfg.Storage.DSN = filepath.Join(dir, constants.DefaultDBName)
	}
	if !IsURL(cfg.Storage.DSN) && cfg.Storage.DSN != "memory" {
		if cfg.Storage.DSN, err = ExpandPath(cfg.Storage.DSN); err != nil {
			return nil, err
		}
	}
	if strings.TrimSpace(cfg.Backup.Dir) == "" {
		cfg.Backup.Dir = filepath.Join(dir, constants.BackupDirName)
	}
	if cfg.Backup.Dir, err = ExpandPath(cfg.Backup.Dir); err != nil {
		return nil, err
	}
	if strings.TrimSpace(cfg.Log.File) == "" {
		cfg.Log.File = logger.DefaultFile(dir)
	}
	if cfg.Log.File, err = ExpandPath(cfg.Log.File); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Save writes cfg to path, creating the directory if needed.
func Save(path string, cfg *Config) error {
	path, err := ExpandPath(path)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600)
	if err != nil {
		return fmt.Errorf("write config file %s: %w", path, err)
	}
	defer f.Close()

	if err := toml.NewEncoder(f).Encode(cfg); err != nil {
		return fmt.Errorf("encode config file %s: %w", path, err)
	}
	return nil
}

// ExpandPath replaces a leading ~ with the user's home directory.
func ExpandPath(path string) (string, error) {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("get home directory: %w", err)
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~")), nil
}

// IsURL reports whether dsn looks like a connection URL rather than a file path.
func IsURL(dsn string) bool {
	return strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://")
}
