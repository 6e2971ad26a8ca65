package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/julianstephens/stronghabit/internal/keyring"
	"github.com/julianstephens/stronghabit/internal/models"
)

type CloudCmd struct {
	Connect    CloudConnectCmd    `cmd:"" help:"Connect a cloud provider and enable automatic sync."`
	Status     CloudStatusCmd     `cmd:"" help:"Show the cloud sync configuration." default:"1"`
	Sync       CloudSyncCmd       `cmd:"" help:"Upload a fresh backup now."`
	Pull       CloudPullCmd       `cmd:"" help:"Download a backup and restore it."`
	Disconnect CloudDisconnectCmd `cmd:"" help:"Disconnect the cloud provider."`
	Frequency  CloudFrequencyCmd  `cmd:"" help:"Set how often automatic sync runs."`
	SetSecret  CloudSetSecretCmd  `cmd:"" name:"set-secret" help:"Store the S3 secret access key in the OS keyring."`
}

type CloudConnectCmd struct {
	Provider string `arg:"" help:"Provider to connect." enum:"s3,google-drive,dropbox,icloud"`
}

func (c *CloudConnectCmd) Run(ctx *Context) error {
	cfg, err := ctx.Cloud.InitializeCloudProvider(ctx.Ctx, models.CloudProvider(c.Provider))
	if err != nil {
		return err
	}
	ctx.println(success("Connected to %s", cfg.Provider))
	if cfg.UserID != "" {
		ctx.println(field("Account", cfg.UserID))
	}
	ctx.println(field("Sync frequency", cfg.SyncFrequency))
	return nil
}

type CloudStatusCmd struct{}

func (c *CloudStatusCmd) Run(ctx *Context) error {
	cfg, err := ctx.Cloud.GetCloudConfig(ctx.Ctx)
	if err != nil {
		return err
	}

	last := "never"
	if cfg.LastSyncDate != nil {
		last = cfg.LastSyncDate.In(ctx.location()).Format("2006-01-02 15:04")
	}
	ctx.println(field("Provider", cfg.Provider))
	ctx.println(field("Automatic sync", cfg.AutoSync))
	ctx.println(field("Sync frequency", cfg.SyncFrequency))
	ctx.println(field("Last sync", last))
	if cfg.UserID != "" {
		ctx.println(field("Account", cfg.UserID))
	}
	if cfg.Email != "" {
		ctx.println(field("Email", cfg.Email))
	}
	return nil
}

type CloudSyncCmd struct{}

func (c *CloudSyncCmd) Run(ctx *Context) error {
	meta, err := ctx.Cloud.SyncToCloud(ctx.Ctx)
	if err != nil {
		return fmt.Errorf("sync failed: %w", err)
	}
	ctx.println(success("Uploaded %s", meta.FileName))
	return nil
}

type CloudPullCmd struct {
	File string `arg:"" help:"Backup file name in the cloud."`
	Yes  bool   `short:"y" help:"Skip confirmation."`
}

func (c *CloudPullCmd) Run(ctx *Context) error {
	ok, err := ctx.confirm(c.Yes,
		fmt.Sprintf("Restore %s from the cloud?", c.File),
		"This replaces all current habits and history with the backup's contents.")
	if err != nil || !ok {
		return err
	}

	restored, err := ctx.Cloud.RestoreFromCloud(ctx.Ctx, c.File)
	if err != nil {
		return fmt.Errorf("restore failed: %w", err)
	}
	if !restored {
		return fmt.Errorf("restore failed: %s was not applied", c.File)
	}
	ctx.println(success("Habits restored from %s", c.File))
	return nil
}

type CloudDisconnectCmd struct{}

func (c *CloudDisconnectCmd) Run(ctx *Context) error {
	if err := ctx.Cloud.DisconnectCloudProvider(ctx.Ctx); err != nil {
		return err
	}
	ctx.println(success("Cloud provider disconnected"))
	return nil
}

type CloudFrequencyCmd struct {
	Frequency string `arg:"" help:"Sync frequency." enum:"daily,weekly,monthly"`
	AutoSync  *bool  `help:"Enable or disable automatic sync."`
}

func (c *CloudFrequencyCmd) Run(ctx *Context) error {
	cfg, err := ctx.Cloud.GetCloudConfig(ctx.Ctx)
	if err != nil {
		return err
	}
	cfg.SyncFrequency = models.BackupFrequency(c.Frequency)
	if c.AutoSync != nil {
		cfg.AutoSync = *c.AutoSync
	}
	if err := ctx.Cloud.SetCloudConfig(ctx.Ctx, cfg); err != nil {
		return err
	}
	ctx.println(success("Cloud sync runs %s", cfg.SyncFrequency))
	return nil
}

// CloudSetSecretCmd stores the secret half of the S3 credentials. The access
// key id comes from [cloud.s3] in the config file.
type CloudSetSecretCmd struct {
	Delete bool `help:"Remove the stored secret instead."`
}

func (c *CloudSetSecretCmd) Run(ctx *Context) error {
	accessKeyID := strings.TrimSpace(ctx.Config.Cloud.S3.AccessKeyID)
	if accessKeyID == "" {
		return fmt.Errorf("set [cloud.s3] access_key_id in %s first", ctx.ConfigPath)
	}

	if c.Delete {
		if err := keyring.DeleteS3SecretKey(accessKeyID); err != nil {
			if errors.Is(err, keyring.ErrNotFound) {
				return errors.New("no secret stored for " + accessKeyID)
			}
			return fmt.Errorf("failed to delete secret from keyring: %w", err)
		}
		ctx.println(success("Secret for %s removed from the OS keyring", accessKeyID))
		return nil
	}

	secret, err := ctx.PromptSecret(ctx.Ctx, "Secret access key for "+accessKeyID)
	if err != nil {
		return err
	}
	if err := keyring.SetS3SecretKey(accessKeyID, secret); err != nil {
		return fmt.Errorf("failed to store secret in keyring: %w", err)
	}
	ctx.println(success("Secret stored in the OS keyring"))
	return nil
}
