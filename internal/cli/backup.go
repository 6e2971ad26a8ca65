package cli

import (
	"fmt"
	"strconv"

	"github.com/julianstephens/stronghabit/internal/models"
)

type BackupCmd struct {
	Create  BackupCreateCmd  `cmd:"" help:"Create a manual backup." default:"1"`
	List    BackupListCmd    `cmd:"" help:"List available backups."`
	Delete  BackupDeleteCmd  `cmd:"" help:"Delete a backup file."`
	Share   BackupShareCmd   `cmd:"" help:"Copy a backup to the clipboard."`
	Import  BackupImportCmd  `cmd:"" help:"Import and restore a backup file from anywhere on disk."`
	Restore BackupRestoreCmd `cmd:"" help:"Restore from a backup in the backup directory."`
	Auto    BackupAutoCmd    `cmd:"" help:"Configure automatic backups."`
}

type BackupCreateCmd struct {
	Label string `help:"Label used as the file name prefix."`
}

func (c *BackupCreateCmd) Run(ctx *Context) error {
	meta, err := ctx.Backups.CreateBackup(ctx.Ctx, c.Label)
	if err != nil {
		return fmt.Errorf("backup failed: %w", err)
	}

	ctx.println(success("Backup created: %s", meta.FileName))
	ctx.println(mutedStyle.Render(fmt.Sprintf("  %d habits, %s", meta.HabitCount, humanSize(meta.Size))))
	return nil
}

type BackupListCmd struct{}

func (c *BackupListCmd) Run(ctx *Context) error {
	backups, err := ctx.Backups.GetBackups(ctx.Ctx)
	if err != nil {
		return fmt.Errorf("failed to list backups: %w", err)
	}

	if len(backups) == 0 {
		ctx.println("No backups found.")
		ctx.printf("Backups are stored in: %s\n", ctx.Backups.GetBackupDir())
		return nil
	}

	ctx.println(titleStyle.Render(fmt.Sprintf("Available backups (%d total)", len(backups))))
	ctx.println()
	for _, b := range backups {
		ctx.printf("  %s  %s  %s\n",
			b.CreatedAt.In(ctx.location()).Format("2006-01-02 15:04:05"),
			nameStyle.Render(b.FileName),
			mutedStyle.Render(fmt.Sprintf("(%s, %d habits, %s)", b.Kind(), b.HabitCount, humanSize(b.Size))))
	}
	ctx.printf("\nBackup directory: %s\n", ctx.Backups.GetBackupDir())
	return nil
}

type BackupDeleteCmd struct {
	File string `arg:"" help:"Backup file name."`
	Yes  bool   `short:"y" help:"Skip confirmation."`
}

func (c *BackupDeleteCmd) Run(ctx *Context) error {
	ok, err := ctx.confirm(c.Yes, fmt.Sprintf("Delete %s?", c.File), "")
	if err != nil || !ok {
		return err
	}
	if err := ctx.Backups.DeleteBackup(ctx.Ctx, c.File); err != nil {
		return err
	}
	ctx.println(success("Deleted %s", c.File))
	return nil
}

type BackupShareCmd struct {
	File string `arg:"" help:"Backup file name."`
}

func (c *BackupShareCmd) Run(ctx *Context) error {
	if err := ctx.Backups.ShareBackup(ctx.Ctx, c.File); err != nil {
		return err
	}
	ctx.println(success("Copied %s to the clipboard", c.File))
	return nil
}

type BackupImportCmd struct{}

func (c *BackupImportCmd) Run(ctx *Context) error {
	ok, err := ctx.Backups.ImportBackup(ctx.Ctx)
	if err != nil {
		return fmt.Errorf("import failed: %w", err)
	}
	if !ok {
		ctx.println(mutedStyle.Render("Import cancelled."))
		return nil
	}
	ctx.println(success("Backup imported and restored"))
	return nil
}

type BackupRestoreCmd struct {
	File string `arg:"" help:"Backup file name in the backup directory."`
	Yes  bool   `short:"y" help:"Skip confirmation."`
}

func (c *BackupRestoreCmd) Run(ctx *Context) error {
	ok, err := ctx.confirm(c.Yes,
		fmt.Sprintf("Restore from %s?", c.File),
		"This replaces all current habits and history with the backup's contents.")
	if err != nil || !ok {
		return err
	}

	restored, err := ctx.Backups.RestoreFromFile(ctx.Ctx, c.File)
	if err != nil {
		return fmt.Errorf("restore failed: %w", err)
	}
	if !restored {
		return fmt.Errorf("restore failed: %s was not applied", c.File)
	}
	ctx.println(success("Habits restored from %s", c.File))
	return nil
}

type BackupAutoCmd struct {
	Show BackupAutoShowCmd `cmd:"" help:"Show the automatic backup configuration." default:"1"`
	Set  BackupAutoSetCmd  `cmd:"" help:"Change the automatic backup configuration."`
	Run  BackupAutoRunCmd  `cmd:"" help:"Run an automatic backup now if one is due."`
}

type BackupAutoShowCmd struct{}

func (c *BackupAutoShowCmd) Run(ctx *Context) error {
	cfg, err := ctx.Backups.GetAutoBackupConfig(ctx.Ctx)
	if err != nil {
		return err
	}
	printAutoBackupConfig(ctx, cfg)
	return nil
}

type BackupAutoSetCmd struct {
	Enabled   *bool   `help:"Enable or disable automatic backups."`
	Frequency *string `help:"Backup frequency (daily, weekly or monthly)."`
	Retention *int    `help:"Number of automatic backups to keep."`
}

func (c *BackupAutoSetCmd) Run(ctx *Context) error {
	cfg, err := ctx.Backups.GetAutoBackupConfig(ctx.Ctx)
	if err != nil {
		return err
	}

	updated := false
	if c.Enabled != nil {
		cfg.Enabled = *c.Enabled
		updated = true
	}
	if c.Frequency != nil {
		cfg.Frequency = models.BackupFrequency(*c.Frequency)
		updated = true
	}
	if c.Retention != nil {
		cfg.Retention = *c.Retention
		updated = true
	}
	if !updated {
		ctx.println("No changes specified. Use --enabled, --frequency or --retention.")
		return nil
	}

	if err := ctx.Backups.SetAutoBackupConfig(ctx.Ctx, cfg); err != nil {
		return err
	}
	ctx.println(success("Automatic backup settings updated"))
	printAutoBackupConfig(ctx, cfg)
	return nil
}

type BackupAutoRunCmd struct{}

func (c *BackupAutoRunCmd) Run(ctx *Context) error {
	ran, err := ctx.Backups.RunAutoBackupIfNeeded(ctx.Ctx)
	if err != nil {
		return err
	}
	if ran {
		ctx.println(success("Automatic backup created"))
	} else {
		ctx.println(mutedStyle.Render("No automatic backup due."))
	}
	return nil
}

func printAutoBackupConfig(ctx *Context, cfg models.AutoBackupConfig) {
	last := "never"
	if cfg.LastBackupDate != nil {
		last = cfg.LastBackupDate.In(ctx.location()).Format("2006-01-02 15:04")
	}
	ctx.println(field("Enabled", strconv.FormatBool(cfg.Enabled)))
	ctx.println(field("Frequency", cfg.Frequency))
	ctx.println(field("Retention", cfg.Retention))
	ctx.println(field("Last backup", last))
}
