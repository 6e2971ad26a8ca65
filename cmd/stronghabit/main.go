package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"

	"github.com/alecthomas/kong"

	"github.com/julianstephens/stronghabit/internal/cli"
	"github.com/julianstephens/stronghabit/internal/config"
	"github.com/julianstephens/stronghabit/internal/constants"
	apperrors "github.com/julianstephens/stronghabit/internal/errors"
	"github.com/julianstephens/stronghabit/internal/logger"
	"github.com/julianstephens/stronghabit/internal/storage"
	"github.com/julianstephens/stronghabit/internal/storage/postgres"
	"github.com/julianstephens/stronghabit/internal/storage/sqlite"
)

var CLI struct {
	Version kong.VersionFlag
	Config  string `help:"Config file path." type:"path" default:"~/.config/stronghabit/config.toml"`
	DSN     string `help:"Override the storage location: a SQLite file path, a PostgreSQL connection string (no embedded password) or 'memory'." name:"dsn"`
	Debug   bool   `help:"Log debug output to stderr."`

	Init         cli.InitCmd         `cmd:"" help:"Initialize stronghabit storage."`
	Habit        cli.HabitCmd        `cmd:"" help:"Manage habits and record completions." default:"1"`
	Achievements cli.AchievementsCmd `cmd:"" help:"Show unlocked achievements."`
	Backup       cli.BackupCmd       `cmd:"" help:"Manage backups."`
	Cloud        cli.CloudCmd        `cmd:"" help:"Manage cloud sync."`
	Settings     cli.SettingsCmd     `cmd:"" help:"View or change application settings."`
	Doctor       cli.DoctorCmd       `cmd:"" help:"Check storage, backups, the S3 secret and the tray app."`
}

func main() {
	ctx := kong.Parse(&CLI,
		kong.Name(constants.AppName),
		kong.Description("Habit tracker with streaks, backups and cloud sync"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact:             true,
			NoExpandSubcommands: true,
		}),
		kong.Vars{"version": constants.Version},
	)

	cfg, err := config.Load(CLI.Config)
	if err != nil {
		apperrors.Fatal(err)
	}
	if CLI.Debug {
		cfg.App.Debug = true
	}
	if CLI.DSN != "" {
		cfg.Storage.DSN = CLI.DSN
	}

	if err := logger.Init(cfg.LoggerConfig()); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to initialize logger: %v\n", err)
	}

	store, err := openStore(cfg.Storage.DSN)
	if err != nil {
		apperrors.Fatal(err)
	}

	// init prepares storage itself
	if !strings.HasPrefix(ctx.Command(), "init") {
		if err := store.Load(); err != nil {
			apperrors.Fatal(err)
		}
	}

	runCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	appCtx := cli.NewContext(runCtx, cfg, CLI.Config, store, cli.Deps{})

	err = ctx.Run(appCtx)
	if err == nil {
		appCtx.RunScheduledJobs()
	}

	stop()
	if closeErr := store.Close(); closeErr != nil {
		logger.Warn("Failed to close storage", "error", closeErr)
	}
	apperrors.Fatal(err)
}

// openStore picks the KV adapter from the DSN.
func openStore(dsn string) (storage.KV, error) {
	switch {
	case dsn == "memory":
		return storage.NewMemoryStore(), nil
	case postgres.IsConnString(dsn):
		if err := postgres.ValidateConnString(dsn); err != nil {
			return nil, fmt.Errorf("%w (use .pgpass or PGPASSWORD for credentials)", err)
		}
		return postgres.New(dsn), nil
	default:
		path, err := config.ExpandPath(dsn)
		if err != nil {
			return nil, err
		}
		return sqlite.NewStore(path), nil
	}
}
