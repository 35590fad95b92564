package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/alecthomas/kong"
	"github.com/joho/godotenv"

	"github.com/julianstephens/journalbot/internal/cli"
	"github.com/julianstephens/journalbot/internal/cli/backups"
	"github.com/julianstephens/journalbot/internal/cli/entries"
	"github.com/julianstephens/journalbot/internal/cli/system"
	"github.com/julianstephens/journalbot/internal/config"
	"github.com/julianstephens/journalbot/internal/constants"
	apperrors "github.com/julianstephens/journalbot/internal/errors"
	"github.com/julianstephens/journalbot/internal/logger"
)

var CLI struct {
	config.Config `embed:""`

	Version kong.VersionFlag

	Run     system.RunCmd     `cmd:"" help:"Run the diary bot in the foreground." default:"1"`
	Init    system.InitCmd    `cmd:"" help:"Initialize the entry index."`
	Migrate system.MigrateCmd `cmd:"" help:"Run database migrations."`
	Doctor  system.DoctorCmd  `cmd:"" help:"Run health checks and diagnostics."`
	Setup   system.SetupCmd   `cmd:"" help:"Interactively configure tokens and settings."`
	Debug   system.DebugCmd   `cmd:"" help:"Debug commands for troubleshooting."`
	Keyring struct {
		Set    system.KeyringSetCmd    `cmd:"" help:"Store a secret in the OS keyring."`
		Get    system.KeyringGetCmd    `cmd:"" help:"Show a stored secret (masked)."`
		Delete system.KeyringDeleteCmd `cmd:"" help:"Remove a secret from the OS keyring."`
		Status system.KeyringStatusCmd `cmd:"" help:"Show which secrets are stored." default:"1"`
	} `cmd:"" help:"Manage secrets in the OS keyring."`
	Entries struct {
		List    entries.ListCmd    `cmd:"" help:"List indexed diary entries." default:"1"`
		Rebuild entries.RebuildCmd `cmd:"" help:"Add missing entries from the Notion database."`
	} `cmd:"" help:"Inspect the entry index."`
	Backup struct {
		Create  backups.BackupCreateCmd  `cmd:"" help:"Create a manual backup." default:"1"`
		List    backups.BackupListCmd    `cmd:"" help:"List available backups."`
		Restore backups.BackupRestoreCmd `cmd:"" help:"Restore from a backup."`
	} `cmd:"" help:"Manage entry index backups."`
}

// Commands that open the store themselves or never touch it.
var noLoad = map[string]bool{
	"init":              true,
	"migrate":           true,
	"doctor":            true,
	"setup":             true,
	"keyring":           true,
	"debug db-path":     true,
	"debug dump-config": true,
}

// Commands that must work while the configuration is still incomplete.
var noValidate = map[string]bool{
	"doctor":  true,
	"setup":   true,
	"keyring": true,
}

func commandKey(ctx *kong.Context, table map[string]bool) bool {
	words := strings.Fields(ctx.Command())
	if len(words) == 0 {
		return false
	}
	if table[words[0]] {
		return true
	}
	return len(words) > 1 && table[words[0]+" "+words[1]]
}

func main() {
	// Neither file overrides variables already set in the environment.
	_ = godotenv.Load(".env")
	_ = godotenv.Load(config.DefaultEnvFile())

	vars := kong.Vars{"version": constants.Version}
	for k, v := range config.Vars() {
		vars[k] = v
	}

	ctx := kong.Parse(&CLI,
		kong.Name(constants.AppName),
		kong.Description("Daily journaling companion for Telegram and Notion"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact:             true,
			NoExpandSubcommands: true,
		}),
		vars,
	)

	cfg := &CLI.Config

	if err := logger.Init(logger.Config{
		Debug:      cfg.Debug,
		ConfigDir:  cfg.DataDir(),
		Foreground: ctx.Command() == "run",
	}); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to initialize logging: %v\n", err)
	}

	if !commandKey(ctx, noValidate) {
		if err := cfg.Validate(); err != nil {
			apperrors.Fatal(err)
		}
	}

	source, _ := cfg.DataSource()
	store := cli.NewStore(source)
	defer store.Close()

	appCtx := &cli.Context{
		Config: cfg,
		Store:  store,
	}

	if !commandKey(ctx, noLoad) {
		if err := store.Load(context.Background()); err != nil {
			fmt.Fprintln(os.Stderr, "Run 'journalbot init' or 'journalbot migrate' first.")
			apperrors.Fatal(err)
		}
	}

	if err := ctx.Run(appCtx); err != nil {
		store.Close()
		apperrors.Fatal(err)
	}
}
