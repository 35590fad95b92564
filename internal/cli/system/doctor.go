package system

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/julianstephens/journalbot/internal/backup"
	"github.com/julianstephens/journalbot/internal/cli"
	"github.com/julianstephens/journalbot/internal/config"
	"github.com/julianstephens/journalbot/internal/constants"
	"github.com/julianstephens/journalbot/internal/keyring"
	"github.com/julianstephens/journalbot/internal/notion"
	"github.com/julianstephens/journalbot/internal/runlock"
	"github.com/julianstephens/journalbot/internal/storage"
)

type DoctorCmd struct {
	Online bool `help:"Also check that the Notion database is reachable."`
}

// check is one diagnostic. A warnOnly failure does not fail the run.
type check struct {
	name     string
	needsDB  bool
	warnOnly bool
	run      func(bg context.Context, ctx *cli.Context) error
}

func (cmd *DoctorCmd) checks() []check {
	checks := []check{
		{name: "Configuration", run: checkConfig},
		{name: "Database reachable", run: checkDBReachable},
		{name: "Schema version", needsDB: true, run: checkSchemaVersion},
		{name: "Migrations complete", needsDB: true, run: checkMigrationsComplete},
		{name: "Entry integrity", needsDB: true, run: checkEntries},
		{name: "Backups present", warnOnly: true, run: checkBackupsPresent},
		{name: "Secrets", warnOnly: true, run: checkSecrets},
		{name: "Clock/timezone", run: checkClockTimezone},
		{name: "Bot process", warnOnly: true, run: checkBotProcess},
	}
	if cmd.Online {
		checks = append(checks, check{name: "Notion reachable", run: checkNotion})
	}
	return checks
}

func (cmd *DoctorCmd) Run(ctx *cli.Context) error {
	fmt.Println(cli.Heading("Running diagnostics..."))
	fmt.Println()

	bg := context.Background()
	hasError := false
	dbReachable := false

	for _, c := range cmd.checks() {
		if c.needsDB && !dbReachable {
			cli.Skipped("%s: SKIPPED (database not reachable)", c.name)
			continue
		}
		err := c.run(bg, ctx)
		switch {
		case err == nil:
			cli.Success("%s: OK", c.name)
			if c.name == "Database reachable" {
				dbReachable = true
			}
		case c.warnOnly:
			cli.Warning("%s: WARNING", c.name)
			cli.Detail("%v", err)
		default:
			cli.Failure("%s: FAIL", c.name)
			cli.Detail("Error: %v", err)
			hasError = true
		}
	}

	fmt.Println()
	if hasError {
		fmt.Println("Diagnostics completed with errors.")
		return fmt.Errorf("one or more health checks failed")
	}
	fmt.Println("All diagnostics passed!")
	return nil
}

func checkConfig(_ context.Context, ctx *cli.Context) error {
	return ctx.Config.Validate()
}

func checkDBReachable(bg context.Context, ctx *cli.Context) error {
	// Load fails on a schema version mismatch after the connection is
	// open; the version checks below report that case.
	loadErr := ctx.Store.Load(bg)

	pingCtx, cancel := context.WithTimeout(bg, 5*time.Second)
	defer cancel()
	if err := ctx.Store.Ping(pingCtx); err != nil {
		if loadErr != nil {
			return fmt.Errorf("failed to load database: %w", loadErr)
		}
		return fmt.Errorf("failed to ping database: %w", err)
	}
	return nil
}

func versions(bg context.Context, ctx *cli.Context) (current, latest int, err error) {
	m, ok := ctx.Store.(storage.Migrator)
	if !ok {
		return 0, 0, nil
	}
	runner, err := m.Migrations()
	if err != nil {
		return 0, 0, err
	}
	current, err = runner.GetCurrentVersion(bg)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to get current schema version: %w", err)
	}
	latest, err = runner.GetLatestVersion()
	if err != nil {
		return 0, 0, fmt.Errorf("failed to get latest schema version: %w", err)
	}
	return current, latest, nil
}

func checkSchemaVersion(bg context.Context, ctx *cli.Context) error {
	current, latest, err := versions(bg, ctx)
	if err != nil {
		return err
	}
	if current > latest {
		return fmt.Errorf("database schema version (%d) is newer than supported version (%d)", current, latest)
	}
	return nil
}

func checkMigrationsComplete(bg context.Context, ctx *cli.Context) error {
	current, latest, err := versions(bg, ctx)
	if err != nil {
		return err
	}
	if current < latest {
		return fmt.Errorf("migrations incomplete: current version %d, latest version %d (run 'journalbot migrate')", current, latest)
	}
	return nil
}

// checkEntries validates every stored entry and the one-page-per-day rule.
func checkEntries(bg context.Context, ctx *cli.Context) error {
	entries, err := ctx.Store.GetAllEntries(bg)
	if err != nil {
		return fmt.Errorf("failed to read entries: %w", err)
	}
	pages := make(map[string]string, len(entries))
	for _, e := range entries {
		if err := e.Validate(); err != nil {
			return fmt.Errorf("entry %q: %w", e.Date, err)
		}
		if other, dup := pages[e.DocumentID]; dup {
			return fmt.Errorf("page %s is linked to both %s and %s", e.DocumentID, other, e.Date)
		}
		pages[e.DocumentID] = e.Date
	}
	return nil
}

func checkBackupsPresent(_ context.Context, ctx *cli.Context) error {
	path, ok := ctx.SQLitePath()
	if !ok {
		return errors.New("backups are only managed for SQLite storage")
	}
	backups, err := backup.NewManager(path).ListBackups()
	if err != nil {
		return fmt.Errorf("failed to list backups: %w", err)
	}
	if len(backups) == 0 {
		return errors.New("no backups found - consider creating one with 'journalbot backup create'")
	}
	return nil
}

func checkSecrets(_ context.Context, _ *cli.Context) error {
	var missing []string
	for _, name := range []string{constants.KeyringTelegramToken, constants.KeyringNotionToken} {
		if _, err := config.Secret(name); err != nil {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		hint := "run 'journalbot setup'"
		if !keyring.IsAvailable() {
			hint = "the OS keyring is unavailable, set the JOURNALBOT_* environment variables"
		}
		return fmt.Errorf("missing %v (%s)", missing, hint)
	}
	return nil
}

func checkClockTimezone(_ context.Context, ctx *cli.Context) error {
	now := time.Now()
	if now.Year() < 2020 || now.Year() > 2100 {
		return fmt.Errorf("system time appears incorrect: %s", now.Format(time.RFC3339))
	}
	if _, err := ctx.Config.Location(); err != nil {
		return fmt.Errorf("cannot load timezone %q: %w", ctx.Config.Timezone, err)
	}
	return nil
}

func checkBotProcess(_ context.Context, ctx *cli.Context) error {
	_, running, err := runlock.Owner(ctx.Config.DataDir())
	if err != nil {
		return err
	}
	if !running {
		return errors.New("bot is not running")
	}
	return nil
}

func checkNotion(bg context.Context, ctx *cli.Context) error {
	token, err := config.Secret(constants.KeyringNotionToken)
	if err != nil {
		return err
	}
	if ctx.Config.NotionDatabase == "" {
		return config.ErrMissingDB
	}
	pingCtx, cancel := context.WithTimeout(bg, constants.NotionRequestLimit)
	defer cancel()
	return notion.New(token, ctx.Config.NotionDatabase).Ping(pingCtx)
}
