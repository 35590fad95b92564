package system

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/julianstephens/journalbot/internal/cli"
	"github.com/julianstephens/journalbot/internal/config"
	"github.com/julianstephens/journalbot/internal/constants"
	"github.com/julianstephens/journalbot/internal/storage"
	"github.com/julianstephens/journalbot/internal/utils"
)

type DebugCmd struct {
	DBPath     *DebugDBPathCmd     `cmd:"" help:"Show database path."`
	DumpEntry  *DebugDumpEntryCmd  `cmd:"" help:"Dump one entry as JSON."`
	DumpConfig *DebugDumpConfigCmd `cmd:"" help:"Dump the effective configuration as JSON (secrets are not shown)."`
}

func printJSON(v interface{}) error {
	jsonBytes, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal output: %w", err)
	}
	fmt.Println(string(jsonBytes))
	return nil
}

type DebugDBPathCmd struct{}

func (cmd *DebugDBPathCmd) Run(ctx *cli.Context) error {
	return printJSON(map[string]string{
		"path": ctx.Store.GetConfigPath(),
	})
}

type DebugDumpEntryCmd struct {
	Date string `arg:"" help:"Date of the entry to dump (YYYY-MM-DD or 'today')."`
}

func (cmd *DebugDumpEntryCmd) Run(ctx *cli.Context) error {
	date, err := resolveDate(ctx.Config, cmd.Date)
	if err != nil {
		return err
	}

	entry, err := ctx.Store.GetEntry(context.Background(), date)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return fmt.Errorf("no entry found for date: %s", date)
		}
		return fmt.Errorf("failed to get entry: %w", err)
	}
	return printJSON(entry)
}

// resolveDate accepts YYYY-MM-DD or "today" in the configured timezone.
func resolveDate(cfg *config.Config, s string) (string, error) {
	if s == "today" {
		loc, err := cfg.Location()
		if err != nil {
			return "", err
		}
		return utils.DateKey(time.Now(), loc), nil
	}
	if _, err := time.Parse(constants.DateFormat, s); err != nil {
		return "", fmt.Errorf("invalid date format: %s (expected YYYY-MM-DD or 'today')", s)
	}
	return s, nil
}

type DebugDumpConfigCmd struct{}

func (cmd *DebugDumpConfigCmd) Run(ctx *cli.Context) error {
	cfg := *ctx.Config
	source, trusted := cfg.DataSource()
	if trusted {
		source = "keyring:" + constants.KeyringDBConnection
	}
	cfg.Data = source

	secrets := map[string]bool{}
	for _, name := range []string{constants.KeyringTelegramToken, constants.KeyringNotionToken} {
		_, err := config.Secret(name)
		secrets[name] = err == nil
	}

	return printJSON(map[string]interface{}{
		"config":   cfg,
		"data_dir": cfg.DataDir(),
		"secrets":  secrets,
	})
}
