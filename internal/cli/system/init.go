package system

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/julianstephens/journalbot/internal/cli"
	"github.com/julianstephens/journalbot/internal/storage/postgres"
)

type InitCmd struct {
	Force  bool   `help:"Delete an existing SQLite index before initializing."`
	Source string `help:"Index to copy entries from (SQLite path or PostgreSQL connection string)."`
}

func (c *InitCmd) Run(ctx *cli.Context) error {
	bg := context.Background()

	if c.Force {
		if err := c.reset(ctx); err != nil {
			return err
		}
	}

	if err := ctx.Store.Init(bg); err != nil {
		return err
	}
	fmt.Printf("Initialized journalbot storage at: %s\n", ctx.Store.GetConfigPath())

	if c.Source != "" {
		fmt.Printf("Copying entries from: %s\n", c.Source)
		n, err := c.copyEntries(bg, ctx)
		if err != nil {
			return fmt.Errorf("copy failed: %w", err)
		}
		fmt.Printf("Copied %d entries.\n", n)
	}
	return nil
}

func (c *InitCmd) reset(ctx *cli.Context) error {
	dbPath, ok := ctx.SQLitePath()
	if !ok {
		return fmt.Errorf("--force only applies to SQLite storage")
	}
	if c.Source != "" {
		absDB, errDB := filepath.Abs(dbPath)
		absSource, errSrc := filepath.Abs(c.Source)
		if errDB == nil && errSrc == nil && absDB == absSource {
			return fmt.Errorf("cannot use --force when source and destination are the same: %s", absDB)
		}
	}

	if _, err := os.Stat(dbPath); err == nil {
		if err := ctx.Store.Close(); err != nil {
			return fmt.Errorf("failed to close existing database: %w", err)
		}
		if err := os.Remove(dbPath); err != nil {
			return fmt.Errorf("failed to delete existing database: %w", err)
		}
		fmt.Printf("Deleted existing database at: %s\n", dbPath)
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("failed to access existing database: %w", err)
	}
	return nil
}

// copyEntries moves the index between backends, e.g. from a local SQLite
// file to a shared PostgreSQL database. Dates already present are kept.
func (c *InitCmd) copyEntries(bg context.Context, ctx *cli.Context) (int, error) {
	if postgres.IsConnString(c.Source) {
		if err := postgres.ValidateConnString(c.Source, false); err != nil {
			return 0, err
		}
	}
	source := cli.NewStore(c.Source)
	if err := source.Load(bg); err != nil {
		return 0, fmt.Errorf("failed to load source database: %w", err)
	}
	defer source.Close()

	entries, err := source.GetAllEntries(bg)
	if err != nil {
		return 0, fmt.Errorf("failed to read entries from source: %w", err)
	}
	copied := 0
	for _, e := range entries {
		created, err := ctx.Store.AddEntry(bg, e)
		if err != nil {
			return copied, fmt.Errorf("failed to add entry %s: %w", e.Date, err)
		}
		if created {
			copied++
		}
	}
	return copied, nil
}
