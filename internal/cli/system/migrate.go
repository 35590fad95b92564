package system

import (
	"context"
	"fmt"

	"github.com/julianstephens/journalbot/internal/cli"
	"github.com/julianstephens/journalbot/internal/storage"
)

type MigrateCmd struct{}

func (c *MigrateCmd) Run(ctx *cli.Context) error {
	bg := context.Background()

	// Init opens without the version check Load performs, then applies
	// whatever is pending.
	if err := ctx.Store.Init(bg); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}
	defer ctx.Store.Close()

	m, ok := ctx.Store.(storage.Migrator)
	if !ok {
		fmt.Println("Storage has no versioned schema.")
		return nil
	}
	runner, err := m.Migrations()
	if err != nil {
		return err
	}
	current, err := runner.GetCurrentVersion(bg)
	if err != nil {
		return fmt.Errorf("failed to read schema version: %w", err)
	}
	latest, err := runner.GetLatestVersion()
	if err != nil {
		return err
	}
	if current < latest {
		return fmt.Errorf("database is at version %d after migrating, expected %d", current, latest)
	}

	fmt.Printf("Database is up to date (schema version %d).\n", current)
	return nil
}
