package backups

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/charmbracelet/huh"

	"github.com/julianstephens/journalbot/internal/backup"
	"github.com/julianstephens/journalbot/internal/cli"
	"github.com/julianstephens/journalbot/internal/runlock"
)

var errNotSQLite = errors.New("backups are only managed for a SQLite index; use pg_dump for PostgreSQL")

// confirmRestore is swapped in tests.
var confirmRestore = func(path string) (bool, error) {
	var ok bool
	err := huh.NewConfirm().
		Title("Replace the entry index with this backup?").
		Description(path).
		Affirmative("Restore").
		Negative("Cancel").
		Value(&ok).
		Run()
	return ok, err
}

func manager(ctx *cli.Context) (*backup.Manager, error) {
	path, ok := ctx.SQLitePath()
	if !ok {
		return nil, errNotSQLite
	}
	return backup.NewManager(path), nil
}

type BackupCreateCmd struct{}

func (c *BackupCreateCmd) Run(ctx *cli.Context) error {
	mgr, err := manager(ctx)
	if err != nil {
		return err
	}
	path, err := mgr.CreateBackup(context.Background())
	if err != nil {
		return fmt.Errorf("backup failed: %w", err)
	}
	cli.Success("Backup created: %s", filepath.Base(path))
	return nil
}

type BackupListCmd struct{}

func (c *BackupListCmd) Run(ctx *cli.Context) error {
	mgr, err := manager(ctx)
	if err != nil {
		return err
	}
	backups, err := mgr.ListBackups()
	if err != nil {
		return fmt.Errorf("failed to list backups: %w", err)
	}

	if len(backups) == 0 {
		fmt.Println("No backups found.")
		cli.Detail("Backups are stored in: %s", mgr.GetBackupDir())
		return nil
	}

	fmt.Println(cli.Heading(fmt.Sprintf("Backups (%d)", len(backups))))
	for _, b := range backups {
		fmt.Printf("  %s  %s  %s\n",
			b.Timestamp.Format("2006-01-02 15:04:05"),
			filepath.Base(b.Path),
			cli.Dim(fmt.Sprintf("(%.1f KB)", float64(b.Size)/1024.0)))
	}
	cli.Detail("Backup directory: %s", mgr.GetBackupDir())
	return nil
}

type BackupRestoreCmd struct {
	BackupFile string `arg:"" help:"Path or filename of the backup to restore."`
	Yes        bool   `short:"y" help:"Restore without asking for confirmation."`
}

func (c *BackupRestoreCmd) Run(ctx *cli.Context) error {
	mgr, err := manager(ctx)
	if err != nil {
		return err
	}

	if pid, running, err := runlock.Owner(ctx.Config.DataDir()); err == nil && running {
		return fmt.Errorf("%w (pid %d): stop the bot before restoring", runlock.ErrAlreadyRunning, pid)
	}

	path, err := resolve(c.BackupFile, mgr.GetBackupDir())
	if err != nil {
		return err
	}

	if !c.Yes {
		ok, err := confirmRestore(path)
		if err != nil {
			if errors.Is(err, huh.ErrUserAborted) {
				fmt.Println("Restore cancelled.")
				return nil
			}
			return err
		}
		if !ok {
			fmt.Println("Restore cancelled.")
			return nil
		}
	}

	if err := ctx.Store.Close(); err != nil {
		cli.Warning("failed to close database connection: %v", err)
	}

	previous, err := mgr.RestoreBackup(context.Background(), path)
	if err != nil {
		return fmt.Errorf("restore failed: %w", err)
	}
	cli.Success("Entry index restored from %s", filepath.Base(path))
	if previous != "" {
		cli.Detail("Previous index saved as %s", filepath.Base(previous))
	}
	return nil
}

// resolve accepts an absolute path, a path relative to the working
// directory, or a bare filename inside the backup directory.
func resolve(name, backupDir string) (string, error) {
	if filepath.IsAbs(name) {
		if _, err := os.Stat(name); err != nil {
			return "", fmt.Errorf("backup file not found: %s", name)
		}
		return name, nil
	}
	if _, err := os.Stat(name); err == nil {
		return filepath.Abs(name)
	}
	candidate := filepath.Join(backupDir, name)
	if _, err := os.Stat(candidate); err == nil {
		return candidate, nil
	}
	return "", fmt.Errorf("backup file not found: tried current directory and %s", backupDir)
}
