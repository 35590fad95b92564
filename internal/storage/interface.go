package storage

import (
	"context"
	"errors"

	"github.com/julianstephens/journalbot/internal/migration"
	"github.com/julianstephens/journalbot/internal/models"
)

// ErrNotFound is returned when no entry exists for the requested date.
var ErrNotFound = errors.New("entry not found")

// Provider persists the entry index. Implementations must keep at most one
// entry per date: AddEntry on an existing date changes nothing and reports
// created=false.
type Provider interface {
	// Lifecycle
	Init(ctx context.Context) error
	Load(ctx context.Context) error
	Close() error
	Ping(ctx context.Context) error

	// Entries
	AddEntry(ctx context.Context, entry models.DiaryEntry) (created bool, err error)
	GetEntry(ctx context.Context, date string) (models.DiaryEntry, error)
	GetAllEntries(ctx context.Context) ([]models.DiaryEntry, error)
	UpdateEntryIcon(ctx context.Context, date, icon string) error

	// Utils
	GetConfigPath() string
}

// Migrator is implemented by stores with a versioned schema.
type Migrator interface {
	Migrations() (*migration.Runner, error)
}
