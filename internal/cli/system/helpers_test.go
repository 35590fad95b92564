package system

import (
	"path/filepath"
	"testing"

	gokeyring "github.com/zalando/go-keyring"

	"github.com/julianstephens/journalbot/internal/cli"
	"github.com/julianstephens/journalbot/internal/config"
	"github.com/julianstephens/journalbot/internal/storage/sqlite"
)

// newTestContext returns a context over an uninitialized SQLite index in a
// temp directory. Secrets resolve against a mock keyring.
func newTestContext(t *testing.T) (*cli.Context, string) {
	t.Helper()
	gokeyring.MockInit()

	dbPath := filepath.Join(t.TempDir(), "test.db")
	store := sqlite.NewStore(dbPath)
	t.Cleanup(func() { store.Close() })

	return &cli.Context{
		Config: &config.Config{
			Data:     dbPath,
			Timezone: "UTC",
			PromptAt: "20:00",
			Tag:      "Daily",
		},
		Store: store,
	}, dbPath
}
