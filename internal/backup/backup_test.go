package backup

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	_ "modernc.org/sqlite"

	"github.com/julianstephens/journalbot/internal/constants"
)

func setupTestDB(t *testing.T) string {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "journalbot.db")

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}
	defer db.Close()

	if _, err := db.Exec(`CREATE TABLE diary_entries (date TEXT PRIMARY KEY, document_id TEXT)`); err != nil {
		t.Fatalf("failed to create test table: %v", err)
	}
	if _, err := db.Exec(`INSERT INTO diary_entries VALUES ('2025-07-19', 'page-1'), ('2025-07-20', 'page-2')`); err != nil {
		t.Fatalf("failed to insert test data: %v", err)
	}
	return dbPath
}

func countEntries(t *testing.T, path string) int {
	t.Helper()
	db, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatalf("failed to open %s: %v", path, err)
	}
	defer db.Close()
	var n int
	if err := db.QueryRow("SELECT COUNT(*) FROM diary_entries").Scan(&n); err != nil {
		t.Fatalf("failed to count entries: %v", err)
	}
	return n
}

// fixedClock returns a now func that advances one second per call.
func fixedClock(start time.Time) func() time.Time {
	cur := start
	return func() time.Time {
		t := cur
		cur = cur.Add(time.Second)
		return t
	}
}

func TestCreateBackup(t *testing.T) {
	dbPath := setupTestDB(t)
	mgr := NewManager(dbPath)

	path, err := mgr.CreateBackup(context.Background())
	if err != nil {
		t.Fatalf("CreateBackup failed: %v", err)
	}
	if filepath.Dir(path) != mgr.GetBackupDir() {
		t.Errorf("backup written to %s, want dir %s", path, mgr.GetBackupDir())
	}
	name := filepath.Base(path)
	if !strings.HasPrefix(name, constants.BackupFilePrefix) || !strings.HasSuffix(name, constants.BackupFileSuffix) {
		t.Errorf("unexpected backup name %q", name)
	}
	if got := countEntries(t, path); got != 2 {
		t.Errorf("backup has %d entries, want 2", got)
	}
}

func TestCreateBackupMissingDatabase(t *testing.T) {
	mgr := NewManager(filepath.Join(t.TempDir(), "missing.db"))
	if _, err := mgr.CreateBackup(context.Background()); err == nil {
		t.Error("CreateBackup should fail when the database does not exist")
	}
}

func TestCreateBackupSameSecond(t *testing.T) {
	dbPath := setupTestDB(t)
	mgr := NewManager(dbPath)
	stamp := time.Date(2025, 7, 19, 20, 0, 0, 0, time.Local)
	mgr.now = func() time.Time { return stamp }

	first, err := mgr.CreateBackup(context.Background())
	if err != nil {
		t.Fatalf("first CreateBackup failed: %v", err)
	}
	second, err := mgr.CreateBackup(context.Background())
	if err != nil {
		t.Fatalf("second CreateBackup failed: %v", err)
	}
	if first == second {
		t.Fatalf("both backups written to %s", first)
	}
	if !strings.HasSuffix(second, "-1"+constants.BackupFileSuffix) {
		t.Errorf("second backup %s should carry a counter", second)
	}

	backups, err := mgr.ListBackups()
	if err != nil {
		t.Fatalf("ListBackups failed: %v", err)
	}
	if len(backups) != 2 {
		t.Errorf("ListBackups returned %d backups, want 2", len(backups))
	}
}

func TestListBackups(t *testing.T) {
	dbPath := setupTestDB(t)
	mgr := NewManager(dbPath)

	backups, err := mgr.ListBackups()
	if err != nil {
		t.Fatalf("ListBackups on missing dir failed: %v", err)
	}
	if len(backups) != 0 {
		t.Errorf("expected no backups, got %d", len(backups))
	}

	mgr.now = fixedClock(time.Date(2025, 7, 19, 20, 0, 0, 0, time.Local))
	for i := 0; i < 3; i++ {
		if _, err := mgr.CreateBackup(context.Background()); err != nil {
			t.Fatalf("CreateBackup failed: %v", err)
		}
	}
	// Noise the parser must skip
	_ = os.WriteFile(filepath.Join(mgr.GetBackupDir(), "notes.txt"), []byte("x"), 0600)
	_ = os.WriteFile(filepath.Join(mgr.GetBackupDir(), constants.BackupFilePrefix+"garbage.db"), []byte("x"), 0600)

	backups, err = mgr.ListBackups()
	if err != nil {
		t.Fatalf("ListBackups failed: %v", err)
	}
	if len(backups) != 3 {
		t.Fatalf("ListBackups returned %d backups, want 3", len(backups))
	}
	for i := 1; i < len(backups); i++ {
		if backups[i].Timestamp.After(backups[i-1].Timestamp) {
			t.Errorf("backups not sorted newest first at index %d", i)
		}
	}
}

func TestRotateBackups(t *testing.T) {
	dbPath := setupTestDB(t)
	mgr := NewManager(dbPath)
	mgr.keep = 2
	mgr.now = fixedClock(time.Date(2025, 7, 19, 20, 0, 0, 0, time.Local))

	var paths []string
	for i := 0; i < 4; i++ {
		p, err := mgr.CreateBackup(context.Background())
		if err != nil {
			t.Fatalf("CreateBackup failed: %v", err)
		}
		paths = append(paths, p)
	}

	backups, _ := mgr.ListBackups()
	if len(backups) != 2 {
		t.Fatalf("expected 2 backups after rotation, got %d", len(backups))
	}
	if backups[0].Path != paths[3] || backups[1].Path != paths[2] {
		t.Errorf("rotation kept %v, want the two newest", backups)
	}
	if _, err := os.Stat(paths[0]); !os.IsNotExist(err) {
		t.Error("oldest backup should have been removed")
	}
}

func TestRestoreBackup(t *testing.T) {
	ctx := context.Background()
	dbPath := setupTestDB(t)
	mgr := NewManager(dbPath)
	mgr.now = fixedClock(time.Date(2025, 7, 19, 20, 0, 0, 0, time.Local))

	saved, err := mgr.CreateBackup(ctx)
	if err != nil {
		t.Fatalf("CreateBackup failed: %v", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	if _, err := db.Exec("INSERT INTO diary_entries VALUES ('2025-07-21', 'page-3')"); err != nil {
		t.Fatalf("insert failed: %v", err)
	}
	db.Close()
	if got := countEntries(t, dbPath); got != 3 {
		t.Fatalf("database has %d entries, want 3", got)
	}

	previous, err := mgr.RestoreBackup(ctx, saved)
	if err != nil {
		t.Fatalf("RestoreBackup failed: %v", err)
	}
	if got := countEntries(t, dbPath); got != 2 {
		t.Errorf("restored database has %d entries, want 2", got)
	}
	if previous == "" {
		t.Fatal("RestoreBackup should snapshot the current database")
	}
	if got := countEntries(t, previous); got != 3 {
		t.Errorf("pre-restore snapshot has %d entries, want 3", got)
	}
}

func TestRestoreBackupRejectsInvalidFile(t *testing.T) {
	dbPath := setupTestDB(t)
	mgr := NewManager(dbPath)

	if _, err := mgr.RestoreBackup(context.Background(), filepath.Join(t.TempDir(), "nope.db")); err == nil {
		t.Error("RestoreBackup should fail for a missing file")
	}

	bogus := filepath.Join(t.TempDir(), "bogus.db")
	if err := os.WriteFile(bogus, []byte("definitely not sqlite, padded to look like a header....."), 0600); err != nil {
		t.Fatal(err)
	}
	if _, err := mgr.RestoreBackup(context.Background(), bogus); err == nil {
		t.Error("RestoreBackup should reject a corrupt file")
	}
	if got := countEntries(t, dbPath); got != 2 {
		t.Errorf("database changed after failed restore: %d entries", got)
	}
}

func TestParseName(t *testing.T) {
	tests := []struct {
		name string
		ok   bool
	}{
		{"journalbot-20250719-200000.db", true},
		{"journalbot-20250719-200000-3.db", true},
		{"journalbot-2025.db", false},
		{"other-20250719-200000.db", false},
		{"journalbot-20250719-200000.txt", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, ok := parseName(tt.name); ok != tt.ok {
				t.Errorf("parseName(%q) ok = %v, want %v", tt.name, ok, tt.ok)
			}
		})
	}
}
