package cli

import (
	"context"
	"fmt"

	"github.com/charmbracelet/lipgloss"

	"github.com/julianstephens/journalbot/internal/backup"
	"github.com/julianstephens/journalbot/internal/config"
	"github.com/julianstephens/journalbot/internal/logger"
	"github.com/julianstephens/journalbot/internal/storage"
	"github.com/julianstephens/journalbot/internal/storage/postgres"
	"github.com/julianstephens/journalbot/internal/storage/sqlite"
)

type Context struct {
	Config *config.Config
	Store  storage.Provider
}

// NewStore picks the backend from the shape of source.
func NewStore(source string) storage.Provider {
	if postgres.IsConnString(source) {
		return postgres.New(source)
	}
	return sqlite.NewStore(source)
}

// SQLitePath returns the database file when the store is SQLite.
func (c *Context) SQLitePath() (string, bool) {
	if s, ok := c.Store.(*sqlite.Store); ok {
		return s.GetConfigPath(), true
	}
	return "", false
}

// PerformAutomaticBackup snapshots a SQLite index, logging failures
// instead of interrupting the caller.
func (c *Context) PerformAutomaticBackup(ctx context.Context) {
	path, ok := c.SQLitePath()
	if !ok {
		return
	}
	if _, err := backup.NewManager(path).CreateBackup(ctx); err != nil {
		logger.Warn("automatic backup failed", "error", err)
	}
}

var (
	okStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("42")).Bold(true)
	failStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
	warnStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	skipStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	dimStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	headStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("205")).Bold(true)
)

func Success(format string, a ...interface{}) {
	fmt.Println(okStyle.Render("✓") + " " + fmt.Sprintf(format, a...))
}

func Failure(format string, a ...interface{}) {
	fmt.Println(failStyle.Render("❌") + " " + fmt.Sprintf(format, a...))
}

func Warning(format string, a ...interface{}) {
	fmt.Println(warnStyle.Render("⚠") + " " + fmt.Sprintf(format, a...))
}

func Skipped(format string, a ...interface{}) {
	fmt.Println(skipStyle.Render("⊘ " + fmt.Sprintf(format, a...)))
}

// Detail prints an indented secondary line.
func Detail(format string, a ...interface{}) {
	fmt.Println(dimStyle.Render("   " + fmt.Sprintf(format, a...)))
}

func Heading(s string) string {
	return headStyle.Render(s)
}

func Dim(s string) string {
	return dimStyle.Render(s)
}
