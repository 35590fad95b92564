package entries

import (
	"context"
	"fmt"

	"github.com/charmbracelet/lipgloss"

	"github.com/julianstephens/journalbot/internal/cli"
	"github.com/julianstephens/journalbot/internal/config"
	"github.com/julianstephens/journalbot/internal/constants"
	"github.com/julianstephens/journalbot/internal/index"
	"github.com/julianstephens/journalbot/internal/notion"
)

var (
	dateStyle = lipgloss.NewStyle().Bold(true)
	iconStyle = lipgloss.NewStyle().Width(3)
	idStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
)

// newLister is swapped in tests.
var newLister = func(token, databaseID, tag string) index.Lister {
	return notion.New(token, databaseID, notion.WithTag(tag))
}

type ListCmd struct {
	Limit  int  `help:"Show only the most recent N entries (0 for all)." default:"0"`
	Oldest bool `help:"List oldest entries first."`
}

func (c *ListCmd) Run(ctx *cli.Context) error {
	all, err := ctx.Store.GetAllEntries(context.Background())
	if err != nil {
		return fmt.Errorf("failed to load entries: %w", err)
	}
	if len(all) == 0 {
		fmt.Println("No diary entries indexed yet.")
		return nil
	}

	// Stored order is by date ascending.
	if !c.Oldest {
		for i, j := 0, len(all)-1; i < j; i, j = i+1, j-1 {
			all[i], all[j] = all[j], all[i]
		}
	}
	if c.Limit > 0 && len(all) > c.Limit {
		all = all[:c.Limit]
	}

	fmt.Println(cli.Heading(fmt.Sprintf("Diary entries (%d)", len(all))))
	for _, e := range all {
		icon := e.Icon
		if icon == "" {
			icon = "·"
		}
		fmt.Println(dateStyle.Render(e.Date) + "  " + iconStyle.Render(icon) + idStyle.Render(e.DocumentID))
	}
	return nil
}

// RebuildCmd re-reads every tagged page from Notion and adds the dates the
// index is missing. Existing entries are left alone.
type RebuildCmd struct{}

func (c *RebuildCmd) Run(ctx *cli.Context) error {
	cfg := ctx.Config
	if cfg.NotionDatabase == "" {
		return fmt.Errorf("notion database id is not configured")
	}
	token, err := config.Secret(constants.KeyringNotionToken)
	if err != nil {
		return err
	}
	loc, err := cfg.Location()
	if err != nil {
		return err
	}

	bg := context.Background()
	idx := index.New(ctx.Store, nil)
	if err := idx.Load(bg); err != nil {
		return err
	}
	before := idx.Len()

	added, err := idx.Rebuild(bg, newLister(token, cfg.NotionDatabase, cfg.Tag), loc)
	if err != nil {
		return err
	}
	cli.Success("Rebuilt entry index: %d added, %d total", added, before+added)
	return nil
}
