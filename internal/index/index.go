// Package index keeps the date → page mapping for every diary entry.
//
// Reads are served from memory; writes go to the storage provider first and
// are mirrored in memory once persisted (Remember is the exception). The mutex is never held across
// a storage call.
package index

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/julianstephens/journalbot/internal/clock"
	"github.com/julianstephens/journalbot/internal/logger"
	"github.com/julianstephens/journalbot/internal/models"
	"github.com/julianstephens/journalbot/internal/storage"
	"github.com/julianstephens/journalbot/internal/utils"
)

// Document is what a rebuild learns about one tagged page.
type Document struct {
	ID        string
	CreatedAt time.Time
	Icon      string
}

// Lister enumerates every tagged diary document in the remote store.
type Lister interface {
	QueryTaggedDocuments(ctx context.Context) ([]Document, error)
}

type Index struct {
	store storage.Provider
	clock clock.Clock

	mu      sync.RWMutex
	entries map[string]models.DiaryEntry
}

// New returns an empty index over store. A nil clk uses the wall clock.
func New(store storage.Provider, clk clock.Clock) *Index {
	if clk == nil {
		clk = clock.Real()
	}
	return &Index{
		store:   store,
		clock:   clk,
		entries: make(map[string]models.DiaryEntry),
	}
}

// Load replaces the in-memory view with the persisted entries.
func (x *Index) Load(ctx context.Context) error {
	all, err := x.store.GetAllEntries(ctx)
	if err != nil {
		return fmt.Errorf("failed to load entry index: %w", err)
	}
	m := make(map[string]models.DiaryEntry, len(all))
	for _, e := range all {
		m[e.Date] = e
	}

	x.mu.Lock()
	x.entries = m
	x.mu.Unlock()
	return nil
}

func (x *Index) Len() int {
	x.mu.RLock()
	defer x.mu.RUnlock()
	return len(x.entries)
}

func (x *Index) Get(date string) (models.DiaryEntry, bool) {
	x.mu.RLock()
	defer x.mu.RUnlock()
	e, ok := x.entries[date]
	return e, ok
}

func (x *Index) Has(date string) bool {
	_, ok := x.Get(date)
	return ok
}

// All returns every entry sorted by date.
func (x *Index) All() []models.DiaryEntry {
	x.mu.RLock()
	out := make([]models.DiaryEntry, 0, len(x.entries))
	for _, e := range x.entries {
		out = append(out, e)
	}
	x.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].Date < out[j].Date })
	return out
}

// Add registers an entry. An entry for an already indexed date is ignored
// and created is false.
func (x *Index) Add(ctx context.Context, entry models.DiaryEntry) (created bool, err error) {
	if x.Has(entry.Date) {
		return false, nil
	}
	created, err = x.store.AddEntry(ctx, entry)
	if err != nil {
		return false, err
	}
	if !created {
		// Persisted by someone else since Load; adopt the stored record.
		stored, err := x.store.GetEntry(ctx, entry.Date)
		if err != nil {
			return false, err
		}
		entry = stored
	}

	x.mu.Lock()
	if _, ok := x.entries[entry.Date]; !ok {
		x.entries[entry.Date] = entry
	} else {
		created = false
	}
	x.mu.Unlock()
	return created, nil
}

// Remember registers entry in memory only, for a page that exists remotely
// but could not be persisted. The date stays taken until the process exits.
// It reports false if the date was already indexed.
func (x *Index) Remember(entry models.DiaryEntry) bool {
	x.mu.Lock()
	defer x.mu.Unlock()
	if _, ok := x.entries[entry.Date]; ok {
		return false
	}
	x.entries[entry.Date] = entry
	return true
}

// SetIcon overwrites the icon of an indexed entry.
func (x *Index) SetIcon(ctx context.Context, date, icon string) error {
	if !x.Has(date) {
		return fmt.Errorf("%w: %s", storage.ErrNotFound, date)
	}
	if err := x.store.UpdateEntryIcon(ctx, date, icon); err != nil {
		return err
	}

	x.mu.Lock()
	if e, ok := x.entries[date]; ok {
		e.Icon = icon
		e.UpdatedAt = x.clock.Now().UTC()
		x.entries[date] = e
	}
	x.mu.Unlock()
	return nil
}

// Rebuild populates the index from the remote store, dating each document by
// its creation time in loc. Documents that cannot be registered are logged
// and skipped. Returns the number of entries added.
func (x *Index) Rebuild(ctx context.Context, lister Lister, loc *time.Location) (int, error) {
	docs, err := lister.QueryTaggedDocuments(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to list diary documents: %w", err)
	}

	added := 0
	for _, doc := range docs {
		if doc.ID == "" || doc.CreatedAt.IsZero() {
			logger.Warn("skipping document without id or creation time", "id", doc.ID)
			continue
		}
		entry := models.DiaryEntry{
			Date:       utils.DateKey(doc.CreatedAt, loc),
			DocumentID: doc.ID,
			Icon:       doc.Icon,
			CreatedAt:  doc.CreatedAt.UTC(),
		}
		created, err := x.Add(ctx, entry)
		if err != nil {
			logger.Warn("skipping document during rebuild", "id", doc.ID, "date", entry.Date, "error", err)
			continue
		}
		if created {
			added++
		} else {
			logger.Debug("date already indexed, keeping first document", "date", entry.Date, "id", doc.ID)
		}
	}
	logger.Info("entry index rebuilt", "documents", len(docs), "added", added)
	return added, nil
}
