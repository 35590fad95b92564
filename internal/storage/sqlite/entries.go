package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/julianstephens/journalbot/internal/models"
	"github.com/julianstephens/journalbot/internal/storage"
)

const entryColumns = "date, document_id, icon, created_at, updated_at"

func (s *Store) AddEntry(ctx context.Context, entry models.DiaryEntry) (bool, error) {
	if err := entry.Validate(); err != nil {
		return false, err
	}
	now := time.Now().UTC()
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = now
	}
	if entry.UpdatedAt.IsZero() {
		entry.UpdatedAt = entry.CreatedAt
	}

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO diary_entries (`+entryColumns+`)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(date) DO NOTHING`,
		entry.Date, entry.DocumentID, entry.Icon,
		entry.CreatedAt.UTC().Format(time.RFC3339Nano),
		entry.UpdatedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return false, fmt.Errorf("failed to insert entry %s: %w", entry.Date, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (s *Store) GetEntry(ctx context.Context, date string) (models.DiaryEntry, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+entryColumns+" FROM diary_entries WHERE date = ?", date)
	entry, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return models.DiaryEntry{}, storage.ErrNotFound
	}
	return entry, err
}

func (s *Store) GetAllEntries(ctx context.Context) ([]models.DiaryEntry, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT "+entryColumns+" FROM diary_entries ORDER BY date")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []models.DiaryEntry
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

func (s *Store) UpdateEntryIcon(ctx context.Context, date, icon string) error {
	res, err := s.db.ExecContext(ctx,
		"UPDATE diary_entries SET icon = ?, updated_at = ? WHERE date = ?",
		icon, time.Now().UTC().Format(time.RFC3339Nano), date)
	if err != nil {
		return fmt.Errorf("failed to update icon for %s: %w", date, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return storage.ErrNotFound
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanEntry(row scanner) (models.DiaryEntry, error) {
	var entry models.DiaryEntry
	var createdAt, updatedAt string
	if err := row.Scan(&entry.Date, &entry.DocumentID, &entry.Icon, &createdAt, &updatedAt); err != nil {
		return models.DiaryEntry{}, err
	}
	var err error
	if entry.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt); err != nil {
		return models.DiaryEntry{}, fmt.Errorf("bad created_at for %s: %w", entry.Date, err)
	}
	if entry.UpdatedAt, err = time.Parse(time.RFC3339Nano, updatedAt); err != nil {
		return models.DiaryEntry{}, fmt.Errorf("bad updated_at for %s: %w", entry.Date, err)
	}
	return entry, nil
}
