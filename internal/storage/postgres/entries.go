package postgres

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
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (date) DO NOTHING`,
		entry.Date, entry.DocumentID, entry.Icon, entry.CreatedAt, entry.UpdatedAt)
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
	var e models.DiaryEntry
	err := s.db.QueryRowContext(ctx, "SELECT "+entryColumns+" FROM diary_entries WHERE date = $1", date).
		Scan(&e.Date, &e.DocumentID, &e.Icon, &e.CreatedAt, &e.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return models.DiaryEntry{}, storage.ErrNotFound
	}
	return e, err
}

func (s *Store) GetAllEntries(ctx context.Context) ([]models.DiaryEntry, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT "+entryColumns+" FROM diary_entries ORDER BY date")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []models.DiaryEntry
	for rows.Next() {
		var e models.DiaryEntry
		if err := rows.Scan(&e.Date, &e.DocumentID, &e.Icon, &e.CreatedAt, &e.UpdatedAt); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func (s *Store) UpdateEntryIcon(ctx context.Context, date, icon string) error {
	res, err := s.db.ExecContext(ctx,
		"UPDATE diary_entries SET icon = $1, updated_at = $2 WHERE date = $3",
		icon, time.Now().UTC(), date)
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
