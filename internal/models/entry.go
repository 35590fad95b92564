package models

import (
	"fmt"
	"time"
)

// DiaryEntry links a calendar date to the page holding that day's entry.
type DiaryEntry struct {
	Date       string    `json:"date"`           // YYYY-MM-DD in the configured timezone
	DocumentID string    `json:"document_id"`    // opaque page id, immutable once created
	Icon       string    `json:"icon,omitempty"` // single glyph, overwritable
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

func (e *DiaryEntry) Validate() error {
	if e.Date == "" {
		return fmt.Errorf("entry date cannot be empty")
	}
	if _, err := time.Parse("2006-01-02", e.Date); err != nil {
		return fmt.Errorf("invalid date format (expected YYYY-MM-DD): %w", err)
	}
	if e.DocumentID == "" {
		return fmt.Errorf("entry document id cannot be empty")
	}
	return nil
}
