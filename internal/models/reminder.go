package models

import "time"

// ReminderJob is one pending rung of the reminder ladder.
type ReminderJob struct {
	ID        string
	ChatID    int64
	Date      string // the day the ladder nags about (YYYY-MM-DD)
	Step      int    // 0-based escalation step
	FireAt    time.Time
	CreatedAt time.Time
}
