package constants

import "time"

const (
	AppName           = "journalbot"
	DefaultConfigPath = "~/.config/journalbot/journalbot.db"
	Version           = "v0.1.0"
	EnvPrefix         = "JOURNALBOT_"

	// Keyring entries
	KeyringTelegramToken = "telegram-token"
	KeyringNotionToken   = "notion-token"
	KeyringDBConnection  = "database-connection"

	// DateFormat is the standard date format used throughout the application (YYYY-MM-DD)
	DateFormat = "2006-01-02"

	// TimeFormat is the standard time format used throughout the application (HH:MM)
	TimeFormat = "15:04"

	// TitleFormat renders page titles, e.g. "Sat 19 Jul 2025"
	TitleFormat = "Mon 02 Jan 2006"

	// Backup constants
	MaxBackups       = 14
	BackupDirName    = "backups"
	BackupFilePrefix = "journalbot-"
	BackupFileSuffix = ".db"

	// Run lock
	LockfileName = "journalbot.lock"

	// Settings written by setup and loaded before flags are parsed
	EnvFileName = "journalbot.env"

	// Daily prompt
	DefaultPromptTime  = "20:00"
	PromptRetryDelay   = 5 * time.Minute
	MaxPromptAttempts  = 3
	FirstReminderDelay = 2 * time.Hour

	// Notion
	NotionAPIBaseURL   = "https://api.notion.com/v1"
	NotionAPIVersion   = "2022-06-28"
	NotionRequestLimit = 30 * time.Second
	NotionMaxTextRun   = 2000
	NotionPageSize     = 100
	DefaultDiaryTag    = "Daily"

	// Telegram
	TelegramPollTimeout = 30
)

// ReminderMessages is the escalating text sent at each rung of the ladder.
var ReminderMessages = []string{
	"Just a gentle nudge! Don't forget your diary entry. ✨",
	"It's me again! Friendly reminder to capture today's moments.",
	"Final reminder for today's diary entry! It only takes a few minutes.",
}

// ReminderDelays[i] is the wait between rung i and rung i+1.
var ReminderDelays = []time.Duration{
	30 * time.Minute,
	90 * time.Minute,
}
