// Package config holds the bot's settings. Values come from flags, then
// JOURNALBOT_* environment variables (a .env file is loaded first), then
// the OS keyring for secrets.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/julianstephens/journalbot/internal/constants"
	"github.com/julianstephens/journalbot/internal/keyring"
	"github.com/julianstephens/journalbot/internal/storage/postgres"
	"github.com/julianstephens/journalbot/internal/utils"
	"github.com/julianstephens/journalbot/internal/validation"
)

// Config is embedded into the CLI so every command shares the same flags.
type Config struct {
	Data           string `help:"SQLite file path or PostgreSQL connection string. A PostgreSQL password must live in the keyring, not here." default:"${default_data}" env:"JOURNALBOT_DATA"`
	ChatID         int64  `name:"chat-id" help:"Telegram chat id of the diary owner." env:"JOURNALBOT_CHAT_ID"`
	NotionDatabase string `name:"notion-database" help:"Notion database holding the diary pages." env:"JOURNALBOT_NOTION_DATABASE"`
	Timezone       string `help:"IANA timezone used for dates and the daily prompt." default:"${default_timezone}" env:"JOURNALBOT_TIMEZONE"`
	PromptAt       string `name:"prompt-at" help:"Daily prompt time (HH:MM)." default:"${default_prompt}" env:"JOURNALBOT_PROMPT_AT"`
	Tag            string `help:"Tag that marks diary pages." default:"${default_tag}" env:"JOURNALBOT_TAG"`
	IconRanges     string `name:"icon-ranges" help:"Code point ranges accepted as page icons, e.g. 1F300-1FAFF,2600-27BF." env:"JOURNALBOT_ICON_RANGES"`
	StatusAddr     string `name:"status-addr" help:"Listen address for the status API. Empty disables it." env:"JOURNALBOT_STATUS_ADDR"`
	Debug          bool   `help:"Enable debug logging." env:"JOURNALBOT_DEBUG"`
}

// Vars supplies the ${...} defaults referenced by the struct tags.
func Vars() map[string]string {
	return map[string]string{
		"default_data":     constants.DefaultConfigPath,
		"default_timezone": constants.DefaultTimezone,
		"default_prompt":   constants.DefaultPromptTime,
		"default_tag":      constants.DefaultDiaryTag,
		"default_env_file": DefaultEnvFile(),
	}
}

// DefaultEnvFile is the settings file written by setup, next to the
// default index.
func DefaultEnvFile() string {
	return filepath.Join(filepath.Dir(ExpandHome(constants.DefaultConfigPath)), constants.EnvFileName)
}

var (
	ErrMissingSecret = errors.New("secret not configured")
	ErrMissingChatID = errors.New("chat id not configured (set --chat-id or JOURNALBOT_CHAT_ID)")
	ErrMissingDB     = errors.New("notion database not configured (set --notion-database or JOURNALBOT_NOTION_DATABASE)")
)

// secretEnv maps keyring names to the environment variables that override
// them.
var secretEnv = map[string]string{
	constants.KeyringTelegramToken: constants.EnvPrefix + "TELEGRAM_TOKEN",
	constants.KeyringNotionToken:   constants.EnvPrefix + "NOTION_TOKEN",
	constants.KeyringDBConnection:  constants.EnvPrefix + "DB_CONNECTION",
}

var lookupKeyring = keyring.Lookup

// Secret resolves a secret from its environment variable, falling back to
// the keyring.
func Secret(name string) (string, error) {
	if env, ok := secretEnv[name]; ok {
		if v := strings.TrimSpace(os.Getenv(env)); v != "" {
			return v, nil
		}
	}
	if v := lookupKeyring(name); v != "" {
		return v, nil
	}
	return "", fmt.Errorf("%w: %s (run 'journalbot setup' or set %s)", ErrMissingSecret, name, secretEnv[name])
}

// DataSource returns where the entry index lives. When Data is left at
// its default and a connection string is stored as a secret, that wins.
// trusted reports whether the source came from a secret store, where an
// embedded password is allowed.
func (c *Config) DataSource() (source string, trusted bool) {
	if c.Data == "" || c.Data == constants.DefaultConfigPath {
		if conn, err := Secret(constants.KeyringDBConnection); err == nil {
			return conn, true
		}
	}
	data := c.Data
	if data == "" {
		data = constants.DefaultConfigPath
	}
	if postgres.IsConnString(data) {
		return data, false
	}
	return ExpandHome(data), false
}

// ExpandHome replaces a leading "~/" with the user's home directory.
func ExpandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}

// DataDir is where logs, backups and the run lock live. For PostgreSQL it
// falls back to the user config directory.
func (c *Config) DataDir() string {
	source, _ := c.DataSource()
	if !postgres.IsConnString(source) {
		return filepath.Dir(source)
	}
	dir, err := os.UserConfigDir()
	if err != nil {
		return filepath.Dir(ExpandHome(constants.DefaultConfigPath))
	}
	return filepath.Join(dir, constants.AppName)
}

func (c *Config) Location() (*time.Location, error) {
	return utils.LoadLocation(c.Timezone)
}

// Icons returns the configured icon ranges, or the defaults.
func (c *Config) Icons() (validation.IconRanges, error) {
	if strings.TrimSpace(c.IconRanges) == "" {
		return validation.DefaultIconRanges(), nil
	}
	return validation.ParseIconRanges(c.IconRanges)
}

// Validate checks formats only; missing secrets are reported when the bot
// starts.
func (c *Config) Validate() error {
	if !utils.ValidateTimezone(c.Timezone) {
		return fmt.Errorf("invalid timezone %q", c.Timezone)
	}
	if !utils.ValidateTimeFormat(c.PromptAt) {
		return fmt.Errorf("invalid prompt time %q (expected HH:MM)", c.PromptAt)
	}
	if strings.TrimSpace(c.Tag) == "" {
		return errors.New("tag cannot be empty")
	}
	if _, err := c.Icons(); err != nil {
		return err
	}
	if source, trusted := c.DataSource(); postgres.IsConnString(source) {
		if err := postgres.ValidateConnString(source, trusted); err != nil {
			return err
		}
	}
	return nil
}

// ValidateBot additionally requires the settings the bot cannot run
// without.
func (c *Config) ValidateBot() error {
	if err := c.Validate(); err != nil {
		return err
	}
	if c.ChatID == 0 {
		return ErrMissingChatID
	}
	if strings.TrimSpace(c.NotionDatabase) == "" {
		return ErrMissingDB
	}
	return nil
}
