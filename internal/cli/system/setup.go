package system

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/joho/godotenv"

	"github.com/julianstephens/journalbot/internal/cli"
	"github.com/julianstephens/journalbot/internal/constants"
	"github.com/julianstephens/journalbot/internal/keyring"
	"github.com/julianstephens/journalbot/internal/utils"
)

// SetupCmd asks for everything the bot needs. Tokens go to the keyring,
// the rest to an env file loaded on every start.
type SetupCmd struct {
	EnvFile string `name:"env-file" help:"Where to write non-secret settings." type:"path" default:"${default_env_file}"`
}

type setupAnswers struct {
	ChatID         string
	NotionDatabase string
	Timezone       string
	PromptAt       string
	TelegramToken  string
	NotionToken    string
}

func (cmd *SetupCmd) Run(ctx *cli.Context) error {
	a := setupAnswers{
		Timezone: ctx.Config.Timezone,
		PromptAt: ctx.Config.PromptAt,
	}
	if ctx.Config.ChatID != 0 {
		a.ChatID = strconv.FormatInt(ctx.Config.ChatID, 10)
	}
	a.NotionDatabase = ctx.Config.NotionDatabase

	if err := newSetupForm(&a).Run(); err != nil {
		if errors.Is(err, huh.ErrUserAborted) {
			fmt.Println("Setup cancelled.")
			return nil
		}
		return err
	}

	if err := a.apply(cmd.EnvFile); err != nil {
		return err
	}
	cli.Success("Settings written to %s", cmd.EnvFile)
	fmt.Println(cli.Dim("   Run 'journalbot init' once, then 'journalbot run'."))
	return nil
}

func keepHint(name string) string {
	if keyring.Lookup(name) != "" {
		return "Leave empty to keep the stored value."
	}
	return ""
}

func newSetupForm(a *setupAnswers) *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Telegram chat id").
				Description("The only chat the bot will talk to.").
				Value(&a.ChatID).
				Validate(validateChatID),
			huh.NewInput().
				Title("Notion database id").
				Value(&a.NotionDatabase).
				Validate(func(s string) error {
					if strings.TrimSpace(s) == "" {
						return fmt.Errorf("database id cannot be empty")
					}
					return nil
				}),
			huh.NewInput().
				Title("Timezone").
				Description("IANA name, or Local.").
				Value(&a.Timezone).
				Validate(func(s string) error {
					if !utils.ValidateTimezone(strings.TrimSpace(s)) {
						return fmt.Errorf("unknown timezone")
					}
					return nil
				}),
			huh.NewInput().
				Title("Daily prompt time (HH:MM)").
				Value(&a.PromptAt).
				Validate(func(s string) error {
					if !utils.ValidateTimeFormat(strings.TrimSpace(s)) {
						return fmt.Errorf("expected HH:MM")
					}
					return nil
				}),
		),
		huh.NewGroup(
			huh.NewInput().
				Title("Telegram bot token").
				Description(keepHint(constants.KeyringTelegramToken)).
				EchoMode(huh.EchoModePassword).
				Value(&a.TelegramToken),
			huh.NewInput().
				Title("Notion integration token").
				Description(keepHint(constants.KeyringNotionToken)).
				EchoMode(huh.EchoModePassword).
				Value(&a.NotionToken),
		),
	).WithTheme(huh.ThemeDracula())
}

func validateChatID(s string) error {
	id, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil {
		return fmt.Errorf("chat id must be a number")
	}
	if id == 0 {
		return fmt.Errorf("chat id cannot be 0")
	}
	return nil
}

// apply stores tokens and merges the other answers into envFile, keeping
// any unrelated keys already there.
func (a setupAnswers) apply(envFile string) error {
	if err := validateChatID(a.ChatID); err != nil {
		return err
	}

	secrets := map[string]string{
		constants.KeyringTelegramToken: a.TelegramToken,
		constants.KeyringNotionToken:   a.NotionToken,
	}
	for name, value := range secrets {
		value = strings.TrimSpace(value)
		if value == "" {
			continue
		}
		if err := keyring.Set(name, value); err != nil {
			return fmt.Errorf("%w (set %sTELEGRAM_TOKEN / %sNOTION_TOKEN in the environment instead)", err, constants.EnvPrefix, constants.EnvPrefix)
		}
	}

	env := map[string]string{}
	if existing, err := godotenv.Read(envFile); err == nil {
		env = existing
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("failed to read %s: %w", envFile, err)
	}
	env[constants.EnvPrefix+"CHAT_ID"] = strings.TrimSpace(a.ChatID)
	env[constants.EnvPrefix+"NOTION_DATABASE"] = strings.TrimSpace(a.NotionDatabase)
	env[constants.EnvPrefix+"TIMEZONE"] = strings.TrimSpace(a.Timezone)
	env[constants.EnvPrefix+"PROMPT_AT"] = strings.TrimSpace(a.PromptAt)

	if err := os.MkdirAll(filepath.Dir(envFile), 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := godotenv.Write(env, envFile); err != nil {
		return fmt.Errorf("failed to write %s: %w", envFile, err)
	}
	return os.Chmod(envFile, 0600)
}
