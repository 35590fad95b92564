package system

import (
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/huh"

	"github.com/julianstephens/journalbot/internal/cli"
	"github.com/julianstephens/journalbot/internal/constants"
	"github.com/julianstephens/journalbot/internal/keyring"
	"github.com/julianstephens/journalbot/internal/storage/postgres"
)

// KeyringSetCmd stores a secret in the OS keyring
type KeyringSetCmd struct {
	Name  string `arg:"" enum:"telegram-token,notion-token,database-connection" help:"Secret to store (telegram-token, notion-token, database-connection)."`
	Value string `arg:"" optional:"" help:"Secret value. Prompted for when omitted."`
}

func (cmd *KeyringSetCmd) Run(ctx *cli.Context) error {
	value := cmd.Value
	if value == "" {
		if err := huh.NewInput().
			Title(cmd.Name).
			EchoMode(huh.EchoModePassword).
			Value(&value).
			Run(); err != nil {
			return err
		}
	}
	value = strings.TrimSpace(value)

	if err := validateSecret(cmd.Name, value); err != nil {
		return err
	}
	if err := keyring.Set(cmd.Name, value); err != nil {
		return err
	}

	cli.Success("%s stored in OS keyring", cmd.Name)
	return nil
}

func validateSecret(name, value string) error {
	if value == "" {
		return fmt.Errorf("%s cannot be empty", name)
	}
	if name != constants.KeyringDBConnection {
		return nil
	}
	if !postgres.IsConnString(value) {
		return errors.New("connection string must be a valid PostgreSQL connection string")
	}
	// The keyring is encrypted, so an embedded password is acceptable here.
	if err := postgres.ValidateConnString(value, true); err != nil {
		return fmt.Errorf("invalid connection string: %w", err)
	}
	return nil
}

// KeyringGetCmd prints a stored secret with its sensitive part masked
type KeyringGetCmd struct {
	Name string `arg:"" enum:"telegram-token,notion-token,database-connection" help:"Secret to show."`
}

func (cmd *KeyringGetCmd) Run(ctx *cli.Context) error {
	value, err := keyring.Get(cmd.Name)
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return fmt.Errorf("no %s found in keyring. Use 'journalbot keyring set %s' to store one", cmd.Name, cmd.Name)
		}
		return fmt.Errorf("failed to retrieve %s from keyring: %w", cmd.Name, err)
	}

	if cmd.Name == constants.KeyringDBConnection {
		fmt.Println(maskPassword(value))
	} else {
		fmt.Println(maskToken(value))
	}
	return nil
}

// KeyringDeleteCmd removes a secret from the OS keyring
type KeyringDeleteCmd struct {
	Name string `arg:"" enum:"telegram-token,notion-token,database-connection" help:"Secret to delete."`
}

func (cmd *KeyringDeleteCmd) Run(ctx *cli.Context) error {
	if err := keyring.Delete(cmd.Name); err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return fmt.Errorf("no %s found in keyring", cmd.Name)
		}
		return err
	}
	cli.Success("%s deleted from OS keyring", cmd.Name)
	return nil
}

// KeyringStatusCmd checks the keyring and lists which secrets are stored
type KeyringStatusCmd struct{}

func (cmd *KeyringStatusCmd) Run(ctx *cli.Context) error {
	if !keyring.IsAvailable() {
		cli.Failure("OS keyring is not available on this system")
		return errors.New("keyring unavailable")
	}
	cli.Success("OS keyring is available")

	for _, name := range keyring.Names {
		if _, err := keyring.Get(name); err == nil {
			cli.Success("%s is stored", name)
		} else {
			fmt.Println(cli.Dim("ℹ No " + name + " stored"))
		}
	}
	return nil
}

// maskToken keeps a short prefix so tokens can be told apart.
func maskToken(s string) string {
	if len(s) <= 8 {
		return "****"
	}
	return s[:4] + "****"
}

// maskPassword masks passwords in connection strings for display
func maskPassword(connStr string) string {
	if strings.HasPrefix(connStr, "postgres://") || strings.HasPrefix(connStr, "postgresql://") {
		if idx := strings.Index(connStr, "://"); idx != -1 {
			remaining := connStr[idx+3:]
			// The last @ separates user info from host.
			if atIdx := strings.LastIndex(remaining, "@"); atIdx != -1 {
				userInfo := remaining[:atIdx]
				if colonIdx := strings.Index(userInfo, ":"); colonIdx != -1 {
					return connStr[:idx+3] + userInfo[:colonIdx] + ":****" + connStr[idx+3+atIdx:]
				}
			}
		}
	}

	if strings.Contains(connStr, "password=") {
		parts := strings.Fields(connStr)
		masked := make([]string, 0, len(parts))
		for _, part := range parts {
			if strings.HasPrefix(part, "password=") {
				masked = append(masked, "password=****")
			} else {
				masked = append(masked, part)
			}
		}
		return strings.Join(masked, " ")
	}

	return connStr
}
