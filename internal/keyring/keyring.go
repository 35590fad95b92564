package keyring

import (
	"errors"
	"fmt"

	"github.com/julianstephens/journalbot/internal/constants"
	"github.com/zalando/go-keyring"
)

var (
	// ErrNotFound is returned when the requested secret is not in the keyring
	ErrNotFound = errors.New("secret not found in keyring")
	// ErrKeyringUnavailable is returned when the OS keyring is not available
	ErrKeyringUnavailable = errors.New("OS keyring is not available")
	// ErrUnknownSecret is returned for names outside Names
	ErrUnknownSecret = errors.New("unknown secret name")
)

// Names lists every secret the bot keeps in the keyring.
var Names = []string{
	constants.KeyringTelegramToken,
	constants.KeyringNotionToken,
	constants.KeyringDBConnection,
}

func checkName(name string) error {
	for _, n := range Names {
		if n == name {
			return nil
		}
	}
	return fmt.Errorf("%w: %q", ErrUnknownSecret, name)
}

// Get retrieves a secret from the OS keyring.
// Returns ErrNotFound if nothing is stored under name.
func Get(name string) (string, error) {
	if err := checkName(name); err != nil {
		return "", err
	}
	value, err := keyring.Get(constants.AppName, name)
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("%w: %v", ErrKeyringUnavailable, err)
	}
	return value, nil
}

// Set stores a secret in the OS keyring.
func Set(name, value string) error {
	if err := checkName(name); err != nil {
		return err
	}
	if value == "" {
		return fmt.Errorf("%s cannot be empty", name)
	}
	if err := keyring.Set(constants.AppName, name, value); err != nil {
		return fmt.Errorf("failed to store %s in keyring: %w", name, err)
	}
	return nil
}

// Delete removes a secret from the OS keyring.
func Delete(name string) error {
	if err := checkName(name); err != nil {
		return err
	}
	if err := keyring.Delete(constants.AppName, name); err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("failed to delete %s from keyring: %w", name, err)
	}
	return nil
}

// Lookup returns the secret or "" when it is absent or the keyring is
// unusable. Used for optional fallbacks where a missing value is reported
// later by validation.
func Lookup(name string) string {
	value, err := Get(name)
	if err != nil {
		return ""
	}
	return value
}

// IsAvailable checks if the OS keyring is available on the current system.
// This is a best-effort check and may not catch all failure scenarios.
func IsAvailable() bool {
	_, err := keyring.Get(constants.AppName, "test-availability")
	return err == nil || errors.Is(err, keyring.ErrNotFound)
}
