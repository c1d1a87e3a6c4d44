// Package secrets keeps credentials out of the config file: OS keychain
// first, environment variables as the override for headless setups.
package secrets

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/zalando/go-keyring"
)

const (
	// KeyringService groups the engine's secrets in the OS keychain.
	KeyringService = "jobscout"

	scoringAccount = "scoring-api-key"
	scoringEnvVar  = "OPENAI_API_KEY"
)

// GetScoringAPIKey resolves the scoring backend key: env var wins, keychain
// otherwise.
func GetScoringAPIKey() (string, error) {
	if key := strings.TrimSpace(os.Getenv(scoringEnvVar)); key != "" {
		return key, nil
	}
	key, err := keyring.Get(KeyringService, scoringAccount)
	if err == nil && strings.TrimSpace(key) != "" {
		return key, nil
	}
	return "", fmt.Errorf("scoring API key not found (set %s or store it in the keychain)", scoringEnvVar)
}

func SetScoringAPIKey(key string) error {
	if strings.TrimSpace(key) == "" {
		return errors.New("API key is empty")
	}
	return keyring.Set(KeyringService, scoringAccount, key)
}

func GetIMAPPassword(account string) (string, error) {
	if pw := strings.TrimSpace(os.Getenv("JOBSCOUT_IMAP_PASSWORD")); pw != "" {
		return pw, nil
	}
	if strings.TrimSpace(account) != "" {
		pw, err := keyring.Get(KeyringService, account)
		if err == nil && strings.TrimSpace(pw) != "" {
			return pw, nil
		}
	}
	return "", errors.New("IMAP password not found (set it in keychain or via env)")
}

func SetIMAPPassword(account, password string) error {
	if strings.TrimSpace(account) == "" {
		return errors.New("keyring account name is empty")
	}
	if strings.TrimSpace(password) == "" {
		return errors.New("password is empty")
	}
	return keyring.Set(KeyringService, account, password)
}

func DeleteIMAPPassword(account string) error {
	if strings.TrimSpace(account) == "" {
		return errors.New("keyring account name is empty")
	}
	return keyring.Delete(KeyringService, account)
}

// IMAPKeyringAccount names the keychain entry for one mailbox login.
func IMAPKeyringAccount(username, host string) string {
	return fmt.Sprintf("jobscout:imap:%s@%s", username, host)
}
