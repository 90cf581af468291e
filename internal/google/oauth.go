package google

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"

	"golang.org/x/oauth2"
)

const (
	appName = "todosync"

	// DefaultAccount is used when no account is given.
	DefaultAccount = "default"

	legacyTokenFile = "google.token"
)

// ErrNoToken is returned when no usable token is stored for an account.
var ErrNoToken = errors.New("no Google OAuth token found")

var accountNamePattern = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

func validateAccountName(account string) error {
	if account == "" {
		return errors.New("account name cannot be empty")
	}
	if !accountNamePattern.MatchString(account) {
		return fmt.Errorf("invalid account name %q: only letters, digits, '-' and '_' are allowed", account)
	}
	return nil
}

// TokenDir returns the directory holding the token files.
func TokenDir() string {
	return filepath.Join(userCacheDir(), appName)
}

func getTokenFilePath(account string) string {
	return filepath.Join(TokenDir(), fmt.Sprintf("google-%s.token", account))
}

// HasTokenForAccount checks if a token file exists for the specified account
func HasTokenForAccount(account string) bool {
	if validateAccountName(account) != nil {
		return false
	}
	_, err := os.Stat(getTokenFilePath(account))
	return err == nil
}

// SaveTokenForAccount writes token to the account's token file, replacing
// any previous one.
func SaveTokenForAccount(account string, token *oauth2.Token) error {
	if err := validateAccountName(account); err != nil {
		return err
	}
	if token == nil || token.AccessToken == "" {
		return errors.New("token has no access token")
	}

	if err := os.MkdirAll(TokenDir(), 0700); err != nil {
		return fmt.Errorf("failed to create cache directory: %w", err)
	}

	data, err := json.Marshal(token)
	if err != nil {
		return fmt.Errorf("failed to encode token: %w", err)
	}

	if err := os.WriteFile(getTokenFilePath(account), data, 0600); err != nil {
		return fmt.Errorf("failed to write token file: %w", err)
	}

	return nil
}

// LoadTokenForAccount reads the account's token file.
func LoadTokenForAccount(account string) (*oauth2.Token, error) {
	if err := validateAccountName(account); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(getTokenFilePath(account))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w for account %s", ErrNoToken, account)
		}
		return nil, fmt.Errorf("failed to read token file: %w", err)
	}

	var token oauth2.Token
	if err := json.Unmarshal(data, &token); err != nil {
		return nil, fmt.Errorf("invalid token file for account %s: %w", account, err)
	}
	if token.AccessToken == "" {
		return nil, fmt.Errorf("%w for account %s", ErrNoToken, account)
	}

	return &token, nil
}

// DeleteTokenForAccount removes the account's token file. A missing file is not an error.
func DeleteTokenForAccount(account string) error {
	if err := validateAccountName(account); err != nil {
		return err
	}
	if err := os.Remove(getTokenFilePath(account)); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to delete token file: %w", err)
	}
	return nil
}

// MigrateDefaultToken converts a legacy "google.token" file holding
// "<access> <refresh>" into the default account's JSON token file. It is a
// no-op when there is no legacy file or the default token already exists.
func MigrateDefaultToken() error {
	legacy := filepath.Join(TokenDir(), legacyTokenFile)

	data, err := os.ReadFile(legacy)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read legacy token file: %w", err)
	}

	if !HasTokenForAccount(DefaultAccount) {
		fields := strings.Fields(string(data))
		if len(fields) == 0 {
			return errors.New("legacy token file is empty")
		}

		token := &oauth2.Token{AccessToken: fields[0], TokenType: "Bearer"}
		if len(fields) > 1 {
			token.RefreshToken = fields[1]
		}
		if err := SaveTokenForAccount(DefaultAccount, token); err != nil {
			return err
		}
	}

	if err := os.Remove(legacy); err != nil {
		return fmt.Errorf("failed to remove legacy token file: %w", err)
	}
	return nil
}

// GetAuthenticationErrorMessage explains how to provide a token for account.
func GetAuthenticationErrorMessage(account string) string {
	return fmt.Sprintf("No valid Google OAuth token for account %q. "+
		"Obtain an access token with the %s scope and store it with "+
		"'todosync token save --account %s', or set TODOSYNC_ACCESS_TOKEN.",
		account, TasksScope, account)
}

func userCacheDir() string {
	switch runtime.GOOS {
	case "darwin":
		return filepath.Join(homeDir(), "Library", "Caches")
	case "windows":
		for _, ev := range []string{"TEMP", "TMP"} {
			if v := os.Getenv(ev); v != "" {
				return v
			}
		}
		return os.TempDir()
	}
	if xdg := os.Getenv("XDG_CACHE_HOME"); xdg != "" {
		return xdg
	}
	return filepath.Join(homeDir(), ".cache")
}

func homeDir() string {
	if runtime.GOOS == "windows" {
		return os.Getenv("HOMEDRIVE") + os.Getenv("HOMEPATH")
	}
	return os.Getenv("HOME")
}
