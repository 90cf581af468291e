package google

import (
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
)

func useTempCache(t *testing.T) string {
	t.Helper()
	if runtime.GOOS == "darwin" || runtime.GOOS == "windows" {
		t.Skip("cache directory is not relocatable through XDG_CACHE_HOME")
	}
	dir := t.TempDir()
	t.Setenv("XDG_CACHE_HOME", dir)
	return dir
}

func TestValidateAccountName(t *testing.T) {
	tests := []struct {
		name    string
		account string
		wantErr bool
	}{
		{"valid default", "default", false},
		{"valid work", "work", false},
		{"valid with hyphen", "work-email", false},
		{"valid with underscore", "personal_email", false},
		{"valid alphanumeric", "account123", false},
		{"empty", "", true},
		{"with spaces", "my account", true},
		{"with special chars", "account@work", true},
		{"with slash", "work/personal", true},
		{"with dot", "work.email", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateAccountName(tt.account)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestGetTokenFilePath(t *testing.T) {
	tests := []struct {
		account string
		want    string
	}{
		{"default", "google-default.token"},
		{"work", "google-work.token"},
	}

	for _, tt := range tests {
		t.Run(tt.account, func(t *testing.T) {
			got := getTokenFilePath(tt.account)
			assert.Equal(t, tt.want, filepath.Base(got))
			assert.Equal(t, appName, filepath.Base(filepath.Dir(got)))
		})
	}
}

func TestSaveAndLoadToken(t *testing.T) {
	useTempCache(t)

	assert.False(t, HasTokenForAccount("work"))

	expiry := time.Date(2030, 1, 2, 3, 4, 5, 0, time.UTC)
	require.NoError(t, SaveTokenForAccount("work", &oauth2.Token{
		AccessToken:  "access",
		RefreshToken: "refresh",
		TokenType:    "Bearer",
		Expiry:       expiry,
	}))

	assert.True(t, HasTokenForAccount("work"))
	assert.False(t, HasTokenForAccount(DefaultAccount))

	info, err := os.Stat(getTokenFilePath("work"))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	token, err := LoadTokenForAccount("work")
	require.NoError(t, err)
	assert.Equal(t, "access", token.AccessToken)
	assert.Equal(t, "refresh", token.RefreshToken)
	assert.True(t, expiry.Equal(token.Expiry))

	require.NoError(t, DeleteTokenForAccount("work"))
	assert.False(t, HasTokenForAccount("work"))
	require.NoError(t, DeleteTokenForAccount("work"))
}

func TestSaveTokenForAccount_Invalid(t *testing.T) {
	useTempCache(t)

	assert.Error(t, SaveTokenForAccount("bad name", &oauth2.Token{AccessToken: "x"}))
	assert.Error(t, SaveTokenForAccount("work", nil))
	assert.Error(t, SaveTokenForAccount("work", &oauth2.Token{}))
}

func TestLoadTokenForAccount_Missing(t *testing.T) {
	useTempCache(t)

	_, err := LoadTokenForAccount("nobody")
	assert.True(t, errors.Is(err, ErrNoToken))

	_, err = LoadTokenForAccount("")
	assert.Error(t, err)
}

func TestLoadTokenForAccount_Corrupt(t *testing.T) {
	useTempCache(t)

	require.NoError(t, os.MkdirAll(TokenDir(), 0700))
	require.NoError(t, os.WriteFile(getTokenFilePath("broken"), []byte("not json"), 0600))

	_, err := LoadTokenForAccount("broken")
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrNoToken))
}

func TestHasTokenForAccount_InvalidNames(t *testing.T) {
	assert.False(t, HasTokenForAccount("invalid account"))
	assert.False(t, HasTokenForAccount(""))
}

func TestMigrateDefaultToken(t *testing.T) {
	useTempCache(t)

	require.NoError(t, MigrateDefaultToken())

	require.NoError(t, os.MkdirAll(TokenDir(), 0700))
	legacy := filepath.Join(TokenDir(), legacyTokenFile)
	require.NoError(t, os.WriteFile(legacy, []byte("test_access_token test_refresh_token\n"), 0600))

	require.NoError(t, MigrateDefaultToken())

	_, err := os.Stat(legacy)
	assert.True(t, errors.Is(err, os.ErrNotExist))

	token, err := LoadTokenForAccount(DefaultAccount)
	require.NoError(t, err)
	assert.Equal(t, "test_access_token", token.AccessToken)
	assert.Equal(t, "test_refresh_token", token.RefreshToken)

	require.NoError(t, MigrateDefaultToken())
}

func TestGetAuthenticationErrorMessage(t *testing.T) {
	for _, account := range []string{"default", "work", "personal"} {
		t.Run(account, func(t *testing.T) {
			msg := GetAuthenticationErrorMessage(account)
			assert.Contains(t, msg, account)
			assert.Contains(t, msg, "OAuth")
			assert.Contains(t, msg, TasksScope)
		})
	}
}
