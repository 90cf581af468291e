// Package config loads todosync settings from the environment and an
// optional .env file.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/teemow/todosync/internal/google"
	"github.com/teemow/todosync/internal/gtasks"
	"github.com/teemow/todosync/internal/logging"
)

// Environment variables read by Load.
const (
	EnvClientID        = "TODOSYNC_CLIENT_ID"
	EnvClientSecret    = "TODOSYNC_CLIENT_SECRET"
	EnvAccessToken     = "TODOSYNC_ACCESS_TOKEN"
	EnvBaseURL         = "TODOSYNC_BASE_URL"
	EnvAccount         = "TODOSYNC_ACCOUNT"
	EnvSuccessPolicy   = "TODOSYNC_SUCCESS_POLICY"
	EnvRetryMaxElapsed = "TODOSYNC_RETRY_MAX_ELAPSED"
	EnvLogLevel        = "TODOSYNC_LOG_LEVEL"
	EnvLogFormat       = "TODOSYNC_LOG_FORMAT"
)

// Config holds the runtime settings.
type Config struct {
	ClientID     string
	ClientSecret string

	// AccessToken takes precedence over the stored token file when set.
	AccessToken string

	BaseURL       string
	Account       string
	SuccessPolicy string

	// RetryMaxElapsed bounds caller-side retries. Zero disables them.
	RetryMaxElapsed time.Duration

	LogLevel  string
	LogFormat string
}

// Load reads envFile (if non-empty) into the process environment and builds
// a Config from it. Variables already set in the environment win over the
// file. A missing default ".env" is not an error; a missing explicit file is.
func Load(envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			return nil, fmt.Errorf("failed to load env file %s: %w", envFile, err)
		}
	} else {
		_ = godotenv.Load()
	}

	retry, err := getEnvDuration(EnvRetryMaxElapsed, 0)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		ClientID:        os.Getenv(EnvClientID),
		ClientSecret:    os.Getenv(EnvClientSecret),
		AccessToken:     strings.TrimSpace(os.Getenv(EnvAccessToken)),
		BaseURL:         getEnvOrDefault(EnvBaseURL, gtasks.BaseURL),
		Account:         getEnvOrDefault(EnvAccount, google.DefaultAccount),
		SuccessPolicy:   getEnvOrDefault(EnvSuccessPolicy, gtasks.PolicyAny2xx),
		RetryMaxElapsed: retry,
		LogLevel:        getEnvOrDefault(EnvLogLevel, "info"),
		LogFormat:       getEnvOrDefault(EnvLogFormat, logging.FormatText),
	}

	return cfg, nil
}

// Validate checks the settings that have a fixed set of values.
func (c *Config) Validate() error {
	var errs []error

	if c.Account == "" {
		errs = append(errs, errors.New("account must not be empty"))
	}
	if _, err := gtasks.ParseSuccessPolicy(c.SuccessPolicy); err != nil {
		errs = append(errs, err)
	}
	if c.RetryMaxElapsed < 0 {
		errs = append(errs, fmt.Errorf("retry max elapsed must not be negative, got %s", c.RetryMaxElapsed))
	}
	if _, err := logging.ParseLevel(c.LogLevel); err != nil {
		errs = append(errs, err)
	}
	if c.LogFormat != logging.FormatText && c.LogFormat != logging.FormatJSON {
		errs = append(errs, fmt.Errorf("invalid log format %q, must be %s or %s", c.LogFormat, logging.FormatText, logging.FormatJSON))
	}
	if !strings.HasPrefix(c.BaseURL, "http://") && !strings.HasPrefix(c.BaseURL, "https://") {
		errs = append(errs, fmt.Errorf("base URL must be an http(s) URL, got %q", c.BaseURL))
	}

	return errors.Join(errs...)
}

// Policy returns the configured success policy.
func (c *Config) Policy() gtasks.SuccessPolicy {
	policy, err := gtasks.ParseSuccessPolicy(c.SuccessPolicy)
	if err != nil {
		return gtasks.Any2xx
	}
	return policy
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return defaultValue, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, value, err)
	}
	return d, nil
}
