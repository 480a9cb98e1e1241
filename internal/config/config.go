// Package config loads mailctl configuration from a TOML file with
// defaults applied for anything the file leaves undefined.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/mboxlabs/mailctl/internal/client"
)

const EnvAPIKey = "MAILCTL_API_KEY"

var ErrBaseURLRequired = errors.New("config: base_url required")

// Config is the resolved mailctl configuration.
type Config struct {
	BaseURL        string
	APIKey         string
	SessionFile    string
	AttemptTimeout time.Duration
	MaxRetries     int
	Backoff        client.BackoffConfig
}

func Default() Config {
	cc := client.DefaultConfig()
	return Config{
		SessionFile:    defaultSessionFile(),
		AttemptTimeout: cc.AttemptTimeout,
		MaxRetries:     cc.MaxRetries,
		Backoff:        cc.Backoff,
	}
}

type fileConfig struct {
	BaseURL             string  `toml:"base_url"`
	APIKey              string  `toml:"api_key"`
	SessionFile         string  `toml:"session_file"`
	AttemptTimeout      string  `toml:"attempt_timeout"`
	MaxRetries          int     `toml:"max_retries"`
	BackoffInitialDelay string  `toml:"backoff_initial_delay"`
	BackoffMultiplier   float64 `toml:"backoff_multiplier"`
	BackoffMaxDelay     string  `toml:"backoff_max_delay"`
	BackoffJitter       bool    `toml:"backoff_jitter"`
}

// Load reads path over Default(). Only keys present in the file override
// defaults; the MAILCTL_API_KEY environment variable overrides both.
func Load(path string) (Config, error) {
	cfg := Default()

	var raw fileConfig
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return Config{}, fmt.Errorf("config load failed (%s): %w", path, err)
	}

	if meta.IsDefined("base_url") {
		cfg.BaseURL = strings.TrimSpace(raw.BaseURL)
	}
	if meta.IsDefined("api_key") {
		cfg.APIKey = strings.TrimSpace(raw.APIKey)
	}
	if meta.IsDefined("session_file") {
		cfg.SessionFile = strings.TrimSpace(raw.SessionFile)
	}
	if meta.IsDefined("attempt_timeout") {
		d, err := parseDuration(raw.AttemptTimeout, "attempt_timeout")
		if err != nil {
			return Config{}, err
		}
		cfg.AttemptTimeout = d
	}
	if meta.IsDefined("max_retries") {
		if raw.MaxRetries < 0 {
			return Config{}, fmt.Errorf("config: max_retries must be >= 0, got %d", raw.MaxRetries)
		}
		cfg.MaxRetries = raw.MaxRetries
	}
	if meta.IsDefined("backoff_initial_delay") {
		d, err := parseDuration(raw.BackoffInitialDelay, "backoff_initial_delay")
		if err != nil {
			return Config{}, err
		}
		cfg.Backoff.InitialDelay = d
	}
	if meta.IsDefined("backoff_multiplier") {
		if raw.BackoffMultiplier < 1.0 {
			return Config{}, fmt.Errorf("config: backoff_multiplier must be >= 1.0, got %v", raw.BackoffMultiplier)
		}
		cfg.Backoff.Multiplier = raw.BackoffMultiplier
	}
	if meta.IsDefined("backoff_max_delay") {
		d, err := parseDuration(raw.BackoffMaxDelay, "backoff_max_delay")
		if err != nil {
			return Config{}, err
		}
		cfg.Backoff.MaxDelay = d
	}
	if meta.IsDefined("backoff_jitter") {
		cfg.Backoff.Jitter = raw.BackoffJitter
	}

	if key := strings.TrimSpace(os.Getenv(EnvAPIKey)); key != "" {
		cfg.APIKey = key
	}
	return cfg, nil
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.BaseURL) == "" {
		return ErrBaseURLRequired
	}
	return nil
}

// ClientConfig maps the resolved configuration onto the executor's config.
func (c Config) ClientConfig() client.Config {
	return client.Config{
		BaseURL:        c.BaseURL,
		APIKey:         c.APIKey,
		AttemptTimeout: c.AttemptTimeout,
		MaxRetries:     c.MaxRetries,
		Backoff:        c.Backoff,
	}
}

func parseDuration(raw, key string) (time.Duration, error) {
	d, err := time.ParseDuration(strings.TrimSpace(raw))
	if err != nil {
		return 0, fmt.Errorf("config: parse %s: %w", key, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("config: %s must be positive, got %v", key, d)
	}
	return d, nil
}

func defaultSessionFile() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "mailctl", "session")
}
