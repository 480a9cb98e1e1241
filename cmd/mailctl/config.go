package main

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/mboxlabs/mailctl/internal/config"
)

// cliOverrides are the global flags layered over the config file.
type cliOverrides struct {
	baseURL     string
	apiKey      string
	sessionFile string
	timeout     time.Duration
	retries     int
}

func defaultConfigPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "mailctl", "config.toml")
}

// resolveConfig loads the config file when present and applies flag
// overrides. A missing file at the default path is fine; a missing file
// named explicitly is an error.
func resolveConfig(path string, explicit bool, ov cliOverrides) (config.Config, error) {
	cfg := config.Default()
	if path != "" {
		_, err := os.Stat(path)
		switch {
		case err == nil:
			cfg, err = config.Load(path)
			if err != nil {
				return config.Config{}, err
			}
		case errors.Is(err, os.ErrNotExist) && !explicit:
			// default path, nothing configured yet
		default:
			return config.Config{}, err
		}
	}

	if v := strings.TrimSpace(ov.baseURL); v != "" {
		cfg.BaseURL = v
	}
	if v := strings.TrimSpace(ov.apiKey); v != "" {
		cfg.APIKey = v
	}
	if v := strings.TrimSpace(ov.sessionFile); v != "" {
		cfg.SessionFile = v
	}
	if ov.timeout > 0 {
		cfg.AttemptTimeout = ov.timeout
	}
	if ov.retries >= 0 {
		cfg.MaxRetries = ov.retries
	}

	if err := cfg.Validate(); err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}
