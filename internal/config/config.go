// Package config loads the sigoc CLI configuration.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Environment overrides, applied after the file is read.
const (
	EnvAPIURL    = "SIGOC_API_URL"
	EnvTokenFile = "SIGOC_TOKEN_FILE"
)

// Config holds the client configuration.
type Config struct {
	API       APIConfig `yaml:"api"`
	TokenFile string    `yaml:"token_file"`
}

// APIConfig configures the SIGOC API endpoint.
type APIConfig struct {
	// BaseURL is the API root, e.g. "https://sigoc.example.org/api/v1".
	BaseURL string `yaml:"base_url"`

	// Timeout bounds every HTTP call.
	Timeout time.Duration `yaml:"timeout"`
}

// Default returns the built-in configuration.
func Default() (*Config, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return nil, fmt.Errorf("resolving config directory: %w", err)
	}
	return &Config{
		API: APIConfig{
			BaseURL: "http://localhost:8000/api/v1",
			Timeout: 30 * time.Second,
		},
		TokenFile: filepath.Join(dir, "sigoc", "credentials.json"),
	}, nil
}

// DefaultPath returns the default config file location.
func DefaultPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("resolving config directory: %w", err)
	}
	return filepath.Join(dir, "sigoc", "config.yaml"), nil
}

// Load reads the config file at path, fills unset fields with defaults and
// applies environment overrides. A missing file is not an error; the defaults
// are used.
func Load(path string) (*Config, error) {
	cfg, err := Default()
	if err != nil {
		return nil, err
	}

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, fs.ErrNotExist):
			// fall through to defaults
		case err != nil:
			return nil, fmt.Errorf("reading config file: %w", err)
		default:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parsing config file: %w", err)
			}
		}
	}

	if v := os.Getenv(EnvAPIURL); v != "" {
		cfg.API.BaseURL = v
	}
	if v := os.Getenv(EnvTokenFile); v != "" {
		cfg.TokenFile = v
	}

	if cfg.API.BaseURL == "" {
		return nil, fmt.Errorf("api.base_url is required")
	}
	if cfg.API.Timeout <= 0 {
		cfg.API.Timeout = 30 * time.Second
	}
	return cfg, nil
}
