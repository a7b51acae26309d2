package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// Config holds all recount configuration. The on-disk file is JSON; absent
// fields keep their defaults, so a partial config file is fine.
type Config struct {
	// ExportDirectory is where exported documents land by default.
	ExportDirectory string `json:"exportDirectory"`
	// DateDisplayFormat is the Go time layout used for rendered timestamps.
	DateDisplayFormat string `json:"dateDisplayFormat"`
	// MaxPreviewLength caps the first-message preview in listings, in characters.
	MaxPreviewLength int `json:"maxPreviewLength"`
	// MaxResultLength caps rendered tool results, in characters.
	MaxResultLength int `json:"maxResultLength"`
	// AllowedBasePath, when set, confines export destinations to this
	// directory (after symlink resolution).
	AllowedBasePath string `json:"allowedBasePath,omitempty"`
}

// Default returns a Config with sensible defaults.
func Default() Config {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	return Config{
		ExportDirectory:   filepath.Join(home, "claude-exports"),
		DateDisplayFormat: "2006-01-02 15:04:05",
		MaxPreviewLength:  100,
		MaxResultLength:   3000,
	}
}

// Path returns the config file location: ~/.config/recount/config.json
func Path() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("get home dir: %w", err)
	}
	return filepath.Join(home, ".config", "recount", "config.json"), nil
}

// Load reads the config file, layering it over defaults. A missing file is
// not an error: first runs simply get the defaults.
func Load() (Config, error) {
	path, err := Path()
	if err != nil {
		return Default(), err
	}
	return LoadFile(path)
}

// LoadFile loads configuration from an explicit path.
func LoadFile(path string) (Config, error) {
	cfg := Default()

	b, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("read config: %w", err)
	}

	if err := json.Unmarshal(b, &cfg); err != nil {
		return Default(), fmt.Errorf("parse config %s: %w", path, err)
	}

	if cfg.MaxResultLength <= 0 {
		cfg.MaxResultLength = Default().MaxResultLength
	}
	if cfg.MaxPreviewLength <= 0 {
		cfg.MaxPreviewLength = Default().MaxPreviewLength
	}
	return cfg, nil
}
