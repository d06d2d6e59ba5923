// Package config loads the on-disk session configuration: default target
// connection, default storage DSN, and shell preferences. None of the
// retrieved repos import a config library (no spf13/viper, no
// caarlos0/env, no kelseyhightower/envconfig anywhere in the candidate
// repos or reference files), so this stays on encoding/json — the one
// ambient concern with no grounded third-party replacement, recorded as
// such in the grounding ledger.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Config is the full on-disk shape of a memfuzz session file.
type Config struct {
	// Target selects how the shell attaches on startup.
	Target TargetConfig `json:"target"`

	// Store selects the persistence backend for hit lists and saved
	// searches.
	Store StoreConfig `json:"store"`

	// Shell holds interactive-shell preferences.
	Shell ShellConfig `json:"shell"`
}

type TargetConfig struct {
	// Mode is "local" (ptrace) or "remote" (websocket proxy).
	Mode string `json:"mode"`
	PID  int    `json:"pid,omitempty"`
	URL  string `json:"url,omitempty"`
}

type StoreConfig struct {
	// Driver names a registered database/sql driver: "sqlite", "mysql",
	// "postgres", or "sqlserver".
	Driver string `json:"driver"`
	DSN    string `json:"dsn"`
}

type ShellConfig struct {
	HistoryFile  string `json:"history_file"`
	Prompt       string `json:"prompt"`
	ColorDisable bool   `json:"color_disable"`
}

// Default returns the configuration used when no session file is present:
// an unattached shell backed by a sqlite file, memfuzz.db, resolved
// against the working directory.
func Default() Config {
	return Config{
		Target: TargetConfig{Mode: "local"},
		Store:  StoreConfig{Driver: "sqlite", DSN: "memfuzz.db"},
		Shell:  ShellConfig{Prompt: "memfuzz> "},
	}
}

// Load reads and validates a config file at path, falling back to
// Default() if path does not exist.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return Config{}, fmt.Errorf("config: read %s: %w", path, err)
	}
	if err := json.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
	}
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Save writes cfg to path as indented JSON, creating parent directories
// as needed.
func Save(path string, cfg Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("config: mkdir: %w", err)
	}
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("config: marshal: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

func (c Config) validate() error {
	switch c.Target.Mode {
	case "local", "remote", "":
	default:
		return fmt.Errorf("config: unknown target mode %q", c.Target.Mode)
	}
	switch c.Store.Driver {
	case "sqlite", "mysql", "postgres", "sqlserver", "":
	default:
		return fmt.Errorf("config: unknown store driver %q", c.Store.Driver)
	}
	return nil
}
