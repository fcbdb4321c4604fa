// Package config loads and saves user preferences for chordid
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

// Environment variables that override the config file
const (
	EnvKey      = "CHORDID_KEY"
	EnvPort     = "CHORDID_PORT"
	EnvMIDIIn   = "CHORDID_MIDI_IN"
	EnvLogLevel = "LOG_LEVEL"
)

// Config is the persisted user configuration
type Config struct {
	Key        string `json:"key,omitempty"`    // default key name or id, e.g. "C major"
	MIDIIn     string `json:"midiIn,omitempty"` // input port index or name substring
	ServerPort int    `json:"serverPort"`       // HTTP API port
	DebounceMS int    `json:"debounceMs"`       // console label coalescing window in milliseconds
	LogLevel   string `json:"logLevel,omitempty"`
}

// DefaultConfig returns a config with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Key:        "C major",
		ServerPort: 8080,
		DebounceMS: 40,
		LogLevel:   "info",
	}
}

// Debounce returns the console label coalescing window
func (c *Config) Debounce() time.Duration {
	if c.DebounceMS < 0 {
		return 0
	}
	return time.Duration(c.DebounceMS) * time.Millisecond
}

// Dir returns the config directory path
func Dir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "chordid"), nil
}

// Path returns the full path to config.json
func Path() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.json"), nil
}

// Load reads the config from the default location, or returns defaults if not found.
// Environment overrides are applied on top.
func Load() (*Config, error) {
	path, err := Path()
	if err != nil {
		cfg := DefaultConfig()
		cfg.ApplyEnv()
		return cfg, nil
	}
	return LoadFrom(path)
}

// LoadFrom reads the config at path. A missing file yields defaults.
func LoadFrom(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	if err == nil {
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
	}

	cfg.ApplyEnv()
	return cfg, nil
}

// ApplyEnv overrides fields from CHORDID_* and LOG_LEVEL
func (c *Config) ApplyEnv() {
	c.Key = getEnvOrDefault(EnvKey, c.Key)
	c.MIDIIn = getEnvOrDefault(EnvMIDIIn, c.MIDIIn)
	c.LogLevel = getEnvOrDefault(EnvLogLevel, c.LogLevel)
	if port, err := strconv.Atoi(os.Getenv(EnvPort)); err == nil && port > 0 {
		c.ServerPort = port
	}
}

// Save writes the config to the default location
func (c *Config) Save() error {
	path, err := Path()
	if err != nil {
		return err
	}
	return c.SaveTo(path)
}

// SaveTo writes the config to path, creating its directory
func (c *Config) SaveTo(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
