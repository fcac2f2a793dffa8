package shared

import (
	_ "embed"
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

//go:embed config.example.toml
var exampleConf []byte

// Config represents the application configuration loaded from a TOML file.
type Config struct {
	Paths    PathsConfig    `toml:"paths"`
	Driver   DriverConfig   `toml:"driver"`
	Pacing   PacingConfig   `toml:"pacing"`
	Session  SessionConfig  `toml:"session"`
	Database DatabaseConfig `toml:"database"`
}

// PathsConfig locates the durable files the batch controller owns.
type PathsConfig struct {
	CSV           string `toml:"csv"`
	SuccessLog    string `toml:"success_log"`
	FailureLedger string `toml:"failure_ledger"`
	Offset        string `toml:"offset"`
	AuthState     string `toml:"auth_state"`
}

// DriverConfig contains browser driver sidecar settings.
type DriverConfig struct {
	BaseURL           string `toml:"base_url"`
	Headless          bool   `toml:"headless"`
	ActionTimeoutSecs int    `toml:"action_timeout_secs"`
	LoginWaitSecs     int    `toml:"login_wait_secs"`
}

// PacingConfig bounds the random delay applied between items.
type PacingConfig struct {
	MinDelayMS int `toml:"min_delay_ms"`
	MaxDelayMS int `toml:"max_delay_ms"`
}

// SessionConfig contains session recycling policy.
type SessionConfig struct {
	RestartEvery int `toml:"restart_every"`
}

// DatabaseConfig contains run-history database settings.
type DatabaseConfig struct {
	Path         string `toml:"path"`
	MaxOpenConns int    `toml:"max_open_conns"`
	MaxIdleConns int    `toml:"max_idle_conns"`
}

// LoadConfig reads and parses a TOML configuration file from the specified path.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := toml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	return &config, nil
}

// DefaultConfig returns a Config with sensible defaults loaded from the embedded example config.
func DefaultConfig() *Config {
	var config Config
	if err := toml.Unmarshal(exampleConf, &config); err != nil {
		panic(fmt.Sprintf("failed to parse embedded default config: %v", err))
	}
	return &config
}

// CreateConfigFile creates a config.toml file at the specified path using the embedded example config.
func CreateConfigFile(path string) error {
	// Check if file already exists
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s: %w", path, err)
	}

	// Write the embedded example config to the file
	if err := os.WriteFile(path, exampleConf, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}
