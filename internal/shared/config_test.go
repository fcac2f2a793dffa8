package shared

import (
	"os"
	"path/filepath"
	"testing"
)

func TestConfig(t *testing.T) {
	t.Run("DefaultConfig", func(t *testing.T) {
		config := DefaultConfig()

		if config.Paths.CSV != "subscriptions.csv" {
			t.Errorf("expected csv path subscriptions.csv, got %s", config.Paths.CSV)
		}

		if config.Driver.BaseURL != "http://127.0.0.1:8089" {
			t.Errorf("expected driver base URL http://127.0.0.1:8089, got %s", config.Driver.BaseURL)
		}

		if !config.Driver.Headless {
			t.Error("expected headless to default to true")
		}

		if config.Session.RestartEvery != 25 {
			t.Errorf("expected restart_every 25, got %d", config.Session.RestartEvery)
		}

		if config.Pacing.MinDelayMS > config.Pacing.MaxDelayMS {
			t.Errorf("default pacing bounds inverted: %d > %d", config.Pacing.MinDelayMS, config.Pacing.MaxDelayMS)
		}

		if config.Database.Path != "./resub.db" {
			t.Errorf("expected database path ./resub.db, got %s", config.Database.Path)
		}
	})

	t.Run("CreateConfigFile", func(t *testing.T) {
		tmpDir := t.TempDir()
		configPath := filepath.Join(tmpDir, "config.toml")

		if err := CreateConfigFile(configPath); err != nil {
			t.Fatalf("failed to create config file: %v", err)
		}

		if _, err := os.Stat(configPath); err != nil {
			t.Fatalf("config file should exist: %v", err)
		}

		config, err := LoadConfig(configPath)
		if err != nil {
			t.Fatalf("failed to load created config: %v", err)
		}

		defaultConfig := DefaultConfig()
		if config.Paths.Offset != defaultConfig.Paths.Offset {
			t.Errorf("created config offset path doesn't match default")
		}
		if config.Session.RestartEvery != defaultConfig.Session.RestartEvery {
			t.Errorf("created config restart_every doesn't match default")
		}

		if err := CreateConfigFile(configPath); err == nil {
			t.Error("expected error when config file already exists")
		}
	})

	t.Run("LoadConfig missing file", func(t *testing.T) {
		if _, err := LoadConfig(filepath.Join(t.TempDir(), "nope.toml")); err == nil {
			t.Error("expected error for missing config file")
		}
	})

	t.Run("LoadConfig invalid toml", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "bad.toml")
		if err := os.WriteFile(path, []byte("[paths\ncsv ="), 0644); err != nil {
			t.Fatalf("failed to write file: %v", err)
		}

		if _, err := LoadConfig(path); err == nil {
			t.Error("expected error for invalid toml")
		}
	})
}
