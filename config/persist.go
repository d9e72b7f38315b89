package config

import (
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"

	"github.com/vigia-dou/vigia/errors"
)

// persistedConfig mirrors Config with TOML tags for writing.
// Viper reads with mapstructure tags; pelletier writes with toml tags.
type persistedConfig struct {
	Server struct {
		BaseURL           string `toml:"base_url"`
		TimeoutSeconds    int    `toml:"timeout_seconds"`
		RequestsPerMinute int    `toml:"requests_per_minute"`
	} `toml:"server"`
	Database struct {
		Path string `toml:"path"`
	} `toml:"database"`
	Watch struct {
		IntervalSeconds int `toml:"interval_seconds"`
	} `toml:"watch"`
	Log struct {
		JSON bool `toml:"json"`
	} `toml:"log"`
}

// Save writes the configuration as TOML to path, creating parent
// directories as needed and rotating backups of the previous file.
func Save(cfg *Config, path string) error {
	if err := cfg.Validate(); err != nil {
		return errors.Wrap(err, "refusing to save invalid config")
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return errors.Wrap(err, "failed to create config directory")
	}

	if err := createBackup(path); err != nil {
		return errors.Wrap(err, "failed to back up existing config")
	}

	var p persistedConfig
	p.Server.BaseURL = cfg.Server.BaseURL
	p.Server.TimeoutSeconds = cfg.Server.TimeoutSeconds
	p.Server.RequestsPerMinute = cfg.Server.RequestsPerMinute
	p.Database.Path = cfg.Database.Path
	p.Watch.IntervalSeconds = cfg.Watch.IntervalSeconds
	p.Log.JSON = cfg.Log.JSON

	content, err := toml.Marshal(p)
	if err != nil {
		return errors.Wrap(err, "failed to marshal config")
	}

	if err := os.WriteFile(path, content, 0o644); err != nil {
		return errors.Wrapf(err, "failed to write config to %s", path)
	}

	return nil
}

// createBackup creates rotating backups (.back1, .back2, .back3) before modifying config
func createBackup(configPath string) error {
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return nil // No file to backup
	}

	// Rotate backups: .back3 -> delete, .back2 -> .back3, .back1 -> .back2, current -> .back1
	back3 := configPath + ".back3"
	back2 := configPath + ".back2"
	back1 := configPath + ".back1"

	if err := os.Remove(back3); err != nil && !os.IsNotExist(err) {
		return errors.Wrap(err, "failed to delete oldest backup")
	}

	if _, err := os.Stat(back2); err == nil {
		if err := os.Rename(back2, back3); err != nil {
			return errors.Wrap(err, "failed to rotate .back2 to .back3")
		}
	}

	if _, err := os.Stat(back1); err == nil {
		if err := os.Rename(back1, back2); err != nil {
			return errors.Wrap(err, "failed to rotate .back1 to .back2")
		}
	}

	content, err := os.ReadFile(configPath)
	if err != nil {
		return errors.Wrap(err, "failed to read config for backup")
	}

	if err := os.WriteFile(back1, content, 0o644); err != nil {
		return errors.Wrap(err, "failed to create .back1")
	}

	return nil
}
