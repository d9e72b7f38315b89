package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"github.com/vigia-dou/vigia/errors"
)

var globalConfig *Config
var viperInstance *viper.Viper

// Load reads the vigia configuration using Viper.
// Precedence: defaults < config file < VIGIA_* environment variables.
func Load() (*Config, error) {
	if globalConfig != nil {
		return globalConfig, nil
	}

	v := initViper()

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal config")
	}

	globalConfig = &config
	return globalConfig, nil
}

// LoadFromFile loads configuration from a specific file path
func LoadFromFile(configPath string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(configPath)
	v.SetConfigType("toml")

	SetDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		return nil, errors.Wrapf(err, "failed to read config file %s", configPath)
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, errors.Wrapf(err, "failed to unmarshal config from %s", configPath)
	}

	return &config, nil
}

// Reset clears the cached configuration (useful for testing)
func Reset() {
	globalConfig = nil
	viperInstance = nil
}

// Path returns the config file Viper resolved, or the default user path
// when no file exists yet.
func Path() string {
	v := initViper()
	if used := v.ConfigFileUsed(); used != "" {
		return used
	}
	return DefaultPath()
}

// DefaultPath returns ~/.vigia/config.toml.
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "config.toml"
	}
	return filepath.Join(home, ".vigia", "config.toml")
}

// initViper initializes Viper with configuration sources and defaults
func initViper() *viper.Viper {
	if viperInstance != nil {
		return viperInstance
	}

	v := viper.New()

	v.SetEnvPrefix("VIGIA")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	SetDefaults(v)

	// Project config (./vigia.toml) wins over the user config (~/.vigia/config.toml)
	v.SetConfigType("toml")
	v.SetConfigName("config")
	if home, err := os.UserHomeDir(); err == nil {
		v.AddConfigPath(filepath.Join(home, ".vigia"))
	}
	if _, err := os.Stat("vigia.toml"); err == nil {
		v.SetConfigFile("vigia.toml")
	}
	// Missing config file is fine: defaults + env vars still apply
	_ = v.ReadInConfig()

	viperInstance = v
	return v
}
