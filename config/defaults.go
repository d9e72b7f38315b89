package config

import (
	"github.com/spf13/viper"
)

// SetDefaults configures default values for all configuration options
func SetDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.timeout_seconds", 60)     // One round trip can cover a full backend search
	v.SetDefault("server.requests_per_minute", 30) // Courtesy pacing against the shared backend

	// Database defaults
	v.SetDefault("database.path", "vigia.db")

	// Watch daemon defaults
	v.SetDefault("watch.interval_seconds", 30)

	// Log defaults
	v.SetDefault("log.json", false)
}
