// Package config loads and persists the vigia client configuration.
package config

// Config represents the vigia client configuration
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Watch    WatchConfig    `mapstructure:"watch"`
	Log      LogConfig      `mapstructure:"log"`
}

// ServerConfig configures the gazette search backend the client talks to
type ServerConfig struct {
	BaseURL           string `mapstructure:"base_url"`            // e.g. "https://api.monitoramento.example.com"
	TimeoutSeconds    int    `mapstructure:"timeout_seconds"`     // per-request transport timeout (default: 60)
	RequestsPerMinute int    `mapstructure:"requests_per_minute"` // courtesy pacing against the shared backend (default: 30)
}

// DatabaseConfig configures the local SQLite state database
type DatabaseConfig struct {
	Path string `mapstructure:"path"`
}

// WatchConfig configures the local trigger daemon (`vigia watch`)
type WatchConfig struct {
	IntervalSeconds int `mapstructure:"interval_seconds"` // how often to evaluate job triggers (default: 30)
}

// LogConfig configures logging output
type LogConfig struct {
	JSON bool `mapstructure:"json"` // JSON structured output instead of console
}
