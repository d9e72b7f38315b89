package config

import (
	"net/url"
	"strings"

	"github.com/vigia-dou/vigia/errors"
)

// Validate checks that the configuration is valid
func (c *Config) Validate() error {
	if c.Server.BaseURL == "" {
		return errors.New("server.base_url is required (set VIGIA_SERVER_BASE_URL or edit the config file)")
	}

	u, err := url.Parse(c.Server.BaseURL)
	if err != nil {
		return errors.Wrapf(err, "server.base_url %q is not a valid URL", c.Server.BaseURL)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return errors.Newf("server.base_url must use http or https, got %q", c.Server.BaseURL)
	}
	if strings.TrimSuffix(u.Path, "/") != "" {
		return errors.Newf("server.base_url must not carry a path, got %q", c.Server.BaseURL)
	}

	if c.Server.TimeoutSeconds <= 0 {
		return errors.Newf("server.timeout_seconds must be > 0, got %d", c.Server.TimeoutSeconds)
	}
	if c.Server.RequestsPerMinute <= 0 {
		return errors.Newf("server.requests_per_minute must be > 0, got %d", c.Server.RequestsPerMinute)
	}

	if c.Database.Path == "" {
		return errors.New("database.path cannot be empty")
	}

	if c.Watch.IntervalSeconds <= 0 {
		return errors.Newf("watch.interval_seconds must be > 0, got %d", c.Watch.IntervalSeconds)
	}

	return nil
}
