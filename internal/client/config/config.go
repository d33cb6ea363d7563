// Package config handles configuration for the gatectl CLI.
package config

import "time"

// Config holds runtime settings for the Gatekeeper CLI.
//
// Fields:
//   - ServerURL: base URL of the backend HTTP endpoint.
//   - APIKey: tenant API key sent with every tenant-scoped request.
//   - RequestTimeout: per-request timeout for API calls.
type Config struct {
	ServerURL      string
	APIKey         string
	RequestTimeout time.Duration
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.ServerURL = "http://127.0.0.1:8080"
	c.APIKey = "site_a_key_abc123"
	c.RequestTimeout = 10 * time.Second
}

// LoadConfig constructs a Config, applies defaults, then overlays values from
// JSON (if present) and command-line flags (if present). Later sources take
// precedence over earlier ones.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)
	parseFlags(cfg)
	return cfg
}
