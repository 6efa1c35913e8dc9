package config

import "time"

// Config holds runtime settings for the bookshelf CLI.
//
// Fields:
//   - ServerURL: base URL of the bookshelf HTTP API.
//   - RequestTimeout: upper bound for a single API call.
//   - DownloadDir: directory (relative to the working directory) that
//     purchased content is saved into.
type Config struct {
	ServerURL      string
	RequestTimeout time.Duration
	DownloadDir    string
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.ServerURL = "http://127.0.0.1:5000"
	c.RequestTimeout = 10 * time.Second
	c.DownloadDir = "downloads"
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
