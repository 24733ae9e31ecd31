package config

import "time"

// Config holds runtime settings for the receiptdesk client.
//
// Fields:
//   - EndpointURL: the remote backend URL queued jobs are delivered to.
//   - DataDir: directory holding the database file; empty means the
//     platform application-data directory is used.
//   - SyncInterval: how often the sync loop flushes the outbox.
//   - MaxImageDim: longest side allowed for re-encoded attachments.
type Config struct {
	EndpointURL  string
	DataDir      string
	SyncInterval time.Duration
	MaxImageDim  int
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.EndpointURL = ""
	c.DataDir = ""
	c.SyncInterval = 30 * time.Second
	c.MaxImageDim = 2000
}

// LoadConfig constructs a Config, applies defaults, then overlays values
// from JSON (if present) and command-line flags (if present). Later sources
// take precedence over earlier ones.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)
	parseFlags(cfg)
	return cfg
}
