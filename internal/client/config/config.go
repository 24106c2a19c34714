package config

import (
	"os"
	"time"
)

// Config holds runtime settings for the help-desk CLI.
type Config struct {
	// ServerURL is the base URL of the credential service, e.g. "http://127.0.0.1:8080".
	ServerURL      string
	RequestTimeout time.Duration
	// SessionFile is the SQLite file that keeps the session token between runs.
	SessionFile string
	// OnlineCheckInterval is how often the CLI probes /healthz.
	OnlineCheckInterval time.Duration
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.ServerURL = "http://127.0.0.1:8080"
	c.RequestTimeout = 10 * time.Second
	c.SessionFile = "helpdesk-session.db"
	c.OnlineCheckInterval = 3 * time.Second
}

// LoadConfig constructs a Config, applies defaults, then overlays values from
// JSON (if present) and command-line flags (if present). Later sources take
// precedence over earlier ones.
func LoadConfig() (*Config, error) {
	return load(os.Args[1:])
}

func load(args []string) (*Config, error) {
	cfg := &Config{}
	cfg.LoadDefaults()
	if err := parseJson(cfg, args); err != nil {
		return nil, err
	}
	if err := parseFlags(cfg, args); err != nil {
		return nil, err
	}
	return cfg, nil
}
