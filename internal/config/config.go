// Package config defines the viewer's configuration and how it is loaded.
//
// Conventions:
//   - Defaults live in New; Load layers .env, an optional YAML file and the
//     FRB_VIEWER_* environment on top of them.
//   - Validation failures wrap ErrInvalidConfig, read/parse failures ErrLoadConfig.
package config

import (
	"fmt"
	"strings"
	"time"
)

// SourceConfig locates one data source: the two JSON files produced by the
// index build and the artifact roots that /api/image serves from.
type SourceConfig struct {
	IndexPath     string `koanf:"index_path"`
	PathTablePath string `koanf:"path_table_path"`
	PathRoot      string `koanf:"path_root"`
	HostRoot      string `koanf:"host_root"`
}

// ClientConfig configures the browsing client.
type ClientConfig struct {
	// BaseURL of the viewer server, e.g. "http://127.0.0.1:8010".
	BaseURL string        `koanf:"base_url"`
	Timeout time.Duration `koanf:"timeout"`

	// PageSize is the initial candidate page size.
	PageSize int `koanf:"page_size"`

	// BatchSize is the page size used by bulk loads.
	BatchSize int `koanf:"batch_size"`

	// ConfirmAbove asks before bulk-loading more rows than this.
	ConfirmAbove int `koanf:"confirm_above"`

	// QueueSize bounds the controller's action queue.
	QueueSize int `koanf:"queue_size"`
}

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat is "text" or "json".
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":8010".
	Addr string `koanf:"addr"`

	// User and Password guard every /api route except health.
	User     string `koanf:"user"`
	Password string `koanf:"password"`

	// MaxPageLimit caps GET /api/path-table?limit.
	MaxPageLimit int `koanf:"max_page_limit"`

	// DefaultPageLimit applies when limit is omitted.
	DefaultPageLimit int `koanf:"default_page_limit"`

	// ActiveSource names the data source served at startup.
	ActiveSource string                  `koanf:"active_source"`
	Sources      map[string]SourceConfig `koanf:"sources"`

	Client ClientConfig `koanf:"client"`
}

// New returns a Config populated with defaults.
func New() *Config {
	return &Config{
		LogLevel:         "info",
		LogFormat:        "text",
		Addr:             ":8010",
		User:             "frb",
		Password:         "changeme",
		MaxPageLimit:     10_000,
		DefaultPageLimit: 1_000,
		ActiveSource:     "default",
		Sources: map[string]SourceConfig{
			"default": {
				IndexPath:     "backend/frb_index.json",
				PathTablePath: "backend/path_table.json",
			},
		},
		Client: ClientConfig{
			BaseURL:      "http://127.0.0.1:8010",
			Timeout:      30 * time.Second,
			PageSize:     100,
			BatchSize:    10_000,
			ConfirmAbove: 50_000,
			QueueSize:    1024,
		},
	}
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	switch {
	case strings.TrimSpace(c.Addr) == "":
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case c.MaxPageLimit < 1:
		return fmt.Errorf("%w: max_page_limit must be positive", ErrInvalidConfig)
	case c.DefaultPageLimit < 1 || c.DefaultPageLimit > c.MaxPageLimit:
		return fmt.Errorf("%w: default_page_limit must be within 1..max_page_limit", ErrInvalidConfig)
	}
	if _, ok := c.Sources[c.ActiveSource]; !ok {
		return fmt.Errorf("%w: active_source %q is not defined under sources", ErrInvalidConfig, c.ActiveSource)
	}
	for name, src := range c.Sources {
		if src.IndexPath == "" {
			return fmt.Errorf("%w: sources.%s.index_path must not be empty", ErrInvalidConfig, name)
		}
	}
	return nil
}

// Source returns the configuration of the named source.
func (c *Config) Source(name string) (SourceConfig, bool) {
	src, ok := c.Sources[name]
	return src, ok
}
