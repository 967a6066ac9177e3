// Package config loads hnsort settings from defaults, an optional YAML file
// and HNSORT_* environment variables.
package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/pevans/hnsort/collector"
	"github.com/pevans/hnsort/scraper"
	"github.com/robfig/cron/v3"
)

// Source modes.
const (
	ModeListing = "listing"
	ModeFeed    = "feed"
)

// DefaultFeedURL is an RSS rendering of the newest listing.
const DefaultFeedURL = "https://hnrss.org/newest?count=100"

// Configuration validation errors.
var (
	ErrInvalidTarget   = errors.New("source.target must be at least 1")
	ErrInvalidMaxPages = errors.New("source.max_pages must be non-negative")
	ErrInvalidMode     = errors.New("source.mode must be 'listing' or 'feed'")
	ErrMissingURL      = errors.New("source.url (or source.feed_url in feed mode) is required")
	ErrInvalidTimeout  = errors.New("http.timeout must be positive")
	ErrMissingOutput   = errors.New("output.path is required")
	ErrInvalidFormat   = errors.New("output.format must be 'json' or 'yaml'")
	ErrMissingHistory  = errors.New("history.path is required when history is enabled")
	ErrInvalidLogLevel = errors.New("logging.level must be one of: debug, info, warn, error")
	ErrInvalidSchedule = errors.New("watch.schedule is not a valid cron expression")
	ErrInvalidTimezone = errors.New("watch.timezone is not a known location")
)

// Config is the complete hnsort configuration.
type Config struct {
	Source  SourceConfig  `mapstructure:"source" yaml:"source"`
	HTTP    HTTPConfig    `mapstructure:"http" yaml:"http"`
	Output  OutputConfig  `mapstructure:"output" yaml:"output"`
	History HistoryConfig `mapstructure:"history" yaml:"history"`
	Metrics MetricsConfig `mapstructure:"metrics" yaml:"metrics"`
	Logging LoggingConfig `mapstructure:"logging" yaml:"logging"`
	Watch   WatchConfig   `mapstructure:"watch" yaml:"watch"`
}

// SourceConfig says where a batch is collected from.
type SourceConfig struct {
	Mode      string         `mapstructure:"mode" yaml:"mode"`
	URL       string         `mapstructure:"url" yaml:"url"`
	FeedURL   string         `mapstructure:"feed_url" yaml:"feed_url"`
	Target    int            `mapstructure:"target" yaml:"target"`
	MaxPages  int            `mapstructure:"max_pages" yaml:"max_pages"` // 0 means no limit
	Selectors SelectorConfig `mapstructure:"selectors" yaml:"selectors"`
}

// SelectorConfig holds the CSS selectors for the HTML listing.
type SelectorConfig struct {
	Item        string `mapstructure:"item" yaml:"item"`
	Title       string `mapstructure:"title" yaml:"title"`
	Age         string `mapstructure:"age" yaml:"age"`
	AgeFallback string `mapstructure:"age_fallback" yaml:"age_fallback"`
	Pagination  string `mapstructure:"pagination" yaml:"pagination"`
}

// HTTPConfig configures the collector session.
type HTTPConfig struct {
	Timeout   time.Duration `mapstructure:"timeout" yaml:"timeout"`
	UserAgent string        `mapstructure:"user_agent" yaml:"user_agent"`
}

// OutputConfig says where the batch is written.
type OutputConfig struct {
	Path   string `mapstructure:"path" yaml:"path"`
	Format string `mapstructure:"format" yaml:"format"` // empty: inferred from the extension
}

// HistoryConfig configures the run history database.
type HistoryConfig struct {
	Enabled bool   `mapstructure:"enabled" yaml:"enabled"`
	Path    string `mapstructure:"path" yaml:"path"`
}

// MetricsConfig configures the metrics textfile.
type MetricsConfig struct {
	Textfile string `mapstructure:"textfile" yaml:"textfile"` // empty: metrics are not written
}

// LoggingConfig configures the logger.
type LoggingConfig struct {
	Level string `mapstructure:"level" yaml:"level"`
}

// WatchConfig configures the watch command.
type WatchConfig struct {
	Schedule string `mapstructure:"schedule" yaml:"schedule"`
	Timezone string `mapstructure:"timezone" yaml:"timezone"` // empty: local time
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Source: SourceConfig{
			Mode:    ModeListing,
			URL:     scraper.DefaultListingURL,
			FeedURL: DefaultFeedURL,
			Target:  100,
			Selectors: SelectorConfig{
				Item:        scraper.DefaultItemSelector,
				Title:       scraper.DefaultTitleSelector,
				Age:         scraper.DefaultAgeSelector,
				AgeFallback: scraper.DefaultAgeFallback,
				Pagination:  scraper.DefaultPaginationSelector,
			},
		},
		HTTP: HTTPConfig{
			Timeout: 10 * time.Second,
		},
		Output: OutputConfig{
			Path: "articles.json",
		},
		History: HistoryConfig{
			Enabled: true,
			Path:    "~/.hnsort/history.db",
		},
		Logging: LoggingConfig{
			Level: "info",
		},
		Watch: WatchConfig{
			Schedule: "@every 15m",
		},
	}
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	switch c.Source.Mode {
	case ModeListing:
		if c.Source.URL == "" {
			return ErrMissingURL
		}
	case ModeFeed:
		if c.Source.FeedURL == "" {
			return ErrMissingURL
		}
	default:
		return fmt.Errorf("%w: %q", ErrInvalidMode, c.Source.Mode)
	}

	if c.Source.Target < 1 {
		return ErrInvalidTarget
	}

	if c.Source.MaxPages < 0 {
		return ErrInvalidMaxPages
	}

	if c.HTTP.Timeout <= 0 {
		return ErrInvalidTimeout
	}

	if c.Output.Path == "" {
		return ErrMissingOutput
	}

	if c.Output.Format != "" && c.Output.Format != "json" && c.Output.Format != "yaml" {
		return fmt.Errorf("%w: %q", ErrInvalidFormat, c.Output.Format)
	}

	if c.History.Enabled && c.History.Path == "" {
		return ErrMissingHistory
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[c.Logging.Level] {
		return fmt.Errorf("%w: %q", ErrInvalidLogLevel, c.Logging.Level)
	}

	if _, err := cron.ParseStandard(c.Watch.Schedule); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidSchedule, err)
	}

	if _, err := time.LoadLocation(c.Watch.Timezone); err != nil {
		return fmt.Errorf("%w: %q", ErrInvalidTimezone, c.Watch.Timezone)
	}

	return nil
}

// ListConfig returns the listing collector settings.
func (c *Config) ListConfig() scraper.ListConfig {
	return scraper.ListConfig{
		URL:                c.Source.URL,
		ItemSelector:       c.Source.Selectors.Item,
		TitleSelector:      c.Source.Selectors.Title,
		AgeSelector:        c.Source.Selectors.Age,
		AgeFallback:        c.Source.Selectors.AgeFallback,
		PaginationSelector: c.Source.Selectors.Pagination,
		MaxPages:           c.Source.MaxPages,
	}.WithDefaults()
}

// SessionConfig returns the collector session settings.
func (c *Config) SessionConfig() collector.SessionConfig {
	return collector.SessionConfig{
		Timeout:   c.HTTP.Timeout,
		UserAgent: c.HTTP.UserAgent,
	}
}

// SourceURL returns the URL the configured mode collects from.
func (c *Config) SourceURL() string {
	if c.Source.Mode == ModeFeed {
		return c.Source.FeedURL
	}
	return c.Source.URL
}
