package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/mitchellh/go-homedir"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// EnvPrefix is the prefix for environment overrides, e.g. HNSORT_SOURCE_TARGET.
const EnvPrefix = "HNSORT"

// DefaultPath returns ~/.hnsort/config.yaml.
func DefaultPath() (string, error) {
	home, err := homedir.Dir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}
	return filepath.Join(home, ".hnsort", "config.yaml"), nil
}

// Load builds the configuration from defaults, the YAML file at path and the
// environment, in increasing priority. An empty path means DefaultPath; that
// file may be missing, but an explicit path must exist. The result is
// validated.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v, Default())

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	explicit := path != ""
	if !explicit {
		var err error
		if path, err = DefaultPath(); err != nil {
			return nil, err
		}
	}

	readFile := true
	if _, err := os.Stat(path); os.IsNotExist(err) {
		if explicit {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		readFile = false // File doesn't exist -- not an error
	}

	if readFile {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}

	if err := cfg.expandPaths(); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &cfg, nil
}

// setDefaults registers every key so environment overrides apply to them.
func setDefaults(v *viper.Viper, d *Config) {
	v.SetDefault("source.mode", d.Source.Mode)
	v.SetDefault("source.url", d.Source.URL)
	v.SetDefault("source.feed_url", d.Source.FeedURL)
	v.SetDefault("source.target", d.Source.Target)
	v.SetDefault("source.max_pages", d.Source.MaxPages)
	v.SetDefault("source.selectors.item", d.Source.Selectors.Item)
	v.SetDefault("source.selectors.title", d.Source.Selectors.Title)
	v.SetDefault("source.selectors.age", d.Source.Selectors.Age)
	v.SetDefault("source.selectors.age_fallback", d.Source.Selectors.AgeFallback)
	v.SetDefault("source.selectors.pagination", d.Source.Selectors.Pagination)
	v.SetDefault("http.timeout", d.HTTP.Timeout)
	v.SetDefault("http.user_agent", d.HTTP.UserAgent)
	v.SetDefault("output.path", d.Output.Path)
	v.SetDefault("output.format", d.Output.Format)
	v.SetDefault("history.enabled", d.History.Enabled)
	v.SetDefault("history.path", d.History.Path)
	v.SetDefault("metrics.textfile", d.Metrics.Textfile)
	v.SetDefault("logging.level", d.Logging.Level)
	v.SetDefault("watch.schedule", d.Watch.Schedule)
	v.SetDefault("watch.timezone", d.Watch.Timezone)
}

// expandPaths resolves a leading ~ in file paths.
func (c *Config) expandPaths() error {
	for _, p := range []*string{&c.Output.Path, &c.History.Path, &c.Metrics.Textfile} {
		expanded, err := homedir.Expand(*p)
		if err != nil {
			return fmt.Errorf("failed to expand path %q: %w", *p, err)
		}
		*p = expanded
	}
	return nil
}

// Save writes the configuration to path as YAML, creating the parent
// directory if needed.
func (c *Config) Save(path string) error {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(c); err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	// Create the parent directory if it doesn't exist (0700: owner-only access)
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	// 0600: owner-only read/write
	if err := os.WriteFile(path, buf.Bytes(), 0o600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}
