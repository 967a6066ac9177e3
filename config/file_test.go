package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/mitchellh/go-homedir"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Test helper: point HOME at a fresh directory for the duration of the test
func withTempHome(t *testing.T) string {
	t.Helper()
	tmpDir := t.TempDir()
	t.Setenv("HOME", tmpDir)
	homedir.DisableCache = true
	t.Cleanup(func() { homedir.DisableCache = false })
	return tmpDir
}

// Test helper: write a config file under dir
func writeConfig(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.MkdirAll(dir, 0o700))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

// TestLoad_NoFile verifies defaults are used when the default file is missing
func TestLoad_NoFile(t *testing.T) {
	home := withTempHome(t)

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, ModeListing, cfg.Source.Mode)
	assert.Equal(t, "https://news.ycombinator.com/newest", cfg.Source.URL)
	assert.Equal(t, 100, cfg.Source.Target)
	assert.Equal(t, 10*time.Second, cfg.HTTP.Timeout)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.True(t, cfg.History.Enabled)
	assert.Equal(t, filepath.Join(home, ".hnsort", "history.db"), cfg.History.Path, "~ should be expanded")
}

// TestLoad_DefaultFile verifies ~/.hnsort/config.yaml is read
func TestLoad_DefaultFile(t *testing.T) {
	home := withTempHome(t)
	writeConfig(t, filepath.Join(home, ".hnsort"), `source:
  target: 30
  max_pages: 2
output:
  path: "~/out/articles.yaml"
`)

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 30, cfg.Source.Target)
	assert.Equal(t, 2, cfg.Source.MaxPages)
	assert.Equal(t, filepath.Join(home, "out", "articles.yaml"), cfg.Output.Path)
	assert.Equal(t, "tr.athing", cfg.Source.Selectors.Item, "unset keys keep defaults")
}

// TestLoad_ExplicitPath verifies an explicit file is read, including
// durations
func TestLoad_ExplicitPath(t *testing.T) {
	withTempHome(t)
	path := writeConfig(t, t.TempDir(), `source:
  mode: feed
  feed_url: "https://example.com/feed.xml"
http:
  timeout: 30s
  user_agent: "test-agent"
logging:
  level: debug
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, ModeFeed, cfg.Source.Mode)
	assert.Equal(t, "https://example.com/feed.xml", cfg.SourceURL())
	assert.Equal(t, 30*time.Second, cfg.HTTP.Timeout)
	assert.Equal(t, "test-agent", cfg.SessionConfig().UserAgent)
	assert.Equal(t, "debug", cfg.Logging.Level)
}

// TestLoad_ExplicitPathMissing verifies a missing explicit file is an error
func TestLoad_ExplicitPathMissing(t *testing.T) {
	withTempHome(t)

	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read config file")
}

// TestLoad_InvalidYAML verifies a malformed file is an error
func TestLoad_InvalidYAML(t *testing.T) {
	withTempHome(t)
	path := writeConfig(t, t.TempDir(), `source:
  target: [30
`)

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse config file")
}

// TestLoad_EnvOverride verifies HNSORT_* variables win over the file
func TestLoad_EnvOverride(t *testing.T) {
	withTempHome(t)
	path := writeConfig(t, t.TempDir(), `source:
  target: 30
`)
	t.Setenv("HNSORT_SOURCE_TARGET", "50")
	t.Setenv("HNSORT_OUTPUT_FORMAT", "yaml")
	t.Setenv("HNSORT_HISTORY_ENABLED", "false")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 50, cfg.Source.Target)
	assert.Equal(t, "yaml", cfg.Output.Format)
	assert.False(t, cfg.History.Enabled)
}

// TestLoad_InvalidValues verifies validation runs after loading
func TestLoad_InvalidValues(t *testing.T) {
	withTempHome(t)
	path := writeConfig(t, t.TempDir(), `source:
  target: 0
`)

	_, err := Load(path)
	assert.ErrorIs(t, err, ErrInvalidTarget)
}

// TestSave_RoundTrip verifies a saved config loads back unchanged
func TestSave_RoundTrip(t *testing.T) {
	withTempHome(t)
	cfg := Default()
	cfg.Source.Target = 42
	cfg.HTTP.Timeout = 45 * time.Second
	cfg.History.Path = "/var/lib/hnsort/history.db"
	cfg.Watch.Schedule = "*/5 * * * *"

	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	require.NoError(t, cfg.Save(path))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}
