package sink

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pevans/hnsort/article"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleItems() []article.Item {
	return []article.Item{
		{Index: 0, ID: "41000002", Title: "Show HN: \"quoted\" title", Age: "1 minute ago", URL: "https://example.com/a", Site: "example.com"},
		{Index: 1, ID: "41000001", Title: "日本語のタイトル", Age: "2 hours ago"},
		{Index: 2, ID: "41000000", Title: "Ask HN: colon: in title", Age: "1 day ago"},
	}
}

// TestNewFileSink_InfersFormat verifies the format follows the extension
func TestNewFileSink_InfersFormat(t *testing.T) {
	s, err := NewFileSink("out/articles.json", "")
	require.NoError(t, err)
	assert.Equal(t, FormatJSON, s.Format)

	s, err = NewFileSink("out/articles.yml", "")
	require.NoError(t, err)
	assert.Equal(t, FormatYAML, s.Format)

	s, err = NewFileSink("out/articles.txt", "YAML")
	require.NoError(t, err)
	assert.Equal(t, FormatYAML, s.Format)
}

// TestNewFileSink_UnknownFormat verifies bad formats are rejected
func TestNewFileSink_UnknownFormat(t *testing.T) {
	_, err := NewFileSink("articles.json", "xml")
	assert.ErrorIs(t, err, ErrUnknownFormat)
}

// TestFileSink_JSONRoundTrip verifies the four item fields survive a write
// and load
func TestFileSink_JSONRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "articles.json")
	s, err := NewFileSink(path, "")
	require.NoError(t, err)

	require.NoError(t, s.Write(sampleItems()))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, sampleItems(), loaded)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}

// TestFileSink_JSONLayout verifies the indented layout and field order
func TestFileSink_JSONLayout(t *testing.T) {
	items := []article.Item{{Index: 0, ID: "41000001", Title: "日本語のタイトル", Age: "2 hours ago"}}
	data, err := Marshal(items, FormatJSON)
	require.NoError(t, err)

	want := `[
  {
    "index": 0,
    "id": "41000001",
    "title": "日本語のタイトル",
    "age": "2 hours ago"
  }
]
`
	assert.Equal(t, want, string(data))
}

// TestFileSink_YAMLRoundTrip verifies the YAML format round trips
func TestFileSink_YAMLRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "articles.yaml")
	s, err := NewFileSink(path, "")
	require.NoError(t, err)

	require.NoError(t, s.Write(sampleItems()))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "- index: 0\n"), string(data))
	assert.Contains(t, string(data), "\n  age: 2 hours ago\n")

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, sampleItems(), loaded)
}

// TestFileSink_Overwrite verifies a second write replaces the first
func TestFileSink_Overwrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "articles.json")
	s, err := NewFileSink(path, "")
	require.NoError(t, err)

	require.NoError(t, s.Write(sampleItems()))
	require.NoError(t, s.Write(sampleItems()[:1]))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Len(t, loaded, 1)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp files should not be left behind")
}

// TestFileSink_EmptyBatch verifies an empty batch is written as an empty list
func TestFileSink_EmptyBatch(t *testing.T) {
	data, err := Marshal(nil, FormatJSON)
	require.NoError(t, err)
	assert.Equal(t, "[]\n", string(data))
}

// TestLoad_Errors verifies malformed files are reported
func TestLoad_Errors(t *testing.T) {
	dir := t.TempDir()

	_, err := Load(filepath.Join(dir, "missing.json"))
	assert.Error(t, err)

	bad := filepath.Join(dir, "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte(`[{"index": 0,`), 0o600))
	_, err = Load(bad)
	assert.ErrorIs(t, err, ErrInvalidJSON)

	obj := filepath.Join(dir, "obj.json")
	require.NoError(t, os.WriteFile(obj, []byte(`{"index": 0}`), 0o600))
	_, err = Load(obj)
	assert.ErrorIs(t, err, ErrNotAList)

	badYAML := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(badYAML, []byte("index: [1, 2"), 0o600))
	_, err = Load(badYAML)
	assert.Error(t, err)
}

// TestLoad_RejectsIncompleteEntries verifies entries that are not complete
// items fail to load instead of becoming empty items
func TestLoad_RejectsIncompleteEntries(t *testing.T) {
	dir := t.TempDir()

	scalars := filepath.Join(dir, "scalars.json")
	require.NoError(t, os.WriteFile(scalars, []byte(`[1, "two"]`), 0o600))
	_, err := Load(scalars)
	assert.ErrorIs(t, err, ErrNotAnItem)
	assert.Contains(t, err.Error(), "position 0")

	noAge := filepath.Join(dir, "no-age.json")
	require.NoError(t, os.WriteFile(noAge, []byte(`[{"index": 0, "id": "1", "title": "t", "age": "1 minute ago"}, {"index": 1, "id": "2", "title": "t"}]`), 0o600))
	_, err = Load(noAge)
	assert.ErrorIs(t, err, article.ErrMissingAge)
	assert.Contains(t, err.Error(), "index 1")

	noTitle := filepath.Join(dir, "no-title.yaml")
	require.NoError(t, os.WriteFile(noTitle, []byte("- index: 0\n  id: \"1\"\n  age: 1 minute ago\n"), 0o600))
	_, err = Load(noTitle)
	assert.ErrorIs(t, err, article.ErrMissingTitle)
}
