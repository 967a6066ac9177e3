// Package sink persists a collected batch to a single file and reads it back.
package sink

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pevans/hnsort/article"
	"github.com/tidwall/gjson"
	"gopkg.in/yaml.v3"
)

// Supported output formats.
const (
	FormatJSON = "json"
	FormatYAML = "yaml"
)

// Errors returned by the sink.
var (
	ErrUnknownFormat = errors.New("format must be 'json' or 'yaml'")
	ErrInvalidJSON   = errors.New("file is not valid JSON")
	ErrNotAList      = errors.New("file does not contain a list of items")
	ErrNotAnItem     = errors.New("list entry is not an item object")
)

// FileSink writes the whole batch to Path, replacing any previous content.
type FileSink struct {
	Path   string
	Format string
}

// NewFileSink creates a sink for path. An empty format is inferred from the
// file extension, defaulting to JSON.
func NewFileSink(path, format string) (*FileSink, error) {
	if format == "" {
		format = FormatFromPath(path)
	}
	format = strings.ToLower(format)
	if format != FormatJSON && format != FormatYAML {
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}

	return &FileSink{Path: path, Format: format}, nil
}

// FormatFromPath returns "yaml" for .yaml/.yml paths and "json" otherwise.
func FormatFromPath(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatJSON
	}
}

// Write serializes items and atomically replaces the file.
func (s *FileSink) Write(items []article.Item) error {
	data, err := Marshal(items, s.Format)
	if err != nil {
		return err
	}

	// Create the parent directory if it doesn't exist (0700: owner-only access)
	dir := filepath.Dir(s.Path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(s.Path)+".*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName) // no-op after a successful rename

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write items: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write items: %w", err)
	}
	// 0600: owner-only read/write
	if err := os.Chmod(tmpName, 0o600); err != nil {
		return fmt.Errorf("failed to set file mode: %w", err)
	}
	if err := os.Rename(tmpName, s.Path); err != nil {
		return fmt.Errorf("failed to replace %s: %w", s.Path, err)
	}

	return nil
}

// Marshal renders items as an indented JSON array or YAML sequence.
func Marshal(items []article.Item, format string) ([]byte, error) {
	if items == nil {
		items = []article.Item{}
	}

	switch format {
	case FormatJSON:
		data, err := json.MarshalIndent(items, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("failed to marshal items: %w", err)
		}
		return append(data, '\n'), nil
	case FormatYAML:
		var buf bytes.Buffer
		enc := yaml.NewEncoder(&buf)
		enc.SetIndent(2)
		if err := enc.Encode(items); err != nil {
			return nil, fmt.Errorf("failed to marshal items: %w", err)
		}
		if err := enc.Close(); err != nil {
			return nil, fmt.Errorf("failed to marshal items: %w", err)
		}
		return buf.Bytes(), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
}

// Load reads a batch written by Write. The format follows the extension.
func Load(path string) ([]article.Item, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read items: %w", err)
	}
	return Unmarshal(data, FormatFromPath(path))
}

// Unmarshal parses a serialized batch.
func Unmarshal(data []byte, format string) ([]article.Item, error) {
	switch format {
	case FormatJSON:
		return unmarshalJSON(data)
	case FormatYAML:
		var items []article.Item
		if err := yaml.Unmarshal(data, &items); err != nil {
			return nil, fmt.Errorf("failed to parse items: %w", err)
		}
		return items, validateItems(items)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
}

func unmarshalJSON(data []byte) ([]article.Item, error) {
	if !gjson.ValidBytes(data) {
		return nil, ErrInvalidJSON
	}

	root := gjson.ParseBytes(data)
	if !root.IsArray() {
		return nil, ErrNotAList
	}

	entries := root.Array()
	items := make([]article.Item, 0, len(entries))
	for i, entry := range entries {
		if !entry.IsObject() {
			return nil, fmt.Errorf("%w at position %d", ErrNotAnItem, i)
		}
		items = append(items, article.Item{
			Index: int(entry.Get("index").Int()),
			ID:    entry.Get("id").String(),
			Title: entry.Get("title").String(),
			Age:   entry.Get("age").String(),
			URL:   entry.Get("url").String(),
			Site:  entry.Get("site").String(),
		})
	}

	return items, validateItems(items)
}

// validateItems rejects a loaded batch with any incomplete item.
func validateItems(items []article.Item) error {
	for _, item := range items {
		if err := item.Validate(); err != nil {
			return fmt.Errorf("invalid item in file: %w", err)
		}
	}
	return nil
}
