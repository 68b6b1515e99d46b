// Package config loads the optional .nsadjust.toml of a workspace.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/pelletier/go-toml/v2"
)

// FileName is looked up in the workspace root when no path is given.
const FileName = ".nsadjust.toml"

type Config struct {
	// RootNamespace overrides the RootNamespace of the .csproj files.
	RootNamespace      string   `toml:"root_namespace"`
	Exclude            []string `toml:"exclude"`
	ExcludedNamespaces []string `toml:"excluded_namespaces"`
	MarkupExtensions   []string `toml:"markup_extensions"`
	ParseWorkers       int      `toml:"parse_workers"` // 0 = GOMAXPROCS
	WatchDebounceMs    int      `toml:"watch_debounce_ms"`
	Markup             Markup   `toml:"markup"`

	// Path is where the config was read from, empty for defaults.
	Path string `toml:"-"`
}

type Markup struct {
	RemoveUnusedAliases bool `toml:"remove_unused_aliases"`
}

// Default returns the configuration used when no file exists.
func Default() *Config {
	return &Config{
		Exclude:            []string{"**/bin/**", "**/obj/**"},
		ExcludedNamespaces: []string{"XamlGeneratedNamespace"},
		MarkupExtensions:   []string{".xaml", ".axaml"},
		WatchDebounceMs:    200,
		Markup:             Markup{RemoveUnusedAliases: true},
	}
}

// Load reads path, or <root>/.nsadjust.toml when path is empty. A missing
// default file yields Default(); a missing explicit file is an error. Keys
// absent from the file keep their default values.
func Load(root, path string) (*Config, error) {
	explicit := path != ""
	if !explicit {
		path = filepath.Join(root, FileName)
	}

	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		if !explicit && errors.Is(err, fs.ErrNotExist) {
			return cfg, nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}

	if err := toml.Unmarshal(data, cfg); err != nil {
		var decodeErr *toml.DecodeError
		if errors.As(err, &decodeErr) {
			row, col := decodeErr.Position()
			return nil, fmt.Errorf("parse config %s:%d:%d: %w", path, row, col, err)
		}
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	cfg.Path = path

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks values and normalizes extensions to a leading dot.
func (c *Config) Validate() error {
	if c.ParseWorkers < 0 {
		return fmt.Errorf("parse_workers must not be negative, got %d", c.ParseWorkers)
	}
	if c.WatchDebounceMs < 0 {
		return fmt.Errorf("watch_debounce_ms must not be negative, got %d", c.WatchDebounceMs)
	}
	for _, pattern := range c.Exclude {
		if !doublestar.ValidatePattern(pattern) {
			return fmt.Errorf("invalid exclude pattern %q", pattern)
		}
	}
	for i, ext := range c.MarkupExtensions {
		ext = strings.TrimSpace(ext)
		if ext == "" || ext == "." {
			return fmt.Errorf("empty markup extension")
		}
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		if strings.EqualFold(ext, ".cs") {
			return fmt.Errorf("markup_extensions must not contain .cs")
		}
		c.MarkupExtensions[i] = ext
	}
	return nil
}

// WatchDebounce returns the debounce interval of the file watcher.
func (c *Config) WatchDebounce() time.Duration {
	return time.Duration(c.WatchDebounceMs) * time.Millisecond
}

// Encode renders c as TOML, e.g. for `nsadjust config`.
func (c *Config) Encode() (string, error) {
	data, err := toml.Marshal(c)
	if err != nil {
		return "", fmt.Errorf("encode config: %w", err)
	}
	return string(data), nil
}
