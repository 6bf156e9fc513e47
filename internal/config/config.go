// Package config loads repository settings from .gud/config.yaml.
//
// A missing file yields the defaults. Fields omitted from the file keep
// their default values.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/bmatcuk/doublestar/v4"
	"gopkg.in/yaml.v3"

	gudcore "github.com/meigma/gud/core"
)

// Defaults.
const (
	DefaultCompression      = "zstd"
	DefaultSnapshotInterval = 16
	DefaultMaxFileSize      = 256 << 20
)

// Config is the repository configuration.
type Config struct {
	// Compression is the payload codec for new commits: zstd, lz4 or none.
	Compression string `yaml:"compression"`

	// SnapshotInterval is the longest patch chain a file may reach before
	// the next commit stores it as a snapshot again.
	SnapshotInterval int `yaml:"snapshot_interval"`

	// MaxFileSize is the largest file, in bytes, that commits will track.
	// Larger files are skipped with a warning. 0 disables the limit.
	MaxFileSize int64 `yaml:"max_file_size"`

	// Ignore lists doublestar glob patterns, matched against
	// slash-separated paths relative to the tree root.
	Ignore []string `yaml:"ignore,omitempty"`
}

// Default returns the configuration used when no file exists.
func Default() *Config {
	return &Config{
		Compression:      DefaultCompression,
		SnapshotInterval: DefaultSnapshotInterval,
		MaxFileSize:      DefaultMaxFileSize,
	}
}

// LoadFile reads the configuration at path over the defaults and validates
// it. A missing file is not an error.
func LoadFile(path string) (*Config, error) {
	c := Default()
	data, err := os.ReadFile(path) //nolint:gosec // path is inside the repository metadata dir
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return c, nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return c, nil
}

// Validate reports every invalid field.
func (c *Config) Validate() error {
	var errs []error
	if _, err := gudcore.ParseCompression(c.Compression); err != nil {
		errs = append(errs, fmt.Errorf("compression: %w", err))
	}
	if c.SnapshotInterval < 1 {
		errs = append(errs, fmt.Errorf("snapshot_interval: must be at least 1, got %d", c.SnapshotInterval))
	}
	if c.MaxFileSize < 0 {
		errs = append(errs, fmt.Errorf("max_file_size: must not be negative, got %d", c.MaxFileSize))
	}
	for _, pattern := range c.Ignore {
		if !doublestar.ValidatePattern(pattern) {
			errs = append(errs, fmt.Errorf("ignore: invalid pattern %q", pattern))
		}
	}
	return errors.Join(errs...)
}

// Codec returns the configured payload compression.
func (c *Config) Codec() gudcore.Compression {
	alg, err := gudcore.ParseCompression(c.Compression)
	if err != nil {
		return gudcore.CompressionZstd
	}
	return alg
}

// Save writes the configuration to path, replacing any existing file
// atomically.
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), ".config-*")
	if err != nil {
		return fmt.Errorf("save config: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("save config: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("save config: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("save config: %w", err)
	}
	return nil
}
