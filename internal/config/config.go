// Package config loads tagtree settings from YAML with environment overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/agentic-research/tagtree/internal/collection"
)

// AllTags is the built-in service that exports every tag unfiltered.
const AllTags = "all_tags"

// Upload modes.
const (
	UploadNone      = "none"
	UploadPresigned = "presigned"
	UploadGCS       = "gcs"
)

// Config is the full tagtree configuration.
type Config struct {
	// Collection is the path of the collection database to read.
	Collection string `yaml:"collection"`
	// ExportsDir receives the compressed artifacts.
	ExportsDir string `yaml:"exports_dir"`
	// Username names the artifacts; only the part before "@" is used.
	Username string `yaml:"username"`
	// CompressionLevel is the gzip level, 1 (fastest) to 9.
	CompressionLevel int `yaml:"compression_level"`
	// ClearExportsDir removes previous artifacts before a unified export.
	ClearExportsDir bool   `yaml:"clear_exports_dir"`
	LogMode         string `yaml:"log_mode"`

	Services map[string]ServiceConfig `yaml:"services"`
	Upload   UploadConfig             `yaml:"upload"`
}

// ServiceConfig names an export service and its tag filter.
type ServiceConfig struct {
	DisplayName       string `yaml:"display_name"`
	collection.Filter `yaml:",inline"`
}

// UploadConfig selects and configures the upload transport.
type UploadConfig struct {
	Mode    string        `yaml:"mode"`
	APIURL  string        `yaml:"api_url"`
	Token   string        `yaml:"-"`
	Bucket  string        `yaml:"bucket"`
	Prefix  string        `yaml:"prefix"`
	Timeout time.Duration `yaml:"timeout"`
}

// DefaultConfig returns the built-in settings.
func DefaultConfig() *Config {
	return &Config{
		ExportsDir:       "exports",
		Username:         "user",
		CompressionLevel: 1,
		ClearExportsDir:  true,
		LogMode:          "development",
		Services: map[string]ServiceConfig{
			AllTags: {DisplayName: "All Tags Export"},
		},
		Upload: UploadConfig{
			Mode:    UploadNone,
			Timeout: 5 * time.Minute,
		},
	}
}

// DefaultPath returns ~/.config/tagtree/config.yaml, or config.yaml when the
// home directory cannot be resolved.
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "config.yaml"
	}
	return filepath.Join(home, ".config", "tagtree", "config.yaml")
}

// Load reads path over the defaults. A missing file yields the defaults.
// Environment overrides are applied in both cases.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	case errors.Is(err, os.ErrNotExist):
	default:
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if _, ok := cfg.Services[AllTags]; !ok {
		if cfg.Services == nil {
			cfg.Services = map[string]ServiceConfig{}
		}
		cfg.Services[AllTags] = ServiceConfig{DisplayName: "All Tags Export"}
	}
	cfg.applyEnvOverrides()
	return cfg, nil
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("TAGTREE_COLLECTION"); v != "" {
		c.Collection = v
	}
	if v := os.Getenv("TAGTREE_EXPORTS_DIR"); v != "" {
		c.ExportsDir = v
	}
	if v := os.Getenv("TAGTREE_USER"); v != "" {
		c.Username = v
	}
	if v := os.Getenv("TAGTREE_TOKEN"); v != "" {
		c.Upload.Token = v
	}
	if v := os.Getenv("TAGTREE_UPLOAD_URL"); v != "" {
		c.Upload.APIURL = v
		if c.Upload.Mode == "" || c.Upload.Mode == UploadNone {
			c.Upload.Mode = UploadPresigned
		}
	}
	if v := os.Getenv("TAGTREE_GCS_BUCKET"); v != "" {
		c.Upload.Bucket = v
		c.Upload.Mode = UploadGCS
	}
	if v := os.Getenv("LOG_MODE"); v != "" {
		c.LogMode = v
	}
}

// Validate checks value ranges and upload settings.
func (c *Config) Validate() error {
	if c.CompressionLevel < 1 || c.CompressionLevel > 9 {
		return fmt.Errorf("compression_level must be 1-9, got %d", c.CompressionLevel)
	}
	if strings.TrimSpace(c.ExportsDir) == "" {
		return errors.New("exports_dir is required")
	}
	switch c.Upload.Mode {
	case "", UploadNone:
	case UploadPresigned:
		if c.Upload.APIURL == "" {
			return errors.New("upload.api_url is required for presigned uploads")
		}
	case UploadGCS:
		if c.Upload.Bucket == "" {
			return errors.New("upload.bucket is required for gcs uploads")
		}
	default:
		return fmt.Errorf("unknown upload mode %q", c.Upload.Mode)
	}
	return nil
}

// Service returns the named service configuration.
func (c *Config) Service(name string) (ServiceConfig, error) {
	s, ok := c.Services[name]
	if !ok {
		return ServiceConfig{}, fmt.Errorf("unknown service type: %s. Available: %s",
			name, strings.Join(c.ServiceNames(), ", "))
	}
	if s.DisplayName == "" {
		s.DisplayName = name
	}
	return s, nil
}

// ServiceNames lists the configured services, sorted.
func (c *Config) ServiceNames() []string {
	names := make([]string, 0, len(c.Services))
	for n := range c.Services {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
