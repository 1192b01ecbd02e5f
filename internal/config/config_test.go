package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "exports", cfg.ExportsDir)
	assert.Equal(t, 1, cfg.CompressionLevel)
	assert.Equal(t, UploadNone, cfg.Upload.Mode)
	assert.Equal(t, []string{AllTags}, cfg.ServiceNames())
	require.NoError(t, cfg.Validate())
}

func TestLoad_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
collection: /data/collection.anki2
exports_dir: /tmp/out
username: someone@example.com
compression_level: 6
services:
  step1:
    display_name: Step 1 & Step 2
    include_patterns: ["#AK_Step1"]
    exclude_patterns: ["!AK_UpdateTags"]
upload:
  mode: presigned
  api_url: https://api.example.com/prod
  timeout: 30s
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "/data/collection.anki2", cfg.Collection)
	assert.Equal(t, 6, cfg.CompressionLevel)
	assert.Equal(t, 30*time.Second, cfg.Upload.Timeout)
	assert.Equal(t, []string{AllTags, "step1"}, cfg.ServiceNames(), "built-in service survives a custom map")

	svc, err := cfg.Service("step1")
	require.NoError(t, err)
	assert.Equal(t, "Step 1 & Step 2", svc.DisplayName)
	assert.Equal(t, []string{"#AK_Step1"}, svc.Include)
	assert.Equal(t, []string{"!AK_UpdateTags"}, svc.Exclude)

	_, err = cfg.Service("deck")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Available: all_tags, step1")
}

func TestLoad_BadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("services: [unterminated"), 0o644))
	_, err := Load(path)
	require.Error(t, err)
}

func TestEnvOverrides(t *testing.T) {
	t.Run("upload url selects presigned mode", func(t *testing.T) {
		t.Setenv("TAGTREE_UPLOAD_URL", "https://u.example.com")
		t.Setenv("TAGTREE_TOKEN", "tok")
		t.Setenv("TAGTREE_GCS_BUCKET", "")

		cfg := DefaultConfig()
		cfg.applyEnvOverrides()
		assert.Equal(t, UploadPresigned, cfg.Upload.Mode)
		assert.Equal(t, "tok", cfg.Upload.Token)
	})

	t.Run("gcs bucket wins", func(t *testing.T) {
		t.Setenv("TAGTREE_UPLOAD_URL", "https://u.example.com")
		t.Setenv("TAGTREE_GCS_BUCKET", "exports-bucket")

		cfg := DefaultConfig()
		cfg.applyEnvOverrides()
		assert.Equal(t, UploadGCS, cfg.Upload.Mode)
		assert.Equal(t, "exports-bucket", cfg.Upload.Bucket)
	})

	t.Run("paths and user", func(t *testing.T) {
		t.Setenv("TAGTREE_COLLECTION", "/c.anki2")
		t.Setenv("TAGTREE_EXPORTS_DIR", "/e")
		t.Setenv("TAGTREE_USER", "u")
		t.Setenv("LOG_MODE", "production")

		cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
		require.NoError(t, err)
		assert.Equal(t, "/c.anki2", cfg.Collection)
		assert.Equal(t, "/e", cfg.ExportsDir)
		assert.Equal(t, "u", cfg.Username)
		assert.Equal(t, "production", cfg.LogMode)
	})
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		ok     bool
	}{
		{"defaults", func(*Config) {}, true},
		{"level too high", func(c *Config) { c.CompressionLevel = 10 }, false},
		{"level zero", func(c *Config) { c.CompressionLevel = 0 }, false},
		{"empty exports dir", func(c *Config) { c.ExportsDir = " " }, false},
		{"presigned without url", func(c *Config) { c.Upload.Mode = UploadPresigned }, false},
		{"gcs without bucket", func(c *Config) { c.Upload.Mode = UploadGCS }, false},
		{"gcs with bucket", func(c *Config) { c.Upload.Mode = UploadGCS; c.Upload.Bucket = "b" }, true},
		{"unknown mode", func(c *Config) { c.Upload.Mode = "ftp" }, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			if tt.ok {
				assert.NoError(t, cfg.Validate())
			} else {
				assert.Error(t, cfg.Validate())
			}
		})
	}
}
