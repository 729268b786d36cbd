package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	config := DefaultConfig()

	assert.Equal(t, "https://api.discogs.com", config.Discogs.BaseURI)
	assert.Equal(t, 100, config.Collection.PageSize)
	assert.Equal(t, 20, config.Collection.MaxReleases)
	assert.Equal(t, 1000, config.RateLimit.MinIntervalMs)
	assert.Equal(t, time.Second, config.MinInterval())
	assert.Equal(t, 1, config.Retry.MaxAttempts)
	assert.True(t, config.Cache.FlushEach)
	assert.Equal(t, filepath.Join(".cache", "images"), config.ImagesCacheDir())
	assert.Equal(t, filepath.Join("dist", "catalog.html"), config.ReportPath())
	assert.Equal(t, filepath.Join("dist", "images"), config.OutputImagesDir())
	assert.Equal(t, filepath.Join("dist", "catalog.json"), config.JSONPath())

	config.Output.JSONFile = ""
	assert.Empty(t, config.JSONPath())
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("DISCOGS_AUTH_TOKEN", "env-token")
	t.Setenv("DISCOGS_FOLDER_NAME", "Vinyl")
	t.Setenv("DISCOGS_PAGE_SIZE", "50")
	t.Setenv("DISCOGS_LIMITER_TIME", "250")
	t.Setenv("DISCOGS_INCLUDE_CONDITIONS", "Mint (M), Good (G)")
	t.Setenv("DISCOGS_DEBUG", "true")

	config := DefaultConfig()
	require.NoError(t, config.LoadFromEnv())

	assert.Equal(t, "env-token", config.Discogs.AuthToken)
	assert.Equal(t, "Vinyl", config.Collection.FolderName)
	assert.Equal(t, 50, config.Collection.PageSize)
	assert.Equal(t, 250, config.RateLimit.MinIntervalMs)
	assert.Equal(t, []string{"Mint (M)", "Good (G)"}, config.Collection.IncludeConditions)
	assert.True(t, config.Debug)
}

func TestLoadFromEnvRejectsBadInteger(t *testing.T) {
	t.Setenv("DISCOGS_PAGE_SIZE", "lots")

	config := DefaultConfig()
	err := config.LoadFromEnv()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DISCOGS_PAGE_SIZE")
}

func TestLoadFromFileYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
discogs:
  auth_token: "yaml-token"
collection:
  folder_name: "Jazz"
  include_conditions:
    - "Mint (M)"
rate_limit:
  min_interval_ms: 500
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	config := DefaultConfig()
	require.NoError(t, config.LoadFromFile(path))

	assert.Equal(t, "yaml-token", config.Discogs.AuthToken)
	assert.Equal(t, "Jazz", config.Collection.FolderName)
	assert.Equal(t, []string{"Mint (M)"}, config.Collection.IncludeConditions)
	assert.Equal(t, 500, config.RateLimit.MinIntervalMs)
	// untouched keys keep their defaults
	assert.Equal(t, 100, config.Collection.PageSize)
}

func TestLoadFromFileTOML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	content := `
[discogs]
auth_token = "toml-token"

[collection]
folder_name = "Soul"
max_releases = 5
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	config := DefaultConfig()
	require.NoError(t, config.LoadFromFile(path))

	assert.Equal(t, "toml-token", config.Discogs.AuthToken)
	assert.Equal(t, "Soul", config.Collection.FolderName)
	assert.Equal(t, 5, config.Collection.MaxReleases)
}

func TestLoadFromFileInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("discogs: [unclosed"), 0644))

	config := DefaultConfig()
	assert.Error(t, config.LoadFromFile(path))
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr string
	}{
		{
			name:   "valid",
			modify: func(c *Config) {},
		},
		{
			name:    "missing token",
			modify:  func(c *Config) { c.Discogs.AuthToken = "" },
			wantErr: "auth token is required",
		},
		{
			name:    "missing base uri",
			modify:  func(c *Config) { c.Discogs.BaseURI = "" },
			wantErr: "base URI is required",
		},
		{
			name:    "zero page size",
			modify:  func(c *Config) { c.Collection.PageSize = 0 },
			wantErr: "page size must be positive",
		},
		{
			name:    "unknown strategy",
			modify:  func(c *Config) { c.RateLimit.Strategy = "leaky" },
			wantErr: "unknown rate limit strategy",
		},
		{
			name:    "zero attempts",
			modify:  func(c *Config) { c.Retry.MaxAttempts = 0 },
			wantErr: "max attempts",
		},
		{
			name:    "bad log level",
			modify:  func(c *Config) { c.Logging.Level = "loud" },
			wantErr: "invalid log level",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := DefaultConfig()
			config.Discogs.AuthToken = "token"
			tt.modify(config)

			err := config.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestMergeCommandLineFlags(t *testing.T) {
	config := DefaultConfig()
	config.MergeCommandLineFlags(map[string]interface{}{
		"token":         "flag-token",
		"folder":        "Uncategorized",
		"limit":         7,
		"output":        "/tmp/out",
		"cache-dir":     "/tmp/cache",
		"rate-limit-ms": 0,
		"debug":         true,
	})

	assert.Equal(t, "flag-token", config.Discogs.AuthToken)
	assert.Equal(t, "Uncategorized", config.Collection.FolderName)
	assert.Equal(t, 7, config.Collection.MaxReleases)
	assert.Equal(t, "/tmp/out", config.Output.Dir)
	assert.Equal(t, "/tmp/cache", config.Cache.Dir)
	assert.Equal(t, 0, config.RateLimit.MinIntervalMs)
	assert.Equal(t, "debug", config.Logging.Level)
}

func TestLoadPrecedence(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("discogs:\n  auth_token: file-token\ncollection:\n  folder_name: FromFile\n"), 0644))

	t.Setenv("DISCOGS_FOLDER_NAME", "FromEnv")

	config, err := Load(path, map[string]interface{}{"token": "flag-token"})
	require.NoError(t, err)

	assert.Equal(t, "flag-token", config.Discogs.AuthToken)
	assert.Equal(t, "FromEnv", config.Collection.FolderName)
}

func TestMasked(t *testing.T) {
	config := DefaultConfig()
	config.Discogs.AuthToken = "abcdefghijklmnop"

	masked := config.Masked()
	assert.Equal(t, "abcd...mnop", masked.Discogs.AuthToken)
	assert.Equal(t, "abcdefghijklmnop", config.Discogs.AuthToken)
	assert.Equal(t, "***", MaskSecret("short"))
	assert.Equal(t, "", MaskSecret(""))
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.toml")

	config := DefaultConfig()
	config.Discogs.AuthToken = "saved-token"
	require.NoError(t, config.Save(path))

	loaded := DefaultConfig()
	require.NoError(t, loaded.LoadFromFile(path))
	assert.Equal(t, "saved-token", loaded.Discogs.AuthToken)
}
