package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

const envPrefix = "DISCOGS_"

// Config holds all configuration options for the catalog builder
type Config struct {
	// Discogs API access
	Discogs DiscogsConfig `yaml:"discogs" toml:"discogs" json:"discogs"`

	// Which part of the collection to process
	Collection CollectionConfig `yaml:"collection" toml:"collection" json:"collection"`

	// Request spacing
	RateLimit RateLimitConfig `yaml:"rate_limit" toml:"rate_limit" json:"rate_limit"`

	// Retry behaviour for failed requests
	Retry RetryConfig `yaml:"retry" toml:"retry" json:"retry"`

	// Release and thumbnail caches
	Cache CacheConfig `yaml:"cache" toml:"cache" json:"cache"`

	// Thumbnail processing
	Images ImagesConfig `yaml:"images" toml:"images" json:"images"`

	// Rendered report location
	Output OutputConfig `yaml:"output" toml:"output" json:"output"`

	// Logging configuration
	Logging LoggingConfig `yaml:"logging" toml:"logging" json:"logging"`

	// Debug logs the effective configuration and forces debug level
	Debug bool `yaml:"debug" toml:"debug" json:"debug"`
}

// DiscogsConfig holds API credentials and endpoint settings
type DiscogsConfig struct {
	AuthToken      string `yaml:"auth_token" toml:"auth_token" json:"auth_token"`
	BaseURI        string `yaml:"base_uri" toml:"base_uri" json:"base_uri"`
	UserAgent      string `yaml:"user_agent" toml:"user_agent" json:"user_agent"`
	Currency       string `yaml:"currency" toml:"currency" json:"currency"`
	TimeoutSeconds int    `yaml:"timeout_seconds" toml:"timeout_seconds" json:"timeout_seconds"`
}

// CollectionConfig selects the folder and bounds the amount of work
type CollectionConfig struct {
	FolderName        string   `yaml:"folder_name" toml:"folder_name" json:"folder_name"`
	PageSize          int      `yaml:"page_size" toml:"page_size" json:"page_size"`
	MaxReleases       int      `yaml:"max_releases" toml:"max_releases" json:"max_releases"`
	MaxPages          int      `yaml:"max_pages" toml:"max_pages" json:"max_pages"`
	IncludeConditions []string `yaml:"include_conditions" toml:"include_conditions" json:"include_conditions"`
}

// RateLimitConfig holds rate limiting configuration
type RateLimitConfig struct {
	Strategy          string `yaml:"strategy" toml:"strategy" json:"strategy"`
	MinIntervalMs     int    `yaml:"min_interval_ms" toml:"min_interval_ms" json:"min_interval_ms"`
	RequestsPerMinute int    `yaml:"requests_per_minute" toml:"requests_per_minute" json:"requests_per_minute"`
}

// RetryConfig holds retry configuration. MaxAttempts of 1 disables retries.
type RetryConfig struct {
	MaxAttempts      int     `yaml:"max_attempts" toml:"max_attempts" json:"max_attempts"`
	InitialBackoffMs int     `yaml:"initial_backoff_ms" toml:"initial_backoff_ms" json:"initial_backoff_ms"`
	MaxBackoffMs     int     `yaml:"max_backoff_ms" toml:"max_backoff_ms" json:"max_backoff_ms"`
	Multiplier       float64 `yaml:"multiplier" toml:"multiplier" json:"multiplier"`
}

// CacheConfig holds cache locations and flush policy
type CacheConfig struct {
	Dir       string `yaml:"dir" toml:"dir" json:"dir"`
	FlushEach bool   `yaml:"flush_each" toml:"flush_each" json:"flush_each"`
}

// ImagesConfig controls thumbnail normalisation. Zero keeps the bytes as served.
type ImagesConfig struct {
	MaxDimension int `yaml:"max_dimension" toml:"max_dimension" json:"max_dimension"`
}

// OutputConfig holds output directory configuration
type OutputConfig struct {
	Dir        string `yaml:"dir" toml:"dir" json:"dir"`
	ReportFile string `yaml:"report_file" toml:"report_file" json:"report_file"`
	ImagesDir  string `yaml:"images_dir" toml:"images_dir" json:"images_dir"`
	Stylesheet string `yaml:"stylesheet" toml:"stylesheet" json:"stylesheet"`
	// JSONFile is the machine-readable export; empty disables it
	JSONFile   string `yaml:"json_file" toml:"json_file" json:"json_file"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `yaml:"level" toml:"level" json:"level"`
	File   string `yaml:"file" toml:"file" json:"file"`
	Format string `yaml:"format" toml:"format" json:"format"`
}

// DefaultConfig returns a Config instance with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Discogs: DiscogsConfig{
			BaseURI:        "https://api.discogs.com",
			UserAgent:      "DiscogsCatalog/1.0 +https://github.com/discogscatalog",
			Currency:       "EUR",
			TimeoutSeconds: 30,
		},
		Collection: CollectionConfig{
			PageSize:          100,
			MaxReleases:       20,
			MaxPages:          100,
			IncludeConditions: []string{"Mint (M)", "Near Mint (NM or M-)", "Very Good Plus (VG+)"},
		},
		RateLimit: RateLimitConfig{
			Strategy:          "interval",
			MinIntervalMs:     1000,
			RequestsPerMinute: 60,
		},
		Retry: RetryConfig{
			MaxAttempts:      1,
			InitialBackoffMs: 1000,
			MaxBackoffMs:     30000,
			Multiplier:       2.0,
		},
		Cache: CacheConfig{
			Dir:       ".cache",
			FlushEach: true,
		},
		Output: OutputConfig{
			Dir:        "dist",
			ReportFile: "catalog.html",
			ImagesDir:  "images",
			Stylesheet: "styles.css",
			JSONFile:   "catalog.json",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// MinInterval returns the configured request spacing
func (c *Config) MinInterval() time.Duration {
	return time.Duration(c.RateLimit.MinIntervalMs) * time.Millisecond
}

// Timeout returns the HTTP client timeout
func (c *Config) Timeout() time.Duration {
	return time.Duration(c.Discogs.TimeoutSeconds) * time.Second
}

// ImagesCacheDir returns the directory holding cached thumbnails
func (c *Config) ImagesCacheDir() string {
	return filepath.Join(c.Cache.Dir, "images")
}

// ReportPath returns the full path of the rendered HTML file
func (c *Config) ReportPath() string {
	return filepath.Join(c.Output.Dir, c.Output.ReportFile)
}

// JSONPath returns the full path of the JSON export, or "" when disabled
func (c *Config) JSONPath() string {
	if c.Output.JSONFile == "" {
		return ""
	}
	return filepath.Join(c.Output.Dir, c.Output.JSONFile)
}

// OutputImagesDir returns where cached thumbnails are copied for the report
func (c *Config) OutputImagesDir() string {
	return filepath.Join(c.Output.Dir, c.Output.ImagesDir)
}

// LoadFromEnv loads configuration from environment variables
func (c *Config) LoadFromEnv() error {
	if v := os.Getenv(envPrefix + "AUTH_TOKEN"); v != "" {
		c.Discogs.AuthToken = v
	}
	if v := os.Getenv(envPrefix + "BASE_URI"); v != "" {
		c.Discogs.BaseURI = v
	}
	if v := os.Getenv(envPrefix + "USER_AGENT"); v != "" {
		c.Discogs.UserAgent = v
	}
	if v := os.Getenv(envPrefix + "CURRENCY"); v != "" {
		c.Discogs.Currency = v
	}
	if v := os.Getenv(envPrefix + "FOLDER_NAME"); v != "" {
		c.Collection.FolderName = v
	}
	if v := os.Getenv(envPrefix + "INCLUDE_CONDITIONS"); v != "" {
		c.Collection.IncludeConditions = splitList(v)
	}
	if v := os.Getenv(envPrefix + "CACHE_DIR"); v != "" {
		c.Cache.Dir = v
	}
	if v := os.Getenv(envPrefix + "OUTPUT_DIR"); v != "" {
		c.Output.Dir = v
	}
	if v := os.Getenv(envPrefix + "LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}

	intVars := map[string]*int{
		"PAGE_SIZE":       &c.Collection.PageSize,
		"MAX_RELEASES":    &c.Collection.MaxReleases,
		"MAX_PAGES":       &c.Collection.MaxPages,
		"LIMITER_TIME":    &c.RateLimit.MinIntervalMs,
		"MAX_ATTEMPTS":    &c.Retry.MaxAttempts,
		"TIMEOUT_SECONDS": &c.Discogs.TimeoutSeconds,
	}
	for name, target := range intVars {
		raw := os.Getenv(envPrefix + name)
		if raw == "" {
			continue
		}
		val, err := strconv.Atoi(raw)
		if err != nil {
			return fmt.Errorf("invalid %s%s: %w", envPrefix, name, err)
		}
		*target = val
	}

	if v := os.Getenv(envPrefix + "DEBUG"); v != "" {
		c.Debug = strings.EqualFold(v, "true") || v == "1"
	}

	return nil
}

// LoadFromFile loads configuration from a YAML or TOML file
func (c *Config) LoadFromFile(path string) error {
	// If path is empty, try default locations
	if path == "" {
		path = c.findConfigFile()
		if path == "" {
			return nil // No config file found, not an error
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		if err := toml.Unmarshal(data, c); err != nil {
			return fmt.Errorf("failed to parse config file: %w", err)
		}
	default:
		if err := yaml.Unmarshal(data, c); err != nil {
			return fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	return nil
}

// findConfigFile searches for config file in standard locations
func (c *Config) findConfigFile() string {
	home := os.Getenv("HOME")
	locations := []string{
		"discogscatalog.yaml",
		"discogscatalog.yml",
		"discogscatalog.toml",
		".discogscatalog.yaml",
		filepath.Join(home, ".config", "discogscatalog", "config.yaml"),
		filepath.Join(home, ".config", "discogscatalog", "config.toml"),
	}

	for _, loc := range locations {
		if _, err := os.Stat(loc); err == nil {
			return loc
		}
	}

	return ""
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	var errs []error

	if c.Discogs.AuthToken == "" {
		errs = append(errs, errors.New("discogs auth token is required"))
	}
	if c.Discogs.BaseURI == "" {
		errs = append(errs, errors.New("discogs base URI is required"))
	}
	if c.Discogs.TimeoutSeconds < 0 {
		errs = append(errs, errors.New("timeout cannot be negative"))
	}

	if c.Collection.PageSize <= 0 {
		errs = append(errs, errors.New("page size must be positive"))
	}
	if c.Collection.MaxReleases <= 0 {
		errs = append(errs, errors.New("max releases must be positive"))
	}
	if c.Collection.MaxPages <= 0 {
		errs = append(errs, errors.New("max pages must be positive"))
	}

	switch strings.ToLower(c.RateLimit.Strategy) {
	case "interval", "":
		if c.RateLimit.MinIntervalMs < 0 {
			errs = append(errs, errors.New("min interval cannot be negative"))
		}
	case "token_bucket", "sliding_window":
		if c.RateLimit.RequestsPerMinute <= 0 {
			errs = append(errs, errors.New("requests per minute must be positive"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown rate limit strategy %q", c.RateLimit.Strategy))
	}

	if c.Retry.MaxAttempts < 1 {
		errs = append(errs, errors.New("max attempts must be at least 1"))
	}

	if c.Cache.Dir == "" {
		errs = append(errs, errors.New("cache directory is required"))
	}
	if c.Images.MaxDimension < 0 {
		errs = append(errs, errors.New("image max dimension cannot be negative"))
	}
	if c.Output.Dir == "" || c.Output.ReportFile == "" {
		errs = append(errs, errors.New("output directory and report file are required"))
	}

	validLogLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true,
	}
	if !validLogLevels[strings.ToLower(c.Logging.Level)] {
		errs = append(errs, errors.New("invalid log level"))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	return nil
}

// Masked returns a copy safe to print, with the auth token shortened
func (c *Config) Masked() *Config {
	masked := *c
	masked.Collection.IncludeConditions = append([]string(nil), c.Collection.IncludeConditions...)
	masked.Discogs.AuthToken = MaskSecret(c.Discogs.AuthToken)
	return &masked
}

// MaskSecret keeps the first and last four characters of long secrets
func MaskSecret(s string) string {
	if s == "" {
		return ""
	}
	if len(s) <= 8 {
		return "***"
	}
	return s[:4] + "..." + s[len(s)-4:]
}

// Save saves the configuration to a file
func (c *Config) Save(path string) error {
	var (
		data []byte
		err  error
	)
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		data, err = toml.Marshal(c)
	} else {
		data, err = yaml.Marshal(c)
	}
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// MergeCommandLineFlags merges command line flags into the configuration
func (c *Config) MergeCommandLineFlags(flags map[string]interface{}) {
	if token, ok := flags["token"].(string); ok && token != "" {
		c.Discogs.AuthToken = token
	}
	if folder, ok := flags["folder"].(string); ok && folder != "" {
		c.Collection.FolderName = folder
	}
	if limit, ok := flags["limit"].(int); ok && limit > 0 {
		c.Collection.MaxReleases = limit
	}
	if outputDir, ok := flags["output"].(string); ok && outputDir != "" {
		c.Output.Dir = outputDir
	}
	if cacheDir, ok := flags["cache-dir"].(string); ok && cacheDir != "" {
		c.Cache.Dir = cacheDir
	}
	if interval, ok := flags["rate-limit-ms"].(int); ok && interval >= 0 {
		c.RateLimit.MinIntervalMs = interval
	}
	if logLevel, ok := flags["log-level"].(string); ok && logLevel != "" {
		c.Logging.Level = logLevel
	}
	if debug, ok := flags["debug"].(bool); ok && debug {
		c.Debug = true
	}
	if c.Debug {
		c.Logging.Level = "debug"
	}
}

// Load loads configuration from all sources with proper precedence
// Precedence order: Command line flags > Environment variables > .env file > Config file > Defaults
func Load(configPath string, flags map[string]interface{}) (*Config, error) {
	cfg, err := LoadUnvalidated(configPath, flags)
	if err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// LoadUnvalidated runs every loading stage but skips Validate, for commands
// that inspect configuration without needing a usable token.
func LoadUnvalidated(configPath string, flags map[string]interface{}) (*Config, error) {
	// Missing .env files are fine
	_ = godotenv.Load(".env")
	_ = godotenv.Load(filepath.Join(os.Getenv("HOME"), ".discogscatalog.env"))

	config := DefaultConfig()

	if err := config.LoadFromFile(configPath); err != nil {
		return nil, fmt.Errorf("failed to load config file: %w", err)
	}

	if err := config.LoadFromEnv(); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	config.MergeCommandLineFlags(flags)

	return config, nil
}

func splitList(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
