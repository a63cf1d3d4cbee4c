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
	"gopkg.in/yaml.v3"
)

// DefaultUserAgent identifies the archiver to the remote API
const DefaultUserAgent = "favarchive/1.0 (+https://github.com/favarchive/favarchive)"

// Rate limit policies understood by ratelimit.FromConfig
const (
	PolicyInterval      = "interval"
	PolicySlidingWindow = "sliding_window"
	PolicyTokenBucket   = "token_bucket"
)

// Config holds all configuration options for the favorites archiver
type Config struct {
	// Remote API settings
	API APIConfig `yaml:"api" json:"api"`

	// Request pacing
	RateLimit RateLimitConfig `yaml:"rate_limit" json:"rate_limit"`

	// Archive layout on disk
	Output OutputConfig `yaml:"output" json:"output"`

	// Download settings
	Download DownloadConfig `yaml:"download" json:"download"`

	// Logging configuration
	Logging LoggingConfig `yaml:"logging" json:"logging"`
}

// APIConfig holds remote API configuration
type APIConfig struct {
	BaseURL   string        `yaml:"base_url" json:"base_url"`
	UserAgent string        `yaml:"user_agent" json:"user_agent"`
	Timeout   time.Duration `yaml:"timeout" json:"timeout"`
}

// RateLimitConfig holds request pacing configuration
type RateLimitConfig struct {
	Policy            string        `yaml:"policy" json:"policy"`
	RequestInterval   time.Duration `yaml:"request_interval" json:"request_interval"`
	RequestsPerWindow int           `yaml:"requests_per_window" json:"requests_per_window"`
	Window            time.Duration `yaml:"window" json:"window"`
}

// OutputConfig holds output directory configuration
type OutputConfig struct {
	Directory   string `yaml:"directory" json:"directory"`
	MetadataDir string `yaml:"metadata_dir" json:"metadata_dir"`
}

// DownloadConfig holds download-specific configuration
type DownloadConfig struct {
	Workers int `yaml:"workers" json:"workers"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level      string `yaml:"level" json:"level"`
	Format     string `yaml:"format" json:"format"`
	File       string `yaml:"file" json:"file"`
	MaxSize    int    `yaml:"max_size" json:"max_size"`
	MaxBackups int    `yaml:"max_backups" json:"max_backups"`
	MaxAge     int    `yaml:"max_age" json:"max_age"`
	Compress   bool   `yaml:"compress" json:"compress"`
}

// DefaultConfig returns a Config instance with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		API: APIConfig{
			BaseURL:   "https://e621.net",
			UserAgent: DefaultUserAgent,
		},
		RateLimit: RateLimitConfig{
			Policy:            PolicyInterval,
			RequestInterval:   1500 * time.Millisecond,
			RequestsPerWindow: 40,
			Window:            time.Minute,
		},
		Output: OutputConfig{
			MetadataDir: "metadata",
		},
		Download: DownloadConfig{
			Workers: 1,
		},
		Logging: LoggingConfig{
			Level:      "info",
			Format:     "text",
			MaxSize:    100,
			MaxBackups: 3,
			MaxAge:     7,
		},
	}
}

// MetadataDirectory returns the absolute-or-relative metadata root. A relative
// metadata_dir is resolved under the output directory.
func (c *Config) MetadataDirectory() string {
	if filepath.IsAbs(c.Output.MetadataDir) {
		return c.Output.MetadataDir
	}
	return filepath.Join(c.Output.Directory, c.Output.MetadataDir)
}

// LoadFromEnv loads configuration from environment variables
func (c *Config) LoadFromEnv() error {
	if baseURL := os.Getenv("FAVARCHIVE_API_BASE_URL"); baseURL != "" {
		c.API.BaseURL = baseURL
	}
	if userAgent := os.Getenv("FAVARCHIVE_USER_AGENT"); userAgent != "" {
		c.API.UserAgent = userAgent
	}

	if interval := os.Getenv("FAVARCHIVE_REQUEST_INTERVAL"); interval != "" {
		d, err := time.ParseDuration(interval)
		if err != nil {
			return fmt.Errorf("invalid FAVARCHIVE_REQUEST_INTERVAL: %w", err)
		}
		c.RateLimit.RequestInterval = d
	}

	if outputDir := os.Getenv("FAVARCHIVE_OUTPUT_DIR"); outputDir != "" {
		c.Output.Directory = outputDir
	}

	if workers := os.Getenv("FAVARCHIVE_WORKERS"); workers != "" {
		val, err := strconv.Atoi(workers)
		if err != nil {
			return fmt.Errorf("invalid FAVARCHIVE_WORKERS: %w", err)
		}
		if val > 0 {
			c.Download.Workers = val
		}
	}

	if logLevel := os.Getenv("FAVARCHIVE_LOG_LEVEL"); logLevel != "" {
		c.Logging.Level = logLevel
	}
	if logFile := os.Getenv("FAVARCHIVE_LOG_FILE"); logFile != "" {
		c.Logging.File = logFile
	}

	return nil
}

// LoadFromFile loads configuration from a YAML file
func (c *Config) LoadFromFile(path string) error {
	// If path is empty, try default locations
	if path == "" {
		path = FindConfigFile()
		if path == "" {
			return nil // No config file found, not an error
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}

	return nil
}

// FindConfigFile searches for a config file in standard locations
func FindConfigFile() string {
	home := os.Getenv("HOME")
	locations := []string{
		".favarchive.yaml",
		".favarchive.yml",
		filepath.Join(home, ".config", "favarchive", "config.yaml"),
		filepath.Join(home, ".config", "favarchive", "config.yml"),
		filepath.Join(home, ".favarchive.yaml"),
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

	if c.API.BaseURL == "" {
		errs = append(errs, errors.New("api base URL is required"))
	} else if !strings.HasPrefix(c.API.BaseURL, "http://") && !strings.HasPrefix(c.API.BaseURL, "https://") {
		errs = append(errs, errors.New("api base URL must start with http:// or https://"))
	}
	if c.API.UserAgent == "" {
		errs = append(errs, errors.New("user agent is required"))
	}
	if c.API.Timeout < 0 {
		errs = append(errs, errors.New("api timeout cannot be negative"))
	}

	switch c.RateLimit.Policy {
	case PolicyInterval:
		if c.RateLimit.RequestInterval < 0 {
			errs = append(errs, errors.New("request interval cannot be negative"))
		}
	case PolicySlidingWindow, PolicyTokenBucket:
		if c.RateLimit.RequestsPerWindow <= 0 {
			errs = append(errs, errors.New("requests per window must be positive"))
		}
		if c.RateLimit.Window <= 0 {
			errs = append(errs, errors.New("rate limit window must be positive"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown rate limit policy %q", c.RateLimit.Policy))
	}

	if c.Output.Directory == "" {
		errs = append(errs, errors.New("output directory is required"))
	}
	if c.Output.MetadataDir == "" {
		errs = append(errs, errors.New("metadata directory is required"))
	}

	if c.Download.Workers <= 0 {
		errs = append(errs, errors.New("workers must be positive"))
	}
	if c.Download.Workers > 4 {
		errs = append(errs, errors.New("workers should not exceed 4"))
	}

	validLogLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true, "disabled": true,
	}
	if !validLogLevels[strings.ToLower(c.Logging.Level)] {
		errs = append(errs, errors.New("invalid log level"))
	}
	if f := strings.ToLower(c.Logging.Format); f != "text" && f != "json" {
		errs = append(errs, errors.New("log format must be text or json"))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	return nil
}

// Save saves the configuration to a file
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// MergeCommandLineFlags merges command line flags into the configuration
func (c *Config) MergeCommandLineFlags(flags map[string]interface{}) {
	if dir, ok := flags["directory"].(string); ok && dir != "" {
		c.Output.Directory = dir
	}
	if baseURL, ok := flags["api-url"].(string); ok && baseURL != "" {
		c.API.BaseURL = baseURL
	}
	if workers, ok := flags["workers"].(int); ok && workers > 0 {
		c.Download.Workers = workers
	}
	if interval, ok := flags["request-interval"].(time.Duration); ok && interval > 0 {
		c.RateLimit.RequestInterval = interval
	}
	if logLevel, ok := flags["log-level"].(string); ok && logLevel != "" {
		c.Logging.Level = logLevel
	}
}

// Load loads configuration from all sources with proper precedence
// Precedence order: Command line flags > Environment variables > .env file > Config file > Defaults
func Load(configPath string, flags map[string]interface{}) (*Config, error) {
	// Try to load .env files (don't fail if they don't exist)
	_ = godotenv.Load(".env")
	_ = godotenv.Load(filepath.Join(os.Getenv("HOME"), ".favarchive.env"))

	config := DefaultConfig()

	if err := config.LoadFromFile(configPath); err != nil {
		return nil, fmt.Errorf("failed to load config file: %w", err)
	}

	if err := config.LoadFromEnv(); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	config.MergeCommandLineFlags(flags)

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}
