// Package config loads Kurator configuration from TOML files, KURATOR_*
// environment variables, and CLI flags, in that priority order.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// Config represents the application configuration.
type Config struct {
	Server   ServerConfig   `toml:"server"`
	Upstream UpstreamConfig `toml:"upstream"`
	Cache    CacheConfig    `toml:"cache"`
	Stream   StreamConfig   `toml:"stream"`
	Ranking  RankingConfig  `toml:"ranking"`
	Logging  LoggingConfig  `toml:"logging"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Port int    `toml:"port"`
	Host string `toml:"host"`
}

// UpstreamConfig contains event engine endpoint settings.
type UpstreamConfig struct {
	URL            string `toml:"url"`
	ArchiveURL     string `toml:"archive_url"`     // empty = same as URL
	Timeout        string `toml:"timeout"`         // per-request timeout
	StatusInterval string `toml:"status_interval"` // engine status poll interval
	DefaultLang    string `toml:"default_lang"`
}

// GetTimeout parses and returns the request timeout duration.
func (c *UpstreamConfig) GetTimeout() time.Duration {
	d, err := time.ParseDuration(c.Timeout)
	if err != nil {
		return 10 * time.Second
	}
	return d
}

// GetStatusInterval parses and returns the status poll interval.
func (c *UpstreamConfig) GetStatusInterval() time.Duration {
	d, err := time.ParseDuration(c.StatusInterval)
	if err != nil {
		return 30 * time.Second
	}
	return d
}

// CacheConfig contains event cache settings.
type CacheConfig struct {
	TTL          string `toml:"ttl"`
	DefaultLimit int    `toml:"default_limit"`
	ArchiveLimit int    `toml:"archive_limit"`
}

// GetTTL parses and returns the cache entry TTL.
func (c *CacheConfig) GetTTL() time.Duration {
	d, err := time.ParseDuration(c.TTL)
	if err != nil {
		return 60 * time.Second
	}
	return d
}

// StreamConfig contains live stream reconnect settings.
type StreamConfig struct {
	InitialBackoffMs int `toml:"initial_backoff_ms"`
	MaxBackoffMs     int `toml:"max_backoff_ms"`
}

// RankingConfig contains allocation engine tuning.
type RankingConfig struct {
	FavoriteSourceBoost int     `toml:"favorite_source_boost"`
	FavoriteScoreFactor float64 `toml:"favorite_score_factor"`
	FeaturedSourceFloor int     `toml:"featured_source_floor"`
	SeasonalWindowStart string  `toml:"seasonal_window_start"` // RFC 3339
	SeasonalWindowEnd   string  `toml:"seasonal_window_end"`
}

// SeasonalWindow parses the configured seasonal window. Zero times are
// returned when a bound is unset or unparsable, which disables it.
func (c *RankingConfig) SeasonalWindow() (start, end time.Time) {
	start, _ = time.Parse(time.RFC3339, c.SeasonalWindowStart)
	end, _ = time.Parse(time.RFC3339, c.SeasonalWindowEnd)
	return start, end
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	Level      string `toml:"level"`
	FilePath   string `toml:"file_path"`
	MaxSizeMB  int    `toml:"max_size_mb"`
	MaxBackups int    `toml:"max_backups"`
}

// LoadFromFile loads configuration with priority: defaults -> file -> env.
func LoadFromFile(path string) (*Config, error) {
	if path == "" {
		return LoadFromFiles()
	}
	return LoadFromFiles(path)
}

// LoadFromFiles loads configuration from multiple files with priority:
// defaults -> file1 -> file2 -> ... -> env.
// Later files override earlier files.
func LoadFromFiles(paths ...string) (*Config, error) {
	config := NewDefaultConfig()

	for i, path := range paths {
		if path == "" {
			continue
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}

		err = toml.Unmarshal(data, config)
		if err != nil {
			return nil, fmt.Errorf("failed to parse config file %s (file %d of %d): %w", path, i+1, len(paths), err)
		}
	}

	applyEnvOverrides(config)

	return config, nil
}

// applyEnvOverrides applies KURATOR_* environment variable overrides to config.
func applyEnvOverrides(config *Config) {
	if port := os.Getenv("KURATOR_SERVER_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			config.Server.Port = p
		}
	}
	if host := os.Getenv("KURATOR_SERVER_HOST"); host != "" {
		config.Server.Host = host
	}
	if u := os.Getenv("KURATOR_UPSTREAM_URL"); u != "" {
		config.Upstream.URL = u
	}
	if u := os.Getenv("KURATOR_ARCHIVE_URL"); u != "" {
		config.Upstream.ArchiveURL = u
	}
	if lang := os.Getenv("KURATOR_DEFAULT_LANG"); lang != "" {
		config.Upstream.DefaultLang = lang
	}
	if ttl := os.Getenv("KURATOR_CACHE_TTL"); ttl != "" {
		config.Cache.TTL = ttl
	}
	if level := os.Getenv("KURATOR_LOG_LEVEL"); level != "" {
		config.Logging.Level = level
	}
	if path := os.Getenv("KURATOR_LOG_FILE"); path != "" {
		config.Logging.FilePath = path
	}
}

// ApplyFlagOverrides applies command-line flag overrides to config.
func ApplyFlagOverrides(config *Config, port int, host string) {
	if port > 0 {
		config.Server.Port = port
	}
	if host != "" {
		config.Server.Host = host
	}
}

// Validate checks mandatory fields and returns human-readable issues.
func (c *Config) Validate() []string {
	var issues []string
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		issues = append(issues, fmt.Sprintf("server.port must be 1-65535, got %d", c.Server.Port))
	}
	if c.Upstream.URL == "" {
		issues = append(issues, "upstream.url is required (KURATOR_UPSTREAM_URL)")
	}
	if c.Cache.DefaultLimit <= 0 {
		issues = append(issues, "cache.default_limit must be positive")
	}
	if c.Cache.ArchiveLimit < c.Cache.DefaultLimit {
		issues = append(issues, "cache.archive_limit must be at least cache.default_limit")
	}
	return issues
}
