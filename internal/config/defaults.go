package config

// NewDefaultConfig creates a configuration with default values.
func NewDefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port: 4311,
			Host: "localhost",
		},
		Upstream: UpstreamConfig{
			URL:            "http://localhost:4312",
			ArchiveURL:     "",
			Timeout:        "10s",
			StatusInterval: "30s",
			DefaultLang:    "pl",
		},
		Cache: CacheConfig{
			TTL:          "60s",
			DefaultLimit: 60,
			ArchiveLimit: 250,
		},
		Stream: StreamConfig{
			InitialBackoffMs: 2000,
			MaxBackoffMs:     30000,
		},
		Ranking: RankingConfig{
			FavoriteSourceBoost: 5,
			FavoriteScoreFactor: 1.5,
			FeaturedSourceFloor: 15,
			SeasonalWindowStart: "2026-02-06T00:00:00Z",
			SeasonalWindowEnd:   "2026-02-23T00:00:00Z",
		},
		Logging: LoggingConfig{
			Level:    "info",
			FilePath: "logs/kurator.log",
		},
	}
}
