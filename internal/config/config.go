package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds the application configuration loaded from files and environment variables.
type Config struct {
	AppName  string `mapstructure:"app_name"`
	Env      string `mapstructure:"app_env"`
	LogLevel string `mapstructure:"log_level"`
	HTTPAddr string `mapstructure:"http_addr"`

	NewsAPIBaseURL   string `mapstructure:"news_api_base_url"`
	NewsAPIAccessKey string `mapstructure:"news_api_access_key"`
	NewsLanguage     string `mapstructure:"news_language"`
	PageLimit        int    `mapstructure:"page_limit"`
	OlderOffset      int    `mapstructure:"older_offset"`
	CategoriesFile   string `mapstructure:"categories_file"`
	PublishersFile   string `mapstructure:"publishers_file"`

	StorageType string `mapstructure:"storage_type"`
	BBoltPath   string `mapstructure:"bbolt_path"`
	SQLitePath  string `mapstructure:"sqlite_path"`
	IDScheme    string `mapstructure:"id_scheme"`

	HTTPTimeoutSeconds   int64         `mapstructure:"http_timeout_seconds"`
	HTTPTimeout          time.Duration `mapstructure:"-"`
	ListingWaitMs        int64         `mapstructure:"listing_wait_ms"`
	ListingWait          time.Duration `mapstructure:"-"`
	FetchConcurrency     int           `mapstructure:"fetch_concurrency"`
	SuggestionLimit      int           `mapstructure:"suggestion_limit"`
	ShareFallbackURL     string        `mapstructure:"share_fallback_url"`
	PrefetchIntervalSecs int64         `mapstructure:"prefetch_interval"`
	PrefetchInterval     time.Duration `mapstructure:"-"`
}

// StoragePath returns the file path relevant to the configured storage type.
func (c *Config) StoragePath() string {
	switch strings.ToLower(strings.TrimSpace(c.StorageType)) {
	case "sqlite":
		return c.SQLitePath
	case "bbolt":
		return c.BBoltPath
	default:
		return ""
	}
}

// Load reads configuration from environment variables and config files.
func Load() (*Config, error) {
	_ = godotenv.Load("configs/.env")

	v := viper.New()

	v.SetDefault("app_name", "PulseNews")
	v.SetDefault("app_env", "development")
	v.SetDefault("log_level", "info")
	v.SetDefault("http_addr", "127.0.0.1:8080")
	v.SetDefault("news_api_base_url", "https://api.mediastack.com/v1")
	v.SetDefault("news_api_access_key", "")
	v.SetDefault("news_language", "en")
	v.SetDefault("page_limit", 12)
	v.SetDefault("older_offset", 30)
	v.SetDefault("categories_file", "")
	v.SetDefault("publishers_file", "")
	v.SetDefault("storage_type", "bbolt")
	v.SetDefault("bbolt_path", "./data/pulse.db")
	v.SetDefault("sqlite_path", "./data/pulse.sqlite")
	v.SetDefault("id_scheme", "rolling")
	v.SetDefault("http_timeout_seconds", 15)
	v.SetDefault("listing_wait_ms", 8000)
	v.SetDefault("fetch_concurrency", 4)
	v.SetDefault("suggestion_limit", 6)
	v.SetDefault("share_fallback_url", "https://www.facebook.com/sharer/sharer.php?u=%s")
	v.SetDefault("prefetch_interval", 0) // seconds, 0 disables

	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.normalize(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) normalize() error {
	if c.PageLimit <= 0 {
		return fmt.Errorf("invalid page_limit (must be positive)")
	}
	if c.OlderOffset <= 0 {
		return fmt.Errorf("invalid older_offset (must be positive)")
	}
	if c.HTTPTimeoutSeconds <= 0 {
		return fmt.Errorf("invalid http_timeout_seconds (must be positive seconds)")
	}
	if c.ListingWaitMs <= 0 {
		return fmt.Errorf("invalid listing_wait_ms (must be positive milliseconds)")
	}
	if c.FetchConcurrency <= 0 {
		return fmt.Errorf("invalid fetch_concurrency (must be positive)")
	}
	if c.SuggestionLimit < 0 {
		return fmt.Errorf("invalid suggestion_limit (must not be negative)")
	}
	if c.PrefetchIntervalSecs < 0 {
		return fmt.Errorf("invalid prefetch_interval (must not be negative)")
	}

	c.IDScheme = strings.ToLower(strings.TrimSpace(c.IDScheme))
	switch c.IDScheme {
	case "rolling", "sha1":
	default:
		return fmt.Errorf("unsupported id_scheme %q", c.IDScheme)
	}
	if !strings.Contains(c.ShareFallbackURL, "%s") {
		return fmt.Errorf("share_fallback_url must contain a %%s placeholder")
	}

	c.HTTPTimeout = time.Duration(c.HTTPTimeoutSeconds) * time.Second
	c.ListingWait = time.Duration(c.ListingWaitMs) * time.Millisecond
	c.PrefetchInterval = time.Duration(c.PrefetchIntervalSecs) * time.Second
	return nil
}
