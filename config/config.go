package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/dealscope/backend/internal/pkg/logging"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Cache     CacheConfig     `mapstructure:"cache"`
	RateLimit RateLimitConfig `mapstructure:"ratelimit"`
	Scraper   ScraperConfig   `mapstructure:"scraper"`
	Scheduler SchedulerConfig `mapstructure:"scheduler"`
	Log       LogConfig       `mapstructure:"log"`
	Seed      SeedConfig      `mapstructure:"seed"`
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	Port           string   `mapstructure:"port"`
	Environment    string   `mapstructure:"environment"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// DatabaseConfig holds the catalog store location. An empty path keeps
// everything in memory.
type DatabaseConfig struct {
	SQLitePath string `mapstructure:"sqlite_path"`
}

// CacheConfig holds cache-related configuration
type CacheConfig struct {
	Type      string        `mapstructure:"type"`
	TTL       time.Duration `mapstructure:"ttl"`
	DetailTTL time.Duration `mapstructure:"detail_ttl"`
}

// RateLimitConfig holds rate limiting configuration
type RateLimitConfig struct {
	PerIP   int `mapstructure:"per_ip"`  // requests per minute
	Scraper int `mapstructure:"scraper"` // page fetches per hour
}

// ScraperConfig holds the listing scraper settings. Scraping is disabled
// while BaseURL is empty.
type ScraperConfig struct {
	BaseURL   string `mapstructure:"base_url"`
	UserAgent string `mapstructure:"user_agent"`
	Pages     int    `mapstructure:"pages"`
}

// SchedulerConfig holds the background job schedules
type SchedulerConfig struct {
	Enabled           bool    `mapstructure:"enabled"`
	DropAlertCron     string  `mapstructure:"drop_alert_cron"`
	CategoryStatsCron string  `mapstructure:"category_stats_cron"`
	DropAlertMinPct   float64 `mapstructure:"drop_alert_min_pct"`
	DropAlertHours    int     `mapstructure:"drop_alert_hours"`
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level string `mapstructure:"level"`
}

// SeedConfig points at an optional YAML catalog loaded into an empty store
type SeedConfig struct {
	File string `mapstructure:"file"`
}

// Load loads configuration from environment variables and config files
func Load() (*Config, error) {
	if err := loadEnvFile(); err != nil {
		return nil, err
	}

	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/dealscope/")

	v.SetEnvPrefix("DEALSCOPE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	// Config file is optional
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}
	config.Server.AllowedOrigins = splitList(config.Server.AllowedOrigins)

	if err := validate(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// loadEnvFile loads .env from the working directory when present.
// Variables already set in the environment win.
func loadEnvFile() error {
	if _, err := os.Stat(".env"); errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err := godotenv.Load(".env"); err != nil {
		return fmt.Errorf("error loading .env file: %w", err)
	}
	return nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.environment", "development")
	v.SetDefault("server.allowed_origins", []string{"chrome-extension://*", "http://localhost:3000"})

	v.SetDefault("database.sqlite_path", "")

	v.SetDefault("cache.type", "memory")
	v.SetDefault("cache.ttl", "15m")
	v.SetDefault("cache.detail_ttl", "1h")

	v.SetDefault("ratelimit.per_ip", 100)
	v.SetDefault("ratelimit.scraper", 1000)

	v.SetDefault("scraper.base_url", "")
	v.SetDefault("scraper.user_agent", "")
	v.SetDefault("scraper.pages", 1)

	v.SetDefault("scheduler.enabled", true)
	v.SetDefault("scheduler.drop_alert_cron", "0 */30 * * * *")
	v.SetDefault("scheduler.category_stats_cron", "0 0 * * * *")
	v.SetDefault("scheduler.drop_alert_min_pct", 10)
	v.SetDefault("scheduler.drop_alert_hours", 24)

	v.SetDefault("log.level", "info")

	v.SetDefault("seed.file", "")
}

// splitList lets env vars pass lists as comma separated strings
func splitList(values []string) []string {
	var out []string
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

// validate validates the configuration
func validate(config *Config) error {
	if config.Cache.Type != "memory" {
		return fmt.Errorf("cache type must be 'memory', got: %s", config.Cache.Type)
	}
	if config.Cache.TTL <= 0 || config.Cache.DetailTTL <= 0 {
		return fmt.Errorf("cache TTLs must be positive")
	}

	if _, err := logging.ParseLevel(config.Log.Level); err != nil {
		return err
	}

	if config.RateLimit.PerIP <= 0 {
		return fmt.Errorf("ratelimit.per_ip must be positive, got: %d", config.RateLimit.PerIP)
	}
	if config.RateLimit.Scraper <= 0 {
		return fmt.Errorf("ratelimit.scraper must be positive, got: %d", config.RateLimit.Scraper)
	}

	if config.Scraper.Pages < 1 || config.Scraper.Pages > 20 {
		return fmt.Errorf("scraper.pages must be between 1 and 20, got: %d", config.Scraper.Pages)
	}

	if config.Scheduler.DropAlertMinPct <= 0 || config.Scheduler.DropAlertMinPct > 100 {
		return fmt.Errorf("scheduler.drop_alert_min_pct must be in (0, 100], got: %v", config.Scheduler.DropAlertMinPct)
	}
	if config.Scheduler.DropAlertHours <= 0 {
		return fmt.Errorf("scheduler.drop_alert_hours must be positive, got: %d", config.Scheduler.DropAlertHours)
	}

	return nil
}
