package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Config is the full runtime configuration. Values come from config.yaml in
// the working directory when present, overridden by MATCH_* environment
// variables. The price and quantity scales are fixed per process; changing
// them invalidates any resting book.
type Config struct {
	HTTPAddr      string        `mapstructure:"http_addr"`
	Symbol        string        `mapstructure:"symbol"`
	PriceScale    int32         `mapstructure:"price_scale"`
	QuantityScale int32         `mapstructure:"quantity_scale"`
	DepthLimit    int           `mapstructure:"depth_limit"`
	PostgresDSN   string        `mapstructure:"postgres_dsn"`
	RedisAddr     string        `mapstructure:"redis_addr"`
	RedisPassword string        `mapstructure:"redis_password"`
	RedisDB       int           `mapstructure:"redis_db"`
	CacheTTL      time.Duration `mapstructure:"cache_ttl"`
	JournalBuffer int           `mapstructure:"journal_buffer"`
	RateLimit     time.Duration `mapstructure:"rate_limit"`
	RateBurst     int           `mapstructure:"rate_burst"`
	Debug         bool          `mapstructure:"debug"`
}

func Load() (*Config, error) {
	v := viper.New()
	v.SetDefault("http_addr", ":8080")
	v.SetDefault("symbol", "DEFAULT")
	v.SetDefault("price_scale", 2)
	v.SetDefault("quantity_scale", 0)
	v.SetDefault("depth_limit", 10)
	v.SetDefault("postgres_dsn", "")
	v.SetDefault("redis_addr", "")
	v.SetDefault("redis_password", "")
	v.SetDefault("redis_db", 0)
	v.SetDefault("cache_ttl", 500*time.Millisecond)
	v.SetDefault("journal_buffer", 4096)
	v.SetDefault("rate_limit", 0)
	v.SetDefault("rate_burst", 1)
	v.SetDefault("debug", false)

	v.SetEnvPrefix("MATCH")
	v.AutomaticEnv()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("config: read: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config: unmarshal: %w", err)
	}
	if cfg.PriceScale < 0 || cfg.QuantityScale < 0 {
		return nil, fmt.Errorf("config: scales must be non-negative")
	}
	return &cfg, nil
}
