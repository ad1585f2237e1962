package config

import (
	"errors"
	"fmt"

	"github.com/spf13/viper"
)

// Storage backend selectors.
const (
	BackendMemory   = "memory"
	BackendFile     = "file"
	BackendRedis    = "redis"
	BackendPostgres = "postgres"
)

// Config carries everything the server needs; values come from an
// optional app.env file with environment variables taking precedence.
type Config struct {
	ServerPort      string `mapstructure:"SERVER_PORT"`
	SeedBaseURL     string `mapstructure:"SEED_BASE_URL"`
	StorageBackend  string `mapstructure:"STORAGE_BACKEND"`
	StorageDir      string `mapstructure:"STORAGE_DIR"`
	RedisAddr       string `mapstructure:"REDIS_ADDR"`
	RedisPrefix     string `mapstructure:"REDIS_PREFIX"`
	PostgresURL     string `mapstructure:"POSTGRES_URL"`
	AdminEmail      string `mapstructure:"ADMIN_EMAIL"`
	AdminPassword   string `mapstructure:"ADMIN_PASSWORD"`
	MaxCartQuantity int    `mapstructure:"MAX_CART_QUANTITY"`
}

// Load reads ./app.env when present and applies env overrides.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.AddConfigPath(path)
	v.SetConfigName("app")
	v.SetConfigType("env")
	v.AutomaticEnv()

	v.SetDefault("SERVER_PORT", "8080")
	v.SetDefault("SEED_BASE_URL", "")
	v.SetDefault("STORAGE_BACKEND", BackendFile)
	v.SetDefault("STORAGE_DIR", "./data")
	v.SetDefault("REDIS_ADDR", "localhost:6379")
	v.SetDefault("REDIS_PREFIX", "travelstore")
	v.SetDefault("POSTGRES_URL", "")
	v.SetDefault("ADMIN_EMAIL", "admin@local")
	v.SetDefault("ADMIN_PASSWORD", "admin123")
	v.SetDefault("MAX_CART_QUANTITY", 10)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	switch cfg.StorageBackend {
	case BackendMemory, BackendFile, BackendRedis, BackendPostgres:
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.StorageBackend)
	}

	return &cfg, nil
}
