package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/rjgems/backend/internal/domain"
	"github.com/spf13/viper"
	"github.com/subosito/gotenv"
)

// Config holds all configuration for the application
type Config struct {
	Server    ServerConfig
	LLM       LLMConfig
	Catalog   CatalogConfig
	Cache     CacheConfig
	RateLimit RateLimitConfig
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	Port           string   `mapstructure:"port"`
	Environment    string   `mapstructure:"environment"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// LLMConfig selects and configures the generative text provider
type LLMConfig struct {
	Provider    string        `mapstructure:"provider"` // "gemini" or "openai"
	APIKey      string        `mapstructure:"api_key"`
	BaseURL     string        `mapstructure:"base_url"`
	Model       string        `mapstructure:"model"`
	Timeout     time.Duration `mapstructure:"timeout"`
	Temperature float32       `mapstructure:"temperature"`
	MaxTokens   int32         `mapstructure:"max_tokens"`
	RetryOnce   bool          `mapstructure:"retry_once"`
}

// CatalogConfig holds catalog store configuration
type CatalogConfig struct {
	Driver       string `mapstructure:"driver"` // "sqlite" or "memory"
	DataDir      string `mapstructure:"data_dir"`
	SeedOnStart  bool   `mapstructure:"seed_on_start"`
	SnapshotSize int    `mapstructure:"snapshot_size"`
}

// CacheConfig holds cache-related configuration
type CacheConfig struct {
	Type     string        `mapstructure:"type"` // "memory" or "redis"
	RedisURL string        `mapstructure:"redis_url"`
	TTL      time.Duration `mapstructure:"ttl"`
}

// RateLimitConfig holds rate limiting configuration
type RateLimitConfig struct {
	PerIP int `mapstructure:"per_ip"` // requests per minute per client IP
	LLM   int `mapstructure:"llm"`    // upstream model calls per minute
}

// Load loads configuration from environment variables and config files
func Load() (*Config, error) {
	if err := loadEnvFile(); err != nil {
		return nil, fmt.Errorf("error reading .env file: %w", err)
	}

	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/rjgems/")

	// RJGEMS_LLM_API_KEY -> llm.api_key
	v.SetEnvPrefix("RJGEMS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	// Provider-native variable names are accepted as well
	if err := v.BindEnv("llm.api_key", "RJGEMS_LLM_API_KEY", "GEMINI_API_KEY", "OPENAI_API_KEY"); err != nil {
		return nil, fmt.Errorf("binding api key env: %w", err)
	}

	// Read config file (optional - env vars and defaults are enough)
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

	if err := validate(&config); err != nil {
		return nil, err
	}

	return &config, nil
}

// loadEnvFile exports variables from ./.env without overriding ones already set.
// A missing file is not an error.
func loadEnvFile() error {
	err := gotenv.Load(".env")
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

// setDefaults sets default configuration values.
// Every key gets a default so AutomaticEnv can see it during Unmarshal.
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.port", "5000")
	v.SetDefault("server.environment", "development")
	v.SetDefault("server.allowed_origins", []string{"http://localhost:5173"})

	// LLM defaults
	v.SetDefault("llm.provider", "gemini")
	v.SetDefault("llm.api_key", "")
	v.SetDefault("llm.base_url", "")
	v.SetDefault("llm.model", "")
	v.SetDefault("llm.timeout", "20s")
	v.SetDefault("llm.temperature", 0.4)
	v.SetDefault("llm.max_tokens", 1024)
	v.SetDefault("llm.retry_once", false)

	// Catalog defaults
	v.SetDefault("catalog.driver", "sqlite")
	v.SetDefault("catalog.data_dir", "./data")
	v.SetDefault("catalog.seed_on_start", true)
	v.SetDefault("catalog.snapshot_size", 50)

	// Cache defaults
	v.SetDefault("cache.type", "memory")
	v.SetDefault("cache.redis_url", "")
	v.SetDefault("cache.ttl", "5m")

	// Rate limit defaults
	v.SetDefault("ratelimit.per_ip", 120)
	v.SetDefault("ratelimit.llm", 60)
}

// validate validates the configuration. All failures wrap domain.ErrConfig.
func validate(config *Config) error {
	if config.LLM.Provider != "gemini" && config.LLM.Provider != "openai" {
		return fmt.Errorf("%w: llm provider must be 'gemini' or 'openai', got: %s", domain.ErrConfig, config.LLM.Provider)
	}

	if config.LLM.APIKey == "" {
		return fmt.Errorf("%w: LLM API key is required (set RJGEMS_LLM_API_KEY)", domain.ErrConfig)
	}

	if config.LLM.Timeout <= 0 {
		return fmt.Errorf("%w: llm timeout must be positive", domain.ErrConfig)
	}

	if config.Catalog.Driver != "sqlite" && config.Catalog.Driver != "memory" {
		return fmt.Errorf("%w: catalog driver must be 'sqlite' or 'memory', got: %s", domain.ErrConfig, config.Catalog.Driver)
	}

	if config.Catalog.SnapshotSize <= 0 {
		return fmt.Errorf("%w: catalog snapshot size must be positive", domain.ErrConfig)
	}

	if config.Cache.Type != "memory" && config.Cache.Type != "redis" {
		return fmt.Errorf("%w: cache type must be 'memory' or 'redis', got: %s", domain.ErrConfig, config.Cache.Type)
	}

	if config.Cache.Type == "redis" && config.Cache.RedisURL == "" {
		return fmt.Errorf("%w: Redis URL is required when cache type is 'redis'", domain.ErrConfig)
	}

	return nil
}
