package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Retriever RetrieverConfig `mapstructure:"retriever"`
	Cache     CacheConfig     `mapstructure:"cache"`
	Display   DisplayConfig   `mapstructure:"display"`
	Debug     bool            `mapstructure:"debug"`
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	Port           string   `mapstructure:"port"`
	Environment    string   `mapstructure:"environment"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// RetrieverConfig holds retrieval backend configuration
type RetrieverConfig struct {
	BaseURL       string        `mapstructure:"base_url"`
	APIKey        string        `mapstructure:"api_key"`
	Timeout       time.Duration `mapstructure:"timeout"`
	TopK          int           `mapstructure:"top_k"`
	RatePerSecond float64       `mapstructure:"rate_per_second"`
	Burst         int           `mapstructure:"burst"`
	MaxRetries    int           `mapstructure:"max_retries"`
}

// CacheConfig holds cache-related configuration
type CacheConfig struct {
	Type string        `mapstructure:"type"` // only "memory" is supported
	TTL  time.Duration `mapstructure:"ttl"`
}

// DisplayConfig holds presentation settings
type DisplayConfig struct {
	ImageDir    string `mapstructure:"image_dir"`
	ProductURL  string `mapstructure:"product_url"`
	Placeholder string `mapstructure:"placeholder"`
}

// Load loads configuration from environment variables and config files
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/productrec/")

	// PRODUCTREC_RETRIEVER_BASE_URL -> retriever.base_url
	v.SetEnvPrefix("PRODUCTREC")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	// Config file is optional
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	if err := validate(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// setDefaults sets default configuration values.
// Every key needs a default so AutomaticEnv can override it during Unmarshal.
func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.environment", "development")
	v.SetDefault("server.allowed_origins", []string{"http://localhost:8501"})

	v.SetDefault("retriever.base_url", "")
	v.SetDefault("retriever.api_key", "")
	v.SetDefault("retriever.timeout", "30s")
	v.SetDefault("retriever.top_k", 1)
	v.SetDefault("retriever.rate_per_second", 1.0)
	v.SetDefault("retriever.burst", 5)
	v.SetDefault("retriever.max_retries", 3)

	v.SetDefault("cache.type", "memory")
	v.SetDefault("cache.ttl", "1h")

	v.SetDefault("display.image_dir", "images/products")
	v.SetDefault("display.product_url", "https://google.com")
	v.SetDefault("display.placeholder", "—")

	v.SetDefault("debug", false)
}

// validate validates the configuration
func validate(config *Config) error {
	if config.Retriever.BaseURL == "" {
		return fmt.Errorf("retriever base URL is required (set PRODUCTREC_RETRIEVER_BASE_URL)")
	}

	if config.Retriever.TopK < 1 {
		return fmt.Errorf("retriever top_k must be at least 1, got: %d", config.Retriever.TopK)
	}

	if config.Retriever.MaxRetries < 1 || config.Retriever.MaxRetries > 10 {
		return fmt.Errorf("retriever max_retries must be between 1 and 10, got: %d", config.Retriever.MaxRetries)
	}

	if config.Cache.Type != "memory" {
		return fmt.Errorf("cache type must be 'memory', got: %s", config.Cache.Type)
	}

	if config.Cache.TTL <= 0 {
		return fmt.Errorf("cache TTL must be positive, got: %s", config.Cache.TTL)
	}

	return nil
}
