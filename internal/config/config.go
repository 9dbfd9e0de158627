// Package config provides application configuration loading and management.
package config

import (
	"errors"
	"fmt"
	"log"

	"github.com/spf13/viper"
)

// Config holds application configuration values loaded from file or environment variables.
type Config struct {
	Port      string `mapstructure:"PORT"`
	JWTSecret string `mapstructure:"JWT_SECRET"`
	Env       string `mapstructure:"APP_ENV"`

	// StoreBackend selects the store adapter: memory, redis, or gorm.
	StoreBackend string `mapstructure:"STORE_BACKEND"`
	RedisURL     string `mapstructure:"REDIS_URL"`
	// DBDriver is sqlite or postgres; only used by the gorm backend.
	DBDriver string `mapstructure:"DB_DRIVER"`
	DBDSN    string `mapstructure:"DB_DSN"`

	AllowedOrigins string `mapstructure:"ALLOWED_ORIGINS"`

	// FeatureFlags is a comma-separated flag list, e.g. "new_feed=25%".
	FeatureFlags string `mapstructure:"FEATURE_FLAGS"`

	TracingEnabled  bool   `mapstructure:"TRACING_ENABLED"`
	TracingExporter string `mapstructure:"TRACING_EXPORTER"`
	OTLPEndpoint    string `mapstructure:"OTLP_ENDPOINT"`
}

// LoadConfig loads application configuration from file and environment variables.
func LoadConfig() (*Config, error) {
	viper.AddConfigPath(".")
	viper.AddConfigPath("..")
	viper.SetConfigName("config")
	viper.SetConfigType("yml")
	viper.AutomaticEnv()

	// The base config file is optional; environment variables and
	// defaults cover development.
	_ = viper.ReadInConfig()

	env := viper.GetString("APP_ENV")
	if env == "" {
		env = "development"
	}
	if env != "development" {
		viper.SetConfigName("config." + env)
		if err := viper.MergeInConfig(); err != nil {
			return nil, fmt.Errorf("required profile-specific config 'config.%s.yml' not found: %w", env, err)
		}
		log.Printf("Loaded profile-specific configuration: config.%s.yml", env)
	}

	viper.SetDefault("PORT", "8480")
	viper.SetDefault("JWT_SECRET", "your-secret-key-change-in-production")
	viper.SetDefault("APP_ENV", "development")
	viper.SetDefault("STORE_BACKEND", "memory")
	viper.SetDefault("REDIS_URL", "localhost:6379")
	viper.SetDefault("DB_DRIVER", "sqlite")
	viper.SetDefault("DB_DSN", "ripple.db")
	viper.SetDefault("ALLOWED_ORIGINS", "http://localhost:5173,http://localhost:3000")
	viper.SetDefault("FEATURE_FLAGS", "")
	viper.SetDefault("TRACING_ENABLED", false)
	viper.SetDefault("TRACING_EXPORTER", "stdout")
	viper.SetDefault("OTLP_ENDPOINT", "localhost:4318")

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config into struct: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &config, nil
}

// Validate ensures that required configuration values are present and meet security standards.
func (c *Config) Validate() error {
	if c.Port == "" {
		return errors.New("PORT is required")
	}
	if c.JWTSecret == "" {
		return errors.New("JWT_SECRET is required")
	}

	switch c.StoreBackend {
	case "memory", "redis", "gorm":
	default:
		return fmt.Errorf("unknown STORE_BACKEND %q (want memory, redis, or gorm)", c.StoreBackend)
	}
	if c.StoreBackend == "gorm" {
		switch c.DBDriver {
		case "sqlite", "postgres":
		default:
			return fmt.Errorf("unknown DB_DRIVER %q (want sqlite or postgres)", c.DBDriver)
		}
	}

	isProduction := c.Env == "production" || c.Env == "prod"
	if isProduction {
		if c.JWTSecret == "your-secret-key-change-in-production" {
			return errors.New("JWT_SECRET must be changed from the default value in production")
		}
		if len(c.JWTSecret) < 32 {
			return errors.New("JWT_SECRET must be at least 32 characters in production")
		}
		if c.StoreBackend == "memory" {
			log.Println("WARNING: STORE_BACKEND is 'memory' in production; data will not survive a restart.")
		}
		if c.AllowedOrigins == "*" {
			log.Println("WARNING: ALLOWED_ORIGINS is set to '*' in production. This is insecure.")
		}
	} else if len(c.JWTSecret) < 32 {
		log.Println("WARNING: JWT_SECRET is shorter than 32 characters. Consider using a stronger secret for production.")
	}

	return nil
}
