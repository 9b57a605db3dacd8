package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all configuration for the API server
// Following 12-factor app principles, all config is loaded from environment variables
type Config struct {
	Server   ServerConfig
	Auth     AuthConfig
	Storage  StorageConfig
	Broker   BrokerConfig
	Zones    ZonesConfig
	Orders   OrdersConfig
	LogLevel string
}

type ServerConfig struct {
	Port            string
	Host            string
	ReadTimeout     int
	WriteTimeout    int
	ShutdownTimeout int
	AllowedOrigins  []string
}

type AuthConfig struct {
	SigningKey string
	Issuer     string
	TokenTTL   time.Duration
}

// StorageConfig selects the record store. Driver is "memory" or "postgres".
type StorageConfig struct {
	Driver      string
	DatabaseURL string
	AutoMigrate bool
}

// BrokerConfig points at the RabbitMQ instance that receives order events.
// An empty URL disables publishing.
type BrokerConfig struct {
	URL      string
	Exchange string
}

// ZonesConfig lists zone table sources (files or http(s) URLs, optionally gzipped)
// loaded into the zone repository at startup.
type ZonesConfig struct {
	Sources []string
}

type OrdersConfig struct {
	StrictTransitions  bool
	NumberRetries      int
	ExpectedOrderCount uint
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Port:            getEnv("PORT", "8080"),
			Host:            getEnv("HOST", "0.0.0.0"),
			ReadTimeout:     getEnvAsInt("READ_TIMEOUT", 15),
			WriteTimeout:    getEnvAsInt("WRITE_TIMEOUT", 15),
			ShutdownTimeout: getEnvAsInt("SHUTDOWN_TIMEOUT", 30),
			AllowedOrigins:  getEnvAsSlice("CORS_ALLOWED_ORIGINS", []string{"*"}),
		},
		Auth: AuthConfig{
			SigningKey: getEnv("JWT_SIGNING_KEY", "dev-secret-key-change-in-production"),
			Issuer:     getEnv("JWT_ISSUER", "food-delivery"),
			TokenTTL:   getEnvAsDuration("JWT_TOKEN_TTL", 12*time.Hour),
		},
		Storage: StorageConfig{
			Driver:      getEnv("STORAGE_DRIVER", "memory"),
			DatabaseURL: getEnv("DATABASE_URL", ""),
			AutoMigrate: getEnvAsBool("DATABASE_AUTO_MIGRATE", true),
		},
		Broker: BrokerConfig{
			URL:      getEnv("BROKER_URL", ""),
			Exchange: getEnv("BROKER_EXCHANGE", "orders"),
		},
		Zones: ZonesConfig{
			Sources: getEnvAsSlice("ZONE_SOURCES", nil),
		},
		Orders: OrdersConfig{
			StrictTransitions:  getEnvAsBool("ORDER_STRICT_TRANSITIONS", false),
			NumberRetries:      getEnvAsInt("ORDER_NUMBER_RETRIES", 5),
			ExpectedOrderCount: uint(getEnvAsInt("ORDER_EXPECTED_COUNT", 100000)),
		},
		LogLevel: getEnv("LOG_LEVEL", "info"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf("PORT is required")
	}

	if c.Auth.SigningKey == "" {
		return fmt.Errorf("JWT_SIGNING_KEY is required")
	}

	switch c.Storage.Driver {
	case "memory":
	case "postgres":
		if c.Storage.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required when STORAGE_DRIVER=postgres")
		}
	default:
		return fmt.Errorf("invalid storage driver: %s (must be memory or postgres)", c.Storage.Driver)
	}

	if c.Orders.NumberRetries < 1 {
		return fmt.Errorf("ORDER_NUMBER_RETRIES must be at least 1")
	}

	return validateLogLevel(c.LogLevel)
}

// WatcherConfig configures the terminal order watcher: which API to poll, with which
// session, and where its local notification list lives.
type WatcherConfig struct {
	APIBaseURL       string
	SessionToken     string
	PollInterval     time.Duration
	RequestTimeout   time.Duration
	RedisURL         string
	DedupWindow      time.Duration
	MaxNotifications int
	SweepInterval    time.Duration
	LogLevel         string
}

// LoadWatcher reads the watcher configuration from environment variables
func LoadWatcher() (*WatcherConfig, error) {
	cfg := &WatcherConfig{
		APIBaseURL:       getEnv("API_BASE_URL", "http://localhost:8080"),
		SessionToken:     getEnv("SESSION_TOKEN", ""),
		PollInterval:     getEnvAsDuration("POLL_INTERVAL", 10*time.Second),
		RequestTimeout:   getEnvAsDuration("REQUEST_TIMEOUT", 8*time.Second),
		RedisURL:         getEnv("REDIS_URL", ""),
		DedupWindow:      getEnvAsDuration("NOTIFICATION_DEDUP_WINDOW", 60*time.Second),
		MaxNotifications: getEnvAsInt("NOTIFICATION_MAX", 50),
		SweepInterval:    getEnvAsDuration("NOTIFICATION_SWEEP_INTERVAL", time.Minute),
		LogLevel:         getEnv("LOG_LEVEL", "info"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate checks if the watcher configuration is valid
func (c *WatcherConfig) Validate() error {
	if c.APIBaseURL == "" {
		return fmt.Errorf("API_BASE_URL is required")
	}
	if c.SessionToken == "" {
		return fmt.Errorf("SESSION_TOKEN is required")
	}
	if c.PollInterval <= 0 {
		return fmt.Errorf("POLL_INTERVAL must be positive")
	}
	if c.MaxNotifications <= 0 {
		return fmt.Errorf("NOTIFICATION_MAX must be positive")
	}
	return validateLogLevel(c.LogLevel)
}

func validateLogLevel(level string) error {
	validLogLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLogLevels[strings.ToLower(level)] {
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", level)
	}
	return nil
}

// Helper functions for reading environment variables

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := time.ParseDuration(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsSlice(key string, defaultValue []string) []string {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	parts := strings.Split(valueStr, ",")
	values := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			values = append(values, p)
		}
	}
	return values
}
