package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds the application configuration
type Config struct {
	AppMode    string
	ServerPort string

	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string

	LogLevel  string
	LogFormat string

	// Empty URLs keep the matching store in-process.
	UserServiceURL string
	BookServiceURL string

	UpstreamTimeout   time.Duration
	UpstreamRetries   int
	ReconcileInterval time.Duration
	IntentExpiry      time.Duration
}

// Load reads configuration from the environment. Keys are prefixed DEV_ or
// PROD_ depending on APP_MODE; a .env file is loaded when present.
func Load() (*Config, error) {
	_ = godotenv.Load()

	mode := getEnv("APP_MODE", "development")
	prefix := "DEV_"
	if mode == "production" {
		prefix = "PROD_"
	}

	cfg := &Config{
		AppMode:    mode,
		ServerPort: getEnv(prefix+"SERVER_PORT", "3000"),

		DBHost:     getEnv(prefix+"DB_HOST", "localhost"),
		DBPort:     getEnv(prefix+"DB_PORT", "3306"),
		DBUser:     getEnv(prefix+"DB_USER", "root"),
		DBPassword: getEnv(prefix+"DB_PASSWORD", ""),
		DBName:     getEnv(prefix+"DB_NAME", "openshelf"),

		LogLevel:  getEnv(prefix+"LOG_LEVEL", "info"),
		LogFormat: getEnv(prefix+"LOG_FORMAT", "text"),

		UserServiceURL: getEnv("USER_SERVICE_URL", ""),
		BookServiceURL: getEnv("BOOK_SERVICE_URL", ""),
	}

	timeoutSeconds, err := getEnvInt("UPSTREAM_TIMEOUT_SECONDS", 5)
	if err != nil {
		return nil, err
	}
	cfg.UpstreamTimeout = time.Duration(timeoutSeconds) * time.Second

	cfg.UpstreamRetries, err = getEnvInt("UPSTREAM_RETRIES", 3)
	if err != nil {
		return nil, err
	}

	reconcileMinutes, err := getEnvInt("RECONCILE_INTERVAL_MINUTES", 5)
	if err != nil {
		return nil, err
	}
	cfg.ReconcileInterval = time.Duration(reconcileMinutes) * time.Minute

	expiryMinutes, err := getEnvInt("INTENT_EXPIRY_MINUTES", 10)
	if err != nil {
		return nil, err
	}
	cfg.IntentExpiry = time.Duration(expiryMinutes) * time.Minute

	return cfg, nil
}

// IsDevelopment reports whether the app runs in development mode
func (c *Config) IsDevelopment() bool {
	return c.AppMode != "production"
}

// DSN builds the MySQL connection string
func (c *Config) DSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=UTC",
		c.DBUser, c.DBPassword, c.DBHost, c.DBPort, c.DBName)
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid value for %s: %q", key, value)
	}
	return n, nil
}
