package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Database  DatabaseConfig
	JWT       JWTConfig
	App       AppConfig
	Finalizer FinalizerConfig
}

type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Name     string
	SSLMode  string
}

// JWTConfig holds JWT configuration
type JWTConfig struct {
	Secret           string
	AccessExpiration string
}

// AppConfig holds application configuration
type AppConfig struct {
	Port     int
	Env      string
	LogLevel string
}

// FinalizerConfig holds the finalization sweep configuration
type FinalizerConfig struct {
	Interval            time.Duration
	Buffer              time.Duration
	LeaseTTL            time.Duration
	CollaboratorTimeout time.Duration
	LookbackDays        int
}

func Load() (*Config, error) {
	err := godotenv.Load()
	if err != nil {
		log.Println("No .env file found, relying on environment variables")
	}

	config := &Config{}

	// Database configuration
	dbPort, err := strconv.Atoi(getEnv("DB_PORT", "5432"))
	if err != nil {
		return nil, fmt.Errorf("invalid DB_PORT: %w", err)
	}

	config.Database = DatabaseConfig{
		Host:     getEnv("DB_HOST", "localhost"),
		Port:     dbPort,
		User:     getEnv("DB_USER", "postgres"),
		Password: getEnv("DB_PASSWORD", ""),
		Name:     getEnv("DB_NAME", "attendance"),
		SSLMode:  getEnv("DB_SSL_MODE", "disable"),
	}

	// Application configuration
	appPort, err := strconv.Atoi(getEnv("APP_PORT", "8080"))
	if err != nil {
		return nil, fmt.Errorf("invalid APP_PORT: %w", err)
	}

	config.App = AppConfig{
		Port:     appPort,
		Env:      getEnv("APP_ENV", "development"),
		LogLevel: getEnv("LOG_LEVEL", "info"),
	}

	// JWT configuration
	config.JWT = JWTConfig{
		Secret:           getEnv("JWT_SECRET_KEY", ""),
		AccessExpiration: getEnv("JWT_ACCESS_EXPIRATION_TIME", "1h"),
	}

	// Finalization sweep configuration
	interval, err := time.ParseDuration(getEnv("FINALIZE_INTERVAL", "15m"))
	if err != nil {
		return nil, fmt.Errorf("invalid FINALIZE_INTERVAL: %w", err)
	}
	buffer, err := time.ParseDuration(getEnv("FINALIZE_BUFFER", "60m"))
	if err != nil {
		return nil, fmt.Errorf("invalid FINALIZE_BUFFER: %w", err)
	}
	leaseTTL, err := time.ParseDuration(getEnv("FINALIZE_LEASE_TTL", "10m"))
	if err != nil {
		return nil, fmt.Errorf("invalid FINALIZE_LEASE_TTL: %w", err)
	}
	collabTimeout, err := time.ParseDuration(getEnv("COLLABORATOR_TIMEOUT", "5s"))
	if err != nil {
		return nil, fmt.Errorf("invalid COLLABORATOR_TIMEOUT: %w", err)
	}
	lookbackDays, err := strconv.Atoi(getEnv("MARK_ABSENT_LOOKBACK_DAYS", "3"))
	if err != nil {
		return nil, fmt.Errorf("invalid MARK_ABSENT_LOOKBACK_DAYS: %w", err)
	}

	config.Finalizer = FinalizerConfig{
		Interval:            interval,
		Buffer:              buffer,
		LeaseTTL:            leaseTTL,
		CollaboratorTimeout: collabTimeout,
		LookbackDays:        lookbackDays,
	}

	// Validate required fields
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Database.Password == "" {
		return fmt.Errorf("DB_PASSWORD is required")
	}
	if c.JWT.Secret == "" {
		return fmt.Errorf("JWT_SECRET_KEY is required")
	}
	if c.Finalizer.Interval <= 0 {
		return fmt.Errorf("FINALIZE_INTERVAL must be positive")
	}
	if c.Finalizer.Buffer < 0 {
		return fmt.Errorf("FINALIZE_BUFFER must not be negative")
	}
	return nil
}

// DatabaseURL returns the PostgreSQL connection string
func (c *Config) DatabaseURL() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.Name,
		c.Database.SSLMode,
	)
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
