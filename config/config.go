// Package config loads application configuration from the environment,
// with an optional .env file for local development.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// AppConfig holds all configuration for the application.
type AppConfig struct {
	Port              string
	DatabasePath      string
	JWTSecret         string
	TokenTTL          time.Duration
	SweepInitialDelay time.Duration
	SweepInterval     time.Duration
	SchedulerEnabled  bool
	LogLevel          string
	Environment       string
	AdminUsername     string
	AdminPassword     string
}

// Load reads configuration from environment variables and a .env file (if
// present). godotenv.Load does not override variables already set.
func Load() (*AppConfig, error) {
	_ = godotenv.Load()

	cfg := &AppConfig{
		Port:             getenv("PORT", "8080"),
		DatabasePath:     getenv("DATABASE_PATH", "./data/personnel.db"),
		JWTSecret:        os.Getenv("JWT_SECRET"),
		LogLevel:         strings.ToLower(getenv("LOG_LEVEL", "info")),
		Environment:      strings.ToLower(getenv("ENVIRONMENT", "development")),
		AdminUsername:    getenv("ADMIN_USERNAME", "admin"),
		AdminPassword:    os.Getenv("ADMIN_PASSWORD"),
		SchedulerEnabled: getenv("SCHEDULER_ENABLED", "true") != "false",
	}
	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is not set")
	}

	var err error
	cfg.TokenTTL, err = getduration("TOKEN_TTL", 12*time.Hour)
	if err != nil {
		return nil, err
	}
	cfg.SweepInitialDelay, err = getduration("SWEEP_INITIAL_DELAY", 10*time.Second)
	if err != nil {
		return nil, err
	}
	cfg.SweepInterval, err = getduration("SWEEP_INTERVAL", 24*time.Hour)
	if err != nil {
		return nil, err
	}

	return cfg, nil
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getduration(key string, fallback time.Duration) (time.Duration, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}
