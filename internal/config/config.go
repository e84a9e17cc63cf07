package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
)

// Config is the process configuration, loaded from the environment with
// an optional .env file for local development.
type Config struct {
	Port        string
	DatabaseURL string
	JWTSecret   string

	// BaseURL is the public origin join links are built from.
	BaseURL string

	ChatAPIURL    string
	ChatAPIKey    string
	ChatAPISecret string

	PollInterval time.Duration
}

func Load() (*Config, error) {
	// Missing .env is fine; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg := &Config{
		Port:          getEnv("PORT", "8080"),
		DatabaseURL:   os.Getenv("DATABASE_URL"),
		JWTSecret:     os.Getenv("JWT_SECRET"),
		BaseURL:       getEnv("BASE_URL", "http://localhost:3000"),
		ChatAPIURL:    os.Getenv("CHAT_API_URL"),
		ChatAPIKey:    os.Getenv("CHAT_API_KEY"),
		ChatAPISecret: os.Getenv("CHAT_API_SECRET"),
		PollInterval:  30 * time.Second,
	}

	if raw := os.Getenv("CALL_LIST_POLL_INTERVAL"); raw != "" {
		interval, err := time.ParseDuration(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid CALL_LIST_POLL_INTERVAL: %w", err)
		}
		cfg.PollInterval = interval
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}
	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
