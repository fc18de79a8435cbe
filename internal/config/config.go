// Package config loads the server's runtime configuration from
// environment variables (optionally via a .env file), following the same
// load-then-validate shape used across the rest of the codebase.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds every environment-derived setting the server needs to boot.
type Config struct {
	Port string

	MongoURI string
	MongoDB  string

	PostgresDSN string

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	EmbeddingProvider string
	EmbeddingAPIKey   string
	EmbeddingBaseURL  string

	JWTSigningKey string

	WebhookSigningSecret string

	RateLimitWindow time.Duration

	UploadRoot string

	LogLevel string
}

// Load reads configuration from the process environment, optionally
// loading envFilePath first if it is non-empty.
func Load(envFilePath string) (*Config, error) {
	if envFilePath != "" {
		if err := godotenv.Load(envFilePath); err != nil {
			return nil, fmt.Errorf("config: failed to load %s: %w", envFilePath, err)
		}
	}

	cfg := &Config{
		Port:                 getenvDefault("PORT", "8080"),
		MongoURI:              os.Getenv("MONGO_URI"),
		MongoDB:               getenvDefault("MONGO_DB", "rlmengine"),
		PostgresDSN:           os.Getenv("POSTGRES_DSN"),
		RedisAddr:             getenvDefault("REDIS_ADDR", "localhost:6379"),
		RedisPassword:         os.Getenv("REDIS_PASSWORD"),
		EmbeddingProvider:     getenvDefault("EMBEDDING_PROVIDER", "openai"),
		EmbeddingAPIKey:       os.Getenv("EMBEDDING_API_KEY"),
		EmbeddingBaseURL:      os.Getenv("EMBEDDING_BASE_URL"),
		JWTSigningKey:         os.Getenv("JWT_SIGNING_KEY"),
		WebhookSigningSecret:  os.Getenv("WEBHOOK_SIGNING_SECRET"),
		UploadRoot:            getenvDefault("UPLOAD_ROOT", "./data/projects"),
		LogLevel:              getenvDefault("LOG_LEVEL", "info"),
	}

	if v := os.Getenv("REDIS_DB"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.RedisDB = n
		}
	}

	windowSeconds := 60
	if v := os.Getenv("RATE_LIMIT_WINDOW_SECONDS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			windowSeconds = n
		}
	}
	cfg.RateLimitWindow = time.Duration(windowSeconds) * time.Second

	return cfg, cfg.Validate()
}

// Validate checks that every required setting is present and well-formed.
func (c *Config) Validate() error {
	if c.MongoURI == "" {
		return fmt.Errorf("config: MONGO_URI is required")
	}
	if c.PostgresDSN == "" {
		return fmt.Errorf("config: POSTGRES_DSN is required")
	}
	if c.JWTSigningKey == "" {
		return fmt.Errorf("config: JWT_SIGNING_KEY is required")
	}
	switch strings.ToLower(c.EmbeddingProvider) {
	case "openai", "stub":
	default:
		return fmt.Errorf("config: unsupported EMBEDDING_PROVIDER %q", c.EmbeddingProvider)
	}
	if strings.ToLower(c.EmbeddingProvider) == "openai" && c.EmbeddingAPIKey == "" {
		return fmt.Errorf("config: EMBEDDING_API_KEY is required when EMBEDDING_PROVIDER=openai")
	}
	return nil
}

func getenvDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
