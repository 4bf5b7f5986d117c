package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Store backends
const (
	StorePostgres = "postgres"
	StoreRedis    = "redis"
)

// Config holds all configuration values for the application
type Config struct {
	Port           string
	AllowedOrigins []string
	LogLevel       string
	Environment    string

	StoreBackend string
	DatabaseURL  string
	RedisURL     string

	JWTSecret          string
	GoogleClientID     string
	AllowedEmailDomain string
	AdminEmails        []string
	SessionTokenTTL    time.Duration

	LeaderboardRefresh time.Duration
	CategoriesFile     string

	VoteRateLimit float64 // vote submissions per second per user
	VoteRateBurst int
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	cfg := &Config{
		Port:               getEnv("PORT", "8080"),
		AllowedOrigins:     parseList(getEnv("ALLOWED_ORIGINS", "http://localhost:5173")),
		LogLevel:           getEnv("LOG_LEVEL", "info"),
		Environment:        getEnv("ENVIRONMENT", "production"),
		StoreBackend:       strings.ToLower(getEnv("STORE_BACKEND", StorePostgres)),
		DatabaseURL:        getEnv("DATABASE_URL", ""),
		RedisURL:           getEnv("REDIS_URL", ""),
		JWTSecret:          getEnv("JWT_SECRET", ""),
		GoogleClientID:     getEnv("GOOGLE_CLIENT_ID", ""),
		AllowedEmailDomain: getEnv("ALLOWED_EMAIL_DOMAIN", "@example.edu"),
		AdminEmails:        parseEmails(getEnv("ADMIN_EMAILS", "")),
		SessionTokenTTL:    getDurationEnv("SESSION_TOKEN_TTL", 12*time.Hour),
		LeaderboardRefresh: getDurationEnv("LEADERBOARD_REFRESH", 5*time.Second),
		CategoriesFile:     getEnv("CATEGORIES_FILE", ""),
		VoteRateLimit:      getFloatEnv("VOTE_RATE_LIMIT", 2),
		VoteRateBurst:      getIntEnv("VOTE_RATE_BURST", 5),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that the selected store backend has what it needs.
func (c *Config) Validate() error {
	switch c.StoreBackend {
	case StorePostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required when STORE_BACKEND=%s", StorePostgres)
		}
	case StoreRedis:
		if c.RedisURL == "" {
			return fmt.Errorf("REDIS_URL is required when STORE_BACKEND=%s", StoreRedis)
		}
	default:
		return fmt.Errorf("unknown STORE_BACKEND %q", c.StoreBackend)
	}
	if c.LeaderboardRefresh <= 0 {
		return fmt.Errorf("LEADERBOARD_REFRESH must be positive")
	}
	return nil
}

// getEnv gets an environment variable with a fallback value
func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

// parseList parses a comma-separated list into a slice
func parseList(raw string) []string {
	if raw == "" {
		return []string{}
	}

	parts := strings.Split(raw, ",")
	result := make([]string, 0, len(parts))

	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			result = append(result, trimmed)
		}
	}

	return result
}

func parseEmails(raw string) []string {
	emails := parseList(raw)
	for i, e := range emails {
		emails[i] = strings.ToLower(e)
	}
	return emails
}

func getDurationEnv(key string, fallback time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	if d, err := time.ParseDuration(value); err == nil {
		return d
	}
	// Bare integers are seconds
	if secs, err := strconv.Atoi(value); err == nil {
		return time.Duration(secs) * time.Second
	}
	return fallback
}

func getFloatEnv(key string, fallback float64) float64 {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseFloat(value, 64); err == nil {
			return parsed
		}
	}
	return fallback
}

func getIntEnv(key string, fallback int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return fallback
}
