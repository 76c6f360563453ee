package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration, shared by the exam runner
// and the local practice server.
type Config struct {
	// Client side.
	APIBaseURL     string
	APIToken       string
	RequestTimeout time.Duration
	// Submission policy. CompleteAttempts of 1 means the completion call is
	// never retried; higher values enable bounded retry with linear backoff.
	CompleteAttempts int
	CompleteBackoff  time.Duration

	LogLevel  string
	LogFormat string

	// Practice server side.
	ServerPort string
	GinMode    string
	JWTSecret  string
	JWTExpiry  time.Duration
	BcryptCost int
	// AllowedOrigins controls HTTP CORS. Empty slice means all origins are
	// permitted (dev default).
	AllowedOrigins []string
}

// Load reads configuration from environment variables with sensible defaults.
// It loads .env file if present but does not fail if missing.
func Load() *Config {
	_ = godotenv.Load() // Ignore error — .env is optional

	return &Config{
		APIBaseURL:       getEnv("API_BASE_URL", "http://localhost:8080/api/v1"),
		APIToken:         getEnv("API_TOKEN", ""),
		RequestTimeout:   time.Duration(getEnvInt("REQUEST_TIMEOUT_SECONDS", 0)) * time.Second,
		CompleteAttempts: getEnvInt("COMPLETE_ATTEMPTS", 1),
		CompleteBackoff:  time.Duration(getEnvInt("COMPLETE_BACKOFF_SECONDS", 2)) * time.Second,
		LogLevel:         getEnv("LOG_LEVEL", "info"),
		LogFormat:        getEnv("LOG_FORMAT", "pretty"),
		ServerPort:       getEnv("SERVER_PORT", "8080"),
		GinMode:          getEnv("GIN_MODE", "debug"),
		JWTSecret:        getEnv("JWT_SECRET", "change-this-to-a-secure-random-string"),
		JWTExpiry:        time.Duration(getEnvInt("JWT_EXPIRY_HOURS", 6)) * time.Hour,
		BcryptCost:       getEnvInt("BCRYPT_COST", 6),
		AllowedOrigins:   parseOrigins(getEnv("ALLOWED_ORIGINS", "")),
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

// parseOrigins splits a comma-separated origins string into a trimmed slice.
// Returns nil (allow-all) if the input is empty.
func parseOrigins(raw string) []string {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	origins := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			origins = append(origins, trimmed)
		}
	}
	return origins
}
