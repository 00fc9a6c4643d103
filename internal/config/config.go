// Package config loads server configuration from the environment, with an
// optional .env file for local development.
package config

import (
	"errors"
	"log/slog"
	"os"
	"strings"

	"github.com/joho/godotenv"
)

// Defaults used when the corresponding variable is unset.
const (
	DefaultAddr   = ":8080"
	DefaultDBPath = "shiori.db"
)

// ErrMissingJWTSecret is returned when SHIORI_JWT_SECRET is unset or empty.
// The server refuses to start without a signing key; there is no insecure
// fallback secret.
var ErrMissingJWTSecret = errors.New("SHIORI_JWT_SECRET must be set")

// Config holds the server configuration.
type Config struct {
	Addr           string
	DBPath         string
	JWTSecret      string
	AllowedOrigins []string
	LogLevel       slog.Level
}

// Load reads configuration from the environment. A .env file in the working
// directory is loaded first when present; real environment variables win.
func Load() (*Config, error) {
	_ = godotenv.Load()

	secret := os.Getenv("SHIORI_JWT_SECRET")
	if secret == "" {
		return nil, ErrMissingJWTSecret
	}

	cfg := &Config{
		Addr:           DefaultAddr,
		DBPath:         DefaultDBPath,
		JWTSecret:      secret,
		AllowedOrigins: []string{"*"},
		LogLevel:       slog.LevelInfo,
	}

	if addr := os.Getenv("SHIORI_ADDR"); addr != "" {
		if !strings.Contains(addr, ":") {
			addr = ":" + addr
		}
		cfg.Addr = addr
	}
	if path := os.Getenv("SHIORI_DB_PATH"); path != "" {
		cfg.DBPath = path
	}
	if origins := os.Getenv("SHIORI_ALLOWED_ORIGINS"); origins != "" {
		cfg.AllowedOrigins = splitOrigins(origins)
	}
	if level := os.Getenv("SHIORI_LOG_LEVEL"); level != "" {
		cfg.LogLevel = parseLogLevel(level)
	}

	return cfg, nil
}

func splitOrigins(origins string) []string {
	parts := strings.Split(origins, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}

func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
