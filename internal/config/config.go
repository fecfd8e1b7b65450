// Package config loads server settings from the environment.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// devSecret signs tokens when JWT_SECRET is unset. Never use it in production.
const devSecret = "foodgram-dev-secret-change-me"

// Config holds server settings.
type Config struct {
	Port       int
	DBPath     string
	StaticPath string

	JWTSecret string
	TokenTTL  time.Duration

	// AdminEmails are granted admin rights on registration.
	AdminEmails []string

	// PDFFontPath is an optional TrueType font for PDF shopping lists.
	// Empty selects the embedded Go Regular font.
	PDFFontPath string
	PDFFontName string

	LogLevel string
}

// Load reads an optional .env file from the working directory, then the
// environment. Variables already set in the environment win over .env.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}
	return FromEnv(os.Getenv)
}

// FromEnv builds a Config from a variable lookup function.
func FromEnv(getenv func(string) string) (*Config, error) {
	get := func(key, fallback string) string {
		if value := getenv(key); value != "" {
			return value
		}
		return fallback
	}

	port, err := strconv.Atoi(get("PORT", "8080"))
	if err != nil || port <= 0 || port > 65535 {
		return nil, fmt.Errorf("invalid PORT %q", getenv("PORT"))
	}

	ttl, err := time.ParseDuration(get("TOKEN_TTL", "24h"))
	if err != nil || ttl <= 0 {
		return nil, fmt.Errorf("invalid TOKEN_TTL %q", getenv("TOKEN_TTL"))
	}

	cfg := &Config{
		Port:        port,
		DBPath:      get("DB_PATH", "./data/foodgram.db"),
		StaticPath:  get("STATIC_PATH", "../frontend/static"),
		JWTSecret:   get("JWT_SECRET", devSecret),
		TokenTTL:    ttl,
		PDFFontPath: getenv("PDF_FONT_PATH"),
		PDFFontName: get("PDF_FONT_NAME", "DejaVuSans"),
		LogLevel:    get("LOG_LEVEL", "info"),
	}

	for _, email := range strings.Split(getenv("ADMIN_EMAILS"), ",") {
		if email = strings.TrimSpace(email); email != "" {
			cfg.AdminEmails = append(cfg.AdminEmails, email)
		}
	}

	return cfg, nil
}

// UsesDevSecret reports whether tokens are signed with the built-in development secret.
func (c *Config) UsesDevSecret() bool {
	return c.JWTSecret == devSecret
}

// LogValue keeps the secret out of logs.
func (c *Config) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("port", c.Port),
		slog.String("db_path", c.DBPath),
		slog.String("static_path", c.StaticPath),
		slog.Duration("token_ttl", c.TokenTTL),
		slog.Int("admin_emails", len(c.AdminEmails)),
		slog.String("pdf_font_path", c.PDFFontPath),
		slog.String("log_level", c.LogLevel),
	)
}
