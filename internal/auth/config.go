// Package auth provides password sign-up and sign-in, signed bearer tokens
// and the middleware that guards the API.
package auth

import (
	"errors"
	"os"
)

// devSecret signs tokens in dev mode when no secret is configured.
const devSecret = "roomly-dev-secret-do-not-use-in-production"

// Config holds server configuration read from the environment.
type Config struct {
	JWTSecret string
	DevMode   bool
	BaseURL   string // e.g. http://localhost:8080
	FilesDir  string
	TimeZone  string
	SMTPHost  string
	SMTPPort  string
	SMTPUser  string
	SMTPPass  string
	SMTPFrom  string
}

// ConfigFromEnv creates a Config from environment variables.
func ConfigFromEnv() Config {
	return Config{
		JWTSecret: os.Getenv("ROOMLY_JWT_SECRET"),
		DevMode:   os.Getenv("ROOMLY_DEV_MODE") == "true",
		BaseURL:   envOrDefault("ROOMLY_BASE_URL", "http://localhost:8080"),
		FilesDir:  os.Getenv("ROOMLY_FILES_DIR"),
		TimeZone:  os.Getenv("ROOMLY_TZ"),
		SMTPHost:  os.Getenv("ROOMLY_SMTP_HOST"),
		SMTPPort:  envOrDefault("ROOMLY_SMTP_PORT", "587"),
		SMTPUser:  os.Getenv("ROOMLY_SMTP_USER"),
		SMTPPass:  os.Getenv("ROOMLY_SMTP_PASS"),
		SMTPFrom:  os.Getenv("ROOMLY_SMTP_FROM"),
	}
}

// Secret returns the token signing secret. Dev mode falls back to a fixed
// secret; production requires ROOMLY_JWT_SECRET.
func (c Config) Secret() ([]byte, error) {
	if c.JWTSecret != "" {
		return []byte(c.JWTSecret), nil
	}
	if c.DevMode {
		return []byte(devSecret), nil
	}
	return nil, errors.New("ROOMLY_JWT_SECRET is required (or set ROOMLY_DEV_MODE=true)")
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
