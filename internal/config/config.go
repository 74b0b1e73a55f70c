package config

import (
	"os"
	"time"
)

// Config holds application configuration
type Config struct {
	ServerPort string

	// AppEnv selects the preview or production backend project
	AppEnv string

	// Database settings (sqlite by default, postgres/mysql via URL)
	DatabaseType   string
	DatabaseURL    string
	DatabasePath   string
	MigrationsPath string

	// Auth
	JWTSecret     string
	TokenDuration time.Duration

	// OAuth sign-in: the app exchanges provider tokens, so only the Apple
	// audience check needs configuration
	AppleClientID string

	// Email (Amazon SES)
	AWSRegion    string
	SESFromEmail string
	SESFromName  string

	// Base URL used in invite deep links and emails
	AppBaseURL string

	// Push delivery
	ExpoPushURL      string
	DispatchInterval time.Duration
}

// Load reads configuration from environment variables with sensible defaults
func Load() *Config {
	return &Config{
		ServerPort:       getEnv("PORT", "8080"),
		AppEnv:           getEnv("APP_ENV", "preview"),
		DatabaseType:     getEnv("DB_TYPE", "sqlite"),
		DatabaseURL:      getEnv("DB_URL", ""),
		DatabasePath:     getEnv("DB_PATH", "./clairenest.db"),
		MigrationsPath:   getEnv("MIGRATIONS_PATH", "./migrations"),
		JWTSecret:        getEnv("JWT_SECRET", "dev-only-secret"),
		TokenDuration:    24 * time.Hour,
		AppleClientID:    getEnv("APPLE_CLIENT_ID", ""),
		AWSRegion:        getEnv("AWS_REGION", "eu-west-1"),
		SESFromEmail:     getEnv("SES_FROM_EMAIL", ""),
		SESFromName:      getEnv("SES_FROM_NAME", "ClaireNest"),
		AppBaseURL:       getEnv("APP_BASE_URL", "http://localhost:8080"),
		ExpoPushURL:      getEnv("EXPO_PUSH_URL", "https://exp.host/--/api/v2/push/send"),
		DispatchInterval: time.Minute,
	}
}

// IsProduction reports whether the production backend project is selected.
func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

// getEnv reads an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
