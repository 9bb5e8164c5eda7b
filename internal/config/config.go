package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application configuration
type Config struct {
	ServerPort      string
	AppBaseURL      string
	SessionDuration time.Duration

	// Database
	DatabaseType string
	DatabasePath string
	DatabaseURL  string

	MigrationsPath string

	// Signup behaviour
	OfferTTL            time.Duration
	OccurrenceHorizon   int // days expanded forward for ongoing series
	VerificationTTL     time.Duration
	VerificationRetries int
	InviteTTL           time.Duration
	MaxInvitesPerEvent  int

	// Email (Amazon SES)
	AWSRegion    string
	SESFromEmail string
	SESFromName  string

	// Secrets
	ActionTokenSecret string
	CSRFSecret        string

	// OAuth
	GoogleClientID       string
	GoogleClientSecret   string
	FacebookClientID     string
	FacebookClientSecret string
	OAuthRedirectBaseURL string
}

// Load reads configuration from environment variables with sensible defaults.
// A .env file in the working directory is loaded first if present.
func Load() *Config {
	if err := godotenv.Load(); err == nil {
		log.Println("Loaded configuration from .env")
	}

	return &Config{
		ServerPort:      getEnv("PORT", "8080"),
		AppBaseURL:      getEnv("APP_BASE_URL", "http://localhost:8080"),
		SessionDuration: 24 * time.Hour,

		DatabaseType: getEnv("DB_TYPE", "sqlite"),
		DatabasePath: getEnv("DB_PATH", "./gatherly.db"),
		DatabaseURL:  getEnv("DB_URL", ""),

		MigrationsPath: getEnv("MIGRATIONS_PATH", "./migrations"),

		OfferTTL:            getEnvDuration("OFFER_TTL", 24*time.Hour),
		OccurrenceHorizon:   getEnvInt("OCCURRENCE_HORIZON_DAYS", 90),
		VerificationTTL:     getEnvDuration("VERIFICATION_TTL", 15*time.Minute),
		VerificationRetries: getEnvInt("VERIFICATION_RETRIES", 5),
		InviteTTL:           getEnvDuration("INVITE_TTL", 14*24*time.Hour),
		MaxInvitesPerEvent:  getEnvInt("MAX_INVITES_PER_EVENT", 20),

		AWSRegion:    getEnv("AWS_REGION", "us-east-1"),
		SESFromEmail: getEnv("SES_FROM_EMAIL", ""),
		SESFromName:  getEnv("SES_FROM_NAME", "Gatherly"),

		ActionTokenSecret: getEnv("ACTION_TOKEN_SECRET", "dev-action-token-secret"),
		CSRFSecret:        getEnv("CSRF_SECRET", "dev-csrf-secret"),

		GoogleClientID:       getEnv("GOOGLE_CLIENT_ID", ""),
		GoogleClientSecret:   getEnv("GOOGLE_CLIENT_SECRET", ""),
		FacebookClientID:     getEnv("FACEBOOK_CLIENT_ID", ""),
		FacebookClientSecret: getEnv("FACEBOOK_CLIENT_SECRET", ""),
		OAuthRedirectBaseURL: getEnv("OAUTH_REDIRECT_BASE_URL", ""),
	}
}

// getEnv reads an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt reads an integer environment variable or returns a default value
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
		log.Printf("Warning: invalid value for %s, using default %d", key, defaultValue)
	}
	return defaultValue
}

// getEnvDuration reads a duration environment variable or returns a default value
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
		log.Printf("Warning: invalid value for %s, using default %s", key, defaultValue)
	}
	return defaultValue
}
