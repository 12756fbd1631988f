package config

import (
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application configuration shared by the API server and the
// sync client.
type Config struct {
	// Server
	Env  string
	Port string

	// JWT
	JWTSecret        string
	JWTExpirationDur time.Duration

	// Client
	APIURL         string
	APIToken       string
	OwnerID        string
	PollInterval   time.Duration
	RequestTimeout time.Duration
	StateFile      string
	// Currency, when set, overrides the saved display currency at startup.
	Currency string
}

var appConfig *Config

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if not already loaded
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found")
	}

	config := &Config{
		Env:  getEnv("ENV", "development"),
		Port: getEnv("PORT", "8080"),

		JWTSecret: getEnv("JWT_SECRET", "fallback-secret-key-for-dev-only"),

		APIURL:    strings.TrimRight(getEnv("API_URL", "http://localhost:8080"), "/"),
		APIToken:  os.Getenv("API_TOKEN"),
		OwnerID:   os.Getenv("OWNER_ID"),
		StateFile: getEnv("STATE_FILE", "budgetwise-state.json"),
		Currency:  strings.ToUpper(strings.TrimSpace(os.Getenv("CURRENCY"))),
	}

	var err error
	if config.JWTExpirationDur, err = parseDuration("JWT_EXPIRES_IN", "24h"); err != nil {
		return nil, err
	}
	if config.PollInterval, err = parseDuration("POLL_INTERVAL", "30s"); err != nil {
		return nil, err
	}
	if config.RequestTimeout, err = parseDuration("REQUEST_TIMEOUT", "10s"); err != nil {
		return nil, err
	}

	appConfig = config
	return config, nil
}

// Get returns the application configuration
func Get() *Config {
	if appConfig == nil {
		var err error
		appConfig, err = Load()
		if err != nil {
			log.Fatalf("Failed to load configuration: %v", err)
		}
	}
	return appConfig
}

// parseDuration reads a positive duration from the environment.
func parseDuration(key, defaultValue string) (time.Duration, error) {
	raw := getEnv(key, defaultValue)
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, raw, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("%s must be positive, got %v", key, d)
	}
	return d, nil
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
