package config

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	Server   ServerConfig
	Storage  StorageConfig
	Security SecurityConfig
}

type ServerConfig struct {
	Port        string
	Environment string
}

type StorageConfig struct {
	Path string
}

type SecurityConfig struct {
	JWTSecret         string
	CSRFSecret        string
	SessionDuration   time.Duration
	RateLimitRequests int
	RateLimitWindow   time.Duration
	LoginRateLimit    int
	LoginRateWindow   time.Duration
	CSPEnabled        bool
	HSTSEnabled       bool
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	sessionDuration, err := time.ParseDuration(getEnv("SESSION_DURATION", "336h"))
	if err != nil {
		sessionDuration = 336 * time.Hour
	}

	rateLimitWindow, err := time.ParseDuration(getEnv("RATE_LIMIT_WINDOW", "1m"))
	if err != nil {
		rateLimitWindow = 1 * time.Minute
	}

	loginRateWindow, err := time.ParseDuration(getEnv("LOGIN_RATE_WINDOW", "15m"))
	if err != nil {
		loginRateWindow = 15 * time.Minute
	}

	cspEnabled, _ := strconv.ParseBool(getEnv("CSP_ENABLED", "true"))
	hstsEnabled, _ := strconv.ParseBool(getEnv("HSTS_ENABLED", "true"))
	rateLimitReqs, _ := strconv.Atoi(getEnv("RATE_LIMIT_REQUESTS", "100"))
	loginRateLimit, _ := strconv.Atoi(getEnv("LOGIN_RATE_LIMIT", "5"))

	cfg := &Config{
		Server: ServerConfig{
			Port:        getEnv("PORT", "8080"),
			Environment: getEnv("ENVIRONMENT", "development"),
		},
		Storage: StorageConfig{
			Path: getEnv("STORAGE_PATH", "./data/flaretracker.db"),
		},
		Security: SecurityConfig{
			JWTSecret:         getEnv("JWT_SECRET", ""),
			CSRFSecret:        getEnv("CSRF_SECRET", ""),
			SessionDuration:   sessionDuration,
			RateLimitRequests: rateLimitReqs,
			RateLimitWindow:   rateLimitWindow,
			LoginRateLimit:    loginRateLimit,
			LoginRateWindow:   loginRateWindow,
			CSPEnabled:        cspEnabled,
			HSTSEnabled:       hstsEnabled,
		},
	}

	if cfg.Security.JWTSecret == "" {
		return nil, ErrMissingJWTSecret
	}

	if cfg.Security.CSRFSecret == "" {
		return nil, ErrMissingCSRFSecret
	}

	return cfg, nil
}

// Development reports whether the server runs in development mode.
func (c *Config) Development() bool {
	return c.Server.Environment != "production"
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

var (
	ErrMissingJWTSecret  = &ConfigError{"JWT_SECRET environment variable is required"}
	ErrMissingCSRFSecret = &ConfigError{"CSRF_SECRET environment variable is required"}
)

type ConfigError struct {
	Message string
}

func (e *ConfigError) Error() string {
	return e.Message
}
