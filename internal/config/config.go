// Package config provides centralized configuration loaded from environment
// variables. Shared by cmd/api and cmd/pushctl.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

// --------------------------------------------------------------------------
// Table names (single source of truth for the statements in internal/db)
// --------------------------------------------------------------------------

const (
	SupervisorsTable = "supervisors"
	DeviceTokenTable = "user_fcm_tokens"
	DispatchLogTable = "dispatch_log"
)

// NotifyChannel is the Postgres channel new reports are announced on.
const NotifyChannel = "report_created"

// --------------------------------------------------------------------------
// Config struct, populated from environment variables
// --------------------------------------------------------------------------

type Config struct {
	// Database
	DatabaseURL    string
	DBPoolMinConns int
	DBPoolMaxConns int
	DBPoolMaxLife  time.Duration

	// API server
	APIHost     string
	APIPort     int
	Environment string // development, staging, production
	Debug       bool
	LogLevel    slog.Level

	// CORS
	CORSAllowOrigins []string

	// Rate limiting
	RateLimitEnabled  bool
	RateLimitRequests int
	RateLimitWindow   time.Duration

	// Push credential and endpoints
	ServiceAccountJSON string
	ServiceAccountFile string
	FirebaseProjectID  string
	OAuthTokenURL      string
	FCMBaseURL         string
	PushTimeout        time.Duration
	DispatchWorkers    int
	TokenCacheEnabled  bool

	// Cache
	CacheEnabled bool

	// Background work
	ListenerEnabled    bool
	MaintenanceEnabled bool
}

// Load reads configuration from environment variables with sensible defaults.
// DATABASE_URL is required.
func Load() (*Config, error) {
	cfg := load()
	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL must be set")
	}
	return cfg, nil
}

// LoadWithoutDatabase is Load for commands that never touch Postgres.
func LoadWithoutDatabase() *Config {
	return load()
}

func load() *Config {
	return &Config{
		DatabaseURL:    envOr("DATABASE_URL", envOr("SUPABASE_DB_URL", "")),
		DBPoolMinConns: envInt("DB_POOL_MIN_CONNS", 2),
		DBPoolMaxConns: envInt("DB_POOL_MAX_CONNS", 10),
		DBPoolMaxLife:  time.Duration(envInt("DB_POOL_MAX_LIFE_MINUTES", 30)) * time.Minute,

		APIHost:     envOr("API_HOST", "0.0.0.0"),
		APIPort:     envInt("API_PORT", envInt("PORT", 8000)),
		Environment: envOr("ENVIRONMENT", "development"),
		Debug:       envBool("DEBUG", false),
		LogLevel:    envLevel("LOG_LEVEL", slog.LevelInfo),

		CORSAllowOrigins: envList("CORS_ALLOW_ORIGINS", []string{"*"}),

		RateLimitEnabled:  envBool("RATE_LIMIT_ENABLED", true),
		RateLimitRequests: envInt("RATE_LIMIT_REQUESTS", 100),
		RateLimitWindow:   time.Duration(envInt("RATE_LIMIT_WINDOW", 60)) * time.Second,

		ServiceAccountJSON: envOr("FIREBASE_SERVICE_ACCOUNT", ""),
		ServiceAccountFile: envOr("FIREBASE_SERVICE_ACCOUNT_FILE", envOr("GOOGLE_APPLICATION_CREDENTIALS", "")),
		FirebaseProjectID:  envOr("FIREBASE_PROJECT_ID", ""),
		OAuthTokenURL:      envOr("OAUTH_TOKEN_URL", ""),
		FCMBaseURL:         envOr("FCM_BASE_URL", "https://fcm.googleapis.com"),
		PushTimeout:        envDuration("PUSH_TIMEOUT", 10*time.Second),
		DispatchWorkers:    envInt("DISPATCH_WORKERS", 4),
		TokenCacheEnabled:  envBool("TOKEN_CACHE_ENABLED", true),

		CacheEnabled: envBool("CACHE_ENABLED", true),

		ListenerEnabled:    envBool("LISTENER_ENABLED", true),
		MaintenanceEnabled: envBool("MAINTENANCE_ENABLED", true),
	}
}

// IsProduction returns true if running in production environment.
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// HasCredential reports whether any service-account source is configured.
// It does not validate the credential.
func (c *Config) HasCredential() bool {
	return strings.TrimSpace(c.ServiceAccountJSON) != "" || c.ServiceAccountFile != ""
}

// NewLogger returns the text logger every command installs as the default.
func (c *Config) NewLogger() *slog.Logger {
	level := c.LogLevel
	if c.Debug && level > slog.LevelDebug {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
}

// --------------------------------------------------------------------------
// Env helpers
// --------------------------------------------------------------------------

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			return b
		}
	}
	return fallback
}

// envDuration accepts Go durations ("15s") or a bare number of seconds.
func envDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	if d, err := time.ParseDuration(v); err == nil {
		return d
	}
	if n, err := strconv.Atoi(v); err == nil {
		return time.Duration(n) * time.Second
	}
	return fallback
}

func envLevel(key string, fallback slog.Level) slog.Level {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	var level slog.Level
	if err := level.UnmarshalText([]byte(v)); err != nil {
		return fallback
	}
	return level
}

func envList(key string, fallback []string) []string {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		result := make([]string, 0, len(parts))
		for _, p := range parts {
			if trimmed := strings.TrimSpace(p); trimmed != "" {
				result = append(result, trimmed)
			}
		}
		if len(result) > 0 {
			return result
		}
	}
	return fallback
}
