package config

import (
	"log/slog"
	"testing"
	"time"
)

// These tests use t.Setenv and so cannot run in parallel.

func TestLoadRequiresDatabase(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	t.Setenv("SUPABASE_DB_URL", "")

	if _, err := Load(); err == nil {
		t.Fatal("Load() error = nil, want missing DATABASE_URL")
	}
	if cfg := LoadWithoutDatabase(); cfg == nil {
		t.Fatal("LoadWithoutDatabase() = nil")
	}
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/reports")
	for _, k := range []string{"PUSH_TIMEOUT", "DISPATCH_WORKERS", "TOKEN_CACHE_ENABLED", "LOG_LEVEL", "DEBUG", "FCM_BASE_URL", "API_PORT", "PORT"} {
		t.Setenv(k, "")
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.PushTimeout != 10*time.Second {
		t.Errorf("PushTimeout = %v, want 10s", cfg.PushTimeout)
	}
	if cfg.DispatchWorkers != 4 {
		t.Errorf("DispatchWorkers = %d, want 4", cfg.DispatchWorkers)
	}
	if !cfg.TokenCacheEnabled {
		t.Error("TokenCacheEnabled = false, want true")
	}
	if cfg.LogLevel != slog.LevelInfo {
		t.Errorf("LogLevel = %v, want INFO", cfg.LogLevel)
	}
	if cfg.FCMBaseURL != "https://fcm.googleapis.com" {
		t.Errorf("FCMBaseURL = %q", cfg.FCMBaseURL)
	}
	if cfg.APIPort != 8000 {
		t.Errorf("APIPort = %d, want 8000", cfg.APIPort)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/reports")
	t.Setenv("PUSH_TIMEOUT", "3")
	t.Setenv("DISPATCH_WORKERS", "8")
	t.Setenv("TOKEN_CACHE_ENABLED", "false")
	t.Setenv("LOG_LEVEL", "warn")
	t.Setenv("CORS_ALLOW_ORIGINS", "https://a.example, https://b.example")
	t.Setenv("FIREBASE_SERVICE_ACCOUNT", `{"client_email":"x"}`)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.PushTimeout != 3*time.Second {
		t.Errorf("PushTimeout = %v, want 3s", cfg.PushTimeout)
	}
	if cfg.DispatchWorkers != 8 {
		t.Errorf("DispatchWorkers = %d, want 8", cfg.DispatchWorkers)
	}
	if cfg.TokenCacheEnabled {
		t.Error("TokenCacheEnabled = true, want false")
	}
	if cfg.LogLevel != slog.LevelWarn {
		t.Errorf("LogLevel = %v, want WARN", cfg.LogLevel)
	}
	if len(cfg.CORSAllowOrigins) != 2 || cfg.CORSAllowOrigins[1] != "https://b.example" {
		t.Errorf("CORSAllowOrigins = %v", cfg.CORSAllowOrigins)
	}
	if !cfg.HasCredential() {
		t.Error("HasCredential() = false, want true")
	}
}

func TestEnvDuration(t *testing.T) {
	tests := []struct {
		value string
		want  time.Duration
	}{
		{"", 10 * time.Second},
		{"1500ms", 1500 * time.Millisecond},
		{"20", 20 * time.Second},
		{"soon", 10 * time.Second},
	}
	for _, tc := range tests {
		t.Run(tc.value, func(t *testing.T) {
			t.Setenv("TEST_DURATION", tc.value)
			if got := envDuration("TEST_DURATION", 10*time.Second); got != tc.want {
				t.Errorf("envDuration(%q) = %v, want %v", tc.value, got, tc.want)
			}
		})
	}
}
