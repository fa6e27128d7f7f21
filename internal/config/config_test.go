package config

import (
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	for _, key := range []string{"PORT", "API_BASE_URL", "API_TIMEOUT", "MAX_UPLOAD_MB", "SESSION_STORE", "SESSION_TTL"} {
		t.Setenv(key, "")
	}

	cfg := Load()

	if cfg.Port != 8080 {
		t.Errorf("Expected port 8080, got %d", cfg.Port)
	}
	if cfg.APIBaseURL != DefaultAPIBaseURL {
		t.Errorf("Expected default API base URL, got %s", cfg.APIBaseURL)
	}
	if cfg.APITimeout != 0 {
		t.Errorf("Expected no API timeout by default, got %v", cfg.APITimeout)
	}
	if cfg.MaxUploadSize != 10<<20 {
		t.Errorf("Expected 10MB upload limit, got %d", cfg.MaxUploadSize)
	}
	if cfg.SessionStore != "memory" {
		t.Errorf("Expected memory session store, got %s", cfg.SessionStore)
	}
	if cfg.SessionTTL != 30*time.Minute {
		t.Errorf("Expected 30m TTL, got %v", cfg.SessionTTL)
	}
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("API_BASE_URL", "http://inference.local:8000/")
	t.Setenv("API_TIMEOUT", "15")
	t.Setenv("SESSION_STORE", "SQLite")
	t.Setenv("SESSION_TTL", "2h")

	cfg := Load()

	if cfg.Port != 9090 {
		t.Errorf("Expected port 9090, got %d", cfg.Port)
	}
	if cfg.APIBaseURL != "http://inference.local:8000" {
		t.Errorf("Expected trailing slash trimmed, got %s", cfg.APIBaseURL)
	}
	if cfg.APITimeout != 15*time.Second {
		t.Errorf("Expected 15s timeout, got %v", cfg.APITimeout)
	}
	if cfg.SessionStore != "sqlite" {
		t.Errorf("Expected sqlite store, got %s", cfg.SessionStore)
	}
	if cfg.SessionTTL != 2*time.Hour {
		t.Errorf("Expected 2h TTL, got %v", cfg.SessionTTL)
	}
}

func TestGetEnvAsInt_InvalidFallsBack(t *testing.T) {
	t.Setenv("PREVIEW_SIZE", "big")
	if got := getEnvAsInt("PREVIEW_SIZE", 512); got != 512 {
		t.Errorf("Expected fallback 512, got %d", got)
	}
}
