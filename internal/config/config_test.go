package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()

	if cfg.Port != "8000" {
		t.Errorf("expected default port 8000, got %s", cfg.Port)
	}
	if cfg.GeminiModel != "gemini-2.5-flash" {
		t.Errorf("unexpected default model: %s", cfg.GeminiModel)
	}
	if cfg.RetrievalTopK != 4 {
		t.Errorf("expected top-k 4, got %d", cfg.RetrievalTopK)
	}
	if cfg.SessionTTL != 24*time.Hour {
		t.Errorf("expected 24h session TTL, got %s", cfg.SessionTTL)
	}
	if cfg.AppointmentsFile != "data/appointments.json" {
		t.Errorf("unexpected appointments file: %s", cfg.AppointmentsFile)
	}
}

func TestGeminiKeyFallback(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "")
	t.Setenv("GOOGLE_API_KEY", "google-key")
	if got := geminiAPIKey(); got != "google-key" {
		t.Errorf("expected fallback to GOOGLE_API_KEY, got %q", got)
	}

	t.Setenv("GEMINI_API_KEY", "gemini-key")
	if got := geminiAPIKey(); got != "gemini-key" {
		t.Errorf("expected GEMINI_API_KEY to win, got %q", got)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("SESSION_TTL", "1h")
	t.Setenv("HISTORY_LIMIT", "5")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://clinic.example, https://www.clinic.example")

	cfg := Load()
	if cfg.Port != "9090" {
		t.Errorf("expected port override, got %s", cfg.Port)
	}
	if cfg.SessionTTL != time.Hour {
		t.Errorf("expected 1h TTL, got %s", cfg.SessionTTL)
	}
	if cfg.HistoryLimit != 5 {
		t.Errorf("expected history limit 5, got %d", cfg.HistoryLimit)
	}
	if len(cfg.CORSAllowedOrigins) != 2 || cfg.CORSAllowedOrigins[0] != "https://clinic.example" {
		t.Errorf("unexpected origins: %#v", cfg.CORSAllowedOrigins)
	}
}
