package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("APP_ENV", "")
	t.Setenv("HTTP_ADDR", "")
	t.Setenv("JWT_EXPIRY", "")
	t.Setenv("WS_FLOOR_POLL_INTERVAL", "")
	t.Setenv("CORS_ALLOWED_ORIGINS", "")

	cfg := Load()
	if cfg.Env != "development" {
		t.Fatalf("expected development env, got %s", cfg.Env)
	}
	if cfg.HTTPAddr != ":8084" {
		t.Fatalf("unexpected default addr: %s", cfg.HTTPAddr)
	}
	if cfg.JWTExpirySeconds != 43200 {
		t.Fatalf("unexpected default expiry: %d", cfg.JWTExpirySeconds)
	}
	if cfg.WSFloorPollInterval != 5*time.Second {
		t.Fatalf("unexpected floor poll interval: %s", cfg.WSFloorPollInterval)
	}
	if cfg.CorsAllowedOrigins != nil {
		t.Fatalf("expected no CORS origins, got %v", cfg.CorsAllowedOrigins)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	t.Setenv("HTTP_ADDR", ":9000")
	t.Setenv("JWT_EXPIRY", "600")
	t.Setenv("WS_STATION_POLL_INTERVAL", "10s")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://sala.local, https://cucina.local")
	t.Setenv("MAX_FILE_SIZE", "-1")

	cfg := Load()
	if cfg.Env != "production" || cfg.HTTPAddr != ":9000" {
		t.Fatalf("env overrides not applied: %+v", cfg)
	}
	if cfg.JWTExpirySeconds != 600 {
		t.Fatalf("expected expiry 600, got %d", cfg.JWTExpirySeconds)
	}
	if cfg.WSStationPollInterval != 10*time.Second {
		t.Fatalf("expected 10s station poll, got %s", cfg.WSStationPollInterval)
	}
	if len(cfg.CorsAllowedOrigins) != 2 || cfg.CorsAllowedOrigins[1] != "https://cucina.local" {
		t.Fatalf("unexpected origins: %v", cfg.CorsAllowedOrigins)
	}
	if cfg.MaxFileSizeBytes != 5*1024*1024 {
		t.Fatalf("expected invalid max size to fall back, got %d", cfg.MaxFileSizeBytes)
	}
}

func TestGetEnvDurationInvalid(t *testing.T) {
	t.Setenv("WS_FLOOR_POLL_INTERVAL", "not-a-duration")
	cfg := Load()
	if cfg.WSFloorPollInterval != 5*time.Second {
		t.Fatalf("expected fallback interval, got %s", cfg.WSFloorPollInterval)
	}
}
