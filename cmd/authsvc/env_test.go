package main

import (
	"testing"
	"time"
)

func TestLoadSettingsRequiresSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "")
	if _, err := loadSettings(); err == nil {
		t.Fatal("expected error without JWT_SECRET")
	}
}

func TestLoadSettingsRejectsShortSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "too-short")
	if _, err := loadSettings(); err == nil {
		t.Fatal("expected validation error for short secret")
	}
}

func TestLoadSettingsMapsEnvironment(t *testing.T) {
	t.Setenv("JWT_SECRET", "0123456789abcdef0123456789abcdef")
	t.Setenv("ACCESS_TOKEN_TTL_MINUTES", "15")
	t.Setenv("REFRESH_TOKEN_TTL_DAYS", "3")
	t.Setenv("PASSWORD_RESET_TTL_HOURS", "2")
	t.Setenv("FEATURE_USER_REGISTRATION", "false")
	t.Setenv("FEATURE_WEBSOCKET", "0")
	t.Setenv("RATE_LIMIT_STRICT", "4")
	t.Setenv("RATE_LIMIT_NORMAL", "not-a-number")
	t.Setenv("PASSWORD_MIN_LENGTH", "12")
	t.Setenv("WS_ALLOWED_ORIGINS", "https://a.example, https://b.example ,")
	t.Setenv("TRUSTED_PROXIES", "10.0.0.0/8, 192.0.2.1")
	t.Setenv("PORT", "9090")

	s, err := loadSettings()
	if err != nil {
		t.Fatalf("loadSettings: %v", err)
	}

	cfg := s.Engine
	if cfg.JWT.AccessTTL != 15*time.Minute {
		t.Fatalf("AccessTTL = %s", cfg.JWT.AccessTTL)
	}
	if cfg.JWT.RefreshTTL != 72*time.Hour {
		t.Fatalf("RefreshTTL = %s", cfg.JWT.RefreshTTL)
	}
	if cfg.JWT.ResetTTL != 2*time.Hour {
		t.Fatalf("ResetTTL = %s", cfg.JWT.ResetTTL)
	}
	if cfg.Features.UserRegistration || cfg.Features.WebSocket {
		t.Fatalf("features not disabled: %+v", cfg.Features)
	}
	if cfg.RateLimit.Strict.Limit != 4 {
		t.Fatalf("strict limit = %d", cfg.RateLimit.Strict.Limit)
	}
	if cfg.RateLimit.Normal.Limit != 60 {
		t.Fatalf("malformed normal limit should keep default, got %d", cfg.RateLimit.Normal.Limit)
	}
	if cfg.PasswordPolicy.MinLength != 12 {
		t.Fatalf("MinLength = %d", cfg.PasswordPolicy.MinLength)
	}
	if len(s.AllowedOrigins) != 2 || s.AllowedOrigins[1] != "https://b.example" {
		t.Fatalf("origins = %v", s.AllowedOrigins)
	}
	if len(cfg.RateLimit.TrustedProxies) != 2 || cfg.RateLimit.TrustedProxies[0] != "10.0.0.0/8" {
		t.Fatalf("trusted proxies = %v", cfg.RateLimit.TrustedProxies)
	}
	if s.Port != "9090" {
		t.Fatalf("port = %q", s.Port)
	}
}
