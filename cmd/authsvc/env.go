package main

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/MrEthical07/authsvc"
)

type settings struct {
	Port           string
	Environment    string
	Release        string
	RedisURL       string
	DatabaseURL    string
	SentryDSN      string
	LogFormat      string
	LogLevel       string
	AuditLog       bool
	AllowedOrigins []string

	Engine authsvc.Config
}

// loadSettings maps the process environment onto the engine configuration.
// Unset or malformed numeric values keep their defaults.
func loadSettings() (settings, error) {
	secret := strings.TrimSpace(os.Getenv("JWT_SECRET"))
	if secret == "" {
		return settings{}, errors.New("missing required env: JWT_SECRET")
	}

	cfg := authsvc.DefaultConfig()
	cfg.JWT.Secret = []byte(secret)
	cfg.JWT.Issuer = envOrDefault("JWT_ISSUER", "")
	cfg.JWT.SigningMethod = envOrDefault("JWT_ALGORITHM", cfg.JWT.SigningMethod)
	cfg.JWT.AccessTTL = envMinutesOrDefault("ACCESS_TOKEN_TTL_MINUTES", 30)
	cfg.JWT.RefreshTTL = envDaysOrDefault("REFRESH_TOKEN_TTL_DAYS", 7)
	cfg.JWT.ResetTTL = envHoursOrDefault("PASSWORD_RESET_TTL_HOURS", 1)

	cfg.Session.Namespace = envOrDefault("REDIS_NAMESPACE", cfg.Session.Namespace)
	cfg.Session.TTL = envHoursOrDefault("SESSION_TTL_HOURS", 24)
	cfg.Session.RevokeAccessOnLogout = envBoolOrDefault("REVOKE_ACCESS_ON_LOGOUT", false)

	cfg.Features.UserRegistration = envBoolOrDefault("FEATURE_USER_REGISTRATION", true)
	cfg.Features.EmailVerification = envBoolOrDefault("FEATURE_EMAIL_VERIFICATION", false)
	cfg.Features.WebSocket = envBoolOrDefault("FEATURE_WEBSOCKET", true)

	cfg.RateLimit.Enabled = envBoolOrDefault("RATE_LIMIT_ENABLED", true)
	cfg.RateLimit.Strict.Limit = envIntOrDefault("RATE_LIMIT_STRICT", cfg.RateLimit.Strict.Limit)
	cfg.RateLimit.Normal.Limit = envIntOrDefault("RATE_LIMIT_NORMAL", cfg.RateLimit.Normal.Limit)
	cfg.RateLimit.Loose.Limit = envIntOrDefault("RATE_LIMIT_LOOSE", cfg.RateLimit.Loose.Limit)
	cfg.RateLimit.TrustedProxies = envListOrNil("TRUSTED_PROXIES")

	cfg.PasswordPolicy.MinLength = envIntOrDefault("PASSWORD_MIN_LENGTH", cfg.PasswordPolicy.MinLength)
	cfg.Metrics.Enabled = envBoolOrDefault("METRICS_ENABLED", true)
	cfg.Metrics.EnableLatencyHistograms = envBoolOrDefault("METRICS_LATENCY_HISTOGRAMS", false)

	if err := cfg.Validate(); err != nil {
		return settings{}, err
	}

	origins := envListOrNil("WS_ALLOWED_ORIGINS")

	return settings{
		Port:           envOrDefault("PORT", "8000"),
		Environment:    envOrDefault("APP_ENV", "development"),
		Release:        envOrDefault("APP_VERSION", ""),
		RedisURL:       envOrDefault("REDIS_URL", "redis://localhost:6379/0"),
		DatabaseURL:    strings.TrimSpace(os.Getenv("DATABASE_URL")),
		SentryDSN:      strings.TrimSpace(os.Getenv("SENTRY_DSN")),
		LogFormat:      envOrDefault("LOG_FORMAT", "json"),
		LogLevel:       envOrDefault("LOG_LEVEL", "info"),
		AuditLog:       envBoolOrDefault("AUDIT_LOG", false),
		AllowedOrigins: origins,
		Engine:         cfg,
	}, nil
}

func envOrDefault(name, fallback string) string {
	value := strings.TrimSpace(os.Getenv(name))
	if value == "" {
		return fallback
	}
	return value
}

func envListOrNil(name string) []string {
	var out []string
	for _, v := range strings.Split(os.Getenv(name), ",") {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

func envIntOrDefault(name string, fallback int) int {
	value := strings.TrimSpace(os.Getenv(name))
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil || parsed <= 0 {
		return fallback
	}
	return parsed
}

func envBoolOrDefault(name string, fallback bool) bool {
	value := strings.TrimSpace(os.Getenv(name))
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func envMinutesOrDefault(name string, fallback int) time.Duration {
	return time.Duration(envIntOrDefault(name, fallback)) * time.Minute
}

func envHoursOrDefault(name string, fallback int) time.Duration {
	return time.Duration(envIntOrDefault(name, fallback)) * time.Hour
}

func envDaysOrDefault(name string, fallback int) time.Duration {
	return time.Duration(envIntOrDefault(name, fallback)) * 24 * time.Hour
}
