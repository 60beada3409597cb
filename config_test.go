package authsvc

import (
	"testing"
	"time"
)

func TestDefaultConfigNeedsSecret(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err == nil {
		t.Fatal("default config without a secret must not validate")
	}
	cfg.JWT.Secret = []byte("0123456789abcdef0123456789abcdef")
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config with secret: %v", err)
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(*Config)
		wantValid bool
	}{
		{
			name:      "short secret",
			mutate:    func(c *Config) { c.JWT.Secret = []byte("short") },
			wantValid: false,
		},
		{
			name:      "hs512 valid",
			mutate:    func(c *Config) { c.JWT.SigningMethod = "HS512" },
			wantValid: true,
		},
		{
			name:      "asymmetric method invalid",
			mutate:    func(c *Config) { c.JWT.SigningMethod = "RS256" },
			wantValid: false,
		},
		{
			name:      "refresh not longer than access",
			mutate:    func(c *Config) { c.JWT.RefreshTTL = c.JWT.AccessTTL },
			wantValid: false,
		},
		{
			name:      "leeway too large",
			mutate:    func(c *Config) { c.JWT.Leeway = 3 * time.Minute },
			wantValid: false,
		},
		{
			name:      "leeway valid",
			mutate:    func(c *Config) { c.JWT.Leeway = 30 * time.Second },
			wantValid: true,
		},
		{
			name:      "empty namespace",
			mutate:    func(c *Config) { c.Session.Namespace = "" },
			wantValid: false,
		},
		{
			name:      "argon2 memory too low",
			mutate:    func(c *Config) { c.Password.Memory = 1024 },
			wantValid: false,
		},
		{
			name:      "short salt",
			mutate:    func(c *Config) { c.Password.SaltLength = 8 },
			wantValid: false,
		},
		{
			name:      "policy max below min",
			mutate:    func(c *Config) { c.PasswordPolicy.MaxLength = 4 },
			wantValid: false,
		},
		{
			name:      "zero tier disables limiting",
			mutate:    func(c *Config) { c.RateLimit.Loose = RateTier{} },
			wantValid: true,
		},
		{
			name:      "tier without window",
			mutate:    func(c *Config) { c.RateLimit.Strict.Window = 0 },
			wantValid: false,
		},
		{
			name: "audit without buffer",
			mutate: func(c *Config) {
				c.Audit.Enabled = true
				c.Audit.BufferSize = 0
			},
			wantValid: false,
		},
		{
			name:      "trusted proxies valid",
			mutate:    func(c *Config) { c.RateLimit.TrustedProxies = []string{"10.0.0.0/8", "192.0.2.1", "::1"} },
			wantValid: true,
		},
		{
			name:      "trusted proxy hostname invalid",
			mutate:    func(c *Config) { c.RateLimit.TrustedProxies = []string{"lb.internal"} },
			wantValid: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantValid && err != nil {
				t.Fatalf("expected valid, got %v", err)
			}
			if !tt.wantValid && err == nil {
				t.Fatal("expected invalid config")
			}
		})
	}
}

func TestWithConfigCopiesSecret(t *testing.T) {
	cfg := testConfig()
	b := New().WithConfig(cfg)
	cfg.JWT.Secret[0] = 'X'
	if b.config.JWT.Secret[0] == 'X' {
		t.Fatal("builder must not alias the caller's secret")
	}
}
