package authsvc

import (
	"errors"
	"net/netip"
	"slices"
	"strings"
	"time"

	"github.com/MrEthical07/authsvc/internal/rate"
	"github.com/MrEthical07/authsvc/jwt"
	"github.com/MrEthical07/authsvc/password"
)

// Config is the complete Engine configuration. Start from DefaultConfig and
// override what differs; Builder.Build validates the result.
type Config struct {
	JWT            JWTConfig
	Session        SessionConfig
	Redis          RedisConfig
	Password       PasswordConfig
	PasswordPolicy password.Policy
	Features       FeatureConfig
	RateLimit      RateLimitConfig
	Audit          AuditConfig
	Metrics        MetricsConfig
}

/*
====================================
JWT CONFIG
====================================
*/

// JWTConfig controls token signing and lifetimes.
type JWTConfig struct {
	Secret        []byte
	SigningMethod string // "HS256" (default), "HS384" or "HS512"
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
	ResetTTL      time.Duration
	Issuer        string
	Leeway        time.Duration
}

/*
====================================
SESSION CONFIG
====================================
*/

// SessionConfig controls the Redis session store and logout behaviour.
type SessionConfig struct {
	// Namespace prefixes every session and rate-limit key.
	Namespace string
	TTL       time.Duration
	// RevokeAccessOnLogout blacklists the caller's access token on logout.
	// Off by default: logout ends the session and the access token lives
	// until it expires.
	RevokeAccessOnLogout bool
}

// RedisConfig bounds every store call.
type RedisConfig struct {
	OpTimeout time.Duration
}

/*
====================================
PASSWORD CONFIG
====================================
*/

// PasswordConfig holds argon2id parameters.
type PasswordConfig struct {
	Memory         uint32 // in KB
	Time           uint32
	Parallelism    uint8
	SaltLength     uint32
	KeyLength      uint32
	UpgradeOnLogin bool
}

/*
====================================
FEATURES / RATE LIMIT
====================================
*/

// FeatureConfig toggles optional product surfaces.
type FeatureConfig struct {
	UserRegistration  bool
	EmailVerification bool
	WebSocket         bool
}

// RateLimitConfig holds the three request tiers. A tier with Limit 0 is not
// enforced.
type RateLimitConfig struct {
	Enabled bool
	Strict  RateTier
	Normal  RateTier
	Loose   RateTier
	// TrustedProxies are the IPs or CIDR ranges allowed to set
	// X-Forwarded-For. Empty keys every request on its TCP peer.
	TrustedProxies []string
}

/*
====================================
AUDIT / METRICS
====================================
*/

// AuditConfig controls the asynchronous audit dispatcher.
type AuditConfig struct {
	Enabled    bool
	BufferSize int
	DropIfFull bool
}

// DefaultConfig returns production defaults. JWT.Secret is left empty and
// must be supplied.
func DefaultConfig() Config {
	return Config{
		JWT: JWTConfig{
			SigningMethod: string(jwt.MethodHS256),
			AccessTTL:     30 * time.Minute,
			RefreshTTL:    7 * 24 * time.Hour,
			ResetTTL:      time.Hour,
		},
		Session: SessionConfig{
			Namespace:            "authsvc",
			TTL:                  24 * time.Hour,
			RevokeAccessOnLogout: false,
		},
		Redis: RedisConfig{
			OpTimeout: 2 * time.Second,
		},
		Password: PasswordConfig{
			Memory:         64 * 1024,
			Time:           3,
			Parallelism:    1,
			SaltLength:     16,
			KeyLength:      32,
			UpgradeOnLogin: true,
		},
		PasswordPolicy: password.DefaultPolicy(),
		Features: FeatureConfig{
			UserRegistration:  true,
			EmailVerification: false,
			WebSocket:         true,
		},
		RateLimit: RateLimitConfig{
			Enabled: true,
			Strict:  rate.Strict,
			Normal:  rate.Normal,
			Loose:   rate.Loose,
		},
		Audit: AuditConfig{
			Enabled:    false,
			BufferSize: 1024,
			DropIfFull: true,
		},
		Metrics: MetricsConfig{
			Enabled:                 false,
			EnableLatencyHistograms: false,
		},
	}
}

func cloneConfig(cfg Config) Config {
	out := cfg
	out.JWT.Secret = cloneBytes(cfg.JWT.Secret)
	out.RateLimit.TrustedProxies = slices.Clone(cfg.RateLimit.TrustedProxies)
	return out
}

func cloneBytes(b []byte) []byte {
	if len(b) == 0 {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}

/*
====================================
VALIDATION
====================================
*/

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	// JWT
	if len(c.JWT.Secret) < 32 {
		return errors.New("JWT Secret must be at least 32 bytes")
	}
	switch jwt.SigningMethod(c.JWT.SigningMethod) {
	case jwt.MethodHS256, jwt.MethodHS384, jwt.MethodHS512:
	default:
		return errors.New("JWT SigningMethod must be HS256, HS384 or HS512")
	}
	if c.JWT.AccessTTL <= 0 {
		return errors.New("JWT AccessTTL must be > 0")
	}
	if c.JWT.RefreshTTL <= c.JWT.AccessTTL {
		return errors.New("JWT RefreshTTL must be greater than AccessTTL")
	}
	if c.JWT.ResetTTL <= 0 {
		return errors.New("JWT ResetTTL must be > 0")
	}
	if c.JWT.Leeway < 0 || c.JWT.Leeway > 2*time.Minute {
		return errors.New("JWT Leeway must be between 0 and 2m")
	}

	// Session
	if c.Session.Namespace == "" {
		return errors.New("Session Namespace must not be empty")
	}
	if c.Session.TTL <= 0 {
		return errors.New("Session TTL must be > 0")
	}
	if c.Redis.OpTimeout <= 0 {
		return errors.New("Redis OpTimeout must be > 0")
	}

	// Password
	if c.Password.Memory < 8*1024 {
		return errors.New("Password Memory must be >= 8192 KB")
	}
	if c.Password.Time < 1 {
		return errors.New("Password Time must be >= 1")
	}
	if c.Password.Parallelism < 1 {
		return errors.New("Password Parallelism must be >= 1")
	}
	if c.Password.SaltLength < 16 {
		return errors.New("Password SaltLength must be >= 16")
	}
	if c.Password.KeyLength < 16 {
		return errors.New("Password KeyLength must be >= 16")
	}

	// Password policy
	p := c.PasswordPolicy
	if p.MinLength < 1 {
		return errors.New("PasswordPolicy MinLength must be >= 1")
	}
	if p.MaxLength < p.MinLength {
		return errors.New("PasswordPolicy MaxLength must be >= MinLength")
	}
	if p.MinUniqueChars < 0 || p.MinUniqueChars > p.MaxLength {
		return errors.New("PasswordPolicy MinUniqueChars must be between 0 and MaxLength")
	}

	// Rate limit
	if c.RateLimit.Enabled {
		for name, tier := range map[string]RateTier{
			"Strict": c.RateLimit.Strict,
			"Normal": c.RateLimit.Normal,
			"Loose":  c.RateLimit.Loose,
		} {
			if tier.Limit < 0 {
				return errors.New("RateLimit " + name + " Limit must be >= 0")
			}
			if tier.Limit > 0 && tier.Window <= 0 {
				return errors.New("RateLimit " + name + " Window must be > 0")
			}
		}
	}

	for _, entry := range c.RateLimit.TrustedProxies {
		if !validProxyEntry(strings.TrimSpace(entry)) {
			return errors.New("RateLimit TrustedProxies entry " + entry + " is not an IP or CIDR")
		}
	}

	// Audit
	if c.Audit.Enabled && c.Audit.BufferSize <= 0 {
		return errors.New("Audit BufferSize must be > 0 when audit is enabled")
	}

	return nil
}

func validProxyEntry(entry string) bool {
	if strings.Contains(entry, "/") {
		_, err := netip.ParsePrefix(entry)
		return err == nil
	}
	_, err := netip.ParseAddr(entry)
	return err == nil
}
