package security

import (
	"fmt"
	"time"
)

// minArgon2Memory is the smallest argon2id memory cost (KiB) reported as
// adequate.
const minArgon2Memory = 19 * 1024

type PasswordReport struct {
	Memory      uint32
	Time        uint32
	Parallelism uint8
	SaltLength  uint32
	KeyLength   uint32
}

// Report summarises the effective security posture of an engine.
type Report struct {
	SigningAlgorithm        string
	AccessTTL               time.Duration
	RefreshTTL              time.Duration
	ResetTTL                time.Duration
	Argon2                  PasswordReport
	RehashOnLogin           bool
	PasswordMinLength       int
	RateLimitingActive      bool
	EmailVerificationActive bool
	RegistrationOpen        bool
	RevokeAccessOnLogout    bool
	WebSocketEnabled        bool
	AuditEnabled            bool
	Warnings                []string
}

type ReportInput struct {
	SigningAlgorithm     string
	AccessTTL            time.Duration
	RefreshTTL           time.Duration
	ResetTTL             time.Duration
	Password             PasswordReport
	RehashOnLogin        bool
	PasswordMinLength    int
	RateLimitEnabled     bool
	StrictLimit          int
	NormalLimit          int
	EmailVerification    bool
	Registration         bool
	RevokeAccessOnLogout bool
	WebSocket            bool
	Audit                bool
}

func BuildReport(input ReportInput) Report {
	rateLimiting := input.RateLimitEnabled && (input.StrictLimit > 0 || input.NormalLimit > 0)

	r := Report{
		SigningAlgorithm:        input.SigningAlgorithm,
		AccessTTL:               input.AccessTTL,
		RefreshTTL:              input.RefreshTTL,
		ResetTTL:                input.ResetTTL,
		Argon2:                  input.Password,
		RehashOnLogin:           input.RehashOnLogin,
		PasswordMinLength:       input.PasswordMinLength,
		RateLimitingActive:      rateLimiting,
		EmailVerificationActive: input.EmailVerification,
		RegistrationOpen:        input.Registration,
		RevokeAccessOnLogout:    input.RevokeAccessOnLogout,
		WebSocketEnabled:        input.WebSocket,
		AuditEnabled:            input.Audit,
	}

	if !rateLimiting {
		r.Warnings = append(r.Warnings, "rate limiting is off; login and reset endpoints are unthrottled")
	}
	if input.Password.Memory < minArgon2Memory {
		r.Warnings = append(r.Warnings, fmt.Sprintf("argon2id memory %d KiB is below %d KiB", input.Password.Memory, minArgon2Memory))
	}
	if input.PasswordMinLength < 8 {
		r.Warnings = append(r.Warnings, fmt.Sprintf("password minimum length %d is below 8", input.PasswordMinLength))
	}
	if !input.RevokeAccessOnLogout && input.AccessTTL > time.Hour {
		r.Warnings = append(r.Warnings, fmt.Sprintf("access tokens stay valid for up to %s after logout", input.AccessTTL))
	}
	if input.ResetTTL > 24*time.Hour {
		r.Warnings = append(r.Warnings, fmt.Sprintf("password reset tokens live %s", input.ResetTTL))
	}

	return r
}
