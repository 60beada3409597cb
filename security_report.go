package authsvc

import "github.com/MrEthical07/authsvc/internal/security"

// SecurityReport is a read-only snapshot of the engine's security posture.
type SecurityReport = security.Report

// SecurityReport describes the effective configuration and lists settings
// weaker than the recommended defaults. A zero engine reports nothing.
func (e *Engine) SecurityReport() SecurityReport {
	if !e.ready() {
		return SecurityReport{}
	}

	cfg := e.config
	return security.BuildReport(security.ReportInput{
		SigningAlgorithm: cfg.JWT.SigningMethod,
		AccessTTL:        cfg.JWT.AccessTTL,
		RefreshTTL:       cfg.JWT.RefreshTTL,
		ResetTTL:         cfg.JWT.ResetTTL,
		Password: security.PasswordReport{
			Memory:      cfg.Password.Memory,
			Time:        cfg.Password.Time,
			Parallelism: cfg.Password.Parallelism,
			SaltLength:  cfg.Password.SaltLength,
			KeyLength:   cfg.Password.KeyLength,
		},
		RehashOnLogin:        cfg.Password.UpgradeOnLogin,
		PasswordMinLength:    cfg.PasswordPolicy.MinLength,
		RateLimitEnabled:     cfg.RateLimit.Enabled,
		StrictLimit:          cfg.RateLimit.Strict.Limit,
		NormalLimit:          cfg.RateLimit.Normal.Limit,
		EmailVerification:    cfg.Features.EmailVerification,
		Registration:         cfg.Features.UserRegistration,
		RevokeAccessOnLogout: cfg.Session.RevokeAccessOnLogout,
		WebSocket:            cfg.Features.WebSocket,
		Audit:                cfg.Audit.Enabled,
	})
}
