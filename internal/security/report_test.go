package security

import (
	"strings"
	"testing"
	"time"
)

func hardenedInput() ReportInput {
	return ReportInput{
		SigningAlgorithm:  "HS256",
		AccessTTL:         30 * time.Minute,
		RefreshTTL:        7 * 24 * time.Hour,
		ResetTTL:          time.Hour,
		Password:          PasswordReport{Memory: 64 * 1024, Time: 3, Parallelism: 1, SaltLength: 16, KeyLength: 32},
		PasswordMinLength: 8,
		RateLimitEnabled:  true,
		StrictLimit:       10,
		NormalLimit:       60,
	}
}

func TestBuildReportHardenedHasNoWarnings(t *testing.T) {
	r := BuildReport(hardenedInput())
	if len(r.Warnings) != 0 {
		t.Fatalf("unexpected warnings: %v", r.Warnings)
	}
	if !r.RateLimitingActive {
		t.Fatal("expected rate limiting active")
	}
}

func TestBuildReportWarnings(t *testing.T) {
	in := hardenedInput()
	in.RateLimitEnabled = false
	in.Password.Memory = 8 * 1024
	in.PasswordMinLength = 6
	in.AccessTTL = 2 * time.Hour
	in.ResetTTL = 48 * time.Hour

	r := BuildReport(in)
	if r.RateLimitingActive {
		t.Fatal("rate limiting reported active while disabled")
	}
	joined := strings.Join(r.Warnings, "\n")
	for _, want := range []string{"rate limiting is off", "argon2id memory", "minimum length 6", "after logout", "reset tokens live"} {
		if !strings.Contains(joined, want) {
			t.Fatalf("missing warning %q in:\n%s", want, joined)
		}
	}
}

func TestBuildReportRevokeOnLogoutSilencesTTLWarning(t *testing.T) {
	in := hardenedInput()
	in.AccessTTL = 2 * time.Hour
	in.RevokeAccessOnLogout = true

	if r := BuildReport(in); len(r.Warnings) != 0 {
		t.Fatalf("unexpected warnings: %v", r.Warnings)
	}
}
