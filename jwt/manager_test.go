package jwt

import (
	"errors"
	"testing"
	"time"

	gjwt "github.com/golang-jwt/jwt/v5"
)

var testSecret = []byte("0123456789abcdef0123456789abcdef")

type fakeClock struct{ t time.Time }

func (c *fakeClock) Now() time.Time          { return c.t }
func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestManager(t *testing.T, clock *fakeClock) *Manager {
	t.Helper()
	m, err := NewManager(Config{
		Secret:     testSecret,
		AccessTTL:  30 * time.Minute,
		RefreshTTL: 7 * 24 * time.Hour,
		ResetTTL:   time.Hour,
		Now:        clock.Now,
	})
	if err != nil {
		t.Fatalf("new manager: %v", err)
	}
	return m
}

func TestCreateTokenPairTypes(t *testing.T) {
	clock := &fakeClock{t: time.Unix(1_700_000_000, 0)}
	m := newTestManager(t, clock)

	pair, err := m.CreateTokenPair("42", IdentityClaims{Email: "a@example.com", Username: "alice", IsSuperuser: true})
	if err != nil {
		t.Fatalf("create pair: %v", err)
	}
	if pair.TokenType != "bearer" || pair.ExpiresIn != 1800 {
		t.Fatalf("unexpected pair metadata: %+v", pair)
	}

	access, err := m.Verify(pair.AccessToken)
	if err != nil {
		t.Fatalf("verify access: %v", err)
	}
	if access.Type != TypeAccess || access.Subject != "42" {
		t.Fatalf("unexpected access claims: %+v", access)
	}
	if access.Email != "a@example.com" || access.Username != "alice" || !access.IsSuperuser {
		t.Fatalf("identity claims missing: %+v", access)
	}

	refresh, err := m.Verify(pair.RefreshToken)
	if err != nil {
		t.Fatalf("verify refresh: %v", err)
	}
	if refresh.Type != TypeRefresh || refresh.Email != "" || refresh.IsSuperuser {
		t.Fatalf("refresh token must carry only sub and type: %+v", refresh)
	}
}

func TestVerifyTypeRejectsCrossUse(t *testing.T) {
	clock := &fakeClock{t: time.Unix(1_700_000_000, 0)}
	m := newTestManager(t, clock)

	pair, err := m.CreateTokenPair("7", IdentityClaims{})
	if err != nil {
		t.Fatalf("create pair: %v", err)
	}

	if _, err := m.VerifyType(pair.AccessToken, TypeRefresh); !errors.Is(err, ErrWrongTokenType) {
		t.Fatalf("expected access token to be refused as refresh, got %v", err)
	}
	if _, err := m.VerifyType(pair.RefreshToken, TypeAccess); !errors.Is(err, ErrWrongTokenType) {
		t.Fatalf("expected refresh token to be refused as access, got %v", err)
	}
	if _, err := m.VerifyPasswordReset(pair.AccessToken); !errors.Is(err, ErrWrongTokenType) {
		t.Fatalf("expected access token to be refused as reset, got %v", err)
	}
}

func TestVerifyExpiredToken(t *testing.T) {
	clock := &fakeClock{t: time.Unix(1_700_000_000, 0)}
	m := newTestManager(t, clock)

	pair, err := m.CreateTokenPair("9", IdentityClaims{})
	if err != nil {
		t.Fatalf("create pair: %v", err)
	}

	clock.Advance(31 * time.Minute)
	if _, err := m.Verify(pair.AccessToken); !errors.Is(err, ErrExpiredToken) {
		t.Fatalf("expected expired access token, got %v", err)
	}
	if _, err := m.VerifyType(pair.RefreshToken, TypeRefresh); err != nil {
		t.Fatalf("refresh token should still be valid: %v", err)
	}
}

func TestVerifyRejectsMissingExp(t *testing.T) {
	clock := &fakeClock{t: time.Unix(1_700_000_000, 0)}
	m := newTestManager(t, clock)

	claims := Claims{Type: TypeAccess, RegisteredClaims: gjwt.RegisteredClaims{Subject: "1"}}
	token, err := gjwt.NewWithClaims(gjwt.SigningMethodHS256, claims).SignedString(testSecret)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	if _, err := m.Verify(token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected token without exp to be invalid, got %v", err)
	}
}

func TestVerifyRejectsForeignSignature(t *testing.T) {
	clock := &fakeClock{t: time.Unix(1_700_000_000, 0)}
	m := newTestManager(t, clock)

	claims := Claims{Type: TypeAccess, RegisteredClaims: gjwt.RegisteredClaims{
		Subject:   "1",
		ExpiresAt: gjwt.NewNumericDate(clock.Now().Add(time.Minute)),
	}}
	token, err := gjwt.NewWithClaims(gjwt.SigningMethodHS256, claims).SignedString([]byte("another-secret-another-secret-xx"))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	if _, err := m.Verify(token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected foreign signature to be rejected, got %v", err)
	}
}

func TestVerifyRejectsWrongAlgorithm(t *testing.T) {
	clock := &fakeClock{t: time.Unix(1_700_000_000, 0)}
	m := newTestManager(t, clock)

	claims := Claims{Type: TypeAccess, RegisteredClaims: gjwt.RegisteredClaims{
		Subject:   "1",
		ExpiresAt: gjwt.NewNumericDate(clock.Now().Add(time.Minute)),
	}}
	token, err := gjwt.NewWithClaims(gjwt.SigningMethodHS512, claims).SignedString(testSecret)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	if _, err := m.Verify(token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected HS512 token to be rejected by HS256 manager, got %v", err)
	}
}

func TestPasswordResetRoundTrip(t *testing.T) {
	clock := &fakeClock{t: time.Unix(1_700_000_000, 0)}
	m := newTestManager(t, clock)

	token, err := m.CreatePasswordResetToken("reset@example.com")
	if err != nil {
		t.Fatalf("create reset: %v", err)
	}

	email, err := m.VerifyPasswordReset(token)
	if err != nil {
		t.Fatalf("verify reset: %v", err)
	}
	if email != "reset@example.com" {
		t.Fatalf("unexpected email %q", email)
	}

	clock.Advance(2 * time.Hour)
	if _, err := m.VerifyPasswordReset(token); !errors.Is(err, ErrExpiredToken) {
		t.Fatalf("expected expired reset token, got %v", err)
	}
}

func TestNewManagerValidation(t *testing.T) {
	if _, err := NewManager(Config{Secret: []byte("short"), AccessTTL: time.Minute, RefreshTTL: time.Hour, ResetTTL: time.Hour}); err == nil {
		t.Fatal("expected short secret to be rejected")
	}
	if _, err := NewManager(Config{Secret: testSecret, RefreshTTL: time.Hour, ResetTTL: time.Hour}); err == nil {
		t.Fatal("expected zero access TTL to be rejected")
	}
	if _, err := NewManager(Config{Secret: testSecret, SigningMethod: "RS256", AccessTTL: time.Minute, RefreshTTL: time.Hour, ResetTTL: time.Hour}); err == nil {
		t.Fatal("expected unsupported method to be rejected")
	}
}

// FuzzVerify feeds arbitrary strings to Verify. It must never panic and never
// accept a token it did not sign.
func FuzzVerify(f *testing.F) {
	f.Add("")
	f.Add("a.b.c")
	f.Add("eyJhbGciOiJub25lIn0.eyJzdWIiOiIxIn0.")

	m, err := NewManager(Config{Secret: testSecret, AccessTTL: time.Minute, RefreshTTL: time.Hour, ResetTTL: time.Hour})
	if err != nil {
		f.Fatalf("new manager: %v", err)
	}

	f.Fuzz(func(t *testing.T, input string) {
		if _, err := m.Verify(input); err == nil {
			t.Fatalf("unexpected acceptance of %q", input)
		}
	})
}
