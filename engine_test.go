package authsvc

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/MrEthical07/authsvc/userstore"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

const (
	testPassword    = "Str0ng!Pass#word"
	testNewPassword = "N3w!Secret#Key9"
)

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.JWT.Secret = []byte("0123456789abcdef0123456789abcdef")
	cfg.Password.Memory = 8 * 1024
	cfg.Password.Time = 1
	return cfg
}

type testEnv struct {
	engine *Engine
	users  *userstore.Memory
	mr     *miniredis.Miniredis
	rdb    *redis.Client
}

func newTestEngine(t *testing.T, mutate func(*Config), opts ...func(*Builder)) testEnv {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis: %v", err)
	}
	t.Cleanup(mr.Close)

	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	cfg := testConfig()
	if mutate != nil {
		mutate(&cfg)
	}

	users := userstore.NewMemory()
	b := New().WithConfig(cfg).WithRedis(rdb).WithUserStore(users)
	for _, opt := range opts {
		opt(b)
	}
	engine, err := b.Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	t.Cleanup(engine.Close)

	return testEnv{engine: engine, users: users, mr: mr, rdb: rdb}
}

func (env testEnv) register(t *testing.T, email, username string) PublicUser {
	t.Helper()
	u, err := env.engine.Register(context.Background(), RegisterRequest{
		Email:    email,
		Username: username,
		Password: testPassword,
	})
	if err != nil {
		t.Fatalf("Register(%s): %v", email, err)
	}
	return u
}

func (env testEnv) login(t *testing.T, identifier string) *LoginResult {
	t.Helper()
	res, err := env.engine.Login(context.Background(), identifier, testPassword)
	if err != nil {
		t.Fatalf("Login(%s): %v", identifier, err)
	}
	return res
}

func (env testEnv) makeSuperuser(t *testing.T, id string) {
	t.Helper()
	ctx := context.Background()
	u, found, err := env.users.GetByID(ctx, id)
	if err != nil || !found {
		t.Fatalf("GetByID(%s): found=%v err=%v", id, found, err)
	}
	u.IsSuperuser = true
	if _, err := env.users.Update(ctx, u); err != nil {
		t.Fatalf("Update: %v", err)
	}
}

func TestBuildRequiresCollaborators(t *testing.T) {
	if _, err := New().WithConfig(testConfig()).Build(); err == nil {
		t.Fatal("expected error without redis")
	}

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()

	if _, err := New().WithConfig(testConfig()).WithRedis(rdb).Build(); err == nil {
		t.Fatal("expected error without user store")
	}

	b := New().WithConfig(testConfig()).WithRedis(rdb).WithUserStore(userstore.NewMemory())
	engine, err := b.Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	defer engine.Close()
	if _, err := b.Build(); err == nil {
		t.Fatal("expected error on second Build")
	}
}

func TestZeroEngineNotReady(t *testing.T) {
	var e Engine
	if _, err := e.Login(context.Background(), "a@b.co", "x"); !errors.Is(err, ErrEngineNotReady) {
		t.Fatalf("expected ErrEngineNotReady, got %v", err)
	}
	if _, err := e.Authenticate(context.Background(), "tok"); !errors.Is(err, ErrEngineNotReady) {
		t.Fatalf("expected ErrEngineNotReady, got %v", err)
	}
}

func TestRegisterAndLogin(t *testing.T) {
	env := newTestEngine(t, nil)
	ctx := WithUserAgent(WithClientIP(context.Background(), "10.0.0.1"), "test-agent")

	u, err := env.engine.Register(ctx, RegisterRequest{Email: "  Alice@Example.COM ", Password: testPassword})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if u.Email != "alice@example.com" {
		t.Fatalf("expected sanitized email, got %q", u.Email)
	}
	if u.Username != "alice" {
		t.Fatalf("expected username from local part, got %q", u.Username)
	}
	if !u.IsActive || !u.EmailVerified {
		t.Fatalf("unexpected flags: %+v", u)
	}

	for _, identifier := range []string{"alice@example.com", "alice"} {
		res, err := env.engine.Login(ctx, identifier, testPassword)
		if err != nil {
			t.Fatalf("Login(%s): %v", identifier, err)
		}
		if res.Tokens.AccessToken == "" || res.Tokens.RefreshToken == "" {
			t.Fatal("expected both tokens")
		}
		if res.Tokens.TokenType != "bearer" || res.Tokens.ExpiresIn != int64((30*time.Minute)/time.Second) {
			t.Fatalf("unexpected pair metadata: %+v", res.Tokens)
		}

		rec, found, err := env.engine.Sessions().Get(context.Background(), res.SessionID)
		if err != nil || !found {
			t.Fatalf("session lookup: found=%v err=%v", found, err)
		}
		if rec.UserID() != u.ID {
			t.Fatalf("session user = %q, want %q", rec.UserID(), u.ID)
		}
		if rec.String("ip") != "10.0.0.1" || rec.String("user_agent") != "test-agent" || rec.String("login_method") != "password" {
			t.Fatalf("unexpected session metadata: %v", rec)
		}
	}

	stored, _, _ := env.users.GetByID(context.Background(), u.ID)
	if stored.LastLoginAt == nil {
		t.Fatal("expected last login to be recorded")
	}
}

func TestRegisterRejections(t *testing.T) {
	env := newTestEngine(t, nil)
	ctx := context.Background()
	env.register(t, "bob@example.com", "bob")

	_, err := env.engine.Register(ctx, RegisterRequest{Email: "BOB@example.com", Password: testPassword})
	if !errors.Is(err, ErrEmailTaken) {
		t.Fatalf("expected ErrEmailTaken, got %v", err)
	}
	if Kind(err) != KindConflict {
		t.Fatalf("expected conflict kind, got %v", Kind(err))
	}

	_, err = env.engine.Register(ctx, RegisterRequest{Email: "other@example.com", Username: "bob", Password: testPassword})
	if !errors.Is(err, ErrUsernameTaken) {
		t.Fatalf("expected ErrUsernameTaken, got %v", err)
	}

	_, err = env.engine.Register(ctx, RegisterRequest{Email: "weak@example.com", Password: "short"})
	var vErr *ValidationError
	if !errors.As(err, &vErr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if len(vErr.Violations) < 2 {
		t.Fatalf("expected every violation reported, got %v", vErr.Violations)
	}

	_, err = env.engine.Register(ctx, RegisterRequest{Email: "not-an-email", Password: testPassword})
	if Kind(err) != KindValidation {
		t.Fatalf("expected validation kind, got %v", err)
	}
}

func TestRegisterDisabled(t *testing.T) {
	env := newTestEngine(t, func(c *Config) { c.Features.UserRegistration = false })
	_, err := env.engine.Register(context.Background(), RegisterRequest{Email: "a@example.com", Password: testPassword})
	if !errors.Is(err, ErrRegistrationDisabled) {
		t.Fatalf("expected ErrRegistrationDisabled, got %v", err)
	}
}

func TestLoginFailuresAreIndistinguishable(t *testing.T) {
	env := newTestEngine(t, nil)
	ctx := context.Background()
	env.register(t, "carol@example.com", "carol")

	_, errUnknown := env.engine.Login(ctx, "nobody@example.com", testPassword)
	_, errWrong := env.engine.Login(ctx, "carol@example.com", "Wr0ng!Password")
	if !errors.Is(errUnknown, ErrInvalidCredentials) || !errors.Is(errWrong, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials for both, got %v / %v", errUnknown, errWrong)
	}
	if errUnknown.Error() != errWrong.Error() {
		t.Fatalf("messages differ: %q vs %q", errUnknown, errWrong)
	}
}

func TestLoginInactiveAccount(t *testing.T) {
	env := newTestEngine(t, nil)
	ctx := context.Background()
	u := env.register(t, "dave@example.com", "dave")

	stored, _, _ := env.users.GetByID(ctx, u.ID)
	stored.IsActive = false
	if _, err := env.users.Update(ctx, stored); err != nil {
		t.Fatalf("Update: %v", err)
	}

	if _, err := env.engine.Login(ctx, "dave", testPassword); !errors.Is(err, ErrAccountInactive) {
		t.Fatalf("expected ErrAccountInactive, got %v", err)
	}
	if _, err := env.engine.Login(ctx, "dave", "Wr0ng!Password"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials for wrong password, got %v", err)
	}
}

func TestLoginRequiresVerifiedEmail(t *testing.T) {
	env := newTestEngine(t, func(c *Config) { c.Features.EmailVerification = true })
	u := env.register(t, "erin@example.com", "")
	if u.EmailVerified {
		t.Fatal("expected unverified account")
	}
	if _, err := env.engine.Login(context.Background(), "erin@example.com", testPassword); !errors.Is(err, ErrEmailNotVerified) {
		t.Fatalf("expected ErrEmailNotVerified, got %v", err)
	}
}

func TestLoginRehashesWeakerHash(t *testing.T) {
	env := newTestEngine(t, nil)
	ctx := context.Background()
	u := env.register(t, "faye@example.com", "faye")

	weaker := "$argon2id$v=19$m=8192,t=1,p=1$"
	stored, _, _ := env.users.GetByID(ctx, u.ID)
	if !strings.HasPrefix(stored.PasswordHash, weaker) {
		t.Fatalf("unexpected hash params: %s", stored.PasswordHash)
	}

	env2, err := New().
		WithConfig(func() Config {
			c := testConfig()
			c.Password.Time = 2
			return c
		}()).
		WithRedis(env.rdb).
		WithUserStore(env.users).
		Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	defer env2.Close()

	if _, err := env2.Login(ctx, "faye", testPassword); err != nil {
		t.Fatalf("Login: %v", err)
	}
	stored, _, _ = env.users.GetByID(ctx, u.ID)
	if !strings.Contains(stored.PasswordHash, "t=2") {
		t.Fatalf("expected upgraded hash, got %s", stored.PasswordHash)
	}
}

func TestAuthenticateAndTokenCrossUse(t *testing.T) {
	env := newTestEngine(t, nil)
	ctx := context.Background()
	u := env.register(t, "gus@example.com", "gus")
	res := env.login(t, "gus")

	p, err := env.engine.Authenticate(ctx, res.Tokens.AccessToken)
	if err != nil {
		t.Fatalf("Authenticate: %v", err)
	}
	if p.UserID != u.ID || p.Email != "gus@example.com" || p.Username != "gus" || p.IsSuperuser {
		t.Fatalf("unexpected principal: %+v", p)
	}
	if p.ExpiresAt.IsZero() {
		t.Fatal("expected expiry")
	}

	if _, err := env.engine.Authenticate(ctx, res.Tokens.RefreshToken); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("refresh token used as access: %v", err)
	}
	if _, err := env.engine.Refresh(ctx, res.Tokens.AccessToken); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("access token used as refresh: %v", err)
	}
	if _, err := env.engine.Authenticate(ctx, ""); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken for empty token, got %v", err)
	}
	if _, err := env.engine.Authenticate(ctx, "not.a.jwt"); Kind(err) != KindAuthentication {
		t.Fatalf("expected authentication kind, got %v", err)
	}
}

func TestAuthenticateExpiredToken(t *testing.T) {
	now := time.Now()
	clock := func() time.Time { return now }
	env := newTestEngine(t, nil, func(b *Builder) { b.WithClock(clock) })
	env.register(t, "hana@example.com", "hana")
	res := env.login(t, "hana")

	now = now.Add(31 * time.Minute)
	if _, err := env.engine.Authenticate(context.Background(), res.Tokens.AccessToken); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken after expiry, got %v", err)
	}
	if _, err := env.engine.Refresh(context.Background(), res.Tokens.RefreshToken); err != nil {
		t.Fatalf("refresh token should outlive access token: %v", err)
	}
}

func TestRefresh(t *testing.T) {
	env := newTestEngine(t, nil)
	ctx := context.Background()
	u := env.register(t, "ivan@example.com", "ivan")
	res := env.login(t, "ivan")

	pair, err := env.engine.Refresh(ctx, res.Tokens.RefreshToken)
	if err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	p, err := env.engine.Authenticate(ctx, pair.AccessToken)
	if err != nil {
		t.Fatalf("Authenticate refreshed token: %v", err)
	}
	if p.UserID != u.ID {
		t.Fatalf("unexpected subject %q", p.UserID)
	}

	if _, err := env.engine.Refresh(ctx, res.Tokens.RefreshToken); err != nil {
		t.Fatalf("refresh token should stay usable: %v", err)
	}

	if ok, err := env.engine.RevokeToken(ctx, res.Tokens.RefreshToken); err != nil || !ok {
		t.Fatalf("RevokeToken: ok=%v err=%v", ok, err)
	}
	if _, err := env.engine.Refresh(ctx, res.Tokens.RefreshToken); !errors.Is(err, ErrTokenRevoked) {
		t.Fatalf("expected ErrTokenRevoked, got %v", err)
	}

	stored, _, _ := env.users.GetByID(ctx, u.ID)
	stored.IsActive = false
	_, _ = env.users.Update(ctx, stored)
	if _, err := env.engine.Refresh(ctx, pair.RefreshToken); err == nil {
		t.Fatal("expected inactive user refresh to fail")
	}
}

func TestRevokeToken(t *testing.T) {
	env := newTestEngine(t, nil)
	ctx := context.Background()
	env.register(t, "jade@example.com", "jade")
	res := env.login(t, "jade")

	ok, err := env.engine.RevokeToken(ctx, res.Tokens.AccessToken)
	if err != nil || !ok {
		t.Fatalf("RevokeToken: ok=%v err=%v", ok, err)
	}
	if _, err := env.engine.Authenticate(ctx, res.Tokens.AccessToken); !errors.Is(err, ErrTokenRevoked) {
		t.Fatalf("expected ErrTokenRevoked, got %v", err)
	}

	keys := env.mr.Keys()
	var ttl time.Duration
	for _, k := range keys {
		if strings.HasPrefix(k, "blacklist:token:") {
			ttl = env.mr.TTL(k)
		}
	}
	if ttl <= 0 || ttl > 30*time.Minute {
		t.Fatalf("blacklist ttl should track token expiry, got %v", ttl)
	}

	if ok, err := env.engine.RevokeToken(ctx, "garbage"); ok || err != nil {
		t.Fatalf("garbage token: ok=%v err=%v", ok, err)
	}
}

func TestAuthenticateFailsClosedWhenRedisDown(t *testing.T) {
	env := newTestEngine(t, nil)
	env.register(t, "kai@example.com", "kai")
	res := env.login(t, "kai")

	env.mr.Close()
	_, err := env.engine.Authenticate(context.Background(), res.Tokens.AccessToken)
	if !errors.Is(err, ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
}

func TestLogout(t *testing.T) {
	env := newTestEngine(t, nil)
	ctx := context.Background()
	env.register(t, "lena@example.com", "lena")
	env.register(t, "milo@example.com", "milo")
	lena := env.login(t, "lena")
	milo := env.login(t, "milo")

	if err := env.engine.Logout(ctx, lena.Tokens.AccessToken, milo.SessionID); !errors.Is(err, ErrPermissionDenied) {
		t.Fatalf("expected ErrPermissionDenied for foreign session, got %v", err)
	}
	if _, found, _ := env.engine.Sessions().Get(ctx, milo.SessionID); !found {
		t.Fatal("foreign session must survive")
	}

	if err := env.engine.Logout(ctx, lena.Tokens.AccessToken, lena.SessionID); err != nil {
		t.Fatalf("Logout: %v", err)
	}
	if _, found, _ := env.engine.Sessions().Get(ctx, lena.SessionID); found {
		t.Fatal("session should be deleted")
	}
	if _, err := env.engine.Authenticate(ctx, lena.Tokens.AccessToken); err != nil {
		t.Fatalf("access token stays live after logout by default: %v", err)
	}

	if err := env.engine.Logout(ctx, "bad-token", ""); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}

func TestLogoutRevokesAccessWhenConfigured(t *testing.T) {
	env := newTestEngine(t, func(c *Config) { c.Session.RevokeAccessOnLogout = true })
	ctx := context.Background()
	env.register(t, "nora@example.com", "nora")
	res := env.login(t, "nora")

	if err := env.engine.Logout(ctx, res.Tokens.AccessToken, res.SessionID); err != nil {
		t.Fatalf("Logout: %v", err)
	}
	if _, err := env.engine.Authenticate(ctx, res.Tokens.AccessToken); !errors.Is(err, ErrTokenRevoked) {
		t.Fatalf("expected ErrTokenRevoked, got %v", err)
	}
}

func TestMe(t *testing.T) {
	env := newTestEngine(t, nil)
	u := env.register(t, "otto@example.com", "otto")

	me, err := env.engine.Me(context.Background(), u.ID)
	if err != nil {
		t.Fatalf("Me: %v", err)
	}
	if me.ID != u.ID || me.Email != u.Email {
		t.Fatalf("unexpected profile: %+v", me)
	}
	if _, err := env.engine.Me(context.Background(), "missing"); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}

func TestHealth(t *testing.T) {
	env := newTestEngine(t, nil)
	if h := env.engine.Health(context.Background()); !h.Healthy() {
		t.Fatalf("expected healthy, got %+v", h)
	}
	env.mr.Close()
	h := env.engine.Health(context.Background())
	if h.Redis || !h.Database {
		t.Fatalf("expected redis down only, got %+v", h)
	}
}

func TestConfigRedactsSecret(t *testing.T) {
	env := newTestEngine(t, nil)
	if env.engine.Config().JWT.Secret != nil {
		t.Fatal("secret must not be exposed")
	}
}

func TestSecurityReport(t *testing.T) {
	env := newTestEngine(t, func(c *Config) { c.RateLimit.Enabled = false })

	r := env.engine.SecurityReport()
	if r.SigningAlgorithm != "HS256" || r.AccessTTL != 30*time.Minute {
		t.Fatalf("unexpected report: %+v", r)
	}
	if r.RateLimitingActive {
		t.Fatal("rate limiting reported active while disabled")
	}
	// testConfig lowers argon2 memory and rate limiting is off.
	if len(r.Warnings) != 2 {
		t.Fatalf("warnings = %v, want 2", r.Warnings)
	}

	var zero *Engine
	if got := zero.SecurityReport(); got.SigningAlgorithm != "" {
		t.Fatalf("zero engine report = %+v", got)
	}
}
