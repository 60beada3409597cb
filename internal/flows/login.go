package flows

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/MrEthical07/authsvc/internal"
	"github.com/MrEthical07/authsvc/internal/metrics"
	"github.com/MrEthical07/authsvc/jwt"
	"github.com/MrEthical07/authsvc/userstore"
)

// LoginResult is the flow-local login response shape.
type LoginResult struct {
	User      userstore.User
	Tokens    jwt.TokenPair
	SessionID string
}

type LoginDeps struct {
	RequireEmailVerification bool
	RehashOnLogin            bool
	// DummyHash is verified against when the identifier is unknown so that
	// unknown users cost the same as wrong passwords.
	DummyHash string

	ClientIPFromContext  func(context.Context) string
	UserAgentFromContext func(context.Context) string
	Now                  func() time.Time

	Users         Users
	Passwords     Passwords
	Tokens        Tokens
	CreateSession func(ctx context.Context, userID string, metadata map[string]any) (string, error)

	Hooks  Hooks
	Errors Errors
}

// RunLogin authenticates by email or username and password, then issues a
// token pair and opens a session.
func RunLogin(ctx context.Context, identifier, password string, deps LoginDeps) (*LoginResult, error) {
	deps.Hooks.normalize()
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if deps.ClientIPFromContext == nil {
		deps.ClientIPFromContext = func(context.Context) string { return "" }
	}
	if deps.UserAgentFromContext == nil {
		deps.UserAgentFromContext = func(context.Context) string { return "" }
	}
	if deps.Users == nil || !deps.Passwords.ready() || deps.Tokens.IssuePair == nil || deps.CreateSession == nil {
		return nil, deps.Errors.EngineNotReady
	}

	user, found, err := lookupByIdentifier(ctx, deps.Users, identifier)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", deps.Errors.Unavailable, err)
	}

	hash := deps.DummyHash
	if found {
		hash = user.PasswordHash
	}
	ok := false
	if hash != "" {
		ok, err = deps.Passwords.Verify(password, hash)
		if err != nil {
			deps.Hooks.Logger.Warn(ctx, "stored password hash unreadable", "user_id", user.ID, "error", err)
			ok = false
		}
	}
	if !found || !ok {
		deps.Hooks.MetricInc(metrics.LoginFailure)
		deps.Hooks.EmitAudit(ctx, EventLoginFailure, false, user.ID, "", deps.Errors.InvalidCredentials, func() map[string]string {
			return map[string]string{"identifier": identifier}
		})
		return nil, deps.Errors.InvalidCredentials
	}

	if !user.IsActive {
		deps.Hooks.MetricInc(metrics.LoginFailure)
		deps.Hooks.EmitAudit(ctx, EventLoginFailure, false, user.ID, "", deps.Errors.AccountInactive, nil)
		return nil, deps.Errors.AccountInactive
	}
	if deps.RequireEmailVerification && !user.EmailVerified {
		deps.Hooks.MetricInc(metrics.LoginFailure)
		deps.Hooks.EmitAudit(ctx, EventLoginFailure, false, user.ID, "", deps.Errors.EmailNotVerified, nil)
		return nil, deps.Errors.EmailNotVerified
	}

	if deps.RehashOnLogin {
		rehashOnLogin(ctx, user, password, deps)
	}

	now := deps.Now().UTC()
	if err := deps.Users.RecordLogin(ctx, user.ID, now); err != nil {
		deps.Hooks.Logger.Warn(ctx, "record last login failed", "user_id", user.ID, "error", err)
	} else {
		user.LastLoginAt = &now
	}

	pair, err := deps.Tokens.IssuePair(user.ID, identityOf(user))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", deps.Errors.Internal, err)
	}

	sessionID, err := deps.CreateSession(ctx, user.ID, map[string]any{
		"ip":           valueOr(deps.ClientIPFromContext(ctx), "unknown"),
		"user_agent":   valueOr(deps.UserAgentFromContext(ctx), "unknown"),
		"login_method": "password",
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", deps.Errors.Unavailable, err)
	}
	deps.Hooks.MetricInc(metrics.SessionCreated)

	deps.Hooks.MetricInc(metrics.LoginSuccess)
	deps.Hooks.EmitAudit(ctx, EventLoginSuccess, true, user.ID, sessionID, nil, nil)

	return &LoginResult{
		User:      user,
		Tokens:    pair,
		SessionID: sessionID,
	}, nil
}

// lookupByIdentifier treats the identifier as an email first and falls back
// to a username match.
func lookupByIdentifier(ctx context.Context, users Users, identifier string) (userstore.User, bool, error) {
	if email := internal.SanitizeEmail(identifier); email != "" {
		u, found, err := users.GetByEmail(ctx, email)
		if err != nil || found {
			return u, found, err
		}
	}

	username := strings.ToLower(strings.TrimSpace(identifier))
	if username == "" {
		return userstore.User{}, false, nil
	}
	return users.GetByUsername(ctx, username)
}

func rehashOnLogin(ctx context.Context, user userstore.User, password string, deps LoginDeps) {
	if deps.Passwords.NeedsRehash == nil {
		return
	}
	needs, err := deps.Passwords.NeedsRehash(user.PasswordHash)
	if err != nil || !needs {
		return
	}

	hash, err := deps.Passwords.Hash(password)
	if err != nil {
		deps.Hooks.Logger.Warn(ctx, "password rehash failed", "user_id", user.ID, "error", err)
		return
	}
	if err := deps.Users.UpdatePasswordHash(ctx, user.ID, hash); err != nil {
		deps.Hooks.Logger.Warn(ctx, "password rehash not stored", "user_id", user.ID, "error", err)
		return
	}

	deps.Hooks.MetricInc(metrics.PasswordRehashed)
	deps.Hooks.EmitAudit(ctx, EventPasswordRehashed, true, user.ID, "", nil, nil)
}

func valueOr(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}
