package authsvc

import (
	"context"
	"time"

	"github.com/MrEthical07/authsvc/internal/flows"
	"github.com/MrEthical07/authsvc/session"
	"github.com/MrEthical07/authsvc/userstore"
)

func (e *Engine) buildFlowDeps() flows.Deps {
	hooks := flows.Hooks{
		MetricInc: e.metricInc,
		EmitAudit: e.emitAudit,
		Logger:    e.logger,
	}
	errs := flows.Errors{
		EngineNotReady:         ErrEngineNotReady,
		RegistrationDisabled:   ErrRegistrationDisabled,
		EmailTaken:             ErrEmailTaken,
		UsernameTaken:          ErrUsernameTaken,
		InvalidCredentials:     ErrInvalidCredentials,
		AccountInactive:        ErrAccountInactive,
		EmailNotVerified:       ErrEmailNotVerified,
		InvalidToken:           ErrInvalidToken,
		TokenRevoked:           ErrTokenRevoked,
		InvalidResetToken:      ErrInvalidResetToken,
		InvalidCurrentPassword: ErrInvalidCurrentPassword,
		PermissionDenied:       ErrPermissionDenied,
		UserNotFound:           ErrUserNotFound,
		Unavailable:            ErrUnavailable,
		Internal:               ErrInternal,
		Invalid:                newValidationError,
	}

	users := timeoutUsers{store: e.users, timeout: e.config.Redis.OpTimeout}
	passwords := flows.Passwords{
		Hash:        e.passwords.Hash,
		Verify:      e.passwords.Verify,
		NeedsRehash: e.passwords.NeedsRehash,
		Validate:    e.config.PasswordPolicy.Validate,
	}
	tokens := flows.Tokens{
		IssuePair:        e.tokens.CreateTokenPair,
		Verify:           e.tokens.VerifyType,
		IsRevoked:        e.isRevoked,
		Revoke:           e.revokeToken,
		Claim:            e.claimToken,
		CreateResetToken: e.tokens.CreatePasswordResetToken,
		VerifyResetToken: e.tokens.VerifyPasswordReset,
	}

	return flows.Deps{
		Register: flows.RegisterDeps{
			Enabled:                  e.config.Features.UserRegistration,
			RequireEmailVerification: e.config.Features.EmailVerification,
			Users:                    users,
			Passwords:                passwords,
			Hooks:                    hooks,
			Errors:                   errs,
		},
		Login: flows.LoginDeps{
			RequireEmailVerification: e.config.Features.EmailVerification,
			RehashOnLogin:            e.config.Password.UpgradeOnLogin,
			DummyHash:                e.dummyHash,
			ClientIPFromContext:      ClientIPFromContext,
			UserAgentFromContext:     userAgentFromContext,
			Now:                      e.now,
			Users:                    users,
			Passwords:                passwords,
			Tokens:                   tokens,
			CreateSession:            e.createSession,
			Hooks:                    hooks,
			Errors:                   errs,
		},
		Refresh: flows.RefreshDeps{
			Users:  users,
			Tokens: tokens,
			Hooks:  hooks,
			Errors: errs,
		},
		Authenticate: flows.AuthenticateDeps{
			Users:  users,
			Tokens: tokens,
			Hooks:  hooks,
			Errors: errs,
		},
		Logout: flows.LogoutDeps{
			RevokeAccessOnLogout: e.config.Session.RevokeAccessOnLogout,
			GetSession:           e.getSession,
			DeleteSession:        e.deleteSession,
			Tokens:               tokens,
			Hooks:                hooks,
			Errors:               errs,
		},
		Password: flows.PasswordDeps{
			Users:     users,
			Passwords: passwords,
			Tokens:    tokens,
			Notify:    e.notifyReset,
			Hooks:     hooks,
			Errors:    errs,
		},
		User: flows.UserDeps{
			Users:     users,
			Passwords: passwords,
			Hooks:     hooks,
			Errors:    errs,
		},
	}
}

func (e *Engine) createSession(ctx context.Context, userID string, metadata map[string]any) (string, error) {
	ctx, cancel := e.storeContext(ctx)
	defer cancel()
	return e.sessions.Create(ctx, userID, metadata, 0)
}

func (e *Engine) getSession(ctx context.Context, id string) (session.Record, bool, error) {
	ctx, cancel := e.storeContext(ctx)
	defer cancel()
	return e.sessions.Get(ctx, id)
}

func (e *Engine) deleteSession(ctx context.Context, id string) (bool, error) {
	ctx, cancel := e.storeContext(ctx)
	defer cancel()
	return e.sessions.Delete(ctx, id)
}

func (e *Engine) isRevoked(ctx context.Context, token string) (bool, error) {
	ctx, cancel := e.storeContext(ctx)
	defer cancel()
	return e.revocation.IsRevoked(ctx, token)
}

// revokeToken blacklists any token this engine signed until its own expiry.
// Tokens that fail verification are reported as not revoked.
func (e *Engine) revokeToken(ctx context.Context, token string) (bool, error) {
	claims, err := e.tokens.Verify(token)
	if err != nil || claims.ExpiresAt == nil {
		return false, nil
	}

	ctx, cancel := e.storeContext(ctx)
	defer cancel()
	return e.revocation.Revoke(ctx, token, claims.ExpiresAt.Time)
}

// claimToken blacklists a signed token unless it is already blacklisted.
// Tokens that fail verification cannot be claimed.
func (e *Engine) claimToken(ctx context.Context, token string) (bool, error) {
	claims, err := e.tokens.Verify(token)
	if err != nil || claims.ExpiresAt == nil {
		return false, nil
	}

	ctx, cancel := e.storeContext(ctx)
	defer cancel()
	return e.revocation.Claim(ctx, token, claims.ExpiresAt.Time)
}

// notifyReset hands token to the notifier on a background goroutine, so a
// slow delivery channel adds no latency to the known-email path. Close
// waits for pending deliveries.
func (e *Engine) notifyReset(ctx context.Context, email, token string) error {
	if e.notifier == nil {
		e.logger.Info(ctx, "password reset token issued", "email", email)
		return nil
	}

	ctx = context.WithoutCancel(ctx)
	e.deliveries.Go(func() {
		ctx, cancel := context.WithTimeout(ctx, resetDeliveryTimeout)
		defer cancel()
		if err := e.notifier.NotifyPasswordReset(ctx, email, token); err != nil {
			e.logger.Error(ctx, "password reset delivery failed", "error", err)
		}
	})
	return nil
}

// timeoutUsers bounds every user-store call with the store operation
// timeout.
type timeoutUsers struct {
	store   UserStore
	timeout time.Duration
}

func (u timeoutUsers) bound(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, u.timeout)
}

func (u timeoutUsers) GetByID(ctx context.Context, id string) (User, bool, error) {
	ctx, cancel := u.bound(ctx)
	defer cancel()
	return u.store.GetByID(ctx, id)
}

func (u timeoutUsers) GetByEmail(ctx context.Context, email string) (User, bool, error) {
	ctx, cancel := u.bound(ctx)
	defer cancel()
	return u.store.GetByEmail(ctx, email)
}

func (u timeoutUsers) GetByUsername(ctx context.Context, username string) (User, bool, error) {
	ctx, cancel := u.bound(ctx)
	defer cancel()
	return u.store.GetByUsername(ctx, username)
}

func (u timeoutUsers) Create(ctx context.Context, user User) (User, error) {
	ctx, cancel := u.bound(ctx)
	defer cancel()
	return u.store.Create(ctx, user)
}

func (u timeoutUsers) Update(ctx context.Context, user User) (User, error) {
	ctx, cancel := u.bound(ctx)
	defer cancel()
	return u.store.Update(ctx, user)
}

func (u timeoutUsers) UpdatePasswordHash(ctx context.Context, id, hash string) error {
	ctx, cancel := u.bound(ctx)
	defer cancel()
	return u.store.UpdatePasswordHash(ctx, id, hash)
}

func (u timeoutUsers) RecordLogin(ctx context.Context, id string, at time.Time) error {
	ctx, cancel := u.bound(ctx)
	defer cancel()
	return u.store.RecordLogin(ctx, id, at)
}

func (u timeoutUsers) Delete(ctx context.Context, id string) (bool, error) {
	ctx, cancel := u.bound(ctx)
	defer cancel()
	return u.store.Delete(ctx, id)
}


func (u timeoutUsers) List(ctx context.Context, q userstore.ListQuery) (userstore.Page, error) {
	ctx, cancel := u.bound(ctx)
	defer cancel()
	return u.store.List(ctx, q)
}
