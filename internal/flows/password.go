package flows

import (
	"context"
	"fmt"

	"github.com/MrEthical07/authsvc/internal"
	"github.com/MrEthical07/authsvc/internal/metrics"
)

// ResetRequestMessage is returned for every reset request, whether or not
// the address belongs to an account.
const ResetRequestMessage = "If the email exists, a password reset link has been sent"

type PasswordDeps struct {
	Users     Users
	Passwords Passwords
	Tokens    Tokens
	// Notify delivers a reset token to its owner.
	Notify func(ctx context.Context, email, token string) error

	Hooks  Hooks
	Errors Errors
}

// RunRequestPasswordReset issues a reset token for an active account and
// hands it to Notify. The return value never depends on the outcome.
func RunRequestPasswordReset(ctx context.Context, email string, deps PasswordDeps) string {
	deps.Hooks.normalize()
	deps.Hooks.MetricInc(metrics.PasswordResetRequest)

	if deps.Users == nil || deps.Tokens.CreateResetToken == nil {
		deps.Hooks.Logger.Error(ctx, "password reset not wired")
		return ResetRequestMessage
	}

	email = internal.SanitizeEmail(email)
	user, found, err := deps.Users.GetByEmail(ctx, email)
	if err != nil {
		deps.Hooks.Logger.Error(ctx, "password reset lookup failed", "error", err)
		return ResetRequestMessage
	}
	if !found || !user.IsActive {
		deps.Hooks.EmitAudit(ctx, EventPasswordResetRequest, false, "", "", nil, nil)
		return ResetRequestMessage
	}

	token, err := deps.Tokens.CreateResetToken(user.Email)
	if err != nil {
		deps.Hooks.Logger.Error(ctx, "password reset token failed", "user_id", user.ID, "error", err)
		return ResetRequestMessage
	}
	if deps.Notify != nil {
		if err := deps.Notify(ctx, user.Email, token); err != nil {
			deps.Hooks.Logger.Error(ctx, "password reset delivery failed", "user_id", user.ID, "error", err)
		}
	}

	deps.Hooks.EmitAudit(ctx, EventPasswordResetRequest, true, user.ID, "", nil, nil)
	return ResetRequestMessage
}

// RunConfirmPasswordReset sets a new password from a valid reset token. The
// token is claimed on the blacklist before the hash is written, so it is
// accepted at most once even under concurrent confirms.
func RunConfirmPasswordReset(ctx context.Context, token, newPassword string, deps PasswordDeps) error {
	deps.Hooks.normalize()
	if deps.Users == nil || !deps.Passwords.ready() || deps.Tokens.VerifyResetToken == nil || deps.Tokens.Claim == nil {
		return deps.Errors.EngineNotReady
	}

	fail := func(userID string, err error) error {
		deps.Hooks.MetricInc(metrics.PasswordResetConfirmFailure)
		deps.Hooks.EmitAudit(ctx, EventPasswordResetConfirm, false, userID, "", err, nil)
		return err
	}

	email, err := deps.Tokens.VerifyResetToken(token)
	if err != nil {
		return fail("", deps.Errors.InvalidResetToken)
	}

	if ok, violations := deps.Passwords.Validate(newPassword); !ok {
		return fail("", deps.Errors.Invalid("Password does not meet requirements", violations))
	}

	user, found, err := deps.Users.GetByEmail(ctx, email)
	if err != nil {
		return fmt.Errorf("%w: %v", deps.Errors.Unavailable, err)
	}
	if !found {
		return fail("", deps.Errors.InvalidResetToken)
	}

	claimed, err := deps.Tokens.Claim(ctx, token)
	if err != nil {
		return fmt.Errorf("%w: %v", deps.Errors.Unavailable, err)
	}
	if !claimed {
		return fail(user.ID, deps.Errors.InvalidResetToken)
	}

	hash, err := deps.Passwords.Hash(newPassword)
	if err != nil {
		return fmt.Errorf("%w: %v", deps.Errors.Internal, err)
	}
	if err := deps.Users.UpdatePasswordHash(ctx, user.ID, hash); err != nil {
		return fmt.Errorf("%w: %v", deps.Errors.Unavailable, err)
	}

	deps.Hooks.MetricInc(metrics.PasswordResetConfirmSuccess)
	deps.Hooks.EmitAudit(ctx, EventPasswordResetConfirm, true, user.ID, "", nil, nil)
	return nil
}

// RunChangePassword replaces the password of userID after re-verifying the
// current one.
func RunChangePassword(ctx context.Context, userID, current, next string, deps PasswordDeps) error {
	deps.Hooks.normalize()
	if deps.Users == nil || !deps.Passwords.ready() {
		return deps.Errors.EngineNotReady
	}

	user, found, err := deps.Users.GetByID(ctx, userID)
	if err != nil {
		return fmt.Errorf("%w: %v", deps.Errors.Unavailable, err)
	}
	if !found {
		return deps.Errors.UserNotFound
	}

	ok, err := deps.Passwords.Verify(current, user.PasswordHash)
	if err != nil {
		deps.Hooks.Logger.Warn(ctx, "stored password hash unreadable", "user_id", user.ID, "error", err)
	}
	if !ok {
		deps.Hooks.MetricInc(metrics.PasswordChangeInvalidCurrent)
		deps.Hooks.EmitAudit(ctx, EventPasswordChangeInvalid, false, user.ID, "", deps.Errors.InvalidCurrentPassword, nil)
		return deps.Errors.InvalidCurrentPassword
	}

	if ok, violations := deps.Passwords.Validate(next); !ok {
		return deps.Errors.Invalid("Password does not meet requirements", violations)
	}

	hash, err := deps.Passwords.Hash(next)
	if err != nil {
		return fmt.Errorf("%w: %v", deps.Errors.Internal, err)
	}
	if err := deps.Users.UpdatePasswordHash(ctx, user.ID, hash); err != nil {
		return fmt.Errorf("%w: %v", deps.Errors.Unavailable, err)
	}

	deps.Hooks.MetricInc(metrics.PasswordChangeSuccess)
	deps.Hooks.EmitAudit(ctx, EventPasswordChangeSuccess, true, user.ID, "", nil, nil)
	return nil
}
