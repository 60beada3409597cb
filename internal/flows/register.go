package flows

import (
	"context"
	"errors"
	"fmt"
	"net/mail"

	"github.com/MrEthical07/authsvc/internal"
	"github.com/MrEthical07/authsvc/internal/metrics"
	"github.com/MrEthical07/authsvc/userstore"
)

// RegisterRequest is the flow-local registration input.
type RegisterRequest struct {
	Email    string
	Username string
	FullName string
	Password string
}

type RegisterDeps struct {
	Enabled                  bool
	RequireEmailVerification bool

	Users     Users
	Passwords Passwords

	Hooks  Hooks
	Errors Errors
}

// RunRegister creates an active account. The username falls back to the
// email local part when none is supplied.
func RunRegister(ctx context.Context, req RegisterRequest, deps RegisterDeps) (userstore.User, error) {
	deps.Hooks.normalize()

	if !deps.Enabled {
		deps.Hooks.EmitAudit(ctx, EventRegisterFailure, false, "", "", deps.Errors.RegistrationDisabled, func() map[string]string {
			return map[string]string{"reason": "feature_disabled"}
		})
		return userstore.User{}, deps.Errors.RegistrationDisabled
	}
	if deps.Users == nil || !deps.Passwords.ready() {
		return userstore.User{}, deps.Errors.EngineNotReady
	}

	email, username, err := newIdentity(ctx, deps.Users, deps.Errors, req.Email, req.Username)
	switch {
	case errors.Is(err, deps.Errors.EmailTaken):
		return userstore.User{}, registerDuplicate(ctx, deps, err, "email")
	case errors.Is(err, deps.Errors.UsernameTaken):
		return userstore.User{}, registerDuplicate(ctx, deps, err, "username")
	case err != nil:
		return userstore.User{}, err
	}

	if ok, violations := deps.Passwords.Validate(req.Password); !ok {
		return userstore.User{}, deps.Errors.Invalid("Password does not meet requirements", violations)
	}

	hash, err := deps.Passwords.Hash(req.Password)
	if err != nil {
		return userstore.User{}, fmt.Errorf("%w: %v", deps.Errors.Internal, err)
	}

	user, err := deps.Users.Create(ctx, userstore.User{
		Email:         email,
		Username:      username,
		FullName:      req.FullName,
		PasswordHash:  hash,
		IsActive:      true,
		EmailVerified: !deps.RequireEmailVerification,
	})
	switch {
	case errors.Is(err, userstore.ErrDuplicateEmail):
		return userstore.User{}, registerDuplicate(ctx, deps, deps.Errors.EmailTaken, "email")
	case errors.Is(err, userstore.ErrDuplicateUsername):
		return userstore.User{}, registerDuplicate(ctx, deps, deps.Errors.UsernameTaken, "username")
	case err != nil:
		return userstore.User{}, fmt.Errorf("%w: %v", deps.Errors.Unavailable, err)
	}

	if deps.RequireEmailVerification {
		deps.Hooks.Logger.Info(ctx, "email verification required", "user_id", user.ID)
	}

	deps.Hooks.MetricInc(metrics.RegisterSuccess)
	deps.Hooks.EmitAudit(ctx, EventRegisterSuccess, true, user.ID, "", nil, nil)
	return user, nil
}

func registerDuplicate(ctx context.Context, deps RegisterDeps, err error, field string) error {
	deps.Hooks.MetricInc(metrics.RegisterDuplicate)
	deps.Hooks.EmitAudit(ctx, EventRegisterDuplicate, false, "", "", err, func() map[string]string {
		return map[string]string{"field": field}
	})
	return err
}

func validEmail(email string) bool {
	if email == "" {
		return false
	}
	addr, err := mail.ParseAddress(email)
	return err == nil && addr.Address == email
}

// newIdentity normalises an email and optional username for a new account
// and checks neither is taken. An empty username falls back to the email
// local part.
func newIdentity(ctx context.Context, users Users, errs Errors, rawEmail, rawUsername string) (string, string, error) {
	email := internal.SanitizeEmail(rawEmail)
	if !validEmail(email) {
		return "", "", errs.Invalid("Invalid email address", nil)
	}

	username := ""
	if rawUsername != "" {
		username = internal.SanitizeUsername(rawUsername)
		if username == "" {
			return "", "", errs.Invalid("Invalid username", []string{"Username may only contain letters, digits, '_' and '-'"})
		}
	}

	if _, found, err := users.GetByEmail(ctx, email); err != nil {
		return "", "", fmt.Errorf("%w: %v", errs.Unavailable, err)
	} else if found {
		return "", "", errs.EmailTaken
	}

	if username == "" {
		return email, internal.SanitizeUsername(internal.EmailLocalPart(email)), nil
	}
	if _, found, err := users.GetByUsername(ctx, username); err != nil {
		return "", "", fmt.Errorf("%w: %v", errs.Unavailable, err)
	} else if found {
		return "", "", errs.UsernameTaken
	}
	return email, username, nil
}
