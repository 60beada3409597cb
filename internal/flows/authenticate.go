package flows

import (
	"context"
	"fmt"

	"github.com/MrEthical07/authsvc/internal/metrics"
	"github.com/MrEthical07/authsvc/jwt"
	"github.com/MrEthical07/authsvc/userstore"
)

// AuthenticateResult pairs the verified claims with the current user record.
type AuthenticateResult struct {
	User   userstore.User
	Claims *jwt.Claims
}

type AuthenticateDeps struct {
	Users  Users
	Tokens Tokens

	Hooks  Hooks
	Errors Errors
}

// RunAuthenticate resolves a bearer access token to an active user. The
// blacklist is consulted before the signature; a blacklist outage fails
// closed.
func RunAuthenticate(ctx context.Context, accessToken string, deps AuthenticateDeps) (*AuthenticateResult, error) {
	deps.Hooks.normalize()
	if deps.Users == nil || deps.Tokens.Verify == nil || deps.Tokens.IsRevoked == nil {
		return nil, deps.Errors.EngineNotReady
	}
	if accessToken == "" {
		deps.Hooks.MetricInc(metrics.AuthenticateFailure)
		return nil, deps.Errors.InvalidToken
	}

	revoked, err := deps.Tokens.IsRevoked(ctx, accessToken)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", deps.Errors.Unavailable, err)
	}
	if revoked {
		deps.Hooks.MetricInc(metrics.AuthenticateFailure)
		return nil, deps.Errors.TokenRevoked
	}

	claims, err := deps.Tokens.Verify(accessToken, jwt.TypeAccess)
	if err != nil {
		deps.Hooks.MetricInc(metrics.AuthenticateFailure)
		deps.Hooks.Logger.Info(ctx, "access token rejected", "error", err)
		return nil, deps.Errors.InvalidToken
	}

	user, found, err := deps.Users.GetByID(ctx, claims.Subject)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", deps.Errors.Unavailable, err)
	}
	if !found {
		deps.Hooks.MetricInc(metrics.AuthenticateFailure)
		deps.Hooks.Logger.Info(ctx, "access token for unknown user", "user_id", claims.Subject)
		return nil, deps.Errors.InvalidToken
	}
	if !user.IsActive {
		deps.Hooks.MetricInc(metrics.AuthenticateFailure)
		deps.Hooks.Logger.Info(ctx, "access token for inactive user", "user_id", user.ID)
		return nil, deps.Errors.InvalidToken
	}

	deps.Hooks.MetricInc(metrics.AuthenticateSuccess)
	return &AuthenticateResult{User: user, Claims: claims}, nil
}
