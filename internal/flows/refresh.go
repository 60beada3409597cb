package flows

import (
	"context"
	"fmt"

	"github.com/MrEthical07/authsvc/internal/metrics"
	"github.com/MrEthical07/authsvc/jwt"
)

// RefreshResult is the flow-local refresh response shape.
type RefreshResult struct {
	UserID string
	Tokens jwt.TokenPair
}

type RefreshDeps struct {
	Users  Users
	Tokens Tokens

	Hooks  Hooks
	Errors Errors
}

// RunRefresh exchanges a refresh token for a new pair. The presented refresh
// token and any earlier access tokens stay valid until they expire.
func RunRefresh(ctx context.Context, refreshToken string, deps RefreshDeps) (*RefreshResult, error) {
	deps.Hooks.normalize()
	if deps.Users == nil || deps.Tokens.Verify == nil || deps.Tokens.IssuePair == nil {
		return nil, deps.Errors.EngineNotReady
	}

	fail := func(userID, reason string, err error) (*RefreshResult, error) {
		deps.Hooks.MetricInc(metrics.RefreshFailure)
		deps.Hooks.EmitAudit(ctx, EventRefreshInvalid, false, userID, "", err, func() map[string]string {
			return map[string]string{"reason": reason}
		})
		return nil, err
	}

	if deps.Tokens.IsRevoked != nil {
		revoked, err := deps.Tokens.IsRevoked(ctx, refreshToken)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", deps.Errors.Unavailable, err)
		}
		if revoked {
			return fail("", "revoked", deps.Errors.TokenRevoked)
		}
	}

	claims, err := deps.Tokens.Verify(refreshToken, jwt.TypeRefresh)
	if err != nil {
		deps.Hooks.Logger.Info(ctx, "refresh token rejected", "error", err)
		return fail("", "invalid_token", deps.Errors.InvalidToken)
	}

	user, found, err := deps.Users.GetByID(ctx, claims.Subject)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", deps.Errors.Unavailable, err)
	}
	if !found || !user.IsActive {
		return fail(claims.Subject, "user_not_found_or_inactive", deps.Errors.InvalidToken)
	}

	pair, err := deps.Tokens.IssuePair(user.ID, identityOf(user))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", deps.Errors.Internal, err)
	}

	deps.Hooks.MetricInc(metrics.RefreshSuccess)
	deps.Hooks.EmitAudit(ctx, EventRefreshSuccess, true, user.ID, "", nil, nil)
	return &RefreshResult{UserID: user.ID, Tokens: pair}, nil
}
