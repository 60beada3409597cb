package flows

import (
	"context"
	"fmt"

	"github.com/MrEthical07/authsvc/internal/metrics"
	"github.com/MrEthical07/authsvc/session"
)

type LogoutDeps struct {
	// RevokeAccessOnLogout blacklists the presented access token. When false
	// the token stays usable until it expires.
	RevokeAccessOnLogout bool

	GetSession    func(ctx context.Context, id string) (session.Record, bool, error)
	DeleteSession func(ctx context.Context, id string) (bool, error)
	Tokens        Tokens

	Hooks  Hooks
	Errors Errors
}

// RunLogout ends the given session of userID. A session owned by another
// user is refused; an unknown session id is not an error.
func RunLogout(ctx context.Context, userID, accessToken, sessionID string, deps LogoutDeps) error {
	deps.Hooks.normalize()
	if deps.GetSession == nil || deps.DeleteSession == nil {
		return deps.Errors.EngineNotReady
	}

	if sessionID != "" {
		record, found, err := deps.GetSession(ctx, sessionID)
		if err != nil {
			return fmt.Errorf("%w: %v", deps.Errors.Unavailable, err)
		}
		if found {
			if record.UserID() != userID {
				deps.Hooks.EmitAudit(ctx, EventPermissionDenied, false, userID, sessionID, deps.Errors.PermissionDenied, func() map[string]string {
					return map[string]string{"operation": "logout"}
				})
				return deps.Errors.PermissionDenied
			}
			deleted, err := deps.DeleteSession(ctx, sessionID)
			if err != nil {
				return fmt.Errorf("%w: %v", deps.Errors.Unavailable, err)
			}
			if deleted {
				deps.Hooks.MetricInc(metrics.SessionDeleted)
			}
		}
	}

	if deps.RevokeAccessOnLogout && accessToken != "" && deps.Tokens.Revoke != nil {
		if _, err := deps.Tokens.Revoke(ctx, accessToken); err != nil {
			return fmt.Errorf("%w: %v", deps.Errors.Unavailable, err)
		}
		deps.Hooks.MetricInc(metrics.TokenRevoked)
	}

	deps.Hooks.MetricInc(metrics.Logout)
	deps.Hooks.EmitAudit(ctx, EventLogout, true, userID, sessionID, nil, nil)
	return nil
}
