package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/MrEthical07/authsvc"
	"github.com/MrEthical07/authsvc/internal/logging"
)

// CredentialsDetail is the only detail a rejected bearer token gets.
const CredentialsDetail = "Could not validate credentials"

// Authenticator resolves a bearer access token. *authsvc.Engine satisfies
// it.
type Authenticator interface {
	Authenticate(ctx context.Context, accessToken string) (*authsvc.Principal, error)
}

type principalContextKey struct{}
type tokenContextKey struct{}

// PrincipalFromContext returns the caller resolved by Guard.
func PrincipalFromContext(ctx context.Context) (*authsvc.Principal, bool) {
	p, ok := ctx.Value(principalContextKey{}).(*authsvc.Principal)
	return p, ok && p != nil
}

// AccessTokenFromContext returns the raw bearer token accepted by Guard.
func AccessTokenFromContext(ctx context.Context) string {
	tok, _ := ctx.Value(tokenContextKey{}).(string)
	return tok
}

// WithPrincipal attaches p and its token to ctx. Guard uses it; tests and
// alternative transports may too.
func WithPrincipal(ctx context.Context, p *authsvc.Principal, accessToken string) context.Context {
	ctx = context.WithValue(ctx, principalContextKey{}, p)
	return context.WithValue(ctx, tokenContextKey{}, accessToken)
}

// Guard requires a valid access token in the Authorization header. Every
// token failure answers the same 401 with a Bearer challenge and the cause
// goes to logger. Store outages answer 503 and other errors 500.
func Guard(auth Authenticator, logger logging.Logger) func(http.Handler) http.Handler {
	if logger == nil {
		logger = logging.Nop()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if auth == nil {
				Unauthorized(w, "Not authenticated")
				return
			}

			token, ok := BearerToken(r.Header.Get("Authorization"))
			if !ok {
				Unauthorized(w, "Not authenticated")
				return
			}

			p, err := auth.Authenticate(r.Context(), token)
			if err != nil {
				switch authsvc.Kind(err) {
				case authsvc.KindUnavailable:
					logger.Warn(r.Context(), "bearer check unavailable", "error", err)
					WriteDetail(w, http.StatusServiceUnavailable, "Service temporarily unavailable")
				case authsvc.KindInternal:
					logger.Error(r.Context(), "bearer check failed", "error", err)
					WriteDetail(w, http.StatusInternalServerError, "Internal server error")
				default:
					logger.Info(r.Context(), "bearer token rejected", "error", err)
					Unauthorized(w, CredentialsDetail)
				}
				return
			}

			next.ServeHTTP(w, r.WithContext(WithPrincipal(r.Context(), p, token)))
		})
	}
}

// RequireSuperuser answers 403 unless Guard resolved a superuser. It must
// run after Guard.
func RequireSuperuser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p, ok := PrincipalFromContext(r.Context())
		if !ok {
			Unauthorized(w, "Not authenticated")
			return
		}
		if !p.IsSuperuser {
			WriteDetail(w, http.StatusForbidden, "Not enough permissions")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// BearerToken extracts the token from an "Authorization: Bearer" value.
// The scheme is matched case-insensitively.
func BearerToken(value string) (string, bool) {
	scheme, token, ok := strings.Cut(strings.TrimSpace(value), " ")
	if !ok || !strings.EqualFold(scheme, "bearer") {
		return "", false
	}

	token = strings.TrimSpace(token)
	if token == "" {
		return "", false
	}

	return token, true
}
