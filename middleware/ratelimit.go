package middleware

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/MrEthical07/authsvc"
)

// RateChecker counts requests. *authsvc.Engine satisfies it.
type RateChecker interface {
	CheckRateLimit(ctx context.Context, scope, identifier string, tier authsvc.RateTier) authsvc.RateDecision
}

// RateLimit counts each request per client IP under scope. The IP is the one
// RequestContext resolved, or the immediate peer when it did not run. Every
// response carries X-RateLimit-* headers; a denied request gets 429.
func RateLimit(checker RateChecker, scope string, tier authsvc.RateTier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if checker == nil || tier.Limit <= 0 {
				next.ServeHTTP(w, r)
				return
			}

			ip := authsvc.ClientIPFromContext(r.Context())
			if ip == "" {
				ip = ClientIP(r, nil)
			}
			if ip == "" {
				next.ServeHTTP(w, r)
				return
			}

			d := checker.CheckRateLimit(r.Context(), scope, ip, tier)
			h := w.Header()
			h.Set("X-RateLimit-Limit", strconv.Itoa(d.Limit))
			h.Set("X-RateLimit-Remaining", strconv.Itoa(d.Remaining))
			h.Set("X-RateLimit-Reset", strconv.FormatInt(d.ResetAt.Unix(), 10))

			if !d.Allowed {
				wait := int(time.Until(d.ResetAt).Seconds())
				if wait < 1 {
					wait = 1
				}
				h.Set("Retry-After", strconv.Itoa(wait))
				WriteDetail(w, http.StatusTooManyRequests, fmt.Sprintf("Rate limit exceeded. Try again in %d seconds.", wait))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
