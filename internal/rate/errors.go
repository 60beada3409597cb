package rate

import "errors"

var (
	// ErrRateLimited is returned by callers that turn a denied Decision into an error.
	ErrRateLimited = errors.New("rate limited")
	// ErrRedisUnavailable wraps store failures. Check never returns it; it is
	// reported to the logger and the decision is marked Degraded.
	ErrRedisUnavailable = errors.New("redis unavailable")
)
