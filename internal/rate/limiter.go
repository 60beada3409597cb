package rate

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/MrEthical07/authsvc/internal"
	"github.com/MrEthical07/authsvc/internal/logging"
	"github.com/redis/go-redis/v9"
)

// Tier is a (limit, window) pair.
type Tier struct {
	Limit  int
	Window time.Duration
}

var (
	// Strict guards sensitive endpoints such as registration and password reset.
	Strict = Tier{Limit: 10, Window: time.Minute}
	// Normal is the general API tier.
	Normal = Tier{Limit: 60, Window: time.Minute}
	// Loose is for cheap, read-mostly endpoints.
	Loose = Tier{Limit: 100, Window: time.Minute}
)

// Decision is the outcome of a single Check.
type Decision struct {
	Allowed   bool
	Limit     int
	Remaining int
	ResetAt   time.Time
	// Degraded is set when the store failed and the request was let through.
	Degraded bool
}

// slidingWindowScript purges entries at or before the cutoff, counts the
// rest and records the request only when the count is below the limit.
//
// KEYS[1] window set
// ARGV[1] now (ms), ARGV[2] cutoff (ms), ARGV[3] limit, ARGV[4] member,
// ARGV[5] window (ms)
const slidingWindowScript = `
redis.call("ZREMRANGEBYSCORE", KEYS[1], "-inf", ARGV[2])
local count = redis.call("ZCARD", KEYS[1])
if count < tonumber(ARGV[3]) then
  redis.call("ZADD", KEYS[1], ARGV[1], ARGV[4])
  redis.call("PEXPIRE", KEYS[1], ARGV[5])
  return {1, count}
end
return {0, count}
`

var slidingWindowLua = redis.NewScript(slidingWindowScript)

// Limiter is a sliding-window limiter over Redis sorted sets. Every check is
// a single script invocation so concurrent requests for the same key cannot
// interleave.
type Limiter struct {
	redis  redis.UniversalClient
	prefix string
	logger logging.Logger
	now    func() time.Time
	nonce  func() (string, error)
}

// New returns a Limiter writing keys under "<namespace>:rate_limit:".
func New(redisClient redis.UniversalClient, namespace string, logger logging.Logger) *Limiter {
	if logger == nil {
		logger = logging.Nop()
	}
	prefix := "rate_limit:"
	if namespace != "" {
		prefix = namespace + ":rate_limit:"
	}
	return &Limiter{
		redis:  redisClient,
		prefix: prefix,
		logger: logger.With("component", "rate"),
		now:    time.Now,
		nonce:  func() (string, error) { return internal.HexToken(8) },
	}
}

// WithClock replaces the limiter clock. It is meant for tests and returns l.
func (l *Limiter) WithClock(now func() time.Time) *Limiter {
	l.now = now
	return l
}

// Key returns the Redis key for scope and identifier.
func (l *Limiter) Key(scope, identifier string) string {
	return l.prefix + scope + ":" + identifier
}

// Check records one request for (scope, identifier) against tier.
//
// Store failures fail open: the request is allowed, Remaining equals the
// limit, Degraded is set and a warning is logged. A tier with a
// non-positive limit or window disables limiting.
func (l *Limiter) Check(ctx context.Context, scope, identifier string, tier Tier) Decision {
	now := l.now()
	resetAt := now.Add(tier.Window)

	if tier.Limit <= 0 || tier.Window <= 0 {
		return Decision{Allowed: true, Limit: tier.Limit, Remaining: tier.Limit, ResetAt: resetAt}
	}

	nowMS := now.UnixMilli()
	nonce, err := l.nonce()
	if err != nil {
		return l.failOpen(ctx, scope, identifier, tier, resetAt, err)
	}
	// Same-millisecond requests get distinct members so each one counts.
	member := strconv.FormatInt(nowMS, 10) + ":" + nonce

	res, err := slidingWindowLua.Run(ctx, l.redis,
		[]string{l.Key(scope, identifier)},
		nowMS, nowMS-tier.Window.Milliseconds(), tier.Limit, member, tier.Window.Milliseconds(),
	).Int64Slice()
	if err != nil {
		return l.failOpen(ctx, scope, identifier, tier, resetAt, fmt.Errorf("%w: %v", ErrRedisUnavailable, err))
	}
	if len(res) != 2 {
		return l.failOpen(ctx, scope, identifier, tier, resetAt, fmt.Errorf("%w: unexpected script reply %v", ErrRedisUnavailable, res))
	}

	if res[0] == 1 {
		return Decision{
			Allowed:   true,
			Limit:     tier.Limit,
			Remaining: tier.Limit - int(res[1]) - 1,
			ResetAt:   resetAt,
		}
	}
	return Decision{Allowed: false, Limit: tier.Limit, Remaining: 0, ResetAt: resetAt}
}

func (l *Limiter) failOpen(ctx context.Context, scope, identifier string, tier Tier, resetAt time.Time, err error) Decision {
	l.logger.Warn(ctx, "rate limit check failed, allowing request",
		"scope", scope,
		"identifier", identifier,
		"error", err,
	)
	return Decision{
		Allowed:   true,
		Limit:     tier.Limit,
		Remaining: tier.Limit,
		ResetAt:   resetAt,
		Degraded:  true,
	}
}
