package jwt

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const blacklistPrefix = "blacklist:token:"

// ErrRevocationUnavailable is returned when the blacklist store cannot be
// reached. Callers must treat it as a failed check.
var ErrRevocationUnavailable = errors.New("revocation store unavailable")

// Revocation keeps an explicit blacklist of raw token strings in Redis. Each
// marker lives exactly as long as the token it blocks.
type Revocation struct {
	redis redis.UniversalClient
	now   func() time.Time
}

// NewRevocation returns a blacklist backed by client. now may be nil.
func NewRevocation(client redis.UniversalClient, now func() time.Time) *Revocation {
	if now == nil {
		now = time.Now
	}
	return &Revocation{redis: client, now: now}
}

func blacklistKey(token string) string {
	return blacklistPrefix + token
}

// Revoke blacklists token until expiresAt. A token that has already expired
// is dead anyway, so the call succeeds without writing.
func (r *Revocation) Revoke(ctx context.Context, token string, expiresAt time.Time) (bool, error) {
	ttl := expiresAt.Sub(r.now())
	if ttl <= 0 {
		return true, nil
	}

	if err := r.redis.Set(ctx, blacklistKey(token), "revoked", ttl).Err(); err != nil {
		return false, fmt.Errorf("%w: %v", ErrRevocationUnavailable, err)
	}
	return true, nil
}

// Claim blacklists token only if no marker exists yet, and reports whether
// this call placed it. Exactly one of any number of concurrent callers wins.
// An expired token cannot be claimed.
func (r *Revocation) Claim(ctx context.Context, token string, expiresAt time.Time) (bool, error) {
	ttl := expiresAt.Sub(r.now())
	if ttl <= 0 {
		return false, nil
	}

	ok, err := r.redis.SetNX(ctx, blacklistKey(token), "revoked", ttl).Result()
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrRevocationUnavailable, err)
	}
	return ok, nil
}

// IsRevoked reports whether a blacklist marker exists for token.
func (r *Revocation) IsRevoked(ctx context.Context, token string) (bool, error) {
	n, err := r.redis.Exists(ctx, blacklistKey(token)).Result()
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrRevocationUnavailable, err)
	}
	return n > 0, nil
}
