package authsvc

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	internalaudit "github.com/MrEthical07/authsvc/internal/audit"
	"github.com/MrEthical07/authsvc/internal/flows"
	"github.com/MrEthical07/authsvc/internal/rate"
	"github.com/MrEthical07/authsvc/jwt"
	"github.com/MrEthical07/authsvc/password"
	"github.com/MrEthical07/authsvc/session"
	"github.com/redis/go-redis/v9"
)

// resetDeliveryTimeout bounds one ResetNotifier call.
const resetDeliveryTimeout = 30 * time.Second

// Engine coordinates credentials, tokens, sessions and rate limits. Build
// one with [Builder]; it is safe for concurrent use.
type Engine struct {
	config     Config
	redis      redis.UniversalClient
	users      UserStore
	passwords  *password.Argon2
	tokens     *jwt.Manager
	revocation *jwt.Revocation
	sessions   *session.Store
	limiter    *rate.Limiter
	audit      *internalaudit.Dispatcher
	metrics    *Metrics
	logger     Logger
	notifier   ResetNotifier
	now        func() time.Time
	dummyHash  string
	flows      flows.Service
	deliveries sync.WaitGroup
}

// Close waits for pending reset deliveries and flushes the audit
// dispatcher.
func (e *Engine) Close() {
	if e == nil {
		return
	}
	e.deliveries.Wait()
	e.audit.Close()
}

// Config returns a copy of the engine configuration without the secret.
func (e *Engine) Config() Config {
	cfg := cloneConfig(e.config)
	cfg.JWT.Secret = nil
	return cfg
}

// Logger returns the engine logger.
func (e *Engine) Logger() Logger {
	return e.logger
}

// Sessions exposes the session store for callers that attach state to a
// login session.
func (e *Engine) Sessions() *session.Store {
	return e.sessions
}

// AuditDropped reports events dropped by a full audit buffer.
func (e *Engine) AuditDropped() uint64 {
	if e == nil {
		return 0
	}
	return e.audit.Dropped()
}

// MetricsSnapshot returns a copy of every metric.
func (e *Engine) MetricsSnapshot() MetricsSnapshot {
	if e == nil || e.metrics == nil {
		return MetricsSnapshot{
			Counters:   map[MetricID]uint64{},
			Histograms: map[MetricID][]uint64{},
		}
	}
	return e.metrics.Snapshot()
}

// RecordMetric increments id. Transports use it for events the engine does
// not see, such as WebSocket traffic.
func (e *Engine) RecordMetric(id MetricID) {
	e.metricInc(id)
}

func (e *Engine) metricInc(id MetricID) {
	if e == nil || e.metrics == nil {
		return
	}
	e.metrics.Inc(id)
}

// ValidatePassword grades pw against the configured policy.
func (e *Engine) ValidatePassword(pw string) (bool, []string) {
	return e.config.PasswordPolicy.Validate(pw)
}

// CheckRateLimit counts one request for (scope, identifier) against tier.
// Store failures fail open. With rate limiting disabled every request is
// allowed.
func (e *Engine) CheckRateLimit(ctx context.Context, scope, identifier string, tier RateTier) RateDecision {
	if !e.config.RateLimit.Enabled {
		return RateDecision{Allowed: true, Limit: tier.Limit, Remaining: tier.Limit, ResetAt: e.now().Add(tier.Window)}
	}

	ctx, cancel := e.storeContext(ctx)
	defer cancel()

	decision := e.limiter.Check(ctx, scope, identifier, tier)
	if decision.Degraded {
		e.metricInc(MetricRateLimitDegraded)
	}
	if !decision.Allowed {
		e.metricInc(MetricRateLimitHit)
		switch scope {
		case "login":
			e.metricInc(MetricLoginRateLimited)
		case "register":
			e.metricInc(MetricRegisterRateLimited)
		}
		e.emitAudit(ctx, auditEventRateLimited, false, "", "", ErrRateLimited, func() map[string]string {
			return map[string]string{"scope": scope}
		})
	}
	return decision
}

// Health pings Redis and the user store.
func (e *Engine) Health(ctx context.Context) HealthStatus {
	ctx, cancel := e.storeContext(ctx)
	defer cancel()

	status := HealthStatus{Redis: true, Database: true}
	if err := e.redis.Ping(ctx).Err(); err != nil {
		e.logger.Warn(ctx, "redis health check failed", "error", err)
		status.Redis = false
	}
	if err := e.users.Ping(ctx); err != nil {
		e.logger.Warn(ctx, "database health check failed", "error", err)
		status.Database = false
	}
	return status
}

func (e *Engine) storeContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, e.config.Redis.OpTimeout)
}

// finish logs infrastructure and unexpected failures and hides the latter
// behind ErrInternal. Classified errors pass through unchanged.
func (e *Engine) finish(ctx context.Context, op string, err error) error {
	if err == nil {
		return nil
	}
	switch Kind(err) {
	case KindUnavailable:
		e.logger.Error(ctx, op+" failed", "error", err)
		return err
	case KindInternal:
		e.logger.Error(ctx, op+" failed", "error", err)
		if errors.Is(err, ErrInternal) || errors.Is(err, ErrEngineNotReady) {
			return err
		}
		return fmt.Errorf("%w: %v", ErrInternal, err)
	default:
		return err
	}
}

func (e *Engine) ready() bool {
	return e != nil && e.flows.Initialized()
}
