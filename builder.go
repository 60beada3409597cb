package authsvc

import (
	"errors"
	"fmt"
	"time"

	"github.com/MrEthical07/authsvc/internal"
	internalaudit "github.com/MrEthical07/authsvc/internal/audit"
	"github.com/MrEthical07/authsvc/internal/flows"
	"github.com/MrEthical07/authsvc/internal/logging"
	"github.com/MrEthical07/authsvc/internal/rate"
	"github.com/MrEthical07/authsvc/jwt"
	"github.com/MrEthical07/authsvc/password"
	"github.com/MrEthical07/authsvc/session"
	"github.com/redis/go-redis/v9"
)

// Builder assembles an Engine. A Builder may be used once.
type Builder struct {
	config Config
	redis  redis.UniversalClient
	users  UserStore

	logger    Logger
	auditSink AuditSink
	notifier  ResetNotifier
	now       func() time.Time

	built bool
}

// New returns a Builder seeded with DefaultConfig.
func New() *Builder {
	return &Builder{
		config: DefaultConfig(),
	}
}

func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cloneConfig(cfg)
	return b
}

// WithRedis sets the client backing sessions, the token blacklist and the
// rate limiter.
func (b *Builder) WithRedis(client redis.UniversalClient) *Builder {
	b.redis = client
	return b
}

func (b *Builder) WithUserStore(users UserStore) *Builder {
	b.users = users
	return b
}

func (b *Builder) WithLogger(logger Logger) *Builder {
	b.logger = logger
	return b
}

// WithAuditSink sets the audit destination and enables the dispatcher.
func (b *Builder) WithAuditSink(sink AuditSink) *Builder {
	b.auditSink = sink
	if sink != nil {
		b.config.Audit.Enabled = true
	}
	return b
}

// WithResetNotifier sets the delivery channel for password-reset tokens.
// Without one, the engine logs that a token was issued and drops it.
func (b *Builder) WithResetNotifier(n ResetNotifier) *Builder {
	b.notifier = n
	return b
}

// WithClock replaces the wall clock used for tokens, revocation and rate
// limiting.
func (b *Builder) WithClock(now func() time.Time) *Builder {
	b.now = now
	return b
}

func (b *Builder) WithMetricsEnabled(enabled bool) *Builder {
	b.config.Metrics.Enabled = enabled
	return b
}

func (b *Builder) WithLatencyHistograms(enabled bool) *Builder {
	b.config.Metrics.EnableLatencyHistograms = enabled
	return b
}

// Build validates the configuration and wires every component.
func (b *Builder) Build() (*Engine, error) {
	if b.built {
		return nil, errors.New("builder already used")
	}
	if b.redis == nil {
		return nil, errors.New("redis client required")
	}
	if b.users == nil {
		return nil, errors.New("user store required")
	}

	cfg := cloneConfig(b.config)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	now := b.now
	if now == nil {
		now = time.Now
	}
	logger := b.logger
	if logger == nil {
		logger = logging.Nop()
	}

	ph, err := password.NewArgon2(password.Config{
		Memory:      cfg.Password.Memory,
		Time:        cfg.Password.Time,
		Parallelism: cfg.Password.Parallelism,
		SaltLength:  cfg.Password.SaltLength,
		KeyLength:   cfg.Password.KeyLength,
	})
	if err != nil {
		return nil, err
	}

	jm, err := jwt.NewManager(jwt.Config{
		Secret:        cloneBytes(cfg.JWT.Secret),
		SigningMethod: jwt.SigningMethod(cfg.JWT.SigningMethod),
		AccessTTL:     cfg.JWT.AccessTTL,
		RefreshTTL:    cfg.JWT.RefreshTTL,
		ResetTTL:      cfg.JWT.ResetTTL,
		Issuer:        cfg.JWT.Issuer,
		Leeway:        cfg.JWT.Leeway,
		Now:           now,
	})
	if err != nil {
		return nil, err
	}

	// Unknown identifiers are verified against this hash so they cost the
	// same as a wrong password.
	filler, err := internal.URLSafeToken(32)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInternal, err)
	}
	dummyHash, err := ph.Hash(filler)
	if err != nil {
		return nil, err
	}

	engine := &Engine{
		config:     cfg,
		redis:      b.redis,
		users:      b.users,
		passwords:  ph,
		tokens:     jm,
		revocation: jwt.NewRevocation(b.redis, now),
		sessions:   session.NewStore(b.redis, cfg.Session.Namespace, cfg.Session.TTL),
		limiter:    rate.New(b.redis, cfg.Session.Namespace, logger).WithClock(now),
		metrics:    NewMetrics(cfg.Metrics),
		logger:     logger.With("component", "authsvc"),
		notifier:   b.notifier,
		now:        now,
		dummyHash:  dummyHash,
	}
	engine.audit = internalaudit.NewDispatcher(internalaudit.Config{
		Enabled:    cfg.Audit.Enabled,
		BufferSize: cfg.Audit.BufferSize,
		DropIfFull: cfg.Audit.DropIfFull,
		OnDrop:     func(string) { engine.metricInc(MetricAuditDropped) },
	}, b.auditSink)
	engine.flows = flows.New(engine.buildFlowDeps())

	b.built = true

	return engine, nil
}
