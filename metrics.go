package authsvc

import internalmetrics "github.com/MrEthical07/authsvc/internal/metrics"

// MetricID identifies a counter or histogram in the in-process metrics set.
type MetricID = internalmetrics.ID

// Metrics is the lock-free counter set owned by an Engine.
type Metrics = internalmetrics.Metrics

// MetricsSnapshot is a point-in-time copy of all metrics.
type MetricsSnapshot = internalmetrics.Snapshot

// MetricsConfig toggles collection.
type MetricsConfig = internalmetrics.Config

const (
	MetricLoginSuccess                 = internalmetrics.LoginSuccess
	MetricLoginFailure                 = internalmetrics.LoginFailure
	MetricLoginRateLimited             = internalmetrics.LoginRateLimited
	MetricRegisterSuccess              = internalmetrics.RegisterSuccess
	MetricRegisterDuplicate            = internalmetrics.RegisterDuplicate
	MetricRegisterRateLimited          = internalmetrics.RegisterRateLimited
	MetricRefreshSuccess               = internalmetrics.RefreshSuccess
	MetricRefreshFailure               = internalmetrics.RefreshFailure
	MetricAuthenticateSuccess          = internalmetrics.AuthenticateSuccess
	MetricAuthenticateFailure          = internalmetrics.AuthenticateFailure
	MetricTokenRevoked                 = internalmetrics.TokenRevoked
	MetricSessionCreated               = internalmetrics.SessionCreated
	MetricSessionDeleted               = internalmetrics.SessionDeleted
	MetricLogout                       = internalmetrics.Logout
	MetricPasswordRehashed             = internalmetrics.PasswordRehashed
	MetricPasswordResetRequest         = internalmetrics.PasswordResetRequest
	MetricPasswordResetConfirmSuccess  = internalmetrics.PasswordResetConfirmSuccess
	MetricPasswordResetConfirmFailure  = internalmetrics.PasswordResetConfirmFailure
	MetricPasswordChangeSuccess        = internalmetrics.PasswordChangeSuccess
	MetricPasswordChangeInvalidCurrent = internalmetrics.PasswordChangeInvalidCurrent
	MetricUserUpdated                  = internalmetrics.UserUpdated
	MetricUserDeleted                  = internalmetrics.UserDeleted
	MetricUserCreated                  = internalmetrics.UserCreated
	MetricUserListed                   = internalmetrics.UserListed
	MetricRateLimitHit                 = internalmetrics.RateLimitHit
	MetricRateLimitDegraded            = internalmetrics.RateLimitDegraded
	MetricWSConnect                    = internalmetrics.WSConnect
	MetricWSDisconnect                 = internalmetrics.WSDisconnect
	MetricWSMessage                    = internalmetrics.WSMessage
	MetricWSRateLimited                = internalmetrics.WSRateLimited
	MetricAuditDropped                 = internalmetrics.AuditDropped
	MetricAuthenticateLatency          = internalmetrics.AuthenticateLatency
)

// NewMetrics returns a metrics set; a disabled set records nothing.
func NewMetrics(cfg MetricsConfig) *Metrics {
	return internalmetrics.New(cfg)
}
