package internaldefs

import (
	"github.com/MrEthical07/authsvc"
)

// CounterDef binds an engine counter to its exported name.
type CounterDef struct {
	ID   authsvc.MetricID
	Name string
	Help string
}

// HistogramDef binds an engine histogram to its exported name.
type HistogramDef struct {
	ID   authsvc.MetricID
	Name string
	Help string
}

// CounterDefs lists every exported counter in render order.
var CounterDefs = []CounterDef{
	{ID: authsvc.MetricLoginSuccess, Name: "authsvc_login_success_total", Help: "Successful logins."},
	{ID: authsvc.MetricLoginFailure, Name: "authsvc_login_failure_total", Help: "Failed logins."},
	{ID: authsvc.MetricLoginRateLimited, Name: "authsvc_login_rate_limited_total", Help: "Login attempts rejected by the rate limiter."},
	{ID: authsvc.MetricRegisterSuccess, Name: "authsvc_register_success_total", Help: "Successful registrations."},
	{ID: authsvc.MetricRegisterDuplicate, Name: "authsvc_register_duplicate_total", Help: "Registrations rejected for a taken email or username."},
	{ID: authsvc.MetricRegisterRateLimited, Name: "authsvc_register_rate_limited_total", Help: "Registrations rejected by the rate limiter."},
	{ID: authsvc.MetricRefreshSuccess, Name: "authsvc_refresh_success_total", Help: "Successful token refreshes."},
	{ID: authsvc.MetricRefreshFailure, Name: "authsvc_refresh_failure_total", Help: "Failed token refreshes."},
	{ID: authsvc.MetricAuthenticateSuccess, Name: "authsvc_authenticate_success_total", Help: "Access tokens accepted."},
	{ID: authsvc.MetricAuthenticateFailure, Name: "authsvc_authenticate_failure_total", Help: "Access tokens rejected."},
	{ID: authsvc.MetricTokenRevoked, Name: "authsvc_token_revoked_total", Help: "Tokens added to the blacklist."},
	{ID: authsvc.MetricSessionCreated, Name: "authsvc_session_created_total", Help: "Sessions created."},
	{ID: authsvc.MetricSessionDeleted, Name: "authsvc_session_deleted_total", Help: "Sessions deleted."},
	{ID: authsvc.MetricLogout, Name: "authsvc_logout_total", Help: "Logouts."},
	{ID: authsvc.MetricPasswordRehashed, Name: "authsvc_password_rehashed_total", Help: "Stored hashes upgraded on login."},
	{ID: authsvc.MetricPasswordResetRequest, Name: "authsvc_password_reset_request_total", Help: "Password reset requests."},
	{ID: authsvc.MetricPasswordResetConfirmSuccess, Name: "authsvc_password_reset_confirm_success_total", Help: "Completed password resets."},
	{ID: authsvc.MetricPasswordResetConfirmFailure, Name: "authsvc_password_reset_confirm_failure_total", Help: "Rejected password reset confirmations."},
	{ID: authsvc.MetricPasswordChangeSuccess, Name: "authsvc_password_change_success_total", Help: "Password changes."},
	{ID: authsvc.MetricPasswordChangeInvalidCurrent, Name: "authsvc_password_change_invalid_current_total", Help: "Password changes rejected for a wrong current password."},
	{ID: authsvc.MetricUserUpdated, Name: "authsvc_user_updated_total", Help: "User updates."},
	{ID: authsvc.MetricUserDeleted, Name: "authsvc_user_deleted_total", Help: "User deletions."},
	{ID: authsvc.MetricUserCreated, Name: "authsvc_user_created_total", Help: "Users created by an administrator."},
	{ID: authsvc.MetricUserListed, Name: "authsvc_user_listed_total", Help: "User list queries."},
	{ID: authsvc.MetricRateLimitHit, Name: "authsvc_rate_limit_hit_total", Help: "Rate limit checks that denied a request."},
	{ID: authsvc.MetricRateLimitDegraded, Name: "authsvc_rate_limit_degraded_total", Help: "Rate limit checks allowed because the store was unreachable."},
	{ID: authsvc.MetricWSConnect, Name: "authsvc_ws_connect_total", Help: "WebSocket connections accepted."},
	{ID: authsvc.MetricWSDisconnect, Name: "authsvc_ws_disconnect_total", Help: "WebSocket connections closed."},
	{ID: authsvc.MetricWSMessage, Name: "authsvc_ws_message_total", Help: "WebSocket messages handled."},
	{ID: authsvc.MetricWSRateLimited, Name: "authsvc_ws_rate_limited_total", Help: "WebSocket messages dropped by the per-connection throttle."},
	{ID: authsvc.MetricAuditDropped, Name: "authsvc_audit_dropped_total", Help: "Audit events dropped under backpressure."},
}

// HistogramDefs lists every exported histogram.
var HistogramDefs = []HistogramDef{
	{ID: authsvc.MetricAuthenticateLatency, Name: "authsvc_authenticate_latency_seconds", Help: "Access token verification latency."},
}

// HistogramBounds are the upper bounds of the engine buckets in seconds.
var HistogramBounds = []string{
	"0.005",
	"0.01",
	"0.025",
	"0.05",
	"0.1",
	"0.25",
	"0.5",
	"+Inf",
}

// HistogramBoundSuffix mirrors HistogramBounds in a form usable inside
// instrument names.
var HistogramBoundSuffix = []string{
	"0_005",
	"0_01",
	"0_025",
	"0_05",
	"0_1",
	"0_25",
	"0_5",
	"inf",
}

// NormalizeBuckets pads or truncates raw to the fixed bucket count.
func NormalizeBuckets(raw []uint64) [8]uint64 {
	var out [8]uint64
	for i := 0; i < len(out) && i < len(raw); i++ {
		out[i] = raw[i]
	}
	return out
}

// CumulativeBuckets converts per-bucket counts into running totals.
func CumulativeBuckets(raw [8]uint64) [8]uint64 {
	var out [8]uint64
	var running uint64
	for i := 0; i < len(raw); i++ {
		running += raw[i]
		out[i] = running
	}
	return out
}
