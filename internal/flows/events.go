package flows

// Audit event types emitted by the flows.
const (
	EventRegisterSuccess       = "register_success"
	EventRegisterFailure       = "register_failure"
	EventRegisterDuplicate     = "register_duplicate"
	EventLoginSuccess          = "login_success"
	EventLoginFailure          = "login_failure"
	EventRefreshSuccess        = "refresh_success"
	EventRefreshInvalid        = "refresh_invalid"
	EventLogout                = "logout"
	EventPasswordRehashed      = "password_rehashed"
	EventPasswordResetRequest  = "password_reset_request"
	EventPasswordResetConfirm  = "password_reset_confirm"
	EventPasswordChangeSuccess = "password_change_success"
	EventPasswordChangeInvalid = "password_change_invalid_current"
	EventUserUpdated           = "user_updated"
	EventUserDeleted           = "user_deleted"
	EventUserCreated           = "user_created"
	EventPermissionDenied      = "permission_denied"
)
