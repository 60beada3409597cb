package authsvc

import (
	"errors"
	"strings"
)

var (
	// ErrRegistrationDisabled is returned by Register when sign-up is off.
	ErrRegistrationDisabled = errors.New("user registration is disabled")
	// ErrInvalidCredentials covers both an unknown identifier and a wrong password.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrAccountInactive is returned for a deactivated account holding valid credentials.
	ErrAccountInactive = errors.New("account is deactivated")
	// ErrEmailNotVerified is returned at login when verification is required.
	ErrEmailNotVerified = errors.New("email not verified")
	// ErrInvalidToken covers malformed, expired, foreign and wrong-type tokens.
	ErrInvalidToken = errors.New("could not validate credentials")
	// ErrTokenRevoked is returned for a blacklisted token.
	ErrTokenRevoked = errors.New("token has been revoked")
	// ErrInvalidResetToken is returned by ConfirmPasswordReset.
	ErrInvalidResetToken = errors.New("invalid or expired reset token")
	// ErrInvalidCurrentPassword is returned by ChangePassword.
	ErrInvalidCurrentPassword = errors.New("current password is incorrect")
	// ErrPermissionDenied is an authorization failure for an authenticated caller.
	ErrPermissionDenied = errors.New("not enough permissions")
	// ErrEmailTaken is returned when the email belongs to another account.
	ErrEmailTaken = errors.New("email already registered")
	// ErrUsernameTaken is returned when the username belongs to another account.
	ErrUsernameTaken = errors.New("username already taken")
	// ErrUserNotFound is returned by user-management operations.
	ErrUserNotFound = errors.New("user not found")
	// ErrRateLimited is returned when a rate-limit tier denies a request.
	ErrRateLimited = errors.New("rate limit exceeded")
	// ErrUnavailable wraps failures of the session, credential or blacklist
	// stores. These fail closed.
	ErrUnavailable = errors.New("backing store unavailable")
	// ErrInternal wraps unexpected failures. Its text is safe to show.
	ErrInternal = errors.New("internal error")
	// ErrEngineNotReady is returned by a zero or partially built Engine.
	ErrEngineNotReady = errors.New("engine not ready")
)

// ValidationError reports rejected input with every violation found.
type ValidationError struct {
	Message    string
	Violations []string
}

func (e *ValidationError) Error() string {
	if len(e.Violations) == 0 {
		return e.Message
	}
	return e.Message + ": " + strings.Join(e.Violations, "; ")
}

func newValidationError(message string, violations []string) error {
	return &ValidationError{Message: message, Violations: violations}
}

// ErrorKind groups errors by how a transport should report them.
type ErrorKind int

const (
	KindInternal ErrorKind = iota
	KindValidation
	KindAuthentication
	KindAuthorization
	KindConflict
	KindNotFound
	KindRateLimited
	KindUnavailable
)

func (k ErrorKind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindAuthentication:
		return "authentication"
	case KindAuthorization:
		return "authorization"
	case KindConflict:
		return "conflict"
	case KindNotFound:
		return "not_found"
	case KindRateLimited:
		return "rate_limited"
	case KindUnavailable:
		return "unavailable"
	default:
		return "internal"
	}
}

// Kind classifies err. Anything unrecognised is KindInternal.
func Kind(err error) ErrorKind {
	var vErr *ValidationError
	switch {
	case err == nil:
		return KindInternal
	case errors.As(err, &vErr):
		return KindValidation
	case errors.Is(err, ErrInvalidResetToken),
		errors.Is(err, ErrInvalidCurrentPassword):
		return KindValidation
	case errors.Is(err, ErrInvalidCredentials),
		errors.Is(err, ErrAccountInactive),
		errors.Is(err, ErrEmailNotVerified),
		errors.Is(err, ErrInvalidToken),
		errors.Is(err, ErrTokenRevoked):
		return KindAuthentication
	case errors.Is(err, ErrPermissionDenied),
		errors.Is(err, ErrRegistrationDisabled):
		return KindAuthorization
	case errors.Is(err, ErrEmailTaken),
		errors.Is(err, ErrUsernameTaken):
		return KindConflict
	case errors.Is(err, ErrUserNotFound):
		return KindNotFound
	case errors.Is(err, ErrRateLimited):
		return KindRateLimited
	case errors.Is(err, ErrUnavailable):
		return KindUnavailable
	default:
		return KindInternal
	}
}
