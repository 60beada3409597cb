package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/MrEthical07/authsvc"
	"github.com/MrEthical07/authsvc/internal/observability"
	"github.com/MrEthical07/authsvc/middleware"
	"github.com/gorilla/mux"
)

const maxBodyBytes = 1 << 20

var errorDetails = []struct {
	err    error
	detail string
}{
	{authsvc.ErrInvalidCredentials, "Invalid credentials"},
	{authsvc.ErrAccountInactive, "Account is deactivated"},
	{authsvc.ErrEmailNotVerified, "Email not verified"},
	{authsvc.ErrTokenRevoked, middleware.CredentialsDetail},
	{authsvc.ErrInvalidToken, middleware.CredentialsDetail},
	{authsvc.ErrInvalidResetToken, "Invalid or expired reset token"},
	{authsvc.ErrInvalidCurrentPassword, "Current password is incorrect"},
	{authsvc.ErrPermissionDenied, "Not enough permissions"},
	{authsvc.ErrRegistrationDisabled, "User registration is disabled"},
	{authsvc.ErrEmailTaken, "Email already registered"},
	{authsvc.ErrUsernameTaken, "Username already taken"},
	{authsvc.ErrUserNotFound, "User not found"},
	{authsvc.ErrRateLimited, "Rate limit exceeded"},
	{authsvc.ErrUnavailable, "Service temporarily unavailable"},
}

func statusFor(kind authsvc.ErrorKind) int {
	switch kind {
	case authsvc.KindValidation, authsvc.KindConflict:
		return http.StatusBadRequest
	case authsvc.KindAuthentication:
		return http.StatusUnauthorized
	case authsvc.KindAuthorization:
		return http.StatusForbidden
	case authsvc.KindNotFound:
		return http.StatusNotFound
	case authsvc.KindRateLimited:
		return http.StatusTooManyRequests
	case authsvc.KindUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// writeError maps an engine error to a status and a {"detail": ...} body.
// Internal errors are reported to Sentry and never echoed.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	kind := authsvc.Kind(err)

	var vErr *authsvc.ValidationError
	if errors.As(err, &vErr) {
		if len(vErr.Violations) == 0 {
			middleware.WriteDetail(w, http.StatusBadRequest, vErr.Message)
			return
		}
		middleware.WriteJSON(w, http.StatusBadRequest, map[string]any{
			"detail": map[string]any{
				"message": vErr.Message,
				"errors":  vErr.Violations,
			},
		})
		return
	}

	if kind == authsvc.KindInternal {
		observability.CaptureError(err, routeName(r))
		s.logger.Error(r.Context(), "request failed", "path", r.URL.Path, "error", err)
		middleware.WriteDetail(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	detail := "Request failed"
	for _, d := range errorDetails {
		if errors.Is(err, d.err) {
			detail = d.detail
			break
		}
	}

	if kind == authsvc.KindAuthentication {
		if detail == middleware.CredentialsDetail {
			s.logger.Info(r.Context(), "token rejected", "path", r.URL.Path, "error", err)
		}
		middleware.Unauthorized(w, detail)
		return
	}
	middleware.WriteDetail(w, statusFor(kind), detail)
}

func routeName(r *http.Request) string {
	if route := mux.CurrentRoute(r); route != nil {
		if tpl, err := route.GetPathTemplate(); err == nil {
			return tpl
		}
	}
	return r.URL.Path
}

// decode reads a JSON body into v. A bad body answers 422.
func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		middleware.WriteDetail(w, http.StatusUnprocessableEntity, "Invalid request body")
		return false
	}
	return true
}

func message(w http.ResponseWriter, text string) {
	middleware.WriteJSON(w, http.StatusOK, map[string]string{"message": text})
}
