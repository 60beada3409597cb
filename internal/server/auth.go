package server

import (
	"net/http"
	"strings"

	"github.com/MrEthical07/authsvc"
	"github.com/MrEthical07/authsvc/middleware"
)

type loginRequest struct {
	// Email accepts a username too.
	Email    string `json:"email"`
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	authsvc.TokenPair
	User      authsvc.PublicUser `json:"user"`
	SessionID string             `json:"session_id"`
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type logoutRequest struct {
	SessionID string `json:"session_id"`
}

type resetRequest struct {
	Email string `json:"email"`
}

type resetConfirmRequest struct {
	Token       string `json:"token"`
	NewPassword string `json:"new_password"`
}

type changePasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req authsvc.RegisterRequest
	if !decode(w, r, &req) {
		return
	}
	if req.Email == "" || req.Password == "" {
		middleware.WriteDetail(w, http.StatusUnprocessableEntity, "email and password are required")
		return
	}

	user, err := s.engine.Register(r.Context(), req)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	middleware.WriteJSON(w, http.StatusCreated, user)
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !decode(w, r, &req) {
		return
	}
	identifier := req.Email
	if identifier == "" {
		identifier = req.Username
	}
	if identifier == "" || req.Password == "" {
		middleware.WriteDetail(w, http.StatusUnprocessableEntity, "email and password are required")
		return
	}

	res, err := s.engine.Login(r.Context(), identifier, req.Password)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	middleware.WriteJSON(w, http.StatusOK, loginResponse{
		TokenPair: res.Tokens,
		User:      res.User,
		SessionID: res.SessionID,
	})
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if !decode(w, r, &req) {
		return
	}

	pair, err := s.engine.Refresh(r.Context(), req.RefreshToken)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	middleware.WriteJSON(w, http.StatusOK, pair)
}

// handleLogout reads session_id from the query string or an optional JSON
// body.
func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	sessionID := r.URL.Query().Get("session_id")
	if sessionID == "" && r.ContentLength != 0 && strings.HasPrefix(r.Header.Get("Content-Type"), "application/json") {
		var req logoutRequest
		if !decode(w, r, &req) {
			return
		}
		sessionID = req.SessionID
	}

	token := middleware.AccessTokenFromContext(r.Context())
	if err := s.engine.Logout(r.Context(), token, sessionID); err != nil {
		s.writeError(w, r, err)
		return
	}
	message(w, "Successfully logged out")
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	p, _ := middleware.PrincipalFromContext(r.Context())
	user, err := s.engine.Me(r.Context(), p.UserID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	middleware.WriteJSON(w, http.StatusOK, user)
}

func (s *Server) handleResetRequest(w http.ResponseWriter, r *http.Request) {
	var req resetRequest
	if !decode(w, r, &req) {
		return
	}
	message(w, s.engine.RequestPasswordReset(r.Context(), req.Email))
}

func (s *Server) handleResetConfirm(w http.ResponseWriter, r *http.Request) {
	var req resetConfirmRequest
	if !decode(w, r, &req) {
		return
	}
	if err := s.engine.ConfirmPasswordReset(r.Context(), req.Token, req.NewPassword); err != nil {
		s.writeError(w, r, err)
		return
	}
	message(w, "Password reset successfully")
}

func (s *Server) handleChangePassword(w http.ResponseWriter, r *http.Request) {
	var req changePasswordRequest
	if !decode(w, r, &req) {
		return
	}
	p, _ := middleware.PrincipalFromContext(r.Context())
	if err := s.engine.ChangePassword(r.Context(), p.UserID, req.CurrentPassword, req.NewPassword); err != nil {
		s.writeError(w, r, err)
		return
	}
	message(w, "Password changed successfully")
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	h := s.engine.Health(r.Context())
	status, code := "healthy", http.StatusOK
	if !h.Healthy() {
		status, code = "unhealthy", http.StatusServiceUnavailable
	}
	middleware.WriteJSON(w, code, map[string]any{
		"status":   status,
		"redis":    h.Redis,
		"database": h.Database,
	})
}
