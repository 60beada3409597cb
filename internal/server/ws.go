package server

import (
	"net/http"
	"time"

	"github.com/MrEthical07/authsvc"
	"github.com/MrEthical07/authsvc/middleware"
	"github.com/MrEthical07/authsvc/realtime"
	"github.com/gorilla/websocket"
)

const (
	closeWriteWait  = time.Second
	defaultPongWait = 60 * time.Second

	// maxFrameBytes caps one inbound frame. Larger frames close the
	// connection with 1009.
	maxFrameBytes = 64 << 10
)

// handleWSConnect upgrades, then authenticates the ?token= access token.
// Failures are reported as close frames so browser clients can read the
// reason.
func (s *Server) handleWSConnect(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn(r.Context(), "websocket upgrade failed", "error", err)
		return
	}

	if !s.config.Features.WebSocket {
		s.closeConn(conn, websocket.CloseUnsupportedData, "WebSocket feature disabled")
		return
	}

	token := r.URL.Query().Get("token")
	if token == "" {
		s.closeConn(conn, websocket.ClosePolicyViolation, "Authentication required")
		return
	}

	p, err := s.engine.Authenticate(r.Context(), token)
	if err != nil {
		switch authsvc.Kind(err) {
		case authsvc.KindUnavailable, authsvc.KindInternal:
			s.closeConn(conn, websocket.CloseInternalServerErr, "Authentication failed")
		default:
			s.closeConn(conn, websocket.ClosePolicyViolation, "Invalid token")
		}
		return
	}

	conn.SetReadLimit(maxFrameBytes)
	_ = conn.SetReadDeadline(s.now().Add(s.pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(s.now().Add(s.pongWait))
	})
	stop := make(chan struct{})
	defer close(stop)
	go s.keepAlive(conn, stop)

	client := s.dispatcher.NewClient(conn, realtime.Identity{
		UserID:      p.UserID,
		Email:       p.Email,
		Username:    p.Username,
		IsSuperuser: p.IsSuperuser,
	})
	s.dispatcher.Serve(r.Context(), client)
}

// keepAlive pings conn until stop closes. A failed ping ends the loop; the
// read deadline then expires and Serve returns.
func (s *Server) keepAlive(conn *websocket.Conn, stop <-chan struct{}) {
	ticker := time.NewTicker(s.pongWait * 9 / 10)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, s.now().Add(closeWriteWait)); err != nil {
				return
			}
		case <-stop:
			return
		}
	}
}

func (s *Server) closeConn(conn *websocket.Conn, code int, reason string) {
	msg := websocket.FormatCloseMessage(code, reason)
	_ = conn.WriteControl(websocket.CloseMessage, msg, s.now().Add(closeWriteWait))
	_ = conn.Close()
}

func (s *Server) handleWSHealth(w http.ResponseWriter, _ *http.Request) {
	middleware.WriteJSON(w, http.StatusOK, map[string]any{
		"status":            "healthy",
		"feature_enabled":   s.config.Features.WebSocket,
		"active_users":      len(s.hub.ActiveUsers()),
		"total_connections": s.hub.TotalConnections(),
		"timestamp":         s.now().UTC().Format(time.RFC3339),
	})
}
