package realtime

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/MrEthical07/authsvc/internal/logging"
)

// Conn is one duplex client channel. *websocket.Conn satisfies it.
type Conn interface {
	ReadMessage() (messageType int, p []byte, err error)
	WriteJSON(v any) error
	Close() error
}

// Hooks observe registry changes. Nil fields are ignored.
type Hooks struct {
	OnConnect    func(userID string)
	OnDisconnect func(userID string)
}

// ConnInfo describes a registered connection.
type ConnInfo struct {
	UserID       string
	ConnectedAt  time.Time
	LastActivity time.Time
	Metadata     map[string]string
}

type connState struct {
	userID      string
	connectedAt time.Time
	metadata    map[string]string

	lastActivity atomic.Int64
	writeMu      sync.Mutex
}

// Manager is the process-local registry of live connections keyed by user.
// It is the only writer to a registered Conn. The registry lock is never
// held while writing to a socket.
type Manager struct {
	mu     sync.RWMutex
	users  map[string]map[Conn]struct{}
	conns  map[Conn]*connState
	hooks  Hooks
	logger logging.Logger
	now    func() time.Time
}

// NewManager returns an empty registry. logger may be nil.
func NewManager(logger logging.Logger, hooks Hooks) *Manager {
	if logger == nil {
		logger = logging.Nop()
	}
	return &Manager{
		users:  make(map[string]map[Conn]struct{}),
		conns:  make(map[Conn]*connState),
		hooks:  hooks,
		logger: logger,
		now:    time.Now,
	}
}

// WithClock replaces the clock used for activity and message timestamps.
func (m *Manager) WithClock(now func() time.Time) *Manager {
	if now != nil {
		m.now = now
	}
	return m
}

// Connect registers conn for userID and tells the user's other connections
// about it.
func (m *Manager) Connect(conn Conn, userID string, metadata map[string]string) {
	now := m.now()
	state := &connState{
		userID:      userID,
		connectedAt: now,
		metadata:    copyMetadata(metadata),
	}
	state.lastActivity.Store(now.UnixNano())

	m.mu.Lock()
	set, ok := m.users[userID]
	if !ok {
		set = make(map[Conn]struct{})
		m.users[userID] = set
	}
	set[conn] = struct{}{}
	m.conns[conn] = state
	m.mu.Unlock()

	m.logger.Info(context.Background(), "websocket connected", "user_id", userID)
	if m.hooks.OnConnect != nil {
		m.hooks.OnConnect(userID)
	}

	m.BroadcastToUser(userID, m.Message(TypeConnectionEstablished, Message{"user_id": userID}), conn)
}

// Disconnect removes conn and closes it. The remaining connections of the
// same user are told. Unknown connections are ignored.
func (m *Manager) Disconnect(conn Conn) {
	m.mu.Lock()
	state, ok := m.conns[conn]
	if !ok {
		m.mu.Unlock()
		return
	}
	delete(m.conns, conn)
	remaining := 0
	if set, ok := m.users[state.userID]; ok {
		delete(set, conn)
		remaining = len(set)
		if remaining == 0 {
			delete(m.users, state.userID)
		}
	}
	m.mu.Unlock()

	_ = conn.Close()
	m.logger.Info(context.Background(), "websocket disconnected", "user_id", state.userID)
	if m.hooks.OnDisconnect != nil {
		m.hooks.OnDisconnect(state.userID)
	}

	if remaining > 0 {
		m.BroadcastToUser(state.userID, m.Message(TypeConnectionClosed, Message{"user_id": state.userID}), nil)
	}
}

// Send writes msg to conn. A failed write disconnects conn; the error is
// not returned.
func (m *Manager) Send(conn Conn, msg Message) {
	if err := m.write(conn, msg); err != nil {
		m.logger.Warn(context.Background(), "websocket send failed", "error", err)
		m.Disconnect(conn)
	}
}

// BroadcastToUser sends msg to every connection of userID except exclude.
// Connections that fail are disconnected after the fan-out.
func (m *Manager) BroadcastToUser(userID string, msg Message, exclude Conn) {
	targets := m.snapshot(userID)

	var failed []Conn
	for _, conn := range targets {
		if exclude != nil && conn == exclude {
			continue
		}
		if err := m.write(conn, msg); err != nil {
			m.logger.Warn(context.Background(), "websocket broadcast failed", "user_id", userID, "error", err)
			failed = append(failed, conn)
		}
	}
	for _, conn := range failed {
		m.Disconnect(conn)
	}
}

// BroadcastToAll sends msg to every connected user not in excludeUsers.
func (m *Manager) BroadcastToAll(msg Message, excludeUsers map[string]struct{}) {
	for _, userID := range m.ActiveUsers() {
		if _, skip := excludeUsers[userID]; skip {
			continue
		}
		m.BroadcastToUser(userID, msg, nil)
	}
}

// Touch records inbound activity on conn.
func (m *Manager) Touch(conn Conn) {
	m.mu.RLock()
	state := m.conns[conn]
	m.mu.RUnlock()
	if state != nil {
		state.lastActivity.Store(m.now().UnixNano())
	}
}

// Info returns the registry entry for conn.
func (m *Manager) Info(conn Conn) (ConnInfo, bool) {
	m.mu.RLock()
	state, ok := m.conns[conn]
	m.mu.RUnlock()
	if !ok {
		return ConnInfo{}, false
	}
	return ConnInfo{
		UserID:       state.userID,
		ConnectedAt:  state.connectedAt,
		LastActivity: time.Unix(0, state.lastActivity.Load()),
		Metadata:     copyMetadata(state.metadata),
	}, true
}

// ActiveUsers lists users with at least one connection.
func (m *Manager) ActiveUsers() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]string, 0, len(m.users))
	for userID := range m.users {
		out = append(out, userID)
	}
	return out
}

func (m *Manager) UserConnectionCount(userID string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.users[userID])
}

func (m *Manager) TotalConnections() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.conns)
}

// Message stamps a reply of type typ with the current time.
func (m *Manager) Message(typ string, fields Message) Message {
	msg := make(Message, len(fields)+2)
	for k, v := range fields {
		msg[k] = v
	}
	msg["type"] = typ
	msg["timestamp"] = m.now().UTC().Format(time.RFC3339)
	return msg
}

func (m *Manager) snapshot(userID string) []Conn {
	m.mu.RLock()
	defer m.mu.RUnlock()

	set := m.users[userID]
	out := make([]Conn, 0, len(set))
	for conn := range set {
		out = append(out, conn)
	}
	return out
}

func (m *Manager) write(conn Conn, msg Message) error {
	m.mu.RLock()
	state := m.conns[conn]
	m.mu.RUnlock()

	if state == nil {
		return conn.WriteJSON(msg)
	}

	state.writeMu.Lock()
	err := conn.WriteJSON(msg)
	state.writeMu.Unlock()
	if err == nil {
		state.lastActivity.Store(m.now().UnixNano())
	}
	return err
}

func copyMetadata(in map[string]string) map[string]string {
	if len(in) == 0 {
		return nil
	}
	out := make(map[string]string, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
