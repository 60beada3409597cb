package realtime

import (
	"context"
	"time"

	"github.com/MrEthical07/authsvc/internal/logging"
	"golang.org/x/time/rate"
)

// Identity is the authenticated user behind a connection.
type Identity struct {
	UserID      string
	Email       string
	Username    string
	IsSuperuser bool
}

// Client is one connection together with its identity and inbound throttle.
type Client struct {
	Conn     Conn
	Identity Identity

	limiter *rate.Limiter
}

// DispatcherConfig tunes the protocol handler.
type DispatcherConfig struct {
	// MessagesPerSecond and Burst bound inbound frames per connection.
	// Zero MessagesPerSecond disables the throttle.
	MessagesPerSecond float64
	Burst             int

	// StoreTimeout bounds each room-store call.
	StoreTimeout time.Duration

	OnMessage     func(messageType string)
	OnRateLimited func(userID string)
}

// DefaultDispatcherConfig allows 10 frames per second with bursts of 20.
func DefaultDispatcherConfig() DispatcherConfig {
	return DispatcherConfig{
		MessagesPerSecond: 10,
		Burst:             20,
		StoreTimeout:      2 * time.Second,
	}
}

// Dispatcher runs the JSON protocol over registered connections.
type Dispatcher struct {
	manager *Manager
	rooms   *RoomStore
	config  DispatcherConfig
	logger  logging.Logger
}

func NewDispatcher(manager *Manager, rooms *RoomStore, cfg DispatcherConfig, logger logging.Logger) *Dispatcher {
	if logger == nil {
		logger = logging.Nop()
	}
	if cfg.StoreTimeout <= 0 {
		cfg.StoreTimeout = 2 * time.Second
	}
	return &Dispatcher{
		manager: manager,
		rooms:   rooms,
		config:  cfg,
		logger:  logger,
	}
}

// NewClient wraps conn for identity with a fresh throttle.
func (d *Dispatcher) NewClient(conn Conn, identity Identity) *Client {
	c := &Client{Conn: conn, Identity: identity}
	if d.config.MessagesPerSecond > 0 {
		burst := d.config.Burst
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(d.config.MessagesPerSecond), burst)
	}
	return c
}

// Serve registers client, greets it and handles frames until the
// connection fails or ctx ends. The connection is always disconnected on
// return.
func (d *Dispatcher) Serve(ctx context.Context, client *Client) {
	id := client.Identity
	d.manager.Connect(client.Conn, id.UserID, map[string]string{
		"email":    id.Email,
		"username": id.Username,
	})
	defer d.manager.Disconnect(client.Conn)

	d.manager.Send(client.Conn, d.manager.Message(TypeWelcome, Message{
		"user_id": id.UserID,
		"message": "Welcome " + id.Username + "!",
	}))
	d.manager.Send(client.Conn, d.stats(TypeStats, id.UserID))

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() {
		<-ctx.Done()
		_ = client.Conn.Close()
	}()

	for {
		_, raw, err := client.Conn.ReadMessage()
		if err != nil {
			if ctx.Err() == nil {
				d.logger.Info(ctx, "websocket read ended", "user_id", id.UserID, "error", err)
			}
			return
		}
		d.Handle(ctx, client, raw)
	}
}

// Handle processes one inbound frame. Protocol errors are answered with an
// error frame; the connection stays open.
func (d *Dispatcher) Handle(ctx context.Context, client *Client, raw []byte) {
	d.manager.Touch(client.Conn)

	if client.limiter != nil && !client.limiter.Allow() {
		if d.config.OnRateLimited != nil {
			d.config.OnRateLimited(client.Identity.UserID)
		}
		d.replyError(client, "Rate limit exceeded")
		return
	}

	msg, typ, ok := parseInbound(raw)
	if !ok {
		d.replyError(client, "Invalid message format")
		return
	}
	if d.config.OnMessage != nil {
		d.config.OnMessage(typ)
	}

	switch typ {
	case TypePing:
		d.reply(client, TypePong, nil)
	case TypeEcho:
		d.reply(client, TypeEchoResponse, Message{"original_message": msg.String("message")})
	case TypeBroadcast:
		d.handleBroadcast(client, msg)
	case TypePrivateMessage:
		d.handlePrivate(client, msg)
	case TypeJoinRoom:
		d.handleJoin(ctx, client, msg)
	case TypeLeaveRoom:
		d.handleLeave(ctx, client, msg)
	case TypeRoomMessage:
		d.handleRoomMessage(ctx, client, msg)
	case TypeGetStats:
		d.manager.Send(client.Conn, d.stats(TypeStatsResponse, client.Identity.UserID))
	default:
		d.replyError(client, "Unknown message type: "+typ)
	}
}

func (d *Dispatcher) handleBroadcast(client *Client, msg Message) {
	if !client.Identity.IsSuperuser {
		d.replyError(client, "Permission denied")
		return
	}
	d.manager.BroadcastToAll(d.manager.Message(TypeBroadcastMessage, Message{
		"message":   msg.String("message"),
		"from_user": client.Identity.Username,
	}), nil)
}

func (d *Dispatcher) handlePrivate(client *Client, msg Message) {
	target := msg.String("target_user_id")
	text := msg.String("message")
	if target == "" || text == "" {
		d.replyError(client, "Missing target_user_id or message")
		return
	}

	d.manager.BroadcastToUser(target, d.manager.Message(TypePrivateMessage, Message{
		"message":       text,
		"from_user_id":  client.Identity.UserID,
		"from_username": client.Identity.Username,
	}), nil)
	d.reply(client, TypeMessageSent, Message{"target_user_id": target})
}

func (d *Dispatcher) handleJoin(ctx context.Context, client *Client, msg Message) {
	room := msg.String("room")
	if room == "" {
		d.replyError(client, "Missing room")
		return
	}

	ctx, cancel := context.WithTimeout(ctx, d.config.StoreTimeout)
	defer cancel()
	if err := d.rooms.Join(ctx, room, client.Identity.UserID); err != nil {
		d.logger.Error(ctx, "join room failed", "room", room, "user_id", client.Identity.UserID, "error", err)
		d.replyError(client, "Failed to join room "+room)
		return
	}
	d.reply(client, TypeRoomJoined, Message{"room": room})
}

func (d *Dispatcher) handleLeave(ctx context.Context, client *Client, msg Message) {
	room := msg.String("room")
	if room == "" {
		d.replyError(client, "Missing room")
		return
	}

	ctx, cancel := context.WithTimeout(ctx, d.config.StoreTimeout)
	defer cancel()
	if err := d.rooms.Leave(ctx, room, client.Identity.UserID); err != nil {
		d.logger.Error(ctx, "leave room failed", "room", room, "user_id", client.Identity.UserID, "error", err)
		d.replyError(client, "Failed to leave room "+room)
		return
	}
	d.reply(client, TypeRoomLeft, Message{"room": room})
}

func (d *Dispatcher) handleRoomMessage(ctx context.Context, client *Client, msg Message) {
	room := msg.String("room")
	text := msg.String("message")
	if room == "" || text == "" {
		d.replyError(client, "Missing room or message")
		return
	}

	ctx, cancel := context.WithTimeout(ctx, d.config.StoreTimeout)
	defer cancel()
	members, err := d.rooms.Members(ctx, room)
	if err != nil {
		d.logger.Error(ctx, "room members lookup failed", "room", room, "error", err)
		d.replyError(client, "Failed to process message")
		return
	}

	out := d.manager.Message(TypeRoomMessage, Message{
		"room":          room,
		"message":       text,
		"from_user_id":  client.Identity.UserID,
		"from_username": client.Identity.Username,
	})
	for _, member := range members {
		d.manager.BroadcastToUser(member, out, nil)
	}
}

func (d *Dispatcher) stats(typ, userID string) Message {
	return d.manager.Message(typ, Message{
		"active_users":      len(d.manager.ActiveUsers()),
		"your_connections":  d.manager.UserConnectionCount(userID),
		"total_connections": d.manager.TotalConnections(),
	})
}

func (d *Dispatcher) reply(client *Client, typ string, fields Message) {
	d.manager.Send(client.Conn, d.manager.Message(typ, fields))
}

func (d *Dispatcher) replyError(client *Client, text string) {
	d.reply(client, TypeError, Message{"message": text})
}
