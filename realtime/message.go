package realtime

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// Message is one JSON frame. Every frame carries a "type" field; server
// frames also carry an RFC 3339 "timestamp".
type Message map[string]any

// Inbound frame types.
const (
	TypePing           = "ping"
	TypeEcho           = "echo"
	TypeBroadcast      = "broadcast"
	TypePrivateMessage = "private_message"
	TypeJoinRoom       = "join_room"
	TypeLeaveRoom      = "leave_room"
	TypeRoomMessage    = "room_message"
	TypeGetStats       = "get_stats"
)

// Outbound frame types.
const (
	TypePong                  = "pong"
	TypeEchoResponse          = "echo_response"
	TypeBroadcastMessage      = "broadcast_message"
	TypeMessageSent           = "message_sent"
	TypeRoomJoined            = "room_joined"
	TypeRoomLeft              = "room_left"
	TypeStatsResponse         = "stats_response"
	TypeWelcome               = "welcome"
	TypeStats                 = "stats"
	TypeError                 = "error"
	TypeConnectionEstablished = "connection_established"
	TypeConnectionClosed      = "connection_closed"
)

// parseInbound decodes raw into an object with a string type.
func parseInbound(raw []byte) (Message, string, bool) {
	var msg Message
	if err := json.Unmarshal(raw, &msg); err != nil || msg == nil {
		return nil, "", false
	}
	typ, ok := msg["type"].(string)
	if !ok || typ == "" {
		return nil, "", false
	}
	return msg, typ, true
}

// String returns field key as text. Numbers are formatted without a
// fractional part when they have none.
func (m Message) String(key string) string {
	switch v := m[key].(type) {
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case json.Number:
		return v.String()
	case nil:
		return ""
	default:
		return fmt.Sprint(v)
	}
}
