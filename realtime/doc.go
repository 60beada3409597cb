// Package realtime keeps the live WebSocket registry and runs the JSON
// message protocol on top of it.
//
// [Manager] maps users to their open connections and is the single writer
// to each one. [RoomStore] keeps room membership in Redis so it survives
// across instances; the connection registry itself is process-local.
// [Dispatcher] reads frames, answers protocol errors with an "error" frame
// and never drops a connection for a bad message.
package realtime
