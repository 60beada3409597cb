// Package audit relays security-relevant events to pluggable sinks.
//
// # Components
//
//   - [Sink]: event consumer (channel, JSON lines, slog, no-op).
//   - [Dispatcher]: buffered async relay that either drops or blocks when full.
//   - [Event]: timestamp, type, user, session, client address, metadata.
//
// # Architecture boundaries
//
// This package owns buffering and delivery. Which events to emit is decided
// by the Engine and the flow functions.
//
// # What this package must NOT do
//
//   - Filter events on business rules.
//   - Import authsvc or any sibling internal package.
//   - Perform network I/O beyond what a caller-supplied Sink does.
package audit
