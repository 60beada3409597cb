// Package internal holds helpers private to authsvc: secure random tokens
// and input sanitisation.
//
// # Sub-packages
//
//   - audit: async event dispatch (Dispatcher and Sink implementations)
//   - flows: pure-function orchestration for every Engine operation
//   - logging: the slog-backed Logger interface
//   - metrics: lock-free counters and the authenticate latency histogram
//   - observability: Sentry setup and HTTP recover/logging middleware
//   - rate: Redis sliding-window rate limiter
//   - security: posture report builder
//   - server: gorilla/mux HTTP and WebSocket transport
//
// # What this package must NOT do
//
//   - Export types that appear in the public authsvc API.
//   - Perform I/O beyond reading crypto/rand.
package internal
