// Package authsvc is an authentication and session service: Argon2id
// credentials, HMAC-signed JWT access and refresh tokens, Redis-backed
// sessions with a token blacklist, and a sliding-window rate limiter.
//
// Build an [Engine] with [Builder]; its methods are safe for concurrent use.
// Account records live behind [UserStore], implemented in package userstore
// for memory and PostgreSQL.
//
// # Architecture boundaries
//
// authsvc is the public surface. It exposes [Engine], [Builder], [Config]
// and value types such as [Principal] and [LoginResult]. Flow orchestration,
// rate limiting, audit dispatch and metric counters live under internal/.
// HTTP and WebSocket transports live in internal/server and realtime and
// depend on this package, never the other way round.
//
// # What this package must NOT do
//
//   - Return password hashes outside [User]; transports only see [PublicUser].
//   - Log token strings or passwords.
//   - Fail open on credential, session or blacklist store errors. Only the
//     rate limiter degrades to allowing requests.
//
// # Errors
//
// Every error returned by an Engine method matches one of the exported
// sentinels or is a [*ValidationError]. [Kind] groups them for transports.
package authsvc
