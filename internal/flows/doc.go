// Package flows contains the orchestration for every Engine operation:
// registration, login, refresh, authentication, logout, password reset and
// change, and user management.
//
// Each Run function takes a typed dependency struct and has no side effects
// beyond those dependencies. Sentinel errors arrive through [Errors] so the
// values returned here are the ones the root package exports.
//
// # Architecture boundaries
//
// Flows call the user store, token manager, session store, audit hook and
// metrics hook. They do not own any of them; ownership stays with the Engine.
//
// # What this package must NOT do
//
//   - Hold mutable state between calls.
//   - Import authsvc (import cycle).
//   - Perform I/O other than through its dependencies.
//   - Tell "unknown user" apart from "wrong password" in a returned error.
package flows
