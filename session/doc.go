// Package session provides the Redis-backed session store.
//
// Each session is a JSON object under "<namespace>:session:<id>" holding
// user_id, created_at and caller metadata at the top level. Identifiers are
// 32 random bytes in unpadded base64url.
//
// # Architecture boundaries
//
// This package owns the [Store] and the [Record] shape. No other component
// writes session keys directly. It does not interpret tokens or decide
// whether a user may log in.
//
// # What this package must NOT do
//
//   - Import authsvc, jwt, or realtime (no upward imports).
//   - Create a session implicitly from Update.
//   - Hold client-side locks; atomicity comes from single commands and Lua.
package session
