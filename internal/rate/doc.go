// Package rate implements the Redis sliding-window rate limiter.
//
// # Window semantics
//
// Each (scope, identifier) pair owns a sorted set at
// "<namespace>:rate_limit:<scope>:<identifier>" whose scores are request
// timestamps in milliseconds. A check purges scores at or before now-window,
// counts what remains and records the request only when the count is below
// the limit. The whole sequence is one Lua script.
//
// # Failure policy
//
// Rate limiting fails open. When Redis is unreachable the request is allowed
// and the decision is marked Degraded. Credential, session and revocation
// checks elsewhere fail closed; the two policies differ on purpose.
//
// # What this package must NOT do
//
//   - Decide which tier applies to which endpoint (the HTTP layer does).
//   - Be imported outside the authsvc module.
package rate
