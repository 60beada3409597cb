// Package middleware adapts authsvc.Engine to net/http.
//
// # Handlers
//
//   - [Guard] requires a bearer access token and stores the [authsvc.Principal]
//     in the request context.
//   - [RequireSuperuser] answers 403 for non-superusers.
//   - [RateLimit] applies a sliding-window tier per client IP and sets
//     X-RateLimit-Limit, X-RateLimit-Remaining and X-RateLimit-Reset.
//   - [SecurityHeaders] and [RequestContext] are applied to every route.
//
// # Architecture boundaries
//
// This package translates HTTP semantics into Engine calls. It does not
// parse tokens or talk to Redis itself.
//
// # What this package must NOT do
//
//   - Parse or create JWTs directly (delegates to Engine).
//   - Access Redis (Engine handles I/O).
//   - Decide authorization beyond the superuser flag carried by the
//     principal.
package middleware
