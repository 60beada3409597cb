// Package userstore persists user accounts for authsvc.
//
// Two implementations share one method set: Memory for tests and local
// development, and Postgres backed by database/sql with the pgx driver.
// Lookups report absence through a bool rather than an error so callers can
// keep "unknown user" and "store failed" apart.
//
// Both stores map unique-key collisions to ErrDuplicateEmail and
// ErrDuplicateUsername. Values are stored as given; normalisation of emails
// and usernames happens in the caller.
package userstore
