// Package security builds the read-only posture report returned by
// Engine.SecurityReport.
//
// BuildReport derives flags and human-readable warnings from plain inputs
// so it stays independent of the root Config type.
//
// # What this package must NOT do
//
//   - Read or mutate engine state.
//   - Import the root package.
package security
