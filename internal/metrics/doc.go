// Package metrics provides lock-free counters and a latency histogram for
// authsvc.
//
// Counters live in cache-line-padded uint64 slots and are incremented with
// sync/atomic. The single histogram uses 8 fixed buckets (5ms up to +Inf).
// The write path does not allocate.
//
// # Architecture boundaries
//
// This package owns metric storage and snapshots. Export (Prometheus, OTel)
// lives in metrics/export and reads Snapshot values through the Engine.
//
// # What this package must NOT do
//
//   - Perform I/O.
//   - Import authsvc or any sibling package.
//   - Expose global registries.
package metrics
