// Package prometheus renders authsvc metrics in the Prometheus text format.
//
// [New] takes anything exposing MetricsSnapshot, normally
// the *authsvc.Engine, and [Exporter.Handler] is mounted at /metrics by the
// server. Counters are named authsvc_*_total; the one histogram is
// authsvc_authenticate_latency_seconds.
//
// # What this package must NOT do
//
//   - Register anything in a global registry.
//   - Mutate engine state.
package prometheus
