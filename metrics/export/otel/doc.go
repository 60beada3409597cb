// Package otel publishes authsvc metrics through an OpenTelemetry meter.
//
// [New] registers an Int64ObservableCounter per engine counter and one
// Int64ObservableGauge per histogram bucket. A single callback reads the
// engine snapshot on each collection cycle.
//
// # What this package must NOT do
//
//   - Own the MeterProvider. Callers supply the Meter.
//   - Mutate engine state.
package otel
