// Package otel binds goSpace engine metrics to OpenTelemetry instruments.
//
// [NewOTelExporter] registers an Int64ObservableCounter per engine counter
// and an Int64ObservableGauge per latency bucket. One callback reads
// [goSpace.Engine.MetricsSnapshot] each collection cycle.
//
// # What this package must NOT do
//
//   - Own the MeterProvider. Callers supply the Meter.
//   - Mutate engine state.
package otel
