// Package prometheus exposes goSpace engine metrics as a prometheus.Collector.
//
// [NewPrometheusExporter] reads [goSpace.Engine.MetricsSnapshot] on every
// scrape. Counter names are gospace_*_total; the single histogram is
// gospace_store_latency_seconds.
//
// # What this package must NOT do
//
//   - Register into the global Prometheus registry. Callers register the
//     collector or mount Handler.
//   - Mutate engine state.
package prometheus
