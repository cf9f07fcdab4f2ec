// Package prometheus provides a Prometheus collector for rotauth metrics.
//
// [NewCollector] accepts a [rotauth.Engine] and implements
// prometheus.Collector by reading point-in-time snapshots; [Handler] wraps it
// in a ready-to-mount scrape endpoint. Counter names are prefixed
// rotauth_*_total.
//
// # What this package must NOT do
//
//   - Register metrics in the global Prometheus registry — callers choose the
//     registry or mount the Handler.
//   - Mutate engine state.
package prometheus
