// Package otel bridges rotauth engine counters into an OpenTelemetry meter.
//
// [NewExporter] registers observable counters that read fresh engine
// snapshots on every collection; nothing is recorded on the hot path. Close
// the exporter to unregister the callback.
package otel
