// Package otelexport re-exports promexport snapshots through an
// OpenTelemetry Meter, for processes that ship metrics over OTLP instead of
// (or in addition to) serving a Prometheus scrape endpoint.
//
// The bridge is push-based: each Push takes one snapshot from the source
// Handle and forwards it through synchronous instruments, one instrument per
// metric name, created lazily and cached. Series identity is preserved in a
// "labels" attribute carrying the Prometheus-rendered label string, with
// synthesized "le"/"quantile" attributes for distribution series.
package otelexport
