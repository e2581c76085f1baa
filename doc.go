/*
Package promexport provides a concurrency-safe, process-local metrics
recorder that renders its state in the Prometheus text exposition format.

# Overview

The library is organized around two façades sharing one state:

1. Recorder: the mutation-facing interface. Implementations must be safe for
concurrent use by any number of goroutines, create series lazily, and
deduplicate by (kind, name, label set).

	type Recorder interface {
	  RegisterCounter(key Key, opts ...InstrumentOption)
	  RegisterGauge(key Key, opts ...InstrumentOption)
	  RegisterHistogram(key Key, opts ...InstrumentOption)
	  IncrementCounter(key Key, delta uint64)
	  UpdateGauge(key Key, value float64)
	  RecordHistogram(key Key, value uint64)
	}

2. Handle: the read-facing side, obtained from a PrometheusRecorder.
Render returns a complete exposition document; Snapshot returns the same
point-in-time view as structured data (counters, gauges, distributions).

Pluggable capabilities (Registry, Recency, DistributionResolver) abstract
series storage, staleness policy, and histogram/summary shape resolution so
a conforming backing implementation can be substituted. BasicRegistry,
BasicRecency, and DistributionBuilder are the reference implementations.

How it works (high level)

 1. Mutations go through Registry.GetOrCreate: a fast lock-free read path,
    then a per-key mutex to deduplicate concurrent first-time creation.
    Counter and gauge cells are atomics; histogram cells buffer raw samples.
 2. Every mutation bumps the series' generation counter. The Recency policy
    uses generations to age out label combinations that stop being updated:
    stale counters and gauges are omitted from subsequent scrapes.
 3. On scrape, a single pass enumerates all live series, applies the Recency
    policy, drains histogram sample buffers (read-and-clear) into per-series
    Distributions, and produces an immutable Snapshot. Distributions
    accumulate for the process lifetime and are never recency-filtered.
 4. Rendering is a pure function of the Snapshot and the description table.
    Metric names are sanitized, label values escaped, histogram buckets
    emitted cumulatively with a final le="+Inf" bucket, summaries emitted as
    quantile series. Family order across scrapes is unspecified.

Examples

	rec, err := promexport.NewPrometheusRecorder(
	    promexport.WithHistogramBuckets("request_duration_ms", 10, 50, 100),
	)
	if err != nil {
	    // invalid configuration
	}
	rec.RegisterCounter(promexport.NewKey("requests_total"),
	    promexport.WithDescription("Total HTTP requests."))
	rec.IncrementCounter(promexport.NewKey("requests_total",
	    promexport.Label{Key: "method", Value: "GET"}), 1)

	h := rec.Handle()
	body, err := h.Render() // serve from a scrape endpoint

# Build and test

- Run unit tests:

	go test ./...

- Run with the race detector:

	go test -race ./...

# Notes

- Counter cells are fixed-width uint64 and wrap on overflow; this mirrors the
wire semantics of cumulative counters and is covered by tests rather than
guarded against.

- Render may run concurrently with mutations. It observes a point-in-time,
not linearizable, view: updates racing a scrape may or may not be reflected.

- A histogram sample recorded for a name with no resolvable bucket or
quantile configuration is a configuration defect. It is reported as a typed
error (ErrNoDistributionConfig) from Render and Snapshot, never dropped
silently.
*/
package promexport
