package promexport

import "sync"

// inner is the state shared by a PrometheusRecorder and its Handles:
// the series registry, the staleness policy, the retained distribution
// store, and the first-write-wins description table.
type inner struct {
	registry Registry
	recency  Recency
	dists    *distributionStore

	// descriptions maps sanitized metric name -> HELP text.
	descriptions sync.Map // map[string]string

	logger logger
}

// PrometheusRecorder is the reference Recorder implementation. Construct one
// per process with NewPrometheusRecorder and pass it (or a shared reference)
// to every instrumented component; pass the Handle to whatever serves the
// scrape endpoint. There is no package-level singleton.
type PrometheusRecorder struct {
	inner *inner
}

var _ Recorder = (*PrometheusRecorder)(nil)

// NewPrometheusRecorder constructs a PrometheusRecorder from functional
// options. It assembles an internal config, validates it, and wires the
// default Registry, Recency, and DistributionBuilder for anything not
// substituted explicitly.
func NewPrometheusRecorder(opts ...Option) (*PrometheusRecorder, error) {
	cfg := defaultConfig()
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt(&cfg); err != nil {
			return nil, err
		}
	}
	if err := validateConfig(&cfg); err != nil {
		return nil, err
	}

	if cfg.registry == nil {
		cfg.registry = NewBasicRegistry()
	}
	if cfg.recency == nil {
		cfg.recency = NewBasicRecency(cfg.idleTimeout)
	}
	if cfg.resolver == nil {
		b, err := NewDistributionBuilder(cfg.summaryQuantiles, cfg.defaultBuckets, cfg.bucketsByName)
		if err != nil {
			return nil, err
		}
		cfg.resolver = b
	}
	if cfg.logger == nil {
		cfg.logger = newNoopLogger()
	}

	return &PrometheusRecorder{inner: &inner{
		registry: cfg.registry,
		recency:  cfg.recency,
		dists:    newDistributionStore(cfg.resolver),
		logger:   cfg.logger,
	}}, nil
}

// Handle returns a read façade over this recorder's state. Handles are cheap
// and may be copied; all of them observe the same state.
func (r *PrometheusRecorder) Handle() *Handle {
	return &Handle{inner: r.inner}
}

// RegisterCounter implements Recorder.
func (r *PrometheusRecorder) RegisterCounter(key Key, opts ...InstrumentOption) {
	r.register(NewCompositeKey(KindCounter, key), opts)
}

// RegisterGauge implements Recorder.
func (r *PrometheusRecorder) RegisterGauge(key Key, opts ...InstrumentOption) {
	r.register(NewCompositeKey(KindGauge, key), opts)
}

// RegisterHistogram implements Recorder.
func (r *PrometheusRecorder) RegisterHistogram(key Key, opts ...InstrumentOption) {
	r.register(NewCompositeKey(KindHistogram, key), opts)
}

func (r *PrometheusRecorder) register(key CompositeKey, opts []InstrumentOption) {
	// compute config off-lock, as the registry's creation path takes a per-key mutex
	cfg := applyInstrumentOptions(opts)
	if cfg.Description != "" {
		// first registration for a name wins; later descriptions are ignored
		r.inner.descriptions.LoadOrStore(sanitizeMetricName(key.Key().Name()), cfg.Description)
	}
	r.inner.registry.GetOrCreate(key)
}

// IncrementCounter implements Recorder.
func (r *PrometheusRecorder) IncrementCounter(key Key, delta uint64) {
	r.inner.registry.GetOrCreate(NewCompositeKey(KindCounter, key)).IncrementCounter(delta)
}

// UpdateGauge implements Recorder.
func (r *PrometheusRecorder) UpdateGauge(key Key, value float64) {
	r.inner.registry.GetOrCreate(NewCompositeKey(KindGauge, key)).UpdateGauge(value)
}

// RecordHistogram implements Recorder.
func (r *PrometheusRecorder) RecordHistogram(key Key, value uint64) {
	r.inner.registry.GetOrCreate(NewCompositeKey(KindHistogram, key)).RecordSample(value)
}

// description returns the registered HELP text for a sanitized metric name.
func (in *inner) description(name string) (string, bool) {
	v, ok := in.descriptions.Load(name)
	if !ok {
		return "", false
	}
	desc, ok := v.(string)
	return desc, ok
}

// Handle is the read façade consumed by scrape-serving code. Render may run
// concurrently with ongoing Recorder mutations and always completes, bounded
// only by the number of live series and buffered samples.
type Handle struct {
	inner *inner
}

// Render returns the current state as a Prometheus text exposition document.
// The only error condition is a histogram sample observed for a metric name
// with no resolvable distribution configuration (ErrNoDistributionConfig).
func (h *Handle) Render() (string, error) {
	snap, err := h.inner.snapshot()
	if err != nil {
		return "", err
	}
	return renderSnapshot(snap, h.inner.description), nil
}

// Snapshot returns the same point-in-time view Render formats, as structured
// data. Like Render, it drains pending histogram samples into the retained
// distribution state.
func (h *Handle) Snapshot() (Snapshot, error) {
	return h.inner.snapshot()
}
