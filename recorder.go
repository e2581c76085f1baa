package promexport

// Recorder is the mutation-facing façade instrumented code records through.
// Implementations must be safe for concurrent use by unrelated goroutines
// with no caller-side synchronization.
//
// This interface is designed to be minimal and stable.
// In case there is a need of new capabilities, we may later
// introduce separate optional interfaces rather than expanding this surface.
type Recorder interface {
	// RegisterCounter ensures a counter series exists for key and optionally
	// attaches a description. Idempotent; it never fails.
	RegisterCounter(key Key, opts ...InstrumentOption)

	// RegisterGauge ensures a gauge series exists for key.
	RegisterGauge(key Key, opts ...InstrumentOption)

	// RegisterHistogram ensures a histogram series exists for key.
	RegisterHistogram(key Key, opts ...InstrumentOption)

	// IncrementCounter atomically adds delta to the counter for key,
	// creating the series if absent. Counters never decrease; the cell is a
	// fixed-width uint64 and wraps on overflow.
	IncrementCounter(key Key, delta uint64)

	// UpdateGauge atomically replaces the gauge value for key.
	// Last writer wins under concurrent updates.
	UpdateGauge(key Key, value float64)

	// RecordHistogram appends value to the raw sample buffer for key.
	// Samples are drained on the next scrape.
	RecordHistogram(key Key, value uint64)
}

// InstrumentConfig carries optional series metadata set at registration time.
type InstrumentConfig struct {
	Description string
}

// InstrumentOption mutates InstrumentConfig.
type InstrumentOption func(*InstrumentConfig)

// WithDescription sets the HELP text for the series' metric name.
// The first description registered for a name wins; later registrations
// with a different description are silently ignored.
func WithDescription(desc string) InstrumentOption {
	return func(c *InstrumentConfig) { c.Description = desc }
}

// applyInstrumentOptions builds InstrumentConfig from options.
func applyInstrumentOptions(opts []InstrumentOption) InstrumentConfig {
	var cfg InstrumentConfig
	for _, o := range opts {
		if o != nil {
			o(&cfg)
		}
	}
	return cfg
}
