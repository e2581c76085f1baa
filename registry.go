package promexport

// Instrument is the kind-specific atomic storage cell backing one series.
// A counter cell accumulates a uint64; a gauge cell holds a replaceable
// float64; a histogram cell buffers raw samples until drained.
// Methods must be safe for concurrent use.
type Instrument interface {
	// IncrementCounter adds delta to the counter cell. Wraps on overflow.
	IncrementCounter(delta uint64)

	// ReadCounter returns the current counter value.
	ReadCounter() uint64

	// UpdateGauge replaces the gauge value. Last writer wins.
	UpdateGauge(value float64)

	// ReadGauge returns the current gauge value.
	ReadGauge() float64

	// RecordSample appends one raw histogram sample to the buffer.
	RecordSample(value uint64)

	// DrainSamples empties the sample buffer atomically with the read and
	// hands the drained batch to consume. The consumer is invoked at most
	// once, outside the cell's internal lock, and may be skipped when the
	// buffer is empty. A nil consumer leaves the buffer untouched.
	DrainSamples(consume func(samples []uint64))

	// Generation returns the cell's update generation. It increases
	// monotonically with every mutation and feeds the Recency policy.
	Generation() uint64
}

// RegistryEntry is one element of a Registry enumeration: the series
// identity, its generation at enumeration time, and its storage cell.
type RegistryEntry struct {
	Key        CompositeKey
	Generation uint64
	Instrument Instrument
}

// Registry is the concurrent store of series storage cells.
// Implementations must be safe for concurrent use and must guarantee that
// concurrent GetOrCreate calls for the same key observe a single cell:
// no duplicate series, no lost first update.
type Registry interface {
	// GetOrCreate returns the cell for key, creating it atomically if absent.
	GetOrCreate(key CompositeKey) Instrument

	// Handles enumerates all currently live series.
	Handles() []RegistryEntry
}
