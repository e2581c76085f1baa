package promexport

// NewNoopRecorder returns a Recorder that discards everything. It lets
// instrumented components run with metrics disabled without branching at
// every call site.
func NewNoopRecorder() Recorder {
	return noopRecorder{}
}

type noopRecorder struct{}

func (noopRecorder) RegisterCounter(Key, ...InstrumentOption)   {}
func (noopRecorder) RegisterGauge(Key, ...InstrumentOption)     {}
func (noopRecorder) RegisterHistogram(Key, ...InstrumentOption) {}
func (noopRecorder) IncrementCounter(Key, uint64)               {}
func (noopRecorder) UpdateGauge(Key, float64)                   {}
func (noopRecorder) RecordHistogram(Key, uint64)                {}
