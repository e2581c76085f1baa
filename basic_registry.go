package promexport

import (
	"math"
	"sync"
	"sync/atomic"
)

// BasicRegistry is the reference in-memory implementation of Registry.
// It is concurrency-safe; cells are created on demand per composite key and
// reused for the same key. Counter and gauge mutations are single atomic
// operations, so contention stays isolated to the series being updated.
type BasicRegistry struct {
	cfg *basicRegistryConfig

	handles sync.Map // map[string]*basicInstrument, keyed by CompositeKey.mapKey()
	// per-key init mutexes: protect concurrent initialization for the same key
	inits sync.Map // map[string]*sync.Mutex
}

// NewBasicRegistry constructs a new BasicRegistry.
// Accepts optional functional options to customize behavior.
func NewBasicRegistry(opts ...BasicRegistryOption) *BasicRegistry {
	cfg := &basicRegistryConfig{}
	for _, o := range opts {
		if o != nil {
			o(cfg)
		}
	}
	return &BasicRegistry{cfg: cfg}
}

// keyMu returns a per-key mutex for the given key, creating one if necessary.
// The returned mutex is owned by the registry and should be locked/unlocked by callers.
func (r *BasicRegistry) keyMu(key string) *sync.Mutex {
	m, _ := r.inits.LoadOrStore(key, &sync.Mutex{})
	return m.(*sync.Mutex)
}

// GetOrCreate implements Registry. It uses a fast read path on the handles
// map and a per-key mutex to deduplicate concurrent first-time creation:
// under a creation race exactly one cell is stored and every caller gets it.
func (r *BasicRegistry) GetOrCreate(key CompositeKey) Instrument {
	mk := key.mapKey()

	// fast read path using sync.Map loads (safe without a global lock)
	if v, ok := r.handles.Load(mk); ok {
		return v.(*basicInstrument)
	}

	km := r.keyMu(mk)
	km.Lock()
	defer km.Unlock()

	// re-check after acquiring per-key mutex
	if v, ok := r.handles.Load(mk); ok {
		return v.(*basicInstrument)
	}

	inst := &basicInstrument{key: key}
	r.handles.Store(mk, inst)

	// optional cleanup: remove the per-key mutex from the inits map to allow GC
	// of mutexes for many ephemeral series. It's safe to delete while holding
	// the mutex; goroutines that already hold the pointer keep using it, and
	// new callers will get a new mutex.
	if !r.cfg.doNotCleanupInits {
		r.inits.Delete(mk)
	}
	return inst
}

// Handles implements Registry. The enumeration is a best-effort point-in-time
// view: cells created while ranging may or may not be included.
func (r *BasicRegistry) Handles() []RegistryEntry {
	out := make([]RegistryEntry, 0)
	r.handles.Range(func(_, v interface{}) bool {
		inst, ok := v.(*basicInstrument)
		if !ok {
			return true // skip invalid entries
		}
		out = append(out, RegistryEntry{
			Key:        inst.key,
			Generation: inst.Generation(),
			Instrument: inst,
		})
		return true
	})
	return out
}

// basicRegistryConfig holds BasicRegistry configuration.
type basicRegistryConfig struct {
	// when true, keep per-key mutex entries in `inits` after initialization.
	// Default: false (entries are removed to allow GC).
	doNotCleanupInits bool
}

// BasicRegistryOption configures a BasicRegistry constructed by NewBasicRegistry.
type BasicRegistryOption func(*basicRegistryConfig)

// WithInitCleanupDisabled keeps per-key init mutex entries in the registry's
// internal `inits` map after initialization. Init cleanup is enabled by
// default; this option disables it.
func WithInitCleanupDisabled() BasicRegistryOption {
	return func(cfg *basicRegistryConfig) { cfg.doNotCleanupInits = true }
}

// basicInstrument is the storage cell used by BasicRegistry. One struct backs
// all three kinds; only the fields for the cell's kind are ever touched.
// The gauge value is stored as float64 bits in an atomic uint64.
type basicInstrument struct {
	key CompositeKey
	gen atomic.Uint64

	counter   atomic.Uint64
	gaugeBits atomic.Uint64

	mu      sync.Mutex
	samples []uint64
}

func (i *basicInstrument) IncrementCounter(delta uint64) {
	i.counter.Add(delta)
	i.gen.Add(1)
}

func (i *basicInstrument) ReadCounter() uint64 { return i.counter.Load() }

func (i *basicInstrument) UpdateGauge(value float64) {
	i.gaugeBits.Store(math.Float64bits(value))
	i.gen.Add(1)
}

func (i *basicInstrument) ReadGauge() float64 {
	return math.Float64frombits(i.gaugeBits.Load())
}

func (i *basicInstrument) RecordSample(value uint64) {
	i.mu.Lock()
	i.samples = append(i.samples, value)
	i.mu.Unlock()
	i.gen.Add(1)
}

func (i *basicInstrument) DrainSamples(consume func(samples []uint64)) {
	if consume == nil {
		// buffered samples are kept for a caller that will consume them
		return
	}
	i.mu.Lock()
	batch := i.samples
	i.samples = nil
	i.mu.Unlock()
	if len(batch) == 0 {
		return
	}
	consume(batch)
}

func (i *basicInstrument) Generation() uint64 { return i.gen.Load() }
