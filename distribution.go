package promexport

import (
	"sort"
	"sync"

	"github.com/beorn7/perks/quantile"
	"github.com/ygrebnov/errorc"
)

// DistributionKind discriminates the two aggregated distribution shapes.
type DistributionKind uint8

const (
	DistributionKindHistogram DistributionKind = iota + 1
	DistributionKindSummary
)

// BucketCount is one cumulative histogram bucket: the count of all samples
// less than or equal to UpperBound, per Prometheus convention.
type BucketCount struct {
	UpperBound uint64
	Count      uint64
}

// QuantileValue is one reported summary quantile.
type QuantileValue struct {
	Quantile float64
	Value    float64
}

// DistributionSnapshot is an immutable view of one Distribution at scrape
// time. Exactly one of Buckets (histogram) or Quantiles (summary) is set,
// according to Kind. Buckets are cumulative and ascending and do not include
// the implicit le="+Inf" bucket, whose count equals Count.
type DistributionSnapshot struct {
	Kind      DistributionKind
	Buckets   []BucketCount
	Quantiles []QuantileValue
	Sum       uint64
	Count     uint64
}

// summaryEpsilon is the allowed rank error per targeted quantile.
const summaryEpsilon = 0.001

// Distribution accumulates drained histogram samples for one series.
// It is created once per (name, label set) on first observation and persists
// for the process lifetime; bucket counts, sum, and count only ever grow.
// Methods are internally synchronized.
type Distribution struct {
	mu   sync.Mutex
	kind DistributionKind

	// histogram state: cumulative count per bound, ascending
	bounds []uint64
	counts []uint64

	// summary state
	quantiles []float64
	stream    *quantile.Stream

	sum   uint64
	count uint64
}

// NewHistogramDistribution builds a bucketed Distribution with the given
// upper bounds. Bounds must be non-empty and strictly ascending.
func NewHistogramDistribution(bounds []uint64) (*Distribution, error) {
	if err := validateBuckets(bounds); err != nil {
		return nil, err
	}
	d := &Distribution{
		kind:   DistributionKindHistogram,
		bounds: make([]uint64, len(bounds)),
		counts: make([]uint64, len(bounds)),
	}
	copy(d.bounds, bounds)
	return d, nil
}

// NewSummaryDistribution builds a quantile-sketch Distribution reporting the
// given quantiles, in the given order. Quantiles must be non-empty and each
// within [0, 1].
func NewSummaryDistribution(quantiles []float64) (*Distribution, error) {
	if err := validateQuantiles(quantiles); err != nil {
		return nil, err
	}
	if len(quantiles) == 0 {
		return nil, errorc.With(ErrInvalidConfig, errorc.String("", "summary requires at least one quantile"))
	}
	targets := make(map[float64]float64, len(quantiles))
	for _, q := range quantiles {
		targets[q] = summaryEpsilon
	}
	d := &Distribution{
		kind:      DistributionKindSummary,
		quantiles: make([]float64, len(quantiles)),
		stream:    quantile.NewTargeted(targets),
	}
	copy(d.quantiles, quantiles)
	return d, nil
}

// recordBatch folds one drained sample batch into the accumulated state.
func (d *Distribution) recordBatch(samples []uint64) {
	d.mu.Lock()
	defer d.mu.Unlock()

	for _, s := range samples {
		switch d.kind {
		case DistributionKindHistogram:
			// first bound >= s; every bucket from there up is cumulative
			i := sort.Search(len(d.bounds), func(i int) bool { return d.bounds[i] >= s })
			for ; i < len(d.counts); i++ {
				d.counts[i]++
			}
		case DistributionKindSummary:
			d.stream.Insert(float64(s))
		}
		d.sum += s
		d.count++
	}
}

// snapshot returns an immutable copy of the current state. Summary quantile
// values are computed here, at scrape time, from the sketch's current state.
func (d *Distribution) snapshot() DistributionSnapshot {
	d.mu.Lock()
	defer d.mu.Unlock()

	out := DistributionSnapshot{Kind: d.kind, Sum: d.sum, Count: d.count}
	switch d.kind {
	case DistributionKindHistogram:
		out.Buckets = make([]BucketCount, len(d.bounds))
		for i, b := range d.bounds {
			out.Buckets[i] = BucketCount{UpperBound: b, Count: d.counts[i]}
		}
	case DistributionKindSummary:
		out.Quantiles = make([]QuantileValue, len(d.quantiles))
		for i, q := range d.quantiles {
			out.Quantiles[i] = QuantileValue{Quantile: q, Value: d.stream.Query(q)}
		}
	}
	return out
}

// DistributionResolver yields the distribution shape for a metric name the
// first time a sample is seen for it. Failing to resolve is a configuration
// defect surfaced from the scrape path as ErrNoDistributionConfig.
type DistributionResolver interface {
	Resolve(name string) (*Distribution, error)
}

// DistributionBuilder is the reference DistributionResolver. Per-name bucket
// overrides win over default buckets; a name with no buckets resolves to a
// summary over the configured quantiles; with neither, Resolve fails.
// Override names are sanitized the same way rendered metric names are, so
// configuration matches regardless of which form the caller used.
type DistributionBuilder struct {
	quantiles      []float64
	defaultBuckets []uint64
	bucketsByName  map[string][]uint64
}

// NewDistributionBuilder constructs a DistributionBuilder.
// quantiles may be empty (summaries disabled), defaultBuckets may be nil,
// bucketsByName may be nil.
func NewDistributionBuilder(
	quantiles []float64,
	defaultBuckets []uint64,
	bucketsByName map[string][]uint64,
) (*DistributionBuilder, error) {
	if err := validateQuantiles(quantiles); err != nil {
		return nil, err
	}
	if len(defaultBuckets) > 0 {
		if err := validateBuckets(defaultBuckets); err != nil {
			return nil, err
		}
	}
	b := &DistributionBuilder{
		quantiles:      append([]float64(nil), quantiles...),
		defaultBuckets: append([]uint64(nil), defaultBuckets...),
	}
	if len(bucketsByName) > 0 {
		b.bucketsByName = make(map[string][]uint64, len(bucketsByName))
		for name, bounds := range bucketsByName {
			if err := validateBuckets(bounds); err != nil {
				return nil, err
			}
			b.bucketsByName[sanitizeMetricName(name)] = append([]uint64(nil), bounds...)
		}
	}
	return b, nil
}

// Resolve implements DistributionResolver.
func (b *DistributionBuilder) Resolve(name string) (*Distribution, error) {
	if bounds, ok := b.bucketsByName[sanitizeMetricName(name)]; ok {
		return NewHistogramDistribution(bounds)
	}
	if len(b.defaultBuckets) > 0 {
		return NewHistogramDistribution(b.defaultBuckets)
	}
	if len(b.quantiles) > 0 {
		return NewSummaryDistribution(b.quantiles)
	}
	return nil, errorc.With(ErrNoDistributionConfig, errorc.String("metric", name))
}

func validateBuckets(bounds []uint64) error {
	if len(bounds) == 0 {
		return errorc.With(ErrInvalidConfig, errorc.String("", "histogram buckets must not be empty"))
	}
	for i := 1; i < len(bounds); i++ {
		if bounds[i] <= bounds[i-1] {
			return errorc.With(ErrInvalidConfig, errorc.String("", "histogram buckets must be strictly ascending"))
		}
	}
	return nil
}

func validateQuantiles(quantiles []float64) error {
	for _, q := range quantiles {
		if q < 0 || q > 1 {
			return errorc.With(ErrInvalidConfig, errorc.String("", "summary quantiles must be within [0, 1]"))
		}
	}
	return nil
}

// distributionStore is the name -> label-set -> Distribution map retained
// across scrapes. Lookups take the read lock; creating an entry for a new
// (name, label set) takes the write lock, an accepted contention point since
// new distinct label combinations are rare relative to steady-state updates.
type distributionStore struct {
	resolver DistributionResolver

	mu     sync.RWMutex
	byName map[string]map[string]*Distribution
}

func newDistributionStore(resolver DistributionResolver) *distributionStore {
	return &distributionStore{
		resolver: resolver,
		byName:   make(map[string]map[string]*Distribution),
	}
}

// observe drains inst's sample buffer into the Distribution for
// (name, labels), creating it on first sight via the resolver.
func (s *distributionStore) observe(name, labels string, inst Instrument) error {
	s.mu.RLock()
	d := s.byName[name][labels]
	s.mu.RUnlock()

	if d == nil {
		s.mu.Lock()
		// re-check after acquiring the write lock
		d = s.byName[name][labels]
		if d == nil {
			nd, err := s.resolver.Resolve(name)
			if err != nil {
				s.mu.Unlock()
				return err
			}
			d = nd
			// the inner map is created only on successful resolution, so a
			// misconfigured name never leaves an empty family behind
			byLabels := s.byName[name]
			if byLabels == nil {
				byLabels = make(map[string]*Distribution)
				s.byName[name] = byLabels
			}
			byLabels[labels] = d
		}
		s.mu.Unlock()
	}

	inst.DrainSamples(d.recordBatch)
	return nil
}

// snapshotAll clones the full current contents. Distributions are never
// recency-filtered once created, so every entry appears in every snapshot.
func (s *distributionStore) snapshotAll() map[string]map[string]DistributionSnapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[string]map[string]DistributionSnapshot, len(s.byName))
	for name, byLabels := range s.byName {
		m := make(map[string]DistributionSnapshot, len(byLabels))
		for labels, d := range byLabels {
			m[labels] = d.snapshot()
		}
		out[name] = m
	}
	return out
}
