package promexport

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewHistogramDistribution_Validation(t *testing.T) {
	cases := []struct {
		name   string
		bounds []uint64
	}{
		{name: "empty", bounds: nil},
		{name: "descending", bounds: []uint64{100, 50}},
		{name: "duplicate", bounds: []uint64{10, 10}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewHistogramDistribution(tc.bounds)
			require.ErrorIs(t, err, ErrInvalidConfig)
		})
	}
}

func TestNewSummaryDistribution_Validation(t *testing.T) {
	_, err := NewSummaryDistribution(nil)
	require.ErrorIs(t, err, ErrInvalidConfig)

	_, err = NewSummaryDistribution([]float64{0.5, 1.5})
	require.ErrorIs(t, err, ErrInvalidConfig)
}

func TestHistogramDistribution_CumulativeBuckets(t *testing.T) {
	d, err := NewHistogramDistribution([]uint64{10, 50, 100})
	require.NoError(t, err)

	d.recordBatch([]uint64{5, 20, 999})

	snap := d.snapshot()
	require.Equal(t, DistributionKindHistogram, snap.Kind)
	require.Equal(t, []BucketCount{
		{UpperBound: 10, Count: 1},
		{UpperBound: 50, Count: 2},
		{UpperBound: 100, Count: 2},
	}, snap.Buckets)
	require.Equal(t, uint64(1024), snap.Sum)
	require.Equal(t, uint64(3), snap.Count)
}

func TestHistogramDistribution_AccumulatesAcrossBatches(t *testing.T) {
	d, err := NewHistogramDistribution([]uint64{10})
	require.NoError(t, err)

	d.recordBatch([]uint64{1, 2})
	d.recordBatch([]uint64{3})

	snap := d.snapshot()
	require.Equal(t, uint64(3), snap.Buckets[0].Count, "bucket counts accumulate, never reset")
	require.Equal(t, uint64(6), snap.Sum)
	require.Equal(t, uint64(3), snap.Count)
}

func TestHistogramDistribution_CountBoundsBuckets(t *testing.T) {
	d, err := NewHistogramDistribution([]uint64{10, 100})
	require.NoError(t, err)

	d.recordBatch([]uint64{5, 50, 5000})

	snap := d.snapshot()
	for _, bc := range snap.Buckets {
		require.LessOrEqual(t, bc.Count, snap.Count, "every bucket is bounded by the +Inf count")
	}
}

func TestSummaryDistribution_QuantilesAndSum(t *testing.T) {
	d, err := NewSummaryDistribution([]float64{0.5, 0.99})
	require.NoError(t, err)

	samples := make([]uint64, 0, 100)
	var want uint64
	for i := uint64(1); i <= 100; i++ {
		samples = append(samples, i)
		want += i
	}
	d.recordBatch(samples)

	snap := d.snapshot()
	require.Equal(t, DistributionKindSummary, snap.Kind)
	require.Equal(t, uint64(100), snap.Count)
	require.Equal(t, want, snap.Sum)

	require.Len(t, snap.Quantiles, 2)
	require.Equal(t, 0.5, snap.Quantiles[0].Quantile)
	require.InDelta(t, 50, snap.Quantiles[0].Value, 5)
	require.Equal(t, 0.99, snap.Quantiles[1].Quantile)
	require.InDelta(t, 99, snap.Quantiles[1].Value, 5)
}

func TestDistributionBuilder_ResolvePrecedence(t *testing.T) {
	b, err := NewDistributionBuilder(
		[]float64{0.5},
		[]uint64{1, 2, 3},
		map[string][]uint64{"latency_ms": {10, 50}},
	)
	require.NoError(t, err)

	override, err := b.Resolve("latency_ms")
	require.NoError(t, err)
	require.Equal(t, []uint64{10, 50}, override.bounds, "per-name override wins")

	fallback, err := b.Resolve("anything_else")
	require.NoError(t, err)
	require.Equal(t, []uint64{1, 2, 3}, fallback.bounds, "default buckets apply otherwise")
}

func TestDistributionBuilder_SummaryFallback(t *testing.T) {
	b, err := NewDistributionBuilder([]float64{0.5, 0.9}, nil, nil)
	require.NoError(t, err)

	d, err := b.Resolve("latency_ms")
	require.NoError(t, err)
	require.Equal(t, DistributionKindSummary, d.kind)
	require.Equal(t, []float64{0.5, 0.9}, d.quantiles)
}

func TestDistributionBuilder_NoConfiguration(t *testing.T) {
	b, err := NewDistributionBuilder(nil, nil, nil)
	require.NoError(t, err)

	_, err = b.Resolve("latency_ms")
	require.ErrorIs(t, err, ErrNoDistributionConfig)
}

func TestDistributionBuilder_MatchesSanitizedNames(t *testing.T) {
	b, err := NewDistributionBuilder(nil, nil, map[string][]uint64{"latency.ms": {10}})
	require.NoError(t, err)

	d, err := b.Resolve("latency_ms")
	require.NoError(t, err)
	require.Equal(t, []uint64{10}, d.bounds)
}

func TestDistributionStore_CreatesOncePerSeries(t *testing.T) {
	b, err := NewDistributionBuilder(nil, []uint64{10, 100}, nil)
	require.NoError(t, err)
	s := newDistributionStore(b)

	inst := &basicInstrument{}
	inst.RecordSample(5)
	require.NoError(t, s.observe("latency_ms", `route="/a"`, inst))

	first := s.byName["latency_ms"][`route="/a"`]
	require.NotNil(t, first)

	inst.RecordSample(50)
	require.NoError(t, s.observe("latency_ms", `route="/a"`, inst))
	require.Same(t, first, s.byName["latency_ms"][`route="/a"`], "a distribution is never recreated for its series")

	snap := s.snapshotAll()
	require.Equal(t, uint64(2), snap["latency_ms"][`route="/a"`].Count)
}

func TestDistributionStore_PropagatesResolverError(t *testing.T) {
	b, err := NewDistributionBuilder(nil, nil, nil)
	require.NoError(t, err)
	s := newDistributionStore(b)

	inst := &basicInstrument{}
	inst.RecordSample(5)
	err = s.observe("latency_ms", "", inst)
	require.ErrorIs(t, err, ErrNoDistributionConfig)

	// a failed resolution must not leave an empty family behind, or later
	// snapshots would render a phantom TYPE line with no samples
	require.Empty(t, s.snapshotAll())
}
