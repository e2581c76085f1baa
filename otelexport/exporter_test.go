package otelexport

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"github.com/ygrebnov/promexport"
)

var _ Source = (*promexport.Handle)(nil)

type fakeSource struct {
	snap promexport.Snapshot
	err  error
}

func (f *fakeSource) Snapshot() (promexport.Snapshot, error) { return f.snap, f.err }

func newTestMeter(t *testing.T) (*sdkmetric.ManualReader, *Exporter, *fakeSource) {
	t.Helper()
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = provider.Shutdown(context.Background()) })

	src := &fakeSource{}
	exp, err := New(provider.Meter("otelexport_test"), src)
	require.NoError(t, err)
	return reader, exp, src
}

func collect(t *testing.T, reader *sdkmetric.ManualReader) metricdata.ResourceMetrics {
	t.Helper()
	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))
	return rm
}

func findMetric(t *testing.T, rm metricdata.ResourceMetrics, name string) metricdata.Metrics {
	t.Helper()
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name == name {
				return m
			}
		}
	}
	t.Fatalf("metric %q not collected", name)
	return metricdata.Metrics{}
}

func TestNew_NilArguments(t *testing.T) {
	provider := sdkmetric.NewMeterProvider()
	t.Cleanup(func() { _ = provider.Shutdown(context.Background()) })

	_, err := New(nil, &fakeSource{})
	require.ErrorIs(t, err, ErrNilMeter)

	_, err = New(provider.Meter("x"), nil)
	require.ErrorIs(t, err, ErrNilSource)
}

func TestPush_SourceErrorPropagates(t *testing.T) {
	_, exp, src := newTestMeter(t)
	src.err = errors.New("boom")

	require.ErrorContains(t, exp.Push(context.Background()), "boom")
}

func TestPush_ForwardsCountersAndGauges(t *testing.T) {
	reader, exp, src := newTestMeter(t)
	src.snap = promexport.Snapshot{
		Counters: map[string]map[string]uint64{
			"requests_total": {`method="GET"`: 10},
		},
		Gauges: map[string]map[string]float64{
			"queue_depth": {"": 3.5},
		},
	}

	require.NoError(t, exp.Push(context.Background()))
	rm := collect(t, reader)

	counter := findMetric(t, rm, "requests_total")
	sum, ok := counter.Data.(metricdata.Sum[int64])
	require.True(t, ok, "counters are exported as int64 sums")
	require.Len(t, sum.DataPoints, 1)
	require.Equal(t, int64(10), sum.DataPoints[0].Value)
	labels, ok := sum.DataPoints[0].Attributes.Value("labels")
	require.True(t, ok)
	require.Equal(t, `method="GET"`, labels.AsString())

	gauge := findMetric(t, rm, "queue_depth")
	g, ok := gauge.Data.(metricdata.Gauge[float64])
	require.True(t, ok, "gauges are exported as float64 gauges")
	require.Len(t, g.DataPoints, 1)
	require.Equal(t, 3.5, g.DataPoints[0].Value)
	require.Equal(t, 0, g.DataPoints[0].Attributes.Len(), "empty label set carries no attributes")
}

func TestPush_CounterDeltas(t *testing.T) {
	reader, exp, src := newTestMeter(t)
	ctx := context.Background()

	src.snap = promexport.Snapshot{
		Counters: map[string]map[string]uint64{"requests_total": {"": 10}},
	}
	require.NoError(t, exp.Push(ctx))

	src.snap.Counters["requests_total"][""] = 15
	require.NoError(t, exp.Push(ctx))

	rm := collect(t, reader)
	sum := findMetric(t, rm, "requests_total").Data.(metricdata.Sum[int64])
	require.Equal(t, int64(15), sum.DataPoints[0].Value,
		"second push adds only the delta over the first")
}

func TestPush_CounterWraparoundPushedWhole(t *testing.T) {
	reader, exp, src := newTestMeter(t)
	ctx := context.Background()

	src.snap = promexport.Snapshot{
		Counters: map[string]map[string]uint64{"requests_total": {"": 15}},
	}
	require.NoError(t, exp.Push(ctx))

	// total moved backwards: treated as a restart, new total pushed whole
	src.snap.Counters["requests_total"][""] = 3
	require.NoError(t, exp.Push(ctx))

	rm := collect(t, reader)
	sum := findMetric(t, rm, "requests_total").Data.(metricdata.Sum[int64])
	require.Equal(t, int64(18), sum.DataPoints[0].Value)
}

func TestPush_ForwardsHistogramDistribution(t *testing.T) {
	reader, exp, src := newTestMeter(t)
	src.snap = promexport.Snapshot{
		Distributions: map[string]map[string]promexport.DistributionSnapshot{
			"latency_ms": {"": {
				Kind: promexport.DistributionKindHistogram,
				Buckets: []promexport.BucketCount{
					{UpperBound: 10, Count: 1},
					{UpperBound: 50, Count: 2},
				},
				Sum:   25,
				Count: 3,
			}},
		},
	}

	require.NoError(t, exp.Push(context.Background()))
	rm := collect(t, reader)

	buckets := findMetric(t, rm, "latency_ms_bucket").Data.(metricdata.Gauge[int64])
	require.Len(t, buckets.DataPoints, 3, "one point per boundary plus +Inf")
	byLe := make(map[string]int64, len(buckets.DataPoints))
	for _, dp := range buckets.DataPoints {
		le, ok := dp.Attributes.Value("le")
		require.True(t, ok)
		byLe[le.AsString()] = dp.Value
	}
	require.Equal(t, map[string]int64{"10": 1, "50": 2, "+Inf": 3}, byLe)

	sum := findMetric(t, rm, "latency_ms_sum").Data.(metricdata.Gauge[int64])
	require.Equal(t, int64(25), sum.DataPoints[0].Value)
	count := findMetric(t, rm, "latency_ms_count").Data.(metricdata.Gauge[int64])
	require.Equal(t, int64(3), count.DataPoints[0].Value)
}

func TestPush_ForwardsSummaryDistribution(t *testing.T) {
	reader, exp, src := newTestMeter(t)
	src.snap = promexport.Snapshot{
		Distributions: map[string]map[string]promexport.DistributionSnapshot{
			"latency_ms": {"": {
				Kind: promexport.DistributionKindSummary,
				Quantiles: []promexport.QuantileValue{
					{Quantile: 0.5, Value: 4},
					{Quantile: 0.99, Value: 9},
				},
				Sum:   55,
				Count: 10,
			}},
		},
	}

	require.NoError(t, exp.Push(context.Background()))
	rm := collect(t, reader)

	quantiles := findMetric(t, rm, "latency_ms").Data.(metricdata.Gauge[float64])
	require.Len(t, quantiles.DataPoints, 2)
	byQ := make(map[float64]float64, len(quantiles.DataPoints))
	for _, dp := range quantiles.DataPoints {
		q, ok := dp.Attributes.Value("quantile")
		require.True(t, ok)
		byQ[q.AsFloat64()] = dp.Value
	}
	require.Equal(t, map[float64]float64{0.5: 4, 0.99: 9}, byQ)
}

func TestPush_EndToEndFromHandle(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = provider.Shutdown(context.Background()) })

	rec, err := promexport.NewPrometheusRecorder()
	require.NoError(t, err)
	rec.IncrementCounter(promexport.NewKey("jobs_total"), 7)

	exp, err := New(provider.Meter("otelexport_test"), rec.Handle())
	require.NoError(t, err)
	require.NoError(t, exp.Push(context.Background()))

	rm := collect(t, reader)
	sum := findMetric(t, rm, "jobs_total").Data.(metricdata.Sum[int64])
	require.Equal(t, int64(7), sum.DataPoints[0].Value)
}
