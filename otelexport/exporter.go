package otelexport

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/ygrebnov/promexport"
)

var (
	ErrNilMeter  = errors.New("otelexport: nil meter")
	ErrNilSource = errors.New("otelexport: nil snapshot source")
)

// Source is the read façade the exporter pulls from. *promexport.Handle
// satisfies it.
type Source interface {
	Snapshot() (promexport.Snapshot, error)
}

// Exporter forwards promexport snapshots to an OpenTelemetry meter.
// Methods are safe for concurrent use.
type Exporter struct {
	meter  metric.Meter
	source Source

	mu          sync.Mutex
	counters    map[string]metric.Int64Counter
	floatGauges map[string]metric.Float64Gauge
	intGauges   map[string]metric.Int64Gauge
	// last pushed cumulative counter value per series, for delta computation
	lastCounts map[string]uint64
}

// New constructs an Exporter reading from source and writing through meter.
func New(meter metric.Meter, source Source) (*Exporter, error) {
	if meter == nil {
		return nil, ErrNilMeter
	}
	if source == nil {
		return nil, ErrNilSource
	}
	return &Exporter{
		meter:       meter,
		source:      source,
		counters:    make(map[string]metric.Int64Counter),
		floatGauges: make(map[string]metric.Float64Gauge),
		intGauges:   make(map[string]metric.Int64Gauge),
		lastCounts:  make(map[string]uint64),
	}, nil
}

// Push takes one snapshot and forwards it. Counters are converted from
// cumulative totals to deltas between pushes; a total that moved backwards
// (wraparound) is treated as a restart and pushed whole. Gauges, bucket
// counts, quantile values, sums, and counts are recorded as-is.
func (e *Exporter) Push(ctx context.Context) error {
	snap, err := e.source.Snapshot()
	if err != nil {
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	for name, byLabels := range snap.Counters {
		inst, err := e.int64Counter(name)
		if err != nil {
			return err
		}
		for labels, value := range byLabels {
			series := name + "\x1e" + labels
			last := e.lastCounts[series]
			delta := value - last
			if value < last {
				delta = value
			}
			e.lastCounts[series] = value
			if delta > 0 {
				inst.Add(ctx, int64(delta), metric.WithAttributes(seriesAttrs(labels)...))
			}
		}
	}

	for name, byLabels := range snap.Gauges {
		inst, err := e.float64Gauge(name)
		if err != nil {
			return err
		}
		for labels, value := range byLabels {
			inst.Record(ctx, value, metric.WithAttributes(seriesAttrs(labels)...))
		}
	}

	for name, byLabels := range snap.Distributions {
		for labels, dist := range byLabels {
			if err := e.pushDistribution(ctx, name, labels, dist); err != nil {
				return err
			}
		}
	}
	return nil
}

func (e *Exporter) pushDistribution(ctx context.Context, name, labels string, dist promexport.DistributionSnapshot) error {
	attrs := seriesAttrs(labels)

	switch dist.Kind {
	case promexport.DistributionKindHistogram:
		buckets, err := e.int64Gauge(name + "_bucket")
		if err != nil {
			return err
		}
		for _, bc := range dist.Buckets {
			le := strconv.FormatUint(bc.UpperBound, 10)
			buckets.Record(ctx, int64(bc.Count),
				metric.WithAttributes(append(attrs, attribute.String("le", le))...))
		}
		buckets.Record(ctx, int64(dist.Count),
			metric.WithAttributes(append(attrs, attribute.String("le", "+Inf"))...))
	case promexport.DistributionKindSummary:
		quantiles, err := e.float64Gauge(name)
		if err != nil {
			return err
		}
		for _, qv := range dist.Quantiles {
			quantiles.Record(ctx, qv.Value,
				metric.WithAttributes(append(attrs, attribute.Float64("quantile", qv.Quantile))...))
		}
	}

	sum, err := e.int64Gauge(name + "_sum")
	if err != nil {
		return err
	}
	sum.Record(ctx, int64(dist.Sum), metric.WithAttributes(attrs...))

	count, err := e.int64Gauge(name + "_count")
	if err != nil {
		return err
	}
	count.Record(ctx, int64(dist.Count), metric.WithAttributes(attrs...))
	return nil
}

// seriesAttrs carries the Prometheus-rendered label string as one attribute
// so OTel-side aggregation keys on the same series identity.
func seriesAttrs(labels string) []attribute.KeyValue {
	if labels == "" {
		return nil
	}
	return []attribute.KeyValue{attribute.String("labels", labels)}
}

func (e *Exporter) int64Counter(name string) (metric.Int64Counter, error) {
	if inst, ok := e.counters[name]; ok {
		return inst, nil
	}
	inst, err := e.meter.Int64Counter(name)
	if err != nil {
		return nil, fmt.Errorf("create counter %s: %w", name, err)
	}
	e.counters[name] = inst
	return inst, nil
}

func (e *Exporter) float64Gauge(name string) (metric.Float64Gauge, error) {
	if inst, ok := e.floatGauges[name]; ok {
		return inst, nil
	}
	inst, err := e.meter.Float64Gauge(name)
	if err != nil {
		return nil, fmt.Errorf("create gauge %s: %w", name, err)
	}
	e.floatGauges[name] = inst
	return inst, nil
}

func (e *Exporter) int64Gauge(name string) (metric.Int64Gauge, error) {
	if inst, ok := e.intGauges[name]; ok {
		return inst, nil
	}
	inst, err := e.meter.Int64Gauge(name)
	if err != nil {
		return nil, fmt.Errorf("create gauge %s: %w", name, err)
	}
	e.intGauges[name] = inst
	return inst, nil
}
