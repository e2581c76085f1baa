package promexport

import (
	"time"

	"github.com/ygrebnov/errorc"
)

// config holds PrometheusRecorder configuration.
type config struct {
	// Registry backs series storage. Nil selects NewBasicRegistry().
	registry Registry

	// Recency is the staleness policy. Nil selects NewBasicRecency(idleTimeout).
	recency Recency

	// Resolver yields distribution shapes by metric name. Nil selects a
	// DistributionBuilder over the bucket/quantile options below.
	resolver DistributionResolver

	// IdleTimeout ages out counter/gauge/histogram series whose generation
	// stops moving. Zero (default) disables staleness.
	idleTimeout time.Duration

	// SummaryQuantiles are reported, in order, for histogram-kind series
	// with no bucket configuration. Default: 0.5, 0.9, 0.95, 0.99, 0.999.
	summaryQuantiles []float64

	// DefaultBuckets apply to histogram-kind series without a per-name override.
	defaultBuckets []uint64

	// BucketsByName holds per-metric-name bucket overrides.
	bucketsByName map[string][]uint64

	logger logger
}

// defaultConfig centralizes default values for config.
func defaultConfig() config {
	return config{
		idleTimeout:      0, // staleness disabled
		summaryQuantiles: []float64{0.5, 0.9, 0.95, 0.99, 0.999},
	}
}

// validateConfig performs lightweight invariants checks.
// Option constructors validate their own inputs; this is reserved for
// cross-field validation expansions.
func validateConfig(_ *config) error {
	return nil
}

// Option configures a PrometheusRecorder. Use NewPrometheusRecorder(opts...)
// to construct one via options. Invalid input is reported as an error
// wrapping ErrInvalidConfig rather than a panic.
type Option func(*config) error

// WithHistogramBuckets sets the bucket upper bounds for one metric name.
// Bounds must be non-empty and strictly ascending. The name is matched after
// sanitization, so "latency.ms" and "latency_ms" configure the same metric.
func WithHistogramBuckets(name string, bounds ...uint64) Option {
	return func(cfg *config) error {
		if name == "" {
			return errorc.With(ErrInvalidConfig, errorc.String("", "WithHistogramBuckets requires a metric name"))
		}
		if err := validateBuckets(bounds); err != nil {
			return err
		}
		if cfg.bucketsByName == nil {
			cfg.bucketsByName = make(map[string][]uint64)
		}
		cfg.bucketsByName[name] = append([]uint64(nil), bounds...)
		return nil
	}
}

// WithDefaultHistogramBuckets sets bucket upper bounds for every
// histogram-kind metric without a per-name override.
func WithDefaultHistogramBuckets(bounds ...uint64) Option {
	return func(cfg *config) error {
		if err := validateBuckets(bounds); err != nil {
			return err
		}
		cfg.defaultBuckets = append([]uint64(nil), bounds...)
		return nil
	}
}

// WithSummaryQuantiles sets the quantiles reported for histogram-kind
// metrics with no bucket configuration, in the given order. Calling it with
// no arguments disables summaries entirely: recording a sample for an
// unbucketed metric then becomes a scrape-time configuration error.
func WithSummaryQuantiles(quantiles ...float64) Option {
	return func(cfg *config) error {
		if err := validateQuantiles(quantiles); err != nil {
			return err
		}
		cfg.summaryQuantiles = append([]float64(nil), quantiles...)
		return nil
	}
}

// WithIdleTimeout enables staleness: counter, gauge, and histogram series
// whose generation has not moved for longer than d disappear from output
// until updated again. Zero disables staleness.
func WithIdleTimeout(d time.Duration) Option {
	return func(cfg *config) error {
		if d < 0 {
			return errorc.With(ErrInvalidConfig, errorc.String("", "WithIdleTimeout requires a non-negative duration"))
		}
		cfg.idleTimeout = d
		return nil
	}
}

// WithRegistry substitutes the series storage backend.
func WithRegistry(r Registry) Option {
	return func(cfg *config) error {
		if r == nil {
			return errorc.With(ErrInvalidConfig, errorc.String("", "WithRegistry requires a non-nil Registry"))
		}
		cfg.registry = r
		return nil
	}
}

// WithRecency substitutes the staleness policy. When set, WithIdleTimeout
// has no effect.
func WithRecency(r Recency) Option {
	return func(cfg *config) error {
		if r == nil {
			return errorc.With(ErrInvalidConfig, errorc.String("", "WithRecency requires a non-nil Recency"))
		}
		cfg.recency = r
		return nil
	}
}

// WithDistributionResolver substitutes the distribution-shape resolver.
// When set, the bucket and quantile options have no effect.
func WithDistributionResolver(r DistributionResolver) Option {
	return func(cfg *config) error {
		if r == nil {
			return errorc.With(ErrInvalidConfig, errorc.String("", "WithDistributionResolver requires a non-nil resolver"))
		}
		cfg.resolver = r
		return nil
	}
}

// WithLogger sets the diagnostics logger. Default: no-op.
func WithLogger(l logger) Option {
	return func(cfg *config) error {
		cfg.logger = l
		return nil
	}
}
