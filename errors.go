package promexport

import "errors"

const Namespace = "promexport"

var (
	ErrInvalidConfig = errors.New(Namespace + ": invalid configuration")
	ErrNoDistributionConfig = errors.New(
		Namespace + ": no histogram buckets or summary quantiles configured for metric",
	)
)
