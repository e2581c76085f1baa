package promexport

import (
	"strconv"
	"strings"
)

// sanitizeMetricName replaces characters that carry structure in the
// exposition grammar with underscores. Label keys and values are not
// sanitized this way; values are escaped instead.
func sanitizeMetricName(name string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case '.', '=', '{', '}', '+', '-':
			return '_'
		}
		return r
	}, name)
}

var labelValueEscaper = strings.NewReplacer(`\`, `\\`, `"`, `\"`, "\n", `\n`)

// escapeLabelValue escapes a label value for emission inside double quotes.
// Total function; applied to caller-supplied values and to synthesized ones
// (bucket boundaries, quantiles) alike.
func escapeLabelValue(v string) string {
	return labelValueEscaper.Replace(v)
}

// keyToParts splits a key into its sanitized metric name and its rendered
// label string (`k1="v1",k2="v2"`, empty for no labels). Label order is the
// order the key carries.
func keyToParts(key Key) (name, labels string) {
	name = sanitizeMetricName(key.name)
	if len(key.labels) == 0 {
		return name, ""
	}
	parts := make([]string, len(key.labels))
	for i, l := range key.labels {
		parts[i] = l.Key + `="` + escapeLabelValue(l.Value) + `"`
	}
	return name, strings.Join(parts, ",")
}

// renderSnapshot formats a Snapshot as a Prometheus text exposition
// document. Pure function of the snapshot and the description lookup;
// iteration order across families and label sets is unspecified, while
// bucket and quantile ordering within a series is fixed.
func renderSnapshot(snap Snapshot, description func(name string) (string, bool)) string {
	var b strings.Builder
	b.Grow(8192)

	for name, byLabels := range snap.Counters {
		writeFamilyHeader(&b, name, "counter", description)
		for labels, value := range byLabels {
			writeMetricLine(&b, name, "", labels, "", "", strconv.FormatUint(value, 10))
		}
		b.WriteByte('\n')
	}

	for name, byLabels := range snap.Gauges {
		writeFamilyHeader(&b, name, "gauge", description)
		for labels, value := range byLabels {
			writeMetricLine(&b, name, "", labels, "", "", formatFloat(value))
		}
		b.WriteByte('\n')
	}

	for name, byLabels := range snap.Distributions {
		writeFamilyHeader(&b, name, distributionTypeName(byLabels), description)
		for labels, dist := range byLabels {
			switch dist.Kind {
			case DistributionKindSummary:
				for _, qv := range dist.Quantiles {
					writeMetricLine(&b, name, "", labels, "quantile", formatFloat(qv.Quantile), formatFloat(qv.Value))
				}
			case DistributionKindHistogram:
				for _, bc := range dist.Buckets {
					writeMetricLine(&b, name, "bucket", labels, "le", strconv.FormatUint(bc.UpperBound, 10), strconv.FormatUint(bc.Count, 10))
				}
				writeMetricLine(&b, name, "bucket", labels, "le", "+Inf", strconv.FormatUint(dist.Count, 10))
			}
			writeMetricLine(&b, name, "sum", labels, "", "", strconv.FormatUint(dist.Sum, 10))
			writeMetricLine(&b, name, "count", labels, "", "", strconv.FormatUint(dist.Count, 10))
		}
		b.WriteByte('\n')
	}

	return b.String()
}

// distributionTypeName picks the TYPE keyword for a distribution family.
// All label sets under one name share a shape, since the resolver is keyed
// by name alone.
func distributionTypeName(byLabels map[string]DistributionSnapshot) string {
	for _, dist := range byLabels {
		if dist.Kind == DistributionKindSummary {
			return "summary"
		}
		break
	}
	return "histogram"
}

// writeFamilyHeader emits the HELP line (only when a description is
// registered for the name) and the TYPE line.
func writeFamilyHeader(b *strings.Builder, name, typeName string, description func(string) (string, bool)) {
	if desc, ok := description(name); ok {
		b.WriteString("# HELP ")
		b.WriteString(name)
		b.WriteByte(' ')
		b.WriteString(desc)
		b.WriteByte('\n')
	}
	b.WriteString("# TYPE ")
	b.WriteString(name)
	b.WriteByte(' ')
	b.WriteString(typeName)
	b.WriteByte('\n')
}

// writeMetricLine emits one sample line. suffix extends the name
// (`_bucket`, `_sum`, `_count`); extraKey/extraValue append a synthesized
// label (`le`, `quantile`) after the series' own labels. The braces are
// omitted entirely when there are no labels at all.
func writeMetricLine(b *strings.Builder, name, suffix, labels, extraKey, extraValue, value string) {
	b.WriteString(name)
	if suffix != "" {
		b.WriteByte('_')
		b.WriteString(suffix)
	}

	if labels != "" || extraKey != "" {
		b.WriteByte('{')
		b.WriteString(labels)
		if extraKey != "" {
			if labels != "" {
				b.WriteByte(',')
			}
			b.WriteString(extraKey)
			b.WriteString(`="`)
			b.WriteString(escapeLabelValue(extraValue))
			b.WriteByte('"')
		}
		b.WriteByte('}')
	}

	b.WriteByte(' ')
	b.WriteString(value)
	b.WriteByte('\n')
}

// formatFloat renders a float the shortest way that round-trips, matching
// how gauge and quantile values are conventionally exposed (3, 0.5, 1e+06).
func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
