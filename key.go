package promexport

import (
	"strconv"
	"strings"
)

// Kind identifies the metric class of a series.
type Kind uint8

const (
	KindCounter Kind = iota + 1
	KindGauge
	KindHistogram
)

// String returns the Prometheus name of the kind. Histogram-kind series may
// still render as "summary" when resolved to a quantile distribution.
func (k Kind) String() string {
	switch k {
	case KindCounter:
		return "counter"
	case KindGauge:
		return "gauge"
	case KindHistogram:
		return "histogram"
	default:
		return "unknown"
	}
}

// Label is one (key, value) pair of a series' label set.
type Label struct {
	Key   string
	Value string
}

// Key identifies a time series by name and ordered label set.
// Label order is caller-determined and preserved; it is never sorted or
// deduplicated, and two keys with the same pairs in a different order are
// distinct series.
type Key struct {
	name   string
	labels []Label
}

// NewKey builds a Key from a name and an ordered label list.
// The labels are copied so later mutation of the caller's slice does not
// alter the key.
func NewKey(name string, labels ...Label) Key {
	k := Key{name: name}
	if len(labels) > 0 {
		k.labels = make([]Label, len(labels))
		copy(k.labels, labels)
	}
	return k
}

// Name returns the series name as given at call time, unsanitized.
func (k Key) Name() string { return k.name }

// Labels returns a copy of the ordered label set.
func (k Key) Labels() []Label {
	if len(k.labels) == 0 {
		return nil
	}
	out := make([]Label, len(k.labels))
	copy(out, k.labels)
	return out
}

// CompositeKey pairs a Key with its metric kind. It is the identity under
// which the Registry stores series state: equal name, kind, and element-wise
// label sequence means the same series.
type CompositeKey struct {
	kind Kind
	key  Key
}

// NewCompositeKey builds a CompositeKey.
func NewCompositeKey(kind Kind, key Key) CompositeKey {
	return CompositeKey{kind: kind, key: key}
}

// Kind returns the metric kind component.
func (c CompositeKey) Kind() Kind { return c.kind }

// Key returns the (name, labels) component.
func (c CompositeKey) Key() Key { return c.key }

// String returns a human-readable form for diagnostics,
// e.g. `counter:requests_total{method="GET"}`.
func (c CompositeKey) String() string {
	var b strings.Builder
	b.WriteString(c.kind.String())
	b.WriteByte(':')
	b.WriteString(c.key.name)
	if len(c.key.labels) > 0 {
		b.WriteByte('{')
		for i, l := range c.key.labels {
			if i > 0 {
				b.WriteByte(',')
			}
			b.WriteString(l.Key)
			b.WriteString(`="`)
			b.WriteString(l.Value)
			b.WriteByte('"')
		}
		b.WriteByte('}')
	}
	return b.String()
}

// mapKey returns the canonical identity string used as a map key by
// BasicRegistry and BasicRecency. Each field is length-prefixed, so the
// encoding is injective: no name or label content can collide with the
// field structure.
func (c CompositeKey) mapKey() string {
	var b strings.Builder
	b.WriteByte(byte(c.kind))
	writeField(&b, c.key.name)
	for _, l := range c.key.labels {
		writeField(&b, l.Key)
		writeField(&b, l.Value)
	}
	return b.String()
}

func writeField(b *strings.Builder, s string) {
	b.WriteString(strconv.Itoa(len(s)))
	b.WriteByte(':')
	b.WriteString(s)
}
