package promexport

// Snapshot is an immutable point-in-time view of all live series, produced
// fresh on each scrape. Outer maps are keyed by sanitized metric name; inner
// maps by the rendered label string (e.g. `method="GET",code="200"`, empty
// for an unlabeled series), so each (name, label set) pair appears at most
// once per map.
//
// Counters and gauges reflect only recency-fresh series. Distributions are a
// full copy of the retained distribution state: once created for a
// (name, label set), a distribution appears in every subsequent Snapshot
// whether or not it was updated this interval.
type Snapshot struct {
	Counters      map[string]map[string]uint64
	Gauges        map[string]map[string]float64
	Distributions map[string]map[string]DistributionSnapshot
}

// snapshot builds a Snapshot in a single pass over the registry enumeration:
// stale series are skipped, counter and gauge cells are read atomically, and
// histogram sample buffers are drained into the distribution store.
func (in *inner) snapshot() (Snapshot, error) {
	counters := make(map[string]map[string]uint64)
	gauges := make(map[string]map[string]float64)

	for _, e := range in.registry.Handles() {
		if !in.recency.ShouldInclude(e.Key, e.Generation) {
			continue
		}
		name, labels := keyToParts(e.Key.Key())

		switch e.Key.Kind() {
		case KindCounter:
			byLabels := counters[name]
			if byLabels == nil {
				byLabels = make(map[string]uint64)
				counters[name] = byLabels
			}
			byLabels[labels] = e.Instrument.ReadCounter()
		case KindGauge:
			byLabels := gauges[name]
			if byLabels == nil {
				byLabels = make(map[string]float64)
				gauges[name] = byLabels
			}
			byLabels[labels] = e.Instrument.ReadGauge()
		case KindHistogram:
			if err := in.dists.observe(name, labels, e.Instrument); err != nil {
				return Snapshot{}, err
			}
		default:
			in.logger.Warnf("%s: skipping series %s with unknown kind", Namespace, e.Key.String())
		}
	}

	return Snapshot{
		Counters:      counters,
		Gauges:        gauges,
		Distributions: in.dists.snapshotAll(),
	}, nil
}
