package promexport

import (
	"sync"
	"time"
)

// Recency decides whether a series' last update is fresh enough to include
// in the current scrape. It is consulted once per series per scrape with the
// series' current generation; returning false omits the series from the
// Snapshot (normal operation, not an error).
// Implementations must be safe for concurrent use.
type Recency interface {
	ShouldInclude(key CompositeKey, generation uint64) bool
}

// BasicRecency is the reference Recency implementation. It remembers the
// generation last seen per series and the time that generation first
// appeared; a series whose generation has not changed for longer than the
// idle timeout is reported stale. A stale series becomes fresh again as soon
// as its generation moves.
type BasicRecency struct {
	idleTimeout time.Duration
	now         func() time.Time

	mu   sync.Mutex
	seen map[string]recencyState
}

type recencyState struct {
	generation uint64
	lastChange time.Time
}

// NewBasicRecency constructs a BasicRecency with the given idle timeout.
// A zero timeout disables staleness: every series is always included.
func NewBasicRecency(idleTimeout time.Duration) *BasicRecency {
	return &BasicRecency{
		idleTimeout: idleTimeout,
		now:         time.Now,
		seen:        make(map[string]recencyState),
	}
}

// ShouldInclude implements Recency.
func (r *BasicRecency) ShouldInclude(key CompositeKey, generation uint64) bool {
	if r.idleTimeout == 0 {
		return true
	}

	mk := key.mapKey()
	now := r.now()

	r.mu.Lock()
	defer r.mu.Unlock()

	st, ok := r.seen[mk]
	if !ok || st.generation != generation {
		r.seen[mk] = recencyState{generation: generation, lastChange: now}
		return true
	}
	return now.Sub(st.lastChange) <= r.idleTimeout
}
