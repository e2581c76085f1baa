package promexport

import "testing"

func TestNoopRecorder(t *testing.T) {
	n := NewNoopRecorder()

	if _, ok := n.(noopRecorder); !ok {
		t.Fatalf("expected noopRecorder, got %T", n)
	}

	// should be no-ops and not panic
	key := NewKey("anything", Label{Key: "k", Value: "v"})
	n.RegisterCounter(key, WithDescription("ignored"))
	n.RegisterGauge(key)
	n.RegisterHistogram(key)
	n.IncrementCounter(key, 123)
	n.UpdateGauge(key, -5)
	n.RecordHistogram(key, 3)
}
