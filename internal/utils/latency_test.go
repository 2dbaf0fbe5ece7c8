package utils

import (
	"testing"
	"time"
)

func TestLatencyTrackerPercentiles(t *testing.T) {
	tracker := NewLatencyTracker(16)
	for i := 1; i <= 10; i++ {
		tracker.Observe(time.Duration(i) * time.Millisecond)
	}

	if got := tracker.Count(); got != 10 {
		t.Fatalf("count = %d, want 10", got)
	}
	if p50 := tracker.Percentile(50); p50 < 4*time.Millisecond || p50 > 6*time.Millisecond {
		t.Fatalf("p50 = %v, want around 5ms", p50)
	}
	if p95 := tracker.P95(); p95 < 9*time.Millisecond {
		t.Fatalf("p95 = %v, want >= 9ms", p95)
	}
}

func TestLatencyTrackerEmpty(t *testing.T) {
	tracker := NewLatencyTracker(8)
	if got := tracker.Percentile(95); got != 0 {
		t.Fatalf("percentile of empty tracker = %v, want 0", got)
	}
	if got := tracker.Count(); got != 0 {
		t.Fatalf("count = %d, want 0", got)
	}
}

func TestLatencyTrackerExtremes(t *testing.T) {
	tracker := NewLatencyTracker(8)
	tracker.Observe(30 * time.Millisecond)
	tracker.Observe(10 * time.Millisecond)
	tracker.Observe(20 * time.Millisecond)

	if got := tracker.Percentile(0); got != 10*time.Millisecond {
		t.Fatalf("p0 = %v, want 10ms", got)
	}
	if got := tracker.Percentile(100); got != 30*time.Millisecond {
		t.Fatalf("p100 = %v, want 30ms", got)
	}
}

func TestLatencyTrackerEvictsOldest(t *testing.T) {
	tracker := NewLatencyTracker(4)
	for i := 0; i < 12; i++ {
		tracker.Observe(time.Duration(i) * time.Millisecond)
	}

	if got := tracker.Count(); got != 4 {
		t.Fatalf("count = %d, want capacity 4", got)
	}
	// Only the four newest observations remain.
	if got := tracker.Percentile(0); got != 8*time.Millisecond {
		t.Fatalf("oldest retained = %v, want 8ms", got)
	}
}
