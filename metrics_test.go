package runloop

import (
	"testing"
	"time"
)

func TestPSquareQuantileMedianOfUniformSample(t *testing.T) {
	ps := newPSquareQuantile(0.5)
	for i := 1; i <= 1001; i++ {
		ps.Update(float64(i))
	}

	got := ps.Quantile()
	if got < 490 || got > 512 {
		t.Fatalf("p50 of 1..1001 = %v, want close to 501", got)
	}
	if ps.Count() != 1001 {
		t.Fatalf("Count = %d, want 1001", ps.Count())
	}
}

func TestPSquareQuantileFewerThanFiveSamples(t *testing.T) {
	ps := newPSquareQuantile(0.5)
	ps.Update(10)
	ps.Update(30)
	ps.Update(20)

	// With fewer than 5 samples, Quantile falls back to sorting the raw
	// buffer: sorted [10 20 30], index = floor(2*0.5) = 1 -> 20.
	if got := ps.Quantile(); got != 20 {
		t.Fatalf("Quantile with 3 samples = %v, want 20", got)
	}
}

func TestPSquareQuantileEmpty(t *testing.T) {
	ps := newPSquareQuantile(0.9)
	if got := ps.Quantile(); got != 0 {
		t.Fatalf("Quantile of an empty tracker = %v, want 0", got)
	}
}

func TestLatencyTrackerSnapshot(t *testing.T) {
	lt := newLatencyTracker()
	for _, ns := range []time.Duration{1_000_000, 2_000_000, 3_000_000, 4_000_000, 5_000_000, 6_000_000} {
		lt.observe(ns)
	}

	snap := lt.snapshot()
	if snap.Count != 6 {
		t.Fatalf("Count = %d, want 6", snap.Count)
	}
	if snap.Max != time.Duration(6_000_000) {
		t.Fatalf("Max = %v, want 6ms", snap.Max)
	}
	wantMean := time.Duration((1 + 2 + 3 + 4 + 5 + 6) * 1_000_000 / 6)
	if snap.Mean != wantMean {
		t.Fatalf("Mean = %v, want %v", snap.Mean, wantMean)
	}
}

func TestLatencyTrackerClampsNegativeDurations(t *testing.T) {
	lt := newLatencyTracker()
	lt.observe(-5)
	snap := lt.snapshot()
	if snap.Max != 0 {
		t.Fatalf("Max after a negative observation = %v, want 0", snap.Max)
	}
	if snap.Count != 1 {
		t.Fatalf("Count = %d, want 1", snap.Count)
	}
}
