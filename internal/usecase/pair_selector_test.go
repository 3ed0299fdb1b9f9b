package usecase

import (
	"reflect"
	"testing"
)

func TestRankOrdersByScore(t *testing.T) {
	tracker := NewPerformanceTracker()
	selector := NewPairSelector([]WeightedPair{
		{Symbol: "BTCUSDT", Weight: 0.2},
		{Symbol: "ETHUSDT", Weight: 1.0},
		{Symbol: "SOLUSDT", Weight: 0.5},
	}, tracker)

	got := selector.Rank(3)
	want := []string{"ETHUSDT", "SOLUSDT", "BTCUSDT"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("rank = %v, want %v", got, want)
	}
}

func TestRankTiesKeepConfiguredOrder(t *testing.T) {
	tracker := NewPerformanceTracker()
	selector := NewPairSelector([]WeightedPair{
		{Symbol: "AAAUSDT", Weight: 0.5},
		{Symbol: "BBBUSDT", Weight: 0.5},
		{Symbol: "CCCUSDT", Weight: 0.5},
	}, tracker)

	got := selector.Rank(3)
	want := []string{"AAAUSDT", "BBBUSDT", "CCCUSDT"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("tied rank = %v, want configured order %v", got, want)
	}
}

func TestRankReflectsPerformance(t *testing.T) {
	tracker := NewPerformanceTracker()
	selector := NewPairSelector([]WeightedPair{
		{Symbol: "BTCUSDT", Weight: 0.5},
		{Symbol: "ETHUSDT", Weight: 0.5},
	}, tracker)

	// Repeated failures push BTC's success rate toward zero.
	for i := 0; i < 20; i++ {
		tracker.Update("BTCUSDT", false, 1)
	}

	got := selector.Rank(2)
	if got[0] != "ETHUSDT" {
		t.Fatalf("expected ETHUSDT to outrank failing BTCUSDT, got %v", got)
	}
}

func TestRankCountClamped(t *testing.T) {
	tracker := NewPerformanceTracker()
	selector := NewPairSelector([]WeightedPair{
		{Symbol: "BTCUSDT", Weight: 1},
	}, tracker)

	if got := selector.Rank(10); len(got) != 1 {
		t.Fatalf("rank len = %d, want 1", len(got))
	}
	if got := selector.Rank(0); len(got) != 0 {
		t.Fatalf("rank(0) len = %d, want 0", len(got))
	}
}
