package usecase

import (
	"math"
	"sync"
	"testing"
)

func TestTrackerInitialState(t *testing.T) {
	tr := NewPerformanceTracker()

	perf := tr.Get("BTCUSDT")
	if perf.SuccessRate != initialSuccessRate {
		t.Fatalf("unseen pair success rate = %v, want %v", perf.SuccessRate, initialSuccessRate)
	}
	if perf.Volatility != 0 {
		t.Fatalf("unseen pair volatility = %v, want 0", perf.Volatility)
	}
}

func TestTrackerSmoothing(t *testing.T) {
	tr := NewPerformanceTracker()

	tr.Update("BTCUSDT", true, 10)
	perf := tr.Get("BTCUSDT")

	wantSuccess := (1-successSmoothing)*initialSuccessRate + successSmoothing*1
	if math.Abs(perf.SuccessRate-wantSuccess) > 1e-12 {
		t.Fatalf("success rate = %v, want %v", perf.SuccessRate, wantSuccess)
	}
	wantVol := volatilitySmoothing * 10
	if math.Abs(perf.Volatility-wantVol) > 1e-12 {
		t.Fatalf("volatility = %v, want %v", perf.Volatility, wantVol)
	}

	tr.Update("BTCUSDT", false, 10)
	perf = tr.Get("BTCUSDT")
	wantSuccess = (1 - successSmoothing) * wantSuccess
	if math.Abs(perf.SuccessRate-wantSuccess) > 1e-12 {
		t.Fatalf("success rate after failure = %v, want %v", perf.SuccessRate, wantSuccess)
	}
}

func TestTrackerUpdateVolatilityLeavesSuccessRate(t *testing.T) {
	tr := NewPerformanceTracker()

	tr.UpdateVolatility("ETHUSDT", 4)
	perf := tr.Get("ETHUSDT")
	if perf.SuccessRate != initialSuccessRate {
		t.Fatalf("success rate moved to %v on a volatility-only update", perf.SuccessRate)
	}
	if math.Abs(perf.Volatility-volatilitySmoothing*4) > 1e-12 {
		t.Fatalf("volatility = %v", perf.Volatility)
	}
}

func TestTrackerBoundedRates(t *testing.T) {
	tr := NewPerformanceTracker()

	for i := 0; i < 200; i++ {
		tr.Update("BTCUSDT", true, 1)
	}
	if perf := tr.Get("BTCUSDT"); perf.SuccessRate > 1 {
		t.Fatalf("success rate %v escaped [0,1]", perf.SuccessRate)
	}

	for i := 0; i < 200; i++ {
		tr.Update("BTCUSDT", false, 1)
	}
	if perf := tr.Get("BTCUSDT"); perf.SuccessRate < 0 {
		t.Fatalf("success rate %v escaped [0,1]", perf.SuccessRate)
	}
}

func TestTrackerConcurrentUpdates(t *testing.T) {
	tr := NewPerformanceTracker()
	symbols := []string{"BTCUSDT", "ETHUSDT", "SOLUSDT"}

	var wg sync.WaitGroup
	for _, sym := range symbols {
		for i := 0; i < 50; i++ {
			wg.Add(1)
			go func(sym string, ok bool) {
				defer wg.Done()
				tr.Update(sym, ok, 2)
			}(sym, i%2 == 0)
		}
	}
	wg.Wait()

	for _, sym := range symbols {
		perf := tr.Get(sym)
		if perf.SuccessRate < 0 || perf.SuccessRate > 1 {
			t.Fatalf("%s success rate %v out of range", sym, perf.SuccessRate)
		}
		if perf.Volatility <= 0 {
			t.Fatalf("%s volatility %v not updated", sym, perf.Volatility)
		}
	}
}
