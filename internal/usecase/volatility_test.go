package usecase

import (
	"math"
	"testing"
	"time"

	"TradePilot/internal/domain/models"
)

func candlesFromCloses(closes []float64) []models.Candle {
	base := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	out := make([]models.Candle, len(closes))
	for i, c := range closes {
		out[i] = models.Candle{Symbol: "BTCUSDT", OpenTime: base.Add(time.Duration(i) * time.Minute), Close: c}
	}
	return out
}

func TestComputeLogReturns(t *testing.T) {
	rets := ComputeLogReturns(candlesFromCloses([]float64{100, 110, 99}))
	if len(rets) != 2 {
		t.Fatalf("len = %d, want 2", len(rets))
	}
	if math.Abs(rets[0]-math.Log(1.1)) > 1e-12 {
		t.Fatalf("ret[0] = %v", rets[0])
	}
	if math.Abs(rets[1]-math.Log(0.9)) > 1e-12 {
		t.Fatalf("ret[1] = %v", rets[1])
	}
}

func TestComputeLogReturnsShortInput(t *testing.T) {
	if rets := ComputeLogReturns(candlesFromCloses([]float64{100})); rets != nil {
		t.Fatalf("expected nil for single candle, got %v", rets)
	}
}

func TestRealizedVolatilityConstantSeries(t *testing.T) {
	closes := make([]float64, 30)
	for i := range closes {
		closes[i] = 100
	}
	vol := RealizedVolatility(ComputeLogReturns(candlesFromCloses(closes)), 20)
	if vol != 0 {
		t.Fatalf("constant series volatility = %v, want 0", vol)
	}
}

func TestRealizedVolatilityPositiveForNoise(t *testing.T) {
	closes := make([]float64, 30)
	for i := range closes {
		if i%2 == 0 {
			closes[i] = 100
		} else {
			closes[i] = 102
		}
	}
	vol := RealizedVolatility(ComputeLogReturns(candlesFromCloses(closes)), 20)
	if vol <= 0 {
		t.Fatalf("oscillating series volatility = %v, want > 0", vol)
	}
}

func TestRealizedVolatilityWindowClamp(t *testing.T) {
	rets := []float64{0.01, -0.01}
	if vol := RealizedVolatility(rets, 50); vol <= 0 {
		t.Fatalf("clamped window volatility = %v, want > 0", vol)
	}
	if vol := RealizedVolatility([]float64{0.01}, 20); vol != 0 {
		t.Fatalf("single return volatility = %v, want 0", vol)
	}
}
