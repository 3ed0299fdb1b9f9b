package strategy

import (
	"math"

	"TradePilot/internal/domain/models"
)

const (
	emaFastPeriod = 9
	emaSlowPeriod = 21
)

// EMACross signals on the most recent crossover of a fast EMA(9) over a
// slow EMA(21) within the window. Both EMAs are seeded from the first
// close so the series are comparable from the first bar; a trend that
// starts inside the window therefore produces exactly one transition.
type EMACross struct{}

func (EMACross) Name() string { return NameEMA }

func (EMACross) Evaluate(candles []models.Candle) (*models.Signal, error) {
	closes, err := closeSeries(candles)
	if err != nil {
		return nil, err
	}

	fast := emaSeries(closes, emaFastPeriod)
	slow := emaSeries(closes, emaSlowPeriod)
	n := len(closes)

	// Find the latest transition of sign(fast - slow) in the window.
	var side models.Side
	for i := n - 1; i >= 1; i-- {
		prev := fast[i-1] - slow[i-1]
		cur := fast[i] - slow[i]
		if prev <= 0 && cur > 0 {
			side = models.SideBuy
			break
		}
		if prev >= 0 && cur < 0 {
			side = models.SideSell
			break
		}
	}
	if side == "" {
		return nil, nil
	}

	gapPct := 0.0
	if slow[n-1] != 0 {
		gapPct = math.Abs(fast[n-1]-slow[n-1]) / math.Abs(slow[n-1]) * 100
	}
	confidence := 70 + 10*gapPct
	if confidence > 95 {
		confidence = 95
	}

	return newSignal(candles[n-1], side, NameEMA, confidence, map[string]float64{
		"ema_fast": fast[n-1],
		"ema_slow": slow[n-1],
	}), nil
}

// emaSeries computes an EMA seeded with the first value, so out[0] equals
// xs[0] and every index holds a defined value.
func emaSeries(xs []float64, period int) []float64 {
	out := make([]float64, len(xs))
	if len(xs) == 0 {
		return out
	}
	k := 2.0 / (float64(period) + 1)
	out[0] = xs[0]
	for i := 1; i < len(xs); i++ {
		out[i] = xs[i]*k + out[i-1]*(1-k)
	}
	return out
}
