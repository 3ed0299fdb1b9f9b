package usecase

import (
	"math"

	"TradePilot/internal/domain/models"
)

// volatilityWindow is the number of most recent log returns used for the
// realized-volatility estimate fed into the performance tracker.
const volatilityWindow = 20

// ComputeLogReturns computes log returns r_t = ln(C_t / C_{t-1}).
// It returns a slice of length len(candles)-1, or nil if insufficient data.
func ComputeLogReturns(candles []models.Candle) []float64 {
	if len(candles) < 2 {
		return nil
	}
	out := make([]float64, 0, len(candles)-1)
	for i := 1; i < len(candles); i++ {
		prev := candles[i-1].Close
		cur := candles[i].Close
		if prev <= 0 || cur <= 0 {
			out = append(out, 0)
			continue
		}
		out = append(out, math.Log(cur/prev))
	}
	return out
}

// RealizedVolatility computes the sample standard deviation of the last
// window log returns, expressed in percent.
func RealizedVolatility(logReturns []float64, window int) float64 {
	if window > len(logReturns) {
		window = len(logReturns)
	}
	if window <= 1 {
		return 0
	}
	sum := 0.0
	sum2 := 0.0
	for i := len(logReturns) - window; i < len(logReturns); i++ {
		r := logReturns[i]
		sum += r
		sum2 += r * r
	}
	n := float64(window)
	mean := sum / n
	variance := (sum2 - n*mean*mean) / (n - 1)
	if variance < 0 {
		variance = 0
	}
	return math.Sqrt(variance) * 100
}

// candleVolatility is the per-tick volatility reading for a candle window.
func candleVolatility(candles []models.Candle) float64 {
	return RealizedVolatility(ComputeLogReturns(candles), volatilityWindow)
}
