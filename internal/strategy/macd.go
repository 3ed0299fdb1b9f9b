package strategy

import (
	"math"

	"github.com/markcheno/go-talib"

	"TradePilot/internal/domain/models"
)

const (
	macdFast      = 12
	macdSlow      = 26
	macdSignalLen = 9
)

// MACD emits a signal on a crossover of the MACD line and its signal
// line at the most recent bar.
type MACD struct{}

func (MACD) Name() string { return NameMACD }

func (MACD) Evaluate(candles []models.Candle) (*models.Signal, error) {
	closes, err := closeSeries(candles)
	if err != nil {
		return nil, err
	}

	macd, sig, hist := talib.Macd(closes, macdFast, macdSlow, macdSignalLen)
	n := len(closes)
	prevDiff := macd[n-2] - sig[n-2]
	curDiff := macd[n-1] - sig[n-1]

	var side models.Side
	switch {
	case prevDiff < 0 && curDiff > 0:
		side = models.SideBuy
	case prevDiff > 0 && curDiff < 0:
		side = models.SideSell
	default:
		return nil, nil
	}

	confidence := 70 + 10*math.Abs(curDiff)
	// histogram confirming the direction adds conviction
	if (side == models.SideBuy && hist[n-1] > 0) || (side == models.SideSell && hist[n-1] < 0) {
		confidence += 5
	}
	if confidence > 95 {
		confidence = 95
	}

	return newSignal(candles[n-1], side, NameMACD, confidence, map[string]float64{
		"macd":      macd[n-1],
		"signal":    sig[n-1],
		"histogram": hist[n-1],
	}), nil
}
