package strategy

import (
	"github.com/markcheno/go-talib"

	"TradePilot/internal/domain/models"
)

const (
	bbPeriod = 20
	bbStdDev = 2.0
)

// Bollinger signals when price closes outside the 20-period, 2-sigma
// bands. Confidence scales with how far the band was penetrated.
type Bollinger struct{}

func (Bollinger) Name() string { return NameBollinger }

func (Bollinger) Evaluate(candles []models.Candle) (*models.Signal, error) {
	closes, err := closeSeries(candles)
	if err != nil {
		return nil, err
	}

	upper, middle, lower := talib.BBands(closes, bbPeriod, bbStdDev, bbStdDev, talib.SMA)
	n := len(closes)
	lastUpper, lastMiddle, lastLower := upper[n-1], middle[n-1], lower[n-1]
	lastClose := closes[n-1]

	width := lastUpper - lastLower
	if width <= 0 {
		return nil, nil
	}

	indicators := map[string]float64{
		"bb_upper":  lastUpper,
		"bb_middle": lastMiddle,
		"bb_lower":  lastLower,
	}

	var side models.Side
	var penetration float64
	switch {
	case lastClose < lastLower:
		side = models.SideBuy
		penetration = (lastLower - lastClose) / width * 100
	case lastClose > lastUpper:
		side = models.SideSell
		penetration = (lastClose - lastUpper) / width * 100
	default:
		return nil, nil
	}

	confidence := 70 + penetration
	if confidence > 95 {
		confidence = 95
	}
	return newSignal(candles[n-1], side, NameBollinger, confidence, indicators), nil
}
