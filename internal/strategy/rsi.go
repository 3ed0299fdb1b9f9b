package strategy

import (
	"github.com/markcheno/go-talib"

	"TradePilot/internal/domain/models"
)

const (
	rsiPeriod     = 14
	rsiOversold   = 30
	rsiOverbought = 70
)

// RSI signals on oversold/overbought extremes of the Relative Strength
// Index. Deeper extremes score higher.
type RSI struct{}

func (RSI) Name() string { return NameRSI }

func (RSI) Evaluate(candles []models.Candle) (*models.Signal, error) {
	closes, err := closeSeries(candles)
	if err != nil {
		return nil, err
	}

	rsi := talib.Rsi(closes, rsiPeriod)
	last := rsi[len(rsi)-1]
	indicators := map[string]float64{"rsi": last}

	switch {
	case last < rsiOversold:
		return newSignal(candles[len(candles)-1], models.SideBuy, NameRSI, 80-last, indicators), nil
	case last > rsiOverbought:
		return newSignal(candles[len(candles)-1], models.SideSell, NameRSI, last-20, indicators), nil
	default:
		return nil, nil
	}
}
