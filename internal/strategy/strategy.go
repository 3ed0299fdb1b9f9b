package strategy

import (
	"fmt"
	"math"
	"strings"

	"TradePilot/internal/domain/models"
)

// MinCandles is the shortest price window a strategy will evaluate.
const MinCandles = 50

// Strategy names form a closed set; ModeEnsemble is a pair-selection
// mode, not a signal algorithm, and is resolved by the engine.
const (
	NameMACD      = "MACD"
	NameRSI       = "RSI"
	NameBollinger = "BOLLINGER"
	NameEMA       = "EMA"
	ModeEnsemble  = "ENSEMBLE"
)

// Strategy evaluates a candle window and emits at most one signal.
// Implementations are pure: same window, same result.
type Strategy interface {
	Name() string
	Evaluate(candles []models.Candle) (*models.Signal, error)
}

// Normalize maps a configured strategy spelling to its canonical name.
// Config files and the admin API use lowercase names, with EMA cross
// spelled "ema_cross" there.
func Normalize(name string) string {
	n := strings.ToUpper(strings.TrimSpace(name))
	if n == "EMA_CROSS" {
		return NameEMA
	}
	return n
}

// ForName maps a strategy name to its implementation. ENSEMBLE does not
// resolve here: it selects pairs, then delegates to a concrete strategy.
func ForName(name string) (Strategy, error) {
	switch Normalize(name) {
	case NameMACD:
		return MACD{}, nil
	case NameRSI:
		return RSI{}, nil
	case NameBollinger:
		return Bollinger{}, nil
	case NameEMA:
		return EMACross{}, nil
	default:
		return nil, fmt.Errorf("%w: %q", models.ErrUnsupportedStrategy, name)
	}
}

// IsEnsemble reports whether the configured strategy selector asks for
// automatic pair selection.
func IsEnsemble(name string) bool { return Normalize(name) == ModeEnsemble }

// closeSeries extracts the close prices, enforcing the minimum window.
func closeSeries(candles []models.Candle) ([]float64, error) {
	if len(candles) < MinCandles {
		return nil, fmt.Errorf("%w: have %d candles, need %d", models.ErrInsufficientData, len(candles), MinCandles)
	}
	closes := make([]float64, len(candles))
	for i, c := range candles {
		closes[i] = c.Close
	}
	return closes, nil
}

// clampConfidence bounds a confidence score to [0,100].
func clampConfidence(c float64) float64 {
	return math.Max(0, math.Min(100, c))
}

func newSignal(c models.Candle, side models.Side, strat string, confidence float64, indicators map[string]float64) *models.Signal {
	return &models.Signal{
		Symbol:     c.Symbol,
		Side:       side,
		Price:      c.Close,
		Timestamp:  c.OpenTime,
		Strategy:   strat,
		Confidence: clampConfidence(confidence),
		Indicators: indicators,
	}
}
