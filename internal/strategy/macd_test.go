package strategy

import (
	"testing"

	"TradePilot/internal/domain/models"
)

// vShape declines for down bars, then rises. A MACD line that has been
// under its signal line during the decline crosses above it somewhere in
// the rise.
func vShape(total, down int) []float64 {
	closes := make([]float64, total)
	for i := 0; i < total; i++ {
		if i < down {
			closes[i] = 200 - float64(i)
		} else {
			closes[i] = 200 - float64(down) + 2*float64(i-down)
		}
	}
	return closes
}

func TestMACDBullishCrossover(t *testing.T) {
	closes := vShape(70, 45)

	var buys, sells int
	for n := MinCandles; n <= len(closes); n++ {
		sig, err := MACD{}.Evaluate(testCandles(closes[:n]))
		if err != nil {
			t.Fatalf("evaluate at %d: %v", n, err)
		}
		if sig == nil {
			continue
		}
		if sig.Strategy != NameMACD {
			t.Fatalf("unexpected strategy %q", sig.Strategy)
		}
		if sig.Confidence < 70 || sig.Confidence > 95 {
			t.Fatalf("confidence %v outside [70,95]", sig.Confidence)
		}
		switch sig.Side {
		case models.SideBuy:
			buys++
		case models.SideSell:
			sells++
		}
	}
	if buys == 0 {
		t.Fatalf("expected a bullish crossover in the recovery, got buys=%d sells=%d", buys, sells)
	}
}

func TestMACDBearishCrossover(t *testing.T) {
	up := vShape(70, 45)
	closes := make([]float64, len(up))
	for i, c := range up {
		closes[i] = 400 - c // mirror: rise then fall
	}

	var sells int
	for n := MinCandles; n <= len(closes); n++ {
		sig, err := MACD{}.Evaluate(testCandles(closes[:n]))
		if err != nil {
			t.Fatalf("evaluate at %d: %v", n, err)
		}
		if sig != nil && sig.Side == models.SideSell {
			sells++
		}
	}
	if sells == 0 {
		t.Fatalf("expected a bearish crossover in the decline")
	}
}

func TestMACDFlatSeriesNoSignal(t *testing.T) {
	closes := make([]float64, 60)
	for i := range closes {
		closes[i] = 100
	}
	sig, err := MACD{}.Evaluate(testCandles(closes))
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if sig != nil {
		t.Fatalf("flat series must not signal, got %+v", sig)
	}
}

func TestMACDIndicatorsExposed(t *testing.T) {
	closes := vShape(70, 45)
	for n := MinCandles; n <= len(closes); n++ {
		sig, err := MACD{}.Evaluate(testCandles(closes[:n]))
		if err != nil {
			t.Fatalf("evaluate: %v", err)
		}
		if sig == nil {
			continue
		}
		for _, key := range []string{"macd", "signal", "histogram"} {
			if _, ok := sig.Indicators[key]; !ok {
				t.Fatalf("missing indicator %q", key)
			}
		}
		return
	}
	t.Fatalf("no signal produced")
}
