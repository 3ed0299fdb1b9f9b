package strategy

import (
	"math"
	"testing"

	"TradePilot/internal/domain/models"
)

// noisy returns a series oscillating tightly around base, with the final
// close replaced by last.
func noisy(base, last float64, n int) []float64 {
	closes := make([]float64, n)
	for i := range closes {
		if i%2 == 0 {
			closes[i] = base + 0.5
		} else {
			closes[i] = base - 0.5
		}
	}
	closes[n-1] = last
	return closes
}

func TestBollingerLowerBreakBuy(t *testing.T) {
	closes := noisy(100, 90, 60)

	sig, err := Bollinger{}.Evaluate(testCandles(closes))
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if sig == nil {
		t.Fatalf("expected lower-band breakout signal")
	}
	if sig.Side != models.SideBuy {
		t.Fatalf("expected buy, got %s", sig.Side)
	}

	upper, lower := sig.Indicators["bb_upper"], sig.Indicators["bb_lower"]
	if sig.Price >= lower {
		t.Fatalf("price %v did not penetrate lower band %v", sig.Price, lower)
	}
	want := 70 + (lower-sig.Price)/(upper-lower)*100
	if want > 95 {
		want = 95
	}
	if math.Abs(sig.Confidence-want) > 1e-9 {
		t.Fatalf("confidence %v, want %v", sig.Confidence, want)
	}
}

func TestBollingerUpperBreakSell(t *testing.T) {
	closes := noisy(100, 110, 60)

	sig, err := Bollinger{}.Evaluate(testCandles(closes))
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if sig == nil {
		t.Fatalf("expected upper-band breakout signal")
	}
	if sig.Side != models.SideSell {
		t.Fatalf("expected sell, got %s", sig.Side)
	}
	if sig.Confidence < 70 || sig.Confidence > 95 {
		t.Fatalf("confidence %v outside [70,95]", sig.Confidence)
	}
}

func TestBollingerInsideBandsNoSignal(t *testing.T) {
	closes := noisy(100, 100.2, 60)

	sig, err := Bollinger{}.Evaluate(testCandles(closes))
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if sig != nil {
		t.Fatalf("close inside the bands must not signal, got %+v", sig)
	}
}
