package strategy

import (
	"math"
	"testing"

	"TradePilot/internal/domain/models"
)

// alternating builds a series whose changes alternate between up and
// down. Wilder smoothing converges toward RSI = up/(up+down)*100.
func alternating(start, up, down float64, n int) []float64 {
	closes := make([]float64, n)
	closes[0] = start
	for i := 1; i < n; i++ {
		if i%2 == 1 {
			closes[i] = closes[i-1] + up
		} else {
			closes[i] = closes[i-1] - down
		}
	}
	return closes
}

func TestRSIOversoldBuy(t *testing.T) {
	// +1/-3 alternation drives RSI toward 25.
	closes := alternating(500, 1, 3, 80)

	sig, err := RSI{}.Evaluate(testCandles(closes))
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if sig == nil {
		t.Fatalf("expected oversold buy signal")
	}
	if sig.Side != models.SideBuy {
		t.Fatalf("expected buy, got %s", sig.Side)
	}

	rsi := sig.Indicators["rsi"]
	if rsi >= 30 {
		t.Fatalf("rsi %v not oversold", rsi)
	}
	if math.Abs(rsi-25) > 3 {
		t.Fatalf("rsi %v should converge near 25", rsi)
	}
	if math.Abs(sig.Confidence-(80-rsi)) > 1e-9 {
		t.Fatalf("confidence %v != 80-rsi (%v)", sig.Confidence, 80-rsi)
	}
}

func TestRSIOverboughtSell(t *testing.T) {
	// +3/-1 alternation drives RSI toward 75.
	closes := alternating(100, 3, 1, 80)

	sig, err := RSI{}.Evaluate(testCandles(closes))
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if sig == nil {
		t.Fatalf("expected overbought sell signal")
	}
	if sig.Side != models.SideSell {
		t.Fatalf("expected sell, got %s", sig.Side)
	}

	rsi := sig.Indicators["rsi"]
	if rsi <= 70 {
		t.Fatalf("rsi %v not overbought", rsi)
	}
	if math.Abs(sig.Confidence-(rsi-20)) > 1e-9 {
		t.Fatalf("confidence %v != rsi-20 (%v)", sig.Confidence, rsi-20)
	}
}

func TestRSINeutralNoSignal(t *testing.T) {
	// Symmetric +1/-1 alternation holds RSI near 50.
	closes := alternating(100, 1, 1, 80)

	sig, err := RSI{}.Evaluate(testCandles(closes))
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if sig != nil {
		t.Fatalf("neutral RSI must not signal, got %+v", sig)
	}
}
