package repository

import (
	"testing"
	"time"
)

func TestIsValidTimeframe(t *testing.T) {
	for _, tf := range []Timeframe{TF1m, TF5m, TF15m, TF1h, TF4h, TF1d} {
		if !IsValidTimeframe(tf) {
			t.Fatalf("%s should be valid", tf)
		}
	}
	for _, tf := range []Timeframe{"", "2m", "1w", "30s"} {
		if IsValidTimeframe(tf) {
			t.Fatalf("%q should be invalid", tf)
		}
	}
}

func TestNormalizeTimeframe(t *testing.T) {
	if got := NormalizeTimeframe(""); got != DefaultTimeframe() {
		t.Fatalf("empty input normalized to %s", got)
	}
	if got := NormalizeTimeframe("1h"); got != TF1h {
		t.Fatalf("1h normalized to %s", got)
	}
	if got := NormalizeTimeframe("2m"); got != DefaultTimeframe() {
		t.Fatalf("unknown input normalized to %s", got)
	}
}

func TestInterval(t *testing.T) {
	cases := map[Timeframe]time.Duration{
		TF1m:  time.Minute,
		TF5m:  5 * time.Minute,
		TF15m: 15 * time.Minute,
		TF1h:  time.Hour,
		TF4h:  4 * time.Hour,
		TF1d:  24 * time.Hour,
	}
	for tf, want := range cases {
		if got := tf.Interval(); got != want {
			t.Fatalf("%s interval = %v, want %v", tf, got, want)
		}
	}
}
