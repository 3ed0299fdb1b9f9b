package usecase

import "testing"

func TestRiskSizerBasic(t *testing.T) {
	sizer := NewRiskSizer()

	// 1% of 10000 = 100 USD at 50000 = 0.002
	got := sizer.Size(10000, 1, 50000)
	if got != 0.002 {
		t.Fatalf("size = %v, want 0.002", got)
	}
}

func TestRiskSizerFloorsAtFiveDecimals(t *testing.T) {
	sizer := NewRiskSizer()

	// 10/3 = 3.33333... must floor, never round up.
	got := sizer.Size(1000, 1, 3)
	if got != 3.33333 {
		t.Fatalf("size = %v, want 3.33333", got)
	}
}

func TestRiskSizerBelowMinimumIsZero(t *testing.T) {
	sizer := NewRiskSizer()

	got := sizer.Size(1, 0.001, 50000)
	if got != 0 {
		t.Fatalf("size = %v, want 0 for dust", got)
	}
}

func TestRiskSizerInvalidInputs(t *testing.T) {
	sizer := NewRiskSizer()

	cases := []struct {
		name                    string
		balance, riskPct, price float64
	}{
		{"zero balance", 0, 1, 100},
		{"negative balance", -10, 1, 100},
		{"zero risk", 1000, 0, 100},
		{"negative risk", 1000, -1, 100},
		{"zero price", 1000, 1, 0},
		{"negative price", 1000, 1, -5},
	}
	for _, tc := range cases {
		if got := sizer.Size(tc.balance, tc.riskPct, tc.price); got != 0 {
			t.Fatalf("%s: size = %v, want 0", tc.name, got)
		}
	}
}

func TestRiskSizerMonotonicInRisk(t *testing.T) {
	sizer := NewRiskSizer()

	prev := 0.0
	for _, risk := range []float64{0.5, 1, 2, 5, 10} {
		got := sizer.Size(10000, risk, 50000)
		if got < prev {
			t.Fatalf("size decreased from %v to %v at risk %v", prev, got, risk)
		}
		prev = got
	}
}
