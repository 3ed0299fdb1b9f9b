package usecase

import "github.com/shopspring/decimal"

// MinOrderSize is the smallest quantity the engine will ever submit.
// Anything below it sizes to zero, which callers treat as "do not trade".
const MinOrderSize = 0.00001

var (
	hundred      = decimal.NewFromInt(100)
	minOrderSize = decimal.New(1, -5)
)

// RiskSizer converts available balance and a risk percentage into an
// order size at a given price.
type RiskSizer struct{}

func NewRiskSizer() RiskSizer { return RiskSizer{} }

// Size returns the order quantity, floored to 5 decimal places. It never
// returns a negative size; sizes below MinOrderSize collapse to 0.
// Validating riskPct against [0,100] is the caller's responsibility.
func (RiskSizer) Size(availableBalance, riskPct, price float64) float64 {
	if availableBalance <= 0 || riskPct <= 0 || price <= 0 {
		return 0
	}

	size := decimal.NewFromFloat(availableBalance).
		Mul(decimal.NewFromFloat(riskPct)).
		Div(hundred).
		Div(decimal.NewFromFloat(price)).
		RoundFloor(5)

	if size.LessThan(minOrderSize) {
		return 0
	}
	f, _ := size.Float64()
	return f
}
