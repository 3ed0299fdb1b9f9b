package models

import "time"

// Side is the direction of a signal or order.
type Side string

const (
	SideBuy  Side = "buy"
	SideSell Side = "sell"
)

// Candle represents an OHLCV record, oldest-first in any series.
type Candle struct {
	Symbol   string
	OpenTime time.Time
	Open     float64
	High     float64
	Low      float64
	Close    float64
	Volume   float64
}

// Signal is a directional trade recommendation produced by a strategy
// evaluation. Signals are transient; only the resulting Trade is persisted.
type Signal struct {
	Symbol     string
	Side       Side
	Price      float64
	Timestamp  time.Time
	Strategy   string
	Confidence float64            // 0..100
	Indicators map[string]float64 // snapshot of the values behind the decision
}

// Trade is an executed (or attempted) order.
type Trade struct {
	ID         string
	AccountID  string
	Symbol     string
	Side       Side
	Size       float64
	Price      float64
	Strategy   string
	Confidence float64
	OrderID    string
	Status     string // "open", "closed", "failed"
	CreatedAt  time.Time
}

// Balance is the account balance as reported by the exchange.
type Balance struct {
	Available float64
	Total     float64
	Frozen    float64
}

// BalanceSnapshot is a point-in-time balance record persisted after
// every order submission.
type BalanceSnapshot struct {
	AccountID string
	Available float64
	Total     float64
	Frozen    float64
	Timestamp time.Time
}

// OrderResult is the exchange's acknowledgement of a submitted order.
type OrderResult struct {
	OrderID string
	Status  string
}

// AccountConfig holds per-account trading settings. It is re-read at the
// start of every cycle, so changes apply on the next tick.
type AccountConfig struct {
	AccountID    string  `json:"account_id"`
	Symbol       string  `json:"symbol"`
	Timeframe    string  `json:"timeframe"`
	Strategy     string  `json:"strategy"`
	RiskPerTrade float64 `json:"risk_per_trade"` // percent of available balance
	Leverage     int     `json:"leverage"`
	Enabled      bool    `json:"enabled"`
}

// AccountConfigPatch is a partial update to AccountConfig; nil fields are
// left untouched.
type AccountConfigPatch struct {
	Symbol       *string  `json:"symbol,omitempty"`
	Timeframe    *string  `json:"timeframe,omitempty"`
	Strategy     *string  `json:"strategy,omitempty"`
	RiskPerTrade *float64 `json:"risk_per_trade,omitempty"`
	Leverage     *int     `json:"leverage,omitempty"`
	Enabled      *bool    `json:"enabled,omitempty"`
}

// Apply returns a copy of cfg with the non-nil patch fields applied.
func (p AccountConfigPatch) Apply(cfg AccountConfig) AccountConfig {
	if p.Symbol != nil {
		cfg.Symbol = *p.Symbol
	}
	if p.Timeframe != nil {
		cfg.Timeframe = *p.Timeframe
	}
	if p.Strategy != nil {
		cfg.Strategy = *p.Strategy
	}
	if p.RiskPerTrade != nil {
		cfg.RiskPerTrade = *p.RiskPerTrade
	}
	if p.Leverage != nil {
		cfg.Leverage = *p.Leverage
	}
	if p.Enabled != nil {
		cfg.Enabled = *p.Enabled
	}
	return cfg
}

// PairPerformance tracks smoothed per-pair quality metrics for pair
// ranking. Lives for the process lifetime.
type PairPerformance struct {
	Symbol      string
	Volatility  float64 // exponentially smoothed, >= 0
	SuccessRate float64 // exponentially smoothed, in [0,1]
	LastUpdated time.Time
}
