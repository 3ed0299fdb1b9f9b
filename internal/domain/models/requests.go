package models

// ThresholdUpdateRequest updates the engine-wide confidence threshold.
type ThresholdUpdateRequest struct {
	Threshold float64 `json:"threshold" validate:"gte=0,lte=100"`
}

// AccountConfigUpdateRequest is the PUT body for account settings. All
// fields are optional; present fields are validated and applied as a
// patch.
type AccountConfigUpdateRequest struct {
	Symbol       *string  `json:"symbol,omitempty" validate:"omitempty,min=5,max=20"`
	Timeframe    *string  `json:"timeframe,omitempty" validate:"omitempty,oneof=1m 5m 15m 1h 4h 1d"`
	Strategy     *string  `json:"strategy,omitempty" validate:"omitempty,oneof=macd rsi bollinger ema_cross ensemble MACD RSI BOLLINGER EMA ENSEMBLE"`
	RiskPerTrade *float64 `json:"risk_per_trade,omitempty" validate:"omitempty,gt=0,lte=100"`
	Leverage     *int     `json:"leverage,omitempty" validate:"omitempty,gte=1,lte=125"`
	Enabled      *bool    `json:"enabled,omitempty"`
}

// Patch converts the request to a domain patch.
func (r *AccountConfigUpdateRequest) Patch() AccountConfigPatch {
	return AccountConfigPatch{
		Symbol:       r.Symbol,
		Timeframe:    r.Timeframe,
		Strategy:     r.Strategy,
		RiskPerTrade: r.RiskPerTrade,
		Leverage:     r.Leverage,
		Enabled:      r.Enabled,
	}
}

// Complete reports whether the request carries everything needed to
// create a fresh account config.
func (r *AccountConfigUpdateRequest) Complete() bool {
	return r.Symbol != nil && r.Timeframe != nil && r.Strategy != nil && r.RiskPerTrade != nil
}

// TradesQueryRequest filters the recent-trades listing.
type TradesQueryRequest struct {
	Symbol string `query:"symbol"`
	From   string `query:"from"`
	To     string `query:"to"`
	Limit  int    `query:"limit" default:"100" validate:"gte=0,lte=1000"`
}
