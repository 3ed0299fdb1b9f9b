package repository

import (
	"context"
	"time"

	"TradePilot/internal/domain/models"
)

// ExchangeGateway is the engine's view of the trading venue. Reads are
// not retried here; order submission is retried by the caller up to a
// small fixed bound.
type ExchangeGateway interface {
	GetBalance(ctx context.Context) (models.Balance, error)
	GetCandles(ctx context.Context, symbol string, tf Timeframe, limit int) ([]models.Candle, error)
	SetLeverage(ctx context.Context, symbol string, leverage int) error
	SubmitOrder(ctx context.Context, symbol string, side models.Side, size float64, orderType string) (models.OrderResult, error)
}

// SettingsStore holds per-account trading settings.
type SettingsStore interface {
	GetAccountConfig(ctx context.Context, accountID string) (models.AccountConfig, error)
	SaveAccountConfig(ctx context.Context, cfg models.AccountConfig) error
	UpdateAccountConfig(ctx context.Context, accountID string, patch models.AccountConfigPatch) (models.AccountConfig, error)
}

// TradeStore persists trades and balance history.
type TradeStore interface {
	SaveTrade(ctx context.Context, t *models.Trade) error
	SaveBalanceSnapshot(ctx context.Context, s *models.BalanceSnapshot) error
	CountOpenTrades(ctx context.Context, accountID string) (int, error)
	QueryTrades(ctx context.Context, symbol string, from, to time.Time, limit int) ([]*models.Trade, error)
}

// EventPublisher pushes executed-trade events to downstream consumers.
// Publish failures are reported, never fatal to the engine.
type EventPublisher interface {
	PublishTrade(ctx context.Context, t *models.Trade) error
	Close() error
}

// Metrics records engine observability counters and gauges.
type Metrics interface {
	RecordTick(accountID string)
	RecordTickSkipped(accountID, reason string)
	RecordSignal(symbol, strategy string, side string)
	RecordOrder(symbol, side, result string)
	RecordError(kind string)
	RecordLastPrice(symbol string, price float64)
	RecordTickLatency(accountID string, seconds float64)
}
