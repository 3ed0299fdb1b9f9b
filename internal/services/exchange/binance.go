package exchange

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/adshao/go-binance/v2/futures"
	"github.com/google/uuid"

	"TradePilot/internal/domain/models"
	domrepo "TradePilot/internal/domain/repository"
	"TradePilot/internal/service/cache"
	"TradePilot/internal/service/ratelimit"
)

// Config holds Binance connection settings.
type Config struct {
	APIKey    string
	APISecret string
	Testnet   bool

	// CandleTTL is how long a fetched kline window may be served from
	// cache; several accounts ticking on the same pair share one fetch.
	CandleTTL time.Duration

	// ReadsPerSecond bounds klines/balance request rates per endpoint.
	ReadsPerSecond float64
}

// BinanceGateway implements the exchange gateway on Binance USDT-M
// futures.
type BinanceGateway struct {
	client    *futures.Client
	candles   *cache.TTLCache
	limiter   *ratelimit.Limiter
	candleTTL time.Duration
	readRate  float64
}

var _ domrepo.ExchangeGateway = (*BinanceGateway)(nil)

// NewBinanceGateway creates the gateway client.
func NewBinanceGateway(cfg Config) *BinanceGateway {
	if cfg.Testnet {
		futures.UseTestnet = true
	}
	if cfg.CandleTTL <= 0 {
		cfg.CandleTTL = 5 * time.Second
	}
	if cfg.ReadsPerSecond <= 0 {
		cfg.ReadsPerSecond = 10
	}
	return &BinanceGateway{
		client:    futures.NewClient(cfg.APIKey, cfg.APISecret),
		candles:   cache.NewTTLCache(),
		limiter:   ratelimit.New(),
		candleTTL: cfg.CandleTTL,
		readRate:  cfg.ReadsPerSecond,
	}
}

// GetCandles fetches the most recent klines, oldest first. Windows are
// cached briefly so concurrent account ticks on one pair coalesce.
func (g *BinanceGateway) GetCandles(ctx context.Context, symbol string, tf domrepo.Timeframe, limit int) ([]models.Candle, error) {
	key := fmt.Sprintf("candles:%s:%s:%d", symbol, tf, limit)
	if v, ok := g.candles.Get(key); ok {
		if cs, ok := v.([]models.Candle); ok {
			return cs, nil
		}
	}

	if !g.limiter.Allow("klines", g.readRate, g.readRate) {
		return nil, fmt.Errorf("%w: klines rate limited", models.ErrGatewayUnavailable)
	}

	klines, err := g.client.NewKlinesService().
		Symbol(symbol).
		Interval(string(tf)).
		Limit(limit).
		Do(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: klines %s: %v", models.ErrGatewayUnavailable, symbol, err)
	}

	candles := make([]models.Candle, 0, len(klines))
	for _, k := range klines {
		c, err := parseKline(symbol, k)
		if err != nil {
			return nil, fmt.Errorf("klines %s: %w", symbol, err)
		}
		candles = append(candles, c)
	}

	g.candles.Set(key, candles, g.candleTTL)
	return candles, nil
}

// GetBalance returns the current futures wallet balance.
func (g *BinanceGateway) GetBalance(ctx context.Context) (models.Balance, error) {
	if !g.limiter.Allow("account", g.readRate, g.readRate) {
		return models.Balance{}, fmt.Errorf("%w: account rate limited", models.ErrGatewayUnavailable)
	}

	acc, err := g.client.NewGetAccountService().Do(ctx)
	if err != nil {
		return models.Balance{}, fmt.Errorf("%w: account: %v", models.ErrGatewayUnavailable, err)
	}

	total, err := strconv.ParseFloat(acc.TotalWalletBalance, 64)
	if err != nil {
		return models.Balance{}, fmt.Errorf("parse total balance: %w", err)
	}
	available, err := strconv.ParseFloat(acc.AvailableBalance, 64)
	if err != nil {
		return models.Balance{}, fmt.Errorf("parse available balance: %w", err)
	}

	return models.Balance{
		Available: available,
		Total:     total,
		Frozen:    total - available,
	}, nil
}

// SetLeverage changes the position leverage for a symbol.
func (g *BinanceGateway) SetLeverage(ctx context.Context, symbol string, leverage int) error {
	_, err := g.client.NewChangeLeverageService().
		Symbol(symbol).
		Leverage(leverage).
		Do(ctx)
	if err != nil {
		return fmt.Errorf("%w: change leverage %s: %v", models.ErrGatewayUnavailable, symbol, err)
	}
	return nil
}

// SubmitOrder places an order. The caller retries transient failures;
// this does a single attempt.
func (g *BinanceGateway) SubmitOrder(ctx context.Context, symbol string, side models.Side, size float64, orderType string) (models.OrderResult, error) {
	binSide := futures.SideTypeBuy
	if side == models.SideSell {
		binSide = futures.SideTypeSell
	}
	binType := futures.OrderTypeMarket
	if orderType == "LIMIT" {
		binType = futures.OrderTypeLimit
	}

	resp, err := g.client.NewCreateOrderService().
		Symbol(symbol).
		Side(binSide).
		Type(binType).
		Quantity(strconv.FormatFloat(size, 'f', -1, 64)).
		NewClientOrderID(uuid.NewString()).
		Do(ctx)
	if err != nil {
		return models.OrderResult{}, fmt.Errorf("%w: create order %s: %v", models.ErrGatewayUnavailable, symbol, err)
	}

	return models.OrderResult{
		OrderID: strconv.FormatInt(resp.OrderID, 10),
		Status:  string(resp.Status),
	}, nil
}

func parseKline(symbol string, k *futures.Kline) (models.Candle, error) {
	open, err := strconv.ParseFloat(k.Open, 64)
	if err != nil {
		return models.Candle{}, fmt.Errorf("parse open: %w", err)
	}
	high, err := strconv.ParseFloat(k.High, 64)
	if err != nil {
		return models.Candle{}, fmt.Errorf("parse high: %w", err)
	}
	low, err := strconv.ParseFloat(k.Low, 64)
	if err != nil {
		return models.Candle{}, fmt.Errorf("parse low: %w", err)
	}
	closePx, err := strconv.ParseFloat(k.Close, 64)
	if err != nil {
		return models.Candle{}, fmt.Errorf("parse close: %w", err)
	}
	volume, err := strconv.ParseFloat(k.Volume, 64)
	if err != nil {
		return models.Candle{}, fmt.Errorf("parse volume: %w", err)
	}

	return models.Candle{
		Symbol:   symbol,
		OpenTime: time.Unix(k.OpenTime/1000, 0),
		Open:     open,
		High:     high,
		Low:      low,
		Close:    closePx,
		Volume:   volume,
	}, nil
}
