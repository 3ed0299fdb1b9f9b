package usecase

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jpillora/backoff"

	"TradePilot/internal/domain/models"
	domrepo "TradePilot/internal/domain/repository"
	"TradePilot/internal/strategy"
	applogger "TradePilot/pkg/logger"
)

const submitAttempts = 3

// EngineConfig holds the process-wide engine settings. The confidence
// threshold is mutable at runtime through the engine's setter; everything
// else is fixed at construction.
type EngineConfig struct {
	ConfidenceThreshold float64
	MaxConcurrentTrades int
	TickTimeout         time.Duration
	CandleLimit         int
	EnsemblePairs       int
	EnsembleStrategy    string
	NeutralSuccess      bool
}

type accountLoop struct {
	cancel context.CancelFunc
	done   chan struct{}
}

// Engine owns one recurring decision loop per started account. Each loop
// runs ticks strictly one at a time; a tick that outlives its interval
// makes the ticker drop the overlapping fire.
type Engine struct {
	settings  domrepo.SettingsStore
	trades    domrepo.TradeStore
	gateway   domrepo.ExchangeGateway
	publisher domrepo.EventPublisher
	tracker   *PerformanceTracker
	selector  *PairSelector
	sizer     RiskSizer
	metrics   domrepo.Metrics
	logger    *applogger.Logger
	cfg       EngineConfig

	mu    sync.Mutex
	loops map[string]*accountLoop

	levMu    sync.Mutex
	leverage map[string]int // leverage currently set on the venue, per symbol

	thresholdMu sync.RWMutex
	threshold   float64
}

func NewEngine(
	settings domrepo.SettingsStore,
	trades domrepo.TradeStore,
	gateway domrepo.ExchangeGateway,
	publisher domrepo.EventPublisher,
	tracker *PerformanceTracker,
	selector *PairSelector,
	metrics domrepo.Metrics,
	logger *applogger.Logger,
	cfg EngineConfig,
) *Engine {
	if cfg.TickTimeout <= 0 {
		cfg.TickTimeout = 30 * time.Second
	}
	if cfg.CandleLimit < strategy.MinCandles {
		cfg.CandleLimit = 100
	}
	if cfg.EnsemblePairs <= 0 {
		cfg.EnsemblePairs = 3
	}
	if cfg.MaxConcurrentTrades <= 0 {
		cfg.MaxConcurrentTrades = 3
	}
	// Ensemble mode delegates to a concrete strategy; an empty or
	// unresolvable name falls back to MACD.
	cfg.EnsembleStrategy = strategy.Normalize(cfg.EnsembleStrategy)
	if _, err := strategy.ForName(cfg.EnsembleStrategy); err != nil {
		cfg.EnsembleStrategy = strategy.NameMACD
	}
	return &Engine{
		settings:  settings,
		trades:    trades,
		gateway:   gateway,
		publisher: publisher,
		tracker:   tracker,
		selector:  selector,
		sizer:     NewRiskSizer(),
		metrics:   metrics,
		logger:    logger,
		cfg:       cfg,
		loops:     make(map[string]*accountLoop),
		leverage:  make(map[string]int),
		threshold: clamp(cfg.ConfidenceThreshold, 0, 100),
	}
}

// Start arms the account's recurring loop. It returns started=false when
// a loop is already running, and ErrInvalidConfiguration when the
// account has no settings yet.
func (e *Engine) Start(ctx context.Context, accountID string) (bool, error) {
	cfg, err := e.settings.GetAccountConfig(ctx, accountID)
	if err != nil {
		return false, fmt.Errorf("account %s: %w", accountID, err)
	}

	tf := domrepo.Timeframe(cfg.Timeframe)
	if !domrepo.IsValidTimeframe(tf) {
		return false, fmt.Errorf("%w: timeframe %q", models.ErrInvalidConfiguration, cfg.Timeframe)
	}

	e.mu.Lock()
	if _, running := e.loops[accountID]; running {
		e.mu.Unlock()
		return false, nil
	}
	loopCtx, cancel := context.WithCancel(context.Background())
	loop := &accountLoop{cancel: cancel, done: make(chan struct{})}
	e.loops[accountID] = loop
	e.mu.Unlock()

	go e.run(loopCtx, accountID, tf.Interval(), loop.done)

	e.logger.Info("account loop started",
		applogger.String("account", accountID),
		applogger.String("timeframe", cfg.Timeframe),
		applogger.String("strategy", cfg.Strategy),
	)
	return true, nil
}

// Stop cancels the account's loop and waits for an in-flight tick to
// finish. Stopping an account with no active loop is a no-op.
func (e *Engine) Stop(ctx context.Context, accountID string) error {
	e.mu.Lock()
	loop, ok := e.loops[accountID]
	if ok {
		delete(e.loops, accountID)
	}
	e.mu.Unlock()
	if !ok {
		return nil
	}

	loop.cancel()
	select {
	case <-loop.done:
	case <-ctx.Done():
		return ctx.Err()
	}
	e.logger.Info("account loop stopped", applogger.String("account", accountID))
	return nil
}

// StopAll stops every running account loop.
func (e *Engine) StopAll(ctx context.Context) {
	e.mu.Lock()
	ids := make([]string, 0, len(e.loops))
	for id := range e.loops {
		ids = append(ids, id)
	}
	e.mu.Unlock()

	for _, id := range ids {
		if err := e.Stop(ctx, id); err != nil {
			e.logger.Warn("account loop stop", applogger.String("account", id), applogger.Error(err))
		}
	}
}

// IsRunning reports whether the account has an active loop.
func (e *Engine) IsRunning(accountID string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	_, ok := e.loops[accountID]
	return ok
}

// GetConfidenceThreshold returns the process-wide execution threshold.
func (e *Engine) GetConfidenceThreshold() float64 {
	e.thresholdMu.RLock()
	defer e.thresholdMu.RUnlock()
	return e.threshold
}

// SetConfidenceThreshold updates the threshold; it applies to the next
// tick of every account.
func (e *Engine) SetConfidenceThreshold(v float64) error {
	if v < 0 || v > 100 {
		return fmt.Errorf("confidence threshold must be in [0,100], got %v", v)
	}
	e.thresholdMu.Lock()
	e.threshold = v
	e.thresholdMu.Unlock()
	e.logger.Info("confidence threshold updated", applogger.Float64("threshold", v))
	return nil
}

// ListActivePairs returns the symbols a tick would evaluate right now:
// the ranked top pairs in ensemble mode, else the configured symbol.
func (e *Engine) ListActivePairs(ctx context.Context, accountID string) ([]string, error) {
	cfg, err := e.settings.GetAccountConfig(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("account %s: %w", accountID, err)
	}
	if strategy.IsEnsemble(cfg.Strategy) {
		return e.selector.Rank(e.cfg.EnsemblePairs), nil
	}
	return []string{cfg.Symbol}, nil
}

// run is the per-account loop goroutine. Receiving ticks synchronously
// serializes them: while a tick executes, an overlapping fire is dropped
// by the ticker rather than queued.
func (e *Engine) run(ctx context.Context, accountID string, interval time.Duration, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			e.runTick(accountID)
		}
	}
}

// runTick executes one decision cycle for the account. Failures abort
// only this tick; the loop keeps running.
func (e *Engine) runTick(accountID string) {
	start := time.Now()
	ctx, cancel := context.WithTimeout(context.Background(), e.cfg.TickTimeout)
	defer cancel()

	e.metrics.RecordTick(accountID)
	defer func() {
		e.metrics.RecordTickLatency(accountID, time.Since(start).Seconds())
	}()

	// Settings may have changed since the timer was armed.
	cfg, err := e.settings.GetAccountConfig(ctx, accountID)
	if err != nil {
		e.metrics.RecordError("settings")
		e.logger.Error("tick settings read", applogger.String("account", accountID), applogger.Error(err))
		return
	}
	if !cfg.Enabled {
		e.metrics.RecordTickSkipped(accountID, "disabled")
		return
	}

	open, err := e.trades.CountOpenTrades(ctx, accountID)
	if err != nil {
		e.metrics.RecordError("store")
		e.logger.Error("tick open trades count", applogger.String("account", accountID), applogger.Error(err))
		return
	}
	if open >= e.cfg.MaxConcurrentTrades {
		e.metrics.RecordTickSkipped(accountID, "concurrency_limit")
		e.logger.Debug("tick skipped at concurrency limit",
			applogger.String("account", accountID),
			applogger.Int("open", open),
		)
		return
	}

	symbols, strat, err := e.resolveCandidates(cfg)
	if err != nil {
		e.metrics.RecordError("strategy")
		e.logger.Error("tick strategy resolve", applogger.String("account", accountID), applogger.Error(err))
		return
	}

	for _, symbol := range symbols {
		e.evaluateSymbol(ctx, accountID, cfg, strat, symbol)
	}
}

// resolveCandidates picks the symbols to evaluate and the concrete
// strategy. Ensemble mode ranks the configured pairs and delegates to
// the engine's configured concrete strategy.
func (e *Engine) resolveCandidates(cfg models.AccountConfig) ([]string, strategy.Strategy, error) {
	if strategy.IsEnsemble(cfg.Strategy) {
		strat, err := strategy.ForName(e.cfg.EnsembleStrategy)
		if err != nil {
			return nil, nil, err
		}
		return e.selector.Rank(e.cfg.EnsemblePairs), strat, nil
	}

	strat, err := strategy.ForName(cfg.Strategy)
	if err != nil {
		return nil, nil, err
	}
	return []string{cfg.Symbol}, strat, nil
}

func (e *Engine) evaluateSymbol(ctx context.Context, accountID string, cfg models.AccountConfig, strat strategy.Strategy, symbol string) {
	tf := domrepo.NormalizeTimeframe(cfg.Timeframe)

	candles, err := e.gateway.GetCandles(ctx, symbol, tf, e.cfg.CandleLimit)
	if err != nil {
		e.metrics.RecordError("gateway")
		e.logger.Error("tick candle fetch",
			applogger.String("account", accountID),
			applogger.String("symbol", symbol),
			applogger.Error(err),
		)
		return
	}
	if len(candles) > 0 {
		e.metrics.RecordLastPrice(symbol, candles[len(candles)-1].Close)
	}

	volatility := candleVolatility(candles)

	sig, err := strat.Evaluate(candles)
	if err != nil {
		if errors.Is(err, models.ErrInsufficientData) {
			e.metrics.RecordTickSkipped(accountID, "insufficient_data")
			e.logger.Debug("tick insufficient data",
				applogger.String("symbol", symbol),
				applogger.Int("candles", len(candles)),
			)
		} else {
			e.metrics.RecordError("strategy")
			e.logger.Error("tick strategy evaluate", applogger.String("symbol", symbol), applogger.Error(err))
		}
		return
	}

	if sig == nil || sig.Confidence < e.GetConfidenceThreshold() {
		e.recordNeutral(symbol, volatility)
		return
	}

	e.metrics.RecordSignal(symbol, sig.Strategy, string(sig.Side))
	e.logger.Info("signal over threshold",
		applogger.String("account", accountID),
		applogger.String("symbol", symbol),
		applogger.String("side", string(sig.Side)),
		applogger.Float64("confidence", sig.Confidence),
	)

	e.executeSignal(ctx, accountID, cfg, sig, volatility)
}

// executeSignal runs the post-gate half of the cycle: the cap re-check,
// sizing, submission, persistence and performance bookkeeping.
func (e *Engine) executeSignal(ctx context.Context, accountID string, cfg models.AccountConfig, sig *models.Signal, volatility float64) {
	// The cap may have been consumed by a trade since the tick began.
	open, err := e.trades.CountOpenTrades(ctx, accountID)
	if err != nil {
		e.metrics.RecordError("store")
		e.logger.Error("pre-submit open trades count", applogger.String("account", accountID), applogger.Error(err))
		return
	}
	if open >= e.cfg.MaxConcurrentTrades {
		e.metrics.RecordTickSkipped(accountID, "concurrency_limit")
		e.recordNeutral(sig.Symbol, volatility)
		return
	}

	if cfg.Leverage > 0 {
		if err := e.ensureLeverage(ctx, sig.Symbol, cfg.Leverage); err != nil {
			e.metrics.RecordError("gateway")
			e.logger.Error("leverage change",
				applogger.String("account", accountID),
				applogger.String("symbol", sig.Symbol),
				applogger.Int("leverage", cfg.Leverage),
				applogger.Error(err),
			)
			return
		}
	}

	balance, err := e.gateway.GetBalance(ctx)
	if err != nil {
		e.metrics.RecordError("gateway")
		e.logger.Error("balance fetch", applogger.String("account", accountID), applogger.Error(err))
		return
	}

	size := e.sizer.Size(balance.Available, cfg.RiskPerTrade, sig.Price)
	if size == 0 {
		e.metrics.RecordTickSkipped(accountID, "size_too_small")
		e.recordNeutral(sig.Symbol, volatility)
		return
	}

	result, err := e.submitWithRetry(ctx, sig.Symbol, sig.Side, size)
	if err != nil {
		e.metrics.RecordOrder(sig.Symbol, string(sig.Side), "error")
		e.tracker.Update(sig.Symbol, false, volatility)
		e.logger.Error("order submission failed",
			applogger.String("account", accountID),
			applogger.String("symbol", sig.Symbol),
			applogger.String("side", string(sig.Side)),
			applogger.Error(err),
		)
		return
	}

	e.metrics.RecordOrder(sig.Symbol, string(sig.Side), "ok")
	e.tracker.Update(sig.Symbol, true, volatility)

	trade := &models.Trade{
		ID:         uuid.NewString(),
		AccountID:  accountID,
		Symbol:     sig.Symbol,
		Side:       sig.Side,
		Size:       size,
		Price:      sig.Price,
		Strategy:   sig.Strategy,
		Confidence: sig.Confidence,
		OrderID:    result.OrderID,
		Status:     "open",
		CreatedAt:  time.Now(),
	}
	if err := e.trades.SaveTrade(ctx, trade); err != nil {
		e.metrics.RecordError("store")
		e.logger.Error("trade persist", applogger.String("trade", trade.ID), applogger.Error(err))
	}

	e.snapshotBalance(ctx, accountID, balance)

	if e.publisher != nil {
		if err := e.publisher.PublishTrade(ctx, trade); err != nil {
			e.metrics.RecordError("publish")
			e.logger.Warn("trade event publish", applogger.String("trade", trade.ID), applogger.Error(err))
		}
	}

	e.logger.Info("order executed",
		applogger.String("account", accountID),
		applogger.String("symbol", trade.Symbol),
		applogger.String("side", string(trade.Side)),
		applogger.Float64("size", trade.Size),
		applogger.String("order_id", trade.OrderID),
	)
}

// ensureLeverage sets the symbol's leverage on the venue once; repeated
// trades at the same leverage skip the call.
func (e *Engine) ensureLeverage(ctx context.Context, symbol string, leverage int) error {
	e.levMu.Lock()
	applied := e.leverage[symbol]
	e.levMu.Unlock()
	if applied == leverage {
		return nil
	}

	if err := e.gateway.SetLeverage(ctx, symbol, leverage); err != nil {
		return err
	}

	e.levMu.Lock()
	e.leverage[symbol] = leverage
	e.levMu.Unlock()
	return nil
}

// submitWithRetry submits an order with bounded retries; reads are never
// retried here, submission gets up to submitAttempts tries.
func (e *Engine) submitWithRetry(ctx context.Context, symbol string, side models.Side, size float64) (models.OrderResult, error) {
	b := &backoff.Backoff{Min: 250 * time.Millisecond, Max: 2 * time.Second, Jitter: true}

	var lastErr error
	for attempt := 1; attempt <= submitAttempts; attempt++ {
		result, err := e.gateway.SubmitOrder(ctx, symbol, side, size, "MARKET")
		if err == nil {
			return result, nil
		}
		lastErr = err
		if attempt == submitAttempts {
			break
		}
		select {
		case <-time.After(b.Duration()):
		case <-ctx.Done():
			return models.OrderResult{}, ctx.Err()
		}
	}
	return models.OrderResult{}, fmt.Errorf("submit after %d attempts: %w", submitAttempts, lastErr)
}

// snapshotBalance persists the post-submission balance. The exchange is
// queried again so the snapshot reflects the executed order; on failure
// the pre-trade balance is recorded instead.
func (e *Engine) snapshotBalance(ctx context.Context, accountID string, fallback models.Balance) {
	balance, err := e.gateway.GetBalance(ctx)
	if err != nil {
		balance = fallback
	}
	snap := &models.BalanceSnapshot{
		AccountID: accountID,
		Available: balance.Available,
		Total:     balance.Total,
		Frozen:    balance.Frozen,
		Timestamp: time.Now(),
	}
	if err := e.trades.SaveBalanceSnapshot(ctx, snap); err != nil {
		e.metrics.RecordError("store")
		e.logger.Error("balance snapshot persist", applogger.String("account", accountID), applogger.Error(err))
	}
}

// recordNeutral applies the no-trade cycle update. Crediting a neutral
// success keeps inactive pairs from decaying in the ranking; it is
// configurable because it biases tracked success rates upward.
func (e *Engine) recordNeutral(symbol string, volatility float64) {
	if e.cfg.NeutralSuccess {
		e.tracker.Update(symbol, true, volatility)
		return
	}
	e.tracker.UpdateVolatility(symbol, volatility)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
