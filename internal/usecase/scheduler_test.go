package usecase

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"TradePilot/internal/domain/models"
	domrepo "TradePilot/internal/domain/repository"
	applogger "TradePilot/pkg/logger"
)

type fakeSettings struct {
	mu   sync.Mutex
	cfgs map[string]models.AccountConfig
}

func newFakeSettings() *fakeSettings {
	return &fakeSettings{cfgs: make(map[string]models.AccountConfig)}
}

func (s *fakeSettings) GetAccountConfig(_ context.Context, accountID string) (models.AccountConfig, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cfg, ok := s.cfgs[accountID]
	if !ok {
		return models.AccountConfig{}, fmt.Errorf("%w: no settings for account %s", models.ErrInvalidConfiguration, accountID)
	}
	return cfg, nil
}

func (s *fakeSettings) SaveAccountConfig(_ context.Context, cfg models.AccountConfig) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cfgs[cfg.AccountID] = cfg
	return nil
}

func (s *fakeSettings) UpdateAccountConfig(ctx context.Context, accountID string, patch models.AccountConfigPatch) (models.AccountConfig, error) {
	cfg, err := s.GetAccountConfig(ctx, accountID)
	if err != nil {
		return models.AccountConfig{}, err
	}
	cfg = patch.Apply(cfg)
	return cfg, s.SaveAccountConfig(ctx, cfg)
}

type fakeTradeStore struct {
	mu     sync.Mutex
	open   int
	trades []*models.Trade
	snaps  []*models.BalanceSnapshot
}

func (s *fakeTradeStore) SaveTrade(_ context.Context, t *models.Trade) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.trades = append(s.trades, t)
	return nil
}

func (s *fakeTradeStore) SaveBalanceSnapshot(_ context.Context, snap *models.BalanceSnapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snaps = append(s.snaps, snap)
	return nil
}

func (s *fakeTradeStore) CountOpenTrades(_ context.Context, _ string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.open, nil
}

func (s *fakeTradeStore) QueryTrades(_ context.Context, _ string, _, _ time.Time, _ int) ([]*models.Trade, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.trades, nil
}

type fakeGateway struct {
	mu          sync.Mutex
	closes      []float64
	balance     models.Balance
	submitErr   error
	leverageErr error
	candleCalls int
	submits     int
	levCalls    int
	leverages   map[string]int
}

func (g *fakeGateway) GetCandles(_ context.Context, symbol string, _ domrepo.Timeframe, _ int) ([]models.Candle, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.candleCalls++
	base := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	out := make([]models.Candle, len(g.closes))
	for i, c := range g.closes {
		out[i] = models.Candle{Symbol: symbol, OpenTime: base.Add(time.Duration(i) * time.Minute), Close: c}
	}
	return out, nil
}

func (g *fakeGateway) GetBalance(_ context.Context) (models.Balance, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.balance, nil
}

func (g *fakeGateway) SetLeverage(_ context.Context, symbol string, leverage int) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.levCalls++
	if g.leverageErr != nil {
		return g.leverageErr
	}
	if g.leverages == nil {
		g.leverages = make(map[string]int)
	}
	g.leverages[symbol] = leverage
	return nil
}

func (g *fakeGateway) SubmitOrder(_ context.Context, _ string, _ models.Side, _ float64, _ string) (models.OrderResult, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.submits++
	if g.submitErr != nil {
		return models.OrderResult{}, g.submitErr
	}
	return models.OrderResult{OrderID: "42", Status: "FILLED"}, nil
}

type fakePublisher struct {
	mu        sync.Mutex
	published []*models.Trade
}

func (p *fakePublisher) PublishTrade(_ context.Context, t *models.Trade) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.published = append(p.published, t)
	return nil
}

func (p *fakePublisher) Close() error { return nil }

type fakeMetrics struct {
	mu    sync.Mutex
	skips map[string]int
}

func newFakeMetrics() *fakeMetrics { return &fakeMetrics{skips: make(map[string]int)} }

func (m *fakeMetrics) RecordTick(string) {}
func (m *fakeMetrics) RecordTickSkipped(_, reason string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.skips[reason]++
}
func (m *fakeMetrics) RecordSignal(_, _, _ string)         {}
func (m *fakeMetrics) RecordOrder(_, _, _ string)          {}
func (m *fakeMetrics) RecordError(string)                  {}
func (m *fakeMetrics) RecordLastPrice(_ string, _ float64) {}
func (m *fakeMetrics) RecordTickLatency(_ string, _ float64) {}

func (m *fakeMetrics) skipped(reason string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.skips[reason]
}

// oversoldCloses yields a +1/-3 alternation that drives RSI under 30,
// producing a buy with confidence near 55.
func oversoldCloses(n int) []float64 {
	closes := make([]float64, n)
	closes[0] = 500
	for i := 1; i < n; i++ {
		if i%2 == 1 {
			closes[i] = closes[i-1] + 1
		} else {
			closes[i] = closes[i-1] - 3
		}
	}
	return closes
}

type engineFixture struct {
	engine   *Engine
	settings *fakeSettings
	store    *fakeTradeStore
	gateway  *fakeGateway
	pub      *fakePublisher
	metrics  *fakeMetrics
	tracker  *PerformanceTracker
}

func newEngineFixture(t *testing.T, cfg EngineConfig) *engineFixture {
	t.Helper()
	logger, err := applogger.New(&applogger.Config{Level: "error", Format: "console", Output: "stdout"})
	if err != nil {
		t.Fatalf("logger: %v", err)
	}

	settings := newFakeSettings()
	store := &fakeTradeStore{}
	gateway := &fakeGateway{closes: oversoldCloses(80), balance: models.Balance{Available: 10000, Total: 10000}}
	pub := &fakePublisher{}
	m := newFakeMetrics()
	tracker := NewPerformanceTracker()
	selector := NewPairSelector([]WeightedPair{
		{Symbol: "BTCUSDT", Weight: 1},
		{Symbol: "ETHUSDT", Weight: 0.5},
	}, tracker)

	return &engineFixture{
		engine:   NewEngine(settings, store, gateway, pub, tracker, selector, m, logger, cfg),
		settings: settings,
		store:    store,
		gateway:  gateway,
		pub:      pub,
		metrics:  m,
		tracker:  tracker,
	}
}

func defaultAccountConfig() models.AccountConfig {
	return models.AccountConfig{
		AccountID:    "acc-1",
		Symbol:       "BTCUSDT",
		Timeframe:    "1m",
		Strategy:     "RSI",
		RiskPerTrade: 1,
		Leverage:     1,
		Enabled:      true,
	}
}

func TestStartRequiresSettings(t *testing.T) {
	f := newEngineFixture(t, EngineConfig{ConfidenceThreshold: 50, MaxConcurrentTrades: 3})

	if _, err := f.engine.Start(context.Background(), "ghost"); !errors.Is(err, models.ErrInvalidConfiguration) {
		t.Fatalf("expected ErrInvalidConfiguration, got %v", err)
	}
}

func TestStartRejectsBadTimeframe(t *testing.T) {
	f := newEngineFixture(t, EngineConfig{ConfidenceThreshold: 50, MaxConcurrentTrades: 3})
	cfg := defaultAccountConfig()
	cfg.Timeframe = "2m"
	_ = f.settings.SaveAccountConfig(context.Background(), cfg)

	if _, err := f.engine.Start(context.Background(), cfg.AccountID); !errors.Is(err, models.ErrInvalidConfiguration) {
		t.Fatalf("expected ErrInvalidConfiguration, got %v", err)
	}
}

func TestStartStopLifecycle(t *testing.T) {
	f := newEngineFixture(t, EngineConfig{ConfidenceThreshold: 50, MaxConcurrentTrades: 3})
	ctx := context.Background()
	_ = f.settings.SaveAccountConfig(ctx, defaultAccountConfig())

	started, err := f.engine.Start(ctx, "acc-1")
	if err != nil || !started {
		t.Fatalf("first start = (%v, %v), want (true, nil)", started, err)
	}
	if !f.engine.IsRunning("acc-1") {
		t.Fatalf("loop should be running after Start")
	}

	started, err = f.engine.Start(ctx, "acc-1")
	if err != nil || started {
		t.Fatalf("second start = (%v, %v), want (false, nil)", started, err)
	}

	if err := f.engine.Stop(ctx, "acc-1"); err != nil {
		t.Fatalf("stop: %v", err)
	}
	if f.engine.IsRunning("acc-1") {
		t.Fatalf("loop should not be running after Stop")
	}

	// Stopping an inactive account is a no-op.
	if err := f.engine.Stop(ctx, "acc-1"); err != nil {
		t.Fatalf("repeated stop: %v", err)
	}
}

func TestStopAll(t *testing.T) {
	f := newEngineFixture(t, EngineConfig{ConfidenceThreshold: 50, MaxConcurrentTrades: 3})
	ctx := context.Background()
	for _, id := range []string{"acc-1", "acc-2"} {
		cfg := defaultAccountConfig()
		cfg.AccountID = id
		_ = f.settings.SaveAccountConfig(ctx, cfg)
		if _, err := f.engine.Start(ctx, id); err != nil {
			t.Fatalf("start %s: %v", id, err)
		}
	}

	f.engine.StopAll(ctx)
	if f.engine.IsRunning("acc-1") || f.engine.IsRunning("acc-2") {
		t.Fatalf("loops still running after StopAll")
	}
}

func TestConfidenceThreshold(t *testing.T) {
	f := newEngineFixture(t, EngineConfig{ConfidenceThreshold: 70, MaxConcurrentTrades: 3})

	if got := f.engine.GetConfidenceThreshold(); got != 70 {
		t.Fatalf("threshold = %v, want 70", got)
	}
	if err := f.engine.SetConfidenceThreshold(-1); err == nil {
		t.Fatalf("expected error for negative threshold")
	}
	if err := f.engine.SetConfidenceThreshold(101); err == nil {
		t.Fatalf("expected error for threshold over 100")
	}
	if err := f.engine.SetConfidenceThreshold(85); err != nil {
		t.Fatalf("set threshold: %v", err)
	}
	if got := f.engine.GetConfidenceThreshold(); got != 85 {
		t.Fatalf("threshold = %v, want 85", got)
	}
}

func TestListActivePairs(t *testing.T) {
	f := newEngineFixture(t, EngineConfig{ConfidenceThreshold: 50, MaxConcurrentTrades: 3, EnsemblePairs: 2})
	ctx := context.Background()

	cfg := defaultAccountConfig()
	_ = f.settings.SaveAccountConfig(ctx, cfg)
	pairs, err := f.engine.ListActivePairs(ctx, cfg.AccountID)
	if err != nil {
		t.Fatalf("pairs: %v", err)
	}
	if len(pairs) != 1 || pairs[0] != "BTCUSDT" {
		t.Fatalf("single-symbol account pairs = %v", pairs)
	}

	cfg.Strategy = "ENSEMBLE"
	_ = f.settings.SaveAccountConfig(ctx, cfg)
	pairs, err = f.engine.ListActivePairs(ctx, cfg.AccountID)
	if err != nil {
		t.Fatalf("ensemble pairs: %v", err)
	}
	if len(pairs) != 2 {
		t.Fatalf("ensemble pairs = %v, want top 2", pairs)
	}
}

func TestTickSkipsDisabledAccount(t *testing.T) {
	f := newEngineFixture(t, EngineConfig{ConfidenceThreshold: 50, MaxConcurrentTrades: 3})
	cfg := defaultAccountConfig()
	cfg.Enabled = false
	_ = f.settings.SaveAccountConfig(context.Background(), cfg)

	f.engine.runTick(cfg.AccountID)

	if f.metrics.skipped("disabled") != 1 {
		t.Fatalf("expected one disabled skip")
	}
	if f.gateway.candleCalls != 0 {
		t.Fatalf("disabled account must not fetch candles")
	}
}

func TestTickSkipsAtConcurrencyCap(t *testing.T) {
	f := newEngineFixture(t, EngineConfig{ConfidenceThreshold: 50, MaxConcurrentTrades: 3})
	_ = f.settings.SaveAccountConfig(context.Background(), defaultAccountConfig())
	f.store.open = 3

	f.engine.runTick("acc-1")

	if f.metrics.skipped("concurrency_limit") != 1 {
		t.Fatalf("expected one concurrency skip")
	}
	if f.gateway.candleCalls != 0 {
		t.Fatalf("capped account must not fetch candles")
	}
	if f.gateway.submits != 0 {
		t.Fatalf("capped account must not submit orders")
	}
}

func TestTickExecutesTrade(t *testing.T) {
	f := newEngineFixture(t, EngineConfig{ConfidenceThreshold: 50, MaxConcurrentTrades: 3})
	_ = f.settings.SaveAccountConfig(context.Background(), defaultAccountConfig())

	f.engine.runTick("acc-1")

	if len(f.store.trades) != 1 {
		t.Fatalf("trades persisted = %d, want 1", len(f.store.trades))
	}
	trade := f.store.trades[0]
	if trade.Symbol != "BTCUSDT" || trade.Side != models.SideBuy || trade.Strategy != "RSI" {
		t.Fatalf("unexpected trade %+v", trade)
	}
	if trade.Status != "open" {
		t.Fatalf("trade status = %q, want open", trade.Status)
	}
	if trade.ID == "" || trade.OrderID != "42" {
		t.Fatalf("trade ids not set: %+v", trade)
	}

	lastClose := f.gateway.closes[len(f.gateway.closes)-1]
	wantSize := NewRiskSizer().Size(10000, 1, lastClose)
	if trade.Size != wantSize {
		t.Fatalf("trade size = %v, want %v", trade.Size, wantSize)
	}

	if len(f.pub.published) != 1 {
		t.Fatalf("published events = %d, want 1", len(f.pub.published))
	}
	if len(f.store.snaps) != 1 {
		t.Fatalf("balance snapshots = %d, want 1", len(f.store.snaps))
	}
	if rate := f.tracker.Get("BTCUSDT").SuccessRate; rate <= initialSuccessRate {
		t.Fatalf("success rate %v should rise after an executed trade", rate)
	}
}

func TestTickThresholdGate(t *testing.T) {
	f := newEngineFixture(t, EngineConfig{ConfidenceThreshold: 90, MaxConcurrentTrades: 3})
	_ = f.settings.SaveAccountConfig(context.Background(), defaultAccountConfig())

	f.engine.runTick("acc-1")

	if f.gateway.submits != 0 {
		t.Fatalf("signal under threshold must not submit, submits = %d", f.gateway.submits)
	}
	perf := f.tracker.Get("BTCUSDT")
	if perf.SuccessRate != initialSuccessRate {
		t.Fatalf("neutral cycle moved success rate to %v", perf.SuccessRate)
	}
	if perf.Volatility <= 0 {
		t.Fatalf("neutral cycle should still record volatility")
	}
}

func TestTickNeutralSuccessPolicy(t *testing.T) {
	f := newEngineFixture(t, EngineConfig{ConfidenceThreshold: 90, MaxConcurrentTrades: 3, NeutralSuccess: true})
	_ = f.settings.SaveAccountConfig(context.Background(), defaultAccountConfig())

	f.engine.runTick("acc-1")

	if rate := f.tracker.Get("BTCUSDT").SuccessRate; rate <= initialSuccessRate {
		t.Fatalf("neutral-success policy should credit the pair, rate = %v", rate)
	}
}

func TestTickLowercaseStrategyName(t *testing.T) {
	f := newEngineFixture(t, EngineConfig{ConfidenceThreshold: 50, MaxConcurrentTrades: 3})
	cfg := defaultAccountConfig()
	cfg.Strategy = "rsi" // spelling used by the admin API and config files
	_ = f.settings.SaveAccountConfig(context.Background(), cfg)

	f.engine.runTick("acc-1")

	if len(f.store.trades) != 1 {
		t.Fatalf("lowercase strategy name must still trade, trades = %d", len(f.store.trades))
	}
	if f.store.trades[0].Strategy != "RSI" {
		t.Fatalf("trade strategy = %q, want canonical RSI", f.store.trades[0].Strategy)
	}
}

func TestTickEnsembleLowercaseConfig(t *testing.T) {
	f := newEngineFixture(t, EngineConfig{
		ConfidenceThreshold: 50,
		MaxConcurrentTrades: 3,
		EnsemblePairs:       2,
		EnsembleStrategy:    "macd",
	})
	cfg := defaultAccountConfig()
	cfg.Strategy = "ensemble"
	_ = f.settings.SaveAccountConfig(context.Background(), cfg)

	f.engine.runTick("acc-1")

	if f.gateway.candleCalls != 2 {
		t.Fatalf("ensemble tick evaluated %d pairs, want 2", f.gateway.candleCalls)
	}
}

func TestTickAppliesLeverage(t *testing.T) {
	f := newEngineFixture(t, EngineConfig{ConfidenceThreshold: 50, MaxConcurrentTrades: 3})
	cfg := defaultAccountConfig()
	cfg.Leverage = 7
	_ = f.settings.SaveAccountConfig(context.Background(), cfg)

	f.engine.runTick("acc-1")
	f.engine.runTick("acc-1")

	if got := f.gateway.leverages["BTCUSDT"]; got != 7 {
		t.Fatalf("venue leverage = %d, want 7", got)
	}
	if f.gateway.levCalls != 1 {
		t.Fatalf("leverage set %d times, want once while unchanged", f.gateway.levCalls)
	}
	if f.gateway.submits != 2 {
		t.Fatalf("submits = %d, want 2", f.gateway.submits)
	}
}

func TestTickLeverageFailureAborts(t *testing.T) {
	f := newEngineFixture(t, EngineConfig{ConfidenceThreshold: 50, MaxConcurrentTrades: 3})
	_ = f.settings.SaveAccountConfig(context.Background(), defaultAccountConfig())
	f.gateway.leverageErr = errors.New("leverage rejected")

	f.engine.runTick("acc-1")

	if f.gateway.submits != 0 {
		t.Fatalf("order must not go out when leverage cannot be set, submits = %d", f.gateway.submits)
	}
	if len(f.store.trades) != 0 {
		t.Fatalf("no trade should persist after a leverage failure")
	}
}

func TestEngineDefaultMaxConcurrent(t *testing.T) {
	f := newEngineFixture(t, EngineConfig{ConfidenceThreshold: 50})
	_ = f.settings.SaveAccountConfig(context.Background(), defaultAccountConfig())

	f.engine.runTick("acc-1")

	if f.metrics.skipped("concurrency_limit") != 0 {
		t.Fatalf("zero-valued config must not skip every tick at the cap")
	}
	if len(f.store.trades) != 1 {
		t.Fatalf("trades = %d, want 1 with defaulted concurrency cap", len(f.store.trades))
	}
}

func TestTickSubmitFailure(t *testing.T) {
	f := newEngineFixture(t, EngineConfig{ConfidenceThreshold: 50, MaxConcurrentTrades: 3})
	_ = f.settings.SaveAccountConfig(context.Background(), defaultAccountConfig())
	f.gateway.submitErr = errors.New("venue rejected")

	f.engine.runTick("acc-1")

	if len(f.store.trades) != 0 {
		t.Fatalf("failed submission must not persist a trade")
	}
	if len(f.pub.published) != 0 {
		t.Fatalf("failed submission must not publish an event")
	}
	if f.gateway.submits != submitAttempts {
		t.Fatalf("submits = %d, want %d retries", f.gateway.submits, submitAttempts)
	}
	if rate := f.tracker.Get("BTCUSDT").SuccessRate; rate >= initialSuccessRate {
		t.Fatalf("success rate %v should drop after a failed submission", rate)
	}
}
