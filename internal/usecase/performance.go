package usecase

import (
	"sync"
	"time"

	"TradePilot/internal/domain/models"
)

// Smoothing factors for the per-pair quality metrics.
const (
	successSmoothing    = 0.3 // weight of the newest outcome
	volatilitySmoothing = 0.2 // weight of the newest volatility reading
)

type pairEntry struct {
	mu   sync.Mutex
	perf models.PairPerformance
}

// PerformanceTracker maintains exponentially smoothed success-rate and
// volatility estimates per pair. Entries are locked individually so
// concurrent accounts ticking on different pairs never serialize on a
// shared lock.
type PerformanceTracker struct {
	mu    sync.RWMutex
	pairs map[string]*pairEntry
}

func NewPerformanceTracker() *PerformanceTracker {
	return &PerformanceTracker{pairs: make(map[string]*pairEntry)}
}

// Update folds one cycle outcome into the pair's smoothed metrics.
func (t *PerformanceTracker) Update(symbol string, succeeded bool, volatility float64) {
	e := t.entry(symbol)

	outcome := 0.0
	if succeeded {
		outcome = 1.0
	}

	e.mu.Lock()
	e.perf.SuccessRate = (1-successSmoothing)*e.perf.SuccessRate + successSmoothing*outcome
	e.perf.Volatility = (1-volatilitySmoothing)*e.perf.Volatility + volatilitySmoothing*volatility
	e.perf.LastUpdated = time.Now()
	e.mu.Unlock()
}

// UpdateVolatility folds in a volatility reading without touching the
// success rate. Used for no-signal cycles when the neutral-success
// policy is disabled.
func (t *PerformanceTracker) UpdateVolatility(symbol string, volatility float64) {
	e := t.entry(symbol)

	e.mu.Lock()
	e.perf.Volatility = (1-volatilitySmoothing)*e.perf.Volatility + volatilitySmoothing*volatility
	e.perf.LastUpdated = time.Now()
	e.mu.Unlock()
}

// Get returns a copy of the pair's current metrics. Unknown pairs report
// the neutral starting point.
func (t *PerformanceTracker) Get(symbol string) models.PairPerformance {
	t.mu.RLock()
	e, ok := t.pairs[symbol]
	t.mu.RUnlock()
	if !ok {
		return models.PairPerformance{Symbol: symbol, SuccessRate: initialSuccessRate}
	}

	e.mu.Lock()
	perf := e.perf
	e.mu.Unlock()
	return perf
}

// initialSuccessRate seeds new pairs halfway so a single early outcome
// does not dominate the ranking.
const initialSuccessRate = 0.5

func (t *PerformanceTracker) entry(symbol string) *pairEntry {
	t.mu.RLock()
	e, ok := t.pairs[symbol]
	t.mu.RUnlock()
	if ok {
		return e
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if e, ok = t.pairs[symbol]; ok {
		return e
	}
	e = &pairEntry{perf: models.PairPerformance{Symbol: symbol, SuccessRate: initialSuccessRate}}
	t.pairs[symbol] = e
	return e
}
