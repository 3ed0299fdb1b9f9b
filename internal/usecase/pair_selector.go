package usecase

import "sort"

// Scoring weights for pair ranking.
const (
	volatilityWeight  = 0.3
	successRateWeight = 0.5
)

// WeightedPair is a configured tradable pair with its static preference
// weight. Configuration order breaks score ties.
type WeightedPair struct {
	Symbol string
	Weight float64
}

// PairSelector ranks the configured pairs by a weighted score combining
// the static weight with tracked performance. Used when an account runs
// in ensemble mode; otherwise the single configured symbol applies.
type PairSelector struct {
	pairs   []WeightedPair
	tracker *PerformanceTracker
}

func NewPairSelector(pairs []WeightedPair, tracker *PerformanceTracker) *PairSelector {
	return &PairSelector{pairs: pairs, tracker: tracker}
}

// Rank returns the top count symbols by descending score. Ties keep the
// configured order (stable sort).
func (s *PairSelector) Rank(count int) []string {
	type scored struct {
		symbol string
		score  float64
	}

	ranked := make([]scored, 0, len(s.pairs))
	for _, p := range s.pairs {
		perf := s.tracker.Get(p.Symbol)
		score := p.Weight + volatilityWeight*perf.Volatility + successRateWeight*perf.SuccessRate
		ranked = append(ranked, scored{symbol: p.Symbol, score: score})
	}

	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].score > ranked[j].score })

	if count > len(ranked) {
		count = len(ranked)
	}
	out := make([]string, 0, count)
	for _, r := range ranked[:count] {
		out = append(out, r.symbol)
	}
	return out
}

// Pairs returns the configured pair list in original order.
func (s *PairSelector) Pairs() []WeightedPair { return s.pairs }
