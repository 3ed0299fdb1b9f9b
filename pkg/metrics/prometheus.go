package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder implements domain.repository.Metrics using Prometheus.
type Recorder struct {
	ticksTotal   *prometheus.CounterVec
	ticksSkipped *prometheus.CounterVec
	signalsTotal *prometheus.CounterVec
	ordersTotal  *prometheus.CounterVec
	errorsTotal  *prometheus.CounterVec
	lastPrice    *prometheus.GaugeVec
	tickLatency  *prometheus.HistogramVec
}

// New creates a new Prometheus metrics recorder.
func New() *Recorder {
	return &Recorder{
		ticksTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tradepilot_ticks_total",
				Help: "Total number of decision cycles executed",
			},
			[]string{"account"},
		),
		ticksSkipped: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tradepilot_ticks_skipped_total",
				Help: "Decision cycles skipped, by reason",
			},
			[]string{"account", "reason"},
		),
		signalsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tradepilot_signals_total",
				Help: "Signals produced by strategies",
			},
			[]string{"symbol", "strategy", "side"},
		),
		ordersTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tradepilot_orders_total",
				Help: "Orders submitted to the exchange, by outcome",
			},
			[]string{"symbol", "side", "outcome"},
		),
		errorsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tradepilot_errors_total",
				Help: "Total number of errors encountered",
			},
			[]string{"type"},
		),
		lastPrice: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "tradepilot_last_price",
				Help: "Last observed close price for a symbol",
			},
			[]string{"symbol"},
		),
		tickLatency: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "tradepilot_tick_duration_seconds",
				Help:    "Duration of decision cycles in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"account"},
		),
	}
}

// RecordTick records a completed decision cycle for an account.
func (r *Recorder) RecordTick(accountID string) {
	r.ticksTotal.WithLabelValues(accountID).Inc()
}

// RecordTickSkipped records a skipped cycle with the reason.
func (r *Recorder) RecordTickSkipped(accountID, reason string) {
	r.ticksSkipped.WithLabelValues(accountID, reason).Inc()
}

// RecordSignal records a strategy signal.
func (r *Recorder) RecordSignal(symbol, strategy, side string) {
	r.signalsTotal.WithLabelValues(symbol, strategy, side).Inc()
}

// RecordOrder records an order submission outcome.
func (r *Recorder) RecordOrder(symbol, side, outcome string) {
	r.ordersTotal.WithLabelValues(symbol, side, outcome).Inc()
}

// RecordError records an error occurrence.
func (r *Recorder) RecordError(kind string) {
	r.errorsTotal.WithLabelValues(kind).Inc()
}

// RecordLastPrice records the last price for a symbol.
func (r *Recorder) RecordLastPrice(symbol string, price float64) {
	r.lastPrice.WithLabelValues(symbol).Set(price)
}

// RecordTickLatency records decision-cycle latency in seconds.
func (r *Recorder) RecordTickLatency(accountID string, seconds float64) {
	r.tickLatency.WithLabelValues(accountID).Observe(seconds)
}
