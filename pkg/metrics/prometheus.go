package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder implements domain.repository.Metrics using Prometheus.
type Recorder struct {
	intervalSeconds prometheus.Histogram
	instruments     prometheus.Gauge
	holdings        prometheus.Gauge
	portfolioValue  prometheus.Gauge
	indexValue      prometheus.Gauge
	errorsTotal     *prometheus.CounterVec
}

// New creates a new Prometheus metrics recorder.
func New() *Recorder {
	return &Recorder{
		intervalSeconds: promauto.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "growthsim_interval_duration_seconds",
				Help:    "Duration of one interval's statistics and rebalance pass",
				Buckets: prometheus.DefBuckets,
			},
		),
		instruments: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "growthsim_instruments",
				Help: "Number of registered instruments",
			},
		),
		holdings: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "growthsim_holdings",
				Help: "Number of instruments currently held",
			},
		),
		portfolioValue: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "growthsim_portfolio_value",
				Help: "Total portfolio value including uncommitted capital",
			},
		),
		indexValue: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "growthsim_index_value",
				Help: "Implied market index, mean normalized instrument value",
			},
		),
		errorsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "growthsim_errors_total",
				Help: "Total number of errors encountered",
			},
			[]string{"type"},
		),
	}
}

// RecordInterval records the duration of one interval pass.
func (r *Recorder) RecordInterval(seconds float64) {
	r.intervalSeconds.Observe(seconds)
}

// RecordInstruments records the registered instrument count.
func (r *Recorder) RecordInstruments(count int) {
	r.instruments.Set(float64(count))
}

// RecordHoldings records the held instrument count.
func (r *Recorder) RecordHoldings(count int) {
	r.holdings.Set(float64(count))
}

// RecordPortfolioValue records the total portfolio value.
func (r *Recorder) RecordPortfolioValue(v float64) {
	r.portfolioValue.Set(v)
}

// RecordIndexValue records the implied market index.
func (r *Recorder) RecordIndexValue(v float64) {
	r.indexValue.Set(v)
}

// RecordError records an error occurrence.
func (r *Recorder) RecordError(kind string) {
	r.errorsTotal.WithLabelValues(kind).Inc()
}
