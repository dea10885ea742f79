package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/rustyeddy/papertrader/broker"
)

// Registry holds the simulator's Prometheus metrics. It observes ledger
// fills and finished runs.
type Registry struct {
	*prometheus.Registry

	fillsTotal    *prometheus.CounterVec
	feesTotal     prometheus.Counter
	notionalTotal *prometheus.CounterVec
	runsTotal     *prometheus.CounterVec
	runDuration   prometheus.Histogram
	barsProcessed prometheus.Counter
	lastEquity    prometheus.Gauge
}

// NewRegistry creates a new metrics registry with all metrics registered.
func NewRegistry() *Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())

	r := &Registry{
		Registry: reg,

		fillsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "papertrader_fills_total",
				Help: "Total number of simulated fills",
			},
			[]string{"side"},
		),
		feesTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "papertrader_fees_total",
				Help: "Total fees charged on simulated fills",
			},
		),
		notionalTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "papertrader_notional_total",
				Help: "Total traded notional (price times size)",
			},
			[]string{"side"},
		),
		runsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "papertrader_runs_total",
				Help: "Total number of backtest runs",
			},
			[]string{"status"},
		),
		runDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "papertrader_run_duration_seconds",
				Help:    "Backtest run duration in seconds",
				Buckets: []float64{0.001, 0.01, 0.1, 0.5, 1, 5, 30},
			},
		),
		barsProcessed: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "papertrader_bars_processed_total",
				Help: "Total number of bars stepped through",
			},
		),
		lastEquity: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "papertrader_account_equity",
				Help: "Cash equity after the most recent fill",
			},
		),
	}

	reg.MustRegister(
		r.fillsTotal,
		r.feesTotal,
		r.notionalTotal,
		r.runsTotal,
		r.runDuration,
		r.barsProcessed,
		r.lastEquity,
	)
	return r
}

// ObserveFill records one ledger fill.
func (r *Registry) ObserveFill(f broker.Fill, acct broker.Account) {
	r.fillsTotal.WithLabelValues(string(f.Side)).Inc()
	r.feesTotal.Add(f.Fee)
	r.notionalTotal.WithLabelValues(string(f.Side)).Add(f.Notional())
	r.lastEquity.Set(acct.Equity)
}

// ObserveRun records a finished run. Failed runs count under status "error".
func (r *Registry) ObserveRun(runID string, bars int, elapsed time.Duration, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	r.runsTotal.WithLabelValues(status).Inc()
	r.runDuration.Observe(elapsed.Seconds())
	r.barsProcessed.Add(float64(bars))
}

// WriteTextfile dumps the registry in the node_exporter textfile format.
func (r *Registry) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, r.Registry)
}
