package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Handler serves the default registry in the Prometheus text format
func Handler() http.Handler {
	return promhttp.Handler()
}

// HandlerFor serves a custom registry
func HandlerFor(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}

// Recorder records scan metrics using Prometheus.
// A nil *Recorder is valid and records nothing.
type Recorder struct {
	scored       *prometheus.CounterVec
	skipped      *prometheus.CounterVec
	degraded     *prometheus.CounterVec
	sourceErrors *prometheus.CounterVec
	vetoes       prometheus.Counter
	scanDuration prometheus.Histogram
	lastTotal    *prometheus.GaugeVec
}

// New creates a recorder registered on the default registry.
func New() *Recorder {
	return NewWithRegistry(prometheus.DefaultRegisterer)
}

// NewWithRegistry creates a recorder registered on reg.
func NewWithRegistry(reg prometheus.Registerer) *Recorder {
	factory := promauto.With(reg)

	return &Recorder{
		scored: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "prophet_tickers_scored_total",
				Help: "Total number of tickers that produced a verdict",
			},
			[]string{"tier"},
		),
		skipped: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "prophet_tickers_skipped_total",
				Help: "Total number of tickers skipped without a verdict",
			},
			[]string{"reason"},
		),
		degraded: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "prophet_degraded_components_total",
				Help: "Total number of predictor results computed on missing data",
			},
			[]string{"predictor"},
		),
		sourceErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "prophet_source_errors_total",
				Help: "Total number of collector source failures",
			},
			[]string{"source", "reason"},
		),
		vetoes: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "prophet_vetoes_total",
				Help: "Total number of credit danger vetoes",
			},
		),
		scanDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "prophet_scan_duration_seconds",
				Help:    "Duration of full scans in seconds",
				Buckets: []float64{1, 5, 15, 30, 60, 120, 300, 600, 1200},
			},
		),
		lastTotal: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "prophet_last_total",
				Help: "Last composite total per ticker",
			},
			[]string{"ticker"},
		),
	}
}

// RecordVerdict records a scored ticker.
func (r *Recorder) RecordVerdict(ticker, tier string, total float64, vetoed bool, degraded []string) {
	if r == nil {
		return
	}
	r.scored.WithLabelValues(tier).Inc()
	r.lastTotal.WithLabelValues(ticker).Set(total)
	if vetoed {
		r.vetoes.Inc()
	}
	for _, p := range degraded {
		r.degraded.WithLabelValues(p).Inc()
	}
}

// RecordSkip records a ticker skipped for reason.
func (r *Recorder) RecordSkip(reason string) {
	if r == nil {
		return
	}
	r.skipped.WithLabelValues(reason).Inc()
}

// RecordSourceError records a collector source failure.
func (r *Recorder) RecordSourceError(source, reason string) {
	if r == nil {
		return
	}
	r.sourceErrors.WithLabelValues(source, reason).Inc()
}

// RecordScan records the duration of a scan in seconds.
func (r *Recorder) RecordScan(seconds float64) {
	if r == nil {
		return
	}
	r.scanDuration.Observe(seconds)
}
