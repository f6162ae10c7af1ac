package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"FxBias/internal/domain/models"
)

// Recorder implements domain.repository.Metrics using Prometheus.
type Recorder struct {
	runsTotal     *prometheus.CounterVec
	runDuration   prometheus.Histogram
	indicators    *prometheus.CounterVec
	riskModifier  prometheus.Gauge
	riskDecisions *prometheus.CounterVec
	errorsTotal   *prometheus.CounterVec
	latency       *prometheus.HistogramVec
}

// New registers the collectors on reg, or on the default registry when reg is nil.
func New(reg prometheus.Registerer) *Recorder {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	f := promauto.With(reg)
	return &Recorder{
		runsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fxbias_analysis_runs_total",
				Help: "Finished analysis runs by outcome",
			},
			[]string{"outcome"},
		),
		runDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "fxbias_analysis_run_duration_seconds",
			Help:    "Wall time of an analysis run",
			Buckets: []float64{30, 60, 120, 300, 600, 900, 1800, 3600},
		}),
		indicators: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fxbias_indicator_results_total",
				Help: "Indicator scoring results by currency and outcome",
			},
			[]string{"currency", "outcome"},
		),
		riskModifier: f.NewGauge(prometheus.GaugeOpts{
			Name: "fxbias_risk_modifier",
			Help: "Risk modifier of the latest assessment (-1, 0, 1)",
		}),
		riskDecisions: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fxbias_risk_assessments_total",
				Help: "Risk assessments by resulting modifier",
			},
			[]string{"modifier"},
		),
		errorsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fxbias_errors_total",
				Help: "Errors encountered by kind",
			},
			[]string{"kind"},
		),
		latency: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "fxbias_operation_duration_seconds",
				Help:    "Duration of operations in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
	}
}

func (r *Recorder) RecordRun(outcome models.RunOutcome, seconds float64) {
	r.runsTotal.WithLabelValues(string(outcome)).Inc()
	r.runDuration.Observe(seconds)
}

func (r *Recorder) RecordIndicator(currency, outcome string) {
	r.indicators.WithLabelValues(currency, outcome).Inc()
}

func (r *Recorder) RecordRiskModifier(modifier int) {
	r.riskModifier.Set(float64(modifier))
	r.riskDecisions.WithLabelValues(strconv.Itoa(modifier)).Inc()
}

func (r *Recorder) RecordError(kind string) {
	r.errorsTotal.WithLabelValues(kind).Inc()
}

func (r *Recorder) RecordLatency(op string, seconds float64) {
	r.latency.WithLabelValues(op).Observe(seconds)
}
