package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	// OutcomeSuccess labels evaluations that produced a verdict.
	OutcomeSuccess = "success"
	// OutcomeError labels evaluations that failed on validation or storage.
	OutcomeError = "error"
)

var (
	evaluationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "pulse_aiops",
			Name:      "evaluations_total",
			Help:      "Total number of pipeline evaluations handled, partitioned by outcome.",
		},
		[]string{"outcome"},
	)

	evaluationDurationSeconds = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "pulse_aiops",
			Name:      "evaluation_seconds",
			Help:      "Pipeline evaluation latency in seconds.",
			Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 5},
		},
	)

	correlationScore = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "pulse_aiops",
			Name:      "correlation_score",
			Help:      "Most recent correlation coefficient, partitioned by estimator.",
		},
		[]string{"type"},
	)

	anomalyRate = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "pulse_aiops",
			Name:      "anomaly_rate",
			Help:      "Fraction of points flagged anomalous in the most recent window.",
		},
	)

	remediationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "pulse_aiops",
			Name:      "remediations_total",
			Help:      "Total remediation decisions recorded, partitioned by status.",
		},
		[]string{"status"},
	)

	samplesIngestedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "pulse_aiops",
			Name:      "samples_ingested_total",
			Help:      "Total metric samples appended to the window store.",
		},
	)

	samplesDroppedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "pulse_aiops",
			Name:      "samples_dropped_total",
			Help:      "Total ingest payloads dropped as malformed.",
		},
	)

	ledgerEntries = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "pulse_aiops",
			Name:      "ledger_entries",
			Help:      "Current number of entries in the audit ledger.",
		},
	)
)

// Register attaches all pipeline collectors to the supplied registerer.
func Register(reg prometheus.Registerer) error {
	collectors := []prometheus.Collector{
		evaluationsTotal,
		evaluationDurationSeconds,
		correlationScore,
		anomalyRate,
		remediationsTotal,
		samplesIngestedTotal,
		samplesDroppedTotal,
		ledgerEntries,
	}

	for _, collector := range collectors {
		if err := reg.Register(collector); err != nil {
			if _, ok := err.(prometheus.AlreadyRegisteredError); ok {
				continue
			}
			return err
		}
	}
	return nil
}

// ObserveEvaluation records an evaluation duration and outcome label.
func ObserveEvaluation(duration time.Duration, outcome string) {
	label := outcome
	if label != OutcomeError {
		label = OutcomeSuccess
	}
	evaluationsTotal.WithLabelValues(label).Inc()
	if duration < 0 {
		duration = 0
	}
	evaluationDurationSeconds.Observe(duration.Seconds())
}

// Recorder is a handle that exposes gauge updates to components that take
// the side channel as an injected dependency.
type Recorder struct{}

// SetCorrelationScore updates the correlation gauge for one estimator.
func (Recorder) SetCorrelationScore(kind string, value float64) {
	correlationScore.WithLabelValues(kind).Set(value)
}

// SetAnomalyRate updates the anomaly-rate gauge.
func (Recorder) SetAnomalyRate(rate float64) {
	anomalyRate.Set(rate)
}

// CountRemediation increments the remediation counter for a status.
func CountRemediation(status string) {
	remediationsTotal.WithLabelValues(status).Inc()
}

// CountSampleIngested increments the ingest counter.
func CountSampleIngested() {
	samplesIngestedTotal.Inc()
}

// CountSampleDropped increments the malformed-payload counter.
func CountSampleDropped() {
	samplesDroppedTotal.Inc()
}

// SetLedgerEntries updates the audit-ledger size gauge.
func SetLedgerEntries(n int64) {
	ledgerEntries.Set(float64(n))
}
