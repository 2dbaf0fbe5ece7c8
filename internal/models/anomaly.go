package models

import "time"

// Severity captures impact levels.
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// Rank orders severities so callers can compare them without string games.
func (s Severity) Rank() int {
	switch s {
	case SeverityCritical:
		return 3
	case SeverityHigh:
		return 2
	case SeverityMedium:
		return 1
	default:
		return 0
	}
}

// Trend enumerates trend directions reported by trend-deviation analysis.
type Trend string

const (
	TrendIncreasing Trend = "increasing"
	TrendDecreasing Trend = "decreasing"
	TrendStable     Trend = "stable"
)

// AnomalyScore is a per-point view derived from a sample batch. It is
// recomputed on demand and never persisted as source of truth.
type AnomalyScore struct {
	Index      int      `json:"index"`
	Value      float64  `json:"value"`
	Score      float64  `json:"score"`
	Severity   Severity `json:"severity"`
	Deviation  float64  `json:"deviation"`
	Percentile string   `json:"percentile"`
	IsAnomaly  bool     `json:"isAnomaly"`
	Timestamp  int64    `json:"timestamp"`
}

// PercentileSnapshot holds batch percentiles used as adaptive thresholds.
type PercentileSnapshot struct {
	P50 float64 `json:"p50"`
	P75 float64 `json:"p75"`
	P90 float64 `json:"p90"`
	P95 float64 `json:"p95"`
	P99 float64 `json:"p99"`
}

// PercentileAnomaly reports whether the latest point in a batch breaches a
// percentile threshold. A nil result means the batch was too small to judge.
type PercentileAnomaly struct {
	Value      float64 `json:"value"`
	Threshold  float64 `json:"threshold"`
	Percentile string  `json:"percentile"`
	IsAnomaly  bool    `json:"isAnomaly"`
	Timestamp  int64   `json:"timestamp"`
}

// TrendDeviation compares the trailing window average against the
// preceding window of equal size.
type TrendDeviation struct {
	Trend         Trend   `json:"trend"`
	Deviation     float64 `json:"deviation"`
	IsSignificant bool    `json:"isSignificant"`
	WindowSize    int     `json:"windowSize"`
	Average       float64 `json:"average"`
	LastValue     float64 `json:"lastValue"`
}

// AnomalyAggregate reduces a batch of scores into severity counts, a
// weighted aggregate score, and a time-ordered timeline.
type AnomalyAggregate struct {
	Counts          map[Severity]int `json:"counts"`
	AggregatedScore float64          `json:"aggregatedScore"`
	Timeline        []TimelinePoint  `json:"timeline"`
}

// TimelinePoint is one entry in an aggregated anomaly timeline.
type TimelinePoint struct {
	Timestamp int64    `json:"timestamp"`
	Severity  Severity `json:"severity"`
	Score     float64  `json:"score"`
}

// TimelineBucket groups anomaly scores into a fixed-granularity window.
type TimelineBucket struct {
	Start    time.Time        `json:"start"`
	Count    int              `json:"count"`
	MaxScore float64          `json:"maxScore"`
	Counts   map[Severity]int `json:"counts"`
}

// CorrelationResult quantifies the relationship between two metric series.
type CorrelationResult struct {
	Metric1      string  `json:"metric1"`
	Metric2      string  `json:"metric2"`
	Pearson      float64 `json:"pearson"`
	Spearman     float64 `json:"spearman"`
	Strength     string  `json:"strength"`
	Significance float64 `json:"significance"`
}

// Features are the three normalized inputs to severity classification.
type Features struct {
	CorrelationScore float64 `json:"correlationScore"`
	AnomalyScore     float64 `json:"anomalyScore"`
	TrendDirection   float64 `json:"trendDirection"`
}

// SeverityClassification is the composite verdict produced from Features.
// Reasoning is advisory display text; callers must never parse it as a
// control signal.
type SeverityClassification struct {
	Severity          Severity `json:"severity"`
	Confidence        float64  `json:"confidence"`
	RecommendedAction string   `json:"recommendedAction"`
	Reasoning         []string `json:"reasoning"`
}
