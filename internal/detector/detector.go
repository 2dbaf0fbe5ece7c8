// Package detector converts batches of metric observations into per-point
// anomaly scores, percentile gates, and trend-deviation summaries. Every
// function here is a pure computation over its inputs; recomputing from
// the same batch yields bit-identical results.
package detector

import (
	"fmt"
	"math"
	"sort"

	"github.com/pulsestack/pulse-aiops/internal/models"
	"github.com/pulsestack/pulse-aiops/internal/utils"
)

// Severity cutoffs on the z-score scale. Monotonic by construction;
// a point is flagged anomalous from ScoreMedium upward.
const (
	ScoreCritical = 3.0
	ScoreHigh     = 2.5
	ScoreMedium   = 2.0
)

// Trend bands as fractional deviation between window averages.
const (
	TrendBand        = 0.05
	SignificanceBand = 0.10
)

// minBaseline is the number of clean points required before a point can
// be scored against the running baseline.
const minBaseline = 2

// DetectAnomalies scores every point of one metric batch with a z-score
// against the running baseline of earlier points, using the population
// standard deviation. Points flagged anomalous are withheld from the
// baseline so a spike does not mask the points that follow it. A constant
// series has no anomalies: every point scores 0.
func DetectAnomalies(metric string, values []float64, timestamps []int64) ([]models.AnomalyScore, error) {
	if len(values) == 0 {
		return nil, utils.NewValidationError("detector.detect", "values must not be empty")
	}
	if len(values) != len(timestamps) {
		return nil, utils.NewValidationError("detector.detect",
			fmt.Sprintf("values/timestamps length mismatch: %d vs %d", len(values), len(timestamps)))
	}
	for i, v := range values {
		if !utils.IsFinite(v) {
			return nil, utils.NewValidationError("detector.detect",
				fmt.Sprintf("non-finite value at index %d", i))
		}
	}

	snapshot := Percentiles(values)

	scores := make([]models.AnomalyScore, 0, len(values))
	baseline := make([]float64, 0, len(values))
	for i, v := range values {
		score := 0.0
		deviation := 0.0
		if len(baseline) >= minBaseline {
			bm := mean(baseline)
			bsd := stdDev(baseline, bm)
			deviation = v - bm
			switch {
			case bsd > 0:
				score = math.Abs(deviation) / bsd
			case deviation != 0:
				// Flat baseline, deviating point: off the scale.
				score = ScoreCritical
			}
		}
		isAnomaly := score >= ScoreMedium
		scores = append(scores, models.AnomalyScore{
			Index:      i,
			Value:      v,
			Score:      score,
			Severity:   SeverityFromScore(score),
			Deviation:  deviation,
			Percentile: percentileLabel(v, snapshot),
			IsAnomaly:  isAnomaly,
			Timestamp:  timestamps[i],
		})
		if !isAnomaly {
			baseline = append(baseline, v)
		}
	}
	return scores, nil
}

// SeverityFromScore maps a z-score onto the severity ladder.
func SeverityFromScore(score float64) models.Severity {
	switch {
	case score >= ScoreCritical:
		return models.SeverityCritical
	case score >= ScoreHigh:
		return models.SeverityHigh
	case score >= ScoreMedium:
		return models.SeverityMedium
	default:
		return models.SeverityLow
	}
}

// Percentiles computes the p50..p99 snapshot of a batch using linear
// interpolation between closest ranks. Empty input yields a zero snapshot.
func Percentiles(values []float64) models.PercentileSnapshot {
	if len(values) == 0 {
		return models.PercentileSnapshot{}
	}
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)
	return models.PercentileSnapshot{
		P50: percentile(sorted, 50),
		P75: percentile(sorted, 75),
		P90: percentile(sorted, 90),
		P95: percentile(sorted, 95),
		P99: percentile(sorted, 99),
	}
}

// DetectP95Anomaly evaluates the latest point of a batch against the
// batch p95. A batch of fewer than 2 points returns a nil result (and the
// snapshot) rather than an error: insufficient data is not a failure.
func DetectP95Anomaly(values []float64, timestamps []int64) (*models.PercentileAnomaly, models.PercentileSnapshot) {
	return detectPercentileAnomaly(values, timestamps, 95, "p95")
}

// DetectP99Anomaly is DetectP95Anomaly at the p99 threshold.
func DetectP99Anomaly(values []float64, timestamps []int64) (*models.PercentileAnomaly, models.PercentileSnapshot) {
	return detectPercentileAnomaly(values, timestamps, 99, "p99")
}

func detectPercentileAnomaly(values []float64, timestamps []int64, pct float64, label string) (*models.PercentileAnomaly, models.PercentileSnapshot) {
	snapshot := Percentiles(values)
	if len(values) < 2 || len(values) != len(timestamps) {
		return nil, snapshot
	}

	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)
	threshold := percentile(sorted, pct)

	last := values[len(values)-1]
	return &models.PercentileAnomaly{
		Value:      last,
		Threshold:  threshold,
		Percentile: label,
		IsAnomaly:  last > threshold,
		Timestamp:  timestamps[len(timestamps)-1],
	}, snapshot
}

// DetectTrendDeviation compares the trailing window average against the
// immediately preceding window of equal size. Too little data degrades to
// a stable, insignificant result rather than failing.
func DetectTrendDeviation(values []float64, timestamps []int64, windowSize int) (models.TrendDeviation, error) {
	if len(values) != len(timestamps) {
		return models.TrendDeviation{}, utils.NewValidationError("detector.trend",
			fmt.Sprintf("values/timestamps length mismatch: %d vs %d", len(values), len(timestamps)))
	}
	if windowSize <= 0 {
		return models.TrendDeviation{}, utils.NewValidationError("detector.trend", "windowSize must be positive")
	}

	result := models.TrendDeviation{
		Trend:      models.TrendStable,
		WindowSize: windowSize,
	}
	if len(values) > 0 {
		result.LastValue = values[len(values)-1]
	}
	if len(values) < windowSize*2 {
		return result, nil
	}

	trailing := values[len(values)-windowSize:]
	preceding := values[len(values)-windowSize*2 : len(values)-windowSize]

	trailingAvg := mean(trailing)
	precedingAvg := mean(preceding)

	result.Average = precedingAvg
	result.LastValue = trailingAvg

	if precedingAvg == 0 {
		// Deviation is undefined against a zero baseline.
		return result, nil
	}

	deviation := (trailingAvg - precedingAvg) / precedingAvg
	result.Deviation = deviation
	result.IsSignificant = math.Abs(deviation) > SignificanceBand

	switch {
	case deviation > TrendBand:
		result.Trend = models.TrendIncreasing
	case deviation < -TrendBand:
		result.Trend = models.TrendDecreasing
	default:
		result.Trend = models.TrendStable
	}
	return result, nil
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// stdDev is the population (uncorrected) standard deviation.
func stdDev(values []float64, m float64) float64 {
	if len(values) == 0 {
		return 0
	}
	variance := 0.0
	for _, v := range values {
		variance += (v - m) * (v - m)
	}
	variance /= float64(len(values))
	return math.Sqrt(variance)
}

// percentile interpolates linearly between closest ranks of a sorted slice.
func percentile(sorted []float64, p float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	if len(sorted) == 1 {
		return sorted[0]
	}
	rank := (p / 100.0) * float64(len(sorted)-1)
	lower := int(math.Floor(rank))
	upper := int(math.Ceil(rank))
	if lower == upper {
		return sorted[lower]
	}
	frac := rank - float64(lower)
	return sorted[lower] + (sorted[upper]-sorted[lower])*frac
}

func percentileLabel(v float64, snapshot models.PercentileSnapshot) string {
	switch {
	case v >= snapshot.P99:
		return "p99"
	case v >= snapshot.P95:
		return "p95"
	case v >= snapshot.P90:
		return "p90"
	case v >= snapshot.P75:
		return "p75"
	case v >= snapshot.P50:
		return "p50"
	default:
		return "<p50"
	}
}
