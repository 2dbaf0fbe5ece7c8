// Package classifier fuses normalized correlation, anomaly, and trend
// features into a severity verdict with a confidence score. Everything
// here is a pure function: no state, no I/O, recomputation from the same
// features yields the same verdict.
package classifier

import (
	"fmt"
	"math"
	"sort"

	"github.com/pulsestack/pulse-aiops/internal/models"
)

// Composite-score feature weights. Trend direction enters inverted: a
// flat or falling trend alongside high correlation and anomaly scores
// reinforces risk rather than discounting it, so low trendDirection
// raises the composite. Getting this backwards flips the verdict.
const (
	WeightCorrelation = 0.4
	WeightAnomaly     = 0.4
	WeightTrend       = 0.2
)

// Composite cutoffs for the severity ladder.
const (
	CutoffCritical = 0.85
	CutoffHigh     = 0.65
	CutoffMedium   = 0.45
)

// ConfidenceFloor is the minimum confidence ever reported. A verdict is
// always produced, never withheld, so confidence never signals "no idea".
const ConfidenceFloor = 0.5

// ClassifySeverity derives a severity verdict from the three features.
// Features are clamped to [0,1] before weighting. The recommended action
// is left empty for the caller to fill from the remediation table.
func ClassifySeverity(features models.Features) models.SeverityClassification {
	c := clamp01(features.CorrelationScore)
	a := clamp01(features.AnomalyScore)
	t := clamp01(features.TrendDirection)

	composite := WeightCorrelation*c + WeightAnomaly*a + WeightTrend*(1-t)

	var severity models.Severity
	switch {
	case composite >= CutoffCritical:
		severity = models.SeverityCritical
	case composite >= CutoffHigh:
		severity = models.SeverityHigh
	case composite >= CutoffMedium:
		severity = models.SeverityMedium
	default:
		severity = models.SeverityLow
	}

	reasoning := []string{
		fmt.Sprintf("composite score %.3f from correlation=%.2f anomaly=%.2f trend=%.2f", composite, c, a, t),
		fmt.Sprintf("correlation contributes %.3f at weight %.1f", WeightCorrelation*c, WeightCorrelation),
		fmt.Sprintf("anomaly contributes %.3f at weight %.1f", WeightAnomaly*a, WeightAnomaly),
		fmt.Sprintf("inverted trend contributes %.3f at weight %.1f", WeightTrend*(1-t), WeightTrend),
	}

	return models.SeverityClassification{
		Severity:   severity,
		Confidence: CalculateConfidence(features),
		Reasoning:  reasoning,
	}
}

// CalculateConfidence starts at the floor and grows with the most
// decisive feature: the farther any feature sits from the 0.5 midpoint,
// the more confident the verdict. Result is clamped to [0.5, 1.0].
func CalculateConfidence(features models.Features) float64 {
	extremity := math.Max(
		midpointDistance(features.CorrelationScore),
		math.Max(
			midpointDistance(features.AnomalyScore),
			midpointDistance(features.TrendDirection),
		),
	)

	confidence := ConfidenceFloor + (1-ConfidenceFloor)*extremity
	if confidence > 1 {
		return 1
	}
	if confidence < ConfidenceFloor {
		return ConfidenceFloor
	}
	return confidence
}

// PrioritizeActions orders candidate actions by descending priority.
// The sort is stable: equal priorities keep their input order.
func PrioritizeActions(actions []models.CandidateAction) []models.CandidateAction {
	ordered := append([]models.CandidateAction(nil), actions...)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Priority > ordered[j].Priority
	})
	return ordered
}

// midpointDistance maps a [0,1] feature onto [0,1] extremity, where 0 is
// the undecided midpoint and 1 is either extreme.
func midpointDistance(f float64) float64 {
	return clamp01(math.Abs(clamp01(f)-0.5) * 2)
}

func clamp01(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}
