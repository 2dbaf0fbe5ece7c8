package correlation

import (
	"log/slog"
	"math"

	"github.com/pulsestack/pulse-aiops/internal/models"
)

// Strength buckets over |pearson|.
const (
	StrengthWeakBelow     = 0.3
	StrengthModerateBelow = 0.7
)

// Recorder receives correlation observations. Implementations must not
// block; a nil Recorder disables the side channel entirely.
type Recorder interface {
	SetCorrelationScore(kind string, value float64)
	SetAnomalyRate(rate float64)
}

// Engine wraps the pure correlation statistics with result assembly and
// a best-effort metrics side channel.
type Engine struct {
	recorder Recorder
	logger   *slog.Logger
}

func NewEngine(recorder Recorder, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{recorder: recorder, logger: logger}
}

// Calculate correlates two aligned series and classifies the strength of
// the relationship. It never fails: undefined statistics degrade to zero
// coefficients and a weak result. Gauge updates are best effort and
// cannot affect the returned result.
func (e *Engine) Calculate(metric1, metric2 string, x, y []float64) models.CorrelationResult {
	pearson := Pearson(x, y)
	spearman := Spearman(x, y)

	result := models.CorrelationResult{
		Metric1:      metric1,
		Metric2:      metric2,
		Pearson:      pearson,
		Spearman:     spearman,
		Strength:     StrengthLabel(pearson),
		Significance: significance(pearson, spearman),
	}

	if e.recorder != nil {
		rate := AnomalyRate(AnomalyFlags(y, DefaultFlagThreshold))
		e.recorder.SetCorrelationScore("pearson", pearson)
		e.recorder.SetCorrelationScore("spearman", spearman)
		e.recorder.SetAnomalyRate(rate)
	}

	e.logger.Debug("correlation computed",
		"metric1", metric1,
		"metric2", metric2,
		"pearson", pearson,
		"spearman", spearman,
		"strength", result.Strength)

	return result
}

// StrengthLabel buckets an absolute Pearson coefficient.
func StrengthLabel(pearson float64) string {
	abs := math.Abs(pearson)
	switch {
	case abs < StrengthWeakBelow:
		return "weak"
	case abs < StrengthModerateBelow:
		return "moderate"
	default:
		return "strong"
	}
}

// significance reports how strongly the two estimators agree: the smaller
// of the two absolute coefficients. Monotone correlation confirmed by both
// the linear and the rank statistic scores high; disagreement pulls the
// value toward zero.
func significance(pearson, spearman float64) float64 {
	return math.Min(math.Abs(pearson), math.Abs(spearman))
}
