// Package pipeline orchestrates one evaluation pass over a metric window:
// snapshot, anomaly detection, correlation, trend deviation, severity
// classification, and, above the configured floor, a remediation decision.
package pipeline

import (
	"context"
	"log/slog"
	"math"

	"github.com/pulsestack/pulse-aiops/internal/classifier"
	"github.com/pulsestack/pulse-aiops/internal/correlation"
	"github.com/pulsestack/pulse-aiops/internal/detector"
	"github.com/pulsestack/pulse-aiops/internal/models"
	"github.com/pulsestack/pulse-aiops/internal/remediation"
	"github.com/pulsestack/pulse-aiops/internal/window"
)

// DefaultTrendWindow is the trailing-window size for trend deviation.
const DefaultTrendWindow = 5

// EvaluateRequest identifies the window and metric names for one pass.
// Count 0 means the whole window; TrendWindow 0 uses the default.
type EvaluateRequest struct {
	Key         string `json:"key"`
	Metric1     string `json:"metric1"`
	Metric2     string `json:"metric2"`
	Count       int    `json:"count"`
	TrendWindow int    `json:"trend_window"`
}

// Verdict is the complete result of one evaluation pass. A verdict is
// always produced; thin or empty windows degrade to a low-severity
// verdict instead of failing.
type Verdict struct {
	Key            string                        `json:"key"`
	Samples        int                           `json:"samples"`
	Scores         []models.AnomalyScore         `json:"scores"`
	Aggregate      models.AnomalyAggregate       `json:"aggregate"`
	Correlation    models.CorrelationResult      `json:"correlation"`
	Trend          models.TrendDeviation         `json:"trend"`
	Classification models.SeverityClassification `json:"classification"`
	Remediation    *models.RemediationEvent      `json:"remediation,omitempty"`
}

// Pipeline wires the stateless stages around the shared window store and
// audit ledger. All dependencies are injected; nothing here is global.
type Pipeline struct {
	logger           *slog.Logger
	windows          *window.Store
	correlator       *correlation.Engine
	remediator       *remediation.Remediator
	remediationFloor models.Severity
	trendWindow      int
}

// Option customizes a Pipeline.
type Option func(*Pipeline)

// WithRemediationFloor sets the minimum severity that triggers a
// remediation decision. Default is high.
func WithRemediationFloor(floor models.Severity) Option {
	return func(p *Pipeline) { p.remediationFloor = floor }
}

// WithTrendWindow sets the trend window used when a request does not
// specify one.
func WithTrendWindow(size int) Option {
	return func(p *Pipeline) {
		if size > 0 {
			p.trendWindow = size
		}
	}
}

func New(logger *slog.Logger, windows *window.Store, correlator *correlation.Engine, remediator *remediation.Remediator, opts ...Option) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	p := &Pipeline{
		logger:           logger,
		windows:          windows,
		correlator:       correlator,
		remediator:       remediator,
		remediationFloor: models.SeverityHigh,
		trendWindow:      DefaultTrendWindow,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Evaluate runs one full pass for a window key. Storage failures reading
// the window are surfaced; statistical edge cases degrade inside the
// stages and still yield a verdict.
func (p *Pipeline) Evaluate(ctx context.Context, req EvaluateRequest) (Verdict, error) {
	if req.TrendWindow <= 0 {
		req.TrendWindow = p.trendWindow
	}
	if req.Metric1 == "" {
		req.Metric1 = req.Key + ":a"
	}
	if req.Metric2 == "" {
		req.Metric2 = req.Key + ":b"
	}

	samples, err := p.windows.Snapshot(ctx, req.Key, req.Count)
	if err != nil {
		return Verdict{}, err
	}

	verdict := Verdict{Key: req.Key, Samples: len(samples)}
	if len(samples) == 0 {
		verdict.Trend = models.TrendDeviation{Trend: models.TrendStable, WindowSize: req.TrendWindow}
		verdict.Classification = classifier.ClassifySeverity(degradedFeatures())
		p.logger.Debug("empty window, degraded verdict", "key", req.Key)
		return verdict, nil
	}

	a, b, timestamps := window.Series(samples)

	scores, err := detector.DetectAnomalies(req.Metric1, a, timestamps)
	if err != nil {
		return Verdict{}, err
	}
	verdict.Scores = scores
	verdict.Aggregate = detector.AggregateScores(scores)

	verdict.Correlation = p.correlator.Calculate(req.Metric1, req.Metric2, a, b)

	trend, err := detector.DetectTrendDeviation(a, timestamps, req.TrendWindow)
	if err != nil {
		return Verdict{}, err
	}
	verdict.Trend = trend

	features := models.Features{
		CorrelationScore: math.Abs(verdict.Correlation.Pearson),
		AnomalyScore:     verdict.Aggregate.AggregatedScore,
		TrendDirection:   trendDirection(trend),
	}
	verdict.Classification = classifier.ClassifySeverity(features)
	verdict.Classification.RecommendedAction = remediation.SuggestAction(req.Metric1, verdict.Classification.Severity)

	if p.remediator != nil && verdict.Classification.Severity.Rank() >= p.remediationFloor.Rank() {
		event, err := p.remediator.Execute(ctx, req.Metric1, verdict.Classification.Severity)
		if err != nil {
			return Verdict{}, err
		}
		verdict.Remediation = &event
	}

	p.logger.Info("evaluation complete",
		"key", req.Key,
		"samples", verdict.Samples,
		"severity", verdict.Classification.Severity,
		"confidence", verdict.Classification.Confidence,
		"remediated", verdict.Remediation != nil)
	return verdict, nil
}

// trendDirection maps a trend deviation onto the [0,1] feature scale:
// 0.5 is stable, above is rising, below is falling.
func trendDirection(trend models.TrendDeviation) float64 {
	d := 0.5 + trend.Deviation
	switch {
	case d < 0:
		return 0
	case d > 1:
		return 1
	default:
		return d
	}
}

// degradedFeatures is the all-midpoint feature set used when no data is
// available: it classifies low with floor confidence.
func degradedFeatures() models.Features {
	return models.Features{CorrelationScore: 0, AnomalyScore: 0, TrendDirection: 0.5}
}
