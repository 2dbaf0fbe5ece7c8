// Package service is the facade the transport layer talks to. It wraps
// the pipeline and the shared stores with instrumentation and keeps the
// callers free of wiring concerns.
package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/pulsestack/pulse-aiops/internal/feedback"
	"github.com/pulsestack/pulse-aiops/internal/metrics"
	"github.com/pulsestack/pulse-aiops/internal/models"
	"github.com/pulsestack/pulse-aiops/internal/patterns"
	"github.com/pulsestack/pulse-aiops/internal/pipeline"
	"github.com/pulsestack/pulse-aiops/internal/remediation"
	"github.com/pulsestack/pulse-aiops/internal/utils"
	"github.com/pulsestack/pulse-aiops/internal/window"
)

// IngestRequest is one raw sample pushed into a window.
type IngestRequest struct {
	Key         string  `json:"key"`
	MetricA     float64 `json:"metric_a"`
	MetricB     float64 `json:"metric_b"`
	TimestampMs int64   `json:"timestamp_ms"`
}

// AIOpsService exposes the pipeline operations to transports.
type AIOpsService struct {
	logger     *slog.Logger
	windows    *window.Store
	pipeline   *pipeline.Pipeline
	remediator *remediation.Remediator
	ledger     *remediation.Ledger
	feedback   *feedback.Store
	miner      *patterns.Miner
	latencies  *utils.LatencyTracker
}

func NewAIOpsService(
	logger *slog.Logger,
	windows *window.Store,
	pipe *pipeline.Pipeline,
	remediator *remediation.Remediator,
	ledger *remediation.Ledger,
	feedbackStore *feedback.Store,
) *AIOpsService {
	if logger == nil {
		logger = slog.Default()
	}
	return &AIOpsService{
		logger:     logger,
		windows:    windows,
		pipeline:   pipe,
		remediator: remediator,
		ledger:     ledger,
		feedback:   feedbackStore,
		miner:      patterns.NewMiner(logger),
		latencies:  utils.NewLatencyTracker(1024),
	}
}

// Ingest appends one sample to the window identified by the request key.
func (s *AIOpsService) Ingest(ctx context.Context, req IngestRequest) error {
	var stamp time.Time
	if req.TimestampMs > 0 {
		stamp = utils.MsToTime(req.TimestampMs)
	}
	if err := s.windows.Append(ctx, req.Key, req.MetricA, req.MetricB, stamp); err != nil {
		metrics.CountSampleDropped()
		return err
	}
	metrics.CountSampleIngested()
	return nil
}

// Evaluate runs one pipeline pass and records latency and outcome.
func (s *AIOpsService) Evaluate(ctx context.Context, req pipeline.EvaluateRequest) (pipeline.Verdict, error) {
	start := time.Now()
	verdict, err := s.pipeline.Evaluate(ctx, req)
	duration := time.Since(start)
	if err != nil {
		metrics.ObserveEvaluation(duration, metrics.OutcomeError)
		s.logger.Error("evaluation failed", slog.String("key", req.Key), slog.Any("error", err))
		return pipeline.Verdict{}, err
	}

	s.latencies.Observe(duration)
	metrics.ObserveEvaluation(duration, metrics.OutcomeSuccess)
	if verdict.Remediation != nil {
		metrics.CountRemediation(string(verdict.Remediation.Status))
	}
	if count := s.latencies.Count(); count >= 20 && count%20 == 0 {
		s.logger.Info("evaluation latency", slog.Duration("p95", s.latencies.P95()), slog.Int("samples", count))
	}
	return verdict, nil
}

// Remediate makes a standalone remediation decision outside a pipeline
// pass, for callers that classified elsewhere.
func (s *AIOpsService) Remediate(ctx context.Context, metric string, severity models.Severity) (models.RemediationEvent, error) {
	event, err := s.remediator.Execute(ctx, metric, severity)
	if err != nil {
		return models.RemediationEvent{}, err
	}
	metrics.CountRemediation(string(event.Status))
	return event, nil
}

// Replay returns the audit ledger in append order.
func (s *AIOpsService) Replay(ctx context.Context, filter *models.ReplayFilter) ([]models.RemediationEvent, error) {
	return s.ledger.Replay(ctx, filter)
}

// SubmitFeedback persists a human verdict.
func (s *AIOpsService) SubmitFeedback(ctx context.Context, entry models.FeedbackEntry) error {
	return s.feedback.Save(ctx, entry)
}

// ListFeedback returns all feedback entries in append order.
func (s *AIOpsService) ListFeedback(ctx context.Context) ([]models.FeedbackEntry, error) {
	return s.feedback.List(ctx)
}

// ClearFeedback deletes all feedback entries and returns the count.
func (s *AIOpsService) ClearFeedback(ctx context.Context) (int64, error) {
	return s.feedback.Clear(ctx)
}

// Patterns mines recurring incident patterns from the audit ledger,
// cross-referenced with operator feedback.
func (s *AIOpsService) Patterns(ctx context.Context) ([]patterns.IncidentPattern, error) {
	events, err := s.ledger.Replay(ctx, nil)
	if err != nil {
		return nil, err
	}
	entries, err := s.feedback.List(ctx)
	if err != nil {
		return nil, err
	}
	return s.miner.Mine(events, entries), nil
}

// LatencyP95 returns the current p95 evaluation latency.
func (s *AIOpsService) LatencyP95() time.Duration {
	return s.latencies.P95()
}
