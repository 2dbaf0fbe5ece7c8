// Package bus connects the pipeline to NATS: samples flow in on the
// ingest subjects, alert verdicts flow out on the alert subject.
package bus

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"

	"github.com/nats-io/nats.go"

	"github.com/pulsestack/pulse-aiops/internal/metrics"
	"github.com/pulsestack/pulse-aiops/internal/pipeline"
	"github.com/pulsestack/pulse-aiops/internal/service"
)

const (
	// SampleSubjectPrefix is the wildcard root of the ingest subjects.
	// The token after the prefix is the window key.
	SampleSubjectPrefix = "aiops.samples."
	sampleSubject       = SampleSubjectPrefix + ">"

	// EvaluateSubjectPrefix is the wildcard root of the evaluation
	// triggers. Periodic re-computation is driven by external
	// schedulers publishing here; the engine owns no timer of its own.
	EvaluateSubjectPrefix = "aiops.evaluate."
	evaluateSubject       = EvaluateSubjectPrefix + ">"

	// DefaultQueue is the queue group shared by engine instances so each
	// sample is delivered once.
	DefaultQueue = "aiops-engine"
)

// Ingestor is the service-side contract the consumer feeds.
type Ingestor interface {
	Ingest(ctx context.Context, req service.IngestRequest) error
	Evaluate(ctx context.Context, req pipeline.EvaluateRequest) (pipeline.Verdict, error)
}

// Consumer subscribes to the sample and evaluation subjects. Samples are
// appended to the window store; evaluation triggers run a pipeline pass
// and publish the verdict on the alert subject. Malformed payloads are
// counted and dropped; they never stall the subscriptions.
type Consumer struct {
	nc       *nats.Conn
	ingestor Ingestor
	alerts   *AlertPublisher
	logger   *slog.Logger
	queue    string
}

func NewConsumer(nc *nats.Conn, ingestor Ingestor, alerts *AlertPublisher, queue string, logger *slog.Logger) *Consumer {
	if logger == nil {
		logger = slog.Default()
	}
	if queue == "" {
		queue = DefaultQueue
	}
	return &Consumer{nc: nc, ingestor: ingestor, alerts: alerts, logger: logger, queue: queue}
}

// Run subscribes and blocks until the context is cancelled, then drains
// both subscriptions so in-flight messages are not lost.
func (c *Consumer) Run(ctx context.Context) error {
	samples, err := c.nc.QueueSubscribe(sampleSubject, c.queue, func(msg *nats.Msg) {
		c.handleSample(ctx, msg)
	})
	if err != nil {
		return err
	}
	c.logger.Info("subscribed to sample subjects", "subject", sampleSubject, "queue", c.queue)

	evaluations, err := c.nc.QueueSubscribe(evaluateSubject, c.queue, func(msg *nats.Msg) {
		c.handleEvaluate(ctx, msg)
	})
	if err != nil {
		samples.Unsubscribe()
		return err
	}
	c.logger.Info("subscribed to evaluation subjects", "subject", evaluateSubject, "queue", c.queue)

	<-ctx.Done()

	var drainErr error
	for _, sub := range []*nats.Subscription{samples, evaluations} {
		if err := sub.Drain(); err != nil {
			c.logger.Error("drain failed", "subject", sub.Subject, "error", err)
			drainErr = err
		}
	}
	if drainErr != nil {
		return drainErr
	}
	c.logger.Info("subscriptions drained")
	return nil
}

func (c *Consumer) handleSample(ctx context.Context, msg *nats.Msg) {
	var req service.IngestRequest
	if err := json.Unmarshal(msg.Data, &req); err != nil {
		metrics.CountSampleDropped()
		c.logger.Warn("dropping malformed sample payload", "subject", msg.Subject, "error", err)
		return
	}
	if req.Key == "" {
		req.Key = keyFromSubject(msg.Subject, SampleSubjectPrefix)
	}

	if err := c.ingestor.Ingest(ctx, req); err != nil {
		c.logger.Warn("sample rejected", "subject", msg.Subject, "key", req.Key, "error", err)
	}
}

func (c *Consumer) handleEvaluate(ctx context.Context, msg *nats.Msg) {
	var req pipeline.EvaluateRequest
	if len(msg.Data) > 0 {
		if err := json.Unmarshal(msg.Data, &req); err != nil {
			c.logger.Warn("dropping malformed evaluation trigger", "subject", msg.Subject, "error", err)
			return
		}
	}
	if req.Key == "" {
		req.Key = keyFromSubject(msg.Subject, EvaluateSubjectPrefix)
	}

	verdict, err := c.ingestor.Evaluate(ctx, req)
	if err != nil {
		c.logger.Warn("evaluation trigger failed", "subject", msg.Subject, "key", req.Key, "error", err)
		return
	}
	c.alerts.Publish(verdict)
}

// keyFromSubject extracts the window key from a subject. Deeper subject
// tokens are kept as part of the key.
func keyFromSubject(subject, prefix string) string {
	return strings.TrimPrefix(subject, prefix)
}
