package bus

import (
	"context"
	"testing"

	"github.com/nats-io/nats.go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pulsestack/pulse-aiops/internal/models"
	"github.com/pulsestack/pulse-aiops/internal/pipeline"
	"github.com/pulsestack/pulse-aiops/internal/service"
)

type recordingIngestor struct {
	requests  []service.IngestRequest
	evaluated []pipeline.EvaluateRequest
	err       error
}

func (r *recordingIngestor) Ingest(ctx context.Context, req service.IngestRequest) error {
	if r.err != nil {
		return r.err
	}
	r.requests = append(r.requests, req)
	return nil
}

func (r *recordingIngestor) Evaluate(ctx context.Context, req pipeline.EvaluateRequest) (pipeline.Verdict, error) {
	if r.err != nil {
		return pipeline.Verdict{}, r.err
	}
	r.evaluated = append(r.evaluated, req)
	return pipeline.Verdict{
		Key:            req.Key,
		Classification: models.SeverityClassification{Severity: models.SeverityLow, Confidence: 0.5},
	}, nil
}

func TestHandleSampleDecodesPayload(t *testing.T) {
	ingestor := &recordingIngestor{}
	consumer := NewConsumer(nil, ingestor, nil, "", nil)

	consumer.handleSample(context.Background(), &nats.Msg{
		Subject: "aiops.samples.checkout",
		Data:    []byte(`{"metric_a": 71.5, "metric_b": 230, "timestamp_ms": 1748800000000}`),
	})

	require.Len(t, ingestor.requests, 1)
	req := ingestor.requests[0]
	assert.Equal(t, "checkout", req.Key, "key falls back to the subject suffix")
	assert.Equal(t, 71.5, req.MetricA)
	assert.Equal(t, 230.0, req.MetricB)
	assert.Equal(t, int64(1748800000000), req.TimestampMs)
}

func TestHandleSampleExplicitKeyWins(t *testing.T) {
	ingestor := &recordingIngestor{}
	consumer := NewConsumer(nil, ingestor, nil, "", nil)

	consumer.handleSample(context.Background(), &nats.Msg{
		Subject: "aiops.samples.checkout",
		Data:    []byte(`{"key": "payments", "metric_a": 1, "metric_b": 2}`),
	})

	require.Len(t, ingestor.requests, 1)
	assert.Equal(t, "payments", ingestor.requests[0].Key)
}

func TestHandleSampleDropsMalformedPayload(t *testing.T) {
	ingestor := &recordingIngestor{}
	consumer := NewConsumer(nil, ingestor, nil, "", nil)

	consumer.handleSample(context.Background(), &nats.Msg{
		Subject: "aiops.samples.checkout",
		Data:    []byte(`{not json`),
	})

	assert.Empty(t, ingestor.requests)
}

func TestHandleSampleIngestErrorDoesNotPanic(t *testing.T) {
	ingestor := &recordingIngestor{err: assert.AnError}
	consumer := NewConsumer(nil, ingestor, nil, "", nil)

	assert.NotPanics(t, func() {
		consumer.handleSample(context.Background(), &nats.Msg{
			Subject: "aiops.samples.checkout",
			Data:    []byte(`{"metric_a": 1, "metric_b": 2}`),
		})
	})
}

func TestHandleEvaluateEmptyBodyUsesSubjectKey(t *testing.T) {
	ingestor := &recordingIngestor{}
	consumer := NewConsumer(nil, ingestor, nil, "", nil)

	consumer.handleEvaluate(context.Background(), &nats.Msg{
		Subject: "aiops.evaluate.checkout",
	})

	require.Len(t, ingestor.evaluated, 1)
	assert.Equal(t, "checkout", ingestor.evaluated[0].Key)
}

func TestHandleEvaluateDecodesRequestBody(t *testing.T) {
	ingestor := &recordingIngestor{}
	consumer := NewConsumer(nil, ingestor, nil, "", nil)

	consumer.handleEvaluate(context.Background(), &nats.Msg{
		Subject: "aiops.evaluate.checkout",
		Data:    []byte(`{"metric1": "cpu_usage", "metric2": "response_time", "count": 50}`),
	})

	require.Len(t, ingestor.evaluated, 1)
	req := ingestor.evaluated[0]
	assert.Equal(t, "checkout", req.Key)
	assert.Equal(t, "cpu_usage", req.Metric1)
	assert.Equal(t, 50, req.Count)
}

func TestHandleEvaluateFailureDoesNotPanic(t *testing.T) {
	ingestor := &recordingIngestor{err: assert.AnError}
	consumer := NewConsumer(nil, ingestor, nil, "", nil)

	assert.NotPanics(t, func() {
		consumer.handleEvaluate(context.Background(), &nats.Msg{Subject: "aiops.evaluate.checkout"})
	})
}

func TestKeyFromSubjectKeepsDeeperTokens(t *testing.T) {
	assert.Equal(t, "checkout", keyFromSubject("aiops.samples.checkout", SampleSubjectPrefix))
	assert.Equal(t, "checkout.cpu", keyFromSubject("aiops.samples.checkout.cpu", SampleSubjectPrefix))
}

func TestNilAlertPublisherIsSafe(t *testing.T) {
	var p *AlertPublisher
	assert.NotPanics(t, func() { p.Publish(pipeline.Verdict{Key: "k"}) })
}
