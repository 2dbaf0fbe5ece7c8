package remediation

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pulsestack/pulse-aiops/internal/models"
	"github.com/pulsestack/pulse-aiops/internal/store"
)

func testEvent(metric string, severity models.Severity, seq int64) models.RemediationEvent {
	return models.RemediationEvent{
		ID:        "evt-" + metric,
		Timestamp: seq,
		Metric:    metric,
		Action:    "scale out service",
		Severity:  severity,
		Status:    models.RemediationExecuted,
		Sequence:  seq,
	}
}

func TestLedgerReplayPreservesAppendOrder(t *testing.T) {
	ledger := NewLedger(store.NewMemoryProvider(), nil)
	ctx := context.Background()

	require.NoError(t, ledger.Record(ctx, testEvent("cpu", models.SeverityHigh, 1)))
	require.NoError(t, ledger.Record(ctx, testEvent("memory", models.SeverityCritical, 2)))
	require.NoError(t, ledger.Record(ctx, testEvent("cpu", models.SeverityLow, 3)))

	events, err := ledger.Replay(ctx, nil)
	require.NoError(t, err)
	require.Len(t, events, 3)
	assert.Equal(t, int64(1), events[0].Sequence)
	assert.Equal(t, int64(2), events[1].Sequence)
	assert.Equal(t, int64(3), events[2].Sequence)
}

func TestLedgerReplayIdempotent(t *testing.T) {
	ledger := NewLedger(store.NewMemoryProvider(), nil)
	ctx := context.Background()

	require.NoError(t, ledger.Record(ctx, testEvent("cpu", models.SeverityHigh, 1)))
	require.NoError(t, ledger.Record(ctx, testEvent("memory", models.SeverityLow, 2)))

	first, err := ledger.Replay(ctx, nil)
	require.NoError(t, err)
	second, err := ledger.Replay(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, first, second, "replay with no intervening append is stable")
}

func TestLedgerReplayFilter(t *testing.T) {
	ledger := NewLedger(store.NewMemoryProvider(), nil)
	ctx := context.Background()

	require.NoError(t, ledger.Record(ctx, testEvent("cpu", models.SeverityHigh, 1)))
	require.NoError(t, ledger.Record(ctx, testEvent("memory", models.SeverityCritical, 2)))
	require.NoError(t, ledger.Record(ctx, testEvent("cpu", models.SeverityCritical, 3)))

	events, err := ledger.Replay(ctx, &models.ReplayFilter{Metric: "cpu"})
	require.NoError(t, err)
	require.Len(t, events, 2)

	events, err = ledger.Replay(ctx, &models.ReplayFilter{Metric: "cpu", Severity: models.SeverityCritical})
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, int64(3), events[0].Sequence)
}

func TestLedgerReplayEmpty(t *testing.T) {
	ledger := NewLedger(store.NewMemoryProvider(), nil)

	events, err := ledger.Replay(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, events)
}

type failingProvider struct {
	store.Provider
}

func (f failingProvider) RPush(ctx context.Context, key string, values ...[]byte) (int64, error) {
	return 0, assert.AnError
}

func TestLedgerRecordSurfacesStorageFailure(t *testing.T) {
	ledger := NewLedger(failingProvider{store.NewMemoryProvider()}, nil)

	err := ledger.Record(context.Background(), testEvent("cpu", models.SeverityHigh, 1))
	require.Error(t, err)
}

func TestRemediatorExecuteRecordsDecision(t *testing.T) {
	provider := store.NewMemoryProvider()
	ledger := NewLedger(provider, nil)
	remediator := NewRemediator(ledger, nil, provider, nil)
	ctx := context.Background()

	event, err := remediator.Execute(ctx, "cpu_usage", models.SeverityCritical)
	require.NoError(t, err)
	assert.NotEmpty(t, event.ID)
	assert.Equal(t, "scale out service immediately", event.Action)
	assert.Equal(t, models.RemediationExecuted, event.Status)
	assert.Equal(t, int64(1), event.Sequence)

	events, err := ledger.Replay(ctx, nil)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, event.ID, events[0].ID)
}

func TestRemediatorDuplicateWithinWindowIsPending(t *testing.T) {
	provider := store.NewMemoryProvider()
	ledger := NewLedger(provider, nil)
	remediator := NewRemediator(ledger, nil, provider, nil)
	ctx := context.Background()

	first, err := remediator.Execute(ctx, "cpu_usage", models.SeverityCritical)
	require.NoError(t, err)
	assert.Equal(t, models.RemediationExecuted, first.Status)

	second, err := remediator.Execute(ctx, "cpu_usage", models.SeverityCritical)
	require.NoError(t, err)
	assert.Equal(t, models.RemediationPending, second.Status, "duplicate is suppressed, not re-executed")
	assert.Greater(t, second.Sequence, first.Sequence)
}

func TestRemediatorDedupeWindowExpires(t *testing.T) {
	provider := store.NewMemoryProvider()
	ledger := NewLedger(provider, nil)

	current := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	remediator := NewRemediator(ledger, nil, provider, nil,
		WithDedupeTTL(time.Minute),
		WithRemediatorClock(func() time.Time { return current }))
	ctx := context.Background()

	first, err := remediator.Execute(ctx, "latency", models.SeverityHigh)
	require.NoError(t, err)
	assert.Equal(t, models.RemediationExecuted, first.Status)

	current = current.Add(2 * time.Minute)
	later, err := remediator.Execute(ctx, "latency", models.SeverityHigh)
	require.NoError(t, err)
	assert.Equal(t, models.RemediationExecuted, later.Status, "expired window allows re-execution")
}

func TestRemediatorValidation(t *testing.T) {
	provider := store.NewMemoryProvider()
	remediator := NewRemediator(NewLedger(provider, nil), nil, provider, nil)

	_, err := remediator.Execute(context.Background(), "", models.SeverityHigh)
	assert.Error(t, err)

	_, err = remediator.Execute(context.Background(), "cpu", "")
	assert.Error(t, err)
}

func TestRemediatorPrefersRulePack(t *testing.T) {
	engine := &RuleEngine{rules: []Rule{{
		ID:       "cpu-failover",
		Match:    RuleMatch{MetricContains: []string{"cpu"}},
		Action:   "failover to secondary region",
		Priority: 9,
	}}}
	provider := store.NewMemoryProvider()
	remediator := NewRemediator(NewLedger(provider, nil), engine, provider, nil)

	event, err := remediator.Execute(context.Background(), "cpu_usage", models.SeverityCritical)
	require.NoError(t, err)
	assert.Equal(t, "failover to secondary region", event.Action)
}
