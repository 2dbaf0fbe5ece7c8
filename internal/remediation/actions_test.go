package remediation

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pulsestack/pulse-aiops/internal/models"
)

func TestSuggestActionPatternTable(t *testing.T) {
	assert.Equal(t, "scale out service immediately", SuggestAction("node_cpu_usage", models.SeverityCritical))
	assert.Equal(t, "restart affected instances", SuggestAction("heap_bytes", models.SeverityCritical))
	assert.Equal(t, "open circuit breaker on downstream calls", SuggestAction("p99_latency_ms", models.SeverityCritical))
	assert.Equal(t, "run cleanup job", SuggestAction("disk_used_percent", models.SeverityHigh))
	assert.Equal(t, "roll back last deployment", SuggestAction("http_5xx_rate", models.SeverityCritical))
}

func TestSuggestActionNeverEmpty(t *testing.T) {
	cases := []struct {
		metric   string
		severity models.Severity
	}{
		{"completely_unknown_metric", models.SeverityCritical},
		{"cpu_usage", models.SeverityLow},
		{"", models.SeverityHigh},
		{"cpu_usage", models.Severity("bogus")},
	}
	for _, tc := range cases {
		action := SuggestAction(tc.metric, tc.severity)
		assert.Equal(t, FallbackAction, action, "%s/%s", tc.metric, tc.severity)
		assert.NotEmpty(t, action)
	}
}

func TestCandidatesAlwaysIncludeFallback(t *testing.T) {
	candidates := Candidates("cpu_usage", models.SeverityHigh)
	require.Len(t, candidates, 2)
	assert.Equal(t, "scale out service", candidates[0].Action)
	assert.Equal(t, FallbackAction, candidates[1].Action)

	candidates = Candidates("unknown", models.SeverityHigh)
	require.Len(t, candidates, 1)
	assert.Equal(t, FallbackAction, candidates[0].Action)
}

func TestRuleEngineCandidates(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "rules.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`rules:
  - id: checkout-cpu
    match:
      metric_contains: ["cpu"]
      severity: "critical"
    action: "failover to secondary region"
    priority: 9
  - id: any-metric
    action: "page on-call"
    priority: 1
`), 0o644))

	engine, err := NewRuleEngine(path, slog.New(slog.NewTextHandler(os.Stdout, nil)))
	require.NoError(t, err)
	require.NotNil(t, engine)

	candidates := engine.Candidates("cpu_usage", models.SeverityCritical)
	require.Len(t, candidates, 2)
	assert.Equal(t, "failover to secondary region", candidates[0].Action)
	assert.Equal(t, 9, candidates[0].Priority)

	candidates = engine.Candidates("memory", models.SeverityLow)
	require.Len(t, candidates, 1, "severity-restricted rule does not match")
	assert.Equal(t, "page on-call", candidates[0].Action)
}

func TestRuleEngineMissingFile(t *testing.T) {
	engine, err := NewRuleEngine(filepath.Join(t.TempDir(), "absent.yaml"), nil)
	require.NoError(t, err)
	assert.Nil(t, engine)
	assert.Empty(t, engine.Candidates("cpu", models.SeverityHigh), "nil engine is usable")
}
