package remediation

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/pulsestack/pulse-aiops/internal/classifier"
	"github.com/pulsestack/pulse-aiops/internal/models"
	"github.com/pulsestack/pulse-aiops/internal/store"
	"github.com/pulsestack/pulse-aiops/internal/utils"
)

const (
	dedupeKeyPrefix = "aiops:remediation:dedupe:"

	// DefaultDedupeTTL is the window inside which a repeated
	// (metric, severity) incident is marked pending instead of
	// triggering the action again.
	DefaultDedupeTTL = 5 * time.Minute

	dedupeCacheSize = 1024
)

// Remediator selects a remediation action for a classified incident and
// records the decision in the audit ledger. Repeated incidents inside the
// dedupe window are recorded as pending rather than re-executed.
type Remediator struct {
	ledger    *Ledger
	rules     *RuleEngine
	provider  store.Provider
	seen      *lru.Cache[string, time.Time]
	logger    *slog.Logger
	dedupeTTL time.Duration
	sequence  atomic.Int64
	now       func() time.Time
}

// RemediatorOption customizes a Remediator.
type RemediatorOption func(*Remediator)

// WithDedupeTTL overrides the suppression window.
func WithDedupeTTL(ttl time.Duration) RemediatorOption {
	return func(r *Remediator) { r.dedupeTTL = ttl }
}

// WithRemediatorClock overrides the time source, for tests.
func WithRemediatorClock(now func() time.Time) RemediatorOption {
	return func(r *Remediator) { r.now = now }
}

func NewRemediator(ledger *Ledger, rules *RuleEngine, provider store.Provider, logger *slog.Logger, opts ...RemediatorOption) *Remediator {
	if logger == nil {
		logger = slog.Default()
	}
	seen, _ := lru.New[string, time.Time](dedupeCacheSize)
	r := &Remediator{
		ledger:    ledger,
		rules:     rules,
		provider:  provider,
		seen:      seen,
		logger:    logger,
		dedupeTTL: DefaultDedupeTTL,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Execute decides the action for one incident and appends the decision to
// the ledger. The returned event carries status executed for a fresh
// incident and pending for a duplicate inside the dedupe window. Ledger
// append failures are surfaced; dedupe-store failures are not, dedupe is
// best effort.
func (r *Remediator) Execute(ctx context.Context, metric string, severity models.Severity) (models.RemediationEvent, error) {
	if metric == "" {
		return models.RemediationEvent{}, utils.NewValidationError("remediator.execute", "metric must not be empty")
	}
	if severity == "" {
		return models.RemediationEvent{}, utils.NewValidationError("remediator.execute", "severity must not be empty")
	}

	event := models.RemediationEvent{
		ID:        uuid.NewString(),
		Timestamp: r.now().UnixMilli(),
		Metric:    metric,
		Severity:  severity,
		Action:    r.selectAction(metric, severity),
		Status:    models.RemediationExecuted,
		Sequence:  r.sequence.Add(1),
	}
	if r.isDuplicate(ctx, metric, severity) {
		event.Status = models.RemediationPending
	}

	if err := r.ledger.Record(ctx, event); err != nil {
		return models.RemediationEvent{}, err
	}

	r.logger.Info("remediation decision recorded",
		"metric", metric,
		"severity", severity,
		"action", event.Action,
		"status", event.Status)
	return event, nil
}

// selectAction merges rule-pack candidates with the built-in table and
// takes the highest-priority candidate. The built-in fallback guarantees
// a non-empty result.
func (r *Remediator) selectAction(metric string, severity models.Severity) string {
	candidates := append(r.rules.Candidates(metric, severity), Candidates(metric, severity)...)
	ordered := classifier.PrioritizeActions(candidates)
	return ordered[0].Action
}

func (r *Remediator) isDuplicate(ctx context.Context, metric string, severity models.Severity) bool {
	key := dedupeKeyPrefix + metric + ":" + string(severity)

	if stamp, ok := r.seen.Get(key); ok {
		if r.now().Sub(stamp) < r.dedupeTTL {
			return true
		}
		// Our own mark aged out and the shared key carried the same
		// TTL, so refresh instead of re-probing.
		r.seen.Add(key, r.now())
		if err := r.provider.Set(ctx, key, []byte("1"), r.dedupeTTL); err != nil {
			r.logger.Warn("dedupe store unavailable", "error", err)
		}
		return false
	}
	r.seen.Add(key, r.now())

	set, err := r.provider.SetNX(ctx, key, []byte("1"), r.dedupeTTL)
	if err != nil {
		r.logger.Warn("dedupe store unavailable, treating incident as fresh", "error", err)
		return false
	}
	return !set
}
