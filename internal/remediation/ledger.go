package remediation

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/pulsestack/pulse-aiops/internal/metrics"
	"github.com/pulsestack/pulse-aiops/internal/models"
	"github.com/pulsestack/pulse-aiops/internal/store"
	"github.com/pulsestack/pulse-aiops/internal/utils"
)

const ledgerKey = "aiops:ledger:events"

// DefaultLedgerSoftCap is the ledger length above which a retention
// warning is logged. The ledger itself stays unbounded: entries are never
// evicted, archival is an operator concern.
const DefaultLedgerSoftCap = 100_000

// Ledger is the append-only audit log of remediation decisions. Append is
// the only mutation; replay preserves append order.
type Ledger struct {
	provider store.Provider
	logger   *slog.Logger
	softCap  int64
}

func NewLedger(provider store.Provider, logger *slog.Logger) *Ledger {
	if logger == nil {
		logger = slog.Default()
	}
	return &Ledger{provider: provider, logger: logger, softCap: DefaultLedgerSoftCap}
}

// Record appends an event to the ledger. Storage failures are surfaced to
// the caller: the audit trail is a durability-sensitive path, unlike the
// metrics side channel.
func (l *Ledger) Record(ctx context.Context, event models.RemediationEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return utils.NewStorageError("ledger.record", err)
	}

	n, err := l.provider.RPush(ctx, ledgerKey, payload)
	if err != nil {
		return utils.NewStorageError("ledger.record", err)
	}
	metrics.SetLedgerEntries(n)
	if n > l.softCap {
		l.logger.Warn("audit ledger above retention soft cap",
			"entries", n, "soft_cap", l.softCap)
	}
	return nil
}

// Replay returns events in original append order, optionally filtered.
// A nil filter matches everything. Undecodable entries are skipped with a
// warning so one corrupt record cannot poison the whole audit trail.
func (l *Ledger) Replay(ctx context.Context, filter *models.ReplayFilter) ([]models.RemediationEvent, error) {
	raw, err := l.provider.LRange(ctx, ledgerKey, 0, -1)
	if err != nil {
		return nil, utils.NewStorageError("ledger.replay", err)
	}

	events := make([]models.RemediationEvent, 0, len(raw))
	for i, entry := range raw {
		var event models.RemediationEvent
		if err := json.Unmarshal(entry, &event); err != nil {
			l.logger.Warn("skipping undecodable ledger entry", "index", i, "error", err)
			continue
		}
		if filter != nil && !filter.Matches(event) {
			continue
		}
		events = append(events, event)
	}
	return events, nil
}

// Len reports the number of ledger entries.
func (l *Ledger) Len(ctx context.Context) (int64, error) {
	n, err := l.provider.LLen(ctx, ledgerKey)
	if err != nil {
		return 0, utils.NewStorageError("ledger.len", err)
	}
	return n, nil
}
