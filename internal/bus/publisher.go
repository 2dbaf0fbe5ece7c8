package bus

import (
	"encoding/json"
	"log/slog"

	"github.com/nats-io/nats.go"

	"github.com/pulsestack/pulse-aiops/internal/pipeline"
)

// AlertSubject carries evaluation verdicts for downstream notification
// and UI consumers.
const AlertSubject = "aiops.alerts"

// AlertPublisher pushes verdicts onto the alert subject. Publishing is a
// best-effort side channel: failures are logged, never propagated. A nil
// publisher is valid and publishes nothing.
type AlertPublisher struct {
	nc     *nats.Conn
	logger *slog.Logger
}

func NewAlertPublisher(nc *nats.Conn, logger *slog.Logger) *AlertPublisher {
	if logger == nil {
		logger = slog.Default()
	}
	return &AlertPublisher{nc: nc, logger: logger}
}

// Publish sends one verdict. Marshal or transport failures degrade to a
// log line.
func (p *AlertPublisher) Publish(verdict pipeline.Verdict) {
	if p == nil || p.nc == nil {
		return
	}
	payload, err := json.Marshal(verdict)
	if err != nil {
		p.logger.Warn("alert marshal failed", "key", verdict.Key, "error", err)
		return
	}
	if err := p.nc.Publish(AlertSubject, payload); err != nil {
		p.logger.Warn("alert publish failed", "key", verdict.Key, "error", err)
		return
	}
	p.logger.Debug("alert published",
		"key", verdict.Key,
		"severity", verdict.Classification.Severity)
}
