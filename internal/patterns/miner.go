// Package patterns mines recurring incident patterns from the audit
// ledger and cross-references them with human feedback, closing the loop
// between automated detection and operator verdicts.
package patterns

import (
	"log/slog"
	"sort"

	"github.com/pulsestack/pulse-aiops/internal/models"
)

// IncidentPattern summarizes the remediation history of one metric.
type IncidentPattern struct {
	ID                string          `json:"id"`
	Metric            string          `json:"metric"`
	Count             int             `json:"count"`
	Prevalence        float64         `json:"prevalence"`
	TopSeverity       models.Severity `json:"top_severity"`
	FalsePositiveRate float64         `json:"false_positive_rate"`
	LastSeen          int64           `json:"last_seen"`
}

// Miner aggregates ledger events into per-metric patterns.
type Miner struct {
	logger *slog.Logger
}

func NewMiner(logger *slog.Logger) *Miner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Miner{logger: logger}
}

// Mine reduces the event history to per-metric incident patterns. The
// false-positive rate comes from feedback entries whose verdict rejects
// the flagged anomaly; metrics without feedback report 0. Output is
// ordered by descending prevalence, ties by metric name, so repeated
// mining over the same history is stable.
func (m *Miner) Mine(events []models.RemediationEvent, feedback []models.FeedbackEntry) []IncidentPattern {
	if len(events) == 0 {
		return nil
	}

	type aggregate struct {
		count       int
		topSeverity models.Severity
		lastSeen    int64
	}
	stats := make(map[string]*aggregate)
	for _, event := range events {
		agg, ok := stats[event.Metric]
		if !ok {
			agg = &aggregate{topSeverity: event.Severity}
			stats[event.Metric] = agg
		}
		agg.count++
		if event.Severity.Rank() > agg.topSeverity.Rank() {
			agg.topSeverity = event.Severity
		}
		if event.Timestamp > agg.lastSeen {
			agg.lastSeen = event.Timestamp
		}
	}

	verdicts := make(map[string]*struct{ total, rejected int })
	for _, entry := range feedback {
		v, ok := verdicts[entry.Metric]
		if !ok {
			v = &struct{ total, rejected int }{}
			verdicts[entry.Metric] = v
		}
		v.total++
		if entry.Anomaly && !entry.Verdict {
			v.rejected++
		}
	}

	patterns := make([]IncidentPattern, 0, len(stats))
	for metric, agg := range stats {
		pattern := IncidentPattern{
			ID:          "pattern-" + metric,
			Metric:      metric,
			Count:       agg.count,
			Prevalence:  float64(agg.count) / float64(len(events)),
			TopSeverity: agg.topSeverity,
			LastSeen:    agg.lastSeen,
		}
		if v, ok := verdicts[metric]; ok && v.total > 0 {
			pattern.FalsePositiveRate = float64(v.rejected) / float64(v.total)
		}
		patterns = append(patterns, pattern)
	}

	sort.SliceStable(patterns, func(i, j int) bool {
		if patterns[i].Prevalence != patterns[j].Prevalence {
			return patterns[i].Prevalence > patterns[j].Prevalence
		}
		return patterns[i].Metric < patterns[j].Metric
	})

	m.logger.Debug("patterns mined", "events", len(events), "patterns", len(patterns))
	return patterns
}
