// Package remediation maps classified incidents to corrective actions and
// keeps the append-only audit ledger of every remediation decision.
package remediation

import (
	"strings"

	"github.com/pulsestack/pulse-aiops/internal/models"
)

// FallbackAction is returned when no pattern matches. The suggestion path
// never returns an empty action.
const FallbackAction = "investigate manually"

type actionRule struct {
	keywords []string
	actions  map[models.Severity]string
	priority int
}

// Built-in action table, checked in order. First matching rule wins.
var actionTable = []actionRule{
	{
		keywords: []string{"cpu"},
		actions: map[models.Severity]string{
			models.SeverityCritical: "scale out service immediately",
			models.SeverityHigh:     "scale out service",
			models.SeverityMedium:   "schedule capacity review",
		},
		priority: 4,
	},
	{
		keywords: []string{"memory", "mem", "heap"},
		actions: map[models.Severity]string{
			models.SeverityCritical: "restart affected instances",
			models.SeverityHigh:     "restart affected instances during next window",
			models.SeverityMedium:   "inspect for memory leak",
		},
		priority: 4,
	},
	{
		keywords: []string{"latency", "response_time", "duration"},
		actions: map[models.Severity]string{
			models.SeverityCritical: "open circuit breaker on downstream calls",
			models.SeverityHigh:     "enable request shedding",
			models.SeverityMedium:   "review slow query log",
		},
		priority: 5,
	},
	{
		keywords: []string{"disk", "storage", "volume"},
		actions: map[models.Severity]string{
			models.SeverityCritical: "run emergency cleanup and expand volume",
			models.SeverityHigh:     "run cleanup job",
			models.SeverityMedium:   "schedule retention cleanup",
		},
		priority: 3,
	},
	{
		keywords: []string{"error", "failure", "5xx"},
		actions: map[models.Severity]string{
			models.SeverityCritical: "roll back last deployment",
			models.SeverityHigh:     "pause rollout and inspect errors",
			models.SeverityMedium:   "inspect recent error spike",
		},
		priority: 5,
	},
}

// SuggestAction maps a metric name and severity to a recommended action.
// Metric names match by case-insensitive substring against the built-in
// table; low severity and unmatched metrics fall back to manual
// investigation. Never returns an empty string.
func SuggestAction(metric string, severity models.Severity) string {
	rule, ok := matchRule(metric)
	if !ok {
		return FallbackAction
	}
	if action, ok := rule.actions[severity]; ok {
		return action
	}
	return FallbackAction
}

// Candidates returns every built-in action applicable to the metric and
// severity as ranked candidates, always including the manual fallback so
// the list is never empty.
func Candidates(metric string, severity models.Severity) []models.CandidateAction {
	candidates := make([]models.CandidateAction, 0, 2)
	if rule, ok := matchRule(metric); ok {
		if action, ok := rule.actions[severity]; ok {
			candidates = append(candidates, models.CandidateAction{
				Action:   action,
				Priority: rule.priority,
				Reason:   "metric pattern match",
			})
		}
	}
	candidates = append(candidates, models.CandidateAction{
		Action:   FallbackAction,
		Priority: 0,
		Reason:   "fallback",
	})
	return candidates
}

func matchRule(metric string) (actionRule, bool) {
	name := strings.ToLower(metric)
	for _, rule := range actionTable {
		for _, kw := range rule.keywords {
			if strings.Contains(name, kw) {
				return rule, true
			}
		}
	}
	return actionRule{}, false
}
