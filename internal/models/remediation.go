package models

import "time"

// RemediationStatus tracks the lifecycle of a remediation decision.
type RemediationStatus string

const (
	RemediationExecuted RemediationStatus = "executed"
	RemediationPending  RemediationStatus = "pending"
	RemediationFailed   RemediationStatus = "failed"
)

// RemediationEvent is one immutable ledger record of a remediation
// decision. Ordering is by append order; Timestamp is advisory. Callers
// that need strict causal ordering downstream should carry their own
// sequence number in Sequence.
type RemediationEvent struct {
	ID        string            `json:"id"`
	Timestamp int64             `json:"timestamp"`
	Metric    string            `json:"metric"`
	Action    string            `json:"action"`
	Severity  Severity          `json:"severity"`
	Status    RemediationStatus `json:"status"`
	Sequence  int64             `json:"sequence,omitempty"`
}

// Time converts the millisecond epoch timestamp into a time.Time.
func (e RemediationEvent) Time() time.Time {
	return time.UnixMilli(e.Timestamp).UTC()
}

// ReplayFilter narrows a ledger replay. Zero values match everything.
type ReplayFilter struct {
	Metric   string            `json:"metric,omitempty"`
	Severity Severity          `json:"severity,omitempty"`
	Status   RemediationStatus `json:"status,omitempty"`
}

// Matches reports whether the event passes the filter.
func (f ReplayFilter) Matches(e RemediationEvent) bool {
	if f.Metric != "" && f.Metric != e.Metric {
		return false
	}
	if f.Severity != "" && f.Severity != e.Severity {
		return false
	}
	if f.Status != "" && f.Status != e.Status {
		return false
	}
	return true
}

// CandidateAction is a ranked remediation candidate for one incident.
type CandidateAction struct {
	Action   string `json:"action"`
	Priority int    `json:"priority"`
	Reason   string `json:"reason,omitempty"`
}
