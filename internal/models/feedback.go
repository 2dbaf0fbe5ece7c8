package models

import "time"

// FeedbackEntry records a human true/false-positive verdict on a flagged
// anomaly. Entries are append-only except for the explicit bulk clear.
type FeedbackEntry struct {
	Timestamp int64    `json:"timestamp"`
	Metric    string   `json:"metric"`
	Anomaly   bool     `json:"anomaly"`
	Verdict   bool     `json:"verdict"`
	Comment   string   `json:"comment,omitempty"`
	Source    string   `json:"source"`
	Type      string   `json:"type"`
	Severity  Severity `json:"severity"`
}

// Time converts the millisecond epoch timestamp into a time.Time.
func (e FeedbackEntry) Time() time.Time {
	return time.UnixMilli(e.Timestamp).UTC()
}
