package models

import "time"

// MetricSample is one paired observation held by the metric window store.
// Samples are immutable once appended.
type MetricSample struct {
	Timestamp int64   `json:"timestamp"`
	MetricA   float64 `json:"metricA"`
	MetricB   float64 `json:"metricB"`
}

// Time converts the millisecond epoch timestamp into a time.Time.
func (s MetricSample) Time() time.Time {
	return time.UnixMilli(s.Timestamp).UTC()
}

// TimeRange bounds a batch of samples for analysis.
type TimeRange struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Contains reports whether t falls inside the range. A zero Start or End
// leaves that side unbounded.
func (r TimeRange) Contains(t time.Time) bool {
	if !r.Start.IsZero() && t.Before(r.Start) {
		return false
	}
	if !r.End.IsZero() && t.After(r.End) {
		return false
	}
	return true
}
