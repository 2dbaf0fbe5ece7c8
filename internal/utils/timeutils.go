package utils

import (
	"fmt"
	"math"
	"time"
)

// NowMs returns the current wall clock as a millisecond epoch timestamp,
// the unit every stored sample and event carries.
func NowMs() int64 {
	return time.Now().UTC().UnixMilli()
}

// MsToTime converts a millisecond epoch timestamp into a UTC time.Time.
func MsToTime(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}

// ParseRFC3339 returns a time from the provided string or an error.
func ParseRFC3339(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, fmt.Errorf("empty time value")
	}
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse time: %w", err)
	}
	return t, nil
}

// IsFinite reports whether v is a usable sample value (not NaN or Inf).
func IsFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
