package detector

import (
	"sort"
	"time"

	"github.com/pulsestack/pulse-aiops/internal/models"
	"github.com/pulsestack/pulse-aiops/internal/utils"
)

// Severity weights used when reducing a score batch to one number.
const (
	weightCritical = 1.0
	weightHigh     = 0.75
	weightMedium   = 0.5
	weightLow      = 0.25
)

// Granularity selects the bucket width of an anomaly timeline.
type Granularity string

const (
	GranularityMinute Granularity = "minute"
	GranularityHour   Granularity = "hour"
	GranularityDay    Granularity = "day"
)

// AggregateScores reduces a batch of anomaly scores into per-severity
// counts, a weighted aggregate, and a time-ordered timeline.
func AggregateScores(scores []models.AnomalyScore) models.AnomalyAggregate {
	agg := models.AnomalyAggregate{
		Counts: map[models.Severity]int{
			models.SeverityLow:      0,
			models.SeverityMedium:   0,
			models.SeverityHigh:     0,
			models.SeverityCritical: 0,
		},
	}
	if len(scores) == 0 {
		return agg
	}

	total := 0.0
	timeline := make([]models.TimelinePoint, 0, len(scores))
	for _, score := range scores {
		agg.Counts[score.Severity]++
		total += severityWeight(score.Severity)
		timeline = append(timeline, models.TimelinePoint{
			Timestamp: score.Timestamp,
			Severity:  score.Severity,
			Score:     score.Score,
		})
	}
	agg.AggregatedScore = total / float64(len(scores))

	sort.SliceStable(timeline, func(i, j int) bool {
		return timeline[i].Timestamp < timeline[j].Timestamp
	})
	agg.Timeline = timeline
	return agg
}

// Timeline buckets anomaly scores by the requested granularity,
// optionally restricted to a time range. Input is sorted before bucketing
// so boundaries are deterministic regardless of input order.
func Timeline(scores []models.AnomalyScore, rng *models.TimeRange, granularity Granularity) ([]models.TimelineBucket, error) {
	var step time.Duration
	switch granularity {
	case GranularityMinute:
		step = time.Minute
	case GranularityHour, "":
		step = time.Hour
	case GranularityDay:
		step = 24 * time.Hour
	default:
		return nil, utils.NewValidationError("detector.timeline", "granularity must be minute, hour, or day")
	}

	ordered := append([]models.AnomalyScore(nil), scores...)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Timestamp < ordered[j].Timestamp
	})

	buckets := make([]models.TimelineBucket, 0)
	index := make(map[int64]int)
	for _, score := range ordered {
		t := utils.MsToTime(score.Timestamp)
		if rng != nil && !rng.Contains(t) {
			continue
		}
		start := t.Truncate(step)
		pos, ok := index[start.UnixMilli()]
		if !ok {
			pos = len(buckets)
			index[start.UnixMilli()] = pos
			buckets = append(buckets, models.TimelineBucket{
				Start:  start,
				Counts: make(map[models.Severity]int),
			})
		}
		bucket := &buckets[pos]
		bucket.Count++
		bucket.Counts[score.Severity]++
		if score.Score > bucket.MaxScore {
			bucket.MaxScore = score.Score
		}
	}
	return buckets, nil
}

func severityWeight(severity models.Severity) float64 {
	switch severity {
	case models.SeverityCritical:
		return weightCritical
	case models.SeverityHigh:
		return weightHigh
	case models.SeverityMedium:
		return weightMedium
	default:
		return weightLow
	}
}
