package detector

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pulsestack/pulse-aiops/internal/models"
)

func score(ts int64, severity models.Severity, value float64) models.AnomalyScore {
	return models.AnomalyScore{Timestamp: ts, Severity: severity, Score: value}
}

func TestAggregateScoresCountsAndWeights(t *testing.T) {
	scores := []models.AnomalyScore{
		score(3, models.SeverityCritical, 3.5),
		score(1, models.SeverityLow, 0.2),
		score(2, models.SeverityHigh, 2.7),
		score(4, models.SeverityMedium, 2.1),
	}

	agg := AggregateScores(scores)

	assert.Equal(t, 1, agg.Counts[models.SeverityCritical])
	assert.Equal(t, 1, agg.Counts[models.SeverityHigh])
	assert.Equal(t, 1, agg.Counts[models.SeverityMedium])
	assert.Equal(t, 1, agg.Counts[models.SeverityLow])
	// (1.0 + 0.25 + 0.75 + 0.5) / 4
	assert.InDelta(t, 0.625, agg.AggregatedScore, 1e-9)

	require.Len(t, agg.Timeline, 4)
	assert.Equal(t, int64(1), agg.Timeline[0].Timestamp, "timeline is time-ordered")
	assert.Equal(t, int64(4), agg.Timeline[3].Timestamp)
}

func TestAggregateScoresEmpty(t *testing.T) {
	agg := AggregateScores(nil)
	assert.Zero(t, agg.AggregatedScore)
	assert.Empty(t, agg.Timeline)
}

func TestTimelineBucketsDeterministicOrder(t *testing.T) {
	base := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	shuffled := []models.AnomalyScore{
		score(base.Add(90*time.Minute).UnixMilli(), models.SeverityHigh, 2.6),
		score(base.UnixMilli(), models.SeverityLow, 0.5),
		score(base.Add(30*time.Minute).UnixMilli(), models.SeverityMedium, 2.2),
	}
	ordered := []models.AnomalyScore{shuffled[1], shuffled[2], shuffled[0]}

	fromShuffled, err := Timeline(shuffled, nil, GranularityHour)
	require.NoError(t, err)
	fromOrdered, err := Timeline(ordered, nil, GranularityHour)
	require.NoError(t, err)

	assert.Equal(t, fromOrdered, fromShuffled, "bucket boundaries must not depend on input order")
	require.Len(t, fromShuffled, 2)
	assert.Equal(t, 2, fromShuffled[0].Count)
	assert.Equal(t, base, fromShuffled[0].Start)
	assert.InDelta(t, 2.2, fromShuffled[0].MaxScore, 1e-9)
}

func TestTimelineRangeFilter(t *testing.T) {
	base := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	scores := []models.AnomalyScore{
		score(base.UnixMilli(), models.SeverityLow, 0.1),
		score(base.Add(2*time.Hour).UnixMilli(), models.SeverityHigh, 2.8),
		score(base.Add(26*time.Hour).UnixMilli(), models.SeverityLow, 0.3),
	}
	rng := &models.TimeRange{Start: base.Add(time.Hour), End: base.Add(24 * time.Hour)}

	buckets, err := Timeline(scores, rng, GranularityDay)
	require.NoError(t, err)
	require.Len(t, buckets, 1)
	assert.Equal(t, 1, buckets[0].Count)
}

func TestTimelineRejectsUnknownGranularity(t *testing.T) {
	_, err := Timeline(nil, nil, Granularity("week"))
	assert.Error(t, err)
}
