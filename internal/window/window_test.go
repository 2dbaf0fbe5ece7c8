package window

import (
	"context"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pulsestack/pulse-aiops/internal/store"
	"github.com/pulsestack/pulse-aiops/internal/utils"
)

func TestAppendRejectsNonFinite(t *testing.T) {
	s := New(store.NewMemoryProvider(), 10, nil)
	ctx := context.Background()

	err := s.Append(ctx, "cpu", math.NaN(), 1, time.Time{})
	assert.True(t, utils.IsValidation(err))

	err = s.Append(ctx, "cpu", 1, math.Inf(1), time.Time{})
	assert.True(t, utils.IsValidation(err))

	err = s.Append(ctx, "", 1, 2, time.Time{})
	assert.True(t, utils.IsValidation(err))
}

func TestAppendStampsMissingTimestamp(t *testing.T) {
	fixed := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	s := New(store.NewMemoryProvider(), 10, nil, WithClock(func() time.Time { return fixed }))
	ctx := context.Background()

	require.NoError(t, s.Append(ctx, "cpu", 1.5, 2.5, time.Time{}))

	samples, err := s.Snapshot(ctx, "cpu", 0)
	require.NoError(t, err)
	require.Len(t, samples, 1)
	assert.Equal(t, fixed.UnixMilli(), samples[0].Timestamp)
}

func TestFIFOEvictionAtCapacity(t *testing.T) {
	s := New(store.NewMemoryProvider(), 3, nil)
	ctx := context.Background()
	base := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

	for i := 0; i < 5; i++ {
		require.NoError(t, s.Append(ctx, "cpu", float64(i), float64(i*10), base.Add(time.Duration(i)*time.Second)))
	}

	samples, err := s.Snapshot(ctx, "cpu", 0)
	require.NoError(t, err)
	require.Len(t, samples, 3, "oldest entries are dropped without error")
	// Oldest-to-newest: entries 2, 3, 4 survive.
	assert.Equal(t, 2.0, samples[0].MetricA)
	assert.Equal(t, 4.0, samples[2].MetricA)
}

func TestSnapshotReturnsOldestToNewest(t *testing.T) {
	s := New(store.NewMemoryProvider(), 10, nil)
	ctx := context.Background()
	base := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

	for i := 0; i < 4; i++ {
		require.NoError(t, s.Append(ctx, "lat", float64(i), 0, base.Add(time.Duration(i)*time.Second)))
	}

	samples, err := s.Snapshot(ctx, "lat", 2)
	require.NoError(t, err)
	require.Len(t, samples, 2)
	assert.Equal(t, 2.0, samples[0].MetricA, "snapshot(2) returns the two most recent, oldest first")
	assert.Equal(t, 3.0, samples[1].MetricA)
}

func TestSnapshotEmptyWindow(t *testing.T) {
	s := New(store.NewMemoryProvider(), 10, nil)

	samples, err := s.Snapshot(context.Background(), "none", 5)
	require.NoError(t, err)
	assert.Empty(t, samples)
}

func TestConcurrentAppendsLoseNothing(t *testing.T) {
	s := New(store.NewMemoryProvider(), 1000, nil)
	ctx := context.Background()

	var wg sync.WaitGroup
	const writers, perWriter = 8, 25
	for w := 0; w < writers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < perWriter; i++ {
				_ = s.Append(ctx, "cpu", float64(w), float64(i), time.Time{})
			}
		}(w)
	}
	wg.Wait()

	n, err := s.Len(ctx, "cpu")
	require.NoError(t, err)
	assert.Equal(t, writers*perWriter, n)
}

func TestSeriesSplitsSamples(t *testing.T) {
	s := New(store.NewMemoryProvider(), 10, nil)
	ctx := context.Background()
	base := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

	require.NoError(t, s.Append(ctx, "k", 1, 10, base))
	require.NoError(t, s.Append(ctx, "k", 2, 20, base.Add(time.Second)))

	samples, err := s.Snapshot(ctx, "k", 0)
	require.NoError(t, err)

	a, b, ts := Series(samples)
	assert.Equal(t, []float64{1, 2}, a)
	assert.Equal(t, []float64{10, 20}, b)
	assert.Equal(t, base.UnixMilli(), ts[0])
}
