// Package window holds the most recent paired metric samples per
// correlation key. Appends are push-front with FIFO eviction once the
// configured capacity is exceeded; the backing store serialises
// concurrent appends so no sample is lost or duplicated.
package window

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/pulsestack/pulse-aiops/internal/models"
	"github.com/pulsestack/pulse-aiops/internal/store"
	"github.com/pulsestack/pulse-aiops/internal/utils"
)

// DefaultCapacity bounds a window when no capacity is configured.
const DefaultCapacity = 1000

// Store is the capacity-bounded metric window store.
type Store struct {
	provider store.Provider
	capacity int
	logger   *slog.Logger
	now      func() time.Time
}

// Option customises a Store.
type Option func(*Store)

// WithClock overrides the wall clock, used by tests for deterministic
// timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// New constructs a window store over the given provider.
func New(provider store.Provider, capacity int, logger *slog.Logger, opts ...Option) *Store {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	if logger == nil {
		logger = slog.Default()
	}
	s := &Store{
		provider: provider,
		capacity: capacity,
		logger:   logger,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Capacity returns the configured window capacity.
func (s *Store) Capacity() int { return s.capacity }

// Append validates and stores one paired sample for key. A zero timestamp
// is stamped with the current time. Overflow evicts the oldest entries
// silently; only storage unavailability is an error.
func (s *Store) Append(ctx context.Context, key string, metricA, metricB float64, ts time.Time) error {
	if key == "" {
		return utils.NewValidationError("window.append", "key is required")
	}
	if !utils.IsFinite(metricA) || !utils.IsFinite(metricB) {
		return utils.NewValidationError("window.append", "metric values must be finite numbers")
	}
	if ts.IsZero() {
		ts = s.now()
	}

	sample := models.MetricSample{
		Timestamp: ts.UTC().UnixMilli(),
		MetricA:   metricA,
		MetricB:   metricB,
	}
	payload, err := json.Marshal(sample)
	if err != nil {
		return utils.NewAppError("window.append", "encode sample", err)
	}

	if _, err := s.provider.LPush(ctx, s.listKey(key), payload); err != nil {
		return utils.NewStorageError("window.append", err)
	}
	// Trim is a separate round trip; a crash between push and trim leaves
	// the window one entry over capacity until the next append fixes it.
	if err := s.provider.LTrim(ctx, s.listKey(key), 0, int64(s.capacity-1)); err != nil {
		s.logger.Warn("window trim failed", slog.String("key", key), slog.Any("error", err))
	}
	return nil
}

// Snapshot returns up to count of the most recent samples for key,
// ordered oldest to newest. count <= 0 means the full window.
func (s *Store) Snapshot(ctx context.Context, key string, count int) ([]models.MetricSample, error) {
	if key == "" {
		return nil, utils.NewValidationError("window.snapshot", "key is required")
	}
	if count <= 0 || count > s.capacity {
		count = s.capacity
	}

	raw, err := s.provider.LRange(ctx, s.listKey(key), 0, int64(count-1))
	if err != nil {
		return nil, utils.NewStorageError("window.snapshot", err)
	}

	samples := make([]models.MetricSample, 0, len(raw))
	// The list is newest-first; walk it backwards to hand out insertion order.
	for i := len(raw) - 1; i >= 0; i-- {
		var sample models.MetricSample
		if err := json.Unmarshal(raw[i], &sample); err != nil {
			s.logger.Warn("skipping undecodable sample", slog.String("key", key), slog.Any("error", err))
			continue
		}
		samples = append(samples, sample)
	}
	return samples, nil
}

// Len returns the current number of samples held for key.
func (s *Store) Len(ctx context.Context, key string) (int, error) {
	n, err := s.provider.LLen(ctx, s.listKey(key))
	if err != nil {
		return 0, utils.NewStorageError("window.len", err)
	}
	return int(n), nil
}

// Series splits a snapshot into parallel value and timestamp slices for
// the detector and correlation stages.
func Series(samples []models.MetricSample) (a, b []float64, timestamps []int64) {
	a = make([]float64, 0, len(samples))
	b = make([]float64, 0, len(samples))
	timestamps = make([]int64, 0, len(samples))
	for _, sample := range samples {
		a = append(a, sample.MetricA)
		b = append(b, sample.MetricB)
		timestamps = append(timestamps, sample.Timestamp)
	}
	return a, b, timestamps
}

func (s *Store) listKey(key string) string {
	return "aiops:window:" + key
}
