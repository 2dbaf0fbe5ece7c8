// Package feedback stores human verdicts on flagged anomalies. The store
// is append-only apart from one explicit bulk clear, the only destructive
// operation in the pipeline.
package feedback

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/pulsestack/pulse-aiops/internal/models"
	"github.com/pulsestack/pulse-aiops/internal/store"
	"github.com/pulsestack/pulse-aiops/internal/utils"
)

const feedbackKey = "aiops:feedback:entries"

// Store persists feedback entries in append order.
type Store struct {
	provider store.Provider
	logger   *slog.Logger
	now      func() time.Time
}

// Option customizes a Store.
type Option func(*Store)

// WithClock overrides the time source, for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

func New(provider store.Provider, logger *slog.Logger, opts ...Option) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Store{provider: provider, logger: logger, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Save validates and appends one entry. A zero timestamp is stamped with
// the current time.
func (s *Store) Save(ctx context.Context, entry models.FeedbackEntry) error {
	if err := validate(entry); err != nil {
		return err
	}
	if entry.Timestamp == 0 {
		entry.Timestamp = s.now().UnixMilli()
	}

	payload, err := json.Marshal(entry)
	if err != nil {
		return utils.NewStorageError("feedback.save", err)
	}
	if _, err := s.provider.RPush(ctx, feedbackKey, payload); err != nil {
		return utils.NewStorageError("feedback.save", err)
	}

	s.logger.Debug("feedback saved", "metric", entry.Metric, "verdict", entry.Verdict, "source", entry.Source)
	return nil
}

// List returns all entries most-recent-last, matching append order. An
// empty store yields an empty list, never an error.
func (s *Store) List(ctx context.Context) ([]models.FeedbackEntry, error) {
	raw, err := s.provider.LRange(ctx, feedbackKey, 0, -1)
	if err != nil {
		return nil, utils.NewStorageError("feedback.list", err)
	}

	entries := make([]models.FeedbackEntry, 0, len(raw))
	for i, item := range raw {
		var entry models.FeedbackEntry
		if err := json.Unmarshal(item, &entry); err != nil {
			s.logger.Warn("skipping undecodable feedback entry", "index", i, "error", err)
			continue
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

// Clear bulk-deletes every entry and returns the count deleted. Clearing
// an empty store returns 0.
func (s *Store) Clear(ctx context.Context) (int64, error) {
	n, err := s.provider.LLen(ctx, feedbackKey)
	if err != nil {
		return 0, utils.NewStorageError("feedback.clear", err)
	}
	if n == 0 {
		return 0, nil
	}
	if err := s.provider.Del(ctx, feedbackKey); err != nil {
		return 0, utils.NewStorageError("feedback.clear", err)
	}

	s.logger.Info("feedback store cleared", "deleted", n)
	return n, nil
}

func validate(entry models.FeedbackEntry) error {
	required := map[string]string{
		"metric":   entry.Metric,
		"source":   entry.Source,
		"type":     entry.Type,
		"severity": string(entry.Severity),
	}
	for field, value := range required {
		if value == "" {
			return utils.NewValidationError("feedback.save", fmt.Sprintf("%s must not be empty", field))
		}
	}
	return nil
}
