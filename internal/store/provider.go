package store

import (
	"context"
	"errors"
	"time"
)

// Provider defines the backing-store operations shared by the window
// store, audit ledger, and feedback store. List operations are the atomic
// append/trim primitives the pipeline's ordering guarantees rest on.
type Provider interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	SetNX(ctx context.Context, key string, value []byte, ttl time.Duration) (bool, error)
	Del(ctx context.Context, key string) error

	LPush(ctx context.Context, key string, values ...[]byte) (int64, error)
	RPush(ctx context.Context, key string, values ...[]byte) (int64, error)
	LTrim(ctx context.Context, key string, start, stop int64) error
	LRange(ctx context.Context, key string, start, stop int64) ([][]byte, error)
	LLen(ctx context.Context, key string) (int64, error)

	Close() error
}

// ErrMiss signals that a key was not found.
var ErrMiss = errors.New("store miss")
