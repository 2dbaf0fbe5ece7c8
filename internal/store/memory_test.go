package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryProviderKV(t *testing.T) {
	p := NewMemoryProvider()
	ctx := context.Background()

	_, err := p.Get(ctx, "missing")
	assert.ErrorIs(t, err, ErrMiss)

	require.NoError(t, p.Set(ctx, "k", []byte("v"), 0))
	got, err := p.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, []byte("v"), got)

	ok, err := p.SetNX(ctx, "k", []byte("other"), 0)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, p.Del(ctx, "k"))
	_, err = p.Get(ctx, "k")
	assert.ErrorIs(t, err, ErrMiss)
}

func TestMemoryProviderTTLExpiry(t *testing.T) {
	p := NewMemoryProvider()
	ctx := context.Background()

	require.NoError(t, p.Set(ctx, "k", []byte("v"), time.Millisecond))
	time.Sleep(5 * time.Millisecond)
	_, err := p.Get(ctx, "k")
	assert.ErrorIs(t, err, ErrMiss)

	ok, err := p.SetNX(ctx, "k", []byte("fresh"), 0)
	require.NoError(t, err)
	assert.True(t, ok, "expired key should be claimable")
}

func TestMemoryProviderListOrder(t *testing.T) {
	p := NewMemoryProvider()
	ctx := context.Background()

	for _, v := range []string{"a", "b", "c"} {
		_, err := p.RPush(ctx, "ledger", []byte(v))
		require.NoError(t, err)
	}

	items, err := p.LRange(ctx, "ledger", 0, -1)
	require.NoError(t, err)
	require.Len(t, items, 3)
	assert.Equal(t, "a", string(items[0]))
	assert.Equal(t, "c", string(items[2]))

	n, err := p.LPush(ctx, "window", []byte("new"))
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	n, err = p.LPush(ctx, "window", []byte("newer"))
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	items, err = p.LRange(ctx, "window", 0, -1)
	require.NoError(t, err)
	assert.Equal(t, "newer", string(items[0]), "LPush puts the newest entry first")
}

func TestMemoryProviderLTrimBoundsWindow(t *testing.T) {
	p := NewMemoryProvider()
	ctx := context.Background()

	for i := 0; i < 10; i++ {
		_, err := p.LPush(ctx, "w", []byte{byte('0' + i)})
		require.NoError(t, err)
	}
	require.NoError(t, p.LTrim(ctx, "w", 0, 4))

	length, err := p.LLen(ctx, "w")
	require.NoError(t, err)
	assert.Equal(t, int64(5), length)

	items, err := p.LRange(ctx, "w", 0, -1)
	require.NoError(t, err)
	assert.Equal(t, byte('9'), items[0][0], "trim keeps the newest entries")
}

func TestMemoryProviderLTrimEmptiesOnInvertedRange(t *testing.T) {
	p := NewMemoryProvider()
	ctx := context.Background()

	_, err := p.RPush(ctx, "l", []byte("x"))
	require.NoError(t, err)
	require.NoError(t, p.LTrim(ctx, "l", 5, 1))

	length, err := p.LLen(ctx, "l")
	require.NoError(t, err)
	assert.Zero(t, length)
}
