package store

import (
	"context"
	"sync"
	"time"
)

// MemoryProvider implements Provider with in-process maps. It backs tests
// and single-node deployments that run without a Valkey cluster; each
// operation holds the provider mutex, which supplies the same per-key
// append serialization the server would.
type MemoryProvider struct {
	mu    sync.Mutex
	kv    map[string]memoryItem
	lists map[string][][]byte
}

type memoryItem struct {
	value     []byte
	expiresAt time.Time
}

// NewMemoryProvider creates an empty in-memory provider.
func NewMemoryProvider() *MemoryProvider {
	return &MemoryProvider{
		kv:    make(map[string]memoryItem),
		lists: make(map[string][][]byte),
	}
}

// Get retrieves a value if present and not expired.
func (m *MemoryProvider) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	it, ok := m.kv[key]
	if !ok {
		return nil, ErrMiss
	}
	if !it.expiresAt.IsZero() && time.Now().After(it.expiresAt) {
		delete(m.kv, key)
		return nil, ErrMiss
	}
	out := make([]byte, len(it.value))
	copy(out, it.value)
	return out, nil
}

// Set stores a value with optional TTL.
func (m *MemoryProvider) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.kv[key] = newItem(value, ttl)
	return nil
}

// SetNX stores the value only if the key is absent or expired.
func (m *MemoryProvider) SetNX(_ context.Context, key string, value []byte, ttl time.Duration) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if it, ok := m.kv[key]; ok {
		if it.expiresAt.IsZero() || time.Now().Before(it.expiresAt) {
			return false, nil
		}
	}
	m.kv[key] = newItem(value, ttl)
	return true, nil
}

// Del removes a key from both the KV and list namespaces.
func (m *MemoryProvider) Del(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.kv, key)
	delete(m.lists, key)
	return nil
}

// LPush prepends values to the list at key and returns the new length.
func (m *MemoryProvider) LPush(_ context.Context, key string, values ...[]byte) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	list := m.lists[key]
	for _, v := range values {
		entry := make([]byte, len(v))
		copy(entry, v)
		list = append([][]byte{entry}, list...)
	}
	m.lists[key] = list
	return int64(len(list)), nil
}

// RPush appends values to the list at key and returns the new length.
func (m *MemoryProvider) RPush(_ context.Context, key string, values ...[]byte) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	list := m.lists[key]
	for _, v := range values {
		entry := make([]byte, len(v))
		copy(entry, v)
		list = append(list, entry)
	}
	m.lists[key] = list
	return int64(len(list)), nil
}

// LTrim trims the list at key to the inclusive [start, stop] range.
func (m *MemoryProvider) LTrim(_ context.Context, key string, start, stop int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	list, ok := m.lists[key]
	if !ok {
		return nil
	}
	lo, hi := normaliseRange(start, stop, int64(len(list)))
	if lo > hi {
		delete(m.lists, key)
		return nil
	}
	m.lists[key] = list[lo : hi+1]
	return nil
}

// LRange returns list elements in the inclusive [start, stop] range.
func (m *MemoryProvider) LRange(_ context.Context, key string, start, stop int64) ([][]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	list, ok := m.lists[key]
	if !ok {
		return nil, nil
	}
	lo, hi := normaliseRange(start, stop, int64(len(list)))
	if lo > hi {
		return nil, nil
	}
	out := make([][]byte, 0, hi-lo+1)
	for _, v := range list[lo : hi+1] {
		entry := make([]byte, len(v))
		copy(entry, v)
		out = append(out, entry)
	}
	return out, nil
}

// LLen returns the length of the list at key.
func (m *MemoryProvider) LLen(_ context.Context, key string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return int64(len(m.lists[key])), nil
}

// Close is a no-op for the in-memory provider.
func (m *MemoryProvider) Close() error { return nil }

func newItem(value []byte, ttl time.Duration) memoryItem {
	entry := make([]byte, len(value))
	copy(entry, value)
	it := memoryItem{value: entry}
	if ttl > 0 {
		it.expiresAt = time.Now().Add(ttl)
	}
	return it
}

// normaliseRange maps Redis-style negative indexes onto [0, length).
func normaliseRange(start, stop, length int64) (int64, int64) {
	if start < 0 {
		start += length
	}
	if stop < 0 {
		stop += length
	}
	if start < 0 {
		start = 0
	}
	if stop >= length {
		stop = length - 1
	}
	return start, stop
}
