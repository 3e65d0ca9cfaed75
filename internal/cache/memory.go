package cache

import (
	"context"
	"errors"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// Expired entries are swept on this period, in addition to lazy expiry on read.
const memoryCleanupInterval = 2 * time.Minute

// Memory is a process-local Store.
type Memory struct {
	c   *gocache.Cache
	ttl time.Duration
}

var _ Store = (*Memory)(nil)

// NewMemory creates an in-process cache whose entries live for defaultTTL.
func NewMemory(defaultTTL time.Duration) *Memory {
	return &Memory{
		c:   gocache.New(defaultTTL, memoryCleanupInterval),
		ttl: defaultTTL,
	}
}

func (m *Memory) Get(_ context.Context, key string, dst any) (bool, error) {
	v, ok := m.c.Get(key)
	if !ok {
		return false, nil
	}
	data, ok := v.([]byte)
	if !ok {
		// Counters live in the same keyspace; they are not JSON documents.
		return false, nil
	}
	if err := decode(data, dst); err != nil {
		return false, err
	}
	return true, nil
}

func (m *Memory) Set(ctx context.Context, key string, v any) error {
	return m.SetWithTTL(ctx, key, v, m.ttl)
}

func (m *Memory) SetWithTTL(_ context.Context, key string, v any, ttl time.Duration) error {
	data, err := encode(v)
	if err != nil {
		return err
	}
	m.c.Set(key, data, ttl)
	return nil
}

func (m *Memory) Delete(_ context.Context, keys ...string) error {
	for _, k := range keys {
		m.c.Delete(k)
	}
	return nil
}

func (m *Memory) Incr(_ context.Context, key string, ttl time.Duration) (int64, error) {
	// Add fails when the key exists; the increment can then race with expiry,
	// in which case the counter is recreated on the next pass.
	for attempt := 0; attempt < 3; attempt++ {
		if err := m.c.Add(key, int64(1), ttl); err == nil {
			return 1, nil
		}
		n, err := m.c.IncrementInt64(key, 1)
		if err == nil {
			return n, nil
		}
	}
	return 0, errors.New("increment counter: key kept changing")
}

// Flush drops every entry.
func (m *Memory) Flush() {
	m.c.Flush()
}
