package cache

import (
	"context"
	"sync"
	"time"
)

// Store is the byte cache the report engine talks to. Implementations must be safe
// for concurrent use. A ttl <= 0 means the entry does not expire.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, val []byte, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
}

// Memory is an in-process TTL map, used when no Redis address is configured.
// Expired entries are dropped on read and by a sweep that Set runs at most once per
// sweepEvery, so keys that are never read again still get freed.
type Memory struct {
	mu         sync.RWMutex
	now        func() time.Time
	m          map[string]entry
	sweepEvery time.Duration
	lastSweep  time.Time
}

type entry struct {
	val []byte
	exp time.Time // zero means no expiry
}

func NewMemory() *Memory {
	return &Memory{
		now:        time.Now,
		m:          make(map[string]entry),
		sweepEvery: time.Minute,
	}
}

func (c *Memory) Get(_ context.Context, key string) ([]byte, bool, error) {
	now := c.now()
	c.mu.RLock()
	e, ok := c.m[key]
	c.mu.RUnlock()
	if !ok {
		return nil, false, nil
	}

	if !e.exp.IsZero() && now.After(e.exp) {
		c.mu.Lock()
		delete(c.m, key)
		c.mu.Unlock()
		return nil, false, nil
	}

	out := make([]byte, len(e.val))
	copy(out, e.val)

	return out, true, nil
}

func (c *Memory) Set(_ context.Context, key string, val []byte, ttl time.Duration) error {
	stored := make([]byte, len(val))
	copy(stored, val)

	now := c.now()

	e := entry{val: stored}
	if ttl > 0 {
		e.exp = now.Add(ttl)
	}

	c.mu.Lock()
	c.sweep(now)
	c.m[key] = e
	c.mu.Unlock()

	return nil
}

// sweep drops expired entries at most once per sweepEvery; caller holds c.mu.
func (c *Memory) sweep(now time.Time) {
	if now.Sub(c.lastSweep) < c.sweepEvery {
		return
	}
	c.lastSweep = now

	for k, e := range c.m {
		if !e.exp.IsZero() && now.After(e.exp) {
			delete(c.m, k)
		}
	}
}

func (c *Memory) Delete(_ context.Context, keys ...string) error {
	c.mu.Lock()
	for _, k := range keys {
		delete(c.m, k)
	}
	c.mu.Unlock()

	return nil
}

func (c *Memory) Clear() {
	c.mu.Lock()
	c.m = make(map[string]entry)
	c.mu.Unlock()
}

func (c *Memory) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.m)
}
