package cache

import (
	"context"
	"encoding/json"
	"sync"
	"time"
)

type memoryCache struct {
	ttl time.Duration

	mu      sync.Mutex
	entries map[string]Entry

	stopSweep chan struct{}
	stopOnce  sync.Once
}

// NewMemory builds an in-process result cache. Entries live for ttl from the
// moment of Store; a background sweep reclaims expired entries every
// sweepInterval independent of access.
func NewMemory(ttl, sweepInterval time.Duration) ResultCache {
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	c := &memoryCache{
		ttl:       ttl,
		entries:   make(map[string]Entry),
		stopSweep: make(chan struct{}),
	}
	if sweepInterval > 0 {
		go c.sweep(sweepInterval)
	}
	return c
}

func (c *memoryCache) Lookup(_ context.Context, key string) (Entry, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	entry, ok := c.entries[key]
	if !ok {
		return Entry{}, false, nil
	}
	if time.Now().After(entry.ExpiresAt) {
		delete(c.entries, key)
		return Entry{}, false, nil
	}
	return cloneEntry(entry), true, nil
}

func (c *memoryCache) Store(_ context.Context, key string, entry Entry) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if entry.StoredAt.IsZero() {
		entry.StoredAt = time.Now().UTC()
	}
	if entry.ExpiresAt.IsZero() || entry.ExpiresAt.Before(entry.StoredAt) {
		entry.ExpiresAt = entry.StoredAt.Add(c.ttl)
	}
	c.entries[key] = cloneEntry(entry)
	return nil
}

func (c *memoryCache) Size(_ context.Context) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return int64(len(c.entries)), nil
}

func (c *memoryCache) Close(_ context.Context) error {
	c.stopOnce.Do(func() {
		close(c.stopSweep)
	})
	return nil
}

func (c *memoryCache) sweep(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-c.stopSweep:
			return
		case <-ticker.C:
			c.mu.Lock()
			now := time.Now()
			for key, entry := range c.entries {
				if now.After(entry.ExpiresAt) {
					delete(c.entries, key)
				}
			}
			c.mu.Unlock()
		}
	}
}

// cloneEntry copies the aggregate so callers cannot mutate cached state.
func cloneEntry(in Entry) Entry {
	out := Entry{
		Aggregate: Aggregate{SessionToken: in.Aggregate.SessionToken},
		StoredAt:  in.StoredAt,
		ExpiresAt: in.ExpiresAt,
	}
	if in.Aggregate.Competitions != nil {
		out.Aggregate.Competitions = make([]Competition, len(in.Aggregate.Competitions))
		for i, comp := range in.Aggregate.Competitions {
			cloned := comp
			if comp.Contests != nil {
				cloned.Contests = make([]json.RawMessage, len(comp.Contests))
				for j, contest := range comp.Contests {
					cloned.Contests[j] = append(json.RawMessage(nil), contest...)
				}
			}
			out.Aggregate.Competitions[i] = cloned
		}
	}
	return out
}
