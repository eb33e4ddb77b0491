package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/vampirenirmal/krishicore/internal/storage"
)

// Fetcher produces a fresh payload for one logical resource. It is only
// invoked when no valid cached payload exists (or when forced).
type Fetcher func(ctx context.Context) ([]byte, error)

// RefreshResult is the outcome of GetOrRefresh.
type RefreshResult struct {
	FromCache bool
	Payload   []byte
}

type refreshEntry struct {
	Timestamp time.Time `json:"timestamp"`
	Payload   []byte    `json:"payload"`
}

// RefreshCache is a TTL-based cache for expensive refresh operations.
// Concurrent callers during a miss share exactly one upstream fetch; a
// fetch failure propagates to the callers of that specific fetch while the
// in-flight marker is always cleared so later calls can retry.
type RefreshCache struct {
	mu      sync.Mutex
	entries map[string]refreshEntry

	ttl    time.Duration
	group  singleflight.Group
	kv     storage.KV
	logger *slog.Logger
}

// NewRefresh creates a refresh cache with the given TTL. kv may be nil for
// a memory-only cache.
func NewRefresh(ttl time.Duration, kv storage.KV) *RefreshCache {
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	return &RefreshCache{
		entries: make(map[string]refreshEntry),
		ttl:     ttl,
		kv:      kv,
		logger:  slog.Default().With("component", "refresh_cache"),
	}
}

// GetOrRefresh returns the cached payload for key when it is still within
// TTL, otherwise runs fetch exactly once across all concurrent callers.
// force bypasses both cache tiers and any in-flight fetch.
func (c *RefreshCache) GetOrRefresh(ctx context.Context, key string, force bool, fetch Fetcher) (RefreshResult, error) {
	if !force {
		if entry, ok := c.fresh(key); ok {
			c.logger.Debug("memory tier hit", "resource", key, "age", time.Since(entry.Timestamp))
			return RefreshResult{FromCache: true, Payload: entry.Payload}, nil
		}

		if entry, ok := c.loadPersisted(ctx, key); ok && time.Since(entry.Timestamp) < c.ttl {
			c.hydrate(key, entry)
			c.logger.Debug("persistent tier hit, hydrated", "resource", key, "age", time.Since(entry.Timestamp))
			return RefreshResult{FromCache: true, Payload: entry.Payload}, nil
		}
	}

	if force {
		// A forced refresh must not piggyback on a fetch that started
		// before it was requested.
		c.group.Forget(key)
	}

	payload, err, shared := c.group.Do(key, func() (any, error) {
		start := time.Now()
		data, err := fetch(ctx)
		if err != nil {
			c.logger.Warn("refresh fetch failed",
				"resource", key,
				"duration_ms", time.Since(start).Milliseconds(),
				"error", err)
			return nil, err
		}

		entry := refreshEntry{Timestamp: time.Now(), Payload: data}
		c.hydrate(key, entry)
		c.persist(ctx, key, entry)

		c.logger.Info("resource refreshed",
			"resource", key,
			"duration_ms", time.Since(start).Milliseconds(),
			"payload_bytes", len(data))
		return data, nil
	})
	if err != nil {
		return RefreshResult{}, fmt.Errorf("refreshing %s: %w", key, err)
	}

	if shared {
		c.logger.Debug("joined in-flight refresh", "resource", key)
	}

	return RefreshResult{FromCache: false, Payload: payload.([]byte)}, nil
}

// Last returns the most recent payload for key regardless of TTL, consulting
// the persistent tier on a memory miss. Used for graceful degradation when a
// refresh fails.
func (c *RefreshCache) Last(ctx context.Context, key string) ([]byte, bool) {
	c.mu.Lock()
	entry, ok := c.entries[key]
	c.mu.Unlock()
	if ok {
		return entry.Payload, true
	}

	if entry, found := c.loadPersisted(ctx, key); found {
		return entry.Payload, true
	}
	return nil, false
}

// Prime seeds the memory tier with a payload and timestamp. Intended for
// tests and cache warm-up.
func (c *RefreshCache) Prime(key string, payload []byte, timestamp time.Time) {
	c.hydrate(key, refreshEntry{Timestamp: timestamp, Payload: payload})
}

func (c *RefreshCache) fresh(key string) (refreshEntry, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	entry, ok := c.entries[key]
	if !ok || time.Since(entry.Timestamp) >= c.ttl {
		return refreshEntry{}, false
	}
	return entry, true
}

func (c *RefreshCache) hydrate(key string, entry refreshEntry) {
	c.mu.Lock()
	c.entries[key] = entry
	c.mu.Unlock()
}

func (c *RefreshCache) loadPersisted(ctx context.Context, key string) (refreshEntry, bool) {
	if c.kv == nil {
		return refreshEntry{}, false
	}

	raw, found, err := c.kv.Get(ctx, c.storageKey(key))
	if err != nil {
		c.logger.Warn("persistent tier read failed", "resource", key, "error", err)
		return refreshEntry{}, false
	}
	if !found {
		return refreshEntry{}, false
	}

	var entry refreshEntry
	if err := json.Unmarshal([]byte(raw), &entry); err != nil {
		c.logger.Warn("persistent tier entry invalid", "resource", key, "error", err)
		return refreshEntry{}, false
	}
	return entry, true
}

func (c *RefreshCache) persist(ctx context.Context, key string, entry refreshEntry) {
	if c.kv == nil {
		return
	}

	raw, err := json.Marshal(entry)
	if err != nil {
		c.logger.Warn("marshaling refresh entry failed", "resource", key, "error", err)
		return
	}

	if err := c.kv.Set(context.WithoutCancel(ctx), c.storageKey(key), string(raw)); err != nil {
		c.logger.Warn("persistent tier write failed", "resource", key, "error", err)
	}
}

func (c *RefreshCache) storageKey(key string) string {
	return "refresh_" + key
}
