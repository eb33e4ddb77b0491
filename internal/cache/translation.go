// Package cache holds the process-wide shared caches: the two-tier
// translation cache and the single-flight refresh cache. Both tolerate
// concurrent use from multiple in-flight queries.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/vampirenirmal/krishicore/internal/storage"
)

// Entry is one immutable cached translation. A write is always
// insert-or-replace, never a partial update.
type Entry struct {
	Key        string    `json:"key"`
	Text       string    `json:"text"`
	SourceLang string    `json:"source_lang"`
	TargetLang string    `json:"target_lang"`
	Mode       string    `json:"mode,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

const (
	// hashBasisLimit bounds the hashing cost of long inputs: beyond it the
	// key is derived from the head and tail halves only, which stays stable
	// for near-duplicate long inputs.
	hashBasisLimit = 1200
	hashBasisHalf  = 600
)

// TranslationKey derives the content-addressed cache key for a
// (text, source, target) triple: tx_{target}_{source}_{hash}.
func TranslationKey(text, sourceLang, targetLang string) string {
	basis := text
	if len(basis) > hashBasisLimit {
		basis = basis[:hashBasisHalf] + basis[len(basis)-hashBasisHalf:]
	}
	sum := sha256.Sum256([]byte(basis))
	return fmt.Sprintf("tx_%s_%s_%s", targetLang, sourceLang, hex.EncodeToString(sum[:]))
}

// TranslationCache is a two-tier (memory + persistent) cache for
// translations. The memory tier evicts by insertion order once full - a FIFO
// approximation of LRU kept deliberately, not to be upgraded to true
// recency tracking. The memory tier stays authoritative for the process
// lifetime regardless of persistence outcome.
type TranslationCache struct {
	mu       sync.Mutex
	entries  map[string]Entry
	order    []string
	capacity int

	kv     storage.KV
	logger *slog.Logger
}

// NewTranslation creates a cache with the given memory capacity. kv may be
// nil for a memory-only cache.
func NewTranslation(capacity int, kv storage.KV) *TranslationCache {
	if capacity <= 0 {
		capacity = 300
	}
	return &TranslationCache{
		entries:  make(map[string]Entry),
		capacity: capacity,
		kv:       kv,
		logger:   slog.Default().With("component", "translation_cache"),
	}
}

// Get looks up a translation by content. A persistent-tier hit is promoted
// into the memory tier. Persistent-tier failures are logged and treated as
// misses.
func (c *TranslationCache) Get(ctx context.Context, text, sourceLang, targetLang string) (Entry, bool) {
	key := TranslationKey(text, sourceLang, targetLang)

	c.mu.Lock()
	entry, ok := c.entries[key]
	c.mu.Unlock()
	if ok {
		c.logger.Debug("memory tier hit", "cache_key", key)
		return entry, true
	}

	if c.kv == nil {
		return Entry{}, false
	}

	raw, found, err := c.kv.Get(ctx, key)
	if err != nil {
		c.logger.Warn("persistent tier read failed", "cache_key", key, "error", err)
		return Entry{}, false
	}
	if !found {
		return Entry{}, false
	}

	if err := json.Unmarshal([]byte(raw), &entry); err != nil {
		c.logger.Warn("persistent tier entry invalid", "cache_key", key, "error", err)
		return Entry{}, false
	}

	c.insert(entry)
	c.logger.Debug("persistent tier hit, promoted", "cache_key", key)
	return entry, true
}

// Put stores a translation. The memory tier is updated synchronously; the
// persistent write is fire-and-forget.
func (c *TranslationCache) Put(ctx context.Context, entry Entry) {
	if entry.Key == "" {
		entry.Key = TranslationKey(entry.Text, entry.SourceLang, entry.TargetLang)
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now()
	}

	c.insert(entry)

	if c.kv == nil {
		return
	}

	raw, err := json.Marshal(entry)
	if err != nil {
		c.logger.Warn("marshaling cache entry failed", "cache_key", entry.Key, "error", err)
		return
	}

	// The write must survive the request's cancellation.
	persistCtx := context.WithoutCancel(ctx)
	go func() {
		if err := c.kv.Set(persistCtx, entry.Key, string(raw)); err != nil {
			c.logger.Warn("persistent tier write failed", "cache_key", entry.Key, "error", err)
		}
	}()
}

func (c *TranslationCache) insert(entry Entry) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.entries[entry.Key]; !exists {
		if len(c.order) >= c.capacity {
			oldest := c.order[0]
			c.order = c.order[1:]
			delete(c.entries, oldest)
			c.logger.Debug("evicted oldest entry", "cache_key", oldest)
		}
		c.order = append(c.order, entry.Key)
	}
	c.entries[entry.Key] = entry
}

// Len reports the memory-tier size.
func (c *TranslationCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Clear drops the memory tier. The persistent tier is left intact.
func (c *TranslationCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]Entry)
	c.order = nil
}
