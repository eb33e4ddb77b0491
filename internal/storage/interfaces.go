package storage

import "context"

// KV is the persistent key-value store consumed by the cache tiers. All
// implementations must be safe for use from multiple goroutines.
type KV interface {
	// Get returns the stored value and whether the key exists. A missing key
	// is not an error.
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
	Close() error
}
