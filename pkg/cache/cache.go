// Package cache memoises values that are expensive to rebuild, such as
// parsed engine reports.
package cache

import (
	"strconv"
	"time"

	"github.com/cespare/xxhash/v2"
)

// Cache is the interface for the in-process value cache.
type Cache interface {
	// Get retrieves a value from the cache.
	// Returns (value, true) if found, (nil, false) if not found.
	Get(key string) (any, bool)

	// Set stores a value in the cache with a TTL.
	Set(key string, value any, ttl time.Duration) bool

	// Delete removes a value from the cache.
	Delete(key string)

	// Clear removes all values from the cache.
	Clear()

	// Close closes the cache and releases resources.
	Close()
}

// TextKey derives a compact key from a report text. Callers must compare the
// cached value against the text on a hit: keys can collide.
func TextKey(namespace string, text string) string {
	return namespace + ":" + strconv.FormatUint(xxhash.Sum64String(text), 16)
}
