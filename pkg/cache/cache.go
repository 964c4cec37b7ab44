// Package cache provides content-addressed caching for pipeline results.
//
// The only stage worth caching is optical music recognition: a single page
// takes the external engine minutes, while combining and transposing a
// whole score takes milliseconds. Recognition results are keyed by the
// SHA-256 hash of the page image plus the engine identity, so re-running a
// pipeline over an unchanged PDF skips the engine entirely and editing one
// page invalidates only that page.
//
// Backends:
//   - file: per-user cache directory, the CLI default
//   - redis: shared cache for multi-machine setups
//   - null: caching disabled, used in tests
package cache

import (
	"context"
	"time"
)

// TTLs per entry kind.
const (
	// TTLRecognition is how long OMR output stays cached. Page images are
	// content-addressed, so entries never go stale; the TTL only bounds
	// disk usage.
	TTLRecognition = 30 * 24 * time.Hour
)

// Cache is the interface all cache backends implement.
type Cache interface {
	// Get retrieves a value. The second return reports whether the key
	// was present and unexpired.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores a value with a TTL. A zero TTL means no expiration.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes a value. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases backend resources.
	Close() error
}

// Keyer builds cache keys for pipeline stages.
type Keyer interface {
	// RecognitionKey builds the key for one page's OMR output.
	RecognitionKey(imageHash, engine string) string
}

// DefaultKeyer is the standard key scheme.
type DefaultKeyer struct{}

// NewDefaultKeyer creates the standard keyer.
func NewDefaultKeyer() Keyer {
	return &DefaultKeyer{}
}

// RecognitionKey generates a key for OMR output caching.
func (k *DefaultKeyer) RecognitionKey(imageHash, engine string) string {
	return hashKey("omr", imageHash, engine)
}
