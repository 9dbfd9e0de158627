// Package store provides push-capable key/value storage over hierarchical
// slash-separated paths. It is the only persistence and invalidation
// primitive in the system: every write fans a change event out to
// subscribers of the written path's prefixes.
package store

import (
	"context"
	"errors"
	"math/rand"
	"strings"
	"time"
)

// ErrNotFound is returned when a path has no value.
var ErrNotFound = errors.New("store: path not found")

// ErrConflict signals a concurrent commit raced an atomic update attempt.
// It is retried internally and never escapes a Store method.
var ErrConflict = errors.New("store: concurrent update conflict")

// ErrRetryExhausted is returned when an atomic update gave up after the
// bounded attempt count. The leaf is left at a committed value.
var ErrRetryExhausted = errors.New("store: atomic update retries exhausted")

// EventKind distinguishes writes from deletes in change events.
type EventKind string

const (
	EventPut    EventKind = "put"
	EventDelete EventKind = "delete"
	// EventResync is broadcast to every subscriber after a lost push
	// connection is re-established, so each one can rebuild a fresh
	// snapshot instead of staying permanently stale.
	EventResync EventKind = "resync"
)

// Event describes a single committed change under a subscribed prefix.
type Event struct {
	Path string
	Kind EventKind
}

// UpdateFn receives the current value of a numeric leaf (zero when the
// leaf does not exist yet) and returns the value to commit. The store
// guarantees the commit applies against the value current at commit time.
type UpdateFn func(current int64) int64

// Store is the uniform access layer over a hierarchical push-capable
// key/value store.
type Store interface {
	// Read returns the JSON value at a leaf path.
	Read(ctx context.Context, path string) ([]byte, error)
	// Write upserts the leaf at path and notifies subscribers.
	Write(ctx context.Context, path string, value []byte) error
	// Delete removes the leaf at path. Deleting an absent path is a no-op.
	Delete(ctx context.Context, path string) error
	// List returns the direct children of a collection path, keyed by the
	// child's final path segment. An empty collection yields an empty map.
	List(ctx context.Context, path string) (map[string][]byte, error)
	// AtomicUpdate applies fn to the numeric leaf at path as a retrying
	// compare-and-swap. On retry exhaustion the leaf is left at a
	// committed value, never a partial one.
	AtomicUpdate(ctx context.Context, path string, fn UpdateFn) (int64, error)
	// Subscribe registers fn for change events at or under prefix. The
	// returned function cancels the subscription; it is idempotent and no
	// event is delivered after it returns.
	Subscribe(prefix string, fn func(Event)) (unsubscribe func())
	// Close tears down all subscriptions and releases resources.
	Close() error
}

// Retry policy for atomic updates. Exhaustion surfaces as a transient
// store failure to the caller.
const (
	maxTxAttempts  = 8
	txBackoffBase  = 2 * time.Millisecond
	txBackoffLimit = 100 * time.Millisecond
)

// txBackoff returns the sleep before retry attempt (1-based) with jitter.
func txBackoff(attempt int) time.Duration {
	d := txBackoffBase << uint(attempt-1)
	if d > txBackoffLimit {
		d = txBackoffLimit
	}
	return d/2 + time.Duration(rand.Int63n(int64(d/2)+1))
}

// Join builds a path from segments.
func Join(segments ...string) string {
	return strings.Join(segments, "/")
}

// Parent returns the collection path containing path, or "" at the root.
func Parent(path string) string {
	i := strings.LastIndexByte(path, '/')
	if i < 0 {
		return ""
	}
	return path[:i]
}

// Key returns the final segment of path.
func Key(path string) string {
	i := strings.LastIndexByte(path, '/')
	return path[i+1:]
}

// Under reports whether path equals prefix or lies beneath it.
func Under(path, prefix string) bool {
	if path == prefix {
		return true
	}
	return strings.HasPrefix(path, prefix+"/")
}

// ValidPath reports whether p is a non-empty path with no empty segments.
func ValidPath(p string) bool {
	if p == "" {
		return false
	}
	for _, seg := range strings.Split(p, "/") {
		if seg == "" {
			return false
		}
	}
	return true
}
