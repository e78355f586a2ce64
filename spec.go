package offcache

import (
	"context"
	"encoding/json"
	"time"
)

// FetchFunc loads fresh data for a read-through call.
type FetchFunc func(ctx context.Context) (any, error)

//go:generate mockgen -destination=mock_replayer_test.go -package=offcache -self_package=github.com/achu-1612/offcache github.com/achu-1612/offcache Replayer

// Replayer performs a queued action against its backend.
// Returning an error wrapped with Permanent drops the action instead of retrying it.
type Replayer interface {
	Replay(ctx context.Context, action PendingAction) error
}

// ReplayFunc adapts a function to the Replayer interface.
type ReplayFunc func(ctx context.Context, action PendingAction) error

// Replay calls f.
func (f ReplayFunc) Replay(ctx context.Context, action PendingAction) error {
	return f(ctx, action)
}

// Cache is an expiring key-value cache with an offline action queue.
type Cache interface {
	// Put stores data under key for ttl (DefaultDuration when ttl <= 0).
	Put(key string, data any, ttl time.Duration) Outcome
	// Get returns the fresh data stored under key. Expired entries are evicted on discovery.
	Get(key string) (json.RawMessage, bool)
	// Remove deletes key.
	Remove(key string) Outcome
	// ClearAll deletes every entry of the namespace, leaving other keys of the store alone.
	ClearAll() Outcome

	// IsOnline returns the current reachability snapshot.
	IsOnline() bool

	// QueueAction appends payload to the pending action queue.
	QueueAction(payload any) (PendingAction, Outcome)
	// ListQueuedActions returns the queue in FIFO order.
	ListQueuedActions() []PendingAction
	// ClearQueuedActions empties the queue.
	ClearQueuedActions() Outcome

	// FetchWithFallback serves key from cache or network depending on reachability.
	FetchWithFallback(ctx context.Context, key string, fetch FetchFunc, ttl time.Duration) (*FetchResult, error)

	// Sync replays the queue. It runs automatically when the network comes back.
	Sync(ctx context.Context) SyncReport

	// Close unsubscribes from the monitor and waits for a running sync.
	Close() error
}
