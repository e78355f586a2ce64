package offcache

import (
	"encoding/json"
	"time"
)

// CacheEntry is the persisted form of a cached value.
type CacheEntry struct {
	Key string `json:"key"`

	// Data is the cached value, stored verbatim as JSON.
	Data json.RawMessage `json:"data"`

	// Timestamp is the unix time in milliseconds when the entry was stored.
	Timestamp int64 `json:"timestamp"`

	// Expiry is the unix time in milliseconds from which the entry is stale.
	Expiry int64 `json:"expiry"`
}

// StoredAt returns the insertion time.
func (e *CacheEntry) StoredAt() time.Time {
	return time.UnixMilli(e.Timestamp)
}

// ExpiresAt returns the time from which the entry is treated as absent.
func (e *CacheEntry) ExpiresAt() time.Time {
	return time.UnixMilli(e.Expiry)
}

// Expired returns true if the entry is stale at now.
func (e *CacheEntry) Expired(now time.Time) bool {
	return now.UnixMilli() >= e.Expiry
}

// PendingAction is a mutation recorded while it could not be performed.
type PendingAction struct {
	ID string `json:"id"`

	// Payload is the caller's description of the mutation, stored as JSON.
	Payload json.RawMessage `json:"payload"`

	// Timestamp is the unix time in milliseconds when the action was queued.
	Timestamp int64 `json:"timestamp"`

	// Attempts counts failed replays.
	Attempts int `json:"attempts,omitempty"`

	// LastError is the message of the most recent failed replay.
	LastError string `json:"lastError,omitempty"`
}

// QueuedAt returns the enqueue time.
func (a PendingAction) QueuedAt() time.Time {
	return time.UnixMilli(a.Timestamp)
}

// Decode unmarshals the payload into v.
func (a PendingAction) Decode(v any) error {
	return json.Unmarshal(a.Payload, v)
}

// Outcome reports how far a best-effort operation got. Store failures are
// never returned as errors; they show up here and in the logs.
type Outcome int

const (
	// OutcomeOK means the operation fully reached the store.
	OutcomeOK Outcome = iota
	// OutcomeDegraded means the store rejected the operation; the failure was logged.
	OutcomeDegraded
	// OutcomeFailed means the operation was not attempted, e.g. the cache is closed.
	OutcomeFailed
)

func (o Outcome) String() string {
	switch o {
	case OutcomeOK:
		return "ok"
	case OutcomeDegraded:
		return "degraded"
	case OutcomeFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Source names where FetchWithFallback got its data from.
type Source string

const (
	SourceNetwork    Source = "network"
	SourceCache      Source = "cache"
	SourceStaleCache Source = "stale_cache"
)

// FetchResult is the value served by FetchWithFallback.
type FetchResult struct {
	Data   json.RawMessage
	Source Source

	// Err holds the fetch error suppressed in favour of a cached fallback.
	Err error
}

// Degraded reports whether the result was served in place of a failed fetch.
func (r *FetchResult) Degraded() bool {
	return r.Source == SourceStaleCache
}

// SyncReport describes one pass over the pending action queue.
type SyncReport struct {
	// Replayed counts actions confirmed by the replayer and removed from the queue.
	Replayed int
	// Failed counts actions that failed and stay queued for the next sync.
	Failed int
	// DeadLettered counts actions dropped after a permanent error or too many attempts.
	DeadLettered int
	// Remaining is the queue length when the pass ended.
	Remaining int
	// Skipped is set when another sync was already running. The running sync makes
	// another pass before it returns.
	Skipped bool
	// Interrupted is set when the pass stopped early because the network went away or ctx ended.
	Interrupted bool
	// Err is set when the pass could not run at all.
	Err error
}
