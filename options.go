package offcache

import (
	"time"

	"github.com/achu-1612/offcache/eviction"
	"github.com/achu-1612/offcache/network"
	"github.com/achu-1612/offcache/storage"
)

const (
	// DefaultNamespace prefixes every cache entry key in the store.
	DefaultNamespace = "playschool_cache_"

	// DefaultQueueKey is the store key holding the pending action queue.
	DefaultQueueKey = "playschool_offline_actions"

	// DefaultDuration is the time-to-live of entries written without one.
	DefaultDuration = 24 * time.Hour

	// DefaultMaxReplayAttempts bounds how often a failing action is retried.
	DefaultMaxReplayAttempts = 5
)

// Metrics receives the cache's activity. *metrics.Recorder implements it.
type Metrics interface {
	ObserveRead(hit bool)
	ObserveExpired()
	ObserveStoreFailure(op string)
	ObserveFetch(source string)
	ObserveReplay(result string)
	SetQueueDepth(n int)
	SetOnline(online bool)
}

// Options represents the options for the offline cache initialization.
type Options struct {
	// Store persists entries and the action queue. Defaults to an in-memory store
	// owned (and closed) by the cache.
	Store storage.Store

	// Monitor drives the reachability state. Defaults to a Manual monitor reporting online.
	Monitor network.Monitor

	// Replayer performs queued actions once the network is back.
	// Without one, Sync keeps the queue untouched.
	Replayer Replayer

	// Namespace prefixes entry keys so the cache can share a store with unrelated data.
	Namespace string

	// QueueKey is the store key of the action queue. It must not start with Namespace.
	QueueKey string

	// DefaultDuration is used by Put and FetchWithFallback when no TTL is given.
	DefaultDuration time.Duration

	// MaxReplayAttempts is the number of failed replays after which an action is dead-lettered.
	MaxReplayAttempts int

	// OnDeadLetter is called with every action dropped from the queue without success.
	OnDeadLetter func(PendingAction, error)

	// MemoryCacheSize keeps up to this many decoded entries in memory under EvictionPolicy.
	MemoryCacheSize int
	EvictionPolicy  eviction.Policy

	Metrics Metrics

	// Now is the clock. Defaults to time.Now.
	Now func() time.Time

	SupressLog bool
	DebugLogs  bool
}
