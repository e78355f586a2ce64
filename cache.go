package offcache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/achu-1612/offcache/eviction"
	"github.com/achu-1612/offcache/log"
	"github.com/achu-1612/offcache/network"
	"github.com/achu-1612/offcache/storage"
)

// make sure cache implements the Cache interface
var _ Cache = (*cache)(nil)

// cache is the offline cache that implements the Cache interface
type cache struct {
	// mu serializes every read-modify-write of the store: lazy eviction
	// on read and the queue updates.
	mu sync.Mutex

	store     storage.Store
	ownsStore bool

	// hot keeps decoded entries in memory in front of the store.
	hot eviction.Eviction

	namespace string
	queueKey  string
	ttl       time.Duration

	online      atomic.Bool
	monitor     network.Monitor
	unsubscribe func()

	replayer    Replayer
	maxAttempts int
	deadLetter  func(PendingAction, error)
	syncMu      sync.Mutex
	rerun       atomic.Bool // a sync was skipped while another ran

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
	bgMu   sync.Mutex // orders wg.Add against Close
	closed atomic.Bool

	metrics Metrics
	now     func() time.Time

	l log.Logger
}

func (c *cache) entryKey(key string) string {
	return c.namespace + key
}

// Put stores data under key with a time-to-live.
func (c *cache) Put(key string, data any, ttl time.Duration) Outcome {
	if c.closed.Load() {
		c.l.Warnf("put key '%s' on closed cache", key)

		return OutcomeFailed
	}

	if ttl <= 0 {
		ttl = c.ttl
	}

	raw, err := json.Marshal(data)
	if err != nil {
		c.storeFailure("put", fmt.Errorf("%w: encoding key '%s': %v", ErrStoreWrite, key, err))

		return OutcomeDegraded
	}

	now := c.now()

	entry := &CacheEntry{
		Key:       key,
		Data:      raw,
		Timestamp: now.UnixMilli(),
		Expiry:    now.Add(ttl).UnixMilli(),
	}

	if entry.Expiry <= entry.Timestamp {
		entry.Expiry = entry.Timestamp + 1
	}

	b, err := json.Marshal(entry)
	if err != nil {
		c.storeFailure("put", fmt.Errorf("%w: encoding entry '%s': %v", ErrStoreWrite, key, err))

		return OutcomeDegraded
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.store.Set(c.entryKey(key), b); err != nil {
		// the previous value may still be in the store; don't serve a copy that disagrees with it
		c.hot.Delete(key)
		c.storeFailure("put", fmt.Errorf("%w: key '%s': %v", ErrStoreWrite, key, err))

		return OutcomeDegraded
	}

	c.hot.Put(key, entry)

	c.l.Debugf("put key '%s' expires at %s", key, entry.ExpiresAt().Format(time.RFC3339))

	return OutcomeOK
}

// Get returns the fresh data stored under key.
func (c *cache) Get(key string) (json.RawMessage, bool) {
	if c.closed.Load() {
		return nil, false
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.lookup(key)

	c.metrics.ObserveRead(ok)

	if !ok {
		c.l.Debugf("key '%s' not found", key)

		return nil, false
	}

	c.l.Debugf("get key '%s'", key)

	out := make(json.RawMessage, len(entry.Data))
	copy(out, entry.Data)

	return out, true
}

// lookup finds the fresh entry for key, evicting it if it has expired.
// The caller holds c.mu.
func (c *cache) lookup(key string) (*CacheEntry, bool) {
	now := c.now()

	if v, ok := c.hot.Get(key); ok {
		entry := v.(*CacheEntry)
		if !entry.Expired(now) {
			return entry, true
		}
	}

	b, err := c.store.Get(c.entryKey(key))
	if errors.Is(err, storage.ErrNotFound) {
		c.hot.Delete(key)

		return nil, false
	}

	if err != nil {
		c.storeFailure("get", fmt.Errorf("%w: key '%s': %v", ErrStoreRead, key, err))

		return nil, false
	}

	entry := &CacheEntry{}
	if err := json.Unmarshal(b, entry); err != nil {
		c.storeFailure("get", fmt.Errorf("%w: decoding key '%s': %v", ErrStoreRead, key, err))

		return nil, false
	}

	if entry.Expired(now) {
		c.hot.Delete(key)
		c.metrics.ObserveExpired()

		if err := c.store.Delete(c.entryKey(key)); err != nil {
			c.storeFailure("remove", fmt.Errorf("%w: evicting key '%s': %v", ErrStoreWrite, key, err))
		}

		c.l.Debugf("key '%s' expired at %s, evicted", key, entry.ExpiresAt().Format(time.RFC3339))

		return nil, false
	}

	c.hot.Put(key, entry)

	return entry, true
}

// Remove deletes key from the cache.
func (c *cache) Remove(key string) Outcome {
	if c.closed.Load() {
		return OutcomeFailed
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.hot.Delete(key)

	if err := c.store.Delete(c.entryKey(key)); err != nil {
		c.storeFailure("remove", fmt.Errorf("%w: key '%s': %v", ErrStoreWrite, key, err))

		return OutcomeDegraded
	}

	c.l.Debugf("removed key '%s'", key)

	return OutcomeOK
}

// ClearAll deletes every entry of the namespace.
func (c *cache) ClearAll() Outcome {
	if c.closed.Load() {
		return OutcomeFailed
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.hot.Clear()

	keys, err := c.store.Keys(c.namespace)
	if err != nil {
		c.storeFailure("clear", fmt.Errorf("%w: listing namespace: %v", ErrStoreRead, err))

		return OutcomeDegraded
	}

	outcome := OutcomeOK

	for _, k := range keys {
		if err := c.store.Delete(k); err != nil {
			c.storeFailure("clear", fmt.Errorf("%w: key '%s': %v", ErrStoreWrite, k, err))

			outcome = OutcomeDegraded
		}
	}

	c.l.Debugf("cache cleared. keys: %d", len(keys))

	return outcome
}

// IsOnline returns the current reachability snapshot.
func (c *cache) IsOnline() bool {
	return c.online.Load()
}

// FetchWithFallback serves key according to reachability and freshness:
// offline with a fresh entry returns it without calling fetch; online calls
// fetch, caching its result, and falls back to the cached entry if fetch
// fails; offline without an entry fails with ErrNoCachedDataOffline.
func (c *cache) FetchWithFallback(ctx context.Context, key string, fetch FetchFunc, ttl time.Duration) (*FetchResult, error) {
	if c.closed.Load() {
		return nil, ErrClosed
	}

	cached, hit := c.Get(key)

	if !c.IsOnline() {
		if hit {
			c.metrics.ObserveFetch(string(SourceCache))
			c.l.Debugf("offline, serving key '%s' from cache", key)

			return &FetchResult{Data: cached, Source: SourceCache}, nil
		}

		c.metrics.ObserveFetch("error")

		return nil, fmt.Errorf("key '%s': %w", key, ErrNoCachedDataOffline)
	}

	v, err := fetch(ctx)
	if err != nil {
		if hit {
			c.metrics.ObserveFetch(string(SourceStaleCache))
			c.l.Warnf("fetch for key '%s' failed, serving cached data: %v", key, err)

			return &FetchResult{Data: cached, Source: SourceStaleCache, Err: err}, nil
		}

		c.metrics.ObserveFetch("error")

		return nil, fmt.Errorf("key '%s': %w: %w", key, ErrFetchFailed, err)
	}

	raw, err := json.Marshal(v)
	if err != nil {
		// nothing to cache; the caller still gets what fetch produced through Fetch
		c.storeFailure("put", fmt.Errorf("%w: encoding key '%s': %v", ErrStoreWrite, key, err))
		c.metrics.ObserveFetch(string(SourceNetwork))

		return &FetchResult{Source: SourceNetwork}, nil
	}

	c.Put(key, json.RawMessage(raw), ttl)
	c.metrics.ObserveFetch(string(SourceNetwork))

	return &FetchResult{Data: raw, Source: SourceNetwork}, nil
}

// Close unsubscribes from the monitor, waits for a running sync and closes
// the store if the cache created it.
func (c *cache) Close() error {
	c.bgMu.Lock()
	if !c.closed.CompareAndSwap(false, true) {
		c.bgMu.Unlock()

		return nil
	}
	c.bgMu.Unlock()

	c.unsubscribe()
	c.cancel()
	c.wg.Wait()

	c.l.Debug("cache closed")

	if c.ownsStore {
		return c.store.Close()
	}

	return nil
}

// storeFailure logs and counts a swallowed store failure.
func (c *cache) storeFailure(op string, err error) {
	c.metrics.ObserveStoreFailure(op)
	c.l.Warnf("%s: %v", op, err)
}
