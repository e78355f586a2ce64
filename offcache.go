package offcache

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/achu-1612/offcache/eviction"
	"github.com/achu-1612/offcache/log"
	"github.com/achu-1612/offcache/network"
	"github.com/achu-1612/offcache/storage"
)

// New creates an offline cache and subscribes it to the connectivity monitor.
// The cache stops its background work when ctx is done or Close is called.
func New(ctx context.Context, opt Options) (Cache, error) {
	c := &cache{
		store:       opt.Store,
		monitor:     opt.Monitor,
		replayer:    opt.Replayer,
		namespace:   opt.Namespace,
		queueKey:    opt.QueueKey,
		ttl:         opt.DefaultDuration,
		maxAttempts: opt.MaxReplayAttempts,
		deadLetter:  opt.OnDeadLetter,
		metrics:     opt.Metrics,
		now:         opt.Now,
		l:           log.New("cache", opt.SupressLog, opt.DebugLogs),
	}

	if c.namespace == "" {
		c.namespace = DefaultNamespace
	}

	if c.queueKey == "" {
		c.queueKey = DefaultQueueKey
	}

	if strings.HasPrefix(c.queueKey, c.namespace) {
		return nil, fmt.Errorf("%w: %q under %q", ErrInvalidQueueKey, c.queueKey, c.namespace)
	}

	if !opt.EvictionPolicy.Valid() {
		return nil, fmt.Errorf("unknown eviction policy %q", opt.EvictionPolicy)
	}

	if c.ttl <= 0 {
		c.ttl = DefaultDuration
	}

	if c.maxAttempts <= 0 {
		c.maxAttempts = DefaultMaxReplayAttempts
	}

	if c.now == nil {
		c.now = time.Now
	}

	if c.deadLetter == nil {
		c.deadLetter = func(PendingAction, error) {}
	}

	if c.metrics == nil {
		c.metrics = nopMetrics{}
	}

	if c.store == nil {
		s, err := storage.NewMemory(ctx, storage.MemoryOptions{SupressLog: opt.SupressLog, DebugLogs: opt.DebugLogs})
		if err != nil {
			return nil, fmt.Errorf("setting up store: %w", err)
		}

		c.l.Warn("no store provided, using an in-memory store")

		c.store = s
		c.ownsStore = true
	}

	if c.monitor == nil {
		c.l.Warn("no connectivity monitor provided, assuming the network is reachable")

		c.monitor = network.NewManual(true)
	}

	if c.replayer == nil {
		c.l.Warn("no replayer provided, queued actions will be kept until one is configured")
	}

	size := opt.MemoryCacheSize
	if opt.EvictionPolicy == eviction.PolicyNone {
		size = 0
	}

	c.hot = eviction.New(eviction.Options{
		Policy:   opt.EvictionPolicy,
		Capacity: size,
	})

	c.ctx, c.cancel = context.WithCancel(ctx)

	c.online.Store(c.monitor.Online())
	c.metrics.SetOnline(c.online.Load())
	c.metrics.SetQueueDepth(len(c.ListQueuedActions()))

	c.unsubscribe = c.monitor.Subscribe(c.handleTransition)

	c.l.Debugf("cache ready. namespace: %s online: %t", c.namespace, c.online.Load())

	return c, nil
}

// nopMetrics discards everything.
type nopMetrics struct{}

func (nopMetrics) ObserveRead(bool)           {}
func (nopMetrics) ObserveExpired()            {}
func (nopMetrics) ObserveStoreFailure(string) {}
func (nopMetrics) ObserveFetch(string)        {}
func (nopMetrics) ObserveReplay(string)       {}
func (nopMetrics) SetQueueDepth(int)          {}
func (nopMetrics) SetOnline(bool)             {}
