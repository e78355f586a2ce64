// Package eviction implements the bounded in-memory policies that keep hot
// cache entries decoded in front of the persistent store.
package eviction

type Policy string

const (
	PolicyNone Policy = ""    // nothing is kept in memory
	PolicyLRU  Policy = "lru" // Least Recently Used
	PolicyLFU  Policy = "lfu" // Least Frequently Used
)

const (
	defaultCapacity = 100 // Default capacity for the eviction cache
)

// Eviction is the interface that defines the methods for an eviction policy.
// Implementations are not safe for concurrent use; the owner serializes access.
type Eviction interface {
	// Get retrieves a value from the eviction cache given a key.
	Get(key string) (any, bool)
	// Put adds a key-value pair to the eviction cache.
	Put(key string, value any)
	// Delete removes a key from the eviction cache.
	Delete(key string)
	// Len returns the number of keys held.
	Len() int
	// Clear clears the eviction cache
	Clear()
}

// Options holds the configuration for the eviction cache.
type Options struct {
	// Capacity is the maximum number of items that can be stored in the eviction cache.
	// After this capacity is reached, the cache will start evicting items based on the eviction policy.
	// Default value is 100.
	Capacity int

	// Policy is the eviction policy to be used.
	Policy Policy

	// EvictFinalizer is called when an item is pushed out to make room for another.
	EvictFinalizer func(key string, value any)
}

// New creates a new Eviction instance based on the provided options.
func New(opt Options) Eviction {
	if opt.EvictFinalizer == nil {
		opt.EvictFinalizer = func(key string, value any) {}
	}

	if opt.Capacity <= 0 {
		opt.Capacity = defaultCapacity
	}

	switch opt.Policy {
	case PolicyLFU:
		return newLFU(opt.Capacity, opt.EvictFinalizer)

	case PolicyLRU:
		return newLRU(opt.Capacity, opt.EvictFinalizer)

	default:
		return &nilEviction{}
	}
}

// Valid reports whether p names a known policy.
func (p Policy) Valid() bool {
	switch p {
	case PolicyNone, PolicyLRU, PolicyLFU:
		return true
	default:
		return false
	}
}
