package eviction

import (
	"container/list"
)

// make sure lruCache implements the Eviction interface
var _ Eviction = (*lruCache)(nil)

// lruCache represents a Least Recently Used cache.
type lruCache struct {
	capacity  int
	cache     map[string]*list.Element
	list      *list.List
	finalizer func(string, any)
}

func newLRU(capacity int, finalizer func(string, any)) *lruCache {
	return &lruCache{
		capacity:  capacity,
		cache:     make(map[string]*list.Element),
		list:      list.New(),
		finalizer: finalizer,
	}
}

// lruItem represents a key-value pair stored in the cache.
type lruItem struct {
	key   string
	value any
}

// Get retrieves a value and marks it as the most recently used.
func (lru *lruCache) Get(key string) (any, bool) {
	if elem, found := lru.cache[key]; found {
		lru.list.MoveToFront(elem)

		return elem.Value.(*lruItem).value, true
	}

	return nil, false
}

// Put adds or refreshes a key, evicting the least recently used one when full.
func (lru *lruCache) Put(key string, value any) {
	if elem, found := lru.cache[key]; found {
		elem.Value.(*lruItem).value = value
		lru.list.MoveToFront(elem)

		return
	}

	if lru.list.Len() >= lru.capacity {
		lru.evict()
	}

	lru.cache[key] = lru.list.PushFront(&lruItem{key: key, value: value})
}

// Delete removes a key from the eviction cache.
func (lru *lruCache) Delete(key string) {
	if elem, found := lru.cache[key]; found {
		lru.list.Remove(elem)

		delete(lru.cache, key)
	}
}

// Len returns the number of keys held.
func (lru *lruCache) Len() int {
	return lru.list.Len()
}

// evict removes the least recently used item from the cache.
func (lru *lruCache) evict() {
	back := lru.list.Back()
	if back == nil {
		return
	}

	item := back.Value.(*lruItem)

	delete(lru.cache, item.key)
	lru.list.Remove(back)

	lru.finalizer(item.key, item.value)
}

// Clear clears the eviction cache
func (lru *lruCache) Clear() {
	lru.cache = make(map[string]*list.Element)
	lru.list = list.New()
}
