package eviction

import (
	"container/list"
)

/*
	Refer the paper -  An O(1) algorithm for implementing the LFU cache eviction scheme
	Dt- 16 Aug 2010
*/

type lfuItem struct {
	key       string
	value     any
	frequency int
}

// make sure lfuCache implements the Eviction interface
var _ Eviction = (*lfuCache)(nil)

// lfuCache evicts the least frequently used item, the least recently
// used one among equals.
type lfuCache struct {
	maxSize   int
	cache     map[string]*list.Element
	frequency map[int]*list.List
	minFreq   int
	finalizer func(string, any)
}

func newLFU(maxSize int, finalizer func(string, any)) *lfuCache {
	return &lfuCache{
		maxSize:   maxSize,
		cache:     make(map[string]*list.Element),
		frequency: make(map[int]*list.List),
		finalizer: finalizer,
	}
}

// Get retrieves a value and bumps its frequency.
func (c *lfuCache) Get(key string) (any, bool) {
	elem, ok := c.cache[key]
	if !ok {
		return nil, false
	}

	item := elem.Value.(*lfuItem)

	c.touch(elem)

	return item.value, true
}

// Put adds or refreshes a key, evicting the least frequently used one when full.
func (c *lfuCache) Put(key string, value any) {
	if elem, ok := c.cache[key]; ok {
		elem.Value.(*lfuItem).value = value
		c.touch(elem)

		return
	}

	if len(c.cache) >= c.maxSize {
		c.evict()
	}

	c.cache[key] = c.bucket(1).PushFront(&lfuItem{key: key, value: value, frequency: 1})
	c.minFreq = 1
}

// Delete removes a key from the eviction cache.
func (c *lfuCache) Delete(key string) {
	elem, ok := c.cache[key]
	if !ok {
		return
	}

	c.unlink(elem)

	delete(c.cache, key)
}

// Len returns the number of keys held.
func (c *lfuCache) Len() int {
	return len(c.cache)
}

// Clear clears/resets the cache.
func (c *lfuCache) Clear() {
	c.cache = make(map[string]*list.Element)
	c.frequency = make(map[int]*list.List)
	c.minFreq = 0
}

func (c *lfuCache) bucket(freq int) *list.List {
	l, ok := c.frequency[freq]
	if !ok {
		l = list.New()
		c.frequency[freq] = l
	}

	return l
}

// unlink removes elem from its frequency bucket, dropping empty buckets.
func (c *lfuCache) unlink(elem *list.Element) {
	item := elem.Value.(*lfuItem)
	l := c.frequency[item.frequency]

	l.Remove(elem)

	if l.Len() == 0 {
		delete(c.frequency, item.frequency)

		if c.minFreq == item.frequency {
			c.minFreq++
		}
	}
}

// touch moves elem to the next frequency bucket.
func (c *lfuCache) touch(elem *list.Element) {
	item := elem.Value.(*lfuItem)

	c.unlink(elem)

	item.frequency++

	c.cache[item.key] = c.bucket(item.frequency).PushFront(item)
}

// evict evicts the least frequently used item
func (c *lfuCache) evict() {
	if len(c.cache) == 0 {
		return
	}

	// minFreq can drift upward after deletes; find the real minimum.
	if _, ok := c.frequency[c.minFreq]; !ok {
		c.minFreq = 0

		for f := range c.frequency {
			if c.minFreq == 0 || f < c.minFreq {
				c.minFreq = f
			}
		}
	}

	l := c.frequency[c.minFreq]
	back := l.Back()
	item := back.Value.(*lfuItem)

	c.unlink(back)
	delete(c.cache, item.key)

	c.finalizer(item.key, item.value)
}
