package eviction

// make sure nilEviction implements the Eviction interface
var _ Eviction = (*nilEviction)(nil)

// nilEviction keeps nothing: every lookup misses.
type nilEviction struct{}

func (n *nilEviction) Get(key string) (any, bool) {
	return nil, false
}

func (n *nilEviction) Put(key string, value any) {}

func (n *nilEviction) Delete(key string) {}

func (n *nilEviction) Len() int {
	return 0
}

func (n *nilEviction) Clear() {}
