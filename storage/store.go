// Package storage holds the persistent key-value backends the offline cache
// writes its entries and pending-action queue to.
package storage

import "errors"

var (
	// ErrNotFound is returned by Get when the key does not exist.
	ErrNotFound = errors.New("key not found")

	// ErrQuotaExceeded is returned by Set when the write would grow the store past its quota.
	ErrQuotaExceeded = errors.New("storage quota exceeded")

	// ErrClosed is returned by every operation on a closed store.
	ErrClosed = errors.New("store closed")
)

//go:generate mockgen -destination=../mocks/store.go -package=mocks github.com/achu-1612/offcache/storage Store

// Store is a flat byte-oriented key-value store.
// Implementations must be safe for concurrent use.
type Store interface {
	// Get returns the value stored under key, or ErrNotFound.
	Get(key string) ([]byte, error)
	// Set stores value under key, overwriting any previous value.
	Set(key string, value []byte) error
	// Delete removes key. Deleting a missing key is not an error.
	Delete(key string) error
	// Keys returns every key starting with prefix, in lexical order.
	Keys(prefix string) ([]string, error)
	// Close releases the resources held by the store.
	Close() error
}

// Backend names a Store implementation.
type Backend string

const (
	BackendMemory Backend = "memory"
	BackendBadger Backend = "badger"
	BackendSQLite Backend = "sqlite"
)
